package batch

import (
	"math"

	pixi "github.com/wufuqi123/pixi.js"
)

// buildDrawCalls walks the buffered elements in submission order, groups
// their textures into texture arrays of at most maxTextures entries, and
// builds the draw calls covering each group's element range. O(elements),
// with O(1) work per element.
func (r *Renderer) buildDrawCalls() error {
	s := r.session
	s.begin()
	copy(r.planned, r.bound)

	group, err := r.groups.alloc()
	if err != nil {
		return err
	}
	start := 0
	for i, e := range r.elements {
		t := e.Texture
		if s.assigned(t) {
			continue
		}
		if group.count == r.maxTextures {
			// Close the group: fix sampler units, emit draw calls for the
			// covered range, and open the next group under a fresh tick so
			// its textures are not mistaken for this group's.
			r.planUnits(group)
			if err := r.buildCalls(group, start, i); err != nil {
				return err
			}
			start = i
			s.nextTick()
			if group, err = r.groups.alloc(); err != nil {
				return err
			}
		}
		s.assign(t, group.count)
		t.Touch()
		group.textures[group.count] = t
		group.count++
	}
	if group.count > 0 {
		r.planUnits(group)
		return r.buildCalls(group, start, len(r.elements))
	}
	return nil
}

// planUnits maps a closed group's textures onto sampler units. Textures
// still resident on a unit from a previous draw keep that unit so they need
// no rebinding; the rest take the lowest free units. The chosen units are
// recorded in the session side table for the packer.
func (r *Renderer) planUnits(g *TextureArray) {
	var taken [MaxTextureSlots]bool
	for i := 0; i < g.count; i++ {
		g.units[i] = -1
		for u, bound := range r.planned {
			if bound == g.textures[i] && !taken[u] {
				g.units[i] = u
				taken[u] = true
				break
			}
		}
	}
	free := 0
	for i := 0; i < g.count; i++ {
		if g.units[i] >= 0 {
			continue
		}
		for taken[free] {
			free++
		}
		g.units[i] = free
		taken[free] = true
	}
	for i := 0; i < g.count; i++ {
		r.planned[g.units[i]] = g.textures[i]
		r.session.setUnit(g.textures[i], g.units[i])
	}
}

// buildCalls packs the element range [start, finish) covered by one texture
// array, emitting one draw call per maximal run of consecutive elements
// sharing an effective blend mode. Calls that end up packing no indices are
// given back to the arena.
func (r *Renderer) buildCalls(g *TextureArray, start, finish int) error {
	var (
		call *DrawCall
		prev pixi.BlendMode
		err  error
	)
	for i := start; i < finish; i++ {
		e := r.elements[i]
		eb := e.EffectiveBlend()
		if call == nil || eb != prev {
			if call != nil && call.size == 0 {
				r.calls.unwind()
			}
			if call, err = r.calls.alloc(); err != nil {
				return err
			}
			call.texArray = g
			call.blend = eb
			call.prim = pixi.Triangles
			call.start = r.idxCursor
			prev = eb
		}
		r.packElement(e)
		call.size = r.idxCursor - call.start
	}
	if call != nil && call.size == 0 {
		r.calls.unwind()
	}
	return nil
}

// packElement serializes one element into the scratch buffers at the current
// cursors: one interleaved attribute record per vertex, and its indices
// rebased onto the flush-wide vertex space. Does not allocate.
func (r *Renderer) packElement(e *pixi.Element) {
	unit := math.Float32bits(float32(r.session.unit(e.Texture)))
	argb := pixi.PackColor(e.Tint, e.Alpha, e.Texture.Premultiplied())

	a, c := r.attrBuf, r.attrCursor
	pos, uvs := e.Positions, e.UVs
	for j := 0; j+1 < len(pos); j += 2 {
		a[c+0] = math.Float32bits(pos[j])
		a[c+1] = math.Float32bits(pos[j+1])
		a[c+2] = math.Float32bits(uvs[j])
		a[c+3] = math.Float32bits(uvs[j+1])
		a[c+4] = argb
		a[c+5] = unit
		c += wordsPerVertex
	}
	r.attrCursor = c

	base := uint16(r.packedVertices)
	ib, ic := r.idxBuf, r.idxCursor
	for _, ix := range e.Indices {
		ib[ic] = ix + base
		ic++
	}
	r.idxCursor = ic
	r.packedVertices += e.VertexCount()
}
