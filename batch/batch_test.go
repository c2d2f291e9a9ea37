package batch

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	pixi "github.com/wufuqi123/pixi.js"
)

type fakeGeometry struct {
	id      int
	deleted bool
}

func (g *fakeGeometry) Delete() { g.deleted = true }

type fakeShader struct {
	slots   int
	deleted bool
}

func (s *fakeShader) Delete() { s.deleted = true }

type bindRec struct {
	tex  *pixi.Texture
	unit int
}

type drawRec struct {
	prim   pixi.PrimitiveType
	count  int
	offset int // bytes
	blend  pixi.BlendMode
}

// fakeContext records every backend call so tests can decode what a flush
// actually produced.
type fakeContext struct {
	geoms    []*fakeGeometry
	bound    pixi.Geometry
	vertices []byte
	indices  []uint16
	binds    []bindRec
	blend    pixi.BlendMode
	draws    []drawRec
	uploads  int
	shader   pixi.Shader
}

func (c *fakeContext) NewGeometry() (pixi.Geometry, error) {
	g := &fakeGeometry{id: len(c.geoms)}
	c.geoms = append(c.geoms, g)
	return g, nil
}

func (c *fakeContext) BindGeometry(g pixi.Geometry) { c.bound = g }

func (c *fakeContext) UploadVertices(g pixi.Geometry, data []byte) {
	c.vertices = append(c.vertices[:0], data...)
	c.uploads++
}

func (c *fakeContext) UploadIndices(g pixi.Geometry, data []uint16) {
	c.indices = append(c.indices[:0], data...)
}

func (c *fakeContext) BindTexture(t *pixi.Texture, unit int) {
	c.binds = append(c.binds, bindRec{tex: t, unit: unit})
}

func (c *fakeContext) SetBlendMode(m pixi.BlendMode) { c.blend = m }

func (c *fakeContext) UseShader(s pixi.Shader) { c.shader = s }

func (c *fakeContext) DrawIndexed(p pixi.PrimitiveType, indexCount, byteOffset int) {
	c.draws = append(c.draws, drawRec{prim: p, count: indexCount, offset: byteOffset, blend: c.blend})
}

type fakeCaps struct {
	units      int
	sameBuffer bool
}

func (c fakeCaps) MaxTextureUnits() int      { return c.units }
func (c fakeCaps) CanUploadSameBuffer() bool { return c.sameBuffer }

type fakeGen struct {
	compiled int
}

func (g *fakeGen) BatchShader(maxTextures int) (pixi.Shader, error) {
	g.compiled++
	return &fakeShader{slots: maxTextures}, nil
}

func newTestRenderer(t *testing.T, units int, sameBuffer bool, opts ...Option) (*Renderer, *fakeContext, *fakeGen) {
	t.Helper()
	ctx := &fakeContext{}
	gen := &fakeGen{}
	r, err := New(ctx, gen, fakeCaps{units: units, sameBuffer: sameBuffer}, opts...)
	require.NoError(t, err)
	return r, ctx, gen
}

func quad(tex *pixi.Texture, blend pixi.BlendMode) *pixi.Element {
	return pixi.NewQuad(tex, pixi.Pt(0, 0), pixi.Pt(1, 1), 0, pixi.White, 1, blend)
}

// elementOrder decodes the concatenation of all draw calls' index ranges
// back to element identity, assuming every submitted element was a quad.
func elementOrder(t *testing.T, ctx *fakeContext) []int {
	t.Helper()
	var order []int
	for _, d := range ctx.draws {
		require.Zero(t, d.offset%2)
		start := d.offset / 2
		require.LessOrEqual(t, start+d.count, len(ctx.indices))
		for _, ix := range ctx.indices[start : start+d.count] {
			order = append(order, int(ix)/4)
		}
	}
	return order
}

func TestFlushEmpty(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true)
	require.NoError(t, r.Start())
	require.NoError(t, r.Flush())
	assert.Empty(t, ctx.draws)
	assert.Empty(t, ctx.binds)
	assert.Zero(t, ctx.uploads)
	assert.Zero(t, r.attrCursor)
	assert.Zero(t, r.idxCursor)
	assert.Zero(t, r.Stats().Flushes)
	require.NoError(t, r.Stop())
}

func TestSingleTextureSingleBlend(t *testing.T) {
	// 5 quads, one texture, one blend mode: one texture array of one
	// texture, one draw call of 30 indices, 20 packed vertex records.
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(8, 8, pixi.Premultiplied())
	require.NoError(t, r.Start())
	for i := 0; i < 5; i++ {
		require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	}
	require.NoError(t, r.Stop())

	require.Len(t, ctx.draws, 1)
	assert.Equal(t, 30, ctx.draws[0].count)
	assert.Equal(t, 0, ctx.draws[0].offset)
	assert.Equal(t, pixi.BlendNormal, ctx.draws[0].blend)
	require.Len(t, ctx.binds, 1)
	assert.Same(t, tex, ctx.binds[0].tex)
	assert.Len(t, ctx.vertices, 5*4*vertexStride)
}

func TestTwoTexturesOneUnit(t *testing.T) {
	// Two distinct textures on a device with a single texture unit must
	// produce two texture-array groups and two draw calls, even with equal
	// blend modes.
	r, ctx, _ := newTestRenderer(t, 1, true)
	a := pixi.NewTexture(4, 4, pixi.Premultiplied())
	b := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(a, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(b, pixi.BlendNormal)))
	require.NoError(t, r.Stop())

	require.Len(t, ctx.draws, 2)
	assert.Equal(t, 6, ctx.draws[0].count)
	assert.Equal(t, 6, ctx.draws[1].count)
	require.Len(t, ctx.binds, 2)
	assert.Same(t, a, ctx.binds[0].tex)
	assert.Same(t, b, ctx.binds[1].tex)
	assert.Equal(t, 0, ctx.binds[0].unit)
	assert.Equal(t, 0, ctx.binds[1].unit)
	assert.Equal(t, []int{0, 0, 0, 0, 0, 0, 1, 1, 1, 1, 1, 1}, elementOrder(t, ctx))
}

func TestOrderPreservation(t *testing.T) {
	// Whatever the grouping and blend runs, decoding all index ranges in
	// issue order must reproduce the submission order exactly.
	r, ctx, _ := newTestRenderer(t, 2, true)
	texes := []*pixi.Texture{
		pixi.NewTexture(4, 4, pixi.Premultiplied()),
		pixi.NewTexture(4, 4, pixi.Premultiplied()),
		pixi.NewTexture(4, 4, pixi.Premultiplied()),
	}
	blends := []pixi.BlendMode{
		pixi.BlendNormal, pixi.BlendNormal, pixi.BlendAdd,
		pixi.BlendNormal, pixi.BlendScreen, pixi.BlendScreen,
		pixi.BlendAdd, pixi.BlendNormal,
	}
	require.NoError(t, r.Start())
	for i, b := range blends {
		require.NoError(t, r.Submit(quad(texes[i%len(texes)], b)))
	}
	require.NoError(t, r.Stop())

	order := elementOrder(t, ctx)
	require.Len(t, order, len(blends)*6)
	for i, id := range order {
		assert.Equal(t, i/6, id, "index %d out of submission order", i)
	}
}

func TestBlendRuns(t *testing.T) {
	// One draw call per maximal run of consecutive same-blend elements.
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	blends := []pixi.BlendMode{
		pixi.BlendNormal, pixi.BlendNormal,
		pixi.BlendAdd, pixi.BlendAdd, pixi.BlendAdd,
		pixi.BlendNormal,
	}
	require.NoError(t, r.Start())
	for _, b := range blends {
		require.NoError(t, r.Submit(quad(tex, b)))
	}
	require.NoError(t, r.Stop())

	require.Len(t, ctx.draws, 3)
	assert.Equal(t, 12, ctx.draws[0].count)
	assert.Equal(t, pixi.BlendNormal, ctx.draws[0].blend)
	assert.Equal(t, 18, ctx.draws[1].count)
	assert.Equal(t, pixi.BlendAdd, ctx.draws[1].blend)
	assert.Equal(t, 6, ctx.draws[2].count)
	// one texture array for the whole flush
	assert.Len(t, ctx.binds, 1)
}

func TestAlphaModeSplitsRuns(t *testing.T) {
	// Same nominal blend but different texture alpha modes yields different
	// effective modes, so the run splits.
	r, ctx, _ := newTestRenderer(t, 16, true)
	pm := pixi.NewTexture(4, 4, pixi.Premultiplied())
	npm := pixi.NewTexture(4, 4)
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(pm, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(npm, pixi.BlendNormal)))
	require.NoError(t, r.Stop())

	require.Len(t, ctx.draws, 2)
	assert.Equal(t, pixi.BlendNormal, ctx.draws[0].blend)
	assert.Equal(t, pixi.BlendNormalNPM, ctx.draws[1].blend)
}

func TestIndexRemap(t *testing.T) {
	// Two elements with local index spaces [0,1,2] must pack to global
	// offsets base and base+3, never aliasing.
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	tri := func() *pixi.Element {
		return &pixi.Element{
			Positions: []float32{0, 0, 1, 0, 0, 1},
			UVs:       []float32{0, 0, 1, 0, 0, 1},
			Indices:   []uint16{0, 1, 2},
			Texture:   tex,
			Tint:      pixi.White,
			Alpha:     1,
		}
	}
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(tri()))
	require.NoError(t, r.Submit(tri()))
	require.NoError(t, r.Stop())

	assert.Equal(t, []uint16{0, 1, 2, 3, 4, 5}, ctx.indices[:6])
}

func TestZeroIndexCallNotCounted(t *testing.T) {
	// An element contributing vertices but no indices must not leave an
	// empty draw call behind.
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	e := &pixi.Element{
		Positions: []float32{0, 0, 1, 0, 0, 1},
		UVs:       []float32{0, 0, 1, 0, 0, 1},
		Texture:   tex,
		Tint:      pixi.White,
		Alpha:     1,
	}
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(e))
	require.NoError(t, r.Stop())
	assert.Empty(t, ctx.draws)
}

func TestNotReadySkipped(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Deferred())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Flush())
	assert.Empty(t, ctx.draws)

	tex.MarkReady()
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	assert.Len(t, ctx.draws, 1)
}

func TestNilTextureSkipped(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true)
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(&pixi.Element{Positions: []float32{0, 0}, UVs: []float32{0, 0}}))
	require.NoError(t, r.Stop())
	assert.Empty(t, ctx.draws)
}

func TestAutoFlushOnCapacity(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true, MaxVertices(8))
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	assert.Empty(t, ctx.draws)
	// third quad exceeds the 8-vertex capacity and forces a flush first
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.Len(t, ctx.draws, 1)
	assert.Equal(t, 12, ctx.draws[0].count)
	require.NoError(t, r.Stop())
	require.Len(t, ctx.draws, 2)
	assert.Equal(t, 6, ctx.draws[1].count)
}

func TestDrawCallCeiling(t *testing.T) {
	// maxVertices 64 -> 16 elements -> ceiling of 4 draw calls. Five blend
	// runs in one flush must fail with ErrDrawCallLimit, not truncate.
	r, ctx, _ := newTestRenderer(t, 16, true, MaxVertices(64))
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	blends := []pixi.BlendMode{
		pixi.BlendNormal, pixi.BlendAdd, pixi.BlendNormal, pixi.BlendAdd, pixi.BlendNormal,
	}
	require.NoError(t, r.Start())
	for _, b := range blends {
		require.NoError(t, r.Submit(quad(tex, b)))
	}
	err := r.Flush()
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrDrawCallLimit))
	assert.Empty(t, ctx.draws)
}

func TestRebindElision(t *testing.T) {
	// Textures still resident on their units from the previous flush are
	// not rebound.
	r, ctx, _ := newTestRenderer(t, 2, true)
	a := pixi.NewTexture(4, 4, pixi.Premultiplied())
	b := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(a, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(b, pixi.BlendNormal)))
	require.NoError(t, r.Flush())
	require.Len(t, ctx.binds, 2)

	require.NoError(t, r.Submit(quad(b, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(a, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	assert.Len(t, ctx.binds, 2, "second flush must reuse both resident units")
	assert.Equal(t, 2, r.Stats().Rebinds)
}

func TestGroupTickSeparation(t *testing.T) {
	// A texture seen in an earlier group must be re-assigned when it shows
	// up again after the group closed.
	r, ctx, _ := newTestRenderer(t, 1, true)
	a := pixi.NewTexture(4, 4, pixi.Premultiplied())
	b := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(a, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(b, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(a, pixi.BlendNormal)))
	require.NoError(t, r.Stop())

	require.Len(t, ctx.draws, 3)
	order := elementOrder(t, ctx)
	for i, id := range order {
		assert.Equal(t, i/6, id)
	}
}

func TestTextureArrayBound(t *testing.T) {
	// Every group built over a mixed stream stays within the unit ceiling.
	const units = 3
	r, _, _ := newTestRenderer(t, units, true)
	texes := make([]*pixi.Texture, 7)
	for i := range texes {
		texes[i] = pixi.NewTexture(4, 4, pixi.Premultiplied())
	}
	require.NoError(t, r.Start())
	for i := 0; i < 21; i++ {
		require.NoError(t, r.Submit(quad(texes[i%len(texes)], pixi.BlendNormal)))
	}
	require.NoError(t, r.Flush())
	for i := 0; i < r.groups.next; i++ {
		assert.LessOrEqual(t, r.groups.arrays[i].Count(), units)
	}
	require.NoError(t, r.Stop())
}

func TestGeometryRingPerFlush(t *testing.T) {
	// Without same-buffer reuse, each flush in a frame takes a fresh slot;
	// the next frame starts over at slot 0.
	r, ctx, _ := newTestRenderer(t, 16, false)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Flush())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Flush())
	assert.Len(t, ctx.geoms, 2)

	r.BeginFrame()
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	assert.Len(t, ctx.geoms, 2, "new frame must reuse slot 0")
}

func TestSameBufferReuse(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Flush())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	assert.Len(t, ctx.geoms, 1)
}

func TestShaderCacheAndContextLoss(t *testing.T) {
	r, ctx, gen := newTestRenderer(t, 16, true)
	require.NoError(t, r.Start())
	require.NoError(t, r.Stop())
	require.NoError(t, r.Start())
	require.NoError(t, r.Stop())
	assert.Equal(t, 1, gen.compiled, "shader must be cached across draw phases")
	assert.Equal(t, 16, ctx.shader.(*fakeShader).slots)

	r.InvalidateContext()
	require.NoError(t, r.Start())
	require.NoError(t, r.Stop())
	assert.Equal(t, 2, gen.compiled, "context loss must recompile")
	assert.Len(t, ctx.geoms, 2, "context loss must recreate geometry")
}

func TestGCTouch(t *testing.T) {
	r, _, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	before := tex.Touched()
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	assert.Equal(t, before+1, tex.Touched(), "one touch per flush, not per element")
}

func TestMaxTexturesClamped(t *testing.T) {
	r, _, _ := newTestRenderer(t, 4, true, MaxTextures(64))
	assert.Equal(t, 4, r.MaxTextures())
}

func TestClose(t *testing.T) {
	r, ctx, _ := newTestRenderer(t, 16, true)
	tex := pixi.NewTexture(4, 4, pixi.Premultiplied())
	require.NoError(t, r.Start())
	require.NoError(t, r.Submit(quad(tex, pixi.BlendNormal)))
	require.NoError(t, r.Stop())
	r.Close()
	assert.True(t, ctx.shader.(*fakeShader).deleted)
	for _, g := range ctx.geoms {
		assert.True(t, g.deleted)
	}
}

func TestStatsString(t *testing.T) {
	s := Stats{Flushes: 2, DrawCalls: 3, Rebinds: 4, PeakVertices: 20}
	assert.Equal(t, "Batch[2 flushes, 3 draw calls, 4 rebinds, peak 20 vertices]", s.String())
}
