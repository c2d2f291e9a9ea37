// Package batch converts independently textured 2D elements into the
// minimum practical number of GPU draw calls, respecting texture-unit
// limits, submission order and blend-mode transitions.
//
// A Renderer accumulates elements via Submit and flushes them synchronously
// when capacity runs out, or when Flush/Stop is called. All pooled resources
// (draw calls, texture arrays, scratch buffers, geometry slots) live for the
// renderer's lifetime; a Renderer is not safe for concurrent use, and two
// renderers must not flush the same textures concurrently.
package batch

import (
	"github.com/pkg/errors"

	pixi "github.com/wufuqi123/pixi.js"
)

// MaxTextureSlots caps the sampler array size regardless of what the device
// reports.
const MaxTextureSlots = 32

// Option configures a Renderer.
type Option func(*config)

type config struct {
	maxVertices int
	maxTextures int
}

// MaxVertices sets the maximum number of buffered vertices before a flush is
// forced. The default is pixi.SpriteBatchSize * 4.
func MaxVertices(n int) Option {
	return func(c *config) { c.maxVertices = n }
}

// MaxTextures overrides the device texture-unit ceiling. Values above the
// device limit or MaxTextureSlots are clamped.
func MaxTextures(n int) Option {
	return func(c *config) { c.maxTextures = n }
}

// Renderer is the batching core. Create one with New, wrap a draw phase in
// Start/Stop, and Submit elements in paint order in between.
type Renderer struct {
	ctx pixi.Context
	gen pixi.ShaderGenerator

	maxVertices int
	maxTextures int
	sameBuffer  bool

	// element buffer
	elements    []*pixi.Element
	vertexCount int
	indexCount  int

	session *flushSession
	calls   drawCallArena
	groups  textureArrayArena
	bufs    bufferPool
	geoms   geometryRing

	shaders map[int]pixi.Shader

	// bound mirrors the device's sampler units during the draw phase;
	// planned is the working copy the slot assigner builds group unit maps
	// against, seeded from bound at flush start.
	bound   []*pixi.Texture
	planned []*pixi.Texture

	// per-flush packing state
	attrBuf        []uint32
	idxBuf         []uint16
	attrCursor     int
	idxCursor      int
	packedVertices int

	started bool
	stats   Stats
}

// New creates a Renderer drawing through ctx. caps is consulted once; call
// InvalidateContext after a device reset.
func New(ctx pixi.Context, gen pixi.ShaderGenerator, caps pixi.DeviceCaps, opts ...Option) (*Renderer, error) {
	if ctx == nil || gen == nil || caps == nil {
		return nil, errors.New("batch: nil collaborator")
	}
	cfg := config{
		maxVertices: pixi.SpriteBatchSize * 4,
		maxTextures: caps.MaxTextureUnits(),
	}
	for _, o := range opts {
		o(&cfg)
	}
	if cfg.maxVertices < 4 {
		return nil, errors.Errorf("batch: vertex capacity %d too small", cfg.maxVertices)
	}
	if cfg.maxVertices > 1<<16 {
		return nil, errors.Errorf("batch: vertex capacity %d exceeds 16-bit index space", cfg.maxVertices)
	}
	maxTextures := cfg.maxTextures
	if m := caps.MaxTextureUnits(); maxTextures > m {
		maxTextures = m
	}
	if maxTextures > MaxTextureSlots {
		maxTextures = MaxTextureSlots
	}
	if maxTextures < 1 {
		return nil, errors.Errorf("batch: invalid texture unit count %d", maxTextures)
	}

	maxElements := cfg.maxVertices / 4
	ceiling := maxElements / 4
	if ceiling < 1 {
		ceiling = 1
	}
	r := &Renderer{
		ctx:         ctx,
		gen:         gen,
		maxVertices: cfg.maxVertices,
		maxTextures: maxTextures,
		sameBuffer:  caps.CanUploadSameBuffer(),
		elements:    make([]*pixi.Element, 0, maxElements),
		session:     newFlushSession(),
		calls:       drawCallArena{ceiling: ceiling},
		groups:      textureArrayArena{ceiling: ceiling, maxTextures: maxTextures},
		shaders:     make(map[int]pixi.Shader),
		bound:       make([]*pixi.Texture, maxTextures),
		planned:     make([]*pixi.Texture, maxTextures),
	}
	return r, nil
}

// MaxTextures returns the effective texture-unit ceiling.
func (r *Renderer) MaxTextures() int { return r.maxTextures }

// Start enters the renderer's draw phase: it binds the batch shader and, on
// devices that allow same-buffer reuse, geometry slot 0 for the whole frame.
func (r *Renderer) Start() error {
	if r.started {
		panic("batch: Start called twice without Stop")
	}
	sh, err := r.shader(r.maxTextures)
	if err != nil {
		return err
	}
	r.ctx.UseShader(sh)
	if r.sameBuffer {
		g, err := r.geoms.acquire(r.ctx, true)
		if err != nil {
			return err
		}
		r.ctx.BindGeometry(g)
	}
	r.started = true
	return nil
}

// Stop flushes any buffered elements and leaves the draw phase.
func (r *Renderer) Stop() error {
	if !r.started {
		panic("batch: Stop without Start")
	}
	err := r.Flush()
	r.started = false
	return err
}

// BeginFrame marks a frame boundary, restarting the geometry slot ring so
// that flushes cycle through slots from the start each frame on devices
// without same-buffer reuse.
func (r *Renderer) BeginFrame() {
	if !r.sameBuffer {
		r.geoms.rewind()
	}
}

// Submit queues an element for drawing. Elements whose texture is nil or not
// yet ready for sampling are silently skipped. When the element's vertices
// would exceed the buffered vertex capacity, a flush runs first; its error,
// if any, is returned and the element is not queued.
func (r *Renderer) Submit(e *pixi.Element) error {
	if !r.started {
		panic("batch: Submit outside Start/Stop")
	}
	if !e.Texture.Ready() {
		return nil
	}
	vc := e.VertexCount()
	if r.vertexCount+vc > r.maxVertices {
		if err := r.Flush(); err != nil {
			return err
		}
	}
	r.elements = append(r.elements, e)
	r.vertexCount += vc
	r.indexCount += len(e.Indices)
	return nil
}

// Flush synchronously converts all buffered elements into draw calls and
// issues them. A flush with no buffered vertices is a no-op.
func (r *Renderer) Flush() error {
	if r.vertexCount == 0 {
		return nil
	}

	r.attrBuf = r.bufs.attributeBuffer(r.vertexCount * wordsPerVertex)
	r.idxBuf = r.bufs.indexBuffer(r.indexCount)
	r.attrCursor = 0
	r.idxCursor = 0
	r.packedVertices = 0
	r.calls.rewind()
	r.groups.rewind()

	if err := r.buildDrawCalls(); err != nil {
		return errors.Wrap(err, "batch: flush")
	}

	geom, err := r.geoms.acquire(r.ctx, r.sameBuffer)
	if err != nil {
		return err
	}
	r.ctx.UploadVertices(geom, asBytes(r.attrBuf[:r.attrCursor]))
	r.ctx.UploadIndices(geom, r.idxBuf[:r.idxCursor])
	if !r.sameBuffer {
		r.ctx.BindGeometry(geom)
	}

	r.drawBatches()

	r.stats.Flushes++
	if r.vertexCount > r.stats.PeakVertices {
		r.stats.PeakVertices = r.vertexCount
	}
	pixi.Logger().Debug("batch flush",
		"elements", len(r.elements),
		"vertices", r.vertexCount,
		"indices", r.indexCount,
		"drawCalls", r.calls.len())

	r.elements = r.elements[:0]
	r.vertexCount = 0
	r.indexCount = 0
	return nil
}

// drawBatches issues the built draw calls, binding a texture array only when
// it differs from the previous call's and setting blend state per call.
func (r *Renderer) drawBatches() {
	var last *TextureArray
	for i := 0; i < r.calls.len(); i++ {
		c := r.calls.at(i)
		if c.texArray != last {
			r.bindTextureArray(c.texArray)
			last = c.texArray
		}
		r.ctx.SetBlendMode(c.blend)
		r.ctx.DrawIndexed(c.prim, c.size, c.start*2)
	}
	r.stats.DrawCalls += r.calls.len()
}

// bindTextureArray binds the group's textures to their assigned units,
// skipping units whose content is unchanged.
func (r *Renderer) bindTextureArray(g *TextureArray) {
	for i := 0; i < g.count; i++ {
		t, u := g.textures[i], g.units[i]
		if r.bound[u] == t {
			continue
		}
		r.ctx.BindTexture(t, u)
		r.bound[u] = t
		r.stats.Rebinds++
	}
}

// shader returns the cached batch shader for n sampler slots, compiling it
// through the generator collaborator on first use.
func (r *Renderer) shader(n int) (pixi.Shader, error) {
	if s, ok := r.shaders[n]; ok {
		return s, nil
	}
	s, err := r.gen.BatchShader(n)
	if err != nil {
		return nil, errors.Wrapf(err, "batch: shader for %d textures", n)
	}
	pixi.Logger().Info("batch shader compiled", "textures", n)
	r.shaders[n] = s
	return s, nil
}

// InvalidateContext discards every GPU-backed object (geometry slots,
// shaders, sampler bindings) after a device reset. They are rebuilt lazily
// on the next Start/Flush.
func (r *Renderer) InvalidateContext() {
	pixi.Logger().Warn("batch: graphics context lost, dropping GPU objects")
	r.geoms.invalidate()
	clear(r.shaders)
	clear(r.bound)
	clear(r.planned)
	r.started = false
}

// Close releases all pooled resources. The Renderer must not be used
// afterwards.
func (r *Renderer) Close() {
	for n, s := range r.shaders {
		s.Delete()
		delete(r.shaders, n)
	}
	r.geoms.release()
	r.bufs.release()
	r.elements = nil
	clear(r.bound)
	clear(r.planned)
	r.started = false
}
