package pixi

import (
	"image"
	"image/draw"
	"sync/atomic"
)

// TextureFilter selects how to filter textures when minifying or magnifying.
type TextureFilter int32

const (
	Nearest TextureFilter = iota + 1
	Linear
)

// TextureWrap selects how textures wrap when texture coordinates get outside
// of the range [0, 1]. When used with the batch renderer, the only settings
// that make sense are ClampToEdge (the default) and Repeat on power-of-two
// textures.
type TextureWrap int32

const (
	ClampToEdge TextureWrap = iota + 1
	Repeat
	MirroredRepeat
)

type tp struct {
	wrapS, wrapT         TextureWrap
	minFilter, magFilter TextureFilter
	premultiplied        bool
	deferred             bool
}

// TextureParameter is implemented by functions setting texture parameters.
// See NewTexture.
type TextureParameter interface {
	set(*tp)
}

type textureOptionFunc func(*tp)

func (f textureOptionFunc) set(p *tp) {
	f(p)
}

// Wrap sets the horizontal and vertical wrap modes.
func Wrap(wrapS, wrapT TextureWrap) TextureParameter {
	return textureOptionFunc(func(p *tp) {
		p.wrapS = wrapS
		p.wrapT = wrapT
	})
}

// Filter sets the minification and magnification filters.
func Filter(min, mag TextureFilter) TextureParameter {
	return textureOptionFunc(func(p *tp) {
		p.minFilter = min
		p.magFilter = mag
	})
}

// Premultiplied marks the texture's pixel data as premultiplied by alpha.
func Premultiplied() TextureParameter {
	return textureOptionFunc(func(p *tp) {
		p.premultiplied = true
	})
}

// Deferred creates the texture in a not-ready state. Elements referencing it
// are silently skipped by the batch renderer until MarkReady is called, e.g.
// once an asynchronous pixel source has arrived.
func Deferred() TextureParameter {
	return textureOptionFunc(func(p *tp) {
		p.deferred = true
	})
}

var textureUID uint32

// A Texture is a 2D pixel rectangle shared by any number of elements. The
// Texture value itself is CPU-side; a Context implementation realizes it on
// the device when first bound and re-uploads it whenever the backing image
// has changed.
type Texture struct {
	id     uint32
	width  int
	height int
	params tp

	img   *image.RGBA // backing pixels; nil for externally backed textures
	dirty bool
	ready bool

	native  uint32 // backend name, owned by the Context implementation
	touched uint64 // bind counter, read by the texture GC
}

// NewTexture returns a new texture of the given size backed by a zeroed RGBA
// image.
func NewTexture(width, height int, params ...TextureParameter) *Texture {
	t := newTexture(width, height, params...)
	t.img = image.NewRGBA(image.Rect(0, 0, width, height))
	t.dirty = true
	return t
}

// TextureFromImage creates a texture of the same dimensions as src.
// Regardless of the source image type, the backing store is always RGBA.
func TextureFromImage(src image.Image, params ...TextureParameter) *Texture {
	sr := src.Bounds()
	dr := image.Rectangle{Max: sr.Size()}
	dst := image.NewRGBA(dr)
	draw.Draw(dst, dr, src, sr.Min, draw.Src)
	t := newTexture(dr.Dx(), dr.Dy(), params...)
	t.img = dst
	t.dirty = true
	return t
}

func newTexture(width, height int, params ...TextureParameter) *Texture {
	t := &Texture{
		id:     atomic.AddUint32(&textureUID, 1),
		width:  width,
		height: height,
	}
	for _, p := range params {
		p.set(&t.params)
	}
	t.ready = !t.params.deferred
	return t
}

// ID returns the texture's unique identity.
func (t *Texture) ID() uint32 { return t.id }

// Premultiplied reports whether the pixel data is premultiplied by alpha.
func (t *Texture) Premultiplied() bool { return t.params.premultiplied }

// Ready reports whether the texture can be sampled.
func (t *Texture) Ready() bool { return t != nil && t.ready }

// MarkReady makes a Deferred texture available for sampling.
func (t *Texture) MarkReady() { t.ready = true }

// Touch bumps the texture's bind counter. The batch renderer calls it when
// assigning the texture to a slot; a texture GC can compare counters across
// frames to find unused textures.
func (t *Texture) Touch() { t.touched++ }

// Touched returns the texture's bind counter.
func (t *Texture) Touched() uint64 { return t.touched }

// Image returns the CPU backing image, or nil for externally backed
// textures.
func (t *Texture) Image() *image.RGBA { return t.img }

// Dirty reports whether the backing image changed since the last upload.
func (t *Texture) Dirty() bool { return t.dirty }

// MarkClean is called by the Context implementation after uploading.
func (t *Texture) MarkClean() { t.dirty = false }

// Native returns the backend's name for the texture (0 if not yet realized).
func (t *Texture) Native() uint32 { return t.native }

// SetNative is called by the Context implementation when it realizes or
// discards the device copy of the texture.
func (t *Texture) SetNative(name uint32) { t.native = name }

// WrapModes returns the configured wrap modes (zero values mean default).
func (t *Texture) WrapModes() (s, tw TextureWrap) {
	return t.params.wrapS, t.params.wrapT
}

// Filters returns the configured filters (zero values mean default).
func (t *Texture) Filters() (min, mag TextureFilter) {
	return t.params.minFilter, t.params.magFilter
}

// SetSubImage draws src to the backing image. It works identically to
// draw.Draw with op set to draw.Src and marks the texture dirty.
func (t *Texture) SetSubImage(dr image.Rectangle, src image.Image, sp image.Point) {
	if t.img == nil || dr.Empty() {
		return
	}
	draw.Draw(t.img, dr, src, sp, draw.Src)
	t.dirty = true
}

// Drawable is anything the quad builder can turn into an element: a whole
// texture or a sub-region of one.
type Drawable interface {
	Base() *Texture
	Origin() image.Point
	Size() image.Point
	UV() [4]float32
}

// Base returns t itself.
func (t *Texture) Base() *Texture { return t }

// Origin returns the point of origin of the texture.
func (t *Texture) Origin() image.Point { return image.Point{} }

// Size returns the size of the texture.
func (t *Texture) Size() image.Point { return image.Point{X: t.width, Y: t.height} }

// UV returns the texture's UV coordinates as [u0, v0, u1, v1].
func (t *Texture) UV() [4]float32 { return [4]float32{0, 0, 1, 1} }

// Region returns a region within the texture.
func (t *Texture) Region(bounds image.Rectangle, origin image.Point) *Region {
	return &Region{tex: t, origin: origin, bounds: bounds}
}

// Region is a Drawable that represents a sub-region in a Texture or another
// Region.
type Region struct {
	tex    *Texture
	origin image.Point
	bounds image.Rectangle
}

// Base returns the parent texture.
func (r *Region) Base() *Texture { return r.tex }

// Origin returns the point of origin of the region.
func (r *Region) Origin() image.Point { return r.origin }

// Rect returns the region's bounding rectangle within the parent texture.
func (r *Region) Rect() image.Rectangle { return r.bounds }

// Size returns the size of the region.
func (r *Region) Size() image.Point { return r.bounds.Size() }

// UV returns the region's UV coordinates as [u0, v0, u1, v1].
func (r *Region) UV() [4]float32 {
	w, h := float32(r.tex.width), float32(r.tex.height)
	return [4]float32{
		float32(r.bounds.Min.X) / w, float32(r.bounds.Min.Y) / h,
		float32(r.bounds.Max.X) / w, float32(r.bounds.Max.Y) / h,
	}
}

// Region returns a sub-region within the Region.
func (r *Region) Region(bounds image.Rectangle, origin image.Point) *Region {
	return &Region{
		tex:    r.tex,
		origin: origin.Add(r.bounds.Min),
		bounds: bounds.Add(r.bounds.Min),
	}
}
