// Package text draws strings through a batch submitter, one textured quad
// per glyph. Glyphs are rasterized on demand into shared texture-atlas pages
// and cached per sub-pixel offset.
package text

import (
	"image"
	"unicode/utf8"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"

	pixi "github.com/wufuqi123/pixi.js"
)

const (
	// see subPixels() in github.com/golang/freetype/truetype/face.go
	SubPixelsX    = 8
	subPixelBiasX = 4
	subPixelMaskX = -8
	SubPixelsY    = 8
	subPixelBiasY = 4
	subPixelMaskY = -8
)

// TextureSize is the size of font atlas pages. It should be adjusted to be
// no larger than the device's maximum texture size.
var TextureSize = 1024

// Hinting selects how to quantize a vector font's glyph nodes.
//
// Not all fonts support hinting. This is a convenience duplicate of
// golang.org/x/image/font#Hinting.
type Hinting int

const (
	HintingNone     Hinting = Hinting(font.HintingNone)
	HintingVertical         = Hinting(font.HintingVertical)
	HintingFull             = Hinting(font.HintingFull)
)

// ParseFont parses a TrueType font from data.
func ParseFont(data []byte) (*truetype.Font, error) {
	return truetype.Parse(data)
}

// NewFace returns a font face for f at the given size (72 DPI), configured
// with the sub-pixel resolution the glyph cache expects.
func NewFace(f *truetype.Font, size float64, h Hinting) font.Face {
	return truetype.NewFace(f, &truetype.Options{
		Size:       size,
		Hinting:    font.Hinting(h),
		DPI:        72,
		SubPixelsX: SubPixelsX,
		SubPixelsY: SubPixelsY,
	})
}

type cacheKey struct {
	r  rune
	fx uint8
	fy uint8
}

type cacheValue struct {
	index int // glyph index, -1 for empty glyphs
	adv   fixed.Int26_6
}

// A Drawer draws text for a single font face. It is not safe for concurrent
// use.
type Drawer struct {
	face   font.Face
	glyphs []pixi.Region
	cache  map[cacheKey]cacheValue
	pages  []*pixi.Texture
	p      image.Point // write position in the current page
	lh     int         // current line height in the current page
	mag    pixi.TextureFilter
}

// NewDrawer returns a Drawer for the given face. magFilter applies to the
// atlas pages.
func NewDrawer(face font.Face, magFilter pixi.TextureFilter) *Drawer {
	return &Drawer{
		face:  face,
		cache: make(map[cacheKey]cacheValue),
		mag:   magFilter,
	}
}

// Face returns the drawer's font face.
func (d *Drawer) Face() font.Face { return d.face }

// Pages returns the number of atlas pages allocated so far.
func (d *Drawer) Pages() int { return len(d.pages) }

// DrawString draws s at (x, y) with the given tint and opacity, submitting
// one quad per visible glyph to b. It returns the horizontal advance in
// pixels.
func (d *Drawer) DrawString(b pixi.Submitter, x, y float32, s string, tint uint32, alpha float32) (advance float32, err error) {
	dot := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	sp := dot.X
	prev := rune(-1)
	for _, r := range s {
		if prev >= 0 {
			dot.X += d.face.Kern(prev, r)
		}
		dp, glyph, adv := d.Glyph(dot, r)
		if glyph != nil {
			if err = b.Submit(pixi.NewQuad(glyph, pixi.PtPt(dp), pixi.Pt(1, 1), 0, tint, alpha, pixi.BlendNormal)); err != nil {
				return float32(dot.X-sp) / 64, err
			}
		}
		dot.X += adv
		prev = r
	}
	return float32(dot.X-sp) / 64, nil
}

// DrawBytes is equivalent to DrawString(b, x, y, string(s), ...) but may be
// more efficient.
func (d *Drawer) DrawBytes(b pixi.Submitter, x, y float32, s []byte, tint uint32, alpha float32) (advance float32, err error) {
	dot := fixed.Point26_6{X: fixed.Int26_6(x * 64), Y: fixed.Int26_6(y * 64)}
	sp := dot.X
	prev := rune(-1)
	for len(s) > 0 {
		r, sz := utf8.DecodeRune(s)
		s = s[sz:]
		if prev >= 0 {
			dot.X += d.face.Kern(prev, r)
		}
		dp, glyph, adv := d.Glyph(dot, r)
		if glyph != nil {
			if err = b.Submit(pixi.NewQuad(glyph, pixi.PtPt(dp), pixi.Pt(1, 1), 0, tint, alpha, pixi.BlendNormal)); err != nil {
				return float32(dot.X-sp) / 64, err
			}
		}
		dot.X += adv
		prev = r
	}
	return float32(dot.X-sp) / 64, nil
}

func (d *Drawer) currentPage() *pixi.Texture {
	if len(d.pages) == 0 {
		return nil
	}
	return d.pages[len(d.pages)-1]
}

// Glyph returns the cached atlas region for r drawn at dot, rasterizing and
// caching it on first use. A nil region with a non-zero advance denotes an
// empty glyph (e.g. a space); a nil region with zero advance denotes a rune
// missing from the face.
func (d *Drawer) Glyph(dot fixed.Point26_6, r rune) (dp image.Point, gr *pixi.Region, advance fixed.Int26_6) {
	dx, dy := (dot.X+subPixelBiasX)&subPixelMaskX, (dot.Y+subPixelBiasY)&subPixelMaskY
	ix, iy := int(dx>>6), int(dy>>6)

	key := cacheKey{r, uint8(dx & 0x3f), uint8(dy & 0x3f)}
	if v, ok := d.cache[key]; ok {
		if idx := v.index; idx >= 0 {
			return image.Point{X: ix, Y: iy}, &d.glyphs[idx], v.adv
		}
		return image.Point{}, nil, v.adv
	}

	dr, mask, maskp, advance, ok := d.face.Glyph(fixed.Point26_6{X: dot.X & 0x3f, Y: dot.Y & 0x3f}, r)
	if !ok {
		return image.Point{}, nil, 0
	}
	sz := dr.Size()
	if sz.X == 0 || sz.Y == 0 {
		d.cache[key] = cacheValue{-1, advance}
		return image.Point{}, nil, advance
	}
	// adjust point of origin to account for rounding when quantizing subPixels
	org := image.Pt(-dr.Min.X+(ix-dot.X.Floor()), -dr.Min.Y+(iy-dot.Y.Floor()))
	tr := dr.Add(image.Pt(-dr.Min.X+d.p.X, -dr.Min.Y+d.p.Y))
	t := d.currentPage()
	if t != nil {
		sz := t.Size()
		if tr.Max.X > sz.X {
			d.p = image.Pt(0, d.p.Y+d.lh)
			tr = tr.Add(image.Pt(-tr.Min.X, d.lh))
		}
		if tr.Max.Y > sz.Y {
			t = nil
		}
	}
	if t == nil {
		// glyph masks render as premultiplied white, tinted at pack time
		t = pixi.NewTexture(TextureSize, TextureSize,
			pixi.Premultiplied(),
			pixi.Wrap(pixi.ClampToEdge, pixi.ClampToEdge),
			pixi.Filter(pixi.Linear, d.mag))
		d.pages = append(d.pages, t)
		d.p = image.Point{}
		tr = dr.Add(image.Pt(-dr.Min.X, -dr.Min.Y))
		d.lh = 0
	}
	t.SetSubImage(tr, mask, maskp)
	d.p.X += tr.Dx() + 1
	if h := tr.Dy() + 1; h > d.lh {
		d.lh = h
	}
	index := len(d.glyphs)
	d.glyphs = append(d.glyphs, *t.Region(tr, org))
	d.cache[key] = cacheValue{index, advance}
	return image.Point{X: ix, Y: iy}, &d.glyphs[index], advance
}

// Close closes the drawer's font face. Atlas pages are plain textures and
// are reclaimed with their device copies by the graphics backend.
func (d *Drawer) Close() error {
	return d.face.Close()
}

// BoundString returns the bounding box of s, drawn at a dot equal to the
// origin, as well as the advance.
func (d *Drawer) BoundString(s string) (bounds fixed.Rectangle26_6, advance fixed.Int26_6) {
	return font.BoundString(d.face, s)
}

// BoundBytes is equivalent to BoundString(string(s)) but may be more
// efficient.
func (d *Drawer) BoundBytes(s []byte) (bounds fixed.Rectangle26_6, advance fixed.Int26_6) {
	return font.BoundBytes(d.face, s)
}

// MeasureString returns how far dot would advance by drawing s.
func (d *Drawer) MeasureString(s string) (advance fixed.Int26_6) {
	return font.MeasureString(d.face, s)
}

// MeasureBytes returns how far dot would advance by drawing s.
func (d *Drawer) MeasureBytes(s []byte) (advance fixed.Int26_6) {
	return font.MeasureBytes(d.face, s)
}
