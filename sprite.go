package pixi

import (
	"github.com/chewxy/math32"
)

// quadIndices is the two-triangle index pattern shared by every quad.
var quadIndices = [6]uint16{0, 1, 2, 2, 1, 3}

// MakeQuad fills dst with a textured quad for d, translated to dp, scaled
// and rotated (radians) around d's origin. dst's slices are reused when
// large enough, so a caller can keep one Element per sprite and rebuild it
// every frame without allocating.
func MakeQuad(dst *Element, d Drawable, dp, scale Point, rot float32, tint uint32, alpha float32, blend BlendMode) {
	var m0, m1, m3, m4 float32 = 1, 0, 0, 1
	if rot != 0 {
		sin, cos := math32.Sincos(rot)
		m0, m1, m3, m4 = cos, sin, -sin, cos
	}

	o := d.Origin()
	tx, ty := float32(o.X)*scale.X, float32(o.Y)*scale.Y
	m6, m7 := dp.X-m0*tx-m3*ty, dp.Y-m1*tx-m4*ty

	sz := d.Size()
	sX, sY := scale.X*float32(sz.X), scale.Y*float32(sz.Y)
	m0 *= sX
	m1 *= sX
	m3 *= sY
	m4 *= sY

	if cap(dst.Positions) < 8 {
		dst.Positions = make([]float32, 8)
		dst.UVs = make([]float32, 8)
	}
	dst.Positions = append(dst.Positions[:0],
		// top left
		m6, m7,
		// top right
		m0+m6, m1+m7,
		// bottom left
		m3+m6, m4+m7,
		// bottom right
		m0+m3+m6, m1+m4+m7,
	)
	uv := d.UV()
	dst.UVs = append(dst.UVs[:0],
		uv[0], uv[1],
		uv[2], uv[1],
		uv[0], uv[3],
		uv[2], uv[3],
	)
	dst.Indices = quadIndices[:]
	dst.Texture = d.Base()
	dst.Tint = tint
	dst.Alpha = alpha
	dst.Blend = blend
}

// NewQuad returns a fresh quad element for d. See MakeQuad.
func NewQuad(d Drawable, dp, scale Point, rot float32, tint uint32, alpha float32, blend BlendMode) *Element {
	e := &Element{}
	MakeQuad(e, d, dp, scale, rot, tint, alpha, blend)
	return e
}
