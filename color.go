package pixi

import "image/color"

// White is the neutral tint.
const White = uint32(0xffffff)

// Tint packs c into 0xRRGGBB form, dropping alpha. Element tints are
// combined with a separate opacity at pack time.
func Tint(c color.Color) uint32 {
	r, g, b, _ := c.RGBA()
	return r>>8<<16 | g>>8<<8 | b>>8
}

// RGB packs the given channels into 0xRRGGBB form.
func RGB(r, g, b uint8) uint32 {
	return uint32(r)<<16 | uint32(g)<<8 | uint32(b)
}

// PackColor combines a 0xRRGGBB tint with an opacity into the 32-bit ARGB
// vertex color lane. Opacity is clamped to [0, 1]. When the destination
// texture holds premultiplied pixels and opacity is below 1, the color
// channels are premultiplied as well, so that the shader's single multiply
// stays correct for both alpha modes.
func PackColor(tint uint32, alpha float32, premultiplied bool) uint32 {
	if alpha > 1 {
		alpha = 1
	} else if alpha < 0 {
		alpha = 0
	}
	a := uint32(alpha*255 + 0.5)
	r := tint >> 16 & 0xff
	g := tint >> 8 & 0xff
	b := tint & 0xff
	if premultiplied && alpha < 1 {
		r = (r*a + 127) / 255
		g = (g*a + 127) / 255
		b = (b*a + 127) / 255
	}
	return a<<24 | r<<16 | g<<8 | b
}
