package pixi

// An Element is one drawable unit: indexed 2D geometry plus paint
// attributes. The caller owns the element and its slices; the batch renderer
// holds a reference only until the flush that consumes it.
//
// Positions and UVs are flat x,y pair sequences of equal length; Indices
// reference position pairs and must fit the element's own vertex range.
type Element struct {
	Positions []float32
	UVs       []float32
	Indices   []uint16

	Texture *Texture
	Tint    uint32 // packed 0xRRGGBB
	Alpha   float32
	Blend   BlendMode
}

// VertexCount returns the number of position pairs.
func (e *Element) VertexCount() int { return len(e.Positions) / 2 }

// EffectiveBlend returns the blend mode the element's draw call must use,
// accounting for the texture's alpha mode.
func (e *Element) EffectiveBlend() BlendMode {
	return EffectiveBlend(e.Blend, e.Texture.Premultiplied())
}
