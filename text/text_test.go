package text

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/font/basicfont"

	pixi "github.com/wufuqi123/pixi.js"
)

type recordingSubmitter struct {
	elements []*pixi.Element
}

func (r *recordingSubmitter) Submit(e *pixi.Element) error {
	r.elements = append(r.elements, e)
	return nil
}

func TestDrawString(t *testing.T) {
	d := NewDrawer(basicfont.Face7x13, pixi.Nearest)
	var sub recordingSubmitter

	adv, err := d.DrawString(&sub, 10, 20, "hello", pixi.White, 1)
	require.NoError(t, err)
	assert.Len(t, sub.elements, 5)
	assert.Equal(t, float32(5*7), adv, "Face7x13 advances 7px per glyph")
	assert.Equal(t, 1, d.Pages())

	for _, e := range sub.elements {
		assert.Equal(t, 4, e.VertexCount())
		assert.True(t, e.Texture.Premultiplied())
		assert.Equal(t, pixi.BlendNormal, e.Blend)
	}
}

func TestDrawStringSkipsSpaces(t *testing.T) {
	d := NewDrawer(basicfont.Face7x13, pixi.Nearest)
	var sub recordingSubmitter
	_, err := d.DrawString(&sub, 0, 0, "a b", pixi.White, 1)
	require.NoError(t, err)
	// basicfont renders spaces as an empty mask region, but either way the
	// visible glyph count is what matters
	assert.GreaterOrEqual(t, len(sub.elements), 2)
}

func TestGlyphCache(t *testing.T) {
	d := NewDrawer(basicfont.Face7x13, pixi.Nearest)
	var sub recordingSubmitter
	_, err := d.DrawString(&sub, 0, 0, "aaaa", pixi.White, 1)
	require.NoError(t, err)
	require.Len(t, sub.elements, 4)
	assert.Len(t, d.glyphs, 1, "repeated rune at the same sub-pixel offset must hit the cache")

	// all four quads sample the same atlas region
	uv := sub.elements[0].UVs
	for _, e := range sub.elements[1:] {
		assert.Equal(t, uv, e.UVs)
	}
}

func TestDrawBytesMatchesDrawString(t *testing.T) {
	d := NewDrawer(basicfont.Face7x13, pixi.Nearest)
	var a, b recordingSubmitter
	advA, err := d.DrawString(&a, 0, 40, "xyz", pixi.White, 1)
	require.NoError(t, err)
	advB, err := d.DrawBytes(&b, 0, 40, []byte("xyz"), pixi.White, 1)
	require.NoError(t, err)
	assert.Equal(t, advA, advB)
	require.Equal(t, len(a.elements), len(b.elements))
	for i := range a.elements {
		assert.Equal(t, a.elements[i].Positions, b.elements[i].Positions)
	}
}

func TestMeasure(t *testing.T) {
	d := NewDrawer(basicfont.Face7x13, pixi.Nearest)
	assert.Equal(t, d.MeasureString("abc"), d.MeasureBytes([]byte("abc")))
	_, adv := d.BoundString("abc")
	assert.Equal(t, d.MeasureString("abc"), adv)
	require.NoError(t, d.Close())
}
