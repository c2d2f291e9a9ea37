package batch

import (
	"github.com/pkg/errors"

	pixi "github.com/wufuqi123/pixi.js"
)

// Arena ceilings exceeded. Either error means the submission stream switched
// blend modes or textures more often than the renderer was sized for; the
// flush fails outright rather than truncating output.
var (
	ErrDrawCallLimit     = errors.New("batch: draw call arena exhausted")
	ErrTextureArrayLimit = errors.New("batch: texture array arena exhausted")
)

// A TextureArray is an ordered set of distinct textures bound together as
// the sampler inputs of one or more draw calls. units[i] is the sampler unit
// textures[i] is bound to, decided when the group is closed.
type TextureArray struct {
	textures []*pixi.Texture
	units    []int
	count    int
}

// Count returns the number of textures in the group.
func (a *TextureArray) Count() int { return a.count }

// Texture returns the i-th texture of the group.
func (a *TextureArray) Texture(i int) *pixi.Texture { return a.textures[i] }

// Unit returns the sampler unit assigned to the i-th texture.
func (a *TextureArray) Unit(i int) int { return a.units[i] }

// A DrawCall draws one contiguous index range against one texture array with
// one blend mode.
type DrawCall struct {
	texArray *TextureArray
	blend    pixi.BlendMode
	start    int // offset into the index buffer, in indices
	size     int // index count
	prim     pixi.PrimitiveType
}

// Blend returns the call's effective blend mode.
func (c *DrawCall) Blend() pixi.BlendMode { return c.blend }

// Textures returns the call's texture array.
func (c *DrawCall) Textures() *TextureArray { return c.texArray }

// IndexRange returns the call's index buffer offset and count, in indices.
func (c *DrawCall) IndexRange() (start, size int) { return c.start, c.size }

// drawCallArena is a position-indexed pool of draw calls, grown lazily up to
// a hard ceiling and rewound at the start of every flush.
type drawCallArena struct {
	calls   []*DrawCall
	next    int
	ceiling int
}

func (a *drawCallArena) alloc() (*DrawCall, error) {
	if a.next == a.ceiling {
		return nil, ErrDrawCallLimit
	}
	if a.next == len(a.calls) {
		a.calls = append(a.calls, &DrawCall{})
	}
	c := a.calls[a.next]
	a.next++
	*c = DrawCall{}
	return c, nil
}

// unwind gives the most recently allocated call back to the arena. Used to
// discard calls that ended up packing no indices.
func (a *drawCallArena) unwind() { a.next-- }

func (a *drawCallArena) len() int { return a.next }

func (a *drawCallArena) at(i int) *DrawCall { return a.calls[i] }

func (a *drawCallArena) rewind() { a.next = 0 }

// textureArrayArena pools texture arrays the same way. Arrays are reset
// (count 0) on alloc, never freed mid-frame.
type textureArrayArena struct {
	arrays      []*TextureArray
	next        int
	ceiling     int
	maxTextures int
}

func (a *textureArrayArena) alloc() (*TextureArray, error) {
	if a.next == a.ceiling {
		return nil, ErrTextureArrayLimit
	}
	if a.next == len(a.arrays) {
		a.arrays = append(a.arrays, &TextureArray{
			textures: make([]*pixi.Texture, a.maxTextures),
			units:    make([]int, a.maxTextures),
		})
	}
	g := a.arrays[a.next]
	a.next++
	g.count = 0
	return g, nil
}

func (a *textureArrayArena) rewind() { a.next = 0 }
