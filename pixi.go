// Package pixi provides the core value types and collaborator contracts of a
// 2D sprite rendering pipeline. The batching engine itself lives in the batch
// sub-package; this package defines what it draws (Element, Texture) and what
// it draws with (Context, DeviceCaps, ShaderGenerator).
package pixi

// SpriteBatchSize is the global default batch granularity, expressed in
// sprites. The batch renderer's default vertex capacity derives from it
// (SpriteBatchSize * 4 vertices, one quad per sprite).
var SpriteBatchSize = 4096

// PrimitiveType selects the primitive topology of a draw call.
type PrimitiveType int

const (
	Triangles PrimitiveType = iota
)

// Geometry is an opaque handle to a GPU-backed vertex/index buffer pair,
// created and owned by a Context implementation.
type Geometry interface {
	Delete()
}

// Shader is an opaque handle to a compiled, linked batch shader.
type Shader interface {
	Delete()
}

// Context is the graphics backend contract consumed by the batch renderer.
// Implementations wrap a real graphics API (see cmd/demo for an OpenGL one).
// All calls happen on the renderer's thread, in the order issued.
type Context interface {
	// NewGeometry allocates a GPU vertex/index buffer pair.
	NewGeometry() (Geometry, error)
	// BindGeometry makes g the target of subsequent uploads and draws.
	BindGeometry(g Geometry)
	// UploadVertices replaces the beginning of g's vertex buffer with data.
	UploadVertices(g Geometry, data []byte)
	// UploadIndices replaces the beginning of g's index buffer with data.
	UploadIndices(g Geometry, data []uint16)
	// BindTexture binds t to the given sampler unit, uploading pixels first
	// if the texture's CPU backing is dirty.
	BindTexture(t *Texture, unit int)
	// SetBlendMode applies the blend state for mode.
	SetBlendMode(mode BlendMode)
	// UseShader makes s the active program.
	UseShader(s Shader)
	// DrawIndexed issues one indexed draw over the bound geometry.
	// byteOffset is the offset into the index buffer, in bytes.
	DrawIndexed(p PrimitiveType, indexCount, byteOffset int)
}

// DeviceCaps reports device limits. Consulted once at renderer
// (re)initialization.
type DeviceCaps interface {
	// MaxTextureUnits is the number of sampler units one draw can address.
	MaxTextureUnits() int
	// CanUploadSameBuffer reports whether the device tolerates re-uploading
	// the same buffer object several times within one frame.
	CanUploadSameBuffer() bool
}

// ShaderGenerator produces batch shaders whose sampler array has exactly
// maxTextures slots. The renderer caches one shader per slot count and
// regenerates after context loss.
type ShaderGenerator interface {
	BatchShader(maxTextures int) (Shader, error)
}

// Submitter accepts drawable elements. Implemented by *batch.Renderer and by
// test doubles; the text package draws through it.
type Submitter interface {
	Submit(e *Element) error
}
