package main

import (
	"fmt"
	"strings"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/pkg/errors"

	pixi "github.com/wufuqi123/pixi.js"
)

// Vertex layout: x, y, u, v, packed color, texture id. Must match the batch
// renderer's interleaved record.
const vertexStride = 6 * 4

// glContext implements pixi.Context, pixi.DeviceCaps and
// pixi.ShaderGenerator on top of OpenGL 2.1.
type glContext struct {
	maxUnits int
	program  uint32
	textures []uint32 // native names created, for teardown
}

func newGLContext() *glContext {
	var units int32
	gl.GetIntegerv(gl.MAX_TEXTURE_IMAGE_UNITS, &units)
	if units < 1 {
		units = 1
	}
	gl.Enable(gl.BLEND)
	return &glContext{maxUnits: int(units)}
}

func (c *glContext) MaxTextureUnits() int { return c.maxUnits }

// CanUploadSameBuffer reports true: desktop GL drivers handle re-upload of
// an in-flight buffer without stalling the way some mobile/WebGL stacks do.
func (c *glContext) CanUploadSameBuffer() bool { return true }

type glGeometry struct {
	vbo uint32
	ebo uint32
}

func (g *glGeometry) Delete() {
	gl.DeleteBuffers(1, &g.vbo)
	gl.DeleteBuffers(1, &g.ebo)
}

func (c *glContext) NewGeometry() (pixi.Geometry, error) {
	g := &glGeometry{}
	gl.GenBuffers(1, &g.vbo)
	gl.GenBuffers(1, &g.ebo)
	if g.vbo == 0 || g.ebo == 0 {
		return nil, errors.New("glGenBuffers failed")
	}
	return g, nil
}

func (c *glContext) BindGeometry(geom pixi.Geometry) {
	g := geom.(*glGeometry)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	for loc := uint32(0); loc < 4; loc++ {
		gl.EnableVertexAttribArray(loc)
	}
	gl.VertexAttribPointerWithOffset(0, 2, gl.FLOAT, false, vertexStride, 0)
	gl.VertexAttribPointerWithOffset(1, 2, gl.FLOAT, false, vertexStride, 2*4)
	gl.VertexAttribPointerWithOffset(2, 4, gl.UNSIGNED_BYTE, true, vertexStride, 4*4)
	gl.VertexAttribPointerWithOffset(3, 1, gl.FLOAT, false, vertexStride, 5*4)
}

func (c *glContext) UploadVertices(geom pixi.Geometry, data []byte) {
	g := geom.(*glGeometry)
	gl.BindBuffer(gl.ARRAY_BUFFER, g.vbo)
	gl.BufferData(gl.ARRAY_BUFFER, len(data), gl.Ptr(data), gl.DYNAMIC_DRAW)
}

func (c *glContext) UploadIndices(geom pixi.Geometry, data []uint16) {
	g := geom.(*glGeometry)
	gl.BindBuffer(gl.ELEMENT_ARRAY_BUFFER, g.ebo)
	gl.BufferData(gl.ELEMENT_ARRAY_BUFFER, len(data)*2, gl.Ptr(data), gl.DYNAMIC_DRAW)
}

func (c *glContext) BindTexture(t *pixi.Texture, unit int) {
	gl.ActiveTexture(gl.TEXTURE0 + uint32(unit))
	if t.Native() == 0 {
		c.realizeTexture(t)
	}
	gl.BindTexture(gl.TEXTURE_2D, t.Native())
	if t.Dirty() && t.Image() != nil {
		img := t.Image()
		sz := img.Bounds().Size()
		gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
		gl.TexSubImage2D(gl.TEXTURE_2D, 0, 0, 0, int32(sz.X), int32(sz.Y),
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(img.Pix))
		t.MarkClean()
	}
}

func (c *glContext) realizeTexture(t *pixi.Texture) {
	var name uint32
	gl.GenTextures(1, &name)
	gl.BindTexture(gl.TEXTURE_2D, name)

	wrapS, wrapT := t.WrapModes()
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_S, glWrap(wrapS))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_WRAP_T, glWrap(wrapT))
	min, mag := t.Filters()
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MIN_FILTER, glFilter(min))
	gl.TexParameteri(gl.TEXTURE_2D, gl.TEXTURE_MAG_FILTER, glFilter(mag))

	sz := t.Size()
	var pix interface{}
	if img := t.Image(); img != nil {
		pix = img.Pix
	}
	gl.PixelStorei(gl.UNPACK_ALIGNMENT, 4)
	if pix != nil {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(sz.X), int32(sz.Y), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, gl.Ptr(pix))
	} else {
		gl.TexImage2D(gl.TEXTURE_2D, 0, gl.RGBA, int32(sz.X), int32(sz.Y), 0,
			gl.RGBA, gl.UNSIGNED_BYTE, nil)
	}
	t.SetNative(name)
	c.textures = append(c.textures, name)
}

func glWrap(w pixi.TextureWrap) int32 {
	switch w {
	case pixi.Repeat:
		return gl.REPEAT
	case pixi.MirroredRepeat:
		return gl.MIRRORED_REPEAT
	default:
		return gl.CLAMP_TO_EDGE
	}
}

func glFilter(f pixi.TextureFilter) int32 {
	if f == pixi.Nearest {
		return gl.NEAREST
	}
	return gl.LINEAR
}

func (c *glContext) SetBlendMode(m pixi.BlendMode) {
	switch m {
	case pixi.BlendNormal:
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_ALPHA)
	case pixi.BlendNormalNPM:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_ALPHA)
	case pixi.BlendAdd:
		gl.BlendFunc(gl.ONE, gl.ONE)
	case pixi.BlendAddNPM:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE)
	case pixi.BlendMultiply:
		gl.BlendFunc(gl.DST_COLOR, gl.ONE_MINUS_SRC_ALPHA)
	case pixi.BlendScreen:
		gl.BlendFunc(gl.ONE, gl.ONE_MINUS_SRC_COLOR)
	case pixi.BlendScreenNPM:
		gl.BlendFunc(gl.SRC_ALPHA, gl.ONE_MINUS_SRC_COLOR)
	}
}

func (c *glContext) UseShader(s pixi.Shader) {
	sh := s.(*glShader)
	gl.UseProgram(sh.program)
	c.program = sh.program
	// sampler i reads unit i
	for i := 0; i < sh.slots; i++ {
		loc := gl.GetUniformLocation(sh.program, gl.Str(fmt.Sprintf("uSamplers[%d]\x00", i)))
		gl.Uniform1i(loc, int32(i))
	}
}

func (c *glContext) DrawIndexed(p pixi.PrimitiveType, indexCount, byteOffset int) {
	mode := uint32(gl.TRIANGLES)
	_ = p // Triangles is the only primitive the batch emits
	gl.DrawElementsWithOffset(mode, int32(indexCount), gl.UNSIGNED_SHORT, uintptr(byteOffset))
}

// setProjection updates the current program's projection for a window of the
// given pixel size, with (0,0) at the top left.
func (c *glContext) setProjection(w, h int) {
	proj := [16]float32{
		2 / float32(w), 0, 0, 0,
		0, -2 / float32(h), 0, 0,
		0, 0, -1, 0,
		-1, 1, 0, 1,
	}
	loc := gl.GetUniformLocation(c.program, gl.Str("uProjection\x00"))
	gl.UniformMatrix4fv(loc, 1, false, &proj[0])
}

func (c *glContext) close() {
	if len(c.textures) > 0 {
		gl.DeleteTextures(int32(len(c.textures)), &c.textures[0])
		c.textures = c.textures[:0]
	}
}

type glShader struct {
	program uint32
	slots   int
}

func (s *glShader) Delete() { gl.DeleteProgram(s.program) }

// BatchShader compiles a batch program whose fragment stage samples from
// maxTextures units, selected per vertex by the texture id lane.
func (c *glContext) BatchShader(maxTextures int) (pixi.Shader, error) {
	vs, err := compileShader(gl.VERTEX_SHADER, vertexShaderSrc)
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(vs)
	fs, err := compileShader(gl.FRAGMENT_SHADER, fragmentShaderSrc(maxTextures))
	if err != nil {
		return nil, err
	}
	defer gl.DeleteShader(fs)

	program := gl.CreateProgram()
	gl.AttachShader(program, vs)
	gl.AttachShader(program, fs)
	gl.BindAttribLocation(program, 0, gl.Str("aPosition\x00"))
	gl.BindAttribLocation(program, 1, gl.Str("aUV\x00"))
	gl.BindAttribLocation(program, 2, gl.Str("aColor\x00"))
	gl.BindAttribLocation(program, 3, gl.Str("aTextureId\x00"))
	gl.LinkProgram(program)

	var status int32
	gl.GetProgramiv(program, gl.LINK_STATUS, &status)
	if status == gl.FALSE {
		log := programLog(program)
		gl.DeleteProgram(program)
		return nil, errors.Errorf("link batch shader: %s", log)
	}
	return &glShader{program: program, slots: maxTextures}, nil
}

func compileShader(kind uint32, src string) (uint32, error) {
	sh := gl.CreateShader(kind)
	csrc, free := gl.Strs(src + "\x00")
	gl.ShaderSource(sh, 1, csrc, nil)
	free()
	gl.CompileShader(sh)

	var status int32
	gl.GetShaderiv(sh, gl.COMPILE_STATUS, &status)
	if status == gl.FALSE {
		var l int32
		gl.GetShaderiv(sh, gl.INFO_LOG_LENGTH, &l)
		log := strings.Repeat("\x00", int(l+1))
		gl.GetShaderInfoLog(sh, l, nil, gl.Str(log))
		gl.DeleteShader(sh)
		return 0, errors.Errorf("compile shader: %s", strings.TrimRight(log, "\x00"))
	}
	return sh, nil
}

func programLog(program uint32) string {
	var l int32
	gl.GetProgramiv(program, gl.INFO_LOG_LENGTH, &l)
	log := strings.Repeat("\x00", int(l+1))
	gl.GetProgramInfoLog(program, l, nil, gl.Str(log))
	return strings.TrimRight(log, "\x00")
}
