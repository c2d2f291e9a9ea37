// Command demo opens a window and stress-draws rotating sprites with three
// textures and mixed blend modes through the batch renderer, with an FPS
// overlay.
package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"log/slog"
	"math/rand"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v2.1/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"golang.org/x/image/font/basicfont"

	pixi "github.com/wufuqi123/pixi.js"
	"github.com/wufuqi123/pixi.js/batch"
	"github.com/wufuqi123/pixi.js/debug"
	"github.com/wufuqi123/pixi.js/text"
)

const (
	winW    = 1280
	winH    = 720
	sprites = 20000
)

func init() {
	// GLFW event handling must run on the main thread.
	runtime.LockOSThread()
}

type sprite struct {
	el    pixi.Element
	tex   pixi.Drawable
	pos   pixi.Point
	vel   pixi.Point
	rot   float32
	spin  float32
	tint  uint32
	blend pixi.BlendMode
}

func main() {
	pixi.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	if err := glfw.Init(); err != nil {
		log.Fatal(err)
	}
	defer glfw.Terminate()

	glfw.WindowHint(glfw.ContextVersionMajor, 2)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	window, err := glfw.CreateWindow(winW, winH, "batch demo", nil, nil)
	if err != nil {
		log.Fatal(err)
	}
	window.MakeContextCurrent()
	glfw.SwapInterval(1)
	if err := gl.Init(); err != nil {
		log.Fatal(err)
	}

	ctx := newGLContext()
	defer ctx.close()
	r, err := batch.New(ctx, ctx, ctx)
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	textures := []pixi.Drawable{
		checkerTexture(32, pixi.RGB(0xe0, 0xe0, 0xe0), pixi.RGB(0x40, 0x40, 0x40)),
		discTexture(32, color.NRGBA{R: 255, G: 160, B: 40, A: 255}),
		checkerTexture(16, pixi.RGB(0x30, 0x90, 0xff), pixi.RGB(0x10, 0x30, 0x60)),
	}
	blends := []pixi.BlendMode{pixi.BlendNormal, pixi.BlendAdd, pixi.BlendScreen}

	rng := rand.New(rand.NewSource(1))
	sps := make([]*sprite, sprites)
	for i := range sps {
		sps[i] = &sprite{
			tex:   textures[rng.Intn(len(textures))],
			pos:   pixi.Pt(rng.Float32()*winW, rng.Float32()*winH),
			vel:   pixi.Pt(rng.Float32()*120-60, rng.Float32()*120-60),
			spin:  rng.Float32()*4 - 2,
			tint:  pixi.RGB(uint8(128+rng.Intn(128)), uint8(128+rng.Intn(128)), uint8(128+rng.Intn(128))),
			blend: blends[rng.Intn(len(blends))],
		}
	}

	td := text.NewDrawer(basicfont.Face7x13, pixi.Nearest)
	var frameTimer debug.Timer

	last := time.Now()
	for !window.ShouldClose() {
		now := time.Now()
		dt := float32(now.Sub(last).Seconds())
		frameTimer.Add(now.Sub(last))
		last = now

		r.BeginFrame()
		gl.Viewport(0, 0, winW, winH)
		gl.ClearColor(0.05, 0.05, 0.08, 1)
		gl.Clear(gl.COLOR_BUFFER_BIT)

		if err := r.Start(); err != nil {
			log.Fatal(err)
		}
		ctx.setProjection(winW, winH)

		for _, s := range sps {
			s.step(dt)
			pixi.MakeQuad(&s.el, s.tex, s.pos, pixi.Pt(1, 1), s.rot, s.tint, 0.8, s.blend)
			if err := r.Submit(&s.el); err != nil {
				log.Fatal(err)
			}
		}

		info := fmt.Sprintf("%.0f fps - %s", frameTimer.AveragePerSecond(), r.Stats())
		if _, err := td.DrawString(r, 8, 16, info, pixi.White, 1); err != nil {
			log.Fatal(err)
		}

		if err := r.Stop(); err != nil {
			log.Fatal(err)
		}

		window.SwapBuffers()
		glfw.PollEvents()
	}
}

func (s *sprite) step(dt float32) {
	s.pos = s.pos.Add(s.vel.Mul(dt))
	if s.pos.X < 0 || s.pos.X > winW {
		s.vel.X = -s.vel.X
	}
	if s.pos.Y < 0 || s.pos.Y > winH {
		s.vel.Y = -s.vel.Y
	}
	s.rot += s.spin * dt
}

// checkerTexture builds a premultiplied checkerboard drawable centered on
// its midpoint.
func checkerTexture(size int, c1, c2 uint32) pixi.Drawable {
	img := image.NewRGBA(image.Rect(0, 0, size, size))
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			c := c1
			if (x/4+y/4)%2 == 0 {
				c = c2
			}
			img.SetRGBA(x, y, color.RGBA{R: uint8(c >> 16), G: uint8(c >> 8), B: uint8(c), A: 255})
		}
	}
	t := pixi.TextureFromImage(img, pixi.Premultiplied(), pixi.Filter(pixi.Linear, pixi.Nearest))
	return t.Region(img.Bounds(), image.Pt(size/2, size/2))
}

// discTexture builds a premultiplied filled disc with soft edges.
func discTexture(size int, c color.NRGBA) pixi.Drawable {
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	r := float64(size) / 2
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			dx, dy := float64(x)+0.5-r, float64(y)+0.5-r
			if dx*dx+dy*dy <= r*r {
				img.SetNRGBA(x, y, c)
			}
		}
	}
	t := pixi.TextureFromImage(img, pixi.Premultiplied(), pixi.Filter(pixi.Linear, pixi.Linear))
	return t.Region(img.Bounds(), image.Pt(size/2, size/2))
}
