//go:build !nogl

// Command clipmap-view opens a window onto a virtual texture and streams
// it through the clipmap engine while you pan and zoom.
//
//	clipmap-view -config earth.yaml
//
// Drag with the left mouse button to pan, scroll to zoom around the
// cursor, press Escape to quit.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"runtime"
	"time"

	"github.com/go-gl/gl/v4.1-core/gl"
	"github.com/go-gl/glfw/v3.3/glfw"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/xlab/closer"

	"github.com/gogpu/clipmap"
	"github.com/gogpu/clipmap/backend"
	"github.com/gogpu/clipmap/backend/opengl"
	"github.com/gogpu/clipmap/config"
)

func init() {
	runtime.LockOSThread()
}

func main() {
	configPath := flag.String("config", "clipmap.yaml", "configuration file")
	vsync := flag.Bool("vsync", true, "wait for vertical sync")
	flag.Parse()

	defer closer.Close()

	cfg, err := config.Load(*configPath)
	if err != nil {
		closer.Fatalln(err)
	}
	log := cfg.Log.NewLogger(os.Stderr)
	clipmap.SetLogger(log)

	if err := glfw.Init(); err != nil {
		closer.Fatalln(err)
	}
	closer.Bind(glfw.Terminate)

	window, err := setupWindow(cfg.View.Width, cfg.View.Height, *vsync)
	if err != nil {
		closer.Fatalln(err)
	}

	if err := run(window, cfg, log); err != nil {
		closer.Fatalln(err)
	}
}

func setupWindow(width, height int, vsync bool) (*glfw.Window, error) {
	glfw.WindowHint(glfw.ContextVersionMajor, 4)
	glfw.WindowHint(glfw.ContextVersionMinor, 1)
	glfw.WindowHint(glfw.OpenGLForwardCompatible, glfw.True)
	glfw.WindowHint(glfw.OpenGLProfile, glfw.OpenGLCoreProfile)
	// The viewport must fit the atlases, so the window keeps its size.
	glfw.WindowHint(glfw.Resizable, glfw.False)

	window, err := glfw.CreateWindow(width, height, "clipmap-view", nil, nil)
	if err != nil {
		return nil, err
	}
	window.MakeContextCurrent()

	if err := gl.Init(); err != nil {
		return nil, err
	}
	if vsync {
		glfw.SwapInterval(1)
	} else {
		glfw.SwapInterval(0)
	}
	return window, nil
}

func run(window *glfw.Window, cfg config.Config, log *slog.Logger) error {
	b, err := backend.Open(backend.BackendOpenGL)
	if err != nil {
		return err
	}
	closer.Bind(b.Close)
	factory := b.Factory.(*opengl.Factory)

	e, err := clipmap.Open(cfg, factory)
	if err != nil {
		return err
	}
	closer.Bind(func() {
		if err := e.Close(); err != nil {
			log.Warn("close engine", "error", err)
		}
	})

	comp, err := opengl.NewCompositor()
	if err != nil {
		return err
	}
	closer.Bind(comp.Destroy)

	scale, offset := cfg.Camera.At(0)
	cam := newCamera(scale, offset)
	cam.bind(window)

	fbw, fbh := window.GetFramebufferSize()
	gl.Viewport(0, 0, int32(fbw), int32(fbh))
	gl.ClearColor(0.1, 0.1, 0.1, 1)

	var (
		frames   int
		lastTick = time.Now()
	)
	for !window.ShouldClose() {
		glfw.PollEvents()

		fr, err := e.Frame(cam.scale, cam.offset)
		if err != nil {
			return err
		}
		// The engine clamps the view to the texture; follow it so drags
		// past the edge do not accumulate.
		cam.scale = fr.Stats.Scale
		cam.offset = mgl64.Vec2{fr.Stats.World.XMin, fr.Stats.World.YMin}

		gl.Clear(gl.COLOR_BUFFER_BIT)
		if fr.Ready {
			if err := comp.Draw(fr.Params); err != nil {
				return err
			}
		}
		window.SwapBuffers()

		frames++
		if time.Since(lastTick) >= time.Second {
			window.SetTitle(fmt.Sprintf("clipmap-view  %d fps  scale %.2f  level %d  pending %d",
				frames, fr.Stats.Scale, fr.Stats.StartLevel, e.Pending()))
			log.Debug("view", "fps", frames, "scale", fr.Stats.Scale,
				"level", fr.Stats.StartLevel, "pending", e.Pending(),
				"textures", factory.Live(), "uploads", factory.Uploads())
			frames = 0
			lastTick = time.Now()
		}
	}
	return nil
}
