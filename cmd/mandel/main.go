// Command mandel opens a window and renders an interactively
// navigable Mandelbrot set on the GPU.
//
// Controls:
//
//	arrows   pan
//	=        zoom in
//	-        zoom out
//	s        save a snapshot to mandelbrot.webp
//	escape   quit
//
// Set MANDEL_DEBUG=1 for debug logging on stderr.
package main

import (
	"errors"
	"log"
	"log/slog"
	"os"

	"github.com/gogpu/gogpu"
	"github.com/gogpu/gpucontext"
	"github.com/gogpu/gputypes"

	"github.com/gogpu/mandel"
	"github.com/gogpu/mandel/internal/gpu"
)

const snapshotPath = "mandelbrot.webp"

func main() {
	if os.Getenv("MANDEL_DEBUG") != "" {
		mandel.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	cfg := mandel.DefaultConfig()

	app := gogpu.NewApp(gogpu.DefaultConfig().
		WithTitle("Mandelbrot").
		WithSize(int(cfg.Width), int(cfg.Height)).
		WithContinuousRender(true))

	surface := &gpu.AppSurface{}
	var viewer *gpu.Viewer

	app.EventSource().OnKeyPress(func(key gpucontext.Key, _ gpucontext.Modifiers) {
		if viewer == nil {
			return
		}
		vp := viewer.Viewport()
		switch key {
		case gpucontext.KeyLeft:
			vp.PanLeft()
		case gpucontext.KeyRight:
			vp.PanRight()
		case gpucontext.KeyUp:
			vp.PanUp()
		case gpucontext.KeyDown:
			vp.PanDown()
		case gpucontext.KeyEqual:
			vp.ZoomIn()
		case gpucontext.KeyMinus:
			vp.ZoomOut()
		case gpucontext.KeyS:
			if err := viewer.Snapshot(snapshotPath); err != nil {
				log.Printf("snapshot: %v", err)
			} else {
				log.Printf("snapshot saved to %s", snapshotPath)
			}
		case gpucontext.KeyEscape:
			app.Quit()
		}
	})

	app.OnDraw(func(dc *gogpu.Context) {
		// The app device exists only once the window is up, so the
		// viewer is built on the first frame.
		if viewer == nil {
			provider := app.GPUContextProvider()
			if provider == nil {
				return
			}
			ctx, err := gpu.NewSharedContext(provider)
			if err != nil {
				log.Fatalf("shared device: %v", err)
			}
			v, err := gpu.NewViewer(ctx, cfg, surface, gputypes.TextureFormatBGRA8Unorm)
			if err != nil {
				log.Fatalf("create viewer: %v", err)
			}
			viewer = v
		}

		w, h := dc.SurfaceSize()
		if err := viewer.Resize(w, h); err != nil {
			log.Printf("resize: %v", err)
		}

		view := gpu.HalTextureView(dc.SurfaceView())
		if view == nil {
			return
		}
		surface.SetFrame(view, w, h)

		if err := viewer.Step(); err != nil {
			switch {
			case errors.Is(err, gpu.ErrSurfaceLost):
				// Reconfigure at the current size; next frame retries.
				if rerr := viewer.Reconfigure(); rerr != nil {
					log.Printf("recover surface: %v", rerr)
				}
			case errors.Is(err, gpu.ErrOutOfMemory):
				log.Fatalf("out of device memory: %v", err)
			default:
				// Outdated/timeout and friends self-heal next frame.
				log.Printf("frame: %v", err)
			}
		}
	})

	app.OnClose(func() {
		if viewer != nil {
			viewer.Close()
		}
	})

	if err := app.Run(); err != nil {
		log.Fatalf("run: %v", err)
	}
}
