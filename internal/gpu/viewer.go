package gpu

import (
	"github.com/gogpu/gputypes"

	"github.com/gogpu/mandel"
)

// Viewer ties the viewport state and the two engines into the
// per-frame path: derive parameters, run the kernel, present the
// result.
type Viewer struct {
	viewport mandel.Viewport
	cfg      mandel.Config
	compute  *ComputeEngine
	present  *PresentEngine
}

// NewViewer builds both engines on the given context. The context is
// borrowed; the caller closes it after Close.
func NewViewer(ctx *Context, cfg mandel.Config, surface Surface, format gputypes.TextureFormat) (*Viewer, error) {
	compute, err := NewComputeEngine(ctx, cfg.Width, cfg.Height)
	if err != nil {
		return nil, err
	}
	present, err := NewPresentEngine(ctx, surface, cfg.Width, cfg.Height, format)
	if err != nil {
		compute.Destroy()
		return nil, err
	}
	return &Viewer{
		viewport: cfg.Viewport(),
		cfg:      cfg,
		compute:  compute,
		present:  present,
	}, nil
}

// Viewport exposes the navigation state for input handlers.
func (v *Viewer) Viewport() *mandel.Viewport {
	return &v.viewport
}

// Step renders one frame: the compute submission goes first on the
// shared queue, then the render submission that samples its output.
func (v *Viewer) Step() error {
	out, err := v.compute.Run(v.viewport.Params(v.cfg.MaxIterations))
	if err != nil {
		return err
	}
	return v.present.Render(out)
}

// Resize forwards the new size to both engines so the compute output
// keeps tracking the surface 1:1. Zero-area sizes are dropped here;
// minimized windows report 0x0. An unchanged size is a no-op, so
// callers may invoke this every frame without reconfiguring the
// swapchain each time.
func (v *Viewer) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if pw, ph := v.present.Size(); pw == width && ph == height {
		return nil
	}
	v.compute.Resize(width, height)
	return v.present.Resize(width, height)
}

// Reconfigure rebuilds the swapchain at its current size. Recovery
// path for a lost surface, where Resize would skip the unchanged
// dimensions.
func (v *Viewer) Reconfigure() error {
	return v.present.Resize(v.present.Size())
}

// Snapshot blocks until the current output texture is readable and
// writes it to path. Diagnostic path only; never called from Step.
func (v *Viewer) Snapshot(path string) error {
	img, err := v.compute.Snapshot()
	if err != nil {
		return err
	}
	return WriteImage(path, img)
}

// Close destroys both engines.
func (v *Viewer) Close() {
	v.present.Destroy()
	v.compute.Destroy()
}
