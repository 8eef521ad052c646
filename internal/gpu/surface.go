package gpu

import (
	"errors"

	"github.com/gogpu/wgpu/hal"
)

// Surface acquisition errors. The present engine wraps these with
// context; callers classify with errors.Is.
var (
	// ErrSurfaceLost means the swapchain is gone and must be
	// reconfigured at the current size before the next frame.
	ErrSurfaceLost = errors.New("gpu: surface lost")

	// ErrSurfaceOutdated means the surface no longer matches the
	// window. Skip the frame; the resize callback heals it.
	ErrSurfaceOutdated = errors.New("gpu: surface outdated")

	// ErrSurfaceTimeout means no image was available in time.
	// Transient; skip the frame.
	ErrSurfaceTimeout = errors.New("gpu: surface acquire timeout")

	// ErrOutOfMemory means the device is out of memory. Not
	// recoverable; the caller should shut down.
	ErrOutOfMemory = errors.New("gpu: out of device memory")
)

// Surface abstracts the presentable swapchain behind the four-error
// acquisition taxonomy above, so the present engine's error contract
// does not depend on who owns the window.
type Surface interface {
	// Acquire returns the texture view for the next frame.
	Acquire() (hal.TextureView, error)

	// Present queues the most recently acquired view for display.
	Present() error

	// Configure resizes the underlying swapchain.
	Configure(width, height uint32) error

	// Size returns the current configured size.
	Size() (width, height uint32)
}

// HalTextureView extracts the hal view from whatever the windowing
// layer hands the draw callback: the hal interface itself, or a
// wrapper exposing it through a HalTextureView accessor. Returns nil
// when neither shape matches.
func HalTextureView(sv any) hal.TextureView {
	if sv == nil {
		return nil
	}
	if view, ok := sv.(hal.TextureView); ok {
		return view
	}
	type halViewer interface {
		HalTextureView() any
	}
	if hv, ok := sv.(halViewer); ok {
		if view, ok := hv.HalTextureView().(hal.TextureView); ok {
			return view
		}
	}
	return nil
}

// AppSurface adapts the windowing layer, which owns the real swapchain
// and hands out one texture view per draw callback. SetFrame must be
// called at the start of every frame; Acquire without a frame reports
// the surface as lost.
//
// Present is a no-op because the windowing layer presents when the
// draw callback returns; it only invalidates the stored view so a
// stale one can never be rendered twice.
type AppSurface struct {
	view   hal.TextureView
	width  uint32
	height uint32
}

// SetFrame installs the texture view for the current frame.
func (s *AppSurface) SetFrame(view hal.TextureView, width, height uint32) {
	s.view = view
	s.width = width
	s.height = height
}

// Acquire implements Surface.
func (s *AppSurface) Acquire() (hal.TextureView, error) {
	if s.view == nil {
		return nil, ErrSurfaceLost
	}
	return s.view, nil
}

// Present implements Surface.
func (s *AppSurface) Present() error {
	s.view = nil
	return nil
}

// Configure implements Surface. The windowing layer reconfigures its
// own swapchain on resize; only the recorded size changes here.
func (s *AppSurface) Configure(width, height uint32) error {
	s.width = width
	s.height = height
	return nil
}

// Size implements Surface.
func (s *AppSurface) Size() (uint32, uint32) {
	return s.width, s.height
}
