package gpu

import (
	"errors"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// mockSurface records Configure calls and returns scripted acquisition
// results.
type mockSurface struct {
	view       hal.TextureView
	acquireErr error

	width, height  uint32
	configureCalls int
	presented      int
}

func (s *mockSurface) Acquire() (hal.TextureView, error) {
	if s.acquireErr != nil {
		return nil, s.acquireErr
	}
	return s.view, nil
}

func (s *mockSurface) Present() error {
	s.presented++
	return nil
}

func (s *mockSurface) Configure(width, height uint32) error {
	s.configureCalls++
	s.width = width
	s.height = height
	return nil
}

func (s *mockSurface) Size() (uint32, uint32) {
	return s.width, s.height
}

func newTestPresentEngine(t *testing.T, ctx *Context, surface Surface) *PresentEngine {
	t.Helper()
	engine, err := NewPresentEngine(ctx, surface, 64, 64, gputypes.TextureFormatBGRA8Unorm)
	if err != nil {
		t.Fatalf("NewPresentEngine failed: %v", err)
	}
	return engine
}

func TestPresentEngineResizeZeroNoOp(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	surface := &mockSurface{}
	engine := newTestPresentEngine(t, ctx, surface)
	defer engine.Destroy()

	for _, size := range [][2]uint32{{0, 0}, {0, 480}, {640, 0}} {
		if err := engine.Resize(size[0], size[1]); err != nil {
			t.Errorf("Resize(%d, %d) = %v, want nil", size[0], size[1], err)
		}
	}
	if surface.configureCalls != 0 {
		t.Errorf("configureCalls = %d, want 0 for zero-area sizes", surface.configureCalls)
	}
	if w, h := engine.Size(); w != 64 || h != 64 {
		t.Errorf("Size() = %dx%d, want unchanged 64x64", w, h)
	}

	if err := engine.Resize(640, 480); err != nil {
		t.Fatalf("Resize(640, 480) failed: %v", err)
	}
	if surface.configureCalls != 1 {
		t.Errorf("configureCalls = %d, want 1", surface.configureCalls)
	}
	if w, h := engine.Size(); w != 640 || h != 480 {
		t.Errorf("Size() = %dx%d, want 640x480", w, h)
	}
}

func TestPresentEngineRenderAcquireErrors(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	source, sourceCleanup := createTestView(t, ctx.Device(), 64, 64)
	defer sourceCleanup()

	tests := []struct {
		name string
		err  error
	}{
		{"lost", ErrSurfaceLost},
		{"outdated", ErrSurfaceOutdated},
		{"timeout", ErrSurfaceTimeout},
		{"out of memory", ErrOutOfMemory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			surface := &mockSurface{acquireErr: tt.err}
			engine := newTestPresentEngine(t, ctx, surface)
			defer engine.Destroy()

			err := engine.Render(source)
			if err == nil {
				t.Fatal("Render succeeded, want acquisition error")
			}
			if !errors.Is(err, tt.err) {
				t.Errorf("errors.Is(%v, %v) = false, want true", err, tt.err)
			}
			if surface.presented != 0 {
				t.Errorf("presented = %d, want 0 after failed acquire", surface.presented)
			}
		})
	}
}

func TestPresentEngineRender(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	source, sourceCleanup := createTestView(t, ctx.Device(), 64, 64)
	defer sourceCleanup()
	target, targetCleanup := createTestView(t, ctx.Device(), 64, 64)
	defer targetCleanup()

	surface := &mockSurface{view: target, width: 64, height: 64}
	engine := newTestPresentEngine(t, ctx, surface)
	defer engine.Destroy()

	if err := engine.Render(source); err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	if surface.presented != 1 {
		t.Errorf("presented = %d, want 1", surface.presented)
	}
}
