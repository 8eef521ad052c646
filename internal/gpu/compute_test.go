package gpu

import (
	"testing"

	"github.com/gogpu/mandel"
)

func TestDispatchGrid(t *testing.T) {
	tests := []struct {
		name   string
		w, h   uint32
		wantX  uint32
		wantY  uint32
	}{
		{"exact multiple", 1024, 1024, 64, 64},
		{"rounds up", 1000, 1000, 63, 63},
		{"single pixel", 1, 1, 1, 1},
		{"one workgroup", 16, 16, 1, 1},
		{"one past boundary", 17, 17, 2, 2},
		{"mixed", 1024, 1000, 64, 63},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			x, y := dispatchGrid(tt.w, tt.h)
			if x != tt.wantX || y != tt.wantY {
				t.Errorf("dispatchGrid(%d, %d) = (%d, %d), want (%d, %d)",
					tt.w, tt.h, x, y, tt.wantX, tt.wantY)
			}
		})
	}
}

// The grid must cover every pixel with no spare full workgroup on
// either axis.
func TestDispatchGridMinimality(t *testing.T) {
	for n := uint32(1); n <= 512; n++ {
		x, _ := dispatchGrid(n, 1)
		if x*workgroupDimX < n {
			t.Fatalf("grid %d does not cover width %d", x, n)
		}
		if (x-1)*workgroupDimX >= n {
			t.Fatalf("grid %d has a spare workgroup for width %d", x, n)
		}
	}
}

func TestComputeEngineRun(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	engine, err := NewComputeEngine(ctx, 64, 48)
	if err != nil {
		t.Fatalf("NewComputeEngine failed: %v", err)
	}
	defer engine.Destroy()

	if w, h := engine.Size(); w != 64 || h != 48 {
		t.Errorf("Size() = %dx%d, want 64x48", w, h)
	}

	view, err := engine.Run(mandel.Params{XMin: -1, XMax: 1, YMin: -1, YMax: 1, MaxIterations: 180})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if view == nil {
		t.Fatal("Run returned nil view")
	}
	if view != engine.OutputView() {
		t.Error("Run did not return the output view")
	}

	// A second frame reuses the same output texture.
	view2, err := engine.Run(mandel.Params{XMin: -1, XMax: 1, YMin: -1, YMax: 1, MaxIterations: 180})
	if err != nil {
		t.Fatalf("second Run failed: %v", err)
	}
	if view2 != view {
		t.Error("output view changed without a resize")
	}
}

func TestComputeEngineResizeRecreatesOutput(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	engine, err := NewComputeEngine(ctx, 64, 64)
	if err != nil {
		t.Fatalf("NewComputeEngine failed: %v", err)
	}
	defer engine.Destroy()

	before := engine.OutputView()
	engine.Resize(128, 96)

	// Recreation is lazy: the old texture survives until the next Run.
	if w, h := engine.Size(); w != 64 || h != 64 {
		t.Errorf("Size() before Run = %dx%d, want 64x64", w, h)
	}

	view, err := engine.Run(mandel.Params{MaxIterations: 180})
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if w, h := engine.Size(); w != 128 || h != 96 {
		t.Errorf("Size() after Run = %dx%d, want 128x96", w, h)
	}
	if view == before {
		t.Error("output view not recreated after resize")
	}
}

func TestComputeEngineResizeZeroIgnored(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	engine, err := NewComputeEngine(ctx, 64, 64)
	if err != nil {
		t.Fatalf("NewComputeEngine failed: %v", err)
	}
	defer engine.Destroy()

	engine.Resize(0, 128)
	engine.Resize(128, 0)
	if _, err := engine.Run(mandel.Params{MaxIterations: 180}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if w, h := engine.Size(); w != 64 || h != 64 {
		t.Errorf("Size() = %dx%d, want unchanged 64x64", w, h)
	}
}

// A frame whose presentation was skipped at acquisition never reached
// the presenter's fence wait. The next Run must still drain it before
// a resize destroys the texture the dispatch writes.
func TestComputeEngineResizeAfterUnpresentedFrame(t *testing.T) {
	ctx, cleanup := newTestContext(t)
	defer cleanup()

	engine, err := NewComputeEngine(ctx, 64, 64)
	if err != nil {
		t.Fatalf("NewComputeEngine failed: %v", err)
	}
	defer engine.Destroy()

	if _, err := engine.Run(mandel.Params{MaxIterations: 180}); err != nil {
		t.Fatalf("Run failed: %v", err)
	}

	// Resize with the frame still outstanding, then rerun.
	engine.Resize(128, 96)
	view, err := engine.Run(mandel.Params{MaxIterations: 180})
	if err != nil {
		t.Fatalf("Run after resize failed: %v", err)
	}
	if w, h := engine.Size(); w != 128 || h != 96 {
		t.Errorf("Size() = %dx%d, want 128x96", w, h)
	}
	if view != engine.OutputView() {
		t.Error("Run did not return the output view")
	}
}
