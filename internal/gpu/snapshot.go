// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// snapshot.go is the diagnostic readback path: copy the compute output
// to a staging buffer, wait for the GPU, and encode the pixels to a
// file. Blocking by design and kept off the frame loop.

package gpu

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/HugoSmits86/nativewebp"
	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

const snapshotFenceTimeout = 5 * time.Second

// Snapshot copies the output texture to the CPU and returns it as an
// image. It submits its own command buffer and waits for completion,
// so in-flight compute work on the queue is drained first.
func (e *ComputeEngine) Snapshot() (*image.NRGBA, error) {
	if e.outputTex == nil {
		return nil, fmt.Errorf("compute: no output texture to read back")
	}
	w, h := e.width, e.height

	// Copy row pitch must be aligned to 256 bytes.
	bytesPerRow := w * 4
	const copyPitchAlignment = 256
	alignedBytesPerRow := (bytesPerRow + copyPitchAlignment - 1) &^ (copyPitchAlignment - 1)
	stagingSize := uint64(alignedBytesPerRow) * uint64(h)

	staging, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "snapshot_staging",
		Size:  stagingSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: create staging buffer: %w", err)
	}
	defer e.device.DestroyBuffer(staging)

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "snapshot_encoder",
	})
	if err != nil {
		return nil, fmt.Errorf("snapshot: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("snapshot"); err != nil {
		return nil, fmt.Errorf("snapshot: begin encoding: %w", err)
	}

	// The kernel leaves the texture in storage layout; the copy needs
	// transfer-source. Transition there and back so the next frame's
	// dispatch sees the layout it expects.
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: e.outputTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageStorageBinding,
			NewUsage: gputypes.TextureUsageCopySrc,
		},
	}})
	encoder.CopyTextureToBuffer(e.outputTex, staging, []hal.BufferTextureCopy{{
		BufferLayout: hal.ImageDataLayout{Offset: 0, BytesPerRow: alignedBytesPerRow, RowsPerImage: h},
		TextureBase:  hal.ImageCopyTexture{Texture: e.outputTex, MipLevel: 0},
		Size:         hal.Extent3D{Width: w, Height: h, DepthOrArrayLayers: 1},
	}})
	encoder.TransitionTextures([]hal.TextureBarrier{{
		Texture: e.outputTex,
		Usage: hal.TextureUsageTransition{
			OldUsage: gputypes.TextureUsageCopySrc,
			NewUsage: gputypes.TextureUsageStorageBinding,
		},
	}})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("snapshot: end encoding: %w", err)
	}
	defer e.device.FreeCommandBuffer(cmdBuf)

	fence, err := e.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("snapshot: create fence: %w", err)
	}
	defer e.device.DestroyFence(fence)

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("snapshot: submit: %w", err)
	}
	ok, err := e.device.Wait(fence, 1, snapshotFenceTimeout)
	if err != nil {
		return nil, fmt.Errorf("snapshot: wait for GPU: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("snapshot: GPU timeout after %v", snapshotFenceTimeout)
	}

	readback := make([]byte, stagingSize)
	if err := e.queue.ReadBuffer(staging, 0, readback); err != nil {
		return nil, fmt.Errorf("snapshot: readback: %w", err)
	}

	// Strip per-row padding.
	img := image.NewNRGBA(image.Rect(0, 0, int(w), int(h)))
	for row := 0; row < int(h); row++ {
		src := row * int(alignedBytesPerRow)
		dst := row * img.Stride
		copy(img.Pix[dst:dst+int(bytesPerRow)], readback[src:src+int(bytesPerRow)])
	}

	slogger().Debug("snapshot: read back output texture",
		"size", fmt.Sprintf("%dx%d", w, h))
	return img, nil
}

// WriteImage saves img to path, choosing the codec from the extension:
// .webp encodes lossless WebP, anything else falls back to PNG.
func WriteImage(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("snapshot: create %s: %w", path, err)
	}

	switch strings.ToLower(filepath.Ext(path)) {
	case ".webp":
		err = nativewebp.Encode(f, img, nil)
	default:
		err = png.Encode(f, img)
	}
	if err != nil {
		f.Close()
		return fmt.Errorf("snapshot: encode %s: %w", path, err)
	}
	return f.Close()
}
