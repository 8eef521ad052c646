// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// compute.go owns the escape-time compute pipeline: shader compilation,
// the rgba8unorm output texture, and the per-frame dispatch.

package gpu

import (
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/mandel"
)

// computeFenceTimeout bounds the wait for a prior frame's dispatch
// when its resources are released.
const computeFenceTimeout = 5 * time.Second

// Workgroup dimensions of the kernel. These match the
// @workgroup_size(16, 16) annotation in mandelbrot.wgsl.
const (
	workgroupDimX = 16
	workgroupDimY = 16
)

// dispatchGrid returns the workgroup counts covering a w x h image,
// rounding up so edge pixels are covered. The kernel discards
// invocations outside the image.
func dispatchGrid(w, h uint32) (x, y uint32) {
	x = (w + workgroupDimX - 1) / workgroupDimX
	y = (h + workgroupDimY - 1) / workgroupDimY
	return x, y
}

// computeFrame holds per-frame GPU resources that must outlive the
// submission they were recorded into. Run does not wait for the GPU,
// so the frame is released at the start of the next Run, after a
// bounded wait on its fence. The wait is usually already satisfied
// because the presenter waits on its own fence before Present, but a
// frame whose presentation failed at acquisition never reached that
// wait.
type computeFrame struct {
	bindGroup hal.BindGroup
	cmdBuf    hal.CommandBuffer
	fence     hal.Fence
}

// ComputeEngine owns the escape-time pipeline and its output texture.
// Run dispatches one frame and returns without waiting; the render
// pass that samples the output is ordered behind it by submission
// order on the shared queue.
type ComputeEngine struct {
	device hal.Device
	queue  hal.Queue

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	paramsBuf hal.Buffer

	outputTex  hal.Texture
	outputView hal.TextureView
	width      uint32
	height     uint32

	// pendingW/pendingH trail Resize until the next Run recreates
	// the output texture.
	pendingW uint32
	pendingH uint32

	frame computeFrame
}

// NewComputeEngine compiles the kernel, builds the pipeline, and
// creates the initial output texture. Any failure here is fatal for
// the caller; there is no partial engine.
func NewComputeEngine(ctx *Context, width, height uint32) (*ComputeEngine, error) {
	e := &ComputeEngine{
		device:   ctx.Device(),
		queue:    ctx.Queue(),
		pendingW: width,
		pendingH: height,
	}

	shader, err := compileShaderModule(e.device, "mandelbrot", shaderMandelbrot)
	if err != nil {
		return nil, fmt.Errorf("compute: %w", err)
	}
	e.shader = shader

	// Binding contract of mandelbrot.wgsl:
	//   @binding(0) storage texture, write-only, rgba8unorm
	//   @binding(1) uniform MandelParams
	bgLayout, err := e.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "mandelbrot_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageCompute,
				StorageTexture: &gputypes.StorageTextureBindingLayout{
					Access:        gputypes.StorageTextureAccessWriteOnly,
					Format:        gputypes.TextureFormatRGBA8Unorm,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageCompute,
				Buffer:     &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform},
			},
		},
	})
	if err != nil {
		e.Destroy()
		return nil, fmt.Errorf("compute: create bind group layout: %w", err)
	}
	e.bgLayout = bgLayout

	pipeLayout, err := e.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "mandelbrot_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		e.Destroy()
		return nil, fmt.Errorf("compute: create pipeline layout: %w", err)
	}
	e.pipeLayout = pipeLayout

	pipeline, err := e.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "mandelbrot",
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     shader,
			EntryPoint: "main",
		},
	})
	if err != nil {
		e.Destroy()
		return nil, fmt.Errorf("compute: create pipeline: %w", err)
	}
	e.pipeline = pipeline

	paramsBuf, err := e.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "mandelbrot_params",
		Size:  mandel.ParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		e.Destroy()
		return nil, fmt.Errorf("compute: create params buffer: %w", err)
	}
	e.paramsBuf = paramsBuf

	if err := e.ensureOutput(); err != nil {
		e.Destroy()
		return nil, err
	}

	slogger().Info("compute: pipeline initialized",
		"output", fmt.Sprintf("%dx%d", e.width, e.height))
	return e, nil
}

// ensureOutput (re)creates the output texture when the stored size no
// longer matches the last requested size.
func (e *ComputeEngine) ensureOutput() error {
	if e.outputTex != nil && e.width == e.pendingW && e.height == e.pendingH {
		return nil
	}
	e.destroyOutput()

	tex, err := e.device.CreateTexture(&hal.TextureDescriptor{
		Label:         "mandelbrot_output",
		Size:          hal.Extent3D{Width: e.pendingW, Height: e.pendingH, DepthOrArrayLayers: 1},
		MipLevelCount: 1,
		SampleCount:   1,
		Dimension:     gputypes.TextureDimension2D,
		Format:        gputypes.TextureFormatRGBA8Unorm,
		Usage: gputypes.TextureUsageStorageBinding |
			gputypes.TextureUsageTextureBinding |
			gputypes.TextureUsageCopySrc,
	})
	if err != nil {
		return fmt.Errorf("compute: create output texture: %w", err)
	}
	e.outputTex = tex

	view, err := e.device.CreateTextureView(tex, &hal.TextureViewDescriptor{
		Label: "mandelbrot_output_view",
	})
	if err != nil {
		e.destroyOutput()
		return fmt.Errorf("compute: create output view: %w", err)
	}
	e.outputView = view

	e.width = e.pendingW
	e.height = e.pendingH
	slogger().Debug("compute: output texture created",
		"size", fmt.Sprintf("%dx%d", e.width, e.height))
	return nil
}

func (e *ComputeEngine) destroyOutput() {
	if e.outputView != nil {
		e.device.DestroyTextureView(e.outputView)
		e.outputView = nil
	}
	if e.outputTex != nil {
		e.device.DestroyTexture(e.outputTex)
		e.outputTex = nil
	}
}

// Resize records the new output size. The texture itself is recreated
// lazily at the start of the next Run. Zero-area sizes are ignored.
func (e *ComputeEngine) Resize(width, height uint32) {
	if width == 0 || height == 0 {
		return
	}
	e.pendingW = width
	e.pendingH = height
}

// Size returns the dimensions of the current output texture.
func (e *ComputeEngine) Size() (uint32, uint32) {
	return e.width, e.height
}

// OutputView returns the view the presenter samples.
func (e *ComputeEngine) OutputView() hal.TextureView {
	return e.outputView
}

// Run uploads the parameter block, dispatches one frame over the
// output texture, and submits. It returns the output view without
// waiting for GPU completion: the presenter samples it through the
// same queue, where submission order guarantees the write happens
// first.
func (e *ComputeEngine) Run(params mandel.Params) (hal.TextureView, error) {
	// Release before ensureOutput: a resize must not destroy an output
	// texture the previous dispatch is still writing.
	e.releaseFrame()
	if err := e.ensureOutput(); err != nil {
		return nil, err
	}

	e.queue.WriteBuffer(e.paramsBuf, 0, params.Pack())

	bg, err := e.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "mandelbrot_bg",
		Layout: e.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding:  0,
				Resource: gputypes.TextureViewBinding{TextureView: e.outputView.NativeHandle()},
			},
			{
				Binding:  1,
				Resource: gputypes.BufferBinding{Buffer: e.paramsBuf.NativeHandle()},
			},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("compute: create bind group: %w", err)
	}

	encoder, err := e.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "mandelbrot_compute",
	})
	if err != nil {
		e.device.DestroyBindGroup(bg)
		return nil, fmt.Errorf("compute: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("mandelbrot_compute"); err != nil {
		e.device.DestroyBindGroup(bg)
		return nil, fmt.Errorf("compute: begin encoding: %w", err)
	}

	gx, gy := dispatchGrid(e.width, e.height)
	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{
		Label: "mandelbrot_pass",
	})
	pass.SetPipeline(e.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(gx, gy, 1)
	pass.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		e.device.DestroyBindGroup(bg)
		return nil, fmt.Errorf("compute: end encoding: %w", err)
	}

	fence, err := e.device.CreateFence()
	if err != nil {
		e.device.FreeCommandBuffer(cmdBuf)
		e.device.DestroyBindGroup(bg)
		return nil, fmt.Errorf("compute: create fence: %w", err)
	}

	if err := e.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		e.device.DestroyFence(fence)
		e.device.FreeCommandBuffer(cmdBuf)
		e.device.DestroyBindGroup(bg)
		return nil, fmt.Errorf("compute: submit: %w", err)
	}
	e.frame = computeFrame{bindGroup: bg, cmdBuf: cmdBuf, fence: fence}

	slogger().Debug("compute: dispatched",
		"grid_x", gx,
		"grid_y", gy,
		"iterations", params.MaxIterations)
	return e.outputView, nil
}

// releaseFrame waits for the previous frame's dispatch and frees its
// resources. The wait returns immediately when the presenter already
// drained the queue; it only blocks for frames whose presentation was
// skipped.
func (e *ComputeEngine) releaseFrame() {
	if e.frame.fence != nil {
		ok, err := e.device.Wait(e.frame.fence, 1, computeFenceTimeout)
		if err != nil || !ok {
			slogger().Warn("compute: fence wait before release",
				"ok", ok, "error", err)
		}
		e.device.DestroyFence(e.frame.fence)
	}
	if e.frame.cmdBuf != nil {
		e.device.FreeCommandBuffer(e.frame.cmdBuf)
	}
	if e.frame.bindGroup != nil {
		e.device.DestroyBindGroup(e.frame.bindGroup)
	}
	e.frame = computeFrame{}
}

// Destroy releases all GPU resources held by the engine. Safe to call
// on a partially constructed engine.
func (e *ComputeEngine) Destroy() {
	e.releaseFrame()
	e.destroyOutput()
	if e.paramsBuf != nil {
		e.device.DestroyBuffer(e.paramsBuf)
		e.paramsBuf = nil
	}
	if e.pipeline != nil {
		e.device.DestroyComputePipeline(e.pipeline)
		e.pipeline = nil
	}
	if e.pipeLayout != nil {
		e.device.DestroyPipelineLayout(e.pipeLayout)
		e.pipeLayout = nil
	}
	if e.bgLayout != nil {
		e.device.DestroyBindGroupLayout(e.bgLayout)
		e.bgLayout = nil
	}
	if e.shader != nil {
		e.device.DestroyShaderModule(e.shader)
		e.shader = nil
	}
}
