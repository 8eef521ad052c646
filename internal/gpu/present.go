// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// present.go owns the fullscreen-quad render pipeline that samples the
// compute output onto the window surface.

package gpu

import (
	"encoding/binary"
	"fmt"
	"math"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// presentFenceTimeout is the maximum time to wait for a frame's render
// work before presenting.
const presentFenceTimeout = 5 * time.Second

// quadVertexStride is the byte size of one quad vertex:
// position vec3 + texcoord vec2.
const quadVertexStride = 5 * 4

// quadVertices is the fullscreen quad in clip space, counter-clockwise
// from the top-left corner. Texel row 0 maps to the top of the window.
var quadVertices = []float32{
	// x, y, z, u, v
	-1, 1, 0, 0, 0,
	-1, -1, 0, 0, 1,
	1, -1, 0, 1, 1,
	1, 1, 0, 1, 0,
}

// quadIndices splits the quad into two triangles.
var quadIndices = []uint16{0, 1, 2, 2, 3, 0}

// PresentEngine owns the render pipeline, the quad buffers, the
// sampler, and the current surface size. Each Render acquires a
// surface view, draws the sampled texture over it, waits for the GPU,
// and presents.
type PresentEngine struct {
	device  hal.Device
	queue   hal.Queue
	surface Surface

	shader     hal.ShaderModule
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.RenderPipeline
	sampler    hal.Sampler
	vertexBuf  hal.Buffer
	indexBuf   hal.Buffer

	width  uint32
	height uint32
}

// NewPresentEngine compiles the quad shader and builds the render
// pipeline targeting the given surface format. Failure is fatal for
// the caller.
func NewPresentEngine(ctx *Context, surface Surface, width, height uint32, format gputypes.TextureFormat) (*PresentEngine, error) {
	p := &PresentEngine{
		device:  ctx.Device(),
		queue:   ctx.Queue(),
		surface: surface,
		width:   width,
		height:  height,
	}

	shader, err := compileShaderModule(p.device, "present", shaderPresent)
	if err != nil {
		return nil, fmt.Errorf("present: %w", err)
	}
	p.shader = shader

	// Binding contract of present.wgsl:
	//   @binding(0) sampled texture (fragment)
	//   @binding(1) sampler (fragment)
	bgLayout, err := p.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "present_bgl",
		Entries: []gputypes.BindGroupLayoutEntry{
			{
				Binding:    0,
				Visibility: gputypes.ShaderStageFragment,
				Texture: &gputypes.TextureBindingLayout{
					SampleType:    gputypes.TextureSampleTypeFloat,
					ViewDimension: gputypes.TextureViewDimension2D,
				},
			},
			{
				Binding:    1,
				Visibility: gputypes.ShaderStageFragment,
				Sampler:    &gputypes.SamplerBindingLayout{Type: gputypes.SamplerBindingTypeFiltering},
			},
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("present: create bind group layout: %w", err)
	}
	p.bgLayout = bgLayout

	pipeLayout, err := p.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "present_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("present: create pipeline layout: %w", err)
	}
	p.pipeLayout = pipeLayout

	// Nearest filtering keeps iteration bands crisp at any zoom.
	// Repeat on U/V, clamp on W.
	sampler, err := p.device.CreateSampler(&hal.SamplerDescriptor{
		Label:        "present_sampler",
		AddressModeU: gputypes.AddressModeRepeat,
		AddressModeV: gputypes.AddressModeRepeat,
		AddressModeW: gputypes.AddressModeClampToEdge,
		MagFilter:    gputypes.FilterModeNearest,
		MinFilter:    gputypes.FilterModeNearest,
		MipmapFilter: gputypes.FilterModeNearest,
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("present: create sampler: %w", err)
	}
	p.sampler = sampler

	pipeline, err := p.device.CreateRenderPipeline(&hal.RenderPipelineDescriptor{
		Label:  "present_pipeline",
		Layout: pipeLayout,
		Vertex: hal.VertexState{
			Module:     shader,
			EntryPoint: "vs_main",
			Buffers:    quadVertexLayout(),
		},
		Fragment: &hal.FragmentState{
			Module:     shader,
			EntryPoint: "fs_main",
			Targets: []gputypes.ColorTargetState{
				{
					Format:    format,
					WriteMask: gputypes.ColorWriteMaskAll,
				},
			},
		},
		Primitive: gputypes.PrimitiveState{
			Topology: gputypes.PrimitiveTopologyTriangleList,
			CullMode: gputypes.CullModeNone,
		},
		Multisample: gputypes.MultisampleState{
			Count: 1,
			Mask:  0xFFFFFFFF,
		},
	})
	if err != nil {
		p.Destroy()
		return nil, fmt.Errorf("present: create pipeline: %w", err)
	}
	p.pipeline = pipeline

	if err := p.createQuadBuffers(); err != nil {
		p.Destroy()
		return nil, err
	}

	slogger().Info("present: pipeline initialized",
		"surface", fmt.Sprintf("%dx%d", width, height))
	return p, nil
}

// quadVertexLayout matches VertexInput in present.wgsl:
//
//	location 0: position (vec3<f32>)
//	location 1: tex_coord (vec2<f32>)
func quadVertexLayout() []gputypes.VertexBufferLayout {
	return []gputypes.VertexBufferLayout{
		{
			ArrayStride: quadVertexStride,
			StepMode:    gputypes.VertexStepModeVertex,
			Attributes: []gputypes.VertexAttribute{
				{Format: gputypes.VertexFormatFloat32x3, Offset: 0, ShaderLocation: 0},
				{Format: gputypes.VertexFormatFloat32x2, Offset: 12, ShaderLocation: 1},
			},
		},
	}
}

// createQuadBuffers uploads the static vertex and index data once at
// construction.
func (p *PresentEngine) createQuadBuffers() error {
	vertexBytes := make([]byte, len(quadVertices)*4)
	for i, f := range quadVertices {
		binary.LittleEndian.PutUint32(vertexBytes[i*4:], math.Float32bits(f))
	}
	indexBytes := make([]byte, len(quadIndices)*2)
	for i, idx := range quadIndices {
		binary.LittleEndian.PutUint16(indexBytes[i*2:], idx)
	}

	vertexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "present_quad_vertices",
		Size:  uint64(len(vertexBytes)),
		Usage: gputypes.BufferUsageVertex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("present: create vertex buffer: %w", err)
	}
	p.vertexBuf = vertexBuf
	p.queue.WriteBuffer(vertexBuf, 0, vertexBytes)

	indexBuf, err := p.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "present_quad_indices",
		Size:  uint64(len(indexBytes)),
		Usage: gputypes.BufferUsageIndex | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return fmt.Errorf("present: create index buffer: %w", err)
	}
	p.indexBuf = indexBuf
	p.queue.WriteBuffer(indexBuf, 0, indexBytes)
	return nil
}

// Resize reconfigures the surface and stores the new size. Zero-area
// sizes are a silent no-op: minimized windows report 0x0 and a
// zero-area swapchain is invalid.
func (p *PresentEngine) Resize(width, height uint32) error {
	if width == 0 || height == 0 {
		return nil
	}
	if err := p.surface.Configure(width, height); err != nil {
		return fmt.Errorf("present: configure surface: %w", err)
	}
	p.width = width
	p.height = height
	slogger().Debug("present: surface resized",
		"size", fmt.Sprintf("%dx%d", width, height))
	return nil
}

// Size returns the stored surface size.
func (p *PresentEngine) Size() (uint32, uint32) {
	return p.width, p.height
}

// Render draws the source texture over the whole surface and presents.
// Acquisition failures pass through wrapped, so callers can classify
// them with errors.Is against the Surface error variables.
//
// The render pass loads the existing surface contents instead of
// clearing: the quad covers every pixel, so a clear would be redundant
// work.
func (p *PresentEngine) Render(source hal.TextureView) error {
	view, err := p.surface.Acquire()
	if err != nil {
		return fmt.Errorf("present: acquire surface: %w", err)
	}

	bg, err := p.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:  "present_bg",
		Layout: p.bgLayout,
		Entries: []gputypes.BindGroupEntry{
			{
				Binding:  0,
				Resource: gputypes.TextureViewBinding{TextureView: source.NativeHandle()},
			},
			{
				Binding:  1,
				Resource: gputypes.SamplerBinding{Sampler: p.sampler.NativeHandle()},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("present: create bind group: %w", err)
	}
	defer p.device.DestroyBindGroup(bg)

	encoder, err := p.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "present_encoder",
	})
	if err != nil {
		return fmt.Errorf("present: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("present_frame"); err != nil {
		return fmt.Errorf("present: begin encoding: %w", err)
	}

	rp := encoder.BeginRenderPass(&hal.RenderPassDescriptor{
		Label: "present_pass",
		ColorAttachments: []hal.RenderPassColorAttachment{{
			View:    view,
			LoadOp:  gputypes.LoadOpLoad,
			StoreOp: gputypes.StoreOpStore,
		}},
	})
	rp.SetPipeline(p.pipeline)
	rp.SetBindGroup(0, bg, nil)
	rp.SetVertexBuffer(0, p.vertexBuf, 0)
	rp.SetIndexBuffer(p.indexBuf, gputypes.IndexFormatUint16, 0)
	rp.DrawIndexed(uint32(len(quadIndices)), 1, 0, 0, 0)
	rp.End()

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("present: end encoding: %w", err)
	}
	defer p.device.FreeCommandBuffer(cmdBuf)

	fence, err := p.device.CreateFence()
	if err != nil {
		return fmt.Errorf("present: create fence: %w", err)
	}
	defer p.device.DestroyFence(fence)

	// Submitted on the same queue as the compute pass, after it:
	// submission order makes the kernel's texture writes visible to
	// this pass's sampling.
	if err := p.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("present: submit: %w", err)
	}

	ok, err := p.device.Wait(fence, 1, presentFenceTimeout)
	if err != nil {
		return fmt.Errorf("present: wait for GPU: %w", err)
	}
	if !ok {
		return fmt.Errorf("present: GPU timeout after %v", presentFenceTimeout)
	}

	if err := p.surface.Present(); err != nil {
		return fmt.Errorf("present: present surface: %w", err)
	}
	return nil
}

// Destroy releases all GPU resources held by the engine. Safe to call
// on a partially constructed engine.
func (p *PresentEngine) Destroy() {
	if p.indexBuf != nil {
		p.device.DestroyBuffer(p.indexBuf)
		p.indexBuf = nil
	}
	if p.vertexBuf != nil {
		p.device.DestroyBuffer(p.vertexBuf)
		p.vertexBuf = nil
	}
	if p.pipeline != nil {
		p.device.DestroyRenderPipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.sampler != nil {
		p.device.DestroySampler(p.sampler)
		p.sampler = nil
	}
	if p.pipeLayout != nil {
		p.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bgLayout != nil {
		p.device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.shader != nil {
		p.device.DestroyShaderModule(p.shader)
		p.shader = nil
	}
}
