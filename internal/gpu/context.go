// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package gpu

import (
	"fmt"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
)

// Context bundles the hal device and the single queue every engine
// submits to. All GPU work in this module goes through that one queue;
// submission order on it is the only cross-pass ordering guarantee, so
// a compute submission is always visible to the render submission that
// follows it.
type Context struct {
	device hal.Device
	queue  hal.Queue

	// instance is non-nil only for standalone contexts, which own
	// their device and must destroy it on Close. Shared contexts
	// leave teardown to their provider.
	instance hal.Instance
	owned    bool
}

// NewContext opens a standalone Vulkan device, preferring discrete
// then integrated adapters. This is the headless path; windowed use
// adopts the app device through NewSharedContext instead so compute
// and presentation share one queue.
func NewContext() (*Context, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}

	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("no GPU adapters found")
	}

	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open device: %w", err)
	}

	slogger().Info("gpu: device opened", "adapter", selected.Info.Name)
	return &Context{
		device:   openDev.Device,
		queue:    openDev.Queue,
		instance: instance,
		owned:    true,
	}, nil
}

// NewSharedContext adopts a device and queue owned by an external
// provider (the windowing layer). The provider must expose
// HalDevice() any and HalQueue() any returning hal types.
func NewSharedContext(provider any) (*Context, error) {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return nil, fmt.Errorf("provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return nil, fmt.Errorf("provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return nil, fmt.Errorf("provider HalQueue is not hal.Queue")
	}

	slogger().Debug("gpu: using shared device")
	return &Context{device: device, queue: queue}, nil
}

// NewContextFrom wraps an already opened device and queue without
// taking ownership.
func NewContextFrom(device hal.Device, queue hal.Queue) *Context {
	return &Context{device: device, queue: queue}
}

// Device returns the hal device.
func (c *Context) Device() hal.Device { return c.device }

// Queue returns the shared submission queue.
func (c *Context) Queue() hal.Queue { return c.queue }

// Close destroys the device and instance of an owned context. Calling
// Close on a shared context is a no-op.
func (c *Context) Close() {
	if !c.owned {
		return
	}
	if c.device != nil {
		c.device.Destroy()
		c.device = nil
	}
	if c.instance != nil {
		c.instance.Destroy()
		c.instance = nil
	}
}
