// Copyright 2026 The rawpipe Authors
// SPDX-License-Identifier: BSD-3-Clause

//go:build !nogpu

package gpu

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	"github.com/visioneerlab/rawpipe"
)

// KernelDebayer develops frames with a single fused WGSL compute kernel:
// demosaic and color correction in one dispatch, quantization on the
// host. The WGSL source is compiled to SPIR-V through naga at
// construction time, so a broken driver or an unsupported shader feature
// surfaces as a construction error rather than a bad frame.
//
// A KernelDebayer owns one pipeline on one device. Process serializes
// dispatches on that device; callers wanting parallel GPU work construct
// one instance per goroutine.
type KernelDebayer struct {
	mu sync.Mutex

	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline

	// Compiled SPIR-V (cached for verification).
	spirv []uint32

	externalDevice bool // true when using a shared device (don't destroy on Close)
}

var _ rawpipe.Debayerer = (*KernelDebayer)(nil)

// Option adjusts KernelDebayer construction.
type Option func(*options)

type options struct {
	provider any
}

// WithDeviceProvider makes the backend run on a shared GPU device from
// an external provider (e.g. a gogpu application context) instead of
// creating its own instance. The provider must expose HalDevice() any
// and HalQueue() any returning hal.Device and hal.Queue.
func WithDeviceProvider(provider any) Option {
	return func(o *options) { o.provider = provider }
}

// New constructs the kernel backend: device acquisition, shader
// compilation, and pipeline creation all happen here. Any failure is
// reported as a device error; there is no deferred initialization and
// no fallback.
func New(opts ...Option) (*KernelDebayer, error) {
	var cfg options
	for _, opt := range opts {
		opt(&cfg)
	}
	d := &KernelDebayer{}
	var err error
	if cfg.provider != nil {
		err = d.initShared(cfg.provider)
	} else {
		err = d.initOwn()
	}
	if err != nil {
		d.Close()
		return nil, fmt.Errorf("%w: %v", rawpipe.ErrDevice, err)
	}
	return d, nil
}

// Name implements rawpipe.Debayerer.
func (d *KernelDebayer) Name() string { return "gpu-kernel" }

// Process implements rawpipe.Debayerer. The frame is validated, its
// color pipeline flattened into the uniform block, and the whole image
// developed in one compute dispatch.
func (d *KernelDebayer) Process(f *rawpipe.RawFrame) (*rawpipe.RgbFrame, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	if d.device == nil {
		return nil, fmt.Errorf("%w: backend is closed", rawpipe.ErrDevice)
	}

	pipe := rawpipe.NewColorPipeline(f)
	params := newKernelParams(f, &pipe)
	packed := packSamples(f.Samples)
	pixelCount := f.Width * f.Height
	outSize := uint64(pixelCount) * 3 * 4

	uniformBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "debayer_params", Size: kernelParamsSize,
		Usage: gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create params buffer: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyBuffer(uniformBuf)

	rawBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "debayer_raw", Size: uint64(len(packed)),
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create raw buffer: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyBuffer(rawBuf)

	rgbBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "debayer_rgb", Size: outSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create rgb buffer: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyBuffer(rgbBuf)

	stagingBuf, err := d.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "debayer_staging", Size: outSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create staging buffer: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyBuffer(stagingBuf)

	d.queue.WriteBuffer(uniformBuf, 0, params.toBytes())
	d.queue.WriteBuffer(rawBuf, 0, packed)

	bindGroup, err := d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "debayer_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: uniformBuf.NativeHandle(), Offset: 0, Size: kernelParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: rawBuf.NativeHandle(), Offset: 0, Size: uint64(len(packed))}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: rgbBuf.NativeHandle(), Offset: 0, Size: outSize}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create bind group: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyBindGroup(bindGroup)

	readback := make([]byte, outSize)
	if err := d.dispatch(bindGroup, rgbBuf, stagingBuf, uint32(f.Width), uint32(f.Height), outSize, readback); err != nil {
		return nil, err
	}

	return &rawpipe.RgbFrame{
		Width:         f.Width,
		Height:        f.Height,
		Samples:       unpackRGB(readback, pixelCount),
		BitsPerSample: 16,
	}, nil
}

// dispatch encodes one compute pass over the frame, copies the output
// into the staging buffer, and blocks until the fence signals.
func (d *KernelDebayer) dispatch(
	bindGroup hal.BindGroup, rgbBuf, stagingBuf hal.Buffer,
	w, h uint32, outSize uint64, readback []byte,
) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "debayer_encoder"})
	if err != nil {
		return fmt.Errorf("%w: create command encoder: %v", rawpipe.ErrDevice, err)
	}
	if err := encoder.BeginEncoding("debayer"); err != nil {
		return fmt.Errorf("%w: begin encoding: %v", rawpipe.ErrDevice, err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "debayer_pass"})
	pass.SetPipeline(d.pipeline)
	pass.SetBindGroup(0, bindGroup, nil)
	pass.Dispatch((w+7)/8, (h+7)/8, 1)
	pass.End()

	encoder.CopyBufferToBuffer(rgbBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: outSize},
	})
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("%w: end encoding: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("%w: create fence: %v", rawpipe.ErrDevice, err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("%w: submit: %v", rawpipe.ErrDevice, err)
	}
	fenceOK, err := d.device.Wait(fence, 1, 5*time.Second)
	if err != nil || !fenceOK {
		return fmt.Errorf("%w: wait for GPU: ok=%v err=%v", rawpipe.ErrDevice, fenceOK, err)
	}

	if err := d.queue.ReadBuffer(stagingBuf, 0, readback); err != nil {
		return fmt.Errorf("%w: readback: %v", rawpipe.ErrDevice, err)
	}
	return nil
}

// Close releases the pipeline and, when the backend created its own
// instance, the device behind it. Safe to call more than once.
func (d *KernelDebayer) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.destroyPipeline()
	if !d.externalDevice {
		if d.device != nil {
			d.device.Destroy()
		}
		if d.instance != nil {
			d.instance.Destroy()
		}
	}
	d.device = nil
	d.instance = nil
	d.queue = nil
	d.externalDevice = false
	return nil
}

func (d *KernelDebayer) initOwn() error {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return fmt.Errorf("create instance: %v", err)
	}
	d.instance = instance
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		return errors.New("no GPU adapters found")
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
		return fmt.Errorf("open device: %v", err)
	}
	d.device = openDev.Device
	d.queue = openDev.Queue
	if err := d.createPipeline(); err != nil {
		return err
	}
	rawpipe.Logger().Debug("kernel backend initialized", "adapter", selected.Info.Name)
	return nil
}

// initShared wires the backend to a caller-owned device. The provider
// contract matches what gogpu application contexts expose.
func (d *KernelDebayer) initShared(provider any) error {
	type halProvider interface {
		HalDevice() any
		HalQueue() any
	}
	hp, ok := provider.(halProvider)
	if !ok {
		return errors.New("provider does not expose HAL types")
	}
	device, ok := hp.HalDevice().(hal.Device)
	if !ok || device == nil {
		return errors.New("provider HalDevice is not hal.Device")
	}
	queue, ok := hp.HalQueue().(hal.Queue)
	if !ok || queue == nil {
		return errors.New("provider HalQueue is not hal.Queue")
	}
	d.device = device
	d.queue = queue
	d.externalDevice = true
	if err := d.createPipeline(); err != nil {
		return fmt.Errorf("create pipeline with shared device: %v", err)
	}
	rawpipe.Logger().Debug("kernel backend initialized", "adapter", "shared")
	return nil
}

func (d *KernelDebayer) createPipeline() error {
	spirvBytes, err := naga.Compile(debayerShaderWGSL)
	if err != nil {
		return fmt.Errorf("compile debayer shader: %v", err)
	}
	d.spirv = spirvWords(spirvBytes)

	shader, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "debayer_rggb",
		Source: hal.ShaderSource{SPIRV: d.spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %v", err)
	}
	d.shader = shader

	bindLayout, err := d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "debayer_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %v", err)
	}
	d.bindLayout = bindLayout

	pipeLayout, err := d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "debayer_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %v", err)
	}
	d.pipeLayout = pipeLayout

	pipeline, err := d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "debayer_pipeline", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %v", err)
	}
	d.pipeline = pipeline

	return nil
}

func (d *KernelDebayer) destroyPipeline() {
	if d.device == nil {
		return
	}
	if d.pipeline != nil {
		d.device.DestroyComputePipeline(d.pipeline)
		d.pipeline = nil
	}
	if d.pipeLayout != nil {
		d.device.DestroyPipelineLayout(d.pipeLayout)
		d.pipeLayout = nil
	}
	if d.bindLayout != nil {
		d.device.DestroyBindGroupLayout(d.bindLayout)
		d.bindLayout = nil
	}
	if d.shader != nil {
		d.device.DestroyShaderModule(d.shader)
		d.shader = nil
	}
}
