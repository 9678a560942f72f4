//go:build !nogpu

// Package gpu registers the custom-kernel debayer backend.
//
// Import this package to make BackendGPUKernel selectable:
//
//	import _ "github.com/visioneerlab/rawpipe/gpu"
//
// Registration itself is unconditional and cheap. Device acquisition
// and shader compilation happen when a pipeline selects the backend,
// and their failure surfaces as that pipeline's construction error;
// there is no silent CPU substitution.
package gpu

import (
	"github.com/gogpu/gpucontext"

	"github.com/visioneerlab/rawpipe"
	gpuimpl "github.com/visioneerlab/rawpipe/internal/gpu"
)

// DeviceHandle provides GPU device access from a host application. It
// is an alias for gpucontext.DeviceProvider, so gogpu application
// contexts satisfy it directly.
type DeviceHandle = gpucontext.DeviceProvider

func init() {
	err := rawpipe.RegisterBackend(rawpipe.BackendGPUKernel, func() (rawpipe.Debayerer, error) {
		d, err := gpuimpl.New()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		rawpipe.Logger().Warn("kernel backend registration failed", "err", err)
	}
}

// New constructs the kernel backend directly, bypassing the registry.
// The caller owns the returned backend and closes it.
func New() (rawpipe.Debayerer, error) {
	d, err := gpuimpl.New()
	if err != nil {
		return nil, err
	}
	return d, nil
}

// NewWithDevice constructs the kernel backend on a device owned by the
// host application. The handle must also expose the HAL escape hatches
// (HalDevice and HalQueue returning hal types), which gogpu contexts
// do; the backend will not destroy a shared device on Close.
func NewWithDevice(h DeviceHandle) (rawpipe.Debayerer, error) {
	d, err := gpuimpl.New(gpuimpl.WithDeviceProvider(h))
	if err != nil {
		return nil, err
	}
	return d, nil
}
