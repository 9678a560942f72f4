//go:build !nocv

// Package opencv registers the vendor-primitive debayer backend.
//
// Import this package to make BackendGPUVendor selectable:
//
//	import _ "github.com/visioneerlab/rawpipe/opencv"
//
// The backend develops frames as a chain of OpenCV primitives through
// gocv, which needs the OpenCV runtime at build and link time. Builds
// tagged nocv exclude this package entirely.
package opencv

import (
	"github.com/visioneerlab/rawpipe"
	cvimpl "github.com/visioneerlab/rawpipe/internal/opencv"
)

func init() {
	err := rawpipe.RegisterBackend(rawpipe.BackendGPUVendor, func() (rawpipe.Debayerer, error) {
		d, err := cvimpl.New()
		if err != nil {
			return nil, err
		}
		return d, nil
	})
	if err != nil {
		rawpipe.Logger().Warn("vendor backend registration failed", "err", err)
	}
}

// New constructs the vendor backend directly, bypassing the registry.
// The caller owns the returned backend and closes it.
func New() (rawpipe.Debayerer, error) {
	d, err := cvimpl.New()
	if err != nil {
		return nil, err
	}
	return d, nil
}
