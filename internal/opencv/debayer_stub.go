//go:build nocv

package opencv

import (
	"fmt"

	"github.com/visioneerlab/rawpipe"
)

// PrimitiveDebayer is unavailable in nocv builds; New always fails.
type PrimitiveDebayer struct{}

var _ rawpipe.Debayerer = (*PrimitiveDebayer)(nil)

// New reports that the backend was compiled out.
func New() (*PrimitiveDebayer, error) {
	return nil, fmt.Errorf("%w: built without OpenCV support (nocv tag)", rawpipe.ErrDevice)
}

// Name implements rawpipe.Debayerer.
func (d *PrimitiveDebayer) Name() string { return "gpu-vendor" }

// Process implements rawpipe.Debayerer.
func (d *PrimitiveDebayer) Process(*rawpipe.RawFrame) (*rawpipe.RgbFrame, error) {
	return nil, fmt.Errorf("%w: built without OpenCV support (nocv tag)", rawpipe.ErrDevice)
}

// Close implements io.Closer.
func (d *PrimitiveDebayer) Close() error { return nil }
