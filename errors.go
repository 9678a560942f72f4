package rawpipe

import "errors"

// Pipeline failures are classified by sentinel errors so callers can react
// programmatically with errors.Is. Wrapped errors carry the stage-specific
// detail; the sentinel identifies the class.

var (
	// ErrDecode indicates a malformed or unsupported raw container.
	// The caller decides whether to reject or retry the input; rawpipe
	// never retries internally.
	ErrDecode = errors.New("rawpipe: decode raw container")

	// ErrInvalidDimensions indicates the decoded frame failed dimension
	// validation: zero width or height, or a dimension above the
	// configured maximum.
	ErrInvalidDimensions = errors.New("rawpipe: invalid dimensions")

	// ErrUnsupportedFormat indicates a bit depth or calibration shape the
	// demosaic step cannot handle.
	ErrUnsupportedFormat = errors.New("rawpipe: unsupported format")

	// ErrDemosaic indicates a structural interpolation failure, such as a
	// sample buffer whose length does not match the frame dimensions.
	ErrDemosaic = errors.New("rawpipe: demosaic")

	// ErrDevice indicates a GPU or vendor-library failure: context
	// creation, kernel compilation, allocation, transfer, launch, or a
	// primitive call. Always fatal to that Process call; rawpipe never
	// downgrades to a different backend on device failure.
	ErrDevice = errors.New("rawpipe: device")

	// ErrEncode is surfaced unchanged from the encoder collaborator.
	ErrEncode = errors.New("rawpipe: encode output image")

	// ErrInputRead indicates the input file could not be read.
	ErrInputRead = errors.New("rawpipe: read input")

	// ErrOutputWrite indicates the output file could not be written.
	ErrOutputWrite = errors.New("rawpipe: write output")
)
