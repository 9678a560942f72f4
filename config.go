package rawpipe

import "fmt"

// Compression selects the strip compression the encoder applies.
type Compression int

const (
	// CompressionNone stores strips uncompressed. The default.
	CompressionNone Compression = iota

	// CompressionLZW uses TIFF-variant LZW.
	CompressionLZW

	// CompressionDeflateFast, CompressionDeflateBalanced and
	// CompressionDeflateBest use zlib deflate at increasing effort.
	CompressionDeflateFast
	CompressionDeflateBalanced
	CompressionDeflateBest
)

// String returns the configuration name of the compression mode.
func (c Compression) String() string {
	switch c {
	case CompressionNone:
		return "none"
	case CompressionLZW:
		return "lzw"
	case CompressionDeflateFast:
		return "deflate-fast"
	case CompressionDeflateBalanced:
		return "deflate-balanced"
	case CompressionDeflateBest:
		return "deflate-best"
	default:
		return fmt.Sprintf("compression(%d)", int(c))
	}
}

// Predictor selects the encoder-side differencing transform applied
// before compression.
type Predictor int

const (
	// PredictorNone stores samples as-is. The default.
	PredictorNone Predictor = iota

	// PredictorHorizontal stores each sample as the difference to its
	// left neighbor, which improves compression on photographic data.
	PredictorHorizontal
)

// String returns the configuration name of the predictor.
func (p Predictor) String() string {
	switch p {
	case PredictorNone:
		return "none"
	case PredictorHorizontal:
		return "horizontal"
	default:
		return fmt.Sprintf("predictor(%d)", int(p))
	}
}

// DefaultMaxDimension bounds frame width and height when dimension
// validation is enabled and no other bound is configured.
const DefaultMaxDimension = 50000

// Config is the immutable description of one conversion setup: which
// backend develops frames, whether to develop at all, and the encoding
// options handed to the encoder. Build it with NewConfig; the zero value
// is not a valid configuration.
//
// Config is a comparable value: building twice with the same options
// yields equal configs.
type Config struct {
	compression        Compression
	predictor          Predictor
	validateDimensions bool
	maxDimension       int
	debayer            bool
	backend            Backend
}

// ConfigOption overrides one named field of the defaults.
type ConfigOption func(*Config)

// NewConfig builds a Config from documented defaults plus overrides.
// Defaults: CompressionNone, PredictorNone, dimension validation on with
// DefaultMaxDimension, debayering off, BackendCPU. The result is always
// fully defined regardless of which options are passed.
func NewConfig(opts ...ConfigOption) Config {
	cfg := Config{
		compression:        CompressionNone,
		predictor:          PredictorNone,
		validateDimensions: true,
		maxDimension:       DefaultMaxDimension,
		debayer:            false,
		backend:            BackendCPU,
	}
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// WithCompression selects the encoder compression. Default CompressionNone.
func WithCompression(c Compression) ConfigOption {
	return func(cfg *Config) { cfg.compression = c }
}

// WithPredictor selects the encoder predictor. Default PredictorNone.
func WithPredictor(p Predictor) ConfigOption {
	return func(cfg *Config) { cfg.predictor = p }
}

// WithDimensionValidation enables or disables the validation stage.
// Default enabled. When disabled, any positive dimensions pass regardless
// of the configured bound.
func WithDimensionValidation(enabled bool) ConfigOption {
	return func(cfg *Config) { cfg.validateDimensions = enabled }
}

// WithMaxDimension bounds frame width and height during validation.
// Default DefaultMaxDimension; zero removes the bound while keeping the
// zero-dimension check.
func WithMaxDimension(n int) ConfigOption {
	return func(cfg *Config) { cfg.maxDimension = n }
}

// WithDebayer enables frame development. Default off: the raw mosaic is
// encoded directly as 16-bit grayscale.
func WithDebayer(enabled bool) ConfigOption {
	return func(cfg *Config) { cfg.debayer = enabled }
}

// WithBackend selects which Debayerer a Pipeline constructs when
// debayering is enabled. Default BackendCPU.
func WithBackend(b Backend) ConfigOption {
	return func(cfg *Config) { cfg.backend = b }
}

// Compression returns the configured encoder compression.
func (c Config) Compression() Compression { return c.compression }

// Predictor returns the configured encoder predictor.
func (c Config) Predictor() Predictor { return c.predictor }

// ValidateDimensions reports whether the validation stage runs.
func (c Config) ValidateDimensions() bool { return c.validateDimensions }

// MaxDimension returns the dimension bound; zero means unbounded.
func (c Config) MaxDimension() int { return c.maxDimension }

// Debayer reports whether frames are developed to RGB.
func (c Config) Debayer() bool { return c.debayer }

// Backend returns the backend kind used when debayering is enabled.
func (c Config) Backend() Backend { return c.backend }
