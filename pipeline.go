package rawpipe

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// Decoder turns an on-disk raw container into a RawFrame, calibration
// included. The pipeline never re-derives white balance or color-matrix
// values itself; whatever the decoder reports is what the backends use.
type Decoder interface {
	Decode(data []byte) (*RawFrame, error)
}

// Encoder turns a frame into a stored image. EncodeGray16 receives the
// undeveloped mosaic when debayering is disabled; EncodeRGB16 receives
// the developed frame. The Config carries compression and predictor
// selection.
type Encoder interface {
	EncodeGray16(w io.Writer, f *RawFrame, cfg Config) error
	EncodeRGB16(w io.Writer, f *RgbFrame, cfg Config) error
}

// Pipeline sequences one conversion: decode, validate, develop
// (optional), encode. It fails on the first stage error and never
// retries; retries are a caller concern. Safe for concurrent Convert
// calls.
type Pipeline struct {
	cfg Config
	dec Decoder
	enc Encoder
	deb Debayerer

	// ownsDebayerer marks a backend the pipeline constructed itself and
	// therefore closes; injected backends stay with their caller.
	ownsDebayerer bool
}

// PipelineOption wires a collaborator into a Pipeline.
type PipelineOption func(*Pipeline)

// WithDecoder sets the raw container decoder. Required.
func WithDecoder(d Decoder) PipelineOption {
	return func(p *Pipeline) { p.dec = d }
}

// WithEncoder sets the image encoder. Required.
func WithEncoder(e Encoder) PipelineOption {
	return func(p *Pipeline) { p.enc = e }
}

// WithDebayerer injects a backend instance directly, bypassing registry
// selection. The caller keeps ownership and closes it; useful for custom
// implementations and tests.
func WithDebayerer(d Debayerer) PipelineOption {
	return func(p *Pipeline) { p.deb = d }
}

// New builds a Pipeline for cfg. The decoder and encoder are required.
// When cfg enables debayering and no Debayerer was injected, the backend
// registered for cfg.Backend() is constructed here, strictly: an
// unregistered or failing backend is a construction error, never a
// silent substitution.
func New(cfg Config, opts ...PipelineOption) (*Pipeline, error) {
	p := &Pipeline{cfg: cfg}
	for _, opt := range opts {
		opt(p)
	}
	if p.dec == nil {
		return nil, errors.New("rawpipe: pipeline requires a decoder")
	}
	if p.enc == nil {
		return nil, errors.New("rawpipe: pipeline requires an encoder")
	}
	if cfg.Debayer() && p.deb == nil {
		d, err := newDebayerer(cfg.Backend())
		if err != nil {
			return nil, err
		}
		p.deb = d
		p.ownsDebayerer = true
	}
	return p, nil
}

// Close releases the backend if the pipeline constructed it and it holds
// resources. Injected backends are left untouched.
func (p *Pipeline) Close() error {
	if !p.ownsDebayerer || p.deb == nil {
		return nil
	}
	c, ok := p.deb.(io.Closer)
	p.deb = nil
	p.ownsDebayerer = false
	if !ok {
		return nil
	}
	return c.Close()
}

// Convert runs the full conversion and returns the encoded image bytes.
func (p *Pipeline) Convert(input []byte) ([]byte, error) {
	out, _, err := p.ConvertWithTimings(input)
	return out, err
}

// ConvertWithTimings runs the full conversion and additionally returns
// the per-stage wall-clock durations in execution order. Timings are
// also populated on failure, up to the stage that failed.
func (p *Pipeline) ConvertWithTimings(input []byte) ([]byte, *Timings, error) {
	t := &Timings{}
	out, err := p.convert(input, t)
	if err != nil {
		return nil, t, err
	}
	Logger().Debug("conversion finished",
		"input_bytes", len(input),
		"output_bytes", len(out),
		"total", t.Total())
	return out, t, nil
}

// ConvertFile reads src, converts it, and writes the result to dst. The
// output file is only created after the conversion has fully succeeded;
// a failed conversion leaves no partial output behind.
func (p *Pipeline) ConvertFile(src, dst string) error {
	_, err := p.ConvertFileWithTimings(src, dst)
	return err
}

// ConvertFileWithTimings is ConvertFile with the recorded stage timings.
func (p *Pipeline) ConvertFileWithTimings(src, dst string) (*Timings, error) {
	input, err := os.ReadFile(src)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInputRead, src, err)
	}
	out, t, err := p.ConvertWithTimings(input)
	if err != nil {
		return t, err
	}
	if err := os.WriteFile(dst, out, 0o644); err != nil {
		return t, fmt.Errorf("%w: %s: %v", ErrOutputWrite, dst, err)
	}
	return t, nil
}

func (p *Pipeline) convert(input []byte, t *Timings) ([]byte, error) {
	start := time.Now()
	frame, err := p.dec.Decode(input)
	t.add(StageDecode, time.Since(start))
	if err != nil {
		if !errors.Is(err, ErrDecode) {
			err = fmt.Errorf("%w: %v", ErrDecode, err)
		}
		return nil, err
	}

	if p.cfg.ValidateDimensions() {
		start = time.Now()
		err = validateDimensions(frame.Width, frame.Height, p.cfg.MaxDimension())
		t.add(StageValidate, time.Since(start))
		if err != nil {
			return nil, err
		}
	}

	var buf bytes.Buffer
	if p.cfg.Debayer() {
		start = time.Now()
		rgb, err := p.deb.Process(frame)
		t.add(StageDebayer, time.Since(start))
		if err != nil {
			return nil, err
		}
		Logger().Debug("frame developed",
			"backend", p.deb.Name(),
			"size", fmt.Sprintf("%dx%d", rgb.Width, rgb.Height))

		start = time.Now()
		err = p.enc.EncodeRGB16(&buf, rgb, p.cfg)
		t.add(StageEncode, time.Since(start))
		if err != nil {
			return nil, err
		}
	} else {
		start = time.Now()
		err = p.enc.EncodeGray16(&buf, frame, p.cfg)
		t.add(StageEncode, time.Since(start))
		if err != nil {
			return nil, err
		}
	}
	return buf.Bytes(), nil
}

// validateDimensions rejects zero dimensions always, and dimensions
// above the bound when one is configured (maxDimension > 0).
func validateDimensions(width, height, maxDimension int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d", ErrInvalidDimensions, width, height)
	}
	if maxDimension > 0 && (width > maxDimension || height > maxDimension) {
		return fmt.Errorf("%w: %dx%d exceeds maximum dimension %d",
			ErrInvalidDimensions, width, height, maxDimension)
	}
	return nil
}
