package rawpipe

import (
	"errors"
	"fmt"
	"slices"
	"sync"
)

// Debayerer develops one RawFrame into an RgbFrame: it reconstructs the
// two missing color channels of every Bayer cell by bilinear
// interpolation and applies the shared ColorPipeline transform.
//
// Implementations must be safe for concurrent Process calls on one
// instance. They keep no per-frame state; GPU-backed implementations hold
// their device context for their whole lifetime and serialize calls that
// share an execution stream.
//
// Implementations that hold device resources should also implement
// io.Closer; the Pipeline closes an implementation it constructed itself.
type Debayerer interface {
	// Name identifies the implementation (e.g. "cpu", "gpu-kernel").
	Name() string

	// Process develops the frame. It returns a fully populated RgbFrame
	// or an error; never a partial result.
	Process(f *RawFrame) (*RgbFrame, error)
}

// Backend selects which Debayerer implementation a Pipeline constructs.
type Backend int

const (
	// BackendCPU is the pure-Go reference implementation, always
	// registered.
	BackendCPU Backend = iota

	// BackendGPUKernel is the fused WGSL compute kernel. Register it by
	// importing the gpu package:
	//
	//	import _ "github.com/visioneerlab/rawpipe/gpu"
	BackendGPUKernel

	// BackendGPUVendor is the OpenCV primitive chain. Register it by
	// importing the opencv package:
	//
	//	import _ "github.com/visioneerlab/rawpipe/opencv"
	BackendGPUVendor
)

// String returns the backend's configuration name.
func (b Backend) String() string {
	switch b {
	case BackendCPU:
		return "cpu"
	case BackendGPUKernel:
		return "gpu-kernel"
	case BackendGPUVendor:
		return "gpu-vendor"
	default:
		return fmt.Sprintf("backend(%d)", int(b))
	}
}

// BackendFactory constructs a Debayerer. Factories run at Pipeline
// construction, not at registration, so registering a GPU backend on a
// machine without a GPU is harmless until that backend is selected.
type BackendFactory func() (Debayerer, error)

var (
	backendMu sync.RWMutex
	backends  = map[Backend]BackendFactory{}
)

// RegisterBackend makes a backend selectable by configuration. Backend
// packages call it from init; registering the same kind again replaces
// the previous factory, which tests use to substitute fakes.
func RegisterBackend(kind Backend, factory BackendFactory) error {
	if factory == nil {
		return errors.New("rawpipe: backend factory must not be nil")
	}
	backendMu.Lock()
	backends[kind] = factory
	backendMu.Unlock()
	Logger().Debug("backend registered", "backend", kind.String())
	return nil
}

// RegisteredBackends lists the currently registered backend kinds in
// ascending order.
func RegisteredBackends() []Backend {
	backendMu.RLock()
	kinds := make([]Backend, 0, len(backends))
	for k := range backends {
		kinds = append(kinds, k)
	}
	backendMu.RUnlock()
	slices.Sort(kinds)
	return kinds
}

// newDebayerer constructs the Debayerer registered for kind. Selection is
// strict: an unregistered kind is an error, never a substitution.
func newDebayerer(kind Backend) (Debayerer, error) {
	backendMu.RLock()
	factory, ok := backends[kind]
	backendMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("rawpipe: backend %s not registered (import the backend package)", kind)
	}
	d, err := factory()
	if err != nil {
		return nil, fmt.Errorf("rawpipe: construct %s backend: %w", kind, err)
	}
	return d, nil
}
