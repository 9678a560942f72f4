// Package gpu implements the custom-kernel debayer backend on the
// gogpu/wgpu Pure Go WebGPU HAL (zero CGO).
//
// The whole development step (RGGB bilinear demosaic, black-level
// subtraction, range normalization, white balance, and the combined
// color matrix) runs as one WGSL compute shader, one dispatch per
// frame in 8x8 workgroups. The shader is compiled to SPIR-V with
// gogpu/naga when the backend is constructed, and its f32 output is
// quantized to u16 on the host with the same clamp-and-truncate rule
// the CPU backend uses.
//
// # Device Ownership
//
// By default the backend creates its own Vulkan instance and opens the
// first discrete or integrated adapter. WithDeviceProvider instead
// attaches it to a device owned by the host application; the backend
// then never destroys the device, only its pipeline objects.
//
// # Concurrency
//
// Process serializes GPU submissions per instance. Construct one
// KernelDebayer per goroutine for parallel dispatch; instances never
// share pipeline state.
package gpu
