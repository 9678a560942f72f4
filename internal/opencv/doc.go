// Package opencv implements the vendor-primitive debayer backend on
// gocv. Instead of one fused kernel, the development step runs as a
// chain of library primitives with an output check between stages, the
// same arithmetic the other backends apply.
//
// Builds tagged nocv compile this package without the gocv dependency;
// New then fails and backend selection reports the device error.
package opencv
