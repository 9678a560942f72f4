//go:build !nogpu

package main

// Makes -backend=gpu-kernel selectable.
import _ "github.com/visioneerlab/rawpipe/gpu"
