//go:build !nocv

package main

// Makes -backend=gpu-vendor selectable.
import _ "github.com/visioneerlab/rawpipe/opencv"
