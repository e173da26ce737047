package renderer

import "github.com/whoJake/fluidsim/types"

type Options struct {
	// Frame dims.
	FrameW uint32
	FrameH uint32

	// Number of cpu tracers and the number of rows each one traces in
	// parallel. Zero values select a single tracer using all cpus.
	NumTracers       int
	WorkersPerTracer int

	// Forwarded to the accelerator; primary rays only for now.
	NumBounces uint32

	// Color for rays that miss the scene.
	Background types.Vec3

	// Minimum lighting term for surfaces.
	Ambient float32
}

// Get options for a frameW x frameH render with a single tracer.
func DefaultOptions(frameW, frameH uint32) Options {
	return Options{
		FrameW:     frameW,
		FrameH:     frameH,
		NumTracers: 1,
		Background: types.XYZ(0.05, 0.05, 0.08),
		Ambient:    0.15,
	}
}
