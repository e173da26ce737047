// Package tracer renders image blocks by casting primary rays against an
// acceleration structure.
package tracer

import (
	"context"
	"image"
	"time"

	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/types"
)

// The Accelerator interface is implemented by spatial indices that answer
// nearest-hit ray queries. Implementations must be safe for concurrent use.
type Accelerator interface {
	Intersect(ray bvh.Ray, opts bvh.TraverseOptions) (bvh.RayHitInfo, bvh.TraverseStats, bool)
}

// Scene data shared by all tracers attached to a renderer.
type Setup struct {
	Accelerator Accelerator
	Camera      *Camera

	FrameW uint32
	FrameH uint32

	// Color for rays that do not hit anything.
	Background types.Vec3

	// Minimum lighting term applied to surfaces facing away from the
	// camera.
	Ambient float32

	TraverseOptions bvh.TraverseOptions
}

// A unit of work that is processed by a tracer.
type BlockRequest struct {
	// Cancelling the context aborts the block.
	Ctx context.Context

	// Block start row and height.
	BlockY uint32
	BlockH uint32

	// Output frame. Each block writes a disjoint set of rows.
	Frame *image.RGBA

	// A channel to signal on block completion with the number of completed rows.
	DoneChan chan<- uint32

	// A channel to signal if an error occurs.
	ErrChan chan<- error
}

// Tracer statistics for the last processed block.
type Stats struct {
	BlockY uint32
	BlockH uint32

	RenderTime time.Duration

	// Number of primary rays cast.
	Rays uint64

	Traversal bvh.TraverseStats
}

type Tracer interface {
	// Get tracer id.
	Id() string

	// Shutdown tracer and wait for its worker to exit.
	Close()

	// Get the tracer's speed estimate compared to a single cpu core.
	SpeedEstimate() float32

	// Attach the tracer to a scene and start processing block requests.
	Setup(Setup) error

	// Enqueue block request.
	Enqueue(BlockRequest)

	// Retrieve last block statistics.
	Stats() *Stats
}
