package renderer

import "time"

type TracerStat struct {
	// The tracer id.
	Id string

	// True if this is the primary tracer
	IsPrimary bool

	// The block height and the percentage of total frame area it represents.
	BlockH       uint32
	FramePercent float32

	// Render time for assigned block
	RenderTime time.Duration

	// Primary rays cast and the BVH work they caused.
	Rays           uint64
	NodesVisited   int
	PayloadsTested int
}

type FrameStats struct {
	// Individual tracer stats.
	Tracers []TracerStat

	// Total render time for entire frame.
	RenderTime time.Duration
}

// Get the total number of rays cast by all tracers.
func (fs FrameStats) Rays() uint64 {
	var total uint64
	for _, ts := range fs.Tracers {
		total += ts.Rays
	}
	return total
}
