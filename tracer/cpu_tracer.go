package tracer

import (
	"context"
	"fmt"
	"image/color"
	"runtime"
	"sync"
	"time"

	"github.com/chewxy/math32"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/log"
	"github.com/whoJake/fluidsim/types"
	"golang.org/x/sync/errgroup"
)

type cpuTracer struct {
	sync.Mutex
	wg sync.WaitGroup

	logger log.Logger

	id string

	// Max number of rows traced in parallel.
	workers int

	setup *Setup

	stats Stats

	// A channel for receiving block requests from the renderer.
	blockReqChan chan BlockRequest

	// A channel for signaling the worker to exit.
	closeChan chan struct{}
}

// Create a tracer that traces rows in parallel on up to workers goroutines.
// A non-positive worker count selects runtime.NumCPU().
func NewCPUTracer(id string, workers int) Tracer {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &cpuTracer{
		logger:  log.New(fmt.Sprintf("cpu tracer (%s)", id)),
		id:      id,
		workers: workers,
	}
}

func (tr *cpuTracer) Id() string {
	return tr.id
}

func (tr *cpuTracer) SpeedEstimate() float32 {
	return float32(tr.workers)
}

func (tr *cpuTracer) Stats() *Stats {
	tr.Lock()
	defer tr.Unlock()
	stats := tr.stats
	return &stats
}

// Attach tracer to a scene and start the worker goroutine.
func (tr *cpuTracer) Setup(setup Setup) error {
	tr.Lock()
	defer tr.Unlock()

	if tr.setup != nil {
		return ErrAlreadyAttached
	}
	if setup.Accelerator == nil {
		return ErrNoAccelerator
	}
	if setup.Camera == nil {
		return ErrInvalidCamera
	}

	attached := &setup
	tr.setup = attached
	reqChan, closeChan := make(chan BlockRequest, 1), make(chan struct{})
	tr.blockReqChan, tr.closeChan = reqChan, closeChan

	readyChan := make(chan struct{})
	tr.wg.Add(1)
	go func() {
		defer tr.wg.Done()
		close(readyChan)
		for {
			select {
			case blockReq := <-reqChan:
				// Render block and reply with our completion status
				if err := tr.process(attached, blockReq); err != nil {
					blockReq.ErrChan <- err
					continue
				}
				blockReq.DoneChan <- blockReq.BlockH
			case <-closeChan:
				return
			}
		}
	}()

	// Wait for worker goroutine to start
	<-readyChan
	return nil
}

func (tr *cpuTracer) Enqueue(blockReq BlockRequest) {
	tr.Lock()
	attached := tr.setup != nil
	reqChan, closeChan := tr.blockReqChan, tr.closeChan
	tr.Unlock()

	if !attached {
		blockReq.ErrChan <- ErrNotAttached
		return
	}

	select {
	case reqChan <- blockReq:
	case <-closeChan:
		blockReq.ErrChan <- ErrNotAttached
	}
}

// Signal the worker to exit and wait till it does.
func (tr *cpuTracer) Close() {
	tr.Lock()
	if tr.setup == nil {
		tr.Unlock()
		return
	}
	closeChan := tr.closeChan
	tr.setup = nil
	tr.Unlock()

	close(closeChan)
	tr.wg.Wait()
}

// Trace all rows of a block in parallel.
func (tr *cpuTracer) process(setup *Setup, blockReq BlockRequest) error {
	if blockReq.BlockY+blockReq.BlockH > setup.FrameH {
		return fmt.Errorf("%w: rows %d-%d; frame height %d", ErrBlockOutOfRange, blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, setup.FrameH)
	}

	ctx := blockReq.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	start := time.Now()
	rowStats := make([]bvh.TraverseStats, blockReq.BlockH)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(tr.workers)
	for row := uint32(0); row < blockReq.BlockH; row++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			rowStats[row] = tr.traceRow(setup, blockReq, blockReq.BlockY+row)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	stats := Stats{
		BlockY:     blockReq.BlockY,
		BlockH:     blockReq.BlockH,
		RenderTime: time.Since(start),
		Rays:       uint64(blockReq.BlockH) * uint64(setup.FrameW),
	}
	for _, rs := range rowStats {
		stats.Traversal.Add(rs)
	}

	tr.Lock()
	tr.stats = stats
	tr.Unlock()

	tr.logger.Debugf("traced rows %d-%d in %s", blockReq.BlockY, blockReq.BlockY+blockReq.BlockH, stats.RenderTime)
	return nil
}

func (tr *cpuTracer) traceRow(setup *Setup, blockReq BlockRequest, y uint32) bvh.TraverseStats {
	var total bvh.TraverseStats
	for x := uint32(0); x < setup.FrameW; x++ {
		ray := setup.Camera.Ray(x, y, setup.FrameW, setup.FrameH)
		hit, stats, ok := setup.Accelerator.Intersect(ray, setup.TraverseOptions)
		total.Add(stats)

		c := setup.Background
		if ok {
			c = Shade(ray, hit, setup.Ambient)
		}
		if blockReq.Frame != nil {
			blockReq.Frame.SetRGBA(int(x), int(y), toRGBA(c))
		}
	}
	return total
}

// Get the color of a surface hit. The diffuse color is scaled by the
// cosine between the ray and the surface normal, clamped below by ambient.
func Shade(ray bvh.Ray, hit bvh.RayHitInfo, ambient float32) types.Vec3 {
	lambert := math32.Abs(hit.Normal.Dot(ray.Direction))
	return hit.Diffuse.Mul(math32.Max(ambient, lambert))
}

func toRGBA(c types.Vec3) color.RGBA {
	channel := func(v float32) uint8 {
		return uint8(math32.Max(0, math32.Min(1, v))*255 + 0.5)
	}
	return color.RGBA{R: channel(c[0]), G: channel(c[1]), B: channel(c[2]), A: 255}
}
