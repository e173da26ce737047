// Package renderer splits frames into row blocks and distributes them to a
// pool of tracers.
package renderer

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"os"
	"time"

	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/log"
	"github.com/whoJake/fluidsim/tracer"
)

type Renderer interface {
	// Render frame.
	Render(ctx context.Context) (*image.RGBA, error)

	// Shutdown renderer and any attached tracer.
	Close()

	// Get render statistics for the last frame.
	Stats() FrameStats
}

type defaultRenderer struct {
	logger log.Logger

	tracers   []tracer.Tracer
	scheduler tracer.BlockScheduler
	opts      Options

	stats FrameStats
}

// Create a renderer backed by cpu tracers. The camera projection is set up
// to match the frame aspect ratio.
func NewDefault(accel tracer.Accelerator, camera *tracer.Camera, scheduler tracer.BlockScheduler, opts Options) (Renderer, error) {
	if accel == nil {
		return nil, ErrSceneNotDefined
	}
	if camera == nil {
		return nil, ErrCameraNotDefined
	}
	if opts.FrameW == 0 || opts.FrameH == 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidFrameSize, opts.FrameW, opts.FrameH)
	}
	if err := camera.SetupProjection(float32(opts.FrameW) / float32(opts.FrameH)); err != nil {
		return nil, err
	}

	// Each tracer needs at least one row
	numTracers := opts.NumTracers
	if numTracers <= 0 {
		numTracers = 1
	}
	if numTracers > int(opts.FrameH) {
		numTracers = int(opts.FrameH)
	}

	r := &defaultRenderer{
		logger:    log.New("renderer"),
		scheduler: scheduler,
		opts:      opts,
	}
	if r.scheduler == nil {
		r.scheduler = tracer.NaiveScheduler()
	}

	setup := tracer.Setup{
		Accelerator:     accel,
		Camera:          camera,
		FrameW:          opts.FrameW,
		FrameH:          opts.FrameH,
		Background:      opts.Background,
		Ambient:         opts.Ambient,
		TraverseOptions: bvh.TraverseOptions{MaxBounces: opts.NumBounces},
	}
	for i := 0; i < numTracers; i++ {
		tr := tracer.NewCPUTracer(fmt.Sprintf("cpu-%d", i), opts.WorkersPerTracer)
		if err := tr.Setup(setup); err != nil {
			r.Close()
			return nil, err
		}
		r.tracers = append(r.tracers, tr)
	}

	r.logger.Infof("attached %d cpu tracer(s) to a %dx%d frame", len(r.tracers), opts.FrameW, opts.FrameH)
	return r, nil
}

func (r *defaultRenderer) Render(ctx context.Context) (*image.RGBA, error) {
	if len(r.tracers) == 0 {
		return nil, ErrNoTracers
	}

	start := time.Now()
	frame := image.NewRGBA(image.Rect(0, 0, int(r.opts.FrameW), int(r.opts.FrameH)))
	blockAssignment := r.scheduler.Schedule(r.tracers, r.opts.FrameH)

	doneChan := make(chan uint32, len(r.tracers))
	errChan := make(chan error, len(r.tracers))
	var blockY uint32
	for idx, tr := range r.tracers {
		tr.Enqueue(tracer.BlockRequest{
			Ctx:      ctx,
			BlockY:   blockY,
			BlockH:   blockAssignment[idx],
			Frame:    frame,
			DoneChan: doneChan,
			ErrChan:  errChan,
		})
		blockY += blockAssignment[idx]
	}

	for pending := len(r.tracers); pending > 0; pending-- {
		select {
		case <-doneChan:
		case err := <-errChan:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil, ErrInterrupted
			}
			return nil, err
		case <-ctx.Done():
			return nil, ErrInterrupted
		}
	}

	r.collectStats(blockAssignment, time.Since(start))
	r.logger.Debugf("rendered frame in %s", r.stats.RenderTime)
	return frame, nil
}

func (r *defaultRenderer) collectStats(blockAssignment []uint32, renderTime time.Duration) {
	r.stats = FrameStats{
		Tracers:    make([]TracerStat, len(r.tracers)),
		RenderTime: renderTime,
	}
	for idx, tr := range r.tracers {
		trStats := tr.Stats()
		r.stats.Tracers[idx] = TracerStat{
			Id:             tr.Id(),
			IsPrimary:      idx == 0,
			BlockH:         blockAssignment[idx],
			FramePercent:   100.0 * float32(blockAssignment[idx]) / float32(r.opts.FrameH),
			RenderTime:     trStats.RenderTime,
			Rays:           trStats.Rays,
			NodesVisited:   trStats.Traversal.NodesVisited,
			PayloadsTested: trStats.Traversal.PayloadsTested,
		}
	}
}

func (r *defaultRenderer) Stats() FrameStats {
	return r.stats
}

func (r *defaultRenderer) Close() {
	for _, tr := range r.tracers {
		tr.Close()
	}
	r.tracers = nil
}

// Write frame to a png file.
func SaveFrame(path string, frame image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}

	if err = png.Encode(f, frame); err != nil {
		f.Close()
		return fmt.Errorf("renderer: could not encode %s: %w", path, err)
	}
	return f.Close()
}
