package renderer

import (
	"context"
	"errors"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/primitive"
	"github.com/whoJake/fluidsim/tracer"
	"github.com/whoJake/fluidsim/types"
)

func testScene() *bvh.BVH[primitive.Sphere] {
	tree := bvh.New([]primitive.Sphere{
		{Center: types.XYZ(0, 0, -5), Radius: 1, Color: types.XYZ(0, 1, 0)},
		{Center: types.XYZ(3, 0, -8), Radius: 1, Color: types.XYZ(1, 1, 1)},
	})
	tree.Build(bvh.DefaultBuildSettings())
	return tree
}

func TestRenderFrame(t *testing.T) {
	opts := DefaultOptions(21, 15)
	opts.NumTracers = 3
	opts.WorkersPerTracer = 2
	opts.Background = types.XYZ(1, 0, 0)

	r, err := NewDefault(testScene(), tracer.NewCamera(60), tracer.PerfectScheduler(), opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	// Render twice so the perfect scheduler uses frame feedback
	for frameIndex := 0; frameIndex < 2; frameIndex++ {
		frame, err := r.Render(context.Background())
		if err != nil {
			t.Fatal(err)
		}

		if exp := (color.RGBA{G: 255, A: 255}); frame.RGBAAt(10, 7) != exp {
			t.Fatalf("[frame %d] expected center pixel %v; got %v", frameIndex, exp, frame.RGBAAt(10, 7))
		}
		if exp := (color.RGBA{R: 255, A: 255}); frame.RGBAAt(0, 0) != exp {
			t.Fatalf("[frame %d] expected background pixel %v; got %v", frameIndex, exp, frame.RGBAAt(0, 0))
		}

		stats := r.Stats()
		if len(stats.Tracers) != 3 {
			t.Fatalf("expected stats for 3 tracers; got %d", len(stats.Tracers))
		}
		var rows uint32
		var percent float32
		for _, ts := range stats.Tracers {
			rows += ts.BlockH
			percent += ts.FramePercent
		}
		if rows != opts.FrameH {
			t.Fatalf("[frame %d] expected tracers to cover %d rows; got %d", frameIndex, opts.FrameH, rows)
		}
		if percent < 99.9 || percent > 100.1 {
			t.Fatalf("[frame %d] expected frame percentages to add up to 100; got %f", frameIndex, percent)
		}
		if stats.Rays() != uint64(opts.FrameW*opts.FrameH) {
			t.Fatalf("[frame %d] expected %d rays; got %d", frameIndex, opts.FrameW*opts.FrameH, stats.Rays())
		}
		if !stats.Tracers[0].IsPrimary || stats.Tracers[1].IsPrimary {
			t.Fatal("expected only the first tracer to be primary")
		}
	}
}

func TestRenderInterrupted(t *testing.T) {
	r, err := NewDefault(testScene(), tracer.NewCamera(60), nil, DefaultOptions(8, 8))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Render(ctx); err != ErrInterrupted {
		t.Fatalf("expected ErrInterrupted; got %v", err)
	}
}

func TestNewDefaultErrors(t *testing.T) {
	scene := testScene()
	type spec struct {
		accel  tracer.Accelerator
		camera *tracer.Camera
		opts   Options
		expErr error
	}
	specs := []spec{
		{nil, tracer.NewCamera(60), DefaultOptions(4, 4), ErrSceneNotDefined},
		{scene, nil, DefaultOptions(4, 4), ErrCameraNotDefined},
		{scene, tracer.NewCamera(60), DefaultOptions(0, 4), ErrInvalidFrameSize},
		{scene, tracer.NewCamera(0), DefaultOptions(4, 4), tracer.ErrInvalidCamera},
	}

	for index, s := range specs {
		if _, err := NewDefault(s.accel, s.camera, nil, s.opts); !errors.Is(err, s.expErr) {
			t.Fatalf("[spec %d] expected error %v; got %v", index, s.expErr, err)
		}
	}
}

func TestTracerCountIsClampedToFrameHeight(t *testing.T) {
	opts := DefaultOptions(4, 2)
	opts.NumTracers = 8
	r, err := NewDefault(testScene(), tracer.NewCamera(60), nil, opts)
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	if _, err := r.Render(context.Background()); err != nil {
		t.Fatal(err)
	}
	if len(r.Stats().Tracers) != 2 {
		t.Fatalf("expected 2 tracers; got %d", len(r.Stats().Tracers))
	}

	r.Close()
	if _, err := r.Render(context.Background()); err != ErrNoTracers {
		t.Fatalf("expected ErrNoTracers after close; got %v", err)
	}
}

func TestSaveFrame(t *testing.T) {
	r, err := NewDefault(testScene(), tracer.NewCamera(60), nil, DefaultOptions(6, 4))
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()

	frame, err := r.Render(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	path := filepath.Join(t.TempDir(), "frame.png")
	if err = SaveFrame(path, frame); err != nil {
		t.Fatal(err)
	}

	f, err := os.Open(path)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	decoded, err := png.Decode(f)
	if err != nil {
		t.Fatal(err)
	}
	if decoded.Bounds() != frame.Bounds() {
		t.Fatalf("expected decoded bounds %v; got %v", frame.Bounds(), decoded.Bounds())
	}
}
