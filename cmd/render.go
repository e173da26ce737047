package cmd

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/chewxy/math32"
	"github.com/olekukonko/tablewriter"
	"github.com/urfave/cli"
	"github.com/whoJake/fluidsim/renderer"
	"github.com/whoJake/fluidsim/tracer"
	"github.com/whoJake/fluidsim/types"
)

// Flags for the render command.
func RenderFlags() []cli.Flag {
	return append(SceneFlags(),
		cli.IntFlag{
			Name:  "width",
			Value: 512,
			Usage: "frame width",
		},
		cli.IntFlag{
			Name:  "height",
			Value: 512,
			Usage: "frame height",
		},
		cli.IntFlag{
			Name:  "tracers",
			Value: 1,
			Usage: "number of cpu tracers the frame is split between",
		},
		cli.IntFlag{
			Name:  "workers",
			Usage: "rows traced in parallel by each tracer (default: number of cpus)",
		},
		cli.StringFlag{
			Name:  "scheduler",
			Value: "naive",
			Usage: "block scheduler (naive, perfect)",
		},
		cli.Float64Flag{
			Name:  "fov",
			Value: 45,
			Usage: "vertical camera field of view in degrees when the scene does not define a camera",
		},
		cli.Float64Flag{
			Name:  "yaw",
			Usage: "orbit the camera around its target by this many degrees",
		},
		cli.Float64Flag{
			Name:  "pitch",
			Usage: "tilt the camera around its target by this many degrees",
		},
		cli.StringFlag{
			Name:  "out, o",
			Value: "frame.png",
			Usage: "image filename for the rendered frame",
		},
	)
}

// Render a still frame.
func RenderFrame(ctx *cli.Context) error {
	setupLogging(ctx)

	opts := renderer.DefaultOptions(uint32(ctx.Int("width")), uint32(ctx.Int("height")))
	opts.NumTracers = ctx.Int("tracers")
	opts.WorkersPerTracer = ctx.Int("workers")

	var scheduler tracer.BlockScheduler
	switch ctx.String("scheduler") {
	case "naive":
		scheduler = tracer.NaiveScheduler()
	case "perfect":
		scheduler = tracer.PerfectScheduler()
	default:
		return fmt.Errorf("unknown block scheduler %q", ctx.String("scheduler"))
	}

	sc, err := loadScene(ctx)
	if err != nil {
		return err
	}

	camera, err := setupCamera(ctx, sc)
	if err != nil {
		return err
	}

	r, err := renderer.NewDefault(sc.index, camera, scheduler, opts)
	if err != nil {
		return err
	}
	defer r.Close()

	renderCtx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	frame, err := r.Render(renderCtx)
	if err != nil {
		return err
	}

	if err = renderer.SaveFrame(ctx.String("out"), frame); err != nil {
		return err
	}
	logger.Noticef("saved frame to %s", ctx.String("out"))

	displayFrameStats(r.Stats())
	return nil
}

// Use the scene camera if one is defined; otherwise frame the scene bounds
// from the +Z side.
func setupCamera(ctx *cli.Context, sc *loadedScene) (*tracer.Camera, error) {
	var camera *tracer.Camera
	if sc.camera != nil {
		camera = tracer.NewCamera(sc.camera.FOV)
		camera.Position = sc.camera.Eye
		camera.LookAt = sc.camera.Look
		camera.Up = sc.camera.Up
	} else {
		camera = tracer.NewCamera(float32(ctx.Float64("fov")))
		bounds := sc.index.Bounds()
		if sc.index.Len() == 0 {
			bounds.Min, bounds.Max = types.Splat(-1), types.Splat(1)
		}

		radius := math32.Max(bounds.Size().Len()*0.5, 1e-3)
		distance := 1.1 * radius / math32.Sin(camera.FOV*math32.Pi/360)
		camera.LookAt = bounds.Centre()
		camera.Position = camera.LookAt.Add(types.XYZ(0, 0, distance))
	}

	yaw := float32(ctx.Float64("yaw")) * math32.Pi / 180
	pitch := float32(ctx.Float64("pitch")) * math32.Pi / 180
	if err := camera.Orbit(yaw, pitch); err != nil {
		return nil, err
	}
	return camera, nil
}

func displayFrameStats(stats renderer.FrameStats) {
	var buf bytes.Buffer
	table := tablewriter.NewWriter(&buf)
	table.SetAutoFormatHeaders(false)
	table.SetAutoWrapText(false)
	table.SetHeader([]string{"Tracer", "Primary", "Block height", "% of frame", "Render time", "Rays", "Nodes visited", "Payloads tested"})
	for _, stat := range stats.Tracers {
		table.Append([]string{
			stat.Id,
			fmt.Sprintf("%t", stat.IsPrimary),
			fmt.Sprintf("%d", stat.BlockH),
			fmt.Sprintf("%02.1f %%", stat.FramePercent),
			stat.RenderTime.String(),
			fmt.Sprintf("%d", stat.Rays),
			fmt.Sprintf("%d", stat.NodesVisited),
			fmt.Sprintf("%d", stat.PayloadsTested),
		})
	}
	table.SetFooter([]string{"", "", "", "TOTAL", stats.RenderTime.String(), fmt.Sprintf("%d", stats.Rays()), "", ""})

	table.Render()
	logger.Noticef("frame statistics\n%s", buf.String())
}
