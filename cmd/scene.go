package cmd

import (
	"errors"
	"math/rand"

	"github.com/urfave/cli"
	"github.com/whoJake/fluidsim/asset/reader"
	"github.com/whoJake/fluidsim/bvh"
	"github.com/whoJake/fluidsim/tracer"
)

// Query surface shared by all BVH instantiations.
type sceneIndex interface {
	tracer.Accelerator

	Len() int
	Bounds() bvh.AABB
	Nodes() []bvh.Node
	Validate() error
	SAHCost() float32
}

// A scene with a built BVH.
type loadedScene struct {
	index sceneIndex
	stats bvh.BuildStats

	// Nil unless the scene file defines a camera.
	camera *reader.CameraSetup

	// Compare traversal against a linear scan for numRays random rays.
	verify func(numRays int, rng *rand.Rand) verifyResult
}

// Flags selecting the payload source and the build settings.
func SceneFlags() []cli.Flag {
	defaults := bvh.DefaultBuildSettings()
	return []cli.Flag{
		cli.IntFlag{
			Name:  "spheres",
			Usage: "generate this many random spheres instead of loading a scene file",
		},
		cli.Int64Flag{
			Name:  "seed",
			Value: 1,
			Usage: "random seed for generated spheres",
		},
		cli.IntFlag{
			Name:  "max-depth",
			Value: defaults.MaxDepth,
			Usage: "max BVH depth; negative values disable the limit",
		},
		cli.IntFlag{
			Name:  "min-payloads",
			Value: defaults.MinPayloadsPerNode,
			Usage: "leaves must hold more than this many payloads",
		},
		cli.StringFlag{
			Name:  "split",
			Value: defaults.SplitMethod.String(),
			Usage: "split method (half-longest-axis, sah)",
		},
	}
}

func buildSettings(ctx *cli.Context) (bvh.BuildSettings, error) {
	method, err := bvh.ParseSplitMethod(ctx.String("split"))
	if err != nil {
		return bvh.BuildSettings{}, err
	}
	return bvh.BuildSettings{
		MaxDepth:           ctx.Int("max-depth"),
		MinPayloadsPerNode: ctx.Int("min-payloads"),
		SplitMethod:        method,
	}, nil
}

// Load payloads from the scene file argument or generate spheres, then
// build the BVH.
func loadScene(ctx *cli.Context) (*loadedScene, error) {
	settings, err := buildSettings(ctx)
	if err != nil {
		return nil, err
	}

	if count := ctx.Int("spheres"); count > 0 {
		spheres, err := reader.GenerateSpheres(reader.DefaultSphereOptions(count, ctx.Int64("seed")))
		if err != nil {
			return nil, err
		}
		logger.Noticef("generated %d spheres", len(spheres))
		return buildScene(spheres, settings, nil), nil
	}

	if ctx.NArg() != 1 {
		return nil, errors.New("missing scene file argument or --spheres flag")
	}

	sc, err := reader.ReadScene(ctx.Args().First())
	if err != nil {
		return nil, err
	}
	return buildScene(sc.Triangles, settings, sc.Camera), nil
}

func buildScene[P bvh.Payload](payloads []P, settings bvh.BuildSettings, camera *reader.CameraSetup) *loadedScene {
	tree := bvh.New(payloads)
	stats := tree.Build(settings)
	logger.Infof("built BVH with %d nodes over %d payloads in %s", stats.NodeCount, tree.Len(), stats.BuildTime)

	return &loadedScene{
		index:  tree,
		stats:  stats,
		camera: camera,
		verify: func(numRays int, rng *rand.Rand) verifyResult {
			return verifyTree(tree, numRays, rng)
		},
	}
}
