package main

import (
	"os"

	"github.com/urfave/cli"
	"github.com/whoJake/fluidsim/cmd"
	"github.com/whoJake/fluidsim/log"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "fluidsim"
	app.Usage = "build and query bounding volume hierarchies"
	app.Version = "0.0.1"
	app.Flags = []cli.Flag{
		cli.BoolFlag{
			Name:  "v",
			Usage: "enable verbose logging",
		},
		cli.BoolFlag{
			Name:  "vv",
			Usage: "enable even more verbose logging",
		},
	}
	app.Commands = []cli.Command{
		{
			Name:  "build",
			Usage: "build a BVH for a scene and display tree statistics",
			Description: `
Load triangles from a wavefront obj or glTF/GLB file (local path or http(s)
URL) or generate random spheres, build a BVH, validate its structure and
display build statistics.`,
			ArgsUsage: "[scene_file]",
			Flags:     cmd.SceneFlags(),
			Action:    cmd.BuildScene,
		},
		{
			Name:  "verify",
			Usage: "compare BVH traversal against a brute force scan",
			Description: `
Fire random rays at the scene and check that the nearest hit reported by the
BVH matches a linear scan over all payloads. Exits with an error if any ray
disagrees.`,
			ArgsUsage: "[scene_file]",
			Flags: append(cmd.SceneFlags(),
				cli.IntFlag{
					Name:  "rays",
					Value: 10000,
					Usage: "number of random rays to test",
				},
			),
			Action: cmd.VerifyScene,
		},
		{
			Name:        "render",
			Usage:       "render a frame of the scene",
			Description: `Render a single frame by casting one primary ray per pixel and save it as a png image.`,
			ArgsUsage:   "[scene_file]",
			Flags:       cmd.RenderFlags(),
			Action:      cmd.RenderFrame,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.New("fluidsim").Error(err.Error())
		os.Exit(1)
	}
}
