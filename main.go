package main

import (
	"os"

	"github.com/urfave/cli"

	"github.com/kperelygin/lumen/cmd"
)

func main() {
	cli.VersionFlag = cli.BoolFlag{
		Name:  "version",
		Usage: "print only the version",
	}

	app := cli.NewApp()
	app.Name = "lumen"
	app.Usage = "compile triangle soups into GPU-ready BVH buffers"
	app.Version = "0.1.0"
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
			Name:  "compile",
			Usage: "compile a triangle soup into a flat BVH",
			Description: `
Read a world-space triangle soup, build a SAH-optimized BVH and write the
flat node, triangle and source-index buffers to a binary file that a
ray-tracing backend can upload directly.`,
			ArgsUsage: "scene1.tri scene2.tri ...",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "leaf-size",
					Value: 4,
					Usage: "max triangles per leaf",
				},
				cli.IntFlag{
					Name:  "bins",
					Value: 12,
					Usage: "SAH bins per axis (4-64)",
				},
				cli.IntFlag{
					Name:  "max-depth",
					Value: 64,
					Usage: "recursion depth cap (1-512)",
				},
				cli.StringFlag{
					Name:  "out, o",
					Usage: "output filename (defaults to the input with a .lbvh extension)",
				},
			},
			Action: cmd.Compile,
		},
		{
			Name:      "gen",
			Usage:     "generate a procedural triangle soup",
			ArgsUsage: "scene.tri",
			Flags: []cli.Flag{
				cli.IntFlag{
					Name:  "count",
					Value: 1000,
					Usage: "number of triangles",
				},
				cli.Float64Flag{
					Name:  "side",
					Value: 10.0,
					Usage: "side length of the cube the triangles are scattered in",
				},
				cli.Float64Flag{
					Name:  "size",
					Value: 0.5,
					Usage: "triangle size",
				},
				cli.Int64Flag{
					Name:  "seed",
					Value: 42,
					Usage: "random seed",
				},
			},
			Action: cmd.Generate,
		},
		{
			Name:      "stats",
			Usage:     "print statistics for a compiled BVH",
			ArgsUsage: "scene.lbvh",
			Action:    cmd.Stats,
		},
		{
			Name:      "trace",
			Usage:     "cast a single ray through a compiled BVH",
			ArgsUsage: "scene.lbvh",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "origin",
					Value: "0,0,0",
					Usage: "ray origin as x,y,z",
				},
				cli.StringFlag{
					Name:  "dir",
					Value: "0,0,-1",
					Usage: "ray direction as x,y,z",
				},
			},
			Action: cmd.Trace,
		},
	}

	app.Run(os.Args)
}
