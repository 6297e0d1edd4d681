package cmd

import (
	"fmt"
	"math/rand"

	"github.com/urfave/cli"

	"github.com/kperelygin/lumen/bvh"
	"github.com/kperelygin/lumen/io"
	"github.com/kperelygin/lumen/types"
)

// Generate a procedural triangle soup for smoke-testing the compiler: small
// triangles scattered uniformly inside a cube.
func Generate(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected an output file name")
	}

	count := ctx.Int("count")
	if count < 1 {
		return fmt.Errorf("triangle count must be positive; got %d", count)
	}
	side := float32(ctx.Float64("side"))
	size := float32(ctx.Float64("size"))

	rng := rand.New(rand.NewSource(ctx.Int64("seed")))
	triangles := make([]bvh.Triangle, count)
	for i := range triangles {
		center := types.XYZ(rng.Float32()*side, rng.Float32()*side, rng.Float32()*side)
		half := size / 2
		triangles[i] = bvh.NewTriangle(
			center.Add(types.XYZ(-half, -half, 0)),
			center.Add(types.XYZ(half, -half, 0)),
			center.Add(types.XYZ(0, half, 0)),
		)
	}

	outFile := ctx.Args().First()
	if err := io.WriteSoupFile(outFile, triangles); err != nil {
		logger.Error(err)
		return err
	}
	logger.Noticef(`wrote %d triangles to "%s"`, count, outFile)
	return nil
}
