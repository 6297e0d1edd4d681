package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/urfave/cli"

	"github.com/kperelygin/lumen/bvh"
	"github.com/kperelygin/lumen/io"
	"github.com/kperelygin/lumen/types"
)

// Cast a single ray through a compiled BVH and report the nearest hit.
func Trace(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected a single compiled BVH file")
	}

	origin, err := parseVec3(ctx.String("origin"))
	if err != nil {
		return fmt.Errorf("invalid ray origin: %s", err.Error())
	}
	dir, err := parseVec3(ctx.String("dir"))
	if err != nil {
		return fmt.Errorf("invalid ray direction: %s", err.Error())
	}

	tree, err := io.ReadTreeFile(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return err
	}

	hit, ok := tree.Intersect(bvh.NewRay(origin, dir))
	if !ok {
		fmt.Println("miss")
		return nil
	}

	face := "front"
	if hit.BackFace {
		face = "back"
	}
	fmt.Printf(
		"hit triangle %d (source %d) at distance %f (%s face)\nbarycentric: u=%f v=%f\nnormal: %v\n",
		hit.Triangle, tree.SourceIndex[hit.Triangle], hit.Distance, face,
		hit.U, hit.V, hit.Normal.Normalize(),
	)
	return nil
}

// Parse a comma-separated coordinate triplet.
func parseVec3(in string) (types.Vec3, error) {
	fields := strings.Split(in, ",")
	if len(fields) != 3 {
		return types.Vec3{}, fmt.Errorf("expected 3 comma-separated values; got %d", len(fields))
	}

	var out types.Vec3
	for i, field := range fields {
		val, err := strconv.ParseFloat(strings.TrimSpace(field), 32)
		if err != nil {
			return types.Vec3{}, err
		}
		out[i] = float32(val)
	}
	return out, nil
}
