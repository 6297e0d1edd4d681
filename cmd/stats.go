package cmd

import (
	"fmt"

	"github.com/urfave/cli"

	"github.com/kperelygin/lumen/bvh"
	"github.com/kperelygin/lumen/io"
)

// Print structural statistics and buffer sizes for a compiled BVH file.
// Evaluator counters and build timings are not persisted and show as zero.
func Stats(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() != 1 {
		return fmt.Errorf("expected a single compiled BVH file")
	}

	tree, err := io.ReadTreeFile(ctx.Args().First())
	if err != nil {
		logger.Error(err)
		return err
	}

	tree.Stats = bvh.Summarize(tree)
	fmt.Println(tree.Stats.String())
	fmt.Println(tree.SizeStats())
	return nil
}
