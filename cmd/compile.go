package cmd

import (
	"fmt"
	"strings"

	"github.com/urfave/cli"

	"github.com/kperelygin/lumen/bvh"
	"github.com/kperelygin/lumen/io"
)

// Compile a triangle soup into a flat BVH and write it next to the input.
func Compile(ctx *cli.Context) error {
	setupLogging(ctx)

	if ctx.NArg() == 0 {
		return fmt.Errorf("no triangle soup file specified")
	}

	opts := bvh.Options{
		LeafSize: ctx.Int("leaf-size"),
		BinCount: ctx.Int("bins"),
		MaxDepth: ctx.Int("max-depth"),
	}

	for idx := 0; idx < ctx.NArg(); idx++ {
		soupFile := ctx.Args().Get(idx)
		triangles, err := io.ReadSoupFile(soupFile)
		if err != nil {
			logger.Error(err)
			return err
		}

		tree := bvh.Build(triangles, opts)

		outFile := ctx.String("out")
		if outFile == "" || ctx.NArg() > 1 {
			outFile = strings.TrimSuffix(soupFile, ".tri") + ".lbvh"
		}
		if err = io.WriteTreeFile(outFile, tree); err != nil {
			logger.Error(err)
			return err
		}

		fmt.Println(tree.Stats.String())
		fmt.Println(tree.SizeStats())
	}

	return nil
}
