package main

import (
	"context"
	"fmt"
	"go/format"
	"log"
	"os"
	"time"

	"github.com/delaneyj/kvo/cmd/codegen/templates"
	"github.com/urfave/cli/v3"
)

const (
	outputKey            = "out"
	genericParamCountKey = "count"
)

func main() {
	cmd := &cli.Command{
		Name:  "generate",
		Usage: "Generate typed Computed helpers for kvo",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  outputKey,
				Usage: "File to write",
				Value: "kvo/computed_gen.go",
			},
			&cli.UintFlag{
				Name:  genericParamCountKey,
				Usage: "Number of generic parameters to generate",
				Value: 4,
			},
		},
		Action: generate,
	}
	if err := cmd.Run(context.Background(), os.Args); err != nil {
		log.Fatal(err)
	}
}

func generate(ctx context.Context, cmd *cli.Command) error {
	start := time.Now()
	log.Printf("Codegen for kvo started !")
	defer func() {
		log.Printf("Codegen for kvo finished in %v", time.Since(start))
	}()

	count := int(cmd.Uint(genericParamCountKey))
	if count < 1 {
		return fmt.Errorf("count must be at least 1, got %d", count)
	}

	src, err := format.Source([]byte(templates.ComputedGen(count)))
	if err != nil {
		return fmt.Errorf("formatting generated code: %w", err)
	}
	return os.WriteFile(cmd.String(outputKey), src, 0644)
}
