package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/arunse/coursechat/pkg/usecase/course"
)

func loadCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, chromaFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "load",
		Usage:     "Ingest course documents into the index",
		ArgsUsage: "<course.yml> [<course.yml> ...]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			paths := c.Args().Slice()
			if len(paths) == 0 {
				return goerr.New("at least one course file is required")
			}

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			idx, err := cfg.newIndex(gemini)
			if err != nil {
				return err
			}

			result, err := course.Load(ctx, idx, paths)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Loaded %d courses (%d chunks), skipped %d already ingested\n",
				result.CoursesAdded, result.ChunksAdded, result.Skipped)
			return nil
		},
	}
}
