package cli

import (
	"context"
	"fmt"

	"github.com/urfave/cli/v3"

	"github.com/arunse/coursechat/pkg/usecase/course"
)

func listCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, chromaFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:  "list",
		Usage: "List indexed courses",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			gemini, err := cfg.newGemini(ctx)
			if err != nil {
				return err
			}
			idx, err := cfg.newIndex(gemini)
			if err != nil {
				return err
			}

			analytics, err := course.List(ctx, idx)
			if err != nil {
				return err
			}

			fmt.Fprintf(c.Root().Writer, "Courses: %d\n", analytics.TotalCourses)
			for _, title := range analytics.CourseTitles {
				fmt.Fprintf(c.Root().Writer, "  - %s\n", title)
			}

			return nil
		},
	}
}
