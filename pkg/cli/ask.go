package cli

import (
	"context"
	"fmt"

	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"
)

func askCommand() *cli.Command {
	var cfg config

	flags := globalFlags(&cfg)
	flags = append(flags, chromaFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)

	return &cli.Command{
		Name:      "ask",
		Usage:     "Ask a single question about the course materials",
		ArgsUsage: "<question>",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			question := c.Args().First()
			if question == "" {
				return goerr.New("question is required")
			}

			session, err := cfg.newSession(ctx, "")
			if err != nil {
				return err
			}

			answer, err := session.Ask(ctx, question)
			if err != nil {
				return goerr.Wrap(err, "failed to answer question")
			}

			fmt.Fprintf(c.Root().Writer, "%s\n", answer.Text)
			if len(answer.Citations) > 0 {
				fmt.Fprintf(c.Root().Writer, "\nSources:\n")
				for _, citation := range answer.Citations {
					if citation.Link != "" {
						fmt.Fprintf(c.Root().Writer, "  - %s (%s)\n", citation.Label, citation.Link)
					} else {
						fmt.Fprintf(c.Root().Writer, "  - %s\n", citation.Label)
					}
				}
			}

			return nil
		},
	}
}
