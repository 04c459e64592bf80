package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/briandowns/spinner"
	"github.com/chzyer/readline"
	"github.com/m-mizutani/goerr/v2"
	"github.com/urfave/cli/v3"

	"github.com/arunse/coursechat/pkg/utils/logging"
)

func chatCommand() *cli.Command {
	var (
		cfg            config
		conversationID string
	)

	flags := []cli.Flag{
		&cli.StringFlag{
			Name:        "conversation-id",
			Aliases:     []string{"c"},
			Usage:       "Conversation ID to resume",
			Sources:     cli.EnvVars("COURSECHAT_CONVERSATION_ID"),
			Destination: &conversationID,
		},
	}
	flags = append(flags, globalFlags(&cfg)...)
	flags = append(flags, chromaFlags(&cfg)...)
	flags = append(flags, llmFlags(&cfg)...)
	flags = append(flags, repoFlags(&cfg)...)

	return &cli.Command{
		Name:  "chat",
		Usage: "Interactive question answering over the course materials",
		Flags: flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg.setupLogger()

			session, err := cfg.newSession(ctx, conversationID)
			if err != nil {
				return err
			}

			rl, err := readline.New("> ")
			if err != nil {
				return goerr.Wrap(err, "failed to initialize prompt")
			}
			defer rl.Close()

			fmt.Fprintf(c.Root().Writer, "Chat session started (conversation %s). Type 'exit' to quit.\n",
				session.ConversationID())

			for {
				line, err := rl.Readline()
				if err != nil {
					if errors.Is(err, readline.ErrInterrupt) || errors.Is(err, io.EOF) {
						break
					}
					return goerr.Wrap(err, "failed to read input")
				}

				if line == "exit" {
					break
				}
				if line == "" {
					continue
				}

				sp := spinner.New(spinner.CharSets[14], 100*time.Millisecond)
				sp.Start()
				answer, err := session.Ask(ctx, line)
				sp.Stop()
				if err != nil {
					logging.From(ctx).Error("failed to answer question", "error", err)
					continue
				}

				fmt.Fprintf(c.Root().Writer, "%s\n", answer.Text)
				for _, citation := range answer.Citations {
					if citation.Link != "" {
						fmt.Fprintf(c.Root().Writer, "  [%s] %s\n", citation.Label, citation.Link)
					} else {
						fmt.Fprintf(c.Root().Writer, "  [%s]\n", citation.Label)
					}
				}
			}

			fmt.Fprintf(c.Root().Writer, "\nChat session completed\n")
			return nil
		},
	}
}
