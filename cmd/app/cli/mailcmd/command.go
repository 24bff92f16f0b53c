package mailcmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/urfave/cli/v2"
	"go.uber.org/fx"

	cliapp "onegov.dev/electionday/cmd/app/cli"
	"onegov.dev/electionday/internal/mailqueue"
	"onegov.dev/electionday/internal/service"
)

type CommandDeps struct {
	fx.In

	MailService *service.Mail
}

func Command() *cli.Command {
	limit := &cli.IntFlag{
		Name:  "limit",
		Usage: "deliver at most this many mails per run, 0 delivers all",
	}

	return &cli.Command{
		Name:  "mail",
		Usage: "deliver queued mails",
		Subcommands: []*cli.Command{
			{
				Name:  "deliver",
				Usage: "deliver the queued mails once",
				Flags: []cli.Flag{limit},
				Action: func(c *cli.Context) error {
					return cliapp.Run(c.Context, func(ctx context.Context, deps CommandDeps) error {
						deliver(ctx, deps.MailService, c.Int("limit"))
						return nil
					})
				},
			},
			{
				Name:  "watch",
				Usage: "deliver mails whenever new ones are queued, until interrupted",
				Flags: []cli.Flag{
					limit,
					&cli.DurationFlag{
						Name:  "debounce",
						Usage: "wait for the queue to settle this long before delivering",
						Value: time.Second * 2,
					},
				},
				Action: func(c *cli.Context) error {
					ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
					defer stop()

					return cliapp.Run(ctx, func(ctx context.Context, deps CommandDeps) error {
						log.Info().
							Str("evt.name", "mail.watch.started").
							Str("dir", deps.MailService.Queue.Dir).
							Msg("watching mail queue")

						return mailqueue.Watch(ctx, deps.MailService.Queue.Dir, c.Duration("debounce"), func(ctx context.Context) {
							deliver(ctx, deps.MailService, c.Int("limit"))
						})
					})
				},
			},
		},
	}
}

func deliver(ctx context.Context, mail *service.Mail, limit int) {
	result, err := mail.Deliver(ctx, limit)
	if err != nil {
		log.Error().
			Str("evt.name", "mail.deliver.failed").
			Err(err).
			Msg("failed to deliver queued mails")
		return
	}

	log.Info().
		Str("evt.name", "mail.deliver.finished").
		Int("sent", result.Sent).
		Int("failed", result.Failed).
		Msg("queued mails delivered")
}
