package main

import (
	"context"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/seed"
)

func botsCommand() *cli.Command {
	return &cli.Command{
		Name:  "bots",
		Usage: "Manage bot definitions",
		Commands: []*cli.Command{
			{
				Name:  "import",
				Usage: "Create or update bots from a YAML seed file",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "file",
						Aliases:  []string{"f"},
						Usage:    "Path to the seed file",
						Required: true,
					},
				},
				Action: botsImportAction,
			},
		},
	}
}

func botsImportAction(ctx context.Context, cmd *cli.Command) error {
	a, err := bootstrap(cmd, true)
	if err != nil {
		return err
	}
	defer a.close()

	res, err := seed.NewImporter(a.repo, a.log).ImportFile(ctx, cmd.String("file"))
	if err != nil {
		return err
	}

	a.log.Info("bots imported",
		zap.Strings("created", res.Created),
		zap.Strings("updated", res.Updated),
		zap.Strings("unchanged", res.Unchanged),
	)

	return nil
}
