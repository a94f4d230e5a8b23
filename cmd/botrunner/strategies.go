package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-bots/internal/strategy"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

func strategiesCommand() *cli.Command {
	return &cli.Command{
		Name:  "strategies",
		Usage: "Inspect the supported strategies",
		Commands: []*cli.Command{
			{
				Name:  "list",
				Usage: "Print the supported strategy kinds",
				Action: func(_ context.Context, cmd *cli.Command) error {
					for _, kind := range strategy.Kinds() {
						fmt.Fprintln(cmd.Root().Writer, kind)
					}

					return nil
				},
			},
			{
				Name:  "schema",
				Usage: "Print the JSON schema of a strategy's configuration",
				Flags: []cli.Flag{
					&cli.StringFlag{
						Name:     "kind",
						Aliases:  []string{"k"},
						Usage:    "Strategy kind (volume or spread)",
						Required: true,
					},
				},
				Action: strategiesSchemaAction,
			},
		},
	}
}

func strategiesSchemaAction(_ context.Context, cmd *cli.Command) error {
	kind := types.StrategyKind(strings.ToLower(strings.TrimSpace(cmd.String("kind"))))

	schema, err := strategy.ConfigSchemaJSON(kind)
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.Root().Writer, schema)

	return nil
}
