package main

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"

	"github.com/rxtech-lab/argo-bots/internal/version"
)

func newApp() *cli.Command {
	return &cli.Command{
		Name:    "botrunner",
		Usage:   "Run and operate volume and spread trading bots",
		Version: version.GetVersion(),
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Usage:   "Path to the YAML config file",
				Value:   "config/config.yaml",
				Sources: cli.EnvVars("BOTS_CONFIG"),
			},
			&cli.BoolFlag{
				Name:    "env-only",
				Usage:   "Read configuration from BOTS_* environment variables only",
				Sources: cli.EnvVars("BOTS_ENV_ONLY"),
			},
		},
		Commands: []*cli.Command{
			serveCommand(),
			credentialsCommand(),
			botsCommand(),
			strategiesCommand(),
		},
		Action: serveAction,
	}
}

func main() {
	if err := newApp().Run(context.Background(), os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
