package main

import (
	"context"
	"strings"

	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/vault"
)

func credentialsCommand() *cli.Command {
	target := []cli.Flag{
		&cli.StringFlag{
			Name:     "client",
			Usage:    "Client id owning the credential",
			Required: true,
		},
		&cli.StringFlag{
			Name:     "exchange",
			Usage:    "Exchange id, e.g. binance or binance-testnet",
			Required: true,
		},
	}

	return &cli.Command{
		Name:  "credentials",
		Usage: "Manage encrypted exchange credentials",
		Commands: []*cli.Command{
			{
				Name:  "set",
				Usage: "Encrypt and store an API key pair",
				Flags: append(append([]cli.Flag{}, target...),
					&cli.StringFlag{
						Name:     "api-key",
						Usage:    "Exchange API key",
						Sources:  cli.EnvVars("BOTS_API_KEY"),
						Required: true,
					},
					&cli.StringFlag{
						Name:     "api-secret",
						Usage:    "Exchange API secret",
						Sources:  cli.EnvVars("BOTS_API_SECRET"),
						Required: true,
					},
					&cli.StringFlag{
						Name:    "passphrase",
						Usage:   "Exchange API passphrase, if the exchange uses one",
						Sources: cli.EnvVars("BOTS_API_PASSPHRASE"),
					},
				),
				Action: credentialsSetAction,
			},
			{
				Name:   "rotate",
				Usage:  "Re-encrypt a stored credential under the current encryption key",
				Flags:  target,
				Action: credentialsRotateAction,
			},
		},
	}
}

func openVault(cmd *cli.Command) (*app, *vault.Vault, error) {
	a, err := bootstrap(cmd, true)
	if err != nil {
		return nil, nil, err
	}

	v, err := vault.New(a.repo, a.cfg.EncryptionKey, a.cfg.EncryptionPrevKey)
	if err != nil {
		a.close()

		return nil, nil, err
	}

	return a, v, nil
}

func credentialsSetAction(ctx context.Context, cmd *cli.Command) error {
	a, v, err := openVault(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	clientID := strings.TrimSpace(cmd.String("client"))
	exchangeID := strings.ToLower(strings.TrimSpace(cmd.String("exchange")))

	material := vault.SecretMaterial{
		APIKey:     cmd.String("api-key"),
		APISecret:  cmd.String("api-secret"),
		Passphrase: cmd.String("passphrase"),
	}

	if _, err := v.Store(ctx, clientID, exchangeID, material); err != nil {
		return err
	}

	a.log.Info("credential stored", zap.String("client_id", clientID), zap.String("exchange", exchangeID))

	return nil
}

func credentialsRotateAction(ctx context.Context, cmd *cli.Command) error {
	a, v, err := openVault(cmd)
	if err != nil {
		return err
	}
	defer a.close()

	clientID := strings.TrimSpace(cmd.String("client"))
	exchangeID := strings.ToLower(strings.TrimSpace(cmd.String("exchange")))

	if err := v.Rotate(ctx, clientID, exchangeID); err != nil {
		return err
	}

	a.log.Info("credential rotated", zap.String("client_id", clientID), zap.String("exchange", exchangeID))

	return nil
}
