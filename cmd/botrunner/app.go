package main

import (
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/db"
	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	gormrepository "github.com/rxtech-lab/argo-bots/internal/repository/gorm"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// app holds what every command that touches state needs.
type app struct {
	cfg  config.Config
	log  *logger.Logger
	db   *db.DB
	repo repository.Repository
}

// bootstrap loads the config, builds the logger and opens the store. With
// an empty db.dsn the store is in memory unless requireDB is set.
func bootstrap(cmd *cli.Command, requireDB bool) (*app, error) {
	cfg, err := config.Load(cmd.String("config"), cmd.Bool("env-only"))
	if err != nil {
		return nil, err
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to build logger", err)
	}

	a := &app{cfg: cfg, log: log, db: nil, repo: nil}

	if cfg.DB.DSN == "" {
		if requireDB {
			return nil, errors.New(errors.ErrCodeMissingParameter, "db.dsn is required for this command")
		}

		log.Warn("db.dsn is empty, using the in-memory store; nothing will survive a restart")
		a.repo = repository.NewMemoryRepository()

		return a, nil
	}

	dbConn, err := db.Open(cfg.DB)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "db open failed", err)
	}

	if err := db.SetTimezone(dbConn, cfg.DB.Timezone); err != nil {
		log.Warn("failed to set timezone", zap.Error(err))
	}

	if err := db.AutoMigrate(dbConn); err != nil {
		_ = db.Close(dbConn)

		return nil, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "auto-migrate failed", err)
	}

	a.db = dbConn
	a.repo = gormrepository.New(dbConn.Gorm)

	return a, nil
}

func (a *app) close() {
	if err := db.Close(a.db); err != nil {
		a.log.Warn("failed to close db", zap.Error(err))
	}

	_ = a.log.Sync()
}
