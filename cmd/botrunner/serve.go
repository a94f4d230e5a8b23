package main

import (
	"context"
	stdErrors "errors"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/shopspring/decimal"
	"github.com/urfave/cli/v3"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/botruntime"
	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/db"
	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/exchange/binance"
	"github.com/rxtech-lab/argo-bots/internal/exchange/paper"
	"github.com/rxtech-lab/argo-bots/internal/handler"
	"github.com/rxtech-lab/argo-bots/internal/health"
	"github.com/rxtech-lab/argo-bots/internal/ledger"
	"github.com/rxtech-lab/argo-bots/internal/ledger/archive"
	"github.com/rxtech-lab/argo-bots/internal/lock"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/scheduler"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/internal/version"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

const shutdownTimeout = 30 * time.Second

func serveCommand() *cli.Command {
	return &cli.Command{
		Name:   "serve",
		Usage:  "Run the scheduler and the HTTP API until interrupted",
		Action: serveAction,
	}
}

func serveAction(ctx context.Context, cmd *cli.Command) error {
	a, err := bootstrap(cmd, false)
	if err != nil {
		return err
	}
	defer a.close()

	cfg := a.cfg
	log := a.log

	log.Info("starting botrunner", zap.String("version", version.GetVersion()))

	credVault, err := vault.New(a.repo, cfg.EncryptionKey, cfg.EncryptionPrevKey)
	if err != nil {
		return err
	}

	paperEx, err := newPaperExchange(cfg.Exchange.Paper)
	if err != nil {
		return err
	}

	registry := exchange.NewRegistry()
	paper.Register(registry, paperEx)
	binance.Register(registry, cfg.Exchange.Binance)

	var (
		ledgerOpts []ledger.Option
		volumes    handler.DailyVolumeReader
	)

	if cfg.Archive.Dir != "" {
		arch, err := archive.Open(cfg.Archive.Dir)
		if err != nil {
			return err
		}

		defer func() {
			if err := arch.Close(); err != nil {
				log.Warn("failed to close trade archive", zap.Error(err))
			}
		}()

		ledgerOpts = append(ledgerOpts, ledger.WithSink(arch))
		volumes = arch
	}

	tradeLedger := ledger.New(a.repo, log, ledgerOpts...)
	monitor := health.NewMonitor(a.repo, cfg.Health, log)

	locker := lock.Chain{lock.NewLocalLocker()}

	if cfg.Redis.Addr != "" {
		redisClient := lock.NewRedisClient(cfg.Redis)
		defer redisClient.Close()

		locker = append(locker, lock.NewRedisLocker(redisClient, log))
	}

	deps := botruntime.Deps{
		Registry:           registry,
		Credentials:        credVault,
		Ledger:             tradeLedger,
		Bots:               a.repo,
		Resilience:         exchange.DefaultResilienceConfig(cfg.AdapterTimeout, cfg.AdapterMaxRetries),
		InitBackoffInitial: cfg.InitBackoffInitial,
		InitBackoffMax:     cfg.InitBackoffMax,
		NewRand:            nil,
		Now:                time.Now,
		Log:                log,
	}

	sched := scheduler.New(a.repo, monitor, func(bot models.Bot) scheduler.Runtime {
		return botruntime.New(bot, deps)
	}, scheduler.Options{
		Interval:      cfg.SchedulerInterval,
		MaxConcurrent: cfg.MaxConcurrentTicks,
		LeaseTTL:      cfg.Redis.LeaseTTL,
		Locker:        locker,
		Now:           time.Now,
	}, log)

	var ping func(ctx context.Context) error
	if a.db != nil {
		ping = func(ctx context.Context) error { return db.Ping(ctx, a.db) }
	}

	engine := handler.NewEngine(log, cfg.Log.Development,
		&handler.HealthHandler{Ping: ping},
		&handler.StrategyHandler{},
		&handler.BotHandler{
			Repo:    a.repo,
			Health:  monitor,
			Checker: sched,
			Stats:   tradeLedger,
			Archive: volumes,
		},
	)

	srv := &http.Server{
		Addr:              cfg.Server.HTTPAddr,
		Handler:           engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.Exchange.Paper.Volatility > 0 {
		walker := paper.NewWalker(paperEx, paper.WalkConfig{
			Volatility: cfg.Exchange.Paper.Volatility,
			Trend:      cfg.Exchange.Paper.Trend,
			Interval:   cfg.Exchange.Paper.WalkInterval,
			Seed:       0,
		}, log)

		go walker.Run(sigCtx)
	}

	// Ticks run on a context that outlives the signal so in-flight exchange
	// calls finish before shutdown.
	if err := sched.Start(context.Background()); err != nil {
		return err
	}

	serveErr := make(chan error, 1)

	go func() {
		log.Info("http server listening", zap.String("addr", srv.Addr))

		if err := srv.ListenAndServe(); err != nil && !stdErrors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
	}()

	var runErr error

	select {
	case <-sigCtx.Done():
		log.Info("shutdown signal received")
	case err := <-serveErr:
		runErr = errors.Wrap(errors.ErrCodeUnknown, "http server failed", err)
		log.Error("http server failed", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown failed", zap.Error(err))
	}

	sched.Stop(shutdownCtx)

	return runErr
}

// newPaperExchange seeds the simulated exchange from config.
func newPaperExchange(cfg config.PaperConfig) (*paper.Exchange, error) {
	ex := paper.NewExchange()

	for _, m := range cfg.Markets {
		pair, err := types.ParsePair(m.Pair)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidConfiguration, "invalid paper market", err)
		}

		ex.SetPrice(pair, decimal.NewFromFloat(m.Mid))

		if m.MinAmount > 0 {
			ex.SetMinOrderAmount(pair, decimal.NewFromFloat(m.MinAmount))
		}
	}

	for asset, free := range cfg.Balances {
		ex.SetBalance(strings.ToUpper(asset), decimal.NewFromFloat(free))
	}

	return ex, nil
}
