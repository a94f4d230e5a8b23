// Package botruntime executes strategy ticks for a single bot. A Runtime owns
// the bot's live exchange adapter and the strategy state carried between
// ticks. It is not safe for concurrent use; the scheduler serializes ticks.
package botruntime

import (
	"context"
	"hash/fnv"
	"math/rand/v2"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/ledger"
	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/strategy"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Skip reasons reported in TickOutcome.Skipped.
const (
	SkipInitBackoff  = "init_backoff"
	SkipWaiting      = "waiting"
	SkipDailyCap     = "daily_cap_reached"
	SkipBelowMinimum = "below_min_amount"
	SkipIdle         = "idle"
)

// CredentialSource decrypts exchange credentials. *vault.Vault implements it.
type CredentialSource interface {
	Retrieve(ctx context.Context, clientID, exchange string) (vault.SecretMaterial, error)
}

// Deps are the shared services every runtime uses.
type Deps struct {
	Registry    *exchange.Registry
	Credentials CredentialSource
	Ledger      *ledger.Ledger
	Bots        repository.BotRepository
	Resilience  exchange.ResilienceConfig

	InitBackoffInitial time.Duration
	InitBackoffMax     time.Duration

	// NewRand returns the randomness source of a bot. Defaults to a PCG
	// seeded from the clock and the bot id.
	NewRand func(botID string) strategy.Rand
	// Now defaults to time.Now.
	Now func() time.Time
	Log *logger.Logger
}

// TickOutcome is the result of one tick. Err carries the classified failure,
// if any; it never escapes as a panic.
type TickOutcome struct {
	Traded bool
	Trades []models.TradeLog
	Err    error
	// Skipped is set when the tick intentionally did nothing.
	Skipped string
	// LastTradeTime is the bot's last trade time after the tick.
	LastTradeTime *time.Time
}

// Runtime is the in-memory state of one running bot.
type Runtime struct {
	botID string
	deps  Deps
	log   *logger.Logger
	rnd   strategy.Rand

	adapter     exchange.Adapter
	initErr     error
	initBackoff *backoff.ExponentialBackOff
	retryAt     time.Time

	pair      types.Pair
	exchange  string
	clientID  string
	configRev int
	cfg       strategy.Config
	loaded    bool

	lastTradeTime *time.Time
	volume        strategy.VolumeState
	spread        strategy.SpreadState
}

// New creates the runtime for bot. No exchange call is made until the first tick.
func New(bot models.Bot, deps Deps) *Runtime {
	if deps.Now == nil {
		deps.Now = time.Now
	}

	if deps.Log == nil {
		deps.Log = logger.NewNop()
	}

	if deps.NewRand == nil {
		deps.NewRand = defaultRand
	}

	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = deps.InitBackoffInitial
	exp.MaxInterval = deps.InitBackoffMax
	exp.MaxElapsedTime = 0

	return &Runtime{
		botID:         bot.ID,
		deps:          deps,
		log:           deps.Log.Named("runtime").With(zap.String("bot_id", bot.ID)),
		rnd:           deps.NewRand(bot.ID),
		adapter:       nil,
		initErr:       nil,
		initBackoff:   exp,
		retryAt:       time.Time{},
		pair:          bot.Pair(),
		exchange:      bot.Exchange,
		clientID:      bot.ClientID,
		configRev:     0,
		cfg:           strategy.Config{},
		loaded:        false,
		lastTradeTime: bot.LastTradeTime,
		volume:        strategy.NewVolumeState(bot.LastTradeTime),
		spread:        strategy.NewSpreadState(),
	}
}

func defaultRand(botID string) strategy.Rand {
	h := fnv.New64a()
	_, _ = h.Write([]byte(botID))

	return rand.New(rand.NewPCG(uint64(time.Now().UnixNano()), h.Sum64()))
}

// BotID returns the id of the bot this runtime serves.
func (r *Runtime) BotID() string {
	return r.botID
}

// Ready reports whether a tick at now may run. It is false while a failed
// adapter initialization is backing off.
func (r *Runtime) Ready(now time.Time) bool {
	return r.adapter != nil || !now.Before(r.retryAt)
}

// RetryNow clears a pending init backoff so the next tick re-initializes.
func (r *Runtime) RetryNow() {
	r.retryAt = time.Time{}
}

// InitError returns the cached initialization failure, nil once initialized.
func (r *Runtime) InitError() error {
	return r.initErr
}

// ExpectedInterval is the longest gap between trades the strategy expects.
// Zero until the config has been loaded.
func (r *Runtime) ExpectedInterval() time.Duration {
	if !r.loaded {
		return 0
	}

	return r.cfg.ExpectedInterval()
}

// Tick runs one strategy step for bot. bot must be the latest registry row.
func (r *Runtime) Tick(ctx context.Context, bot models.Bot) TickOutcome {
	now := r.deps.Now()

	r.retarget(ctx, bot)

	if err := r.loadConfig(bot); err != nil {
		return r.finish(TickOutcome{Err: err})
	}

	if !r.Ready(now) {
		return r.finish(TickOutcome{Err: r.initErr, Skipped: SkipInitBackoff})
	}

	if err := r.ensureAdapter(ctx, bot, now); err != nil {
		return r.finish(TickOutcome{Err: err})
	}

	var outcome TickOutcome

	switch r.cfg.Kind {
	case types.StrategyVolume:
		outcome = r.tickVolume(ctx, now)
	case types.StrategySpread:
		outcome = r.tickSpread(ctx, now)
	default:
		outcome = TickOutcome{Err: errors.Newf(errors.ErrCodeUnsupportedStrategy, "unsupported strategy: %s", r.cfg.Kind)}
	}

	if errors.IsFatal(outcome.Err) {
		r.suspend(now, outcome.Err)
	}

	return r.finish(outcome)
}

func (r *Runtime) finish(outcome TickOutcome) TickOutcome {
	outcome.LastTradeTime = r.lastTradeTime

	return outcome
}

// retarget moves the runtime to the market of bot when its pair, exchange or
// client changed since the adapter was built. Quotes resting on the old market
// are cancelled and strategy state starts over.
func (r *Runtime) retarget(ctx context.Context, bot models.Bot) {
	if bot.Pair() == r.pair && bot.Exchange == r.exchange && bot.ClientID == r.clientID {
		return
	}

	r.log.Info("bot market changed",
		zap.String("from_exchange", r.exchange),
		zap.String("from_pair", r.pair.String()),
		zap.String("to_exchange", bot.Exchange),
		zap.String("to_pair", bot.Pair().String()),
	)

	if r.adapter != nil {
		if err := r.closeAdapter(ctx); err != nil {
			r.log.Warn("failed to close adapter of previous market", zap.Error(err))
		}
	}

	r.pair = bot.Pair()
	r.exchange = bot.Exchange
	r.clientID = bot.ClientID

	r.volume = strategy.NewVolumeState(r.lastTradeTime)
	r.spread = strategy.NewSpreadState()

	r.initErr = nil
	r.retryAt = time.Time{}
	r.initBackoff.Reset()
}

// loadConfig parses the strategy config when the bot is new or its config
// revision changed. Strategy state is reset only when the kind changes.
func (r *Runtime) loadConfig(bot models.Bot) error {
	if r.loaded && bot.ConfigRev == r.configRev && bot.StrategyKind == r.cfg.Kind {
		return nil
	}

	cfg, err := strategy.ParseConfig(bot.StrategyKind, bot.Config)
	if err != nil {
		return err
	}

	if r.loaded && cfg.Kind != r.cfg.Kind {
		r.volume = strategy.NewVolumeState(r.lastTradeTime)
		r.spread = strategy.NewSpreadState()
	}

	if r.loaded {
		r.log.Info("strategy config reloaded", zap.Int("config_rev", bot.ConfigRev))
	}

	r.cfg = cfg
	r.configRev = bot.ConfigRev
	r.loaded = true

	return nil
}

func (r *Runtime) ensureAdapter(ctx context.Context, bot models.Bot, now time.Time) error {
	if r.adapter != nil {
		return nil
	}

	initCtx := ctx
	if r.deps.Resilience.Timeout > 0 {
		var cancel context.CancelFunc
		initCtx, cancel = context.WithTimeout(ctx, r.deps.Resilience.Timeout)
		defer cancel()
	}

	adapter, err := r.initAdapter(initCtx, bot)
	if err != nil {
		r.suspend(now, err)

		return err
	}

	r.adapter = exchange.WithResilience(adapter, r.deps.Resilience, r.deps.Log)
	r.initErr = nil
	r.retryAt = time.Time{}
	r.initBackoff.Reset()

	r.log.Info("exchange adapter ready",
		zap.String("exchange", bot.Exchange),
		zap.String("pair", r.pair.String()),
	)

	return nil
}

func (r *Runtime) initAdapter(ctx context.Context, bot models.Bot) (exchange.Adapter, error) {
	secret, err := r.deps.Credentials.Retrieve(ctx, bot.ClientID, bot.Exchange)
	if err != nil {
		return nil, err
	}

	adapter, err := r.deps.Registry.New(ctx, bot.Exchange, secret, r.pair)
	if err != nil {
		if errors.GetCode(err) == errors.ErrCodeUnknown {
			return nil, errors.Wrapf(errors.ErrCodeNetworkError, err, "failed to initialize %s adapter", bot.Exchange)
		}

		return nil, err
	}

	return adapter, nil
}

// suspend drops the adapter and schedules the next initialization attempt.
func (r *Runtime) suspend(now time.Time, err error) {
	if r.adapter != nil {
		_ = r.closeAdapter(context.Background())
	}

	wait := r.initBackoff.NextBackOff()
	if wait == backoff.Stop {
		wait = r.deps.InitBackoffMax
	}

	r.initErr = err
	r.retryAt = now.Add(wait)

	r.log.Warn("bot suspended",
		zap.Int("code", int(errors.GetCode(err))),
		zap.String("kind", errors.KindOf(err).String()),
		zap.Duration("retry_in", wait),
		zap.Error(err),
	)
}

// Close cancels the bot's resting orders and releases the adapter.
func (r *Runtime) Close(ctx context.Context) error {
	if r.adapter == nil {
		return nil
	}

	return r.closeAdapter(ctx)
}

func (r *Runtime) closeAdapter(ctx context.Context) error {
	for _, o := range r.spread.OpenOrders {
		if _, err := r.adapter.CancelOrder(ctx, r.pair, o.ID); err != nil {
			r.log.Warn("failed to cancel order on shutdown", zap.String("order_id", o.ID), zap.Error(err))
		}
	}

	r.spread = strategy.NewSpreadState()

	err := r.adapter.Close()
	r.adapter = nil

	return err
}

// recordTrade appends trade to the ledger and advances last_trade_time. Only
// a ledger failure is returned.
func (r *Runtime) recordTrade(ctx context.Context, trade models.TradeLog) (models.TradeLog, error) {
	trade.BotID = r.botID

	if err := r.deps.Ledger.Append(ctx, &trade); err != nil {
		return trade, err
	}

	at := trade.CreatedAt
	r.lastTradeTime = &at

	// The trade is already in the ledger, so a failed update must not make
	// the caller retry it.
	if err := r.deps.Bots.UpdateBotLastTradeTime(ctx, r.botID, at); err != nil {
		r.log.Error("failed to update last trade time", zap.Time("at", at), zap.Error(err))
	}

	r.log.Info("trade recorded",
		zap.String("side", string(trade.Side)),
		zap.String("amount", trade.Amount.String()),
		zap.String("price", trade.Price.String()),
		zap.String("order_id", trade.OrderID),
	)

	return trade, nil
}
