// Package scheduler runs the cyclic loop that ticks every running bot with
// bounded concurrency and isolates failures between bots.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
	"golang.org/x/sync/semaphore"

	"github.com/rxtech-lab/argo-bots/internal/botruntime"
	"github.com/rxtech-lab/argo-bots/internal/health"
	"github.com/rxtech-lab/argo-bots/internal/lock"
	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Runtime is what the scheduler needs from a bot runtime.
type Runtime interface {
	Tick(ctx context.Context, bot models.Bot) botruntime.TickOutcome
	RetryNow()
	ExpectedInterval() time.Duration
	Close(ctx context.Context) error
}

// RuntimeFactory creates the runtime of a bot on its first tick.
type RuntimeFactory func(bot models.Bot) Runtime

// Options tune the scheduler.
type Options struct {
	Interval      time.Duration
	MaxConcurrent int
	// LeaseTTL bounds how long a crashed replica can hold a bot's lease.
	LeaseTTL time.Duration
	// Locker defaults to an in-process LocalLocker.
	Locker lock.Locker
	Now    func() time.Time
}

// Scheduler owns the runtimes of all running bots. It is the only component
// that creates or destroys them.
type Scheduler struct {
	bots     repository.BotRepository
	monitor  *health.Monitor
	factory  RuntimeFactory
	locker   lock.Locker
	sem      *semaphore.Weighted
	interval time.Duration
	leaseTTL time.Duration
	now      func() time.Time
	log      *logger.Logger

	mu       sync.Mutex
	runtimes map[string]Runtime

	cycleMu sync.Mutex
	cron    *cron.Cron
	started sync.WaitGroup
}

func New(bots repository.BotRepository, monitor *health.Monitor, factory RuntimeFactory, opts Options, log *logger.Logger) *Scheduler {
	if opts.MaxConcurrent <= 0 {
		opts.MaxConcurrent = 1
	}

	if opts.Locker == nil {
		opts.Locker = lock.NewLocalLocker()
	}

	if opts.Now == nil {
		opts.Now = time.Now
	}

	if opts.LeaseTTL <= 0 {
		opts.LeaseTTL = 2 * time.Minute
	}

	return &Scheduler{
		bots:     bots,
		monitor:  monitor,
		factory:  factory,
		locker:   opts.Locker,
		sem:      semaphore.NewWeighted(int64(opts.MaxConcurrent)),
		interval: opts.Interval,
		leaseTTL: opts.LeaseTTL,
		now:      opts.Now,
		log:      log.Named("scheduler"),
		mu:       sync.Mutex{},
		runtimes: make(map[string]Runtime),
		cycleMu:  sync.Mutex{},
		cron:     nil,
		started:  sync.WaitGroup{},
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start runs one cycle immediately and then one every interval. Cycles never
// overlap; a cycle that overruns the interval delays the next one.
func (s *Scheduler) Start(ctx context.Context) error {
	cl := cronLogger{log: s.log.Sugar()}
	s.cron = cron.New(cron.WithLogger(cl), cron.WithChain(cron.Recover(cl), cron.SkipIfStillRunning(cl)))

	if _, err := s.cron.AddFunc("@every "+s.interval.String(), func() { s.runCycle(ctx) }); err != nil {
		return errors.Wrap(errors.ErrCodeInvalidConfiguration, "failed to schedule cycle", err)
	}

	s.started.Add(1)

	go func() {
		defer s.started.Done()
		s.runCycle(ctx)
	}()

	s.cron.Start()
	s.log.Info("scheduler started", zap.Duration("interval", s.interval))

	return nil
}

// Stop waits for the in-flight cycle and closes every runtime.
func (s *Scheduler) Stop(ctx context.Context) {
	if s.cron != nil {
		<-s.cron.Stop().Done()
	}

	s.started.Wait()

	s.cycleMu.Lock()
	defer s.cycleMu.Unlock()

	s.mu.Lock()
	ids := make([]string, 0, len(s.runtimes))
	for id := range s.runtimes {
		ids = append(ids, id)
	}
	s.mu.Unlock()

	for _, id := range ids {
		s.teardown(ctx, id)
	}

	s.log.Info("scheduler stopped")
}

func (s *Scheduler) runCycle(ctx context.Context) {
	if !s.cycleMu.TryLock() {
		s.log.Warn("previous cycle still running, skipping")

		return
	}
	defer s.cycleMu.Unlock()

	if err := s.RunCycle(ctx); err != nil {
		s.log.Error("cycle failed", zap.Error(err))
	}
}

// ============================================================================
// Cycle
// ============================================================================

// RunCycle ticks every running bot once and tears down runtimes of bots that
// are no longer running. Per-bot failures never abort the cycle.
func (s *Scheduler) RunCycle(ctx context.Context) error {
	bots, err := s.bots.ListBotsByStatus(ctx, types.BotStatusRunning)
	if err != nil {
		return errors.Wrap(errors.ErrCodeQueryFailed, "failed to list running bots", err)
	}

	active := make(map[string]struct{}, len(bots))
	for _, bot := range bots {
		active[bot.ID] = struct{}{}
	}

	for _, id := range s.inactive(active) {
		s.teardown(ctx, id)
	}

	var wg sync.WaitGroup

	for _, bot := range bots {
		if err := s.sem.Acquire(ctx, 1); err != nil {
			break
		}

		wg.Add(1)

		go func(bot models.Bot) {
			defer wg.Done()
			defer s.sem.Release(1)

			if _, err := s.runBot(ctx, bot, false); err != nil && !errors.HasCode(err, errors.ErrCodeTickInProgress) {
				s.log.Warn("bot check failed", zap.String("bot_id", bot.ID), zap.Error(err))
			}
		}(bot)
	}

	wg.Wait()

	return ctx.Err()
}

// ForceCheck runs one tick and health evaluation for a running bot outside
// the cycle. A pending init backoff is skipped.
func (s *Scheduler) ForceCheck(ctx context.Context, botID string) (models.HealthRecord, error) {
	bot, err := s.bots.GetBot(ctx, botID)
	if err != nil {
		return models.HealthRecord{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load bot", err)
	}

	if bot == nil {
		return models.HealthRecord{}, errors.Newf(errors.ErrCodeDataNotFound, "bot %s not found", botID)
	}

	if bot.Status != types.BotStatusRunning {
		return models.HealthRecord{}, errors.Newf(errors.ErrCodeInvalidParameter, "bot %s is %s, not running", botID, bot.Status)
	}

	return s.runBot(ctx, *bot, true)
}

// ActiveRuntimes returns the number of live runtimes.
func (s *Scheduler) ActiveRuntimes() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.runtimes)
}

func (s *Scheduler) runBot(ctx context.Context, bot models.Bot, force bool) (models.HealthRecord, error) {
	release, ok, err := s.locker.TryLock(ctx, bot.ID, s.leaseTTL)
	if err != nil {
		return models.HealthRecord{}, err
	}

	if !ok {
		return models.HealthRecord{}, errors.Newf(errors.ErrCodeTickInProgress, "bot %s is already being ticked", bot.ID)
	}
	defer release()

	rt := s.runtime(bot)
	if force {
		rt.RetryNow()
	}

	at := s.now()
	outcome := s.safeTick(ctx, rt, bot)

	if outcome.Skipped != botruntime.SkipInitBackoff {
		s.monitor.Observe(bot.ID, health.Observation{At: at, Err: outcome.Err})
		s.logOutcome(bot, outcome)
	}

	if outcome.LastTradeTime != nil {
		bot.LastTradeTime = outcome.LastTradeTime
	}

	return s.monitor.Evaluate(ctx, bot, rt.ExpectedInterval(), s.now())
}

func (s *Scheduler) safeTick(ctx context.Context, rt Runtime, bot models.Bot) (outcome botruntime.TickOutcome) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("tick panicked",
				zap.String("bot_id", bot.ID),
				zap.Any("panic", r),
				zap.Stack("stack"),
			)

			outcome = botruntime.TickOutcome{
				Err: errors.Newf(errors.ErrCodeStrategyRuntimeError, "tick panicked: %v", r),
			}
		}
	}()

	return rt.Tick(ctx, bot)
}

func (s *Scheduler) logOutcome(bot models.Bot, outcome botruntime.TickOutcome) {
	fields := []zap.Field{
		zap.String("bot_id", bot.ID),
		zap.String("strategy", string(bot.StrategyKind)),
	}

	if outcome.Err == nil {
		if outcome.Traded {
			s.log.Info("tick traded", append(fields, zap.Int("trades", len(outcome.Trades)))...)
		} else {
			s.log.Debug("tick completed", append(fields, zap.String("skipped", outcome.Skipped))...)
		}

		return
	}

	fields = append(fields,
		zap.Int("code", int(errors.GetCode(outcome.Err))),
		zap.String("kind", errors.KindOf(outcome.Err).String()),
		zap.Error(outcome.Err),
	)

	switch errors.KindOf(outcome.Err) {
	case errors.KindTransient:
		s.log.Warn("tick failed", fields...)
	case errors.KindBusiness:
		s.log.Info("tick skipped", fields...)
	default:
		s.log.Error("tick failed", fields...)
	}
}

// ============================================================================
// Runtime map
// ============================================================================

func (s *Scheduler) runtime(bot models.Bot) Runtime {
	s.mu.Lock()
	defer s.mu.Unlock()

	rt, ok := s.runtimes[bot.ID]
	if !ok {
		rt = s.factory(bot)
		s.runtimes[bot.ID] = rt
		s.log.Info("runtime created", zap.String("bot_id", bot.ID))
	}

	return rt
}

func (s *Scheduler) inactive(active map[string]struct{}) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var ids []string

	for id := range s.runtimes {
		if _, ok := active[id]; !ok {
			ids = append(ids, id)
		}
	}

	return ids
}

// teardown closes the runtime of botID once no tick holds its lease.
func (s *Scheduler) teardown(ctx context.Context, botID string) {
	release, ok, err := s.locker.TryLock(ctx, botID, s.leaseTTL)
	if err != nil || !ok {
		s.log.Debug("teardown deferred, bot is busy", zap.String("bot_id", botID), zap.Error(err))

		return
	}
	defer release()

	s.mu.Lock()
	rt, exists := s.runtimes[botID]
	delete(s.runtimes, botID)
	s.mu.Unlock()

	if !exists {
		return
	}

	if err := rt.Close(ctx); err != nil {
		s.log.Warn("failed to close runtime", zap.String("bot_id", botID), zap.Error(err))
	}

	s.monitor.Forget(botID)
	s.log.Info("runtime torn down", zap.String("bot_id", botID))
}

// cronLogger routes cron's own messages through zap.
type cronLogger struct {
	log *zap.SugaredLogger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Errorw(msg, append(keysAndValues, "error", err)...)
}
