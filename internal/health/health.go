// Package health derives bot health from tick outcomes and trade history.
// It is the only writer of a bot's health_status.
package health

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Observation is the outcome of one tick as seen by the monitor.
type Observation struct {
	At time.Time
	// Err is nil when the tick completed. Business errors count as completed.
	Err error
}

// Inputs is everything Derive needs for one bot.
type Inputs struct {
	Now                 time.Time
	FirstSeen           time.Time
	LastSuccessfulTick  optional.Option[time.Time]
	LastTradeTime       optional.Option[time.Time]
	ExpectedInterval    time.Duration
	ConsecutiveFailures int
	LastError           error
	Fatal               error
	StaleMultiplier     float64
	FailureThreshold    int
}

// Derive applies the health rules in priority order: fatal errors and
// repeated failures are errors, a bot without a trade inside the tolerance
// window is stale, a bot with a recent successful tick is healthy.
func Derive(in Inputs) (types.HealthStatus, string) {
	if in.Fatal != nil {
		return types.HealthError, "fatal: " + in.Fatal.Error()
	}

	if in.FailureThreshold > 0 && in.ConsecutiveFailures >= in.FailureThreshold {
		msg := fmt.Sprintf("%d consecutive failed ticks", in.ConsecutiveFailures)
		if in.LastError != nil {
			msg += ": " + in.LastError.Error()
		}

		return types.HealthError, msg
	}

	window := time.Duration(in.StaleMultiplier * float64(in.ExpectedInterval))

	reference := in.FirstSeen
	if in.LastTradeTime.IsSome() {
		reference = in.LastTradeTime.Unwrap()
	}

	if window > 0 && !reference.IsZero() && in.Now.Sub(reference) > window {
		if in.LastTradeTime.IsNone() {
			return types.HealthStale, fmt.Sprintf("no trade in %s since start", window)
		}

		return types.HealthStale, fmt.Sprintf("no trade since %s", in.LastTradeTime.Unwrap().UTC().Format(time.RFC3339))
	}

	if in.LastSuccessfulTick.IsSome() && (window <= 0 || in.Now.Sub(in.LastSuccessfulTick.Unwrap()) <= window) {
		msg := "ok"
		switch {
		case in.LastError == nil:
		case errors.IsBusiness(in.LastError):
			msg = "ok, last tick skipped: " + in.LastError.Error()
		default:
			msg = "ok, last tick failed: " + in.LastError.Error()
		}

		return types.HealthHealthy, msg
	}

	if in.LastError != nil {
		return types.HealthUnknown, "no successful tick yet: " + in.LastError.Error()
	}

	return types.HealthUnknown, "no successful tick yet"
}

type botState struct {
	firstSeen           time.Time
	lastSuccess         optional.Option[time.Time]
	consecutiveFailures int
	lastErr             error
	fatal               error
}

// Monitor tracks tick outcomes per bot and persists health evaluations.
type Monitor struct {
	repo             repository.Repository
	log              *logger.Logger
	staleMultiplier  float64
	failureThreshold int

	mu     sync.Mutex
	states map[string]*botState
}

func NewMonitor(repo repository.Repository, cfg config.HealthConfig, log *logger.Logger) *Monitor {
	return &Monitor{
		repo:             repo,
		log:              log.Named("health"),
		staleMultiplier:  cfg.StaleMultiplier,
		failureThreshold: cfg.FailureThreshold,
		mu:               sync.Mutex{},
		states:           make(map[string]*botState),
	}
}

func (m *Monitor) state(botID string, now time.Time) *botState {
	st, ok := m.states[botID]
	if !ok {
		st = &botState{
			firstSeen:           now,
			lastSuccess:         optional.None[time.Time](),
			consecutiveFailures: 0,
			lastErr:             nil,
			fatal:               nil,
		}
		m.states[botID] = st
	}

	return st
}

// Observe records the outcome of a tick.
func (m *Monitor) Observe(botID string, obs Observation) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(botID, obs.At)

	if obs.Err == nil {
		st.lastSuccess = optional.Some(obs.At)
		st.consecutiveFailures = 0
		st.lastErr = nil
		st.fatal = nil

		return
	}

	st.lastErr = obs.Err

	switch errors.KindOf(obs.Err) {
	case errors.KindFatal:
		st.fatal = obs.Err
	case errors.KindBusiness:
		st.lastSuccess = optional.Some(obs.At)
		st.consecutiveFailures = 0
		st.fatal = nil
	default:
		st.consecutiveFailures++
	}
}

func fromPtr(t *time.Time) optional.Option[time.Time] {
	if t == nil {
		return optional.None[time.Time]()
	}

	return optional.Some(*t)
}

// Forget drops the in-memory state of a bot that stopped running.
func (m *Monitor) Forget(botID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.states, botID)
}

// Inputs snapshots the monitor's view of bot at now.
func (m *Monitor) Inputs(bot models.Bot, expected time.Duration, now time.Time) Inputs {
	m.mu.Lock()
	defer m.mu.Unlock()

	st := m.state(bot.ID, now)

	return Inputs{
		Now:                 now,
		FirstSeen:           st.firstSeen,
		LastSuccessfulTick:  st.lastSuccess,
		LastTradeTime:       fromPtr(bot.LastTradeTime),
		ExpectedInterval:    expected,
		ConsecutiveFailures: st.consecutiveFailures,
		LastError:           st.lastErr,
		Fatal:               st.fatal,
		StaleMultiplier:     m.staleMultiplier,
		FailureThreshold:    m.failureThreshold,
	}
}

// Evaluate derives the bot's health, appends a HealthRecord and writes the
// bot's health_status. Operational status is never touched.
func (m *Monitor) Evaluate(ctx context.Context, bot models.Bot, expected time.Duration, now time.Time) (models.HealthRecord, error) {
	status, message := Derive(m.Inputs(bot, expected, now))

	record := models.HealthRecord{
		BotID:     bot.ID,
		Status:    status,
		Message:   message,
		CheckID:   uuid.NewString(),
		CreatedAt: now.UTC(),
	}

	if err := m.repo.InsertHealthRecord(ctx, &record); err != nil {
		return models.HealthRecord{}, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to append health record", err)
	}

	if bot.HealthStatus != status {
		if err := m.repo.UpdateBotHealthStatus(ctx, bot.ID, status); err != nil {
			return record, errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to update health status", err)
		}

		m.log.Info("bot health changed",
			zap.String("bot_id", bot.ID),
			zap.String("from", string(bot.HealthStatus)),
			zap.String("to", string(status)),
			zap.String("message", message),
		)
	}

	return record, nil
}

// SummaryItem is one row of the health summary.
type SummaryItem struct {
	BotID         string             `json:"bot_id"`
	Status        types.BotStatus    `json:"status"`
	HealthStatus  types.HealthStatus `json:"health_status"`
	LastTradeTime *time.Time         `json:"last_trade_time"`
	Message       string             `json:"message"`
	CheckedAt     *time.Time         `json:"checked_at,omitempty"`
}

// Summary lists every bot with its latest health evaluation.
func (m *Monitor) Summary(ctx context.Context) ([]SummaryItem, error) {
	bots, err := m.repo.ListBots(ctx)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list bots", err)
	}

	items := make([]SummaryItem, 0, len(bots))

	for _, bot := range bots {
		item := SummaryItem{
			BotID:         bot.ID,
			Status:        bot.Status,
			HealthStatus:  bot.HealthStatus,
			LastTradeTime: bot.LastTradeTime,
			Message:       "",
			CheckedAt:     nil,
		}

		latest, err := m.repo.LatestHealthRecord(ctx, bot.ID)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeQueryFailed, "failed to load health record", err)
		}

		if latest != nil {
			checkedAt := latest.CreatedAt
			item.Message = latest.Message
			item.CheckedAt = &checkedAt
		}

		items = append(items, item)
	}

	return items, nil
}
