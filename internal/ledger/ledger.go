// Package ledger records executed trades and derives volume and realized
// profit from them. Everything it reports can be rebuilt from the TradeLog
// rows alone.
package ledger

import (
	"context"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Sink receives a copy of every appended trade.
type Sink interface {
	Write(ctx context.Context, trade models.TradeLog) error
}

// Ledger appends trades and computes aggregates over them.
type Ledger struct {
	repo repository.TradeLogRepository
	sink Sink
	log  *logger.Logger
	now  func() time.Time
}

type Option func(*Ledger)

// WithSink mirrors appended trades into s. Sink failures are logged, never returned.
func WithSink(s Sink) Option {
	return func(l *Ledger) {
		l.sink = s
	}
}

// WithClock overrides the time source used for trades without a timestamp.
func WithClock(now func() time.Time) Option {
	return func(l *Ledger) {
		l.now = now
	}
}

func New(repo repository.TradeLogRepository, log *logger.Logger, opts ...Option) *Ledger {
	l := &Ledger{
		repo: repo,
		sink: nil,
		log:  log.Named("ledger"),
		now:  time.Now,
	}

	for _, opt := range opts {
		opt(l)
	}

	return l
}

// Append validates and persists trade. CostUSD defaults to amount × price and
// CreatedAt to now.
func (l *Ledger) Append(ctx context.Context, trade *models.TradeLog) error {
	if trade == nil {
		return errors.New(errors.ErrCodeInvalidParameter, "trade is nil")
	}

	if trade.BotID == "" || !trade.Side.Valid() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "invalid trade: bot %q side %q", trade.BotID, trade.Side)
	}

	if !trade.Amount.IsPositive() || !trade.Price.IsPositive() {
		return errors.Newf(errors.ErrCodeInvalidParameter, "invalid trade: amount %s price %s", trade.Amount, trade.Price)
	}

	if trade.CostUSD.IsZero() {
		trade.CostUSD = trade.Amount.Mul(trade.Price)
	}

	if trade.CreatedAt.IsZero() {
		trade.CreatedAt = l.now()
	}

	trade.CreatedAt = trade.CreatedAt.UTC()

	if err := l.repo.InsertTradeLog(ctx, trade); err != nil {
		return errors.Wrap(errors.ErrCodeDataSourceUnavailable, "failed to append trade log", err)
	}

	if l.sink != nil {
		if err := l.sink.Write(ctx, *trade); err != nil {
			l.log.Warn("trade archive write failed",
				zap.String("bot_id", trade.BotID),
				zap.Uint64("trade_id", trade.ID),
				zap.Error(err),
			)
		}
	}

	return nil
}

// DayBounds returns the UTC calendar day containing t as [start, end).
func DayBounds(t time.Time) (time.Time, time.Time) {
	start := t.UTC().Truncate(24 * time.Hour)

	return start, start.Add(24 * time.Hour)
}

// DailyVolume is the notional traded by botID during the UTC day containing day.
func (l *Ledger) DailyVolume(ctx context.Context, botID string, day time.Time) (decimal.Decimal, error) {
	start, end := DayBounds(day)

	total, err := l.repo.SumTradeCost(ctx, botID, start, end)
	if err != nil {
		return decimal.Zero, errors.Wrap(errors.ErrCodeQueryFailed, "failed to sum daily volume", err)
	}

	return total, nil
}

// Lot is an unmatched buy.
type Lot struct {
	Amount decimal.Decimal
	Price  decimal.Decimal
}

// Position is the result of replaying a trade history.
type Position struct {
	RealizedPnL decimal.Decimal
	OpenLots    []Lot
	// UnmatchedSold is sell volume that found no inventory to match.
	UnmatchedSold decimal.Decimal
}

// OpenAmount sums the open lots.
func (p Position) OpenAmount() decimal.Decimal {
	total := decimal.Zero
	for _, lot := range p.OpenLots {
		total = total.Add(lot.Amount)
	}

	return total
}

// Replay matches sells against buys first-in first-out. Trades are ordered
// by time then id first, so the result depends only on the set of rows.
func Replay(trades []models.TradeLog) Position {
	ordered := make([]models.TradeLog, len(trades))
	copy(ordered, trades)
	sort.SliceStable(ordered, func(i, j int) bool {
		if !ordered[i].CreatedAt.Equal(ordered[j].CreatedAt) {
			return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
		}

		return ordered[i].ID < ordered[j].ID
	})

	pos := Position{RealizedPnL: decimal.Zero, OpenLots: nil, UnmatchedSold: decimal.Zero}

	for _, trade := range ordered {
		switch trade.Side {
		case types.SideBuy:
			pos.OpenLots = append(pos.OpenLots, Lot{Amount: trade.Amount, Price: trade.Price})
		case types.SideSell:
			remaining := trade.Amount

			for remaining.IsPositive() && len(pos.OpenLots) > 0 {
				front := &pos.OpenLots[0]
				matched := decimal.Min(remaining, front.Amount)

				pos.RealizedPnL = pos.RealizedPnL.Add(trade.Price.Sub(front.Price).Mul(matched))
				remaining = remaining.Sub(matched)
				front.Amount = front.Amount.Sub(matched)

				if !front.Amount.IsPositive() {
					pos.OpenLots = pos.OpenLots[1:]
				}
			}

			pos.UnmatchedSold = pos.UnmatchedSold.Add(remaining)
		}
	}

	return pos
}

// RealizedPnL is the FIFO realized profit of trades in quote currency.
func RealizedPnL(trades []models.TradeLog) decimal.Decimal {
	return Replay(trades).RealizedPnL
}

// Stats summarises a bot's trade history.
type Stats struct {
	BotID          string          `json:"bot_id"`
	VolumeUSD      decimal.Decimal `json:"volume_usd"`
	TradeCount     int             `json:"trade_count"`
	RealizedPnLUSD decimal.Decimal `json:"realized_pnl_usd"`
	BuyCount       int             `json:"buy_count"`
	SellCount      int             `json:"sell_count"`
	OpenLotAmount  decimal.Decimal `json:"open_lot_amount"`
	TodayVolumeUSD decimal.Decimal `json:"today_volume_usd"`
	FirstTradeAt   *time.Time      `json:"first_trade_at,omitempty"`
	LastTradeAt    *time.Time      `json:"last_trade_at,omitempty"`
}

// Stats replays the full history of botID.
func (l *Ledger) Stats(ctx context.Context, botID string) (Stats, error) {
	trades, err := l.repo.ListTradeLogs(ctx, repository.ListTradeLogsParams{BotID: botID, Since: nil, Until: nil, Limit: 0})
	if err != nil {
		return Stats{}, errors.Wrap(errors.ErrCodeQueryFailed, "failed to list trade logs", err)
	}

	return Summarize(botID, trades, l.now()), nil
}

// Summarize computes Stats from trades. now selects the day for TodayVolumeUSD.
func Summarize(botID string, trades []models.TradeLog, now time.Time) Stats {
	pos := Replay(trades)
	dayStart, dayEnd := DayBounds(now)

	stats := Stats{
		BotID:          botID,
		VolumeUSD:      decimal.Zero,
		TradeCount:     len(trades),
		RealizedPnLUSD: pos.RealizedPnL,
		BuyCount:       0,
		SellCount:      0,
		OpenLotAmount:  pos.OpenAmount(),
		TodayVolumeUSD: decimal.Zero,
		FirstTradeAt:   nil,
		LastTradeAt:    nil,
	}

	for i := range trades {
		trade := trades[i]
		stats.VolumeUSD = stats.VolumeUSD.Add(trade.CostUSD)

		if trade.Side == types.SideBuy {
			stats.BuyCount++
		} else {
			stats.SellCount++
		}

		if !trade.CreatedAt.Before(dayStart) && trade.CreatedAt.Before(dayEnd) {
			stats.TodayVolumeUSD = stats.TodayVolumeUSD.Add(trade.CostUSD)
		}

		at := trade.CreatedAt
		if stats.FirstTradeAt == nil || at.Before(*stats.FirstTradeAt) {
			stats.FirstTradeAt = &at
		}

		if stats.LastTradeAt == nil || at.After(*stats.LastTradeAt) {
			stats.LastTradeAt = &at
		}
	}

	return stats
}
