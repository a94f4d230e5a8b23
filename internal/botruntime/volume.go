package botruntime

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/strategy"
)

func (r *Runtime) tickVolume(ctx context.Context, now time.Time) TickOutcome {
	cfg := *r.cfg.Volume

	daily, err := r.deps.Ledger.DailyVolume(ctx, r.botID, now)
	if err != nil {
		return TickOutcome{Err: err}
	}

	timing, state := strategy.PlanVolume(cfg, r.volume, now, daily, r.rnd)
	r.volume = state

	switch timing.Action {
	case strategy.VolumeWait:
		return TickOutcome{Skipped: SkipWaiting}
	case strategy.VolumeCapReached:
		r.log.Debug("daily volume cap reached", zap.String("daily_volume_usd", daily.String()))

		return TickOutcome{Skipped: SkipDailyCap}
	case strategy.VolumeTrade:
	}

	price, err := r.adapter.GetMidPrice(ctx, r.pair)
	if err != nil {
		return TickOutcome{Err: err}
	}

	balances, err := r.adapter.GetBalances(ctx)
	if err != nil {
		return TickOutcome{Err: err}
	}

	minAmount, err := r.adapter.MinOrderAmount(ctx, r.pair)
	if err != nil {
		return TickOutcome{Err: err}
	}

	order, err := strategy.SizeVolumeTrade(cfg, strategy.VolumeSizing{
		Pair:      r.pair,
		Price:     price,
		Balances:  balances,
		MinAmount: minAmount,
	}, r.rnd)
	if err != nil {
		return TickOutcome{Err: err}
	}

	if order.Skip {
		r.log.Info("volume trade skipped", zap.String("reason", order.SkipReason))

		return TickOutcome{Skipped: SkipBelowMinimum}
	}

	if order.Clamped {
		r.log.Debug("volume trade clamped to balance",
			zap.String("side", string(order.Side)),
			zap.String("target_usd", order.TargetUSD.String()),
			zap.String("amount", order.Amount.String()),
		)
	}

	res, err := r.adapter.PlaceMarketOrder(ctx, r.pair, order.Side, order.Amount)
	if err != nil {
		return TickOutcome{Err: err}
	}

	// The order executed; the cycle restarts even if persisting it fails.
	r.volume = r.volume.AfterTrade(now)

	trade, err := r.recordTrade(ctx, models.TradeLog{
		Side:      order.Side,
		Amount:    res.FilledAmount,
		Price:     res.FilledPrice,
		OrderID:   res.OrderID,
		CreatedAt: now,
	})
	if err != nil {
		return TickOutcome{Err: err}
	}

	return TickOutcome{Traded: true, Trades: []models.TradeLog{trade}}
}
