package botruntime

import (
	"context"
	"time"

	"github.com/moznion/go-optional"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/strategy"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

func (r *Runtime) tickSpread(ctx context.Context, now time.Time) TickOutcome {
	cfg := *r.cfg.Spread

	switch strategy.DecideSpread(cfg, r.spread, now) {
	case strategy.SpreadRequote:
		return r.requote(ctx, cfg, now)
	case strategy.SpreadPoll:
		return r.poll(ctx, now)
	default:
		return TickOutcome{Skipped: SkipIdle}
	}
}

// poll logs fills of orders that left the book since the last poll.
func (r *Runtime) poll(ctx context.Context, now time.Time) TickOutcome {
	openIDs, err := r.adapter.ListOpenOrders(ctx, r.pair)
	if err != nil {
		return TickOutcome{Err: err}
	}

	open, gone := strategy.PartitionOpen(r.spread.OpenOrders, openIDs)

	var outcome TickOutcome

	for i, o := range gone {
		trade, filled, err := r.settle(ctx, o, now)
		if err != nil {
			// Keep the unsettled orders tracked so the next poll retries them.
			open = append(open, gone[i:]...)
			outcome.Err = err

			break
		}

		if filled {
			outcome.Traded = true
			outcome.Trades = append(outcome.Trades, trade)
		}
	}

	r.spread.OpenOrders = open
	r.spread.PolledAt = optional.Some(now)

	return outcome
}

// requote cancels every tracked order and places a fresh bid and ask. It stops
// before placing anything if a cancel fails, so no more than two quotes rest.
func (r *Runtime) requote(ctx context.Context, cfg strategy.SpreadConfig, now time.Time) TickOutcome {
	var outcome TickOutcome

	for len(r.spread.OpenOrders) > 0 {
		o := r.spread.OpenOrders[0]

		if _, err := r.adapter.CancelOrder(ctx, r.pair, o.ID); err != nil {
			outcome.Err = err

			return outcome
		}

		// Fills that happened before the cancel landed still count.
		trade, filled, err := r.settle(ctx, o, now)
		if err != nil {
			outcome.Err = err

			return outcome
		}

		if filled {
			outcome.Traded = true
			outcome.Trades = append(outcome.Trades, trade)
		}

		r.spread.OpenOrders = r.spread.OpenOrders[1:]
	}

	mid, err := r.adapter.GetMidPrice(ctx, r.pair)
	if err != nil {
		outcome.Err = err

		return outcome
	}

	bid, ask := strategy.QuotePrices(mid, cfg.SpreadPercent)
	bidAmount, askAmount := strategy.QuoteAmounts(cfg, bid, ask)

	// A side that fails to place waits for the next refresh.
	r.spread.QuotedAt = optional.Some(now)
	r.spread.PolledAt = optional.Some(now)

	quotes := []strategy.QuoteOrder{
		{ID: "", Side: types.SideBuy, Price: bid, Amount: bidAmount},
		{ID: "", Side: types.SideSell, Price: ask, Amount: askAmount},
	}

	for _, q := range quotes {
		res, err := r.adapter.PlaceLimitOrder(ctx, r.pair, q.Side, q.Amount, q.Price)
		if err != nil {
			r.log.Warn("failed to place quote",
				zap.String("side", string(q.Side)),
				zap.String("price", q.Price.String()),
				zap.Error(err),
			)

			if outcome.Err == nil {
				outcome.Err = err
			}

			continue
		}

		r.spread.OpenOrders = append(r.spread.OpenOrders, strategy.QuoteOrder{
			ID:     res.OrderID,
			Side:   q.Side,
			Price:  res.Price,
			Amount: res.Amount,
		})
	}

	r.log.Debug("quotes placed",
		zap.String("mid", mid.String()),
		zap.String("bid", bid.String()),
		zap.String("ask", ask.String()),
		zap.Int("open_orders", len(r.spread.OpenOrders)),
	)

	return outcome
}

// settle looks up an order that is no longer resting and records its fill.
func (r *Runtime) settle(ctx context.Context, o strategy.QuoteOrder, now time.Time) (models.TradeLog, bool, error) {
	status, err := r.adapter.GetOrderStatus(ctx, r.pair, o.ID)
	if err != nil {
		return models.TradeLog{}, false, err
	}

	if !status.HasFill() {
		return models.TradeLog{}, false, nil
	}

	if status.Status != types.OrderStatusFilled {
		r.log.Info("order partially filled before leaving the book",
			zap.String("order_id", o.ID),
			zap.String("filled", status.FilledAmount.String()),
			zap.String("amount", status.Amount.String()),
		)
	}

	trade, err := r.recordTrade(ctx, models.TradeLog{
		Side:      o.Side,
		Amount:    status.FilledAmount,
		Price:     status.FillPrice(),
		OrderID:   o.ID,
		CreatedAt: now,
	})
	if err != nil {
		return trade, false, err
	}

	return trade, true, nil
}
