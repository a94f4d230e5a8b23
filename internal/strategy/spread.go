package strategy

import (
	"slices"
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/types"
)

// QuoteOrder is one resting side of a Spread bot's quote.
type QuoteOrder struct {
	ID     string
	Side   types.Side
	Price  decimal.Decimal
	Amount decimal.Decimal
}

// SpreadState is the bot-local state a Spread bot carries between ticks.
type SpreadState struct {
	// OpenOrders are the quotes placed by this bot that have not been seen
	// filled or cancelled. Never more than two.
	OpenOrders []QuoteOrder
	QuotedAt   optional.Option[time.Time]
	PolledAt   optional.Option[time.Time]
}

func NewSpreadState() SpreadState {
	return SpreadState{
		OpenOrders: nil,
		QuotedAt:   optional.None[time.Time](),
		PolledAt:   optional.None[time.Time](),
	}
}

// SpreadPhase is what a Spread tick should do.
type SpreadPhase string

const (
	// SpreadRequote cancels every tracked order and places a fresh bid and ask.
	SpreadRequote SpreadPhase = "requote"
	// SpreadPoll checks tracked orders for fills.
	SpreadPoll SpreadPhase = "poll"
	// SpreadIdle does nothing this tick.
	SpreadIdle SpreadPhase = "idle"
)

// DecideSpread picks the phase for a tick at now. Quotes are replaced once
// the refresh interval has elapsed since they were placed, regardless of
// whether a poll is also due.
func DecideSpread(cfg SpreadConfig, state SpreadState, now time.Time) SpreadPhase {
	if state.QuotedAt.IsNone() || now.Sub(state.QuotedAt.Unwrap()) >= cfg.RefreshInterval() {
		return SpreadRequote
	}

	if len(state.OpenOrders) == 0 {
		return SpreadIdle
	}

	if state.PolledAt.IsNone() || now.Sub(state.PolledAt.Unwrap()) >= cfg.PollInterval() {
		return SpreadPoll
	}

	return SpreadIdle
}

var two = decimal.NewFromInt(2)

// QuotePrices returns the bid and ask around mid. spreadPercent is the full
// width, so each side sits spreadPercent/2 percent away from mid.
func QuotePrices(mid decimal.Decimal, spreadPercent float64) (decimal.Decimal, decimal.Decimal) {
	half := decimal.NewFromFloat(spreadPercent).Div(decimal.NewFromInt(100)).Div(two)
	bid := mid.Mul(decimal.NewFromInt(1).Sub(half))
	ask := mid.Mul(decimal.NewFromInt(1).Add(half))

	return bid, ask
}

// QuoteAmounts converts the configured notional into base amounts at each price.
func QuoteAmounts(cfg SpreadConfig, bid, ask decimal.Decimal) (decimal.Decimal, decimal.Decimal) {
	size := decimal.NewFromFloat(cfg.OrderSizeUSDT)

	return size.Div(bid), size.Div(ask)
}

// PartitionOpen splits tracked orders into those still listed as open on the
// exchange and those that disappeared (filled or cancelled elsewhere).
func PartitionOpen(tracked []QuoteOrder, openIDs []string) ([]QuoteOrder, []QuoteOrder) {
	var open, gone []QuoteOrder

	for _, o := range tracked {
		if slices.Contains(openIDs, o.ID) {
			open = append(open, o)
		} else {
			gone = append(gone, o)
		}
	}

	return open, gone
}
