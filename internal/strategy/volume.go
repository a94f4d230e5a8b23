package strategy

import (
	"time"

	"github.com/moznion/go-optional"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Rand is the randomness source of the Volume engine. *rand.Rand from
// math/rand/v2 satisfies it; tests script their own values.
type Rand interface {
	// Float64 returns a value in [0, 1).
	Float64() float64
}

// VolumeState is the bot-local state a Volume bot carries between ticks.
type VolumeState struct {
	// LastTradeTime is the time of the last successful trade.
	LastTradeTime optional.Option[time.Time]
	// TargetInterval is the wait drawn for the current cycle. It is kept
	// until a trade succeeds so failed attempts retry at the same cadence.
	TargetInterval optional.Option[time.Duration]
}

// NewVolumeState seeds state from a persisted last trade time.
func NewVolumeState(lastTrade *time.Time) VolumeState {
	state := VolumeState{
		LastTradeTime:  optional.None[time.Time](),
		TargetInterval: optional.None[time.Duration](),
	}

	if lastTrade != nil {
		state.LastTradeTime = optional.Some(*lastTrade)
	}

	return state
}

// AfterTrade records a successful trade and starts a new cycle.
func (s VolumeState) AfterTrade(at time.Time) VolumeState {
	return VolumeState{
		LastTradeTime:  optional.Some(at),
		TargetInterval: optional.None[time.Duration](),
	}
}

// VolumeAction is the outcome of the timing phase.
type VolumeAction string

const (
	VolumeWait       VolumeAction = "wait"
	VolumeCapReached VolumeAction = "cap_reached"
	VolumeTrade      VolumeAction = "trade"
)

// VolumeTiming is the result of PlanVolume.
type VolumeTiming struct {
	Action    VolumeAction
	ColdStart bool
	Elapsed   time.Duration
	Interval  time.Duration
}

// PlanVolume decides whether this tick should trade. dailyVolume is the
// notional already traded in the current UTC day.
func PlanVolume(cfg VolumeConfig, state VolumeState, now time.Time, dailyVolume decimal.Decimal, rnd Rand) (VolumeTiming, VolumeState) {
	if state.LastTradeTime.IsNone() {
		return VolumeTiming{Action: VolumeTrade, ColdStart: true, Elapsed: 0, Interval: 0}, state
	}

	interval := drawInterval(cfg, state, rnd)
	state.TargetInterval = optional.Some(interval)

	elapsed := now.Sub(state.LastTradeTime.Unwrap())
	timing := VolumeTiming{Action: VolumeWait, ColdStart: false, Elapsed: elapsed, Interval: interval}

	if elapsed < interval {
		return timing, state
	}

	if limit, capped := cfg.DailyCap(); capped && dailyVolume.GreaterThanOrEqual(limit) {
		timing.Action = VolumeCapReached

		return timing, state
	}

	timing.Action = VolumeTrade

	return timing, state
}

func drawInterval(cfg VolumeConfig, state VolumeState, rnd Rand) time.Duration {
	if state.TargetInterval.IsSome() {
		return state.TargetInterval.Unwrap()
	}

	span := cfg.MaxInterval() - cfg.MinInterval()
	if span <= 0 {
		return cfg.MinInterval()
	}

	return cfg.MinInterval() + time.Duration(rnd.Float64()*float64(span+time.Second)).Truncate(time.Second)
}

// VolumeSizing carries the market inputs of the sizing phase.
type VolumeSizing struct {
	Pair      types.Pair
	Price     decimal.Decimal
	Balances  types.Balances
	MinAmount decimal.Decimal
}

// VolumeOrder is the market order a Volume tick should place. Skip is set
// when no order should be placed this cycle.
type VolumeOrder struct {
	Side       types.Side
	Amount     decimal.Decimal
	TargetUSD  decimal.Decimal
	Clamped    bool
	Skip       bool
	SkipReason string
}

// SizeVolumeTrade draws a trade size and side and converts the notional to a
// base amount at price. Amounts beyond the free balance are clamped; the
// cycle is skipped when the clamped amount falls below the exchange minimum.
func SizeVolumeTrade(cfg VolumeConfig, in VolumeSizing, rnd Rand) (VolumeOrder, error) {
	if !in.Price.IsPositive() {
		return VolumeOrder{}, errors.Newf(errors.ErrCodeMarketDataMissing, "no usable price for %s", in.Pair)
	}

	minUSD := decimal.NewFromFloat(cfg.MinTradeUSD)
	maxUSD := decimal.NewFromFloat(cfg.MaxTradeUSD)
	targetUSD := minUSD.Add(maxUSD.Sub(minUSD).Mul(decimal.NewFromFloat(rnd.Float64())))

	side := types.SideSell
	if rnd.Float64() < cfg.BuyProbability() {
		side = types.SideBuy
	}

	order := VolumeOrder{
		Side:       side,
		Amount:     targetUSD.Div(in.Price),
		TargetUSD:  targetUSD,
		Clamped:    false,
		Skip:       false,
		SkipReason: "",
	}

	affordable := in.Balances.FreeOf(in.Pair.Base)
	if side == types.SideBuy {
		affordable = in.Balances.FreeOf(in.Pair.Quote).Div(in.Price)
	}

	if order.Amount.GreaterThan(affordable) {
		order.Amount = affordable
		order.Clamped = true
	}

	if !order.Amount.IsPositive() || order.Amount.LessThan(in.MinAmount) {
		order.Skip = true
		order.SkipReason = "amount " + order.Amount.String() + " below exchange minimum " + in.MinAmount.String()
	}

	return order, nil
}
