package paper

import (
	"context"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

// WalkConfig configures the simulated price process.
type WalkConfig struct {
	// Volatility is the standard deviation of one step's relative move
	// (0.002 = 0.2% per step).
	Volatility float64
	// Trend is the drift added to every step's relative move.
	Trend    float64
	Interval time.Duration
	// Seed makes the walk reproducible. Zero seeds from the clock.
	Seed int64
}

// Walker moves every book of an Exchange along a geometric Brownian motion,
// filling resting orders the new prices cross.
type Walker struct {
	ex  *Exchange
	rng *rand.Rand
	cfg WalkConfig
	log *logger.Logger
}

func NewWalker(ex *Exchange, cfg WalkConfig, log *logger.Logger) *Walker {
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	return &Walker{
		ex:  ex,
		rng: rand.New(rand.NewSource(seed)),
		cfg: cfg,
		log: log.Named("paper-walk"),
	}
}

// Step moves every book once. Pairs are visited in a stable order so a seeded
// walk is reproducible.
func (w *Walker) Step() {
	w.ex.mu.Lock()
	defer w.ex.mu.Unlock()

	pairs := make([]types.Pair, 0, len(w.ex.books))
	for pair := range w.ex.books {
		pairs = append(pairs, pair)
	}

	sort.Slice(pairs, func(i, j int) bool { return pairs[i].String() < pairs[j].String() })

	for _, pair := range pairs {
		top := w.ex.books[pair]
		factor := decimal.NewFromFloat(w.factor())

		next := types.OrderBookTop{
			BestBid: top.BestBid.Mul(factor).Round(8),
			BestAsk: top.BestAsk.Mul(factor).Round(8),
		}

		w.ex.books[pair] = next
		w.ex.crossLocked(pair, next.BestBid, next.BestAsk)
	}
}

func (w *Walker) factor() float64 {
	// Box-Muller transform for a standard normal draw.
	u1 := 1 - w.rng.Float64()
	u2 := w.rng.Float64()
	z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

	f := 1 + w.cfg.Volatility*z + w.cfg.Trend
	if f <= 0 {
		f = 0.99
	}

	return f
}

// Run steps every Interval until ctx is done.
func (w *Walker) Run(ctx context.Context) {
	if w.cfg.Interval <= 0 {
		return
	}

	ticker := time.NewTicker(w.cfg.Interval)
	defer ticker.Stop()

	w.log.Info("paper price walk started",
		zap.Float64("volatility", w.cfg.Volatility),
		zap.Float64("trend", w.cfg.Trend),
		zap.Duration("interval", w.cfg.Interval),
	)

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			w.Step()
		}
	}
}
