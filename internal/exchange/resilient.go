package exchange

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// ResilienceConfig bounds every adapter call.
type ResilienceConfig struct {
	// Timeout applies to each attempt.
	Timeout time.Duration
	// MaxRetries is the number of extra attempts for transient failures.
	MaxRetries int
	// InitialInterval and MaxInterval shape the exponential wait between attempts.
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// DefaultResilienceConfig returns the retry shape used when only the timeout
// and retry count are configured.
func DefaultResilienceConfig(timeout time.Duration, maxRetries int) ResilienceConfig {
	return ResilienceConfig{
		Timeout:         timeout,
		MaxRetries:      maxRetries,
		InitialInterval: 250 * time.Millisecond,
		MaxInterval:     2 * time.Second,
	}
}

type resilientAdapter struct {
	inner Adapter
	cfg   ResilienceConfig
	log   *logger.Logger
}

// WithResilience wraps inner so that every call runs under a timeout and
// transient failures are retried with exponential backoff. Order placement
// is only retried when the exchange refused it for rate limiting: after a
// timeout or a dropped connection the order may have executed.
func WithResilience(inner Adapter, cfg ResilienceConfig, log *logger.Logger) Adapter {
	if log == nil {
		log = logger.NewNop()
	}

	return &resilientAdapter{
		inner: inner,
		cfg:   cfg,
		log:   log.Named("exchange"),
	}
}

func retryTransient(err error) bool {
	return errors.IsTransient(err)
}

func retryRateLimitOnly(err error) bool {
	return errors.HasCode(err, errors.ErrCodeRateLimited)
}

func (r *resilientAdapter) newBackOff(ctx context.Context) backoff.BackOff {
	exp := backoff.NewExponentialBackOff()
	exp.InitialInterval = r.cfg.InitialInterval
	exp.MaxInterval = r.cfg.MaxInterval
	exp.MaxElapsedTime = 0

	retries := r.cfg.MaxRetries
	if retries < 0 {
		retries = 0
	}

	return backoff.WithContext(backoff.WithMaxRetries(exp, uint64(retries)), ctx)
}

// normalize turns a per-attempt deadline into ErrCodeTimeout.
func normalize(parent, attempt context.Context, op string, err error) error {
	if errors.GetCode(err) != errors.ErrCodeUnknown {
		return err
	}

	if parent.Err() == nil && (attempt.Err() == context.DeadlineExceeded || errors.Is(err, context.DeadlineExceeded)) {
		return errors.Wrapf(errors.ErrCodeTimeout, err, "%s timed out", op)
	}

	return err
}

func call[T any](ctx context.Context, r *resilientAdapter, op string, retryable func(error) bool, fn func(context.Context) (T, error)) (T, error) {
	attempt := func() (T, error) {
		attemptCtx := ctx
		cancel := func() {}
		if r.cfg.Timeout > 0 {
			attemptCtx, cancel = context.WithTimeout(ctx, r.cfg.Timeout)
		}
		defer cancel()

		res, err := fn(attemptCtx)
		if err == nil {
			return res, nil
		}

		err = normalize(ctx, attemptCtx, op, err)
		if ctx.Err() != nil || !retryable(err) {
			return res, backoff.Permanent(err)
		}

		return res, err
	}

	notify := func(err error, wait time.Duration) {
		r.log.Debug("retrying exchange call",
			zap.String("op", op),
			zap.Duration("wait", wait),
			zap.Error(err))
	}

	return backoff.RetryNotifyWithData(attempt, r.newBackOff(ctx), notify)
}

func (r *resilientAdapter) GetBalances(ctx context.Context) (types.Balances, error) {
	return call(ctx, r, "get_balances", retryTransient, func(ctx context.Context) (types.Balances, error) {
		return r.inner.GetBalances(ctx)
	})
}

func (r *resilientAdapter) GetMidPrice(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	return call(ctx, r, "get_mid_price", retryTransient, func(ctx context.Context) (decimal.Decimal, error) {
		return r.inner.GetMidPrice(ctx, pair)
	})
}

func (r *resilientAdapter) GetOrderBook(ctx context.Context, pair types.Pair) (types.OrderBookTop, error) {
	return call(ctx, r, "get_order_book", retryTransient, func(ctx context.Context) (types.OrderBookTop, error) {
		return r.inner.GetOrderBook(ctx, pair)
	})
}

func (r *resilientAdapter) PlaceMarketOrder(ctx context.Context, pair types.Pair, side types.Side, amount decimal.Decimal) (types.MarketOrderResult, error) {
	return call(ctx, r, "place_market_order", retryRateLimitOnly, func(ctx context.Context) (types.MarketOrderResult, error) {
		return r.inner.PlaceMarketOrder(ctx, pair, side, amount)
	})
}

func (r *resilientAdapter) PlaceLimitOrder(ctx context.Context, pair types.Pair, side types.Side, amount, price decimal.Decimal) (types.LimitOrderResult, error) {
	return call(ctx, r, "place_limit_order", retryRateLimitOnly, func(ctx context.Context) (types.LimitOrderResult, error) {
		return r.inner.PlaceLimitOrder(ctx, pair, side, amount, price)
	})
}

func (r *resilientAdapter) CancelOrder(ctx context.Context, pair types.Pair, orderID string) (bool, error) {
	return call(ctx, r, "cancel_order", retryTransient, func(ctx context.Context) (bool, error) {
		return r.inner.CancelOrder(ctx, pair, orderID)
	})
}

func (r *resilientAdapter) ListOpenOrders(ctx context.Context, pair types.Pair) ([]string, error) {
	return call(ctx, r, "list_open_orders", retryTransient, func(ctx context.Context) ([]string, error) {
		return r.inner.ListOpenOrders(ctx, pair)
	})
}

func (r *resilientAdapter) GetOrderStatus(ctx context.Context, pair types.Pair, orderID string) (types.OrderStatusResult, error) {
	return call(ctx, r, "get_order_status", retryTransient, func(ctx context.Context) (types.OrderStatusResult, error) {
		return r.inner.GetOrderStatus(ctx, pair, orderID)
	})
}

func (r *resilientAdapter) MinOrderAmount(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	return call(ctx, r, "min_order_amount", retryTransient, func(ctx context.Context) (decimal.Decimal, error) {
		return r.inner.MinOrderAmount(ctx, pair)
	})
}

func (r *resilientAdapter) Close() error {
	return r.inner.Close()
}
