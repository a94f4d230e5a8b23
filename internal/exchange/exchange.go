package exchange

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/types"
)

// Adapter is the uniform capability every exchange integration provides.
// Failures are returned as *errors.Error carrying one of the exchange codes
// so callers can classify them with errors.KindOf.
type Adapter interface {
	// GetBalances returns the account balances keyed by asset.
	GetBalances(ctx context.Context) (types.Balances, error)
	// GetMidPrice returns (best bid + best ask) / 2.
	GetMidPrice(ctx context.Context, pair types.Pair) (decimal.Decimal, error)
	// GetOrderBook returns the top of the book.
	GetOrderBook(ctx context.Context, pair types.Pair) (types.OrderBookTop, error)
	// PlaceMarketOrder executes immediately. Amount is in base units.
	PlaceMarketOrder(ctx context.Context, pair types.Pair, side types.Side, amount decimal.Decimal) (types.MarketOrderResult, error)
	// PlaceLimitOrder rests an order at price. Amount is in base units.
	PlaceLimitOrder(ctx context.Context, pair types.Pair, side types.Side, amount, price decimal.Decimal) (types.LimitOrderResult, error)
	// CancelOrder returns false when the order was already gone.
	CancelOrder(ctx context.Context, pair types.Pair, orderID string) (bool, error)
	// ListOpenOrders returns the ids of orders still resting on the book.
	ListOpenOrders(ctx context.Context, pair types.Pair) ([]string, error)
	// GetOrderStatus reports fill progress of an order.
	GetOrderStatus(ctx context.Context, pair types.Pair, orderID string) (types.OrderStatusResult, error)
	// MinOrderAmount is the smallest base amount the exchange accepts for pair.
	MinOrderAmount(ctx context.Context, pair types.Pair) (decimal.Decimal, error)
	// Close releases connections held by the adapter.
	Close() error
}
