// Package paper is an in-memory exchange. Market orders fill at mid, limit
// orders rest until the simulated price crosses them or a test fills them.
package paper

import (
	"context"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Operation names accepted by FailNext.
const (
	OpGetBalances      = "get_balances"
	OpGetMidPrice      = "get_mid_price"
	OpGetOrderBook     = "get_order_book"
	OpPlaceMarketOrder = "place_market_order"
	OpPlaceLimitOrder  = "place_limit_order"
	OpCancelOrder      = "cancel_order"
	OpListOpenOrders   = "list_open_orders"
	OpGetOrderStatus   = "get_order_status"
	OpMinOrderAmount   = "min_order_amount"
)

// DefaultMinOrderAmount applies to pairs without an explicit minimum.
var DefaultMinOrderAmount = decimal.RequireFromString("0.0001")

type order struct {
	id       string
	pair     types.Pair
	side     types.Side
	price    decimal.Decimal
	amount   decimal.Decimal
	filled   decimal.Decimal
	notional decimal.Decimal
	status   types.OrderStatus
}

// Exchange is a simulated single-account exchange. It is safe for
// concurrent use and implements exchange.Adapter directly.
type Exchange struct {
	mu        sync.Mutex
	books     map[types.Pair]types.OrderBookTop
	balances  map[string]*types.Balance
	orders    map[string]*order
	minAmount map[types.Pair]decimal.Decimal
	failures  map[string][]error
	seq       int64
}

var _ exchange.Adapter = (*Exchange)(nil)

func NewExchange() *Exchange {
	return &Exchange{
		mu:        sync.Mutex{},
		books:     make(map[types.Pair]types.OrderBookTop),
		balances:  make(map[string]*types.Balance),
		orders:    make(map[string]*order),
		minAmount: make(map[types.Pair]decimal.Decimal),
		failures:  make(map[string][]error),
		seq:       0,
	}
}

// Register installs ex under the "paper" exchange id. Credentials are ignored.
func Register(reg *exchange.Registry, ex *Exchange) {
	reg.Register(exchange.Info{
		Name:           exchange.ExchangePaper,
		DisplayName:    "Paper",
		Description:    "In-memory simulated exchange for dry runs",
		IsPaperTrading: true,
	}, func(_ context.Context, _ vault.SecretMaterial, pair types.Pair) (exchange.Adapter, error) {
		if !ex.Supports(pair) {
			return nil, errors.Newf(errors.ErrCodeUnsupportedPair, "paper exchange has no market for %s", pair)
		}

		return ex, nil
	})
}

// ============================================================================
// Simulation controls
// ============================================================================

// SetPrice sets a zero-width book at mid.
func (e *Exchange) SetPrice(pair types.Pair, mid decimal.Decimal) {
	e.SetBook(pair, mid, mid)
}

// SetBook sets the top of book and fills any resting orders it crosses.
func (e *Exchange) SetBook(pair types.Pair, bid, ask decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.books[pair] = types.OrderBookTop{BestBid: bid, BestAsk: ask}
	e.crossLocked(pair, bid, ask)
}

// SetBalance sets the free amount of asset and clears reservations.
func (e *Exchange) SetBalance(asset string, free decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.balances[asset] = &types.Balance{Free: free, Used: decimal.Zero, Total: free}
}

// SetMinOrderAmount overrides the minimum base amount for pair.
func (e *Exchange) SetMinOrderAmount(pair types.Pair, amount decimal.Decimal) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.minAmount[pair] = amount
}

// FailNext makes the next call of op return err.
func (e *Exchange) FailNext(op string, err error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.failures[op] = append(e.failures[op], err)
}

// Supports reports whether pair has a book.
func (e *Exchange) Supports(pair types.Pair) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	_, ok := e.books[pair]

	return ok
}

// Fill executes amount of a resting order at its limit price.
func (e *Exchange) Fill(orderID string, amount decimal.Decimal) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	o, ok := e.orders[orderID]
	if !ok || o.status.IsTerminal() {
		return errors.Newf(errors.ErrCodeOrderRejected, "order %s is not open", orderID)
	}

	e.fillLocked(o, decimal.Min(amount, o.amount.Sub(o.filled)))

	return nil
}

// OpenOrderCount returns the number of resting orders across all pairs.
func (e *Exchange) OpenOrderCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()

	n := 0
	for _, o := range e.orders {
		if !o.status.IsTerminal() {
			n++
		}
	}

	return n
}

func (e *Exchange) popFailure(op string) error {
	queue := e.failures[op]
	if len(queue) == 0 {
		return nil
	}

	e.failures[op] = queue[1:]

	return queue[0]
}

func (e *Exchange) begin(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	return e.popFailure(op)
}

func (e *Exchange) balance(asset string) *types.Balance {
	b, ok := e.balances[asset]
	if !ok {
		b = &types.Balance{Free: decimal.Zero, Used: decimal.Zero, Total: decimal.Zero}
		e.balances[asset] = b
	}

	return b
}

func (e *Exchange) book(pair types.Pair) (types.OrderBookTop, error) {
	top, ok := e.books[pair]
	if !ok {
		return types.OrderBookTop{}, errors.Newf(errors.ErrCodeUnsupportedPair, "paper exchange has no market for %s", pair)
	}

	return top, nil
}

func (e *Exchange) nextID() string {
	e.seq++

	return strconv.FormatInt(e.seq, 10)
}

// fillLocked moves reserved funds for qty of o at its limit price.
func (e *Exchange) fillLocked(o *order, qty decimal.Decimal) {
	if !qty.IsPositive() {
		return
	}

	base := e.balance(o.pair.Base)
	quote := e.balance(o.pair.Quote)
	cost := qty.Mul(o.price)

	if o.side == types.SideBuy {
		quote.Used = quote.Used.Sub(cost)
		quote.Total = quote.Total.Sub(cost)
		base.Free = base.Free.Add(qty)
		base.Total = base.Total.Add(qty)
	} else {
		base.Used = base.Used.Sub(qty)
		base.Total = base.Total.Sub(qty)
		quote.Free = quote.Free.Add(cost)
		quote.Total = quote.Total.Add(cost)
	}

	o.filled = o.filled.Add(qty)
	o.notional = o.notional.Add(cost)
	if o.filled.GreaterThanOrEqual(o.amount) {
		o.status = types.OrderStatusFilled
	} else {
		o.status = types.OrderStatusPartiallyFilled
	}
}

func (e *Exchange) crossLocked(pair types.Pair, bid, ask decimal.Decimal) {
	for _, o := range e.orders {
		if o.pair != pair || o.status.IsTerminal() {
			continue
		}

		crossed := (o.side == types.SideBuy && ask.LessThanOrEqual(o.price)) ||
			(o.side == types.SideSell && bid.GreaterThanOrEqual(o.price))
		if crossed {
			e.fillLocked(o, o.amount.Sub(o.filled))
		}
	}
}

// ============================================================================
// exchange.Adapter
// ============================================================================

func (e *Exchange) GetBalances(ctx context.Context) (types.Balances, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpGetBalances); err != nil {
		return nil, err
	}

	out := make(types.Balances, len(e.balances))
	for asset, b := range e.balances {
		out[asset] = *b
	}

	return out, nil
}

func (e *Exchange) GetMidPrice(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpGetMidPrice); err != nil {
		return decimal.Zero, err
	}

	top, err := e.book(pair)
	if err != nil {
		return decimal.Zero, err
	}

	return top.Mid()
}

func (e *Exchange) GetOrderBook(ctx context.Context, pair types.Pair) (types.OrderBookTop, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpGetOrderBook); err != nil {
		return types.OrderBookTop{}, err
	}

	return e.book(pair)
}

func (e *Exchange) PlaceMarketOrder(ctx context.Context, pair types.Pair, side types.Side, amount decimal.Decimal) (types.MarketOrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpPlaceMarketOrder); err != nil {
		return types.MarketOrderResult{}, err
	}

	if !amount.IsPositive() {
		return types.MarketOrderResult{}, errors.New(errors.ErrCodeOrderRejected, "order amount must be positive")
	}

	top, err := e.book(pair)
	if err != nil {
		return types.MarketOrderResult{}, err
	}

	price, err := top.Mid()
	if err != nil {
		return types.MarketOrderResult{}, err
	}

	base := e.balance(pair.Base)
	quote := e.balance(pair.Quote)
	cost := amount.Mul(price)

	switch side {
	case types.SideBuy:
		if quote.Free.LessThan(cost) {
			return types.MarketOrderResult{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"need %s %s, have %s", cost, pair.Quote, quote.Free)
		}
		quote.Free = quote.Free.Sub(cost)
		quote.Total = quote.Total.Sub(cost)
		base.Free = base.Free.Add(amount)
		base.Total = base.Total.Add(amount)
	case types.SideSell:
		if base.Free.LessThan(amount) {
			return types.MarketOrderResult{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"need %s %s, have %s", amount, pair.Base, base.Free)
		}
		base.Free = base.Free.Sub(amount)
		base.Total = base.Total.Sub(amount)
		quote.Free = quote.Free.Add(cost)
		quote.Total = quote.Total.Add(cost)
	default:
		return types.MarketOrderResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", side)
	}

	id := e.nextID()
	e.orders[id] = &order{
		id:       id,
		pair:     pair,
		side:     side,
		price:    price,
		amount:   amount,
		filled:   amount,
		notional: cost,
		status:   types.OrderStatusFilled,
	}

	return types.MarketOrderResult{
		OrderID:      id,
		FilledPrice:  price,
		FilledAmount: amount,
		ExecutedAt:   time.Now().UTC(),
	}, nil
}

func (e *Exchange) PlaceLimitOrder(ctx context.Context, pair types.Pair, side types.Side, amount, price decimal.Decimal) (types.LimitOrderResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpPlaceLimitOrder); err != nil {
		return types.LimitOrderResult{}, err
	}

	if !amount.IsPositive() || !price.IsPositive() {
		return types.LimitOrderResult{}, errors.New(errors.ErrCodeOrderRejected, "order amount and price must be positive")
	}

	if _, err := e.book(pair); err != nil {
		return types.LimitOrderResult{}, err
	}

	base := e.balance(pair.Base)
	quote := e.balance(pair.Quote)

	switch side {
	case types.SideBuy:
		cost := amount.Mul(price)
		if quote.Free.LessThan(cost) {
			return types.LimitOrderResult{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"need %s %s, have %s", cost, pair.Quote, quote.Free)
		}
		quote.Free = quote.Free.Sub(cost)
		quote.Used = quote.Used.Add(cost)
	case types.SideSell:
		if base.Free.LessThan(amount) {
			return types.LimitOrderResult{}, errors.Newf(errors.ErrCodeInsufficientFunds,
				"need %s %s, have %s", amount, pair.Base, base.Free)
		}
		base.Free = base.Free.Sub(amount)
		base.Used = base.Used.Add(amount)
	default:
		return types.LimitOrderResult{}, errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", side)
	}

	id := e.nextID()
	e.orders[id] = &order{
		id:       id,
		pair:     pair,
		side:     side,
		price:    price,
		amount:   amount,
		filled:   decimal.Zero,
		notional: decimal.Zero,
		status:   types.OrderStatusOpen,
	}

	return types.LimitOrderResult{OrderID: id, Side: side, Price: price, Amount: amount}, nil
}

func (e *Exchange) CancelOrder(ctx context.Context, pair types.Pair, orderID string) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpCancelOrder); err != nil {
		return false, err
	}

	o, ok := e.orders[orderID]
	if !ok || o.pair != pair || o.status.IsTerminal() {
		return false, nil
	}

	remaining := o.amount.Sub(o.filled)
	if o.side == types.SideBuy {
		quote := e.balance(pair.Quote)
		cost := remaining.Mul(o.price)
		quote.Used = quote.Used.Sub(cost)
		quote.Free = quote.Free.Add(cost)
	} else {
		base := e.balance(pair.Base)
		base.Used = base.Used.Sub(remaining)
		base.Free = base.Free.Add(remaining)
	}

	o.status = types.OrderStatusCancelled

	return true, nil
}

func (e *Exchange) ListOpenOrders(ctx context.Context, pair types.Pair) ([]string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpListOpenOrders); err != nil {
		return nil, err
	}

	ids := make([]string, 0)
	for id, o := range e.orders {
		if o.pair == pair && !o.status.IsTerminal() {
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)

	return ids, nil
}

func (e *Exchange) GetOrderStatus(ctx context.Context, pair types.Pair, orderID string) (types.OrderStatusResult, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpGetOrderStatus); err != nil {
		return types.OrderStatusResult{}, err
	}

	o, ok := e.orders[orderID]
	if !ok || o.pair != pair {
		return types.OrderStatusResult{}, errors.Newf(errors.ErrCodeOrderRejected, "order %s does not exist", orderID)
	}

	avg := decimal.Zero
	if o.filled.IsPositive() {
		avg = o.notional.Div(o.filled)
	}

	return types.OrderStatusResult{
		OrderID:      o.id,
		Side:         o.side,
		Status:       o.status,
		Price:        o.price,
		Amount:       o.amount,
		FilledAmount: o.filled,
		AvgPrice:     avg,
	}, nil
}

func (e *Exchange) MinOrderAmount(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if err := e.begin(ctx, OpMinOrderAmount); err != nil {
		return decimal.Zero, err
	}

	if _, err := e.book(pair); err != nil {
		return decimal.Zero, err
	}

	if m, ok := e.minAmount[pair]; ok {
		return m, nil
	}

	return DefaultMinOrderAmount, nil
}

// Close is a no-op: the simulated exchange is shared between bots.
func (e *Exchange) Close() error {
	return nil
}
