// Package binance adapts the Binance spot REST API to exchange.Adapter.
package binance

import (
	"context"
	"strconv"
	"sync"
	"time"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// TestnetBaseURL is the Binance spot testnet REST endpoint.
const TestnetBaseURL = "https://testnet.binance.vision"

const symbolStatusTrading = "TRADING"

// symbolRules holds the LOT_SIZE and PRICE_FILTER constraints of a symbol.
type symbolRules struct {
	minQty   decimal.Decimal
	stepSize decimal.Decimal
	tickSize decimal.Decimal
}

// Adapter implements exchange.Adapter against Binance spot.
type Adapter struct {
	client Client
	now    func() time.Time

	mu    sync.RWMutex
	rules map[string]symbolRules
}

var _ exchange.Adapter = (*Adapter)(nil)

// Options selects the endpoint an adapter talks to.
type Options struct {
	BaseURL string
}

// New creates an adapter and verifies both the credentials and pair.
func New(ctx context.Context, secret vault.SecretMaterial, pair types.Pair, opts Options) (*Adapter, error) {
	client := gobinance.NewClient(secret.APIKey, secret.APISecret)
	if opts.BaseURL != "" {
		client.BaseURL = opts.BaseURL
	}

	a := newAdapterWithClient(&realClient{client: client})
	if err := a.init(ctx, pair); err != nil {
		return nil, err
	}

	return a, nil
}

// newAdapterWithClient creates an adapter with a custom client (for testing).
func newAdapterWithClient(client Client) *Adapter {
	return &Adapter{
		client: client,
		now:    time.Now,
		mu:     sync.RWMutex{},
		rules:  make(map[string]symbolRules),
	}
}

// Register installs the mainnet and testnet factories into reg.
func Register(reg *exchange.Registry, cfg config.BinanceConfig) {
	reg.Register(exchange.Info{
		Name:           exchange.ExchangeBinance,
		DisplayName:    "Binance",
		Description:    "Binance spot trading",
		IsPaperTrading: false,
	}, func(ctx context.Context, secret vault.SecretMaterial, pair types.Pair) (exchange.Adapter, error) {
		return New(ctx, secret, pair, Options{BaseURL: cfg.BaseURL})
	})

	testnetURL := cfg.TestnetBaseURL
	if testnetURL == "" {
		testnetURL = TestnetBaseURL
	}

	reg.Register(exchange.Info{
		Name:           exchange.ExchangeBinanceTestnet,
		DisplayName:    "Binance Testnet",
		Description:    "Binance spot testnet, no real funds",
		IsPaperTrading: true,
	}, func(ctx context.Context, secret vault.SecretMaterial, pair types.Pair) (exchange.Adapter, error) {
		return New(ctx, secret, pair, Options{BaseURL: testnetURL})
	})
}

func (a *Adapter) init(ctx context.Context, pair types.Pair) error {
	if _, err := a.symbolRules(ctx, pair); err != nil {
		return err
	}

	if _, err := a.client.NewGetAccountService().Do(ctx); err != nil {
		return normalizeError("get account", err)
	}

	return nil
}

// symbol converts ETH/USDT to ETHUSDT.
func symbol(pair types.Pair) string {
	return pair.Base + pair.Quote
}

func (a *Adapter) symbolRules(ctx context.Context, pair types.Pair) (symbolRules, error) {
	sym := symbol(pair)

	a.mu.RLock()
	rules, ok := a.rules[sym]
	a.mu.RUnlock()

	if ok {
		return rules, nil
	}

	info, err := a.client.NewExchangeInfoService().Symbol(sym).Do(ctx)
	if err != nil {
		return symbolRules{}, normalizeError("exchange info", err)
	}

	var found *gobinance.Symbol

	for i := range info.Symbols {
		if info.Symbols[i].Symbol == sym {
			found = &info.Symbols[i]

			break
		}
	}

	if found == nil || found.Status != symbolStatusTrading {
		return symbolRules{}, errors.Newf(errors.ErrCodeUnsupportedPair, "binance does not trade %s", pair)
	}

	rules = symbolRules{minQty: decimal.Zero, stepSize: decimal.Zero, tickSize: decimal.Zero}

	if lot := found.LotSizeFilter(); lot != nil {
		rules.minQty = parseDecimal(lot.MinQuantity)
		rules.stepSize = parseDecimal(lot.StepSize)
	}

	if pf := found.PriceFilter(); pf != nil {
		rules.tickSize = parseDecimal(pf.TickSize)
	}

	a.mu.Lock()
	a.rules[sym] = rules
	a.mu.Unlock()

	return rules, nil
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}

	return d
}

// floorToStep rounds v down to a multiple of step. A zero step leaves v as is.
func floorToStep(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}

	return v.Div(step).Floor().Mul(step)
}

// ceilToStep rounds v up to a multiple of step.
func ceilToStep(v, step decimal.Decimal) decimal.Decimal {
	if !step.IsPositive() {
		return v
	}

	return v.Div(step).Ceil().Mul(step)
}

func toBinanceSide(side types.Side) (gobinance.SideType, error) {
	switch side {
	case types.SideBuy:
		return gobinance.SideTypeBuy, nil
	case types.SideSell:
		return gobinance.SideTypeSell, nil
	default:
		return "", errors.Newf(errors.ErrCodeInvalidParameter, "unsupported order side: %s", side)
	}
}

func fromBinanceSide(side gobinance.SideType) types.Side {
	if side == gobinance.SideTypeSell {
		return types.SideSell
	}

	return types.SideBuy
}

// mapOrderStatus maps Binance order status to our OrderStatus type.
func mapOrderStatus(status gobinance.OrderStatusType) types.OrderStatus {
	switch status {
	case gobinance.OrderStatusTypeNew:
		return types.OrderStatusOpen
	case gobinance.OrderStatusTypePartiallyFilled:
		return types.OrderStatusPartiallyFilled
	case gobinance.OrderStatusTypeFilled:
		return types.OrderStatusFilled
	case gobinance.OrderStatusTypeCanceled, gobinance.OrderStatusTypeExpired, gobinance.OrderStatusTypePendingCancel:
		return types.OrderStatusCancelled
	case gobinance.OrderStatusTypeRejected:
		return types.OrderStatusRejected
	default:
		return types.OrderStatusOpen
	}
}

func parseOrderID(orderID string) (int64, error) {
	id, err := strconv.ParseInt(orderID, 10, 64)
	if err != nil {
		return 0, errors.Wrapf(errors.ErrCodeInvalidParameter, err, "invalid binance order id %q", orderID)
	}

	return id, nil
}

// ============================================================================
// exchange.Adapter
// ============================================================================

func (a *Adapter) GetBalances(ctx context.Context) (types.Balances, error) {
	account, err := a.client.NewGetAccountService().Do(ctx)
	if err != nil {
		return nil, normalizeError("get account", err)
	}

	balances := make(types.Balances, len(account.Balances))

	for _, b := range account.Balances {
		free := parseDecimal(b.Free)
		locked := parseDecimal(b.Locked)

		if free.IsZero() && locked.IsZero() {
			continue
		}

		balances[b.Asset] = types.Balance{Free: free, Used: locked, Total: free.Add(locked)}
	}

	return balances, nil
}

func (a *Adapter) GetOrderBook(ctx context.Context, pair types.Pair) (types.OrderBookTop, error) {
	tickers, err := a.client.NewListBookTickersService().Symbol(symbol(pair)).Do(ctx)
	if err != nil {
		return types.OrderBookTop{}, normalizeError("book ticker", err)
	}

	for _, t := range tickers {
		if t.Symbol != "" && t.Symbol != symbol(pair) {
			continue
		}

		return types.OrderBookTop{BestBid: parseDecimal(t.BidPrice), BestAsk: parseDecimal(t.AskPrice)}, nil
	}

	return types.OrderBookTop{}, errors.Newf(errors.ErrCodeMarketDataMissing, "no book ticker for %s", pair)
}

func (a *Adapter) GetMidPrice(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	top, err := a.GetOrderBook(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}

	return top.Mid()
}

func (a *Adapter) PlaceMarketOrder(ctx context.Context, pair types.Pair, side types.Side, amount decimal.Decimal) (types.MarketOrderResult, error) {
	bSide, err := toBinanceSide(side)
	if err != nil {
		return types.MarketOrderResult{}, err
	}

	rules, err := a.symbolRules(ctx, pair)
	if err != nil {
		return types.MarketOrderResult{}, err
	}

	qty := floorToStep(amount, rules.stepSize)
	if !qty.IsPositive() || qty.LessThan(rules.minQty) {
		return types.MarketOrderResult{}, errors.Newf(errors.ErrCodeOrderRejected,
			"amount %s is below the %s minimum of %s", amount, pair, rules.minQty)
	}

	resp, err := a.client.NewCreateOrderService().
		Symbol(symbol(pair)).
		Side(bSide).
		Type(gobinance.OrderTypeMarket).
		Quantity(qty.String()).
		NewOrderRespType(gobinance.NewOrderRespTypeFULL).
		Do(ctx)
	if err != nil {
		return types.MarketOrderResult{}, normalizeError("place market order", err)
	}

	filled := parseDecimal(resp.ExecutedQuantity)
	if !filled.IsPositive() {
		return types.MarketOrderResult{}, errors.Newf(errors.ErrCodeOrderRejected,
			"market order %d was not filled (status %s)", resp.OrderID, resp.Status)
	}

	price := averageFillPrice(resp, filled)

	executedAt := a.now().UTC()
	if resp.TransactTime > 0 {
		executedAt = time.UnixMilli(resp.TransactTime).UTC()
	}

	result := types.MarketOrderResult{
		OrderID:      strconv.FormatInt(resp.OrderID, 10),
		FilledPrice:  price,
		FilledAmount: filled,
		ExecutedAt:   executedAt,
	}

	if err := result.Validate(); err != nil {
		return types.MarketOrderResult{}, err
	}

	return result, nil
}

// averageFillPrice prefers the quote total and falls back to the fill list.
func averageFillPrice(resp *gobinance.CreateOrderResponse, filled decimal.Decimal) decimal.Decimal {
	quote := parseDecimal(resp.CummulativeQuoteQuantity)
	if quote.IsPositive() {
		return quote.Div(filled)
	}

	notional := decimal.Zero
	qty := decimal.Zero

	for _, f := range resp.Fills {
		q := parseDecimal(f.Quantity)
		notional = notional.Add(q.Mul(parseDecimal(f.Price)))
		qty = qty.Add(q)
	}

	if qty.IsPositive() {
		return notional.Div(qty)
	}

	return parseDecimal(resp.Price)
}

func (a *Adapter) PlaceLimitOrder(ctx context.Context, pair types.Pair, side types.Side, amount, price decimal.Decimal) (types.LimitOrderResult, error) {
	bSide, err := toBinanceSide(side)
	if err != nil {
		return types.LimitOrderResult{}, err
	}

	rules, err := a.symbolRules(ctx, pair)
	if err != nil {
		return types.LimitOrderResult{}, err
	}

	qty := floorToStep(amount, rules.stepSize)
	if !qty.IsPositive() || qty.LessThan(rules.minQty) {
		return types.LimitOrderResult{}, errors.Newf(errors.ErrCodeOrderRejected,
			"amount %s is below the %s minimum of %s", amount, pair, rules.minQty)
	}

	// Bids round down and asks round up so a quote never moves inside the spread.
	px := floorToStep(price, rules.tickSize)
	if side == types.SideSell {
		px = ceilToStep(price, rules.tickSize)
	}

	if !px.IsPositive() {
		return types.LimitOrderResult{}, errors.Newf(errors.ErrCodeOrderRejected, "invalid limit price %s", price)
	}

	resp, err := a.client.NewCreateOrderService().
		Symbol(symbol(pair)).
		Side(bSide).
		Type(gobinance.OrderTypeLimit).
		TimeInForce(gobinance.TimeInForceTypeGTC).
		Quantity(qty.String()).
		Price(px.String()).
		NewOrderRespType(gobinance.NewOrderRespTypeRESULT).
		Do(ctx)
	if err != nil {
		return types.LimitOrderResult{}, normalizeError("place limit order", err)
	}

	return types.LimitOrderResult{
		OrderID: strconv.FormatInt(resp.OrderID, 10),
		Side:    side,
		Price:   px,
		Amount:  qty,
	}, nil
}

func (a *Adapter) CancelOrder(ctx context.Context, pair types.Pair, orderID string) (bool, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return false, err
	}

	_, err = a.client.NewCancelOrderService().Symbol(symbol(pair)).OrderID(id).Do(ctx)
	if err != nil {
		// -2011 "Unknown order sent": already filled or cancelled.
		if isAPICode(err, apiCodeCancelRejected) {
			return false, nil
		}

		return false, normalizeError("cancel order", err)
	}

	return true, nil
}

func (a *Adapter) ListOpenOrders(ctx context.Context, pair types.Pair) ([]string, error) {
	orders, err := a.client.NewListOpenOrdersService().Symbol(symbol(pair)).Do(ctx)
	if err != nil {
		return nil, normalizeError("list open orders", err)
	}

	ids := make([]string, 0, len(orders))
	for _, o := range orders {
		ids = append(ids, strconv.FormatInt(o.OrderID, 10))
	}

	return ids, nil
}

func (a *Adapter) GetOrderStatus(ctx context.Context, pair types.Pair, orderID string) (types.OrderStatusResult, error) {
	id, err := parseOrderID(orderID)
	if err != nil {
		return types.OrderStatusResult{}, err
	}

	order, err := a.client.NewGetOrderService().Symbol(symbol(pair)).OrderID(id).Do(ctx)
	if err != nil {
		return types.OrderStatusResult{}, normalizeError("get order", err)
	}

	filled := parseDecimal(order.ExecutedQuantity)
	avg := decimal.Zero

	if filled.IsPositive() {
		avg = parseDecimal(order.CummulativeQuoteQuantity).Div(filled)
	}

	return types.OrderStatusResult{
		OrderID:      strconv.FormatInt(order.OrderID, 10),
		Side:         fromBinanceSide(order.Side),
		Status:       mapOrderStatus(order.Status),
		Price:        parseDecimal(order.Price),
		Amount:       parseDecimal(order.OrigQuantity),
		FilledAmount: filled,
		AvgPrice:     avg,
	}, nil
}

func (a *Adapter) MinOrderAmount(ctx context.Context, pair types.Pair) (decimal.Decimal, error) {
	rules, err := a.symbolRules(ctx, pair)
	if err != nil {
		return decimal.Zero, err
	}

	return decimal.Max(rules.minQty, rules.stepSize), nil
}

// Close is a no-op: the REST client holds no persistent connections.
func (a *Adapter) Close() error {
	return nil
}
