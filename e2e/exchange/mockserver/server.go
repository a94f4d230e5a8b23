// Package mockserver provides a mock Binance spot REST server for testing
// the exchange adapter end to end.
package mockserver

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/shopspring/decimal"
)

// OrderStatus represents the status of an order.
type OrderStatus string

const (
	OrderStatusNew             OrderStatus = "NEW"
	OrderStatusPartiallyFilled OrderStatus = "PARTIALLY_FILLED"
	OrderStatusFilled          OrderStatus = "FILLED"
	OrderStatusCanceled        OrderStatus = "CANCELED"
)

// Binance error codes returned by the server.
const (
	CodeRejectedAPIKey  = -2015
	CodeInvalidSymbol   = -1121
	CodeNewOrderReject  = -2010
	CodeCancelRejected  = -2011
	CodeNoSuchOrder     = -2013
	CodeTooManyRequests = -1003
	CodeFilterFailure   = -1013
	CodeBadParameter    = -1102
)

// Balance represents an account balance.
type Balance struct {
	Asset  string
	Free   decimal.Decimal
	Locked decimal.Decimal
}

// Order represents a trading order.
type Order struct {
	OrderID     int64
	Symbol      string
	Side        string
	Type        string
	Quantity    decimal.Decimal
	Price       decimal.Decimal
	Status      OrderStatus
	TimeInForce string
	CreatedAt   time.Time
	ExecutedQty decimal.Decimal
	QuoteQty    decimal.Decimal
}

// Symbol describes a tradable market and its filters.
type Symbol struct {
	Symbol     string
	BaseAsset  string
	QuoteAsset string
	Status     string
	MinQty     decimal.Decimal
	StepSize   decimal.Decimal
	TickSize   decimal.Decimal
	BestBid    decimal.Decimal
	BestAsk    decimal.Decimal
}

// APIError is an injected failure returned for the next request to a path.
type APIError struct {
	HTTPStatus int
	Code       int
	Message    string
}

// ServerConfig holds configuration for the mock server.
type ServerConfig struct {
	// APIKey, when set, must match the X-MBX-APIKEY header of signed requests.
	APIKey string
	// InitialBalances maps asset to its free amount.
	InitialBalances map[string]decimal.Decimal
	// Symbols lists the markets the server trades.
	Symbols []Symbol
}

// MockBinanceServer provides a mock Binance server for testing.
type MockBinanceServer struct {
	mu sync.RWMutex

	httpServer *http.Server
	listener   net.Listener

	apiKey     string
	balances   map[string]*Balance
	orders     map[int64]*Order
	symbols    map[string]*Symbol
	failures   map[string][]APIError
	requests   map[string]int
	orderIDSeq int64
}

// NewMockBinanceServer creates a new mock Binance server.
func NewMockBinanceServer(config ServerConfig) *MockBinanceServer {
	server := &MockBinanceServer{
		mu:         sync.RWMutex{},
		httpServer: nil,
		listener:   nil,
		apiKey:     config.APIKey,
		balances:   make(map[string]*Balance),
		orders:     make(map[int64]*Order),
		symbols:    make(map[string]*Symbol),
		failures:   make(map[string][]APIError),
		requests:   make(map[string]int),
		orderIDSeq: 1000,
	}

	for asset, amount := range config.InitialBalances {
		server.balances[asset] = &Balance{Asset: asset, Free: amount, Locked: decimal.Zero}
	}

	for i := range config.Symbols {
		sym := config.Symbols[i]
		if sym.Status == "" {
			sym.Status = "TRADING"
		}

		server.symbols[sym.Symbol] = &sym
	}

	return server
}

// Start starts the mock server on the given address.
// If address is empty or ":0", a random available port is used.
func (s *MockBinanceServer) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener

	router := mux.NewRouter()
	router.Use(s.countRequests, s.injectFailures)

	router.HandleFunc("/api/v3/exchangeInfo", s.handleExchangeInfo).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/ticker/bookTicker", s.handleBookTicker).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/account", s.requireKey(s.handleAccount)).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/order", s.requireKey(s.handleCreateOrder)).Methods(http.MethodPost)
	router.HandleFunc("/api/v3/order", s.requireKey(s.handleCancelOrder)).Methods(http.MethodDelete)
	router.HandleFunc("/api/v3/order", s.requireKey(s.handleGetOrder)).Methods(http.MethodGet)
	router.HandleFunc("/api/v3/openOrders", s.requireKey(s.handleOpenOrders)).Methods(http.MethodGet)

	s.httpServer = &http.Server{
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != http.ErrServerClosed {
			fmt.Printf("HTTP server error: %v\n", err)
		}
	}()

	return nil
}

// Stop stops the mock server.
func (s *MockBinanceServer) Stop() error {
	if s.httpServer == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(ctx)
}

// BaseURL returns the base URL for the server.
func (s *MockBinanceServer) BaseURL() string {
	if s.listener == nil {
		return ""
	}

	return "http://" + s.listener.Addr().String()
}

// ============================================================================
// Test controls
// ============================================================================

// SetBook sets the best bid and ask of symbol and fills resting orders it crosses.
func (s *MockBinanceServer) SetBook(symbol string, bid, ask decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sym, ok := s.symbols[symbol]
	if !ok {
		return
	}

	sym.BestBid = bid
	sym.BestAsk = ask

	for _, o := range s.orders {
		if o.Symbol != symbol || !isOpen(o) {
			continue
		}

		if (o.Side == "BUY" && ask.LessThanOrEqual(o.Price)) || (o.Side == "SELL" && bid.GreaterThanOrEqual(o.Price)) {
			s.fillLocked(o, o.Quantity.Sub(o.ExecutedQty))
		}
	}
}

// FillOrder executes qty of a resting order at its limit price.
func (s *MockBinanceServer) FillOrder(orderID int64, qty decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if o, ok := s.orders[orderID]; ok && isOpen(o) {
		s.fillLocked(o, decimal.Min(qty, o.Quantity.Sub(o.ExecutedQty)))
	}
}

// FailNext makes the next request to path return apiErr.
func (s *MockBinanceServer) FailNext(path string, apiErr APIError) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.failures[path] = append(s.failures[path], apiErr)
}

// RequestCount returns how many requests reached path.
func (s *MockBinanceServer) RequestCount(path string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.requests[path]
}

// GetBalance returns a copy of the balance for an asset.
func (s *MockBinanceServer) GetBalance(asset string) Balance {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if bal, ok := s.balances[asset]; ok {
		return *bal
	}

	return Balance{Asset: asset, Free: decimal.Zero, Locked: decimal.Zero}
}

// GetOrder returns a copy of an order by ID.
func (s *MockBinanceServer) GetOrder(orderID int64) (Order, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if o, ok := s.orders[orderID]; ok {
		return *o, true
	}

	return Order{}, false
}

// OpenOrderCount returns the number of resting orders for symbol.
func (s *MockBinanceServer) OpenOrderCount(symbol string) int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	n := 0
	for _, o := range s.orders {
		if o.Symbol == symbol && isOpen(o) {
			n++
		}
	}

	return n
}

// ============================================================================
// Middleware
// ============================================================================

func (s *MockBinanceServer) countRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		s.requests[r.URL.Path]++
		s.mu.Unlock()

		next.ServeHTTP(w, r)
	})
}

func (s *MockBinanceServer) injectFailures(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.mu.Lock()
		queue := s.failures[r.URL.Path]

		var injected *APIError

		if len(queue) > 0 {
			injected = &queue[0]
			s.failures[r.URL.Path] = queue[1:]
		}
		s.mu.Unlock()

		if injected != nil {
			writeError(w, injected.HTTPStatus, injected.Code, injected.Message)

			return
		}

		next.ServeHTTP(w, r)
	})
}

func (s *MockBinanceServer) requireKey(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if s.apiKey != "" && r.Header.Get("X-MBX-APIKEY") != s.apiKey {
			writeError(w, http.StatusUnauthorized, CodeRejectedAPIKey, "Invalid API-key, IP, or permissions for action.")

			return
		}

		next(w, r)
	}
}

// ============================================================================
// REST API Handlers
// ============================================================================

// handleExchangeInfo handles GET /api/v3/exchangeInfo
func (s *MockBinanceServer) handleExchangeInfo(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)

	s.mu.RLock()
	defer s.mu.RUnlock()

	symbols := make([]map[string]any, 0)

	if name := params.Get("symbol"); name != "" {
		sym, ok := s.symbols[name]
		if !ok {
			writeError(w, http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")

			return
		}

		symbols = append(symbols, symbolJSON(sym))
	} else {
		for _, sym := range s.symbols {
			symbols = append(symbols, symbolJSON(sym))
		}
	}

	writeJSON(w, map[string]any{
		"timezone":   "UTC",
		"serverTime": time.Now().UnixMilli(),
		"symbols":    symbols,
	})
}

func symbolJSON(sym *Symbol) map[string]any {
	return map[string]any{
		"symbol":     sym.Symbol,
		"status":     sym.Status,
		"baseAsset":  sym.BaseAsset,
		"quoteAsset": sym.QuoteAsset,
		"filters": []map[string]any{
			{
				"filterType": "PRICE_FILTER",
				"minPrice":   sym.TickSize.StringFixed(8),
				"maxPrice":   "1000000.00000000",
				"tickSize":   sym.TickSize.StringFixed(8),
			},
			{
				"filterType": "LOT_SIZE",
				"minQty":     sym.MinQty.StringFixed(8),
				"maxQty":     "9000000.00000000",
				"stepSize":   sym.StepSize.StringFixed(8),
			},
		},
	}
}

// handleBookTicker handles GET /api/v3/ticker/bookTicker
func (s *MockBinanceServer) handleBookTicker(w http.ResponseWriter, r *http.Request) {
	name := requestParams(r).Get("symbol")

	s.mu.RLock()
	defer s.mu.RUnlock()

	sym, ok := s.symbols[name]
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")

		return
	}

	writeJSON(w, map[string]any{
		"symbol":   sym.Symbol,
		"bidPrice": sym.BestBid.StringFixed(8),
		"bidQty":   "1.00000000",
		"askPrice": sym.BestAsk.StringFixed(8),
		"askQty":   "1.00000000",
	})
}

// handleAccount handles GET /api/v3/account
func (s *MockBinanceServer) handleAccount(w http.ResponseWriter, _ *http.Request) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	assets := make([]string, 0, len(s.balances))
	for asset := range s.balances {
		assets = append(assets, asset)
	}
	sort.Strings(assets)

	balances := make([]map[string]string, 0, len(assets))
	for _, asset := range assets {
		bal := s.balances[asset]
		balances = append(balances, map[string]string{
			"asset":  bal.Asset,
			"free":   bal.Free.StringFixed(8),
			"locked": bal.Locked.StringFixed(8),
		})
	}

	writeJSON(w, map[string]any{
		"makerCommission": 10,
		"takerCommission": 10,
		"canTrade":        true,
		"canWithdraw":     true,
		"canDeposit":      true,
		"updateTime":      time.Now().UnixMilli(),
		"accountType":     "SPOT",
		"balances":        balances,
	})
}

// handleCreateOrder handles POST /api/v3/order
func (s *MockBinanceServer) handleCreateOrder(w http.ResponseWriter, r *http.Request) {
	params := requestParams(r)

	symbol := params.Get("symbol")
	side := params.Get("side")
	orderType := params.Get("type")

	quantity, err := decimal.NewFromString(params.Get("quantity"))
	if err != nil || symbol == "" || (side != "BUY" && side != "SELL") {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Mandatory parameter was not sent, was empty/null, or malformed.")

		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	sym, ok := s.symbols[symbol]
	if !ok {
		writeError(w, http.StatusBadRequest, CodeInvalidSymbol, "Invalid symbol.")

		return
	}

	if quantity.LessThan(sym.MinQty) {
		writeError(w, http.StatusBadRequest, CodeFilterFailure, "Filter failure: LOT_SIZE")

		return
	}

	s.orderIDSeq++
	order := &Order{
		OrderID:     s.orderIDSeq,
		Symbol:      symbol,
		Side:        side,
		Type:        orderType,
		Quantity:    quantity,
		Price:       decimal.Zero,
		Status:      OrderStatusNew,
		TimeInForce: params.Get("timeInForce"),
		CreatedAt:   time.Now(),
		ExecutedQty: decimal.Zero,
		QuoteQty:    decimal.Zero,
	}

	switch orderType {
	case "MARKET":
		order.Price = sym.BestBid.Add(sym.BestAsk).Div(decimal.NewFromInt(2))
		if !s.reserveLocked(sym, order) {
			writeError(w, http.StatusBadRequest, CodeNewOrderReject, "Account has insufficient balance for requested action.")

			return
		}
		s.fillLocked(order, quantity)
	case "LIMIT":
		price, err := decimal.NewFromString(params.Get("price"))
		if err != nil || !price.IsPositive() {
			writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid price.")

			return
		}
		order.Price = price
		if !s.reserveLocked(sym, order) {
			writeError(w, http.StatusBadRequest, CodeNewOrderReject, "Account has insufficient balance for requested action.")

			return
		}
	default:
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid orderType.")

		return
	}

	s.orders[order.OrderID] = order

	response := orderJSON(order)
	response["clientOrderId"] = uuid.New().String()
	response["transactTime"] = order.CreatedAt.UnixMilli()

	if order.Type == "MARKET" {
		response["fills"] = []map[string]any{{
			"price":           order.Price.StringFixed(8),
			"qty":             order.ExecutedQty.StringFixed(8),
			"commission":      "0",
			"commissionAsset": sym.QuoteAsset,
		}}
	}

	writeJSON(w, response)
}

// handleCancelOrder handles DELETE /api/v3/order
func (s *MockBinanceServer) handleCancelOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.lookupOrder(w, r)
	if !ok {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if !isOpen(order) {
		writeError(w, http.StatusBadRequest, CodeCancelRejected, "Unknown order sent.")

		return
	}

	s.releaseLocked(order)
	order.Status = OrderStatusCanceled

	writeJSON(w, orderJSON(order))
}

// handleGetOrder handles GET /api/v3/order
func (s *MockBinanceServer) handleGetOrder(w http.ResponseWriter, r *http.Request) {
	order, ok := s.lookupOrder(w, r)
	if !ok {
		return
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	writeJSON(w, orderJSON(order))
}

// handleOpenOrders handles GET /api/v3/openOrders
func (s *MockBinanceServer) handleOpenOrders(w http.ResponseWriter, r *http.Request) {
	symbol := requestParams(r).Get("symbol")

	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]int64, 0)
	for id, o := range s.orders {
		if isOpen(o) && (symbol == "" || o.Symbol == symbol) {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	openOrders := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		openOrders = append(openOrders, orderJSON(s.orders[id]))
	}

	writeJSON(w, openOrders)
}

// ============================================================================
// Helpers
// ============================================================================

func (s *MockBinanceServer) lookupOrder(w http.ResponseWriter, r *http.Request) (*Order, bool) {
	params := requestParams(r)

	orderID, err := strconv.ParseInt(params.Get("orderId"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, CodeBadParameter, "Invalid orderId.")

		return nil, false
	}

	s.mu.RLock()
	order, ok := s.orders[orderID]
	s.mu.RUnlock()

	if !ok || order.Symbol != params.Get("symbol") {
		if r.Method == http.MethodDelete {
			writeError(w, http.StatusBadRequest, CodeCancelRejected, "Unknown order sent.")
		} else {
			writeError(w, http.StatusBadRequest, CodeNoSuchOrder, "Order does not exist.")
		}

		return nil, false
	}

	return order, true
}

func (s *MockBinanceServer) balance(asset string) *Balance {
	bal, ok := s.balances[asset]
	if !ok {
		bal = &Balance{Asset: asset, Free: decimal.Zero, Locked: decimal.Zero}
		s.balances[asset] = bal
	}

	return bal
}

// reserveLocked moves the funds an order needs from free to locked.
func (s *MockBinanceServer) reserveLocked(sym *Symbol, o *Order) bool {
	if o.Side == "BUY" {
		quote := s.balance(sym.QuoteAsset)
		cost := o.Quantity.Mul(o.Price)
		if quote.Free.LessThan(cost) {
			return false
		}
		quote.Free = quote.Free.Sub(cost)
		quote.Locked = quote.Locked.Add(cost)

		return true
	}

	base := s.balance(sym.BaseAsset)
	if base.Free.LessThan(o.Quantity) {
		return false
	}
	base.Free = base.Free.Sub(o.Quantity)
	base.Locked = base.Locked.Add(o.Quantity)

	return true
}

func (s *MockBinanceServer) releaseLocked(o *Order) {
	sym := s.symbols[o.Symbol]
	remaining := o.Quantity.Sub(o.ExecutedQty)

	if o.Side == "BUY" {
		quote := s.balance(sym.QuoteAsset)
		cost := remaining.Mul(o.Price)
		quote.Locked = quote.Locked.Sub(cost)
		quote.Free = quote.Free.Add(cost)

		return
	}

	base := s.balance(sym.BaseAsset)
	base.Locked = base.Locked.Sub(remaining)
	base.Free = base.Free.Add(remaining)
}

func (s *MockBinanceServer) fillLocked(o *Order, qty decimal.Decimal) {
	if !qty.IsPositive() {
		return
	}

	sym := s.symbols[o.Symbol]
	base := s.balance(sym.BaseAsset)
	quote := s.balance(sym.QuoteAsset)
	cost := qty.Mul(o.Price)

	if o.Side == "BUY" {
		quote.Locked = quote.Locked.Sub(cost)
		base.Free = base.Free.Add(qty)
	} else {
		base.Locked = base.Locked.Sub(qty)
		quote.Free = quote.Free.Add(cost)
	}

	o.ExecutedQty = o.ExecutedQty.Add(qty)
	o.QuoteQty = o.QuoteQty.Add(cost)

	if o.ExecutedQty.GreaterThanOrEqual(o.Quantity) {
		o.Status = OrderStatusFilled
	} else {
		o.Status = OrderStatusPartiallyFilled
	}
}

func isOpen(o *Order) bool {
	return o.Status == OrderStatusNew || o.Status == OrderStatusPartiallyFilled
}

func orderJSON(o *Order) map[string]any {
	return map[string]any{
		"symbol":              o.Symbol,
		"orderId":             o.OrderID,
		"orderListId":         -1,
		"clientOrderId":       "",
		"price":               o.Price.StringFixed(8),
		"origQty":             o.Quantity.StringFixed(8),
		"executedQty":         o.ExecutedQty.StringFixed(8),
		"cummulativeQuoteQty": o.QuoteQty.StringFixed(8),
		"status":              string(o.Status),
		"timeInForce":         o.TimeInForce,
		"type":                o.Type,
		"side":                o.Side,
		"time":                o.CreatedAt.UnixMilli(),
		"updateTime":          o.CreatedAt.UnixMilli(),
		"isWorking":           true,
	}
}

// requestParams merges query and form-encoded body parameters for any method.
func requestParams(r *http.Request) url.Values {
	params := r.URL.Query()

	if r.Body == nil {
		return params
	}

	body, err := io.ReadAll(r.Body)
	if err != nil || len(body) == 0 {
		return params
	}

	form, err := url.ParseQuery(string(body))
	if err != nil {
		return params
	}

	for key, values := range form {
		for _, v := range values {
			params.Add(key, v)
		}
	}

	return params
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status, code int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{"code": code, "msg": msg})
}
