package binance

import (
	"context"
	stdErrors "errors"
	"net"
	"testing"

	gobinance "github.com/adshao/go-binance/v2"
	"github.com/adshao/go-binance/v2/common"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

// Fake implementations for testing

type fakeClient struct {
	createOrder    *fakeCreateOrderService
	account        *fakeGetAccountService
	openOrders     *fakeListOpenOrdersService
	cancelOrder    *fakeCancelOrderService
	getOrder       *fakeGetOrderService
	bookTickers    *fakeListBookTickersService
	exchangeInfo   *fakeExchangeInfoService
	exchangeInfoNo int
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		createOrder:  &fakeCreateOrderService{},
		account:      &fakeGetAccountService{},
		openOrders:   &fakeListOpenOrdersService{},
		cancelOrder:  &fakeCancelOrderService{},
		getOrder:     &fakeGetOrderService{},
		bookTickers:  &fakeListBookTickersService{},
		exchangeInfo: &fakeExchangeInfoService{},
	}
}

func (f *fakeClient) NewCreateOrderService() CreateOrderService {
	return f.createOrder
}

func (f *fakeClient) NewGetAccountService() GetAccountService {
	return f.account
}

func (f *fakeClient) NewListOpenOrdersService() ListOpenOrdersService {
	return f.openOrders
}

func (f *fakeClient) NewCancelOrderService() CancelOrderService {
	return f.cancelOrder
}

func (f *fakeClient) NewGetOrderService() GetOrderService {
	return f.getOrder
}

func (f *fakeClient) NewListBookTickersService() ListBookTickersService {
	return f.bookTickers
}

func (f *fakeClient) NewExchangeInfoService() ExchangeInfoService {
	f.exchangeInfoNo++

	return f.exchangeInfo
}

type fakeCreateOrderService struct {
	response  *gobinance.CreateOrderResponse
	err       error
	symbol    string
	side      gobinance.SideType
	orderType gobinance.OrderType
	quantity  string
	price     string
	tif       gobinance.TimeInForceType
	calls     int
}

func (f *fakeCreateOrderService) Symbol(symbol string) CreateOrderService {
	f.symbol = symbol
	return f
}

func (f *fakeCreateOrderService) Side(side gobinance.SideType) CreateOrderService {
	f.side = side
	return f
}

func (f *fakeCreateOrderService) Type(orderType gobinance.OrderType) CreateOrderService {
	f.orderType = orderType
	return f
}

func (f *fakeCreateOrderService) Quantity(quantity string) CreateOrderService {
	f.quantity = quantity
	return f
}

func (f *fakeCreateOrderService) Price(price string) CreateOrderService {
	f.price = price
	return f
}

func (f *fakeCreateOrderService) TimeInForce(tif gobinance.TimeInForceType) CreateOrderService {
	f.tif = tif
	return f
}

func (f *fakeCreateOrderService) NewOrderRespType(_ gobinance.NewOrderRespType) CreateOrderService {
	return f
}

func (f *fakeCreateOrderService) Do(_ context.Context) (*gobinance.CreateOrderResponse, error) {
	f.calls++
	return f.response, f.err
}

type fakeGetAccountService struct {
	account *gobinance.Account
	err     error
}

func (f *fakeGetAccountService) Do(_ context.Context) (*gobinance.Account, error) {
	return f.account, f.err
}

type fakeListOpenOrdersService struct {
	orders []*gobinance.Order
	err    error
	symbol string
}

func (f *fakeListOpenOrdersService) Symbol(symbol string) ListOpenOrdersService {
	f.symbol = symbol
	return f
}

func (f *fakeListOpenOrdersService) Do(_ context.Context) ([]*gobinance.Order, error) {
	return f.orders, f.err
}

type fakeCancelOrderService struct {
	response *gobinance.CancelOrderResponse
	err      error
	symbol   string
	orderID  int64
}

func (f *fakeCancelOrderService) Symbol(symbol string) CancelOrderService {
	f.symbol = symbol
	return f
}

func (f *fakeCancelOrderService) OrderID(orderID int64) CancelOrderService {
	f.orderID = orderID
	return f
}

func (f *fakeCancelOrderService) Do(_ context.Context) (*gobinance.CancelOrderResponse, error) {
	return f.response, f.err
}

type fakeGetOrderService struct {
	order   *gobinance.Order
	err     error
	orderID int64
}

func (f *fakeGetOrderService) Symbol(_ string) GetOrderService {
	return f
}

func (f *fakeGetOrderService) OrderID(orderID int64) GetOrderService {
	f.orderID = orderID
	return f
}

func (f *fakeGetOrderService) Do(_ context.Context) (*gobinance.Order, error) {
	return f.order, f.err
}

type fakeListBookTickersService struct {
	tickers []*gobinance.BookTicker
	err     error
}

func (f *fakeListBookTickersService) Symbol(_ string) ListBookTickersService {
	return f
}

func (f *fakeListBookTickersService) Do(_ context.Context) ([]*gobinance.BookTicker, error) {
	return f.tickers, f.err
}

type fakeExchangeInfoService struct {
	info *gobinance.ExchangeInfo
	err  error
}

func (f *fakeExchangeInfoService) Symbol(_ string) ExchangeInfoService {
	return f
}

func (f *fakeExchangeInfoService) Do(_ context.Context) (*gobinance.ExchangeInfo, error) {
	return f.info, f.err
}

func ethUsdtInfo(status string) *gobinance.ExchangeInfo {
	return &gobinance.ExchangeInfo{
		Symbols: []gobinance.Symbol{
			{
				Symbol:     "ETHUSDT",
				Status:     status,
				BaseAsset:  "ETH",
				QuoteAsset: "USDT",
				Filters: []map[string]interface{}{
					{
						"filterType": "LOT_SIZE",
						"minQty":     "0.00010000",
						"maxQty":     "9000.00000000",
						"stepSize":   "0.00010000",
					},
					{
						"filterType": "PRICE_FILTER",
						"minPrice":   "0.01000000",
						"maxPrice":   "1000000.00000000",
						"tickSize":   "0.01000000",
					},
				},
			},
		},
	}
}

// BinanceAdapterTestSuite is a test suite for the Binance adapter.
type BinanceAdapterTestSuite struct {
	suite.Suite
	client  *fakeClient
	adapter *Adapter
	pair    types.Pair
}

func TestBinanceAdapterSuite(t *testing.T) {
	suite.Run(t, new(BinanceAdapterTestSuite))
}

func (s *BinanceAdapterTestSuite) SetupTest() {
	s.client = newFakeClient()
	s.client.exchangeInfo.info = ethUsdtInfo("TRADING")
	s.client.account.account = &gobinance.Account{}
	s.adapter = newAdapterWithClient(s.client)
	s.pair = types.Pair{Base: "ETH", Quote: "USDT"}
}

// ============================================================================
// init
// ============================================================================

func (s *BinanceAdapterTestSuite) TestInitSucceeds() {
	s.Require().NoError(s.adapter.init(context.Background(), s.pair))
}

func (s *BinanceAdapterTestSuite) TestInitRejectsUnknownSymbol() {
	s.client.exchangeInfo.info = &gobinance.ExchangeInfo{}

	err := s.adapter.init(context.Background(), s.pair)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeUnsupportedPair))
	s.True(errors.IsFatal(err))
}

func (s *BinanceAdapterTestSuite) TestInitRejectsHaltedSymbol() {
	s.client.exchangeInfo.info = ethUsdtInfo("BREAK")

	err := s.adapter.init(context.Background(), s.pair)
	s.True(errors.HasCode(err, errors.ErrCodeUnsupportedPair))
}

func (s *BinanceAdapterTestSuite) TestInitMapsInvalidSymbolError() {
	s.client.exchangeInfo.err = &common.APIError{Code: -1121, Message: "Invalid symbol."}

	err := s.adapter.init(context.Background(), s.pair)
	s.True(errors.HasCode(err, errors.ErrCodeUnsupportedPair))
}

func (s *BinanceAdapterTestSuite) TestInitReportsBadCredentials() {
	s.client.account.err = &common.APIError{Code: -2015, Message: "Invalid API-key, IP, or permissions for action."}

	err := s.adapter.init(context.Background(), s.pair)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeAuthFailure))
	s.True(errors.IsFatal(err))
}

func (s *BinanceAdapterTestSuite) TestSymbolRulesAreCached() {
	ctx := context.Background()

	_, err := s.adapter.MinOrderAmount(ctx, s.pair)
	s.Require().NoError(err)
	_, err = s.adapter.MinOrderAmount(ctx, s.pair)
	s.Require().NoError(err)

	s.Equal(1, s.client.exchangeInfoNo)
}

// ============================================================================
// Market data
// ============================================================================

func (s *BinanceAdapterTestSuite) TestGetMidPrice() {
	s.client.bookTickers.tickers = []*gobinance.BookTicker{
		{Symbol: "ETHUSDT", BidPrice: "99.50", AskPrice: "100.50"},
	}

	mid, err := s.adapter.GetMidPrice(context.Background(), s.pair)
	s.Require().NoError(err)
	s.True(mid.Equal(decimal.NewFromInt(100)), mid.String())
}

func (s *BinanceAdapterTestSuite) TestGetMidPriceEmptyBook() {
	s.client.bookTickers.tickers = []*gobinance.BookTicker{
		{Symbol: "ETHUSDT", BidPrice: "0", AskPrice: "100.50"},
	}

	_, err := s.adapter.GetMidPrice(context.Background(), s.pair)
	s.True(errors.HasCode(err, errors.ErrCodeMarketDataMissing))
}

func (s *BinanceAdapterTestSuite) TestGetOrderBookNoTicker() {
	_, err := s.adapter.GetOrderBook(context.Background(), s.pair)
	s.True(errors.HasCode(err, errors.ErrCodeMarketDataMissing))
}

func (s *BinanceAdapterTestSuite) TestGetBalances() {
	s.client.account.account = &gobinance.Account{
		Balances: []gobinance.Balance{
			{Asset: "ETH", Free: "1.5", Locked: "0.5"},
			{Asset: "USDT", Free: "1000", Locked: "0"},
			{Asset: "BNB", Free: "0", Locked: "0"},
		},
	}

	balances, err := s.adapter.GetBalances(context.Background())
	s.Require().NoError(err)
	s.Len(balances, 2)
	s.True(balances["ETH"].Total.Equal(decimal.NewFromInt(2)))
	s.True(balances["ETH"].Used.Equal(decimal.RequireFromString("0.5")))
	s.True(balances.FreeOf("USDT").Equal(decimal.NewFromInt(1000)))
}

func (s *BinanceAdapterTestSuite) TestGetBalancesRateLimited() {
	s.client.account.err = &common.APIError{Code: -1003, Message: "Too many requests"}

	_, err := s.adapter.GetBalances(context.Background())
	s.True(errors.HasCode(err, errors.ErrCodeRateLimited))
	s.True(errors.IsTransient(err))
}

// ============================================================================
// Orders
// ============================================================================

func (s *BinanceAdapterTestSuite) TestPlaceMarketOrder() {
	s.client.createOrder.response = &gobinance.CreateOrderResponse{
		OrderID:                  42,
		ExecutedQuantity:         "5.0000",
		CummulativeQuoteQuantity: "10.00",
		Status:                   gobinance.OrderStatusTypeFilled,
		TransactTime:             1700000000000,
	}

	result, err := s.adapter.PlaceMarketOrder(context.Background(), s.pair, types.SideBuy, decimal.RequireFromString("5.00004"))
	s.Require().NoError(err)

	s.Equal("ETHUSDT", s.client.createOrder.symbol)
	s.Equal(gobinance.SideTypeBuy, s.client.createOrder.side)
	s.Equal(gobinance.OrderTypeMarket, s.client.createOrder.orderType)
	s.Equal("5", s.client.createOrder.quantity)

	s.Equal("42", result.OrderID)
	s.True(result.FilledAmount.Equal(decimal.NewFromInt(5)))
	s.True(result.FilledPrice.Equal(decimal.NewFromInt(2)), result.FilledPrice.String())
	s.Equal(int64(1700000000), result.ExecutedAt.Unix())
}

func (s *BinanceAdapterTestSuite) TestPlaceMarketOrderPriceFromFills() {
	s.client.createOrder.response = &gobinance.CreateOrderResponse{
		OrderID:          7,
		ExecutedQuantity: "2",
		Status:           gobinance.OrderStatusTypeFilled,
		Fills: []*gobinance.Fill{
			{Price: "100", Quantity: "1"},
			{Price: "102", Quantity: "1"},
		},
	}

	result, err := s.adapter.PlaceMarketOrder(context.Background(), s.pair, types.SideSell, decimal.NewFromInt(2))
	s.Require().NoError(err)
	s.Equal(gobinance.SideTypeSell, s.client.createOrder.side)
	s.True(result.FilledPrice.Equal(decimal.NewFromInt(101)))
}

func (s *BinanceAdapterTestSuite) TestPlaceMarketOrderBelowMinimum() {
	_, err := s.adapter.PlaceMarketOrder(context.Background(), s.pair, types.SideBuy, decimal.RequireFromString("0.00005"))
	s.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
	s.Equal(0, s.client.createOrder.calls)
}

func (s *BinanceAdapterTestSuite) TestPlaceMarketOrderNotFilled() {
	s.client.createOrder.response = &gobinance.CreateOrderResponse{
		OrderID:          9,
		ExecutedQuantity: "0",
		Status:           gobinance.OrderStatusTypeExpired,
	}

	_, err := s.adapter.PlaceMarketOrder(context.Background(), s.pair, types.SideBuy, decimal.NewFromInt(1))
	s.True(errors.HasCode(err, errors.ErrCodeOrderRejected))
	s.True(errors.IsBusiness(err))
}

func (s *BinanceAdapterTestSuite) TestPlaceMarketOrderInsufficientBalance() {
	s.client.createOrder.err = &common.APIError{Code: -2010, Message: "Account has insufficient balance for requested action."}

	_, err := s.adapter.PlaceMarketOrder(context.Background(), s.pair, types.SideBuy, decimal.NewFromInt(1))
	s.True(errors.HasCode(err, errors.ErrCodeInsufficientFunds))
}

func (s *BinanceAdapterTestSuite) TestPlaceLimitOrderRoundsAwayFromSpread() {
	s.client.createOrder.response = &gobinance.CreateOrderResponse{OrderID: 11, Status: gobinance.OrderStatusTypeNew}

	bid, err := s.adapter.PlaceLimitOrder(context.Background(), s.pair, types.SideBuy,
		decimal.NewFromInt(1), decimal.RequireFromString("99.505"))
	s.Require().NoError(err)
	s.Equal("99.5", s.client.createOrder.price)
	s.Equal(gobinance.TimeInForceTypeGTC, s.client.createOrder.tif)
	s.Equal("11", bid.OrderID)
	s.Equal(types.SideBuy, bid.Side)

	ask, err := s.adapter.PlaceLimitOrder(context.Background(), s.pair, types.SideSell,
		decimal.NewFromInt(1), decimal.RequireFromString("100.501"))
	s.Require().NoError(err)
	s.Equal("100.51", s.client.createOrder.price)
	s.True(ask.Price.Equal(decimal.RequireFromString("100.51")))
}

func (s *BinanceAdapterTestSuite) TestCancelOrder() {
	s.client.cancelOrder.response = &gobinance.CancelOrderResponse{}

	ok, err := s.adapter.CancelOrder(context.Background(), s.pair, "77")
	s.Require().NoError(err)
	s.True(ok)
	s.Equal(int64(77), s.client.cancelOrder.orderID)
	s.Equal("ETHUSDT", s.client.cancelOrder.symbol)
}

func (s *BinanceAdapterTestSuite) TestCancelOrderAlreadyGone() {
	s.client.cancelOrder.err = &common.APIError{Code: -2011, Message: "Unknown order sent."}

	ok, err := s.adapter.CancelOrder(context.Background(), s.pair, "77")
	s.Require().NoError(err)
	s.False(ok)
}

func (s *BinanceAdapterTestSuite) TestCancelOrderInvalidID() {
	_, err := s.adapter.CancelOrder(context.Background(), s.pair, "abc")
	s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
}

func (s *BinanceAdapterTestSuite) TestListOpenOrders() {
	s.client.openOrders.orders = []*gobinance.Order{{OrderID: 1}, {OrderID: 2}}

	ids, err := s.adapter.ListOpenOrders(context.Background(), s.pair)
	s.Require().NoError(err)
	s.Equal([]string{"1", "2"}, ids)
	s.Equal("ETHUSDT", s.client.openOrders.symbol)
}

func (s *BinanceAdapterTestSuite) TestGetOrderStatusPartialFill() {
	s.client.getOrder.order = &gobinance.Order{
		OrderID:                  5,
		Price:                    "99.50",
		OrigQuantity:             "2",
		ExecutedQuantity:         "0.5",
		CummulativeQuoteQuantity: "49.75",
		Status:                   gobinance.OrderStatusTypePartiallyFilled,
		Side:                     gobinance.SideTypeBuy,
	}

	status, err := s.adapter.GetOrderStatus(context.Background(), s.pair, "5")
	s.Require().NoError(err)
	s.Equal(types.OrderStatusPartiallyFilled, status.Status)
	s.Equal(types.SideBuy, status.Side)
	s.True(status.FilledAmount.Equal(decimal.RequireFromString("0.5")))
	s.True(status.AvgPrice.Equal(decimal.RequireFromString("99.5")))
	s.True(status.HasFill())
}

func (s *BinanceAdapterTestSuite) TestMinOrderAmount() {
	minAmount, err := s.adapter.MinOrderAmount(context.Background(), s.pair)
	s.Require().NoError(err)
	s.True(minAmount.Equal(decimal.RequireFromString("0.0001")))
}

// ============================================================================
// Status and error mapping
// ============================================================================

func (s *BinanceAdapterTestSuite) TestMapOrderStatus() {
	tests := []struct {
		in   gobinance.OrderStatusType
		want types.OrderStatus
	}{
		{gobinance.OrderStatusTypeNew, types.OrderStatusOpen},
		{gobinance.OrderStatusTypePartiallyFilled, types.OrderStatusPartiallyFilled},
		{gobinance.OrderStatusTypeFilled, types.OrderStatusFilled},
		{gobinance.OrderStatusTypeCanceled, types.OrderStatusCancelled},
		{gobinance.OrderStatusTypeExpired, types.OrderStatusCancelled},
		{gobinance.OrderStatusTypeRejected, types.OrderStatusRejected},
	}

	for _, tt := range tests {
		s.Equal(tt.want, mapOrderStatus(tt.in), string(tt.in))
	}
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func (s *BinanceAdapterTestSuite) TestNormalizeError() {
	tests := []struct {
		name string
		err  error
		want errors.ErrorCode
	}{
		{"invalid signature", &common.APIError{Code: -1022}, errors.ErrCodeAuthFailure},
		{"bad api key", &common.APIError{Code: -2014}, errors.ErrCodeAuthFailure},
		{"too many orders", &common.APIError{Code: -1015}, errors.ErrCodeRateLimited},
		{"backend timeout", &common.APIError{Code: -1007}, errors.ErrCodeTimeout},
		{"disconnected", &common.APIError{Code: -1001}, errors.ErrCodeNetworkError},
		{"non-json body", &common.APIError{Code: 0}, errors.ErrCodeNetworkError},
		{"filter failure", &common.APIError{Code: -1013, Message: "Filter failure: LOT_SIZE"}, errors.ErrCodeOrderRejected},
		{"bad precision", &common.APIError{Code: -1111}, errors.ErrCodeOrderRejected},
		{"rejected", &common.APIError{Code: -2010, Message: "Market is closed."}, errors.ErrCodeOrderRejected},
		{"deadline", context.DeadlineExceeded, errors.ErrCodeTimeout},
		{"net timeout", timeoutErr{}, errors.ErrCodeTimeout},
		{"dial", &net.OpError{Op: "dial", Err: stdErrors.New("connection refused")}, errors.ErrCodeNetworkError},
		{"other", stdErrors.New("boom"), errors.ErrCodeOrderFailed},
	}

	for _, tt := range tests {
		s.Run(tt.name, func() {
			err := normalizeError("test", tt.err)
			s.Equal(tt.want, errors.GetCode(err))
		})
	}
}

func (s *BinanceAdapterTestSuite) TestNormalizeErrorKeepsCancellation() {
	err := normalizeError("test", context.Canceled)
	s.ErrorIs(err, context.Canceled)
	s.Equal(errors.ErrCodeUnknown, errors.GetCode(err))
}

// ============================================================================
// Registration
// ============================================================================

func (s *BinanceAdapterTestSuite) TestRegister() {
	reg := exchange.NewRegistry()
	Register(reg, config.BinanceConfig{})

	s.Equal([]string{exchange.ExchangeBinance, exchange.ExchangeBinanceTestnet}, reg.Supported())

	info, err := reg.Info(exchange.ExchangeBinanceTestnet)
	s.Require().NoError(err)
	s.True(info.IsPaperTrading)
}
