package paper

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-bots/internal/exchange"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

var ethUSDT = types.Pair{Base: "ETH", Quote: "USDT"}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

type PaperExchangeTestSuite struct {
	suite.Suite
	ex  *Exchange
	ctx context.Context
}

func TestPaperExchangeSuite(t *testing.T) {
	suite.Run(t, new(PaperExchangeTestSuite))
}

func (s *PaperExchangeTestSuite) SetupTest() {
	s.ex = NewExchange()
	s.ex.SetBook(ethUSDT, d("99"), d("101"))
	s.ex.SetBalance("USDT", d("1000"))
	s.ex.SetBalance("ETH", d("2"))
	s.ctx = context.Background()
}

func (s *PaperExchangeTestSuite) TestMarketBuyAtMid() {
	res, err := s.ex.PlaceMarketOrder(s.ctx, ethUSDT, types.SideBuy, d("1.5"))
	s.Require().NoError(err)
	s.True(res.FilledPrice.Equal(d("100")))
	s.True(res.FilledAmount.Equal(d("1.5")))

	bal, err := s.ex.GetBalances(s.ctx)
	s.Require().NoError(err)
	s.True(bal.FreeOf("USDT").Equal(d("850")))
	s.True(bal.FreeOf("ETH").Equal(d("3.5")))
}

func (s *PaperExchangeTestSuite) TestMarketOrderInsufficientFunds() {
	_, err := s.ex.PlaceMarketOrder(s.ctx, ethUSDT, types.SideSell, d("5"))
	s.True(errors.HasCode(err, errors.ErrCodeInsufficientFunds))

	_, err = s.ex.PlaceMarketOrder(s.ctx, ethUSDT, types.SideBuy, d("50"))
	s.True(errors.HasCode(err, errors.ErrCodeInsufficientFunds))
}

func (s *PaperExchangeTestSuite) TestLimitOrderLifecycle() {
	bid, err := s.ex.PlaceLimitOrder(s.ctx, ethUSDT, types.SideBuy, d("1"), d("95"))
	s.Require().NoError(err)
	ask, err := s.ex.PlaceLimitOrder(s.ctx, ethUSDT, types.SideSell, d("1"), d("105"))
	s.Require().NoError(err)

	open, err := s.ex.ListOpenOrders(s.ctx, ethUSDT)
	s.Require().NoError(err)
	s.ElementsMatch([]string{bid.OrderID, ask.OrderID}, open)

	bal, _ := s.ex.GetBalances(s.ctx)
	s.True(bal["USDT"].Used.Equal(d("95")))
	s.True(bal["ETH"].Used.Equal(d("1")))

	// Price drops through the bid.
	s.ex.SetBook(ethUSDT, d("93"), d("94"))

	st, err := s.ex.GetOrderStatus(s.ctx, ethUSDT, bid.OrderID)
	s.Require().NoError(err)
	s.Equal(types.OrderStatusFilled, st.Status)
	s.True(st.FilledAmount.Equal(d("1")))
	s.True(st.AvgPrice.Equal(d("95")))

	ok, err := s.ex.CancelOrder(s.ctx, ethUSDT, ask.OrderID)
	s.Require().NoError(err)
	s.True(ok)

	ok, err = s.ex.CancelOrder(s.ctx, ethUSDT, ask.OrderID)
	s.Require().NoError(err)
	s.False(ok)

	bal, _ = s.ex.GetBalances(s.ctx)
	s.True(bal.FreeOf("ETH").Equal(d("3")))
	s.True(bal["ETH"].Used.IsZero())
	s.True(bal.FreeOf("USDT").Equal(d("905")))
	s.Equal(0, s.ex.OpenOrderCount())
}

func (s *PaperExchangeTestSuite) TestPartialFillThenCancel() {
	bid, err := s.ex.PlaceLimitOrder(s.ctx, ethUSDT, types.SideBuy, d("2"), d("90"))
	s.Require().NoError(err)
	s.Require().NoError(s.ex.Fill(bid.OrderID, d("0.5")))

	st, err := s.ex.GetOrderStatus(s.ctx, ethUSDT, bid.OrderID)
	s.Require().NoError(err)
	s.Equal(types.OrderStatusPartiallyFilled, st.Status)
	s.True(st.HasFill())

	ok, err := s.ex.CancelOrder(s.ctx, ethUSDT, bid.OrderID)
	s.Require().NoError(err)
	s.True(ok)

	st, err = s.ex.GetOrderStatus(s.ctx, ethUSDT, bid.OrderID)
	s.Require().NoError(err)
	s.Equal(types.OrderStatusCancelled, st.Status)
	s.True(st.FilledAmount.Equal(d("0.5")))

	bal, _ := s.ex.GetBalances(s.ctx)
	s.True(bal.FreeOf("USDT").Equal(d("955")))
	s.True(bal["USDT"].Used.IsZero())
}

func (s *PaperExchangeTestSuite) TestFailNext() {
	s.ex.FailNext(OpGetMidPrice, errors.New(errors.ErrCodeNetworkError, "boom"))

	_, err := s.ex.GetMidPrice(s.ctx, ethUSDT)
	s.True(errors.HasCode(err, errors.ErrCodeNetworkError))

	mid, err := s.ex.GetMidPrice(s.ctx, ethUSDT)
	s.Require().NoError(err)
	s.True(mid.Equal(d("100")))
}

func (s *PaperExchangeTestSuite) TestUnknownPairAndMinAmount() {
	btc := types.Pair{Base: "BTC", Quote: "USDT"}
	_, err := s.ex.GetOrderBook(s.ctx, btc)
	s.True(errors.HasCode(err, errors.ErrCodeUnsupportedPair))

	m, err := s.ex.MinOrderAmount(s.ctx, ethUSDT)
	s.Require().NoError(err)
	s.True(m.Equal(DefaultMinOrderAmount))

	s.ex.SetMinOrderAmount(ethUSDT, d("0.01"))
	m, err = s.ex.MinOrderAmount(s.ctx, ethUSDT)
	s.Require().NoError(err)
	s.True(m.Equal(d("0.01")))
}

func (s *PaperExchangeTestSuite) TestRegister() {
	reg := exchange.NewRegistry()
	Register(reg, s.ex)

	adapter, err := reg.New(s.ctx, exchange.ExchangePaper, vault.SecretMaterial{}, ethUSDT)
	s.Require().NoError(err)
	s.Same(s.ex, adapter)

	_, err = reg.New(s.ctx, exchange.ExchangePaper, vault.SecretMaterial{}, types.Pair{Base: "DOGE", Quote: "USDT"})
	s.True(errors.HasCode(err, errors.ErrCodeUnsupportedPair))
}

func (s *PaperExchangeTestSuite) TestHonoursCancelledContext() {
	ctx, cancel := context.WithCancel(s.ctx)
	cancel()

	_, err := s.ex.GetBalances(ctx)
	s.ErrorIs(err, context.Canceled)
}
