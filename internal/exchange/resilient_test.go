package exchange

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/vault"
	"github.com/rxtech-lab/argo-bots/mocks"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

var ethUSDT = types.Pair{Base: "ETH", Quote: "USDT"}

type ResilientAdapterTestSuite struct {
	suite.Suite
	ctrl    *gomock.Controller
	inner   *mocks.MockAdapter
	adapter Adapter
}

func TestResilientAdapterSuite(t *testing.T) {
	suite.Run(t, new(ResilientAdapterTestSuite))
}

func (s *ResilientAdapterTestSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.inner = mocks.NewMockAdapter(s.ctrl)
	s.adapter = WithResilience(s.inner, ResilienceConfig{
		Timeout:         50 * time.Millisecond,
		MaxRetries:      2,
		InitialInterval: time.Millisecond,
		MaxInterval:     2 * time.Millisecond,
	}, nil)
}

func (s *ResilientAdapterTestSuite) TearDownTest() {
	s.ctrl.Finish()
}

// ============================================================================
// Reads
// ============================================================================

func (s *ResilientAdapterTestSuite) TestRetriesTransientThenSucceeds() {
	gomock.InOrder(
		s.inner.EXPECT().GetMidPrice(gomock.Any(), ethUSDT).
			Return(decimal.Zero, errors.New(errors.ErrCodeNetworkError, "reset")),
		s.inner.EXPECT().GetMidPrice(gomock.Any(), ethUSDT).
			Return(decimal.Zero, errors.New(errors.ErrCodeRateLimited, "slow down")),
		s.inner.EXPECT().GetMidPrice(gomock.Any(), ethUSDT).
			Return(decimal.NewFromInt(100), nil),
	)

	mid, err := s.adapter.GetMidPrice(context.Background(), ethUSDT)
	s.Require().NoError(err)
	s.True(mid.Equal(decimal.NewFromInt(100)))
}

func (s *ResilientAdapterTestSuite) TestGivesUpAfterMaxRetries() {
	s.inner.EXPECT().GetBalances(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeNetworkError, "down")).
		Times(3)

	_, err := s.adapter.GetBalances(context.Background())
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeNetworkError))
}

func (s *ResilientAdapterTestSuite) TestDoesNotRetryFatal() {
	s.inner.EXPECT().GetBalances(gomock.Any()).
		Return(nil, errors.New(errors.ErrCodeAuthFailure, "bad key")).
		Times(1)

	_, err := s.adapter.GetBalances(context.Background())
	s.True(errors.HasCode(err, errors.ErrCodeAuthFailure))
}

func (s *ResilientAdapterTestSuite) TestDeadlineBecomesTimeout() {
	s.inner.EXPECT().GetOrderBook(gomock.Any(), ethUSDT).
		DoAndReturn(func(ctx context.Context, _ types.Pair) (types.OrderBookTop, error) {
			<-ctx.Done()
			return types.OrderBookTop{}, ctx.Err()
		}).
		Times(3)

	_, err := s.adapter.GetOrderBook(context.Background(), ethUSDT)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeTimeout))
	s.True(errors.IsTransient(err))
}

// ============================================================================
// Order placement
// ============================================================================

func (s *ResilientAdapterTestSuite) TestMarketOrderNotRetriedAfterTimeout() {
	s.inner.EXPECT().PlaceMarketOrder(gomock.Any(), ethUSDT, types.SideBuy, gomock.Any()).
		DoAndReturn(func(ctx context.Context, _ types.Pair, _ types.Side, _ decimal.Decimal) (types.MarketOrderResult, error) {
			<-ctx.Done()
			return types.MarketOrderResult{}, ctx.Err()
		}).
		Times(1)

	_, err := s.adapter.PlaceMarketOrder(context.Background(), ethUSDT, types.SideBuy, decimal.NewFromInt(1))
	s.True(errors.HasCode(err, errors.ErrCodeTimeout))
}

func (s *ResilientAdapterTestSuite) TestMarketOrderNotRetriedAfterNetworkError() {
	s.inner.EXPECT().PlaceMarketOrder(gomock.Any(), ethUSDT, types.SideSell, gomock.Any()).
		Return(types.MarketOrderResult{}, errors.New(errors.ErrCodeNetworkError, "eof")).
		Times(1)

	_, err := s.adapter.PlaceMarketOrder(context.Background(), ethUSDT, types.SideSell, decimal.NewFromInt(1))
	s.True(errors.HasCode(err, errors.ErrCodeNetworkError))
}

func (s *ResilientAdapterTestSuite) TestLimitOrderRetriedWhenRateLimited() {
	gomock.InOrder(
		s.inner.EXPECT().PlaceLimitOrder(gomock.Any(), ethUSDT, types.SideBuy, gomock.Any(), gomock.Any()).
			Return(types.LimitOrderResult{}, errors.New(errors.ErrCodeRateLimited, "429")),
		s.inner.EXPECT().PlaceLimitOrder(gomock.Any(), ethUSDT, types.SideBuy, gomock.Any(), gomock.Any()).
			Return(types.LimitOrderResult{OrderID: "7", Side: types.SideBuy}, nil),
	)

	res, err := s.adapter.PlaceLimitOrder(context.Background(), ethUSDT, types.SideBuy,
		decimal.NewFromInt(1), decimal.NewFromInt(99))
	s.Require().NoError(err)
	s.Equal("7", res.OrderID)
}

func (s *ResilientAdapterTestSuite) TestBusinessErrorsPassThrough() {
	s.inner.EXPECT().PlaceMarketOrder(gomock.Any(), ethUSDT, types.SideBuy, gomock.Any()).
		Return(types.MarketOrderResult{}, errors.New(errors.ErrCodeInsufficientFunds, "broke")).
		Times(1)

	_, err := s.adapter.PlaceMarketOrder(context.Background(), ethUSDT, types.SideBuy, decimal.NewFromInt(1))
	s.True(errors.IsBusiness(err))
}

func (s *ResilientAdapterTestSuite) TestCloseDelegates() {
	s.inner.EXPECT().Close().Return(nil)
	s.NoError(s.adapter.Close())
}

// ============================================================================
// Registry
// ============================================================================

type RegistryTestSuite struct {
	suite.Suite
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistryTestSuite))
}

func (s *RegistryTestSuite) TestUnknownExchange() {
	reg := NewRegistry()

	_, err := reg.New(context.Background(), "mtgox", vault.SecretMaterial{}, ethUSDT)
	s.Require().Error(err)
	s.True(errors.HasCode(err, errors.ErrCodeUnknownExchange))
	s.True(errors.IsFatal(err))

	_, err = reg.Info("mtgox")
	s.True(errors.HasCode(err, errors.ErrCodeUnknownExchange))
}

func (s *RegistryTestSuite) TestRegisterAndBuild() {
	ctrl := gomock.NewController(s.T())
	defer ctrl.Finish()

	adapter := mocks.NewMockAdapter(ctrl)
	var gotSecret vault.SecretMaterial

	reg := NewRegistry()
	reg.Register(Info{Name: "fake", DisplayName: "Fake"}, func(_ context.Context, secret vault.SecretMaterial, pair types.Pair) (Adapter, error) {
		gotSecret = secret
		s.Equal(ethUSDT, pair)
		return adapter, nil
	})
	reg.Register(Info{Name: "another"}, nil)

	got, err := reg.New(context.Background(), "fake", vault.SecretMaterial{APIKey: "k", APISecret: "s"}, ethUSDT)
	s.Require().NoError(err)
	s.Same(adapter, got)
	s.Equal("k", gotSecret.APIKey)
	s.Equal([]string{"another", "fake"}, reg.Supported())

	info, err := reg.Info("fake")
	s.Require().NoError(err)
	s.Equal("Fake", info.DisplayName)
}
