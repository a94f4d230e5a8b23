package ledger

import (
	"context"
	stdErrors "errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/mocks"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

type recordingSink struct {
	trades []models.TradeLog
	err    error
}

func (r *recordingSink) Write(_ context.Context, trade models.TradeLog) error {
	r.trades = append(r.trades, trade)

	return r.err
}

type LedgerTestSuite struct {
	suite.Suite
	repo   *repository.MemoryRepository
	sink   *recordingSink
	ledger *Ledger
	now    time.Time
}

func TestLedgerSuite(t *testing.T) {
	suite.Run(t, new(LedgerTestSuite))
}

func (s *LedgerTestSuite) SetupTest() {
	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.repo = repository.NewMemoryRepository()
	s.sink = &recordingSink{}
	s.ledger = New(s.repo, logger.NewNop(), WithSink(s.sink), WithClock(func() time.Time { return s.now }))
}

func trade(id uint64, side types.Side, amount, price string, at time.Time) models.TradeLog {
	a := decimal.RequireFromString(amount)
	p := decimal.RequireFromString(price)

	return models.TradeLog{
		ID:        id,
		BotID:     "bot-1",
		Side:      side,
		Amount:    a,
		Price:     p,
		CostUSD:   a.Mul(p),
		OrderID:   "",
		CreatedAt: at,
	}
}

// ============================================================================
// Append
// ============================================================================

func (s *LedgerTestSuite) TestAppendFillsDefaults() {
	entry := &models.TradeLog{
		BotID:  "bot-1",
		Side:   types.SideBuy,
		Amount: decimal.NewFromInt(5),
		Price:  decimal.RequireFromString("2.0"),
	}

	s.Require().NoError(s.ledger.Append(context.Background(), entry))
	s.True(entry.CostUSD.Equal(decimal.NewFromInt(10)))
	s.Equal(s.now, entry.CreatedAt)
	s.NotZero(entry.ID)

	s.Require().Len(s.sink.trades, 1)
	s.Equal(entry.ID, s.sink.trades[0].ID)
}

func (s *LedgerTestSuite) TestAppendRejectsInvalidTrades() {
	tests := []models.TradeLog{
		{BotID: "", Side: types.SideBuy, Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)},
		{BotID: "bot-1", Side: "hold", Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(1)},
		{BotID: "bot-1", Side: types.SideBuy, Amount: decimal.Zero, Price: decimal.NewFromInt(1)},
		{BotID: "bot-1", Side: types.SideSell, Amount: decimal.NewFromInt(1), Price: decimal.NewFromInt(-1)},
	}

	for _, tt := range tests {
		entry := tt
		err := s.ledger.Append(context.Background(), &entry)
		s.True(errors.HasCode(err, errors.ErrCodeInvalidParameter))
	}

	s.Empty(s.sink.trades)
}

func (s *LedgerTestSuite) TestAppendIgnoresSinkFailure() {
	s.sink.err = stdErrors.New("disk full")

	entry := trade(0, types.SideBuy, "1", "1", s.now)
	s.Require().NoError(s.ledger.Append(context.Background(), &entry))
	s.Len(s.sink.trades, 1)
}

func (s *LedgerTestSuite) TestAppendRepositoryFailure() {
	ctrl := gomock.NewController(s.T())
	repo := mocks.NewMockRepository(ctrl)
	repo.EXPECT().InsertTradeLog(gomock.Any(), gomock.Any()).Return(stdErrors.New("connection reset"))

	l := New(repo, logger.NewNop())
	entry := trade(0, types.SideBuy, "1", "1", s.now)

	err := l.Append(context.Background(), &entry)
	s.True(errors.HasCode(err, errors.ErrCodeDataSourceUnavailable))
	s.True(errors.IsTransient(err))
}

// ============================================================================
// Daily volume
// ============================================================================

func (s *LedgerTestSuite) TestDailyVolumeUsesUTCDay() {
	ctx := context.Background()
	midnight := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	for _, t := range []models.TradeLog{
		trade(0, types.SideBuy, "1", "10", midnight.Add(-time.Second)),
		trade(0, types.SideBuy, "1", "20", midnight),
		trade(0, types.SideSell, "1", "30", midnight.Add(23*time.Hour)),
		trade(0, types.SideSell, "1", "40", midnight.Add(24*time.Hour)),
	} {
		entry := t
		s.Require().NoError(s.ledger.Append(ctx, &entry))
	}

	volume, err := s.ledger.DailyVolume(ctx, "bot-1", s.now)
	s.Require().NoError(err)
	s.True(volume.Equal(decimal.NewFromInt(50)), volume.String())

	start, end := DayBounds(time.Date(2026, 3, 1, 23, 0, 0, 0, time.FixedZone("UTC-5", -5*3600)))
	s.Equal(time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), start)
	s.Equal(time.Date(2026, 3, 3, 0, 0, 0, 0, time.UTC), end)
}

// ============================================================================
// FIFO replay
// ============================================================================

func (s *LedgerTestSuite) TestReplayMatchesFIFO() {
	trades := []models.TradeLog{
		trade(1, types.SideBuy, "1", "100", s.now),
		trade(2, types.SideBuy, "1", "110", s.now.Add(time.Minute)),
		trade(3, types.SideSell, "1.5", "120", s.now.Add(2*time.Minute)),
	}

	pos := Replay(trades)
	// 1 @ (120-100) + 0.5 @ (120-110)
	s.True(pos.RealizedPnL.Equal(decimal.NewFromInt(25)), pos.RealizedPnL.String())
	s.Require().Len(pos.OpenLots, 1)
	s.True(pos.OpenLots[0].Amount.Equal(decimal.RequireFromString("0.5")))
	s.True(pos.OpenLots[0].Price.Equal(decimal.NewFromInt(110)))
	s.True(pos.UnmatchedSold.IsZero())
}

func (s *LedgerTestSuite) TestReplayIgnoresSellsWithoutInventory() {
	trades := []models.TradeLog{
		trade(1, types.SideSell, "2", "100", s.now),
		trade(2, types.SideBuy, "1", "90", s.now.Add(time.Minute)),
		trade(3, types.SideSell, "1", "95", s.now.Add(2*time.Minute)),
	}

	pos := Replay(trades)
	s.True(pos.RealizedPnL.Equal(decimal.NewFromInt(5)))
	s.True(pos.UnmatchedSold.Equal(decimal.NewFromInt(2)))
	s.True(pos.OpenAmount().IsZero())
}

func (s *LedgerTestSuite) TestReplayIsOrderIndependentAndRepeatable() {
	trades := []models.TradeLog{
		trade(3, types.SideSell, "1", "105", s.now.Add(2*time.Minute)),
		trade(1, types.SideBuy, "2", "100", s.now),
		trade(2, types.SideSell, "0.5", "99", s.now),
	}

	first := RealizedPnL(trades)
	second := RealizedPnL(trades)
	s.True(first.Equal(second))

	// Sorted: buy 2@100, sell 0.5@99 (same time, id 2 after id 1), sell 1@105.
	s.True(first.Equal(decimal.RequireFromString("4.5")), first.String())

	// Input is not reordered in place.
	s.Equal(uint64(3), trades[0].ID)
}

// ============================================================================
// Stats
// ============================================================================

func (s *LedgerTestSuite) TestStats() {
	ctx := context.Background()

	for _, t := range []models.TradeLog{
		trade(0, types.SideBuy, "5", "2", s.now.Add(-48*time.Hour)),
		trade(0, types.SideSell, "5", "3", s.now.Add(-time.Hour)),
		trade(0, types.SideBuy, "1", "4", s.now),
	} {
		entry := t
		s.Require().NoError(s.ledger.Append(ctx, &entry))
	}

	stats, err := s.ledger.Stats(ctx, "bot-1")
	s.Require().NoError(err)

	s.Equal("bot-1", stats.BotID)
	s.Equal(3, stats.TradeCount)
	s.Equal(2, stats.BuyCount)
	s.Equal(1, stats.SellCount)
	s.True(stats.VolumeUSD.Equal(decimal.NewFromInt(29)), stats.VolumeUSD.String())
	s.True(stats.RealizedPnLUSD.Equal(decimal.NewFromInt(5)))
	s.True(stats.OpenLotAmount.Equal(decimal.NewFromInt(1)))
	s.True(stats.TodayVolumeUSD.Equal(decimal.NewFromInt(19)))
	s.Require().NotNil(stats.FirstTradeAt)
	s.Require().NotNil(stats.LastTradeAt)
	s.Equal(s.now.Add(-48*time.Hour), *stats.FirstTradeAt)
	s.Equal(s.now, *stats.LastTradeAt)
}

func (s *LedgerTestSuite) TestStatsEmpty() {
	stats, err := s.ledger.Stats(context.Background(), "nobody")
	s.Require().NoError(err)
	s.Equal(0, stats.TradeCount)
	s.True(stats.RealizedPnLUSD.IsZero())
	s.Nil(stats.LastTradeAt)
}
