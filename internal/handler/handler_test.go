package handler

import (
	"context"
	"encoding/json"
	stdErrors "errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/suite"

	"github.com/rxtech-lab/argo-bots/internal/config"
	"github.com/rxtech-lab/argo-bots/internal/health"
	"github.com/rxtech-lab/argo-bots/internal/ledger"
	"github.com/rxtech-lab/argo-bots/internal/logger"
	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
	"github.com/rxtech-lab/argo-bots/internal/version"
	"github.com/rxtech-lab/argo-bots/pkg/errors"
)

type fakeChecker struct {
	err    error
	called []string
}

func (f *fakeChecker) ForceCheck(_ context.Context, botID string) (models.HealthRecord, error) {
	f.called = append(f.called, botID)
	if f.err != nil {
		return models.HealthRecord{}, f.err
	}

	return models.HealthRecord{BotID: botID, Status: types.HealthHealthy, Message: "ok"}, nil
}

type envelope struct {
	Code    int             `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

type HandlerTestSuite struct {
	suite.Suite
	repo    *repository.MemoryRepository
	checker *fakeChecker
	engine  *gin.Engine
	now     time.Time
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerTestSuite))
}

func (s *HandlerTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)

	s.now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	s.repo = repository.NewMemoryRepository()
	s.checker = &fakeChecker{}

	monitor := health.NewMonitor(s.repo, config.HealthConfig{StaleMultiplier: 2, FailureThreshold: 3}, logger.NewNop())
	led := ledger.New(s.repo, logger.NewNop(), ledger.WithClock(func() time.Time { return s.now }))

	s.engine = NewEngine(logger.NewNop(), false,
		&HealthHandler{Ping: nil},
		&StrategyHandler{},
		&BotHandler{Repo: s.repo, Health: monitor, Checker: s.checker, Stats: led, Archive: nil},
	)
	gin.SetMode(gin.TestMode)

	bot := models.Bot{
		ID:           "bot-1",
		ClientID:     "client-1",
		StrategyKind: types.StrategyVolume,
		BaseAsset:    "ETH",
		QuoteAsset:   "USDT",
		Exchange:     "paper",
		Config:       []byte(`{}`),
		Status:       types.BotStatusRunning,
		HealthStatus: types.HealthUnknown,
	}
	s.Require().NoError(s.repo.UpsertBot(context.Background(), &bot))
}

func (s *HandlerTestSuite) do(method, path string) (*httptest.ResponseRecorder, envelope) {
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	s.engine.ServeHTTP(rec, req)

	var body envelope
	if rec.Header().Get("Content-Type") != "" {
		s.Require().NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	}

	return rec, body
}

// ============================================================================
// Probes
// ============================================================================

func (s *HandlerTestSuite) TestProbes() {
	rec, _ := s.do(http.MethodGet, "/healthz")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"version":"`+version.GetVersion()+`"`)

	rec, _ = s.do(http.MethodGet, "/readyz")
	s.Equal(http.StatusOK, rec.Code)
	s.Contains(rec.Body.String(), `"db":"disabled"`)
}

func (s *HandlerTestSuite) TestReadyzReportsUnreachableDB() {
	engine := NewEngine(logger.NewNop(), false, &HealthHandler{Ping: func(context.Context) error {
		return stdErrors.New("connection refused")
	}})

	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	s.Equal(http.StatusServiceUnavailable, rec.Code)
}

// ============================================================================
// Bots
// ============================================================================

func (s *HandlerTestSuite) TestHealthSummary() {
	rec, body := s.do(http.MethodGet, "/api/v1/health/summary")
	s.Require().Equal(http.StatusOK, rec.Code)

	var items []health.SummaryItem
	s.Require().NoError(json.Unmarshal(body.Data, &items))
	s.Require().Len(items, 1)
	s.Equal("bot-1", items[0].BotID)
	s.Equal(types.HealthUnknown, items[0].HealthStatus)
}

func (s *HandlerTestSuite) TestForceCheck() {
	rec, body := s.do(http.MethodPost, "/api/v1/bots/bot-1/force-check")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Equal(0, body.Code)
	s.Equal([]string{"bot-1"}, s.checker.called)

	var record models.HealthRecord
	s.Require().NoError(json.Unmarshal(body.Data, &record))
	s.Equal(types.HealthHealthy, record.Status)
}

func (s *HandlerTestSuite) TestForceCheckMapsErrorCodes() {
	s.checker.err = errors.New(errors.ErrCodeTickInProgress, "bot bot-1 is already being ticked")
	rec, body := s.do(http.MethodPost, "/api/v1/bots/bot-1/force-check")
	s.Equal(http.StatusConflict, rec.Code)
	s.Equal(http.StatusConflict, body.Code)

	s.checker.err = errors.New(errors.ErrCodeDataNotFound, "bot missing not found")
	rec, _ = s.do(http.MethodPost, "/api/v1/bots/missing/force-check")
	s.Equal(http.StatusNotFound, rec.Code)

	s.checker.err = errors.New(errors.ErrCodeInvalidParameter, "bot bot-1 is stopped, not running")
	rec, _ = s.do(http.MethodPost, "/api/v1/bots/bot-1/force-check")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestStats() {
	ctx := context.Background()
	s.Require().NoError(s.repo.InsertTradeLog(ctx, &models.TradeLog{
		BotID:     "bot-1",
		Side:      types.SideBuy,
		Amount:    decimal.NewFromInt(2),
		Price:     decimal.NewFromInt(100),
		CostUSD:   decimal.NewFromInt(200),
		OrderID:   "o-1",
		CreatedAt: s.now.Add(-time.Hour),
	}))

	rec, body := s.do(http.MethodGet, "/api/v1/bots/bot-1/stats")
	s.Require().Equal(http.StatusOK, rec.Code)

	var stats ledger.Stats
	s.Require().NoError(json.Unmarshal(body.Data, &stats))
	s.Equal(1, stats.TradeCount)
	s.True(stats.VolumeUSD.Equal(decimal.NewFromInt(200)))
}

func (s *HandlerTestSuite) TestUnknownBotIs404() {
	rec, body := s.do(http.MethodGet, "/api/v1/bots/missing/stats")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("bot not found", body.Message)

	rec, _ = s.do(http.MethodGet, "/api/v1/bots/missing/health")
	s.Equal(http.StatusNotFound, rec.Code)
}

func (s *HandlerTestSuite) TestHealthHistory() {
	ctx := context.Background()
	for i := 0; i < 3; i++ {
		s.Require().NoError(s.repo.InsertHealthRecord(ctx, &models.HealthRecord{
			BotID:     "bot-1",
			Status:    types.HealthHealthy,
			Message:   "ok",
			CreatedAt: s.now.Add(time.Duration(i) * time.Minute),
		}))
	}

	rec, body := s.do(http.MethodGet, "/api/v1/bots/bot-1/health?limit=2")
	s.Require().Equal(http.StatusOK, rec.Code)

	var items []models.HealthRecord
	s.Require().NoError(json.Unmarshal(body.Data, &items))
	s.Len(items, 2)

	rec, _ = s.do(http.MethodGet, "/api/v1/bots/bot-1/health?limit=0")
	s.Equal(http.StatusOK, rec.Code)

	rec, _ = s.do(http.MethodGet, "/api/v1/bots/bot-1/health?limit=1000")
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *HandlerTestSuite) TestDailyVolumesWithoutArchive() {
	rec, body := s.do(http.MethodGet, "/api/v1/bots/bot-1/daily-volumes")
	s.Equal(http.StatusNotFound, rec.Code)
	s.Equal("trade archive is disabled", body.Message)
}

// ============================================================================
// Strategies
// ============================================================================

func (s *HandlerTestSuite) TestListStrategies() {
	rec, body := s.do(http.MethodGet, "/api/v1/strategies")
	s.Require().Equal(http.StatusOK, rec.Code)

	var kinds []types.StrategyKind
	s.Require().NoError(json.Unmarshal(body.Data, &kinds))
	s.ElementsMatch([]types.StrategyKind{types.StrategyVolume, types.StrategySpread}, kinds)
}

func (s *HandlerTestSuite) TestStrategySchema() {
	rec, body := s.do(http.MethodGet, "/api/v1/strategies/Spread/schema")
	s.Require().Equal(http.StatusOK, rec.Code)
	s.Contains(string(body.Data), "spread-strategy-config")

	rec, body = s.do(http.MethodGet, "/api/v1/strategies/grid/schema")
	s.Equal(http.StatusBadRequest, rec.Code)
	s.Contains(body.Message, "unsupported strategy kind")
}
