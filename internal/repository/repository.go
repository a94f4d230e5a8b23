package repository

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

// Lookups return (nil, nil) when the row does not exist.

type BotRepository interface {
	ListBots(ctx context.Context) ([]models.Bot, error)
	ListBotsByStatus(ctx context.Context, status types.BotStatus) ([]models.Bot, error)
	GetBot(ctx context.Context, id string) (*models.Bot, error)
	// UpsertBot writes the bot definition. It never overwrites health_status or last_trade_time.
	UpsertBot(ctx context.Context, item *models.Bot) error
	UpdateBotHealthStatus(ctx context.Context, id string, status types.HealthStatus) error
	UpdateBotLastTradeTime(ctx context.Context, id string, at time.Time) error
}

type CredentialRepository interface {
	UpsertCredential(ctx context.Context, item *models.ExchangeCredential) error
	GetCredential(ctx context.Context, clientID, exchange string) (*models.ExchangeCredential, error)
}

type ListTradeLogsParams struct {
	BotID string
	Since *time.Time
	Until *time.Time
	Limit int
}

type TradeLogRepository interface {
	InsertTradeLog(ctx context.Context, item *models.TradeLog) error
	// ListTradeLogs returns rows oldest first, ties broken by id.
	ListTradeLogs(ctx context.Context, params ListTradeLogsParams) ([]models.TradeLog, error)
	// SumTradeCost sums cost_usd over [since, until).
	SumTradeCost(ctx context.Context, botID string, since, until time.Time) (decimal.Decimal, error)
}

type HealthRecordRepository interface {
	InsertHealthRecord(ctx context.Context, item *models.HealthRecord) error
	LatestHealthRecord(ctx context.Context, botID string) (*models.HealthRecord, error)
	// ListHealthRecords returns the newest records first.
	ListHealthRecords(ctx context.Context, botID string, limit int) ([]models.HealthRecord, error)
}

type Repository interface {
	BotRepository
	CredentialRepository
	TradeLogRepository
	HealthRecordRepository
}
