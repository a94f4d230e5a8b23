package gormrepository

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/rxtech-lab/argo-bots/internal/models"
	"github.com/rxtech-lab/argo-bots/internal/repository"
	"github.com/rxtech-lab/argo-bots/internal/types"
)

type Store struct {
	db *gorm.DB
}

var _ repository.Repository = (*Store)(nil)

func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

func (s *Store) ListBots(ctx context.Context) ([]models.Bot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bot
	err := s.db.WithContext(ctx).Order("id ASC").Find(&items).Error
	return items, err
}

func (s *Store) ListBotsByStatus(ctx context.Context, status types.BotStatus) ([]models.Bot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var items []models.Bot
	err := s.db.WithContext(ctx).
		Where("status = ?", status).
		Order("id ASC").
		Find(&items).Error
	return items, err
}

func (s *Store) GetBot(ctx context.Context, id string) (*models.Bot, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.Bot
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) UpsertBot(ctx context.Context, item *models.Bot) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	if item.HealthStatus == "" {
		item.HealthStatus = types.HealthUnknown
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"client_id",
			"account",
			"strategy_kind",
			"base_asset",
			"quote_asset",
			"exchange",
			"config",
			"config_rev",
			"status",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) UpdateBotHealthStatus(ctx context.Context, id string, status types.HealthStatus) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Bot{}).
		Where("id = ?", id).
		UpdateColumn("health_status", status).Error
}

func (s *Store) UpdateBotLastTradeTime(ctx context.Context, id string, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.WithContext(ctx).
		Model(&models.Bot{}).
		Where("id = ?", id).
		UpdateColumn("last_trade_time", at).Error
}

func (s *Store) UpsertCredential(ctx context.Context, item *models.ExchangeCredential) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "client_id"}, {Name: "exchange"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"ciphertext",
			"rotated_at",
			"updated_at",
		}),
	}).Create(item).Error
}

func (s *Store) GetCredential(ctx context.Context, clientID, exchange string) (*models.ExchangeCredential, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	var item models.ExchangeCredential
	err := s.db.WithContext(ctx).
		Where("client_id = ? AND exchange = ?", clientID, exchange).
		First(&item).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (s *Store) InsertTradeLog(ctx context.Context, item *models.TradeLog) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) ListTradeLogs(ctx context.Context, params repository.ListTradeLogsParams) ([]models.TradeLog, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	q := s.db.WithContext(ctx).Model(&models.TradeLog{})
	if params.BotID != "" {
		q = q.Where("bot_id = ?", params.BotID)
	}
	if params.Since != nil {
		q = q.Where("created_at >= ?", *params.Since)
	}
	if params.Until != nil {
		q = q.Where("created_at < ?", *params.Until)
	}
	if params.Limit > 0 {
		q = q.Limit(params.Limit)
	}
	var items []models.TradeLog
	err := q.Order("created_at ASC").Order("id ASC").Find(&items).Error
	return items, err
}

func (s *Store) SumTradeCost(ctx context.Context, botID string, since, until time.Time) (decimal.Decimal, error) {
	if s == nil || s.db == nil {
		return decimal.Zero, nil
	}
	var total decimal.Decimal
	row := s.db.WithContext(ctx).
		Model(&models.TradeLog{}).
		Select("COALESCE(SUM(cost_usd), 0)").
		Where("bot_id = ? AND created_at >= ? AND created_at < ?", botID, since, until).
		Row()
	if err := row.Scan(&total); err != nil {
		return decimal.Zero, err
	}
	return total, nil
}

func (s *Store) InsertHealthRecord(ctx context.Context, item *models.HealthRecord) error {
	if s == nil || s.db == nil || item == nil {
		return nil
	}
	return s.db.WithContext(ctx).Create(item).Error
}

func (s *Store) LatestHealthRecord(ctx context.Context, botID string) (*models.HealthRecord, error) {
	items, err := s.ListHealthRecords(ctx, botID, 1)
	if err != nil || len(items) == 0 {
		return nil, err
	}
	return &items[0], nil
}

func (s *Store) ListHealthRecords(ctx context.Context, botID string, limit int) ([]models.HealthRecord, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	q := s.db.WithContext(ctx).
		Where("bot_id = ?", botID).
		Order("created_at DESC").
		Order("id DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	var items []models.HealthRecord
	err := q.Find(&items).Error
	return items, err
}
