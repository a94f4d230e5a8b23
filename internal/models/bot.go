package models

import (
	"time"

	"gorm.io/datatypes"

	"github.com/rxtech-lab/argo-bots/internal/types"
)

// Bot is the durable definition of one trading bot. Status is owned by
// operators; HealthStatus is only ever written by the health monitor.
type Bot struct {
	ID           string             `gorm:"type:varchar(64);primaryKey" json:"id"`
	ClientID     string             `gorm:"type:varchar(64);not null;index" json:"client_id"`
	Account      string             `gorm:"type:varchar(64);not null;default:''" json:"account"`
	StrategyKind types.StrategyKind `gorm:"type:varchar(16);not null" json:"strategy_kind"`
	BaseAsset    string             `gorm:"type:varchar(32);not null" json:"base_asset"`
	QuoteAsset   string             `gorm:"type:varchar(32);not null" json:"quote_asset"`
	Exchange     string             `gorm:"type:varchar(32);not null" json:"exchange"`
	Config       datatypes.JSON     `gorm:"type:jsonb;not null" json:"config"`
	// ConfigRev is bumped whenever Config changes so runtimes can reload it.
	ConfigRev     int                `gorm:"not null;default:1" json:"config_rev"`
	Status        types.BotStatus    `gorm:"type:varchar(16);not null;index" json:"status"`
	HealthStatus  types.HealthStatus `gorm:"type:varchar(16);not null;default:'unknown'" json:"health_status"`
	LastTradeTime *time.Time         `gorm:"type:timestamptz" json:"last_trade_time,omitempty"`

	CreatedAt time.Time `gorm:"type:timestamptz;autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"type:timestamptz;autoUpdateTime" json:"updated_at"`
}

func (Bot) TableName() string {
	return "bots"
}

// Pair returns the traded pair.
func (b Bot) Pair() types.Pair {
	return types.Pair{Base: b.BaseAsset, Quote: b.QuoteAsset}
}
