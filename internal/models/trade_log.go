package models

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/rxtech-lab/argo-bots/internal/types"
)

// TradeLog is one executed trade. Rows are append-only.
type TradeLog struct {
	ID      uint64          `gorm:"primaryKey;autoIncrement" json:"id"`
	BotID   string          `gorm:"type:varchar(64);not null;index:idx_trade_logs_bot_created,priority:1" json:"bot_id"`
	Side    types.Side      `gorm:"type:varchar(8);not null" json:"side"`
	Amount  decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"amount"`
	Price   decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"price"`
	CostUSD decimal.Decimal `gorm:"type:numeric(30,10);not null" json:"cost_usd"`
	OrderID string          `gorm:"type:varchar(64);not null;default:''" json:"order_id"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_trade_logs_bot_created,priority:2" json:"created_at"`
}

func (TradeLog) TableName() string {
	return "trade_logs"
}
