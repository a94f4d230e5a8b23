package models

import (
	"time"

	"github.com/rxtech-lab/argo-bots/internal/types"
)

// HealthRecord is one health evaluation. Rows are append-only.
type HealthRecord struct {
	ID      uint64             `gorm:"primaryKey;autoIncrement" json:"id"`
	BotID   string             `gorm:"type:varchar(64);not null;index:idx_health_records_bot_created,priority:1" json:"bot_id"`
	Status  types.HealthStatus `gorm:"type:varchar(16);not null" json:"status"`
	Message string             `gorm:"type:text;not null;default:''" json:"message"`
	// CheckID correlates a record with the tick or force check that produced it.
	CheckID string `gorm:"type:varchar(64);not null;default:''" json:"check_id"`

	CreatedAt time.Time `gorm:"type:timestamptz;not null;index:idx_health_records_bot_created,priority:2" json:"created_at"`
}

func (HealthRecord) TableName() string {
	return "health_records"
}
