package db

import (
	"github.com/rxtech-lab/argo-bots/internal/models"
)

func AutoMigrate(db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}

	return db.Gorm.AutoMigrate(
		&models.Bot{},
		&models.ExchangeCredential{},
		&models.TradeLog{},
		&models.HealthRecord{},
	)
}
