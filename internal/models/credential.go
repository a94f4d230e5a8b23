package models

import "time"

// ExchangeCredential holds the sealed API material for one (client, exchange).
// The plaintext never touches this row.
type ExchangeCredential struct {
	ID         uint64 `gorm:"primaryKey;autoIncrement"`
	ClientID   string `gorm:"type:varchar(64);not null;uniqueIndex:uniq_credential_client_exchange"`
	Exchange   string `gorm:"type:varchar(32);not null;uniqueIndex:uniq_credential_client_exchange"`
	Ciphertext []byte `gorm:"type:bytea;not null"`

	CreatedAt time.Time  `gorm:"type:timestamptz;autoCreateTime"`
	UpdatedAt time.Time  `gorm:"type:timestamptz;autoUpdateTime"`
	RotatedAt *time.Time `gorm:"type:timestamptz"`
}

func (ExchangeCredential) TableName() string {
	return "exchange_credentials"
}
