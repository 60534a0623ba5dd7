package postgres

import (
	"time"

	"github.com/shopspring/decimal"
)

// RateRecord is one resolved rate in the history table.
type RateRecord struct {
	ID uint `gorm:"primaryKey"`

	// unique index
	Currency   string    `gorm:"type:varchar(3);not null;index:idx_rate_currency;index:idx_currency_resolved_at,unique"`
	ResolvedAt time.Time `gorm:"not null;index:idx_currency_resolved_at,unique"`

	Source string          `gorm:"type:varchar(8);not null"` // "moex" or "cbr"
	Rate   decimal.Decimal `gorm:"type:numeric(18,4);not null"`

	RecordedAt time.Time `gorm:"autoCreateTime"`
}

// TableName overrides the default table name for GORM.
func (RateRecord) TableName() string {
	return "rate_record"
}
