package memorystore

import (
	"time"

	"github.com/shopspring/decimal"
)

// Watch is a one-shot threshold alert registered by a chat.
type Watch struct {
	ID        uint64          `json:"id"`        // assigned by WatchStore.Add
	ChatID    int64           `json:"chat_id"`   // chat that receives the notification
	Currency  string          `json:"currency"`  // tracked code, e.g. "USD"
	Op        string          `json:"op"`        // comparison: ">", "<", ">=", "<="
	Threshold decimal.Decimal `json:"threshold"` // roubles per unit
	CreatedAt time.Time       `json:"created_at"`
}
