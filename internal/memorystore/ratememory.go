package memorystore

import (
	"sync"

	"github.com/shopspring/decimal"
)

// RateMemory keeps the last rate reported per currency for the lifetime of the
// process. It is safe for concurrent use.
type RateMemory struct {
	mu   sync.Mutex
	data map[string]decimal.Decimal
}

func NewRateMemory() *RateMemory {
	return &RateMemory{
		data: make(map[string]decimal.Decimal),
	}
}

// Swap stores rate and returns the value it replaced.
func (m *RateMemory) Swap(code string, rate decimal.Decimal) (decimal.Decimal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	prev, ok := m.data[code]
	m.data[code] = rate
	return prev, ok
}
