package alerts

import (
	"context"
	"fmt"
	"time"

	"ratebot/internal/memorystore"
	"ratebot/internal/rates"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Notification is a fired watch and the rate that satisfied it.
type Notification struct {
	Watch memorystore.Watch
	Rate  decimal.Decimal
}

// Text is the chat message delivered for the notification.
func (n Notification) Text() string {
	return fmt.Sprintf("ALERT: 1%s = %s ROUBLES (%s %s %s)",
		n.Watch.Currency, n.Rate.StringFixed(4),
		n.Watch.Currency, n.Watch.Op, n.Watch.Threshold.StringFixed(4))
}

// Notifier delivers a message to a chat.
type Notifier interface {
	Notify(ctx context.Context, chatID int64, text string) error
}

// RateSource resolves the current rates.
type RateSource interface {
	Resolve(ctx context.Context) rates.RateSet
}

// Counter is told how many watches fired per check.
type Counter interface {
	AlertsFired(n int)
}

// Registry holds per-chat one-shot watches.
type Registry struct {
	store *memorystore.WatchStore
	now   func() time.Time
}

func NewRegistry(store *memorystore.WatchStore) *Registry {
	if store == nil {
		store = memorystore.NewWatchStore()
	}
	return &Registry{store: store, now: time.Now}
}

// Add registers a watch for chatID.
func (r *Registry) Add(chatID int64, s Spec) memorystore.Watch {
	return r.store.Add(memorystore.Watch{
		ChatID:    chatID,
		Currency:  string(s.Currency),
		Op:        string(s.Op),
		Threshold: s.Threshold,
		CreatedAt: r.now(),
	})
}

// List returns the chat's pending watches.
func (r *Registry) List(chatID int64) []memorystore.Watch {
	return r.store.GetByChat(chatID)
}

// Clear drops the chat's watches and returns how many there were.
func (r *Registry) Clear(chatID int64) int {
	return r.store.RemoveChat(chatID)
}

func (r *Registry) Len() int {
	return r.store.CountAll()
}

// Check returns one notification per watch satisfied by rs and removes those
// watches. Watches whose currency is unavailable in rs are kept.
func (r *Registry) Check(rs rates.RateSet) []Notification {
	if len(rs) == 0 {
		return nil
	}

	fired := r.store.Take(func(w memorystore.Watch) bool {
		rate, ok := rs.Get(rates.Currency(w.Currency))
		return ok && Op(w.Op).Holds(rate, w.Threshold)
	})

	out := make([]Notification, 0, len(fired))
	for _, w := range fired {
		rate, _ := rs.Get(rates.Currency(w.Currency))
		out = append(out, Notification{Watch: w, Rate: rate})
	}
	return out
}

// Checker resolves rates, checks the registry and delivers notifications.
type Checker struct {
	Registry *Registry
	Source   RateSource
	Notifier Notifier
	Counter  Counter
	Logger   *zap.Logger
}

// Tick runs one check cycle. It skips resolution when no watch is registered.
func (c *Checker) Tick(ctx context.Context) {
	if c.Registry.Len() == 0 {
		return
	}

	fired := c.Registry.Check(c.Source.Resolve(ctx))
	if c.Counter != nil {
		c.Counter.AlertsFired(len(fired))
	}

	for _, n := range fired {
		if err := c.Notifier.Notify(ctx, n.Watch.ChatID, n.Text()); err != nil {
			c.Logger.Warn("failed to deliver alert",
				zap.Int64("chat_id", n.Watch.ChatID),
				zap.Uint64("watch_id", n.Watch.ID),
				zap.Error(err))
			continue
		}
		c.Logger.Info("alert delivered",
			zap.Int64("chat_id", n.Watch.ChatID),
			zap.String("currency", n.Watch.Currency),
			zap.String("rate", n.Rate.StringFixed(4)))
	}
}
