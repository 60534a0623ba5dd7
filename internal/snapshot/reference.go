package snapshot

import (
	"context"
	"sync"
	"time"

	"ratebot/pkg/cbr"

	"go.uber.org/zap"
)

// DailyFetcher returns the latest central bank publication.
type DailyFetcher interface {
	GetDaily(ctx context.Context) (*cbr.Snapshot, error)
}

// ReferenceLoader holds the last good central bank snapshot. It is loaded once at
// startup, refreshed on a schedule, and fetched on demand while nothing is held.
type ReferenceLoader struct {
	Fetcher DailyFetcher
	Timeout time.Duration
	Logger  *zap.Logger

	mu   sync.RWMutex
	snap *cbr.Snapshot
}

func NewReferenceLoader(fetcher DailyFetcher, timeout time.Duration, logger *zap.Logger) *ReferenceLoader {
	return &ReferenceLoader{
		Fetcher: fetcher,
		Timeout: timeout,
		Logger:  logger.With(zap.String("component", "reference")),
	}
}

// Refresh fetches a new snapshot. On failure the previous snapshot is kept.
func (l *ReferenceLoader) Refresh(ctx context.Context) error {
	if l.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.Timeout)
		defer cancel()
	}

	snap, err := l.Fetcher.GetDaily(ctx)
	if err != nil {
		l.Logger.Warn("failed to load reference rates", zap.Error(err))
		return err
	}

	l.mu.Lock()
	l.snap = snap
	l.mu.Unlock()

	l.Logger.Info("loaded reference rates",
		zap.Int("count", len(snap.Rates)),
		zap.Time("date", snap.Date))
	return nil
}

// Current returns the held snapshot without fetching. It may be nil.
func (l *ReferenceLoader) Current() *cbr.Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snap
}

// Snapshot returns the held snapshot, fetching one first if none is held.
// A nil result means the secondary feed is unavailable.
func (l *ReferenceLoader) Snapshot(ctx context.Context) *cbr.Snapshot {
	if s := l.Current(); s != nil {
		return s
	}
	_ = l.Refresh(ctx)
	return l.Current()
}
