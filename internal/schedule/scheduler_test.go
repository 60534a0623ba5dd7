package schedule

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

// go test -v --run TestNextAt
func TestNextAt(t *testing.T) {
	msk := time.FixedZone("MSK", 3*60*60)

	// 20:30 UTC is 23:30 MSK, next midnight MSK is 21:00 UTC.
	got := NextAt(time.Date(2024, 3, 7, 20, 30, 0, 0, time.UTC), 0, msk)
	assert.True(t, got.Equal(time.Date(2024, 3, 7, 21, 0, 0, 0, time.UTC)), "got %s", got)

	// Exactly on the hour moves to the next day.
	at := time.Date(2024, 3, 7, 9, 0, 0, 0, time.UTC)
	got = NextAt(at, 9, nil)
	assert.True(t, got.Equal(at.Add(24*time.Hour)))

	got = NextAt(time.Date(2024, 3, 7, 8, 59, 0, 0, time.UTC), 9, nil)
	assert.True(t, got.Equal(at))
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var runs atomic.Int32

	done := make(chan struct{})
	go func() {
		Every(ctx, 5*time.Millisecond, func(context.Context) {
			if runs.Add(1) == 3 {
				cancel()
			}
		})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Every did not return after cancel")
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(3))
}

// go test -v --run TestDailyLoader
func TestDailyLoader(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var runs atomic.Int32
	loaded := make(chan struct{}, 10)
	d := &DailyLoader{
		Load: func(context.Context) error {
			runs.Add(1)
			loaded <- struct{}{}
			return errors.New("feed down")
		},
		Interval: 10 * time.Millisecond,
		Logger:   zap.NewNop(),
	}
	go d.Run(ctx)

	for i := 0; i < 2; i++ {
		select {
		case <-loaded:
		case <-time.After(2 * time.Second):
			t.Fatalf("load %d did not run", i+1)
		}
	}
	assert.GreaterOrEqual(t, runs.Load(), int32(2), "runs at startup and on the interval")
}
