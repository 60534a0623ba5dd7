package schedule

import (
	"context"
	"time"

	"go.uber.org/zap"
)

// Job is one scheduled unit of work.
type Job func(ctx context.Context)

// Every runs job immediately and then every interval until ctx is done.
// It blocks; start it in its own goroutine.
func Every(ctx context.Context, interval time.Duration, job Job) {
	job(ctx)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			job(ctx)
		}
	}
}

// DailyLoader runs Load once at startup, then at each Hour:00 in Location and,
// when Interval is set, every Interval in between.
type DailyLoader struct {
	Load     func(ctx context.Context) error
	Hour     int
	Location *time.Location
	Interval time.Duration
	Logger   *zap.Logger

	now func() time.Time
}

// Run blocks until ctx is done.
func (d *DailyLoader) Run(ctx context.Context) {
	d.runOnce(ctx)

	var tick <-chan time.Time
	if d.Interval > 0 {
		ticker := time.NewTicker(d.Interval)
		defer ticker.Stop()
		tick = ticker.C
	}

	for {
		timer := time.NewTimer(d.untilNext())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			d.runOnce(ctx)
		case <-tick:
			timer.Stop()
			d.runOnce(ctx)
		}
	}
}

func (d *DailyLoader) runOnce(ctx context.Context) {
	if err := d.Load(ctx); err != nil && d.Logger != nil {
		d.Logger.Warn("scheduled load failed", zap.Error(err))
	}
}

func (d *DailyLoader) untilNext() time.Duration {
	now := time.Now
	if d.now != nil {
		now = d.now
	}
	n := now()
	return NextAt(n, d.Hour, d.Location).Sub(n)
}

// NextAt returns the first hour:00 in loc strictly after t.
func NextAt(t time.Time, hour int, loc *time.Location) time.Time {
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	next := time.Date(lt.Year(), lt.Month(), lt.Day(), hour, 0, 0, 0, loc)
	if !next.After(lt) {
		next = next.AddDate(0, 0, 1)
	}
	return next
}
