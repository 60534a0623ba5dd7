package bot

import (
	"context"
	"fmt"
	"strings"
	"time"

	"ratebot/internal/rates"
	"ratebot/pkg/storage/postgres"

	"go.uber.org/zap"
)

const (
	historyUsage       = "usage: /history <code>"
	historyOffMessage  = "Rate history is not enabled."
	historyFailMessage = "Sorry, rate history is unavailable at the moment."
)

// HistorySource returns the stored rates of one currency resolved in [from, to),
// oldest first.
type HistorySource interface {
	GetHistory(ctx context.Context, currency string, from, to time.Time) ([]postgres.RateRecord, error)
}

type history struct {
	source   HistorySource
	days     int
	location *time.Location
	now      func() time.Time
}

// EnableHistory turns on /history, answering with the last stored rate of each
// of the past days, split in loc.
func (h *Handler) EnableHistory(src HistorySource, days int, loc *time.Location) {
	if days <= 0 {
		days = 7
	}
	if loc == nil {
		loc = time.UTC
	}
	h.history = &history{source: src, days: days, location: loc, now: time.Now}
}

func (h *Handler) rateHistory(ctx context.Context, req Request, log *zap.Logger) string {
	if h.history == nil {
		return historyOffMessage
	}

	c, ok := rates.ParseCurrency(req.Args)
	if !ok {
		return historyUsage + "\nSupported currencies: " + supportedCodes() + "."
	}

	hs := h.history
	to := hs.now().In(hs.location)
	from := to.AddDate(0, 0, -hs.days)

	recs, err := hs.source.GetHistory(ctx, string(c), from, to)
	if err != nil {
		log.Warn("failed to load rate history", zap.String("currency", string(c)), zap.Error(err))
		return historyFailMessage
	}
	if len(recs) == 0 {
		return fmt.Sprintf("No %s rates recorded in the last %d days.", c, hs.days)
	}

	log.Info("user requested rate history", zap.String("currency", string(c)), zap.Int("records", len(recs)))
	return formatHistory(c, hs.days, dailyLast(recs, hs.location), hs.location)
}

// dailyLast keeps the latest record of each calendar day in loc. recs must be
// ordered oldest first.
func dailyLast(recs []postgres.RateRecord, loc *time.Location) []postgres.RateRecord {
	var out []postgres.RateRecord
	for _, rec := range recs {
		if n := len(out); n > 0 && sameDay(out[n-1].ResolvedAt, rec.ResolvedAt, loc) {
			out[n-1] = rec
			continue
		}
		out = append(out, rec)
	}
	return out
}

func sameDay(a, b time.Time, loc *time.Location) bool {
	ay, am, ad := a.In(loc).Date()
	by, bm, bd := b.In(loc).Date()
	return ay == by && am == bm && ad == bd
}

func formatHistory(c rates.Currency, days int, recs []postgres.RateRecord, loc *time.Location) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s rates, last %d days:", c, days)
	for _, rec := range recs {
		fmt.Fprintf(&b, "\n%s  1%s = %s ROUBLES (%s)",
			rec.ResolvedAt.In(loc).Format("02.01.2006"), c, rec.Rate.StringFixed(4), rec.Source)
	}
	return b.String()
}
