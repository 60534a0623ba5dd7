package rates

import (
	"context"
	"time"

	"ratebot/pkg/cbr"
	"ratebot/pkg/moex"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// Source names the feed a rate came from.
type Source string

const (
	SourceMOEX Source = "moex"
	SourceCBR  Source = "cbr"
)

// PrimaryFeed is the exchange snapshot client.
type PrimaryFeed interface {
	GetSecurities(ctx context.Context, secIDs []string) (*moex.SecuritiesResponse, error)
}

// ReferenceSource yields the held central bank snapshot, or nil.
type ReferenceSource interface {
	Snapshot(ctx context.Context) *cbr.Snapshot
}

// Recorder persists resolutions, e.g. into the rate history table.
type Recorder interface {
	RecordResolution(ctx context.Context, res Resolution) error
}

// Observer receives feed and resolution outcomes.
type Observer interface {
	ObserveFeed(feed string, d time.Duration, err error)
	ObserveResolution(res Resolution)
}

// Resolution is a RateSet with provenance.
type Resolution struct {
	Rates      RateSet
	Sources    map[Currency]Source
	ResolvedAt time.Time
}

func (r Resolution) clone() Resolution {
	src := make(map[Currency]Source, len(r.Sources))
	for k, v := range r.Sources {
		src[k] = v
	}
	return Resolution{Rates: r.Rates.Clone(), Sources: src, ResolvedAt: r.ResolvedAt}
}

// Resolver merges the primary and secondary feeds into a RateSet.
type Resolver struct {
	primary   PrimaryFeed
	reference ReferenceSource
	logger    *zap.Logger

	board    string
	table    []Preference
	observer Observer
	recorder Recorder
	timeout  time.Duration
	now      func() time.Time

	group singleflight.Group
}

type Option func(*Resolver)

// WithBoard sets the authoritative trading board.
func WithBoard(board string) Option {
	return func(r *Resolver) { r.board = board }
}

// WithCurrencies restricts resolution to the given currencies.
func WithCurrencies(cs []Currency) Option {
	return func(r *Resolver) { r.table = PreferencesFor(r.table, cs) }
}

func WithObserver(o Observer) Option {
	return func(r *Resolver) { r.observer = o }
}

func WithRecorder(rec Recorder) Option {
	return func(r *Resolver) { r.recorder = rec }
}

// WithTimeout bounds one shared resolution, both feeds included.
func WithTimeout(d time.Duration) Option {
	return func(r *Resolver) {
		if d > 0 {
			r.timeout = d
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(r *Resolver) { r.now = now }
}

func NewResolver(primary PrimaryFeed, reference ReferenceSource, logger *zap.Logger, opts ...Option) *Resolver {
	r := &Resolver{
		primary:   primary,
		reference: reference,
		logger:    logger.With(zap.String("component", "resolver")),
		board:     "CETS",
		table:     DefaultPreferences,
		timeout:   30 * time.Second,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Resolve returns the current rates. It never fails: feed errors leave
// currencies absent.
func (r *Resolver) Resolve(ctx context.Context) RateSet {
	return r.ResolveDetailed(ctx).Rates
}

// ResolveDetailed is Resolve with per-currency sources. Concurrent callers share
// one outbound round trip and each get their own copy. The round trip keeps the
// values of ctx but not its cancellation; it is bounded by the resolver timeout.
func (r *Resolver) ResolveDetailed(ctx context.Context) Resolution {
	v, _, _ := r.group.Do("resolve", func() (any, error) {
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.timeout)
		defer cancel()
		return r.resolve(ctx), nil
	})
	return v.(Resolution).clone()
}

func (r *Resolver) resolve(ctx context.Context) Resolution {
	res := Resolution{
		Rates:      make(RateSet, len(r.table)),
		Sources:    make(map[Currency]Source, len(r.table)),
		ResolvedAt: r.now(),
	}

	obs := r.fetchPrimary(ctx)
	for _, p := range r.table {
		if rate, ok := p.Pick(obs); ok {
			res.Rates[p.Currency] = rate
			res.Sources[p.Currency] = SourceMOEX
		}
	}

	if len(res.Rates) < len(r.table) {
		r.fillFromReference(ctx, &res)
	}

	for _, p := range r.table {
		if _, ok := res.Rates[p.Currency]; !ok {
			r.logger.Warn("rate unavailable", zap.String("currency", string(p.Currency)))
		}
	}

	if r.observer != nil {
		r.observer.ObserveResolution(res)
	}
	if r.recorder != nil && len(res.Rates) > 0 {
		if err := r.recorder.RecordResolution(ctx, res); err != nil {
			r.logger.Warn("failed to record rates", zap.Error(err))
		}
	}

	return res
}

// fetchPrimary returns the board observations, or nil when the feed failed.
func (r *Resolver) fetchPrimary(ctx context.Context) map[string]moex.PriceObservation {
	start := time.Now()
	resp, err := r.primary.GetSecurities(ctx, SecIDs(r.table))
	if r.observer != nil {
		r.observer.ObserveFeed(string(SourceMOEX), time.Since(start), err)
	}
	if err != nil {
		r.logger.Warn("primary feed failed, using reference rates", zap.Error(err))
		return nil
	}

	obs := resp.Observations(r.board)
	r.logger.Debug("primary feed loaded", zap.Int("securities", len(obs)), zap.String("board", r.board))
	return obs
}

// fillFromReference fills exactly the currencies the primary feed left empty.
func (r *Resolver) fillFromReference(ctx context.Context, res *Resolution) {
	if r.reference == nil {
		return
	}

	start := time.Now()
	snap := r.reference.Snapshot(ctx)
	if r.observer != nil {
		var err error
		if snap == nil {
			err = errReferenceUnavailable
		}
		r.observer.ObserveFeed(string(SourceCBR), time.Since(start), err)
	}
	if snap == nil {
		return
	}

	for _, p := range r.table {
		if _, ok := res.Rates[p.Currency]; ok {
			continue
		}
		rate, ok := snap.Rate(string(p.Currency))
		if !ok {
			continue
		}
		rate = rate.Round(4)
		if !rate.IsPositive() {
			continue
		}
		res.Rates[p.Currency] = rate
		res.Sources[p.Currency] = SourceCBR
		r.logger.Debug("filled from reference", zap.String("currency", string(p.Currency)), zap.String("rate", rate.String()))
	}
}
