package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"ratebot/config"
	"ratebot/internal/alerts"
	"ratebot/internal/bot"
	"ratebot/internal/format"
	"ratebot/internal/memorystore"
	"ratebot/internal/metrics"
	"ratebot/internal/rates"
	"ratebot/internal/schedule"
	"ratebot/internal/snapshot"
	"ratebot/pkg/cbr"
	"ratebot/pkg/moex"
	"ratebot/pkg/storage/postgres"

	"go.uber.org/zap"
)

// App owns the bot's components and their lifecycles.
type App struct {
	cfg    *config.Config
	logger *zap.Logger

	Metrics   *metrics.BotMetrics
	Reference *snapshot.ReferenceLoader
	Resolver  *rates.Resolver
	Registry  *alerts.Registry
	Handler   *bot.Handler
	Checker   *alerts.Checker
	Telegram  *bot.Telegram

	history historyStore
}

// historyStore is the rate history table.
type historyStore interface {
	rates.Recorder
	bot.HistorySource
	DeleteOlderThan(ctx context.Context, before time.Time) (int64, error)
	IsHealthy(ctx context.Context) bool
	Close() error
}

type Option func(*options)

type options struct {
	client bot.Client
}

// WithTelegramClient replaces the Bot API connection, e.g. in tests.
func WithTelegramClient(c bot.Client) Option {
	return func(o *options) { o.client = c }
}

// New builds the pipeline: feed clients, resolver, formatter, alert registry,
// command handler and the Telegram adapter.
func New(cfg *config.Config, logger *zap.Logger, opts ...Option) (*App, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	currencies, err := rates.Select(cfg.Report.Currencies)
	if err != nil {
		return nil, fmt.Errorf("report.currencies: %w", err)
	}

	a := &App{cfg: cfg, logger: logger, Metrics: metrics.NewBotMetrics()}

	// Optional rate history
	if cfg.Postgres.Enabled {
		db, err := postgres.InitializeAndMigrate(cfg.Postgres, cfg.Env, true)
		if err != nil {
			return nil, fmt.Errorf("failed to connect to DB: %w", err)
		}
		a.history = db
	}

	// Feeds
	primary := moex.NewRESTClient(cfg.MOEX.BaseURL, cfg.MOEX.Timeout)
	reference := cbr.NewRESTClient(cfg.CBR.URL, cfg.CBR.Timeout)
	a.Reference = snapshot.NewReferenceLoader(reference, cfg.CBR.Timeout, logger)

	resolverOpts := []rates.Option{
		rates.WithBoard(cfg.MOEX.Board),
		rates.WithCurrencies(currencies),
		rates.WithObserver(a.Metrics),
		rates.WithTimeout(cfg.MOEX.Timeout + cfg.CBR.Timeout),
	}
	if a.history != nil {
		resolverOpts = append(resolverOpts, rates.WithRecorder(a.history))
	}
	a.Resolver = rates.NewResolver(primary, a.Reference, logger, resolverOpts...)

	// Presentation
	formatOpts := []format.Option{format.WithLocation(loadLocation(cfg.Report.Timezone, logger))}
	if cfg.Report.Trend {
		formatOpts = append(formatOpts, format.WithMemory(memorystore.NewRateMemory()))
	}
	formatter := format.New(currencies, formatOpts...)

	a.Registry = alerts.NewRegistry(memorystore.NewWatchStore())
	a.Handler = bot.NewHandler(a.Resolver, formatter, a.Registry, a.Metrics, logger)
	if a.history != nil {
		a.Handler.EnableHistory(a.history, cfg.Postgres.HistoryDays, loadLocation(cfg.Report.Timezone, logger))
	}

	// Transport
	client := o.client
	if client == nil {
		api, err := bot.NewBotAPI(cfg.TelegramToken(), cfg.Telegram.Debug)
		if err != nil {
			a.Close()
			return nil, err
		}
		logger.Info("authorized telegram bot", zap.String("username", api.Self.UserName))
		client = api
	}
	a.Telegram = bot.NewTelegram(client, a.Handler, cfg.Telegram.PollTimeout, cfg.Telegram.Workers, logger)

	a.Checker = &alerts.Checker{
		Registry: a.Registry,
		Source:   a.Resolver,
		Notifier: a.Telegram,
		Counter:  a.Metrics,
		Logger:   logger.With(zap.String("component", "alerts")),
	}

	return a, nil
}

// Run starts the schedulers and the metrics listener, then polls Telegram until
// ctx is done.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup

	// Reference rates: at startup, daily and on the refresh interval
	loader := &schedule.DailyLoader{
		Load:     a.Reference.Refresh,
		Hour:     a.cfg.CBR.RefreshHour,
		Location: loadLocation(a.cfg.CBR.Timezone, a.logger),
		Interval: a.cfg.CBR.RefreshInterval,
		Logger:   a.logger.With(zap.String("component", "scheduler")),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		loader.Run(ctx)
	}()

	// Alert checks
	if a.cfg.Alerts.CheckInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			schedule.Every(ctx, a.cfg.Alerts.CheckInterval, a.Checker.Tick)
		}()
	}

	// History retention
	if a.history != nil && a.cfg.Postgres.Retention > 0 && a.cfg.Postgres.PruneInterval > 0 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			schedule.Every(ctx, a.cfg.Postgres.PruneInterval, a.pruneHistory)
		}()
	}

	var srv *http.Server
	if a.cfg.Metrics.Addr != "" {
		srv = a.serveMetrics(a.cfg.Metrics.Addr)
	}

	a.Telegram.Run(ctx)

	cancel()
	if srv != nil {
		shutdownCtx, done := context.WithTimeout(context.Background(), 5*time.Second)
		defer done()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			a.logger.Warn("metrics server shutdown", zap.Error(err))
		}
	}
	wg.Wait()

	return a.Close()
}

// pruneHistory deletes history rows older than the retention period.
func (a *App) pruneHistory(ctx context.Context) {
	before := time.Now().Add(-a.cfg.Postgres.Retention)
	n, err := a.history.DeleteOlderThan(ctx, before)
	if err != nil {
		a.logger.Warn("failed to prune rate history", zap.Error(err))
		return
	}
	if n > 0 {
		a.logger.Info("pruned rate history", zap.Int64("rows", n), zap.Time("before", before))
	}
}

// routes serves /metrics and /healthz. Health fails only when the history
// database is enabled and unreachable.
func (a *App) routes() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", a.Metrics.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		if a.history != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if !a.history.IsHealthy(ctx) {
				http.Error(w, "history database unreachable", http.StatusServiceUnavailable)
				return
			}
		}
		_, _ = w.Write([]byte("ok"))
	})
	return mux
}

func (a *App) serveMetrics(addr string) *http.Server {
	srv := &http.Server{
		Addr:              addr,
		Handler:           a.routes(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		a.logger.Info("serving metrics", zap.String("addr", addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.logger.Error("metrics server failed", zap.Error(err))
		}
	}()
	return srv
}

// Close releases the history database, if any.
func (a *App) Close() error {
	if a.history == nil {
		return nil
	}
	err := a.history.Close()
	a.history = nil
	return err
}

func loadLocation(name string, logger *zap.Logger) *time.Location {
	if name == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		logger.Warn("unknown timezone, using UTC", zap.String("timezone", name), zap.Error(err))
		return time.UTC
	}
	return loc
}
