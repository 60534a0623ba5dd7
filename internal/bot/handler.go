package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"ratebot/internal/alerts"
	"ratebot/internal/convert"
	"ratebot/internal/format"
	"ratebot/internal/rates"

	"go.uber.org/zap"
)

const (
	stopMessage       = "Bot stopped. Use /start to begin again."
	unknownMessage    = "Unknown command. Use /help to see what I can do."
	noAlertsMessage   = "You have no active alerts."
	rateCommandSuffix = "rate"
)

// Request is one incoming chat command.
type Request struct {
	ChatID  int64
	UserID  int64
	Command string // without the leading slash, e.g. "usdrate"
	Args    string
}

// RateSource resolves the current rates.
type RateSource interface {
	Resolve(ctx context.Context) rates.RateSet
}

// CommandRecorder counts handled commands.
type CommandRecorder interface {
	RecordCommand(command string)
}

// Handler turns chat commands into reply text.
type Handler struct {
	rates     RateSource
	formatter *format.Formatter
	alerts    *alerts.Registry
	recorder  CommandRecorder
	history   *history
	logger    *zap.Logger
}

func NewHandler(src RateSource, f *format.Formatter, reg *alerts.Registry, rec CommandRecorder, logger *zap.Logger) *Handler {
	return &Handler{
		rates:     src,
		formatter: f,
		alerts:    reg,
		recorder:  rec,
		logger:    logger.With(zap.String("component", "handler")),
	}
}

// Handle dispatches req and returns the reply text.
func (h *Handler) Handle(ctx context.Context, req Request) string {
	cmd := strings.ToLower(req.Command)
	if h.recorder != nil {
		h.recorder.RecordCommand(metricLabel(cmd))
	}

	log := h.logger.With(zap.Int64("user_id", req.UserID), zap.String("command", cmd))

	switch cmd {
	case "start", "help":
		log.Info("user started the bot")
		return welcomeMessage()
	case "stop":
		n := h.alerts.Clear(req.ChatID)
		log.Info("user stopped the bot", zap.Int("alerts_removed", n))
		return stopMessage
	case "allrates":
		log.Info("user requested all rates")
		return h.formatter.Format(h.rates.Resolve(ctx))
	case "convert":
		return h.convert(ctx, req, log)
	case "alert":
		return h.addAlert(req, log)
	case "alerts":
		return h.listAlerts(req)
	case "history":
		return h.rateHistory(ctx, req, log)
	}

	if c, ok := rateCommand(cmd); ok {
		log.Info("user requested rate", zap.String("currency", string(c)))
		return h.formatter.FormatCurrency(h.rates.Resolve(ctx), c)
	}
	return unknownMessage
}

func (h *Handler) convert(ctx context.Context, req Request, log *zap.Logger) string {
	r, err := convert.ParseRequest(req.Args)
	if err != nil {
		return convertError(err)
	}

	res, err := convert.Convert(r.Amount, r.From, r.To, h.rates.Resolve(ctx))
	if err != nil {
		log.Info("conversion failed", zap.Error(err))
		return convertError(err)
	}
	return res.String()
}

func (h *Handler) addAlert(req Request, log *zap.Logger) string {
	spec, err := alerts.ParseSpec(req.Args)
	if err != nil {
		return alertError(err)
	}

	w := h.alerts.Add(req.ChatID, spec)
	log.Info("alert registered", zap.Uint64("watch_id", w.ID), zap.String("alert", spec.String()))
	return fmt.Sprintf("Alert set: %s. I will notify you once.", spec)
}

func (h *Handler) listAlerts(req Request) string {
	watches := h.alerts.List(req.ChatID)
	if len(watches) == 0 {
		return noAlertsMessage
	}

	lines := make([]string, 0, len(watches)+1)
	lines = append(lines, "Active alerts:")
	for _, w := range watches {
		lines = append(lines, fmt.Sprintf("#%d %s %s %s", w.ID, w.Currency, w.Op, w.Threshold.StringFixed(4)))
	}
	return strings.Join(lines, "\n")
}

// rateCommand maps "usdrate" etc. to the tracked currency.
func rateCommand(cmd string) (rates.Currency, bool) {
	code, ok := strings.CutSuffix(cmd, rateCommandSuffix)
	if !ok || code == "" {
		return "", false
	}
	return rates.ParseCurrency(code)
}

func metricLabel(cmd string) string {
	switch cmd {
	case "start", "help", "stop", "allrates", "convert", "alert", "alerts", "history":
		return cmd
	}
	if _, ok := rateCommand(cmd); ok {
		return cmd
	}
	return "unknown"
}

func convertError(err error) string {
	switch {
	case errors.Is(err, convert.ErrAmountTooSmall):
		return "Amount is too small: the result is less than 0.01."
	case errors.Is(err, convert.ErrInvalidAmount):
		return "Amount must be a positive number. " + convert.ErrUsage.Error()
	case errors.Is(err, convert.ErrUnsupportedCurrency):
		return "Supported currencies: " + supportedCodes() + ", RUB."
	case errors.Is(err, convert.ErrRateUnavailable):
		return "Sorry, the rate needed for this conversion is unavailable at the moment."
	default:
		return convert.ErrUsage.Error()
	}
}

func alertError(err error) string {
	switch {
	case errors.Is(err, alerts.ErrInvalidOperator):
		return "Operator must be one of >, <, >=, <=. " + alerts.ErrUsage.Error()
	case errors.Is(err, alerts.ErrInvalidThreshold):
		return "Threshold must be a positive number. " + alerts.ErrUsage.Error()
	case errors.Is(err, alerts.ErrUnsupportedCurrency):
		return "Supported currencies: " + supportedCodes() + "."
	default:
		return alerts.ErrUsage.Error()
	}
}

func supportedCodes() string {
	codes := make([]string, len(rates.All))
	for i, c := range rates.All {
		codes[i] = string(c)
	}
	return strings.Join(codes, ", ")
}

func welcomeMessage() string {
	var b strings.Builder
	b.WriteString("Welcome to Currency Exchange Rate Bot!\n\n")
	b.WriteString("Available commands:\n")
	b.WriteString("/start - Start the bot\n")
	b.WriteString("/stop - Stop the bot and drop your alerts\n")
	for _, c := range rates.All {
		fmt.Fprintf(&b, "/%s%s - Get %s rate\n", strings.ToLower(string(c)), rateCommandSuffix, c)
	}
	b.WriteString("/allrates - Get all rates\n")
	b.WriteString("/convert <amount> <code> to <code> - Convert an amount\n")
	b.WriteString("/alert <code> <op> <threshold> - Notify once when a rate crosses a threshold\n")
	b.WriteString("/alerts - List your alerts\n")
	b.WriteString("/history <code> - Recent daily rates")
	return b.String()
}
