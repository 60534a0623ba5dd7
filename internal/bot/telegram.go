package bot

import (
	"context"
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Client is the subset of *tgbotapi.BotAPI the adapter uses.
type Client interface {
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram long-polls updates and dispatches commands to a Handler on a
// bounded pool of goroutines. It also delivers alert notifications.
type Telegram struct {
	client      Client
	handler     *Handler
	logger      *zap.Logger
	pollTimeout int
	workers     int
}

// NewBotAPI authorizes token against the Bot API.
func NewBotAPI(token string, debug bool) (*tgbotapi.BotAPI, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("failed to authorize telegram bot: %w", err)
	}
	api.Debug = debug
	return api, nil
}

func NewTelegram(client Client, handler *Handler, pollTimeout, workers int, logger *zap.Logger) *Telegram {
	if workers <= 0 {
		workers = 1
	}
	return &Telegram{
		client:      client,
		handler:     handler,
		logger:      logger.With(zap.String("component", "telegram")),
		pollTimeout: pollTimeout,
		workers:     workers,
	}
}

// Run polls until ctx is done, then waits for in-flight commands.
func (t *Telegram) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = t.pollTimeout
	updates := t.client.GetUpdatesChan(u)

	sem := make(chan struct{}, t.workers)
	var wg sync.WaitGroup
	defer func() {
		t.client.StopReceivingUpdates()
		wg.Wait()
	}()

	t.logger.Info("polling for updates", zap.Int("workers", t.workers))
	for {
		select {
		case <-ctx.Done():
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			req, ok := toRequest(update)
			if !ok {
				continue
			}

			select {
			case sem <- struct{}{}:
			case <-ctx.Done():
				return
			}

			wg.Add(1)
			go func() {
				defer func() {
					<-sem
					wg.Done()
				}()
				t.dispatch(ctx, req)
			}()
		}
	}
}

func (t *Telegram) dispatch(ctx context.Context, req Request) {
	reply := t.handler.Handle(ctx, req)
	if reply == "" {
		return
	}
	if err := t.Notify(ctx, req.ChatID, reply); err != nil {
		t.logger.Warn("failed to send reply",
			zap.Int64("chat_id", req.ChatID),
			zap.String("command", req.Command),
			zap.Error(err))
	}
}

// Notify sends text to chatID.
func (t *Telegram) Notify(ctx context.Context, chatID int64, text string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := t.client.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		return fmt.Errorf("send to chat %d: %w", chatID, err)
	}
	return nil
}

// toRequest extracts a command from update. Non-command messages are ignored.
func toRequest(update tgbotapi.Update) (Request, bool) {
	msg := update.Message
	if msg == nil || !msg.IsCommand() {
		return Request{}, false
	}

	req := Request{
		Command: msg.Command(),
		Args:    msg.CommandArguments(),
	}
	if msg.Chat != nil {
		req.ChatID = msg.Chat.ID
	}
	if msg.From != nil {
		req.UserID = msg.From.ID
	}
	return req, true
}
