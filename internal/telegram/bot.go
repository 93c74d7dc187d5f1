package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/valentines/internal/inbound"
	"github.com/memohai/valentines/internal/router"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot relies on.
type botAPI interface {
	botClient
	MakeRequest(endpoint string, params tgbotapi.Params) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Submitter queues router events for processing.
type Submitter interface {
	Submit(ctx context.Context, ev router.Event, onDone inbound.DoneFunc) error
}

// Options configures update delivery.
type Options struct {
	WebhookURL  string
	SecretToken string
	PollTimeout int
}

// Bot receives Telegram updates, by webhook or long polling, and feeds them to the dispatcher.
type Bot struct {
	api     botAPI
	sender  *Sender
	inbound Submitter
	opts    Options
	logger  *slog.Logger

	mu      sync.Mutex
	polling bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewBotAPI creates the Bot API client and routes the library's logs through log.
func NewBotAPI(log *slog.Logger, token string) (*tgbotapi.BotAPI, error) {
	if log == nil {
		log = slog.Default()
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, errors.New("telegram bot token is required")
	}
	if err := tgbotapi.SetLogger(&slogBotLogger{log: log.With(slog.String("adapter", "telegram"))}); err != nil {
		return nil, err
	}
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		return nil, fmt.Errorf("create telegram bot: %w", err)
	}
	return api, nil
}

// NewBot creates a Bot.
func NewBot(log *slog.Logger, api botAPI, sender *Sender, submitter Submitter, opts Options) *Bot {
	if log == nil {
		log = slog.Default()
	}
	if opts.PollTimeout <= 0 {
		opts.PollTimeout = 30
	}
	return &Bot{
		api:     api,
		sender:  sender,
		inbound: submitter,
		opts:    opts,
		logger:  log.With(slog.String("adapter", "telegram")),
	}
}

// HandleUpdate converts one update and queues it. Callback queries are answered once the event
// has been handled, or right away when it is skipped.
func (b *Bot) HandleUpdate(ctx context.Context, update tgbotapi.Update) error {
	if b.inbound == nil {
		return errors.New("telegram inbound not configured")
	}
	callbackID := ""
	if update.CallbackQuery != nil {
		callbackID = update.CallbackQuery.ID
	}
	ev, ok := ToEvent(update)
	if !ok {
		b.logger.Debug("update skipped", slog.Int("update_id", update.UpdateID))
		b.answerCallback(ctx, callbackID)
		return nil
	}
	env := router.EnvelopeOf(ev)
	b.logger.Info("inbound received",
		slog.Int("update_id", update.UpdateID),
		slog.String("event", fmt.Sprintf("%T", ev)),
		slog.String("chat_id", env.ChatID),
	)
	var onDone inbound.DoneFunc
	if callbackID != "" {
		onDone = func(ctx context.Context, _ error) {
			b.answerCallback(ctx, callbackID)
		}
	}
	if err := b.inbound.Submit(ctx, ev, onDone); err != nil {
		b.logger.Error("submit update failed", slog.Int("update_id", update.UpdateID), slog.Any("error", err))
		b.answerCallback(ctx, callbackID)
		return err
	}
	return nil
}

func (b *Bot) answerCallback(ctx context.Context, callbackID string) {
	if callbackID == "" || b.sender == nil {
		return
	}
	if err := b.sender.AnswerCallback(ctx, callbackID); err != nil {
		b.logger.Warn("answer callback failed", slog.Any("error", err))
	}
}

// RegisterWebhook points Telegram at the configured webhook URL.
func (b *Bot) RegisterWebhook(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram bot not configured")
	}
	url := strings.TrimSpace(b.opts.WebhookURL)
	if url == "" {
		return errors.New("telegram webhook url is required")
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	params := tgbotapi.Params{"url": url}
	params.AddNonEmpty("secret_token", strings.TrimSpace(b.opts.SecretToken))
	if err := params.AddInterface("allowed_updates", []string{"message", "callback_query"}); err != nil {
		return err
	}
	resp, err := b.api.MakeRequest("setWebhook", params)
	if err != nil {
		return fmt.Errorf("set webhook: %w", err)
	}
	if resp != nil && !resp.Ok {
		return fmt.Errorf("set webhook: %s", resp.Description)
	}
	b.logger.Info("webhook registered", slog.String("url", url))
	return nil
}

// StartPolling consumes long-polled updates until ctx is cancelled or Stop is called.
func (b *Bot) StartPolling(ctx context.Context) error {
	if b.api == nil {
		return errors.New("telegram bot not configured")
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.polling {
		return nil
	}
	updateConfig := tgbotapi.NewUpdate(0)
	updateConfig.Timeout = b.opts.PollTimeout
	updateConfig.AllowedUpdates = []string{"message", "callback_query"}
	updates := b.api.GetUpdatesChan(updateConfig)

	pollCtx, cancel := context.WithCancel(ctx)
	b.cancel = cancel
	b.done = make(chan struct{})
	b.polling = true
	b.logger.Info("polling started", slog.Int("timeout", updateConfig.Timeout))

	go func(done chan struct{}) {
		defer close(done)
		for {
			select {
			case <-pollCtx.Done():
				b.api.StopReceivingUpdates()
				b.logger.Info("polling stopped")
				return
			case update, ok := <-updates:
				if !ok {
					b.logger.Info("updates channel closed")
					return
				}
				_ = b.HandleUpdate(pollCtx, update)
			}
		}
	}(b.done)
	return nil
}

// Stop ends polling and waits for the loop to exit.
func (b *Bot) Stop() {
	b.mu.Lock()
	cancel, done := b.cancel, b.done
	b.polling = false
	b.cancel, b.done = nil, nil
	b.mu.Unlock()
	if cancel == nil {
		return
	}
	cancel()
	<-done
}
