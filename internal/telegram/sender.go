package telegram

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/memohai/valentines/internal/router"
)

// ErrSend wraps every failed outbound call.
var ErrSend = errors.New("telegram send failed")

// botClient is the subset of *tgbotapi.BotAPI used for outbound calls.
type botClient interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// Sender delivers router actions, paced by a shared token bucket.
type Sender struct {
	bot     botClient
	limiter *rate.Limiter
	logger  *slog.Logger
}

// NewSender creates a Sender. perSecond <= 0 disables pacing.
func NewSender(log *slog.Logger, bot botClient, perSecond float64, burst int) *Sender {
	if log == nil {
		log = slog.Default()
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Sender{
		bot:     bot,
		limiter: rate.NewLimiter(limit, burst),
		logger:  log.With(slog.String("adapter", "telegram")),
	}
}

// Send delivers one action.
func (s *Sender) Send(ctx context.Context, action router.Action) error {
	if s.bot == nil {
		return fmt.Errorf("%w: bot not configured", ErrSend)
	}
	if action == nil {
		return fmt.Errorf("%w: action is required", ErrSend)
	}
	chattable, err := buildChattable(action)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	if _, err := s.bot.Send(chattable); err != nil {
		s.logger.Error("send failed", slog.String("chat_id", action.Target()), slog.Any("error", err))
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	return nil
}

// AnswerCallback stops the client-side spinner of a pressed button.
func (s *Sender) AnswerCallback(ctx context.Context, callbackID string) error {
	callbackID = strings.TrimSpace(callbackID)
	if s.bot == nil || callbackID == "" {
		return nil
	}
	if err := s.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %w", ErrSend, err)
	}
	if _, err := s.bot.Request(tgbotapi.NewCallback(callbackID, "")); err != nil {
		return fmt.Errorf("%w: answer callback: %w", ErrSend, err)
	}
	return nil
}

func buildChattable(action router.Action) (tgbotapi.Chattable, error) {
	switch a := action.(type) {
	case router.SendText:
		chatID, err := parseChatID(a.ChatID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(a.Text) == "" {
			return nil, errors.New("message text is required")
		}
		msg := tgbotapi.NewMessage(chatID, a.Text)
		if markup, ok := inlineKeyboard(a.Buttons); ok {
			msg.ReplyMarkup = markup
		}
		return msg, nil
	case router.SendPhoto:
		chatID, err := parseChatID(a.ChatID)
		if err != nil {
			return nil, err
		}
		if strings.TrimSpace(a.PhotoRef) == "" {
			return nil, errors.New("photo reference is required")
		}
		photo := tgbotapi.NewPhoto(chatID, tgbotapi.FileID(a.PhotoRef))
		photo.Caption = a.Caption
		return photo, nil
	default:
		return nil, fmt.Errorf("unsupported action type %T", action)
	}
}

// inlineKeyboard lays buttons out one per row.
func inlineKeyboard(buttons []router.Button) (tgbotapi.InlineKeyboardMarkup, bool) {
	if len(buttons) == 0 {
		return tgbotapi.InlineKeyboardMarkup{}, false
	}
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(tgbotapi.NewInlineKeyboardButtonData(b.Label, b.Token)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...), true
}
