package handlers

import (
	"context"
	"crypto/subtle"
	"io"
	"log/slog"
	"net/http"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/labstack/echo/v4"

	"github.com/memohai/valentines/internal/telegram"
)

// SecretTokenHeader carries the secret registered with setWebhook.
const SecretTokenHeader = "X-Telegram-Bot-Api-Secret-Token"

const maxUpdateBytes = 1 << 20

// UpdateHandler consumes decoded Telegram updates.
type UpdateHandler interface {
	HandleUpdate(ctx context.Context, update tgbotapi.Update) error
}

// WebhookHandler receives Telegram updates. Every accepted request is acknowledged with
// {"ok": true}, whatever happens downstream, so Telegram does not redeliver.
type WebhookHandler struct {
	path    string
	secret  string
	updates UpdateHandler
	logger  *slog.Logger
}

// NewWebhookHandler creates a webhook handler mounted at path.
func NewWebhookHandler(log *slog.Logger, path, secret string, updates UpdateHandler) *WebhookHandler {
	if log == nil {
		log = slog.Default()
	}
	path = strings.TrimSpace(path)
	if path == "" {
		path = "/telegram/webhook"
	}
	return &WebhookHandler{
		path:    path,
		secret:  strings.TrimSpace(secret),
		updates: updates,
		logger:  log.With(slog.String("handler", "webhook")),
	}
}

// Register mounts POST <path>.
func (h *WebhookHandler) Register(e *echo.Echo) {
	e.POST(h.path, h.Receive)
}

// Receive checks the secret token, decodes the update and hands it over.
func (h *WebhookHandler) Receive(c echo.Context) error {
	if h.secret != "" {
		got := c.Request().Header.Get(SecretTokenHeader)
		if subtle.ConstantTimeCompare([]byte(got), []byte(h.secret)) != 1 {
			h.logger.Warn("webhook secret mismatch", slog.String("remote_ip", c.RealIP()))
			return c.JSON(http.StatusUnauthorized, ErrorResponse{Message: "invalid secret token"})
		}
	}

	body, err := io.ReadAll(io.LimitReader(c.Request().Body, maxUpdateBytes))
	if err != nil {
		h.logger.Warn("read webhook body failed", slog.Any("error", err))
		return acknowledge(c)
	}
	update, err := telegram.ParseUpdate(body)
	if err != nil {
		h.logger.Warn("malformed update acknowledged", slog.Any("error", err))
		return acknowledge(c)
	}
	if h.updates == nil {
		h.logger.Error("webhook update handler not configured")
		return acknowledge(c)
	}
	if err := h.updates.HandleUpdate(c.Request().Context(), update); err != nil {
		h.logger.Error("handle update failed", slog.Int("update_id", update.UpdateID), slog.Any("error", err))
	}
	return acknowledge(c)
}

func acknowledge(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
