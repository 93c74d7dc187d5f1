// Package telegram connects the router to the Telegram Bot API.
package telegram

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/router"
)

const privateChat = "private"

// ParseUpdate decodes a raw webhook body.
func ParseUpdate(body []byte) (tgbotapi.Update, error) {
	var update tgbotapi.Update
	if err := json.Unmarshal(body, &update); err != nil {
		return tgbotapi.Update{}, fmt.Errorf("decode telegram update: %w", err)
	}
	return update, nil
}

// ToEvent converts an update into a router event. ok is false for updates the bot does not handle:
// edits, channel posts, group chats and anything without a sender.
func ToEvent(update tgbotapi.Update) (router.Event, bool) {
	if cq := update.CallbackQuery; cq != nil {
		if cq.From == nil || cq.Message == nil || cq.Message.Chat == nil || cq.Message.Chat.Type != privateChat {
			return nil, false
		}
		return router.ActionEvent{
			Envelope: router.Envelope{ChatID: formatID(cq.Message.Chat.ID), From: resolveProfile(cq.From)},
			Token:    strings.TrimSpace(cq.Data),
		}, true
	}

	msg := update.Message
	if msg == nil || msg.From == nil || msg.Chat == nil || msg.Chat.Type != privateChat {
		return nil, false
	}
	env := router.Envelope{ChatID: formatID(msg.Chat.ID), From: resolveProfile(msg.From)}
	if msg.IsCommand() {
		switch cmd := strings.ToLower(msg.Command()); cmd {
		case router.CommandStart, router.CommandHelp:
			return router.CommandEvent{Envelope: env, Command: cmd}, true
		}
	}
	ev := router.MessageEvent{
		Envelope: env,
		Text:     strings.TrimSpace(msg.Text),
	}
	if len(msg.Photo) > 0 {
		ev.PhotoRef = pickPhoto(msg.Photo).FileID
		ev.Caption = strings.TrimSpace(msg.Caption)
	}
	return ev, true
}

func resolveProfile(user *tgbotapi.User) members.Profile {
	if user == nil {
		return members.Profile{}
	}
	displayName := strings.TrimSpace(strings.TrimSpace(user.FirstName + " " + user.LastName))
	if displayName == "" {
		displayName = strings.TrimSpace(user.UserName)
	}
	return members.Profile{
		ExternalID:  formatID(user.ID),
		DisplayName: displayName,
		Handle:      strings.TrimSpace(user.UserName),
	}
}

// pickPhoto returns the largest size Telegram offers for a photo.
func pickPhoto(items []tgbotapi.PhotoSize) tgbotapi.PhotoSize {
	if len(items) == 0 {
		return tgbotapi.PhotoSize{}
	}
	best := items[0]
	for _, item := range items[1:] {
		if item.FileSize > best.FileSize {
			best = item
			continue
		}
		if item.FileSize == best.FileSize && item.Width*item.Height > best.Width*best.Height {
			best = item
		}
	}
	return best
}

func formatID(id int64) string {
	return strconv.FormatInt(id, 10)
}

func parseChatID(raw string) (int64, error) {
	value := strings.TrimSpace(raw)
	if value == "" {
		return 0, fmt.Errorf("telegram chat id is required")
	}
	chatID, err := strconv.ParseInt(value, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("telegram chat id must be numeric: %q", raw)
	}
	return chatID, nil
}
