// Package router turns inbound chat events into conversation transitions and outbound actions.
package router

import (
	"strings"

	"github.com/memohai/valentines/internal/members"
)

// Action tokens bound to inline buttons.
const (
	TokenSelectReceiver     = "SELECT_RECEIVER:"
	TokenSendValentine      = "SEND_VALENTINE"
	TokenMyValentines       = "MY_VALENTINES"
	TokenSearchMyValentines = "SEARCH_MY_VALENTINES"
	TokenBackToMenu         = "BACK_TO_MENU"
	TokenRules              = "RULES"
)

// Menu commands.
const (
	CommandStart = "start"
	CommandHelp  = "help"
)

// Envelope carries the fields shared by every inbound event.
type Envelope struct {
	ChatID string
	From   members.Profile
}

func (e Envelope) envelope() Envelope { return e }

// Event is one of CommandEvent, ActionEvent or MessageEvent.
type Event interface {
	envelope() Envelope
}

// CommandEvent is a slash command such as /start.
type CommandEvent struct {
	Envelope
	Command string
}

// ActionEvent is a button press carrying an action token.
type ActionEvent struct {
	Envelope
	Token string
}

// MessageEvent is free input. PhotoRef is set when the message carries a photo, in which case
// Caption holds the photo caption and Text is usually empty.
type MessageEvent struct {
	Envelope
	Text     string
	PhotoRef string
	Caption  string
}

// HasPhoto reports whether the message carries a photo.
func (e MessageEvent) HasPhoto() bool {
	return strings.TrimSpace(e.PhotoRef) != ""
}

// Button is an inline button: a label and the token sent back when it is pressed.
type Button struct {
	Label string
	Token string
}

// Action is one of SendText or SendPhoto.
type Action interface {
	Target() string
	isAction()
}

// SendText sends a text message with optional buttons, one per row.
type SendText struct {
	ChatID  string
	Text    string
	Buttons []Button
}

// SendPhoto sends a previously uploaded photo by its transport reference.
type SendPhoto struct {
	ChatID   string
	PhotoRef string
	Caption  string
}

func (a SendText) Target() string  { return a.ChatID }
func (a SendPhoto) Target() string { return a.ChatID }

func (SendText) isAction()  {}
func (SendPhoto) isAction() {}

// SelectReceiverToken builds the token that picks memberID as the receiver.
func SelectReceiverToken(memberID string) string {
	return TokenSelectReceiver + memberID
}

// NormalizeCommand strips the slash and any @botname suffix and lowercases the result.
func NormalizeCommand(raw string) string {
	cmd := strings.TrimPrefix(strings.TrimSpace(raw), "/")
	if idx := strings.IndexAny(cmd, "@ "); idx >= 0 {
		cmd = cmd[:idx]
	}
	return strings.ToLower(cmd)
}

// EnvelopeOf returns the chat and sender of ev.
func EnvelopeOf(ev Event) Envelope {
	if ev == nil {
		return Envelope{}
	}
	return ev.envelope()
}
