package router

import (
	"fmt"
	"time"
	"unicode/utf16"

	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/valentines"
)

const (
	textPromptMessage   = "✍️ Write your valentine. You can attach a photo with a caption."
	textSelfSelected    = "🙃 You can't send a valentine to yourself. Pick someone else."
	textNoOtherMembers  = "No other members yet 😢"
	textChooseReceiver  = "Choose a recipient 💖"
	textNoValentines    = "📥 You have no valentines yet 💔"
	textWhatNext        = "What next?"
	textSearchPrompt    = "🔍 Enter the text to search for"
	textNothingFound    = "🔍 Nothing found"
	textMainMenu        = "Main menu 👇"
	textRules           = "ℹ️ Rules:\n• Stay anonymous\n• Be kind\n• No spam"
	textSent            = "✅ Valentine sent!"
	textAfterSend       = "What next? 👇"
	textUseMenu         = "Use the menu 👇"
	textRelayHeader     = "💌 You received an anonymous valentine"
	textListingHeader   = "💌 Anonymous valentine"
	labelSendValentine  = "💌 Send a valentine"
	labelMyValentines   = "📥 My valentines"
	labelRules          = "ℹ️ Rules"
	labelSearch         = "🔍 Search"
	labelBackToMenu     = "⬅️ Back"
	welcomeTemplate     = "💌 Hi, %s! Welcome to the anonymous valentines of %s 😀"
	relayTextTemplate   = textRelayHeader + ":\n\n\"%s\""
	relayPhotoTemplate  = textRelayHeader + ":\n\n%s"
	listingTemplate     = textListingHeader + "\n🕒 %s\n\n%s"
	listingLineTemplate = textListingHeader + "\n🕒 %s"
)

// Telegram rejects longer bodies. Lengths are counted in UTF-16 code units, as the Bot API does.
const (
	maxTextLength    = 4096
	maxCaptionLength = 1024
)

func mainMenu() []Button {
	return []Button{
		{Label: labelSendValentine, Token: TokenSendValentine},
		{Label: labelMyValentines, Token: TokenMyValentines},
		{Label: labelRules, Token: TokenRules},
	}
}

func whatNextMenu() []Button {
	return []Button{
		{Label: labelSearch, Token: TokenSearchMyValentines},
		{Label: labelBackToMenu, Token: TokenBackToMenu},
	}
}

func receiverButtons(items []members.Member) []Button {
	buttons := make([]Button, 0, len(items))
	for _, m := range items {
		buttons = append(buttons, Button{Label: m.DisplayName, Token: SelectReceiverToken(m.ID)})
	}
	return buttons
}

func welcomeText(displayName, community string) string {
	return fmt.Sprintf(welcomeTemplate, displayName, community)
}

func relayText(message string) string {
	return fmt.Sprintf(relayTextTemplate, message)
}

func relayCaption(caption string) string {
	if caption == "" {
		return textRelayHeader
	}
	return fmt.Sprintf(relayPhotoTemplate, caption)
}

// relay addresses the valentine to chatID. When the header would push the content past
// Telegram's limit, the header goes out as its own message and the content is sent as is.
func relay(chatID string, e MessageEvent) []Action {
	if e.HasPhoto() {
		caption := relayCaption(e.Caption)
		if textLength(caption) <= maxCaptionLength {
			return []Action{SendPhoto{ChatID: chatID, PhotoRef: e.PhotoRef, Caption: caption}}
		}
		return []Action{
			SendText{ChatID: chatID, Text: textRelayHeader + ":"},
			SendPhoto{ChatID: chatID, PhotoRef: e.PhotoRef, Caption: truncate(e.Caption, maxCaptionLength)},
		}
	}
	text := relayText(e.Text)
	if textLength(text) <= maxTextLength {
		return []Action{SendText{ChatID: chatID, Text: text}}
	}
	return []Action{
		SendText{ChatID: chatID, Text: textRelayHeader + ":"},
		SendText{ChatID: chatID, Text: truncate(e.Text, maxTextLength)},
	}
}

func (r *Router) listingCaption(v valentines.Valentine) string {
	return fmt.Sprintf(listingTemplate, r.formatTime(v.CreatedAt), v.Message)
}

func (r *Router) listingLine(v valentines.Valentine) string {
	return fmt.Sprintf(listingLineTemplate, r.formatTime(v.CreatedAt))
}

func (r *Router) formatTime(t time.Time) string {
	return t.In(r.location).Format(r.timeFormat)
}

// listing renders each valentine as a photo when it has one, text otherwise. A message too long
// to share a body with the header follows it separately.
func (r *Router) listing(chatID string, items []valentines.Valentine) []Action {
	actions := make([]Action, 0, len(items))
	for _, v := range items {
		caption := r.listingCaption(v)
		switch {
		case v.HasPhoto() && textLength(caption) <= maxCaptionLength:
			actions = append(actions, SendPhoto{ChatID: chatID, PhotoRef: v.PhotoRef, Caption: caption})
		case v.HasPhoto():
			actions = append(actions,
				SendPhoto{ChatID: chatID, PhotoRef: v.PhotoRef, Caption: r.listingLine(v)},
				SendText{ChatID: chatID, Text: truncate(v.Message, maxTextLength)},
			)
		case textLength(caption) <= maxTextLength:
			actions = append(actions, SendText{ChatID: chatID, Text: caption})
		default:
			actions = append(actions,
				SendText{ChatID: chatID, Text: r.listingLine(v)},
				SendText{ChatID: chatID, Text: truncate(v.Message, maxTextLength)},
			)
		}
	}
	return actions
}

func textLength(s string) int {
	n := 0
	for _, r := range s {
		n += runeWidth(r)
	}
	return n
}

func runeWidth(r rune) int {
	if w := utf16.RuneLen(r); w > 0 {
		return w
	}
	return 1
}

// truncate cuts s to at most limit UTF-16 units, marking the cut with an ellipsis.
func truncate(s string, limit int) string {
	if textLength(s) <= limit {
		return s
	}
	const ellipsis = "…"
	budget := limit - textLength(ellipsis)
	n := 0
	for i, r := range s {
		w := runeWidth(r)
		if n+w > budget {
			return s[:i] + ellipsis
		}
		n += w
	}
	return s
}
