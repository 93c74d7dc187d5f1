package router

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/memohai/valentines/internal/conversation"
	"github.com/memohai/valentines/internal/logger"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/valentines"
)

// Directory is the member lookup the router needs.
type Directory interface {
	Resolve(ctx context.Context, profile members.Profile) (members.Member, error)
	ListOthers(ctx context.Context, excludingExternalID string) ([]members.Member, error)
	GetByID(ctx context.Context, id string) (members.Member, error)
}

// ValentineStore is the valentine persistence the router needs.
type ValentineStore interface {
	Create(ctx context.Context, req valentines.CreateRequest) (valentines.Valentine, error)
	ListReceived(ctx context.Context, receiverID string, limit int) ([]valentines.Valentine, error)
	Search(ctx context.Context, receiverID, query string) ([]valentines.Valentine, error)
}

// Options tunes presentation.
type Options struct {
	CommunityName string
	Location      *time.Location
	TimeFormat    string
	ListLimit     int
}

// Router applies one inbound event to a member's conversation and returns the actions to send.
type Router struct {
	directory  Directory
	valentines ValentineStore
	machine    *conversation.Machine
	logger     *slog.Logger

	community  string
	location   *time.Location
	timeFormat string
	listLimit  int
}

// New creates a Router.
func New(log *slog.Logger, directory Directory, store ValentineStore, machine *conversation.Machine, opts Options) *Router {
	if log == nil {
		log = slog.Default()
	}
	if machine == nil {
		machine = conversation.NewMachine()
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	if strings.TrimSpace(opts.TimeFormat) == "" {
		opts.TimeFormat = "02.01.2006 15:04"
	}
	if strings.TrimSpace(opts.CommunityName) == "" {
		opts.CommunityName = "our team"
	}
	return &Router{
		directory:  directory,
		valentines: store,
		machine:    machine,
		logger:     log.With(slog.String("component", "router")),
		community:  strings.TrimSpace(opts.CommunityName),
		location:   opts.Location,
		timeFormat: opts.TimeFormat,
		listLimit:  opts.ListLimit,
	}
}

// Handle processes ev. The member's state is committed before the actions are returned;
// the caller sends them in order. On error no state change has been made and nothing should be sent.
func (r *Router) Handle(ctx context.Context, ev Event) ([]Action, error) {
	if r.directory == nil || r.valentines == nil {
		return nil, fmt.Errorf("router not configured")
	}
	if ev == nil {
		return nil, fmt.Errorf("event is required")
	}
	env := ev.envelope()
	key := strings.TrimSpace(env.From.ExternalID)
	if key == "" {
		return nil, fmt.Errorf("sender identity is required")
	}
	if strings.TrimSpace(env.ChatID) == "" {
		return nil, fmt.Errorf("chat id is required")
	}

	unlock := r.machine.Lock(key)
	defer unlock()

	switch e := ev.(type) {
	case CommandEvent:
		return r.handleCommand(ctx, key, e)
	case ActionEvent:
		return r.handleAction(ctx, key, e)
	case MessageEvent:
		return r.handleMessage(ctx, key, e)
	default:
		return nil, fmt.Errorf("unsupported event type %T", ev)
	}
}

// eventLogger prefers the event-scoped logger carried by ctx.
func (r *Router) eventLogger(ctx context.Context) *slog.Logger {
	return logger.FromContextOr(ctx, r.logger)
}

func (r *Router) handleCommand(ctx context.Context, key string, e CommandEvent) ([]Action, error) {
	switch NormalizeCommand(e.Command) {
	case CommandStart, CommandHelp:
	default:
		r.eventLogger(ctx).Debug("unknown command ignored", slog.String("command", e.Command))
		return nil, nil
	}
	member, err := r.directory.Resolve(ctx, e.From)
	if err != nil {
		return nil, err
	}
	r.machine.Clear(key)
	return []Action{
		SendText{ChatID: e.ChatID, Text: welcomeText(member.DisplayName, r.community), Buttons: mainMenu()},
	}, nil
}

func (r *Router) handleAction(ctx context.Context, key string, e ActionEvent) ([]Action, error) {
	token := strings.TrimSpace(e.Token)
	switch {
	case strings.HasPrefix(token, TokenSelectReceiver):
		return r.selectReceiver(ctx, key, e, strings.TrimSpace(strings.TrimPrefix(token, TokenSelectReceiver)))
	case token == TokenSendValentine:
		return r.offerReceivers(ctx, key, e)
	case token == TokenMyValentines:
		return r.listMine(ctx, e)
	case token == TokenSearchMyValentines:
		r.machine.Set(key, conversation.AwaitingSearchQuery{})
		return []Action{SendText{ChatID: e.ChatID, Text: textSearchPrompt}}, nil
	case token == TokenBackToMenu:
		r.machine.Clear(key)
		return []Action{SendText{ChatID: e.ChatID, Text: textMainMenu, Buttons: mainMenu()}}, nil
	case token == TokenRules:
		return []Action{SendText{ChatID: e.ChatID, Text: textRules}}, nil
	default:
		r.eventLogger(ctx).Debug("unknown action token ignored", slog.String("token", token))
		return nil, nil
	}
}

func (r *Router) selectReceiver(ctx context.Context, key string, e ActionEvent, receiverID string) ([]Action, error) {
	if receiverID == "" {
		return nil, nil
	}
	sender, err := r.directory.Resolve(ctx, e.From)
	if err != nil {
		return nil, err
	}
	if sender.ID == receiverID {
		return []Action{SendText{ChatID: e.ChatID, Text: textSelfSelected}}, nil
	}
	r.machine.Set(key, conversation.AwaitingMessage{ReceiverID: receiverID})
	return []Action{SendText{ChatID: e.ChatID, Text: textPromptMessage}}, nil
}

func (r *Router) offerReceivers(ctx context.Context, key string, e ActionEvent) ([]Action, error) {
	others, err := r.directory.ListOthers(ctx, key)
	if err != nil {
		return nil, err
	}
	if len(others) == 0 {
		return []Action{SendText{ChatID: e.ChatID, Text: textNoOtherMembers}}, nil
	}
	return []Action{SendText{ChatID: e.ChatID, Text: textChooseReceiver, Buttons: receiverButtons(others)}}, nil
}

func (r *Router) listMine(ctx context.Context, e ActionEvent) ([]Action, error) {
	member, err := r.directory.Resolve(ctx, e.From)
	if err != nil {
		return nil, err
	}
	items, err := r.valentines.ListReceived(ctx, member.ID, r.listLimit)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return []Action{SendText{ChatID: e.ChatID, Text: textNoValentines}}, nil
	}
	actions := r.listing(e.ChatID, items)
	return append(actions, SendText{ChatID: e.ChatID, Text: textWhatNext, Buttons: whatNextMenu()}), nil
}

func (r *Router) handleMessage(ctx context.Context, key string, e MessageEvent) ([]Action, error) {
	switch st := r.machine.Get(key).(type) {
	case conversation.AwaitingMessage:
		if e.HasPhoto() {
			return r.deliver(ctx, key, e, st.ReceiverID)
		}
		if isCommandText(e.Text) || e.Text == "" {
			return nil, nil
		}
		return r.deliver(ctx, key, e, st.ReceiverID)
	case conversation.AwaitingSearchQuery:
		if isCommandText(e.Text) || (e.Text == "" && !e.HasPhoto()) {
			return nil, nil
		}
		return r.search(ctx, key, e)
	default:
		return []Action{SendText{ChatID: e.ChatID, Text: textUseMenu, Buttons: mainMenu()}}, nil
	}
}

// deliver stores the valentine and relays it to the receiver. A receiver that no longer resolves
// aborts the event with members.ErrNotFound and leaves the pending state in place.
func (r *Router) deliver(ctx context.Context, key string, e MessageEvent, receiverID string) ([]Action, error) {
	sender, err := r.directory.Resolve(ctx, e.From)
	if err != nil {
		return nil, err
	}
	receiver, err := r.directory.GetByID(ctx, receiverID)
	if err != nil {
		if errors.Is(err, members.ErrNotFound) {
			r.eventLogger(ctx).Warn("pending receiver not found", slog.String("receiver_id", receiverID))
		}
		return nil, err
	}
	if receiver.ID == sender.ID {
		r.machine.Clear(key)
		return []Action{
			SendText{ChatID: e.ChatID, Text: textSelfSelected},
			SendText{ChatID: e.ChatID, Text: textMainMenu, Buttons: mainMenu()},
		}, nil
	}

	req := valentines.CreateRequest{SenderID: sender.ID, ReceiverID: receiver.ID, Message: e.Text}
	if e.HasPhoto() {
		req.Message = e.Caption
		req.PhotoRef = e.PhotoRef
	}
	if _, err := r.valentines.Create(ctx, req); err != nil {
		return nil, err
	}
	r.machine.Clear(key)

	return append(relay(receiver.ExternalID, e),
		SendText{ChatID: e.ChatID, Text: textSent},
		SendText{ChatID: e.ChatID, Text: textAfterSend, Buttons: mainMenu()},
	), nil
}

func (r *Router) search(ctx context.Context, key string, e MessageEvent) ([]Action, error) {
	member, err := r.directory.Resolve(ctx, e.From)
	if err != nil {
		return nil, err
	}
	items, err := r.valentines.Search(ctx, member.ID, e.Text)
	if err != nil {
		return nil, err
	}
	r.machine.Clear(key)
	if len(items) == 0 {
		return []Action{SendText{ChatID: e.ChatID, Text: textNothingFound}}, nil
	}
	return r.listing(e.ChatID, items), nil
}

func isCommandText(text string) bool {
	return strings.HasPrefix(text, "/")
}
