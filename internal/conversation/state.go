// Package conversation tracks what follow-up input each member is expected to send next.
//
// State is volatile: it lives in process memory and is lost on restart.
package conversation

import "fmt"

// Kind names a State variant.
type Kind string

const (
	KindIdle                Kind = "idle"
	KindAwaitingMessage     Kind = "awaiting_message"
	KindAwaitingSearchQuery Kind = "awaiting_search_query"
)

// State is a closed sum type: Idle, AwaitingMessage or AwaitingSearchQuery.
type State interface {
	Kind() Kind
	isState()
}

// Idle means no interaction is pending.
type Idle struct{}

// AwaitingMessage means the member picked ReceiverID and must send the valentine content next.
type AwaitingMessage struct {
	ReceiverID string
}

// AwaitingSearchQuery means the member must send a search string next.
type AwaitingSearchQuery struct{}

func (Idle) Kind() Kind                { return KindIdle }
func (AwaitingMessage) Kind() Kind     { return KindAwaitingMessage }
func (AwaitingSearchQuery) Kind() Kind { return KindAwaitingSearchQuery }

func (Idle) isState()                {}
func (AwaitingMessage) isState()     {}
func (AwaitingSearchQuery) isState() {}

func (s AwaitingMessage) String() string {
	return fmt.Sprintf("%s{%s}", KindAwaitingMessage, s.ReceiverID)
}

// IsIdle reports whether s is nil or Idle.
func IsIdle(s State) bool {
	return s == nil || s.Kind() == KindIdle
}
