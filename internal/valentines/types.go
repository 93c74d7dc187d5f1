// Package valentines persists and queries anonymous messages between members.
package valentines

import (
	"context"
	"errors"
	"time"
)

// DefaultListLimit bounds ListReceived when no limit is given.
const DefaultListLimit = 5

// ErrStorage wraps persistence failures.
var ErrStorage = errors.New("valentine storage error")

// Valentine is one delivered anonymous message. It is immutable once stored.
type Valentine struct {
	ID         string    `json:"id"`
	SenderID   string    `json:"sender_id"`
	ReceiverID string    `json:"receiver_id"`
	Message    string    `json:"message"`
	PhotoRef   string    `json:"photo_ref,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// HasPhoto reports whether the valentine carries a photo.
func (v Valentine) HasPhoto() bool {
	return v.PhotoRef != ""
}

// CreateRequest is the input of Create.
type CreateRequest struct {
	SenderID   string
	ReceiverID string
	Message    string
	PhotoRef   string
}

// Store is the persistence contract. List and Search return newest first.
// Search matches query as a case-insensitive literal substring; "" matches every row.
type Store interface {
	CreateValentine(ctx context.Context, req CreateRequest) (Valentine, error)
	ListReceivedValentines(ctx context.Context, receiverID string, limit int) ([]Valentine, error)
	SearchReceivedValentines(ctx context.Context, receiverID, query string) ([]Valentine, error)
}
