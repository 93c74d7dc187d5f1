// Package members resolves external chat identities to community member records.
package members

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrNotFound is returned when a member id does not resolve.
	ErrNotFound = errors.New("member not found")
	// ErrStorage wraps persistence failures.
	ErrStorage = errors.New("member storage error")
)

// Member is one participant of the community.
type Member struct {
	ID          string    `json:"id"`
	ExternalID  string    `json:"external_id"`
	DisplayName string    `json:"display_name"`
	Handle      string    `json:"handle,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Profile is what the transport knows about a sender on first contact.
type Profile struct {
	ExternalID  string
	DisplayName string
	Handle      string
}

// Store is the persistence contract behind the directory.
// Upsert must be idempotent on ExternalID and return the stored row unchanged when it exists.
// Get returns ErrNotFound for unknown or malformed ids.
type Store interface {
	UpsertMember(ctx context.Context, profile Profile) (Member, error)
	GetMember(ctx context.Context, id string) (Member, error)
	ListMembersExcluding(ctx context.Context, externalID string) ([]Member, error)
}
