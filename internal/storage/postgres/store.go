// Package postgres implements the member and valentine stores on PostgreSQL (pgx + sqlc).
package postgres

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/memohai/valentines/internal/db"
	"github.com/memohai/valentines/internal/db/sqlc"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/valentines"
)

// Store satisfies members.Store and valentines.Store.
type Store struct {
	queries *sqlc.Queries
}

var (
	_ members.Store    = (*Store)(nil)
	_ valentines.Store = (*Store)(nil)
)

// NewStore wraps sqlc queries.
func NewStore(queries *sqlc.Queries) *Store {
	return &Store{queries: queries}
}

// UpsertMember returns the member registered under profile.ExternalID, creating it on first
// sight. A concurrent insert that loses the race reads back the winner's row.
func (s *Store) UpsertMember(ctx context.Context, profile members.Profile) (members.Member, error) {
	if s.queries == nil {
		return members.Member{}, fmt.Errorf("member queries not configured")
	}
	row, err := s.queries.GetMemberByExternalID(ctx, profile.ExternalID)
	if err == nil {
		return toMember(row), nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return members.Member{}, err
	}
	row, err = s.queries.CreateMember(ctx, sqlc.CreateMemberParams{
		ExternalID:  profile.ExternalID,
		DisplayName: profile.DisplayName,
		Handle:      db.ToPgText(profile.Handle),
	})
	if err != nil {
		if !db.IsUniqueViolation(err) {
			return members.Member{}, err
		}
		row, err = s.queries.GetMemberByExternalID(ctx, profile.ExternalID)
		if err != nil {
			return members.Member{}, err
		}
	}
	return toMember(row), nil
}

func (s *Store) GetMember(ctx context.Context, id string) (members.Member, error) {
	if s.queries == nil {
		return members.Member{}, fmt.Errorf("member queries not configured")
	}
	pgID, err := db.ParseUUID(id)
	if err != nil {
		return members.Member{}, members.ErrNotFound
	}
	row, err := s.queries.GetMemberByID(ctx, pgID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return members.Member{}, members.ErrNotFound
		}
		return members.Member{}, err
	}
	return toMember(row), nil
}

func (s *Store) ListMembersExcluding(ctx context.Context, externalID string) ([]members.Member, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("member queries not configured")
	}
	rows, err := s.queries.ListMembersExcluding(ctx, externalID)
	if err != nil {
		return nil, err
	}
	items := make([]members.Member, 0, len(rows))
	for _, row := range rows {
		items = append(items, toMember(row))
	}
	return items, nil
}

func (s *Store) CreateValentine(ctx context.Context, req valentines.CreateRequest) (valentines.Valentine, error) {
	if s.queries == nil {
		return valentines.Valentine{}, fmt.Errorf("valentine queries not configured")
	}
	senderID, err := db.ParseUUID(req.SenderID)
	if err != nil {
		return valentines.Valentine{}, fmt.Errorf("sender: %w", err)
	}
	receiverID, err := db.ParseUUID(req.ReceiverID)
	if err != nil {
		return valentines.Valentine{}, fmt.Errorf("receiver: %w", err)
	}
	row, err := s.queries.CreateValentine(ctx, sqlc.CreateValentineParams{
		SenderID:   senderID,
		ReceiverID: receiverID,
		Message:    req.Message,
		PhotoRef:   db.ToPgText(req.PhotoRef),
	})
	if err != nil {
		return valentines.Valentine{}, err
	}
	return toValentine(row), nil
}

func (s *Store) ListReceivedValentines(ctx context.Context, receiverID string, limit int) ([]valentines.Valentine, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("valentine queries not configured")
	}
	pgID, err := db.ParseUUID(receiverID)
	if err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	rows, err := s.queries.ListReceivedValentines(ctx, sqlc.ListReceivedValentinesParams{
		ReceiverID: pgID,
		Limit:      clampLimit(limit),
	})
	if err != nil {
		return nil, err
	}
	return toValentines(rows), nil
}

func (s *Store) SearchReceivedValentines(ctx context.Context, receiverID, query string) ([]valentines.Valentine, error) {
	if s.queries == nil {
		return nil, fmt.Errorf("valentine queries not configured")
	}
	pgID, err := db.ParseUUID(receiverID)
	if err != nil {
		return nil, fmt.Errorf("receiver: %w", err)
	}
	rows, err := s.queries.SearchReceivedValentines(ctx, sqlc.SearchReceivedValentinesParams{
		ReceiverID: pgID,
		Pattern:    db.EscapeLike(query),
	})
	if err != nil {
		return nil, err
	}
	return toValentines(rows), nil
}

func clampLimit(limit int) int32 {
	if limit > math.MaxInt32 {
		return math.MaxInt32
	}
	if limit < 0 {
		return 0
	}
	return int32(limit)
}

func toMember(row sqlc.Member) members.Member {
	return members.Member{
		ID:          db.UUIDString(row.ID),
		ExternalID:  strings.TrimSpace(row.ExternalID),
		DisplayName: row.DisplayName,
		Handle:      db.TextToString(row.Handle),
		CreatedAt:   db.TimeFromPg(row.CreatedAt),
	}
}

func toValentine(row sqlc.Valentine) valentines.Valentine {
	return valentines.Valentine{
		ID:         db.UUIDString(row.ID),
		SenderID:   db.UUIDString(row.SenderID),
		ReceiverID: db.UUIDString(row.ReceiverID),
		Message:    row.Message,
		PhotoRef:   db.TextToString(row.PhotoRef),
		CreatedAt:  db.TimeFromPg(row.CreatedAt),
	}
}

func toValentines(rows []sqlc.Valentine) []valentines.Valentine {
	items := make([]valentines.Valentine, 0, len(rows))
	for _, row := range rows {
		items = append(items, toValentine(row))
	}
	return items
}
