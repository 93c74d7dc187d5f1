// Package sqlite implements the member and valentine stores on SQLite (modernc.org/sqlite).
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/valentines"
)

// Store satisfies members.Store and valentines.Store. The schema must already be migrated.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
	newID func() string
}

var (
	_ members.Store    = (*Store)(nil)
	_ valentines.Store = (*Store)(nil)
)

// Option customizes a Store.
type Option func(*Store)

// WithClock overrides the creation timestamp source.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// NewStore wraps an open SQLite handle.
func NewStore(sqlDB *sql.DB, opts ...Option) *Store {
	s := &Store{
		sqlDB: sqlDB,
		now:   time.Now,
		newID: func() string { return uuid.NewString() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

const memberColumns = `id, external_id, display_name, handle, created_at`

const valentineColumns = `id, sender_id, receiver_id, message, photo_ref, created_at`

func (s *Store) UpsertMember(ctx context.Context, profile members.Profile) (members.Member, error) {
	if s.sqlDB == nil {
		return members.Member{}, fmt.Errorf("storage is not configured")
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO members (`+memberColumns+`) VALUES (?, ?, ?, ?, ?)
		 ON CONFLICT (external_id) DO NOTHING`,
		s.newID(),
		profile.ExternalID,
		profile.DisplayName,
		nullString(profile.Handle),
		toNanos(s.now()),
	)
	if err != nil {
		return members.Member{}, fmt.Errorf("insert member: %w", err)
	}
	row := s.sqlDB.QueryRowContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE external_id = ?`,
		profile.ExternalID,
	)
	return scanMember(row)
}

func (s *Store) GetMember(ctx context.Context, id string) (members.Member, error) {
	if s.sqlDB == nil {
		return members.Member{}, fmt.Errorf("storage is not configured")
	}
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+memberColumns+` FROM members WHERE id = ?`, id)
	member, err := scanMember(row)
	if errors.Is(err, sql.ErrNoRows) {
		return members.Member{}, members.ErrNotFound
	}
	return member, err
}

func (s *Store) ListMembersExcluding(ctx context.Context, externalID string) ([]members.Member, error) {
	if s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+memberColumns+` FROM members WHERE external_id <> ? ORDER BY created_at ASC, rowid ASC`,
		externalID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []members.Member
	for rows.Next() {
		member, err := scanMember(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, member)
	}
	return items, rows.Err()
}

func (s *Store) CreateValentine(ctx context.Context, req valentines.CreateRequest) (valentines.Valentine, error) {
	if s.sqlDB == nil {
		return valentines.Valentine{}, fmt.Errorf("storage is not configured")
	}
	item := valentines.Valentine{
		ID:         s.newID(),
		SenderID:   req.SenderID,
		ReceiverID: req.ReceiverID,
		Message:    req.Message,
		PhotoRef:   strings.TrimSpace(req.PhotoRef),
		CreatedAt:  s.now().UTC(),
	}
	_, err := s.sqlDB.ExecContext(ctx,
		`INSERT INTO valentines (`+valentineColumns+`) VALUES (?, ?, ?, ?, ?, ?)`,
		item.ID,
		item.SenderID,
		item.ReceiverID,
		item.Message,
		nullString(item.PhotoRef),
		toNanos(item.CreatedAt),
	)
	if err != nil {
		return valentines.Valentine{}, fmt.Errorf("insert valentine: %w", err)
	}
	item.CreatedAt = fromNanos(toNanos(item.CreatedAt))
	return item, nil
}

func (s *Store) ListReceivedValentines(ctx context.Context, receiverID string, limit int) ([]valentines.Valentine, error) {
	if s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+valentineColumns+` FROM valentines WHERE receiver_id = ?
		 ORDER BY created_at DESC, seq DESC LIMIT ?`,
		receiverID,
		limit,
	)
	if err != nil {
		return nil, err
	}
	return collectValentines(rows, nil)
}

// SearchReceivedValentines filters in Go: SQLite's LIKE and lower() only fold ASCII.
func (s *Store) SearchReceivedValentines(ctx context.Context, receiverID, query string) ([]valentines.Valentine, error) {
	if s.sqlDB == nil {
		return nil, fmt.Errorf("storage is not configured")
	}
	rows, err := s.sqlDB.QueryContext(ctx,
		`SELECT `+valentineColumns+` FROM valentines WHERE receiver_id = ?
		 ORDER BY created_at DESC, seq DESC`,
		receiverID,
	)
	if err != nil {
		return nil, err
	}
	return collectValentines(rows, func(v valentines.Valentine) bool {
		return valentines.MatchesQuery(v.Message, query)
	})
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanMember(row rowScanner) (members.Member, error) {
	var (
		member    members.Member
		handle    sql.NullString
		createdAt int64
	)
	if err := row.Scan(&member.ID, &member.ExternalID, &member.DisplayName, &handle, &createdAt); err != nil {
		return members.Member{}, err
	}
	member.Handle = handle.String
	member.CreatedAt = fromNanos(createdAt)
	return member, nil
}

func collectValentines(rows *sql.Rows, keep func(valentines.Valentine) bool) ([]valentines.Valentine, error) {
	defer rows.Close()
	var items []valentines.Valentine
	for rows.Next() {
		var (
			item      valentines.Valentine
			photoRef  sql.NullString
			createdAt int64
		)
		if err := rows.Scan(&item.ID, &item.SenderID, &item.ReceiverID, &item.Message, &photoRef, &createdAt); err != nil {
			return nil, err
		}
		item.PhotoRef = photoRef.String
		item.CreatedAt = fromNanos(createdAt)
		if keep != nil && !keep(item) {
			continue
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func nullString(value string) sql.NullString {
	value = strings.TrimSpace(value)
	return sql.NullString{String: value, Valid: value != ""}
}

func toNanos(value time.Time) int64 {
	return value.UTC().UnixNano()
}

func fromNanos(value int64) time.Time {
	return time.Unix(0, value).UTC()
}
