package members

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/valentines/internal/logger"
)

// Service is the member directory.
type Service struct {
	store  Store
	logger *slog.Logger
}

// NewService creates a member directory over the given store.
func NewService(log *slog.Logger, store Store) *Service {
	if log == nil {
		log = slog.Default()
	}
	return &Service{
		store:  store,
		logger: log,
	}
}

// Resolve returns the member for the profile's external identity, creating it on first contact.
func (s *Service) Resolve(ctx context.Context, profile Profile) (Member, error) {
	if s.store == nil {
		return Member{}, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	profile.ExternalID = strings.TrimSpace(profile.ExternalID)
	if profile.ExternalID == "" {
		return Member{}, fmt.Errorf("external id is required")
	}
	profile.DisplayName = strings.TrimSpace(profile.DisplayName)
	if profile.DisplayName == "" {
		profile.DisplayName = profile.ExternalID
	}
	profile.Handle = strings.TrimPrefix(strings.TrimSpace(profile.Handle), "@")

	member, err := s.store.UpsertMember(ctx, profile)
	if err != nil {
		return Member{}, wrapStorage("resolve member", err)
	}
	logger.FromContextOr(ctx, s.logger).Debug("member resolved",
		slog.String("service", "members"),
		slog.String("member_id", member.ID),
	)
	return member, nil
}

// ListOthers returns every member except the one with the given external identity.
func (s *Service) ListOthers(ctx context.Context, excludingExternalID string) ([]Member, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	items, err := s.store.ListMembersExcluding(ctx, strings.TrimSpace(excludingExternalID))
	if err != nil {
		return nil, wrapStorage("list members", err)
	}
	return items, nil
}

// GetByID returns the member with the given internal id.
func (s *Service) GetByID(ctx context.Context, id string) (Member, error) {
	if s.store == nil {
		return Member{}, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	id = strings.TrimSpace(id)
	if id == "" {
		return Member{}, ErrNotFound
	}
	member, err := s.store.GetMember(ctx, id)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return Member{}, err
		}
		return Member{}, wrapStorage("get member", err)
	}
	return member, nil
}

func wrapStorage(op string, err error) error {
	if errors.Is(err, ErrStorage) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
