package valentines

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/memohai/valentines/internal/logger"
)

// Service is the write-once, read-many valentine store.
type Service struct {
	store     Store
	listLimit int
	logger    *slog.Logger
}

// NewService creates a valentine service. listLimit <= 0 falls back to DefaultListLimit.
func NewService(log *slog.Logger, store Store, listLimit int) *Service {
	if log == nil {
		log = slog.Default()
	}
	if listLimit <= 0 {
		listLimit = DefaultListLimit
	}
	return &Service{
		store:     store,
		listLimit: listLimit,
		logger:    log,
	}
}

// ListLimit returns the default listing bound.
func (s *Service) ListLimit() int {
	return s.listLimit
}

// Create persists a new valentine.
func (s *Service) Create(ctx context.Context, req CreateRequest) (Valentine, error) {
	if s.store == nil {
		return Valentine{}, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	req.SenderID = strings.TrimSpace(req.SenderID)
	req.ReceiverID = strings.TrimSpace(req.ReceiverID)
	req.PhotoRef = strings.TrimSpace(req.PhotoRef)
	if req.SenderID == "" || req.ReceiverID == "" {
		return Valentine{}, fmt.Errorf("sender and receiver are required")
	}
	item, err := s.store.CreateValentine(ctx, req)
	if err != nil {
		return Valentine{}, wrapStorage("create valentine", err)
	}
	logger.FromContextOr(ctx, s.logger).Info("valentine stored",
		slog.String("service", "valentines"),
		slog.String("valentine_id", item.ID),
		slog.String("receiver_id", item.ReceiverID),
		slog.Bool("photo", item.HasPhoto()),
	)
	return item, nil
}

// ListReceived returns up to limit valentines addressed to receiverID, newest first.
func (s *Service) ListReceived(ctx context.Context, receiverID string, limit int) ([]Valentine, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	if limit <= 0 {
		limit = s.listLimit
	}
	items, err := s.store.ListReceivedValentines(ctx, strings.TrimSpace(receiverID), limit)
	if err != nil {
		return nil, wrapStorage("list valentines", err)
	}
	return items, nil
}

// Search returns every valentine addressed to receiverID whose message contains query, ignoring case.
func (s *Service) Search(ctx context.Context, receiverID, query string) ([]Valentine, error) {
	if s.store == nil {
		return nil, fmt.Errorf("%w: store not configured", ErrStorage)
	}
	items, err := s.store.SearchReceivedValentines(ctx, strings.TrimSpace(receiverID), query)
	if err != nil {
		return nil, wrapStorage("search valentines", err)
	}
	return items, nil
}

// MatchesQuery is the reference predicate for Search: case-insensitive substring, "" matches all.
func MatchesQuery(message, query string) bool {
	if query == "" {
		return true
	}
	return strings.Contains(strings.ToLower(message), strings.ToLower(query))
}

func wrapStorage(op string, err error) error {
	if errors.Is(err, ErrStorage) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
