package valentines

import (
	"context"
	"errors"
	"testing"

	"github.com/memohai/valentines/internal/logger"
)

type recordingStore struct {
	created   []CreateRequest
	gotLimit  int
	gotQuery  string
	items     []Valentine
	createErr error
}

func (r *recordingStore) CreateValentine(_ context.Context, req CreateRequest) (Valentine, error) {
	if r.createErr != nil {
		return Valentine{}, r.createErr
	}
	r.created = append(r.created, req)
	return Valentine{ID: "v1", SenderID: req.SenderID, ReceiverID: req.ReceiverID, Message: req.Message, PhotoRef: req.PhotoRef}, nil
}

func (r *recordingStore) ListReceivedValentines(_ context.Context, _ string, limit int) ([]Valentine, error) {
	r.gotLimit = limit
	return r.items, nil
}

func (r *recordingStore) SearchReceivedValentines(_ context.Context, _ string, query string) ([]Valentine, error) {
	r.gotQuery = query
	return r.items, nil
}

func TestListReceivedUsesDefaultLimit(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	svc := NewService(logger.Discard(), store, 0)

	if _, err := svc.ListReceived(context.Background(), "r", 0); err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if store.gotLimit != DefaultListLimit {
		t.Fatalf("expected default limit %d, got %d", DefaultListLimit, store.gotLimit)
	}

	if _, err := svc.ListReceived(context.Background(), "r", 2); err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if store.gotLimit != 2 {
		t.Fatalf("expected explicit limit 2, got %d", store.gotLimit)
	}
}

func TestConfiguredListLimit(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	svc := NewService(logger.Discard(), store, 9)
	if _, err := svc.ListReceived(context.Background(), "r", -1); err != nil {
		t.Fatalf("ListReceived: %v", err)
	}
	if store.gotLimit != 9 || svc.ListLimit() != 9 {
		t.Fatalf("expected configured limit 9, got %d/%d", store.gotLimit, svc.ListLimit())
	}
}

func TestCreateValidatesParticipants(t *testing.T) {
	t.Parallel()

	svc := NewService(logger.Discard(), &recordingStore{}, 0)
	if _, err := svc.Create(context.Background(), CreateRequest{SenderID: "a"}); err == nil {
		t.Fatalf("expected error without receiver")
	}
}

func TestCreateWrapsStorageError(t *testing.T) {
	t.Parallel()

	svc := NewService(logger.Discard(), &recordingStore{createErr: errors.New("disk full")}, 0)
	_, err := svc.Create(context.Background(), CreateRequest{SenderID: "a", ReceiverID: "b", Message: "hi"})
	if !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestSearchPassesQueryThrough(t *testing.T) {
	t.Parallel()

	store := &recordingStore{}
	svc := NewService(logger.Discard(), store, 0)
	if _, err := svc.Search(context.Background(), "r", "  Hello "); err != nil {
		t.Fatalf("Search: %v", err)
	}
	if store.gotQuery != "  Hello " {
		t.Fatalf("query altered: %q", store.gotQuery)
	}
}

func TestMatchesQuery(t *testing.T) {
	t.Parallel()

	tests := []struct {
		message, query string
		want           bool
	}{
		{"Hello World", "hello", true},
		{"Hello World", "WORLD", true},
		{"Привет, Мир", "мир", true},
		{"anything", "", true},
		{"Hello", "bye", false},
	}
	for _, tt := range tests {
		if got := MatchesQuery(tt.message, tt.query); got != tt.want {
			t.Errorf("MatchesQuery(%q, %q) = %v, want %v", tt.message, tt.query, got, tt.want)
		}
	}
}
