package members

import (
	"context"
	"errors"
	"testing"

	"github.com/memohai/valentines/internal/logger"
)

type fakeStore struct {
	byExternal map[string]Member
	order      []string
	upserts    int
	err        error
}

func newFakeStore() *fakeStore {
	return &fakeStore{byExternal: map[string]Member{}}
}

func (f *fakeStore) UpsertMember(_ context.Context, profile Profile) (Member, error) {
	f.upserts++
	if f.err != nil {
		return Member{}, f.err
	}
	if m, ok := f.byExternal[profile.ExternalID]; ok {
		return m, nil
	}
	m := Member{ID: "id-" + profile.ExternalID, ExternalID: profile.ExternalID, DisplayName: profile.DisplayName, Handle: profile.Handle}
	f.byExternal[profile.ExternalID] = m
	f.order = append(f.order, profile.ExternalID)
	return m, nil
}

func (f *fakeStore) GetMember(_ context.Context, id string) (Member, error) {
	if f.err != nil {
		return Member{}, f.err
	}
	for _, m := range f.byExternal {
		if m.ID == id {
			return m, nil
		}
	}
	return Member{}, ErrNotFound
}

func (f *fakeStore) ListMembersExcluding(_ context.Context, externalID string) ([]Member, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []Member
	for _, ext := range f.order {
		if ext != externalID {
			out = append(out, f.byExternal[ext])
		}
	}
	return out, nil
}

func TestResolveIsIdempotent(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(logger.Discard(), store)
	ctx := context.Background()

	first, err := svc.Resolve(ctx, Profile{ExternalID: "111", DisplayName: "Alice", Handle: "@alice"})
	if err != nil {
		t.Fatalf("first resolve: %v", err)
	}
	second, err := svc.Resolve(ctx, Profile{ExternalID: " 111 ", DisplayName: "Renamed"})
	if err != nil {
		t.Fatalf("second resolve: %v", err)
	}

	if first.ID != second.ID || second.DisplayName != "Alice" {
		t.Fatalf("expected the same member, got %#v and %#v", first, second)
	}
	if first.Handle != "alice" {
		t.Fatalf("handle not normalized: %q", first.Handle)
	}
	if len(store.byExternal) != 1 {
		t.Fatalf("expected one stored member, got %d", len(store.byExternal))
	}
}

func TestResolveDefaultsDisplayName(t *testing.T) {
	t.Parallel()

	svc := NewService(logger.Discard(), newFakeStore())
	m, err := svc.Resolve(context.Background(), Profile{ExternalID: "42"})
	if err != nil || m.DisplayName != "42" {
		t.Fatalf("expected display name fallback, got %#v %v", m, err)
	}
}

func TestResolveRequiresExternalID(t *testing.T) {
	t.Parallel()

	svc := NewService(logger.Discard(), newFakeStore())
	if _, err := svc.Resolve(context.Background(), Profile{DisplayName: "ghost"}); err == nil {
		t.Fatalf("expected error without external id")
	}
}

func TestResolveWrapsStorageErrors(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	store.err = errors.New("connection refused")
	svc := NewService(logger.Discard(), store)

	if _, err := svc.Resolve(context.Background(), Profile{ExternalID: "111"}); !errors.Is(err, ErrStorage) {
		t.Fatalf("expected ErrStorage, got %v", err)
	}
}

func TestListOthersExcludesCaller(t *testing.T) {
	t.Parallel()

	store := newFakeStore()
	svc := NewService(logger.Discard(), store)
	ctx := context.Background()
	for _, ext := range []string{"111", "222", "333"} {
		if _, err := svc.Resolve(ctx, Profile{ExternalID: ext}); err != nil {
			t.Fatalf("resolve %s: %v", ext, err)
		}
	}

	others, err := svc.ListOthers(ctx, "222")
	if err != nil {
		t.Fatalf("ListOthers: %v", err)
	}
	if len(others) != 2 || others[0].ExternalID != "111" || others[1].ExternalID != "333" {
		t.Fatalf("unexpected others: %#v", others)
	}
}

func TestGetByIDNotFound(t *testing.T) {
	t.Parallel()

	svc := NewService(logger.Discard(), newFakeStore())

	_, err := svc.GetByID(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) || errors.Is(err, ErrStorage) {
		t.Fatalf("expected bare ErrNotFound, got %v", err)
	}
	if _, err := svc.GetByID(context.Background(), "  "); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for blank id, got %v", err)
	}
}
