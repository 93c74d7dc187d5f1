package sqlite

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/memohai/valentines/internal/config"
	"github.com/memohai/valentines/internal/db"
	"github.com/memohai/valentines/internal/logger"
	"github.com/memohai/valentines/internal/members"
	"github.com/memohai/valentines/internal/valentines"
)

type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(time.Minute)
	return c.now
}

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()

	cfg := config.Default()
	cfg.Storage.SQLitePath = filepath.Join(t.TempDir(), "valentines.db")
	target, err := db.ResolveTarget(config.StorageDriverSQLite, "", cfg)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrate(logger.Discard(), target, "up", nil))

	conn, err := db.OpenSQLite(ctx, cfg.Storage.SQLitePath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	clock := &stepClock{now: time.Date(2026, 2, 14, 9, 0, 0, 0, time.UTC)}
	return NewStore(conn, WithClock(clock.Now))
}

func mustMember(t *testing.T, s *Store, externalID, name string) members.Member {
	t.Helper()
	m, err := s.UpsertMember(context.Background(), members.Profile{ExternalID: externalID, DisplayName: name})
	require.NoError(t, err)
	return m
}

func TestUpsertMemberIsIdempotent(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	first, err := s.UpsertMember(ctx, members.Profile{ExternalID: "111", DisplayName: "Alice", Handle: "alice"})
	require.NoError(t, err)
	second, err := s.UpsertMember(ctx, members.Profile{ExternalID: "111", DisplayName: "Changed"})
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Alice", second.DisplayName)
	assert.Equal(t, "alice", second.Handle)

	var count int
	require.NoError(t, s.sqlDB.QueryRow(`SELECT count(*) FROM members WHERE external_id = '111'`).Scan(&count))
	assert.Equal(t, 1, count)
}

func TestGetMember(t *testing.T) {
	s := openTestStore(t)
	alice := mustMember(t, s, "111", "Alice")

	got, err := s.GetMember(context.Background(), alice.ID)
	require.NoError(t, err)
	assert.Equal(t, alice, got)

	_, err = s.GetMember(context.Background(), "does-not-exist")
	assert.ErrorIs(t, err, members.ErrNotFound)
}

func TestListMembersExcluding(t *testing.T) {
	s := openTestStore(t)
	mustMember(t, s, "111", "Alice")
	mustMember(t, s, "222", "Bob")
	mustMember(t, s, "333", "Carol")

	others, err := s.ListMembersExcluding(context.Background(), "222")
	require.NoError(t, err)
	require.Len(t, others, 2)
	assert.Equal(t, "Alice", others[0].DisplayName)
	assert.Equal(t, "Carol", others[1].DisplayName)

	lone := openTestStore(t)
	mustMember(t, lone, "111", "Alice")
	none, err := lone.ListMembersExcluding(context.Background(), "111")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestListReceivedNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice := mustMember(t, s, "111", "Alice")
	bob := mustMember(t, s, "222", "Bob")

	for _, text := range []string{"t1", "t2", "t3"} {
		_, err := s.CreateValentine(ctx, valentines.CreateRequest{SenderID: alice.ID, ReceiverID: bob.ID, Message: text})
		require.NoError(t, err)
	}
	_, err := s.CreateValentine(ctx, valentines.CreateRequest{SenderID: bob.ID, ReceiverID: alice.ID, Message: "other"})
	require.NoError(t, err)

	items, err := s.ListReceivedValentines(ctx, bob.ID, 5)
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, []string{"t3", "t2", "t1"}, []string{items[0].Message, items[1].Message, items[2].Message})
	assert.True(t, items[0].CreatedAt.After(items[1].CreatedAt))

	limited, err := s.ListReceivedValentines(ctx, bob.ID, 2)
	require.NoError(t, err)
	require.Len(t, limited, 2)
	assert.Equal(t, "t3", limited[0].Message)
}

func TestCreateValentineWithPhoto(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice := mustMember(t, s, "111", "Alice")
	bob := mustMember(t, s, "222", "Bob")

	created, err := s.CreateValentine(ctx, valentines.CreateRequest{SenderID: alice.ID, ReceiverID: bob.ID, PhotoRef: "file-1"})
	require.NoError(t, err)
	assert.True(t, created.HasPhoto())

	items, err := s.ListReceivedValentines(ctx, bob.ID, 5)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, created, items[0])
}

func TestCreateValentineRequiresExistingMembers(t *testing.T) {
	s := openTestStore(t)
	alice := mustMember(t, s, "111", "Alice")

	_, err := s.CreateValentine(context.Background(), valentines.CreateRequest{SenderID: alice.ID, ReceiverID: "ghost", Message: "hi"})
	assert.Error(t, err)
}

func TestSearchCaseInsensitive(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	alice := mustMember(t, s, "111", "Alice")
	bob := mustMember(t, s, "222", "Bob")

	for _, text := range []string{"Hello World", "Привет, Мир", "100% love", "nothing here"} {
		_, err := s.CreateValentine(ctx, valentines.CreateRequest{SenderID: alice.ID, ReceiverID: bob.ID, Message: text})
		require.NoError(t, err)
	}

	tests := []struct {
		query string
		want  []string
	}{
		{"hello", []string{"Hello World"}},
		{"WORLD", []string{"Hello World"}},
		{"мир", []string{"Привет, Мир"}},
		{"%", []string{"100% love"}},
		{"absent", nil},
		{"", []string{"nothing here", "100% love", "Привет, Мир", "Hello World"}},
	}
	for _, tt := range tests {
		t.Run(tt.query, func(t *testing.T) {
			items, err := s.SearchReceivedValentines(ctx, bob.ID, tt.query)
			require.NoError(t, err)
			var got []string
			for _, item := range items {
				got = append(got, item.Message)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestStoreBacksServices(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	directory := members.NewService(logger.Discard(), s)
	store := valentines.NewService(logger.Discard(), s, 0)

	a, err := directory.Resolve(ctx, members.Profile{ExternalID: "111", DisplayName: "A"})
	require.NoError(t, err)
	b, err := directory.Resolve(ctx, members.Profile{ExternalID: "222", DisplayName: "B"})
	require.NoError(t, err)

	_, err = store.Create(ctx, valentines.CreateRequest{SenderID: a.ID, ReceiverID: b.ID, Message: "Hi!"})
	require.NoError(t, err)

	got, err := store.ListReceived(ctx, b.ID, 0)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, a.ID, got[0].SenderID)

	_, err = directory.GetByID(ctx, "stale")
	assert.ErrorIs(t, err, members.ErrNotFound)
}
