package conversation_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

type tickingClock struct {
	now time.Time
}

func (c *tickingClock) Now() time.Time {
	c.now = c.now.Add(time.Second)
	return c.now
}

func newStore(t *testing.T, backend storage.Backend) *conversation.Store {
	t.Helper()
	clock := &tickingClock{now: time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)}
	s, err := conversation.NewStore(context.Background(), backend, conversation.WithClock(clock.Now))
	require.NoError(t, err)
	return s
}

func TestStore_CreateInsertsAtFrontAndActivates(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())

	first, err := s.Create(ctx)
	require.NoError(t, err)
	second, err := s.Create(ctx)
	require.NoError(t, err)

	assert.NotEqual(t, first, second)
	assert.Equal(t, second, s.ActiveID())

	list := s.List()
	require.Len(t, list, 2)
	assert.Equal(t, second, list[0].ID)
	assert.Equal(t, first, list[1].ID)
	assert.Equal(t, companion.DefaultTitle, list[0].Title)
	assert.Empty(t, list[0].Messages)
}

func TestStore_AddMessagePreservesOrder(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, err := s.Create(ctx)
	require.NoError(t, err)

	contents := []string{"one", "two", "three", "four", "five"}
	for i, c := range contents {
		role := companion.RoleUser
		if i%2 == 1 {
			role = companion.RoleAssistant
		}
		_, err := s.AddMessage(ctx, id, role, c)
		require.NoError(t, err)
	}

	conv, err := s.Get(id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, len(contents))
	for i, c := range contents {
		assert.Equal(t, c, conv.Messages[i].Content)
	}
	assert.False(t, conv.UpdatedAt.Before(conv.CreatedAt))
	assert.Equal(t, conv.Messages[len(contents)-1].Timestamp, conv.UpdatedAt)
}

func TestStore_TitleSetOnceByFirstUserMessage(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, err := s.Create(ctx)
	require.NoError(t, err)

	_, err = s.AddMessage(ctx, id, companion.RoleAssistant, "Welcome!")
	require.NoError(t, err)
	conv, _ := s.Get(id)
	assert.Equal(t, companion.DefaultTitle, conv.Title, "assistant messages never set the title")

	long := strings.Repeat("abcdefghij", 6)
	_, err = s.AddMessage(ctx, id, companion.RoleUser, long)
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, id, companion.RoleUser, "second question")
	require.NoError(t, err)

	conv, _ = s.Get(id)
	assert.Equal(t, long[:47]+"...", conv.Title)
	assert.Len(t, []rune(conv.Title), 50)
}

func TestStore_AddMessageUnknownConversation(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := newStore(t, backend)

	_, err := s.AddMessage(ctx, "missing", companion.RoleUser, "hello")
	assert.True(t, errors.Is(err, conversation.ErrConversationNotFound))

	_, err = backend.Get(ctx, conversation.DefaultStorageKey)
	assert.True(t, errors.Is(err, storage.ErrNotFound), "nothing is persisted on failure")
}

func TestStore_AddMessageInvalidRole(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, _ := s.Create(ctx)

	_, err := s.AddMessage(ctx, id, companion.Role("system"), "hello")
	assert.True(t, errors.Is(err, conversation.ErrInvalidRole))
}

func TestStore_Delete(t *testing.T) {
	ctx := context.Background()

	t.Run("active conversation clears pointer", func(t *testing.T) {
		s := newStore(t, storage.NewMemory())
		id, _ := s.Create(ctx)
		require.NoError(t, s.Delete(ctx, id))
		assert.Empty(t, s.ActiveID())
		assert.Empty(t, s.List())
	})

	t.Run("other conversation keeps pointer", func(t *testing.T) {
		s := newStore(t, storage.NewMemory())
		other, _ := s.Create(ctx)
		active, _ := s.Create(ctx)
		require.NoError(t, s.Delete(ctx, other))
		assert.Equal(t, active, s.ActiveID())
		assert.Len(t, s.List(), 1)
	})

	t.Run("missing id is a no-op", func(t *testing.T) {
		s := newStore(t, storage.NewMemory())
		active, _ := s.Create(ctx)
		require.NoError(t, s.Delete(ctx, "missing"))
		assert.Equal(t, active, s.ActiveID())
		assert.Len(t, s.List(), 1)
	})

	t.Run("deleting the last conversation persists an empty collection", func(t *testing.T) {
		backend := storage.NewMemory()
		s := newStore(t, backend)
		id, _ := s.Create(ctx)
		require.NoError(t, s.Delete(ctx, id))

		data, err := backend.Get(ctx, conversation.DefaultStorageKey)
		require.NoError(t, err)
		assert.JSONEq(t, `[]`, string(data))
	})
}

func TestStore_SetActiveIsIndependent(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	a, _ := s.Create(ctx)
	b, _ := s.Create(ctx)

	require.NoError(t, s.SetActive(ctx, a))
	assert.Equal(t, a, s.ActiveID())

	_, err := s.AddMessage(ctx, b, companion.RoleUser, "hi")
	require.NoError(t, err)
	assert.Equal(t, a, s.ActiveID(), "appending elsewhere leaves the pointer alone")

	active, ok := s.Active()
	require.True(t, ok)
	assert.Equal(t, a, active.ID)

	require.NoError(t, s.SetActive(ctx, ""))
	_, ok = s.Active()
	assert.False(t, ok)
}

func TestStore_RoundTrip(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := newStore(t, backend)

	id, _ := s.Create(ctx)
	_, err := s.AddMessage(ctx, id, companion.RoleUser, "Ciao!")
	require.NoError(t, err)
	_, err = s.AddMessage(ctx, id, companion.RoleAssistant, "Salve!")
	require.NoError(t, err)
	other, _ := s.Create(ctx)
	require.NoError(t, s.SetActive(ctx, id))

	reloaded, err := conversation.NewStore(ctx, backend)
	require.NoError(t, err)

	want := s.List()
	got := reloaded.List()
	require.Len(t, got, len(want))
	assert.Equal(t, other, got[0].ID)
	for i := range want {
		assert.Equal(t, want[i].ID, got[i].ID)
		assert.Equal(t, want[i].Title, got[i].Title)
		assert.True(t, want[i].CreatedAt.Equal(got[i].CreatedAt))
		assert.True(t, want[i].UpdatedAt.Equal(got[i].UpdatedAt))
		require.Len(t, got[i].Messages, len(want[i].Messages))
		for j := range want[i].Messages {
			assert.Equal(t, want[i].Messages[j].ID, got[i].Messages[j].ID)
			assert.Equal(t, want[i].Messages[j].Role, got[i].Messages[j].Role)
			assert.Equal(t, want[i].Messages[j].Content, got[i].Messages[j].Content)
			assert.True(t, want[i].Messages[j].Timestamp.Equal(got[i].Messages[j].Timestamp))
		}
	}
	assert.Equal(t, id, reloaded.ActiveID())
}

func TestStore_SerializedShape(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s := newStore(t, backend)
	id, _ := s.Create(ctx)
	_, err := s.AddMessage(ctx, id, companion.RoleUser, "Ciao!")
	require.NoError(t, err)

	data, err := backend.Get(ctx, conversation.DefaultStorageKey)
	require.NoError(t, err)
	for _, field := range []string{`"id"`, `"title"`, `"messages"`, `"role":"user"`, `"content":"Ciao!"`, `"timestamp"`, `"createdAt"`, `"updatedAt"`} {
		assert.Contains(t, string(data), field)
	}
}

func TestStore_CorruptDataStartsEmpty(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	require.NoError(t, backend.Put(ctx, conversation.DefaultStorageKey, []byte("{not json"), 0))

	core, logs := observer.New(zap.WarnLevel)
	s, err := conversation.NewStore(ctx, backend, conversation.WithLogger(zap.New(core)))
	require.NoError(t, err)

	assert.Empty(t, s.List())
	assert.Equal(t, 1, logs.FilterMessage("discarding unreadable conversation data").Len())

	// The store keeps working after recovery.
	_, err = s.Create(ctx)
	assert.NoError(t, err)
}

func TestStore_DuplicateIDsKeepFirst(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	raw := `[
		{"id":"dup-1","title":"first","messages":[],"createdAt":"2025-01-01T00:00:00Z","updatedAt":"2025-01-01T00:00:00Z"},
		{"id":"dup-1","title":"second","messages":[],"createdAt":"2025-01-02T00:00:00Z","updatedAt":"2025-01-02T00:00:00Z"}
	]`
	require.NoError(t, backend.Put(ctx, conversation.DefaultStorageKey, []byte(raw), 0))

	s, err := conversation.NewStore(ctx, backend)
	require.NoError(t, err)
	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, "first", list[0].Title)
}

func TestStore_CustomKeys(t *testing.T) {
	ctx := context.Background()
	backend := storage.NewMemory()
	s, err := conversation.NewStore(ctx, backend,
		conversation.WithStorageKey("convs"),
		conversation.WithActiveKey("active"))
	require.NoError(t, err)

	id, err := s.Create(ctx)
	require.NoError(t, err)

	_, err = backend.Get(ctx, "convs")
	assert.NoError(t, err)
	active, err := backend.Get(ctx, "active")
	require.NoError(t, err)
	assert.Equal(t, id, string(active))
}

func TestStore_FindByPrefix(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, _ := s.Create(ctx)

	tests := []struct {
		name    string
		prefix  string
		wantID  string
		wantErr bool
	}{
		{name: "full id", prefix: id, wantID: id},
		{name: "short id", prefix: id[:8], wantID: id},
		{name: "latest", prefix: "latest", wantID: id},
		{name: "too short", prefix: id[:3], wantErr: true},
		{name: "no match", prefix: "zzzzzzzz", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conv, err := s.FindByPrefix(tt.prefix)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, conv.ID)
		})
	}
}

func TestStore_Prune(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	old, _ := s.Create(ctx)
	cutoff := time.Date(2025, 3, 1, 9, 0, 1, 500, time.UTC)
	recent, _ := s.Create(ctx)
	require.NoError(t, s.SetActive(ctx, old))

	removed, err := s.Prune(ctx, cutoff)
	require.NoError(t, err)
	require.Len(t, removed, 1)
	assert.Equal(t, old, removed[0].ID)
	assert.Empty(t, s.ActiveID())

	list := s.List()
	require.Len(t, list, 1)
	assert.Equal(t, recent, list[0].ID)

	removed, err = s.Prune(ctx, time.Time{})
	require.NoError(t, err)
	assert.Len(t, removed, 1)
	assert.Empty(t, s.List())
}

func TestStore_Rename(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, _ := s.Create(ctx)

	require.NoError(t, s.Rename(ctx, id, "Notes"))
	conv, _ := s.Get(id)
	assert.Equal(t, "Notes", conv.Title)

	err := s.Rename(ctx, "missing", "x")
	assert.True(t, errors.Is(err, conversation.ErrConversationNotFound))
}

func TestStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := newStore(t, storage.NewMemory())
	id, _ := s.Create(ctx)
	_, err := s.AddMessage(ctx, id, companion.RoleUser, "original")
	require.NoError(t, err)

	conv, _ := s.Get(id)
	conv.Messages[0].Content = "tampered"
	conv.Title = "tampered"

	again, _ := s.Get(id)
	assert.Equal(t, "original", again.Messages[0].Content)
	assert.Equal(t, "original", again.Title)
}
