package chat_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/chat"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func instant(ctx context.Context, d time.Duration) error { return ctx.Err() }

type failingResponder struct{}

func (failingResponder) Respond(ctx context.Context, message string, history []companion.Turn) (string, error) {
	return "", errors.New("boom")
}

type recordingResponder struct {
	history []companion.Turn
}

func (r *recordingResponder) Respond(ctx context.Context, message string, history []companion.Turn) (string, error) {
	r.history = history
	return "ok", nil
}

func newStore(t *testing.T) *conversation.Store {
	t.Helper()
	s, err := conversation.NewStore(context.Background(), storage.NewMemory())
	require.NoError(t, err)
	return s
}

func TestChat_GreetingScenario(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	engine := simulator.NewEngine(simulator.WithSleep(instant))
	c := chat.New(store, engine, nil)

	id, err := store.Create(ctx)
	require.NoError(t, err)

	ex, err := c.Send(ctx, "Ciao!")
	require.NoError(t, err)
	assert.Equal(t, id, ex.ConversationID)

	conv, err := store.Get(id)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 2)
	assert.Equal(t, companion.RoleUser, conv.Messages[0].Role)
	assert.Equal(t, "Ciao!", conv.Messages[0].Content)
	assert.Equal(t, companion.RoleAssistant, conv.Messages[1].Role)

	greeting, _ := simulator.DefaultCatalog().Lookup("greeting")
	assert.Contains(t, greeting.Responses, conv.Messages[1].Content)
	assert.Equal(t, "Ciao!", conv.Title)
}

func TestChat_CreatesConversationOnFirstSend(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := chat.New(store, &recordingResponder{}, nil)

	ex, err := c.Send(ctx, "hello")
	require.NoError(t, err)
	assert.NotEmpty(t, ex.ConversationID)
	assert.Equal(t, ex.ConversationID, store.ActiveID())
	assert.Len(t, store.List(), 1)

	// The second send continues the same conversation.
	ex2, err := c.Send(ctx, "again")
	require.NoError(t, err)
	assert.Equal(t, ex.ConversationID, ex2.ConversationID)
}

func TestChat_PassesPriorHistory(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	r := &recordingResponder{}
	c := chat.New(store, r, nil)

	_, err := c.Send(ctx, "first")
	require.NoError(t, err)
	_, err = c.Send(ctx, "second")
	require.NoError(t, err)

	assert.Equal(t, []companion.Turn{
		{Role: "user", Content: "first"},
		{Role: "assistant", Content: "ok"},
	}, r.history)
}

func TestChat_ResponderFailureKeepsUserMessage(t *testing.T) {
	ctx := context.Background()
	store := newStore(t)
	c := chat.New(store, failingResponder{}, nil)

	ex, err := c.Send(ctx, "hello")
	require.Error(t, err)

	conv, err := store.Get(ex.ConversationID)
	require.NoError(t, err)
	require.Len(t, conv.Messages, 1)
	assert.Equal(t, "hello", conv.Messages[0].Content)
}

func TestChat_SendToUnknownConversation(t *testing.T) {
	c := chat.New(newStore(t), &recordingResponder{}, nil)
	_, err := c.SendTo(context.Background(), "missing", "hello")
	assert.True(t, errors.Is(err, conversation.ErrConversationNotFound))
}
