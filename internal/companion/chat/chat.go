// Package chat runs one conversational turn: store the user message, ask the
// responder for a reply, store the reply.
package chat

import (
	"context"
	"errors"
	"fmt"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"go.uber.org/zap"
)

// Exchange is the result of one turn.
type Exchange struct {
	ConversationID string
	User           companion.Message
	Assistant      companion.Message
}

// Chat ties a conversation store to a responder.
type Chat struct {
	store     *conversation.Store
	responder companion.Responder
	logger    *zap.Logger
}

// New creates a Chat. A nil logger disables logging.
func New(store *conversation.Store, responder companion.Responder, logger *zap.Logger) *Chat {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chat{store: store, responder: responder, logger: logger}
}

// Send appends text to the active conversation, creating one when none is
// active, and appends the responder's reply.
func (c *Chat) Send(ctx context.Context, text string) (Exchange, error) {
	id := c.store.ActiveID()
	if id != "" {
		if _, err := c.store.Get(id); err != nil {
			id = ""
		}
	}
	if id == "" {
		newID, err := c.store.Create(ctx)
		if err != nil {
			return Exchange{}, fmt.Errorf("creating conversation: %w", err)
		}
		id = newID
		c.logger.Debug("started conversation on first send", zap.String("id", id))
	}
	return c.SendTo(ctx, id, text)
}

// SendTo runs a turn in the given conversation. If the responder fails the
// user message stays in the conversation and the error is returned.
func (c *Chat) SendTo(ctx context.Context, conversationID, text string) (Exchange, error) {
	history, err := c.store.History(conversationID)
	if err != nil {
		return Exchange{}, err
	}

	ex := Exchange{ConversationID: conversationID}
	ex.User, err = c.store.AddMessage(ctx, conversationID, companion.RoleUser, text)
	if err != nil {
		if errors.Is(err, conversation.ErrConversationNotFound) {
			return Exchange{}, err
		}
		return ex, fmt.Errorf("saving user message: %w", err)
	}

	reply, err := c.responder.Respond(ctx, text, history)
	if err != nil {
		c.logger.Warn("responder failed",
			zap.String("conversation", conversationID),
			zap.Error(err))
		return ex, fmt.Errorf("generating reply: %w", err)
	}

	ex.Assistant, err = c.store.AddMessage(ctx, conversationID, companion.RoleAssistant, reply)
	if err != nil {
		return ex, fmt.Errorf("saving assistant message: %w", err)
	}
	return ex, nil
}
