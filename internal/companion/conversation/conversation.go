package conversation

import (
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/google/uuid"
)

// Conversation represents a titled, ordered list of chat messages
type Conversation struct {
	ID        string              `json:"id"`    // UUID v4 (e.g., "550e8400-e29b-41d4-a716-446655440000")
	Title     string              `json:"title"` // Derived from the first user message
	Messages  []companion.Message `json:"messages"`
	CreatedAt time.Time           `json:"createdAt"`
	UpdatedAt time.Time           `json:"updatedAt"`
}

// New creates an empty conversation with a fresh ID
func New(now time.Time) *Conversation {
	return &Conversation{
		ID:        uuid.New().String(),
		Title:     companion.DefaultTitle,
		Messages:  []companion.Message{},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// append adds msg at the end and derives the title when msg is the first
// user message.
func (c *Conversation) append(msg companion.Message) {
	if msg.Role == companion.RoleUser && !c.HasUserMessage() {
		c.Title = companion.ExtractTitle(msg.Content)
	}
	c.Messages = append(c.Messages, msg)
	if msg.Timestamp.After(c.UpdatedAt) {
		c.UpdatedAt = msg.Timestamp
	}
}

// HasUserMessage reports whether any message was authored by the user
func (c *Conversation) HasUserMessage() bool {
	for _, m := range c.Messages {
		if m.Role == companion.RoleUser {
			return true
		}
	}
	return false
}

// GetShortID returns the shortened conversation ID (first 8 characters)
func (c *Conversation) GetShortID() string {
	if len(c.ID) >= 8 {
		return c.ID[:8]
	}
	return c.ID
}

// MessageCount returns the number of messages in the conversation
func (c *Conversation) MessageCount() int {
	return len(c.Messages)
}

// History returns the messages as role/content turns, oldest first
func (c *Conversation) History() []companion.Turn {
	turns := make([]companion.Turn, 0, len(c.Messages))
	for _, m := range c.Messages {
		turns = append(turns, m.Turn())
	}
	return turns
}

func (c *Conversation) clone() Conversation {
	cp := *c
	cp.Messages = append([]companion.Message(nil), c.Messages...)
	if cp.Messages == nil {
		cp.Messages = []companion.Message{}
	}
	return cp
}
