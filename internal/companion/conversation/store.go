// Package conversation owns the conversation collection: creation, message
// appends, deletion and the active-conversation pointer. The whole collection
// is written to a storage backend after every mutation.
package conversation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"go.uber.org/zap"
)

const (
	// DefaultStorageKey is the key holding the serialized collection.
	DefaultStorageKey = "ai-text-companion-conversations"
	// DefaultActiveKey is the key holding the active conversation ID.
	DefaultActiveKey = "ai-text-companion-active"
)

var (
	// ErrConversationNotFound is returned when no conversation has the given ID.
	ErrConversationNotFound = errors.New("conversation not found")
	// ErrInvalidRole is returned by AddMessage for roles other than user and assistant.
	ErrInvalidRole = errors.New("invalid message role")
)

// AmbiguousIDError is returned when multiple conversations match a prefix
type AmbiguousIDError struct {
	Prefix  string
	Matches []Conversation
}

func (e *AmbiguousIDError) Error() string {
	var lines []string
	lines = append(lines, fmt.Sprintf("Ambiguous conversation ID %q. Multiple matches found:", e.Prefix))
	for _, match := range e.Matches {
		lines = append(lines, fmt.Sprintf("- %s (%s, %s, %d messages)",
			match.GetShortID(),
			match.Title,
			match.CreatedAt.Format("2006-01-02"),
			match.MessageCount()))
	}
	lines = append(lines, "")
	lines = append(lines, "Please use a longer prefix or run 'companion conversations list'.")
	return strings.Join(lines, "\n")
}

// Option configures a Store.
type Option func(*Store)

// WithStorageKey sets the key the collection is stored under.
func WithStorageKey(key string) Option {
	return func(s *Store) { s.key = key }
}

// WithActiveKey sets the key the active conversation ID is stored under.
func WithActiveKey(key string) Option {
	return func(s *Store) { s.activeKey = key }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Store) { s.logger = logger }
}

// Store is the conversation collection, most recently created first.
type Store struct {
	mu            sync.Mutex
	backend       storage.Backend
	key           string
	activeKey     string
	now           func() time.Time
	logger        *zap.Logger
	conversations []*Conversation
	activeID      string
}

// NewStore creates a store backed by backend and loads the persisted
// collection. Corrupt data is logged and discarded; the store then starts
// empty.
func NewStore(ctx context.Context, backend storage.Backend, opts ...Option) (*Store, error) {
	s := &Store{
		backend:   backend,
		key:       DefaultStorageKey,
		activeKey: DefaultActiveKey,
		now:       time.Now,
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.load(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) load(ctx context.Context) error {
	data, err := s.backend.Get(ctx, s.key)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load conversations: %w", err)
	}

	var stored []*Conversation
	if err := json.Unmarshal(data, &stored); err != nil {
		s.logger.Warn("discarding unreadable conversation data",
			zap.String("key", s.key),
			zap.Error(err))
		return nil
	}

	seen := make(map[string]bool, len(stored))
	for _, conv := range stored {
		if conv == nil || conv.ID == "" {
			s.logger.Warn("skipping conversation without ID", zap.String("key", s.key))
			continue
		}
		if seen[conv.ID] {
			s.logger.Warn("skipping duplicate conversation", zap.String("id", conv.ID))
			continue
		}
		seen[conv.ID] = true
		if conv.Messages == nil {
			conv.Messages = []companion.Message{}
		}
		s.conversations = append(s.conversations, conv)
	}

	active, err := s.backend.Get(ctx, s.activeKey)
	switch {
	case err == nil:
		if id := string(active); seen[id] {
			s.activeID = id
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		s.logger.Warn("failed to load active conversation", zap.Error(err))
	}

	s.logger.Debug("loaded conversations",
		zap.Int("count", len(s.conversations)),
		zap.String("active", s.activeID))
	return nil
}

// persist writes the whole collection. Callers hold s.mu.
func (s *Store) persist(ctx context.Context) error {
	out := make([]*Conversation, len(s.conversations))
	copy(out, s.conversations)

	data, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("failed to serialize conversations: %w", err)
	}
	if err := s.backend.Put(ctx, s.key, data, 0); err != nil {
		return fmt.Errorf("failed to save conversations: %w", err)
	}
	return nil
}

// persistActive writes the active pointer. Callers hold s.mu.
func (s *Store) persistActive(ctx context.Context) error {
	var err error
	if s.activeID == "" {
		err = s.backend.Delete(ctx, s.activeKey)
	} else {
		err = s.backend.Put(ctx, s.activeKey, []byte(s.activeID), 0)
	}
	if err != nil {
		return fmt.Errorf("failed to save active conversation: %w", err)
	}
	return nil
}

func (s *Store) find(id string) (int, *Conversation) {
	for i, conv := range s.conversations {
		if conv.ID == id {
			return i, conv
		}
	}
	return -1, nil
}

// Create inserts an empty conversation at the front of the collection, marks
// it active and returns its ID.
func (s *Store) Create(ctx context.Context) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	conv := New(s.now())
	s.conversations = append([]*Conversation{conv}, s.conversations...)
	s.activeID = conv.ID

	s.logger.Debug("created conversation", zap.String("id", conv.ID))

	if err := s.persist(ctx); err != nil {
		return conv.ID, err
	}
	return conv.ID, s.persistActive(ctx)
}

// AddMessage appends a message to the conversation. The first user message
// sets the conversation title.
func (s *Store) AddMessage(ctx context.Context, conversationID string, role companion.Role, content string) (companion.Message, error) {
	if !role.Valid() {
		return companion.Message{}, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.find(conversationID)
	if conv == nil {
		return companion.Message{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}

	msg := companion.NewMessage(role, content, s.now())
	conv.append(msg)

	s.logger.Debug("added message",
		zap.String("conversation", conv.ID),
		zap.String("role", string(role)),
		zap.Int("length", len(content)))

	return msg, s.persist(ctx)
}

// Delete removes the conversation and clears the active pointer if it
// referenced it. Deleting a missing ID is a no-op.
func (s *Store) Delete(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, _ := s.find(conversationID)
	if i < 0 {
		return nil
	}
	s.conversations = append(s.conversations[:i], s.conversations[i+1:]...)

	s.logger.Debug("deleted conversation", zap.String("id", conversationID))

	if err := s.persist(ctx); err != nil {
		return err
	}
	if s.activeID == conversationID {
		s.activeID = ""
		return s.persistActive(ctx)
	}
	return nil
}

// Prune deletes every conversation created before the given time, or every
// conversation when before is zero. It returns the removed conversations.
func (s *Store) Prune(ctx context.Context, before time.Time) ([]Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var kept []*Conversation
	var removed []Conversation
	activeRemoved := false
	for _, conv := range s.conversations {
		if before.IsZero() || conv.CreatedAt.Before(before) {
			removed = append(removed, conv.clone())
			if conv.ID == s.activeID {
				activeRemoved = true
			}
			continue
		}
		kept = append(kept, conv)
	}
	if len(removed) == 0 {
		return nil, nil
	}
	s.conversations = kept

	if err := s.persist(ctx); err != nil {
		return removed, err
	}
	if activeRemoved {
		s.activeID = ""
		return removed, s.persistActive(ctx)
	}
	return removed, nil
}

// Rename replaces the conversation title.
func (s *Store) Rename(ctx context.Context, conversationID, title string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.find(conversationID)
	if conv == nil {
		return fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	conv.Title = companion.ExtractTitle(title)
	return s.persist(ctx)
}

// SetActive points the active pointer at conversationID. An empty ID clears it.
func (s *Store) SetActive(ctx context.Context, conversationID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.activeID = conversationID
	return s.persistActive(ctx)
}

// ActiveID returns the active conversation ID, or "" when none is active.
func (s *Store) ActiveID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.activeID
}

// Active returns a copy of the active conversation.
func (s *Store) Active() (Conversation, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.find(s.activeID)
	if conv == nil {
		return Conversation{}, false
	}
	return conv.clone(), true
}

// List returns copies of all conversations, most recently created first.
func (s *Store) List() []Conversation {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]Conversation, 0, len(s.conversations))
	for _, conv := range s.conversations {
		out = append(out, conv.clone())
	}
	return out
}

// Get returns a copy of the conversation with the given ID.
func (s *Store) Get(conversationID string) (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, conv := s.find(conversationID)
	if conv == nil {
		return Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, conversationID)
	}
	return conv.clone(), nil
}

// History returns the conversation's messages as role/content turns.
func (s *Store) History(conversationID string) ([]companion.Turn, error) {
	conv, err := s.Get(conversationID)
	if err != nil {
		return nil, err
	}
	return conv.History(), nil
}

// FindByPrefix finds a conversation by ID prefix (minimum 4 characters)
// Returns error if multiple matches are found (AmbiguousIDError)
// Special case: "latest" returns the most recently updated conversation
func (s *Store) FindByPrefix(prefix string) (Conversation, error) {
	if prefix == "latest" {
		return s.Latest()
	}

	if len(prefix) < 4 {
		return Conversation{}, fmt.Errorf("conversation ID prefix must be at least 4 characters (got %d)", len(prefix))
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var matches []Conversation
	for _, conv := range s.conversations {
		if conv.ID == prefix {
			return conv.clone(), nil
		}
		if strings.HasPrefix(conv.ID, prefix) {
			matches = append(matches, conv.clone())
		}
	}

	if len(matches) == 0 {
		return Conversation{}, fmt.Errorf("%w: %s", ErrConversationNotFound, prefix)
	}
	if len(matches) > 1 {
		return Conversation{}, &AmbiguousIDError{Prefix: prefix, Matches: matches}
	}
	return matches[0], nil
}

// Latest returns the most recently updated conversation
func (s *Store) Latest() (Conversation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var latest *Conversation
	for _, conv := range s.conversations {
		if latest == nil || conv.UpdatedAt.After(latest.UpdatedAt) {
			latest = conv
		}
	}
	if latest == nil {
		return Conversation{}, fmt.Errorf("%w: no conversations yet", ErrConversationNotFound)
	}
	return latest.clone(), nil
}
