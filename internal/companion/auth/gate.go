// Package auth gates the companion behind a single shared access code.
//
// The gate keeps the SHA-256 digest of the code in memory and, after a
// successful login, stores that same digest as the session token. Holding the
// digest is therefore proof of login. That is weak and only fits a
// non-sensitive demo.
package auth

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"go.uber.org/zap"
)

// DefaultSessionKey is the key the session token is stored under.
const DefaultSessionKey = "edu_auth_token"

var (
	// ErrEmptyCode is returned for blank access codes.
	ErrEmptyCode = errors.New("enter the access code")
	// ErrInvalidCode is returned when the code does not match.
	ErrInvalidCode = errors.New("invalid access code")
	// ErrVerification is returned when the code could not be verified.
	ErrVerification = errors.New("error during verification")
)

// HashFunc digests an access code into a comparable string.
type HashFunc func(code string) (string, error)

// SHA256Hex is the default HashFunc: lower-case hex SHA-256 of the UTF-8 code.
func SHA256Hex(code string) (string, error) {
	sum := sha256.Sum256([]byte(code))
	return hex.EncodeToString(sum[:]), nil
}

// Config holds the gate settings.
type Config struct {
	// AccessCode is hashed once at construction. Ignored when Digest is set.
	AccessCode string
	// Digest is the precomputed reference digest.
	Digest string
	// SessionKey names the token entry. Defaults to DefaultSessionKey.
	SessionKey string
	// SessionTTL expires the token on backends that support expiry. Zero keeps
	// it until logout.
	SessionTTL time.Duration
}

// Option configures a Gate.
type Option func(*Gate)

// WithHash replaces SHA256Hex.
func WithHash(h HashFunc) Option {
	return func(g *Gate) { g.hash = h }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(g *Gate) { g.logger = logger }
}

// Gate checks access codes against a reference digest.
type Gate struct {
	mu            sync.Mutex
	sessions      storage.Backend
	reference     string
	key           string
	ttl           time.Duration
	hash          HashFunc
	logger        *zap.Logger
	authenticated bool
}

// NewGate computes the reference digest and restores a previous login if the
// session backend holds a matching token.
func NewGate(ctx context.Context, cfg Config, sessions storage.Backend, opts ...Option) (*Gate, error) {
	g := &Gate{
		sessions: sessions,
		key:      cfg.SessionKey,
		ttl:      cfg.SessionTTL,
		hash:     SHA256Hex,
		logger:   zap.NewNop(),
	}
	if g.key == "" {
		g.key = DefaultSessionKey
	}
	for _, opt := range opts {
		opt(g)
	}

	switch {
	case cfg.Digest != "":
		g.reference = strings.ToLower(strings.TrimSpace(cfg.Digest))
	case cfg.AccessCode != "":
		digest, err := g.hash(cfg.AccessCode)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrVerification, err)
		}
		g.reference = digest
	default:
		return nil, fmt.Errorf("access gate requires an access code or digest")
	}

	token, err := sessions.Get(ctx, g.key)
	switch {
	case err == nil:
		g.authenticated = string(token) == g.reference
		if !g.authenticated {
			g.logger.Debug("ignoring stale session token", zap.String("key", g.key))
		}
	case errors.Is(err, storage.ErrNotFound):
	default:
		return nil, fmt.Errorf("failed to read session token: %w", err)
	}

	return g, nil
}

// Authenticated reports whether the current session is logged in.
func (g *Gate) Authenticated() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.authenticated
}

// Login checks code. On success the digest is stored as the session token.
// Failures return ErrEmptyCode, ErrInvalidCode or ErrVerification and leave
// the stored token untouched.
func (g *Gate) Login(ctx context.Context, code string) error {
	if strings.TrimSpace(code) == "" {
		return ErrEmptyCode
	}

	digest, err := g.hash(code)
	if err != nil {
		g.logger.Warn("hashing access code failed", zap.Error(err))
		return ErrVerification
	}
	if digest != g.reference {
		g.logger.Info("rejected access code")
		return ErrInvalidCode
	}

	if err := g.sessions.Put(ctx, g.key, []byte(digest), g.ttl); err != nil {
		g.logger.Warn("storing session token failed", zap.Error(err))
		return fmt.Errorf("%w: %v", ErrVerification, err)
	}

	g.mu.Lock()
	g.authenticated = true
	g.mu.Unlock()

	g.logger.Info("access granted")
	return nil
}

// Logout clears the session token.
func (g *Gate) Logout(ctx context.Context) error {
	g.mu.Lock()
	g.authenticated = false
	g.mu.Unlock()

	if err := g.sessions.Delete(ctx, g.key); err != nil {
		return fmt.Errorf("failed to clear session token: %w", err)
	}
	return nil
}
