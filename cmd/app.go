package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/capitancloud/ai-text-companion/internal/companion/auth"
	"github.com/capitancloud/ai-text-companion/internal/companion/config"
	"github.com/capitancloud/ai-text-companion/internal/companion/conversation"
	"github.com/capitancloud/ai-text-companion/internal/companion/simulator"
	"github.com/capitancloud/ai-text-companion/internal/companion/storage"
	"github.com/capitancloud/ai-text-companion/internal/logging"
	"go.uber.org/zap"
)

// errNotLoggedIn is returned by gated commands before a successful login.
var errNotLoggedIn = errors.New("access code required. Run 'companion login' first")

// app bundles what a command needs. Build it with openApp and release it
// with close.
type app struct {
	cfg      *config.Config
	logger   *zap.Logger
	backend  storage.Backend
	sessions storage.Backend
	gate     *auth.Gate
	store    *conversation.Store
}

// openApp loads the configuration and opens the session backend and the
// access gate. The conversation store is opened by openStore.
func openApp(ctx context.Context) (*app, error) {
	cfg, err := config.LoadConfig()
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, verbose)
	if err != nil {
		return nil, err
	}

	a := &app{cfg: cfg, logger: logger}

	a.sessions, err = storage.Open(ctx, cfg.SessionStorageOptions())
	if err != nil {
		a.close()
		return nil, fmt.Errorf("opening session storage: %w", err)
	}

	ttl, _ := cfg.GetSessionTTL()
	a.gate, err = auth.NewGate(ctx, auth.Config{
		AccessCode: cfg.AccessCode,
		Digest:     cfg.AccessCodeDigest,
		SessionKey: cfg.SessionKey,
		SessionTTL: ttl,
	}, a.sessions, auth.WithLogger(logger.Named("auth")))
	if err != nil {
		a.close()
		return nil, fmt.Errorf("initializing access gate: %w", err)
	}

	return a, nil
}

// openGatedApp opens the app, refuses to continue without a login and opens
// the conversation store.
func openGatedApp(ctx context.Context) (*app, error) {
	a, err := openApp(ctx)
	if err != nil {
		return nil, err
	}
	if !a.gate.Authenticated() {
		a.close()
		return nil, errNotLoggedIn
	}
	if err := a.openStore(ctx); err != nil {
		a.close()
		return nil, err
	}
	return a, nil
}

func (a *app) openStore(ctx context.Context) error {
	var err error
	a.backend, err = storage.Open(ctx, a.cfg.StorageOptions())
	if err != nil {
		return fmt.Errorf("opening conversation storage: %w", err)
	}

	a.store, err = conversation.NewStore(ctx, a.backend,
		conversation.WithStorageKey(a.cfg.StorageKey),
		conversation.WithActiveKey(a.cfg.StorageKey+"-active"),
		conversation.WithLogger(a.logger.Named("store")))
	if err != nil {
		return fmt.Errorf("loading conversations: %w", err)
	}
	return nil
}

// newEngine builds a simulator from the configured delays and response
// catalogs. instant disables every delay.
func (a *app) newEngine(observer simulator.Observer, instant bool) (*simulator.Engine, error) {
	catalog, err := simulator.LoadCatalog(a.cfg.ResponseDirs)
	if err != nil {
		return nil, fmt.Errorf("loading response catalog: %w", err)
	}

	thinkingMin, thinkingMax := a.cfg.ThinkingDelay()
	typingMin, typingMax := a.cfg.TypingDelay()
	if instant {
		thinkingMin, thinkingMax, typingMin, typingMax = 0, 0, 0, 0
	}

	opts := []simulator.Option{
		simulator.WithCatalog(catalog),
		simulator.WithThinkingDelay(thinkingMin, thinkingMax),
		simulator.WithTypingDelay(typingMin, typingMax),
		simulator.WithLogger(a.logger.Named("simulator")),
	}
	if observer != nil {
		opts = append(opts, simulator.WithObserver(observer))
	}
	return simulator.NewEngine(opts...), nil
}

func (a *app) close() {
	if a.backend != nil {
		if err := a.backend.Close(); err != nil {
			a.logger.Warn("closing conversation storage", zap.Error(err))
		}
	}
	if a.sessions != nil {
		if err := a.sessions.Close(); err != nil {
			a.logger.Warn("closing session storage", zap.Error(err))
		}
	}
	a.logger.Sync()
}
