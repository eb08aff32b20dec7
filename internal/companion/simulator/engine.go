// Package simulator fakes an AI text-generation API. A reply is picked from
// canned pools by keyword, then revealed one character at a time after an
// artificial "thinking" pause. No request ever leaves the process.
package simulator

import (
	"context"
	"errors"
	"math/rand"
	"sync"
	"time"

	"github.com/capitancloud/ai-text-companion/internal/companion"
	"go.uber.org/zap"
)

// Status is the stage of a simulated request.
type Status string

const (
	StatusIdle     Status = "idle"
	StatusThinking Status = "thinking"
	StatusTyping   Status = "typing"
	StatusComplete Status = "complete"
)

var (
	// ErrBusy is returned when Simulate is called while a run is in flight.
	ErrBusy = errors.New("simulation already in progress")
	// ErrReset is returned by a run that was interrupted by Reset.
	ErrReset = errors.New("simulation reset")
)

// Default delay ranges, half-open: [min, max).
const (
	DefaultThinkingMin = 1000 * time.Millisecond
	DefaultThinkingMax = 2000 * time.Millisecond
	DefaultTypingMin   = 20 * time.Millisecond
	DefaultTypingMax   = 50 * time.Millisecond
)

// Snapshot is the observable state of the engine.
type Snapshot struct {
	Status    Status
	Displayed string // text revealed so far
	Full      string // selected reply, set once thinking ends
}

// Observer receives every state change. It runs while the engine holds its
// lock and must not call back into the Engine.
type Observer func(Snapshot)

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Random is the subset of *rand.Rand the engine draws from.
type Random interface {
	Intn(n int) int
	Int63n(n int64) int64
}

// Option configures an Engine.
type Option func(*Engine)

// WithRand sets the random source used for reply selection and delays.
func WithRand(r Random) Option {
	return func(e *Engine) { e.rng = r }
}

// WithSleep replaces the timer-based wait.
func WithSleep(sleep SleepFunc) Option {
	return func(e *Engine) { e.sleep = sleep }
}

// WithCatalog sets the response pools.
func WithCatalog(c *Catalog) Option {
	return func(e *Engine) { e.catalog = c }
}

// WithThinkingDelay sets the range of the pause before typing starts.
func WithThinkingDelay(min, max time.Duration) Option {
	return func(e *Engine) { e.thinkingMin, e.thinkingMax = min, max }
}

// WithTypingDelay sets the range of the pause after each revealed character.
func WithTypingDelay(min, max time.Duration) Option {
	return func(e *Engine) { e.typingMin, e.typingMax = min, max }
}

// WithObserver registers a callback for state changes.
func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observer = o }
}

// WithLogger sets the logger.
func WithLogger(logger *zap.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// Engine runs one simulated request at a time through
// idle → thinking → typing → complete.
type Engine struct {
	mu        sync.Mutex
	status    Status
	displayed string
	full      string
	running   bool
	gen       uint64
	cancel    context.CancelFunc

	randMu      sync.Mutex
	rng         Random
	sleep       SleepFunc
	catalog     *Catalog
	thinkingMin time.Duration
	thinkingMax time.Duration
	typingMin   time.Duration
	typingMax   time.Duration
	observer    Observer
	logger      *zap.Logger
}

// NewEngine creates an idle engine.
func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		status:      StatusIdle,
		rng:         rand.New(rand.NewSource(time.Now().UnixNano())),
		sleep:       sleepContext,
		catalog:     DefaultCatalog(),
		thinkingMin: DefaultThinkingMin,
		thinkingMax: DefaultThinkingMax,
		typingMin:   DefaultTypingMin,
		typingMax:   DefaultTypingMax,
		logger:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Snapshot returns the current state.
func (e *Engine) Snapshot() Snapshot {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Status returns the current stage.
func (e *Engine) Status() Status {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) snapshotLocked() Snapshot {
	return Snapshot{Status: e.status, Displayed: e.displayed, Full: e.full}
}

func (e *Engine) notifyLocked() {
	if e.observer != nil {
		e.observer(e.snapshotLocked())
	}
}

// update applies fn only if run gen is still current. It reports whether the
// run is still current.
func (e *Engine) update(gen uint64, fn func()) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.gen != gen {
		return false
	}
	fn()
	e.notifyLocked()
	return true
}

// Reset returns the engine to idle, clears all text and cancels any run in
// flight. The cancelled run never touches the displayed text again.
func (e *Engine) Reset() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.gen++
	if e.cancel != nil {
		e.cancel()
		e.cancel = nil
	}
	e.running = false
	e.status = StatusIdle
	e.displayed = ""
	e.full = ""
	e.notifyLocked()
}

// Respond implements companion.Responder.
func (e *Engine) Respond(ctx context.Context, message string, history []companion.Turn) (string, error) {
	return e.Simulate(ctx, message, history)
}

// Simulate runs a full simulated request for message and returns the reply.
// It fails with ErrBusy if another run is in flight and with ErrReset if Reset
// interrupts it.
func (e *Engine) Simulate(ctx context.Context, message string, history []companion.Turn) (string, error) {
	e.mu.Lock()
	if e.running {
		e.mu.Unlock()
		return "", ErrBusy
	}
	runCtx, cancel := context.WithCancel(ctx)
	e.gen++
	gen := e.gen
	e.running = true
	e.cancel = cancel
	e.status = StatusThinking
	e.displayed = ""
	e.full = ""
	e.notifyLocked()
	e.mu.Unlock()

	defer func() {
		cancel()
		e.mu.Lock()
		if e.gen == gen {
			e.running = false
			e.cancel = nil
		}
		e.mu.Unlock()
	}()

	e.logger.Debug("simulated API request", zap.Any("request", NewRequest(message, history)))

	if err := e.sleep(runCtx, e.between(e.thinkingMin, e.thinkingMax)); err != nil {
		return "", e.abort(gen, err)
	}

	reply := e.SelectResponse(message)
	if !e.update(gen, func() {
		e.full = reply
		e.status = StatusTyping
	}) {
		return "", ErrReset
	}

	runes := []rune(reply)
	for i := range runes {
		if err := e.sleep(runCtx, e.between(e.typingMin, e.typingMax)); err != nil {
			return "", e.abort(gen, err)
		}
		shown := string(runes[:i+1])
		if !e.update(gen, func() { e.displayed = shown }) {
			return "", ErrReset
		}
	}

	if !e.update(gen, func() { e.status = StatusComplete }) {
		return "", ErrReset
	}

	e.logger.Debug("simulated API response", zap.String("response", reply))
	return reply, nil
}

// abort maps a failed wait to ErrReset when Reset caused it, and otherwise
// returns the engine to idle and reports the context error.
func (e *Engine) abort(gen uint64, err error) error {
	reset := !e.update(gen, func() {
		e.status = StatusIdle
		e.displayed = ""
		e.full = ""
	})
	if reset {
		return ErrReset
	}
	return err
}

// SelectResponse picks a reply for message: the first category whose keyword
// occurs in the lower-cased message, uniformly at random within it.
func (e *Engine) SelectResponse(message string) string {
	cat := e.catalog.Match(message)
	if len(cat.Responses) == 0 {
		cat = e.catalog.Fallback()
	}
	if len(cat.Responses) == 0 {
		return ""
	}

	e.randMu.Lock()
	defer e.randMu.Unlock()
	return cat.Responses[e.rng.Intn(len(cat.Responses))]
}

// between draws a duration in [min, max).
func (e *Engine) between(min, max time.Duration) time.Duration {
	if max <= min {
		return min
	}
	e.randMu.Lock()
	defer e.randMu.Unlock()
	return min + time.Duration(e.rng.Int63n(int64(max-min)))
}
