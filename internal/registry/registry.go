// Package registry is the single source of truth mapping a continuity token
// to in-flight presentation state.  The registry is volatile process memory:
// a restart discards every context, and nothing is ever written to disk.
package registry

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"slides2mcp/internal/model"
)

const (
	// DefaultTTL is how long an untouched context survives.
	DefaultTTL = 24 * time.Hour
	// DefaultSweepInterval is how often the background sweeper runs.
	DefaultSweepInterval = time.Hour
)

// Context tracks one logical presentation being built across multiple tool
// calls within a single assistant conversation.
//
// ConversationID and UserID form the remote correlation identity: they are
// generated once at creation, stay stable for the context's lifetime, and are
// forwarded as headers on every remote call so the stateless remote service
// can group same-conversation calls into one deck.
type Context struct {
	ID             string
	ConversationID string
	UserID         string
	CreatedAt      time.Time

	mu           sync.Mutex
	slideCount   int
	deckID       string
	themeID      string
	themeOffered bool
	lastUsed     time.Time
}

// SlideCount reports how many slides have been generated so far.
func (c *Context) SlideCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.slideCount
}

// RecordSlide increments the slide counter after a successful generation and
// returns the new count.
func (c *Context) RecordSlide() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.slideCount++
	return c.slideCount
}

// DeckID returns the remote deck identifier, or "" while unknown.
func (c *Context) DeckID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.deckID
}

// SeedDeckID records the deck identifier extracted from the first successful
// generation response.  The first non-empty value wins; later calls are
// no-ops so the deck a presentation belongs to can never silently change.
// Reports whether the value was stored.
func (c *Context) SeedDeckID(deckID string) bool {
	if deckID == "" {
		return false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.deckID != "" {
		return false
	}
	c.deckID = deckID
	return true
}

// ThemeID returns the last successfully applied theme, or "".
func (c *Context) ThemeID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.themeID
}

// SetThemeID records a successfully applied theme.
func (c *Context) SetThemeID(themeID string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.themeID = themeID
}

// OfferThemeOnce transitions the themeOffered flag and reports whether the
// caller should surface theme options.  Only the first call per context
// returns true; every slide-creating tool goes through this single helper so
// the user is never prompted twice.
func (c *Context) OfferThemeOnce() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.themeOffered {
		return false
	}
	c.themeOffered = true
	return true
}

// LastUsed returns the time of the most recent access.
func (c *Context) LastUsed() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastUsed
}

func (c *Context) touch(now time.Time) {
	c.mu.Lock()
	c.lastUsed = now
	c.mu.Unlock()
}

// Registry owns all live presentation contexts.  It is constructed
// explicitly and injected wherever needed; tests build isolated registries
// with a controlled clock.
type Registry struct {
	mu   sync.Mutex
	byID map[string]*Context

	clock  func() time.Time
	logger *slog.Logger

	ttl           time.Duration
	sweepInterval time.Duration
}

// Option configures a Registry.
type Option func(*Registry)

// WithClock substitutes the time source, used by eviction tests.
func WithClock(clock func() time.Time) Option {
	return func(r *Registry) { r.clock = clock }
}

// WithTTL overrides the context retention window.
func WithTTL(ttl time.Duration) Option {
	return func(r *Registry) { r.ttl = ttl }
}

// WithSweepInterval overrides how often Run sweeps for stale contexts.
func WithSweepInterval(d time.Duration) Option {
	return func(r *Registry) { r.sweepInterval = d }
}

// WithLogger sets the logger used by the background sweeper.
func WithLogger(lg *slog.Logger) Option {
	return func(r *Registry) { r.logger = lg }
}

// New creates an empty registry.
func New(opts ...Option) *Registry {
	r := &Registry{
		byID:          make(map[string]*Context),
		clock:         time.Now,
		logger:        slog.Default(),
		ttl:           DefaultTTL,
		sweepInterval: DefaultSweepInterval,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// ResolveOrCreate returns the context for token, refreshing its last-used
// time.  An empty or unknown token starts a brand-new presentation: a fresh
// ID is minted (or the caller-supplied token adopted as the key) together
// with a fresh correlation identity.  Never fails.
func (r *Registry) ResolveOrCreate(token string) *Context {
	now := r.clock()

	r.mu.Lock()
	if token != "" {
		if pc, ok := r.byID[token]; ok {
			r.mu.Unlock()
			pc.touch(now)
			return pc
		}
	}

	id := token
	if id == "" {
		id = newPresentationID()
	}
	pc := &Context{
		ID:             id,
		ConversationID: uuid.NewString(),
		UserID:         uuid.NewString(),
		CreatedAt:      now,
		lastUsed:       now,
	}
	r.byID[id] = pc
	r.mu.Unlock()
	return pc
}

// Lookup returns the context for token without creating one.  Unknown tokens
// yield model.ErrPresentationNotFound, which callers surface as a user-facing
// error rather than a crash.
func (r *Registry) Lookup(token string) (*Context, error) {
	r.mu.Lock()
	pc, ok := r.byID[token]
	r.mu.Unlock()
	if !ok {
		return nil, model.ErrPresentationNotFound
	}
	pc.touch(r.clock())
	return pc, nil
}

// Peek returns the context for token without refreshing its last-used time.
// Used by read-only surfaces that must not mutate anything.
func (r *Registry) Peek(token string) (*Context, bool) {
	r.mu.Lock()
	pc, ok := r.byID[token]
	r.mu.Unlock()
	return pc, ok
}

// Len reports the number of live contexts.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.byID)
}

// EvictStale removes every context whose last use precedes now-ttl and
// returns the number evicted.
func (r *Registry) EvictStale(now time.Time, ttl time.Duration) int {
	cutoff := now.Add(-ttl)
	r.mu.Lock()
	defer r.mu.Unlock()
	evicted := 0
	for id, pc := range r.byID {
		if pc.LastUsed().Before(cutoff) {
			delete(r.byID, id)
			evicted++
		}
	}
	return evicted
}

// Run sweeps for stale contexts on a fixed interval until ctx is cancelled.
// The sweep is independent of request traffic.
func (r *Registry) Run(ctx context.Context) {
	ticker := time.NewTicker(r.sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := r.EvictStale(r.clock(), r.ttl); n > 0 {
				r.logger.InfoContext(ctx, "evicted stale presentations", "count", n, "live", r.Len())
			}
		}
	}
}

// newPresentationID mints an opaque continuity token, e.g. "pres_1f0a…".
func newPresentationID() string {
	buf := make([]byte, 8)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failure means the process is in a bad way; fall back
		// to a uuid which has its own entropy handling.
		return "pres_" + uuid.NewString()
	}
	return "pres_" + hex.EncodeToString(buf)
}
