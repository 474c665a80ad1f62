package session

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/google/uuid"
)

// DefaultIdleTimeout is how long an untouched flow survives.
const DefaultIdleTimeout = 30 * time.Minute

// lockEntry holds the mutex and the reference count.
type lockEntry struct {
	mu   sync.Mutex
	refs int
}

type liveFlow struct {
	flow    flows.Flow
	touched time.Time
}

// Manager owns the live flows of a server and serializes access per session.
// It uses Reference Counting to garbage collect unused locks.
type Manager struct {
	mu    sync.Mutex
	locks map[string]*lockEntry
	flows map[string]*liveFlow

	idle   time.Duration
	now    func() time.Time
	logger *slog.Logger
}

// Option configures the Manager.
type Option func(*Manager)

// WithLogger configures a logger for the Manager.
func WithLogger(logger *slog.Logger) Option {
	return func(m *Manager) {
		m.logger = logger
	}
}

// WithIdleTimeout sets how long a flow may stay untouched before Prune drops it.
func WithIdleTimeout(d time.Duration) Option {
	return func(m *Manager) {
		if d > 0 {
			m.idle = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		m.now = now
	}
}

// NewManager creates an empty manager.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		locks:  make(map[string]*lockEntry),
		flows:  make(map[string]*liveFlow),
		idle:   DefaultIdleTimeout,
		now:    time.Now,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// acquire gets or creates a lock entry and increments its reference count.
// The caller MUST Lock the entry.mu, and then call release(sessionID) after unlocking.
func (m *Manager) acquire(sessionID string) *lockEntry {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		entry = &lockEntry{}
		m.locks[sessionID] = entry
	}
	entry.refs++
	return entry
}

// release decrements the reference count and deletes the entry if it reaches zero.
func (m *Manager) release(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, exists := m.locks[sessionID]
	if !exists {
		return
	}
	entry.refs--
	if entry.refs <= 0 {
		delete(m.locks, sessionID)
	}
}

// Create opens a flow under a fresh session id. The id is passed to open so
// the flow can tag its events with it.
func (m *Manager) Create(ctx context.Context, open func(ctx context.Context, sessionID string) (flows.Flow, error)) (string, flows.Flow, error) {
	id := uuid.NewString()
	f, err := open(ctx, id)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	m.flows[id] = &liveFlow{flow: f, touched: m.now()}
	m.mu.Unlock()

	m.logger.Debug("Session created", "session_id", id, "flow", f.Name())
	return id, f, nil
}

// Get returns the flow of a session and marks it as used.
func (m *Manager) Get(sessionID string) (flows.Flow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	lf, ok := m.flows[sessionID]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrSessionNotFound, sessionID)
	}
	lf.touched = m.now()
	return lf.flow, nil
}

// Delete drops a session. Deleting an unknown session is not an error.
func (m *Manager) Delete(ctx context.Context, sessionID string) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		m.mu.Lock()
		delete(m.flows, sessionID)
		m.mu.Unlock()
		return nil
	})
}

// List returns the live session ids, sorted.
func (m *Manager) List() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	ids := make([]string, 0, len(m.flows))
	for id := range m.flows {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// WithLock executes fn while holding the lock for the session.
func (m *Manager) WithLock(ctx context.Context, sessionID string, fn func(context.Context) error) error {
	entry := m.acquire(sessionID)
	entry.mu.Lock()
	defer func() {
		entry.mu.Unlock()
		m.release(sessionID)
	}()

	if err := ctx.Err(); err != nil {
		return err
	}
	return fn(ctx)
}

// Do runs fn on the session's flow under its lock.
func (m *Manager) Do(ctx context.Context, sessionID string, fn func(context.Context, flows.Flow) error) error {
	return m.WithLock(ctx, sessionID, func(ctx context.Context) error {
		f, err := m.Get(sessionID)
		if err != nil {
			return err
		}
		return fn(ctx, f)
	})
}

// Prune drops flows idle for longer than the idle timeout and reports how many went.
// Flows in the middle of a submission are kept.
func (m *Manager) Prune() int {
	cutoff := m.now().Add(-m.idle)

	m.mu.Lock()
	var expired []string
	for id, lf := range m.flows {
		if lf.touched.Before(cutoff) && lf.flow.Engine().Status() != domain.StatusSubmitting {
			expired = append(expired, id)
			delete(m.flows, id)
		}
	}
	m.mu.Unlock()

	for _, id := range expired {
		m.logger.Debug("Session expired", "session_id", id)
	}
	return len(expired)
}

// Run prunes every interval until ctx is done.
func (m *Manager) Run(ctx context.Context, interval time.Duration) {
	t := time.NewTicker(interval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if n := m.Prune(); n > 0 {
				m.logger.Info("Pruned idle sessions", "count", n)
			}
		}
	}
}
