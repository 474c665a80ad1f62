package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFlow wraps a one-step engine.
type stubFlow struct {
	engine *wizard.Engine
}

func (s *stubFlow) Name() string           { return "stub" }
func (s *stubFlow) Engine() *wizard.Engine { return s.engine }
func (s *stubFlow) Next(ctx context.Context) (flows.Outcome, error) {
	if _, err := s.engine.Submit(ctx); err != nil {
		return flows.OutcomeFailed, err
	}
	return flows.OutcomeSubmitted, nil
}

func openStub(t *testing.T) func(context.Context, string) (flows.Flow, error) {
	return func(ctx context.Context, id string) (flows.Flow, error) {
		def := dsl.New("stub").Step("only").Text("n", "N").Done().MustBuild()
		e, err := wizard.New(def, func(context.Context, any) (any, error) { return "ok", nil }, wizard.WithSessionID(id))
		require.NoError(t, err)
		return &stubFlow{engine: e}, nil
	}
}

func TestManager_CreateGetDelete(t *testing.T) {
	m := NewManager()
	ctx := context.Background()

	id, f, err := m.Create(ctx, openStub(t))
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, id, f.Engine().State().SessionID)

	got, err := m.Get(id)
	require.NoError(t, err)
	assert.Same(t, f, got)
	assert.Equal(t, []string{id}, m.List())

	require.NoError(t, m.Delete(ctx, id))
	_, err = m.Get(id)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
	assert.NoError(t, m.Delete(ctx, id))
}

func TestManager_CreateError(t *testing.T) {
	m := NewManager()
	_, _, err := m.Create(context.Background(), func(context.Context, string) (flows.Flow, error) {
		return nil, errors.New("boom")
	})
	assert.Error(t, err)
	assert.Empty(t, m.List())
}

func TestManager_LockLifecycle(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	count := 10000

	for i := 0; i < count; i++ {
		sid := fmt.Sprintf("session-%d", i)
		_ = m.WithLock(ctx, sid, func(context.Context) error { return nil })
		_ = m.Delete(ctx, sid)
	}

	if lockCount := len(m.locks); lockCount != 0 {
		t.Errorf("Memory Leak Detected: %d locks remaining in memory after Delete", lockCount)
	}
}

func TestManager_DoSerializes(t *testing.T) {
	m := NewManager()
	ctx := context.Background()
	id, _, err := m.Create(ctx, openStub(t))
	require.NoError(t, err)

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		inside  int
		overlap bool
	)
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(val int) {
			defer wg.Done()
			err := m.Do(ctx, id, func(ctx context.Context, f flows.Flow) error {
				mu.Lock()
				inside++
				if inside > 1 {
					overlap = true
				}
				mu.Unlock()

				time.Sleep(time.Millisecond)
				err := f.Engine().SetField("n", fmt.Sprint(val))

				mu.Lock()
				inside--
				mu.Unlock()
				return err
			})
			assert.NoError(t, err)
		}(i)
	}
	wg.Wait()
	assert.False(t, overlap, "Do must not run concurrently for one session")
}

func TestManager_DoUnknownSession(t *testing.T) {
	m := NewManager()
	err := m.Do(context.Background(), "missing", func(context.Context, flows.Flow) error { return nil })
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}

func TestManager_WithLockHonoursCancelledContext(t *testing.T) {
	m := NewManager()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	called := false
	err := m.WithLock(ctx, "x", func(context.Context) error { called = true; return nil })
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, called)
}

func TestManager_Prune(t *testing.T) {
	now := time.Date(2026, 10, 17, 12, 0, 0, 0, time.UTC)
	m := NewManager(WithIdleTimeout(10*time.Minute), WithClock(func() time.Time { return now }))
	ctx := context.Background()

	stale, _, err := m.Create(ctx, openStub(t))
	require.NoError(t, err)

	now = now.Add(8 * time.Minute)
	fresh, _, err := m.Create(ctx, openStub(t))
	require.NoError(t, err)

	now = now.Add(5 * time.Minute)
	assert.Equal(t, 1, m.Prune())
	assert.Equal(t, []string{fresh}, m.List())
	_, err = m.Get(stale)
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)
}
