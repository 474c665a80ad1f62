package http

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/go-chi/chi/v5"
)

// StreamEvent is one SSE frame: the wizard event type and its JSON body.
type StreamEvent struct {
	Name string
	Data []byte
}

type subscriber struct {
	ch    chan StreamEvent
	types map[domain.EventType]bool
}

func (sub *subscriber) wants(t domain.EventType) bool {
	return len(sub.types) == 0 || sub.types[t]
}

// StreamManager fans engine events out to the SSE subscribers of a session.
type StreamManager struct {
	mu     sync.RWMutex
	subs   map[string]map[*subscriber]struct{}
	buffer int
	logger *slog.Logger
}

func NewStreamManager() *StreamManager {
	return &StreamManager{
		subs:   make(map[string]map[*subscriber]struct{}),
		buffer: 16,
		logger: logging.NewNop(),
	}
}

// Subscribe registers a listener for one session. With no types every
// event is delivered. The returned func unsubscribes and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string, types ...domain.EventType) (<-chan StreamEvent, func()) {
	sub := &subscriber{ch: make(chan StreamEvent, sm.buffer)}
	if len(types) > 0 {
		sub.types = make(map[domain.EventType]bool, len(types))
		for _, t := range types {
			sub.types[t] = true
		}
	}

	sm.mu.Lock()
	if sm.subs[sessionID] == nil {
		sm.subs[sessionID] = make(map[*subscriber]struct{})
	}
	sm.subs[sessionID][sub] = struct{}{}
	sm.mu.Unlock()

	var once sync.Once
	return sub.ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			delete(sm.subs[sessionID], sub)
			if len(sm.subs[sessionID]) == 0 {
				delete(sm.subs, sessionID)
			}
			close(sub.ch)
		})
	}
}

// Broadcast never blocks: a subscriber with a full buffer misses the event.
func (sm *StreamManager) Broadcast(sessionID string, t domain.EventType, data []byte) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for sub := range sm.subs[sessionID] {
		if !sub.wants(t) {
			continue
		}
		select {
		case sub.ch <- StreamEvent{Name: string(t), Data: data}:
		default:
			sm.logger.Warn("SSE: subscriber too slow, dropping event", "session_id", sessionID, "type", t)
		}
	}
}

func (sm *StreamManager) publish(sessionID string, t domain.EventType, ev any) {
	if sessionID == "" {
		return
	}
	data, err := json.Marshal(ev)
	if err != nil {
		sm.logger.Error("SSE: event encode failed", "type", t, "error", err)
		return
	}
	sm.Broadcast(sessionID, t, data)
}

// Hooks publishes wizard events to the subscribers of their session.
func (sm *StreamManager) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFieldSet:       func(ev *domain.FieldEvent) { sm.publish(ev.SessionID, ev.Type, ev) },
		OnStepEnter:      func(ev *domain.StepEvent) { sm.publish(ev.SessionID, ev.Type, ev) },
		OnAdvanceBlocked: func(ev *domain.StepEvent) { sm.publish(ev.SessionID, ev.Type, ev) },
		OnSubmit: func(_ context.Context, ev *domain.SubmitEvent) {
			sm.publish(ev.SessionID, ev.Type, ev)
		},
		OnSubmitResult: func(_ context.Context, ev *domain.SubmitEvent) {
			sm.publish(ev.SessionID, ev.Type, ev)
		},
	}
}

// SubscribeEvents handles GET /sessions/{id}/events (SSE). An optional
// ?types=step_enter,submit_result filter keeps only those event types.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if _, err := s.sessions.Get(sessionID); err != nil {
		s.writeError(w, err)
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		return
	}

	var types []domain.EventType
	if raw := r.URL.Query().Get("types"); raw != "" {
		for _, t := range strings.Split(raw, ",") {
			if t = strings.TrimSpace(t); t != "" {
				types = append(types, domain.EventType(t))
			}
		}
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID, types...)
	defer cancel()
	s.logger.Info("SSE: Subscribed", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case ev, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, ev.Data)
			flusher.Flush()
		}
	}
}
