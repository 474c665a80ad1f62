package domain

import (
	"context"
	"time"
)

// EventType defines the category of the event.
type EventType string

const (
	EventFieldSet       EventType = "field_set"
	EventStepEnter      EventType = "step_enter"
	EventAdvanceBlocked EventType = "advance_blocked"
	EventSubmit         EventType = "submit"
	EventSubmitResult   EventType = "submit_result"
)

// EventBase contains common fields for all events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	Flow      string    `json:"flow"`
	SessionID string    `json:"session_id,omitempty"`
}

// FieldEvent is emitted after an answer is stored.
type FieldEvent struct {
	EventBase
	Key string `json:"key"`
}

// StepEvent is emitted on navigation.
type StepEvent struct {
	EventBase
	Index   int      `json:"index"`
	StepID  string   `json:"step_id"`
	Missing []string `json:"missing,omitempty"`
}

// SubmitEvent is emitted around the terminal submission.
type SubmitEvent struct {
	EventBase
	Status   SubmissionStatus `json:"status"`
	Duration time.Duration    `json:"duration,omitempty"`
	Err      error            `json:"-"`
}

// LifecycleHooks defines callbacks for engine observability.
// Hooks run synchronously on the caller's goroutine and must not call back into the engine.
type LifecycleHooks struct {
	OnFieldSet       func(*FieldEvent)
	OnStepEnter      func(*StepEvent)
	OnAdvanceBlocked func(*StepEvent)
	OnSubmit         func(context.Context, *SubmitEvent)
	OnSubmitResult   func(context.Context, *SubmitEvent)
}

// Merge chains two hook sets so both observe every event.
func (h LifecycleHooks) Merge(o LifecycleHooks) LifecycleHooks {
	return LifecycleHooks{
		OnFieldSet:       chain1(h.OnFieldSet, o.OnFieldSet),
		OnStepEnter:      chain1(h.OnStepEnter, o.OnStepEnter),
		OnAdvanceBlocked: chain1(h.OnAdvanceBlocked, o.OnAdvanceBlocked),
		OnSubmit:         chain2(h.OnSubmit, o.OnSubmit),
		OnSubmitResult:   chain2(h.OnSubmitResult, o.OnSubmitResult),
	}
}

func chain1[E any](a, b func(*E)) func(*E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(e *E) { a(e); b(e) }
}

func chain2[E any](a, b func(context.Context, *E)) func(context.Context, *E) {
	if a == nil {
		return b
	}
	if b == nil {
		return a
	}
	return func(ctx context.Context, e *E) { a(ctx, e); b(ctx, e) }
}
