package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/homecare/pkg/domain"
)

// LogHooks returns lifecycle hooks that audit navigation and submissions.
// Field events log the key only, never the value.
func LogHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnFieldSet: func(e *domain.FieldEvent) {
			logger.Debug("field_set", "flow", e.Flow, "session_id", e.SessionID, "key", e.Key)
		},
		OnStepEnter: func(e *domain.StepEvent) {
			logger.Info("step_enter", "flow", e.Flow, "session_id", e.SessionID, "step", e.StepID, "index", e.Index)
		},
		OnAdvanceBlocked: func(e *domain.StepEvent) {
			logger.Info("advance_blocked", "flow", e.Flow, "session_id", e.SessionID, "step", e.StepID, "missing", e.Missing)
		},
		OnSubmit: func(ctx context.Context, e *domain.SubmitEvent) {
			logger.InfoContext(ctx, "submit", "flow", e.Flow, "session_id", e.SessionID)
		},
		OnSubmitResult: func(ctx context.Context, e *domain.SubmitEvent) {
			attrs := []any{"flow", e.Flow, "session_id", e.SessionID, "status", e.Status, "duration", e.Duration}
			if e.Err != nil {
				logger.WarnContext(ctx, "submit_result", append(attrs, "err", e.Err)...)
				return
			}
			logger.InfoContext(ctx, "submit_result", attrs...)
		},
	}
}
