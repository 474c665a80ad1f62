package observability

import (
	"context"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics counts wizard activity per flow.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	fieldEdits  *prometheus.CounterVec
	stepEntries *prometheus.CounterVec
	blocked     *prometheus.CounterVec
	submissions *prometheus.CounterVec
	results     *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them on reg.
func NewMetrics(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		fieldEdits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecare",
			Name:      "wizard_field_edits_total",
			Help:      "Answers stored by the wizard.",
		}, []string{"flow"}),
		stepEntries: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecare",
			Name:      "wizard_step_entries_total",
			Help:      "Steps entered, by navigation of any kind.",
		}, []string{"flow", "step"}),
		blocked: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecare",
			Name:      "wizard_advance_blocked_total",
			Help:      "Advance attempts refused by a step gate.",
		}, []string{"flow", "step"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecare",
			Name:      "wizard_submissions_total",
			Help:      "Submissions handed to the backend.",
		}, []string{"flow"}),
		results: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "homecare",
			Name:      "wizard_results_total",
			Help:      "Terminal outcomes by status.",
		}, []string{"flow", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "homecare",
			Name:      "wizard_submission_duration_seconds",
			Help:      "Latency of backend submissions.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"flow"}),
	}

	for _, c := range []prometheus.Collector{m.fieldEdits, m.stepEntries, m.blocked, m.submissions, m.results, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Hooks returns lifecycle hooks feeding the collectors.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	if m == nil {
		return domain.LifecycleHooks{}
	}
	return domain.LifecycleHooks{
		OnFieldSet: func(e *domain.FieldEvent) {
			m.fieldEdits.WithLabelValues(e.Flow).Inc()
		},
		OnStepEnter: func(e *domain.StepEvent) {
			m.stepEntries.WithLabelValues(e.Flow, e.StepID).Inc()
		},
		OnAdvanceBlocked: func(e *domain.StepEvent) {
			m.blocked.WithLabelValues(e.Flow, e.StepID).Inc()
		},
		OnSubmit: func(_ context.Context, e *domain.SubmitEvent) {
			m.submissions.WithLabelValues(e.Flow).Inc()
		},
		OnSubmitResult: func(_ context.Context, e *domain.SubmitEvent) {
			m.results.WithLabelValues(e.Flow, string(e.Status)).Inc()
			if e.Duration > 0 {
				m.duration.WithLabelValues(e.Flow).Observe(e.Duration.Seconds())
			}
		},
	}
}
