package observability_test

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/observability"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func base(flow string) domain.EventBase {
	return domain.EventBase{Flow: flow, Timestamp: time.Now()}
}

func TestMetrics_Hooks(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	h := m.Hooks()
	ctx := context.Background()

	h.OnFieldSet(&domain.FieldEvent{EventBase: base("booking"), Key: "session_count"})
	h.OnFieldSet(&domain.FieldEvent{EventBase: base("booking"), Key: "city"})
	h.OnStepEnter(&domain.StepEvent{EventBase: base("booking"), StepID: "details"})
	h.OnAdvanceBlocked(&domain.StepEvent{EventBase: base("booking"), StepID: "details"})
	h.OnSubmit(ctx, &domain.SubmitEvent{EventBase: base("booking"), Status: domain.StatusSubmitting})
	h.OnSubmitResult(ctx, &domain.SubmitEvent{EventBase: base("booking"), Status: domain.StatusFailed, Duration: 250 * time.Millisecond})
	h.OnSubmitResult(ctx, &domain.SubmitEvent{EventBase: base("login"), Status: domain.StatusSucceeded})

	expected := `
# HELP homecare_wizard_results_total Terminal outcomes by status.
# TYPE homecare_wizard_results_total counter
homecare_wizard_results_total{flow="booking",status="failed"} 1
homecare_wizard_results_total{flow="login",status="succeeded"} 1
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(expected), "homecare_wizard_results_total"))

	edits := `
# HELP homecare_wizard_field_edits_total Answers stored by the wizard.
# TYPE homecare_wizard_field_edits_total counter
homecare_wizard_field_edits_total{flow="booking"} 2
`
	require.NoError(t, testutil.GatherAndCompare(reg, strings.NewReader(edits), "homecare_wizard_field_edits_total"))

	count, err := testutil.GatherAndCount(reg, "homecare_wizard_submission_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count, "only timed results are observed")
}

func TestMetrics_NilIsSafe(t *testing.T) {
	var m *observability.Metrics
	h := m.Hooks()
	assert.Nil(t, h.OnFieldSet)
	assert.Nil(t, h.OnSubmitResult)
}

func TestMetrics_DoubleRegistration(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := observability.NewMetrics(reg)
	require.NoError(t, err)
	_, err = observability.NewMetrics(reg)
	assert.Error(t, err)
}
