package wizard

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type backendError struct{ detail string }

func (e *backendError) Error() string       { return "backend: " + e.detail }
func (e *backendError) UserMessage() string { return e.detail }

func threeStep() *domain.Definition {
	pdf := &domain.FileConstraints{AcceptedMimeTypes: []string{"application/pdf"}, MaxSizeBytes: 5 * 1024 * 1024}
	return &domain.Definition{
		Name:           "test",
		FailureMessage: "Failed to submit",
		Steps: []domain.Step{
			{
				ID: "basic",
				Fields: []domain.Field{
					{Key: "name", Kind: domain.KindText},
					{Key: "age", Kind: domain.KindNumber},
					{Key: "contact", Kind: domain.KindText, Normalize: domain.DigitsOnly(10)},
				},
				Required: []string{"name", "age", "contact"},
			},
			{
				ID: "docs",
				Fields: []domain.Field{
					{Key: "certifications", Kind: domain.KindFile, Multiple: true, File: pdf},
					{Key: "degree", Kind: domain.KindFile, File: pdf},
				},
			},
			{
				ID:     "confirm",
				Fields: []domain.Field{{Key: "agree", Kind: domain.KindBoolean}},
			},
		},
		Payload: func(in domain.Input) (any, error) {
			c := schema.NewCoercer(in.Answers)
			out := map[string]any{
				"name":    in.Answers.String("name"),
				"age":     c.Int("age"),
				"contact": in.Answers.String("contact"),
			}
			return out, c.Err()
		},
	}
}

func newEngine(t *testing.T, submit SubmitFunc, opts ...Option) *Engine {
	t.Helper()
	if submit == nil {
		submit = func(ctx context.Context, payload any) (any, error) { return payload, nil }
	}
	e, err := New(threeStep(), submit, opts...)
	require.NoError(t, err)
	return e
}

func fillBasic(t *testing.T, e *Engine) {
	t.Helper()
	require.NoError(t, e.SetField("name", "Alex"))
	require.NoError(t, e.SetField("age", "25"))
	require.NoError(t, e.SetField("contact", "9876543210"))
}

func TestNew_Validation(t *testing.T) {
	_, err := New(nil, nil)
	assert.Error(t, err)

	_, err = New(&domain.Definition{Name: "empty"}, func(context.Context, any) (any, error) { return nil, nil })
	assert.Error(t, err)

	_, err = New(threeStep(), nil)
	assert.Error(t, err)
}

func TestEngine_AdvanceIsGated(t *testing.T) {
	e := newEngine(t, nil)

	assert.False(t, e.CanAdvance(0))
	assert.False(t, e.Advance())
	assert.Equal(t, 0, e.Current())
	assert.ElementsMatch(t, []string{"name", "age", "contact"}, e.MissingFields(0))

	fillBasic(t, e)
	assert.True(t, e.CanAdvance(0))
	assert.True(t, e.Advance())
	assert.Equal(t, 1, e.Current())

	// A step without required keys always gates true.
	assert.True(t, e.CanAdvance(1))
	assert.True(t, e.Advance())
	assert.True(t, e.IsTerminal())

	// Clamped at the last step.
	assert.False(t, e.Advance())
	assert.Equal(t, 2, e.Current())
	assert.False(t, e.CanAdvance(7))
}

func TestEngine_RetreatIsNeverGated(t *testing.T) {
	e := newEngine(t, nil)
	assert.False(t, e.Retreat())

	fillBasic(t, e)
	require.True(t, e.Advance())
	require.NoError(t, e.SetField("name", ""))

	assert.True(t, e.Retreat())
	assert.Equal(t, 0, e.Current())
	assert.False(t, e.Retreat())
}

func TestEngine_PhoneNormalization(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.SetField("contact", "98-76 543a210999"))
	assert.Equal(t, "9876543210", e.State().Answers["contact"])
}

func TestEngine_SetFieldTypeCheck(t *testing.T) {
	e := newEngine(t, nil)

	err := e.SetField("agree", "yes")
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "agree", ve.Key)
	assert.NotContains(t, e.State().Answers, "agree")

	// Unknown keys are stored raw.
	require.NoError(t, e.SetField("painLocation", "Knee"))
	assert.Equal(t, "Knee", e.State().Answers["painLocation"])
}

func TestEngine_FileAccumulation(t *testing.T) {
	e := newEngine(t, nil)
	a := domain.FileHandle{Name: "a.pdf", MimeType: "application/pdf", Size: 100}
	b := domain.FileHandle{Name: "b.pdf", MimeType: "application/pdf", Size: 200}

	require.NoError(t, e.SetField("certifications", a))
	require.NoError(t, e.SetField("certifications", b))
	assert.Equal(t, []domain.FileHandle{a, b}, e.State().Answers.Files("certifications"))

	// Single-file fields overwrite.
	require.NoError(t, e.SetField("degree", a))
	require.NoError(t, e.SetField("degree", b))
	assert.Equal(t, b, e.State().Answers["degree"])

	require.NoError(t, e.RemoveFile("certifications", 0))
	assert.Equal(t, []domain.FileHandle{b}, e.State().Answers.Files("certifications"))
	assert.Error(t, e.RemoveFile("certifications", 3))
}

func TestEngine_FileRejection(t *testing.T) {
	e := newEngine(t, nil)

	err := e.SetField("certifications", domain.FileHandle{Name: "photo.png", MimeType: "image/png", Size: 10})
	var rejected *domain.FileRejectedError
	require.ErrorAs(t, err, &rejected)
	assert.Equal(t, "Only PDF files are allowed", rejected.Reason)

	err = e.SetField("certifications", domain.FileHandle{Name: "big.pdf", MimeType: "application/pdf", Size: 6 * 1024 * 1024})
	require.ErrorAs(t, err, &rejected)

	assert.Len(t, e.State().Answers.Files("certifications"), 0)
}

func TestEngine_GoTo(t *testing.T) {
	e := newEngine(t, nil)
	fillBasic(t, e)

	require.NoError(t, e.GoTo("confirm"))
	assert.Equal(t, 2, e.Current())
	assert.Equal(t, "confirm", e.State().StepID)

	err := e.GoTo("nowhere")
	assert.ErrorIs(t, err, domain.ErrUnknownStep)
	assert.Equal(t, 2, e.Current())

	// Backward jumps ignore gates.
	require.NoError(t, e.SetField("name", ""))
	require.NoError(t, e.GoTo("docs"))
	assert.Equal(t, 1, e.Current())
}

func TestEngine_GoToForwardRespectsGates(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.SetField("name", "Alex"))

	err := e.GoTo("confirm")
	assert.ErrorIs(t, err, domain.ErrStepGated)
	var gate *domain.GateError
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, "basic", gate.StepID)
	assert.ElementsMatch(t, []string{"age", "contact"}, gate.Missing)
	assert.Equal(t, 0, e.Current())
	assert.Equal(t, 0, e.FirstBlocked())

	require.NoError(t, e.SetField("age", "25"))
	require.NoError(t, e.SetField("contact", "9876543210"))
	assert.Equal(t, -1, e.FirstBlocked())
	require.NoError(t, e.GoTo("confirm"))
}

func TestEngine_SubmitRechecksEarlierSteps(t *testing.T) {
	calls := 0
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		calls++
		return "ok", nil
	})
	fillBasic(t, e)
	require.NoError(t, e.GoTo("confirm"))
	require.NoError(t, e.SetField("name", ""))

	_, err := e.Submit(context.Background())
	var gate *domain.GateError
	require.ErrorAs(t, err, &gate)
	assert.Equal(t, "basic", gate.StepID)
	assert.Equal(t, []string{"name"}, gate.Missing)
	assert.Equal(t, "Please complete: name", domain.UserMessage(err, ""))
	assert.Equal(t, 0, calls)
	assert.Equal(t, domain.StatusIdle, e.Status())

	require.NoError(t, e.SetField("name", "Alex"))
	_, err = e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, calls)
}

func TestEngine_SubmitOnlyFromTerminal(t *testing.T) {
	calls := 0
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		calls++
		return nil, nil
	})

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrNotTerminal)
	assert.Equal(t, 0, calls)
	assert.Equal(t, domain.StatusIdle, e.Status())
}

func TestEngine_SubmitSuccess(t *testing.T) {
	e := newEngine(t, nil)
	fillBasic(t, e)
	require.True(t, e.Advance())
	require.True(t, e.Advance())

	res, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"name": "Alex", "age": 25, "contact": "9876543210"}, res)

	st := e.State()
	assert.Equal(t, domain.StatusSucceeded, st.Status)
	assert.Equal(t, res, st.Result)

	// Finished flows reject further work.
	assert.False(t, e.Advance())
	assert.False(t, e.Retreat())
	assert.ErrorIs(t, e.SetField("name", "x"), domain.ErrFlowFinished)
	_, err = e.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrFlowFinished)
}

func TestEngine_SubmitFailureThenRetry(t *testing.T) {
	attempt := 0
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		attempt++
		if attempt == 1 {
			return nil, &backendError{detail: "Invalid OTP"}
		}
		return "ok", nil
	})
	fillBasic(t, e)
	require.NoError(t, e.GoTo("confirm"))

	_, err := e.Submit(context.Background())
	require.Error(t, err)
	st := e.State()
	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, "Invalid OTP", st.LastError)
	assert.Equal(t, 2, st.CurrentStep)
	assert.Equal(t, "Alex", st.Answers["name"])

	require.NoError(t, e.SetField("name", "Alex B"))
	res, err := e.Submit(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
	assert.Equal(t, domain.StatusSucceeded, e.Status())
	assert.Empty(t, e.State().LastError)
}

func TestEngine_SubmitFallbackMessage(t *testing.T) {
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		return nil, errors.New("connection refused")
	})
	fillBasic(t, e)
	require.NoError(t, e.GoTo("confirm"))

	_, err := e.Submit(context.Background())
	require.Error(t, err)
	assert.Equal(t, "Failed to submit", e.State().LastError)

	// Navigating away from a failure returns to idle.
	require.True(t, e.Retreat())
	assert.Equal(t, domain.StatusIdle, e.Status())
	assert.Empty(t, e.State().LastError)
}

func TestEngine_MalformedNumberFailsFast(t *testing.T) {
	calls := 0
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		calls++
		return nil, nil
	})
	require.NoError(t, e.SetField("name", "Alex"))
	require.NoError(t, e.SetField("age", "twenty"))
	require.NoError(t, e.SetField("contact", "9876543210"))
	require.NoError(t, e.GoTo("confirm"))

	_, err := e.Submit(context.Background())
	var ve *schema.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "age", ve.Key)
	assert.Equal(t, 0, calls)
	assert.Equal(t, domain.StatusFailed, e.Status())
	assert.Equal(t, "age: must be a whole number", e.State().LastError)
}

func TestEngine_NoDoubleSubmit(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	var mu sync.Mutex
	calls := 0
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		mu.Lock()
		calls++
		mu.Unlock()
		close(entered)
		<-release
		return "done", nil
	})
	fillBasic(t, e)
	require.NoError(t, e.GoTo("confirm"))

	done := make(chan error, 1)
	go func() {
		_, err := e.Submit(context.Background())
		done <- err
	}()
	<-entered

	_, err := e.Submit(context.Background())
	assert.ErrorIs(t, err, domain.ErrSubmissionInFlight)
	assert.False(t, e.Retreat())
	assert.ErrorIs(t, e.SetField("name", "x"), domain.ErrSubmissionInFlight)

	close(release)
	require.NoError(t, <-done)

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls)
	assert.Equal(t, domain.StatusSucceeded, e.Status())
}

func TestEngine_ResetDropsLateResult(t *testing.T) {
	release := make(chan struct{})
	entered := make(chan struct{})
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		close(entered)
		<-release
		return "late", nil
	})
	fillBasic(t, e)
	require.NoError(t, e.GoTo("confirm"))

	done := make(chan struct{})
	go func() {
		_, _ = e.Submit(context.Background())
		close(done)
	}()
	<-entered
	e.Reset()
	close(release)
	<-done

	st := e.State()
	assert.Equal(t, domain.StatusIdle, st.Status)
	assert.Nil(t, st.Result)
	assert.Empty(t, st.Answers)
}

func TestEngine_PayloadIsIdempotent(t *testing.T) {
	e := newEngine(t, nil)
	fillBasic(t, e)

	p1, err := e.BuildPayload()
	require.NoError(t, err)
	p2, err := e.BuildPayload()
	require.NoError(t, err)
	assert.Equal(t, p1, p2)
}

func TestEngine_ResetClearsFully(t *testing.T) {
	e := newEngine(t, func(ctx context.Context, payload any) (any, error) {
		return nil, errors.New("down")
	})
	fillBasic(t, e)
	require.True(t, e.Advance())
	require.NoError(t, e.SetField("certifications", domain.FileHandle{Name: "a.pdf", MimeType: "application/pdf", Size: 1}))
	require.NoError(t, e.GoTo("confirm"))
	_, _ = e.Submit(context.Background())

	e.Reset()
	st := e.State()
	assert.Empty(t, st.Answers)
	assert.Equal(t, 0, st.CurrentStep)
	assert.Equal(t, domain.StatusIdle, st.Status)
	assert.Empty(t, st.LastError)
}

func TestEngine_Complete(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.Complete("user-1"))
	st := e.State()
	assert.Equal(t, domain.StatusSucceeded, st.Status)
	assert.Equal(t, "user-1", st.Result)
	assert.Equal(t, 0, st.CurrentStep)
}

func TestEngine_Defaults(t *testing.T) {
	def := threeStep()
	def.Defaults = func(in domain.Input) domain.Answers {
		return domain.Answers{"name": in.User.Name}
	}
	e, err := New(def, func(context.Context, any) (any, error) { return nil, nil }, WithUser(&domain.User{Name: "Priya"}))
	require.NoError(t, err)
	assert.Equal(t, "Priya", e.State().Answers["name"])
}

func TestEngine_SnapshotIsolation(t *testing.T) {
	e := newEngine(t, nil)
	require.NoError(t, e.SetField("certifications", domain.FileHandle{Name: "a.pdf", MimeType: "application/pdf", Size: 1}))

	st := e.State()
	st.Answers["name"] = "mutated"
	st.Answers["certifications"] = append(st.Answers.Files("certifications"), domain.FileHandle{Name: "x"})

	assert.NotContains(t, e.State().Answers, "name")
	assert.Len(t, e.State().Answers.Files("certifications"), 1)
}

func TestEngine_Fail(t *testing.T) {
	e := newEngine(t, nil)

	e.Fail(errors.New("network down"), "Failed to send OTP")
	st := e.State()
	assert.Equal(t, domain.StatusFailed, st.Status)
	assert.Equal(t, "Failed to send OTP", st.LastError)

	e.Fail(&backendError{detail: "OTP expired. Please request a new one."}, "Invalid OTP")
	assert.Equal(t, "OTP expired. Please request a new one.", e.State().LastError)

	e.Fail(errors.New("x"), "")
	assert.Equal(t, "Failed to submit", e.State().LastError)

	fillBasic(t, e)
	require.True(t, e.Advance())
	assert.Equal(t, domain.StatusIdle, e.Status())
}
