package runner

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/wizard"
	"github.com/stretchr/testify/require"
)

// stubFlow is a two-step flow over a real engine with a scriptable submit.
type stubFlow struct {
	engine *wizard.Engine

	mu        sync.Mutex
	failNext  int
	submitted []any
	actions   []string
}

func stubDefinition() *domain.Definition {
	return dsl.New("stub").
		Title("Stub Form").
		FailureMessage("Could not save").
		Step("about").
		Title("About you").
		Describe("Tell us who you are.").
		Text("name", "Full Name").
		Select("gender", "Gender", "male", "female", "other").
		Require("name", "gender").
		Step("docs").
		Title("Documents").
		Boolean("consent", "I agree").
		Files("certs", "Certificates", dsl.PDFUpTo(5)).
		Require("consent").
		Done().
		MustBuild()
}

func newStub(t *testing.T) *stubFlow {
	t.Helper()
	s := &stubFlow{}
	e, err := wizard.New(stubDefinition(), s.submit)
	require.NoError(t, err)
	s.engine = e
	return s
}

func (s *stubFlow) submit(ctx context.Context, payload any) (any, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failNext > 0 {
		s.failNext--
		return nil, errors.New("boom")
	}
	s.submitted = append(s.submitted, payload)
	return map[string]string{"id": "s-1"}, nil
}

func (s *stubFlow) Name() string           { return "stub" }
func (s *stubFlow) Engine() *wizard.Engine { return s.engine }

func (s *stubFlow) Next(ctx context.Context) (flows.Outcome, error) {
	e := s.engine
	if e.Status() == domain.StatusSucceeded {
		return flows.OutcomeFinished, nil
	}
	if e.IsTerminal() {
		if _, err := e.Submit(ctx); err != nil {
			return flows.OutcomeFailed, err
		}
		return flows.OutcomeSubmitted, nil
	}
	if !e.Advance() {
		return flows.OutcomeBlocked, nil
	}
	return flows.OutcomeAdvanced, nil
}

// payingStub adds a follow-up action.
type payingStub struct {
	*stubFlow
}

func (p *payingStub) Actions() []string   { return []string{"pay"} }
func (p *payingStub) FollowUps() []string { return []string{"pay"} }
func (p *payingStub) Action(ctx context.Context, name string) (any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.actions = append(p.actions, name)
	return map[string]bool{"paid": true}, nil
}
