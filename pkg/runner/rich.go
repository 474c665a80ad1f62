package runner

import (
	"context"
	"slices"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
)

// FieldView is a field as a client should render it.
type FieldView struct {
	domain.Field
	Required bool `json:"required"`
	Value    any  `json:"value,omitempty"`
}

// StepView is the current step with its fields resolved against the answers.
type StepView struct {
	Index       int         `json:"index"`
	Count       int         `json:"count"`
	ID          string      `json:"id"`
	Title       string      `json:"title"`
	Description string      `json:"description,omitempty"`
	Fields      []FieldView `json:"fields"`
	Missing     []string    `json:"missing,omitempty"`
	CanAdvance  bool        `json:"can_advance"`
	Terminal    bool        `json:"terminal"`
}

// RichResponse combines state and the step to render for rich clients (Web, scripts).
type RichResponse struct {
	State   domain.State  `json:"state"`
	Step    StepView      `json:"step"`
	Outcome flows.Outcome `json:"outcome,omitempty"`
	Actions []string      `json:"actions,omitempty"`
	Done    bool          `json:"done"`
}

// Render snapshots a flow for display.
func Render(f flows.Flow) *RichResponse {
	e := f.Engine()
	st := e.State()
	def := e.Definition()
	idx := e.Current()
	step := def.Steps[idx]

	view := StepView{
		Index:       idx,
		Count:       len(def.Steps),
		ID:          step.ID,
		Title:       step.Title,
		Description: step.Description,
		Missing:     step.Missing(st.Answers),
		CanAdvance:  step.CanLeave(st.Answers),
		Terminal:    idx == len(def.Steps)-1,
	}
	for _, fld := range e.Fields(idx) {
		view.Fields = append(view.Fields, FieldView{
			Field:    fld,
			Required: slices.Contains(step.Required, fld.Key),
			Value:    st.Answers[fld.Key],
		})
	}

	resp := &RichResponse{
		State: st,
		Step:  view,
		Done:  st.Status == domain.StatusSucceeded,
	}
	if a, ok := f.(flows.Actioner); ok {
		resp.Actions = a.Actions()
	}
	return resp
}

// NextAndRender runs Flow.Next and renders the resulting step.
// The response is returned even when Next fails so clients can show LastError.
func NextAndRender(ctx context.Context, f flows.Flow) (*RichResponse, error) {
	out, err := f.Next(ctx)
	resp := Render(f)
	resp.Outcome = out
	return resp, err
}
