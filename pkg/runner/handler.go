package runner

import (
	"context"
)

// ActionType identifies what the runner asks the handler to present.
type ActionType string

const (
	// ActionRenderStep shows the header of the current step.
	ActionRenderStep ActionType = "render_step"
	// ActionAskField asks for one field. The handler should read input next.
	ActionAskField ActionType = "ask_field"
	// ActionNotice is a status line such as a validation message.
	ActionNotice ActionType = "notice"
	// ActionResult shows the outcome of a finished flow.
	ActionResult ActionType = "result"
)

// ActionRequest is one unit of output.
type ActionRequest struct {
	Type    ActionType `json:"type"`
	Step    *StepView  `json:"step,omitempty"`
	Field   *FieldView `json:"field,omitempty"`
	Message string     `json:"message,omitempty"`
	Result  any        `json:"result,omitempty"`
}

// IOHandler defines the strategy for interacting with the user.
// This allows switching between Text (CLI/TUI) and JSON (Structured) modes.
type IOHandler interface {
	// Output presents the actions to the user.
	Output(ctx context.Context, actions []ActionRequest) error

	// Input reads a response from the user.
	Input(ctx context.Context) (string, error)

	// SystemOutput presents a meta-message to the user, such as a confirmation prompt.
	// This is distinct from step rendering.
	SystemOutput(ctx context.Context, msg string) error
}
