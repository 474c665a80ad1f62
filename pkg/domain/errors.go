package domain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrSessionNotFound is returned when a session ID cannot be found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrNotTerminal is returned when submitting from any step but the last.
	ErrNotTerminal = errors.New("submission is only allowed from the last step")

	// ErrSubmissionInFlight is returned while a previous submission has not settled.
	ErrSubmissionInFlight = errors.New("a submission is already in flight")

	// ErrFlowFinished is returned when mutating a wizard that already succeeded.
	ErrFlowFinished = errors.New("flow already finished")

	// ErrUnknownStep is returned when jumping to a step id the flow does not declare.
	ErrUnknownStep = errors.New("unknown step")

	// ErrLoginRequired is returned when a flow needs a logged-in user.
	ErrLoginRequired = errors.New("login required")

	// ErrTokenNotFound is returned when no user id is stored for the client.
	ErrTokenNotFound = errors.New("token not found")

	// ErrUnknownFlow is returned when opening a flow name that is not registered.
	ErrUnknownFlow = errors.New("unknown flow")

	// ErrUnknownAction is returned when a flow does not support a named action.
	ErrUnknownAction = errors.New("unknown action")

	// ErrStepGated is returned when a jump or a submission would skip a step
	// whose required answers are missing.
	ErrStepGated = errors.New("step gate not satisfied")

	// ErrUnknownService is returned when booking a service the backend does not list.
	ErrUnknownService = errors.New("unknown service")
)

// GateError names the first step standing in the way and what it still needs.
type GateError struct {
	StepID  string
	Missing []string
}

func (e *GateError) Error() string {
	return fmt.Sprintf("step %q is incomplete, missing %s", e.StepID, strings.Join(e.Missing, ", "))
}

func (e *GateError) Is(target error) bool { return target == ErrStepGated }

func (e *GateError) UserMessage() string {
	if len(e.Missing) == 0 {
		return "Please complete the " + e.StepID + " step"
	}
	return "Please complete: " + strings.Join(e.Missing, ", ")
}

// FileRejectedError reports a file that violates its field constraints.
// The file never enters the answer set.
type FileRejectedError struct {
	Key    string
	File   string
	Reason string
}

func (e *FileRejectedError) Error() string {
	return fmt.Sprintf("file %q rejected for %q: %s", e.File, e.Key, e.Reason)
}

// UserMessage implements the user-facing message contract.
func (e *FileRejectedError) UserMessage() string { return e.Reason }

// userMessager is implemented by errors that carry a message safe to show verbatim.
type userMessager interface {
	UserMessage() string
}

// UserMessage returns the human-readable message carried by err, or fallback
// when err carries none.
func UserMessage(err error, fallback string) string {
	if err == nil {
		return ""
	}
	var um userMessager
	if errors.As(err, &um) {
		if msg := um.UserMessage(); msg != "" {
			return msg
		}
	}
	return fallback
}
