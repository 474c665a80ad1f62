package schema

import (
	"errors"
	"fmt"
	"strings"
)

// ValidationError is one answer that could not be turned into a value the
// backend accepts.
type ValidationError struct {
	Key    string
	Reason string
	Value  any
}

func (e *ValidationError) Error() string {
	if e.Value == nil {
		return fmt.Sprintf("field %q: %s", e.Key, e.Reason)
	}
	return fmt.Sprintf("field %q: %s (got %T)", e.Key, e.Reason, e.Value)
}

// UserMessage names the answer with its key turned into words,
// e.g. "pin code: must be 6 digits".
func (e *ValidationError) UserMessage() string {
	return strings.ReplaceAll(e.Key, "_", " ") + ": " + e.Reason
}

// AggregateError collects every failure of one payload build so the user
// can fix them in a single pass.
type AggregateError struct {
	Errors []error
}

func (e *AggregateError) Error() string {
	if len(e.Errors) == 1 {
		return e.Errors[0].Error()
	}
	var b strings.Builder
	fmt.Fprintf(&b, "%d answers need fixing:", len(e.Errors))
	for _, err := range e.Errors {
		b.WriteString("\n- ")
		b.WriteString(err.Error())
	}
	return b.String()
}

// UserMessage lists the failures on one line for a form banner.
func (e *AggregateError) UserMessage() string {
	msgs := make([]string, 0, len(e.Errors))
	for _, err := range e.Errors {
		var ve *ValidationError
		if errors.As(err, &ve) {
			msgs = append(msgs, ve.UserMessage())
			continue
		}
		msgs = append(msgs, err.Error())
	}
	return strings.Join(msgs, "; ")
}

func (e *AggregateError) Unwrap() []error { return e.Errors }

// ValidationErrors returns the individual failures of err, or nil when err
// is not an AggregateError.
func ValidationErrors(err error) []error {
	var aggr *AggregateError
	if errors.As(err, &aggr) {
		return aggr.Errors
	}
	return nil
}
