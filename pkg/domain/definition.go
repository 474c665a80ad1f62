package domain

import (
	"errors"
	"fmt"
)

// Input is everything a payload mapper may read.
type Input struct {
	Answers Answers
	User    *User
	Params  map[string]string
}

// Param returns a route parameter or "".
func (in Input) Param(key string) string {
	if in.Params == nil {
		return ""
	}
	return in.Params[key]
}

// PayloadBuilder maps the collected answers into the backend request body.
// It must be pure: the same input always yields the same payload.
type PayloadBuilder func(in Input) (any, error)

// Definition is the static description of one wizard flow.
type Definition struct {
	Name  string `json:"name" yaml:"name"`
	Title string `json:"title" yaml:"title"`
	Steps []Step `json:"steps" yaml:"steps"`

	// FailureMessage is shown when the backend fails without a readable detail.
	FailureMessage string `json:"failure_message,omitempty" yaml:"failure_message,omitempty"`

	Payload  PayloadBuilder       `json:"-" yaml:"-"`
	Defaults func(Input) Answers `json:"-" yaml:"-"`
}

// StepIndex returns the position of a step id, or -1.
func (d *Definition) StepIndex(id string) int {
	for i, s := range d.Steps {
		if s.ID == id {
			return i
		}
	}
	return -1
}

// Field finds a field by key across every step, including the conditional
// sub-trees currently selected by the answers.
func (d *Definition) Field(key string, a Answers) (Field, bool) {
	for _, s := range d.Steps {
		for _, f := range s.FieldsFor(a) {
			if f.Key == key {
				return f, true
			}
		}
	}
	return Field{}, false
}

// Validate checks the structural rules every definition must satisfy.
func (d *Definition) Validate() error {
	if d.Name == "" {
		return errors.New("definition name cannot be empty")
	}
	if len(d.Steps) == 0 {
		return fmt.Errorf("definition %q has no steps", d.Name)
	}
	steps := make(map[string]bool, len(d.Steps))
	keys := make(map[string]string)
	for _, s := range d.Steps {
		if s.ID == "" {
			return fmt.Errorf("definition %q: step id cannot be empty", d.Name)
		}
		if steps[s.ID] {
			return fmt.Errorf("definition %q: duplicate step %q", d.Name, s.ID)
		}
		steps[s.ID] = true
		for _, f := range s.Fields {
			if prev, ok := keys[f.Key]; ok {
				return fmt.Errorf("definition %q: field %q declared in steps %q and %q", d.Name, f.Key, prev, s.ID)
			}
			keys[f.Key] = s.ID
		}
	}
	return nil
}
