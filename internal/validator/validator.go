// Package validator checks wizard definitions for mistakes the builder
// cannot catch on its own.
package validator

import (
	"fmt"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// ValidateDefinition reports every structural problem of def at once.
func ValidateDefinition(def *domain.Definition) error {
	if def == nil {
		return fmt.Errorf("definition is nil")
	}
	if err := def.Validate(); err != nil {
		return err
	}

	var errors []string
	if def.Payload == nil {
		errors = append(errors, "no payload builder")
	}
	// Keys answered on this or an earlier step; a branch may only look back.
	seen := make(map[string]bool)
	for _, s := range def.Steps {
		if s.Title == "" {
			errors = append(errors, fmt.Sprintf("step '%s' has no title", s.ID))
		}
		declared := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			declared[f.Key] = true
			seen[f.Key] = true
			errors = append(errors, checkField(s.ID, f)...)
		}
		for _, key := range s.Required {
			if !declared[key] {
				errors = append(errors, fmt.Sprintf("step '%s' requires undeclared field '%s'", s.ID, key))
			}
		}
		if c := s.Conditional; c != nil {
			if !seen[c.On] {
				errors = append(errors, fmt.Sprintf("step '%s' branches on '%s', which no step up to here asks", s.ID, c.On))
			}
			if c.Lookup == nil {
				errors = append(errors, fmt.Sprintf("step '%s' branches on '%s' without a lookup", s.ID, c.On))
			}
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("%s: found %d errors:\n- %s", def.Name, len(errors), strings.Join(errors, "\n- "))
	}
	return nil
}

func checkField(stepID string, f domain.Field) []string {
	var errors []string
	where := fmt.Sprintf("field '%s' in step '%s'", f.Key, stepID)
	if f.Label == "" {
		errors = append(errors, where+" has no label")
	}
	switch f.Kind {
	case domain.KindSelect:
		if len(f.Options) == 0 {
			errors = append(errors, where+" has no options")
		}
	case domain.KindRange:
		if f.Range == nil || f.Range.Min >= f.Range.Max {
			errors = append(errors, where+" has an empty range")
		}
	case domain.KindFile:
		if f.File == nil {
			errors = append(errors, where+" accepts any file")
		}
	default:
		if f.Multiple {
			errors = append(errors, where+" is multiple but not a file")
		}
	}
	return errors
}
