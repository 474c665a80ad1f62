package schema

import (
	"fmt"
	"slices"
	"strconv"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// Type defines the contract for answer validation.
// Implementations decide which values a field kind accepts at edit time.
type Type interface {
	// Name returns the human-readable name of the type (e.g., "string", "number").
	Name() string
	// Validate checks if a value conforms to this type.
	Validate(value any) error
}

// --- Built-in Type Implementations ---

// StringType validates string values.
type StringType struct{}

func (t *StringType) Name() string { return "string" }

func (t *StringType) Validate(value any) error {
	_, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	return nil
}

// NumberType accepts numbers or their raw text. Parsing is deferred to the
// payload boundary, so "abc" is accepted here and rejected by Int or Float.
type NumberType struct{}

func (t *NumberType) Name() string { return "number" }

func (t *NumberType) Validate(value any) error {
	switch value.(type) {
	case string, int, int8, int16, int32, int64, float32, float64:
		return nil
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
}

// BoolType validates boolean values.
type BoolType struct{}

func (t *BoolType) Name() string { return "bool" }

func (t *BoolType) Validate(value any) error {
	_, ok := value.(bool)
	if !ok {
		return fmt.Errorf("expected bool, got %T", value)
	}
	return nil
}

// ChoiceType validates a string drawn from a fixed option set.
type ChoiceType struct {
	options []string
}

func (t *ChoiceType) Name() string { return "choice" }

func (t *ChoiceType) Validate(value any) error {
	s, ok := value.(string)
	if !ok {
		return fmt.Errorf("expected string, got %T", value)
	}
	if s == "" || len(t.options) == 0 || slices.Contains(t.options, s) {
		return nil
	}
	return fmt.Errorf("%q is not one of %s", s, strings.Join(t.options, ", "))
}

// RangeType validates a number inside closed bounds.
type RangeType struct {
	min, max float64
}

func (t *RangeType) Name() string { return fmt.Sprintf("range[%g,%g]", t.min, t.max) }

func (t *RangeType) Validate(value any) error {
	var f float64
	switch v := value.(type) {
	case int:
		f = float64(v)
	case int64:
		f = float64(v)
	case float64:
		f = v
	case float32:
		f = float64(v)
	case string:
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("expected number, got %q", v)
		}
		f = parsed
	default:
		return fmt.Errorf("expected number, got %T", value)
	}
	if f < t.min || f > t.max {
		return fmt.Errorf("%g is outside [%g, %g]", f, t.min, t.max)
	}
	return nil
}

// FileType validates file handles.
type FileType struct{}

func (t *FileType) Name() string { return "file" }

func (t *FileType) Validate(value any) error {
	switch value.(type) {
	case domain.FileHandle, []domain.FileHandle:
		return nil
	default:
		return fmt.Errorf("expected file, got %T", value)
	}
}

// CustomType applies a user-defined validation function.
type CustomType struct {
	name     string
	validate func(any) error
}

func (t *CustomType) Name() string { return t.name }

func (t *CustomType) Validate(value any) error {
	return t.validate(value)
}

// --- Factory Functions ---

// String creates a string type validator.
func String() Type { return &StringType{} }

// Number creates a raw-number type validator.
func Number() Type { return &NumberType{} }

// Bool creates a boolean type validator.
func Bool() Type { return &BoolType{} }

// Choice creates a validator restricted to options. An empty option set accepts any string.
func Choice(options ...string) Type { return &ChoiceType{options: options} }

// Between creates a range validator.
func Between(min, max float64) Type { return &RangeType{min: min, max: max} }

// File creates a file handle validator.
func File() Type { return &FileType{} }

// Custom creates a custom type validator with a user-defined function.
func Custom(name string, validate func(any) error) Type {
	return &CustomType{name: name, validate: validate}
}

// TypeFor returns the validator matching a field definition.
func TypeFor(f domain.Field) Type {
	switch f.Kind {
	case domain.KindNumber:
		return Number()
	case domain.KindBoolean:
		return Bool()
	case domain.KindSelect:
		return Choice(f.Options...)
	case domain.KindRange:
		if f.Range != nil {
			return Between(f.Range.Min, f.Range.Max)
		}
		return Number()
	case domain.KindFile:
		return File()
	default:
		return String()
	}
}

// Check validates value against the field and wraps failures as *ValidationError.
func Check(f domain.Field, value any) error {
	if err := TypeFor(f).Validate(value); err != nil {
		return &ValidationError{Key: f.Key, Reason: err.Error(), Value: value}
	}
	return nil
}
