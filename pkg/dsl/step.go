package dsl

import "github.com/aretw0/homecare/pkg/domain"

// PDFUpTo constrains a file field to PDF documents no larger than maxMB.
func PDFUpTo(maxMB int64) domain.FileConstraints {
	return domain.FileConstraints{
		AcceptedMimeTypes: []string{"application/pdf"},
		MaxSizeBytes:      maxMB * 1024 * 1024,
	}
}

// StepBuilder provides a fluent API for configuring a step.
type StepBuilder struct {
	step    domain.Step
	builder *Builder
}

// Title sets the step heading.
func (s *StepBuilder) Title(title string) *StepBuilder {
	s.step.Title = title
	return s
}

// Describe sets the step description, rendered as markdown by terminal clients.
func (s *StepBuilder) Describe(text string) *StepBuilder {
	s.step.Description = text
	return s
}

// Field appends an arbitrary field.
func (s *StepBuilder) Field(f domain.Field) *StepBuilder {
	s.step.Fields = append(s.step.Fields, f)
	return s
}

// Text adds a free text field.
func (s *StepBuilder) Text(key, label string) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindText})
}

// Textarea adds a multi-line text field.
func (s *StepBuilder) Textarea(key, label string) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindTextarea})
}

// Digits adds a text field normalised to at most n digits.
func (s *StepBuilder) Digits(key, label string, n int) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindText, Normalize: domain.DigitsOnly(n)})
}

// Phone adds a 10-digit phone field.
func (s *StepBuilder) Phone(key, label string) *StepBuilder {
	return s.Digits(key, label, 10)
}

// Upper adds a text field upper-cased and truncated to n runes (0 keeps all).
func (s *StepBuilder) Upper(key, label string, n int) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindText, Normalize: domain.UpperCase(n)})
}

// Number adds a numeric field; values stay raw until the payload is built.
func (s *StepBuilder) Number(key, label string) *StepBuilder {
	return s.Field(NumberField(key, label))
}

// Select adds a single-choice field.
func (s *StepBuilder) Select(key, label string, options ...string) *StepBuilder {
	return s.Field(SelectField(key, label, options...))
}

// Boolean adds a yes/no field.
func (s *StepBuilder) Boolean(key, label string) *StepBuilder {
	return s.Field(BooleanField(key, label))
}

// Range adds a bounded numeric slider.
func (s *StepBuilder) Range(key, label string, min, max float64) *StepBuilder {
	return s.Field(RangeField(key, label, min, max))
}

// File adds a single-file field.
func (s *StepBuilder) File(key, label string, c domain.FileConstraints) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindFile, File: &c})
}

// Files adds a file field that accumulates every accepted file.
func (s *StepBuilder) Files(key, label string, c domain.FileConstraints) *StepBuilder {
	return s.Field(domain.Field{Key: key, Label: label, Kind: domain.KindFile, File: &c, Multiple: true})
}

// Placeholder sets the placeholder of the last added field.
func (s *StepBuilder) Placeholder(text string) *StepBuilder {
	if n := len(s.step.Fields); n > 0 {
		s.step.Fields[n-1].Placeholder = text
	}
	return s
}

// Require adds keys to the step gate.
func (s *StepBuilder) Require(keys ...string) *StepBuilder {
	s.step.Required = append(s.step.Required, keys...)
	return s
}

// Gate replaces the default gate with a custom predicate.
func (s *StepBuilder) Gate(p domain.Predicate) *StepBuilder {
	s.step.Gate = p
	return s
}

// Conditional attaches follow-up fields selected by the answer under key.
func (s *StepBuilder) Conditional(key string, lookup domain.FieldLookup) *StepBuilder {
	s.step.Conditional = &domain.Conditional{On: key, Lookup: lookup}
	return s
}

// Step starts the next step, allowing one chain to describe the whole flow.
func (s *StepBuilder) Step(id string) *StepBuilder {
	return s.builder.Step(id)
}

// Done returns to the definition builder.
func (s *StepBuilder) Done() *Builder {
	return s.builder
}

// Build returns the underlying domain.Step.
// This is primarily used by the Builder, but exposed for advanced usage.
func (s *StepBuilder) Build() domain.Step {
	step := s.step
	step.Fields = append([]domain.Field(nil), s.step.Fields...)
	step.Required = append([]string(nil), s.step.Required...)
	return step
}

// NumberField builds a numeric field for use in conditional lookups.
func NumberField(key, label string) domain.Field {
	return domain.Field{Key: key, Label: label, Kind: domain.KindNumber}
}

// SelectField builds a single-choice field.
func SelectField(key, label string, options ...string) domain.Field {
	return domain.Field{Key: key, Label: label, Kind: domain.KindSelect, Options: options}
}

// BooleanField builds a yes/no field.
func BooleanField(key, label string) domain.Field {
	return domain.Field{Key: key, Label: label, Kind: domain.KindBoolean, Options: []string{"Yes", "No"}}
}

// RangeField builds a bounded slider.
func RangeField(key, label string, min, max float64) domain.Field {
	return domain.Field{Key: key, Label: label, Kind: domain.KindRange, Range: &domain.Range{Min: min, Max: max}}
}
