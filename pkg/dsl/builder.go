package dsl

import (
	"fmt"

	"github.com/aretw0/homecare/pkg/domain"
)

// Builder manages the wizard definition construction.
// Steps keep the order in which they are first added.
type Builder struct {
	def   domain.Definition
	steps []*StepBuilder
	index map[string]*StepBuilder
}

// New creates a new definition builder.
func New(name string) *Builder {
	return &Builder{
		def:   domain.Definition{Name: name},
		index: make(map[string]*StepBuilder),
	}
}

// Title sets the human-readable flow title.
func (b *Builder) Title(title string) *Builder {
	b.def.Title = title
	return b
}

// FailureMessage sets the fallback message for backend failures without detail.
func (b *Builder) FailureMessage(msg string) *Builder {
	b.def.FailureMessage = msg
	return b
}

// Payload sets the payload mapper.
func (b *Builder) Payload(fn domain.PayloadBuilder) *Builder {
	b.def.Payload = fn
	return b
}

// Defaults sets the initial answers computed from the injected user and params.
func (b *Builder) Defaults(fn func(domain.Input) domain.Answers) *Builder {
	b.def.Defaults = fn
	return b
}

// Step appends a new step to the flow.
// If the step already exists, it returns the existing builder.
func (b *Builder) Step(id string) *StepBuilder {
	if sb, ok := b.index[id]; ok {
		return sb
	}
	sb := &StepBuilder{
		step:    domain.Step{ID: id},
		builder: b,
	}
	b.index[id] = sb
	b.steps = append(b.steps, sb)
	return sb
}

// Build compiles the steps into a validated definition.
func (b *Builder) Build() (*domain.Definition, error) {
	def := b.def
	def.Steps = make([]domain.Step, 0, len(b.steps))
	for _, sb := range b.steps {
		def.Steps = append(def.Steps, sb.Build())
	}

	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("failed to build definition: %w", err)
	}
	for _, s := range def.Steps {
		for _, key := range s.Required {
			if !declares(s, key) {
				return nil, fmt.Errorf("failed to build definition: step %q requires undeclared field %q", s.ID, key)
			}
		}
	}
	return &def, nil
}

// MustBuild is Build for package-level flow definitions; it panics on error.
func (b *Builder) MustBuild() *domain.Definition {
	def, err := b.Build()
	if err != nil {
		panic(err)
	}
	return def
}

func declares(s domain.Step, key string) bool {
	for _, f := range s.Fields {
		if f.Key == key {
			return true
		}
	}
	return false
}
