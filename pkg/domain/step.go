package domain

// Predicate decides whether the answers allow leaving a step.
type Predicate func(Answers) bool

// FieldLookup returns the extra fields shown for a category value.
type FieldLookup func(value string) []Field

// Conditional attaches a sub-tree of fields keyed by the answer in On.
type Conditional struct {
	On     string      `json:"on" yaml:"on"`
	Lookup FieldLookup `json:"-" yaml:"-"`
}

// Step is one screen of a wizard.
type Step struct {
	ID          string       `json:"id" yaml:"id"`
	Title       string       `json:"title" yaml:"title"`
	Description string       `json:"description,omitempty" yaml:"description,omitempty"`
	Fields      []Field      `json:"fields" yaml:"fields"`
	Required    []string     `json:"required,omitempty" yaml:"required,omitempty"`
	Conditional *Conditional `json:"conditional,omitempty" yaml:"conditional,omitempty"`

	// Gate overrides the default non-empty check over Required.
	Gate Predicate `json:"-" yaml:"-"`
}

// CanLeave evaluates the step gate against the answers.
func (s Step) CanLeave(a Answers) bool {
	if s.Gate != nil {
		return s.Gate(a)
	}
	return RequireNonEmpty(s.Required...)(a)
}

// Missing lists the required keys that are still empty.
func (s Step) Missing(a Answers) []string {
	var out []string
	for _, k := range s.Required {
		if IsEmpty(a[k]) {
			out = append(out, k)
		}
	}
	return out
}

// FieldsFor returns the static fields followed by the conditional ones selected by a.
func (s Step) FieldsFor(a Answers) []Field {
	fields := append([]Field(nil), s.Fields...)
	if s.Conditional == nil || s.Conditional.Lookup == nil {
		return fields
	}
	if v, ok := a[s.Conditional.On].(string); ok && v != "" {
		fields = append(fields, s.Conditional.Lookup(v)...)
	}
	return fields
}

// RequireNonEmpty builds a gate that holds when every key has a non-empty value.
// A gate over no keys always holds.
func RequireNonEmpty(keys ...string) Predicate {
	return func(a Answers) bool {
		for _, k := range keys {
			if IsEmpty(a[k]) {
				return false
			}
		}
		return true
	}
}

// IsEmpty reports whether an answer counts as missing.
// false and 0 are answers; nil, empty strings and empty file lists are not.
func IsEmpty(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return x == ""
	case []FileHandle:
		return len(x) == 0
	case []any:
		return len(x) == 0
	case []string:
		return len(x) == 0
	case FileHandle:
		return x.Name == ""
	}
	return false
}
