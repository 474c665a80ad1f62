package observability

import (
	"fmt"
	"regexp"

	"github.com/aretw0/homecare/pkg/domain"
)

// Mask replaces redacted values.
const Mask = "***"

// DefaultSensitiveKeys match answer keys holding personal or financial data.
var DefaultSensitiveKeys = []string{
	`(?i)phone`, `(?i)contact`, `(?i)aadha?r`, `(?i)pan_`, `(?i)account`,
	`(?i)ifsc`, `(?i)upi`, `(?i)otp`, `(?i)email`, `(?i)address`,
}

// Redactor masks the values of answer keys matching its patterns.
type Redactor struct {
	patterns []*regexp.Regexp
}

// NewRedactor compiles the key patterns.
func NewRedactor(patterns ...string) (*Redactor, error) {
	r := &Redactor{patterns: make([]*regexp.Regexp, len(patterns))}
	for i, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, fmt.Errorf("redact pattern %q: %w", p, err)
		}
		r.patterns[i] = re
	}
	return r, nil
}

var defaultRedactor, _ = NewRedactor(DefaultSensitiveKeys...)

// Redact masks answers with the default sensitive key patterns.
func Redact(a domain.Answers) map[string]any {
	return defaultRedactor.Redact(a)
}

// Redact returns a copy of the answers safe to log. Sensitive keys are masked,
// file contents are summarised and nested maps are walked.
// The input is never modified.
func (r *Redactor) Redact(a domain.Answers) map[string]any {
	return r.redactMap(a)
}

func (r *Redactor) redactMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		if r.sensitive(k) && !domain.IsEmpty(v) {
			out[k] = Mask
			continue
		}
		out[k] = r.redactValue(v)
	}
	return out
}

func (r *Redactor) redactValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return r.redactMap(val)
	case domain.Answers:
		return r.redactMap(val)
	case domain.FileHandle:
		return fileSummary(val)
	case []domain.FileHandle:
		out := make([]string, len(val))
		for i, f := range val {
			out[i] = fileSummary(f)
		}
		return out
	default:
		return v
	}
}

func (r *Redactor) sensitive(key string) bool {
	for _, p := range r.patterns {
		if p.MatchString(key) {
			return true
		}
	}
	return false
}

func fileSummary(f domain.FileHandle) string {
	return fmt.Sprintf("%s (%s, %d bytes)", f.Name, f.MimeType, f.Size)
}
