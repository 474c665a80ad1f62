package schema

import (
	"math"
	"strconv"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// Coercer converts raw answers into the numeric types a backend expects.
// Failures are collected so one payload build reports every bad field.
type Coercer struct {
	answers domain.Answers
	errs    []error
}

// NewCoercer creates a coercer reading from answers.
func NewCoercer(answers domain.Answers) *Coercer {
	return &Coercer{answers: answers}
}

// Int parses a required integer.
func (c *Coercer) Int(key string) int {
	n, ok := c.int(key, c.answers[key])
	if !ok {
		return 0
	}
	return n
}

// OptionalInt parses an integer, returning nil when the answer is empty.
func (c *Coercer) OptionalInt(key string) *int {
	v := c.answers[key]
	if domain.IsEmpty(v) {
		return nil
	}
	n, ok := c.int(key, v)
	if !ok {
		return nil
	}
	return &n
}

// Float parses a required floating-point number.
func (c *Coercer) Float(key string) float64 {
	v := c.answers[key]
	switch x := v.(type) {
	case float64:
		return x
	case float32:
		return float64(x)
	case int:
		return float64(x)
	case int64:
		return float64(x)
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(x), 64)
		if err == nil && !math.IsNaN(f) && !math.IsInf(f, 0) {
			return f
		}
	}
	c.fail(key, "must be a number", v)
	return 0
}

// Err returns nil when every conversion succeeded.
func (c *Coercer) Err() error {
	if len(c.errs) == 0 {
		return nil
	}
	return &AggregateError{Errors: c.errs}
}

func (c *Coercer) int(key string, v any) (int, bool) {
	switch x := v.(type) {
	case int:
		return x, true
	case int64:
		return int(x), true
	case float64:
		if x == math.Trunc(x) {
			return int(x), true
		}
	case string:
		if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
			return n, true
		}
	}
	c.fail(key, "must be a whole number", v)
	return 0, false
}

func (c *Coercer) fail(key, reason string, v any) {
	c.errs = append(c.errs, &ValidationError{Key: key, Reason: reason, Value: v})
}
