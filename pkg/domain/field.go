package domain

import (
	"fmt"
	"slices"
	"strings"
	"unicode"
)

// FieldKind identifies how a field is rendered and which values it accepts.
type FieldKind string

const (
	KindText     FieldKind = "text"
	KindNumber   FieldKind = "number"
	KindSelect   FieldKind = "select"
	KindBoolean  FieldKind = "boolean"
	KindRange    FieldKind = "range"
	KindTextarea FieldKind = "textarea"
	KindFile     FieldKind = "file"
)

// Range bounds a range field.
type Range struct {
	Min float64 `json:"min" yaml:"min"`
	Max float64 `json:"max" yaml:"max"`
}

// FileConstraints restricts what a file field accepts.
type FileConstraints struct {
	AcceptedMimeTypes []string `json:"accepted_mime_types" yaml:"accepted_mime_types"`
	MaxSizeBytes      int64    `json:"max_size_bytes" yaml:"max_size_bytes"`
}

// Normalizer rewrites a raw string value before it enters the answer set.
type Normalizer func(string) string

// Field is a single input of a step.
type Field struct {
	Key         string           `json:"key" yaml:"key"`
	Label       string           `json:"label" yaml:"label"`
	Kind        FieldKind        `json:"kind" yaml:"kind"`
	Placeholder string           `json:"placeholder,omitempty" yaml:"placeholder,omitempty"`
	Options     []string         `json:"options,omitempty" yaml:"options,omitempty"`
	Range       *Range           `json:"range,omitempty" yaml:"range,omitempty"`
	File        *FileConstraints `json:"file,omitempty" yaml:"file,omitempty"`

	// Multiple makes a file field accumulate handles instead of replacing them.
	Multiple bool `json:"multiple,omitempty" yaml:"multiple,omitempty"`

	Normalize Normalizer `json:"-" yaml:"-"`
}

// FileHandle is an opaque reference to a file picked by the user.
type FileHandle struct {
	Name     string `json:"name"`
	MimeType string `json:"mime_type"`
	Size     int64  `json:"size"`
	Data     []byte `json:"-"`
}

// Check validates a file against the constraints. The returned error is a
// *FileRejectedError carrying a message fit for display.
func (c FileConstraints) Check(key string, f FileHandle) error {
	if len(c.AcceptedMimeTypes) > 0 && !slices.Contains(c.AcceptedMimeTypes, f.MimeType) {
		return &FileRejectedError{Key: key, File: f.Name, Reason: acceptedTypesReason(c.AcceptedMimeTypes)}
	}
	if c.MaxSizeBytes > 0 && f.Size > c.MaxSizeBytes {
		return &FileRejectedError{
			Key:    key,
			File:   f.Name,
			Reason: fmt.Sprintf("File size must be less than %s", humanSize(c.MaxSizeBytes)),
		}
	}
	return nil
}

func acceptedTypesReason(types []string) string {
	if len(types) == 1 && types[0] == "application/pdf" {
		return "Only PDF files are allowed"
	}
	return "File type must be one of " + strings.Join(types, ", ")
}

func humanSize(n int64) string {
	const mb = 1024 * 1024
	if n%mb == 0 {
		return fmt.Sprintf("%dMB", n/mb)
	}
	return fmt.Sprintf("%d bytes", n)
}

// DigitsOnly strips every non-digit and truncates to max digits (0 keeps all).
func DigitsOnly(max int) Normalizer {
	return func(s string) string {
		var b strings.Builder
		for _, r := range s {
			if r >= '0' && r <= '9' {
				b.WriteRune(r)
			}
		}
		return truncate(b.String(), max)
	}
}

// UpperCase upper-cases the value and truncates it to max runes (0 keeps all).
func UpperCase(max int) Normalizer {
	return func(s string) string {
		return truncate(strings.Map(unicode.ToUpper, s), max)
	}
}

// MaxLength truncates the value to max runes.
func MaxLength(max int) Normalizer {
	return func(s string) string { return truncate(s, max) }
}

func truncate(s string, max int) string {
	if max <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) > max {
		return string(r[:max])
	}
	return s
}
