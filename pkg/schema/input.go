package schema

import (
	"strconv"
	"strings"

	"github.com/aretw0/homecare/pkg/domain"
)

// ParseInput turns raw text typed by a user into the value a field stores.
// Booleans accept yes/no forms, selects accept a 1-based option index, and
// every other kind keeps the text. File fields are not handled here.
func ParseInput(f domain.Field, raw string) (any, error) {
	raw = strings.TrimSpace(raw)
	switch f.Kind {
	case domain.KindBoolean:
		switch strings.ToLower(raw) {
		case "y", "yes", "true", "1":
			return true, nil
		case "n", "no", "false", "0":
			return false, nil
		}
		return nil, &ValidationError{Key: f.Key, Reason: "answer yes or no", Value: raw}
	case domain.KindSelect:
		if n, err := strconv.Atoi(raw); err == nil && n >= 1 && n <= len(f.Options) {
			return f.Options[n-1], nil
		}
		return raw, nil
	case domain.KindFile:
		return nil, &ValidationError{Key: f.Key, Reason: "expected a file"}
	default:
		return raw, nil
	}
}
