package logging

import (
	"io"
	"log/slog"
	"os"
	"strings"
)

// Mask stands in for secret attribute values.
const Mask = "***"

// secretKeys are attribute keys whose values never reach a log line,
// whatever the call site passes.
var secretKeys = map[string]bool{
	"otp":       true,
	"token":     true,
	"token_key": true,
	"password":  true,
	"aadhar":    true,
}

// New returns the CLI logger. It writes text to Stderr so log lines never
// interleave with prompts or JSON answers on Stdout.
func New(level slog.Level) *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, options(level)))
}

// NewJSON returns the server logger.
func NewJSON(w io.Writer, level slog.Level) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, options(level)))
}

// NewNop returns a logger that drops everything.
func NewNop() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel maps HOMECARE_LOG_LEVEL to a level. Unknown values mean Info.
func ParseLevel(s string) slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(strings.TrimSpace(s))); err != nil {
		return slog.LevelInfo
	}
	return l
}

func options(level slog.Level) *slog.HandlerOptions {
	return &slog.HandlerOptions{Level: level, ReplaceAttr: replaceAttr}
}

// replaceAttr shortens "error" to "err" and masks secret values.
func replaceAttr(_ []string, a slog.Attr) slog.Attr {
	if a.Key == "error" {
		a.Key = "err"
	}
	if secretKeys[strings.ToLower(a.Key)] && a.Value.Kind() != slog.KindGroup {
		a.Value = slog.StringValue(Mask)
	}
	return a
}
