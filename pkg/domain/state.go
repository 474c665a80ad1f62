package domain

// SubmissionStatus tracks the terminal-step submission.
type SubmissionStatus string

const (
	StatusIdle       SubmissionStatus = "idle"
	StatusSubmitting SubmissionStatus = "submitting"
	StatusSucceeded  SubmissionStatus = "succeeded"
	StatusFailed     SubmissionStatus = "failed"
)

// Answers is the flat key/value set collected across all steps.
// Values are strings, numbers, booleans, FileHandle or []FileHandle.
type Answers map[string]any

// Clone copies the map and any file lists so callers cannot alias engine state.
func (a Answers) Clone() Answers {
	out := make(Answers, len(a))
	for k, v := range a {
		if files, ok := v.([]FileHandle); ok {
			v = append([]FileHandle(nil), files...)
		}
		out[k] = v
	}
	return out
}

// String returns the answer as a string, or "" when absent or not a string.
func (a Answers) String(key string) string {
	s, _ := a[key].(string)
	return s
}

// Bool returns the answer as a bool, false when absent.
func (a Answers) Bool(key string) bool {
	b, _ := a[key].(bool)
	return b
}

// Files returns the file handles stored under key.
func (a Answers) Files(key string) []FileHandle {
	switch v := a[key].(type) {
	case []FileHandle:
		return v
	case FileHandle:
		return []FileHandle{v}
	}
	return nil
}

// State is a point-in-time snapshot of a wizard session.
type State struct {
	SessionID   string           `json:"session_id,omitempty"`
	Flow        string           `json:"flow"`
	CurrentStep int              `json:"current_step"`
	StepID      string           `json:"step_id"`
	Answers     Answers          `json:"answers"`
	Status      SubmissionStatus `json:"status"`
	LastError   string           `json:"last_error,omitempty"`
	Result      any              `json:"result,omitempty"`
}

// Terminal reports whether the snapshot sits on the last step of total.
func (s State) Terminal(total int) bool {
	return s.CurrentStep == total-1
}
