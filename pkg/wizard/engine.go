package wizard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/schema"
)

// DefaultFailureMessage is shown when neither the backend nor the flow provide one.
const DefaultFailureMessage = "Something went wrong. Please try again."

// SubmitFunc sends a built payload to the backend and returns the server result.
type SubmitFunc func(ctx context.Context, payload any) (any, error)

// Engine drives one wizard instance: it sequences steps, gates forward
// navigation, accumulates answers and performs the terminal submission.
// It is safe for concurrent use; the backend call runs outside the lock and
// is serialized by the submitting status.
type Engine struct {
	def       *domain.Definition
	submit    SubmitFunc
	logger    *slog.Logger
	hooks     domain.LifecycleHooks
	user      *domain.User
	params    map[string]string
	sessionID string

	mu      sync.Mutex
	current int
	answers domain.Answers
	status  domain.SubmissionStatus
	lastErr string
	result  any
	// epoch changes on Reset so a late submission result is dropped.
	epoch uint64
}

// Option defines a functional option for configuring the Engine.
type Option func(*Engine)

// WithLogger sets a custom structured logger for the engine.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = logger
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(e *Engine) {
		e.hooks = e.hooks.Merge(hooks)
	}
}

// WithUser injects the current logged-in user.
func WithUser(u *domain.User) Option {
	return func(e *Engine) {
		e.user = u
	}
}

// WithParams injects route parameters such as the selected service.
func WithParams(params map[string]string) Option {
	return func(e *Engine) {
		e.params = params
	}
}

// WithSessionID tags events and snapshots with a session identifier.
func WithSessionID(id string) Option {
	return func(e *Engine) {
		e.sessionID = id
	}
}

// New creates an engine positioned on the first step with the definition's defaults applied.
func New(def *domain.Definition, submit SubmitFunc, opts ...Option) (*Engine, error) {
	if def == nil {
		return nil, fmt.Errorf("wizard: definition is required")
	}
	if err := def.Validate(); err != nil {
		return nil, fmt.Errorf("wizard: %w", err)
	}
	if submit == nil {
		return nil, fmt.Errorf("wizard: submit function is required for %q", def.Name)
	}

	e := &Engine{
		def:     def,
		submit:  submit,
		logger:  logging.NewNop(),
		answers: make(domain.Answers),
		status:  domain.StatusIdle,
	}
	for _, opt := range opts {
		opt(e)
	}

	if def.Defaults != nil {
		for k, v := range def.Defaults(e.input(nil)) {
			e.answers[k] = v
		}
	}
	return e, nil
}

// Definition returns the flow definition driven by the engine.
func (e *Engine) Definition() *domain.Definition {
	return e.def
}

// User returns the injected user, if any.
func (e *Engine) User() *domain.User {
	return e.user
}

// SetField stores an answer. Strings are normalised by the field's normaliser,
// values are type-checked against the field kind and files are checked against
// their constraints before entering the state. Multiple-file fields accumulate;
// every other kind overwrites. Keys outside the definition are stored raw.
func (e *Engine) SetField(key string, value any) error {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}

	field, known := e.def.Field(key, e.answers)
	if known {
		v, err := e.prepare(field, value)
		if err != nil {
			e.mu.Unlock()
			e.logger.Debug("Field rejected", "flow", e.def.Name, "key", key, "err", err)
			return err
		}
		value = v
	}
	e.answers[key] = value
	e.mu.Unlock()

	e.logger.Debug("Field set", "flow", e.def.Name, "key", key)
	if e.hooks.OnFieldSet != nil {
		e.hooks.OnFieldSet(&domain.FieldEvent{EventBase: e.base(domain.EventFieldSet), Key: key})
	}
	return nil
}

func (e *Engine) prepare(f domain.Field, value any) (any, error) {
	if s, ok := value.(string); ok && f.Normalize != nil {
		value = f.Normalize(s)
	}
	if err := schema.Check(f, value); err != nil {
		return nil, err
	}
	if f.Kind != domain.KindFile {
		return value, nil
	}

	incoming := domain.Answers{f.Key: value}.Files(f.Key)
	if f.File != nil {
		for _, h := range incoming {
			if err := f.File.Check(f.Key, h); err != nil {
				return nil, err
			}
		}
	}
	if f.Multiple {
		existing := e.answers.Files(f.Key)
		return append(append([]domain.FileHandle(nil), existing...), incoming...), nil
	}
	if len(incoming) == 0 {
		return nil, &schema.ValidationError{Key: f.Key, Reason: "no file given"}
	}
	return incoming[len(incoming)-1], nil
}

// RemoveFile drops the file at index from a multiple-file field.
func (e *Engine) RemoveFile(key string, index int) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := e.editableLocked(); err != nil {
		return err
	}
	files := e.answers.Files(key)
	if index < 0 || index >= len(files) {
		return fmt.Errorf("wizard: no file %d under %q", index, key)
	}
	next := append(append([]domain.FileHandle(nil), files[:index]...), files[index+1:]...)
	e.answers[key] = next
	return nil
}

// CanAdvance evaluates the gate of step i against the current answers.
func (e *Engine) CanAdvance(i int) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.def.Steps) {
		return false
	}
	return e.def.Steps[i].CanLeave(e.answers)
}

// MissingFields lists the required keys of step i that are still empty.
func (e *Engine) MissingFields(i int) []string {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.def.Steps) {
		return nil
	}
	return e.def.Steps[i].Missing(e.answers)
}

// Advance moves to the next step when the current gate holds.
// It reports false, changing nothing, when gated, on the last step, while
// submitting or after success.
func (e *Engine) Advance() bool {
	e.mu.Lock()
	if !e.navigableLocked() || e.current >= len(e.def.Steps)-1 {
		e.mu.Unlock()
		return false
	}
	step := e.def.Steps[e.current]
	if !step.CanLeave(e.answers) {
		ev := &domain.StepEvent{EventBase: e.base(domain.EventAdvanceBlocked), Index: e.current, StepID: step.ID, Missing: step.Missing(e.answers)}
		e.mu.Unlock()
		e.logger.Debug("Advance blocked", "flow", e.def.Name, "step", step.ID, "missing", ev.Missing)
		if e.hooks.OnAdvanceBlocked != nil {
			e.hooks.OnAdvanceBlocked(ev)
		}
		return false
	}
	ev := e.moveLocked(e.current + 1)
	e.mu.Unlock()
	e.enter(ev)
	return true
}

// Retreat moves to the previous step. It is never gated.
func (e *Engine) Retreat() bool {
	e.mu.Lock()
	if !e.navigableLocked() || e.current == 0 {
		e.mu.Unlock()
		return false
	}
	ev := e.moveLocked(e.current - 1)
	e.mu.Unlock()
	e.enter(ev)
	return true
}

// GoTo jumps to a named step. Jumping back is never gated. Jumping forward
// is refused with a *domain.GateError while any step before the target
// still fails its gate, so a jump can skip screens but never answers. Flows
// use it for server-driven branches such as the OTP new-account path.
func (e *Engine) GoTo(stepID string) error {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	idx := e.def.StepIndex(stepID)
	if idx < 0 {
		e.mu.Unlock()
		return fmt.Errorf("%w: %q in %s", domain.ErrUnknownStep, stepID, e.def.Name)
	}
	if idx > e.current {
		if err := e.gateErrLocked(idx); err != nil {
			e.mu.Unlock()
			return err
		}
	}
	ev := e.moveLocked(idx)
	e.mu.Unlock()
	e.enter(ev)
	return nil
}

// FirstBlocked returns the index of the first step whose gate fails against
// the current answers, or -1 when every step can be left.
func (e *Engine) FirstBlocked() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.firstBlockedLocked(len(e.def.Steps))
}

func (e *Engine) firstBlockedLocked(upto int) int {
	for i := 0; i < upto && i < len(e.def.Steps); i++ {
		if !e.def.Steps[i].CanLeave(e.answers) {
			return i
		}
	}
	return -1
}

// gateErrLocked reports the first failing gate among the steps before upto.
func (e *Engine) gateErrLocked(upto int) error {
	i := e.firstBlockedLocked(upto)
	if i < 0 {
		return nil
	}
	step := e.def.Steps[i]
	return &domain.GateError{StepID: step.ID, Missing: step.Missing(e.answers)}
}

// Complete finishes the flow with a result obtained outside Submit, such as
// an OTP verification that found an existing account.
func (e *Engine) Complete(result any) error {
	e.mu.Lock()
	if err := e.editableLocked(); err != nil {
		e.mu.Unlock()
		return err
	}
	e.status = domain.StatusSucceeded
	e.lastErr = ""
	e.result = result
	ev := &domain.SubmitEvent{EventBase: e.base(domain.EventSubmitResult), Status: e.status}
	e.mu.Unlock()

	e.logger.Info("Flow completed", "flow", e.def.Name, "step", e.def.Steps[e.Current()].ID)
	if e.hooks.OnSubmitResult != nil {
		e.hooks.OnSubmitResult(context.Background(), ev)
	}
	return nil
}

// Fail records an error from an asynchronous step action, such as sending an
// OTP, without submitting. The backend message wins over fallback, and an empty
// fallback means the flow's failure message.
func (e *Engine) Fail(err error, fallback string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.status == domain.StatusSucceeded || e.status == domain.StatusSubmitting {
		return
	}
	if fallback == "" {
		fallback = e.failureMessage()
	}
	e.status = domain.StatusFailed
	e.lastErr = domain.UserMessage(err, fallback)
}

// Reset clears every answer, the submission status and returns to the first step.
func (e *Engine) Reset() {
	e.mu.Lock()
	e.answers = make(domain.Answers)
	e.status = domain.StatusIdle
	e.lastErr = ""
	e.result = nil
	e.epoch++
	ev := e.moveLocked(0)
	e.mu.Unlock()

	e.logger.Debug("Wizard reset", "flow", e.def.Name)
	e.enter(ev)
}

// BuildPayload maps the answers into the backend request body.
// It is a pure function of the answers, the injected user and params.
func (e *Engine) BuildPayload() (any, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.buildLocked()
}

func (e *Engine) buildLocked() (any, error) {
	if e.def.Payload == nil {
		return map[string]any(e.answers.Clone()), nil
	}
	return e.def.Payload(e.input(e.answers.Clone()))
}

// Submit builds the payload and hands it to the submit function.
// It only runs from the terminal step, with every step gate holding, and
// never twice concurrently. On failure
// the step is unchanged and LastError carries the backend message or the flow fallback.
func (e *Engine) Submit(ctx context.Context) (any, error) {
	e.mu.Lock()
	switch e.status {
	case domain.StatusSubmitting:
		e.mu.Unlock()
		return nil, domain.ErrSubmissionInFlight
	case domain.StatusSucceeded:
		e.mu.Unlock()
		return nil, domain.ErrFlowFinished
	}
	if e.current != len(e.def.Steps)-1 {
		e.mu.Unlock()
		return nil, domain.ErrNotTerminal
	}
	// Answers of earlier steps stay editable from the last one.
	if err := e.gateErrLocked(len(e.def.Steps)); err != nil {
		e.mu.Unlock()
		return nil, err
	}

	payload, err := e.buildLocked()
	if err != nil {
		e.status = domain.StatusFailed
		e.lastErr = domain.UserMessage(err, e.failureMessage())
		ev := &domain.SubmitEvent{EventBase: e.base(domain.EventSubmitResult), Status: e.status, Err: err}
		e.mu.Unlock()
		e.logger.Warn("Payload rejected", "flow", e.def.Name, "err", err)
		if e.hooks.OnSubmitResult != nil {
			e.hooks.OnSubmitResult(ctx, ev)
		}
		return nil, fmt.Errorf("build %s payload: %w", e.def.Name, err)
	}

	e.status = domain.StatusSubmitting
	e.lastErr = ""
	epoch := e.epoch
	start := &domain.SubmitEvent{EventBase: e.base(domain.EventSubmit), Status: e.status}
	e.mu.Unlock()

	if e.hooks.OnSubmit != nil {
		e.hooks.OnSubmit(ctx, start)
	}
	e.logger.Info("Submitting", "flow", e.def.Name)

	began := time.Now()
	result, err := e.submit(ctx, payload)
	elapsed := time.Since(began)

	e.mu.Lock()
	if e.epoch != epoch {
		e.mu.Unlock()
		e.logger.Debug("Discarding submission result after reset", "flow", e.def.Name)
		return result, err
	}
	if err != nil {
		e.status = domain.StatusFailed
		e.lastErr = domain.UserMessage(err, e.failureMessage())
	} else {
		e.status = domain.StatusSucceeded
		e.result = result
	}
	ev := &domain.SubmitEvent{EventBase: e.base(domain.EventSubmitResult), Status: e.status, Duration: elapsed, Err: err}
	e.mu.Unlock()

	if err != nil {
		e.logger.Warn("Submission failed", "flow", e.def.Name, "err", err, "duration", elapsed)
	} else {
		e.logger.Info("Submission succeeded", "flow", e.def.Name, "duration", elapsed)
	}
	if e.hooks.OnSubmitResult != nil {
		e.hooks.OnSubmitResult(ctx, ev)
	}
	return result, err
}

// State returns a snapshot that does not alias engine memory.
func (e *Engine) State() domain.State {
	e.mu.Lock()
	defer e.mu.Unlock()
	return domain.State{
		SessionID:   e.sessionID,
		Flow:        e.def.Name,
		CurrentStep: e.current,
		StepID:      e.def.Steps[e.current].ID,
		Answers:     e.answers.Clone(),
		Status:      e.status,
		LastError:   e.lastErr,
		Result:      e.result,
	}
}

// Current returns the current step index.
func (e *Engine) Current() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current
}

// Step returns the current step definition.
func (e *Engine) Step() domain.Step {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.def.Steps[e.current]
}

// Fields returns the static and conditional fields of step i.
func (e *Engine) Fields(i int) []domain.Field {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.def.Steps) {
		return nil
	}
	return e.def.Steps[i].FieldsFor(e.answers)
}

// IsTerminal reports whether the current step is the last one.
func (e *Engine) IsTerminal() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.current == len(e.def.Steps)-1
}

// Status returns the submission status.
func (e *Engine) Status() domain.SubmissionStatus {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.status
}

func (e *Engine) editableLocked() error {
	switch e.status {
	case domain.StatusSubmitting:
		return domain.ErrSubmissionInFlight
	case domain.StatusSucceeded:
		return domain.ErrFlowFinished
	}
	return nil
}

func (e *Engine) navigableLocked() bool {
	return e.status == domain.StatusIdle || e.status == domain.StatusFailed
}

func (e *Engine) moveLocked(idx int) *domain.StepEvent {
	e.current = idx
	if e.status == domain.StatusFailed {
		e.status = domain.StatusIdle
		e.lastErr = ""
	}
	return &domain.StepEvent{EventBase: e.base(domain.EventStepEnter), Index: idx, StepID: e.def.Steps[idx].ID}
}

func (e *Engine) enter(ev *domain.StepEvent) {
	e.logger.Debug("Step entered", "flow", e.def.Name, "step", ev.StepID, "index", ev.Index)
	if e.hooks.OnStepEnter != nil {
		e.hooks.OnStepEnter(ev)
	}
}

func (e *Engine) base(t domain.EventType) domain.EventBase {
	return domain.EventBase{Timestamp: time.Now(), Type: t, Flow: e.def.Name, SessionID: e.sessionID}
}

func (e *Engine) input(answers domain.Answers) domain.Input {
	return domain.Input{Answers: answers, User: e.user, Params: e.params}
}

func (e *Engine) failureMessage() string {
	if e.def.FailureMessage != "" {
		return e.def.FailureMessage
	}
	return DefaultFailureMessage
}
