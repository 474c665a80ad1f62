package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/aretw0/homecare/pkg/wizard"
)

// Commands typed instead of an answer.
const (
	CommandBack  = ":back"
	CommandReset = ":reset"
	CommandQuit  = ":quit"
)

// errQuit ends the loop without an error for the caller.
var errQuit = errors.New("quit")

type navigation int

const (
	navNone navigation = iota
	navBack
	navReset
)

// Runner handles the interaction loop of a flow using the provided IO.
// It uses an IOHandler strategy to abstract the interaction mode (Text vs JSON).
type Runner struct {
	// Handler is the strategy for IO. If nil, a TextHandler over Input/Output is used.
	Handler IOHandler

	// Interceptor runs before the terminal submission.
	// If nil, it asks for confirmation, or approves when headless.
	Interceptor SubmitInterceptor

	// Logger is used for internal debug logging.
	// If nil, a no-op logger is used.
	Logger *slog.Logger

	// OpenFile resolves typed paths for file fields. Defaults to OpenFile.
	OpenFile FileOpener

	Input    io.Reader
	Output   io.Writer
	Headless bool
	Renderer ContentRenderer
}

// NewRunner creates a new Runner with default Stdin/Stdout.
func NewRunner(opts ...Option) *Runner {
	r := &Runner{
		Input:    os.Stdin,
		Output:   os.Stdout,
		Logger:   logging.NewNop(),
		OpenFile: OpenFile,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run drives the flow until it finishes, the user quits or the input ends.
// Quitting is not an error: inspect the returned state's Status to know
// whether the flow completed.
func (r *Runner) Run(ctx context.Context, f flows.Flow) (domain.State, error) {
	handler := r.resolveHandler()
	interceptor := r.resolveInterceptor(handler)
	e := f.Engine()

	signals := watchInterrupts(ctx)
	defer signals.Stop()

	for {
		if err := ctx.Err(); err != nil {
			return e.State(), err
		}
		if e.Status() == domain.StatusSucceeded {
			return e.State(), r.finish(signals, handler, f)
		}

		view := Render(f)
		if err := handler.Output(ctx, []ActionRequest{{Type: ActionRenderStep, Step: &view.Step}}); err != nil {
			return e.State(), fmt.Errorf("output error: %w", err)
		}

		nav, err := r.askFields(signals, handler, f, view.Step)
		if err != nil {
			return e.State(), r.exitErr(err)
		}
		switch nav {
		case navBack:
			if !e.Retreat() {
				r.notice(ctx, handler, "Already on the first step.")
			}
			continue
		case navReset:
			e.Reset()
			r.notice(ctx, handler, "Answers cleared.")
			continue
		}

		if view.Step.Terminal {
			ok, err := interceptor(signals.Context(), f)
			if err != nil {
				return e.State(), r.exitErr(err)
			}
			if !ok {
				r.notice(ctx, handler, "Submission cancelled. Review your answers, or type :quit to leave.")
				continue
			}
		}

		out, err := f.Next(ctx)
		r.Logger.Debug("Step processed", "flow", f.Name(), "step", view.Step.ID, "outcome", out, "err", err)
		switch out {
		case flows.OutcomeBlocked:
			r.notice(ctx, handler, "Please complete: "+strings.Join(e.MissingFields(e.Current()), ", "))
		case flows.OutcomeFailed:
			msg := e.State().LastError
			if msg == "" {
				msg = domain.UserMessage(err, wizard.DefaultFailureMessage)
			}
			r.notice(ctx, handler, msg)
		case flows.OutcomeAdvanced, flows.OutcomeBranched:
			r.hint(ctx, handler, f)
		}
	}
}

// askFields prompts every field of the step. An empty answer keeps the
// current value; a multiple-file field keeps asking until an empty line.
func (r *Runner) askFields(signals *interrupts, handler IOHandler, f flows.Flow, step StepView) (navigation, error) {
	e := f.Engine()
	for i := 0; i < len(step.Fields); {
		fv := step.Fields[i]
		fv.Value = e.State().Answers[fv.Key]
		if err := handler.Output(signals.Context(), []ActionRequest{{Type: ActionAskField, Field: &fv}}); err != nil {
			return navNone, err
		}

		line, err := r.read(signals, handler)
		if err != nil {
			return navNone, err
		}
		switch strings.ToLower(line) {
		case CommandBack:
			return navBack, nil
		case CommandReset:
			return navReset, nil
		case CommandQuit:
			return navNone, errQuit
		case "":
			i++
			continue
		}

		if err := r.setField(e, fv.Field, line); err != nil {
			r.notice(signals.Context(), handler, domain.UserMessage(err, err.Error()))
			continue
		}
		if fv.Kind == domain.KindFile && fv.Multiple {
			continue
		}
		i++
	}
	return navNone, nil
}

func (r *Runner) setField(e *wizard.Engine, fld domain.Field, line string) error {
	if fld.Kind == domain.KindFile {
		h, err := r.OpenFile(line)
		if err != nil {
			return err
		}
		return e.SetField(fld.Key, h)
	}
	v, err := schema.ParseInput(fld, line)
	if err != nil {
		return err
	}
	return e.SetField(fld.Key, v)
}

func (r *Runner) read(signals *interrupts, handler IOHandler) (string, error) {
	val, err := handler.Input(signals.Context())
	if err == nil {
		return val, nil
	}
	if signals.Interrupted() {
		r.Logger.Debug("Runner input: interrupted", "err", err)
		return "", errQuit
	}
	if err == io.EOF {
		return "", err
	}
	return "", fmt.Errorf("input error: %w", err)
}

// finish presents the result and offers follow-up actions.
func (r *Runner) finish(signals *interrupts, handler IOHandler, f flows.Flow) error {
	ctx := signals.Context()
	st := f.Engine().State()
	if err := handler.Output(ctx, []ActionRequest{{Type: ActionResult, Message: doneMessage(f), Result: st.Result}}); err != nil {
		return err
	}
	if res, ok := st.Result.(flows.AssessmentResult); ok && res.RecommendedService != "" {
		r.notice(ctx, handler, fmt.Sprintf("Next: homecare run booking --service %s --assessment %s", res.RecommendedService, res.ID))
	}

	fu, ok := f.(flows.FollowUpper)
	if !ok || r.Headless {
		return nil
	}
	for _, name := range fu.FollowUps() {
		yes, err := confirm(ctx, handler, fmt.Sprintf("Run %s now? [y/N]", strings.ReplaceAll(name, "_", " ")))
		if err != nil {
			return r.exitErr(err)
		}
		if !yes {
			continue
		}
		out, err := fu.Action(ctx, name)
		if err != nil {
			r.notice(ctx, handler, domain.UserMessage(err, wizard.DefaultFailureMessage))
			continue
		}
		if err := handler.Output(ctx, []ActionRequest{{Type: ActionResult, Message: name, Result: out}}); err != nil {
			return err
		}
	}
	return nil
}

// hint surfaces information produced by a step action, such as a demo OTP.
func (r *Runner) hint(ctx context.Context, handler IOHandler, f flows.Flow) {
	if d, ok := f.(interface{ DemoOTP() string }); ok && d.DemoOTP() != "" && f.Engine().Step().ID == "otp" {
		r.notice(ctx, handler, "Demo OTP: "+d.DemoOTP())
	}
}

func (r *Runner) notice(ctx context.Context, handler IOHandler, msg string) {
	if err := handler.Output(ctx, []ActionRequest{{Type: ActionNotice, Message: msg}}); err != nil {
		r.Logger.Debug("Notice not shown", "err", err)
	}
}

func (r *Runner) exitErr(err error) error {
	if errors.Is(err, errQuit) || errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// resolveHandler ensures a valid IOHandler is set.
func (r *Runner) resolveHandler() IOHandler {
	if r.Handler != nil {
		return r.Handler
	}
	th := NewTextHandler(r.Input, r.Output, WithTextHandlerRenderer(r.Renderer))
	if !r.Headless && r.Output != nil {
		fmt.Fprintln(r.Output, "Type :back, :reset or :quit at any prompt.")
	}
	// Memoized so the input pump is started once.
	r.Handler = th
	return th
}

// resolveInterceptor returns the configured or default interceptor.
func (r *Runner) resolveInterceptor(h IOHandler) SubmitInterceptor {
	if r.Interceptor != nil {
		return r.Interceptor
	}
	if r.Headless {
		return AutoApproveMiddleware()
	}
	return ConfirmationMiddleware(h)
}

func doneMessage(f flows.Flow) string {
	switch f.Name() {
	case flows.AssessmentFlow:
		return "Assessment submitted"
	case flows.BookingFlow:
		return "Booking created"
	case flows.PractitionerFlow:
		return "Application submitted"
	case flows.LoginFlow:
		return "Logged in"
	case flows.ContactFlow:
		return "Message sent"
	}
	return "Done"
}
