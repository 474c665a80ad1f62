package flows

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"github.com/aretw0/homecare/internal/logging"
	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/auth"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/wizard"
)

// Flow is a live wizard bound to the backend it submits to.
type Flow interface {
	Name() string
	Engine() *wizard.Engine
	// Next runs the current step's backend action, if any, and moves forward.
	// On the last step it submits.
	Next(ctx context.Context) (Outcome, error)
}

// Actioner is implemented by flows exposing named side actions such as
// resending an OTP or paying for a booking.
type Actioner interface {
	Actions() []string
	Action(ctx context.Context, name string) (any, error)
}

// FollowUpper is implemented by flows offering actions once the submission
// succeeded, such as paying for a created booking.
type FollowUpper interface {
	Actioner
	FollowUps() []string
}

// Outcome describes what a call to Next did.
type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeBlocked   Outcome = "blocked"
	OutcomeBranched  Outcome = "branched"
	OutcomeSubmitted Outcome = "submitted"
	OutcomeFailed    Outcome = "failed"
	OutcomeFinished  Outcome = "finished"
)

// AssessmentAPI is the backend surface of the assessment flow.
type AssessmentAPI interface {
	CreateAssessment(ctx context.Context, req api.AssessmentRequest) (*api.Assessment, error)
}

// BookingAPI is the backend surface of the booking flow.
type BookingAPI interface {
	GetService(ctx context.Context, id string) (*api.Service, error)
	GetPricing(ctx context.Context) (api.Pricing, error)
	CreateBooking(ctx context.Context, req api.BookingRequest) (*api.Booking, error)
	MockPaymentSuccess(ctx context.Context, bookingID string) (*api.Ack, error)
}

// PractitionerAPI is the backend surface of the practitioner application.
type PractitionerAPI interface {
	ApplyPractitioner(ctx context.Context, app api.PractitionerApplication) (*api.ApplyResponse, error)
	UploadCertificate(ctx context.Context, practitionerID, certificateType string, f domain.FileHandle) (*api.UploadResponse, error)
}

// AuthAPI is the backend surface of the OTP login flow.
type AuthAPI interface {
	SendOTP(ctx context.Context, phone string) (*api.OTPResponse, error)
	VerifyOTP(ctx context.Context, phone, otp string) (api.Verification, error)
	Signup(ctx context.Context, req api.SignupRequest) (*domain.User, error)
	GetUser(ctx context.Context, id string) (*domain.User, error)
}

// ContactAPI is the backend surface of the contact form.
type ContactAPI interface {
	SubmitContact(ctx context.Context, req api.ContactRequest) (*api.Ack, error)
}

// Backend is everything the catalog needs; *api.Client satisfies it.
type Backend interface {
	AssessmentAPI
	BookingAPI
	PractitionerAPI
	AuthAPI
	ContactAPI
}

// Deps carries what a flow needs from the surrounding process.
type Deps struct {
	Backend   Backend
	Auth      *auth.Session
	Logger    *slog.Logger
	Hooks     domain.LifecycleHooks
	Params    map[string]string
	SessionID string
	// Now defaults to time.Now.
	Now func() time.Time
}

func (d Deps) now() time.Time {
	if d.Now == nil {
		return time.Now()
	}
	return d.Now()
}

func (d Deps) logger() *slog.Logger {
	if d.Logger == nil {
		return logging.NewNop()
	}
	return d.Logger
}

func (d Deps) user() *domain.User {
	if d.Auth == nil {
		return nil
	}
	return d.Auth.Current()
}

func (d Deps) engineOptions() []wizard.Option {
	return []wizard.Option{
		wizard.WithLogger(d.logger()),
		wizard.WithLifecycleHooks(d.Hooks),
		wizard.WithUser(d.user()),
		wizard.WithParams(d.Params),
		wizard.WithSessionID(d.SessionID),
	}
}

// leaveAction runs a backend call before leaving a step. It reports whether
// it already moved the wizard (a branch or an early completion).
type leaveAction struct {
	run      func(ctx context.Context) (bool, error)
	fallback string
}

// base implements Flow on top of an engine and per-step leave actions.
type base struct {
	engine *wizard.Engine
	leave  map[string]leaveAction
	logger *slog.Logger
}

func (b *base) Name() string { return b.engine.Definition().Name }

func (b *base) Engine() *wizard.Engine { return b.engine }

func (b *base) Next(ctx context.Context) (Outcome, error) {
	e := b.engine
	if e.Status() == domain.StatusSucceeded {
		return OutcomeFinished, nil
	}
	step := e.Step()
	if !e.CanAdvance(e.Current()) {
		e.Advance()
		return OutcomeBlocked, nil
	}
	if e.IsTerminal() {
		if i := e.FirstBlocked(); i >= 0 {
			// An earlier answer was cleared from here: send the user back to it.
			b.logger.Debug("Submission blocked by an earlier step", "flow", b.Name(), "step", e.Definition().Steps[i].ID)
			if err := e.GoTo(e.Definition().Steps[i].ID); err != nil {
				return OutcomeFailed, err
			}
			e.Advance()
			return OutcomeBlocked, nil
		}
		if _, err := e.Submit(ctx); err != nil {
			return OutcomeFailed, err
		}
		return OutcomeSubmitted, nil
	}
	if act, ok := b.leave[step.ID]; ok {
		moved, err := act.run(ctx)
		if err != nil {
			b.logger.Warn("Step action failed", "flow", b.Name(), "step", step.ID, "err", err)
			e.Fail(err, act.fallback)
			return OutcomeFailed, err
		}
		if moved {
			if e.Status() == domain.StatusSucceeded {
				return OutcomeFinished, nil
			}
			return OutcomeBranched, nil
		}
	}
	if !e.Advance() {
		return OutcomeBlocked, nil
	}
	return OutcomeAdvanced, nil
}

// ActionError is a failed side action with the message to show the user.
type ActionError struct {
	Action  string
	Message string
	Err     error
}

func (e *ActionError) Error() string {
	return fmt.Sprintf("%s: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error { return e.Err }

// UserMessage returns the backend detail or the action's fallback.
func (e *ActionError) UserMessage() string { return domain.UserMessage(e.Err, e.Message) }

type entry struct {
	open       func(context.Context, Deps) (Flow, error)
	definition func() *domain.Definition
}

var catalog = map[string]entry{
	AssessmentFlow: {
		open:       func(_ context.Context, d Deps) (Flow, error) { return OpenAssessment(d) },
		definition: AssessmentDefinition,
	},
	BookingFlow: {
		open:       func(ctx context.Context, d Deps) (Flow, error) { return OpenBooking(ctx, d) },
		definition: func() *domain.Definition { return BookingDefinition(DefaultPrices, time.Time{}) },
	},
	PractitionerFlow: {
		open:       func(_ context.Context, d Deps) (Flow, error) { return OpenPractitioner(d) },
		definition: PractitionerDefinition,
	},
	LoginFlow: {
		open:       func(_ context.Context, d Deps) (Flow, error) { return OpenLogin(d) },
		definition: LoginDefinition,
	},
	ContactFlow: {
		open:       func(_ context.Context, d Deps) (Flow, error) { return OpenContact(d) },
		definition: ContactDefinition,
	},
}

// Names lists the registered flows in lexical order.
func Names() []string {
	names := make([]string, 0, len(catalog))
	for n := range catalog {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Open builds a live flow by name.
func Open(ctx context.Context, name string, deps Deps) (Flow, error) {
	e, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFlow, name)
	}
	if deps.Backend == nil {
		return nil, fmt.Errorf("flows: backend is required to open %q", name)
	}
	return e.open(ctx, deps)
}

// Definition returns the static definition of a flow by name.
func Definition(name string) (*domain.Definition, error) {
	e, ok := catalog[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownFlow, name)
	}
	return e.definition(), nil
}
