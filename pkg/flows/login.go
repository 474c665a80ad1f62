package flows

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/auth"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/aretw0/homecare/pkg/wizard"
)

const (
	// LoginFlow is the catalog name of the OTP login.
	LoginFlow = "login"

	// ActionSendOTP (re)sends the code to the entered phone.
	ActionSendOTP = "send_otp"
	// ActionVerifyOTP checks the entered code and branches.
	ActionVerifyOTP = "verify_otp"

	// StepSignup is the branch target for phones without an account.
	StepSignup = "signup"
)

// ErrPhoneNotVerified is returned when signing up a phone whose OTP was not checked.
var ErrPhoneNotVerified = errors.New("phone number not verified")

func digitsAtLeast(key string, n int) domain.Predicate {
	return func(a domain.Answers) bool { return len(a.String(key)) >= n }
}

// LoginDefinition describes the phone, OTP and signup steps.
func LoginDefinition() *domain.Definition {
	return dsl.New(LoginFlow).
		Title("Login with OTP").
		FailureMessage("Signup failed").
		Payload(signupPayload).
		Step("phone").
		Title("Enter your phone number").
		Describe("We'll send you a one-time password.").
		Phone("phone", "Phone Number").Placeholder("10-digit mobile number").
		Require("phone").
		Gate(digitsAtLeast("phone", 10)).
		Step("otp").
		Title("Verify OTP").
		Digits("otp", "Enter OTP", 6).
		Require("otp").
		Gate(digitsAtLeast("otp", 6)).
		Step(StepSignup).
		Title("Complete your profile").
		Text("name", "Full Name").
		Number("age", "Age").
		Select("gender", "Gender", "male", "female", "other").
		Text("email", "Email (optional)").
		Require("name", "age", "gender").
		Done().
		MustBuild()
}

func signupPayload(in domain.Input) (any, error) {
	a := in.Answers
	c := schema.NewCoercer(a)
	req := api.SignupRequest{
		Name:   a.String("name"),
		Age:    c.Int("age"),
		Gender: a.String("gender"),
		Phone:  api.InternationalPhone(a.String("phone")),
		Email:  a.String("email"),
	}
	if err := c.Err(); err != nil {
		return nil, err
	}
	return req, nil
}

// Login is a live OTP login. Leaving the phone step sends the code, leaving
// the OTP step verifies it: an existing account completes the flow at once,
// otherwise the wizard branches to signup.
type Login struct {
	base
	backend AuthAPI
	session *auth.Session

	mu       sync.Mutex
	demoOTP  string
	verified string
}

// OpenLogin starts a login. The auth session receives the user on success.
func OpenLogin(deps Deps) (*Login, error) {
	if deps.Auth == nil {
		return nil, fmt.Errorf("login: auth session is required")
	}
	l := &Login{backend: deps.Backend, session: deps.Auth}
	e, err := wizard.New(LoginDefinition(), l.signup, deps.engineOptions()...)
	if err != nil {
		return nil, err
	}
	l.base = base{
		engine: e,
		logger: deps.logger(),
		leave: map[string]leaveAction{
			"phone": {run: l.leavePhone, fallback: "Failed to send OTP"},
			"otp":   {run: l.leaveOTP, fallback: "Invalid OTP"},
		},
	}
	return l, nil
}

// DemoOTP returns the code echoed by a demo backend, if any.
func (l *Login) DemoOTP() string {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.demoOTP
}

// SendOTP sends the code to the phone currently entered.
func (l *Login) SendOTP(ctx context.Context) (*api.OTPResponse, error) {
	phone := l.engine.State().Answers.String("phone")
	if len(phone) < 10 {
		return nil, &ActionError{Action: ActionSendOTP, Message: "Please enter a valid phone number", Err: fmt.Errorf("phone %q too short", phone)}
	}
	resp, err := l.backend.SendOTP(ctx, phone)
	if err != nil {
		return nil, err
	}
	l.mu.Lock()
	l.demoOTP = resp.DemoOTP()
	l.mu.Unlock()
	l.logger.Info("OTP sent", "demo", resp.DemoOTP() != "")
	return resp, nil
}

// Verify checks the entered code and moves the wizard: Complete for an
// existing account, GoTo signup otherwise.
func (l *Login) Verify(ctx context.Context) (api.Verification, error) {
	a := l.engine.State().Answers
	phone, otp := a.String("phone"), a.String("otp")
	if len(otp) != 6 {
		return api.Verification{}, &ActionError{Action: ActionVerifyOTP, Message: "Please enter a 6-digit OTP", Err: fmt.Errorf("otp has %d digits", len(otp))}
	}
	v, err := l.backend.VerifyOTP(ctx, phone, otp)
	if err != nil {
		return v, err
	}
	if !v.ExistingAccount {
		l.mu.Lock()
		l.verified = phone
		l.mu.Unlock()
		return v, l.engine.GoTo(StepSignup)
	}

	user, err := l.backend.GetUser(ctx, v.UserID)
	if err != nil {
		l.logger.Warn("Could not fetch user after login", "user", v.UserID, "err", err)
		user = &domain.User{ID: v.UserID, Phone: api.InternationalPhone(phone)}
	}
	if err := l.session.Login(ctx, user); err != nil {
		return v, err
	}
	return v, l.engine.Complete(user)
}

func (l *Login) leavePhone(ctx context.Context) (bool, error) {
	_, err := l.SendOTP(ctx)
	return false, err
}

func (l *Login) leaveOTP(ctx context.Context) (bool, error) {
	if _, err := l.Verify(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// signup only creates accounts for the phone whose OTP was verified in this
// flow; the phone answer stays editable after the branch.
func (l *Login) signup(ctx context.Context, payload any) (any, error) {
	req := payload.(api.SignupRequest)
	l.mu.Lock()
	verified := l.verified
	l.mu.Unlock()
	if verified == "" || api.InternationalPhone(verified) != req.Phone {
		return nil, &ActionError{Action: "signup", Message: "Please verify your phone number first", Err: ErrPhoneNotVerified}
	}
	user, err := l.backend.Signup(ctx, req)
	if err != nil {
		return nil, err
	}
	if err := l.session.Login(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// User returns the logged-in user once the flow finished.
func (l *Login) User() (*domain.User, bool) {
	u, ok := l.engine.State().Result.(*domain.User)
	return u, ok && u != nil
}

// Actions implements Actioner.
func (l *Login) Actions() []string { return []string{ActionSendOTP, ActionVerifyOTP} }

// Action implements Actioner. Failures are recorded on the engine like Next does.
func (l *Login) Action(ctx context.Context, name string) (any, error) {
	var (
		out      any
		err      error
		fallback string
	)
	switch name {
	case ActionSendOTP:
		out, err = l.SendOTP(ctx)
		fallback = "Failed to send OTP"
	case ActionVerifyOTP:
		if l.engine.Step().ID != "otp" {
			return nil, fmt.Errorf("%w: %s outside the otp step", domain.ErrUnknownAction, name)
		}
		out, err = l.Verify(ctx)
		fallback = "Invalid OTP"
	default:
		return nil, fmt.Errorf("%w: %q on %s", domain.ErrUnknownAction, name, LoginFlow)
	}
	if err != nil {
		l.engine.Fail(err, fallback)
		return nil, err
	}
	return out, nil
}
