package flows

import (
	"context"
	"strings"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/wizard"
)

// ContactFlow is the catalog name of the support form.
const ContactFlow = "contact"

func validEmail(key string) domain.Predicate {
	return func(a domain.Answers) bool {
		s := a.String(key)
		at := strings.Index(s, "@")
		return at > 0 && strings.Contains(s[at:], ".")
	}
}

// ContactDefinition is a single-step support form.
func ContactDefinition() *domain.Definition {
	required := domain.RequireNonEmpty("name", "email", "message")
	return dsl.New(ContactFlow).
		Title("Contact us").
		FailureMessage("Failed to send message. Please try again.").
		Defaults(func(in domain.Input) domain.Answers {
			if in.User == nil {
				return nil
			}
			return domain.Answers{"name": in.User.Name, "email": in.User.Email, "phone": in.User.LocalPhone()}
		}).
		Payload(func(in domain.Input) (any, error) {
			a := in.Answers
			return api.ContactRequest{
				Name:    a.String("name"),
				Email:   a.String("email"),
				Phone:   a.String("phone"),
				Message: a.String("message"),
			}, nil
		}).
		Step("message").
		Title("Send us a message").
		Text("name", "Name").
		Text("email", "Email").
		Phone("phone", "Phone (optional)").
		Textarea("message", "Message").
		Require("name", "email", "message").
		Gate(func(a domain.Answers) bool { return required(a) && validEmail("email")(a) }).
		Done().
		MustBuild()
}

// Contact is a live support form.
type Contact struct {
	base
}

// OpenContact starts a support form, prefilled from the current user.
func OpenContact(deps Deps) (*Contact, error) {
	backend := deps.Backend
	submit := func(ctx context.Context, payload any) (any, error) {
		return backend.SubmitContact(ctx, payload.(api.ContactRequest))
	}
	e, err := wizard.New(ContactDefinition(), submit, deps.engineOptions()...)
	if err != nil {
		return nil, err
	}
	return &Contact{base: base{engine: e, logger: deps.logger()}}, nil
}
