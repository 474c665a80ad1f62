package flows

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/dsl"
	"github.com/aretw0/homecare/pkg/schema"
	"github.com/aretw0/homecare/pkg/wizard"
)

const (
	// BookingFlow is the catalog name of the booking flow.
	BookingFlow = "booking"

	// ParamService selects the booked service.
	ParamService = "service"
	// ParamAssessment links the booking to a prior assessment.
	ParamAssessment = "assessment"

	// ActionPay completes the mocked payment of a created booking.
	ActionPay = "pay"

	fallbackSessionPrice = 999
	bookableDays         = 14
)

// ErrDateUnavailable is returned when the preferred date is outside the
// bookable window, typically because the session outlived the day it opened.
var ErrDateUnavailable = errors.New("preferred date unavailable")

// DefaultPrices is used when the backend price table cannot be fetched.
var DefaultPrices = api.Pricing{1: 999, 3: 2899, 7: 6299, 15: 12735, 30: 23970}

// Amount returns the package price for a session count, falling back to a
// per-session price for counts outside the table.
func Amount(prices api.Pricing, sessions int) int {
	if p, ok := prices[sessions]; ok && p > 0 {
		return p
	}
	return sessions * fallbackSessionPrice
}

// TimeSlots lists the bookable start times, every half hour from 08:00 to 20:00.
func TimeSlots() []string {
	var slots []string
	for h := 8; h <= 20; h++ {
		slots = append(slots, fmt.Sprintf("%02d:00", h))
		if h < 20 {
			slots = append(slots, fmt.Sprintf("%02d:30", h))
		}
	}
	return slots
}

// DateOption is a selectable visit date.
type DateOption struct {
	Value string `json:"value"`
	Label string `json:"label"`
}

// DateOptions lists the fourteen days following now.
func DateOptions(now time.Time) []DateOption {
	out := make([]DateOption, 0, bookableDays)
	for i := 1; i <= bookableDays; i++ {
		d := now.AddDate(0, 0, i)
		out = append(out, DateOption{Value: d.Format("2006-01-02"), Label: d.Format("Mon, Jan 2")})
	}
	return out
}

func sessionOptions(prices api.Pricing) []string {
	counts := make([]int, 0, len(prices))
	for n := range prices {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	opts := make([]string, len(counts))
	for i, n := range counts {
		opts[i] = strconv.Itoa(n)
	}
	return opts
}

func dateValues(now time.Time) []string {
	opts := DateOptions(now)
	out := make([]string, len(opts))
	for i, o := range opts {
		out[i] = o.Value
	}
	return out
}

// DateBookable reports whether date is one of DateOptions(now).
func DateBookable(now time.Time, date string) bool {
	for _, v := range dateValues(now) {
		if v == date {
			return true
		}
	}
	return false
}

// BookingDefinition describes the three-step booking for a price table.
// The date choices are the days following now; a zero now leaves the date
// as free text, which is how the static catalog shows it.
func BookingDefinition(prices api.Pricing, now time.Time) *domain.Definition {
	date := domain.Field{Key: "preferred_date", Label: "Preferred date", Kind: domain.KindText, Placeholder: "YYYY-MM-DD"}
	if !now.IsZero() {
		date.Kind = domain.KindSelect
		date.Placeholder = ""
		date.Options = dateValues(now)
	}
	return dsl.New(BookingFlow).
		Title("Book home physiotherapy").
		FailureMessage("Failed to create booking. Please try again.").
		Defaults(bookingDefaults).
		Payload(bookingPayload(prices)).
		Step("plan").
		Title("Choose your package").
		Select("session_count", "Number of sessions", sessionOptions(prices)...).
		Require("session_count").
		Step("details").
		Title("Patient details").
		Text("customer_name", "Full name").
		Phone("customer_phone", "Phone number").
		Text("customer_email", "Email (optional)").
		Textarea("address", "Address").
		Text("city", "City").
		Digits("pincode", "Pincode", 6).
		Require("customer_name", "customer_phone", "address", "city", "pincode").
		Step("schedule").
		Title("Pick a slot").
		Field(date).
		Select("preferred_time", "Preferred time", TimeSlots()...).
		Select("physio_gender_preference", "Physiotherapist preference", "", "female", "male").
		Require("preferred_date", "preferred_time").
		Done().
		MustBuild()
}

func bookingDefaults(in domain.Input) domain.Answers {
	a := domain.Answers{"session_count": "1"}
	if u := in.User; u != nil {
		a["customer_name"] = u.Name
		a["customer_phone"] = u.LocalPhone()
		a["customer_email"] = u.Email
	}
	return a
}

func bookingPayload(prices api.Pricing) domain.PayloadBuilder {
	return func(in domain.Input) (any, error) {
		if in.User == nil {
			return nil, domain.ErrLoginRequired
		}
		a := in.Answers
		c := schema.NewCoercer(a)
		sessions := c.Int("session_count")
		if err := c.Err(); err != nil {
			return nil, err
		}

		var gender *string
		if g := a.String("physio_gender_preference"); g != "" {
			gender = &g
		}
		return api.BookingRequest{
			UserID:                 in.User.ID,
			ServiceType:            in.Param(ParamService),
			SessionCount:           sessions,
			Amount:                 Amount(prices, sessions),
			CustomerName:           a.String("customer_name"),
			CustomerPhone:          api.InternationalPhone(a.String("customer_phone")),
			CustomerEmail:          a.String("customer_email"),
			Address:                a.String("address"),
			City:                   a.String("city"),
			Pincode:                a.String("pincode"),
			PreferredDate:          a.String("preferred_date"),
			PreferredTime:          a.String("preferred_time"),
			PhysioGenderPreference: gender,
			AssessmentID:           in.Param(ParamAssessment),
		}, nil
	}
}

// Booking is a live booking flow.
type Booking struct {
	base
	backend BookingAPI
	prices  api.Pricing
	service api.Service

	mu   sync.Mutex
	paid bool
}

// OpenBooking starts a booking. A logged-in user and a service the backend
// knows are required. The price table is fetched from the backend, falling
// back to DefaultPrices.
func OpenBooking(ctx context.Context, deps Deps) (*Booking, error) {
	if deps.user() == nil {
		return nil, domain.ErrLoginRequired
	}
	id := deps.Params[ParamService]
	if id == "" {
		return nil, fmt.Errorf("booking: %q param is required", ParamService)
	}
	logger := deps.logger()

	svc, err := deps.Backend.GetService(ctx, id)
	switch {
	case api.IsNotFound(err):
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownService, id)
	case err != nil:
		logger.Warn("Could not load the service, booking it by id", "service", id, "err", err)
		svc = &api.Service{ID: id, Name: id}
	}

	prices, err := deps.Backend.GetPricing(ctx)
	if err != nil || len(prices) == 0 {
		logger.Warn("Using default price table", "err", err)
		prices = DefaultPrices
	}

	backend := deps.Backend
	now := deps.now
	submit := func(ctx context.Context, payload any) (any, error) {
		req := payload.(api.BookingRequest)
		if !DateBookable(now(), req.PreferredDate) {
			return nil, &ActionError{Action: "book", Message: "Please pick a date within the next 14 days", Err: ErrDateUnavailable}
		}
		return backend.CreateBooking(ctx, req)
	}
	def := BookingDefinition(prices, now())
	def.Title = "Book " + svc.Name
	e, err := wizard.New(def, submit, deps.engineOptions()...)
	if err != nil {
		return nil, err
	}
	return &Booking{
		base:    base{engine: e, logger: logger},
		backend: backend,
		prices:  prices,
		service: *svc,
	}, nil
}

// Service returns the booked service.
func (b *Booking) Service() api.Service {
	return b.service
}

// Amount is the price of the currently selected package.
func (b *Booking) Amount() int {
	n, err := strconv.Atoi(b.engine.State().Answers.String("session_count"))
	if err != nil {
		return 0
	}
	return Amount(b.prices, n)
}

// Prices returns the price table in use.
func (b *Booking) Prices() api.Pricing {
	return b.prices
}

// Created returns the booking once submitted.
func (b *Booking) Created() (*api.Booking, bool) {
	r, ok := b.engine.State().Result.(*api.Booking)
	return r, ok && r != nil
}

// Paid reports whether the mocked payment went through.
func (b *Booking) Paid() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.paid
}

// Pay completes the mocked payment of the created booking.
func (b *Booking) Pay(ctx context.Context) (*api.Ack, error) {
	created, ok := b.Created()
	if !ok {
		return nil, &ActionError{Action: ActionPay, Message: "Create the booking before paying.", Err: domain.ErrNotTerminal}
	}
	b.mu.Lock()
	if b.paid {
		b.mu.Unlock()
		return &api.Ack{Success: true, Message: "Payment already completed"}, nil
	}
	b.mu.Unlock()

	ack, err := b.backend.MockPaymentSuccess(ctx, created.ID)
	if err != nil {
		return nil, &ActionError{Action: ActionPay, Message: "Payment failed. Please try again.", Err: err}
	}
	b.mu.Lock()
	b.paid = true
	b.mu.Unlock()
	b.logger.Info("Booking paid", "booking", created.ID, "amount", created.Amount)
	return ack, nil
}

// Actions implements Actioner.
func (b *Booking) Actions() []string { return []string{ActionPay} }

// FollowUps implements FollowUpper.
func (b *Booking) FollowUps() []string { return []string{ActionPay} }

// Action implements Actioner.
func (b *Booking) Action(ctx context.Context, name string) (any, error) {
	if name != ActionPay {
		return nil, fmt.Errorf("%w: %q on %s", domain.ErrUnknownAction, name, BookingFlow)
	}
	return b.Pay(ctx)
}
