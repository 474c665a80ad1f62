package flows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/auth"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/stretchr/testify/require"
)

// fakeBackend records calls and answers from canned values.
type fakeBackend struct {
	mu sync.Mutex

	assessments []api.AssessmentRequest
	bookings    []api.BookingRequest
	payments    []string
	apps        []api.PractitionerApplication
	uploads     []string
	contacts    []api.ContactRequest
	otpSent     []string
	signups     []api.SignupRequest

	services     map[string]api.Service
	serviceErr   error
	pricing      api.Pricing
	pricingErr   error
	assessErr    error
	bookingErr   error
	paymentErr   error
	applyErr     error
	uploadFailOn string
	sendErr      error
	verify       api.Verification
	verifyErr    error
	users        map[string]*domain.User
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{
		services: map[string]api.Service{
			"orthopaedic": {ID: "orthopaedic", Name: "Orthopaedic Physiotherapy", PricePerSession: 999},
			"geriatric":   {ID: "geriatric", Name: "Geriatric Care", PricePerSession: 999},
		},
		pricing: flows.DefaultPrices,
		users:   map[string]*domain.User{},
	}
}

func (f *fakeBackend) CreateAssessment(ctx context.Context, req api.AssessmentRequest) (*api.Assessment, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.assessments = append(f.assessments, req)
	if f.assessErr != nil {
		return nil, f.assessErr
	}
	return &api.Assessment{AssessmentRequest: req, ID: "a-1", RecommendedService: "orthopaedic"}, nil
}

func (f *fakeBackend) GetService(ctx context.Context, id string) (*api.Service, error) {
	if f.serviceErr != nil {
		return nil, f.serviceErr
	}
	svc, ok := f.services[id]
	if !ok {
		return nil, &api.Error{Status: 404, Detail: "Service not found"}
	}
	return &svc, nil
}

func (f *fakeBackend) GetPricing(ctx context.Context) (api.Pricing, error) {
	return f.pricing, f.pricingErr
}

func (f *fakeBackend) CreateBooking(ctx context.Context, req api.BookingRequest) (*api.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.bookings = append(f.bookings, req)
	if f.bookingErr != nil {
		return nil, f.bookingErr
	}
	return &api.Booking{BookingRequest: req, ID: "b-1", Status: "pending", PaymentStatus: "pending"}, nil
}

func (f *fakeBackend) MockPaymentSuccess(ctx context.Context, bookingID string) (*api.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.payments = append(f.payments, bookingID)
	if f.paymentErr != nil {
		return nil, f.paymentErr
	}
	return &api.Ack{Success: true, Message: "Payment successful"}, nil
}

func (f *fakeBackend) ApplyPractitioner(ctx context.Context, app api.PractitionerApplication) (*api.ApplyResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.apps = append(f.apps, app)
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &api.ApplyResponse{Success: true, ID: "p-1", Message: "Application submitted successfully"}, nil
}

func (f *fakeBackend) UploadCertificate(ctx context.Context, practitionerID, certificateType string, file domain.FileHandle) (*api.UploadResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if file.Name == f.uploadFailOn {
		return nil, errors.New("connection reset")
	}
	f.uploads = append(f.uploads, practitionerID+":"+certificateType+":"+file.Name)
	return &api.UploadResponse{Success: true, Filename: file.Name}, nil
}

func (f *fakeBackend) SendOTP(ctx context.Context, phone string) (*api.OTPResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.otpSent = append(f.otpSent, phone)
	if f.sendErr != nil {
		return nil, f.sendErr
	}
	return &api.OTPResponse{Success: true, Message: "OTP sent successfully. Use OTP 123456 for demo"}, nil
}

func (f *fakeBackend) VerifyOTP(ctx context.Context, phone, otp string) (api.Verification, error) {
	if f.verifyErr != nil {
		return api.Verification{}, f.verifyErr
	}
	return f.verify, nil
}

func (f *fakeBackend) Signup(ctx context.Context, req api.SignupRequest) (*domain.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signups = append(f.signups, req)
	u := &domain.User{ID: "u-new", Name: req.Name, Age: req.Age, Gender: req.Gender, Phone: req.Phone, Email: req.Email}
	f.users[u.ID] = u
	return u, nil
}

func (f *fakeBackend) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if u, ok := f.users[id]; ok {
		return u, nil
	}
	return nil, &api.Error{Status: 404, Detail: "User not found"}
}

func (f *fakeBackend) SubmitContact(ctx context.Context, req api.ContactRequest) (*api.Ack, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.contacts = append(f.contacts, req)
	return &api.Ack{Success: true, Message: "Message sent"}, nil
}

func newDeps(t *testing.T, backend *fakeBackend, user *domain.User) flows.Deps {
	t.Helper()
	session := auth.NewSession(memory.NewStore(), backend)
	if user != nil {
		require.NoError(t, session.Login(context.Background(), user))
	}
	return flows.Deps{Backend: backend, Auth: session}
}

func setAll(t *testing.T, f flows.Flow, answers map[string]any) {
	t.Helper()
	for k, v := range answers {
		require.NoError(t, f.Engine().SetField(k, v), "set %s", k)
	}
}

func next(t *testing.T, f flows.Flow, want flows.Outcome) {
	t.Helper()
	got, err := f.Next(context.Background())
	require.NoError(t, err)
	require.Equal(t, want, got)
}
