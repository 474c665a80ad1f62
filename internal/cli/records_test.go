package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/aretw0/homecare/pkg/adapters/memory"
	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// recordsBackend adds the read and profile calls to stubBackend.
type recordsBackend struct {
	*stubBackend

	services []api.Service
	bookings map[string][]api.Booking
	updates  []map[string]any
}

func (r *recordsBackend) ListServices(ctx context.Context) ([]api.Service, error) {
	return r.services, nil
}

func (r *recordsBackend) GetBooking(ctx context.Context, id string) (*api.Booking, error) {
	for _, list := range r.bookings {
		for _, b := range list {
			if b.ID == id {
				return &b, nil
			}
		}
	}
	return nil, &api.Error{Status: 404, Detail: "Booking not found"}
}

func (r *recordsBackend) ListUserBookings(ctx context.Context, userID string) ([]api.Booking, error) {
	return r.bookings[userID], nil
}

func (r *recordsBackend) UpdateUser(ctx context.Context, id string, updates map[string]any) (*domain.User, error) {
	r.updates = append(r.updates, updates)
	u := *r.users[id]
	if v, ok := updates["email"].(string); ok {
		u.Email = v
	}
	if v, ok := updates["age"].(int); ok {
		u.Age = v
	}
	return &u, nil
}

func newRecordsBackend() *recordsBackend {
	return &recordsBackend{
		stubBackend: &stubBackend{users: map[string]*domain.User{"u1": {ID: "u1", Name: "Alex", Phone: "+919876543210"}}},
		services: []api.Service{
			{ID: "orthopaedic", Name: "Orthopaedic Physiotherapy", PricePerSession: 999, SubServices: []string{"Knee pain", "Back pain"}},
			{ID: "geriatric", Name: "Geriatric Care", PricePerSession: 899},
		},
		bookings: map[string][]api.Booking{
			"u1": {{
				BookingRequest: api.BookingRequest{ServiceType: "orthopaedic", SessionCount: 7, Amount: 6299, PreferredDate: "2026-10-20", PreferredTime: "10:00"},
				ID:             "b-1", Status: "confirmed", PaymentStatus: "paid",
			}},
		},
	}
}

func TestRecords_NotServed(t *testing.T) {
	app := newTestApp(t, &stubBackend{}, memory.NewStore())
	assert.ErrorIs(t, ListServices(context.Background(), app, false, &bytes.Buffer{}), ErrNoRecords)
}

func TestListServices(t *testing.T) {
	backend := newRecordsBackend()
	app := newTestApp(t, backend, memory.NewStore())

	out := &bytes.Buffer{}
	require.NoError(t, ListServices(context.Background(), app, false, out))
	assert.Contains(t, out.String(), "orthopaedic")
	assert.Contains(t, out.String(), "Knee pain, Back pain")
	assert.Contains(t, out.String(), "₹899")

	out.Reset()
	require.NoError(t, ListServices(context.Background(), app, true, out))
	assert.Contains(t, out.String(), `"id": "geriatric"`)
}

func TestRun_BookingSuggestsServices(t *testing.T) {
	backend := newRecordsBackend()
	app := newTestApp(t, backend, memory.NewStore())
	require.NoError(t, app.Auth.Login(context.Background(), backend.users["u1"]))

	err := Run(context.Background(), app, RunOptions{Flow: flows.BookingFlow, Headless: true, In: strings.NewReader(""), Out: &bytes.Buffer{}})
	assert.EqualError(t, err, "booking needs --service, one of: orthopaedic, geriatric")
}

func TestBookings(t *testing.T) {
	ctx := context.Background()
	backend := newRecordsBackend()
	app := newTestApp(t, backend, memory.NewStore())
	out := &bytes.Buffer{}

	assert.ErrorIs(t, Bookings(ctx, app, "", false, out), ErrNotLoggedIn)

	require.NoError(t, Bookings(ctx, app, "b-1", false, out))
	assert.Contains(t, out.String(), "2026-10-20 10:00")
	assert.Contains(t, out.String(), "paid")

	assert.Equal(t, "Booking not found", domain.UserMessage(Bookings(ctx, app, "b-9", false, out), ""))

	require.NoError(t, app.Auth.Login(ctx, backend.users["u1"]))
	out.Reset()
	require.NoError(t, Bookings(ctx, app, "", true, out))
	assert.Contains(t, out.String(), `"id": "b-1"`)

	backend.bookings["u1"] = nil
	out.Reset()
	require.NoError(t, Bookings(ctx, app, "", false, out))
	assert.Contains(t, out.String(), "No bookings yet")
}

func TestUpdateProfile(t *testing.T) {
	ctx := context.Background()
	backend := newRecordsBackend()
	app := newTestApp(t, backend, memory.NewStore())
	out := &bytes.Buffer{}

	assert.ErrorIs(t, UpdateProfile(ctx, app, ProfileUpdate{Email: "alex@example.com"}, out), ErrNotLoggedIn)

	require.NoError(t, app.Auth.Login(ctx, backend.users["u1"]))
	assert.Error(t, UpdateProfile(ctx, app, ProfileUpdate{}, out))
	assert.Empty(t, backend.updates)

	require.NoError(t, UpdateProfile(ctx, app, ProfileUpdate{Email: "alex@example.com", Age: 34}, out))
	assert.Equal(t, []map[string]any{{"email": "alex@example.com", "age": 34}}, backend.updates)
	assert.Equal(t, "alex@example.com", app.Auth.Current().Email)
	assert.Equal(t, 34, app.Auth.Current().Age)
	assert.Contains(t, out.String(), "Profile updated for Alex.")
}
