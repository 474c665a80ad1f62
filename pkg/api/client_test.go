package api

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/aretw0/homecare/pkg/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, h http.Handler) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	c, err := NewClient(Config{BaseURL: srv.URL + "/api/"})
	require.NoError(t, err)
	return c
}

func TestNewClient_RejectsBadURL(t *testing.T) {
	_, err := NewClient(Config{BaseURL: "ftp://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Config{})
	require.NoError(t, err)
	assert.Equal(t, DefaultBaseURL, c.baseURL)
}

func TestClient_DetailError(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"detail":"Invalid OTP"}`))
	}))

	_, err := c.VerifyOTP(context.Background(), "9876543210", "000000")
	require.Error(t, err)

	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)
	assert.Equal(t, "Invalid OTP", domain.UserMessage(err, "fallback"))
}

func TestClient_ValidationDetailList(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_, _ = w.Write([]byte(`{"detail":[{"msg":"field required"},{"msg":"value is not a valid integer"}]}`))
	}))

	_, err := c.CreateBooking(context.Background(), BookingRequest{})
	assert.Equal(t, "field required; value is not a valid integer", domain.UserMessage(err, ""))
}

func TestClient_ErrorWithoutDetailUsesFallback(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))

	_, err := c.SubmitContact(context.Background(), ContactRequest{})
	require.Error(t, err)
	assert.Equal(t, "Failed to send", domain.UserMessage(err, "Failed to send"))
	assert.False(t, IsNotFound(err))
}

func TestClient_SendOTP(t *testing.T) {
	var got map[string]string
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/send-otp", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"success":true,"message":"OTP sent. Use OTP 123456 for demo"}`))
	}))

	resp, err := c.SendOTP(context.Background(), "9876543210")
	require.NoError(t, err)
	assert.Equal(t, "+919876543210", got["phone"])
	assert.Equal(t, "123456", resp.DemoOTP())

	assert.Equal(t, "", (&OTPResponse{Message: "OTP sent"}).DemoOTP())
	assert.Equal(t, "", (*OTPResponse)(nil).DemoOTP())
}

func TestClient_VerifyOTP(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		existing bool
	}{
		{"existing account", `{"success":true,"message":"Login successful","user_id":"u-1"}`, true},
		{"new account", `{"success":true,"message":"OTP verified. Please complete signup."}`, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				_, _ = w.Write([]byte(tt.body))
			}))
			v, err := c.VerifyOTP(context.Background(), "9876543210", "123456")
			require.NoError(t, err)
			assert.Equal(t, tt.existing, v.ExistingAccount)
		})
	}
}

func TestClient_GetPricing(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"1":999,"7":6299}`))
	}))

	p, err := c.GetPricing(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Pricing{1: 999, 7: 6299}, p)
}

func TestClient_Services(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		switch r.URL.Path {
		case "/api/services":
			_, _ = w.Write([]byte(`[{"id":"orthopaedic","name":"Orthopaedic Physiotherapy","sub_services":["Knee pain"],"price_per_session":999},{"id":"geriatric","name":"Geriatric Care"}]`))
		case "/api/services/orthopaedic":
			_, _ = w.Write([]byte(`{"id":"orthopaedic","name":"Orthopaedic Physiotherapy","price_per_session":999}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Service not found"}`))
		}
	}))

	all, err := c.ListServices(context.Background())
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, Service{ID: "orthopaedic", Name: "Orthopaedic Physiotherapy", SubServices: []string{"Knee pain"}, PricePerSession: 999}, all[0])

	svc, err := c.GetService(context.Background(), "orthopaedic")
	require.NoError(t, err)
	assert.Equal(t, "Orthopaedic Physiotherapy", svc.Name)

	_, err = c.GetService(context.Background(), "astrology")
	assert.True(t, IsNotFound(err))
}

func TestClient_Bookings(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/booking/b-1":
			_, _ = w.Write([]byte(`{"id":"b-1","service_type":"orthopaedic","session_count":7,"amount":6299,"status":"confirmed","payment_status":"paid"}`))
		case "/api/bookings/user/u-1":
			_, _ = w.Write([]byte(`[{"id":"b-1","status":"confirmed"},{"id":"b-2","status":"pending"}]`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"detail":"Booking not found"}`))
		}
	}))

	b, err := c.GetBooking(context.Background(), "b-1")
	require.NoError(t, err)
	assert.Equal(t, "orthopaedic", b.ServiceType)
	assert.Equal(t, 6299, b.Amount)
	assert.Equal(t, "paid", b.PaymentStatus)

	list, err := c.ListUserBookings(context.Background(), "u-1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "b-2", list[1].ID)

	_, err = c.GetBooking(context.Background(), "b-9")
	assert.Equal(t, "Booking not found", domain.UserMessage(err, ""))
}

func TestClient_UpdateUser(t *testing.T) {
	var body map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/auth/user/u-1", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		_, _ = w.Write([]byte(`{"id":"u-1","name":"Alex","email":"alex@example.com","phone":"+919876543210"}`))
	}))

	u, err := c.UpdateUser(context.Background(), "u-1", map[string]any{"email": "alex@example.com"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"email": "alex@example.com"}, body)
	assert.Equal(t, "alex@example.com", u.Email)

	_, err = c.UpdateUser(context.Background(), "", nil)
	assert.Error(t, err)
}

func TestClient_ResponseSizeLimit(t *testing.T) {
	huge := `["` + strings.Repeat("x", MaxResponseBytes) + `"]`
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/bookings/user/u-1" {
			_, _ = w.Write([]byte(huge))
			return
		}
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(huge))
	}))

	_, err := c.ListUserBookings(context.Background(), "u-1")
	assert.ErrorIs(t, err, ErrResponseTooLarge)

	_, err = c.GetBooking(context.Background(), "b-1")
	var apiErr *Error
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadGateway, apiErr.Status)
	assert.Len(t, apiErr.Body, MaxResponseBytes)
}

func TestClient_GetUserNotFound(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/auth/user/u-9", r.URL.Path)
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"detail":"User not found"}`))
	}))

	_, err := c.GetUser(context.Background(), "u-9")
	assert.True(t, IsNotFound(err))

	_, err = c.GetUser(context.Background(), "")
	assert.Error(t, err)
}

func TestClient_BookingSendsNullGenderPreference(t *testing.T) {
	var raw map[string]any
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		_, _ = w.Write([]byte(`{"id":"b-1","status":"pending","payment_status":"pending"}`))
	}))

	b, err := c.CreateBooking(context.Background(), BookingRequest{UserID: "u-1", SessionCount: 7})
	require.NoError(t, err)
	assert.Equal(t, "b-1", b.ID)
	assert.Contains(t, raw, "physio_gender_preference")
	assert.Nil(t, raw["physio_gender_preference"])
	assert.NotContains(t, raw, "assessment_id")
}

func TestClient_UploadCertificate(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/practitioner/p-1/upload-certificate", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		assert.Equal(t, CertificateDegree, r.FormValue("certificate_type"))

		f, hdr, err := r.FormFile("file")
		require.NoError(t, err)
		defer f.Close()
		data, _ := io.ReadAll(f)
		assert.Equal(t, "degree.pdf", hdr.Filename)
		assert.Equal(t, "application/pdf", hdr.Header.Get("Content-Type"))
		assert.Equal(t, "%PDF-1.4", string(data))

		_, _ = w.Write([]byte(`{"success":true,"filename":"p-1_degree_degree.pdf"}`))
	}))

	resp, err := c.UploadCertificate(context.Background(), "p-1", CertificateDegree, domain.FileHandle{
		Name: "degree.pdf", MimeType: "application/pdf", Size: 8, Data: []byte("%PDF-1.4"),
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
}
