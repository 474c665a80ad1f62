package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"

	"github.com/aretw0/homecare/pkg/domain"
)

// CountryPrefix is prepended to local 10-digit numbers on the wire.
const CountryPrefix = "+91"

// InternationalPhone prefixes a local number with the country code.
func InternationalPhone(local string) string {
	return CountryPrefix + local
}

// OTPResponse is returned by send-otp and verify-otp.
type OTPResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	UserID  string `json:"user_id,omitempty"`
}

var demoOTP = regexp.MustCompile(`Use OTP (\d+)`)

// DemoOTP extracts the code the backend echoes in demo mode, or "".
func (r *OTPResponse) DemoOTP() string {
	if r == nil {
		return ""
	}
	m := demoOTP.FindStringSubmatch(r.Message)
	if m == nil {
		return ""
	}
	return m[1]
}

// Verification is the discriminated outcome of an OTP check.
// ExistingAccount is set only when the backend knows the phone number;
// otherwise the caller must continue to signup.
type Verification struct {
	ExistingAccount bool
	UserID          string
	Message         string
}

// SignupRequest creates an account after a successful OTP verification.
type SignupRequest struct {
	Name   string `json:"name"`
	Age    int    `json:"age"`
	Gender string `json:"gender"`
	Phone  string `json:"phone"`
	Email  string `json:"email,omitempty"`
}

// SendOTP asks the backend to send a code to the local phone number.
func (c *Client) SendOTP(ctx context.Context, phone string) (*OTPResponse, error) {
	var out OTPResponse
	body := map[string]string{"phone": InternationalPhone(phone)}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/send-otp", body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// VerifyOTP checks the code and reports whether an account already exists.
func (c *Client) VerifyOTP(ctx context.Context, phone, otp string) (Verification, error) {
	var out OTPResponse
	body := map[string]string{"phone": InternationalPhone(phone), "otp": otp}
	if err := c.doJSON(ctx, http.MethodPost, "/auth/verify-otp", body, &out); err != nil {
		return Verification{}, err
	}
	return Verification{
		ExistingAccount: out.UserID != "",
		UserID:          out.UserID,
		Message:         out.Message,
	}, nil
}

// Signup registers a new user. Phone must already carry the country prefix.
func (c *Client) Signup(ctx context.Context, req SignupRequest) (*domain.User, error) {
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPost, "/auth/signup", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetUser fetches a user by id.
func (c *Client) GetUser(ctx context.Context, id string) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("api: user id required")
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodGet, "/auth/user/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateUser applies partial updates to a user.
func (c *Client) UpdateUser(ctx context.Context, id string, updates map[string]any) (*domain.User, error) {
	if id == "" {
		return nil, fmt.Errorf("api: user id required")
	}
	var out domain.User
	if err := c.doJSON(ctx, http.MethodPut, "/auth/user/"+url.PathEscape(id), updates, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
