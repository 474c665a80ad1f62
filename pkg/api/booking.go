package api

import (
	"context"
	"net/http"
	"net/url"
)

// BookingRequest is the body of POST /booking.
type BookingRequest struct {
	UserID                 string  `json:"user_id"`
	ServiceType            string  `json:"service_type"`
	SessionCount           int     `json:"session_count"`
	Amount                 int     `json:"amount"`
	CustomerName           string  `json:"customer_name"`
	CustomerPhone          string  `json:"customer_phone"`
	CustomerEmail          string  `json:"customer_email,omitempty"`
	Address                string  `json:"address"`
	City                   string  `json:"city"`
	Pincode                string  `json:"pincode"`
	PreferredDate          string  `json:"preferred_date"`
	PreferredTime          string  `json:"preferred_time"`
	PhysioGenderPreference *string `json:"physio_gender_preference"`
	AssessmentID           string  `json:"assessment_id,omitempty"`
}

// Booking is a stored booking.
type Booking struct {
	BookingRequest
	ID               string `json:"id"`
	Status           string `json:"status"`
	PaymentStatus    string `json:"payment_status"`
	AssignedPhysioID string `json:"assigned_physio_id,omitempty"`
	AssignmentStatus string `json:"assignment_status,omitempty"`
}

// CreateBooking submits a booking. The server recomputes the amount.
func (c *Client) CreateBooking(ctx context.Context, req BookingRequest) (*Booking, error) {
	var out Booking
	if err := c.doJSON(ctx, http.MethodPost, "/booking", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetBooking fetches a booking.
func (c *Client) GetBooking(ctx context.Context, id string) (*Booking, error) {
	var out Booking
	if err := c.doJSON(ctx, http.MethodGet, "/booking/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ListUserBookings returns the bookings of a user.
func (c *Client) ListUserBookings(ctx context.Context, userID string) ([]Booking, error) {
	var out []Booking
	if err := c.doJSON(ctx, http.MethodGet, "/bookings/user/"+url.PathEscape(userID), nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// MockPaymentSuccess marks a booking as paid on the demo backend.
func (c *Client) MockPaymentSuccess(ctx context.Context, bookingID string) (*Ack, error) {
	var out Ack
	if err := c.doJSON(ctx, http.MethodPost, "/payment/mock-success/"+url.PathEscape(bookingID), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
