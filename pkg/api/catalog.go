package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
)

// Service is one bookable care category.
type Service struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	Description     string   `json:"description"`
	SubServices     []string `json:"sub_services"`
	Icon            string   `json:"icon"`
	PricePerSession int      `json:"price_per_session"`
}

// Pricing maps a session count to the package amount in rupees.
type Pricing map[int]int

// ListServices returns every service.
func (c *Client) ListServices(ctx context.Context) ([]Service, error) {
	var out []Service
	if err := c.doJSON(ctx, http.MethodGet, "/services", nil, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// GetService returns one service.
func (c *Client) GetService(ctx context.Context, id string) (*Service, error) {
	var out Service
	if err := c.doJSON(ctx, http.MethodGet, "/services/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetPricing returns the package price table.
func (c *Client) GetPricing(ctx context.Context) (Pricing, error) {
	var raw map[string]int
	if err := c.doJSON(ctx, http.MethodGet, "/pricing", nil, &raw); err != nil {
		return nil, err
	}
	out := make(Pricing, len(raw))
	for k, v := range raw {
		n, err := strconv.Atoi(k)
		if err != nil {
			return nil, fmt.Errorf("api: pricing key %q is not a session count", k)
		}
		out[n] = v
	}
	return out, nil
}

// ContactRequest is a support message.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone,omitempty"`
	Message string `json:"message"`
}

// Ack is the generic {success, message} acknowledgement.
type Ack struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// SubmitContact sends a support message.
func (c *Client) SubmitContact(ctx context.Context, req ContactRequest) (*Ack, error) {
	var out Ack
	if err := c.doJSON(ctx, http.MethodPost, "/contact", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
