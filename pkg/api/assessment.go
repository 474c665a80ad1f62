package api

import (
	"context"
	"net/http"
)

// BasicDetails is the first section of an assessment.
type BasicDetails struct {
	Name          string `json:"name"`
	Age           int    `json:"age"`
	Gender        string `json:"gender"`
	CityArea      string `json:"city_area"`
	ContactNumber string `json:"contact_number"`
}

// AssessmentRequest is the body of POST /assessment.
type AssessmentRequest struct {
	BasicDetails       BasicDetails   `json:"basic_details"`
	ChiefComplaint     string         `json:"chief_complaint"`
	ConditionalAnswers map[string]any `json:"conditional_answers"`
}

// Assessment is the stored assessment. RecommendedService is computed by the server.
type Assessment struct {
	AssessmentRequest
	ID                 string `json:"id"`
	UserID             string `json:"user_id,omitempty"`
	RecommendedService string `json:"recommended_service"`
	Status             string `json:"status,omitempty"`
}

// CreateAssessment submits an assessment.
func (c *Client) CreateAssessment(ctx context.Context, req AssessmentRequest) (*Assessment, error) {
	var out Assessment
	if err := c.doJSON(ctx, http.MethodPost, "/assessment", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
