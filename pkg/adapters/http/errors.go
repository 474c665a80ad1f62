package http

import (
	"errors"
	"net/http"

	"github.com/aretw0/homecare/pkg/api"
	"github.com/aretw0/homecare/pkg/domain"
	"github.com/aretw0/homecare/pkg/flows"
	"github.com/aretw0/homecare/pkg/schema"
)

type errorBody struct {
	Detail string `json:"detail"`
}

// statusFor maps an error to the response status.
func statusFor(err error) int {
	var (
		apiErr   *api.Error
		rejected *domain.FileRejectedError
		invalid  *schema.ValidationError
		action   *flows.ActionError
	)
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrUnknownFlow), errors.Is(err, domain.ErrUnknownService):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrUnknownStep), errors.Is(err, domain.ErrUnknownAction):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrFlowFinished), errors.Is(err, domain.ErrSubmissionInFlight), errors.Is(err, domain.ErrNotTerminal),
		errors.Is(err, domain.ErrStepGated):
		return http.StatusConflict
	case errors.Is(err, domain.ErrLoginRequired):
		return http.StatusUnauthorized
	case errors.As(err, &rejected), errors.As(err, &invalid), errors.As(err, &action):
		return http.StatusUnprocessableEntity
	case errors.As(err, &apiErr):
		if apiErr.Status < http.StatusInternalServerError {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("Request failed", "error", err)
	}
	s.writeJSON(w, status, errorBody{Detail: domain.UserMessage(err, err.Error())})
}
