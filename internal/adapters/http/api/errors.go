package api

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/okian/rangeboard/internal/adapters/graphql"
	service "github.com/okian/rangeboard/internal/app"
	"github.com/okian/rangeboard/internal/domain/reorder"
	"github.com/okian/rangeboard/internal/domain/stage"
)

// Sentinel kinds for API errors.
var (
	ErrBadRequest  = errors.New("bad request")
	ErrInvalidBody = errors.New("invalid request body")
)

type errorResponse struct {
	Code       string            `json:"code"`
	Message    string            `json:"message"`
	Violations []stage.Violation `json:"violations,omitempty"`
	Upstream   *graphql.Error    `json:"upstream,omitempty"`
}

// classify maps an error to its HTTP status and error code.
func classify(err error) (int, string) {
	switch {
	case errors.Is(err, service.ErrInvalidID), errors.Is(err, ErrBadRequest), errors.Is(err, ErrInvalidBody):
		return http.StatusBadRequest, "bad_request"
	case errors.Is(err, service.ErrConfirmationRequired):
		return http.StatusBadRequest, "confirmation_required"
	case errors.Is(err, stage.ErrInvalidForm):
		return http.StatusUnprocessableEntity, "invalid_form"
	case errors.Is(err, reorder.ErrOrderingDisabled):
		return http.StatusConflict, "ordering_disabled"
	case errors.Is(err, service.ErrNotStarted):
		return http.StatusServiceUnavailable, "unavailable"
	case errors.Is(err, graphql.ErrNotFound):
		return http.StatusNotFound, "not_found"
	}
	var ge *graphql.Error
	if errors.As(err, &ge) {
		return http.StatusBadGateway, "upstream_error"
	}
	return http.StatusInternalServerError, "internal_error"
}

func newErrorResponse(code string, err error) errorResponse {
	resp := errorResponse{Code: code, Message: err.Error()}
	var ve *stage.ValidationError
	if errors.As(err, &ve) {
		resp.Violations = ve.Violations
	}
	var ge *graphql.Error
	if errors.As(err, &ge) {
		resp.Upstream = ge
	}
	return resp
}

func wrapBody(err error) error {
	return fmt.Errorf("%w: %w", ErrInvalidBody, err)
}
