package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/crmforge/crmforge/internal/domain"
)

// Response represents a standard API response
type Response struct {
	Success bool `json:"success"`
	Data    any  `json:"data,omitempty"`
	Error   any  `json:"error,omitempty"`
}

// ErrorBody is the error payload: a stable kind, a human message, and
// for validation failures the full field list.
type ErrorBody struct {
	Kind    string             `json:"kind"`
	Message string             `json:"message"`
	Fields  []domain.FieldError `json:"fields,omitempty"`
}

// JSON sends a JSON response
func JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	json.NewEncoder(w).Encode(resp)
}

// Error sends an error response
func Error(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := Response{
		Success: false,
		Error:   body,
	}

	json.NewEncoder(w).Encode(resp)
}

// NoContent sends a 204 No Content response
func NoContent(w http.ResponseWriter) {
	w.WriteHeader(http.StatusNoContent)
}

// Created sends a 201 Created response with data
func Created(w http.ResponseWriter, data any) {
	JSON(w, http.StatusCreated, data)
}

// OK sends a 200 OK response with data
func OK(w http.ResponseWriter, data any) {
	JSON(w, http.StatusOK, data)
}

// BadRequest sends a 400 Bad Request response
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, ErrorBody{Kind: "bad_request", Message: message})
}

// Unauthorized sends a 401 Unauthorized response
func Unauthorized(w http.ResponseWriter, message string) {
	Error(w, http.StatusUnauthorized, ErrorBody{Kind: "unauthorized", Message: message})
}

// Forbidden sends a 403 Forbidden response
func Forbidden(w http.ResponseWriter, message string) {
	Error(w, http.StatusForbidden, ErrorBody{Kind: "forbidden", Message: message})
}

// NotFound sends a 404 Not Found response
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, ErrorBody{Kind: "not_found", Message: message})
}

// InternalError sends a 500 Internal Server Error response
func InternalError(w http.ResponseWriter, message string) {
	Error(w, http.StatusInternalServerError, ErrorBody{Kind: "internal", Message: message})
}

// FromError maps a service error onto the HTTP taxonomy. Unrecognized
// errors become opaque 500s so internals never leak to clients.
func FromError(w http.ResponseWriter, err error) {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		Error(w, http.StatusUnprocessableEntity, ErrorBody{
			Kind:    "validation",
			Message: "validation failed",
			Fields:  verr.Fields,
		})
	case errors.Is(err, domain.ErrNotFound):
		NotFound(w, "resource not found")
	case errors.Is(err, domain.ErrForbidden):
		Forbidden(w, "you do not have permission to perform this action")
	case errors.Is(err, domain.ErrDuplicate):
		Error(w, http.StatusConflict, ErrorBody{Kind: "duplicate", Message: err.Error()})
	case errors.Is(err, domain.ErrProtected):
		Error(w, http.StatusConflict, ErrorBody{Kind: "protected", Message: err.Error()})
	case errors.Is(err, domain.ErrCrossWorkspace):
		Error(w, http.StatusUnprocessableEntity, ErrorBody{Kind: "cross_workspace", Message: err.Error()})
	case errors.Is(err, domain.ErrExternalService):
		Error(w, http.StatusBadGateway, ErrorBody{Kind: "external_service", Message: "an upstream service failed"})
	default:
		InternalError(w, "internal server error")
	}
}
