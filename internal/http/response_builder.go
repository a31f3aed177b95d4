// Package http provides the JSON API over chi.
//
// This file implements the Builder Pattern for constructing API responses.
// It keeps HX-Trigger headers and JSON bodies consistent across handlers.

package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"pelotero/internal/core"
	"pelotero/internal/log"
)

// Events a pull-based client listens for to know which views to re-fetch.
const (
	EventBookingsChanged  = "bookings:changed"
	EventMovementsChanged = "movements:changed"
	EventDashboardRefresh = "dashboard:refresh"
)

// ResponseBuilder provides a fluent API for building JSON responses.
type ResponseBuilder struct {
	triggers   map[string]any
	statusCode int
	body       any
	headers    map[string]string
}

// NewResponse creates a new response builder with default 200 status.
func NewResponse() *ResponseBuilder {
	return &ResponseBuilder{
		triggers:   make(map[string]any),
		statusCode: http.StatusOK,
		headers:    make(map[string]string),
	}
}

func (b *ResponseBuilder) Status(code int) *ResponseBuilder {
	b.statusCode = code
	return b
}

// Trigger adds a named trigger with optional data to the HX-Trigger header.
func (b *ResponseBuilder) Trigger(name string, data any) *ResponseBuilder {
	if data == nil {
		data = struct{}{}
	}
	b.triggers[name] = data
	return b
}

// TriggerBookingsChanged marks the booking list and the dashboard stale.
func (b *ResponseBuilder) TriggerBookingsChanged() *ResponseBuilder {
	return b.Trigger(EventBookingsChanged, nil).TriggerDashboardRefresh()
}

// TriggerMovementsChanged marks the finance page and the dashboard stale.
func (b *ResponseBuilder) TriggerMovementsChanged() *ResponseBuilder {
	return b.Trigger(EventMovementsChanged, nil).TriggerDashboardRefresh()
}

func (b *ResponseBuilder) TriggerDashboardRefresh() *ResponseBuilder {
	return b.Trigger(EventDashboardRefresh, nil)
}

func (b *ResponseBuilder) Header(name, value string) *ResponseBuilder {
	b.headers[name] = value
	return b
}

// JSON sets the value encoded as the response body.
func (b *ResponseBuilder) JSON(v any) *ResponseBuilder {
	b.body = v
	return b
}

// Write sends the built response to the http.ResponseWriter.
func (b *ResponseBuilder) Write(w http.ResponseWriter) {
	for name, value := range b.headers {
		w.Header().Set(name, value)
	}

	if len(b.triggers) > 0 {
		triggerJSON, err := json.Marshal(b.triggers)
		if err == nil {
			w.Header().Set("HX-Trigger", string(triggerJSON))
		}
	}

	if b.body == nil {
		w.WriteHeader(b.statusCode)
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(b.statusCode)
	if err := json.NewEncoder(w).Encode(b.body); err != nil {
		slog.Error("Failed to encode response", log.FieldComponent, log.ComponentHTTP, log.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// ErrorResponse creates a standard JSON error response.
func ErrorResponse(statusCode int, message string) *ResponseBuilder {
	return NewResponse().Status(statusCode).JSON(errorBody{Error: message})
}

func BadRequestError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusBadRequest, message)
}

func NotFoundError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusNotFound, message)
}

func InternalServerError(message string) *ResponseBuilder {
	return ErrorResponse(http.StatusInternalServerError, message)
}

// UnprocessableEntityError reports which field failed validation.
func UnprocessableEntityError(field, message string) *ResponseBuilder {
	return NewResponse().
		Status(http.StatusUnprocessableEntity).
		JSON(errorBody{Error: message, Field: field})
}

// ErrorFor maps a service error to its response. Store failures are
// logged here and never echoed to the client.
func ErrorFor(r *http.Request, err error) *ResponseBuilder {
	var verr *core.ValidationError
	switch {
	case errors.As(err, &verr):
		return UnprocessableEntityError(verr.Field, verr.Error())
	case errors.Is(err, core.ErrNotFound):
		return NotFoundError("not found")
	default:
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldComponent, log.ComponentHTTP,
			log.FieldMethod, r.Method,
			log.FieldPath, r.URL.Path,
			log.FieldError, err)
		return InternalServerError("internal error")
	}
}
