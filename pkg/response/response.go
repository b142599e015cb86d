package response

import (
	"encoding/json"
	"net/http"

	"github.com/bytekstore/bytek/pkg/orm"
)

type envelope struct {
	Status  int         `json:"status"`
	Message string      `json:"message,omitempty"`
	Data    interface{} `json:"data,omitempty"`
	Errors  interface{} `json:"errors,omitempty"`
}

func write(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body) //nolint:errcheck
}

// Success sends a 200 JSON response with data.
func Success(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: data})
}

// Created sends a 201 JSON response with data.
func Created(w http.ResponseWriter, data interface{}) {
	write(w, http.StatusCreated, envelope{Status: http.StatusCreated, Data: data})
}

// Message sends a 200 with only a message, e.g. after a delete.
func Message(w http.ResponseWriter, message string) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Message: message})
}

// Error sends a JSON error response.
func Error(w http.ResponseWriter, status int, message string) {
	write(w, status, envelope{Status: status, Message: message})
}

// ValidationError sends a 422 with a field-level error map.
func ValidationError(w http.ResponseWriter, errs map[string]string) {
	ValidationErrorWithMessage(w, "Validation failed", errs)
}

// ValidationErrorWithMessage sends a 422 with a custom headline.
func ValidationErrorWithMessage(w http.ResponseWriter, message string, errs map[string]string) {
	write(w, http.StatusUnprocessableEntity, envelope{
		Status:  http.StatusUnprocessableEntity,
		Message: message,
		Errors:  errs,
	})
}

// Paginated sends a 200 response with items and page metadata.
func Paginated(w http.ResponseWriter, items interface{}, page orm.Page) {
	write(w, http.StatusOK, envelope{Status: http.StatusOK, Data: map[string]interface{}{
		"items":      items,
		"pagination": page,
	}})
}

// BadRequest sends a 400.
func BadRequest(w http.ResponseWriter, message string) {
	Error(w, http.StatusBadRequest, message)
}

// Unauthorized sends a 401.
func Unauthorized(w http.ResponseWriter) {
	Error(w, http.StatusUnauthorized, "Unauthorized")
}

// Forbidden sends a 403.
func Forbidden(w http.ResponseWriter) {
	Error(w, http.StatusForbidden, "Forbidden")
}

// NotFound sends a 404 with message, or a generic one when empty.
func NotFound(w http.ResponseWriter, message ...string) {
	msg := "Not found"
	if len(message) > 0 && message[0] != "" {
		msg = message[0]
	}
	Error(w, http.StatusNotFound, msg)
}

// Conflict sends a 409.
func Conflict(w http.ResponseWriter, message string) {
	Error(w, http.StatusConflict, message)
}

// ServerError sends a 500 without leaking details.
func ServerError(w http.ResponseWriter) {
	Error(w, http.StatusInternalServerError, "Something went wrong. Please try again.")
}
