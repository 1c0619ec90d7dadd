// Package response writes the uniform JSON envelope of every API response.
//
// Success:
//
//	{"status":"success","message":"...","data":...,"meta":...}
//
// Error:
//
//	{"status":"error","message":"...","errors":...}
package response

import (
	"net/http"

	"github.com/goccy/go-json"
)

// Envelope statuses
const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope is the body of every response. Data and Meta are only set on success,
// Errors only on failure.
type Envelope struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Data    any    `json:"data,omitempty"`
	Meta    any    `json:"meta,omitempty"`
	Errors  any    `json:"errors,omitempty"`
}

// Meta is the pagination information of a list response
type Meta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
	Pages int64 `json:"pages"`
}

// Success writes a success envelope. data and meta are omitted when nil.
func Success(w http.ResponseWriter, status int, message string, data any, meta any) {
	write(w, status, Envelope{Status: StatusSuccess, Message: message, Data: data, Meta: meta})
}

// Error writes an error envelope. errors is omitted when nil.
func Error(w http.ResponseWriter, status int, message string, errors any) {
	write(w, status, Envelope{Status: StatusError, Message: message, Errors: errors})
}

// NotFound writes a 404 error envelope
func NotFound(w http.ResponseWriter, message string) {
	Error(w, http.StatusNotFound, message, nil)
}

// BadRequest writes a 400 error envelope
func BadRequest(w http.ResponseWriter, message string, errors any) {
	Error(w, http.StatusBadRequest, message, errors)
}

func write(w http.ResponseWriter, status int, envelope Envelope) {
	body, err := json.Marshal(envelope)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(Envelope{Status: StatusError, Message: "Internal Server Error"})
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	w.Write(body)
}
