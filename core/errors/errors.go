// Package errors holds the error taxonomy of the resource engine.
//
// Storage and validation failures are typed (ValidationError, CastError,
// DuplicateKeyError, StatusError) so the error normalizer can recognise them with
// errors.As. Everything else is classified by the sentinels below, attached with
// the builder's Mark.
package errors

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/cockroachdb/errors"
)

// Common error classes used across the engine
var (
	ErrBadRequest = errors.New("bad request")
	ErrNotFound   = errors.New("resource not found")
	ErrConflict   = errors.New("conflict")
	ErrInternal   = errors.New("internal error")

	// maps errors to http status codes
	statusCodeMap = map[error]int{
		ErrBadRequest: http.StatusBadRequest,
		ErrNotFound:   http.StatusNotFound,
		ErrConflict:   http.StatusConflict,
		ErrInternal:   http.StatusInternalServerError,
	}
)

// HTTPStatusFromErr returns the status code of the first sentinel the error is marked
// with. Unmarked errors are internal errors.
func HTTPStatusFromErr(err error) int {
	for e, status := range statusCodeMap {
		if errors.Is(err, e) {
			return status
		}
	}
	return http.StatusInternalServerError
}

// IsNotFound reports whether err is marked as not found
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsBadRequest reports whether err is marked as bad request
func IsBadRequest(err error) bool {
	return errors.Is(err, ErrBadRequest)
}

// IsConflict reports whether err is marked as conflict
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}

// FieldError is a single failed rule of a document field. Field is a dotted path.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError collects every failed field of a document
type ValidationError struct {
	Errors []FieldError
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Messages(), "; ")
}

// Messages returns the field messages in order
func (e *ValidationError) Messages() []string {
	messages := make([]string, len(e.Errors))
	for i, fe := range e.Errors {
		messages[i] = fe.Message
	}
	return messages
}

// Add appends a field error
func (e *ValidationError) Add(field, message string) {
	e.Errors = append(e.Errors, FieldError{Field: field, Message: message})
}

// OrNil returns nil if no field error has been added
func (e *ValidationError) OrNil() error {
	if e == nil || len(e.Errors) == 0 {
		return nil
	}
	return e
}

// Is makes validation errors bad requests
func (e *ValidationError) Is(target error) bool {
	return target == ErrBadRequest
}

// CastError signals a value which cannot be converted to the type of its field,
// typically a malformed identifier.
type CastError struct {
	Field string
	Value string
	Err   error
}

func (e *CastError) Error() string {
	return fmt.Sprintf("Invalid %s: %s", e.Field, e.Value)
}

func (e *CastError) Unwrap() error {
	return e.Err
}

// Is makes cast errors bad requests
func (e *CastError) Is(target error) bool {
	return target == ErrBadRequest
}

// DuplicateKeyError signals a violated unique constraint
type DuplicateKeyError struct {
	Field string
	Value any
	Err   error
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("duplicate value for %s: %v", e.Field, e.Value)
}

func (e *DuplicateKeyError) Unwrap() error {
	return e.Err
}

// Is makes duplicate key errors conflicts
func (e *DuplicateKeyError) Is(target error) bool {
	return target == ErrConflict
}

// StatusError is an error with an explicit http status
type StatusError struct {
	Status  int
	Message string
	Errors  any
}

// NewStatusError returns a new status error
func NewStatusError(status int, message string) *StatusError {
	return &StatusError{Status: status, Message: message}
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%d %s", e.Status, e.Message)
}
