package errs

import (
	"net/http"
)

const (
	// PersistenceErrorCode is the machine-readable code for store failures.
	PersistenceErrorCode = "PERSISTENCE_ERROR"

	// MaxPersistenceDetail bounds how much of a store error reaches the client.
	MaxPersistenceDetail = 200
)

// NewBadRequestError creates a 400 Bad Request HTTPError.
//
// This supports extra payload:
//   - code: optional custom code string (if nil, defaults to "BAD_REQUEST")
//   - errors: optional slice of field errors (validation errors)
//   - action: optional client instruction
func NewBadRequestError(message string, override bool, code *string, errors []FieldError, action *Action) *HTTPError {
	// http.StatusText(400) => "Bad Request" => "BAD_REQUEST"
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusBadRequest))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusBadRequest,
		Override: override,
		Errors:   errors,
		Action:   action,
	}
}

// NewNotFoundError creates a 404 Not Found HTTPError.
func NewNotFoundError(message string, override bool, code *string) *HTTPError {
	formattedCode := MakeUpperCaseWithUnderscores(http.StatusText(http.StatusNotFound))

	if code != nil {
		formattedCode = *code
	}

	return &HTTPError{
		Code:     formattedCode,
		Message:  message,
		Status:   http.StatusNotFound,
		Override: override,
	}
}

// NewInternalServerError creates a 500 Internal Server Error HTTPError.
//
// The message is the generic status text, not the real internal error.
func NewInternalServerError() *HTTPError {
	return &HTTPError{
		Code:     MakeUpperCaseWithUnderscores(http.StatusText(http.StatusInternalServerError)),
		Message:  http.StatusText(http.StatusInternalServerError),
		Status:   http.StatusInternalServerError,
		Override: false,
	}
}

// NewPersistenceError creates the 500 returned when a document store call fails.
//
// Unlike NewInternalServerError, the underlying store message is surfaced to
// the caller, truncated to MaxPersistenceDetail characters. The original
// error stays reachable through errors.Unwrap for logging.
func NewPersistenceError(err error) *HTTPError {
	message := http.StatusText(http.StatusInternalServerError)
	if err != nil && err.Error() != "" {
		message = Truncate(err.Error(), MaxPersistenceDetail)
	}

	return &HTTPError{
		Code:     PersistenceErrorCode,
		Message:  message,
		Status:   http.StatusInternalServerError,
		Override: false,
		cause:    err,
	}
}

// NewValidationError creates the 400 returned when a payload or query fails
// validation. fieldErrors enumerates every failing field.
func NewValidationError(fieldErrors []FieldError) *HTTPError {
	return NewBadRequestError("Validation failed", true, nil, fieldErrors, nil)
}
