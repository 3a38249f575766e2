package dverror

import "net/http"

type (
	// A DVError represents the error format rendered by the DevVault server.
	DVError struct {
		HTTPCode   int `json:"-"`
		FieldError err `json:"error"`
	}

	err struct {
		Tag     string `json:"tag,omitempty"`
		Message string `json:"message"`
	}
)

// StatusCode returns the HTTP status code.
func StatusCode(err error) int {
	if dverr, ok := err.(*DVError); ok {
		return dverr.HTTPCode
	}
	return http.StatusInternalServerError
}

// New returns a new DVError with the given message.
func New(message string) *DVError {
	return &DVError{FieldError: err{Message: message}}
}

// NewWithTagCode returns a new DVError with the given code, tag and message.
func NewWithTagCode(code int, tag, message string) *DVError {
	return &DVError{HTTPCode: code, FieldError: err{Tag: tag, Message: message}}
}

// Error implements error interface.
func (e *DVError) Error() string {
	return e.FieldError.Message
}
