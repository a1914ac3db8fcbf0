package apierr

import (
	"errors"
	"net/http"
)

const MessageUnknownError = "unknown error"

// Error is an error that knows which HTTP status it maps to.
type Error struct {
	Status  int    `json:"-"`
	Message string `json:"message,omitempty"`
	Err     error  `json:"-"`
}

func (e *Error) Error() string {
	if len(e.Message) == 0 {
		if e.Err != nil {
			return e.Err.Error()
		}
		return MessageUnknownError
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

func (e *Error) HttpStatus() int {
	if e.Status <= 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

func New(text string) error {
	return NewStatus(http.StatusInternalServerError, text)
}

func NewStatus(status int, text string) error {
	return &Error{Status: status, Message: text}
}

func BadRequest(text string) error {
	return NewStatus(http.StatusBadRequest, text)
}

// Internal wraps err as a 500 carrying err's own message.
func Internal(err error) error {
	return &Error{Status: http.StatusInternalServerError, Err: err}
}

// Status reports the HTTP status for err; anything that is not an *Error is a 500.
func Status(err error) int {
	var e *Error
	if errors.As(err, &e) {
		return e.HttpStatus()
	}
	return http.StatusInternalServerError
}
