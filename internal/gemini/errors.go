package gemini

import (
	"errors"
	"fmt"
)

// Sentinel errors for Gemini API operations.
var (
	ErrNoAPIKey      = errors.New("gemini: api key is required")
	ErrUnauthorized  = errors.New("gemini: api key rejected")
	ErrRateLimited   = errors.New("gemini: rate limited by server")
	ErrBadRequest    = errors.New("gemini: bad request")
	ErrServer        = errors.New("gemini: server error")
	ErrEmptyResponse = errors.New("gemini: empty response from model")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op    string // Operation: "newClient", "extractBatch"
	Batch int    // 1-based batch number, if applicable
	Err   error
}

func (e *Error) Error() string {
	if e.Batch > 0 {
		return fmt.Sprintf("gemini %s [batch %d]: %v", e.Op, e.Batch, e.Err)
	}
	return fmt.Sprintf("gemini %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op string, batch int, err error) error {
	return &Error{
		Op:    op,
		Batch: batch,
		Err:   err,
	}
}
