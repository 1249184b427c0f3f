package ripley

import (
	"errors"
	"fmt"
)

// Sentinel errors for catalog API operations.
var (
	ErrNotFound    = errors.New("ripley: category not found")
	ErrRateLimited = errors.New("ripley: rate limited by server")
	ErrBadRequest  = errors.New("ripley: bad request")
	ErrServer      = errors.New("ripley: server error")
	ErrNoCategory  = errors.New("ripley: category is empty")
)

// Error wraps an underlying error with operation context.
type Error struct {
	Op       string // Operation: "fetchPage", "scrape"
	Category string
	Page     int // If applicable
	Err      error
}

func (e *Error) Error() string {
	if e.Page > 0 {
		return fmt.Sprintf("ripley %s [%s p%d]: %v", e.Op, e.Category, e.Page, e.Err)
	}
	return fmt.Sprintf("ripley %s [%s]: %v", e.Op, e.Category, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// wrapError creates an Error with context.
func wrapError(op, category string, page int, err error) error {
	return &Error{
		Op:       op,
		Category: category,
		Page:     page,
		Err:      err,
	}
}
