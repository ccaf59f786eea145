package usecase

import "fmt"

type ErrorCode string

const (
	ErrorInvalidInput ErrorCode = "INVALID_INPUT"
	ErrorInternal     ErrorCode = "INTERNAL_ERROR"
)

// Error is a caller-visible failure. Only input validation and unexpected
// faults produce one; enhancement-path failures never do.
type Error struct {
	Code   ErrorCode
	Reason string
	Err    error
}

func (e *Error) Error() string {
	if e == nil {
		return ""
	}
	if e.Err == nil {
		return fmt.Sprintf("usecase: %s (%s)", e.Code, e.Reason)
	}
	return fmt.Sprintf("usecase: %s (%s): %v", e.Code, e.Reason, e.Err)
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func newError(code ErrorCode, reason string, err error) *Error {
	return &Error{Code: code, Reason: reason, Err: err}
}

// InvalidInput builds the validation error used by transports that reject a
// request before it reaches the service.
func InvalidInput(reason string) *Error {
	return newError(ErrorInvalidInput, reason, nil)
}

// Internal wraps an unexpected fault.
func Internal(reason string, err error) *Error {
	return newError(ErrorInternal, reason, err)
}
