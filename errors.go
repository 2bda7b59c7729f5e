package tutorkit

import (
	"errors"
	"fmt"
)

// Sentinel errors for the tool bridge. Use errors.Is to check.
var (
	ErrToolNotFound = errors.New("tool not found")
	ErrTimeout      = errors.New("tool execution timeout")
	ErrValidation   = errors.New("validation failed")
	ErrShutdown     = errors.New("registry is shutting down")
)

// ClientError is returned to the agent so it can correct the call (bad JSON, schema
// violation, unknown enum value). It never carries internal details.
type ClientError struct {
	Reason string
	// Retryable is set by tool implementations when the same arguments may succeed later.
	Retryable bool
	Err       error
}

func (e *ClientError) Error() string {
	return fmt.Sprintf("invalid tool input: %s", e.Reason)
}

func (e *ClientError) Unwrap() error { return e.Err }

// Invalid builds a ClientError wrapping ErrValidation.
func Invalid(format string, args ...any) error {
	return &ClientError{Reason: fmt.Sprintf(format, args...), Err: ErrValidation}
}

// SystemError is an internal failure of a collaborator (surface, sandbox, channel).
// The agent sees only that the call failed.
type SystemError struct {
	Err error
}

func (e *SystemError) Error() string {
	return "internal system error during tool execution"
}

func (e *SystemError) Unwrap() error { return e.Err }

// IsClientError reports whether err is or wraps a ClientError.
func IsClientError(err error) bool {
	var ce *ClientError
	return errors.As(err, &ce)
}

// IsSystemError reports whether err is or wraps a SystemError.
func IsSystemError(err error) bool {
	var se *SystemError
	return errors.As(err, &se)
}

func wrapJSONParseError(err error) error {
	return &ClientError{Reason: "json parse error: " + err.Error(), Err: ErrValidation}
}

// wrapHandlerError passes ClientError through and hides everything else behind SystemError.
func wrapHandlerError(err error) error {
	if err == nil || IsClientError(err) {
		return err
	}
	return &SystemError{Err: err}
}

// panicError carries a recovered panic value inside a SystemError.
type panicError struct{ p any }

func (e *panicError) Error() string {
	return "panic: " + fmt.Sprint(e.p)
}
