package tutorkit

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Status is the outcome field of a Result envelope.
type Status string

const (
	StatusOK    Status = "ok"
	StatusError Status = "error"
)

// Result is the uniform envelope every workspace tool returns.
type Result struct {
	Status  Status `json:"status"`
	Summary string `json:"summary"`
	Data    any    `json:"data,omitempty"`
}

// OK returns a successful envelope.
func OK(summary string, data any) Result {
	return Result{Status: StatusOK, Summary: summary, Data: data}
}

// Fail returns an error envelope. Tools use it for validation failures so the agent
// receives a correctable message instead of a failed call.
func Fail(summary string) Result {
	return Result{Status: StatusError, Summary: summary}
}

// Failf is Fail with formatting.
func Failf(format string, args ...any) Result {
	return Fail(fmt.Sprintf(format, args...))
}

// IsOK reports whether the envelope carries a success status.
func (r Result) IsOK() bool { return r.Status == StatusOK }

// JSON marshals the envelope. Data that cannot be marshaled is dropped and noted in the summary.
func (r Result) JSON() []byte {
	b, err := json.Marshal(r)
	if err != nil {
		b, _ = json.Marshal(Result{Status: r.Status, Summary: r.Summary + " (data not serializable)"})
	}
	return b
}

func failureSummary(tool string, err error) string {
	var ce *ClientError
	switch {
	case errors.As(err, &ce):
		return ce.Reason
	case errors.Is(err, ErrToolNotFound):
		return "unknown tool: " + tool
	case errors.Is(err, ErrTimeout):
		return tool + " timed out"
	case errors.Is(err, ErrShutdown):
		return "tool bridge is shutting down"
	default:
		return tool + " failed: internal error"
	}
}
