package tutorkit

import (
	"context"
	"encoding/json"
	"time"
)

// Tool is one named operation the agent can invoke. Arguments arrive as JSON and are
// validated against Parameters before the implementation runs.
type Tool interface {
	Name() string
	Description() string
	// Parameters returns the JSON Schema of the arguments object.
	Parameters() map[string]any
	Execute(ctx context.Context, args []byte) ([]byte, error)
}

// ToolMetadata is implemented by tools built with NewTool. The registry reads Timeout;
// ReadOnly and Tags are exported to the agent-facing tool definitions.
type ToolMetadata interface {
	Timeout() time.Duration
	Tags() []string
	ReadOnly() bool
}

// ToolCall is one invocation requested by the agent.
type ToolCall struct {
	ID       string
	ToolName string
	Args     json.RawMessage
}

// ToolResult is the outcome of a ToolCall. Exactly one of Result and Error is meaningful.
type ToolResult struct {
	CallID   string
	ToolName string
	Result   []byte
	Error    error
}

// Payload renders the result as the envelope returned to the agent. Client errors keep
// their reason so the agent can correct its arguments; internal failures are reported
// without details.
func (r ToolResult) Payload() []byte {
	if r.Error == nil {
		return r.Result
	}
	return Fail(failureSummary(r.ToolName, r.Error)).JSON()
}
