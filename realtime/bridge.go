package realtime

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/skosovsky/tutorkit"
)

// TypeResponseCreated marks the start of a model response.
const TypeResponseCreated = "response.created"

// ToolOutputSender delivers tool results back to the conversation. Client implements it.
type ToolOutputSender interface {
	SendToolOutput(ctx context.Context, callID string, output []byte) error
	CreateResponse(ctx context.Context) error
}

// Bridge answers function calls from the model by executing registry tools. Each call
// runs on its own goroutine; a follow-up response is requested once no call is in
// flight and the model is not already responding.
type Bridge struct {
	registry *tutorkit.Registry
	out      ToolOutputSender
	logger   *slog.Logger
	wg       sync.WaitGroup

	mu            sync.Mutex
	inflight      int
	responding    bool
	needsResponse bool
}

// NewBridge returns a bridge. A nil logger means slog.Default().
func NewBridge(registry *tutorkit.Registry, out ToolOutputSender, logger *slog.Logger) *Bridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &Bridge{registry: registry, out: out, logger: logger}
}

// Tools returns the registry's tool definitions in session.update form.
func Tools(registry *tutorkit.Registry) []any {
	defs := registry.Definitions()
	out := make([]any, len(defs))
	for i, d := range defs {
		out[i] = d
	}
	return out
}

// Handle implements Handler.
func (b *Bridge) Handle(ctx context.Context, ev Event) {
	switch ev.Type {
	case TypeResponseCreated:
		b.mu.Lock()
		b.responding = true
		b.mu.Unlock()
	case TypeResponseDone:
		b.mu.Lock()
		b.responding = false
		fire := b.needsResponse && b.inflight == 0
		if fire {
			b.needsResponse = false
		}
		b.mu.Unlock()
		if fire {
			b.respond(ctx)
		}
	case TypeFunctionCallDone:
		var call FunctionCall
		if err := json.Unmarshal(ev.Raw, &call); err != nil || call.CallID == "" {
			b.logger.WarnContext(ctx, "malformed function call", "error", err)
			return
		}
		b.mu.Lock()
		b.inflight++
		b.mu.Unlock()
		b.wg.Go(func() { b.run(ctx, call) })
	}
}

func (b *Bridge) run(ctx context.Context, call FunctionCall) {
	args := json.RawMessage(call.Arguments)
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}
	res := b.registry.Execute(ctx, tutorkit.ToolCall{ID: call.CallID, ToolName: call.Name, Args: args})
	if err := b.out.SendToolOutput(ctx, call.CallID, res.Payload()); err != nil {
		b.logger.WarnContext(ctx, "tool output not delivered", "tool", call.Name, "call_id", call.CallID, "error", err)
	}

	b.mu.Lock()
	b.inflight--
	fire := b.inflight == 0 && !b.responding
	b.needsResponse = !fire
	b.mu.Unlock()
	if fire {
		b.respond(ctx)
	}
}

func (b *Bridge) respond(ctx context.Context) {
	if err := b.out.CreateResponse(ctx); err != nil {
		b.logger.WarnContext(ctx, "response request failed", "error", err)
	}
}

// Wait blocks until every running call has finished.
func (b *Bridge) Wait() { b.wg.Wait() }
