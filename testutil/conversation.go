package testutil

import (
	"context"
	"sync"
)

// ContextMessage is one SendContext call.
type ContextMessage struct {
	Text     string
	ImageURL string
}

// ToolOutput is one SendToolOutput call.
type ToolOutput struct {
	CallID string
	Output []byte
}

// Conversation records what a realtime session would send. Err, when set, is returned
// by every method. Safe for concurrent use.
type Conversation struct {
	SessionID string
	Err       error

	mu        sync.Mutex
	contexts  []ContextMessage
	outputs   []ToolOutput
	responses int
}

// ID returns SessionID.
func (c *Conversation) ID() string { return c.SessionID }

func (c *Conversation) SendContext(_ context.Context, text, imageURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.contexts = append(c.contexts, ContextMessage{Text: text, ImageURL: imageURL})
	return nil
}

func (c *Conversation) SendToolOutput(_ context.Context, callID string, output []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.outputs = append(c.outputs, ToolOutput{CallID: callID, Output: output})
	return nil
}

func (c *Conversation) CreateResponse(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.Err != nil {
		return c.Err
	}
	c.responses++
	return nil
}

// Contexts returns the recorded SendContext calls.
func (c *Conversation) Contexts() []ContextMessage {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ContextMessage(nil), c.contexts...)
}

// Outputs returns the recorded tool outputs.
func (c *Conversation) Outputs() []ToolOutput {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]ToolOutput(nil), c.outputs...)
}

// Responses counts CreateResponse calls.
func (c *Conversation) Responses() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.responses
}
