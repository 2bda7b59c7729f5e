// Package testutil provides fakes for testing code built on tutorkit.
package testutil

import (
	"context"

	"github.com/skosovsky/tutorkit"
)

// MockTool is a configurable Tool.
type MockTool struct {
	NameVal   string
	DescVal   string
	ParamsVal map[string]any
	ExecuteFn func(ctx context.Context, args []byte) ([]byte, error)
}

// Name returns NameVal, or "mock".
func (m *MockTool) Name() string {
	if m.NameVal != "" {
		return m.NameVal
	}
	return "mock"
}

func (m *MockTool) Description() string { return m.DescVal }

// Parameters returns ParamsVal, or an empty object schema.
func (m *MockTool) Parameters() map[string]any {
	if m.ParamsVal != nil {
		return m.ParamsVal
	}
	return map[string]any{"type": "object"}
}

// Execute runs ExecuteFn, or returns an ok envelope.
func (m *MockTool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	if m.ExecuteFn != nil {
		return m.ExecuteFn(ctx, args)
	}
	return tutorkit.OK("ok", nil).JSON(), nil
}

var _ tutorkit.Tool = (*MockTool)(nil)
