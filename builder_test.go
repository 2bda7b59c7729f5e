package tutorkit

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type moveArgs struct {
	ID string  `json:"id" jsonschema:"Shape id"`
	X  float64 `json:"x"`
	Y  float64 `json:"y"`
}

func TestNewTool_SchemaAndMetadata(t *testing.T) {
	tool, err := NewTool("move", "Move a shape", func(_ context.Context, a moveArgs) (Result, error) {
		return OK("moved "+a.ID, nil), nil
	}, WithTags("board"), WithTimeout(time.Second))
	require.NoError(t, err)
	assert.Equal(t, "move", tool.Name())
	assert.Equal(t, "Move a shape", tool.Description())

	params := tool.Parameters()
	assert.Equal(t, "object", params["type"])
	props := params["properties"].(map[string]any)
	assert.Contains(t, props, "id")
	assert.Contains(t, props, "x")

	meta, ok := tool.(ToolMetadata)
	require.True(t, ok)
	assert.Equal(t, time.Second, meta.Timeout())
	assert.Equal(t, []string{"board"}, meta.Tags())
	assert.False(t, meta.ReadOnly())
}

func TestNewTool_Execute(t *testing.T) {
	tool, err := NewTool("move", "Move a shape", func(_ context.Context, a moveArgs) (Result, error) {
		return OK("moved", map[string]float64{"x": a.X, "y": a.Y}), nil
	})
	require.NoError(t, err)
	out, err := tool.Execute(context.Background(), []byte(`{"id":"s1","x":10,"y":20.5}`))
	require.NoError(t, err)
	var res Result
	require.NoError(t, json.Unmarshal(out, &res))
	assert.Equal(t, StatusOK, res.Status)
	assert.Equal(t, map[string]any{"x": 10.0, "y": 20.5}, res.Data)
}

func TestNewTool_Execute_InvalidJSON(t *testing.T) {
	tool := MustTool("move", "", func(_ context.Context, _ moveArgs) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	})
	_, err := tool.Execute(context.Background(), []byte(`{not json`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
	assert.ErrorIs(t, err, ErrValidation)
}

func TestNewTool_Execute_SchemaViolation(t *testing.T) {
	tool := MustTool("move", "", func(_ context.Context, _ moveArgs) (Result, error) {
		t.Fatal("handler must not run")
		return Result{}, nil
	})
	_, err := tool.Execute(context.Background(), []byte(`{"id":"s1","x":"left","y":0}`))
	require.Error(t, err)
	assert.True(t, IsClientError(err))
}

func TestNewTool_HandlerErrors(t *testing.T) {
	collaborator := errors.New("surface rejected mutation")
	tool := MustTool("move", "", func(_ context.Context, a moveArgs) (Result, error) {
		if a.ID == "bad" {
			return Result{}, Invalid("unknown shape %s", a.ID)
		}
		return Result{}, collaborator
	})

	_, err := tool.Execute(context.Background(), []byte(`{"id":"bad","x":0,"y":0}`))
	assert.True(t, IsClientError(err))

	_, err = tool.Execute(context.Background(), []byte(`{"id":"s1","x":0,"y":0}`))
	assert.True(t, IsSystemError(err))
	assert.ErrorIs(t, err, collaborator)
}

func TestTool_Parameters_ReturnsCopy(t *testing.T) {
	tool := MustTool("move", "", func(_ context.Context, _ moveArgs) (Result, error) {
		return Result{}, nil
	})
	p := tool.Parameters()
	p["injected"] = true
	assert.NotContains(t, tool.Parameters(), "injected")
}

func BenchmarkExecute(b *testing.B) {
	tool := MustTool("move", "", func(_ context.Context, a moveArgs) (Result, error) {
		return OK("moved "+a.ID, nil), nil
	})
	args := []byte(`{"id":"s1","x":1,"y":2}`)
	ctx := context.Background()
	for b.Loop() {
		_, _ = tool.Execute(ctx, args)
	}
}
