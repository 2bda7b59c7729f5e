package tutorkit

import (
	"context"
	"encoding/json"
	"maps"
	"time"
)

type tool struct {
	name        string
	description string
	schema      map[string]any
	execute     func(context.Context, []byte) ([]byte, error)
	opts        toolOptions
}

// NewTool builds a Tool from a typed handler. The argument schema is derived from T;
// Execute parses and validates the JSON, calls fn and marshals its result.
// Handler errors other than ClientError are wrapped as SystemError.
func NewTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) (Tool, error) {
	var o toolOptions
	for _, opt := range opts {
		opt(&o)
	}
	ext, err := NewExtractor[T](o.strict)
	if err != nil {
		return nil, err
	}
	return &tool{
		name:        name,
		description: description,
		schema:      ext.Schema(),
		opts:        o,
		execute: func(ctx context.Context, raw []byte) ([]byte, error) {
			args, err := ext.ParseAndValidate(raw)
			if err != nil {
				return nil, err
			}
			res, err := fn(ctx, args)
			if err != nil {
				return nil, wrapHandlerError(err)
			}
			b, err := json.Marshal(res)
			if err != nil {
				return nil, &SystemError{Err: err}
			}
			return b, nil
		},
	}, nil
}

// MustTool is NewTool for statically known argument types; it panics on schema errors.
func MustTool[T any, R any](
	name, description string,
	fn func(ctx context.Context, args T) (R, error),
	opts ...ToolOption,
) Tool {
	t, err := NewTool(name, description, fn, opts...)
	if err != nil {
		panic("tutorkit: " + name + ": " + err.Error())
	}
	return t
}

func (t *tool) Name() string        { return t.name }
func (t *tool) Description() string { return t.description }

// Parameters returns a shallow copy of the schema; nested maps are shared.
func (t *tool) Parameters() map[string]any { return maps.Clone(t.schema) }

func (t *tool) Execute(ctx context.Context, args []byte) ([]byte, error) {
	return t.execute(ctx, args)
}

func (t *tool) Timeout() time.Duration { return t.opts.timeout }
func (t *tool) Tags() []string         { return append([]string(nil), t.opts.tags...) }
func (t *tool) ReadOnly() bool         { return t.opts.readOnly }

var (
	_ Tool         = (*tool)(nil)
	_ ToolMetadata = (*tool)(nil)
)
