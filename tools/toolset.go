// Package tools exposes the drawing board, the code editor and the lesson document to
// the agent as tutorkit tools. Every handler returns a tutorkit.Result envelope:
// argument and action problems become error envelopes the agent can correct, while
// collaborator failures are returned as errors and surface as failed calls.
package tools

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/skosovsky/tutorkit"
	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/code"
	"github.com/skosovsky/tutorkit/lesson"
	"github.com/skosovsky/tutorkit/workspace"
)

// Dispatcher applies board actions. *action.Dispatcher and *action.Queue implement it.
type Dispatcher interface {
	Dispatch(ctx context.Context, a action.Action) (action.Action, error)
}

// Conversation receives images shared by send_view_image.
type Conversation interface {
	SendContext(ctx context.Context, text, imageURL string) error
	CreateResponse(ctx context.Context) error
}

// Deps are the collaborators behind the tools. A tool group is only built when its
// collaborators are set: board tools need Actions and Viewer, code tools need Editor,
// run_active needs Sandbox, document tools need Notes and send_view_image needs
// Conversation.
type Deps struct {
	Actions      Dispatcher
	Viewer       workspace.Viewer
	Editor       *code.Editor
	Sandbox      code.Sandbox
	Notes        *lesson.Store
	Conversation func() Conversation
}

// Toolset builds the workspace tools.
type Toolset struct {
	deps     Deps
	observer *tutorkit.Observer
	logger   *slog.Logger
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithObserver wraps every tool with o. Defaults to a fresh Observer per Toolset.
func WithObserver(o *tutorkit.Observer) Option {
	return func(ts *Toolset) { ts.observer = o }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(ts *Toolset) { ts.logger = l }
}

// New returns a Toolset over d.
func New(d Deps, opts ...Option) *Toolset {
	ts := &Toolset{deps: d}
	for _, opt := range opts {
		opt(ts)
	}
	if ts.logger == nil {
		ts.logger = slog.Default()
	}
	if ts.observer == nil {
		ts.observer = tutorkit.NewObserver(tutorkit.WithObserverLogger(ts.logger))
	}
	return ts
}

// Observer returns the telemetry context shared by the tools.
func (ts *Toolset) Observer() *tutorkit.Observer { return ts.observer }

// Tools builds every tool whose collaborators are configured.
func (ts *Toolset) Tools() ([]tutorkit.Tool, error) {
	b := &builder{obs: ts.observer}
	if ts.deps.Actions != nil && ts.deps.Viewer != nil {
		ts.boardTools(b)
	}
	if ts.deps.Viewer != nil && ts.deps.Conversation != nil {
		add(b, "send_view_image", "Share a screenshot of the current viewport with the conversation.",
			ts.sendViewImage)
	}
	if ts.deps.Editor != nil {
		ts.codeTools(b)
	}
	if ts.deps.Notes != nil {
		ts.documentTools(b)
	}
	if b.err != nil {
		return nil, b.err
	}
	return b.tools, nil
}

// Register builds the tools and adds them to r.
func (ts *Toolset) Register(r *tutorkit.Registry) error {
	tools, err := ts.Tools()
	if err != nil {
		return err
	}
	r.Register(tools...)
	return nil
}

type builder struct {
	obs   *tutorkit.Observer
	tools []tutorkit.Tool
	err   error
}

func add[T any](b *builder, name, description string, fn func(context.Context, T) (tutorkit.Result, error), opts ...tutorkit.ToolOption) {
	if b.err != nil {
		return
	}
	t, err := tutorkit.NewTool(name, description, tutorkit.Observe(b.obs, name, fn), opts...)
	if err != nil {
		b.err = fmt.Errorf("build tool %s: %w", name, err)
		return
	}
	b.tools = append(b.tools, t)
}

// noArgs is the argument type of tools that take nothing.
type noArgs struct{}

// dispatch applies a and renders the applied action with ok.
func (ts *Toolset) dispatch(ctx context.Context, a action.Action, ok func(action.Action) tutorkit.Result) (tutorkit.Result, error) {
	applied, err := ts.deps.Actions.Dispatch(ctx, a)
	if err != nil {
		return rejected(err)
	}
	return ok(applied), nil
}

// rejected turns correctable dispatch failures into error envelopes. Anything else is
// a collaborator failure and is returned as is.
func rejected(err error) (tutorkit.Result, error) {
	var approval *action.ApprovalError
	switch {
	case errors.As(err, &approval):
		return tutorkit.Result{
			Status:  tutorkit.StatusError,
			Summary: "approval_required: " + approval.Summary,
			Data:    approval.Approval,
		}, nil
	case errors.Is(err, action.ErrInvalidAction),
		errors.Is(err, workspace.ErrShapeNotFound),
		errors.Is(err, action.ErrUnsupported):
		return tutorkit.Fail(err.Error()), nil
	}
	return tutorkit.Result{}, err
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func point(x, y float64) string {
	return "(" + num(x) + "," + num(y) + ")"
}

func or[T comparable](v, def T) T {
	var zero T
	if v == zero {
		return def
	}
	return v
}
