// Package board is an in-memory drawing board. It applies action.Action values
// atomically and answers the read-side queries of workspace.Viewer.
package board

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"slices"
	"sync"

	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/workspace"
)

// Shape is one shape on the board. Draw shapes keep their points relative to X, Y.
type Shape struct {
	ID       string
	Type     string
	Geo      string
	X, Y     float64
	W, H     float64
	Rotation float64 // degrees, [0, 360)
	Text     string
	Color    string
	Fill     string
	Points   []action.Point
	Style    action.PenStyle
	Closed   bool
}

// Bounds returns the unrotated bounding box.
func (s Shape) Bounds() workspace.Box { return workspace.Box{X: s.X, Y: s.Y, W: s.W, H: s.H} }

// Summary returns the agent-facing description.
func (s Shape) Summary() workspace.ShapeSummary {
	return workspace.ShapeSummary{
		Type: s.Type, ID: s.ID, X: s.X, Y: s.Y, W: s.W, H: s.H,
		Geo: s.Geo, Text: s.Text, Color: s.Color, Fill: s.Fill,
	}
}

type state struct {
	shapes map[string]*Shape
	order  []string // back to front
	view   workspace.Box
}

func (st *state) clone() *state {
	c := &state{
		shapes: make(map[string]*Shape, len(st.shapes)),
		order:  slices.Clone(st.order),
		view:   st.view,
	}
	for id, s := range st.shapes {
		cp := *s
		cp.Points = slices.Clone(s.Points)
		c.shapes[id] = &cp
	}
	return c
}

func (st *state) get(id string) (*Shape, error) {
	s, ok := st.shapes[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", workspace.ErrShapeNotFound, id)
	}
	return s, nil
}

func (st *state) all(ids []string) ([]*Shape, error) {
	out := make([]*Shape, 0, len(ids))
	for _, id := range ids {
		s, err := st.get(id)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Board is safe for concurrent use.
type Board struct {
	mu       sync.RWMutex
	st       *state
	selected []string
	limits   workspace.Limits
	logger   *slog.Logger
}

// Option configures a Board.
type Option func(*Board)

// WithViewport sets the initial viewport.
func WithViewport(b workspace.Box) Option {
	return func(bd *Board) { bd.st.view = b }
}

// WithLimits bounds the lists returned by ViewContext.
func WithLimits(l workspace.Limits) Option {
	return func(bd *Board) { bd.limits = l }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(bd *Board) { bd.logger = l }
}

// New returns an empty board with a 1280x720 viewport at the origin.
func New(opts ...Option) *Board {
	b := &Board{
		st: &state{
			shapes: make(map[string]*Shape),
			view:   workspace.Box{W: 1280, H: 720},
		},
		limits: workspace.DefaultLimits,
	}
	for _, opt := range opts {
		opt(b)
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	return b
}

// Apply implements action.Surface. The mutation runs on a copy of the board that
// replaces the live state only when every step succeeds.
func (b *Board) Apply(ctx context.Context, a action.Action) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	next := b.st.clone()
	if err := apply(next, a); err != nil {
		return err
	}
	b.st = next
	b.selected = slices.DeleteFunc(b.selected, func(id string) bool { return next.shapes[id] == nil })
	b.logger.DebugContext(ctx, "board updated", "kind", a.Kind(), "shapes", len(next.shapes))
	return nil
}

// Shape returns a copy of the shape with the given id.
func (b *Board) Shape(id string) (Shape, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, ok := b.st.shapes[id]
	if !ok {
		return Shape{}, false
	}
	cp := *s
	cp.Points = slices.Clone(s.Points)
	return cp, true
}

// Shapes returns copies of all shapes, back to front.
func (b *Board) Shapes() []Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]Shape, 0, len(b.st.order))
	for _, id := range b.st.order {
		cp := *b.st.shapes[id]
		cp.Points = slices.Clone(cp.Points)
		out = append(out, cp)
	}
	return out
}

// Order returns shape ids back to front.
func (b *Board) Order() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return slices.Clone(b.st.order)
}

// Viewport returns the current viewport.
func (b *Board) Viewport() workspace.Box {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.st.view
}

// Select replaces the selection. Unknown ids are rejected.
func (b *Board) Select(ids ...string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, id := range ids {
		if _, err := b.st.get(id); err != nil {
			return err
		}
	}
	b.selected = slices.Clone(ids)
	return nil
}

// Snapshot returns a deep copy of every shape keyed by id.
func (b *Board) Snapshot() map[string]Shape {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]Shape, len(b.st.shapes))
	for id, s := range maps.All(b.st.shapes) {
		cp := *s
		cp.Points = slices.Clone(s.Points)
		out[id] = cp
	}
	return out
}

var (
	_ action.Surface   = (*Board)(nil)
	_ workspace.Viewer = (*Board)(nil)
)
