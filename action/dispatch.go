package action

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/oklog/ulid/v2"
)

// Surface applies actions to a drawing board. Apply must be all-or-nothing: when it
// returns an error the board is unchanged.
type Surface interface {
	Apply(ctx context.Context, a Action) error
}

// Dispatcher normalizes, validates and gates actions before handing them to a Surface.
type Dispatcher struct {
	surface Surface
	gate    *Gate
	logger  *slog.Logger
	newID   func() string
}

// DispatcherOption configures a Dispatcher.
type DispatcherOption func(*Dispatcher)

// WithGate installs the approval gate.
func WithGate(g *Gate) DispatcherOption {
	return func(d *Dispatcher) { d.gate = g }
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) DispatcherOption {
	return func(d *Dispatcher) { d.logger = l }
}

// WithIDGenerator replaces the shape id generator.
func WithIDGenerator(fn func() string) DispatcherOption {
	return func(d *Dispatcher) { d.newID = fn }
}

// NewDispatcher returns a Dispatcher for s.
func NewDispatcher(s Surface, opts ...DispatcherOption) *Dispatcher {
	d := &Dispatcher{surface: s, newID: NewShapeID}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	return d
}

// NewShapeID returns a fresh "shape:" prefixed id.
func NewShapeID() string {
	return "shape:" + strings.ToLower(ulid.Make().String())
}

// Gate returns the installed gate, or nil.
func (d *Dispatcher) Gate() *Gate { return d.gate }

// Dispatch applies a and returns it as applied (coerced kinds, assigned ids).
// Validation failures wrap ErrInvalidAction and gated actions return *ApprovalError;
// in both cases nothing reaches the surface.
func (d *Dispatcher) Dispatch(ctx context.Context, a Action) (Action, error) {
	a = d.Normalize(a)
	if err := Validate(a); err != nil {
		return a, err
	}
	if err := d.gate.Check(a); err != nil {
		d.logger.InfoContext(ctx, "action awaiting approval", "kind", a.Kind(), "intent", a.Intent())
		return a, err
	}
	if err := d.surface.Apply(ctx, a); err != nil {
		return a, fmt.Errorf("apply %s: %w", a.Kind(), err)
	}
	d.logger.DebugContext(ctx, "action applied", "kind", a.Kind(), "intent", a.Intent())
	return a, nil
}

// Normalize coerces geo kinds and colors, fills defaults and assigns ids to new shapes.
// Every geo coercion is logged with its before and after values.
func (d *Dispatcher) Normalize(a Action) Action {
	switch v := a.(type) {
	case Create:
		s := &v.Shape
		if s.ID == "" {
			s.ID = d.newID()
		}
		if s.Type == "" {
			s.Type = ShapeGeo
		}
		if s.Type == ShapeGeo {
			s.Geo = d.coerceGeo(s.Geo)
		}
		s.Color = normalizeColor(s.Color)
		if s.Fill == "" && s.Type == ShapeGeo {
			s.Fill = "none"
		}
		return v
	case Update:
		if g := v.Patch.Geo; g != nil {
			coerced := d.coerceGeo(*g)
			v.Patch.Geo = &coerced
		}
		if c := v.Patch.Color; c != nil {
			norm := normalizeColor(*c)
			v.Patch.Color = &norm
		}
		return v
	case Pen:
		if v.ID == "" {
			v.ID = d.newID()
		}
		if v.Style == "" {
			v.Style = PenSmooth
		}
		v.Color = normalizeColor(v.Color)
		return v
	}
	return a
}

func (d *Dispatcher) coerceGeo(in string) string {
	geo, changed := CoerceGeo(in)
	if changed {
		d.logger.Info("geo coerced", "from", in, "to", geo)
	}
	return geo
}

// normalizeColor canonicalizes known colors and leaves unknown ones for Validate to reject.
func normalizeColor(c string) string {
	if norm, ok := CoerceColor(c); ok {
		return norm
	}
	return c
}
