package action

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

var (
	// ErrInvalidAction marks actions rejected before dispatch.
	ErrInvalidAction = errors.New("invalid action")
	// ErrUnsupported is returned by surfaces for variants they cannot apply.
	ErrUnsupported = errors.New("unsupported action")
)

// ValidationError lists every problem found in one action.
type ValidationError struct {
	Kind   Kind
	Issues []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Kind, strings.Join(e.Issues, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrInvalidAction }

type checker struct {
	issues []string
}

func (c *checker) addf(format string, args ...any) {
	c.issues = append(c.issues, fmt.Sprintf(format, args...))
}

func (c *checker) finite(name string, v float64) {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		c.addf("%s must be a finite number", name)
	}
}

func (c *checker) finitePtr(name string, v *float64) {
	if v != nil {
		c.finite(name, *v)
	}
}

func (c *checker) positive(name string, v float64) {
	c.finite(name, v)
	if v <= 0 {
		c.addf("%s must be greater than 0", name)
	}
}

func (c *checker) id(name, v string) {
	if strings.TrimSpace(v) == "" {
		c.addf("%s is required", name)
	}
}

func (c *checker) ids(v []string, minimum int) {
	if len(v) < minimum {
		c.addf("shapeIds needs at least %d shape(s), got %d", minimum, len(v))
	}
	seen := make(map[string]bool, len(v))
	for _, id := range v {
		if strings.TrimSpace(id) == "" {
			c.addf("shapeIds contains an empty id")
		} else if seen[id] {
			c.addf("shapeIds contains %s twice", id)
		}
		seen[id] = true
	}
}

func (c *checker) origin(p *Point) {
	if p != nil {
		c.finite("origin.x", p.X)
		c.finite("origin.y", p.Y)
	}
}

func (c *checker) color(v string) {
	if v == "" {
		return
	}
	if _, ok := CoerceColor(v); !ok {
		c.addf("color %q is not a known color", v)
	}
}

func (c *checker) fill(v string) {
	if v != "" && !ValidFill(v) {
		c.addf("fill must be one of none, tint, background, solid, pattern; got %q", v)
	}
}

// Validate checks a for non-finite numbers, missing ids and unknown enum values. It
// returns a *ValidationError wrapping ErrInvalidAction.
func Validate(a Action) error {
	c := &checker{}
	switch v := a.(type) {
	case Create:
		s := v.Shape
		c.finite("x", s.X)
		c.finite("y", s.Y)
		c.positive("w", s.W)
		c.positive("h", s.H)
		switch s.Type {
		case ShapeGeo, ShapeText:
		default:
			c.addf("shape type must be geo or text, got %q", s.Type)
		}
		c.color(s.Color)
		c.fill(s.Fill)
	case Delete:
		c.id("shapeId", v.ID)
	case Move:
		c.id("shapeId", v.ID)
		c.finite("x", v.X)
		c.finite("y", v.Y)
	case Update:
		c.id("shapeId", v.ID)
		p := v.Patch
		if p.Empty() {
			c.addf("update changes nothing")
		}
		c.finitePtr("x", p.X)
		c.finitePtr("y", p.Y)
		if p.W != nil {
			c.positive("w", *p.W)
		}
		if p.H != nil {
			c.positive("h", *p.H)
		}
		if p.Color != nil {
			c.color(*p.Color)
		}
		if p.Fill != nil {
			c.fill(*p.Fill)
		}
	case Align:
		c.ids(v.IDs, 2)
		if !v.Alignment.Valid() {
			c.addf("alignment %q is not supported", v.Alignment)
		}
	case Distribute:
		c.ids(v.IDs, 3)
		if !v.Direction.Valid() {
			c.addf("direction must be horizontal or vertical, got %q", v.Direction)
		}
		c.finite("gap", v.Gap)
	case Stack:
		c.ids(v.IDs, 2)
		if !v.Direction.Valid() {
			c.addf("direction must be horizontal or vertical, got %q", v.Direction)
		}
		c.finite("gap", v.Gap)
	case Rotate:
		c.ids(v.IDs, 1)
		c.finite("degrees", v.Degrees)
		c.origin(v.Origin)
	case Resize:
		c.ids(v.IDs, 1)
		c.positive("scaleX", v.ScaleX)
		c.positive("scaleY", v.ScaleY)
		c.origin(v.Origin)
	case BringToFront:
		c.ids(v.IDs, 1)
	case SendToBack:
		c.ids(v.IDs, 1)
	case Place:
		c.id("shapeId", v.ID)
		c.id("referenceShapeId", v.ReferenceID)
		if v.ID != "" && v.ID == v.ReferenceID {
			c.addf("a shape cannot be placed relative to itself")
		}
		if !v.Side.Valid() {
			c.addf("side %q is not supported", v.Side)
		}
		if !v.Align.Valid() {
			c.addf("align must be start, center or end, got %q", v.Align)
		}
		c.finite("sideOffset", v.SideOffset)
		c.finite("alignOffset", v.AlignOffset)
	case Pen:
		if len(v.Points) < 2 {
			c.addf("pen needs at least 2 points, got %d", len(v.Points))
		}
		for i, p := range v.Points {
			c.finite(fmt.Sprintf("points[%d].x", i), p.X)
			c.finite(fmt.Sprintf("points[%d].y", i), p.Y)
		}
		if !v.Style.Valid() {
			c.addf("style must be smooth or straight, got %q", v.Style)
		}
		c.color(v.Color)
		c.fill(v.Fill)
	case Clear:
	case SetView:
		c.finite("x", v.Bounds.X)
		c.finite("y", v.Bounds.Y)
		c.positive("w", v.Bounds.W)
		c.positive("h", v.Bounds.H)
	case nil:
		return &ValidationError{Issues: []string{"action is nil"}}
	default:
		return fmt.Errorf("%w: %T", ErrUnsupported, a)
	}
	if len(c.issues) > 0 {
		return &ValidationError{Kind: a.Kind(), Issues: c.issues}
	}
	return nil
}
