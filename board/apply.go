package board

import (
	"errors"
	"fmt"
	"math"
	"slices"

	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/workspace"
)

var (
	// ErrDuplicateShape is returned when a created shape id is already taken.
	ErrDuplicateShape = errors.New("shape id already exists")
	// ErrTextUnsupported is returned when a text change targets a shape without a text body.
	ErrTextUnsupported = fmt.Errorf("%w: shape does not support text", action.ErrUnsupported)
)

func apply(st *state, a action.Action) error {
	switch v := a.(type) {
	case action.Create:
		return create(st, v.Shape)
	case action.Delete:
		if _, err := st.get(v.ID); err != nil {
			return err
		}
		remove(st, v.ID)
		return nil
	case action.Move:
		s, err := st.get(v.ID)
		if err != nil {
			return err
		}
		s.X, s.Y = v.X, v.Y
		return nil
	case action.Update:
		return update(st, v)
	case action.Align:
		return align(st, v)
	case action.Distribute:
		return distribute(st, v)
	case action.Stack:
		return stack(st, v)
	case action.Rotate:
		return rotate(st, v)
	case action.Resize:
		return resize(st, v)
	case action.BringToFront:
		return reorder(st, v.IDs, true)
	case action.SendToBack:
		return reorder(st, v.IDs, false)
	case action.Place:
		return place(st, v)
	case action.Pen:
		return pen(st, v)
	case action.Clear:
		clear(st.shapes)
		st.order = st.order[:0]
		return nil
	case action.SetView:
		st.view = v.Bounds
		return nil
	}
	return fmt.Errorf("%w: %T", action.ErrUnsupported, a)
}

func create(st *state, s action.Shape) error {
	if _, exists := st.shapes[s.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateShape, s.ID)
	}
	st.shapes[s.ID] = &Shape{
		ID: s.ID, Type: s.Type, Geo: s.Geo,
		X: s.X, Y: s.Y, W: s.W, H: s.H,
		Text: s.Text, Color: s.Color, Fill: s.Fill,
	}
	st.order = append(st.order, s.ID)
	return nil
}

func remove(st *state, id string) {
	delete(st.shapes, id)
	st.order = slices.DeleteFunc(st.order, func(o string) bool { return o == id })
}

func update(st *state, u action.Update) error {
	s, err := st.get(u.ID)
	if err != nil {
		return err
	}
	p := u.Patch
	if p.Text != nil {
		if s.Type != action.ShapeText {
			return fmt.Errorf("%w: %s is a %s shape", ErrTextUnsupported, s.ID, s.Type)
		}
		s.Text = *p.Text
	}
	if p.Geo != nil {
		if s.Type != action.ShapeGeo {
			return fmt.Errorf("%w: geo on %s shape %s", action.ErrUnsupported, s.Type, s.ID)
		}
		s.Geo = *p.Geo
	}
	setIf(&s.Color, p.Color)
	setIf(&s.Fill, p.Fill)
	setIf(&s.X, p.X)
	setIf(&s.Y, p.Y)
	setIf(&s.W, p.W)
	setIf(&s.H, p.H)
	return nil
}

func setIf[T any](dst *T, v *T) {
	if v != nil {
		*dst = *v
	}
}

func bounds(shapes []*Shape) workspace.Box {
	b := shapes[0].Bounds()
	for _, s := range shapes[1:] {
		b = b.Union(s.Bounds())
	}
	return b
}

func align(st *state, a action.Align) error {
	shapes, err := st.all(a.IDs)
	if err != nil {
		return err
	}
	b := bounds(shapes)
	cx, cy := b.Center()
	for _, s := range shapes {
		switch a.Alignment {
		case action.AlignTop:
			s.Y = b.Y
		case action.AlignBottom:
			s.Y = b.MaxY() - s.H
		case action.AlignLeft:
			s.X = b.X
		case action.AlignRight:
			s.X = b.MaxX() - s.W
		case action.AlignCenterHorizontal:
			s.X = cx - s.W/2
		case action.AlignCenterVertical:
			s.Y = cy - s.H/2
		}
	}
	return nil
}

// axis gives position and extent accessors for one direction.
type axis struct {
	pos  func(*Shape) *float64
	size func(*Shape) float64
}

func axisFor(d action.Direction) axis {
	if d == action.Vertical {
		return axis{pos: func(s *Shape) *float64 { return &s.Y }, size: func(s *Shape) float64 { return s.H }}
	}
	return axis{pos: func(s *Shape) *float64 { return &s.X }, size: func(s *Shape) float64 { return s.W }}
}

func sortedAlong(shapes []*Shape, ax axis) []*Shape {
	out := slices.Clone(shapes)
	slices.SortStableFunc(out, func(a, b *Shape) int {
		switch pa, pb := *ax.pos(a), *ax.pos(b); {
		case pa < pb:
			return -1
		case pa > pb:
			return 1
		}
		return 0
	})
	return out
}

func distribute(st *state, d action.Distribute) error {
	shapes, err := st.all(d.IDs)
	if err != nil {
		return err
	}
	ax := axisFor(d.Direction)
	sorted := sortedAlong(shapes, ax)
	gap := d.Gap
	if gap <= 0 {
		first, last := sorted[0], sorted[len(sorted)-1]
		span := *ax.pos(last) + ax.size(last) - *ax.pos(first)
		var total float64
		for _, s := range sorted {
			total += ax.size(s)
		}
		gap = (span - total) / float64(len(sorted)-1)
	}
	cursor := *ax.pos(sorted[0])
	for _, s := range sorted {
		*ax.pos(s) = cursor
		cursor += ax.size(s) + gap
	}
	return nil
}

func stack(st *state, s action.Stack) error {
	shapes, err := st.all(s.IDs)
	if err != nil {
		return err
	}
	ax := axisFor(s.Direction)
	sorted := sortedAlong(shapes, ax)
	cursor := *ax.pos(sorted[0])
	for _, sh := range sorted {
		*ax.pos(sh) = cursor
		cursor += ax.size(sh) + s.Gap
	}
	return nil
}

func rotate(st *state, r action.Rotate) error {
	shapes, err := st.all(r.IDs)
	if err != nil {
		return err
	}
	ox, oy := bounds(shapes).Center()
	if r.Origin != nil {
		ox, oy = r.Origin.X, r.Origin.Y
	}
	rad := r.Degrees * math.Pi / 180
	sin, cos := math.Sincos(rad)
	for _, s := range shapes {
		cx, cy := s.Bounds().Center()
		dx, dy := cx-ox, cy-oy
		nx, ny := ox+dx*cos-dy*sin, oy+dx*sin+dy*cos
		s.X, s.Y = nx-s.W/2, ny-s.H/2
		s.Rotation = math.Mod(math.Mod(s.Rotation+r.Degrees, 360)+360, 360)
	}
	return nil
}

func resize(st *state, r action.Resize) error {
	shapes, err := st.all(r.IDs)
	if err != nil {
		return err
	}
	b := bounds(shapes)
	ox, oy := b.X, b.Y
	if r.Origin != nil {
		ox, oy = r.Origin.X, r.Origin.Y
	}
	for _, s := range shapes {
		s.X = ox + (s.X-ox)*r.ScaleX
		s.Y = oy + (s.Y-oy)*r.ScaleY
		s.W *= r.ScaleX
		s.H *= r.ScaleY
		for i := range s.Points {
			s.Points[i].X *= r.ScaleX
			s.Points[i].Y *= r.ScaleY
		}
	}
	return nil
}

func reorder(st *state, ids []string, front bool) error {
	if _, err := st.all(ids); err != nil {
		return err
	}
	var moved, rest []string
	for _, id := range st.order {
		if slices.Contains(ids, id) {
			moved = append(moved, id)
		} else {
			rest = append(rest, id)
		}
	}
	if front {
		st.order = append(rest, moved...)
	} else {
		st.order = append(moved, rest...)
	}
	return nil
}

func place(st *state, p action.Place) error {
	s, err := st.get(p.ID)
	if err != nil {
		return err
	}
	ref, err := st.get(p.ReferenceID)
	if err != nil {
		return err
	}
	// Position along the side, then align along the other axis.
	alongX := func() float64 {
		switch p.Align {
		case action.PlaceCenter:
			return ref.X + ref.W/2 - s.W/2 + p.AlignOffset
		case action.PlaceEnd:
			return ref.X + ref.W - s.W + p.AlignOffset
		}
		return ref.X + p.AlignOffset
	}
	alongY := func() float64 {
		switch p.Align {
		case action.PlaceCenter:
			return ref.Y + ref.H/2 - s.H/2 + p.AlignOffset
		case action.PlaceEnd:
			return ref.Y + ref.H - s.H + p.AlignOffset
		}
		return ref.Y + p.AlignOffset
	}
	switch p.Side {
	case action.SideTop:
		s.X, s.Y = alongX(), ref.Y-s.H-p.SideOffset
	case action.SideBottom:
		s.X, s.Y = alongX(), ref.Bounds().MaxY()+p.SideOffset
	case action.SideLeft:
		s.X, s.Y = ref.X-s.W-p.SideOffset, alongY()
	case action.SideRight:
		s.X, s.Y = ref.Bounds().MaxX()+p.SideOffset, alongY()
	}
	return nil
}

func pen(st *state, p action.Pen) error {
	if _, exists := st.shapes[p.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateShape, p.ID)
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	rel := make([]action.Point, len(p.Points))
	for i, pt := range p.Points {
		rel[i] = action.Point{X: pt.X - minX, Y: pt.Y - minY}
	}
	st.shapes[p.ID] = &Shape{
		ID: p.ID, Type: action.ShapeDraw,
		X: minX, Y: minY, W: maxX - minX, H: maxY - minY,
		Color: p.Color, Fill: p.Fill,
		Points: rel, Style: p.Style, Closed: p.Closed,
	}
	st.order = append(st.order, p.ID)
	return nil
}
