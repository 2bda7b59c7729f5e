package action

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"math"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/skosovsky/tutorkit/workspace"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type recordingSurface struct {
	mu      sync.Mutex
	applied []Action
	err     error
}

func (s *recordingSurface) Apply(_ context.Context, a Action) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	s.applied = append(s.applied, a)
	return nil
}

func (s *recordingSurface) log() []Action {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Action(nil), s.applied...)
}

func ptr[T any](v T) *T { return &v }

// sample returns a valid instance of every variant.
func sample() map[Kind]Action {
	return map[Kind]Action{
		KindCreate:       Create{Meta: Meta{Note: "draw a box"}, Shape: Shape{Type: ShapeGeo, Geo: "rectangle", X: 1, Y: 2, W: 30, H: 40, Color: "blue", Fill: "solid"}},
		KindDelete:       Delete{ID: "shape:a"},
		KindMove:         Move{ID: "shape:a", X: 5, Y: 6},
		KindUpdate:       Update{ID: "shape:a", Patch: Patch{Color: ptr("red"), W: ptr(50.0)}},
		KindAlign:        Align{IDs: []string{"shape:a", "shape:b"}, Alignment: AlignLeft},
		KindDistribute:   Distribute{IDs: []string{"shape:a", "shape:b", "shape:c"}, Direction: Horizontal},
		KindStack:        Stack{IDs: []string{"shape:a", "shape:b"}, Direction: Vertical, Gap: 8},
		KindRotate:       Rotate{IDs: []string{"shape:a"}, Degrees: 90, Origin: &Point{X: 0, Y: 0}},
		KindResize:       Resize{IDs: []string{"shape:a"}, ScaleX: 2, ScaleY: 0.5},
		KindBringToFront: BringToFront{IDs: []string{"shape:a"}},
		KindSendToBack:   SendToBack{IDs: []string{"shape:a"}},
		KindPlace:        Place{ID: "shape:a", ReferenceID: "shape:b", Side: SideRight, Align: PlaceCenter, SideOffset: 10},
		KindPen:          Pen{ID: "shape:p", Points: []Point{{0, 0}, {10, 10}}, Style: PenStraight, Color: "black"},
		KindClear:        Clear{Meta: Meta{Note: "start over"}},
		KindSetView:      SetView{Bounds: workspace.Box{X: 0, Y: 0, W: 800, H: 600}},
	}
}

func TestKinds_Exhaustive(t *testing.T) {
	samples := sample()
	require.Len(t, samples, len(Kinds()))
	for _, k := range Kinds() {
		zero, ok := New(k)
		require.True(t, ok, k)
		assert.Equal(t, k, zero.Kind())

		a, ok := samples[k]
		require.True(t, ok, "no sample for %s", k)
		assert.NoError(t, Validate(a), k)

		data, err := Marshal(a)
		require.NoError(t, err, k)
		back, err := Unmarshal(data)
		require.NoError(t, err, k)
		assert.Equal(t, a, back, k)
	}
	_, ok := New("explode")
	assert.False(t, ok)
}

func TestMarshal_Tagged(t *testing.T) {
	data, err := Marshal(Clear{})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_type":"clear"}`, string(data))

	data, err = Marshal(Move{Meta: Meta{Note: "tidy"}, ID: "shape:a", X: 1, Y: 2})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_type":"move","intent":"tidy","shapeId":"shape:a","x":1,"y":2}`, string(data))
}

func TestUnmarshal_Rejects(t *testing.T) {
	for _, in := range []string{
		`{"_type":"teleport"}`,
		`{"_type":"move","shapeId":"a","x":1,"y":2,"z":3}`,
		`not json`,
	} {
		_, err := Unmarshal([]byte(in))
		assert.ErrorIs(t, err, ErrInvalidAction, in)
	}
}

func TestCoerceGeo(t *testing.T) {
	cases := []struct {
		in, want string
		changed  bool
	}{
		{"ellipse", "ellipse", false},
		{"circle", "ellipse", true},
		{"Square", "rectangle", true},
		{"arrow", "arrow-right", true},
		{"parallelogram", "rhombus", true},
		{" STAR ", "star", true},
		{"blob", "rectangle", true},
		{"", "rectangle", true},
	}
	for _, tc := range cases {
		got, changed := CoerceGeo(tc.in)
		assert.Equal(t, tc.want, got, tc.in)
		assert.Equal(t, tc.changed, changed, tc.in)
	}
	for _, g := range GeoKinds() {
		got, changed := CoerceGeo(g)
		assert.Equal(t, g, got)
		assert.False(t, changed)
	}
}

func TestCoerceColor(t *testing.T) {
	c, ok := CoerceColor("Gray")
	assert.True(t, ok)
	assert.Equal(t, "grey", c)
	_, ok = CoerceColor("chartreuse")
	assert.False(t, ok)
}

func TestValidate_NonFinite(t *testing.T) {
	nan, inf := math.NaN(), math.Inf(1)
	cases := []Action{
		Create{Shape: Shape{Type: ShapeGeo, X: nan, Y: 0, W: 10, H: 10}},
		Create{Shape: Shape{Type: ShapeGeo, X: 0, Y: 0, W: inf, H: 10}},
		Move{ID: "a", X: nan, Y: 0},
		Update{ID: "a", Patch: Patch{Y: ptr(inf)}},
		Stack{IDs: []string{"a", "b"}, Direction: Vertical, Gap: nan},
		Rotate{IDs: []string{"a"}, Degrees: inf},
		Resize{IDs: []string{"a"}, ScaleX: nan, ScaleY: 1},
		Pen{Points: []Point{{0, 0}, {nan, 1}}, Style: PenSmooth},
		SetView{Bounds: workspace.Box{X: nan, W: 1, H: 1}},
	}
	for _, a := range cases {
		err := Validate(a)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve, "%T", a)
		assert.ErrorIs(t, err, ErrInvalidAction)
		assert.Contains(t, err.Error(), "finite", "%T", a)
	}
}

func TestValidate_Enums(t *testing.T) {
	errs := []Action{
		Align{IDs: []string{"a", "b"}, Alignment: "diagonal"},
		Distribute{IDs: []string{"a", "b", "c"}, Direction: "up"},
		Place{ID: "a", ReferenceID: "a", Side: SideTop, Align: PlaceStart},
		Place{ID: "a", ReferenceID: "b", Side: "inside", Align: PlaceStart},
		Pen{Points: []Point{{0, 0}, {1, 1}}, Style: "wobbly"},
		Create{Shape: Shape{Type: ShapeGeo, W: 1, H: 1, Fill: "glitter"}},
		Create{Shape: Shape{Type: ShapeGeo, W: 1, H: 1, Color: "chartreuse"}},
		Update{ID: "a"},
		Align{IDs: []string{"a", "a"}, Alignment: AlignTop},
	}
	for _, a := range errs {
		assert.ErrorIs(t, Validate(a), ErrInvalidAction, "%#v", a)
	}
}

func TestDispatch_NonFiniteNeverReachesSurface(t *testing.T) {
	surface := &recordingSurface{}
	d := NewDispatcher(surface, WithLogger(slog.New(slog.NewTextHandler(&bytes.Buffer{}, nil))))
	_, err := d.Dispatch(context.Background(), Move{ID: "a", X: math.NaN(), Y: 1})
	require.ErrorIs(t, err, ErrInvalidAction)
	_, err = d.Dispatch(context.Background(), Create{Shape: Shape{X: math.NaN(), Y: 0, W: 10, H: 10}})
	require.ErrorIs(t, err, ErrInvalidAction)
	assert.Empty(t, surface.log())
}

func TestDispatch_CoercesAndLogsGeo(t *testing.T) {
	var buf bytes.Buffer
	surface := &recordingSurface{}
	d := NewDispatcher(surface,
		WithLogger(slog.New(slog.NewTextHandler(&buf, nil))),
		WithIDGenerator(func() string { return "shape:new" }),
	)
	applied, err := d.Dispatch(context.Background(), Create{Shape: Shape{Geo: "blob", X: 0, Y: 0, W: 10, H: 10, Color: "gray"}})
	require.NoError(t, err)

	c := applied.(Create)
	assert.Equal(t, "rectangle", c.Shape.Geo)
	assert.Equal(t, ShapeGeo, c.Shape.Type)
	assert.Equal(t, "shape:new", c.Shape.ID)
	assert.Equal(t, "grey", c.Shape.Color)
	assert.Equal(t, "none", c.Shape.Fill)
	assert.Equal(t, []Action{c}, surface.log())
	assert.Contains(t, buf.String(), "geo coerced")
	assert.Contains(t, buf.String(), "from=blob")
	assert.Contains(t, buf.String(), "to=rectangle")

	applied, err = d.Dispatch(context.Background(), Update{ID: "shape:new", Patch: Patch{Geo: ptr("circle")}})
	require.NoError(t, err)
	assert.Equal(t, "ellipse", *applied.(Update).Patch.Geo)
}

func TestDispatch_SurfaceErrorPropagates(t *testing.T) {
	rejected := errors.New("shape locked")
	d := NewDispatcher(&recordingSurface{err: rejected})
	_, err := d.Dispatch(context.Background(), Delete{ID: "shape:a"})
	require.ErrorIs(t, err, rejected)
	assert.Contains(t, err.Error(), "apply delete")
}

func TestDispatch_GateBlocksUntilApproved(t *testing.T) {
	var requested []Approval
	gate := NewGate([]Kind{KindClear}, OnApprovalRequested(func(a Approval) { requested = append(requested, a) }))
	surface := &recordingSurface{}
	d := NewDispatcher(surface, WithGate(gate))
	ctx := context.Background()

	_, err := d.Dispatch(ctx, Clear{Meta: Meta{Note: "fresh start"}})
	var ae *ApprovalError
	require.ErrorAs(t, err, &ae)
	assert.ErrorIs(t, err, ErrApprovalRequired)
	assert.Equal(t, KindClear, ae.Kind)
	assert.Equal(t, "clear the entire board (fresh start)", ae.Summary)
	assert.Empty(t, surface.log())

	// A repeat before approval returns the same request without re-emitting.
	_, err = d.Dispatch(ctx, Clear{Meta: Meta{Note: "please"}})
	var again *ApprovalError
	require.ErrorAs(t, err, &again)
	assert.Equal(t, ae.ID, again.ID)
	assert.Len(t, requested, 1)
	assert.Len(t, gate.Pending(), 1)

	require.NoError(t, gate.Approve(ae.ID))
	assert.Empty(t, gate.Pending())
	_, err = d.Dispatch(ctx, Clear{})
	require.NoError(t, err)
	assert.Len(t, surface.log(), 1)

	// The approval is consumed by one dispatch.
	_, err = d.Dispatch(ctx, Clear{})
	require.ErrorAs(t, err, &again)
	assert.NotEqual(t, ae.ID, again.ID)
	assert.Len(t, requested, 2)
}

func TestGate_RejectAndUnknown(t *testing.T) {
	gate := NewGate([]Kind{KindClear, KindDelete})
	assert.NoError(t, gate.Check(Move{ID: "a"}))

	err := gate.Check(Delete{ID: "shape:a"})
	var ae *ApprovalError
	require.ErrorAs(t, err, &ae)
	require.ErrorAs(t, gate.Check(Delete{ID: "shape:b"}), new(*ApprovalError))
	assert.Len(t, gate.Pending(), 2, "distinct targets are distinct requests")

	require.NoError(t, gate.Reject(ae.ID))
	assert.ErrorIs(t, gate.Approve(ae.ID), ErrUnknownApproval)
	assert.ErrorIs(t, gate.Reject("apr_missing"), ErrUnknownApproval)
	assert.Len(t, gate.Pending(), 1)
}

func TestQueue_PreservesOrder(t *testing.T) {
	surface := &recordingSurface{}
	q := NewQueue(NewDispatcher(surface), 4)
	defer q.Close()

	for i := range 20 {
		_, err := q.Dispatch(context.Background(), Move{ID: "shape:a", X: float64(i), Y: 0})
		require.NoError(t, err)
	}
	log := surface.log()
	require.Len(t, log, 20)
	for i, a := range log {
		assert.InDelta(t, float64(i), a.(Move).X, 0)
	}
}

func TestQueue_Closed(t *testing.T) {
	q := NewQueue(NewDispatcher(&recordingSurface{}), 1)
	q.Close()
	q.Close()
	_, err := q.Dispatch(context.Background(), Clear{})
	assert.ErrorIs(t, err, ErrQueueClosed)
}
