package board

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/png"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/workspace"
)

func rect(id string, x, y, w, h float64) action.Create {
	return action.Create{Shape: action.Shape{ID: id, Type: action.ShapeGeo, Geo: "rectangle", X: x, Y: y, W: w, H: h, Color: "blue", Fill: "none"}}
}

func newBoard(t *testing.T, acts ...action.Action) *Board {
	t.Helper()
	b := New(WithViewport(workspace.Box{W: 100, H: 100}))
	for _, a := range acts {
		require.NoError(t, b.Apply(context.Background(), a))
	}
	return b
}

func pos(t *testing.T, b *Board, id string) (float64, float64) {
	t.Helper()
	s, ok := b.Shape(id)
	require.True(t, ok, id)
	return s.X, s.Y
}

func TestApply_CreateMoveDelete(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 10, 10))

	err := b.Apply(ctx, rect("a", 5, 5, 1, 1))
	require.ErrorIs(t, err, ErrDuplicateShape)

	require.NoError(t, b.Apply(ctx, action.Move{ID: "a", X: 40, Y: 50}))
	x, y := pos(t, b, "a")
	assert.Equal(t, 40.0, x)
	assert.Equal(t, 50.0, y)

	require.NoError(t, b.Apply(ctx, action.Delete{ID: "a"}))
	_, ok := b.Shape("a")
	assert.False(t, ok)
	assert.Empty(t, b.Order())

	err = b.Apply(ctx, action.Delete{ID: "a"})
	require.ErrorIs(t, err, workspace.ErrShapeNotFound)
}

func TestApply_FailedActionLeavesBoardUnchanged(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 10, 10), rect("b", 20, 30, 10, 20))
	before := b.Snapshot()

	err := b.Apply(ctx, action.Align{IDs: []string{"a", "b", "missing"}, Alignment: action.AlignLeft})
	require.ErrorIs(t, err, workspace.ErrShapeNotFound)
	assert.Equal(t, before, b.Snapshot())

	red, text := "red", "hello"
	err = b.Apply(ctx, action.Update{ID: "a", Patch: action.Patch{Color: &red, Text: &text}})
	require.ErrorIs(t, err, ErrTextUnsupported)
	assert.Equal(t, before, b.Snapshot())
}

func TestApply_UpdateText(t *testing.T) {
	b := newBoard(t, action.Create{Shape: action.Shape{ID: "t", Type: action.ShapeText, X: 1, Y: 1, W: 50, H: 20, Text: "old"}})
	text := "new"
	require.NoError(t, b.Apply(context.Background(), action.Update{ID: "t", Patch: action.Patch{Text: &text}}))
	s, _ := b.Shape("t")
	assert.Equal(t, "new", s.Text)
}

func TestApply_Align(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 10, 10), rect("b", 20, 30, 10, 20))

	require.NoError(t, b.Apply(ctx, action.Align{IDs: []string{"a", "b"}, Alignment: action.AlignLeft}))
	ax, _ := pos(t, b, "a")
	bx, _ := pos(t, b, "b")
	assert.Equal(t, 0.0, ax)
	assert.Equal(t, 0.0, bx)

	require.NoError(t, b.Apply(ctx, action.Align{IDs: []string{"a", "b"}, Alignment: action.AlignBottom}))
	_, ay := pos(t, b, "a")
	_, by := pos(t, b, "b")
	assert.Equal(t, 40.0, ay)
	assert.Equal(t, 30.0, by)
}

func TestApply_Distribute(t *testing.T) {
	b := newBoard(t, rect("a", 0, 0, 10, 10), rect("c", 90, 0, 10, 10), rect("b", 15, 0, 10, 10))
	require.NoError(t, b.Apply(context.Background(), action.Distribute{IDs: []string{"a", "b", "c"}, Direction: action.Horizontal}))

	for id, want := range map[string]float64{"a": 0, "b": 45, "c": 90} {
		x, _ := pos(t, b, id)
		assert.InDelta(t, want, x, 1e-9, id)
	}
}

func TestApply_Stack(t *testing.T) {
	b := newBoard(t, rect("a", 0, 0, 10, 10), rect("b", 0, 100, 10, 20))
	require.NoError(t, b.Apply(context.Background(), action.Stack{IDs: []string{"b", "a"}, Direction: action.Vertical, Gap: 5}))
	_, by := pos(t, b, "b")
	assert.Equal(t, 15.0, by)
}

func TestApply_RotateAroundOrigin(t *testing.T) {
	b := newBoard(t, rect("a", 10, 0, 10, 10))
	require.NoError(t, b.Apply(context.Background(), action.Rotate{IDs: []string{"a"}, Degrees: 450, Origin: &action.Point{}}))
	s, _ := b.Shape("a")
	assert.InDelta(t, -10.0, s.X, 1e-9)
	assert.InDelta(t, 10.0, s.Y, 1e-9)
	assert.InDelta(t, 90.0, s.Rotation, 1e-9)
}

func TestApply_Resize(t *testing.T) {
	b := newBoard(t, rect("a", 10, 10, 10, 10), rect("b", 30, 10, 10, 10))
	require.NoError(t, b.Apply(context.Background(), action.Resize{IDs: []string{"a", "b"}, ScaleX: 2, ScaleY: 1}))
	a, _ := b.Shape("a")
	bs, _ := b.Shape("b")
	assert.Equal(t, 10.0, a.X)
	assert.Equal(t, 20.0, a.W)
	assert.Equal(t, 50.0, bs.X)
}

func TestApply_Place(t *testing.T) {
	b := newBoard(t, rect("ref", 0, 0, 100, 50), rect("a", 500, 500, 20, 10))
	require.NoError(t, b.Apply(context.Background(), action.Place{
		ID: "a", ReferenceID: "ref", Side: action.SideRight, Align: action.PlaceCenter, SideOffset: 10,
	}))
	x, y := pos(t, b, "a")
	assert.Equal(t, 110.0, x)
	assert.Equal(t, 20.0, y)

	require.NoError(t, b.Apply(context.Background(), action.Place{
		ID: "a", ReferenceID: "ref", Side: action.SideBottom, Align: action.PlaceStart, SideOffset: 5,
	}))
	x, y = pos(t, b, "a")
	assert.Equal(t, 0.0, x)
	assert.Equal(t, 55.0, y)
}

func TestApply_PenStoresRelativePoints(t *testing.T) {
	b := newBoard(t, action.Pen{ID: "p", Points: []action.Point{{X: 10, Y: 20}, {X: 30, Y: 5}}, Style: action.PenSmooth})
	s, ok := b.Shape("p")
	require.True(t, ok)
	assert.Equal(t, action.ShapeDraw, s.Type)
	assert.Equal(t, workspace.Box{X: 10, Y: 5, W: 20, H: 15}, s.Bounds())
	assert.Equal(t, []action.Point{{X: 0, Y: 15}, {X: 20, Y: 0}}, s.Points)
}

func TestApply_ZOrder(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 1, 1), rect("b", 0, 0, 1, 1), rect("c", 0, 0, 1, 1))

	require.NoError(t, b.Apply(ctx, action.BringToFront{IDs: []string{"a"}}))
	assert.Equal(t, []string{"b", "c", "a"}, b.Order())

	require.NoError(t, b.Apply(ctx, action.SendToBack{IDs: []string{"c"}}))
	assert.Equal(t, []string{"c", "b", "a"}, b.Order())
}

func TestApply_ClearDropsSelection(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 10, 10))
	require.NoError(t, b.Select("a"))
	require.NoError(t, b.Apply(ctx, action.Clear{}))

	vc, err := b.ViewContext(ctx)
	require.NoError(t, err)
	assert.Empty(t, vc.BlurryShapes)
	assert.Empty(t, vc.SelectedShapes)
}

func TestSelect_UnknownID(t *testing.T) {
	b := newBoard(t)
	require.ErrorIs(t, b.Select("nope"), workspace.ErrShapeNotFound)
}

func TestViewContext(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t,
		rect("in", 10, 10, 10, 10),
		rect("far1", 1000, 1000, 10, 10),
		rect("far2", 1020, 1010, 10, 10),
		rect("far3", 1040, 1030, 10, 10),
		rect("left", -500, 0, 10, 10),
	)
	require.NoError(t, b.Select("far1"))

	vc, err := b.ViewContext(ctx)
	require.NoError(t, err)
	assert.Equal(t, workspace.Box{W: 100, H: 100}, vc.Bounds)
	require.Len(t, vc.BlurryShapes, 1)
	assert.Equal(t, "in", vc.BlurryShapes[0].ID)
	require.Len(t, vc.PeripheralClusters, 2)
	assert.Equal(t, 3, vc.PeripheralClusters[0].Count)
	assert.Equal(t, workspace.Box{X: 1000, Y: 1000, W: 50, H: 40}, vc.PeripheralClusters[0].Bounds)
	assert.Equal(t, 1, vc.PeripheralClusters[1].Count)
	require.Len(t, vc.SelectedShapes, 1)
	assert.Equal(t, "far1", vc.SelectedShapes[0].ID)

	require.NoError(t, b.Apply(ctx, action.SetView{Bounds: workspace.Box{X: 990, Y: 990, W: 100, H: 100}}))
	vc, err = b.ViewContext(ctx)
	require.NoError(t, err)
	assert.Len(t, vc.BlurryShapes, 3)
}

func TestViewContext_Limits(t *testing.T) {
	b := New(WithViewport(workspace.Box{W: 100, H: 100}), WithLimits(workspace.Limits{Shapes: 1}))
	ctx := context.Background()
	require.NoError(t, b.Apply(ctx, rect("a", 0, 0, 10, 10)))
	require.NoError(t, b.Apply(ctx, rect("b", 20, 0, 10, 10)))

	vc, err := b.ViewContext(ctx)
	require.NoError(t, err)
	require.Len(t, vc.BlurryShapes, 1)
	assert.Equal(t, "a", vc.BlurryShapes[0].ID)
}

func TestVisibleTextAndLookup(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t,
		action.Create{Shape: action.Shape{ID: "lower", Type: action.ShapeText, X: 0, Y: 50, W: 40, H: 10, Text: "second"}},
		action.Create{Shape: action.Shape{ID: "upper", Type: action.ShapeText, X: 0, Y: 5, W: 40, H: 10, Text: "first"}},
		action.Create{Shape: action.Shape{ID: "away", Type: action.ShapeText, X: 900, Y: 900, W: 40, H: 10, Text: "hidden"}},
	)
	items, err := b.VisibleText(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "first", items[0].Text)
	assert.Equal(t, "second", items[1].Text)

	s, err := b.Lookup(ctx, "away")
	require.NoError(t, err)
	assert.Equal(t, "hidden", s.Text)

	_, err = b.Lookup(ctx, "nope")
	require.ErrorIs(t, err, workspace.ErrShapeNotFound)
}

func TestScreenshot(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t)
	_, err := b.Screenshot(ctx)
	require.ErrorIs(t, err, workspace.ErrNoImage)

	require.NoError(t, b.Apply(ctx, action.Create{Shape: action.Shape{ID: "a", Type: action.ShapeGeo, Geo: "ellipse", X: 10, Y: 10, W: 30, H: 30, Color: "red", Fill: "solid"}}))
	url, err := b.Screenshot(ctx)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(url, "data:image/png;base64,"))
}

func decodeShot(t *testing.T, url string) image.Image {
	t.Helper()
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(url, "data:image/png;base64,"))
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	return img
}

func screenshotWithin(t *testing.T, b *Board, limit time.Duration) image.Image {
	t.Helper()
	type shot struct {
		url string
		err error
	}
	done := make(chan shot, 1)
	go func() {
		url, err := b.Screenshot(context.Background())
		done <- shot{url, err}
	}()
	select {
	case s := <-done:
		require.NoError(t, s.err)
		return decodeShot(t, s.url)
	case <-time.After(limit):
		t.Fatalf("screenshot did not finish within %s", limit)
		return nil
	}
}

func TestScreenshot_HugeAndOffCanvasShapes(t *testing.T) {
	b := newBoard(t,
		rect("wide", 0, 0, 1e10, 10),
		rect("tall", 20, -1e12, 10, 2e12),
		rect("far", -1e300, -1e300, 2e300, 2e300),
	)
	img := screenshotWithin(t, b, 5*time.Second)
	assert.Equal(t, image.Rect(0, 0, 100, 100), img.Bounds())
}

func TestScreenshot_TallViewportIsBounded(t *testing.T) {
	ctx := context.Background()
	b := newBoard(t, rect("a", 0, 0, 10, 10))
	require.NoError(t, b.Apply(ctx, action.SetView{Bounds: workspace.Box{W: 10, H: 1e8}}))

	img := screenshotWithin(t, b, 5*time.Second)
	size := img.Bounds().Size()
	assert.LessOrEqual(t, size.X, maxShotWidth)
	assert.LessOrEqual(t, size.Y, maxShotHeight)
	assert.Equal(t, 1, size.X)
	assert.Equal(t, maxShotHeight, size.Y)
}

func TestApply_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	b := newBoard(t)
	require.ErrorIs(t, b.Apply(ctx, rect("a", 0, 0, 1, 1)), context.Canceled)
	assert.Empty(t, b.Order())
}
