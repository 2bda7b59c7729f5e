package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/skosovsky/tutorkit"
	"github.com/skosovsky/tutorkit/action"
	"github.com/skosovsky/tutorkit/workspace"
)

// Shape defaults.
const (
	DefaultShapeSize = 100
	DefaultTextW     = 220
	DefaultTextH     = 60
	DefaultColor     = "black"
	DefaultPenColor  = "blue"

	// labelOffset places substituted labels inside the target's top-left corner.
	labelOffset = 8
)

func (ts *Toolset) boardTools(b *builder) {
	add(b, "get_view_context", "Return the shapes in the viewport, clusters of shapes outside it and the selection.",
		ts.getViewContext, tutorkit.WithReadOnly())
	add(b, "get_screenshot", "Return a PNG data URL of the current viewport.",
		ts.getScreenshot, tutorkit.WithReadOnly())
	add(b, "get_text_context", "Return the text visible in the viewport, top to bottom.",
		ts.getTextContext, tutorkit.WithReadOnly())

	add(b, "create_shape", "Create a geo shape. Width and height default to 100.", ts.createShape)
	add(b, "create", "Create a geo shape (alias of create_shape).", ts.createShape)
	add(b, "create_text", "Create a text shape. Width defaults to 220 and height to 60.", ts.createText)
	add(b, "label", "Set the text of a text shape, or put a text label on any other shape.", ts.label)
	add(b, "set_view", "Move the viewport to the given page rectangle.", ts.setView)
	add(b, "move", "Move a shape so its top-left corner is at (x, y).", ts.move)
	add(b, "update", "Change properties of a shape. Only the given fields change.", ts.update)
	add(b, "delete", "Delete a shape.", ts.delete)
	add(b, "clear", "Remove every shape. Requires approval from the learner.", ts.clear)

	add(b, "align", "Align shapes along an edge or center line.", ts.align)
	add(b, "distribute", "Space three or more shapes evenly along an axis.", ts.distribute)
	add(b, "stack", "Line shapes up one after another with a fixed gap.", ts.stack)
	add(b, "rotate", "Rotate shapes by degrees around an origin or their common center.", ts.rotate)
	add(b, "resize", "Scale shapes from an origin or their common top-left corner.", ts.resize)
	add(b, "bring_to_front", "Move shapes above all others.", ts.bringToFront)
	add(b, "send_to_back", "Move shapes below all others.", ts.sendToBack)
	add(b, "place", "Position a shape next to a reference shape.", ts.place)
	add(b, "pen", "Draw a freehand line through the given points.", ts.pen)
}

func (ts *Toolset) getViewContext(ctx context.Context, _ noArgs) (tutorkit.Result, error) {
	vc, err := ts.deps.Viewer.ViewContext(ctx)
	if err != nil {
		return tutorkit.Result{}, err
	}
	return tutorkit.OK(fmt.Sprintf("%d shapes in view, %d clusters outside", len(vc.BlurryShapes), len(vc.PeripheralClusters)), vc), nil
}

func (ts *Toolset) getScreenshot(ctx context.Context, _ noArgs) (tutorkit.Result, error) {
	url, err := ts.deps.Viewer.Screenshot(ctx)
	if errors.Is(err, workspace.ErrNoImage) {
		return tutorkit.Fail("no-visible-shapes"), nil
	}
	if err != nil {
		return tutorkit.Result{}, err
	}
	return tutorkit.OK("screenshot captured", map[string]string{"url": url}), nil
}

func (ts *Toolset) getTextContext(ctx context.Context, _ noArgs) (tutorkit.Result, error) {
	items, err := ts.deps.Viewer.VisibleText(ctx)
	if err != nil {
		return tutorkit.Result{}, err
	}
	if items == nil {
		items = []workspace.TextItem{}
	}
	return tutorkit.OK(fmt.Sprintf("%d text items", len(items)), map[string]any{"items": items}), nil
}

type sendViewImageArgs struct {
	Text            string `json:"text,omitempty" description:"Message sent with the image"`
	TriggerResponse bool   `json:"triggerResponse,omitempty" description:"Ask for a spoken response after sharing"`
}

func (ts *Toolset) sendViewImage(ctx context.Context, in sendViewImageArgs) (tutorkit.Result, error) {
	conv := ts.deps.Conversation()
	if conv == nil {
		return tutorkit.Fail("no-session"), nil
	}
	url, err := ts.deps.Viewer.Screenshot(ctx)
	if errors.Is(err, workspace.ErrNoImage) {
		return tutorkit.Fail("no-visible-shapes"), nil
	}
	if err != nil {
		return tutorkit.Result{}, err
	}
	if err := conv.SendContext(ctx, or(in.Text, "Current whiteboard view."), url); err != nil {
		return tutorkit.Result{}, err
	}
	if in.TriggerResponse {
		if err := conv.CreateResponse(ctx); err != nil {
			return tutorkit.Result{}, err
		}
	}
	return tutorkit.OK("image-shared", nil), nil
}

type createShapeArgs struct {
	Geo    string  `json:"geo,omitempty" description:"rectangle, ellipse, triangle, diamond, star, arrow-right, ...; synonyms like circle or square are accepted"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w,omitempty"`
	H      float64 `json:"h,omitempty"`
	Text   string  `json:"text,omitempty" description:"Placed as a separate text label inside the shape"`
	Color  string  `json:"color,omitempty"`
	Fill   string  `json:"fill,omitempty" enum:"none,tint,background,solid,pattern"`
	Intent string  `json:"intent,omitempty"`
}

func (ts *Toolset) createShape(ctx context.Context, in createShapeArgs) (tutorkit.Result, error) {
	a := action.Create{
		Meta: action.Meta{Note: in.Intent},
		Shape: action.Shape{
			Type:  action.ShapeGeo,
			Geo:   in.Geo,
			X:     in.X,
			Y:     in.Y,
			W:     or(in.W, DefaultShapeSize),
			H:     or(in.H, DefaultShapeSize),
			Color: or(in.Color, DefaultColor),
			Fill:  or(in.Fill, "none"),
		},
	}
	var created action.Shape
	res, err := ts.dispatch(ctx, a, func(applied action.Action) tutorkit.Result {
		created = applied.(action.Create).Shape
		return tutorkit.OK(
			fmt.Sprintf("created %s at %s", created.Geo, point(created.X, created.Y)),
			map[string]string{"shapeId": created.ID},
		)
	})
	if err != nil || !res.IsOK() || in.Text == "" {
		return res, err
	}
	target := workspace.ShapeSummary{Type: created.Type, ID: created.ID, X: created.X, Y: created.Y, W: created.W, H: created.H}
	label, err := ts.labelNear(ctx, target, in.Text, in.Intent)
	if err != nil || !label.IsOK() {
		return label, err
	}
	res.Summary += "; " + label.Summary
	return res, nil
}

type createTextArgs struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Text   string  `json:"text"`
	W      float64 `json:"w,omitempty"`
	H      float64 `json:"h,omitempty"`
	Color  string  `json:"color,omitempty"`
	Intent string  `json:"intent,omitempty"`
}

func (ts *Toolset) createText(ctx context.Context, in createTextArgs) (tutorkit.Result, error) {
	a := action.Create{
		Meta: action.Meta{Note: in.Intent},
		Shape: action.Shape{
			Type:  action.ShapeText,
			X:     in.X,
			Y:     in.Y,
			W:     or(in.W, DefaultTextW),
			H:     or(in.H, DefaultTextH),
			Text:  in.Text,
			Color: or(in.Color, DefaultColor),
		},
	}
	return ts.dispatch(ctx, a, func(applied action.Action) tutorkit.Result {
		s := applied.(action.Create).Shape
		return tutorkit.OK("text created at "+point(s.X, s.Y), map[string]string{"shapeId": s.ID})
	})
}

type labelArgs struct {
	ShapeID string `json:"shapeId"`
	Text    string `json:"text"`
	Intent  string `json:"intent,omitempty"`
}

func (ts *Toolset) label(ctx context.Context, in labelArgs) (tutorkit.Result, error) {
	target, err := ts.deps.Viewer.Lookup(ctx, in.ShapeID)
	if err != nil {
		return rejected(err)
	}
	if target.Type == action.ShapeText {
		text := in.Text
		return ts.dispatch(ctx, action.Update{
			Meta:  action.Meta{Note: in.Intent},
			ID:    in.ShapeID,
			Patch: action.Patch{Text: &text},
		}, func(action.Action) tutorkit.Result {
			return tutorkit.OK("updated "+in.ShapeID, nil)
		})
	}
	return ts.labelNear(ctx, target, in.Text, in.Intent)
}

// labelNear creates a standalone text shape inside target's top-left corner. Shapes
// other than text have no text body of their own.
func (ts *Toolset) labelNear(ctx context.Context, target workspace.ShapeSummary, text, intent string) (tutorkit.Result, error) {
	a := action.Create{
		Meta: action.Meta{Note: intent},
		Shape: action.Shape{
			Type:  action.ShapeText,
			X:     target.X + labelOffset,
			Y:     target.Y + labelOffset,
			W:     DefaultTextW,
			H:     DefaultTextH,
			Text:  text,
			Color: DefaultColor,
		},
	}
	return ts.dispatch(ctx, a, func(applied action.Action) tutorkit.Result {
		return tutorkit.OK("label created as text near "+target.ID, map[string]string{
			"shapeId": applied.(action.Create).Shape.ID,
			"target":  target.ID,
		})
	})
}

type setViewArgs struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	W      float64 `json:"w"`
	H      float64 `json:"h"`
	Intent string  `json:"intent,omitempty"`
}

func (ts *Toolset) setView(ctx context.Context, in setViewArgs) (tutorkit.Result, error) {
	box := workspace.Box{X: in.X, Y: in.Y, W: in.W, H: in.H}
	return ts.dispatch(ctx, action.SetView{Meta: action.Meta{Note: in.Intent}, Bounds: box}, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("viewport set (%s,%s,%s,%s)", num(box.X), num(box.Y), num(box.W), num(box.H)), nil)
	})
}

type moveArgs struct {
	ShapeID string  `json:"shapeId"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	Intent  string  `json:"intent,omitempty"`
}

func (ts *Toolset) move(ctx context.Context, in moveArgs) (tutorkit.Result, error) {
	a := action.Move{Meta: action.Meta{Note: in.Intent}, ID: in.ShapeID, X: in.X, Y: in.Y}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("moved %s to %s", in.ShapeID, point(in.X, in.Y)), nil)
	})
}

type updateArgs struct {
	ShapeID string   `json:"shapeId"`
	Text    *string  `json:"text,omitempty" description:"New text. On shapes other than text a separate label is created instead"`
	Geo     *string  `json:"geo,omitempty"`
	Color   *string  `json:"color,omitempty"`
	Fill    *string  `json:"fill,omitempty"`
	X       *float64 `json:"x,omitempty"`
	Y       *float64 `json:"y,omitempty"`
	W       *float64 `json:"w,omitempty"`
	H       *float64 `json:"h,omitempty"`
	Intent  string   `json:"intent,omitempty"`
}

func (ts *Toolset) update(ctx context.Context, in updateArgs) (tutorkit.Result, error) {
	patch := action.Patch{
		Text: in.Text, Geo: in.Geo, Color: in.Color, Fill: in.Fill,
		X: in.X, Y: in.Y, W: in.W, H: in.H,
	}
	var target workspace.ShapeSummary
	substitute := false
	if in.Text != nil {
		var err error
		target, err = ts.deps.Viewer.Lookup(ctx, in.ShapeID)
		if err != nil {
			return rejected(err)
		}
		substitute = target.Type != action.ShapeText
	}
	if substitute {
		patch.Text = nil
		if patch.Empty() {
			return ts.labelNear(ctx, target, *in.Text, in.Intent)
		}
	}
	a := action.Update{Meta: action.Meta{Note: in.Intent}, ID: in.ShapeID, Patch: patch}
	res, err := ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK("updated "+in.ShapeID, nil)
	})
	if err != nil || !res.IsOK() || !substitute {
		return res, err
	}
	if moved, ok := ts.lookup(ctx, in.ShapeID); ok {
		target = moved
	}
	label, err := ts.labelNear(ctx, target, *in.Text, in.Intent)
	if err != nil || !label.IsOK() {
		return label, err
	}
	res.Summary += "; " + label.Summary
	res.Data = label.Data
	return res, nil
}

func (ts *Toolset) lookup(ctx context.Context, id string) (workspace.ShapeSummary, bool) {
	s, err := ts.deps.Viewer.Lookup(ctx, id)
	return s, err == nil
}

type shapeArgs struct {
	ShapeID string `json:"shapeId"`
	Intent  string `json:"intent,omitempty"`
}

func (ts *Toolset) delete(ctx context.Context, in shapeArgs) (tutorkit.Result, error) {
	a := action.Delete{Meta: action.Meta{Note: in.Intent}, ID: in.ShapeID}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK("deleted "+in.ShapeID, nil)
	})
}

type intentArgs struct {
	Intent string `json:"intent,omitempty"`
}

func (ts *Toolset) clear(ctx context.Context, in intentArgs) (tutorkit.Result, error) {
	return ts.dispatch(ctx, action.Clear{Meta: action.Meta{Note: in.Intent}}, func(action.Action) tutorkit.Result {
		return tutorkit.OK("board cleared", nil)
	})
}

type alignArgs struct {
	ShapeIDs  []string `json:"shapeIds"`
	Alignment string   `json:"alignment" enum:"left,center-horizontal,right,top,center-vertical,bottom"`
	Intent    string   `json:"intent,omitempty"`
}

func (ts *Toolset) align(ctx context.Context, in alignArgs) (tutorkit.Result, error) {
	a := action.Align{Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs, Alignment: action.Alignment(in.Alignment)}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("aligned %d shapes (%s)", len(in.ShapeIDs), in.Alignment), nil)
	})
}

type distributeArgs struct {
	ShapeIDs  []string `json:"shapeIds"`
	Direction string   `json:"direction" enum:"horizontal,vertical"`
	Gap       float64  `json:"gap,omitempty" description:"Fixed gap; omitted spreads shapes between the outermost two"`
	Intent    string   `json:"intent,omitempty"`
}

func (ts *Toolset) distribute(ctx context.Context, in distributeArgs) (tutorkit.Result, error) {
	a := action.Distribute{
		Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs,
		Direction: action.Direction(in.Direction), Gap: in.Gap,
	}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("distributed %d shapes (%s)", len(in.ShapeIDs), in.Direction), nil)
	})
}

type stackArgs struct {
	ShapeIDs  []string `json:"shapeIds"`
	Direction string   `json:"direction" enum:"horizontal,vertical"`
	Gap       float64  `json:"gap"`
	Intent    string   `json:"intent,omitempty"`
}

func (ts *Toolset) stack(ctx context.Context, in stackArgs) (tutorkit.Result, error) {
	a := action.Stack{
		Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs,
		Direction: action.Direction(in.Direction), Gap: in.Gap,
	}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("stacked %d shapes (%s)", len(in.ShapeIDs), in.Direction), nil)
	})
}

type rotateArgs struct {
	ShapeIDs []string      `json:"shapeIds"`
	Degrees  float64       `json:"degrees"`
	Origin   *action.Point `json:"origin,omitempty"`
	Intent   string        `json:"intent,omitempty"`
}

func (ts *Toolset) rotate(ctx context.Context, in rotateArgs) (tutorkit.Result, error) {
	a := action.Rotate{Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs, Degrees: in.Degrees, Origin: in.Origin}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("rotated %d shapes by %s degrees", len(in.ShapeIDs), num(in.Degrees)), nil)
	})
}

type resizeArgs struct {
	ShapeIDs []string      `json:"shapeIds"`
	ScaleX   float64       `json:"scaleX"`
	ScaleY   float64       `json:"scaleY"`
	Origin   *action.Point `json:"origin,omitempty"`
	Intent   string        `json:"intent,omitempty"`
}

func (ts *Toolset) resize(ctx context.Context, in resizeArgs) (tutorkit.Result, error) {
	a := action.Resize{
		Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs,
		ScaleX: in.ScaleX, ScaleY: in.ScaleY, Origin: in.Origin,
	}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("resized %d shapes (%sx, %sy)", len(in.ShapeIDs), num(in.ScaleX), num(in.ScaleY)), nil)
	})
}

type shapesArgs struct {
	ShapeIDs []string `json:"shapeIds"`
	Intent   string   `json:"intent,omitempty"`
}

func (ts *Toolset) bringToFront(ctx context.Context, in shapesArgs) (tutorkit.Result, error) {
	a := action.BringToFront{Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK("brought to front: "+strings.Join(in.ShapeIDs, ", "), nil)
	})
}

func (ts *Toolset) sendToBack(ctx context.Context, in shapesArgs) (tutorkit.Result, error) {
	a := action.SendToBack{Meta: action.Meta{Note: in.Intent}, IDs: in.ShapeIDs}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK("sent to back: "+strings.Join(in.ShapeIDs, ", "), nil)
	})
}

type placeArgs struct {
	ShapeID          string  `json:"shapeId"`
	ReferenceShapeID string  `json:"referenceShapeId"`
	Side             string  `json:"side" enum:"top,bottom,left,right"`
	Align            string  `json:"align,omitempty" enum:"start,center,end"`
	SideOffset       float64 `json:"sideOffset,omitempty"`
	AlignOffset      float64 `json:"alignOffset,omitempty"`
	Intent           string  `json:"intent,omitempty"`
}

func (ts *Toolset) place(ctx context.Context, in placeArgs) (tutorkit.Result, error) {
	a := action.Place{
		Meta:        action.Meta{Note: in.Intent},
		ID:          in.ShapeID,
		ReferenceID: in.ReferenceShapeID,
		Side:        action.Side(in.Side),
		Align:       action.PlaceAlign(or(in.Align, string(action.PlaceCenter))),
		SideOffset:  in.SideOffset,
		AlignOffset: in.AlignOffset,
	}
	return ts.dispatch(ctx, a, func(action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("placed %s %s of %s", in.ShapeID, in.Side, in.ReferenceShapeID), nil)
	})
}

type penArgs struct {
	Points []action.Point `json:"points"`
	Style  string         `json:"style,omitempty" enum:"smooth,straight"`
	Closed bool           `json:"closed,omitempty"`
	Color  string         `json:"color,omitempty"`
	Fill   string         `json:"fill,omitempty" enum:"none,tint,background,solid,pattern"`
	Intent string         `json:"intent,omitempty"`
}

func (ts *Toolset) pen(ctx context.Context, in penArgs) (tutorkit.Result, error) {
	a := action.Pen{
		Meta:   action.Meta{Note: in.Intent},
		Points: in.Points,
		Style:  action.PenStyle(in.Style),
		Closed: in.Closed,
		Color:  or(in.Color, DefaultPenColor),
		Fill:   in.Fill,
	}
	return ts.dispatch(ctx, a, func(applied action.Action) tutorkit.Result {
		return tutorkit.OK(fmt.Sprintf("drew %d points", len(in.Points)), map[string]string{
			"shapeId": applied.(action.Pen).ID,
		})
	})
}
