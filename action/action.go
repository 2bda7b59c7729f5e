// Package action defines the closed set of mutations the agent can apply to the drawing
// board, together with their validation, coercion, approval gating and dispatch.
package action

import "github.com/skosovsky/tutorkit/workspace"

// Kind discriminates Action variants. It is the "_type" field of the wire form.
type Kind string

const (
	KindCreate       Kind = "create"
	KindDelete       Kind = "delete"
	KindMove         Kind = "move"
	KindUpdate       Kind = "update"
	KindAlign        Kind = "align"
	KindDistribute   Kind = "distribute"
	KindStack        Kind = "stack"
	KindRotate       Kind = "rotate"
	KindResize       Kind = "resize"
	KindBringToFront Kind = "bringToFront"
	KindSendToBack   Kind = "sendToBack"
	KindPlace        Kind = "place"
	KindPen          Kind = "pen"
	KindClear        Kind = "clear"
	KindSetView      Kind = "setView"
)

// Kinds lists every variant in declaration order.
func Kinds() []Kind {
	return []Kind{
		KindCreate, KindDelete, KindMove, KindUpdate, KindAlign, KindDistribute, KindStack,
		KindRotate, KindResize, KindBringToFront, KindSendToBack, KindPlace, KindPen,
		KindClear, KindSetView,
	}
}

// Action is one atomic board mutation. The set of implementations is closed.
type Action interface {
	Kind() Kind
	// Intent is a human-readable reason used for logging.
	Intent() string
	isAction()
}

// Meta carries the fields common to every variant.
type Meta struct {
	Note string `json:"intent,omitempty"`
}

// Intent implements Action.
func (m Meta) Intent() string { return m.Note }

func (Meta) isAction() {}

// Shape types understood by the board.
const (
	ShapeGeo  = "geo"
	ShapeText = "text"
	ShapeDraw = "draw"
)

// Point is a page coordinate.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Shape is the payload of Create.
type Shape struct {
	ID    string  `json:"shapeId,omitempty"`
	Type  string  `json:"type"`
	Geo   string  `json:"geo,omitempty"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Text  string  `json:"text,omitempty"`
	Color string  `json:"color,omitempty"`
	Fill  string  `json:"fill,omitempty"`
}

// Patch is a partial property set for Update. Nil fields are left unchanged.
type Patch struct {
	Text  *string  `json:"text,omitempty"`
	Geo   *string  `json:"geo,omitempty"`
	Color *string  `json:"color,omitempty"`
	Fill  *string  `json:"fill,omitempty"`
	X     *float64 `json:"x,omitempty"`
	Y     *float64 `json:"y,omitempty"`
	W     *float64 `json:"w,omitempty"`
	H     *float64 `json:"h,omitempty"`
}

// Empty reports whether the patch changes nothing.
func (p Patch) Empty() bool {
	return p == Patch{}
}

type (
	Create struct {
		Meta
		Shape Shape `json:"shape"`
	}
	Delete struct {
		Meta
		ID string `json:"shapeId"`
	}
	Move struct {
		Meta
		ID string  `json:"shapeId"`
		X  float64 `json:"x"`
		Y  float64 `json:"y"`
	}
	Update struct {
		Meta
		ID    string `json:"shapeId"`
		Patch Patch  `json:"update"`
	}
	Align struct {
		Meta
		IDs       []string  `json:"shapeIds"`
		Alignment Alignment `json:"alignment"`
	}
	// Distribute spaces shapes evenly between the outermost two, or by Gap when positive.
	Distribute struct {
		Meta
		IDs       []string  `json:"shapeIds"`
		Direction Direction `json:"direction"`
		Gap       float64   `json:"gap,omitempty"`
	}
	Stack struct {
		Meta
		IDs       []string  `json:"shapeIds"`
		Direction Direction `json:"direction"`
		Gap       float64   `json:"gap"`
	}
	// Rotate turns shapes around Origin, or around the center of their bounds when nil.
	Rotate struct {
		Meta
		IDs     []string `json:"shapeIds"`
		Degrees float64  `json:"degrees"`
		Origin  *Point   `json:"origin,omitempty"`
	}
	// Resize scales shapes from Origin, or from the top-left of their bounds when nil.
	Resize struct {
		Meta
		IDs    []string `json:"shapeIds"`
		ScaleX float64  `json:"scaleX"`
		ScaleY float64  `json:"scaleY"`
		Origin *Point   `json:"origin,omitempty"`
	}
	BringToFront struct {
		Meta
		IDs []string `json:"shapeIds"`
	}
	SendToBack struct {
		Meta
		IDs []string `json:"shapeIds"`
	}
	// Place positions ID next to ReferenceID.
	Place struct {
		Meta
		ID          string     `json:"shapeId"`
		ReferenceID string     `json:"referenceShapeId"`
		Side        Side       `json:"side"`
		Align       PlaceAlign `json:"align"`
		SideOffset  float64    `json:"sideOffset,omitempty"`
		AlignOffset float64    `json:"alignOffset,omitempty"`
	}
	Pen struct {
		Meta
		ID     string   `json:"shapeId,omitempty"`
		Points []Point  `json:"points"`
		Style  PenStyle `json:"style"`
		Closed bool     `json:"closed,omitempty"`
		Color  string   `json:"color,omitempty"`
		Fill   string   `json:"fill,omitempty"`
	}
	Clear struct {
		Meta
	}
	SetView struct {
		Meta
		Bounds workspace.Box `json:"bounds"`
	}
)

func (Create) Kind() Kind       { return KindCreate }
func (Delete) Kind() Kind       { return KindDelete }
func (Move) Kind() Kind         { return KindMove }
func (Update) Kind() Kind       { return KindUpdate }
func (Align) Kind() Kind        { return KindAlign }
func (Distribute) Kind() Kind   { return KindDistribute }
func (Stack) Kind() Kind        { return KindStack }
func (Rotate) Kind() Kind       { return KindRotate }
func (Resize) Kind() Kind       { return KindResize }
func (BringToFront) Kind() Kind { return KindBringToFront }
func (SendToBack) Kind() Kind   { return KindSendToBack }
func (Place) Kind() Kind        { return KindPlace }
func (Pen) Kind() Kind          { return KindPen }
func (Clear) Kind() Kind        { return KindClear }
func (SetView) Kind() Kind      { return KindSetView }

// New returns the zero value of the variant for k.
func New(k Kind) (Action, bool) {
	switch k {
	case KindCreate:
		return Create{}, true
	case KindDelete:
		return Delete{}, true
	case KindMove:
		return Move{}, true
	case KindUpdate:
		return Update{}, true
	case KindAlign:
		return Align{}, true
	case KindDistribute:
		return Distribute{}, true
	case KindStack:
		return Stack{}, true
	case KindRotate:
		return Rotate{}, true
	case KindResize:
		return Resize{}, true
	case KindBringToFront:
		return BringToFront{}, true
	case KindSendToBack:
		return SendToBack{}, true
	case KindPlace:
		return Place{}, true
	case KindPen:
		return Pen{}, true
	case KindClear:
		return Clear{}, true
	case KindSetView:
		return SetView{}, true
	}
	return nil, false
}
