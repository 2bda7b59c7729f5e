// Package workspace holds the value types shared by the drawing board, the code editor,
// the lesson document and the context synchronization engine.
package workspace

import (
	"context"
	"errors"
	"math"
)

var (
	// ErrShapeNotFound is returned when an id does not name a shape on the board.
	ErrShapeNotFound = errors.New("shape not found")
	// ErrNoImage is returned by Viewer.Screenshot when there is nothing to capture.
	ErrNoImage = errors.New("nothing to capture")
)

// Box is an axis-aligned rectangle in page coordinates.
type Box struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
	W float64 `json:"w"`
	H float64 `json:"h"`
}

// MaxX is the right edge.
func (b Box) MaxX() float64 { return b.X + b.W }

// MaxY is the bottom edge.
func (b Box) MaxY() float64 { return b.Y + b.H }

// Center returns the midpoint.
func (b Box) Center() (float64, float64) { return b.X + b.W/2, b.Y + b.H/2 }

// Collides reports whether the boxes overlap or touch.
func (b Box) Collides(o Box) bool {
	return b.X <= o.MaxX() && o.X <= b.MaxX() && b.Y <= o.MaxY() && o.Y <= b.MaxY()
}

// Union returns the smallest box containing both.
func (b Box) Union(o Box) Box {
	x, y := math.Min(b.X, o.X), math.Min(b.Y, o.Y)
	return Box{X: x, Y: y, W: math.Max(b.MaxX(), o.MaxX()) - x, H: math.Max(b.MaxY(), o.MaxY()) - y}
}

// ShapeSummary is the compact description of a shape sent to the agent.
type ShapeSummary struct {
	Type  string  `json:"_type"`
	ID    string  `json:"shapeId"`
	X     float64 `json:"x"`
	Y     float64 `json:"y"`
	W     float64 `json:"w"`
	H     float64 `json:"h"`
	Geo   string  `json:"geo,omitempty"`
	Text  string  `json:"text,omitempty"`
	Color string  `json:"color,omitempty"`
	Fill  string  `json:"fill,omitempty"`
}

// Bounds returns the summary's rectangle.
func (s ShapeSummary) Bounds() Box { return Box{X: s.X, Y: s.Y, W: s.W, H: s.H} }

// Cluster groups shapes outside the viewport.
type Cluster struct {
	Bounds Box `json:"bounds"`
	Count  int `json:"numberOfShapes"`
}

// ViewContext is the agent's summary of the drawing board.
type ViewContext struct {
	Bounds             Box            `json:"bounds"`
	BlurryShapes       []ShapeSummary `json:"blurryShapes"`
	PeripheralClusters []Cluster      `json:"peripheralClusters"`
	SelectedShapes     []ShapeSummary `json:"selectedShapes"`
}

// Limits bounds the size of a ViewContext.
type Limits struct {
	Shapes   int
	Clusters int
	Selected int
}

// DefaultLimits keeps at most 60 shapes, 32 clusters and 20 selected shapes.
var DefaultLimits = Limits{Shapes: 60, Clusters: 32, Selected: 20}

// Limit truncates each list to l. Non-positive limits leave a list untouched.
func (v ViewContext) Limit(l Limits) ViewContext {
	v.BlurryShapes = head(v.BlurryShapes, l.Shapes)
	v.PeripheralClusters = head(v.PeripheralClusters, l.Clusters)
	v.SelectedShapes = head(v.SelectedShapes, l.Selected)
	return v
}

func head[T any](s []T, n int) []T {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n:n]
}

// TextItem is a piece of visible text on the board.
type TextItem struct {
	ID   string  `json:"shapeId"`
	Text string  `json:"text"`
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
}

// CodeFile is the active file of the code editor.
type CodeFile struct {
	Name     string `json:"name"`
	Language string `json:"language"`
	Content  string `json:"content"`
}

// RunResult aggregates the output of one sandbox run.
type RunResult struct {
	Stdout string   `json:"stdout"`
	Stderr string   `json:"stderr"`
	Info   []string `json:"info"`
}

// Viewer is the read side of the drawing board.
type Viewer interface {
	ViewContext(ctx context.Context) (ViewContext, error)
	VisibleText(ctx context.Context) ([]TextItem, error)
	// Lookup returns ErrShapeNotFound for unknown ids.
	Lookup(ctx context.Context, id string) (ShapeSummary, error)
	// Screenshot renders the viewport as a data URL, or returns ErrNoImage.
	Screenshot(ctx context.Context) (string, error)
}
