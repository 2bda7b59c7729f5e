package action

import (
	"slices"
	"strings"
)

// Geo kinds accepted by the board.
var geoKinds = []string{
	"cloud", "rectangle", "ellipse", "triangle", "diamond", "pentagon", "hexagon", "octagon",
	"star", "rhombus", "rhombus-2", "oval", "trapezoid", "arrow-right", "arrow-left", "arrow-up",
	"arrow-down", "x-box", "check-box", "heart",
}

var geoSynonyms = map[string]string{
	"circle":        "ellipse",
	"square":        "rectangle",
	"rect":          "rectangle",
	"box":           "rectangle",
	"arrow":         "arrow-right",
	"parallelogram": "rhombus",
	"checkbox":      "check-box",
	"xbox":          "x-box",
}

// DefaultGeo is the fallback for unrecognized geo kinds.
const DefaultGeo = "rectangle"

// GeoKinds returns the canonical geo allow-list.
func GeoKinds() []string { return slices.Clone(geoKinds) }

// CoerceGeo maps in onto the allow-list. Synonyms are rewritten and anything else falls
// back to DefaultGeo. changed reports whether the result differs from in.
func CoerceGeo(in string) (geo string, changed bool) {
	norm := strings.ToLower(strings.TrimSpace(in))
	switch {
	case slices.Contains(geoKinds, norm):
		geo = norm
	case geoSynonyms[norm] != "":
		geo = geoSynonyms[norm]
	default:
		geo = DefaultGeo
	}
	return geo, geo != in
}

var colors = []string{
	"black", "grey", "light-violet", "violet", "blue", "light-blue", "yellow", "orange",
	"green", "light-green", "light-red", "red", "white",
}

var colorSynonyms = map[string]string{
	"gray":   "grey",
	"purple": "violet",
	"pink":   "light-red",
	"cyan":   "light-blue",
	"lime":   "light-green",
	"lilac":  "light-violet",
}

// CoerceColor normalizes a color name. ok is false when the name is not recognized.
func CoerceColor(in string) (color string, ok bool) {
	norm := strings.ToLower(strings.TrimSpace(in))
	if slices.Contains(colors, norm) {
		return norm, true
	}
	if c, found := colorSynonyms[norm]; found {
		return c, true
	}
	return "", false
}

var fills = []string{"none", "tint", "background", "solid", "pattern"}

// ValidFill reports whether f is a known fill style.
func ValidFill(f string) bool { return slices.Contains(fills, f) }

// Alignment is the edge or axis Align lines shapes up on.
type Alignment string

const (
	AlignTop              Alignment = "top"
	AlignBottom           Alignment = "bottom"
	AlignLeft             Alignment = "left"
	AlignRight            Alignment = "right"
	AlignCenterHorizontal Alignment = "center-horizontal"
	AlignCenterVertical   Alignment = "center-vertical"
)

// Valid reports whether a is a known alignment.
func (a Alignment) Valid() bool {
	switch a {
	case AlignTop, AlignBottom, AlignLeft, AlignRight, AlignCenterHorizontal, AlignCenterVertical:
		return true
	}
	return false
}

// Direction is the axis of Distribute and Stack.
type Direction string

const (
	Horizontal Direction = "horizontal"
	Vertical   Direction = "vertical"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool { return d == Horizontal || d == Vertical }

// Side is where Place puts a shape relative to its reference.
type Side string

const (
	SideTop    Side = "top"
	SideBottom Side = "bottom"
	SideLeft   Side = "left"
	SideRight  Side = "right"
)

// Valid reports whether s is a known side.
func (s Side) Valid() bool {
	return s == SideTop || s == SideBottom || s == SideLeft || s == SideRight
}

// PlaceAlign aligns a placed shape along the reference's other axis.
type PlaceAlign string

const (
	PlaceStart  PlaceAlign = "start"
	PlaceCenter PlaceAlign = "center"
	PlaceEnd    PlaceAlign = "end"
)

// Valid reports whether a is a known placement alignment.
func (a PlaceAlign) Valid() bool { return a == PlaceStart || a == PlaceCenter || a == PlaceEnd }

// PenStyle selects how pen points are joined.
type PenStyle string

const (
	PenSmooth   PenStyle = "smooth"
	PenStraight PenStyle = "straight"
)

// Valid reports whether s is a known pen style.
func (s PenStyle) Valid() bool { return s == PenSmooth || s == PenStraight }
