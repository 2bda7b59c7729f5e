package board

import (
	"bytes"
	"cmp"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"math"
	"slices"

	"github.com/skosovsky/tutorkit/workspace"
)

// ViewContext summarizes what the agent can see: shapes in the viewport back to front,
// clusters of shapes outside it and the current selection.
func (b *Board) ViewContext(ctx context.Context) (workspace.ViewContext, error) {
	if err := ctx.Err(); err != nil {
		return workspace.ViewContext{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()

	view := b.st.view
	vc := workspace.ViewContext{
		Bounds:             view,
		BlurryShapes:       []workspace.ShapeSummary{},
		PeripheralClusters: []workspace.Cluster{},
		SelectedShapes:     []workspace.ShapeSummary{},
	}
	var outside []*Shape
	for _, id := range b.st.order {
		s := b.st.shapes[id]
		if view.Collides(s.Bounds()) {
			vc.BlurryShapes = append(vc.BlurryShapes, s.Summary())
		} else {
			outside = append(outside, s)
		}
	}
	vc.PeripheralClusters = clusters(view, outside)
	for _, id := range b.selected {
		vc.SelectedShapes = append(vc.SelectedShapes, b.st.shapes[id].Summary())
	}
	return vc.Limit(b.limits), nil
}

type cell struct{ col, row int }

// clusters buckets off-screen shapes into viewport-sized cells, largest first.
func clusters(view workspace.Box, shapes []*Shape) []workspace.Cluster {
	w, h := math.Max(view.W, 1), math.Max(view.H, 1)
	byCell := make(map[cell]*workspace.Cluster)
	var keys []cell
	for _, s := range shapes {
		cx, cy := s.Bounds().Center()
		k := cell{col: int(math.Floor((cx - view.X) / w)), row: int(math.Floor((cy - view.Y) / h))}
		c, ok := byCell[k]
		if !ok {
			byCell[k] = &workspace.Cluster{Bounds: s.Bounds(), Count: 1}
			keys = append(keys, k)
			continue
		}
		c.Bounds = c.Bounds.Union(s.Bounds())
		c.Count++
	}
	out := make([]workspace.Cluster, 0, len(keys))
	for _, k := range keys {
		out = append(out, *byCell[k])
	}
	slices.SortStableFunc(out, func(a, b workspace.Cluster) int { return cmp.Compare(b.Count, a.Count) })
	return out
}

// VisibleText lists the text of shapes intersecting the viewport, top to bottom.
func (b *Board) VisibleText(ctx context.Context) ([]workspace.TextItem, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	items := []workspace.TextItem{}
	for _, id := range b.st.order {
		s := b.st.shapes[id]
		if s.Text == "" || !b.st.view.Collides(s.Bounds()) {
			continue
		}
		items = append(items, workspace.TextItem{ID: s.ID, Text: s.Text, X: s.X, Y: s.Y})
	}
	slices.SortStableFunc(items, func(a, b workspace.TextItem) int {
		return cmp.Or(cmp.Compare(a.Y, b.Y), cmp.Compare(a.X, b.X))
	})
	return items, nil
}

// Lookup returns the summary of one shape.
func (b *Board) Lookup(ctx context.Context, id string) (workspace.ShapeSummary, error) {
	if err := ctx.Err(); err != nil {
		return workspace.ShapeSummary{}, err
	}
	b.mu.RLock()
	defer b.mu.RUnlock()
	s, err := b.st.get(id)
	if err != nil {
		return workspace.ShapeSummary{}, err
	}
	return s.Summary(), nil
}

// Screenshots are scaled down to fit within this many pixels.
const (
	maxShotWidth  = 640
	maxShotHeight = 640
)

var palette = map[string]color.RGBA{
	"black":        {0x1d, 0x1d, 0x1d, 0xff},
	"grey":         {0x9f, 0xa8, 0xb2, 0xff},
	"light-violet": {0xe0, 0x85, 0xf4, 0xff},
	"violet":       {0xae, 0x3e, 0xc9, 0xff},
	"blue":         {0x44, 0x65, 0xe9, 0xff},
	"light-blue":   {0x4b, 0xa1, 0xf1, 0xff},
	"yellow":       {0xf1, 0xac, 0x4b, 0xff},
	"orange":       {0xe1, 0x69, 0x19, 0xff},
	"green":        {0x09, 0x92, 0x68, 0xff},
	"light-green":  {0x4c, 0xb0, 0x5e, 0xff},
	"light-red":    {0xf8, 0x77, 0x77, 0xff},
	"red":          {0xe0, 0x31, 0x31, 0xff},
	"white":        {0xff, 0xff, 0xff, 0xff},
}

// Screenshot renders the viewport as a PNG data URL. Shapes are drawn as their
// bounding boxes, filled when the fill style asks for it.
func (b *Board) Screenshot(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	b.mu.RLock()
	view := b.st.view
	var visible []Shape
	for _, id := range b.st.order {
		if s := b.st.shapes[id]; view.Collides(s.Bounds()) {
			visible = append(visible, *s)
		}
	}
	b.mu.RUnlock()

	if len(visible) == 0 || view.W <= 0 || view.H <= 0 {
		return "", workspace.ErrNoImage
	}
	scale := min(1, maxShotWidth/view.W, maxShotHeight/view.H)
	width := max(1, min(maxShotWidth, int(math.Ceil(view.W*scale))))
	height := max(1, min(maxShotHeight, int(math.Ceil(view.H*scale))))
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)

	// Coordinates are clamped one pixel past the image so off-canvas edges stay hidden.
	project := func(x, y float64) image.Point {
		px := math.Max(-1, math.Min(float64(width+1), (x-view.X)*scale))
		py := math.Max(-1, math.Min(float64(height+1), (y-view.Y)*scale))
		return image.Pt(int(px), int(py))
	}
	for _, s := range visible {
		c, ok := palette[s.Color]
		if !ok {
			c = palette["black"]
		}
		r := image.Rectangle{Min: project(s.X, s.Y), Max: project(s.X+s.W, s.Y+s.H)}.Canon()
		if s.Fill != "" && s.Fill != "none" {
			fill := c
			fill.A = 0x60
			draw.Draw(img, r.Intersect(img.Bounds()), image.NewUniform(fill), image.Point{}, draw.Over)
		}
		outline(img, r, c)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return "", fmt.Errorf("encode screenshot: %w", err)
	}
	return "data:image/png;base64," + base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}

func outline(img *image.RGBA, r image.Rectangle, c color.RGBA) {
	b := img.Bounds()
	x0, x1 := max(r.Min.X, b.Min.X), min(r.Max.X, b.Max.X-1)
	y0, y1 := max(r.Min.Y, b.Min.Y), min(r.Max.Y, b.Max.Y-1)
	for x := x0; x <= x1; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y, c)
	}
	for y := y0; y <= y1; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X, y, c)
	}
}
