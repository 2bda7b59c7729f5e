package workspace

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBox_Collides(t *testing.T) {
	view := Box{X: 0, Y: 0, W: 100, H: 100}
	assert.True(t, view.Collides(Box{X: 50, Y: 50, W: 10, H: 10}))
	assert.True(t, view.Collides(Box{X: 100, Y: 0, W: 10, H: 10}), "touching edges collide")
	assert.False(t, view.Collides(Box{X: 101, Y: 0, W: 10, H: 10}))
	assert.False(t, view.Collides(Box{X: 0, Y: -20, W: 10, H: 10}))
}

func TestBox_Union(t *testing.T) {
	u := Box{X: 0, Y: 0, W: 10, H: 10}.Union(Box{X: 20, Y: -5, W: 5, H: 5})
	assert.Equal(t, Box{X: 0, Y: -5, W: 25, H: 15}, u)
	cx, cy := u.Center()
	assert.InDelta(t, 12.5, cx, 1e-9)
	assert.InDelta(t, 2.5, cy, 1e-9)
}

func TestViewContext_Limit(t *testing.T) {
	v := ViewContext{
		BlurryShapes:       make([]ShapeSummary, 70),
		PeripheralClusters: make([]Cluster, 40),
		SelectedShapes:     make([]ShapeSummary, 3),
	}
	got := v.Limit(DefaultLimits)
	assert.Len(t, got.BlurryShapes, 60)
	assert.Len(t, got.PeripheralClusters, 32)
	assert.Len(t, got.SelectedShapes, 3)
	assert.Len(t, v.BlurryShapes, 70)
}

func TestShapeSummary_JSON(t *testing.T) {
	b, err := json.Marshal(ShapeSummary{Type: "geo", ID: "shape:a", X: 1, Y: 2, W: 3, H: 4, Geo: "ellipse"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"_type":"geo","shapeId":"shape:a","x":1,"y":2,"w":3,"h":4,"geo":"ellipse"}`, string(b))
}
