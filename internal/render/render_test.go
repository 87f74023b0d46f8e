package render

import (
	"image"
	"image/color"
	"math"
	"testing"

	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/survey"
	"mag-surveyor/pkg/colorutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const spacing = 60.0

func node(mag float64) survey.Reading {
	return survey.Reading{Uncalibrated: survey.Vec3{mag, 0, 0}}
}

func rgba(img *image.RGBA, x, y int) color.RGBA {
	return img.RGBAAt(x, y)
}

func TestRenderMarkersAtForwardTransform(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 0, Y: 0}, node(5))
	s.PutObstacle(grid.Cell{X: 1, Y: 0})

	scene := NewScene(s, grid.NewView(0.1, 3), spacing).WithCursor(grid.Cell{X: -1, Y: 0})
	img := Render(scene, 200, 200)

	assert.Equal(t, colorutil.White, rgba(img, 5, 5), "background")
	assert.Equal(t, colorutil.Node, rgba(img, 115, 100), "node fill")
	assert.Equal(t, colorutil.Label, rgba(img, 100, 100), "label centre stroke of 5")
	assert.Equal(t, colorutil.Obstacle, rgba(img, 170, 110))
	assert.Equal(t, colorutil.Cursor, rgba(img, 62, 100), "cursor ring")
	assert.Equal(t, colorutil.White, rgba(img, 40, 100), "cursor is an outline")
}

func TestRenderEdgesToggle(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 0, Y: 0}, node(5))
	s.Put(grid.Cell{X: 0, Y: 1}, node(7))

	scene := NewScene(s, grid.NewView(0.1, 3), spacing)
	img := Render(scene, 200, 200)
	assert.Equal(t, colorutil.Edge, rgba(img, 100, 70))

	scene.ShowEdges = false
	img = Render(scene, 200, 200)
	assert.Equal(t, colorutil.White, rgba(img, 100, 70))
}

func TestRenderFollowsZoom(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 1, Y: 1}, node(5))

	view := grid.NewView(0.1, 3).ZoomBy(0.5)
	img := Render(NewScene(s, view, spacing), 200, 200)
	assert.Equal(t, colorutil.Node, rgba(img, 135, 70))
	assert.Equal(t, colorutil.White, rgba(img, 175, 40), "unzoomed position stays empty")
}

func TestRenderHeatColours(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 0, Y: 0}, node(5))
	s.Put(grid.Cell{X: 0, Y: 1}, node(50))

	scene := NewScene(s, grid.NewView(0.1, 3), spacing)
	scene.Heat = true
	img := Render(scene, 200, 200)
	assert.Equal(t, colorutil.Heat(0), rgba(img, 115, 100))
	assert.Equal(t, colorutil.Heat(1), rgba(img, 115, 40))
}

func TestRenderFloorPlanAnchor(t *testing.T) {
	plan := image.NewRGBA(image.Rect(0, 0, 10, 10))
	red := color.RGBA{R: 255, A: 255}
	for y := 0; y < 10; y++ {
		for x := 0; x < 10; x++ {
			plan.SetRGBA(x, y, red)
		}
	}

	scene := NewScene(survey.NewStore(), grid.NewView(0.1, 3), spacing)
	scene.Plan = &floorplan.Plan{Image: plan}
	img := Render(scene, 200, 200)
	assert.Equal(t, red, rgba(img, 105, 105))
	assert.Equal(t, colorutil.White, rgba(img, 95, 95))

	scene.Plan.Anchor = image.Pt(5, 5)
	img = Render(scene, 200, 200)
	assert.Equal(t, red, rgba(img, 97, 97))
	assert.Equal(t, colorutil.White, rgba(img, 107, 107))
}

func TestRenderDegenerateScene(t *testing.T) {
	img := Render(nil, 4, 4)
	assert.Equal(t, colorutil.White, rgba(img, 1, 1))

	img = Render(&Scene{}, 4, 4)
	assert.Equal(t, colorutil.White, rgba(img, 1, 1))

	img = Render(&Scene{Spacing: spacing, View: grid.NewView(0.1, 3)}, 0, 0)
	require.NotNil(t, img)
	assert.True(t, img.Bounds().Empty())
}

func TestRenderNonFiniteSpacingDrawsNothing(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 0, Y: 0}, node(5))
	for _, sp := range []float64{math.NaN(), math.Inf(1)} {
		img := Render(NewScene(s, grid.NewView(0.1, 3), sp), 50, 50)
		assert.Equal(t, colorutil.White, rgba(img, 25, 25), "spacing %v", sp)
	}
}

func TestRenderFarEdgeIsClipped(t *testing.T) {
	s := survey.NewStore()
	s.Put(grid.Cell{X: 0, Y: 0}, node(5))
	s.Put(grid.Cell{X: 1_000_000_000, Y: 0}, node(7))

	img := Render(NewScene(s, grid.NewView(0.1, 3), spacing), 200, 200)
	assert.Equal(t, colorutil.Edge, rgba(img, 190, 100), "edge runs to the right border")
	assert.Equal(t, colorutil.Edge, rgba(img, 199, 101))
	assert.Equal(t, colorutil.White, rgba(img, 190, 110))
}

func TestClipSegment(t *testing.T) {
	r := image.Rect(0, 0, 200, 100)

	x1, y1, x2, y2, ok := clipSegment(-1e12, 50, 1e12, 50, r)
	require.True(t, ok)
	assert.InDelta(t, 0, x1, 1e-3)
	assert.InDelta(t, 199, x2, 1e-3)
	assert.Equal(t, 50.0, y1)
	assert.Equal(t, 50.0, y2)

	x1, y1, x2, y2, ok = clipSegment(10, 10, 20, 30, r)
	require.True(t, ok)
	assert.Equal(t, [4]float64{10, 10, 20, 30}, [4]float64{x1, y1, x2, y2}, "inside segment unchanged")

	_, _, _, _, ok = clipSegment(-50, -10, 500, -10, r)
	assert.False(t, ok, "above the frame")
	_, _, _, _, ok = clipSegment(-50, 200, -10, 500, r)
	assert.False(t, ok, "misses a corner")
	_, _, _, _, ok = clipSegment(math.NaN(), 0, 10, 10, r)
	assert.False(t, ok)
	_, _, _, _, ok = clipSegment(0, 0, math.Inf(1), 10, r)
	assert.False(t, ok)
}

func TestDrawLabelDigits(t *testing.T) {
	img := image.NewRGBA(image.Rect(0, 0, 20, 10))
	drawLabel(img, "1-", 10, 5, colorutil.Black, 1)
	// "1-" is 7 px wide starting at x=7; the minus bar sits on row 2 of the second glyph.
	assert.Equal(t, colorutil.Black, rgba(img, 8, 3), "stem of 1")
	assert.Equal(t, colorutil.Black, rgba(img, 11, 5))
	assert.Equal(t, color.RGBA{}, rgba(img, 11, 3))
	assert.Equal(t, 7, labelWidth("1-", 1))
	assert.Equal(t, 0, labelWidth("", 3))
}
