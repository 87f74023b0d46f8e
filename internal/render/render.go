// Package render draws the survey grid state onto a raster image.
package render

import (
	"image"
	"image/color"
	"math"
	"strconv"

	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/survey"
	"mag-surveyor/pkg/colorutil"

	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"
)

// Marker sizes as a fraction of the scaled cell spacing.
const (
	NodeRadius    = 1.0 / 3
	ObstacleHalf  = 0.3
	CursorRadius  = 0.4
	CursorRingPx  = 3
	EdgeThickness = 2
)

// Scene is everything needed to draw one frame.
type Scene struct {
	Plan      *floorplan.Plan
	Spacing   float64
	View      grid.View
	Nodes     []survey.Node
	Obstacles []grid.Cell
	Edges     []survey.Edge
	// nil hides the cursor
	Cursor    *grid.Cell
	ShowEdges bool
	// Heat colours nodes by magnitude instead of a flat fill.
	Heat bool
}

// NewScene captures the drawable parts of store.
func NewScene(store *survey.Store, view grid.View, spacing float64) *Scene {
	return &Scene{
		Spacing:   spacing,
		View:      view,
		Nodes:     store.Nodes(),
		Obstacles: store.Obstacles(),
		Edges:     store.Edges(),
		ShowEdges: true,
	}
}

// WithCursor sets the cursor cell.
func (s *Scene) WithCursor(c grid.Cell) *Scene {
	s.Cursor = &c
	return s
}

// Render allocates a w×h image and draws the scene onto it.
func Render(s *Scene, w, h int) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, max(w, 0), max(h, 0)))
	Draw(dst, s)
	return dst
}

// Draw paints, back to front: background, floor plan, edges, nodes,
// obstacles and the cursor.
func Draw(dst *image.RGBA, s *Scene) {
	draw.Draw(dst, dst.Bounds(), image.NewUniform(colorutil.White), image.Point{}, draw.Src)
	if s == nil || !finitePositive(s.Spacing) || !finitePositive(s.View.Scale) {
		return
	}
	b := dst.Bounds()
	size := grid.Size{W: float64(b.Dx()), H: float64(b.Dy())}
	k := s.View.Scale * s.Spacing

	pos := func(c grid.Cell) (float64, float64) {
		px, py := grid.ToCanvas(c, s.View, s.Spacing, size)
		return px + float64(b.Min.X), py + float64(b.Min.Y)
	}

	if s.Plan != nil && s.Plan.Image != nil {
		drawPlan(dst, s, size)
	}

	if s.ShowEdges {
		for _, e := range s.Edges {
			x1, y1 := pos(e.From)
			x2, y2 := pos(e.To)
			strokeSegment(dst, x1, y1, x2, y2, colorutil.Edge, EdgeThickness)
		}
	}

	lo, hi := magnitudeRange(s.Nodes)
	r := k * NodeRadius
	for _, n := range s.Nodes {
		cx, cy := pos(n.Cell)
		fill := colorutil.Node
		if s.Heat {
			fill = colorutil.Heat(colorutil.Normalize(float64(n.Magnitude), lo, hi))
		}
		fillCircle(dst, cx, cy, r, fill)
		drawLabel(dst, strconv.Itoa(n.Magnitude), round(cx), round(cy), labelColor(fill), labelScale(r))
	}

	for _, c := range s.Obstacles {
		cx, cy := pos(c)
		fillSquare(dst, cx, cy, k*ObstacleHalf, colorutil.Obstacle)
	}

	if s.Cursor != nil {
		cx, cy := pos(*s.Cursor)
		ring(dst, cx, cy, k*CursorRadius, CursorRingPx, colorutil.Cursor)
	}
}

// drawPlan scales the floor plan with the view so that its anchor pixel sits
// on cell (0,0).
func drawPlan(dst *image.RGBA, s *Scene, size grid.Size) {
	ppc := s.Plan.PixelsPerCell(s.Spacing)
	if ppc <= 0 {
		return
	}
	k := s.View.Scale * s.Spacing / ppc
	ox, oy := grid.ToCanvas(grid.Cell{}, s.View, s.Spacing, size)
	ox += float64(dst.Bounds().Min.X)
	oy += float64(dst.Bounds().Min.Y)
	ax, ay := float64(s.Plan.Anchor.X), float64(s.Plan.Anchor.Y)

	m := f64.Aff3{
		k, 0, ox - k*ax,
		0, k, oy - k*ay,
	}
	src := s.Plan.Image
	draw.ApproxBiLinear.Transform(dst, m, src, src.Bounds(), draw.Over, nil)
}

func magnitudeRange(nodes []survey.Node) (lo, hi float64) {
	if len(nodes) == 0 {
		return 0, 0
	}
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, n := range nodes {
		lo = math.Min(lo, float64(n.Magnitude))
		hi = math.Max(hi, float64(n.Magnitude))
	}
	return lo, hi
}

// labelColor picks black or white text for legibility on fill.
func labelColor(fill color.RGBA) color.RGBA {
	lum := 0.299*float64(fill.R) + 0.587*float64(fill.G) + 0.114*float64(fill.B)
	if lum > 150 {
		return colorutil.Black
	}
	return colorutil.Label
}

func finitePositive(v float64) bool {
	return v > 0 && !math.IsInf(v, 0)
}

func round(v float64) int {
	return int(math.Round(v))
}
