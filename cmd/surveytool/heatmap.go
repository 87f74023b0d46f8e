package main

import (
	"fmt"
	"image/color"
	"math"

	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/survey"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/palette"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// Field selects which vector a magnitude is taken from.
type Field string

const (
	FieldUncalibrated Field = "uncal"
	FieldCalibrated   Field = "cal"
)

func ParseField(s string) (Field, error) {
	switch f := Field(s); f {
	case FieldUncalibrated, FieldCalibrated:
		return f, nil
	}
	return "", fmt.Errorf("unknown field %q (want uncal or cal)", s)
}

// Magnitudes returns the unrounded field norm of every node.
func Magnitudes(store *survey.Store, field Field) map[grid.Cell]float64 {
	out := make(map[grid.Cell]float64)
	for cell, e := range store.All() {
		if e.IsObstacle() {
			continue
		}
		v := e.Reading.Uncalibrated
		if field == FieldCalibrated {
			v = e.Reading.Calibrated
		}
		out[cell] = v.Norm()
	}
	return out
}

// cellGrid lays node magnitudes over the bounding box of all recorded
// cells. Cells without a node are NaN.
type cellGrid struct {
	minX, minY int
	cols, rows int
	z          []float64
}

// maxHeatCells bounds the bounding box of a heat map.
const maxHeatCells = 1 << 22

func newCellGrid(store *survey.Store, field Field) (*cellGrid, error) {
	cells := store.Cells()
	if len(cells) == 0 {
		return &cellGrid{}, nil
	}
	minX, maxX := cells[0].X, cells[0].X
	minY, maxY := cells[0].Y, cells[0].Y
	for _, c := range cells[1:] {
		minX, maxX = min(minX, c.X), max(maxX, c.X)
		minY, maxY = min(minY, c.Y), max(maxY, c.Y)
	}
	cols, okX := span(minX, maxX)
	rows, okY := span(minY, maxY)
	if !okX || !okY || cols*rows > maxHeatCells {
		return nil, fmt.Errorf("heatmap: cells span x %d..%d, y %d..%d; more than %d cells", minX, maxX, minY, maxY, maxHeatCells)
	}
	g := &cellGrid{minX: minX, minY: minY, cols: cols, rows: rows}
	g.z = make([]float64, g.cols*g.rows)
	for i := range g.z {
		g.z[i] = math.NaN()
	}
	for cell, m := range Magnitudes(store, field) {
		g.z[(cell.Y-minY)*g.cols+(cell.X-minX)] = m
	}
	return g, nil
}

// span returns hi-lo+1 without overflowing; ok is false above maxHeatCells.
func span(lo, hi int) (int, bool) {
	d := uint64(hi) - uint64(lo)
	if d >= maxHeatCells {
		return 0, false
	}
	return int(d) + 1, true
}

func (g *cellGrid) Dims() (c, r int)   { return g.cols, g.rows }
func (g *cellGrid) Z(c, r int) float64 { return g.z[r*g.cols+c] }
func (g *cellGrid) X(c int) float64    { return float64(g.minX + c) }
func (g *cellGrid) Y(r int) float64    { return float64(g.minY + r) }

// zRange ignores NaN cells. ok is false when there are no values.
func (g *cellGrid) zRange() (lo, hi float64, ok bool) {
	lo, hi = math.Inf(1), math.Inf(-1)
	for _, v := range g.z {
		if math.IsNaN(v) {
			continue
		}
		lo, hi = math.Min(lo, v), math.Max(hi, v)
		ok = true
	}
	return lo, hi, ok
}

// HeatMapPlot builds a plot of node magnitudes with obstacles drawn as
// crosses. Grid Y grows upward, matching the plot's axes.
func HeatMapPlot(store *survey.Store, field Field) (*plot.Plot, error) {
	g, err := newCellGrid(store, field)
	if err != nil {
		return nil, err
	}
	lo, hi, ok := g.zRange()
	if !ok {
		return nil, fmt.Errorf("heatmap: no nodes recorded")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("Magnetic field (%s), %d nodes", field, len(store.Nodes()))
	p.X.Label.Text = "X"
	p.Y.Label.Text = "Y"

	hm := plotter.NewHeatMap(g, palette.Heat(24, 1))
	hm.NaN = color.Transparent
	hm.Min, hm.Max = lo, hi
	if hi == lo {
		hm.Max = lo + 1
	}
	p.Add(hm)

	if obs := store.Obstacles(); len(obs) > 0 {
		pts := make(plotter.XYs, len(obs))
		for i, c := range obs {
			pts[i].X, pts[i].Y = float64(c.X), float64(c.Y)
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return nil, fmt.Errorf("heatmap obstacles: %w", err)
		}
		sc.GlyphStyle.Shape = draw.CrossGlyph{}
		sc.GlyphStyle.Color = color.RGBA{R: 200, G: 30, B: 30, A: 255}
		sc.GlyphStyle.Radius = vg.Points(4)
		p.Add(sc)
		p.Legend.Add("obstacle", sc)
	}
	return p, nil
}

// SaveHeatMap writes the plot to path; the format follows the extension.
func SaveHeatMap(store *survey.Store, field Field, path string, sizeCm float64) error {
	p, err := HeatMapPlot(store, field)
	if err != nil {
		return err
	}
	size := vg.Length(sizeCm) * vg.Centimeter
	if err := p.Save(size, size, path); err != nil {
		return fmt.Errorf("save heatmap: %w", err)
	}
	return nil
}
