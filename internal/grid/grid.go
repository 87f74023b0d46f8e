// Package grid maps survey grid cells to positions on a rendering surface.
package grid

import (
	"fmt"
	"math"
)

// DefaultSpacing is the canvas distance between neighbouring cells, in pixels,
// when neither a direct value nor a floor-plan derived value is available.
const DefaultSpacing = 150.0

// Cell identifies one surveyed location on the floor grid.
// X grows to the right, Y grows upwards.
type Cell struct {
	X int `json:"x" yaml:"x"`
	Y int `json:"y" yaml:"y"`
}

// Add returns the cell offset by (dx, dy).
func (c Cell) Add(dx, dy int) Cell {
	return Cell{X: c.X + dx, Y: c.Y + dy}
}

// Less orders cells by X, then Y.
func (c Cell) Less(other Cell) bool {
	if c.X != other.X {
		return c.X < other.X
	}
	return c.Y < other.Y
}

func (c Cell) String() string {
	return fmt.Sprintf("(%d, %d)", c.X, c.Y)
}

// Size is the pixel size of a rendering surface.
type Size struct {
	W float64
	H float64
}

// Center returns the middle of the surface.
func (s Size) Center() (float64, float64) {
	return s.W / 2, s.H / 2
}

// Spacing derives the cell spacing.
// A positive direct value wins; otherwise the floor-plan height is divided by
// the number of cells it spans; otherwise DefaultSpacing is used.
func Spacing(imageHeightPx int, gridSpan, direct float64) float64 {
	if direct > 0 {
		return direct
	}
	if imageHeightPx > 0 && gridSpan > 0 {
		return float64(imageHeightPx) / gridSpan
	}
	return DefaultSpacing
}

// ToCanvas returns the surface position of a cell under the given view.
// The unscaled position is (W/2 + x*spacing, H/2 - y*spacing); it is scaled
// about the surface centre and then translated by the view offset.
func ToCanvas(c Cell, v View, spacing float64, size Size) (px, py float64) {
	return PointToCanvas(float64(c.X), float64(c.Y), v, spacing, size)
}

// PointToCanvas is ToCanvas for fractional cell coordinates.
func PointToCanvas(x, y float64, v View, spacing float64, size Size) (px, py float64) {
	cx, cy := size.Center()
	px = cx + v.Scale*x*spacing + v.OffsetX
	py = cy - v.Scale*y*spacing + v.OffsetY
	return px, py
}

// CellAt returns the cell nearest to a surface position.
func CellAt(px, py float64, v View, spacing float64, size Size) (Cell, error) {
	x, y, err := FromCanvas(px, py, v, spacing, size)
	if err != nil {
		return Cell{}, err
	}
	return Cell{X: int(math.Round(x)), Y: int(math.Round(y))}, nil
}
