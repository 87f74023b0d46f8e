package grid

import (
	"errors"
	"fmt"

	"gonum.org/v1/gonum/mat"
)

const (
	DefaultMinScale = 0.1
	DefaultMaxScale = 3.0
)

// ErrSingular is returned when a view cannot be inverted (zero scale or spacing).
var ErrSingular = errors.New("grid: view transform is not invertible")

// View is the pan/zoom state of the rendering surface.
type View struct {
	Scale    float64
	OffsetX  float64
	OffsetY  float64
	MinScale float64
	MaxScale float64
}

// NewView returns an unpanned view at scale 1 bounded to [minScale, maxScale].
func NewView(minScale, maxScale float64) View {
	if minScale <= 0 {
		minScale = DefaultMinScale
	}
	if maxScale < minScale {
		maxScale = minScale
	}
	v := View{Scale: 1, MinScale: minScale, MaxScale: maxScale}
	v.Scale = v.clamp(1)
	return v
}

func (v View) clamp(scale float64) float64 {
	if v.MinScale > 0 && scale < v.MinScale {
		return v.MinScale
	}
	if v.MaxScale > 0 && scale > v.MaxScale {
		return v.MaxScale
	}
	return scale
}

// Pan moves the view by (dx, dy) surface pixels.
func (v View) Pan(dx, dy float64) View {
	v.OffsetX += dx
	v.OffsetY += dy
	return v
}

// ZoomBy multiplies the scale by factor and clamps it to the view bounds.
// The offset is left untouched, so zooming happens about the surface centre.
func (v View) ZoomBy(factor float64) View {
	if factor <= 0 {
		return v
	}
	v.Scale = v.clamp(v.Scale * factor)
	return v
}

// CenterOn returns a view with the same scale whose offset puts cell c in the
// middle of the surface.
func (v View) CenterOn(c Cell, spacing float64) View {
	v.OffsetX = -v.Scale * float64(c.X) * spacing
	v.OffsetY = v.Scale * float64(c.Y) * spacing
	return v
}

// Matrix returns the homogeneous transform taking (x, y, 1) in cell units to
// (px, py, 1) on a surface of the given size.
func (v View) Matrix(spacing float64, size Size) *mat.Dense {
	cx, cy := size.Center()
	k := v.Scale * spacing
	return mat.NewDense(3, 3, []float64{
		k, 0, cx + v.OffsetX,
		0, -k, cy + v.OffsetY,
		0, 0, 1,
	})
}

// FromCanvas maps a surface position back to fractional cell coordinates.
func FromCanvas(px, py float64, v View, spacing float64, size Size) (x, y float64, err error) {
	if v.Scale == 0 || spacing == 0 {
		return 0, 0, ErrSingular
	}
	var inv mat.Dense
	if err := inv.Inverse(v.Matrix(spacing, size)); err != nil {
		return 0, 0, fmt.Errorf("%w: %v", ErrSingular, err)
	}
	var out mat.VecDense
	out.MulVec(&inv, mat.NewVecDense(3, []float64{px, py, 1}))
	return out.AtVec(0), out.AtVec(1), nil
}
