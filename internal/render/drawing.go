package render

import (
	"image"
	"image/color"
	"math"
)

// digitPatterns contains 3x5 pixel patterns for digits 0-9.
// Each digit is represented as 5 rows of 3 bits.
var digitPatterns = [10][5]uint8{
	{0b111, 0b101, 0b101, 0b101, 0b111}, // 0
	{0b010, 0b110, 0b010, 0b010, 0b111}, // 1
	{0b111, 0b001, 0b111, 0b100, 0b111}, // 2
	{0b111, 0b001, 0b111, 0b001, 0b111}, // 3
	{0b101, 0b101, 0b111, 0b001, 0b001}, // 4
	{0b111, 0b100, 0b111, 0b001, 0b111}, // 5
	{0b111, 0b100, 0b111, 0b101, 0b111}, // 6
	{0b111, 0b001, 0b001, 0b001, 0b001}, // 7
	{0b111, 0b101, 0b111, 0b101, 0b111}, // 8
	{0b111, 0b101, 0b111, 0b001, 0b111}, // 9
}

var minusPattern = [5]uint8{0b000, 0b000, 0b111, 0b000, 0b000}

func charPattern(ch rune) ([5]uint8, bool) {
	switch {
	case ch >= '0' && ch <= '9':
		return digitPatterns[ch-'0'], true
	case ch == '-':
		return minusPattern, true
	}
	return [5]uint8{}, false
}

func set(dst *image.RGBA, x, y int, col color.RGBA) {
	if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
		dst.SetRGBA(x, y, col)
	}
}

// fillCircle fills every pixel within r of (cx, cy).
func fillCircle(dst *image.RGBA, cx, cy, r float64, col color.RGBA) {
	ring(dst, cx, cy, r, r, col)
}

// ring draws the band between r-thickness and r around (cx, cy).
func ring(dst *image.RGBA, cx, cy, r, thickness float64, col color.RGBA) {
	if r <= 0 {
		return
	}
	bounds := dst.Bounds()
	minX := max(int(math.Floor(cx-r-1)), bounds.Min.X)
	maxX := min(int(math.Ceil(cx+r+1)), bounds.Max.X-1)
	minY := max(int(math.Floor(cy-r-1)), bounds.Min.Y)
	maxY := min(int(math.Ceil(cy+r+1)), bounds.Max.Y-1)

	r2 := r * r
	inner := math.Max(0, r-thickness)
	innerR2 := inner * inner

	for y := minY; y <= maxY; y++ {
		for x := minX; x <= maxX; x++ {
			dx := float64(x) - cx
			dy := float64(y) - cy
			dist2 := dx*dx + dy*dy
			if dist2 <= r2 && (thickness >= r || dist2 >= innerR2) {
				dst.SetRGBA(x, y, col)
			}
		}
	}
}

// fillSquare fills the square of half side h centred on (cx, cy).
func fillSquare(dst *image.RGBA, cx, cy, h float64, col color.RGBA) {
	rect := image.Rect(
		int(math.Round(cx-h)), int(math.Round(cy-h)),
		int(math.Round(cx+h))+1, int(math.Round(cy+h))+1,
	).Intersect(dst.Bounds())
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			dst.SetRGBA(x, y, col)
		}
	}
}

// clipSegment cuts the segment to r (Liang-Barsky). ok is false when nothing
// of it lies inside r or an endpoint is not finite.
func clipSegment(x1, y1, x2, y2 float64, r image.Rectangle) (cx1, cy1, cx2, cy2 float64, ok bool) {
	for _, v := range [4]float64{x1, y1, x2, y2} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return 0, 0, 0, 0, false
		}
	}
	dx, dy := x2-x1, y2-y1
	p := [4]float64{-dx, dx, -dy, dy}
	q := [4]float64{
		x1 - float64(r.Min.X),
		float64(r.Max.X-1) - x1,
		y1 - float64(r.Min.Y),
		float64(r.Max.Y-1) - y1,
	}
	t0, t1 := 0.0, 1.0
	for i := range p {
		if p[i] == 0 {
			if q[i] < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q[i] / p[i]
		if p[i] < 0 {
			if t > t1 {
				return 0, 0, 0, 0, false
			}
			t0 = math.Max(t0, t)
		} else {
			if t < t0 {
				return 0, 0, 0, 0, false
			}
			t1 = math.Min(t1, t)
		}
	}
	return x1 + t0*dx, y1 + t0*dy, x1 + t1*dx, y1 + t1*dy, true
}

// strokeSegment draws the visible part of a segment given in surface
// coordinates, so the cost depends on the frame and not on the length.
func strokeSegment(dst *image.RGBA, x1, y1, x2, y2 float64, col color.RGBA, thickness int) {
	x1, y1, x2, y2, ok := clipSegment(x1, y1, x2, y2, dst.Bounds().Inset(-thickness))
	if !ok {
		return
	}
	drawLine(dst, int(math.Round(x1)), int(math.Round(y1)), int(math.Round(x2)), int(math.Round(y2)), col, thickness)
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(dst *image.RGBA, x1, y1, x2, y2 int, col color.RGBA, thickness int) {
	dx := x2 - x1
	dy := y2 - y1
	if dx < 0 {
		dx = -dx
	}
	if dy < 0 {
		dy = -dy
	}

	sx := 1
	if x1 > x2 {
		sx = -1
	}
	sy := 1
	if y1 > y2 {
		sy = -1
	}

	err := dx - dy

	for {
		for t := -thickness / 2; t <= thickness/2; t++ {
			for s := -thickness / 2; s <= thickness/2; s++ {
				set(dst, x1+s, y1+t, col)
			}
		}

		if x1 == x2 && y1 == y2 {
			break
		}

		e2 := 2 * err
		if e2 > -dy {
			err -= dy
			x1 += sx
		}
		if e2 < dx {
			err += dx
			y1 += sy
		}
	}
}

// labelScale picks the font pixel size for a marker of radius r.
func labelScale(r float64) int {
	return min(max(int(r/8), 1), 6)
}

// labelWidth returns the pixel width of label at the given font scale.
func labelWidth(label string, scale int) int {
	n := len(label)
	if n == 0 {
		return 0
	}
	return n*3*scale + (n-1)*scale
}

// drawLabel draws label centred on (cx, cy). Characters other than digits and
// '-' are left blank.
func drawLabel(dst *image.RGBA, label string, cx, cy int, col color.RGBA, scale int) {
	charWidth := 3 * scale
	charHeight := 5 * scale
	startX := cx - labelWidth(label, scale)/2
	startY := cy - charHeight/2

	for i, ch := range label {
		pattern, ok := charPattern(ch)
		if !ok {
			continue
		}
		charX := startX + i*(charWidth+scale)
		for row := 0; row < 5; row++ {
			for c := 0; c < 3; c++ {
				if pattern[row]&(1<<(2-c)) == 0 {
					continue
				}
				for dy := 0; dy < scale; dy++ {
					for dx := 0; dx < scale; dx++ {
						set(dst, charX+c*scale+dx, startY+row*scale+dy, col)
					}
				}
			}
		}
	}
}
