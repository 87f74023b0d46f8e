// Package colorutil provides the shared survey palette.
package colorutil

import (
	"image/color"
	"math"
)

// Marker colors used by the render surface and the survey tool.
var (
	Black    = color.RGBA{R: 0, G: 0, B: 0, A: 255}
	White    = color.RGBA{R: 255, G: 255, B: 255, A: 255}
	Blue     = color.RGBA{R: 0, G: 0, B: 255, A: 255}
	DarkGray = color.RGBA{R: 64, G: 64, B: 64, A: 255}
	Gray     = color.RGBA{R: 128, G: 128, B: 128, A: 255}

	Node     = Blue
	Label    = White
	Obstacle = color.RGBA{R: 200, G: 30, B: 30, A: 255}
	Edge     = Gray
	Cursor   = DarkGray
)

// Lerp blends a towards b by t in [0,1].
func Lerp(a, b color.RGBA, t float64) color.RGBA {
	t = math.Max(0, math.Min(1, t))
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: mix(a.A, b.A)}
}

// heatStops run blue, cyan, green, yellow, red.
var heatStops = []color.RGBA{
	{R: 0, G: 0, B: 255, A: 255},
	{R: 0, G: 255, B: 255, A: 255},
	{R: 0, G: 255, B: 0, A: 255},
	{R: 255, G: 255, B: 0, A: 255},
	{R: 255, G: 0, B: 0, A: 255},
}

// Heat maps t in [0,1] onto a blue-to-red ramp. Values outside the range are
// clamped; NaN maps to the low end.
func Heat(t float64) color.RGBA {
	if math.IsNaN(t) || t <= 0 {
		return heatStops[0]
	}
	if t >= 1 {
		return heatStops[len(heatStops)-1]
	}
	pos := t * float64(len(heatStops)-1)
	i := int(pos)
	return Lerp(heatStops[i], heatStops[i+1], pos-float64(i))
}

// Normalize maps v from [lo,hi] to [0,1]. A degenerate range maps to 0.5.
func Normalize(v, lo, hi float64) float64 {
	if hi <= lo {
		return 0.5
	}
	return (v - lo) / (hi - lo)
}
