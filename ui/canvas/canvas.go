// Package canvas provides the survey drawing surface with pan and zoom.
package canvas

import (
	"image"
	"math"

	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/render"

	"fyne.io/fyne/v2"
	fynecanvas "fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"
)

// zoomStep is the scale factor applied per wheel notch.
const zoomStep = 1.1

// SurveyCanvas draws the current scene into a raster and turns drags, scrolls
// and taps into pan, zoom and cell selection callbacks.
type SurveyCanvas struct {
	widget.BaseWidget

	scene    func() *render.Scene
	raster   *fynecanvas.Raster
	gestures *Gestures

	onTapCell func(c grid.Cell)

	// Last rendered output for tests and snapshots
	lastOutput *image.RGBA
}

// NewSurveyCanvas creates a canvas that asks scene for what to draw on every
// refresh.
func NewSurveyCanvas(scene func() *render.Scene) *SurveyCanvas {
	sc := &SurveyCanvas{
		scene:    scene,
		gestures: NewGestures(),
	}
	sc.raster = fynecanvas.NewRaster(sc.draw)
	sc.ExtendBaseWidget(sc)
	return sc
}

// OnPan sets the callback for drags, in raster pixels.
func (sc *SurveyCanvas) OnPan(callback func(dx, dy float64)) {
	sc.gestures.OnPan = callback
}

// OnZoom sets the callback for zoom steps.
func (sc *SurveyCanvas) OnZoom(callback func(factor float64)) {
	sc.gestures.OnZoom = callback
}

// OnTapCell sets the callback for taps; it receives the nearest cell.
func (sc *SurveyCanvas) OnTapCell(callback func(c grid.Cell)) {
	sc.onTapCell = callback
}

// ZoomIn zooms one step in.
func (sc *SurveyCanvas) ZoomIn() {
	sc.gestures.Scale(zoomStep)
}

// ZoomOut zooms one step out.
func (sc *SurveyCanvas) ZoomOut() {
	sc.gestures.Scale(1 / zoomStep)
}

// Dragged pans the view unless a zoom is in progress.
func (sc *SurveyCanvas) Dragged(ev *fyne.DragEvent) {
	s := float64(sc.pixelScale())
	sc.gestures.Drag(float64(ev.Dragged.DX)*s, float64(ev.Dragged.DY)*s)
}

func (sc *SurveyCanvas) DragEnd() {
	sc.gestures.DragEnd()
}

// Scrolled uses the wheel for zoom, not scroll.
func (sc *SurveyCanvas) Scrolled(ev *fyne.ScrollEvent) {
	if ev.Scrolled.DY > 0 {
		sc.ZoomIn()
	} else if ev.Scrolled.DY < 0 {
		sc.ZoomOut()
	}
}

// Tapped reports the cell under the pointer.
func (sc *SurveyCanvas) Tapped(ev *fyne.PointEvent) {
	if sc.onTapCell == nil || sc.scene == nil {
		return
	}
	if c, ok := sc.CellAt(ev.Position); ok {
		sc.onTapCell(c)
	}
}

// CellAt returns the cell nearest to a widget position.
func (sc *SurveyCanvas) CellAt(pos fyne.Position) (grid.Cell, bool) {
	scene := sc.scene()
	if scene == nil {
		return grid.Cell{}, false
	}
	s := sc.pixelScale()
	size := sc.Size()
	w := math.Round(float64(size.Width * s))
	h := math.Round(float64(size.Height * s))
	c, err := grid.CellAt(float64(pos.X*s), float64(pos.Y*s), scene.View, scene.Spacing, grid.Size{W: w, H: h})
	if err != nil {
		return grid.Cell{}, false
	}
	return c, true
}

// LastOutput returns the most recently drawn frame.
func (sc *SurveyCanvas) LastOutput() *image.RGBA {
	return sc.lastOutput
}

func (sc *SurveyCanvas) pixelScale() float32 {
	if a := fyne.CurrentApp(); a != nil {
		if c := a.Driver().CanvasForObject(sc); c != nil {
			return c.Scale()
		}
	}
	return 1
}

func (sc *SurveyCanvas) draw(w, h int) image.Image {
	var scene *render.Scene
	if sc.scene != nil {
		scene = sc.scene()
	}
	out := render.Render(scene, w, h)
	sc.lastOutput = out
	return out
}

// Refresh redraws the raster.
func (sc *SurveyCanvas) Refresh() {
	sc.raster.Refresh()
	sc.BaseWidget.Refresh()
}

func (sc *SurveyCanvas) MinSize() fyne.Size {
	return fyne.NewSize(240, 240)
}

func (sc *SurveyCanvas) CreateRenderer() fyne.WidgetRenderer {
	return &surveyCanvasRenderer{canvas: sc}
}

type surveyCanvasRenderer struct {
	canvas *SurveyCanvas
}

func (r *surveyCanvasRenderer) Layout(size fyne.Size) {
	r.canvas.raster.Resize(size)
}

func (r *surveyCanvasRenderer) MinSize() fyne.Size {
	return r.canvas.MinSize()
}

func (r *surveyCanvasRenderer) Refresh() {
	r.canvas.raster.Refresh()
}

func (r *surveyCanvasRenderer) Objects() []fyne.CanvasObject {
	return []fyne.CanvasObject{r.canvas.raster}
}

func (r *surveyCanvasRenderer) Destroy() {}
