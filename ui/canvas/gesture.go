package canvas

import "time"

// GestureState is the state of the pan/zoom tracker.
type GestureState int

const (
	GestureIdle GestureState = iota
	GesturePanning
	GestureScaling
)

func (s GestureState) String() string {
	switch s {
	case GestureIdle:
		return "idle"
	case GesturePanning:
		return "panning"
	case GestureScaling:
		return "scaling"
	default:
		return "unknown"
	}
}

// scaleSettle is how long after the last zoom step drags stay suppressed.
const scaleSettle = 150 * time.Millisecond

// Gestures turns drag and zoom input into pan and zoom callbacks. A zoom puts
// the tracker in the scaling state; drags arriving while scaling are dropped
// so a two-finger zoom does not also pan the view.
type Gestures struct {
	OnPan  func(dx, dy float64)
	OnZoom func(factor float64)

	state     GestureState
	lastScale time.Time
	now       func() time.Time
}

// NewGestures returns an idle tracker.
func NewGestures() *Gestures {
	return &Gestures{now: time.Now}
}

// State returns the current state.
func (g *Gestures) State() GestureState {
	g.settle()
	return g.state
}

func (g *Gestures) settle() {
	if g.state == GestureScaling && g.now().Sub(g.lastScale) >= scaleSettle {
		g.state = GestureIdle
	}
}

// Drag reports a pointer move of (dx, dy) pixels. It returns false when the
// drag was suppressed.
func (g *Gestures) Drag(dx, dy float64) bool {
	g.settle()
	if g.state == GestureScaling {
		return false
	}
	g.state = GesturePanning
	if g.OnPan != nil {
		g.OnPan(dx, dy)
	}
	return true
}

// DragEnd ends a pan.
func (g *Gestures) DragEnd() {
	if g.state == GesturePanning {
		g.state = GestureIdle
	}
}

// Scale reports one zoom step. Factors that are not positive are ignored.
func (g *Gestures) Scale(factor float64) {
	if factor <= 0 {
		return
	}
	g.state = GestureScaling
	g.lastScale = g.now()
	if g.OnZoom != nil {
		g.OnZoom(factor)
	}
}

// ScaleEnd ends a zoom immediately.
func (g *Gestures) ScaleEnd() {
	if g.state == GestureScaling {
		g.state = GestureIdle
	}
}
