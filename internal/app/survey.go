package app

import (
	"math"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/dataset"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/sensor"
	"mag-surveyor/internal/survey"
)

// Survey is the interactive state of a recording session. Handlers return a
// new Survey and never modify the receiver; Records is cloned before any
// mutation, so a published Records store is never written again.
type Survey struct {
	Cursor  grid.Cell
	View    grid.View
	Spacing float64
	Records *survey.Store

	// AutoPin pins the current reading after every cursor move.
	AutoPin bool
	// ObstacleMode makes Pin mark obstacles instead of readings.
	ObstacleMode bool
}

// NewSurvey starts an empty session at the configured start cell, centred on
// it.
func NewSurvey(cfg *config.Config, spacing float64) Survey {
	s := Survey{
		Cursor:  grid.Cell{X: cfg.Grid.Start.X, Y: cfg.Grid.Start.Y},
		View:    grid.NewView(cfg.View.MinScale, cfg.View.MaxScale),
		Spacing: spacing,
		Records: survey.NewStore(),
	}
	s.View = s.View.CenterOn(s.Cursor, s.Spacing)
	return s
}

func (s Survey) mutate(fn func(*survey.Store)) Survey {
	s.Records = s.Records.Clone()
	fn(s.Records)
	return s
}

// Move steps the cursor by (dx, dy) cells and recentres the view on it.
// With AutoPin the sample is pinned at the new cell.
func (s Survey) Move(dx, dy int, sample sensor.Sample) Survey {
	s.Cursor = s.Cursor.Add(dx, dy)
	s.View = s.View.CenterOn(s.Cursor, s.Spacing)
	if s.AutoPin {
		s = s.Pin(sample)
	}
	return s
}

// MoveTo jumps to cell and recentres the view on it.
func (s Survey) MoveTo(cell grid.Cell) Survey {
	s.Cursor = cell
	s.View = s.View.CenterOn(s.Cursor, s.Spacing)
	return s
}

// Pin records sample at the cursor, or an obstacle in obstacle mode.
func (s Survey) Pin(sample sensor.Sample) Survey {
	cell := s.Cursor
	if s.ObstacleMode {
		return s.mutate(func(st *survey.Store) { st.PutObstacle(cell) })
	}
	r := sample.Reading()
	return s.mutate(func(st *survey.Store) { st.Put(cell, r) })
}

// Delete removes whatever is recorded at the cursor. It reports whether
// anything was there.
func (s Survey) Delete() (Survey, bool) {
	if _, ok := s.Records.Get(s.Cursor); !ok {
		return s, false
	}
	cell := s.Cursor
	return s.mutate(func(st *survey.Store) { st.Remove(cell) }), true
}

// Pan moves the view by surface pixels.
func (s Survey) Pan(dx, dy float64) Survey {
	s.View = s.View.Pan(dx, dy)
	return s
}

// Zoom scales the view by factor within its bounds.
func (s Survey) Zoom(factor float64) Survey {
	s.View = s.View.ZoomBy(factor)
	return s
}

// SetSpacing changes the cell spacing and recentres on the cursor.
// Non-positive and non-finite values are ignored.
func (s Survey) SetSpacing(spacing float64) Survey {
	if !(spacing > 0) || math.IsInf(spacing, 0) {
		return s
	}
	s.Spacing = spacing
	s.View = s.View.CenterOn(s.Cursor, s.Spacing)
	return s
}

// ApplyImport applies an imported batch.
func (s Survey) ApplyImport(b dataset.Batch, mode dataset.Mode) Survey {
	return s.mutate(func(st *survey.Store) { b.Apply(st, mode) })
}
