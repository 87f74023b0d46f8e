// Package app provides the survey session state, its handlers and events.
package app

import (
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sync"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/dataset"
	"mag-surveyor/internal/floorplan"
	"mag-surveyor/internal/grid"
	"mag-surveyor/internal/render"
	"mag-surveyor/internal/sensor"
)

// State holds the current survey, the sensor sampler, the floor plan and the
// configuration. All survey mutation goes through State.
type State struct {
	mu sync.RWMutex

	cfg      *config.Config
	sampler  *sensor.Sampler
	plan     *floorplan.Plan
	survey   Survey
	modified bool

	showEdges  bool
	importMode dataset.Mode

	// Event listeners
	listeners map[EventType][]EventListener
}

// EventType identifies different application events.
type EventType int

const (
	EventCursorMoved    EventType = iota // grid.Cell
	EventRecordsChanged                  // int, number of recorded cells
	EventViewChanged                     // grid.View
	EventModeChanged                     // Modes
	EventPlanLoaded                      // *floorplan.Plan
	EventImported                        // ImportResult
	EventExported                        // ExportResult
	EventMessage                         // string
)

// EventListener is called when an event occurs.
type EventListener func(data interface{})

// Modes are the pin toggles shown in the UI.
type Modes struct {
	AutoPin      bool
	ObstacleMode bool
	ShowEdges    bool
}

// ImportResult reports a finished import. On error, Batch holds the rows that
// were read and applied before the failure.
type ImportResult struct {
	Source string
	Mode   dataset.Mode
	Batch  dataset.Batch
	Err    error
}

// ExportResult reports a finished export.
type ExportResult struct {
	Dest  string
	Count int
	Err   error
}

// NewState creates a session from cfg. plan may be nil.
func NewState(cfg *config.Config, sampler *sensor.Sampler, plan *floorplan.Plan) *State {
	if sampler == nil {
		sampler = sensor.NewSampler()
	}
	mode, err := dataset.ParseMode(cfg.Import.Mode)
	if err != nil {
		log.Printf("app: %v, using replace", err)
	}
	return &State{
		cfg:        cfg,
		sampler:    sampler,
		plan:       plan,
		survey:     NewSurvey(cfg, plan.Spacing(cfg.Grid.Spacing)),
		showEdges:  cfg.View.ShowEdges,
		importMode: mode,
		listeners:  make(map[EventType][]EventListener),
	}
}

// On registers an event listener for the specified event type.
func (s *State) On(event EventType, listener EventListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners[event] = append(s.listeners[event], listener)
}

// Emit triggers all listeners for the specified event type.
func (s *State) Emit(event EventType, data interface{}) {
	s.mu.RLock()
	listeners := s.listeners[event]
	s.mu.RUnlock()

	for _, listener := range listeners {
		listener(data)
	}
}

// Message shows text in the status bar.
func (s *State) Message(format string, args ...interface{}) {
	s.Emit(EventMessage, fmt.Sprintf(format, args...))
}

func (s *State) Config() *config.Config { return s.cfg }

func (s *State) Sampler() *sensor.Sampler { return s.sampler }

// Survey returns a snapshot of the session.
func (s *State) Survey() Survey {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.survey
}

// Plan returns the current floor plan, or nil.
func (s *State) Plan() *floorplan.Plan {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.plan
}

// Modified reports whether records changed since the last export or import.
func (s *State) Modified() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.modified
}

// ImportMode is the default mode offered for imports.
func (s *State) ImportMode() dataset.Mode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.importMode
}

// Modes returns the current pin toggles.
func (s *State) Modes() Modes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Modes{AutoPin: s.survey.AutoPin, ObstacleMode: s.survey.ObstacleMode, ShowEdges: s.showEdges}
}

// Scene returns what the render surface should draw now.
func (s *State) Scene() *render.Scene {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sc := render.NewScene(s.survey.Records, s.survey.View, s.survey.Spacing).WithCursor(s.survey.Cursor)
	sc.Plan = s.plan
	sc.ShowEdges = s.showEdges
	return sc
}

// apply replaces the survey with fn's result and emits the events for
// whatever changed.
func (s *State) apply(fn func(Survey) Survey) Survey {
	s.mu.Lock()
	before := s.survey
	after := fn(before)
	s.survey = after
	recordsChanged := before.Records != after.Records
	if recordsChanged {
		s.modified = true
	}
	s.mu.Unlock()

	if before.Cursor != after.Cursor {
		s.Emit(EventCursorMoved, after.Cursor)
	}
	if before.View != after.View || before.Spacing != after.Spacing {
		s.Emit(EventViewChanged, after.View)
	}
	if recordsChanged {
		s.Emit(EventRecordsChanged, after.Records.Len())
	}
	if before.AutoPin != after.AutoPin || before.ObstacleMode != after.ObstacleMode {
		s.Emit(EventModeChanged, s.Modes())
	}
	return after
}

// Move steps the cursor, pinning the latest sample when auto-pin is on.
func (s *State) Move(dx, dy int) {
	sample := s.sampler.Latest()
	s.apply(func(v Survey) Survey { return v.Move(dx, dy, sample) })
}

// MoveTo jumps the cursor to cell.
func (s *State) MoveTo(cell grid.Cell) {
	s.apply(func(v Survey) Survey { return v.MoveTo(cell) })
}

// Pin records the latest sample (or an obstacle) at the cursor.
func (s *State) Pin() {
	sample := s.sampler.Latest()
	after := s.apply(func(v Survey) Survey { return v.Pin(sample) })
	if after.ObstacleMode {
		s.Message("Obstacle marked at %v", after.Cursor)
		return
	}
	s.Message("Pinned %v: Mag %d, Uncali %d", after.Cursor, sample.CalibratedMagnitude(), sample.UncalibratedMagnitude())
}

// Delete removes the entry at the cursor.
func (s *State) Delete() bool {
	var removed bool
	after := s.apply(func(v Survey) Survey {
		v, removed = v.Delete()
		return v
	})
	if removed {
		s.Message("Removed %v", after.Cursor)
	} else {
		s.Message("Nothing recorded at %v", after.Cursor)
	}
	return removed
}

// Clear removes every record.
func (s *State) Clear() {
	s.apply(func(v Survey) Survey { return v.ApplyImport(dataset.Batch{}, dataset.Replace) })
}

func (s *State) Pan(dx, dy float64) {
	s.apply(func(v Survey) Survey { return v.Pan(dx, dy) })
}

func (s *State) Zoom(factor float64) {
	s.apply(func(v Survey) Survey { return v.Zoom(factor) })
}

func (s *State) SetAutoPin(on bool) {
	s.apply(func(v Survey) Survey { v.AutoPin = on; return v })
}

func (s *State) SetObstacleMode(on bool) {
	s.apply(func(v Survey) Survey { v.ObstacleMode = on; return v })
}

// SetShowEdges toggles the edge polyline.
func (s *State) SetShowEdges(on bool) {
	s.mu.Lock()
	changed := s.showEdges != on
	s.showEdges = on
	s.mu.Unlock()
	if changed {
		s.Emit(EventModeChanged, s.Modes())
	}
}

// ApplySettings updates the spacing and the floor-plan anchor.
func (s *State) ApplySettings(st Settings) {
	s.mu.Lock()
	var plan *floorplan.Plan
	if s.plan != nil {
		p := *s.plan
		p.Anchor = st.Anchor
		s.plan = &p
		plan = &p
	}
	s.mu.Unlock()
	s.apply(func(v Survey) Survey { return v.SetSpacing(st.Spacing) })
	if plan != nil {
		s.Emit(EventPlanLoaded, plan)
	}
}

// SetPlan replaces the floor plan. Unless the configuration fixes the
// spacing, it is re-derived from the new image.
func (s *State) SetPlan(plan *floorplan.Plan) {
	s.mu.Lock()
	s.plan = plan
	spacing := plan.Spacing(s.cfg.Grid.Spacing)
	s.mu.Unlock()
	s.apply(func(v Survey) Survey { return v.SetSpacing(spacing) })
	s.Emit(EventPlanLoaded, plan)
}

// LoadPlan decodes path and installs it, keeping the current anchor and span.
func (s *State) LoadPlan(path string) error {
	p, err := floorplan.Load(path)
	if err != nil {
		return err
	}
	if cur := s.Plan(); cur != nil {
		p.Anchor = cur.Anchor
		p.GridSpan = cur.GridSpan
	} else {
		p.Anchor.X, p.Anchor.Y = s.cfg.FloorPlan.Anchor.X, s.cfg.FloorPlan.Anchor.Y
		p.GridSpan = s.cfg.FloorPlan.GridSpan
	}
	s.SetPlan(p)
	log.Printf("floorplan: loaded %s (%dx%d)", filepath.Base(path), p.Image.Bounds().Dx(), p.Image.Bounds().Dy())
	return nil
}

// ImportFrom reads r on a new goroutine and applies the rows with mode. The
// reader is closed when done. Rows read before a failure stay applied.
func (s *State) ImportFrom(r io.ReadCloser, source string, mode dataset.Mode) <-chan ImportResult {
	done := make(chan ImportResult, 1)
	go func() {
		defer close(done)
		defer r.Close()

		b, err := dataset.Read(r)
		res := ImportResult{Source: source, Mode: mode, Batch: b, Err: err}
		if errors.Is(err, dataset.ErrEmptyFile) {
			s.finishImport(res)
			done <- res
			return
		}
		s.apply(func(v Survey) Survey { return v.ApplyImport(b, mode) })
		if err == nil {
			s.mu.Lock()
			s.modified = false
			s.mu.Unlock()
		}
		s.finishImport(res)
		done <- res
	}()
	return done
}

func (s *State) finishImport(res ImportResult) {
	switch {
	case res.Err != nil:
		log.Printf("import: %s: %v (%d rows applied)", res.Source, res.Err, len(res.Batch.Rows))
		s.Message("Import failed: %v", res.Err)
	default:
		log.Printf("import: %s: %d rows, %d skipped, %s", res.Source, len(res.Batch.Rows), res.Batch.Skipped, res.Mode)
		s.Message("Imported %d nodes, %d obstacles", res.Batch.Nodes(), len(res.Batch.Rows)-res.Batch.Nodes())
	}
	s.Emit(EventImported, res)
}

// ImportFile opens path and imports it with ImportFrom.
func (s *State) ImportFile(path string, mode dataset.Mode) <-chan ImportResult {
	f, err := os.Open(path)
	if err != nil {
		done := make(chan ImportResult, 1)
		res := ImportResult{Source: path, Mode: mode, Err: fmt.Errorf("open %s: %w", filepath.Base(path), err)}
		s.finishImport(res)
		done <- res
		close(done)
		return done
	}
	return s.ImportFrom(f, path, mode)
}

// ExportTo writes a snapshot of the records to w on a new goroutine and
// closes w.
func (s *State) ExportTo(w io.WriteCloser, dest string) <-chan ExportResult {
	records := s.Survey().Records
	done := make(chan ExportResult, 1)
	go func() {
		defer close(done)
		err := dataset.Write(w, records)
		if cerr := w.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("close %s: %w", dest, cerr)
		}
		res := ExportResult{Dest: dest, Count: records.Len(), Err: err}
		if err != nil {
			log.Printf("export: %s: %v", dest, err)
			s.Message("Export failed: %v", err)
		} else {
			s.mu.Lock()
			if s.survey.Records == records {
				s.modified = false
			}
			s.mu.Unlock()
			log.Printf("export: %s: %d rows", dest, res.Count)
			s.Message("Exported %d records to %s", res.Count, dest)
		}
		s.Emit(EventExported, res)
		done <- res
	}()
	return done
}

// ExportFile exports to path, creating parent directories as needed.
func (s *State) ExportFile(path string) <-chan ExportResult {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return s.failedExport(path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		return s.failedExport(path, err)
	}
	return s.ExportTo(f, path)
}

func (s *State) failedExport(dest string, err error) <-chan ExportResult {
	res := ExportResult{Dest: dest, Err: fmt.Errorf("export %s: %w", dest, err)}
	log.Printf("export: %v", res.Err)
	s.Message("Export failed: %v", res.Err)
	s.Emit(EventExported, res)
	done := make(chan ExportResult, 1)
	done <- res
	close(done)
	return done
}
