package floorplan

import (
	"os"
	"sync"
	"time"
)

// Watcher polls a floor-plan file and invokes a callback each time its
// modification time moves forward. Editors that replace the file on save are
// handled because the path is stat'ed on every tick.
type Watcher struct {
	path     string
	interval time.Duration

	mu       sync.Mutex
	baseline time.Time
	stopCh   chan struct{}
	onChange func(path string)
}

// NewWatcher returns a watcher for path. It returns nil if the file cannot be
// stat'ed.
func NewWatcher(path string, interval time.Duration) *Watcher {
	info, err := os.Stat(path)
	if err != nil {
		return nil
	}
	if interval <= 0 {
		interval = time.Second
	}
	return &Watcher{
		path:     path,
		interval: interval,
		baseline: info.ModTime(),
	}
}

// OnChange sets the callback. It is called from a background goroutine.
func (w *Watcher) OnChange(callback func(path string)) {
	w.mu.Lock()
	w.onChange = callback
	w.mu.Unlock()
}

// Start begins polling in a background goroutine.
func (w *Watcher) Start() {
	w.mu.Lock()
	w.stopCh = make(chan struct{})
	stop := w.stopCh
	w.mu.Unlock()
	go w.loop(stop)
}

// Stop ends polling. It is safe to call Stop on a watcher that was never
// started.
func (w *Watcher) Stop() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopCh != nil {
		close(w.stopCh)
		w.stopCh = nil
	}
}

// Path returns the watched file.
func (w *Watcher) Path() string {
	return w.path
}

func (w *Watcher) loop(stop <-chan struct{}) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if !w.check() {
				continue
			}
			w.mu.Lock()
			cb := w.onChange
			w.mu.Unlock()
			if cb != nil {
				cb(w.path)
			}
		}
	}
}

// check reports whether the file changed since the last check and advances
// the baseline.
func (w *Watcher) check() bool {
	info, err := os.Stat(w.path)
	if err != nil {
		return false
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	if !info.ModTime().After(w.baseline) {
		return false
	}
	w.baseline = info.ModTime()
	return true
}
