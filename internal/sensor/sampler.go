// Package sensor keeps the latest magnetometer sample and feeds it from
// hardware or simulated sources.
package sensor

import (
	"sync"
	"time"

	"mag-surveyor/internal/survey"
)

// Sample is the most recent value of both magnetometer streams. The two
// streams are not time-correlated.
type Sample struct {
	Calibrated   survey.Vec3
	Uncalibrated survey.Vec3
	Bias         survey.Vec3

	CalibratedAt   time.Time
	UncalibratedAt time.Time
}

// Reading converts the sample into a storable reading at full precision.
func (s Sample) Reading() survey.Reading {
	return survey.Reading{
		Calibrated:   s.Calibrated,
		Uncalibrated: s.Uncalibrated,
		Bias:         s.Bias,
	}
}

// CalibratedMagnitude is the rounded norm of the calibrated field.
func (s Sample) CalibratedMagnitude() int {
	return s.Calibrated.Magnitude()
}

// UncalibratedMagnitude is the rounded norm of the uncalibrated field.
func (s Sample) UncalibratedMagnitude() int {
	return s.Uncalibrated.Magnitude()
}

// Listener is called after every update with the new sample.
type Listener func(Sample)

// Sampler holds the last delivered sample. Each update overwrites the
// previous value of its stream; nothing is buffered.
type Sampler struct {
	mu        sync.RWMutex
	latest    Sample
	listeners []Listener
	now       func() time.Time
}

// NewSampler returns a sampler whose vectors are all zero.
func NewSampler() *Sampler {
	return &Sampler{now: time.Now}
}

// OnChange registers a listener. Listeners run on the delivering goroutine.
func (s *Sampler) OnChange(l Listener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// SetCalibrated overwrites the calibrated field.
func (s *Sampler) SetCalibrated(v survey.Vec3) {
	s.mu.Lock()
	s.latest.Calibrated = v
	s.latest.CalibratedAt = s.now()
	snap, listeners := s.latest, s.listeners
	s.mu.Unlock()
	notify(listeners, snap)
}

// SetUncalibrated overwrites the uncalibrated field and its bias estimate.
func (s *Sampler) SetUncalibrated(raw, bias survey.Vec3) {
	s.mu.Lock()
	s.latest.Uncalibrated = raw
	s.latest.Bias = bias
	s.latest.UncalibratedAt = s.now()
	snap, listeners := s.latest, s.listeners
	s.mu.Unlock()
	notify(listeners, snap)
}

// Latest returns a copy of the current sample.
func (s *Sampler) Latest() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

func notify(listeners []Listener, snap Sample) {
	for _, l := range listeners {
		l(snap)
	}
}
