package sensor

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/survey"
)

// Source delivers magnetometer readings into a Sampler until ctx is cancelled.
type Source interface {
	Name() string
	Run(ctx context.Context, s *Sampler) error
}

// FromConfig builds the source selected in the configuration.
// It returns nil, nil when no source is configured.
func FromConfig(cfg config.Sensor) (Source, error) {
	switch cfg.Source {
	case config.SourceNone, "":
		return nil, nil
	case config.SourceSimulated:
		return &Simulated{
			Interval: cfg.Simulated.Interval(),
			Field:    survey.Vec3(cfg.Simulated.Field),
			Bias:     survey.Vec3(cfg.Simulated.Bias),
			Noise:    cfg.Simulated.Noise,
			Seed:     cfg.Simulated.Seed,
		}, nil
	case config.SourceSerial:
		return &Serial{Port: cfg.Serial.Port, BaudRate: cfg.Serial.BaudRate}, nil
	case config.SourceHMC5983:
		return &HMC5983{
			Bus:      cfg.I2C.Bus,
			Addr:     cfg.I2C.Addr,
			GainCode: cfg.I2C.GainCode,
			Bias:     survey.Vec3(cfg.I2C.Bias),
			Interval: cfg.I2C.Interval(),
		}, nil
	default:
		return nil, fmt.Errorf("unknown sensor source %q", cfg.Source)
	}
}

// Simulated produces a constant field with uniform noise, standing in for a
// device during demos and tests.
type Simulated struct {
	Interval time.Duration
	Field    survey.Vec3
	Bias     survey.Vec3
	Noise    float64
	Seed     int64
}

func (m *Simulated) Name() string { return "simulated" }

// Run emits one calibrated and one uncalibrated update per interval.
func (m *Simulated) Run(ctx context.Context, s *Sampler) error {
	interval := m.Interval
	if interval <= 0 {
		interval = 100 * time.Millisecond
	}
	rng := rand.New(rand.NewSource(m.Seed))
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			var raw survey.Vec3
			for i := range raw {
				raw[i] = m.Field[i] + m.Bias[i] + (rng.Float64()*2-1)*m.Noise
			}
			s.SetUncalibrated(raw, m.Bias)
			s.SetCalibrated(subtract(raw, m.Bias))
		}
	}
}

func subtract(a, b survey.Vec3) survey.Vec3 {
	return survey.Vec3{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}
