package sensor

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/survey"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSamplerStartsAtZero(t *testing.T) {
	s := NewSampler()
	got := s.Latest()
	assert.Equal(t, survey.Vec3{}, got.Calibrated)
	assert.Equal(t, survey.Vec3{}, got.Uncalibrated)
	assert.Equal(t, 0, got.UncalibratedMagnitude())
}

func TestSamplerLastValueWins(t *testing.T) {
	s := NewSampler()
	s.SetCalibrated(survey.Vec3{1, 2, 3})
	s.SetCalibrated(survey.Vec3{3, 4, 0})
	s.SetUncalibrated(survey.Vec3{6, 8, 0}, survey.Vec3{0.5, 0.5, 0.5})

	got := s.Latest()
	assert.Equal(t, survey.Vec3{3, 4, 0}, got.Calibrated)
	assert.Equal(t, 5, got.CalibratedMagnitude())
	assert.Equal(t, 10, got.UncalibratedMagnitude())
	assert.Equal(t, survey.Reading{
		Calibrated:   survey.Vec3{3, 4, 0},
		Uncalibrated: survey.Vec3{6, 8, 0},
		Bias:         survey.Vec3{0.5, 0.5, 0.5},
	}, got.Reading())
}

func TestSamplerNotifiesListeners(t *testing.T) {
	s := NewSampler()
	var mu sync.Mutex
	var seen []Sample
	s.OnChange(func(smp Sample) {
		mu.Lock()
		seen = append(seen, smp)
		mu.Unlock()
	})
	s.SetCalibrated(survey.Vec3{1, 0, 0})
	s.SetUncalibrated(survey.Vec3{2, 0, 0}, survey.Vec3{})

	require.Len(t, seen, 2)
	assert.Equal(t, survey.Vec3{1, 0, 0}, seen[1].Calibrated)
	assert.Equal(t, survey.Vec3{2, 0, 0}, seen[1].Uncalibrated)
}

func TestParseLine(t *testing.T) {
	tests := []struct {
		name    string
		line    string
		want    Line
		wantErr bool
	}{
		{name: "calibrated", line: "MAG,1.5,-2,3", want: Line{Field: survey.Vec3{1.5, -2, 3}}},
		{name: "uncalibrated", line: "UNCAL,10,20,30,1,2,3",
			want: Line{Uncalibrated: true, Field: survey.Vec3{10, 20, 30}, Bias: survey.Vec3{1, 2, 3}}},
		{name: "lower case and spaces", line: " mag, 1, 2, 3 ", want: Line{Field: survey.Vec3{1, 2, 3}}},
		{name: "unknown tag", line: "ACC,1,2,3", wantErr: true},
		{name: "too few fields", line: "MAG,1,2", wantErr: true},
		{name: "too many fields", line: "UNCAL,1,2,3,4,5,6,7", wantErr: true},
		{name: "not a number", line: "MAG,1,x,3", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLine(tt.line)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrBadLine)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSerialConsumeSkipsBadLines(t *testing.T) {
	p := &Serial{Port: "test"}
	s := NewSampler()
	input := strings.Join([]string{
		"MAG,3,4,0",
		"garbage",
		"",
		"UNCAL,6,8,0,1,1,1",
		"MAG,1,2",
	}, "\n")

	require.NoError(t, p.consume(strings.NewReader(input), s))
	assert.Equal(t, uint64(2), p.Skipped())
	got := s.Latest()
	assert.Equal(t, 5, got.CalibratedMagnitude())
	assert.Equal(t, 10, got.UncalibratedMagnitude())
	assert.Equal(t, survey.Vec3{1, 1, 1}, got.Bias)
}

func TestDecodeHMC5983(t *testing.T) {
	// X = 1090, Z = -980, Y = 545 counts at gain code 1: 1 G, -1 G, 0.5 G.
	data := [6]byte{0x04, 0x42, 0xFC, 0x2C, 0x02, 0x21}
	got := DecodeHMC5983(data, 1)
	assert.InDelta(t, 100.0, got[0], 1e-9)
	assert.InDelta(t, 50.0, got[1], 1e-9)
	assert.InDelta(t, -100.0, got[2], 1e-9)
}

func TestDecodeHMC5983ClampsGainCode(t *testing.T) {
	data := [6]byte{0x04, 0x42, 0xFC, 0x2C, 0x02, 0x21}
	want := DecodeHMC5983(data, 1)
	for _, code := range []int{-1, 8, 100} {
		assert.Equal(t, want, DecodeHMC5983(data, code), "gain code %d", code)
	}
	assert.NotEqual(t, want, DecodeHMC5983(data, 7))
}

func TestSimulatedFeedsSampler(t *testing.T) {
	src := &Simulated{
		Interval: time.Millisecond,
		Field:    survey.Vec3{3, 4, 0},
		Bias:     survey.Vec3{1, 1, 1},
	}
	s := NewSampler()
	updated := make(chan struct{}, 1)
	s.OnChange(func(Sample) {
		select {
		case updated <- struct{}{}:
		default:
		}
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- src.Run(ctx, s) }()

	select {
	case <-updated:
	case <-time.After(2 * time.Second):
		t.Fatal("simulated source produced no sample")
	}
	cancel()
	require.NoError(t, <-done)

	got := s.Latest()
	assert.Equal(t, survey.Vec3{1, 1, 1}, got.Bias)
	assert.Equal(t, 5, got.CalibratedMagnitude())
}

func TestFromConfig(t *testing.T) {
	src, err := FromConfig(config.Sensor{Source: config.SourceNone})
	require.NoError(t, err)
	assert.Nil(t, src)

	src, err = FromConfig(config.Sensor{Source: config.SourceSerial, Serial: config.Serial{Port: "/dev/ttyUSB0"}})
	require.NoError(t, err)
	assert.Equal(t, "serial:/dev/ttyUSB0", src.Name())

	src, err = FromConfig(config.Sensor{Source: config.SourceHMC5983})
	require.NoError(t, err)
	assert.Equal(t, "hmc5983", src.Name())

	_, err = FromConfig(config.Sensor{Source: "compass"})
	assert.Error(t, err)
}
