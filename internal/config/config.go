// Package config loads the YAML survey configuration.
package config

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalid wraps every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Sensor source names.
const (
	SourceNone      = "none"
	SourceSimulated = "simulated"
	SourceSerial    = "serial"
	SourceHMC5983   = "hmc5983"
)

// Import modes.
const (
	ImportReplace = "replace"
	ImportMerge   = "merge"
)

// Point is a pixel or cell coordinate.
type Point struct {
	X int `yaml:"x"`
	Y int `yaml:"y"`
}

type FloorPlan struct {
	Path string `yaml:"path"`
	// Number of grid cells covered by the image height.
	GridSpan float64 `yaml:"grid_span"`
	// Image pixel that sits on cell (0,0).
	Anchor Point `yaml:"anchor"`
	// Re-read the image when it changes on disk.
	Watch bool `yaml:"watch"`
}

type Grid struct {
	// Canvas pixels between cells at scale 1; 0 derives it from the floor plan.
	Spacing float64 `yaml:"spacing"`
	Start   Point   `yaml:"start"`
}

type View struct {
	MinScale  float64 `yaml:"min_scale"`
	MaxScale  float64 `yaml:"max_scale"`
	ShowEdges bool    `yaml:"show_edges"`
}

type Serial struct {
	Port     string `yaml:"port"`
	BaudRate int    `yaml:"baud_rate"`
}

type I2C struct {
	Bus        string     `yaml:"bus"`
	Addr       uint16     `yaml:"addr"`
	GainCode   int        `yaml:"gain_code"`
	Bias       [3]float64 `yaml:"bias"`
	IntervalMs int        `yaml:"interval_ms"`
}

func (c I2C) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

type Simulated struct {
	Field      [3]float64 `yaml:"field"`
	Bias       [3]float64 `yaml:"bias"`
	Noise      float64    `yaml:"noise"`
	Seed       int64      `yaml:"seed"`
	IntervalMs int        `yaml:"interval_ms"`
}

func (c Simulated) Interval() time.Duration {
	return time.Duration(c.IntervalMs) * time.Millisecond
}

type Sensor struct {
	Source    string    `yaml:"source"`
	Serial    Serial    `yaml:"serial"`
	I2C       I2C       `yaml:"i2c"`
	Simulated Simulated `yaml:"simulated"`
}

type Export struct {
	Dir      string `yaml:"dir"`
	FileName string `yaml:"file_name"`
}

type Import struct {
	Mode string `yaml:"mode"`
}

// Config is the top-level structure of survey.yaml.
type Config struct {
	FloorPlan FloorPlan `yaml:"floor_plan"`
	Grid      Grid      `yaml:"grid"`
	View      View      `yaml:"view"`
	Sensor    Sensor    `yaml:"sensor"`
	Export    Export    `yaml:"export"`
	Import    Import    `yaml:"import"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		View: View{MinScale: 0.1, MaxScale: 3, ShowEdges: true},
		Sensor: Sensor{
			Source: SourceSimulated,
			Serial: Serial{BaudRate: 115200},
			I2C:    I2C{Addr: 0x1E, GainCode: 1, IntervalMs: 100},
			Simulated: Simulated{
				Field:      [3]float64{22, -5, -41},
				Bias:       [3]float64{4, -2, 7},
				Noise:      0.8,
				IntervalMs: 100,
			},
		},
		Export: Export{Dir: defaultExportDir(), FileName: "position_data.csv"},
		Import: Import{Mode: ImportReplace},
	}
}

func defaultExportDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, "Downloads")
}

// Load reads path over the defaults, resolves relative paths against the
// file's directory and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	dir := filepath.Dir(path)
	if cfg.FloorPlan.Path != "" && !filepath.IsAbs(cfg.FloorPlan.Path) {
		cfg.FloorPlan.Path = filepath.Join(dir, cfg.FloorPlan.Path)
	}
	if cfg.Export.Dir != "" && !filepath.IsAbs(cfg.Export.Dir) {
		cfg.Export.Dir = filepath.Join(dir, cfg.Export.Dir)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks ranges and enumerations.
func (c *Config) Validate() error {
	if !finite(c.Grid.Spacing) || c.Grid.Spacing < 0 {
		return fmt.Errorf("%w: grid.spacing must be a non-negative number", ErrInvalid)
	}
	if !finite(c.FloorPlan.GridSpan) || c.FloorPlan.GridSpan < 0 {
		return fmt.Errorf("%w: floor_plan.grid_span must be a non-negative number", ErrInvalid)
	}
	if !finite(c.View.MinScale) || !finite(c.View.MaxScale) || c.View.MinScale <= 0 || c.View.MaxScale < c.View.MinScale {
		return fmt.Errorf("%w: view scale bounds [%g, %g]", ErrInvalid, c.View.MinScale, c.View.MaxScale)
	}
	switch c.Sensor.Source {
	case SourceNone, SourceSimulated, SourceHMC5983:
	case SourceSerial:
		if c.Sensor.Serial.Port == "" {
			return fmt.Errorf("%w: sensor.serial.port is required", ErrInvalid)
		}
	default:
		return fmt.Errorf("%w: unknown sensor.source %q", ErrInvalid, c.Sensor.Source)
	}
	if c.Sensor.I2C.GainCode < 0 || c.Sensor.I2C.GainCode > 7 {
		return fmt.Errorf("%w: sensor.i2c.gain_code must be 0..7", ErrInvalid)
	}
	switch c.Import.Mode {
	case ImportReplace, ImportMerge:
	default:
		return fmt.Errorf("%w: unknown import.mode %q", ErrInvalid, c.Import.Mode)
	}
	if c.Export.FileName == "" {
		return fmt.Errorf("%w: export.file_name is required", ErrInvalid)
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// ExportPath is the default export destination.
func (c *Config) ExportPath() string {
	return filepath.Join(c.Export.Dir, c.Export.FileName)
}
