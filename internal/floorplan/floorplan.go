// Package floorplan loads the floor-plan raster drawn under the survey grid.
package floorplan

import (
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"os"
	"path/filepath"
	"strings"

	"mag-surveyor/internal/config"
	"mag-surveyor/internal/grid"

	_ "golang.org/x/image/tiff"
)

// ErrUnsupportedFormat is returned by Load for extensions other than
// SupportedFormats.
var ErrUnsupportedFormat = errors.New("unsupported floor plan format")

// Plan is a floor-plan image and its placement on the grid.
type Plan struct {
	Path  string
	Image image.Image
	// Image pixel that sits on cell (0,0).
	Anchor image.Point
	// Number of cells covered by the image height; 0 if unknown.
	GridSpan float64
}

// Load decodes a PNG, JPEG or TIFF image.
func Load(path string) (*Plan, error) {
	if !IsSupportedFormat(path) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Base(path))
	}
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open floor plan: %w", err)
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, fmt.Errorf("failed to decode floor plan %s: %w", filepath.Base(path), err)
	}
	return &Plan{Path: path, Image: img}, nil
}

// FromConfig loads the configured floor plan. It returns nil, nil when no
// floor plan is configured.
func FromConfig(cfg config.FloorPlan) (*Plan, error) {
	if cfg.Path == "" {
		return nil, nil
	}
	p, err := Load(cfg.Path)
	if err != nil {
		return nil, err
	}
	p.Anchor = image.Pt(cfg.Anchor.X, cfg.Anchor.Y)
	p.GridSpan = cfg.GridSpan
	return p, nil
}

// Height returns the image height in pixels.
func (p *Plan) Height() int {
	if p == nil || p.Image == nil {
		return 0
	}
	return p.Image.Bounds().Dy()
}

// Spacing derives the canvas cell spacing, preferring a direct value.
func (p *Plan) Spacing(direct float64) float64 {
	if p == nil {
		return grid.Spacing(0, 0, direct)
	}
	return grid.Spacing(p.Height(), p.GridSpan, direct)
}

// PixelsPerCell returns how many image pixels one grid cell covers. Without a
// grid span the image is assumed to be drawn at spacing pixels per cell.
func (p *Plan) PixelsPerCell(spacing float64) float64 {
	if p.GridSpan > 0 && p.Height() > 0 {
		return float64(p.Height()) / p.GridSpan
	}
	return spacing
}

// SupportedFormats returns the accepted image extensions.
func SupportedFormats() []string {
	return []string{".tiff", ".tif", ".png", ".jpg", ".jpeg"}
}

// IsSupportedFormat checks the extension of path.
func IsSupportedFormat(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, format := range SupportedFormats() {
		if ext == format {
			return true
		}
	}
	return false
}
