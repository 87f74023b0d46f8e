package app

import (
	"errors"
	"fmt"
	"image"
	"math"
	"strconv"
	"strings"

	"mag-surveyor/internal/grid"
)

// ErrInvalidInput is returned for user-entered values that cannot be used.
var ErrInvalidInput = errors.New("invalid input")

// Settings are the user-adjustable grid settings.
type Settings struct {
	Spacing float64
	// Floor-plan pixel that sits on cell (0,0).
	Anchor image.Point
}

// ParseCell parses the position dialog fields.
func ParseCell(xText, yText string) (grid.Cell, error) {
	x, err := parseInt("X", xText)
	if err != nil {
		return grid.Cell{}, err
	}
	y, err := parseInt("Y", yText)
	if err != nil {
		return grid.Cell{}, err
	}
	return grid.Cell{X: x, Y: y}, nil
}

// ParseSettings parses the settings dialog fields. Spacing must be positive
// and finite.
func ParseSettings(spacingText, anchorXText, anchorYText string) (Settings, error) {
	spacing, err := strconv.ParseFloat(strings.TrimSpace(spacingText), 64)
	if err != nil {
		return Settings{}, fmt.Errorf("%w: spacing %q is not a number", ErrInvalidInput, spacingText)
	}
	if math.IsNaN(spacing) || math.IsInf(spacing, 0) {
		return Settings{}, fmt.Errorf("%w: spacing %q is not a finite number", ErrInvalidInput, spacingText)
	}
	if spacing <= 0 {
		return Settings{}, fmt.Errorf("%w: spacing must be positive", ErrInvalidInput)
	}
	ax, err := parseInt("anchor X", anchorXText)
	if err != nil {
		return Settings{}, err
	}
	ay, err := parseInt("anchor Y", anchorYText)
	if err != nil {
		return Settings{}, err
	}
	return Settings{Spacing: spacing, Anchor: image.Pt(ax, ay)}, nil
}

func parseInt(name, text string) (int, error) {
	v, err := strconv.Atoi(strings.TrimSpace(text))
	if err != nil {
		return 0, fmt.Errorf("%w: %s %q is not a whole number", ErrInvalidInput, name, text)
	}
	return v, nil
}
