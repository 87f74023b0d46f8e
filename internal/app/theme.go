package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// SurveyTheme keeps the default look with survey accent colors and larger
// touch targets.
type SurveyTheme struct{}

var _ fyne.Theme = (*SurveyTheme)(nil)

func (t *SurveyTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x15, G: 0x65, B: 0xC0, A: 0xFF} // node blue
	case theme.ColorNameError:
		return color.NRGBA{R: 0xC8, G: 0x1E, B: 0x1E, A: 0xFF} // obstacle red
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *SurveyTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *SurveyTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *SurveyTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNamePadding:
		return 6
	case theme.SizeNameText:
		return 15
	default:
		return theme.DefaultTheme().Size(name)
	}
}
