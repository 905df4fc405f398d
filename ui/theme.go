package ui

import (
	"image/color"

	"PomoHatch/timer"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// CustomTheme tints the default theme with the Focus color and optionally
// swaps in custom fonts.
type CustomTheme struct {
	fyne.Theme
	medium fyne.Resource
	bold   fyne.Resource
}

// NewCustomTheme creates a new instance of the custom theme. Either font may
// be nil to keep the default.
func NewCustomTheme(mediumFont, boldFont fyne.Resource) fyne.Theme {
	return &CustomTheme{Theme: theme.DefaultTheme(), medium: mediumFont, bold: boldFont}
}

// Color overrides the primary and background colors.
func (t *CustomTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return withAlpha(timer.FocusColor, 0xff)
	case theme.ColorNameBackground:
		return timer.BackgroundColor
	}
	return t.Theme.Color(name, variant)
}

// Font returns the font for the given style.
func (t *CustomTheme) Font(style fyne.TextStyle) fyne.Resource {
	if style.Bold && t.bold != nil {
		return t.bold
	}
	if !style.Bold && !style.Monospace && t.medium != nil {
		return t.medium
	}
	return t.Theme.Font(style)
}
