package app

import (
	"image/color"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/theme"
)

// StudioTheme adjusts the default theme for photo-editing work: a neutral
// accent that does not fight with room photography, a high-contrast
// selection color for the polygon overlay, and a scrollbar that stays
// visible over large images.
type StudioTheme struct{}

var _ fyne.Theme = (*StudioTheme)(nil)

func (t *StudioTheme) Color(name fyne.ThemeColorName, variant fyne.ThemeVariant) color.Color {
	switch name {
	case theme.ColorNamePrimary:
		return color.NRGBA{R: 0x26, G: 0x6B, B: 0x8A, A: 0xFF}
	case theme.ColorNameSelection:
		return color.NRGBA{R: 0xFF, G: 0x8F, B: 0x00, A: 0x80}
	case theme.ColorNameScrollBar:
		return color.NRGBA{R: 0x80, G: 0x80, B: 0x80, A: 0xFF}
	default:
		return theme.DefaultTheme().Color(name, variant)
	}
}

func (t *StudioTheme) Font(style fyne.TextStyle) fyne.Resource {
	return theme.DefaultTheme().Font(style)
}

func (t *StudioTheme) Icon(name fyne.ThemeIconName) fyne.Resource {
	return theme.DefaultTheme().Icon(name)
}

func (t *StudioTheme) Size(name fyne.ThemeSizeName) float32 {
	switch name {
	case theme.SizeNameScrollBar:
		return 16
	case theme.SizeNameScrollBarSmall:
		return 12
	default:
		return theme.DefaultTheme().Size(name)
	}
}

// PolygonLineColor is the stroke used for the in-progress polygon.
var PolygonLineColor = color.NRGBA{R: 0xFF, G: 0x8F, B: 0x00, A: 0xFF}

// PolygonFillColor tints the interior of a closed polygon.
var PolygonFillColor = color.NRGBA{R: 0xFF, G: 0x8F, B: 0x00, A: 0x30}

// FirstVertexColor highlights the closing target once the polygon is
// closable.
var FirstVertexColor = color.NRGBA{R: 0x00, G: 0xE5, B: 0x76, A: 0xFF}
