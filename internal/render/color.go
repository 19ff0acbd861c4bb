// Package render draws coverage maps and signal charts as PNG images.
package render

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// ErrUnknownTheme is returned by ParseTheme for unsupported names
var ErrUnknownTheme = errors.New("unknown colour theme")

// Theme selects how intensity maps to colour
type Theme string

const (
	ThemeThermal   Theme = "thermal"
	ThemeClassic   Theme = "classic"
	ThemeGrayscale Theme = "grayscale"
	ThemeJungle    Theme = "jungle"
)

// Themes lists the supported themes
var Themes = []Theme{ThemeThermal, ThemeClassic, ThemeGrayscale, ThemeJungle}

// ParseTheme resolves a theme name; empty means thermal
func ParseTheme(s string) (Theme, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return ThemeThermal, nil
	}
	for _, t := range Themes {
		if string(t) == s {
			return t, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

var (
	jungleLow  = colorful.Color{R: 0.02, G: 0.12, B: 0.05}
	jungleHigh = colorful.Color{R: 0.95, G: 0.92, B: 0.25}
)

// Color maps a normalised intensity in [0,1] to a colour
func (t Theme) Color(v float64) color.Color {
	if math.IsNaN(v) {
		v = 0
	}
	v = math.Max(0, math.Min(1, v))

	switch t {
	case ThemeClassic:
		// blue to red, gamma-corrected value
		return colorful.Hsv(240-v*240, 0.9+v*0.1, math.Max(0.15, math.Pow(v, 0.7)))
	case ThemeGrayscale:
		return colorful.Color{R: v, G: v, B: v}.Clamped()
	case ThemeJungle:
		return jungleLow.BlendLab(jungleHigh, v).Clamped()
	default:
		return thermal(v)
	}
}

// thermal runs black, blue, cyan, yellow, red
func thermal(v float64) color.Color {
	enhanced := math.Pow(v, 0.7)
	switch {
	case v < 0.25:
		return colorful.Hsv(240, 1, math.Min(1, enhanced*4))
	case v < 0.5:
		return colorful.Hsv(240-(v-0.25)*240, 1, math.Min(1, enhanced*1.5))
	case v < 0.75:
		return colorful.Hsv(180-(v-0.5)*4*120, 1, math.Min(1, enhanced*1.5))
	default:
		return colorful.Hsv(60-(v-0.75)*4*60, 1, 1)
	}
}
