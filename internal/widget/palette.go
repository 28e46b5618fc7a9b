package widget

import "strings"

// Swatch is a named color from the fixed palette.
type Swatch struct {
	Hex  string
	Name string
}

// DefaultColor is the color used before the user picks one.
const DefaultColor = "#91a6ff"

var palette = []Swatch{
	{Hex: "#91a6ff", Name: "Purple"},
	{Hex: "#ff88dc", Name: "Pink"},
	{Hex: "#faff7f", Name: "Yellow"},
	{Hex: "#ffffff", Name: "White"},
	{Hex: "#ff5154", Name: "Red"},
	{Hex: "#51ff54", Name: "Green"},
	{Hex: "#51ffff", Name: "Cyan"},
}

// Palette returns a copy of the selectable colors.
func Palette() []Swatch {
	out := make([]Swatch, len(palette))
	copy(out, palette)
	return out
}

// LookupColor resolves a hex value or a color name to a palette entry.
func LookupColor(value string) (Swatch, bool) {
	value = strings.TrimSpace(value)
	for _, s := range palette {
		if strings.EqualFold(s.Hex, value) || strings.EqualFold(s.Name, value) {
			return s, true
		}
	}
	return Swatch{}, false
}

// NextColor returns the palette entry after hex, wrapping around. Unknown
// values restart at the first entry.
func NextColor(hex string) Swatch {
	for i, s := range palette {
		if strings.EqualFold(s.Hex, hex) {
			return palette[(i+1)%len(palette)]
		}
	}
	return palette[0]
}
