// Package palette holds the stroke colors a program can select: a fixed set of
// named colors plus arbitrary RGB hex strings.
package palette

import (
	"fmt"
	"image/color"
	"strconv"
	"strings"
)

// Color is a named palette token ("red") or a normalised hex string ("#ff8800").
type Color string

// Default is the stroke color of a freshly reset turtle.
const Default Color = "black"

var named = []struct {
	name Color
	rgba color.RGBA
}{
	{"red", color.RGBA{0xff, 0x00, 0x00, 0xff}},
	{"blue", color.RGBA{0x00, 0x00, 0xff, 0xff}},
	{"green", color.RGBA{0x00, 0x80, 0x00, 0xff}},
	{"yellow", color.RGBA{0xff, 0xff, 0x00, 0xff}},
	{"purple", color.RGBA{0x80, 0x00, 0x80, 0xff}},
	{"black", color.RGBA{0x00, 0x00, 0x00, 0xff}},
	{"orange", color.RGBA{0xff, 0xa5, 0x00, 0xff}},
	{"pink", color.RGBA{0xff, 0xc0, 0xcb, 0xff}},
}

// Names returns the palette tokens in the order the editor offers them.
func Names() []Color {
	out := make([]Color, len(named))
	for i, n := range named {
		out[i] = n.name
	}
	return out
}

// Parse accepts a palette name or a #rgb / #rrggbb hex string.
func Parse(s string) (Color, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", fmt.Errorf("empty color")
	}
	if strings.HasPrefix(s, "#") {
		if _, err := parseHex(s); err != nil {
			return "", err
		}
		return Color(s), nil
	}
	for _, n := range named {
		if string(n.name) == s {
			return n.name, nil
		}
	}
	return "", fmt.Errorf("unknown color %q", s)
}

// MustParse is Parse for constants; it panics on a bad color.
func MustParse(s string) Color {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Color) String() string { return string(c) }

// IsHex reports whether c was given as an RGB hex string.
func (c Color) IsHex() bool { return strings.HasPrefix(string(c), "#") }

// RGBA resolves c to an opaque color. Unknown values resolve to black.
func (c Color) RGBA() color.RGBA {
	if c.IsHex() {
		if rgba, err := parseHex(string(c)); err == nil {
			return rgba
		}
		return color.RGBA{A: 0xff}
	}
	for _, n := range named {
		if n.name == c {
			return n.rgba
		}
	}
	return color.RGBA{A: 0xff}
}

func parseHex(s string) (color.RGBA, error) {
	digits := strings.TrimPrefix(s, "#")
	switch len(digits) {
	case 3:
		digits = string([]byte{digits[0], digits[0], digits[1], digits[1], digits[2], digits[2]})
	case 6:
	default:
		return color.RGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	v, err := strconv.ParseUint(digits, 16, 32)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("bad hex color %q", s)
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}, nil
}
