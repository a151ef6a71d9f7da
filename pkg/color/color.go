// Package color provides the RGBA value type used throughout the compositing
// pipeline and the "over" operator that stacks one color on another.
//
// Channels R, G and B are in [0, 255]; A is an opacity in [0, 1]. Colors are
// plain values: every operation returns a new color and two colors are equal
// when their fields are equal.
package color

import (
	"fmt"
	stdcolor "image/color"
	"math"
	"strings"
)

// RGBA is an unpremultiplied color with 8-bit-range channels and a unit alpha.
type RGBA struct {
	R, G, B float64
	A       float64
}

// Common colors.
var (
	Transparent = RGBA{0, 0, 0, 0}
	Black       = RGBA{0, 0, 0, 1}
	White       = RGBA{255, 255, 255, 1}
	Red         = RGBA{255, 0, 0, 1}
	Green       = RGBA{0, 255, 0, 1}
	Blue        = RGBA{0, 0, 255, 1}
	Purple      = RGBA{143, 0, 255, 1}
)

// New returns a color with every field clamped to its valid range.
func New(r, g, b, a float64) RGBA {
	return RGBA{
		R: clamp(r, 0, 255),
		G: clamp(g, 0, 255),
		B: clamp(b, 0, 255),
		A: clamp(a, 0, 1),
	}
}

// Transition linearly interpolates from c towards other. The ratio is
// clamped to [0, 1]; 0 returns c and 1 returns other exactly.
func (c RGBA) Transition(other RGBA, ratio float64) RGBA {
	switch {
	case ratio <= 0 || math.IsNaN(ratio):
		return c
	case ratio >= 1:
		return other
	}
	return New(
		c.R+(other.R-c.R)*ratio,
		c.G+(other.G-c.G)*ratio,
		c.B+(other.B-c.B)*ratio,
		c.A+(other.A-c.A)*ratio,
	)
}

// WithAlpha returns c with its alpha replaced.
func (c RGBA) WithAlpha(a float64) RGBA {
	c.A = clamp(a, 0, 1)
	return c
}

// ScaleAlpha returns c with its alpha multiplied by f.
func (c RGBA) ScaleAlpha(f float64) RGBA {
	return c.WithAlpha(c.A * f)
}

// RGB returns the alpha-premultiplied channels, rounded, as sent to a
// fixture that has no notion of opacity.
func (c RGBA) RGB() [3]uint8 {
	return [3]uint8{
		uint8(math.Round(clamp(c.R*c.A, 0, 255))),
		uint8(math.Round(clamp(c.G*c.A, 0, 255))),
		uint8(math.Round(clamp(c.B*c.A, 0, 255))),
	}
}

// RGBA implements image/color.Color with premultiplied 16-bit channels.
func (c RGBA) RGBA() (r, g, b, a uint32) {
	return stdcolor.NRGBA{
		R: uint8(math.Round(clamp(c.R, 0, 255))),
		G: uint8(math.Round(clamp(c.G, 0, 255))),
		B: uint8(math.Round(clamp(c.B, 0, 255))),
		A: uint8(math.Round(clamp(c.A, 0, 1) * 255)),
	}.RGBA()
}

// Hex formats the premultiplied color as "#rrggbb".
func (c RGBA) Hex() string {
	rgb := c.RGB()
	return fmt.Sprintf("#%02x%02x%02x", rgb[0], rgb[1], rgb[2])
}

func (c RGBA) String() string {
	return fmt.Sprintf("RGBA(%g, %g, %g, %g)", c.R, c.G, c.B, c.A)
}

// ParseHex parses "#rgb", "#rrggbb" or "#rrggbbaa" (the leading # is
// optional) into an unpremultiplied color.
func ParseHex(s string) (RGBA, error) {
	hex := strings.TrimPrefix(s, "#")
	var v [4]uint8
	v[3] = 255

	switch len(hex) {
	case 3:
		for i := 0; i < 3; i++ {
			n, ok := hexDigit(hex[i])
			if !ok {
				return RGBA{}, fmt.Errorf("invalid hex color %q", s)
			}
			v[i] = n * 17
		}
	case 6, 8:
		for i := 0; i < len(hex)/2; i++ {
			hi, ok1 := hexDigit(hex[2*i])
			lo, ok2 := hexDigit(hex[2*i+1])
			if !ok1 || !ok2 {
				return RGBA{}, fmt.Errorf("invalid hex color %q", s)
			}
			v[i] = hi<<4 | lo
		}
	default:
		return RGBA{}, fmt.Errorf("invalid hex color %q", s)
	}

	return RGBA{
		R: float64(v[0]),
		G: float64(v[1]),
		B: float64(v[2]),
		A: float64(v[3]) / 255,
	}, nil
}

func hexDigit(c byte) (uint8, bool) {
	switch {
	case '0' <= c && c <= '9':
		return c - '0', true
	case 'a' <= c && c <= 'f':
		return c - 'a' + 10, true
	case 'A' <= c && c <= 'F':
		return c - 'A' + 10, true
	}
	return 0, false
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
