// Package palette extracts a dominant colour and a small palette of distinct
// colours from a decoded RGBA pixel buffer.
package palette

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// quantizeMask clears the low nibble of a channel, leaving 16 buckets.
const quantizeMask = 0xF0

// Color is an 8-bit per channel RGB colour.
type Color struct {
	R, G, B uint8
}

// Black is returned as the dominant colour when no pixel qualifies.
var Black = Color{}

// Hex returns the colour as a lowercase "#rrggbb" string.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

// String returns the colour as "rgb(r, g, b)".
func (c Color) String() string {
	return fmt.Sprintf("rgb(%d, %d, %d)", c.R, c.G, c.B)
}

// Packed returns the colour as a 24-bit 0xRRGGBB integer.
func (c Color) Packed() uint32 {
	return uint32(c.R)<<16 | uint32(c.G)<<8 | uint32(c.B)
}

// Unpack is the inverse of Packed. Bits above 24 are ignored.
func Unpack(v uint32) Color {
	return Color{
		R: uint8(v >> 16),
		G: uint8(v >> 8),
		B: uint8(v),
	}
}

// Quantize returns the colour with the low 4 bits of every channel cleared.
func (c Color) Quantize() Color {
	return Color{
		R: QuantizeChannel(c.R),
		G: QuantizeChannel(c.G),
		B: QuantizeChannel(c.B),
	}
}

// QuantizeChannel rounds a channel down to the nearest multiple of 16.
func QuantizeChannel(v uint8) uint8 {
	return v & quantizeMask
}

// DistanceSq returns the squared Euclidean distance between two colours.
func (c Color) DistanceSq(other Color) int {
	dr := int(c.R) - int(other.R)
	dg := int(c.G) - int(other.G)
	db := int(c.B) - int(other.B)
	return dr*dr + dg*dg + db*db
}

// ParseHex parses a "#rrggbb" string. Upper and lower case digits are accepted.
func ParseHex(s string) (Color, error) {
	if len(s) != 7 || !strings.HasPrefix(s, "#") {
		return Color{}, fmt.Errorf("invalid hex colour %q: expected #rrggbb", s)
	}
	for _, ch := range s[1:] {
		if !isHexDigit(ch) {
			return Color{}, fmt.Errorf("invalid hex colour %q: bad digit %q", s, ch)
		}
	}
	c, err := colorful.Hex(strings.ToLower(s))
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex colour %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

func isHexDigit(ch rune) bool {
	return (ch >= '0' && ch <= '9') || (ch >= 'a' && ch <= 'f') || (ch >= 'A' && ch <= 'F')
}

// MarshalText encodes the colour as its hex string.
func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.Hex()), nil
}

// UnmarshalText decodes a hex string produced by MarshalText.
func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseHex(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Luminance returns the relative luminance of the colour in [0, 1].
func (c Color) Luminance() float64 {
	col := colorful.Color{
		R: float64(c.R) / 255.0,
		G: float64(c.G) / 255.0,
		B: float64(c.B) / 255.0,
	}
	r, g, b := col.LinearRgb()
	return 0.2126*r + 0.7152*g + 0.0722*b
}
