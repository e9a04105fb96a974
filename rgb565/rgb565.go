// Package rgb565 implements the 16-bit color format of the ST7735:
// rrrrrggggggbbbbb, sent most significant byte first.
//
// Channel packing is done by tinygo's pixel.RGB565BE; Color holds the same
// pixel as a native 16-bit value so it can be compared and used as a
// constant.
package rgb565

import (
	"fmt"
	"image/color"
	"math"
	"math/bits"

	"tinygo.org/x/drivers/pixel"
)

// Color is a 16-bit RGB565 pixel.
type Color uint16

// Common colors.
const (
	Black Color = 0x0000
	White Color = 0xFFFF
	Red   Color = 0xF800
	Green Color = 0x07E0
	Blue  Color = 0x001F
)

// FromRGB packs 8-bit channels by dropping their low bits.
func FromRGB(r, g, b uint8) Color {
	return FromPixel(pixel.NewRGB565BE(r, g, b))
}

// FromPixel converts a tinygo pixel, which is stored big-endian in memory.
func FromPixel(p pixel.RGB565BE) Color {
	return Color(bits.ReverseBytes16(uint16(p)))
}

// Pixel returns c as a tinygo pixel, for pixel.Image buffers.
func (c Color) Pixel() pixel.RGB565BE {
	return pixel.RGB565BE(bits.ReverseBytes16(uint16(c)))
}

// FromColor converts any color. Alpha is ignored: premultiplied channels are
// used as is.
func FromColor(c color.Color) Color {
	if v, ok := c.(Color); ok {
		return v
	}
	r, g, b, _ := c.RGBA()
	return FromRGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// FromHSL converts a hue in degrees and saturation and lightness in 0..1.
// Out of range values are clamped, the hue wraps around.
func FromHSL(h, s, l float64) Color {
	h = math.Mod(h, 360)
	if h < 0 {
		h += 360
	}
	s = clamp01(s)
	l = clamp01(l)

	c := (1 - math.Abs(2*l-1)) * s
	hp := h / 60
	x := c * (1 - math.Abs(math.Mod(hp, 2)-1))
	var r, g, b float64
	switch {
	case hp < 1:
		r, g, b = c, x, 0
	case hp < 2:
		r, g, b = x, c, 0
	case hp < 3:
		r, g, b = 0, c, x
	case hp < 4:
		r, g, b = 0, x, c
	case hp < 5:
		r, g, b = x, 0, c
	default:
		r, g, b = c, 0, x
	}
	m := l - c/2
	return FromRGB(to8(r+m), to8(g+m), to8(b+m))
}

// RGB returns the 8-bit channels, scaled so that full intensity is 255.
func (c Color) RGB() (r, g, b uint8) {
	p := c.Pixel().RGBA()
	return p.R, p.G, p.B
}

// RGBA implements color.Color. The color is always opaque.
func (c Color) RGBA() (r, g, b, a uint32) {
	r8, g8, b8 := c.RGB()
	r = uint32(r8) * 0x101
	g = uint32(g8) * 0x101
	b = uint32(b8) * 0x101
	return r, g, b, 0xFFFF
}

// Bytes returns the wire encoding, most significant byte first.
func (c Color) Bytes() [2]byte {
	return [2]byte{byte(c >> 8), byte(c)}
}

func (c Color) String() string {
	return fmt.Sprintf("rgb565(0x%04X)", uint16(c))
}

// Model converts colors to Color.
var Model = color.ModelFunc(func(c color.Color) color.Color {
	return FromColor(c)
})

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}

func to8(v float64) uint8 {
	return uint8(math.Round(clamp01(v) * 255))
}
