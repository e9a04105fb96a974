// Package font8x8 is a fixed 8x8 bitmap font covering printable ASCII.
//
// It implements tinyfont.Fonter so glyphs can be drawn onto any
// drivers.Displayer, including the 1-bit mask used by the ST7735 renderer.
package font8x8

import (
	"image/color"

	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"
)

// Size is the glyph cell width and height in pixels. It is also the advance.
const Size = 8

// Font is the 8x8 monospace font. It is stateless and safe for concurrent
// use.
var Font tinyfont.Fonter = font{}

type font struct{}

type glyph rune

// Draw plots the glyph with its baseline at y: the top row of the cell is
// y-7.
func (g glyph) Draw(display drivers.Displayer, x, y int16, c color.RGBA) {
	rows := &glyphData[glyphIndex(rune(g))]
	for row := 0; row < Size; row++ {
		b := rows[row]
		for col := 0; col < Size; col++ {
			if b&(1<<col) == 0 {
				continue
			}
			display.SetPixel(x+int16(col), y-int16(7-row), c)
		}
	}
}

func (g glyph) Info() tinyfont.GlyphInfo {
	return tinyfont.GlyphInfo{
		Rune:     rune(g),
		Width:    Size,
		Height:   Size,
		XAdvance: Size,
		XOffset:  0,
		YOffset:  -7,
	}
}

func (font) GetYAdvance() uint8 { return Size }

func (font) GetGlyph(r rune) tinyfont.Glypher {
	return glyph(r)
}

// Bitmap returns the 8 row bytes of r, bit 0 being the leftmost pixel.
// Control characters render as a space and runes outside ASCII as '?'.
func Bitmap(r rune) [Size]byte {
	return glyphData[glyphIndex(r)]
}

func glyphIndex(r rune) int {
	switch {
	case r < 0x20:
		return 0
	case r > 0x7E:
		return '?' - 0x20
	}
	return int(r - 0x20)
}
