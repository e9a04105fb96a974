// Package glyphcache stores the rectangle decomposition of every printable
// ASCII glyph of an 8x8 font.
//
// Text drawn through the cache is replayed from precomputed rectangles, so no
// glyph is rasterized or decomposed after Build.
package glyphcache

import (
	"fmt"
	"image"
	"image/color"
	"iter"
	"log/slog"
	"time"

	"tinygo.org/x/tinyfont"

	"periph.io/x/devices/v3/st7735/image1bit"
	"periph.io/x/devices/v3/st7735/internal/logging"
	"periph.io/x/devices/v3/st7735/rects"
)

const (
	// First and Last bound the cached character codes.
	First = 33
	Last  = 126

	// CellSize is the glyph cell width and height.
	CellSize = 8

	// NotCached is the lookup value of codes without an entry.
	NotCached = -1

	tableSize = 127
)

// Cache maps character codes to glyph rectangles relative to the top-left
// corner of the glyph cell.
//
// Entries are packed into one byte slice as a rectangle count followed by
// (x, y, w, h) quadruples. A Cache is immutable after Build and safe for
// concurrent use.
type Cache struct {
	data   []byte
	lookup [tableSize]int16
}

// Build rasterizes codes First..Last with font into an 8x8 scratch mask and
// stores their decomposition.
func Build(font tinyfont.Fonter) *Cache {
	start := time.Now()
	c := &Cache{}
	for i := range c.lookup {
		c.lookup[i] = NotCached
	}
	scratch := image1bit.NewHorizontalMSB(image.Rect(0, 0, CellSize, CellSize))
	for code := First; code <= Last; code++ {
		scratch.Clear()
		Rasterize(scratch, font, 0, 0, rune(code))
		c.lookup[code] = int16(len(c.data))
		c.data = append(c.data, 0)
		n := 0
		for r := range rects.Decompose(scratch, scratch.Bounds()) {
			c.data = append(c.data, r.X, r.Y, r.W, r.H)
			n++
		}
		// At most 4 spans per row over 8 rows, so the count fits a byte.
		c.data[c.lookup[code]] = byte(n)
	}
	logging.Logger().Debug("glyph cache built",
		slog.Int("glyphs", Last-First+1),
		slog.Int("bytes", len(c.data)),
		slog.Duration("elapsed", time.Since(start)))
	return c
}

// Rasterize draws code with font into dst with the top-left corner of the
// glyph cell at (x, y). Pixels outside dst are dropped.
func Rasterize(dst *image1bit.HorizontalMSB, font tinyfont.Fonter, x, y int, code rune) {
	tinyfont.DrawChar(dst, font, int16(x-dst.Rect.Min.X), int16(y-dst.Rect.Min.Y+CellSize-1), code, color.RGBA{A: 0xFF})
}

// Offset returns the position of the entry for code in the packed data, or
// NotCached.
func (c *Cache) Offset(code rune) int {
	if code < 0 || code >= tableSize {
		return NotCached
	}
	return int(c.lookup[code])
}

// Lookup returns the rectangles of code relative to the glyph cell.
//
// The second result is false for codes outside First..Last, which have no
// entry; the space character is one of them.
func (c *Cache) Lookup(code rune) (iter.Seq[rects.Rect], bool) {
	off := c.Offset(code)
	if off == NotCached {
		return nil, false
	}
	return func(yield func(rects.Rect) bool) {
		n := int(c.data[off])
		p := c.data[off+1 : off+1+4*n]
		for i := 0; i < len(p); i += 4 {
			if !yield(rects.Rect{X: p[i], Y: p[i+1], W: p[i+2], H: p[i+3]}) {
				return
			}
		}
	}, true
}

// Len returns the number of rectangles stored for code, or 0.
func (c *Cache) Len(code rune) int {
	off := c.Offset(code)
	if off == NotCached {
		return 0
	}
	return int(c.data[off])
}

// Size returns the size of the packed data in bytes.
func (c *Cache) Size() int {
	return len(c.data)
}

func (c *Cache) String() string {
	return fmt.Sprintf("glyphcache.Cache{%d glyphs, %d bytes}", Last-First+1, len(c.data))
}
