package image1bit

import (
	"fmt"
	"image"
	"image/color"
)

// Bit represents a monochrome pixel: On means the pixel is part of a shape.
type Bit bool

const (
	On  = Bit(true)
	Off = Bit(false)
)

// RGBA converts the Bit to standard RGBA. On is opaque white, Off is opaque
// black.
func (b Bit) RGBA() (r, g, bl, a uint32) {
	if b {
		return 0xFFFF, 0xFFFF, 0xFFFF, 0xFFFF
	}
	return 0, 0, 0, 0xFFFF
}

func (b Bit) String() string {
	if b {
		return "On"
	}
	return "Off"
}

// toBit converts any color.Color to Bit.
func toBit(c color.Color) color.Color {
	if b, ok := c.(Bit); ok {
		return b
	}
	r, g, b, _ := c.RGBA()
	// Same luminance weights as the grayscale conversion in image/color.
	y := (299*r + 587*g + 114*b + 500) / 1000
	return Bit(y >= 0x8000)
}

// BitModel converts colors to Bit.
var BitModel = color.ModelFunc(toBit)

// HorizontalMSB is a 1-bit image stored as a contiguous row-major bit stream,
// 8 pixels per byte, most significant bit = leftmost pixel.
type HorizontalMSB struct {
	Pix  []byte          // Pixel data (8 pixels per byte)
	Rect image.Rectangle // Image bounds
}

// NewHorizontalMSB creates a new cleared HorizontalMSB image with the
// specified bounds.
//
// The backing store is exactly ceil(width*height/8) bytes.
func NewHorizontalMSB(r image.Rectangle) *HorizontalMSB {
	w, h := r.Dx(), r.Dy()
	if w <= 0 || h <= 0 {
		return &HorizontalMSB{Rect: r}
	}
	return &HorizontalMSB{
		Pix:  make([]byte, (w*h+7)/8),
		Rect: r,
	}
}

// ColorModel returns the color model of the image.
func (m *HorizontalMSB) ColorModel() color.Model {
	return BitModel
}

// Bounds returns the image bounds.
func (m *HorizontalMSB) Bounds() image.Rectangle {
	return m.Rect
}

// At returns the color of the pixel at (x, y). Out of bounds pixels are Off.
// It implements the image.Image interface.
func (m *HorizontalMSB) At(x, y int) color.Color {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return Off
	}
	return Bit(m.get(m.bitIndex(x, y)))
}

// Set sets the color of the pixel at (x, y). Out of bounds writes are ignored.
// It implements the draw.Image interface.
func (m *HorizontalMSB) Set(x, y int, c color.Color) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		return
	}
	m.put(m.bitIndex(x, y), bool(BitModel.Convert(c).(Bit)))
}

// BitAt returns whether the pixel at (x, y) is set.
//
// It panics if (x, y) is outside the image: callers own coordinate validation.
func (m *HorizontalMSB) BitAt(x, y int) bool {
	m.mustContain(x, y)
	return m.get(m.bitIndex(x, y))
}

// SetBit sets or clears the pixel at (x, y).
//
// It panics if (x, y) is outside the image.
func (m *HorizontalMSB) SetBit(x, y int, v bool) {
	m.mustContain(x, y)
	m.put(m.bitIndex(x, y), v)
}

// Clear turns every pixel off.
func (m *HorizontalMSB) Clear() {
	clear(m.Pix)
}

// Fill turns every pixel on. Padding bits past the last pixel stay clear.
func (m *HorizontalMSB) Fill() {
	m.setRun(0, m.Rect.Dx()*m.Rect.Dy(), true)
}

// ClearRect turns off every pixel of r ∩ m.Rect.
//
// Unlike the single pixel accessors it clips instead of panicking, so shape
// bounding boxes that cross the edge can be cleared as is.
func (m *HorizontalMSB) ClearRect(r image.Rectangle) {
	m.FillRect(r, false)
}

// FillRect sets every pixel of r ∩ m.Rect to v. It clips like ClearRect.
func (m *HorizontalMSB) FillRect(r image.Rectangle, v bool) {
	r = r.Intersect(m.Rect)
	if r.Empty() {
		return
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		i := m.bitIndex(r.Min.X, y)
		m.setRun(i, i+r.Dx(), v)
	}
}

// ClearSpan turns off pixels x0..x1 (inclusive) of row y.
//
// It panics if the span is outside the image.
func (m *HorizontalMSB) ClearSpan(y, x0, x1 int) {
	m.mustContain(x0, y)
	m.mustContain(x1, y)
	i := m.bitIndex(x0, y)
	m.setRun(i, i+x1-x0+1, false)
}

// Clone returns a deep copy of the image.
func (m *HorizontalMSB) Clone() *HorizontalMSB {
	c := &HorizontalMSB{Rect: m.Rect, Pix: make([]byte, len(m.Pix))}
	copy(c.Pix, m.Pix)
	return c
}

// Empty reports whether no pixel is set.
func (m *HorizontalMSB) Empty() bool {
	for _, b := range m.Pix {
		if b != 0 {
			return false
		}
	}
	return true
}

// Size implements drivers.Displayer.
func (m *HorizontalMSB) Size() (x, y int16) {
	return int16(m.Rect.Dx()), int16(m.Rect.Dy())
}

// SetPixel implements drivers.Displayer so font rasterizers can draw into the
// mask. Any color with a non-zero alpha turns the pixel on. Pixels outside
// the image are dropped.
func (m *HorizontalMSB) SetPixel(x, y int16, c color.RGBA) {
	px, py := int(x)+m.Rect.Min.X, int(y)+m.Rect.Min.Y
	if !(image.Point{X: px, Y: py}.In(m.Rect)) {
		return
	}
	m.put(m.bitIndex(px, py), c.A != 0)
}

// Display implements drivers.Displayer. The mask is off-screen so it is a
// no-op.
func (m *HorizontalMSB) Display() error {
	return nil
}

func (m *HorizontalMSB) String() string {
	return fmt.Sprintf("image1bit.HorizontalMSB{%dx%d}", m.Rect.Dx(), m.Rect.Dy())
}

func (m *HorizontalMSB) mustContain(x, y int) {
	if !(image.Point{X: x, Y: y}.In(m.Rect)) {
		panic(fmt.Sprintf("image1bit: pixel (%d, %d) outside %v", x, y, m.Rect))
	}
}

// bitIndex returns the position of the pixel at (x, y) in the bit stream.
func (m *HorizontalMSB) bitIndex(x, y int) int {
	return (y-m.Rect.Min.Y)*m.Rect.Dx() + (x - m.Rect.Min.X)
}

func (m *HorizontalMSB) get(i int) bool {
	return m.Pix[i>>3]&(0x80>>(i&7)) != 0
}

func (m *HorizontalMSB) put(i int, v bool) {
	if v {
		m.Pix[i>>3] |= 0x80 >> (i & 7)
	} else {
		m.Pix[i>>3] &^= 0x80 >> (i & 7)
	}
}

// setRun sets bits [i, end) of the stream to v, a whole byte at a time where
// possible.
func (m *HorizontalMSB) setRun(i, end int, v bool) {
	for i < end {
		shift := i & 7
		n := 8 - shift
		if i+n > end {
			n = end - i
		}
		// n bits starting at bit position shift within the byte.
		mask := byte(0xFF>>shift) &^ byte(0xFF>>(shift+n))
		if v {
			m.Pix[i>>3] |= mask
		} else {
			m.Pix[i>>3] &^= mask
		}
		i += n
	}
}
