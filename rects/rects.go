// Package rects decomposes a 1-bit mask into filled rectangles.
//
// Each rectangle maps to a single window write on the panel, so the fewer
// rectangles a shape decomposes into the fewer bus transactions it costs.
package rects

import (
	"fmt"
	"image"
	"iter"

	"periph.io/x/devices/v3/st7735/image1bit"
)

// Rect is a filled axis-aligned rectangle in panel coordinates.
//
// W and H are always at least 1 for rectangles produced by this package.
type Rect struct {
	X, Y, W, H uint8
}

// Rectangle returns r as an image.Rectangle.
func (r Rect) Rectangle() image.Rectangle {
	return image.Rect(int(r.X), int(r.Y), int(r.X)+int(r.W), int(r.Y)+int(r.H))
}

// Area returns the number of pixels covered by r.
func (r Rect) Area() int {
	return int(r.W) * int(r.H)
}

func (r Rect) String() string {
	return fmt.Sprintf("(%d,%d %dx%d)", r.X, r.Y, r.W, r.H)
}

// FromRectangle converts a non-empty image.Rectangle that fits in 0..255.
//
// It panics otherwise.
func FromRectangle(r image.Rectangle) Rect {
	if r.Empty() || r.Min.X < 0 || r.Min.Y < 0 || r.Max.X > 255 || r.Max.Y > 255 {
		panic(fmt.Sprintf("rects: %v cannot be represented", r))
	}
	return Rect{X: uint8(r.Min.X), Y: uint8(r.Min.Y), W: uint8(r.Dx()), H: uint8(r.Dy())}
}

// Decompose returns the set pixels of m inside r as non-overlapping filled
// rectangles.
//
// Rows are visited top to bottom and spans left to right. Every span is
// extended downward for as long as the next row holds a span with exactly the
// same bounds; spans of a different width are never merged. Consumed spans
// are cleared from m, so when the sequence is fully drained the region r of m
// is empty. Stopping early leaves the remaining pixels in place.
//
// The output order is deterministic for a given mask content.
func Decompose(m *image1bit.HorizontalMSB, r image.Rectangle) iter.Seq[Rect] {
	return decompose(m, r, false)
}

// DecomposeConvex is like Decompose but only considers the leftmost span of
// each row. It is exact for shapes with at most one span per row, such as a
// line or a convex polygon; other spans are left set in m.
func DecomposeConvex(m *image1bit.HorizontalMSB, r image.Rectangle) iter.Seq[Rect] {
	return decompose(m, r, true)
}

func decompose(m *image1bit.HorizontalMSB, r image.Rectangle, convex bool) iter.Seq[Rect] {
	r = region(m, r)
	return func(yield func(Rect) bool) {
		if r.Empty() {
			return
		}
		lo, hi := r.Min.X, r.Max.X-1
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for s := range m.Spans(y, lo, hi) {
				h := 1
				for y+h < r.Max.Y && m.SpanAt(y+h, s.X0, s.X1, lo, hi) {
					m.ClearSpan(y+h, s.X0, s.X1)
					h++
				}
				m.ClearSpan(y, s.X0, s.X1)
				if !yield(Rect{X: uint8(s.X0), Y: uint8(y), W: uint8(s.Len()), H: uint8(h)}) {
					return
				}
				if convex {
					break
				}
			}
		}
	}
}

// Rows returns every span of m inside r as a rectangle one pixel high,
// without merging rows and without modifying m.
func Rows(m *image1bit.HorizontalMSB, r image.Rectangle) iter.Seq[Rect] {
	r = region(m, r)
	return func(yield func(Rect) bool) {
		if r.Empty() {
			return
		}
		for y := r.Min.Y; y < r.Max.Y; y++ {
			for s := range m.Spans(y, r.Min.X, r.Max.X-1) {
				if !yield(Rect{X: uint8(s.X0), Y: uint8(y), W: uint8(s.Len()), H: 1}) {
					return
				}
			}
		}
	}
}

// Paint sets every pixel covered by seq in m. Pixels outside m are ignored.
func Paint(m *image1bit.HorizontalMSB, seq iter.Seq[Rect]) {
	for r := range seq {
		m.FillRect(r.Rectangle(), true)
	}
}

// Translate moves every rectangle of seq by (dx, dy) and clips the result to
// clip. Rectangles that end up empty are dropped.
func Translate(seq iter.Seq[Rect], dx, dy int, clip image.Rectangle) iter.Seq[Rect] {
	return func(yield func(Rect) bool) {
		for r := range seq {
			c := r.Rectangle().Add(image.Pt(dx, dy)).Intersect(clip)
			if c.Empty() {
				continue
			}
			if !yield(FromRectangle(c)) {
				return
			}
		}
	}
}

// Clip restricts every rectangle of seq to clip.
func Clip(seq iter.Seq[Rect], clip image.Rectangle) iter.Seq[Rect] {
	return Translate(seq, 0, 0, clip)
}

// Of returns a sequence over the given rectangles.
func Of(rs ...Rect) iter.Seq[Rect] {
	return func(yield func(Rect) bool) {
		for _, r := range rs {
			if !yield(r) {
				return
			}
		}
	}
}

// Collect drains seq into a slice.
func Collect(seq iter.Seq[Rect]) []Rect {
	var out []Rect
	for r := range seq {
		out = append(out, r)
	}
	return out
}

// Count drains seq and returns the number of rectangles.
func Count(seq iter.Seq[Rect]) int {
	n := 0
	for range seq {
		n++
	}
	return n
}

// region clips r to m and checks that it fits 8-bit coordinates.
func region(m *image1bit.HorizontalMSB, r image.Rectangle) image.Rectangle {
	r = r.Intersect(m.Bounds())
	if r.Max.X > 255 || r.Max.Y > 255 || r.Min.X < 0 || r.Min.Y < 0 {
		panic(fmt.Sprintf("rects: region %v exceeds 8-bit coordinates", r))
	}
	return r
}
