// Package render turns drawing operations into streams of filled rectangles.
//
// Shapes are rasterized into a 1-bit mask owned by the renderer and
// decomposed into rectangles with package rects. Every returned sequence does
// its work when iterated: it clears the shape's bounding box, rasterizes,
// then decomposes, so iterating again yields the same rectangles and
// sequences created earlier do not see each other's pixels.
//
// Invalid arguments such as a zero size or an origin outside the buffer are
// programming errors and panic when the operation is called.
package render

import (
	"fmt"
	"image"
	"iter"
	"unicode/utf8"

	"tinygo.org/x/tinyfont"

	"periph.io/x/devices/v3/st7735/drawseq"
	"periph.io/x/devices/v3/st7735/font8x8"
	"periph.io/x/devices/v3/st7735/glyphcache"
	"periph.io/x/devices/v3/st7735/image1bit"
	"periph.io/x/devices/v3/st7735/raster"
	"periph.io/x/devices/v3/st7735/rects"
	"periph.io/x/devices/v3/st7735/svg"
)

// Advance is the horizontal pen advance of a character.
const Advance = glyphcache.CellSize

// Renderer produces the rectangles of drawing operations.
type Renderer interface {
	Bounds() image.Rectangle
	Rect(x, y, w, h int, fill bool, thickness int) iter.Seq[rects.Rect]
	HLine(x, y, length int) iter.Seq[rects.Rect]
	VLine(x, y, length int) iter.Seq[rects.Rect]
	Line(x1, y1, x2, y2 int) iter.Seq[rects.Rect]
	Polyline(pts []image.Point) iter.Seq[rects.Rect]
	Polygon(pts []image.Point, fill, convex bool) iter.Seq[rects.Rect]
	Ellipse(cx, cy, rx, ry int, fill bool) iter.Seq[rects.Rect]
	Text(s string, x, y int) iter.Seq[rects.Rect]
	TextUncached(s string, x, y int) iter.Seq[rects.Rect]
	Document(shapes []svg.Shape) iter.Seq[drawseq.Command]
}

var _ Renderer = (*Mask)(nil)

// Mask is a Renderer backed by its own mask buffer.
//
// It is not safe for concurrent use.
type Mask struct {
	buf   *image1bit.HorizontalMSB
	font  tinyfont.Fonter
	cache *glyphcache.Cache
	quad  []byte // ellipse quadrant scratch, grown on demand
}

// New returns a renderer for a w×h panel. font defaults to font8x8.Font.
// cache may be nil, in which case every character is rasterized.
//
// It panics if the size is not in 1..255.
func New(w, h int, font tinyfont.Fonter, cache *glyphcache.Cache) *Mask {
	if font == nil {
		font = font8x8.Font
	}
	m := &Mask{font: font, cache: cache}
	m.Resize(w, h)
	return m
}

// Resize replaces the mask buffer with an empty one of the new size.
func (m *Mask) Resize(w, h int) {
	if w <= 0 || h <= 0 || w > 255 || h > 255 {
		panic(fmt.Sprintf("render: invalid size %dx%d", w, h))
	}
	m.buf = image1bit.NewHorizontalMSB(image.Rect(0, 0, w, h))
}

// Bounds returns the drawable area.
func (m *Mask) Bounds() image.Rectangle {
	return m.buf.Rect
}

// Buffer returns the mask. Pixels drawn into it directly can be sent with
// rects.Decompose or rects.Rows.
func (m *Mask) Buffer() *image1bit.HorizontalMSB {
	return m.buf
}

// Cache returns the glyph cache, which may be nil.
func (m *Mask) Cache() *glyphcache.Cache {
	return m.cache
}

// Rect returns a w×h rectangle at (x, y). A filled rectangle is a single
// rect. An outline is made of up to four borders of the given thickness:
// top, bottom, left and right. When the borders would meet it is the filled
// rectangle. The result is clipped to the buffer.
func (m *Mask) Rect(x, y, w, h int, fill bool, thickness int) iter.Seq[rects.Rect] {
	m.mustContain(x, y)
	if w <= 0 || h <= 0 {
		panic(fmt.Sprintf("render: invalid rect size %dx%d", w, h))
	}
	if !fill && thickness <= 0 {
		panic(fmt.Sprintf("render: invalid thickness %d", thickness))
	}
	return m.rect(image.Rect(x, y, x+w, y+h), fill, thickness)
}

func (m *Mask) rect(r image.Rectangle, fill bool, t int) iter.Seq[rects.Rect] {
	w, h := r.Dx(), r.Dy()
	if fill || 2*t >= w || 2*t >= h {
		return m.clipped(r)
	}
	x, y := r.Min.X, r.Min.Y
	return m.clipped(
		image.Rect(x, y, x+w, y+t),
		image.Rect(x, y+h-t, x+w, y+h),
		image.Rect(x, y+t, x+t, y+h-t),
		image.Rect(x+w-t, y+t, x+w, y+h-t),
	)
}

// HLine returns a horizontal line of length pixels starting at (x, y).
func (m *Mask) HLine(x, y, length int) iter.Seq[rects.Rect] {
	m.mustContain(x, y)
	if length <= 0 {
		panic(fmt.Sprintf("render: invalid line length %d", length))
	}
	return m.clipped(image.Rect(x, y, x+length, y+1))
}

// VLine returns a vertical line of length pixels starting at (x, y).
func (m *Mask) VLine(x, y, length int) iter.Seq[rects.Rect] {
	m.mustContain(x, y)
	if length <= 0 {
		panic(fmt.Sprintf("render: invalid line length %d", length))
	}
	return m.clipped(image.Rect(x, y, x+1, y+length))
}

// Line returns the Bresenham line between two points, both included. A
// line has a single span per row, so it is decomposed in convex mode.
func (m *Mask) Line(x1, y1, x2, y2 int) iter.Seq[rects.Rect] {
	pts := []image.Point{{x1, y1}, {x2, y2}}
	return m.shape(raster.Bounds(pts), true, func(b *image1bit.HorizontalMSB) {
		raster.Line(b, x1, y1, x2, y2)
	})
}

// Polyline returns the open path through pts.
func (m *Mask) Polyline(pts []image.Point) iter.Seq[rects.Rect] {
	pts = clonePoints(pts)
	return m.shape(raster.Bounds(pts), false, func(b *image1bit.HorizontalMSB) {
		raster.Polyline(b, pts)
	})
}

// Polygon returns the closed polygon through pts, filled with the even-odd
// rule or outlined. convex selects the faster single-span decomposition and
// only applies to filled polygons that are known to be convex.
func (m *Mask) Polygon(pts []image.Point, fill, convex bool) iter.Seq[rects.Rect] {
	pts = clonePoints(pts)
	return m.shape(raster.Bounds(pts), fill && convex, func(b *image1bit.HorizontalMSB) {
		raster.Polygon(b, pts, fill)
	})
}

// Ellipse returns the ellipse centered on (cx, cy) with radii rx and ry. It
// spans columns cx-rx to cx+rx-1 and rows cy-ry to cy+ry-1.
//
// Only the top-left quadrant is rasterized, into a scratch buffer reused by
// every ellipse, and decomposed; the other three are reflections of its
// rectangles. A filled ellipse merges each rectangle
// with its horizontal mirror, so it needs half as many rectangles as an
// outline.
func (m *Mask) Ellipse(cx, cy, rx, ry int, fill bool) iter.Seq[rects.Rect] {
	if rx <= 0 || ry <= 0 || rx > 255 || ry > 255 {
		panic(fmt.Sprintf("render: invalid ellipse radii %d, %d", rx, ry))
	}
	return func(yield func(rects.Rect) bool) {
		q := m.quadrant(rx, ry)
		raster.EllipseQuadrant(q, rx, ry, rx, ry, fill)
		for r := range rects.Decompose(q, q.Bounds()) {
			x, y := cx-rx+int(r.X), cy-ry+int(r.Y)
			w, h := int(r.W), int(r.H)
			// Mirrored across the vertical and horizontal axes.
			mx, my := 2*cx-x-w, 2*cy-y-h
			var parts []image.Rectangle
			if fill {
				parts = []image.Rectangle{
					image.Rect(x, y, x+2*(cx-x), y+h),
					image.Rect(x, my, x+2*(cx-x), my+h),
				}
			} else {
				parts = []image.Rectangle{
					image.Rect(x, y, x+w, y+h),
					image.Rect(mx, y, mx+w, y+h),
					image.Rect(x, my, x+w, my+h),
					image.Rect(mx, my, mx+w, my+h),
				}
			}
			for _, p := range parts {
				if !m.yieldClipped(p, yield) {
					return
				}
			}
		}
	}
}

// Text returns the rectangles of s with the top-left corner of the first
// character at (x, y). The pen advances 8 pixels per character and stops at
// the right edge of the buffer.
//
// Characters in the glyph cache are replayed from it; the others, and every
// character when there is no cache, are rasterized and decomposed.
func (m *Mask) Text(s string, x, y int) iter.Seq[rects.Rect] {
	return func(yield func(rects.Rect) bool) {
		pen := x
		for _, c := range s {
			if pen >= m.buf.Rect.Max.X {
				return
			}
			var seq iter.Seq[rects.Rect]
			if cached, ok := m.lookup(c); ok {
				seq = rects.Translate(cached, pen, y, m.buf.Rect)
			} else {
				seq = m.glyph(c, pen, y)
			}
			for r := range seq {
				if !yield(r) {
					return
				}
			}
			pen += Advance
		}
	}
}

// TextUncached is like Text but rasterizes the whole string before
// decomposing it, without the glyph cache.
func (m *Mask) TextUncached(s string, x, y int) iter.Seq[rects.Rect] {
	n := utf8.RuneCountInString(s)
	box := image.Rect(x, y, x+n*Advance, y+glyphcache.CellSize)
	return m.shape(box, false, func(b *image1bit.HorizontalMSB) {
		pen := x
		for _, c := range s {
			if pen >= b.Rect.Max.X {
				return
			}
			glyphcache.Rasterize(b, m.font, pen, y, c)
			pen += Advance
		}
	})
}

// Document returns one command per painted part of shapes: the fill, then
// the stroke, of each shape in document order. Shapes are clipped to the
// buffer instead of panicking. A zero stroke width draws no stroke.
func (m *Mask) Document(shapes []svg.Shape) iter.Seq[drawseq.Command] {
	return func(yield func(drawseq.Command) bool) {
		for _, s := range shapes {
			st := svg.StyleOf(s)
			var fill, stroke iter.Seq[rects.Rect]
			switch s := s.(type) {
			case *svg.Rect:
				r := image.Rect(svg.Round(s.X), svg.Round(s.Y), svg.Round(s.X+s.W), svg.Round(s.Y+s.H))
				if r.Empty() {
					continue
				}
				fill = m.rect(r, true, 0)
				stroke = m.rect(r, false, max(1, svg.Round(st.StrokeWidth)))
			case *svg.Circle:
				rad := svg.Round(s.R)
				if rad <= 0 || rad > 255 {
					continue
				}
				fill = m.Ellipse(svg.Round(s.CX), svg.Round(s.CY), rad, rad, true)
				stroke = m.Ellipse(svg.Round(s.CX), svg.Round(s.CY), rad, rad, false)
			case *svg.Ellipse:
				rx, ry := svg.Round(s.RX), svg.Round(s.RY)
				if rx <= 0 || ry <= 0 || rx > 255 || ry > 255 {
					continue
				}
				fill = m.Ellipse(svg.Round(s.CX), svg.Round(s.CY), rx, ry, true)
				stroke = m.Ellipse(svg.Round(s.CX), svg.Round(s.CY), rx, ry, false)
			case *svg.Line:
				stroke = m.Line(svg.Round(s.X1), svg.Round(s.Y1), svg.Round(s.X2), svg.Round(s.Y2))
			case *svg.Polyline:
				pts := svg.Points(s.Points)
				fill = m.Polygon(pts, true, false)
				stroke = m.Polyline(pts)
			case *svg.Polygon:
				pts := svg.Points(s.Points)
				fill = m.Polygon(pts, true, false)
				stroke = m.Polygon(pts, false, false)
			default:
				panic(fmt.Sprintf("render: unknown shape %T", s))
			}
			if st.HasFill && fill != nil {
				if !yield(drawseq.Command{Color: st.Fill, Rects: fill}) {
					return
				}
			}
			if st.HasStroke && st.StrokeWidth > 0 && stroke != nil {
				if !yield(drawseq.Command{Color: st.Stroke, Rects: stroke}) {
					return
				}
			}
		}
	}
}

// quadrant returns a cleared rx×ry mask backed by the scratch buffer. It is
// at most 8 KiB for the largest radii.
func (m *Mask) quadrant(rx, ry int) *image1bit.HorizontalMSB {
	n := (rx*ry + 7) / 8
	if cap(m.quad) < n {
		m.quad = make([]byte, n)
	}
	q := &image1bit.HorizontalMSB{Pix: m.quad[:n], Rect: image.Rect(0, 0, rx, ry)}
	q.Clear()
	return q
}

func (m *Mask) lookup(c rune) (iter.Seq[rects.Rect], bool) {
	if m.cache == nil {
		return nil, false
	}
	return m.cache.Lookup(c)
}

// glyph rasterizes and decomposes a single character cell.
func (m *Mask) glyph(c rune, x, y int) iter.Seq[rects.Rect] {
	box := image.Rect(x, y, x+glyphcache.CellSize, y+glyphcache.CellSize)
	return m.shape(box, false, func(b *image1bit.HorizontalMSB) {
		glyphcache.Rasterize(b, m.font, x, y, c)
	})
}

// shape clears box, calls draw, then decomposes box. box is clipped to the
// buffer.
func (m *Mask) shape(box image.Rectangle, convex bool, draw func(*image1bit.HorizontalMSB)) iter.Seq[rects.Rect] {
	return func(yield func(rects.Rect) bool) {
		b := box.Intersect(m.buf.Rect)
		if b.Empty() {
			return
		}
		m.buf.ClearRect(b)
		draw(m.buf)
		var seq iter.Seq[rects.Rect]
		if convex {
			seq = rects.DecomposeConvex(m.buf, b)
		} else {
			seq = rects.Decompose(m.buf, b)
		}
		for r := range seq {
			if !yield(r) {
				break
			}
		}
		// Leave nothing behind when the caller stops early.
		m.buf.ClearRect(b)
	}
}

func (m *Mask) clipped(rs ...image.Rectangle) iter.Seq[rects.Rect] {
	return func(yield func(rects.Rect) bool) {
		for _, r := range rs {
			if !m.yieldClipped(r, yield) {
				return
			}
		}
	}
}

func (m *Mask) yieldClipped(r image.Rectangle, yield func(rects.Rect) bool) bool {
	r = r.Intersect(m.buf.Rect)
	if r.Empty() {
		return true
	}
	return yield(rects.FromRectangle(r))
}

func (m *Mask) mustContain(x, y int) {
	if !(image.Point{X: x, Y: y}.In(m.buf.Rect)) {
		panic(fmt.Sprintf("render: origin (%d, %d) outside %v", x, y, m.buf.Rect))
	}
}

func clonePoints(pts []image.Point) []image.Point {
	return append([]image.Point(nil), pts...)
}
