// Package raster draws geometric primitives into a 1-bit mask.
//
// Every function plots with pixel-exact integer or pixel-center sampling and
// silently drops pixels that fall outside the mask, so callers can draw
// shapes that are partially off-screen. Work is bounded by the part of the
// shape inside the mask, not by its coordinates.
package raster

import (
	"image"
	"image/color"
	"math"
	"slices"

	"tinygo.org/x/tinydraw"

	"periph.io/x/devices/v3/st7735/image1bit"
)

// on is the color that turns a mask pixel on through drivers.Displayer.
var on = color.RGBA{A: 0xFF}

// Line draws a one pixel wide line from (x0, y0) to (x1, y1), both ends
// included. The segment is clipped to the mask first, then drawn with
// tinydraw's Bresenham.
func Line(m *image1bit.HorizontalMSB, x0, y0, x1, y1 int) {
	ax, ay, bx, by, ok := clipLine(m.Rect, x0, y0, x1, y1)
	if !ok {
		return
	}
	o := m.Rect.Min
	tinydraw.Line(m, int16(ax-o.X), int16(ay-o.Y), int16(bx-o.X), int16(by-o.Y), on)
}

// clipLine clips the segment to the pixels of r with the Liang-Barsky
// algorithm and rounds the new ends to the nearest pixel. ok is false when
// no part of the segment lies in r.
func clipLine(r image.Rectangle, x0, y0, x1, y1 int) (ax, ay, bx, by int, ok bool) {
	if r.Empty() {
		return 0, 0, 0, 0, false
	}
	p0, p1 := image.Pt(x0, y0), image.Pt(x1, y1)
	if p0.In(r) && p1.In(r) {
		return x0, y0, x1, y1, true
	}
	fx0, fy0 := float64(x0), float64(y0)
	dx, dy := float64(x1)-fx0, float64(y1)-fy0
	t0, t1 := 0.0, 1.0
	edges := [4][2]float64{
		{-dx, fx0 - float64(r.Min.X)},
		{dx, float64(r.Max.X-1) - fx0},
		{-dy, fy0 - float64(r.Min.Y)},
		{dy, float64(r.Max.Y-1) - fy0},
	}
	for _, e := range edges {
		p, q := e[0], e[1]
		if p == 0 {
			if q < 0 {
				return 0, 0, 0, 0, false
			}
			continue
		}
		t := q / p
		if p < 0 {
			t0 = max(t0, t)
		} else {
			t1 = min(t1, t)
		}
		if t0 > t1 {
			return 0, 0, 0, 0, false
		}
	}
	clampX := func(v float64) int { return min(max(int(math.Round(v)), r.Min.X), r.Max.X-1) }
	clampY := func(v float64) int { return min(max(int(math.Round(v)), r.Min.Y), r.Max.Y-1) }
	return clampX(fx0 + t0*dx), clampY(fy0 + t0*dy), clampX(fx0 + t1*dx), clampY(fy0 + t1*dy), true
}

// Polyline draws the open path through pts.
func Polyline(m *image1bit.HorizontalMSB, pts []image.Point) {
	if len(pts) == 1 {
		plot(m, pts[0].X, pts[0].Y)
	}
	for i := 1; i < len(pts); i++ {
		Line(m, pts[i-1].X, pts[i-1].Y, pts[i].X, pts[i].Y)
	}
}

// Polygon draws the closed polygon through pts. When fill is set the interior
// is filled with the even-odd rule, sampling at pixel centers; otherwise only
// the outline is drawn.
func Polygon(m *image1bit.HorizontalMSB, pts []image.Point, fill bool) {
	if len(pts) == 0 {
		return
	}
	if !fill {
		Polyline(m, pts)
		last := pts[len(pts)-1]
		Line(m, last.X, last.Y, pts[0].X, pts[0].Y)
		return
	}
	b := Bounds(pts).Intersect(m.Bounds())
	if b.Empty() {
		return
	}
	var xs []float64
	for y := b.Min.Y; y < b.Max.Y; y++ {
		yc := float64(y) + 0.5
		xs = xs[:0]
		for i := range pts {
			p, q := pts[i], pts[(i+1)%len(pts)]
			if (float64(p.Y) <= yc) == (float64(q.Y) <= yc) {
				continue
			}
			t := (yc - float64(p.Y)) / float64(q.Y-p.Y)
			xs = append(xs, float64(p.X)+t*float64(q.X-p.X))
		}
		slices.Sort(xs)
		for i := 0; i+1 < len(xs); i += 2 {
			// Pixels whose center lies in [xs[i], xs[i+1]), inside b.
			from := max(math.Ceil(xs[i]-0.5), float64(b.Min.X))
			to := min(math.Ceil(xs[i+1]-0.5)-1, float64(b.Max.X-1))
			for x := int(from); x <= int(to); x++ {
				m.SetBit(x, y, true)
			}
		}
	}
}

// EllipseQuadrant draws the top-left quadrant of the ellipse centered on
// (cx, cy) with radii rx and ry: columns cx-rx to cx-1 and rows cy-ry to
// cy-1. The other quadrants are mirror images.
//
// Each row covers the pixels whose center lies inside the ellipse, and at
// least one pixel. In outline mode only the pixels not covered by the row
// above are kept, so the curve stays connected.
//
// It panics if rx or ry is not positive.
func EllipseQuadrant(m *image1bit.HorizontalMSB, cx, cy, rx, ry int, fill bool) {
	if rx <= 0 || ry <= 0 {
		panic("raster: ellipse radii must be positive")
	}
	// Half width of row j, counted from cx.
	half := func(j int) int {
		dy := (float64(ry-j) - 0.5) / float64(ry)
		n := int(math.Round(float64(rx) * math.Sqrt(1-dy*dy)))
		return max(1, min(n, rx))
	}
	top := cy - ry
	j0 := max(0, m.Rect.Min.Y-top)
	j1 := min(ry, m.Rect.Max.Y-top)
	prev := 0
	if j0 > 0 {
		prev = half(j0 - 1)
	}
	for j := j0; j < j1; j++ {
		n := half(j)
		from, to := cx-n, cx-1
		if !fill {
			to = max(from, cx-1-prev)
		}
		from = max(from, m.Rect.Min.X)
		to = min(to, m.Rect.Max.X-1)
		for x := from; x <= to; x++ {
			m.SetBit(x, top+j, true)
		}
		prev = n
	}
}

// Bounds returns the smallest rectangle containing every point of pts.
func Bounds(pts []image.Point) image.Rectangle {
	if len(pts) == 0 {
		return image.Rectangle{}
	}
	r := image.Rectangle{Min: pts[0], Max: pts[0].Add(image.Pt(1, 1))}
	for _, p := range pts[1:] {
		r = r.Union(image.Rectangle{Min: p, Max: p.Add(image.Pt(1, 1))})
	}
	return r
}

func plot(m *image1bit.HorizontalMSB, x, y int) {
	if (image.Point{X: x, Y: y}).In(m.Rect) {
		m.SetBit(x, y, true)
	}
}
