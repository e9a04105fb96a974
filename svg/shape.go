package svg

import (
	"image"
	"math"

	"periph.io/x/devices/v3/st7735/rgb565"
)

// Shape is one of Rect, Circle, Ellipse, Line, Polyline or Polygon.
//
// The set is closed: code switching over a Shape can handle every case.
type Shape interface {
	style() Style
}

// Style holds the paint of a shape. Colors are already RGB565.
type Style struct {
	Fill        rgb565.Color
	Stroke      rgb565.Color
	HasFill     bool
	HasStroke   bool
	StrokeWidth float64
}

// StyleOf returns the paint of s.
func StyleOf(s Shape) Style {
	return s.style()
}

// Point is a vertex in user units.
type Point struct {
	X, Y float64
}

// Round returns p rounded to the nearest pixel.
func (p Point) Round() image.Point {
	return image.Pt(Round(p.X), Round(p.Y))
}

// Round rounds a length to whole pixels, halves away from zero.
func Round(v float64) int {
	return int(math.Round(v))
}

// Rect is a <rect> element.
type Rect struct {
	Style
	X, Y, W, H float64
}

// Circle is a <circle> element.
type Circle struct {
	Style
	CX, CY, R float64
}

// Ellipse is an <ellipse> element.
type Ellipse struct {
	Style
	CX, CY, RX, RY float64
}

// Line is a <line> element.
type Line struct {
	Style
	X1, Y1, X2, Y2 float64
}

// Polyline is an open <polyline> path.
type Polyline struct {
	Style
	Points []Point
}

// Polygon is a closed <polygon> path.
type Polygon struct {
	Style
	Points []Point
}

func (s *Rect) style() Style     { return s.Style }
func (s *Circle) style() Style   { return s.Style }
func (s *Ellipse) style() Style  { return s.Style }
func (s *Line) style() Style     { return s.Style }
func (s *Polyline) style() Style { return s.Style }
func (s *Polygon) style() Style  { return s.Style }

// Points converts pts to whole pixels.
func Points(pts []Point) []image.Point {
	out := make([]image.Point, len(pts))
	for i, p := range pts {
		out[i] = p.Round()
	}
	return out
}
