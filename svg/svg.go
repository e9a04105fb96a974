// Package svg reads the subset of SVG the ST7735 renderer can draw.
//
// Supported elements are rect, circle, ellipse, line, polyline and polygon,
// optionally nested in <g> groups whose fill and stroke are inherited.
// Everything else (paths, text, transforms, gradients) is ignored.
//
// A shape with an unusable attribute is skipped and reported in
// Document.Errors; the rest of the document is still returned.
package svg

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"periph.io/x/devices/v3/st7735/internal/logging"
	"periph.io/x/devices/v3/st7735/rgb565"
)

// Document is a parsed SVG document.
type Document struct {
	// Width and Height of the root element in pixels, 0 when absent.
	Width, Height float64
	Shapes        []Shape
	// Errors lists the shapes that were skipped.
	Errors []*ShapeError
}

// ShapeError describes a shape that could not be used.
type ShapeError struct {
	Element string
	Line    int
	Err     error
}

func (e *ShapeError) Error() string {
	return fmt.Sprintf("svg: <%s> on line %d: %v", e.Element, e.Line, e.Err)
}

func (e *ShapeError) Unwrap() error {
	return e.Err
}

var (
	errMissing  = errors.New("missing attribute")
	errNotDrawn = errors.New("non-positive size")
)

// defaultStyle is the SVG initial value: black fill, no stroke.
var defaultStyle = Style{Fill: rgb565.Black, HasFill: true, StrokeWidth: 1}

// Parse reads an SVG document from r.
//
// It returns an error only if the XML itself is malformed.
func Parse(r io.Reader) (*Document, error) {
	d := xml.NewDecoder(r)
	doc := &Document{}
	stack := []Style{defaultStyle}
	root := true
	for {
		tok, err := d.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("svg: %w", err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			a := attrs(t.Attr)
			line, _ := d.InputPos()
			st, err := applyStyle(stack[len(stack)-1], a)
			stack = append(stack, st)
			name := strings.ToLower(t.Name.Local)
			if root && name == "svg" {
				doc.Width, _ = a.length("width", 0)
				doc.Height, _ = a.length("height", 0)
			}
			root = false
			if !isShape(name) {
				continue
			}
			var s Shape
			if err == nil {
				s, err = newShape(name, st, a)
			}
			if err != nil {
				e := &ShapeError{Element: name, Line: line, Err: err}
				logging.Logger().Debug("svg shape skipped", slog.String("error", e.Error()))
				doc.Errors = append(doc.Errors, e)
				continue
			}
			doc.Shapes = append(doc.Shapes, s)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		}
	}
	return doc, nil
}

func isShape(name string) bool {
	switch name {
	case "rect", "circle", "ellipse", "line", "polyline", "polygon":
		return true
	}
	return false
}

func newShape(name string, st Style, a attributes) (Shape, error) {
	switch name {
	case "rect":
		s := &Rect{Style: st}
		if err := a.lengths(&s.X, "x", 0, &s.Y, "y", 0); err != nil {
			return nil, err
		}
		if err := a.lengths(&s.W, "width", -1, &s.H, "height", -1); err != nil {
			return nil, err
		}
		if s.W <= 0 || s.H <= 0 {
			return nil, errNotDrawn
		}
		return s, nil
	case "circle":
		s := &Circle{Style: st}
		if err := a.lengths(&s.CX, "cx", 0, &s.CY, "cy", 0); err != nil {
			return nil, err
		}
		var err error
		if s.R, err = a.length("r", -1); err != nil {
			return nil, err
		}
		if s.R <= 0 {
			return nil, errNotDrawn
		}
		return s, nil
	case "ellipse":
		s := &Ellipse{Style: st}
		if err := a.lengths(&s.CX, "cx", 0, &s.CY, "cy", 0); err != nil {
			return nil, err
		}
		if err := a.lengths(&s.RX, "rx", -1, &s.RY, "ry", -1); err != nil {
			return nil, err
		}
		if s.RX <= 0 || s.RY <= 0 {
			return nil, errNotDrawn
		}
		return s, nil
	case "line":
		s := &Line{Style: st}
		if err := a.lengths(&s.X1, "x1", 0, &s.Y1, "y1", 0); err != nil {
			return nil, err
		}
		if err := a.lengths(&s.X2, "x2", 0, &s.Y2, "y2", 0); err != nil {
			return nil, err
		}
		return s, nil
	case "polyline":
		pts, err := a.points()
		if err != nil {
			return nil, err
		}
		return &Polyline{Style: st, Points: pts}, nil
	case "polygon":
		pts, err := a.points()
		if err != nil {
			return nil, err
		}
		return &Polygon{Style: st, Points: pts}, nil
	}
	return nil, fmt.Errorf("unsupported element %q", name)
}

// applyStyle returns parent overridden by the presentation attributes of a,
// then by its style attribute.
func applyStyle(parent Style, a attributes) (Style, error) {
	st := parent
	decl := map[string]string{}
	for _, k := range []string{"fill", "stroke", "stroke-width"} {
		if v, ok := a[k]; ok {
			decl[k] = v
		}
	}
	for _, part := range strings.Split(a["style"], ";") {
		k, v, ok := strings.Cut(part, ":")
		if !ok {
			continue
		}
		decl[strings.ToLower(strings.TrimSpace(k))] = strings.TrimSpace(v)
	}
	if v, ok := decl["fill"]; ok {
		c, none, err := ParseColor(v)
		if err != nil {
			return parent, fmt.Errorf("fill: %w", err)
		}
		st.Fill, st.HasFill = c, !none
	}
	if v, ok := decl["stroke"]; ok {
		c, none, err := ParseColor(v)
		if err != nil {
			return parent, fmt.Errorf("stroke: %w", err)
		}
		st.Stroke, st.HasStroke = c, !none
	}
	if v, ok := decl["stroke-width"]; ok {
		w, err := ParseLength(v)
		if err != nil {
			return parent, fmt.Errorf("stroke-width: %w", err)
		}
		st.StrokeWidth = w
	}
	return st, nil
}

type attributes map[string]string

func attrs(in []xml.Attr) attributes {
	a := make(attributes, len(in))
	for _, at := range in {
		a[strings.ToLower(at.Name.Local)] = strings.TrimSpace(at.Value)
	}
	return a
}

// length returns attribute k as pixels. def is returned when the attribute is
// absent; a negative def makes the attribute required.
func (a attributes) length(k string, def float64) (float64, error) {
	v, ok := a[k]
	if !ok {
		if def < 0 {
			return 0, fmt.Errorf("%w %q", errMissing, k)
		}
		return def, nil
	}
	f, err := ParseLength(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", k, err)
	}
	return f, nil
}

func (a attributes) lengths(p1 *float64, k1 string, d1 float64, p2 *float64, k2 string, d2 float64) error {
	var err error
	if *p1, err = a.length(k1, d1); err != nil {
		return err
	}
	*p2, err = a.length(k2, d2)
	return err
}

func (a attributes) points() ([]Point, error) {
	v, ok := a["points"]
	if !ok {
		return nil, fmt.Errorf("%w %q", errMissing, "points")
	}
	return ParsePoints(v)
}
