package svg

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"golang.org/x/image/colornames"

	"periph.io/x/devices/v3/st7735/rgb565"
)

// Pixels per unit at 96 dpi.
var units = map[string]float64{
	"":   1,
	"px": 1,
	"pt": 96.0 / 72,
	"pc": 16,
	"mm": 96 / 25.4,
	"cm": 96 / 2.54,
	"in": 96,
}

// MaxCoordinate bounds the magnitude of every parsed length and point
// coordinate in pixels.
const MaxCoordinate = 32767

// ParseLength parses a number with an optional absolute unit and returns it
// in pixels. Non-finite values and values beyond MaxCoordinate are errors.
func ParseLength(s string) (float64, error) {
	s = strings.TrimSpace(s)
	i := len(s)
	for i > 0 && (s[i-1] >= 'a' && s[i-1] <= 'z' || s[i-1] >= 'A' && s[i-1] <= 'Z' || s[i-1] == '%') {
		i--
	}
	unit := strings.ToLower(s[i:])
	scale, ok := units[unit]
	if !ok {
		return 0, fmt.Errorf("unsupported unit %q", unit)
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(s[:i]), 64)
	if err != nil {
		return 0, fmt.Errorf("bad length %q", s)
	}
	f *= scale
	if !inRange(f) {
		return 0, fmt.Errorf("length %q out of range", s)
	}
	return f, nil
}

// ParsePoints parses a points list such as "0,0 10,5 3 4". Coordinates have
// the same range as lengths.
func ParsePoints(s string) ([]Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t' || r == '\n' || r == '\r'
	})
	if len(fields) == 0 || len(fields)%2 != 0 {
		return nil, fmt.Errorf("bad points %q", s)
	}
	pts := make([]Point, len(fields)/2)
	for i := range pts {
		x, err := strconv.ParseFloat(fields[2*i], 64)
		if err != nil {
			return nil, fmt.Errorf("bad points %q", s)
		}
		y, err := strconv.ParseFloat(fields[2*i+1], 64)
		if err != nil {
			return nil, fmt.Errorf("bad points %q", s)
		}
		if !inRange(x) || !inRange(y) {
			return nil, fmt.Errorf("point %d of %q out of range", i, s)
		}
		pts[i] = Point{X: x, Y: y}
	}
	return pts, nil
}

func inRange(v float64) bool {
	return !math.IsNaN(v) && math.Abs(v) <= MaxCoordinate
}

// ParseColor parses an SVG paint value: a color keyword, #rgb, #rrggbb,
// rgb(), rgba(), hsl(), hsla() or none. none reports true and a zero color.
// Alpha channels are ignored.
func ParseColor(s string) (c rgb565.Color, none bool, err error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "none" || s == "transparent":
		return 0, true, nil
	case strings.HasPrefix(s, "#"):
		c, err = parseHex(s[1:])
	case strings.HasPrefix(s, "rgb"):
		c, err = parseRGB(s)
	case strings.HasPrefix(s, "hsl"):
		c, err = parseHSL(s)
	default:
		rgba, ok := colornames.Map[s]
		if !ok {
			return 0, false, fmt.Errorf("unknown color %q", s)
		}
		c = rgb565.FromColor(rgba)
	}
	if err != nil {
		return 0, false, err
	}
	return c, false, nil
}

func parseHex(h string) (rgb565.Color, error) {
	v, err := strconv.ParseUint(h, 16, 32)
	if err != nil {
		return 0, fmt.Errorf("bad color #%s", h)
	}
	switch len(h) {
	case 3:
		r, g, b := uint8(v>>8&0xF), uint8(v>>4&0xF), uint8(v&0xF)
		return rgb565.FromRGB(r*0x11, g*0x11, b*0x11), nil
	case 6:
		return rgb565.FromRGB(uint8(v>>16), uint8(v>>8), uint8(v)), nil
	}
	return 0, fmt.Errorf("bad color #%s", h)
}

// args returns the comma or space separated values inside fn(...).
func args(s string) ([]string, error) {
	open := strings.IndexByte(s, '(')
	if open < 0 || !strings.HasSuffix(s, ")") {
		return nil, fmt.Errorf("bad color %q", s)
	}
	f := strings.FieldsFunc(s[open+1:len(s)-1], func(r rune) bool {
		return r == ',' || r == ' ' || r == '/'
	})
	if len(f) < 3 || len(f) > 4 {
		return nil, fmt.Errorf("bad color %q", s)
	}
	return f[:3], nil
}

// fraction parses v as a percentage, or as a plain number divided by scale,
// and returns a value in 0..1.
func fraction(v string, scale float64) (float64, error) {
	if p, ok := strings.CutSuffix(v, "%"); ok {
		f, err := strconv.ParseFloat(p, 64)
		return f / 100, err
	}
	f, err := strconv.ParseFloat(v, 64)
	return f / scale, err
}

func parseRGB(s string) (rgb565.Color, error) {
	f, err := args(s)
	if err != nil {
		return 0, err
	}
	var ch [3]uint8
	for i, v := range f {
		x, err := fraction(v, 255)
		if err != nil {
			return 0, fmt.Errorf("bad color %q", s)
		}
		ch[i] = uint8(min(max(x, 0), 1)*255 + 0.5)
	}
	return rgb565.FromRGB(ch[0], ch[1], ch[2]), nil
}

func parseHSL(s string) (rgb565.Color, error) {
	f, err := args(s)
	if err != nil {
		return 0, err
	}
	h, err := strconv.ParseFloat(strings.TrimSuffix(f[0], "deg"), 64)
	if err != nil {
		return 0, fmt.Errorf("bad color %q", s)
	}
	sat, err := fraction(f[1], 1)
	if err != nil {
		return 0, fmt.Errorf("bad color %q", s)
	}
	l, err := fraction(f[2], 1)
	if err != nil {
		return 0, fmt.Errorf("bad color %q", s)
	}
	return rgb565.FromHSL(h, sat, l), nil
}
