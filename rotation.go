package st7735

import (
	"fmt"
	"image"

	"tinygo.org/x/drivers"
)

// Offset is the position of the visible area in controller RAM.
type Offset struct {
	Col, Row int
}

// madctls holds the MADCTL argument of each quarter turn.
var madctls = [4]byte{
	drivers.Rotation0:   MadctlMY | MadctlMX,
	drivers.Rotation90:  MadctlMY | MadctlMV,
	drivers.Rotation180: 0,
	drivers.Rotation270: MadctlMX | MadctlMV,
}

// mini80x160 are the RAM offsets of 80x160 modules, whose 132x162 RAM
// leaves a margin on every side of the glass.
var mini80x160 = [4]Offset{
	drivers.Rotation0:   {Col: 24, Row: 0},
	drivers.Rotation90:  {Col: 0, Row: 24},
	drivers.Rotation180: {Col: 28, Row: 2},
	drivers.Rotation270: {Col: 2, Row: 28},
}

// defaultOffsets returns the RAM offsets of a w×h panel. Only 80x160
// modules have a known table; other sizes get zero offsets.
func defaultOffsets(w, h int) [4]Offset {
	if w == 80 && h == 160 {
		return mini80x160
	}
	return [4]Offset{}
}

// orientation is the derived state of a rotation.
type orientation struct {
	madctl byte
	off    Offset
	size   image.Point
}

// orient computes the orientation of a panel of the given native size.
//
// It panics if r is not a quarter turn.
func orient(native image.Point, offsets [4]Offset, r drivers.Rotation, mirrorX, mirrorY, bgr bool) orientation {
	if r > drivers.Rotation270 {
		panic(fmt.Sprintf("st7735: invalid quarter turn %d", r))
	}
	o := orientation{madctl: madctls[r], off: offsets[r], size: native}
	if mirrorX {
		o.madctl ^= MadctlMX
	}
	if mirrorY {
		o.madctl ^= MadctlMY
	}
	if bgr {
		o.madctl |= MadctlBGR
	}
	if r%2 == 1 {
		o.size = image.Pt(native.Y, native.X)
	}
	return o
}
