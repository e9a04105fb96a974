package st7735

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"io"
	"iter"
	"sync"
	"time"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"tinygo.org/x/drivers"
	"tinygo.org/x/tinyfont"

	"periph.io/x/devices/v3/st7735/drawseq"
	"periph.io/x/devices/v3/st7735/font8x8"
	"periph.io/x/devices/v3/st7735/glyphcache"
	"periph.io/x/devices/v3/st7735/image1bit"
	"periph.io/x/devices/v3/st7735/rects"
	"periph.io/x/devices/v3/st7735/render"
	"periph.io/x/devices/v3/st7735/rgb565"
	"periph.io/x/devices/v3/st7735/svg"
)

// ramRows is the number of rows of the controller RAM, the scroll range.
const ramRows = 162

var errHalted = errors.New("st7735: halted")

// Opts is the configuration for the ST7735 display.
type Opts struct {
	// Display dimensions in pixels at rotation 0
	W int // Width (default: 80, must be ≤162)
	H int // Height (default: 160, must be ≤162)

	// Orientation
	Rotation drivers.Rotation // Quarter turn, 0 to 3
	MirrorX  bool
	MirrorY  bool
	BGR      bool // Panel expects blue first
	Invert   bool // Send INVON after initialization

	// RAM offsets of the visible area per quarter turn. nil uses the known
	// offsets of 80x160 modules. Every other size defaults to zero offsets
	// for all four turns, which only fits panels whose glass starts at RAM
	// (0, 0); modules that sit elsewhere in the 132x162 RAM, such as most
	// 128x128 and some 128x160 boards, must set them.
	Offsets *[4]Offset

	// SPI clock (default: 15MHz)
	Hz physic.Frequency

	// Optional pins
	RST gpio.PinIO  // Reset pin, nil if not used
	CS  gpio.PinOut // Chip select, nil when driven by the SPI port

	// Initialization table (default: DefaultInit)
	Init []Command

	// Text rendering
	Font        tinyfont.Fonter // 8x8 font (default: font8x8.Font)
	NoFontCache bool            // Rasterize every character instead of caching glyph rectangles
}

// Dev is the device handle for the ST7735 display.
//
// Drawing methods are safe for concurrent use: each one holds the device
// while it renders and transmits, so a window is always followed by its
// pixels.
type Dev struct {
	mu sync.Mutex

	// Communication
	bus bus
	rst gpio.PinIO

	// Geometry
	native  image.Point
	offsets [4]Offset
	rot     drivers.Rotation
	bgr     bool
	o       orientation
	rect    image.Rectangle

	// Rendering
	r     *render.Mask
	burst []byte

	// State
	halted bool
}

var _ display.Drawer = (*Dev)(nil)
var _ drawseq.Sink = (*Dev)(nil)

// NewSPI creates a new ST7735 device connected via SPI.
//
// The SPI port is configured for opts.Hz, Mode0 (CPOL=0, CPHA=0), 8-bit
// transfers. The dc (Data/Command) GPIO pin must be provided.
//
// opts can be nil to use defaults (80x160 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	o, err := resolve(opts)
	if err != nil {
		return nil, err
	}
	if dc == nil {
		return nil, errors.New("st7735: dc pin is required")
	}
	c, err := p.Connect(o.Hz, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("st7735: %w", err)
	}
	return newDev(c, dc, &o)
}

// resolve validates opts and fills in the defaults.
func resolve(opts *Opts) (Opts, error) {
	var o Opts
	if opts != nil {
		o = *opts
	}
	if o.W == 0 && o.H == 0 {
		o.W, o.H = 80, 160
	}
	if o.W <= 0 || o.W > ramRows {
		return o, errors.New("st7735: width must be between 1 and 162")
	}
	if o.H <= 0 || o.H > ramRows {
		return o, errors.New("st7735: height must be between 1 and 162")
	}
	if o.Rotation > drivers.Rotation270 {
		return o, errors.New("st7735: rotation must be a quarter turn between 0 and 3")
	}
	if o.Hz == 0 {
		o.Hz = 15 * physic.MegaHertz
	}
	if o.Init == nil {
		o.Init = DefaultInit
	}
	if o.Font == nil {
		o.Font = font8x8.Font
	}
	return o, nil
}

func newDev(c conn.Conn, dc gpio.PinOut, o *Opts) (*Dev, error) {
	var cache *glyphcache.Cache
	if !o.NoFontCache {
		cache = glyphcache.Build(o.Font)
	}
	d := &Dev{
		bus:     newBus(c, dc, o.CS),
		rst:     o.RST,
		native:  image.Pt(o.W, o.H),
		offsets: defaultOffsets(o.W, o.H),
		bgr:     o.BGR,
	}
	if o.Offsets != nil {
		d.offsets = *o.Offsets
	}
	d.burst = make([]byte, d.bus.maxTx)
	d.o = orient(d.native, d.offsets, o.Rotation, o.MirrorX, o.MirrorY, d.bgr)
	d.rot = o.Rotation
	d.rect = image.Rectangle{Max: d.o.size}
	d.r = render.New(d.o.size.X, d.o.size.Y, o.Font, cache)

	if err := d.init(o); err != nil {
		return nil, err
	}
	return d, nil
}

// init resets the panel, runs the initialization table and applies the
// configured orientation.
func (d *Dev) init(o *Opts) error {
	if d.rst != nil {
		if err := d.rst.Out(gpio.Low); err != nil {
			return fmt.Errorf("st7735: failed to pull RST low: %w", err)
		}
		time.Sleep(100 * time.Millisecond)
		if err := d.rst.Out(gpio.High); err != nil {
			return fmt.Errorf("st7735: failed to pull RST high: %w", err)
		}
		time.Sleep(220 * time.Millisecond)
	}
	if err := d.bus.deselect(); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}

	start := time.Now()
	for _, cmd := range o.Init {
		if err := d.bus.command(cmd.Op, cmd.Args...); err != nil {
			return fmt.Errorf("st7735: init command 0x%02X: %w", cmd.Op, err)
		}
		if cmd.Delay > 0 {
			time.Sleep(cmd.Delay)
		}
	}
	if err := d.bus.command(MADCTL, d.o.madctl); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	if o.Invert {
		if err := d.bus.command(INVON); err != nil {
			return fmt.Errorf("st7735: %w", err)
		}
	}
	Logger().Debug("st7735: initialized",
		"size", d.rect.Size(),
		"commands", len(o.Init),
		"elapsed", time.Since(start))
	return nil
}

// Renderer returns the renderer of the device. Its sequences are sent with
// SendRects or Execute. Iterating them elsewhere is not synchronized with
// the drawing methods.
func (d *Dev) Renderer() render.Renderer {
	return d.r
}

// Rotation returns the current quarter turn.
func (d *Dev) Rotation() drivers.Rotation {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rot
}

// SetRotation changes the orientation of the panel.
//
// An odd quarter turn swaps width and height. The renderer mask is replaced
// by an empty one of the new size, so the screen must be redrawn afterwards.
func (d *Dev) SetRotation(r drivers.Rotation, mirrorX, mirrorY bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	if r > drivers.Rotation270 {
		return fmt.Errorf("st7735: invalid rotation %d", r)
	}
	o := orient(d.native, d.offsets, r, mirrorX, mirrorY, d.bgr)
	if err := d.bus.command(MADCTL, o.madctl); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	d.o, d.rot = o, r
	d.rect = image.Rectangle{Max: o.size}
	d.r.Resize(o.size.X, o.size.Y)
	Logger().Debug("st7735: rotation",
		"rotation", r,
		"madctl", o.madctl,
		"size", o.size,
		"offset", o.off)
	return nil
}

// SendRects fills every rectangle of seq with c, one window per rectangle in
// sequence order.
func (d *Dev) SendRects(seq iter.Seq[rects.Rect], c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendRects(seq, c)
}

// Execute sends every command of cmds.
func (d *Dev) Execute(cmds iter.Seq[drawseq.Command]) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	for cmd := range cmds {
		if err := d.sendRects(cmd.Rects, cmd.Color); err != nil {
			return err
		}
	}
	return nil
}

// Record renders cmds into w as a draw sequence without sending anything.
func (d *Dev) Record(w io.Writer, cmds iter.Seq[drawseq.Command]) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return drawseq.Encode(w, cmds)
}

// Replay sends a draw sequence written by Record.
func (d *Dev) Replay(r io.Reader) error {
	return drawseq.Replay(r, d)
}

// FillScreen paints the whole display with c.
func (d *Dev) FillScreen(c rgb565.Color) error {
	return d.FillRect(0, 0, d.Bounds().Dx(), d.Bounds().Dy(), c)
}

// FillRect paints a w×h rectangle at (x, y) with c in a single window,
// clipped to the display. w and h must be positive.
func (d *Dev) FillRect(x, y, w, h int, c rgb565.Color) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("st7735: invalid rect size %dx%d", w, h)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	r := image.Rect(x, y, x+w, y+h).Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	return d.sendRects(rects.Of(rects.FromRectangle(r)), c)
}

// DrawRect draws a rectangle, filled or as an outline of the given
// thickness.
func (d *Dev) DrawRect(x, y, w, h int, c rgb565.Color, fill bool, thickness int) error {
	return d.SendRects(d.r.Rect(x, y, w, h, fill, thickness), c)
}

// DrawHLine draws a horizontal line of the given length.
func (d *Dev) DrawHLine(x, y, length int, c rgb565.Color) error {
	return d.SendRects(d.r.HLine(x, y, length), c)
}

// DrawVLine draws a vertical line of the given length.
func (d *Dev) DrawVLine(x, y, length int, c rgb565.Color) error {
	return d.SendRects(d.r.VLine(x, y, length), c)
}

// DrawLine draws a line between two points.
func (d *Dev) DrawLine(x1, y1, x2, y2 int, c rgb565.Color) error {
	return d.SendRects(d.r.Line(x1, y1, x2, y2), c)
}

// DrawPolyline draws connected line segments.
func (d *Dev) DrawPolyline(pts []image.Point, c rgb565.Color) error {
	return d.SendRects(d.r.Polyline(pts), c)
}

// DrawPolygon draws a closed polygon. convex selects the cheaper
// decomposition for filled shapes with one span per row.
func (d *Dev) DrawPolygon(pts []image.Point, c rgb565.Color, fill, convex bool) error {
	return d.SendRects(d.r.Polygon(pts, fill, convex), c)
}

// DrawEllipse draws an ellipse centred on (cx, cy).
func (d *Dev) DrawEllipse(cx, cy, rx, ry int, c rgb565.Color, fill bool) error {
	return d.SendRects(d.r.Ellipse(cx, cy, rx, ry, fill), c)
}

// DrawText draws s with its top-left corner at (x, y), using the glyph
// cache when the device has one.
func (d *Dev) DrawText(s string, x, y int, c rgb565.Color) error {
	return d.SendRects(d.r.Text(s, x, y), c)
}

// DrawTextUncached draws s by rasterizing the whole string first.
func (d *Dev) DrawTextUncached(s string, x, y int, c rgb565.Color) error {
	return d.SendRects(d.r.TextUncached(s, x, y), c)
}

// DrawDocument draws the shapes of a parsed SVG document.
func (d *Dev) DrawDocument(doc *svg.Document) error {
	return d.Execute(d.r.Document(doc.Shapes))
}

// DrawMask paints the set pixels of m with c, one window per row span.
// m is not modified.
func (d *Dev) DrawMask(m *image1bit.HorizontalMSB, c rgb565.Color) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.sendRects(rects.Rows(m, m.Bounds().Intersect(d.rect)), c)
}

func (d *Dev) sendRects(seq iter.Seq[rects.Rect], c rgb565.Color) error {
	if d.halted {
		return errHalted
	}
	px := c.Bytes()
	for i := 0; i < len(d.burst); i += 2 {
		d.burst[i], d.burst[i+1] = px[0], px[1]
	}
	for r := range seq {
		if err := d.sendRect(r); err != nil {
			return fmt.Errorf("st7735: rect %v: %w", r, err)
		}
	}
	return nil
}

// sendRect fills r with the prepared burst.
func (d *Dev) sendRect(r rects.Rect) error {
	x0 := int(r.X) + d.o.off.Col
	y0 := int(r.Y) + d.o.off.Row
	if err := d.bus.window(x0, y0, x0+int(r.W)-1, y0+int(r.H)-1); err != nil {
		return err
	}
	return d.bus.repeat(d.burst, 2*r.Area())
}

// ColorModel returns the color model of the display.
func (d *Dev) ColorModel() color.Model {
	return rgb565.Model
}

// Bounds returns the image bounds of the display in the current rotation.
func (d *Dev) Bounds() image.Rectangle {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.rect
}

// Write writes a raw RGB565 frame, big-endian, row by row.
// The data must be exactly 2 * Dx * Dy bytes.
func (d *Dev) Write(pixels []byte) (int, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return 0, errHalted
	}
	if len(pixels) != 2*d.rect.Dx()*d.rect.Dy() {
		return 0, errors.New("st7735: invalid buffer size")
	}
	if err := d.writeRect(d.rect, pixels); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw converts the src pixels mapped to dst to RGB565 and sends them in a
// single window. The src image is positioned at src point sp within the
// destination.
func (d *Dev) Draw(dst image.Rectangle, src image.Image, sp image.Point) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}

	// Clip to display bounds
	r := dst.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	sp = sp.Add(r.Min.Sub(dst.Min))

	pixels := make([]byte, 0, 2*r.Dx()*r.Dy())
	for y := 0; y < r.Dy(); y++ {
		for x := 0; x < r.Dx(); x++ {
			px := rgb565.FromColor(src.At(sp.X+x, sp.Y+y)).Bytes()
			pixels = append(pixels, px[0], px[1])
		}
	}
	return d.writeRect(r, pixels)
}

// writeRect writes pixel data to a rectangular region of the display.
func (d *Dev) writeRect(r image.Rectangle, pixels []byte) error {
	x0 := r.Min.X + d.o.off.Col
	y0 := r.Min.Y + d.o.off.Row
	if err := d.bus.window(x0, y0, x0+r.Dx()-1, y0+r.Dy()-1); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	if err := d.bus.data(pixels); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	return nil
}

// Invert inverts the display colors.
func (d *Dev) Invert(invert bool) error {
	mode := byte(INVOFF)
	if invert {
		mode = INVON
	}
	return d.send(mode)
}

// Sleep enters or leaves sleep mode. The RAM content is kept.
func (d *Dev) Sleep(sleep bool) error {
	if sleep {
		if err := d.send(SLPIN); err != nil {
			return err
		}
		time.Sleep(5 * time.Millisecond)
		return nil
	}
	if err := d.send(SLPOUT); err != nil {
		return err
	}
	time.Sleep(120 * time.Millisecond)
	return nil
}

// SetScrollArea defines the vertical scroll area in RAM rows, between top
// and bottom fixed areas.
func (d *Dev) SetScrollArea(top, bottom int) error {
	if top < 0 || bottom < 0 || top+bottom > ramRows {
		return errors.New("st7735: scroll area out of range")
	}
	return d.send(VSCRDEF, be16(top, ramRows-top-bottom, bottom)...)
}

// Scroll sets the RAM row shown at the top of the scroll area.
func (d *Dev) Scroll(line int) error {
	if line < 0 || line >= ramRows {
		return errors.New("st7735: scroll line out of range")
	}
	return d.send(VSCRSADD, be16(line)...)
}

// StopScroll returns the display to normal mode.
func (d *Dev) StopScroll() error {
	return d.send(NORON)
}

// Halt turns the display off.
// After calling Halt, the display will not respond to further commands
// until the device is re-initialized.
func (d *Dev) Halt() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.halted = true
	if err := d.bus.command(DISPOFF); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	return nil
}

// String returns a string representation of the device.
func (d *Dev) String() string {
	r := d.Bounds()
	return fmt.Sprintf("st7735.Dev{%dx%d}", r.Dx(), r.Dy())
}

// send issues a single command unless the device is halted.
func (d *Dev) send(op byte, args ...byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.halted {
		return errHalted
	}
	if err := d.bus.command(op, args...); err != nil {
		return fmt.Errorf("st7735: %w", err)
	}
	return nil
}
