package st7735

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"slices"
	"strings"
	"testing"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/conntest"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/spi/spitest"
	"tinygo.org/x/drivers"

	"periph.io/x/devices/v3/st7735/drawseq"
	"periph.io/x/devices/v3/st7735/font8x8"
	"periph.io/x/devices/v3/st7735/glyphcache"
	"periph.io/x/devices/v3/st7735/image1bit"
	"periph.io/x/devices/v3/st7735/rgb565"
	"periph.io/x/devices/v3/st7735/svg"
)

// txn is one Tx call with the pin levels sampled at that moment.
type txn struct {
	cmd bool // D/C low
	sel bool // CS low
	b   []byte
}

// wire is a conn.Conn that records every Tx along with the D/C and CS
// levels.
type wire struct {
	dc, cs *gpiotest.Pin
	max    int
	ops    []txn
}

func (w *wire) String() string      { return "wire" }
func (w *wire) Duplex() conn.Duplex { return conn.Half }
func (w *wire) MaxTxSize() int      { return w.max }

func (w *wire) Tx(p, r []byte) error {
	w.ops = append(w.ops, txn{
		cmd: w.dc.Read() == gpio.Low,
		sel: w.cs.Read() == gpio.Low,
		b:   slices.Clone(p),
	})
	return nil
}

// frame is a command with all the data sent after it.
type frame struct {
	op   byte
	data []byte
}

func (w *wire) frames(t *testing.T) []frame {
	t.Helper()
	var out []frame
	for _, tx := range w.ops {
		if !tx.sel {
			t.Fatalf("Tx % X without chip select", tx.b)
		}
		if tx.cmd {
			if len(tx.b) != 1 {
				t.Fatalf("command Tx % X, want a single opcode", tx.b)
			}
			out = append(out, frame{op: tx.b[0]})
			continue
		}
		if len(out) == 0 {
			t.Fatal("data sent before any command")
		}
		out[len(out)-1].data = append(out[len(out)-1].data, tx.b...)
	}
	return out
}

// windows returns the RAM rectangles written by CASET/RASET/RAMWR triples
// and checks that each RAMWR carries exactly one burst of want.
func (w *wire) windows(t *testing.T, want rgb565.Color) []image.Rectangle {
	t.Helper()
	fs := w.frames(t)
	var out []image.Rectangle
	for i := 0; i+2 < len(fs); i++ {
		if fs[i].op != CASET {
			continue
		}
		if fs[i+1].op != RASET || fs[i+2].op != RAMWR {
			t.Fatalf("window at frame %d not followed by RASET and RAMWR", i)
		}
		c, r := fs[i].data, fs[i+1].data
		win := image.Rect(
			int(c[0])<<8|int(c[1]), int(r[0])<<8|int(r[1]),
			int(c[2])<<8|int(c[3])+1, int(r[2])<<8|int(r[3])+1)
		px := want.Bytes()
		if got := fs[i+2].data; !bytes.Equal(got, bytes.Repeat(px[:], win.Dx()*win.Dy())) {
			t.Fatalf("window %v: %d bytes of pixel data, want %d of %v", win, len(got), 2*win.Dx()*win.Dy(), want)
		}
		out = append(out, win)
		i += 2
	}
	return out
}

func newTestDev(t *testing.T, opts Opts, maxTx int) (*Dev, *wire) {
	t.Helper()
	if opts.Init == nil {
		opts.Init = []Command{}
	}
	o, err := resolve(&opts)
	if err != nil {
		t.Fatal(err)
	}
	dc := &gpiotest.Pin{N: "DC", L: gpio.High}
	cs := &gpiotest.Pin{N: "CS", L: gpio.High}
	o.CS = cs
	w := &wire{dc: dc, cs: cs, max: maxTx}
	d, err := newDev(w, dc, &o)
	if err != nil {
		t.Fatal(err)
	}
	w.ops = nil
	return d, w
}

func TestOptsValidation(t *testing.T) {
	tests := []struct {
		name    string
		opts    *Opts
		wantErr bool
	}{
		{"nil options (uses defaults)", nil, false},
		{"valid 80x160", &Opts{W: 80, H: 160}, false},
		{"valid 128x160", &Opts{W: 128, H: 160}, false},
		{"valid 1x1 (minimum)", &Opts{W: 1, H: 1}, false},
		{"width zero", &Opts{W: 0, H: 160}, true},
		{"width > 162", &Opts{W: 200, H: 160}, true},
		{"height zero", &Opts{W: 80, H: 0}, true},
		{"height > 162", &Opts{W: 80, H: 240}, true},
		{"rotation 3 (valid)", &Opts{W: 80, H: 160, Rotation: drivers.Rotation270}, false},
		{"mirrored rotation", &Opts{W: 80, H: 160, Rotation: drivers.Rotation0Mirror}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := resolve(tt.opts)
			if (err != nil) != tt.wantErr {
				t.Errorf("resolve() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestOptsDefaults(t *testing.T) {
	o, err := resolve(nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.W != 80 || o.H != 160 {
		t.Errorf("size = %dx%d, want 80x160", o.W, o.H)
	}
	if o.Font != font8x8.Font {
		t.Error("font does not default to font8x8")
	}
	if len(o.Init) != len(DefaultInit) {
		t.Error("init table does not default to DefaultInit")
	}
}

func TestNewSPIInit(t *testing.T) {
	want := [][]byte{
		{SLPOUT},
		{FRMCTR1}, {0x01, 0x2D},
		{FRMCTR2}, {0x01, 0x2D},
		{FRMCTR3}, {0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D},
		{INVCTR}, {0x07},
		{DISSET5}, {0xA2, 0x02, 0x84},
		{PWCTR1}, {0xA2, 0x02, 0x84},
		{PWCTR2}, {0xC5},
		{PWCTR3}, {0x0A, 0x00},
		{PWCTR4}, {0x8A, 0x2A},
		{PWCTR5}, {0x8A, 0xEE},
		{VMCTR1}, {0x0E},
		{INVOFF},
		{COLMOD}, {0x05},
		{MADCTL}, {0xC0},
		{CASET}, {0x00, 0x00, 0x00, 0x4F},
		{RASET}, {0x00, 0x00, 0x00, 0x9F},
		{GMCTRP1}, {0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10},
		{GMCTRN1}, {0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10},
		{NORON},
		{DISPON},
		{MADCTL}, {0xC0},
	}
	p := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	for _, w := range want {
		p.Ops = append(p.Ops, conntest.IO{W: w})
	}
	dc := &gpiotest.Pin{N: "DC"}
	d, err := NewSPI(p, dc, nil)
	if err != nil {
		t.Fatal(err)
	}
	if err := p.Close(); err != nil {
		t.Fatal(err)
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 80, 160) {
		t.Errorf("Bounds() = %v", got)
	}
	if dc.Read() != gpio.High {
		t.Error("D/C should be left high")
	}
}

func TestNewSPIRequiresDC(t *testing.T) {
	p := &spitest.Playback{Playback: conntest.Playback{DontPanic: true}}
	if _, err := NewSPI(p, nil, nil); err == nil {
		t.Error("NewSPI should fail without a D/C pin")
	}
}

func TestInitOrientation(t *testing.T) {
	tests := []struct {
		name string
		opts Opts
		want []frame
	}{
		{"default", Opts{}, []frame{{MADCTL, []byte{0xC0}}}},
		{"bgr", Opts{BGR: true}, []frame{{MADCTL, []byte{0xC8}}}},
		{"mirror x", Opts{MirrorX: true}, []frame{{MADCTL, []byte{0x80}}}},
		{"rotated and inverted", Opts{Rotation: drivers.Rotation90, Invert: true}, []frame{{MADCTL, []byte{0xA0}}, {INVON, nil}}},
		{"custom table", Opts{Init: []Command{{Op: SWRESET}, {Op: COLMOD, Args: []byte{0x05}}}}, []frame{{SWRESET, nil}, {COLMOD, []byte{0x05}}, {MADCTL, []byte{0xC0}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opts := tt.opts
			if opts.Init == nil {
				opts.Init = []Command{}
			}
			o, err := resolve(&opts)
			if err != nil {
				t.Fatal(err)
			}
			dc := &gpiotest.Pin{N: "DC"}
			w := &wire{dc: dc, cs: &gpiotest.Pin{N: "CS"}}
			if _, err := newDev(w, dc, &o); err != nil {
				t.Fatal(err)
			}
			got := w.frames(t)
			if len(got) != len(tt.want) {
				t.Fatalf("frames = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i].op != tt.want[i].op || !bytes.Equal(got[i].data, tt.want[i].data) {
					t.Errorf("frame %d = %X % X, want %X % X", i, got[i].op, got[i].data, tt.want[i].op, tt.want[i].data)
				}
			}
		})
	}
}

func TestResetPulse(t *testing.T) {
	rst := &gpiotest.Pin{N: "RST", L: gpio.Low}
	_, _ = newTestDev(t, Opts{RST: rst}, 0)
	if rst.Read() != gpio.High {
		t.Error("RST should be released after reset")
	}
}

func TestFraming(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.Scroll(5); err != nil {
		t.Fatal(err)
	}
	want := []txn{
		{cmd: true, sel: true, b: []byte{VSCRSADD}},
		{cmd: false, sel: true, b: []byte{0x00, 0x05}},
	}
	if len(w.ops) != len(want) {
		t.Fatalf("got %d Tx, want %d", len(w.ops), len(want))
	}
	for i := range want {
		if w.ops[i].cmd != want[i].cmd || w.ops[i].sel != want[i].sel || !bytes.Equal(w.ops[i].b, want[i].b) {
			t.Errorf("Tx %d = %+v, want %+v", i, w.ops[i], want[i])
		}
	}
	if w.cs.Read() != gpio.High {
		t.Error("CS should be released between transactions")
	}
	if w.dc.Read() != gpio.High {
		t.Error("D/C should be left high")
	}
}

func TestFullScreenRectIsOneWindow(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawRect(0, 0, 80, 160, rgb565.Blue, true, 0); err != nil {
		t.Fatal(err)
	}
	got := w.windows(t, rgb565.Blue)
	want := []image.Rectangle{image.Rect(24, 0, 104, 160)}
	if !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}

	// The burst is split by the default write size.
	var sizes []int
	for _, tx := range w.ops {
		if !tx.cmd && len(tx.b) > 4 {
			sizes = append(sizes, len(tx.b))
		}
	}
	wantSizes := []int{4096, 4096, 4096, 4096, 4096, 4096, 1024}
	if !slices.Equal(sizes, wantSizes) {
		t.Errorf("burst writes = %v, want %v", sizes, wantSizes)
	}
}

func TestSendRectsRespectsTxLimit(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 65)
	if err := d.FillRect(0, 0, 10, 10, rgb565.Red); err != nil {
		t.Fatal(err)
	}
	var sizes []int
	for _, tx := range w.ops {
		if !tx.cmd && len(tx.b) > 4 {
			sizes = append(sizes, len(tx.b))
		}
	}
	// 65 is rounded down to whole pixels.
	want := []int{64, 64, 64, 8}
	if !slices.Equal(sizes, want) {
		t.Errorf("burst writes = %v, want %v", sizes, want)
	}
	if got := w.windows(t, rgb565.Red); len(got) != 1 {
		t.Errorf("got %d windows, want 1", len(got))
	}
}

func TestFillRect(t *testing.T) {
	tests := []struct {
		name       string
		x, y, w, h int
		want       []image.Rectangle
	}{
		{"inside", 1, 2, 3, 4, []image.Rectangle{image.Rect(25, 2, 28, 6)}},
		{"clipped", 78, 158, 10, 10, []image.Rectangle{image.Rect(102, 158, 104, 160)}},
		{"outside", 100, 0, 5, 5, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, w := newTestDev(t, Opts{}, 0)
			if err := d.FillRect(tt.x, tt.y, tt.w, tt.h, rgb565.Green); err != nil {
				t.Fatal(err)
			}
			if got := w.windows(t, rgb565.Green); !slices.Equal(got, tt.want) {
				t.Errorf("windows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestFillRectInvalidSize(t *testing.T) {
	tests := []struct {
		name string
		w, h int
	}{
		{"zero width", 0, 5},
		{"zero height", 5, 0},
		{"negative width", -5, 5},
		{"negative height", 5, -5},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, w := newTestDev(t, Opts{}, 0)
			if err := d.FillRect(10, 10, tt.w, tt.h, rgb565.Green); err == nil {
				t.Errorf("FillRect(10, 10, %d, %d) succeeded, want error", tt.w, tt.h)
			}
			if len(w.ops) != 0 {
				t.Errorf("FillRect sent %d transactions, want none", len(w.ops))
			}
		})
	}
}

func TestFillScreen(t *testing.T) {
	d, w := newTestDev(t, Opts{Rotation: drivers.Rotation90}, 0)
	if err := d.FillScreen(rgb565.Black); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(0, 24, 160, 104)}
	if got := w.windows(t, rgb565.Black); !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}
}

func TestSetRotation(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)

	for i := 0; i < 2; i++ {
		if err := d.SetRotation(drivers.Rotation180, false, false); err != nil {
			t.Fatal(err)
		}
	}
	if got := d.Bounds(); got != image.Rect(0, 0, 80, 160) {
		t.Errorf("after two half turns Bounds() = %v", got)
	}

	origin := func(r drivers.Rotation) (image.Rectangle, image.Rectangle) {
		if err := d.SetRotation(r, false, false); err != nil {
			t.Fatal(err)
		}
		w.ops = nil
		if err := d.FillRect(0, 0, 1, 1, rgb565.White); err != nil {
			t.Fatal(err)
		}
		return d.Bounds(), w.windows(t, rgb565.White)[0]
	}
	b1, o1 := origin(drivers.Rotation90)
	b3, o3 := origin(drivers.Rotation270)
	if b1 != image.Rect(0, 0, 160, 80) || b1 != b3 {
		t.Errorf("Bounds() = %v and %v, want 160x80 for both", b1, b3)
	}
	if o1 == o3 {
		t.Errorf("quarter turns 1 and 3 use the same RAM origin %v", o1)
	}
	if got := o1.Min; got != image.Pt(0, 24) {
		t.Errorf("rotation 1 origin = %v, want (0,24)", got)
	}
	if got := o3.Min; got != image.Pt(2, 28) {
		t.Errorf("rotation 3 origin = %v, want (2,28)", got)
	}
	if got := d.Renderer().Bounds(); got != image.Rect(0, 0, 160, 80) {
		t.Errorf("renderer Bounds() = %v", got)
	}
	if got := d.Rotation(); got != drivers.Rotation270 {
		t.Errorf("Rotation() = %d", got)
	}
}

func TestSetRotationMadctl(t *testing.T) {
	tests := []struct {
		rot              drivers.Rotation
		mirrorX, mirrorY bool
		want             byte
	}{
		{drivers.Rotation0, false, false, 0xC0},
		{drivers.Rotation90, false, false, 0xA0},
		{drivers.Rotation180, false, false, 0x00},
		{drivers.Rotation270, false, false, 0x60},
		{drivers.Rotation0, true, false, 0x80},
		{drivers.Rotation0, false, true, 0x40},
		{drivers.Rotation180, true, true, 0xC0},
	}
	for _, tt := range tests {
		d, w := newTestDev(t, Opts{}, 0)
		if err := d.SetRotation(tt.rot, tt.mirrorX, tt.mirrorY); err != nil {
			t.Fatal(err)
		}
		fs := w.frames(t)
		if len(fs) != 1 || fs[0].op != MADCTL || !bytes.Equal(fs[0].data, []byte{tt.want}) {
			t.Errorf("SetRotation(%d, %t, %t) sent %v, want MADCTL %02X", tt.rot, tt.mirrorX, tt.mirrorY, fs, tt.want)
		}
	}
}

func TestSetRotationInvalid(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.SetRotation(4, false, false); err == nil {
		t.Error("SetRotation(4) should fail")
	}
	if len(w.ops) != 0 {
		t.Error("nothing should be sent for an invalid rotation")
	}
}

func TestDefaultOffsets(t *testing.T) {
	tests := []struct {
		w, h int
		want [4]Offset
	}{
		{80, 160, [4]Offset{{24, 0}, {0, 24}, {28, 2}, {2, 28}}},
		{128, 160, [4]Offset{}},
		{128, 128, [4]Offset{}},
	}
	for _, tt := range tests {
		if got := defaultOffsets(tt.w, tt.h); got != tt.want {
			t.Errorf("defaultOffsets(%d, %d) = %v, want %v", tt.w, tt.h, got, tt.want)
		}
	}
}

func TestCustomOffsets(t *testing.T) {
	offsets := [4]Offset{{Col: 2, Row: 1}, {Col: 1, Row: 2}, {Col: 2, Row: 3}, {Col: 3, Row: 2}}
	d, w := newTestDev(t, Opts{W: 128, H: 128, Offsets: &offsets}, 0)
	if err := d.FillRect(0, 0, 1, 1, rgb565.Red); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(2, 1, 3, 2)}
	if got := w.windows(t, rgb565.Red); !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}
}

func TestDrawText(t *testing.T) {
	cache := glyphcache.Build(font8x8.Font)
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawText("AB", 0, 0, rgb565.White); err != nil {
		t.Fatal(err)
	}
	cached := w.windows(t, rgb565.White)
	if want := cache.Len('A') + cache.Len('B'); len(cached) != want {
		t.Errorf("got %d windows, want %d", len(cached), want)
	}

	// Both paths paint the same pixels.
	u, uw := newTestDev(t, Opts{NoFontCache: true}, 0)
	if err := u.DrawTextUncached("AB", 0, 0, rgb565.White); err != nil {
		t.Fatal(err)
	}
	if a, b := paint(cached), paint(uw.windows(t, rgb565.White)); !bytes.Equal(a.Pix, b.Pix) {
		t.Error("cached and uncached text differ")
	}
}

func paint(ws []image.Rectangle) *image1bit.HorizontalMSB {
	m := image1bit.NewHorizontalMSB(image.Rect(0, 0, 132, 162))
	for _, r := range ws {
		m.FillRect(r, true)
	}
	return m
}

func TestDrawShapes(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawHLine(0, 0, 10, rgb565.Red); err != nil {
		t.Fatal(err)
	}
	if err := d.DrawVLine(0, 0, 10, rgb565.Red); err != nil {
		t.Fatal(err)
	}
	if err := d.DrawLine(0, 0, 5, 5, rgb565.Red); err != nil {
		t.Fatal(err)
	}
	if err := d.DrawPolygon([]image.Point{{10, 10}, {20, 10}, {20, 20}, {10, 20}}, rgb565.Red, true, true); err != nil {
		t.Fatal(err)
	}
	got := w.windows(t, rgb565.Red)
	want := []image.Rectangle{
		image.Rect(24, 0, 34, 1),
		image.Rect(24, 0, 25, 10),
		image.Rect(24, 0, 25, 1), image.Rect(25, 1, 26, 2), image.Rect(26, 2, 27, 3),
		image.Rect(27, 3, 28, 4), image.Rect(28, 4, 29, 5), image.Rect(29, 5, 30, 6),
	}
	if len(got) < len(want) || !slices.Equal(got[:len(want)], want) {
		t.Errorf("windows = %v, want prefix %v", got, want)
	}
	if len(got) != len(want)+1 {
		t.Errorf("polygon took %d windows, want 1", len(got)-len(want))
	}
}

func TestDrawEllipseSymmetric(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawEllipse(40, 80, 10, 6, rgb565.Green, true); err != nil {
		t.Fatal(err)
	}
	m := paint(w.windows(t, rgb565.Green))
	for y := 0; y < 162; y++ {
		for x := 24; x < 104; x++ {
			// Column 24+40 is the centre line in RAM.
			mx := 2*(24+40) - x - 1
			if m.BitAt(x, y) != m.BitAt(mx, y) {
				t.Fatalf("pixel (%d, %d) differs from its mirror (%d, %d)", x, y, mx, y)
			}
		}
	}
}

func TestDrawDocument(t *testing.T) {
	doc, err := svg.Parse(strings.NewReader(`<svg width="80" height="160">
  <rect x="0" y="0" width="10" height="10" fill="red"/>
</svg>`))
	if err != nil {
		t.Fatal(err)
	}
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawDocument(doc); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(24, 0, 34, 10)}
	if got := w.windows(t, rgb565.Red); !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}
}

func TestDrawMask(t *testing.T) {
	m := image1bit.NewHorizontalMSB(image.Rect(0, 0, 4, 2))
	m.SetBit(0, 0, true)
	m.SetBit(1, 0, true)
	m.SetBit(3, 0, true)
	m.SetBit(0, 1, true)
	m.SetBit(1, 1, true)

	d, w := newTestDev(t, Opts{}, 0)
	if err := d.DrawMask(m, rgb565.Blue); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(24, 0, 26, 1), image.Rect(27, 0, 28, 1), image.Rect(24, 1, 26, 2)}
	if got := w.windows(t, rgb565.Blue); !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}
	if m.Empty() {
		t.Error("DrawMask modified the mask")
	}
}

func TestRecordReplay(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	var buf bytes.Buffer
	cmds := slices.Values([]drawseq.Command{
		{Color: rgb565.Red, Rects: d.Renderer().Rect(1, 2, 3, 4, true, 0)},
	})
	if err := d.Record(&buf, cmds); err != nil {
		t.Fatal(err)
	}
	if len(w.ops) != 0 {
		t.Fatal("Record should not send anything")
	}
	if err := d.Replay(bytes.NewReader(buf.Bytes())); err != nil {
		t.Fatal(err)
	}
	want := []image.Rectangle{image.Rect(25, 2, 28, 6)}
	if got := w.windows(t, rgb565.Red); !slices.Equal(got, want) {
		t.Errorf("windows = %v, want %v", got, want)
	}
}

func TestWrite(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	pixels := bytes.Repeat([]byte{0x12, 0x34}, 80*160)
	n, err := d.Write(pixels)
	if err != nil {
		t.Fatal(err)
	}
	if n != len(pixels) {
		t.Errorf("Write() = %d, want %d", n, len(pixels))
	}
	if got := w.windows(t, 0x1234); len(got) != 1 || got[0] != image.Rect(24, 0, 104, 160) {
		t.Errorf("windows = %v", got)
	}
}

func TestWriteInvalidBufferSize(t *testing.T) {
	d, _ := newTestDev(t, Opts{}, 0)
	tests := []struct {
		name string
		size int
	}{
		{"empty", 0},
		{"one byte short", 80*160*2 - 1},
		{"one byte over", 80*160*2 + 1},
		{"one byte per pixel", 80 * 160},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := d.Write(make([]byte, tt.size)); err == nil {
				t.Error("Write should fail with invalid buffer size")
			}
		})
	}
}

func TestDraw(t *testing.T) {
	red := &image.Uniform{C: color.RGBA{R: 0xFF, A: 0xFF}}
	tests := []struct {
		name string
		dst  image.Rectangle
		want []image.Rectangle
	}{
		{"inside", image.Rect(0, 0, 2, 1), []image.Rectangle{image.Rect(24, 0, 26, 1)}},
		{"clipped", image.Rect(-1, 0, 2, 1), []image.Rectangle{image.Rect(24, 0, 26, 1)}},
		{"outside", image.Rect(90, 0, 92, 1), nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, w := newTestDev(t, Opts{}, 0)
			if err := d.Draw(tt.dst, red, image.Point{}); err != nil {
				t.Fatal(err)
			}
			if got := w.windows(t, rgb565.Red); !slices.Equal(got, tt.want) {
				t.Errorf("windows = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDrawSourceOffset(t *testing.T) {
	src := image.NewRGBA(image.Rect(0, 0, 4, 1))
	src.Set(2, 0, color.RGBA{B: 0xFF, A: 0xFF})
	d, w := newTestDev(t, Opts{}, 0)
	// The first destination column is clipped, so drawing starts at src x=2.
	if err := d.Draw(image.Rect(-1, 0, 1, 1), src, image.Pt(1, 0)); err != nil {
		t.Fatal(err)
	}
	if got := w.windows(t, rgb565.Blue); len(got) != 1 || got[0] != image.Rect(24, 0, 25, 1) {
		t.Errorf("windows = %v", got)
	}
}

func TestScroll(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.SetScrollArea(10, 20); err != nil {
		t.Fatal(err)
	}
	if err := d.Scroll(161); err != nil {
		t.Fatal(err)
	}
	if err := d.StopScroll(); err != nil {
		t.Fatal(err)
	}
	want := []frame{
		{VSCRDEF, []byte{0, 10, 0, 132, 0, 20}},
		{VSCRSADD, []byte{0, 161}},
		{NORON, nil},
	}
	got := w.frames(t)
	if len(got) != len(want) {
		t.Fatalf("frames = %v, want %v", got, want)
	}
	for i := range want {
		if got[i].op != want[i].op || !bytes.Equal(got[i].data, want[i].data) {
			t.Errorf("frame %d = %X % X, want %X % X", i, got[i].op, got[i].data, want[i].op, want[i].data)
		}
	}

	if err := d.SetScrollArea(100, 100); err == nil {
		t.Error("SetScrollArea should fail when the fixed areas exceed the RAM")
	}
	if err := d.Scroll(162); err == nil {
		t.Error("Scroll should fail past the last RAM row")
	}
}

func TestInvertAndSleep(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)
	if err := d.Invert(true); err != nil {
		t.Fatal(err)
	}
	if err := d.Invert(false); err != nil {
		t.Fatal(err)
	}
	if err := d.Sleep(true); err != nil {
		t.Fatal(err)
	}
	var ops []byte
	for _, f := range w.frames(t) {
		ops = append(ops, f.op)
	}
	if want := []byte{INVON, INVOFF, SLPIN}; !bytes.Equal(ops, want) {
		t.Errorf("ops = % X, want % X", ops, want)
	}
}

func TestDevHalt(t *testing.T) {
	d, w := newTestDev(t, Opts{}, 0)

	if d.halted {
		t.Error("device should not be halted initially")
	}
	if err := d.Halt(); err != nil {
		t.Fatal(err)
	}
	if fs := w.frames(t); len(fs) != 1 || fs[0].op != DISPOFF {
		t.Errorf("Halt sent %v, want DISPOFF", fs)
	}
	w.ops = nil

	// Test that operations fail when halted
	checks := []struct {
		name string
		err  error
	}{
		{"Invert", d.Invert(true)},
		{"Sleep", d.Sleep(false)},
		{"FillScreen", d.FillScreen(rgb565.Red)},
		{"DrawRect", d.DrawRect(0, 0, 4, 4, rgb565.Red, true, 0)},
		{"DrawText", d.DrawText("x", 0, 0, rgb565.Red)},
		{"Draw", d.Draw(d.Bounds(), image.NewRGBA(d.Bounds()), image.Point{})},
		{"SetRotation", d.SetRotation(drivers.Rotation90, false, false)},
		{"SetScrollArea", d.SetScrollArea(0, 0)},
		{"Scroll", d.Scroll(0)},
		{"StopScroll", d.StopScroll()},
	}
	for _, c := range checks {
		if !errors.Is(c.err, errHalted) {
			t.Errorf("%s after Halt = %v, want %v", c.name, c.err, errHalted)
		}
	}
	if _, err := d.Write(make([]byte, 80*160*2)); !errors.Is(err, errHalted) {
		t.Errorf("Write after Halt = %v", err)
	}
	if len(w.ops) != 0 {
		t.Errorf("%d Tx sent while halted", len(w.ops))
	}
}

func TestDevBounds(t *testing.T) {
	dev := &Dev{
		rect: image.Rect(0, 0, 80, 160),
	}
	want := image.Rect(0, 0, 80, 160)
	if got := dev.Bounds(); got != want {
		t.Errorf("Bounds() = %v, want %v", got, want)
	}
}

func TestDevColorModel(t *testing.T) {
	dev := &Dev{}
	if dev.ColorModel() != rgb565.Model {
		t.Error("ColorModel() did not return rgb565.Model")
	}
}

func TestDevString(t *testing.T) {
	dev := &Dev{
		rect: image.Rect(0, 0, 160, 80),
	}
	want := "st7735.Dev{160x80}"
	if got := dev.String(); got != want {
		t.Errorf("String() = %q, want %q", got, want)
	}
}
