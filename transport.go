package st7735

import (
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
)

// defaultMaxTx is the write size used when the connection does not report
// a limit.
const defaultMaxTx = 4096

// bus frames commands and data on the SPI connection.
//
// A command is sent with D/C low, everything else with D/C high. When cs is
// set it is driven low around each command and each data transfer; otherwise
// the SPI port drives chip select on every Tx.
type bus struct {
	c     conn.Conn
	dc    gpio.PinOut
	cs    gpio.PinOut
	maxTx int
}

func newBus(c conn.Conn, dc, cs gpio.PinOut) bus {
	n := defaultMaxTx
	if l, ok := c.(conn.Limits); ok && l.MaxTxSize() > 0 {
		n = l.MaxTxSize()
	}
	// Keep whole pixels in every write.
	n = max(n&^1, 2)
	return bus{c: c, dc: dc, cs: cs, maxTx: n}
}

// command sends op, then args as data if any.
func (b *bus) command(op byte, args ...byte) error {
	if err := b.selectChip(); err != nil {
		return err
	}
	if err := b.dc.Out(gpio.Low); err != nil {
		return err
	}
	if err := b.c.Tx([]byte{op}, nil); err != nil {
		return err
	}
	if err := b.deselect(); err != nil {
		return err
	}
	if err := b.dc.Out(gpio.High); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return b.data(args)
}

// data sends p in writes of at most maxTx bytes within one selection.
func (b *bus) data(p []byte) error {
	if err := b.selectChip(); err != nil {
		return err
	}
	for len(p) > 0 {
		n := min(len(p), b.maxTx)
		if err := b.c.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return b.deselect()
}

// repeat sends n bytes taken from the start of pat, which holds a repeated
// pixel pattern, in writes of at most len(pat) bytes within one selection.
func (b *bus) repeat(pat []byte, n int) error {
	if err := b.selectChip(); err != nil {
		return err
	}
	for n > 0 {
		k := min(n, len(pat))
		if err := b.c.Tx(pat[:k], nil); err != nil {
			return err
		}
		n -= k
	}
	return b.deselect()
}

// window addresses the inclusive RAM rectangle (x0,y0)-(x1,y1) and starts a
// memory write.
func (b *bus) window(x0, y0, x1, y1 int) error {
	if err := b.command(CASET, be16(x0, x1)...); err != nil {
		return err
	}
	if err := b.command(RASET, be16(y0, y1)...); err != nil {
		return err
	}
	return b.command(RAMWR)
}

func (b *bus) selectChip() error {
	if b.cs == nil {
		return nil
	}
	return b.cs.Out(gpio.Low)
}

func (b *bus) deselect() error {
	if b.cs == nil {
		return nil
	}
	return b.cs.Out(gpio.High)
}

// be16 encodes each value as a big-endian 16-bit word.
func be16(v ...int) []byte {
	out := make([]byte, 0, 2*len(v))
	for _, x := range v {
		out = append(out, byte(x>>8), byte(x))
	}
	return out
}
