package st7735

import "time"

// Command opcodes of the ST7735 controller.
const (
	NOP      = 0x00
	SWRESET  = 0x01
	SLPIN    = 0x10
	SLPOUT   = 0x11
	PTLON    = 0x12
	NORON    = 0x13
	INVOFF   = 0x20
	INVON    = 0x21
	DISPOFF  = 0x28
	DISPON   = 0x29
	CASET    = 0x2A
	RASET    = 0x2B
	RAMWR    = 0x2C
	VSCRDEF  = 0x33
	MADCTL   = 0x36
	VSCRSADD = 0x37
	COLMOD   = 0x3A
	FRMCTR1  = 0xB1
	FRMCTR2  = 0xB2
	FRMCTR3  = 0xB3
	INVCTR   = 0xB4
	DISSET5  = 0xB6
	PWCTR1   = 0xC0
	PWCTR2   = 0xC1
	PWCTR3   = 0xC2
	PWCTR4   = 0xC3
	PWCTR5   = 0xC4
	VMCTR1   = 0xC5
	GMCTRP1  = 0xE0
	GMCTRN1  = 0xE1
)

// MADCTL bits.
const (
	MadctlMY  = 0x80
	MadctlMX  = 0x40
	MadctlMV  = 0x20
	MadctlML  = 0x10
	MadctlBGR = 0x08
)

// Command is one entry of an initialization table.
type Command struct {
	Op    byte
	Args  []byte
	Delay time.Duration // Wait after the command
}

// DefaultInit is the initialization table for 80x160 ST7735S modules.
//
// It leaves the panel in 16 bits per pixel, MADCTL 0xC0 and the display on.
// The rotation from Opts is applied after the table runs.
var DefaultInit = []Command{
	{Op: SLPOUT, Delay: 120 * time.Millisecond},
	{Op: FRMCTR1, Args: []byte{0x01, 0x2D}},
	{Op: FRMCTR2, Args: []byte{0x01, 0x2D}},
	{Op: FRMCTR3, Args: []byte{0x01, 0x2C, 0x2D, 0x01, 0x2C, 0x2D}},
	{Op: INVCTR, Args: []byte{0x07}},
	{Op: DISSET5, Args: []byte{0xA2, 0x02, 0x84}},
	{Op: PWCTR1, Args: []byte{0xA2, 0x02, 0x84}},
	{Op: PWCTR2, Args: []byte{0xC5}},
	{Op: PWCTR3, Args: []byte{0x0A, 0x00}},
	{Op: PWCTR4, Args: []byte{0x8A, 0x2A}},
	{Op: PWCTR5, Args: []byte{0x8A, 0xEE}},
	{Op: VMCTR1, Args: []byte{0x0E}},
	{Op: INVOFF},
	{Op: COLMOD, Args: []byte{0x05}}, // 16 bits per pixel
	{Op: MADCTL, Args: []byte{MadctlMY | MadctlMX}},
	{Op: CASET, Args: []byte{0x00, 0x00, 0x00, 0x4F}},
	{Op: RASET, Args: []byte{0x00, 0x00, 0x00, 0x9F}},
	{Op: GMCTRP1, Args: []byte{0x02, 0x1C, 0x07, 0x12, 0x37, 0x32, 0x29, 0x2D, 0x29, 0x25, 0x2B, 0x39, 0x00, 0x01, 0x03, 0x10}},
	{Op: GMCTRN1, Args: []byte{0x03, 0x1D, 0x07, 0x06, 0x2E, 0x2C, 0x29, 0x2D, 0x2E, 0x2E, 0x37, 0x3F, 0x00, 0x00, 0x02, 0x10}},
	{Op: NORON, Delay: 10 * time.Millisecond},
	{Op: DISPON},
}
