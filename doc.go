// Package st7735 controls an ST7735 TFT display via SPI.
//
// The ST7735 is a 16-bit color LCD controller with a 132×162 frame memory.
// This driver targets the 80×160 modules and draws without a full frame
// buffer: every shape is rasterized into a 1-bit mask, decomposed into filled
// rectangles, and each rectangle is sent as one window of a solid color. It
// also implements the display.Drawer interface from periph.io.
//
// # Display Characteristics
//
// - RGB565 color, sent most significant byte first
// - 80×160 visible pixels, offset inside the controller RAM
// - Four quarter-turn rotations with optional mirroring
// - Hardware vertical scrolling
// - Display inversion and sleep mode
//
// # Hardware Connection
//
// Connect the ST7735 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V
//	SCL/CLK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select, or a GPIO passed as Opts.CS
//	RES         → Optional: GPIO for hardware reset
//	BLK         → 3.3V or a PWM pin for the backlight
//
// # Basic Usage
//
//	package main
//
//	import (
//		"periph.io/x/conn/v3/gpio/gpioreg"
//		"periph.io/x/conn/v3/spi/spireg"
//		"periph.io/x/devices/v3/st7735"
//		"periph.io/x/devices/v3/st7735/rgb565"
//		"periph.io/x/host/v3"
//	)
//
//	func main() {
//		host.Init()
//
//		spiBus, _ := spireg.Open("")
//		dcPin := gpioreg.ByName("GPIO25")
//
//		dev, _ := st7735.NewSPI(spiBus, dcPin, &st7735.Opts{
//			RST: gpioreg.ByName("GPIO27"),
//		})
//		defer dev.Halt()
//
//		dev.FillScreen(rgb565.Black)
//		dev.DrawRect(4, 4, 72, 40, rgb565.Red, false, 2)
//		dev.DrawEllipse(40, 100, 30, 20, rgb565.FromRGB(0, 128, 255), true)
//		dev.DrawText("Hello", 20, 20, rgb565.White)
//	}
//
// With RST set, the driver pulls it low for 100ms and waits 220ms after
// releasing it before running the initialization table. Without it the
// display relies on its power-on reset.
//
// # Drawing Modes
//
// Shape methods such as DrawRect, DrawLine, DrawPolygon, DrawEllipse and
// DrawText send one window per rectangle of the shape's decomposition. The
// same rectangles are available as lazy sequences from Renderer, so they can
// be inspected, sent with SendRects, or recorded with Record and sent again
// later with Replay, skipping the decomposition.
//
// Text uses a cache of the rectangles of every printable ASCII glyph, built
// once when the device is created. Opts.NoFontCache disables it.
//
// Write and Draw send full RGB565 pixel data for a single window, for images
// that do not decompose well.
//
// # Rotation
//
// SetRotation changes the MADCTL setting and swaps width and height on odd
// quarter turns. The renderer mask is reallocated, so the screen should be
// redrawn after rotating.
//
// # Compatibility with periph.io
//
// Dev implements display.Drawer and can be used with any periph.io tool or
// library expecting one.
package st7735
