// Package image1bit provides a 1-bit monochrome mask used as the off-screen
// canvas of the ST7735 driver.
//
// Shapes are rasterized into the mask, then the set pixels are read back as
// horizontal spans and merged into rectangles that the panel can fill with a
// single window write.
//
// Pixels are packed 8 per byte, most significant bit first, in one contiguous
// row-major bit stream: the bit for pixel (x, y) is bit number y*width+x.
// Rows are not padded to a byte boundary, so a row may start in the middle of
// a byte when the width is not a multiple of 8.
//
// Memory layout example for a 4x2 mask:
//
//	Pixels: row 0: 1 0 1 1   row 1: 0 1 1 0
//	Bits:   1011 0110
//	Bytes:  0xB6
//
// This package provides:
//
// - Bit: A color type representing on/off
// - BitModel: A color model for converting standard Go colors to Bit
// - HorizontalMSB: An image.Image and drivers.Displayer implementation
// - Span: A horizontal run of set pixels, produced lazily by Spans
//
// Example usage:
//
//	m := image1bit.NewHorizontalMSB(image.Rect(0, 0, 80, 160))
//	m.SetBit(10, 20, true)
//	for s := range m.Spans(20, 0, 79) {
//		fmt.Println(s.X0, s.X1) // Output: 10 10
//	}
package image1bit
