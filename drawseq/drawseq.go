// Package drawseq records rendered draw commands as a compact byte stream and
// replays them without decomposing the shapes again.
//
// The stream is a sequence of blocks:
//
//	color_hi color_lo count (x y w h)*count
//
// with at most 255 rectangles per block. A command with more rectangles is
// written as several consecutive blocks of the same color.
package drawseq

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"iter"

	"periph.io/x/devices/v3/st7735/rects"
	"periph.io/x/devices/v3/st7735/rgb565"
)

// MaxBlock is the maximum number of rectangles in one block.
const MaxBlock = 255

// Command paints every rectangle of Rects with Color.
type Command struct {
	Color rgb565.Color
	Rects iter.Seq[rects.Rect]
}

// Sink receives replayed commands, typically a panel.
type Sink interface {
	SendRects(seq iter.Seq[rects.Rect], c rgb565.Color) error
}

// Encode writes cmds to w. Each command's rectangle sequence is drained once;
// commands with no rectangles produce no block.
func Encode(w io.Writer, cmds iter.Seq[Command]) error {
	bw := bufio.NewWriter(w)
	block := make([]byte, 0, 3+4*MaxBlock)
	flush := func(c rgb565.Color) error {
		n := (len(block) - 3) / 4
		if n == 0 {
			return nil
		}
		hdr := c.Bytes()
		block[0], block[1], block[2] = hdr[0], hdr[1], byte(n)
		_, err := bw.Write(block)
		return err
	}
	for cmd := range cmds {
		block = append(block[:0], 0, 0, 0)
		for r := range cmd.Rects {
			block = append(block, r.X, r.Y, r.W, r.H)
			if len(block) == cap(block) {
				if err := flush(cmd.Color); err != nil {
					return fmt.Errorf("drawseq: %w", err)
				}
				block = block[:3]
			}
		}
		if err := flush(cmd.Color); err != nil {
			return fmt.Errorf("drawseq: %w", err)
		}
	}
	if err := bw.Flush(); err != nil {
		return fmt.Errorf("drawseq: %w", err)
	}
	return nil
}

// Decode reads r and yields one command per block, together with the first
// read error. A stream that ends inside a block reports
// io.ErrUnexpectedEOF; a clean end of stream ends the sequence.
//
// The rectangles of a command are only valid until the next iteration.
func Decode(r io.Reader) iter.Seq2[Command, error] {
	return func(yield func(Command, error) bool) {
		br := bufio.NewReader(r)
		var hdr [3]byte
		buf := make([]byte, 4*MaxBlock)
		for {
			if _, err := io.ReadFull(br, hdr[:]); err != nil {
				if errors.Is(err, io.EOF) {
					return
				}
				yield(Command{}, fmt.Errorf("drawseq: %w", err))
				return
			}
			body := buf[:4*int(hdr[2])]
			if _, err := io.ReadFull(br, body); err != nil {
				if errors.Is(err, io.EOF) {
					err = io.ErrUnexpectedEOF
				}
				yield(Command{}, fmt.Errorf("drawseq: %w", err))
				return
			}
			cmd := Command{
				Color: rgb565.Color(uint16(hdr[0])<<8 | uint16(hdr[1])),
				Rects: blockRects(body),
			}
			if !yield(cmd, nil) {
				return
			}
		}
	}
}

func blockRects(b []byte) iter.Seq[rects.Rect] {
	return func(yield func(rects.Rect) bool) {
		for i := 0; i+4 <= len(b); i += 4 {
			if !yield(rects.Rect{X: b[i], Y: b[i+1], W: b[i+2], H: b[i+3]}) {
				return
			}
		}
	}
}

// Replay decodes r and sends every command to s. It stops at the first error.
func Replay(r io.Reader, s Sink) error {
	for cmd, err := range Decode(r) {
		if err != nil {
			return err
		}
		if err := s.SendRects(cmd.Rects, cmd.Color); err != nil {
			return err
		}
	}
	return nil
}
