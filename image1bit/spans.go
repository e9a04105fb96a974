package image1bit

import (
	"iter"
	"math/bits"
)

// Span is a maximal horizontal run of set pixels in one row. X1 is inclusive.
type Span struct {
	Y, X0, X1 int
}

// Len returns the number of pixels in the span.
func (s Span) Len() int {
	return s.X1 - s.X0 + 1
}

// Spans returns the runs of set pixels of row y between columns x0 and x1
// (inclusive), in increasing x order.
//
// The packed bytes are scanned directly: the leftmost set bit of a byte is
// found from its bit length, so empty stretches of a row cost one test per
// byte rather than one per pixel. The sequence reads the image as it is when
// iterated; it keeps no state between calls.
//
// It panics if the column range is outside the image.
func (m *HorizontalMSB) Spans(y, x0, x1 int) iter.Seq[Span] {
	m.mustContain(x0, y)
	m.mustContain(x1, y)
	return func(yield func(Span) bool) {
		base := m.bitIndex(m.Rect.Min.X, y) - m.Rect.Min.X
		end := base + x1 + 1
		for i := base + x0; i < end; {
			s := m.nextSet(i, end)
			if s == end {
				return
			}
			e := m.nextClear(s, end)
			if !yield(Span{Y: y, X0: s - base, X1: e - 1 - base}) {
				return
			}
			i = e
		}
	}
}

// FirstSpan returns the leftmost span of row y between x0 and x1, if any.
func (m *HorizontalMSB) FirstSpan(y, x0, x1 int) (Span, bool) {
	for s := range m.Spans(y, x0, x1) {
		return s, true
	}
	return Span{}, false
}

// SpanAt reports whether row y holds a span with exactly the bounds x0..x1
// when the row is only considered between columns lo and hi: every pixel of
// x0..x1 is set, and the neighbours x0-1 and x1+1 are either clear or outside
// lo..hi.
func (m *HorizontalMSB) SpanAt(y, x0, x1, lo, hi int) bool {
	m.mustContain(lo, y)
	m.mustContain(hi, y)
	base := m.bitIndex(m.Rect.Min.X, y) - m.Rect.Min.X
	if m.nextClear(base+x0, base+x1+1) != base+x1+1 {
		return false
	}
	if x0 > lo && m.get(base+x0-1) {
		return false
	}
	if x1 < hi && m.get(base+x1+1) {
		return false
	}
	return true
}

// nextSet returns the stream index of the first set bit in [i, end), or end.
func (m *HorizontalMSB) nextSet(i, end int) int {
	for i < end {
		b := m.Pix[i>>3] & (0xFF >> (i & 7))
		if b != 0 {
			if j := i&^7 + 8 - bits.Len8(b); j < end {
				return j
			}
			return end
		}
		i = i&^7 + 8
	}
	return end
}

// nextClear returns the stream index of the first clear bit in [i, end), or
// end.
func (m *HorizontalMSB) nextClear(i, end int) int {
	for i < end {
		b := ^m.Pix[i>>3] & (0xFF >> (i & 7))
		if b != 0 {
			if j := i&^7 + 8 - bits.Len8(b); j < end {
				return j
			}
			return end
		}
		i = i&^7 + 8
	}
	return end
}
