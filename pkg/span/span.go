// Package span tracks disjoint half-open intervals of flash block indices.
//
// A List holds the free (or reclaimable) blocks of a region in as few
// intervals as possible, coalescing neighbours as they are added. It is the
// single place that reconciles two incompatible allocation granularities:
// block allocation wants a single index, while erase requires an
// erase-group-aligned run of them.
package span

import "sort"

// Span is a half-open interval [Start, Start+Len) of block indices.
type Span struct {
	Start uint32
	Len   uint32
}

// End returns the first index past the span.
func (s Span) End() uint32 {
	return s.Start + s.Len
}

// List is a sorted, coalesced list of disjoint spans.
//
// The zero value is an empty list, ready to use.
type List struct {
	spans []Span
}

// Len returns the number of blocks covered by the list, across all spans.
func (l *List) Len() uint32 {
	var n uint32
	for _, s := range l.spans {
		n += s.Len
	}
	return n
}

// Spans returns the list's spans in ascending order. The caller must not
// modify the returned slice.
func (l *List) Spans() []Span {
	return l.spans
}

// Add inserts [n, n+size) into the list, merging with any adjacent spans.
func (l *List) Add(n, size uint32) {
	if size == 0 {
		return
	}

	i := sort.Search(len(l.spans), func(i int) bool {
		return l.spans[i].Start >= n
	})

	mergeLeft := i > 0 && l.spans[i-1].End() == n
	mergeRight := i < len(l.spans) && n+size == l.spans[i].Start

	switch {
	case mergeLeft && mergeRight:
		l.spans[i-1].Len += size + l.spans[i].Len
		l.spans = append(l.spans[:i], l.spans[i+1:]...)
	case mergeLeft:
		l.spans[i-1].Len += size
	case mergeRight:
		l.spans[i].Start = n
		l.spans[i].Len += size
	default:
		l.spans = append(l.spans, Span{})
		copy(l.spans[i+1:], l.spans[i:])
		l.spans[i] = Span{Start: n, Len: size}
	}
}

// PopOne removes and returns the first block of the first span. It reports
// false if the list is empty.
func (l *List) PopOne() (uint32, bool) {
	if len(l.spans) == 0 {
		return 0, false
	}
	n := l.spans[0].Start
	if l.spans[0].Len--; l.spans[0].Len == 0 {
		l.spans = l.spans[1:]
	} else {
		l.spans[0].Start++
	}
	return n, true
}

func roundUp(n, mod uint32) uint32 {
	return (n + mod - 1) / mod * mod
}

// PopEraseGroup finds the lowest erase-group-aligned sub-run of length
// eraseSize fully contained within some span, removes it from the list, and
// returns its base index. It reports false if no span contains such a run.
func (l *List) PopEraseGroup(eraseSize uint32) (uint32, bool) {
	for i, s := range l.spans {
		base := roundUp(s.Start, eraseSize)
		if s.End() < base+eraseSize {
			continue
		}

		switch {
		case base == s.Start && s.Len == eraseSize:
			l.spans = append(l.spans[:i], l.spans[i+1:]...)
		case base == s.Start:
			l.spans[i].Start += eraseSize
			l.spans[i].Len -= eraseSize
		case s.End() == base+eraseSize:
			l.spans[i].Len -= eraseSize
		default:
			tail := Span{Start: base + eraseSize, Len: s.End() - base - eraseSize}
			l.spans[i].Len = base - s.Start
			l.spans = append(l.spans, Span{})
			copy(l.spans[i+2:], l.spans[i+1:])
			l.spans[i+1] = tail
		}
		return base, true
	}
	return 0, false
}

// FreeAll discards every span in the list.
func (l *List) FreeAll() {
	l.spans = nil
}
