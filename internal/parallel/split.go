package parallel

// Span is the half-open index range [Lo, Hi).
type Span struct {
	Lo, Hi int
}

// Len returns Hi - Lo.
func (s Span) Len() int { return s.Hi - s.Lo }

// SplitRange cuts [0, n) into at most parts contiguous spans whose lengths
// differ by at most one. Empty spans are never returned.
func SplitRange(n, parts int) []Span {
	if n <= 0 {
		return nil
	}
	if parts < 1 {
		parts = 1
	}
	if parts > n {
		parts = n
	}
	spans := make([]Span, 0, parts)
	size, extra := n/parts, n%parts
	lo := 0
	for i := 0; i < parts; i++ {
		hi := lo + size
		if i < extra {
			hi++
		}
		spans = append(spans, Span{Lo: lo, Hi: hi})
		lo = hi
	}
	return spans
}
