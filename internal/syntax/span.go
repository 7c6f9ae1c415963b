package syntax

// Span is a half-open byte range [Start, End) into the source text.
type Span struct {
	Start uint32 `json:"start"`
	End   uint32 `json:"end"`
}

// Point returns a zero-length span at offset.
func Point(offset uint32) Span {
	return Span{Start: offset, End: offset}
}

// Len returns the number of bytes the span covers.
func (s Span) Len() int {
	if s.End <= s.Start {
		return 0
	}
	return int(s.End - s.Start)
}

// IsEmpty reports whether the span covers no bytes.
func (s Span) IsEmpty() bool {
	return s.End <= s.Start
}

// Contains reports whether offset falls inside the span.
func (s Span) Contains(offset uint32) bool {
	return offset >= s.Start && offset < s.End
}

// Cover returns the smallest span containing both s and o.
func (s Span) Cover(o Span) Span {
	if o.IsEmpty() && o.Start == 0 && o.End == 0 {
		return s
	}
	out := s
	if o.Start < out.Start {
		out.Start = o.Start
	}
	if o.End > out.End {
		out.End = o.End
	}
	return out
}

// Overlaps reports whether the two spans share at least one byte.
func (s Span) Overlaps(o Span) bool {
	return s.Start < o.End && o.Start < s.End
}
