package ring

// Segment is a contiguous half-open range [Start, End) of buffer positions.
type Segment struct {
	Start int
	End   int
}

// Len returns number of positions in the segment.
func (s Segment) Len() int {
	return s.End - s.Start
}

// Wrap splits a span of length positions starting at offset into the
// segments it occupies in a buffer of the given capacity. A span that fits
// before the end of the buffer yields a single segment. Otherwise it yields
// a head segment up to capacity and a tail segment starting at zero.
// Zero length yields no segments.
func Wrap(offset, length, capacity int) []Segment {
	if length <= 0 {
		return nil
	}
	if offset+length <= capacity {
		return []Segment{{Start: offset, End: offset + length}}
	}
	return []Segment{
		{Start: offset, End: capacity},
		{Start: 0, End: length - (capacity - offset)},
	}
}

// Available returns number of positions the producer at newIdx is ahead
// of the consumer at oldIdx in a buffer of the given capacity, rounded
// down to a multiple. Multiple less or equal to one means no rounding.
func Available(oldIdx, newIdx, capacity, multiple int) int {
	delta := ((newIdx-oldIdx)%capacity + capacity) % capacity
	if multiple <= 1 {
		return delta
	}
	return delta / multiple * multiple
}
