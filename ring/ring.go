// Package ring provides circular buffers with wraparound reads and writes
// and position tracking.
package ring

import (
	"fmt"

	"pipelined.dev/hwstream"
)

// RingBuffer is a fixed-capacity circular storage of frames. Each frame
// holds channels elements, stored interleaved. Reads and writes share a
// single cursor: a read returns the frames that follow the cursor, which
// after a full cycle are the oldest ones.
type RingBuffer[T any] struct {
	data     []T
	capacity int
	channels int
	idx      int
	cycles   int
}

// New returns a ring buffer of capacity frames with the given number of
// channels per frame.
func New[T any](capacity, channels int) (*RingBuffer[T], error) {
	if capacity <= 0 {
		return nil, fmt.Errorf("%w: capacity %d", hwstream.ErrConfig, capacity)
	}
	if channels <= 0 {
		return nil, fmt.Errorf("%w: channels %d", hwstream.ErrConfig, channels)
	}
	return &RingBuffer[T]{
		data:     make([]T, capacity*channels),
		capacity: capacity,
		channels: channels,
	}, nil
}

// Capacity returns buffer capacity in frames.
func (r *RingBuffer[T]) Capacity() int {
	return r.capacity
}

// Channels returns number of elements per frame.
func (r *RingBuffer[T]) Channels() int {
	return r.channels
}

// Idx returns the next read/write position.
func (r *RingBuffer[T]) Idx() int {
	return r.idx
}

// Cycles returns how many times the cursor wrapped.
func (r *RingBuffer[T]) Cycles() int {
	return r.cycles
}

// Buffered returns number of frames that hold data.
func (r *RingBuffer[T]) Buffered() int {
	if r.cycles > 0 {
		return r.capacity
	}
	return r.idx
}

// TotalSamplesProcessed returns monotonic number of frames moved through
// the buffer.
func (r *RingBuffer[T]) TotalSamplesProcessed() int {
	return r.cycles*r.capacity + r.idx
}

// Reset moves the cursor to idx. Cycle count is kept.
func (r *RingBuffer[T]) Reset(idx int) error {
	if idx < 0 || idx >= r.capacity {
		return fmt.Errorf("%w: index %d outside [0, %d)", hwstream.ErrCapacity, idx, r.capacity)
	}
	r.idx = idx
	return nil
}

// Write copies interleaved frames into the buffer at the cursor and
// advances it. Data must be a whole number of frames and must not exceed
// capacity.
func (r *RingBuffer[T]) Write(data []T) error {
	n, err := r.frames(len(data))
	if err != nil {
		return err
	}
	if n > r.capacity {
		return fmt.Errorf("%w: write %d frames into %d", hwstream.ErrCapacity, n, r.capacity)
	}
	pos := 0
	for _, s := range Wrap(r.idx, n, r.capacity) {
		pos += copy(r.data[s.Start*r.channels:s.End*r.channels], data[pos:])
	}
	r.advance(n)
	return nil
}

// Read returns size frames starting at the cursor and advances it.
// The ring has no producer of its own, so size is always explicit; see
// BlockBuffer.ReadAvailable.
func (r *RingBuffer[T]) Read(size int) ([]T, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: read %d frames", hwstream.ErrSize, size)
	}
	if size > r.capacity {
		return nil, fmt.Errorf("%w: read %d frames from %d", hwstream.ErrCapacity, size, r.capacity)
	}
	result := make([]T, 0, size*r.channels)
	for _, s := range Wrap(r.idx, size, r.capacity) {
		result = append(result, r.data[s.Start*r.channels:s.End*r.channels]...)
	}
	r.advance(size)
	return result, nil
}

func (r *RingBuffer[T]) frames(length int) (int, error) {
	if length%r.channels != 0 {
		return 0, fmt.Errorf("%w: %d elements is not a whole number of %d-channel frames", hwstream.ErrSize, length, r.channels)
	}
	return length / r.channels, nil
}

func (r *RingBuffer[T]) advance(n int) {
	r.idx += n
	for r.idx >= r.capacity {
		r.idx -= r.capacity
		r.cycles++
	}
}
