// Package mock provides simulated hardware and recording stages to
// execute integration tests without a device.
package mock

import (
	"pipelined.dev/hwstream/signal"
)

// Sink mocks up a stage.Stage and records chunks it receives.
// Chunks are not thread-safe, so should not be checked while a loop is
// running.
type Sink[T any] struct {
	counter
	chunks      []T
	Discard     bool
	ErrorOnCall error
}

// Send implements stage.Stage.
func (m *Sink[T]) Send(chunk T) error {
	if m.ErrorOnCall != nil {
		return m.ErrorOnCall
	}
	if !m.Discard {
		m.chunks = append(m.chunks, chunk)
	}
	m.advance(sizeOf(chunk))
	return nil
}

// Chunks returns received chunks in order.
func (m *Sink[T]) Chunks() []T {
	return m.chunks
}

// Reset clears recorded chunks and counters.
func (m *Sink[T]) Reset() {
	m.chunks = nil
	m.reset()
}

func sizeOf(chunk any) int {
	switch v := chunk.(type) {
	case signal.Float64:
		return v.Size()
	case signal.Bits:
		if len(v) == 0 {
			return 0
		}
		return len(v[0])
	case []float64:
		return len(v)
	case []int64:
		return len(v)
	case []bool:
		return len(v)
	case []uint32:
		return len(v)
	default:
		return 1
	}
}

// counter counts messages and samples.
type counter struct {
	messages int
	samples  int
}

func (c *counter) reset() {
	c.messages, c.samples = 0, 0
}

// Advance counter's metrics.
func (c *counter) advance(size int) {
	c.messages++
	c.samples = c.samples + size
}

// Count returns messages and samples metrics.
func (c *counter) Count() (int, int) {
	return c.messages, c.samples
}
