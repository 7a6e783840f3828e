package mock

import (
	"errors"
	"fmt"
	"sync"

	"pipelined.dev/hwstream/hardware"
)

// ErrBounds is returned if a raw span crosses the end of the active
// buffer length.
var ErrBounds = errors.New("span out of bounds")

// Channel simulates a remote hardware buffer. The simulated producer
// writes with Produce, which is safe to call concurrently with the
// consumer side.
type Channel struct {
	m        sync.Mutex
	data     []uint32
	length   int
	index    int
	count    int64
	triggers []string

	// ResetOnTrigger moves the write index to zero on every trigger,
	// like triggered hardware buffers do.
	ResetOnTrigger bool
	// ErrorOnIndex is returned by Index and Count.
	ErrorOnIndex error
	// ErrorOnCall is returned by ReadRaw and WriteRaw.
	ErrorOnCall error
	// IndexFunc overrides the reported index.
	IndexFunc func(index int) int
}

// NewChannel returns a channel of capacity words.
func NewChannel(capacity int) *Channel {
	return &Channel{
		data: make([]uint32, capacity),
	}
}

// Produce writes words at the hardware index and advances it.
func (c *Channel) Produce(words ...uint32) {
	c.m.Lock()
	defer c.m.Unlock()
	l := c.activeLength()
	for _, w := range words {
		c.data[c.index] = w
		c.index = (c.index + 1) % l
	}
	c.count += int64(len(words))
}

// Advance moves the hardware index by n words without writing data.
func (c *Channel) Advance(n int) {
	c.m.Lock()
	defer c.m.Unlock()
	c.index = (c.index + n) % c.activeLength()
	c.count += int64(n)
}

// Index implements hardware.Channel.
func (c *Channel) Index() (int, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.ErrorOnIndex != nil {
		return 0, c.ErrorOnIndex
	}
	if c.IndexFunc != nil {
		return c.IndexFunc(c.index), nil
	}
	return c.index, nil
}

// Count implements hardware.Counter.
func (c *Channel) Count() (int64, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.ErrorOnIndex != nil {
		return 0, c.ErrorOnIndex
	}
	return c.count, nil
}

// Capacity implements hardware.Channel.
func (c *Channel) Capacity() int {
	return len(c.data)
}

// ConfiguredLength implements hardware.Channel.
func (c *Channel) ConfiguredLength() int {
	c.m.Lock()
	defer c.m.Unlock()
	return c.length
}

// ReadRaw implements hardware.Channel.
func (c *Channel) ReadRaw(offset, length int) ([]uint32, error) {
	c.m.Lock()
	defer c.m.Unlock()
	if c.ErrorOnCall != nil {
		return nil, c.ErrorOnCall
	}
	if err := c.bounds(offset, length); err != nil {
		return nil, err
	}
	return append([]uint32(nil), c.data[offset:offset+length]...), nil
}

// WriteRaw implements hardware.Channel.
func (c *Channel) WriteRaw(offset int, data []uint32) error {
	c.m.Lock()
	defer c.m.Unlock()
	if c.ErrorOnCall != nil {
		return c.ErrorOnCall
	}
	if err := c.bounds(offset, len(data)); err != nil {
		return err
	}
	copy(c.data[offset:], data)
	return nil
}

// SetLength implements hardware.Channel.
func (c *Channel) SetLength(n int) error {
	c.m.Lock()
	defer c.m.Unlock()
	if n < 0 || n > len(c.data) {
		return fmt.Errorf("%w: length %d of %d", ErrBounds, n, len(c.data))
	}
	c.length = n
	c.index = 0
	return nil
}

// Trigger implements hardware.Channel.
func (c *Channel) Trigger(name string) error {
	c.m.Lock()
	defer c.m.Unlock()
	c.triggers = append(c.triggers, name)
	if c.ResetOnTrigger {
		c.index = 0
	}
	return nil
}

// Triggers returns names of fired triggers in order.
func (c *Channel) Triggers() []string {
	c.m.Lock()
	defer c.m.Unlock()
	return append([]string(nil), c.triggers...)
}

// Data returns a copy of the whole buffer.
func (c *Channel) Data() []uint32 {
	c.m.Lock()
	defer c.m.Unlock()
	return append([]uint32(nil), c.data...)
}

func (c *Channel) activeLength() int {
	if c.length == 0 {
		return len(c.data)
	}
	return c.length
}

func (c *Channel) bounds(offset, length int) error {
	if offset < 0 || length < 0 || offset+length > len(c.data) {
		return fmt.Errorf("%w: [%d, %d) of %d", ErrBounds, offset, offset+length, len(c.data))
	}
	return nil
}

// WithoutCounter hides the word count of the channel, so it only
// implements hardware.Channel.
func WithoutCounter(c *Channel) hardware.Channel {
	return struct{ hardware.Channel }{c}
}
