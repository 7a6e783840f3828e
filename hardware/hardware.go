// Package hardware defines the boundary to DSP hardware: remote sample
// buffers exposed by a vendor driver and the session that connects to
// them.
package hardware

// Channel is a remote circular buffer on the hardware. The hardware
// advances its write index independently of the caller.
type Channel interface {
	// Index returns the current hardware write position in words.
	Index() (int, error)
	// Capacity returns the maximum length of the buffer in words.
	Capacity() int
	// ConfiguredLength returns the active length of the buffer in words.
	// Zero means the buffer uses its full capacity.
	ConfiguredLength() int
	// ReadRaw returns length words starting at offset. The span must not
	// cross the end of the buffer.
	ReadRaw(offset, length int) ([]uint32, error)
	// WriteRaw writes words starting at offset. The span must not cross
	// the end of the buffer.
	WriteRaw(offset int, data []uint32) error
	// SetLength changes the active length of the buffer.
	SetLength(n int) error
	// Trigger fires a named hardware trigger.
	Trigger(name string) error
}

// Counter is implemented by channels that expose a monotonic count of
// words written by the hardware. It allows exact overflow detection.
type Counter interface {
	Count() (int64, error)
}

// Device is a connection to DSP hardware through a vendor driver.
type Device interface {
	Connect() error
	// Channel resolves hardware tag to a channel.
	Channel(tag string) (Channel, error)
	Close() error
}
