package stage

import (
	"fmt"

	"github.com/go-audio/audio"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/signal"
)

// Collector accumulates channel-major chunks into an interleaved audio
// buffer for consumers outside of the stream.
type Collector struct {
	buffer *audio.FloatBuffer
}

// NewCollector returns collector for numChannels channels.
func NewCollector(numChannels, sampleRate int) *Collector {
	return &Collector{
		buffer: &audio.FloatBuffer{
			Format: &audio.Format{
				NumChannels: numChannels,
				SampleRate:  sampleRate,
			},
		},
	}
}

// Send appends chunk to the buffer.
func (c *Collector) Send(chunk signal.Float64) error {
	if chunk.NumChannels() != c.buffer.Format.NumChannels {
		return fmt.Errorf("%w: %d channels into %d-channel collector", hwstream.ErrSize, chunk.NumChannels(), c.buffer.Format.NumChannels)
	}
	c.buffer.Data = append(c.buffer.Data, chunk.Interleaved()...)
	return nil
}

// Buffer returns collected samples.
func (c *Collector) Buffer() *audio.FloatBuffer {
	return c.buffer
}

// Signal returns collected samples as channel-major signal.
func (c *Collector) Signal() signal.Float64 {
	return signal.FromInterleaved(c.buffer.Data, c.buffer.Format.NumChannels)
}

// Reset drops collected samples.
func (c *Collector) Reset() {
	c.buffer.Data = nil
}
