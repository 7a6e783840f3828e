package hwbuffer

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/smallnest/ringbuffer"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/signal"
)

const wordBytes = 4

// Poller reads the hardware on its own goroutine and queues whole frames
// of raw words for a consumer. Run is the only producer and Read is the
// only consumer of the queue. The buffer must not be used directly
// while Run is active.
type Poller struct {
	buffer     *Buffer
	queue      *ringbuffer.RingBuffer
	frameBytes int
	interval   time.Duration
	dropped    atomic.Int64
}

// NewPoller returns a poller with a queue of frames raw frames, polling
// the initialized buffer every interval.
func NewPoller(b *Buffer, frames int, interval time.Duration) (*Poller, error) {
	if b.state != ready {
		return nil, hwstream.ErrInvalidState
	}
	if frames <= 0 || interval <= 0 {
		return nil, fmt.Errorf("%w: queue of %d frames polled every %v", hwstream.ErrConfig, frames, interval)
	}
	frameBytes := b.format.FrameWords() * wordBytes
	return &Poller{
		buffer:     b,
		queue:      ringbuffer.New(frames * frameBytes),
		frameBytes: frameBytes,
		interval:   interval,
	}, nil
}

// Run polls the hardware until the context is done. Race conditions are
// retried on the next tick, other errors stop polling.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		raw, err := p.buffer.ReadRaw(0)
		if err != nil {
			if errors.Is(err, hwstream.ErrRaceCondition) {
				continue
			}
			return err
		}
		p.push(raw)
	}
}

// push queues as many whole frames as fit and drops the rest.
func (p *Poller) push(raw []uint32) {
	fit := min(len(raw)*wordBytes, p.queue.Free()/p.frameBytes*p.frameBytes) / wordBytes
	if fit > 0 {
		data := make([]byte, 0, fit*wordBytes)
		for _, w := range raw[:fit] {
			data = binary.LittleEndian.AppendUint32(data, w)
		}
		// free space only grows while this goroutine is the single writer.
		_, _ = p.queue.Write(data)
	}
	if lost := len(raw) - fit; lost > 0 {
		total := p.dropped.Add(int64(lost))
		p.buffer.metrics.Dropped(p.buffer.name, lost)
		p.buffer.logger.WithFields(logrus.Fields{
			"words":   lost,
			"dropped": total,
		}).Warn("queue full")
	}
}

// Read decodes all queued frames.
func (p *Poller) Read() (signal.Float64, error) {
	n := p.queue.Length() / p.frameBytes * p.frameBytes
	if n == 0 {
		return p.buffer.decoder.Decode(nil)
	}
	data := make([]byte, n)
	read, err := p.queue.Read(data)
	if err != nil {
		return nil, err
	}
	raw := make([]uint32, read/wordBytes)
	for i := range raw {
		raw[i] = binary.LittleEndian.Uint32(data[i*wordBytes:])
	}
	return p.buffer.decoder.Decode(raw)
}

// Dropped returns number of words dropped because the queue was full.
func (p *Poller) Dropped() int64 {
	return p.dropped.Load()
}
