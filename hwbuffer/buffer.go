// Package hwbuffer streams samples from remote hardware buffers.
//
// A Buffer tracks the position of an independently advancing hardware
// producer, mirrors new raw words into a local block buffer and decodes
// them into channel-major samples. The hardware position is queried
// exactly once per call, so every call works with a single consistent
// snapshot of the producer.
//
// Buffer is not safe for concurrent use. Poller moves hardware polling
// to its own goroutine and hands frames over through a queue.
package hwbuffer

import (
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/decode"
	"pipelined.dev/hwstream/hardware"
	"pipelined.dev/hwstream/log"
	"pipelined.dev/hwstream/metric"
	"pipelined.dev/hwstream/ring"
	"pipelined.dev/hwstream/signal"
)

type state int

const (
	uninitialized state = iota
	ready
	closed
)

// Buffer reads and writes a remote hardware buffer.
type Buffer struct {
	name    string
	channel hardware.Channel
	counter hardware.Counter

	blockCount   int
	overflow     OverflowPolicy
	pollInterval time.Duration
	logger       logrus.FieldLogger
	metrics      *metric.Metrics

	state   state
	format  decode.Format
	decoder *decode.Decoder
	mirror  *ring.BlockBuffer[uint32]
	length  int
	// count is the hardware word count matching the mirror index. It
	// is only tracked when the channel implements hardware.Counter.
	count int64
	// countBase is the hardware word count at which the hardware index
	// was last reset to zero.
	countBase int64
	dropped   int64
	total     int64
}

// position is a single snapshot of the hardware producer.
type position struct {
	idx       int
	count     int64
	lost      int64
	available int
}

// New returns a buffer over the channel. Buffer must be initialized
// before use.
func New(name string, ch hardware.Channel, options ...Option) *Buffer {
	b := &Buffer{
		name:         name,
		channel:      ch,
		blockCount:   defaultBlockCount,
		overflow:     Drop,
		pollInterval: defaultPollInterval,
	}
	if c, ok := ch.(hardware.Counter); ok {
		b.counter = c
	}
	for _, option := range options {
		option(b)
	}
	if b.logger == nil {
		b.logger = log.Silent()
	}
	b.logger = b.logger.WithField("buffer", name)
	return b
}

// Initialize validates the format, computes block geometry from the
// configured length of the hardware buffer and records the baseline
// hardware position.
func (b *Buffer) Initialize(f decode.Format) error {
	if b.state != uninitialized {
		return hwstream.ErrInvalidState
	}
	d, err := decode.New(f)
	if err != nil {
		return err
	}
	length := b.channel.ConfiguredLength()
	if length == 0 {
		length = b.channel.Capacity()
	}
	mirror, err := b.geometry(f, length)
	if err != nil {
		return err
	}
	b.format, b.decoder, b.mirror, b.length = f, d, mirror, length

	var p position
	if f.ReadMode == decode.Continuous {
		if p, err = b.query(); err != nil {
			return fmt.Errorf("baseline: %w", err)
		}
	}
	if err := b.rebase(p); err != nil {
		return err
	}
	b.state = ready
	b.logger.WithFields(logrus.Fields{
		"length":     length,
		"blockSize":  mirror.BlockSize(),
		"frameWords": f.FrameWords(),
		"index":      p.idx,
	}).Debug("initialized")
	return nil
}

func (b *Buffer) geometry(f decode.Format, length int) (*ring.BlockBuffer[uint32], error) {
	if length%f.FrameWords() != 0 {
		return nil, fmt.Errorf("%w: length %d is not a whole number of %d-word frames", hwstream.ErrConfig, length, f.FrameWords())
	}
	mirror, err := ring.NewBlockBuffer[uint32](length, 1, b.blockCount)
	if err != nil {
		return nil, err
	}
	if mirror.BlockSize()%f.FrameWords() != 0 {
		return nil, fmt.Errorf("%w: block size %d is not a whole number of %d-word frames", hwstream.ErrConfig, mirror.BlockSize(), f.FrameWords())
	}
	return mirror, nil
}

func (b *Buffer) rebase(p position) error {
	if err := b.mirror.Reset(p.idx); err != nil {
		return err
	}
	b.count = p.count
	return nil
}

// Reset rebases the buffer on the hardware producer: continuous buffers
// skip to the current position, triggered ones restart at zero. Words
// not read yet are discarded. It re-arms a buffer after ErrOverflow.
func (b *Buffer) Reset() error {
	if b.state != ready {
		return hwstream.ErrInvalidState
	}
	return b.start("")
}

// Name returns buffer name.
func (b *Buffer) Name() string {
	return b.name
}

// Format returns buffer format. It is zero before initialization.
func (b *Buffer) Format() decode.Format {
	return b.format
}

// Length returns active length of the hardware buffer in words.
func (b *Buffer) Length() int {
	return b.length
}

// BlockSize returns block size in words.
func (b *Buffer) BlockSize() int {
	if b.mirror == nil {
		return 0
	}
	return b.mirror.BlockSize()
}

// Dropped returns number of words lost to overflow.
func (b *Buffer) Dropped() int64 {
	return b.dropped
}

// TotalWords returns number of words moved through the buffer.
func (b *Buffer) TotalWords() int64 {
	return b.total
}

// Available returns number of words ready to read, rounded down to
// whole frames.
func (b *Buffer) Available() (int, error) {
	if b.state != ready {
		return 0, hwstream.ErrInvalidState
	}
	p, err := b.poll()
	if err != nil {
		return 0, err
	}
	return p.available, nil
}

// Read returns all available samples.
func (b *Buffer) Read() (signal.Float64, error) {
	raw, err := b.ReadRaw(0)
	if err != nil {
		return nil, err
	}
	return b.decoder.Decode(raw)
}

// ReadBlock returns samples of n blocks. Nothing is read until n whole
// blocks are available.
func (b *Buffer) ReadBlock(n int) (signal.Float64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: %d blocks", hwstream.ErrSize, n)
	}
	if n > b.blockCount {
		return nil, fmt.Errorf("%w: %d blocks of %d", hwstream.ErrCapacity, n, b.blockCount)
	}
	raw, err := b.ReadRaw(n)
	if err != nil {
		return nil, err
	}
	return b.decoder.Decode(raw)
}

// ReadRaw returns available raw words without decoding. If blocks is
// positive, exactly that many blocks are read once available.
func (b *Buffer) ReadRaw(blocks int) ([]uint32, error) {
	if b.state != ready {
		return nil, hwstream.ErrInvalidState
	}
	p, err := b.poll()
	if err != nil {
		return nil, err
	}
	b.drop(p.lost)
	words := p.available
	if blocks > 0 {
		words = blocks * b.mirror.BlockSize()
		if p.available < words {
			return []uint32{}, nil
		}
	}
	raw := make([]uint32, 0, words)
	for _, s := range ring.Wrap(b.mirror.Idx(), words, b.length) {
		chunk, err := b.channel.ReadRaw(s.Start, s.Len())
		if err != nil {
			return nil, fmt.Errorf("read [%d, %d): %w", s.Start, s.End, err)
		}
		raw = append(raw, chunk...)
	}
	if err := b.mirror.Write(raw); err != nil {
		return nil, err
	}
	b.count += int64(words)
	b.total += int64(words)
	return raw, nil
}

// poll queries the hardware position once and measures how far the
// producer is ahead.
func (b *Buffer) poll() (position, error) {
	p, err := b.query()
	if err != nil {
		return p, err
	}
	if b.tracksCount() {
		if delta := p.count - b.count; delta >= int64(b.length) {
			p.lost = delta - delta%int64(b.length)
		}
	}
	p.available = ring.Available(b.mirror.Idx(), p.idx, b.length, b.format.FrameWords())
	if p.lost > 0 && b.overflow == Fail {
		b.metrics.Overflow(b.name)
		return p, fmt.Errorf("%w: %d words lost", hwstream.ErrOverflow, p.lost)
	}
	return p, nil
}

// query reads either the word count or the index of the hardware
// producer, never both.
func (b *Buffer) query() (position, error) {
	var p position
	if b.tracksCount() {
		count, err := b.counter.Count()
		if err != nil {
			return p, err
		}
		if count < b.count {
			return p, b.race(fmt.Errorf("%w: count %d behind %d", hwstream.ErrRaceCondition, count, b.count))
		}
		p.count = count
		p.idx = int((count - b.countBase) % int64(b.length))
		return p, nil
	}
	idx, err := b.channel.Index()
	if err != nil {
		return p, err
	}
	if idx < 0 || idx >= b.length {
		return p, b.race(fmt.Errorf("%w: index %d outside [0, %d)", hwstream.ErrRaceCondition, idx, b.length))
	}
	p.idx = idx
	return p, nil
}

func (b *Buffer) tracksCount() bool {
	return b.counter != nil && b.format.ReadMode == decode.Continuous
}

func (b *Buffer) race(err error) error {
	b.metrics.RaceCondition(b.name)
	b.logger.WithError(err).Debug("race condition")
	return err
}

func (b *Buffer) drop(lost int64) {
	if lost == 0 {
		return
	}
	b.count += lost
	b.dropped += lost
	b.metrics.Dropped(b.name, int(lost))
	b.logger.WithFields(logrus.Fields{
		"words":   lost,
		"dropped": b.dropped,
	}).Warn("overflow")
}

// Set replaces content of the hardware buffer: its configured length is
// truncated to the encoded data and data is written at offset zero.
// Local geometry follows the new length and the buffer is rebased on the
// reset hardware index. Set returns ErrCapacity if data exceeds the
// hardware capacity and ErrConfig if the new length is not a whole
// number of frames per block; the hardware is untouched in both cases.
func (b *Buffer) Set(data signal.Float64) error {
	if b.state != ready {
		return hwstream.ErrInvalidState
	}
	raw, err := b.decoder.Encode(data)
	if err != nil {
		return err
	}
	if len(raw) > b.channel.Capacity() {
		return fmt.Errorf("%w: %d words into %d", hwstream.ErrCapacity, len(raw), b.channel.Capacity())
	}
	mirror, err := b.geometry(b.format, len(raw))
	if err != nil {
		return err
	}
	if err := b.channel.SetLength(len(raw)); err != nil {
		return err
	}
	if err := b.channel.WriteRaw(0, raw); err != nil {
		return err
	}
	// SetLength moved the hardware index to zero.
	var p position
	if b.tracksCount() {
		if p.count, err = b.counter.Count(); err != nil {
			return err
		}
	}
	if err := mirror.Write(raw); err != nil {
		return err
	}
	b.mirror, b.length, b.countBase = mirror, len(raw), p.count
	if err := b.rebase(p); err != nil {
		return err
	}
	b.total += int64(len(raw))
	return nil
}

// Write encodes data and writes it to the hardware buffer at the local
// index, advancing it.
func (b *Buffer) Write(data signal.Float64) error {
	if b.state != ready {
		return hwstream.ErrInvalidState
	}
	raw, err := b.decoder.Encode(data)
	if err != nil {
		return err
	}
	if len(raw) > b.length {
		return fmt.Errorf("%w: %d words into %d", hwstream.ErrCapacity, len(raw), b.length)
	}
	pos := 0
	for _, s := range ring.Wrap(b.mirror.Idx(), len(raw), b.length) {
		if err := b.channel.WriteRaw(s.Start, raw[pos:pos+s.Len()]); err != nil {
			return fmt.Errorf("write [%d, %d): %w", s.Start, s.End, err)
		}
		pos += s.Len()
	}
	if err := b.mirror.Write(raw); err != nil {
		return err
	}
	b.total += int64(len(raw))
	return nil
}

// Close releases the buffer. It cannot be used after close.
func (b *Buffer) Close() error {
	if b.state == closed {
		return hwstream.ErrInvalidState
	}
	b.state = closed
	b.logger.WithFields(logrus.Fields{
		"words":   b.total,
		"dropped": b.dropped,
	}).Debug("closed")
	return nil
}
