package ring

import (
	"fmt"

	"pipelined.dev/hwstream"
)

// BlockBuffer is a ring buffer accessed in fixed-size blocks. Capacity
// must be a whole number of blocks.
type BlockBuffer[T any] struct {
	*RingBuffer[T]
	blockCount int
	blockSize  int
}

// NewBlockBuffer returns a buffer of capacity frames split into
// blockCount blocks.
func NewBlockBuffer[T any](capacity, channels, blockCount int) (*BlockBuffer[T], error) {
	if blockCount <= 0 {
		return nil, fmt.Errorf("%w: block count %d", hwstream.ErrConfig, blockCount)
	}
	if capacity%blockCount != 0 {
		return nil, fmt.Errorf("%w: capacity %d is not divisible by block count %d", hwstream.ErrConfig, capacity, blockCount)
	}
	r, err := New[T](capacity, channels)
	if err != nil {
		return nil, err
	}
	return &BlockBuffer[T]{
		RingBuffer: r,
		blockCount: blockCount,
		blockSize:  capacity / blockCount,
	}, nil
}

// BlockSize returns number of frames in a block.
func (b *BlockBuffer[T]) BlockSize() int {
	return b.blockSize
}

// BlockCount returns number of blocks in the buffer.
func (b *BlockBuffer[T]) BlockCount() int {
	return b.blockCount
}

// ReadBlock reads n blocks.
func (b *BlockBuffer[T]) ReadBlock(n int) ([]T, error) {
	return b.Read(n * b.blockSize)
}

// WriteBlock writes data that must hold a whole number of blocks.
func (b *BlockBuffer[T]) WriteBlock(data []T) error {
	n, err := b.frames(len(data))
	if err != nil {
		return err
	}
	if n%b.blockSize != 0 {
		return fmt.Errorf("%w: %d frames is not a multiple of block size %d", hwstream.ErrSize, n, b.blockSize)
	}
	return b.Write(data)
}

// Available returns number of frames a producer at producerIdx is ahead
// of the buffer cursor.
func (b *BlockBuffer[T]) Available(producerIdx int) int {
	return Available(b.idx, producerIdx, b.capacity, 1)
}

// ReadAvailable reads every frame a producer at producerIdx is ahead of
// the buffer cursor.
func (b *BlockBuffer[T]) ReadAvailable(producerIdx int) ([]T, error) {
	return b.Read(b.Available(producerIdx))
}

// AvailableBlocks returns number of whole blocks a producer at
// producerIdx is ahead of the buffer cursor.
func (b *BlockBuffer[T]) AvailableBlocks(producerIdx int) int {
	return b.Available(producerIdx) / b.blockSize
}

// BlockProcessed reports whether at least one whole block is available.
func (b *BlockBuffer[T]) BlockProcessed(producerIdx int) bool {
	return b.Available(producerIdx) >= b.blockSize
}
