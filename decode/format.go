package decode

import (
	"fmt"
	"math"
	"strings"

	"pipelined.dev/hwstream"
)

// Compression is a hardware-side sample compression mode.
type Compression int

const (
	// None means one sample per 32-bit word.
	None Compression = iota
	// Packed means each 32-bit word holds 4/NarrowWidth narrow integers
	// of consecutive samples.
	Packed
	// Multiplexed means narrow integers of each channel are packed
	// together before channels are interleaved.
	Multiplexed
)

// Word is a type of uncompressed 32-bit sample.
type Word int

const (
	// Float32 words hold IEEE 754 bit patterns.
	Float32 Word = iota
	// Int32 words hold signed integers.
	Int32
)

// ReadMode defines how hardware write index behaves.
type ReadMode int

const (
	// Continuous index advances monotonically and wraps at capacity.
	Continuous ReadMode = iota
	// Triggered index resets to zero on every trigger.
	Triggered
)

var (
	compressions = map[string]Compression{"none": None, "packed": Packed, "multiplexed": Multiplexed}
	words        = map[string]Word{"float32": Float32, "int32": Int32}
	readModes    = map[string]ReadMode{"continuous": Continuous, "triggered": Triggered}
)

func (c Compression) String() string { return name(compressions, c, int(c)) }
func (w Word) String() string        { return name(words, w, int(w)) }
func (m ReadMode) String() string    { return name(readModes, m, int(m)) }

// ParseCompression returns compression mode by its name.
func ParseCompression(s string) (Compression, error) { return parse(compressions, s) }

// ParseWord returns word type by its name.
func ParseWord(s string) (Word, error) { return parse(words, s) }

// ParseReadMode returns read mode by its name.
func ParseReadMode(s string) (ReadMode, error) { return parse(readModes, s) }

func name[T comparable](names map[string]T, v T, i int) string {
	for k, n := range names {
		if n == v {
			return k
		}
	}
	return fmt.Sprintf("unknown(%d)", i)
}

func parse[T any](names map[string]T, s string) (T, error) {
	v, ok := names[strings.ToLower(strings.TrimSpace(s))]
	if !ok {
		return v, fmt.Errorf("%w: unknown value %q", hwstream.ErrConfig, s)
	}
	return v, nil
}

// Format describes layout of raw hardware words.
type Format struct {
	Channels    int
	Word        Word
	Compression Compression
	// NarrowWidth is size in bytes of compressed integers, 1 or 2.
	NarrowWidth int
	// Scale divides decoded values. Zero means 1.
	Scale      float64
	ReadMode   ReadMode
	SampleRate float64
}

// Validate checks that format parameters are consistent.
func (f Format) Validate() error {
	if f.Channels < 1 {
		return fmt.Errorf("%w: channels %d", hwstream.ErrConfig, f.Channels)
	}
	switch f.Compression {
	case None:
		if f.Word != Float32 && f.Word != Int32 {
			return fmt.Errorf("%w: word %v", hwstream.ErrConfig, f.Word)
		}
	case Packed, Multiplexed:
		if f.NarrowWidth != 1 && f.NarrowWidth != 2 {
			return fmt.Errorf("%w: narrow width %d", hwstream.ErrConfig, f.NarrowWidth)
		}
	default:
		return fmt.Errorf("%w: compression %v", hwstream.ErrConfig, f.Compression)
	}
	if f.Scale < 0 || math.IsNaN(f.Scale) || math.IsInf(f.Scale, 0) {
		return fmt.Errorf("%w: scale %v", hwstream.ErrConfig, f.Scale)
	}
	if f.ReadMode != Continuous && f.ReadMode != Triggered {
		return fmt.Errorf("%w: read mode %v", hwstream.ErrConfig, f.ReadMode)
	}
	if f.SampleRate < 0 {
		return fmt.Errorf("%w: sample rate %v", hwstream.ErrConfig, f.SampleRate)
	}
	return nil
}

// Factor returns number of samples packed into one word.
func (f Format) Factor() int {
	if f.Compression == None {
		return 1
	}
	return 4 / f.NarrowWidth
}

// FrameWords returns number of words in the smallest span that decodes
// to whole samples of every channel.
func (f Format) FrameWords() int {
	return f.Channels
}

// FrameSamples returns number of samples per channel in one frame.
func (f Format) FrameSamples() int {
	return f.Factor()
}

// Samples returns number of samples per channel in whole frames of words.
func (f Format) Samples(words int) int {
	return words / f.FrameWords() * f.FrameSamples()
}

// Words returns number of words needed to hold samples per channel,
// rounded up to whole frames.
func (f Format) Words(samples int) int {
	frames := (samples + f.FrameSamples() - 1) / f.FrameSamples()
	return frames * f.FrameWords()
}

func (f Format) scale() float64 {
	if f.Scale == 0 {
		return 1
	}
	return f.Scale
}

// BestScaleFactor returns the largest integer scale that keeps
// maxAmplitude within range of narrowWidth-byte signed integers.
func BestScaleFactor(maxAmplitude float64, narrowWidth int) (float64, error) {
	if maxAmplitude <= 0 {
		return 0, fmt.Errorf("%w: amplitude %v", hwstream.ErrConfig, maxAmplitude)
	}
	var upper float64
	switch narrowWidth {
	case 1:
		upper = math.MaxInt8
	case 2:
		upper = math.MaxInt16
	default:
		return 0, fmt.Errorf("%w: narrow width %d", hwstream.ErrConfig, narrowWidth)
	}
	return math.Floor(upper / maxAmplitude), nil
}
