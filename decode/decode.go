// Package decode reverses hardware sample compression and channel
// multiplexing.
//
// Raw hardware data is a stream of 32-bit words. Uncompressed words hold
// one sample each and channels are interleaved. Compressed words hold
// 4/NarrowWidth signed narrow integers, least significant first. In packed
// mode the narrow integers form a plain interleaved sequence. In
// multiplexed mode the integers of consecutive samples of one channel
// share a word, and words of channels are interleaved:
//
//	A1 A2 B1 B2 C1 C2 D1 D2 A3 A4 B3 B4 ...
//
// Decoded output is channel-major and divided by the format scale.
package decode

import (
	"fmt"
	"math"

	"github.com/tphakala/simd/f64"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/signal"
)

// Decoder converts between raw words and channel-major samples of a
// single format.
type Decoder struct {
	format Format
}

// New returns decoder for the format.
func New(f Format) (*Decoder, error) {
	if err := f.Validate(); err != nil {
		return nil, err
	}
	return &Decoder{format: f}, nil
}

// Format returns decoder format.
func (d *Decoder) Format() Format {
	return d.format
}

// Decode converts raw words into channel-major samples. Raw must hold a
// whole number of frames.
func (d *Decoder) Decode(raw []uint32) (signal.Float64, error) {
	f := d.format
	if len(raw)%f.FrameWords() != 0 {
		return nil, fmt.Errorf("%w: %d words is not a whole number of %d-word frames", hwstream.ErrSize, len(raw), f.FrameWords())
	}
	out := signal.EmptyFloat64(f.Channels, f.Samples(len(raw)))
	switch {
	case f.Compression == None:
		d.deinterleave(out, d.widen(raw))
	case f.Compression == Packed || f.Channels == 1:
		d.deinterleave(out, d.unpack(raw))
	default:
		d.unscatter(out, d.unpack(raw))
	}
	if s := f.scale(); s != 1 {
		for _, ch := range out {
			f64.Scale(ch, ch, 1/s)
		}
	}
	return out, nil
}

// widen converts uncompressed words.
func (d *Decoder) widen(raw []uint32) []float64 {
	flat := make([]float64, len(raw))
	for i, w := range raw {
		if d.format.Word == Float32 {
			flat[i] = float64(math.Float32frombits(w))
		} else {
			flat[i] = float64(int32(w))
		}
	}
	return flat
}

// unpack splits words into sign-extended narrow integers.
func (d *Decoder) unpack(raw []uint32) []float64 {
	c := d.format.Factor()
	bits := uint(d.format.NarrowWidth * 8)
	flat := make([]float64, 0, len(raw)*c)
	for _, w := range raw {
		for j := 0; j < c; j++ {
			v := w >> (uint(j) * bits)
			if bits == 8 {
				flat = append(flat, float64(int8(uint8(v))))
			} else {
				flat = append(flat, float64(int16(uint16(v))))
			}
		}
	}
	return flat
}

func (d *Decoder) deinterleave(out signal.Float64, flat []float64) {
	channels := len(out)
	for k, v := range flat {
		out[k%channels][k/channels] = v
	}
}

// unscatter reverses multiplexing: sub-position j of channel i within
// frame f is flat[f*c*channels+i*c+j].
func (d *Decoder) unscatter(out signal.Float64, flat []float64) {
	c := d.format.Factor()
	channels := len(out)
	stride := c * channels
	for i := range out {
		for j := 0; j < c; j++ {
			for f, k := 0, i*c+j; k < len(flat); f, k = f+1, k+stride {
				out[i][f*c+j] = flat[k]
			}
		}
	}
}

// Encode converts channel-major samples into raw words. It is the
// inverse of Decode: values are multiplied by scale, rounded and
// saturated to the integer range of the format.
func (d *Decoder) Encode(data signal.Float64) ([]uint32, error) {
	f := d.format
	if data.NumChannels() != f.Channels {
		return nil, fmt.Errorf("%w: %d channels for %d-channel format", hwstream.ErrSize, data.NumChannels(), f.Channels)
	}
	size := data.Size()
	for _, ch := range data {
		if len(ch) != size {
			return nil, fmt.Errorf("%w: channels of different length", hwstream.ErrSize)
		}
	}
	if size%f.FrameSamples() != 0 {
		return nil, fmt.Errorf("%w: %d samples is not a whole number of %d-sample frames", hwstream.ErrSize, size, f.FrameSamples())
	}
	c := f.Factor()
	flat := make([]float64, size*f.Channels)
	switch {
	case f.Compression == None || f.Compression == Packed || f.Channels == 1:
		for i, ch := range data {
			for k, v := range ch {
				flat[k*f.Channels+i] = v
			}
		}
	default:
		stride := c * f.Channels
		for i, ch := range data {
			for k, v := range ch {
				flat[(k/c)*stride+i*c+k%c] = v
			}
		}
	}
	if s := f.scale(); s != 1 {
		f64.Scale(flat, flat, s)
	}
	if f.Compression == None {
		return d.narrow(flat), nil
	}
	return d.pack(flat), nil
}

func (d *Decoder) narrow(flat []float64) []uint32 {
	raw := make([]uint32, len(flat))
	for i, v := range flat {
		if d.format.Word == Float32 {
			raw[i] = math.Float32bits(float32(v))
		} else {
			raw[i] = uint32(int32(saturate(v, math.MinInt32, math.MaxInt32)))
		}
	}
	return raw
}

func (d *Decoder) pack(flat []float64) []uint32 {
	c := d.format.Factor()
	bits := uint(d.format.NarrowWidth * 8)
	lo, hi := float64(math.MinInt8), float64(math.MaxInt8)
	mask := uint32(math.MaxUint8)
	if bits == 16 {
		lo, hi = math.MinInt16, math.MaxInt16
		mask = math.MaxUint16
	}
	raw := make([]uint32, len(flat)/c)
	for k, v := range flat {
		n := uint32(int32(saturate(v, lo, hi))) & mask
		raw[k/c] |= n << (uint(k%c) * bits)
	}
	return raw
}

func saturate(v, lo, hi float64) float64 {
	v = math.Round(v)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
