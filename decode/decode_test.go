package decode_test

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/decode"
	"pipelined.dev/hwstream/signal"
)

func word16(lo, hi int16) uint32 {
	return uint32(uint16(lo)) | uint32(uint16(hi))<<16
}

func TestDecode(t *testing.T) {
	testDecode := func(f decode.Format, raw []uint32, expected signal.Float64) func(*testing.T) {
		return func(t *testing.T) {
			t.Helper()
			d, err := decode.New(f)
			require.NoError(t, err)
			result, err := d.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, expected, result)
		}
	}
	t.Run("single float32", testDecode(
		decode.Format{Channels: 1, Word: decode.Float32},
		[]uint32{math.Float32bits(1.5), math.Float32bits(-0.25)},
		signal.Float64{{1.5, -0.25}},
	))
	t.Run("multi int32", testDecode(
		decode.Format{Channels: 2, Word: decode.Int32},
		[]uint32{1, 10, 2, 20, uint32(0xFFFFFFFD), 30},
		signal.Float64{{1, 2, -3}, {10, 20, 30}},
	))
	t.Run("single packed 8", testDecode(
		decode.Format{Channels: 1, Compression: decode.Packed, NarrowWidth: 1},
		[]uint32{0x040302FF, 0x80007F01},
		signal.Float64{{-1, 2, 3, 4, 1, 127, 0, -128}},
	))
	t.Run("multi packed 16", testDecode(
		decode.Format{Channels: 2, Compression: decode.Packed, NarrowWidth: 2},
		[]uint32{word16(1, 10), word16(2, 20)},
		signal.Float64{{1, 2}, {10, 20}},
	))
	t.Run("multiplexed 16", testDecode(
		decode.Format{Channels: 2, Compression: decode.Multiplexed, NarrowWidth: 2},
		[]uint32{word16(1, 2), word16(-1, -2), word16(3, 4), word16(-3, -4)},
		signal.Float64{{1, 2, 3, 4}, {-1, -2, -3, -4}},
	))
	t.Run("empty", testDecode(
		decode.Format{Channels: 3, Word: decode.Int32},
		nil,
		signal.Float64{{}, {}, {}},
	))
}

func TestMultiplexedRoundTrip(t *testing.T) {
	testRoundTrip := func(channels, narrowWidth, frames int) func(*testing.T) {
		return func(t *testing.T) {
			f := decode.Format{Channels: channels, Compression: decode.Multiplexed, NarrowWidth: narrowWidth}
			d, err := decode.New(f)
			require.NoError(t, err)

			limit := 127
			if narrowWidth == 2 {
				limit = 32767
			}
			data := signal.EmptyFloat64(channels, frames*f.FrameSamples())
			for i := range data {
				for k := range data[i] {
					data[i][k] = float64((i*7919+k*104729)%(2*limit) - limit)
				}
			}

			raw, err := d.Encode(data)
			require.NoError(t, err)
			assert.Len(t, raw, frames*f.FrameWords())

			result, err := d.Decode(raw)
			require.NoError(t, err)
			assert.Equal(t, data, result)
		}
	}
	t.Run("4 channels 16 bit", testRoundTrip(4, 2, 16))
	t.Run("4 channels 8 bit", testRoundTrip(4, 1, 16))
	t.Run("3 channels 8 bit", testRoundTrip(3, 1, 5))
	t.Run("1 channel 16 bit", testRoundTrip(1, 2, 9))
}

func TestScale(t *testing.T) {
	f := decode.Format{Channels: 2, Compression: decode.Packed, NarrowWidth: 2, Scale: 1000}
	d, err := decode.New(f)
	require.NoError(t, err)

	data := signal.Float64{{0.5, -0.25}, {1.001, 32.767}}
	raw, err := d.Encode(data)
	require.NoError(t, err)
	result, err := d.Decode(raw)
	require.NoError(t, err)
	for i := range data {
		assert.InDeltaSlice(t, data[i], result[i], 1e-9)
	}

	raw, err = d.Encode(signal.Float64{{100, -100}, {0, 0}})
	require.NoError(t, err)
	result, err = d.Decode(raw)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{32.767, -32.768}, result[0], 1e-9)
}

func TestGeometry(t *testing.T) {
	f := decode.Format{Channels: 4, Compression: decode.Multiplexed, NarrowWidth: 2}
	assert.Equal(t, 2, f.Factor())
	assert.Equal(t, 4, f.FrameWords())
	assert.Equal(t, 2, f.FrameSamples())
	assert.Equal(t, 6, f.Samples(12))
	assert.Equal(t, 6, f.Samples(13))
	assert.Equal(t, 12, f.Words(5))

	f = decode.Format{Channels: 3, Word: decode.Float32}
	assert.Equal(t, 1, f.Factor())
	assert.Equal(t, 3, f.FrameWords())
	assert.Equal(t, 4, f.Samples(12))
	assert.Equal(t, 12, f.Words(4))
}

func TestErrors(t *testing.T) {
	invalid := []decode.Format{
		{Channels: 0},
		{Channels: 1, Compression: decode.Packed, NarrowWidth: 3},
		{Channels: 1, Compression: decode.Multiplexed},
		{Channels: 1, Compression: decode.Compression(7)},
		{Channels: 1, Word: decode.Word(5)},
		{Channels: 1, Scale: -1},
		{Channels: 1, Scale: math.NaN()},
		{Channels: 1, ReadMode: decode.ReadMode(3)},
	}
	for _, f := range invalid {
		_, err := decode.New(f)
		assert.True(t, errors.Is(err, hwstream.ErrConfig), "format %+v", f)
	}

	d, err := decode.New(decode.Format{Channels: 2, Compression: decode.Multiplexed, NarrowWidth: 1})
	require.NoError(t, err)
	_, err = d.Decode([]uint32{1, 2, 3})
	assert.True(t, errors.Is(err, hwstream.ErrSize))
	_, err = d.Encode(signal.Float64{{1, 2, 3}, {1, 2, 3}})
	assert.True(t, errors.Is(err, hwstream.ErrSize))
	_, err = d.Encode(signal.Float64{{1, 2, 3, 4}})
	assert.True(t, errors.Is(err, hwstream.ErrSize))
	_, err = d.Encode(signal.Float64{{1, 2, 3, 4}, {1, 2}})
	assert.True(t, errors.Is(err, hwstream.ErrSize))
}

func TestBestScaleFactor(t *testing.T) {
	s, err := decode.BestScaleFactor(0.5, 1)
	require.NoError(t, err)
	assert.Equal(t, 254.0, s)

	s, err = decode.BestScaleFactor(3, 2)
	require.NoError(t, err)
	assert.Equal(t, 10922.0, s)

	_, err = decode.BestScaleFactor(0, 2)
	assert.True(t, errors.Is(err, hwstream.ErrConfig))
	_, err = decode.BestScaleFactor(1, 4)
	assert.True(t, errors.Is(err, hwstream.ErrConfig))
}

func TestParse(t *testing.T) {
	c, err := decode.ParseCompression(" Multiplexed ")
	require.NoError(t, err)
	assert.Equal(t, decode.Multiplexed, c)
	assert.Equal(t, "multiplexed", c.String())

	w, err := decode.ParseWord("int32")
	require.NoError(t, err)
	assert.Equal(t, decode.Int32, w)

	m, err := decode.ParseReadMode("triggered")
	require.NoError(t, err)
	assert.Equal(t, decode.Triggered, m)

	_, err = decode.ParseCompression("zip")
	assert.True(t, errors.Is(err, hwstream.ErrConfig))
	assert.Equal(t, "unknown(9)", decode.Compression(9).String())
}
