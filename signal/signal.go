// Package signal provides the chunk types passed between buffers and
// stages. Multi-channel data is non-interleaved: the first dimension is
// the channel, the second is the sample.
package signal

// Float64 is a non-interleaved float64 signal.
type Float64 [][]float64

// Bits is a non-interleaved boolean signal, one row per bit.
type Bits [][]bool

// EmptyFloat64 returns a zeroed buffer of specified dimensions.
func EmptyFloat64(numChannels int, size int) Float64 {
	result := make([][]float64, numChannels)
	for i := range result {
		result[i] = make([]float64, size)
	}
	return result
}

// NumChannels returns number of channels in this signal.
func (floats Float64) NumChannels() int {
	return len(floats)
}

// Size returns number of samples per channel.
func (floats Float64) Size() int {
	if floats.NumChannels() == 0 {
		return 0
	}
	return len(floats[0])
}

// Append source signal to this one. New signal is returned if floats is
// nil.
func (floats Float64) Append(source Float64) Float64 {
	if floats == nil {
		floats = make([][]float64, source.NumChannels())
		for i := range floats {
			floats[i] = make([]float64, 0, source.Size())
		}
	}
	for i := range source {
		floats[i] = append(floats[i], source[i]...)
	}
	return floats
}

// Slice creates a new copy of signal from start position with defined
// length. If signal doesn't have enough samples, shorter signal is
// returned.
//
// if start >= signal size, nil is returned
// if start + len >= signal size, len is decreased till the end of slice
// if start < 0, nil is returned
func (floats Float64) Slice(start int, len int) Float64 {
	if floats == nil || start >= floats.Size() || start < 0 {
		return nil
	}
	end := start + len
	if end > floats.Size() {
		end = floats.Size()
	}
	result := make([][]float64, floats.NumChannels())
	for i := range floats {
		result[i] = append(result[i], floats[i][start:end]...)
	}
	return result
}

// Interleaved returns samples of all channels in frame order:
// c0s0, c1s0, c0s1, c1s1...
func (floats Float64) Interleaved() []float64 {
	numChannels := floats.NumChannels()
	result := make([]float64, floats.Size()*numChannels)
	for j := range floats {
		for i, v := range floats[j] {
			result[i*numChannels+j] = v
		}
	}
	return result
}

// FromInterleaved splits interleaved samples into channels. Trailing
// samples of an incomplete frame are ignored.
func FromInterleaved(data []float64, numChannels int) Float64 {
	if numChannels <= 0 {
		return nil
	}
	size := len(data) / numChannels
	result := EmptyFloat64(numChannels, size)
	for i := 0; i < size; i++ {
		for j := range result {
			result[j][i] = data[i*numChannels+j]
		}
	}
	return result
}
