package stage

import (
	"fmt"

	"gonum.org/v1/gonum/floats"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/signal"
)

// MovingAverage emits weighted averages over a sliding window.
type MovingAverage struct {
	window  int
	step    int
	weights []float64
	norm    float64
	buffer  []float64
	// skip is number of incoming samples to discard when step is
	// longer than window.
	skip   int
	target Stage[[]float64]
}

// NewMovingAverage returns a moving average of window samples advancing
// by step. Nil weights mean uniform weights.
func NewMovingAverage(window int, weights []float64, step int, target Stage[[]float64]) (*MovingAverage, error) {
	if window <= 0 || step <= 0 {
		return nil, fmt.Errorf("%w: window %d step %d", hwstream.ErrConfig, window, step)
	}
	if weights == nil {
		weights = make([]float64, window)
		for i := range weights {
			weights[i] = 1
		}
	}
	if len(weights) != window {
		return nil, fmt.Errorf("%w: %d weights for window %d", hwstream.ErrConfig, len(weights), window)
	}
	norm := floats.Sum(weights)
	if norm == 0 {
		return nil, fmt.Errorf("%w: weights sum to zero", hwstream.ErrConfig)
	}
	return &MovingAverage{
		window:  window,
		step:    step,
		weights: weights,
		norm:    norm,
		target:  target,
	}, nil
}

// Send buffers chunk and forwards averages of every full window.
// Samples that don't complete a window are kept for the next call.
func (m *MovingAverage) Send(chunk []float64) error {
	if m.skip > 0 {
		n := min(m.skip, len(chunk))
		chunk, m.skip = chunk[n:], m.skip-n
	}
	m.buffer = append(m.buffer, chunk...)
	if len(m.buffer) < m.window {
		return nil
	}
	var (
		out   []float64
		start int
	)
	for ; start+m.window <= len(m.buffer); start += m.step {
		out = append(out, floats.Dot(m.weights, m.buffer[start:start+m.window])/m.norm)
	}
	if start > len(m.buffer) {
		m.skip = start - len(m.buffer)
		start = len(m.buffer)
	}
	m.buffer = append([]float64(nil), m.buffer[start:]...)
	return m.target.Send(out)
}

// IntToBits unpacks integer samples into one boolean row per bit.
type IntToBits struct {
	bitDepth int
	target   Stage[signal.Bits]
}

// NewIntToBits returns a stage that unpacks bitDepth least significant
// bits.
func NewIntToBits(bitDepth int, target Stage[signal.Bits]) (*IntToBits, error) {
	if bitDepth <= 0 || bitDepth > 64 {
		return nil, fmt.Errorf("%w: bit depth %d", hwstream.ErrConfig, bitDepth)
	}
	return &IntToBits{bitDepth: bitDepth, target: target}, nil
}

// Send forwards rows where rows[b][i] is bit b of chunk[i].
func (s *IntToBits) Send(chunk []int64) error {
	rows := make(signal.Bits, s.bitDepth)
	for b := range rows {
		rows[b] = make([]bool, len(chunk))
		for i, v := range chunk {
			rows[b][i] = uint64(v)>>uint(b)&1 == 1
		}
	}
	return s.target.Send(rows)
}

// Threshold replaces values below level with fill.
type Threshold struct {
	level  float64
	fill   float64
	target Stage[[]float64]
}

// NewThreshold returns a threshold stage.
func NewThreshold(level, fill float64, target Stage[[]float64]) *Threshold {
	return &Threshold{level: level, fill: fill, target: target}
}

// Send forwards a modified copy of chunk.
func (s *Threshold) Send(chunk []float64) error {
	out := make([]float64, len(chunk))
	for i, v := range chunk {
		if v < s.level {
			v = s.fill
		}
		out[i] = v
	}
	return s.target.Send(out)
}
