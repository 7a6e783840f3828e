package stage_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pipelined.dev/hwstream/mock"
	"pipelined.dev/hwstream/signal"
	"pipelined.dev/hwstream/stage"
)

func TestBroadcast(t *testing.T) {
	a, b := &mock.Sink[[]float64]{}, &mock.Sink[[]float64]{}
	s := stage.NewBroadcast[[]float64](a, b)

	var expected [][]float64
	for i := 0; i < 100; i++ {
		chunk := []float64{float64(i), float64(-i)}
		expected = append(expected, chunk)
		require.NoError(t, s.Send(chunk))
	}
	assert.Equal(t, expected, a.Chunks())
	assert.Equal(t, expected, b.Chunks())
}

func TestBroadcastFailFast(t *testing.T) {
	sinkErr := errors.New("sink error")
	a := &mock.Sink[int]{ErrorOnCall: sinkErr}
	b := &mock.Sink[int]{}
	s := stage.NewBroadcast[int](a, b)

	err := s.Send(1)
	assert.True(t, errors.Is(err, sinkErr))
	messages, _ := b.Count()
	assert.Equal(t, 0, messages)
}

func TestDeinterleave(t *testing.T) {
	a, b := &mock.Sink[[]float64]{}, &mock.Sink[[]float64]{}
	s := stage.NewDeinterleave[signal.Float64](a, nil, b)

	require.NoError(t, s.Send(signal.Float64{{1, 2, 3}, {4, 5, 6}, {7, 8, 9}}))
	assert.Equal(t, [][]float64{{1, 2, 3}}, a.Chunks())
	assert.Equal(t, [][]float64{{7, 8, 9}}, b.Chunks())

	// rows without targets and targets without rows are ignored.
	require.NoError(t, s.Send(signal.Float64{{1}}))
	require.NoError(t, s.Send(signal.Float64{{1}, {2}, {3}, {4}}))
	assert.Len(t, a.Chunks(), 3)
	assert.Len(t, b.Chunks(), 2)

	b.ErrorOnCall = errors.New("sink error")
	assert.Error(t, s.Send(signal.Float64{{1}, {2}, {3}}))
}

func TestDeinterleaveBits(t *testing.T) {
	lsb := &mock.Sink[[]bool]{}
	s := stage.NewDeinterleave[signal.Bits](lsb)
	require.NoError(t, s.Send(signal.Bits{{true, false}, {false, true}}))
	assert.Equal(t, [][]bool{{true, false}}, lsb.Chunks())
}

func TestMap(t *testing.T) {
	sink := &mock.Sink[[]int64]{}
	s := stage.NewMap(func(in []float64) ([]int64, error) {
		out := make([]int64, len(in))
		for i, v := range in {
			out[i] = int64(v)
		}
		return out, nil
	}, stage.Stage[[]int64](sink))
	require.NoError(t, s.Send([]float64{1.9, -2.5, 3}))
	assert.Equal(t, [][]int64{{1, -2, 3}}, sink.Chunks())

	mapErr := errors.New("map error")
	failing := stage.NewMap(func([]float64) ([]int64, error) {
		return nil, mapErr
	}, stage.Stage[[]int64](sink))
	assert.True(t, errors.Is(failing.Send([]float64{1}), mapErr))
	assert.Len(t, sink.Chunks(), 1)
}

func TestFunc(t *testing.T) {
	var received []int
	s := stage.Func[int](func(v int) error {
		received = append(received, v)
		return nil
	})
	for i := 0; i < 3; i++ {
		require.NoError(t, s.Send(i))
	}
	assert.Equal(t, []int{0, 1, 2}, received)
}
