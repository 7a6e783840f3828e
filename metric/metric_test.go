package metric

import (
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeter(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	const (
		routines   = 2
		chunks     = 10
		chunkSize  = 100
		sampleRate = 1000
	)
	var wg sync.WaitGroup
	wg.Add(routines)
	for i := 0; i < routines; i++ {
		measure := m.Meter("microphone", sampleRate)()
		go func() {
			defer wg.Done()
			for j := 0; j < chunks; j++ {
				measure(chunkSize)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, float64(routines), testutil.ToFloat64(m.components.WithLabelValues("microphone")))
	assert.Equal(t, float64(routines*chunks), testutil.ToFloat64(m.messages.WithLabelValues("microphone")))
	assert.Equal(t, float64(routines*chunks*chunkSize), testutil.ToFloat64(m.samples.WithLabelValues("microphone")))
	assert.InDelta(t, 2.0, testutil.ToFloat64(m.duration.WithLabelValues("microphone")), 1e-9)
}

func TestBufferCounters(t *testing.T) {
	m, err := New(prometheus.NewRegistry())
	require.NoError(t, err)

	m.Dropped("speaker", 40)
	m.Dropped("speaker", 2)
	m.Overflow("speaker")
	m.RaceCondition("speaker")
	m.Timeout("microphone")

	assert.Equal(t, 42.0, testutil.ToFloat64(m.dropped.WithLabelValues("speaker")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.overflows.WithLabelValues("speaker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.races.WithLabelValues("speaker")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.timeouts.WithLabelValues("microphone")))
}

func TestNil(t *testing.T) {
	var m *Metrics
	measure := m.Meter("microphone", 1000)()
	measure(10)
	m.Dropped("speaker", 1)
	m.Overflow("speaker")
	m.RaceCondition("speaker")
	m.Timeout("speaker")
}

func TestRegisterTwice(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)
	_, err = New(reg)
	assert.Error(t, err)
}
