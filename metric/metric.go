// Package metric instruments buffers and driver loops with Prometheus
// collectors. A nil *Metrics is valid and records nothing.
package metric

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"pipelined.dev/hwstream/units"
)

const namespace = "hwstream"

const (
	componentLabel = "component"
	bufferLabel    = "buffer"
)

// Metrics holds collectors for hardware buffers and loops.
type Metrics struct {
	components *prometheus.GaugeVec
	messages   *prometheus.CounterVec
	samples    *prometheus.CounterVec
	latency    *prometheus.GaugeVec
	duration   *prometheus.CounterVec

	dropped   *prometheus.CounterVec
	overflows *prometheus.CounterVec
	races     *prometheus.CounterVec
	timeouts  *prometheus.CounterVec
}

// New creates collectors and registers them.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		components: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "components",
			Help:      "Number of metered components",
		}, []string{componentLabel}),
		messages: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "messages_total",
			Help:      "Number of processed chunks",
		}, []string{componentLabel}),
		samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "samples_total",
			Help:      "Number of processed samples per channel",
		}, []string{componentLabel}),
		latency: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "latency_seconds",
			Help:      "Time between two consecutive chunks",
		}, []string{componentLabel}),
		duration: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signal_duration_seconds_total",
			Help:      "Duration of processed signal",
		}, []string{componentLabel}),
		dropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_words_total",
			Help:      "Number of raw words lost to overflow",
		}, []string{bufferLabel}),
		overflows: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "overflows_total",
			Help:      "Number of detected overflows",
		}, []string{bufferLabel}),
		races: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "race_conditions_total",
			Help:      "Number of inconsistent hardware positions observed",
		}, []string{bufferLabel}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "acquisition_timeouts_total",
			Help:      "Number of acquisitions that made no progress in time",
		}, []string{bufferLabel}),
	}
	for _, c := range []prometheus.Collector{
		m.components, m.messages, m.samples, m.latency, m.duration,
		m.dropped, m.overflows, m.races, m.timeouts,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// ResetFunc returns new Measure closure. This closure is needed to
// postpone metrics capture until component is actually running.
type ResetFunc func() MeasureFunc

// MeasureFunc captures metrics when a chunk of samples is processed.
type MeasureFunc func(samples int64)

// Meter creates new meter closure to capture component counters.
func (m *Metrics) Meter(component string, sampleRate float64) ResetFunc {
	if m == nil {
		return func() MeasureFunc { return func(int64) {} }
	}
	m.components.WithLabelValues(component).Inc()
	var (
		messages = m.messages.WithLabelValues(component)
		samples  = m.samples.WithLabelValues(component)
		latency  = m.latency.WithLabelValues(component)
		duration = m.duration.WithLabelValues(component)
	)
	return func() MeasureFunc {
		calledAt := time.Now()
		return func(s int64) {
			latency.Set(time.Since(calledAt).Seconds())
			messages.Inc()
			samples.Add(float64(s))
			if sampleRate > 0 {
				duration.Add(units.DurationOf(s, sampleRate).Seconds())
			}
			calledAt = time.Now()
		}
	}
}

// Dropped records words lost to overflow.
func (m *Metrics) Dropped(buffer string, words int) {
	if m == nil {
		return
	}
	m.overflows.WithLabelValues(buffer).Inc()
	m.dropped.WithLabelValues(buffer).Add(float64(words))
}

// Overflow records an overflow that failed the read.
func (m *Metrics) Overflow(buffer string) {
	if m == nil {
		return
	}
	m.overflows.WithLabelValues(buffer).Inc()
}

// RaceCondition records an inconsistent hardware position.
func (m *Metrics) RaceCondition(buffer string) {
	if m == nil {
		return
	}
	m.races.WithLabelValues(buffer).Inc()
}

// Timeout records an acquisition timeout.
func (m *Metrics) Timeout(buffer string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(buffer).Inc()
}
