package hwbuffer

import (
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/metric"
)

// OverflowPolicy defines what happens when the hardware producer laps
// unread data.
type OverflowPolicy int

const (
	// Drop skips lost words, logs and counts them. It suits best-effort
	// consumers like live display.
	Drop OverflowPolicy = iota
	// Fail returns ErrOverflow. It suits consumers that persist data.
	// The buffer keeps failing until it is re-armed with Reset or a
	// new Acquire.
	Fail
)

func (p OverflowPolicy) String() string {
	switch p {
	case Drop:
		return "drop"
	case Fail:
		return "fail"
	}
	return fmt.Sprintf("unknown(%d)", int(p))
}

// ParseOverflowPolicy returns policy by its name. Empty name means Drop.
func ParseOverflowPolicy(s string) (OverflowPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "drop":
		return Drop, nil
	case "fail":
		return Fail, nil
	}
	return Drop, fmt.Errorf("%w: unknown overflow policy %q", hwstream.ErrConfig, s)
}

const (
	defaultBlockCount   = 1
	defaultPollInterval = 10 * time.Millisecond
)

// Option provides a way to set functional parameters to the buffer.
type Option func(*Buffer)

// WithBlockCount splits local mirror into n blocks.
func WithBlockCount(n int) Option {
	return func(b *Buffer) {
		b.blockCount = n
	}
}

// WithOverflow sets overflow policy.
func WithOverflow(p OverflowPolicy) Option {
	return func(b *Buffer) {
		b.overflow = p
	}
}

// WithPollInterval sets how often Acquire polls the hardware.
func WithPollInterval(d time.Duration) Option {
	return func(b *Buffer) {
		b.pollInterval = d
	}
}

// WithLogger sets logger.
func WithLogger(l logrus.FieldLogger) Option {
	return func(b *Buffer) {
		b.logger = l
	}
}

// WithMetrics sets metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(b *Buffer) {
		b.metrics = m
	}
}
