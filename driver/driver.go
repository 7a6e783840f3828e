// Package driver runs periodic loops that move samples from hardware
// buffers into stage graphs.
package driver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/hwbuffer"
	"pipelined.dev/hwstream/log"
	"pipelined.dev/hwstream/metric"
	"pipelined.dev/hwstream/signal"
	"pipelined.dev/hwstream/stage"
)

const defaultPeriod = 100 * time.Millisecond

// Loop owns a buffer and the stage that receives its samples.
type Loop struct {
	id      string
	buffer  *hwbuffer.Buffer
	target  stage.Stage[signal.Float64]
	period  time.Duration
	blocks  int
	logger  logrus.FieldLogger
	metrics *metric.Metrics
	measure metric.MeasureFunc
}

// Option provides a way to set functional parameters to the loop.
type Option func(*Loop)

// WithPeriod sets how often the buffer is polled.
func WithPeriod(d time.Duration) Option {
	return func(l *Loop) {
		l.period = d
	}
}

// WithBlocks makes the loop read n whole blocks per tick instead of
// everything available.
func WithBlocks(n int) Option {
	return func(l *Loop) {
		l.blocks = n
	}
}

// WithLogger sets logger.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(l *Loop) {
		l.logger = logger
	}
}

// WithMetrics sets metrics.
func WithMetrics(m *metric.Metrics) Option {
	return func(l *Loop) {
		l.metrics = m
	}
}

// New returns a loop that sends samples of initialized buffer to
// target.
func New(buffer *hwbuffer.Buffer, target stage.Stage[signal.Float64], options ...Option) *Loop {
	l := &Loop{
		id:     xid.New().String(),
		buffer: buffer,
		target: target,
		period: defaultPeriod,
	}
	for _, option := range options {
		option(l)
	}
	if l.logger == nil {
		l.logger = log.Silent()
	}
	l.logger = l.logger.WithFields(logrus.Fields{
		"loop":   l.id,
		"buffer": buffer.Name(),
	})
	l.measure = l.metrics.Meter(buffer.Name(), buffer.Format().SampleRate)()
	return l
}

// ID returns unique loop id.
func (l *Loop) ID() string {
	return l.id
}

// Run ticks every period until the context is done or a tick fails.
// Race conditions are retried on the next tick. Cancellation is not an
// error.
func (l *Loop) Run(ctx context.Context) error {
	if l.period <= 0 {
		return fmt.Errorf("%w: period %v", hwstream.ErrConfig, l.period)
	}
	ticker := time.NewTicker(l.period)
	defer ticker.Stop()
	l.logger.Debug("started")
	for {
		select {
		case <-ctx.Done():
			l.logger.Debug("stopped")
			return nil
		case <-ticker.C:
		}
		if err := l.Tick(); err != nil {
			if errors.Is(err, hwstream.ErrRaceCondition) {
				l.logger.WithError(err).Warn("retry on next tick")
				continue
			}
			l.logger.WithError(err).Error("stopped")
			return err
		}
	}
}

// Tick moves available samples from the buffer to the target once.
func (l *Loop) Tick() error {
	available, err := l.buffer.Available()
	if err != nil {
		return err
	}
	if available == 0 {
		return nil
	}
	var chunk signal.Float64
	if l.blocks > 0 {
		chunk, err = l.buffer.ReadBlock(l.blocks)
	} else {
		chunk, err = l.buffer.Read()
	}
	if err != nil {
		return err
	}
	if chunk.Size() == 0 {
		return nil
	}
	l.measure(int64(chunk.Size()))
	if err := l.target.Send(chunk); err != nil {
		return fmt.Errorf("send: %w", err)
	}
	return nil
}

// RunAll runs loops until the context is done or any of them fails.
// The first error cancels remaining loops and is returned.
func RunAll(ctx context.Context, loops ...*Loop) error {
	g, ctx := errgroup.WithContext(ctx)
	for _, l := range loops {
		g.Go(func() error {
			return l.Run(ctx)
		})
	}
	return g.Wait()
}
