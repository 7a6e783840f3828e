package hwbuffer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"pipelined.dev/hwstream"
	"pipelined.dev/hwstream/decode"
	"pipelined.dev/hwstream/signal"
)

// Acquire fires the trigger and polls the hardware until samples per
// channel are collected. Empty trigger name means no trigger is fired.
// The timeout clock restarts every time new samples arrive. If
// acquisition stops early, collected samples are returned along with
// *hwstream.ErrorAcquire.
func (b *Buffer) Acquire(ctx context.Context, samples int, trigger string, timeout time.Duration) (signal.Float64, error) {
	if b.state != ready {
		return nil, hwstream.ErrInvalidState
	}
	if samples <= 0 {
		return nil, fmt.Errorf("%w: acquire %d samples", hwstream.ErrSize, samples)
	}
	if err := b.start(trigger); err != nil {
		return nil, err
	}

	var result signal.Float64
	fail := func(err error) (signal.Float64, error) {
		return result, &hwstream.ErrorAcquire{
			Requested: samples,
			Collected: result.Size(),
			Err:       err,
		}
	}
	ticker := time.NewTicker(b.pollInterval)
	defer ticker.Stop()
	progressAt := time.Now()
	for {
		chunk, err := b.Read()
		switch {
		case errors.Is(err, hwstream.ErrRaceCondition):
		case err != nil:
			return fail(err)
		case chunk.Size() > 0:
			result = result.Append(chunk)
			progressAt = time.Now()
		}
		if result.Size() >= samples {
			b.logger.WithFields(logrus.Fields{
				"samples": samples,
				"read":    result.Size(),
			}).Debug("acquired")
			return result.Slice(0, samples), nil
		}
		if time.Since(progressAt) > timeout {
			b.metrics.Timeout(b.name)
			return fail(hwstream.ErrAcquisitionTimeout)
		}
		select {
		case <-ctx.Done():
			return fail(ctx.Err())
		case <-ticker.C:
		}
	}
}

// start rebases the local index and fires the trigger. Triggered
// buffers restart at zero, continuous ones at the current position.
func (b *Buffer) start(trigger string) error {
	var p position
	if b.format.ReadMode == decode.Continuous {
		var err error
		if p, err = b.query(); err != nil {
			return err
		}
	}
	if err := b.rebase(p); err != nil {
		return err
	}
	if trigger == "" {
		return nil
	}
	if err := b.channel.Trigger(trigger); err != nil {
		return fmt.Errorf("trigger %q: %w", trigger, err)
	}
	return nil
}
