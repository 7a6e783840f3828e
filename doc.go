/*
Package hwstream streams signal samples from DSP hardware into software
buffers and pushes them through composable processing stages.

Concept

The hardware keeps writing samples into its own circular buffer and
reports the position of the next write. Software mirrors that buffer,
pulls whatever was written since the last poll and reverses on-device
compression and channel multiplexing:

    hardware.Channel -> hwbuffer.Buffer -> decode.Decoder -> stage.Stage

Components

Packages are layered from leaf to root:

    units    - seconds, sample counts and hardware-clock ticks;
    ring     - circular storage with wraparound and block granularity;
    decode   - sample formats, compressed and multiplexed word layouts;
    hardware - explicit device sessions and the channel contract;
    hwbuffer - hardware sample buffer, one-shot acquisition, poller;
    stage    - push-based stages: broadcast, deinterleave, averaging;
    driver   - the periodic loop binding one buffer to its stages.

Errors

This package defines error kinds shared by all components. Callers match
them with errors.Is:

    data, err := buf.Read()
    if errors.Is(err, hwstream.ErrRaceCondition) {
        // retry on the next poll
    }

Execution

A driver loop owns exactly one buffer and its stage graph. On every tick
it checks availability, reads and sends:

    l := driver.New(buf, sink, driver.WithPeriod(50*time.Millisecond))
    err := l.Run(ctx)

Buffers are not safe for concurrent use. To poll hardware from its own
goroutine use hwbuffer.Poller, which hands frames over a single-producer
single-consumer queue.
*/
package hwstream
