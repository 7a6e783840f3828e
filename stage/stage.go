// Package stage provides push-based stream stages. A stage receives
// chunks with Send, keeps its own carry-over state and forwards zero or
// more chunks downstream in input order. Stages are built once at
// configuration time and are not safe for concurrent Send calls.
package stage

import (
	"fmt"
)

// Stage receives chunks of type T.
type Stage[T any] interface {
	Send(chunk T) error
}

// Func is an adapter to use ordinary function as a stage.
type Func[T any] func(chunk T) error

// Send calls f(chunk).
func (f Func[T]) Send(chunk T) error {
	return f(chunk)
}

// Broadcast sends every chunk to all targets.
type Broadcast[T any] struct {
	targets []Stage[T]
}

// NewBroadcast returns a stage that forwards identical chunk to each
// target in order.
func NewBroadcast[T any](targets ...Stage[T]) *Broadcast[T] {
	return &Broadcast[T]{targets: targets}
}

// Send forwards chunk to targets. The first target error stops the
// call, remaining targets don't receive the chunk.
func (b *Broadcast[T]) Send(chunk T) error {
	for i, target := range b.targets {
		if err := target.Send(chunk); err != nil {
			return fmt.Errorf("broadcast target %d: %w", i, err)
		}
	}
	return nil
}

// Deinterleave sends each row of a chunk to its own target.
type Deinterleave[C ~[][]E, E any] struct {
	targets []Stage[[]E]
}

// NewDeinterleave returns a stage that sends row i to target i. Nil
// targets are skipped. Rows without a target and targets without a row
// are ignored.
func NewDeinterleave[C ~[][]E, E any](targets ...Stage[[]E]) *Deinterleave[C, E] {
	return &Deinterleave[C, E]{targets: targets}
}

// Send forwards rows to targets.
func (d *Deinterleave[C, E]) Send(chunk C) error {
	for i := 0; i < len(chunk) && i < len(d.targets); i++ {
		if d.targets[i] == nil {
			continue
		}
		if err := d.targets[i].Send(chunk[i]); err != nil {
			return fmt.Errorf("deinterleave row %d: %w", i, err)
		}
	}
	return nil
}

// Map transforms chunks with a function.
type Map[In, Out any] struct {
	fn     func(In) (Out, error)
	target Stage[Out]
}

// NewMap returns a stage that sends fn(chunk) to target.
func NewMap[In, Out any](fn func(In) (Out, error), target Stage[Out]) *Map[In, Out] {
	return &Map[In, Out]{fn: fn, target: target}
}

// Send transforms chunk and forwards the result.
func (m *Map[In, Out]) Send(chunk In) error {
	out, err := m.fn(chunk)
	if err != nil {
		return err
	}
	return m.target.Send(out)
}
