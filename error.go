package hwstream

import (
	"errors"
	"fmt"
)

var (
	// ErrCapacity is returned if a write exceeds buffer capacity. Buffer
	// state is unchanged.
	ErrCapacity = errors.New("capacity exceeded")
	// ErrSize is returned if a block read or write is not a multiple of
	// the block size, or a raw span is not a whole number of frames.
	ErrSize = errors.New("size is not a multiple of block size")
	// ErrRaceCondition is returned if an inconsistent hardware position
	// was observed. The next poll may succeed.
	ErrRaceCondition = errors.New("inconsistent hardware index")
	// ErrAcquisitionTimeout is returned if acquisition made no progress
	// within the timeout.
	ErrAcquisitionTimeout = errors.New("acquisition timeout")
	// ErrConfig is returned if block geometry or compression parameters
	// are inconsistent.
	ErrConfig = errors.New("invalid configuration")
	// ErrSamplingRate is returned if a requested frequency can not be
	// represented at the sampling rate.
	ErrSamplingRate = errors.New("frequency exceeds sampling rate")
	// ErrOverflow is returned if the hardware producer lapped unread data
	// and the buffer is configured to fail on data loss.
	ErrOverflow = errors.New("buffer overflow")
	// ErrInvalidState is returned if a method cannot be executed at this
	// moment.
	ErrInvalidState = errors.New("invalid state")
)

// ErrorAcquire is returned if acquisition was started, but did not
// collect all requested samples. Partial result is returned along with
// this error.
type ErrorAcquire struct {
	Requested int
	Collected int
	Err       error
}

func (e *ErrorAcquire) Error() string {
	return fmt.Sprintf("acquired %d of %d samples: %v", e.Collected, e.Requested, e.Err)
}

// Is checks if the cause matches provided sentinel error.
func (e *ErrorAcquire) Is(err error) bool {
	return e.Err != nil && errors.Is(e.Err, err)
}

// Unwrap returns the cause.
func (e *ErrorAcquire) Unwrap() error {
	return e.Err
}
