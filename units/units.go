// Package units converts between seconds, sample counts and
// hardware-clock ticks.
package units

import (
	"fmt"
	"math"
	"math/bits"
	"time"

	"pipelined.dev/hwstream"
)

// SamplesToSeconds returns duration in seconds of n samples at sampling
// rate fs.
func SamplesToSeconds(n int, fs float64) float64 {
	return float64(n) / fs
}

// SecondsToSamples returns number of samples in s seconds at sampling
// rate fs, rounded to the nearest sample.
func SecondsToSamples(s, fs float64) int {
	return int(math.Round(s * fs))
}

// SecondsToNextPow2Samples returns the smallest power of two that holds
// s seconds of samples at sampling rate fs.
func SecondsToNextPow2Samples(s, fs float64) int {
	n := SecondsToSamples(s, fs)
	if n <= 1 {
		return 1
	}
	return 1 << bits.Len(uint(n-1))
}

// FrequencyToSamplesPerPeriod returns number of samples in one period of
// frequency f at sampling rate fs.
func FrequencyToSamplesPerPeriod(f, fs float64) (int, error) {
	if f <= 0 || f > fs {
		return 0, fmt.Errorf("%w: %v Hz at %v Hz", hwstream.ErrSamplingRate, f, fs)
	}
	return int(math.Round(fs / f)), nil
}

// DurationOf returns time duration of n samples at sampling rate fs.
func DurationOf(n int64, fs float64) time.Duration {
	return time.Duration(float64(n) / fs * float64(time.Second))
}

// SecondsToTicks returns number of clock ticks in s seconds for a clock
// running at clockRate.
func SecondsToTicks(s, clockRate float64) int64 {
	return int64(math.Round(s * clockRate))
}

// TicksToSeconds returns duration in seconds of ticks at clockRate.
func TicksToSeconds(ticks int64, clockRate float64) float64 {
	return float64(ticks) / clockRate
}

// SamplesToTicks converts sample count at fs to clock ticks.
func SamplesToTicks(n int, fs, clockRate float64) int64 {
	return SecondsToTicks(SamplesToSeconds(n, fs), clockRate)
}

// TicksToSamples converts clock ticks to sample count at fs.
func TicksToSamples(ticks int64, fs, clockRate float64) int {
	return SecondsToSamples(TicksToSeconds(ticks, clockRate), fs)
}

// Converter binds sampling rate and hardware clock rate.
type Converter struct {
	SampleRate float64
	ClockRate  float64
}

// Samples returns number of samples in s seconds.
func (c Converter) Samples(s float64) int {
	return SecondsToSamples(s, c.SampleRate)
}

// Seconds returns duration in seconds of n samples.
func (c Converter) Seconds(n int) float64 {
	return SamplesToSeconds(n, c.SampleRate)
}

// Ticks returns number of clock ticks in n samples.
func (c Converter) Ticks(n int) int64 {
	return SamplesToTicks(n, c.SampleRate, c.ClockRate)
}

// SamplesFromTicks returns number of samples in ticks.
func (c Converter) SamplesFromTicks(ticks int64) int {
	return TicksToSamples(ticks, c.SampleRate, c.ClockRate)
}

// Duration returns time duration of n samples.
func (c Converter) Duration(n int) time.Duration {
	return DurationOf(int64(n), c.SampleRate)
}
