// Package delay provides the circular sample buffer used by delay-based processors.
package delay

import (
	"fmt"
	"math"
)

// Line is a circular delay line. Its buffer is allocated once by New and
// never resized, so reads and writes are allocation-free.
type Line struct {
	buffer   []float64
	writePos int
}

// New returns a delay line of fixed size.
func New(size int) (*Line, error) {
	if size <= 1 {
		return nil, fmt.Errorf("delay size must be > 1: %d", size)
	}

	return &Line{buffer: make([]float64, size)}, nil
}

// ForDuration returns a line large enough to hold maxSeconds of audio at
// sampleRate plus the extra slot needed by fractional reads.
func ForDuration(maxSeconds, sampleRate float64) (*Line, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	if maxSeconds <= 0 || math.IsNaN(maxSeconds) || math.IsInf(maxSeconds, 0) {
		return nil, fmt.Errorf("delay duration must be > 0: %f", maxSeconds)
	}

	return New(int(math.Ceil(maxSeconds*sampleRate)) + 2)
}

// Len returns internal buffer size.
func (d *Line) Len() int {
	return len(d.buffer)
}

// MaxDelay returns the largest delay in samples that ReadLinear can serve.
func (d *Line) MaxDelay() float64 {
	return float64(len(d.buffer) - 2)
}

// Write stores one sample at the cursor and advances it.
func (d *Line) Write(sample float64) {
	d.buffer[d.writePos] = sample

	d.writePos++
	if d.writePos >= len(d.buffer) {
		d.writePos = 0
	}
}

// Read returns the sample written delay samples ago. A delay of 1 is the
// most recently written sample.
func (d *Line) Read(delay int) float64 {
	size := len(d.buffer)
	readPos := (d.writePos - delay) % size

	if readPos < 0 {
		readPos += size
	}

	return d.buffer[readPos]
}

// ReadLinear reads a fractional delay by linearly interpolating the two
// slots that bracket it. The delay is clamped to [1, MaxDelay].
func (d *Line) ReadLinear(delay float64) float64 {
	if delay < 1 {
		delay = 1
	}

	if maxDelay := d.MaxDelay(); delay > maxDelay {
		delay = maxDelay
	}

	p := int(delay)
	frac := delay - float64(p)

	x0 := d.Read(p)
	if frac == 0 {
		return x0
	}

	x1 := d.Read(p + 1)

	return x0 + frac*(x1-x0)
}

// Reset clears line state.
func (d *Line) Reset() {
	for i := range d.buffer {
		d.buffer[i] = 0
	}

	d.writePos = 0
}
