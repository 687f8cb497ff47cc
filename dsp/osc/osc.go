// Package osc provides the oscillator used by ephemeral generator voices.
package osc

import (
	"fmt"
	"math"
)

// Waveform defines oscillator shape.
type Waveform int

const (
	WaveSine Waveform = iota
	WaveTriangle
	WaveSaw
	WaveSquare
)

// ParseWaveform maps a waveform name to a Waveform. The empty string means sine.
func ParseWaveform(name string) (Waveform, error) {
	switch name {
	case "", "sine":
		return WaveSine, nil
	case "triangle":
		return WaveTriangle, nil
	case "saw", "sawtooth":
		return WaveSaw, nil
	case "square":
		return WaveSquare, nil
	default:
		return WaveSine, fmt.Errorf("unknown waveform %q", name)
	}
}

func (w Waveform) String() string {
	switch w {
	case WaveTriangle:
		return "triangle"
	case WaveSaw:
		return "saw"
	case WaveSquare:
		return "square"
	default:
		return "sine"
	}
}

// DetuneRatio converts a detune in cents to a frequency ratio.
func DetuneRatio(cents float64) float64 {
	return math.Pow(2, cents/1200)
}

// Oscillator is a naive (non band-limited) phase accumulator.
type Oscillator struct {
	waveform   Waveform
	sampleRate float64
	phase      float64
	phaseStep  float64
}

// New returns an oscillator at freqHz, detuned by cents.
func New(w Waveform, sampleRate, freqHz, cents float64) *Oscillator {
	o := &Oscillator{waveform: w, sampleRate: sampleRate}
	o.SetFrequency(freqHz, cents)

	return o
}

// SetFrequency changes pitch without resetting phase.
func (o *Oscillator) SetFrequency(freqHz, cents float64) {
	if o.sampleRate <= 0 || freqHz <= 0 {
		o.phaseStep = 0
		return
	}

	o.phaseStep = 2 * math.Pi * freqHz * DetuneRatio(cents) / o.sampleRate
}

// Frequency returns the effective frequency in Hz, detune included.
func (o *Oscillator) Frequency() float64 {
	return o.phaseStep * o.sampleRate / (2 * math.Pi)
}

// Next returns the current sample and advances the phase.
func (o *Oscillator) Next() float64 {
	y := Sample(o.waveform, o.phase)

	o.phase += o.phaseStep
	if o.phase > math.Pi {
		o.phase = math.Remainder(o.phase, 2*math.Pi)
	}

	return y
}

// Sample evaluates waveform w at phase in [-pi, pi].
func Sample(w Waveform, phase float64) float64 {
	switch w {
	case WaveTriangle:
		return (2 / math.Pi) * math.Asin(math.Sin(phase))
	case WaveSaw:
		return phase / math.Pi
	case WaveSquare:
		if math.Sin(phase) >= 0 {
			return 1
		}

		return -1
	default:
		return math.Sin(phase)
	}
}
