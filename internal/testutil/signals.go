// Package testutil holds deterministic test signals and tolerance helpers
// shared by the DSP and backend tests.
package testutil

import (
	"math"
	"math/rand/v2"
)

// DeterministicSine generates a deterministic sine wave.
func DeterministicSine(freqHz, sampleRate, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	step := 2 * math.Pi * freqHz / sampleRate
	for i := range out {
		out[i] = amplitude * math.Sin(step*float64(i))
	}

	return out
}

// DeterministicNoise generates white noise in [-amplitude, amplitude) with a
// fixed seed for reproducibility.
func DeterministicNoise(seed uint64, amplitude float64, length int) []float64 {
	out := make([]float64, length)

	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
	for i := range out {
		out[i] = (rng.Float64()*2 - 1) * amplitude
	}

	return out
}

// Impulse generates a unit impulse at the given position.
func Impulse(length, pos int) []float64 {
	out := make([]float64, length)
	if pos >= 0 && pos < length {
		out[pos] = 1
	}

	return out
}

// PeakIndex returns the index and absolute value of the largest magnitude
// sample in data[from:]. It returns -1 when the range is empty.
func PeakIndex(data []float64, from int) (int, float64) {
	at, peak := -1, 0.0

	for i := max(from, 0); i < len(data); i++ {
		if v := math.Abs(data[i]); at < 0 || v > peak {
			at, peak = i, v
		}
	}

	return at, peak
}
