// Package pitch estimates the dominant frequency of rendered audio.
package pitch

import (
	"errors"
	"fmt"
	"math"

	algofft "github.com/cwbudde/algo-fft"
	"github.com/cwbudde/algo-vecmath"
)

const (
	defaultLowerHz = 20.0
	defaultUpperHz = 20000.0
)

// ErrTooShort is returned for signals with fewer than four samples.
var ErrTooShort = errors.New("pitch: signal too short")

// Config holds estimation parameters.
type Config struct {
	SampleRate float64
	// FFTSize is rounded up to a power of two; zero selects the next power
	// of two of the signal length.
	FFTSize int
	LowerHz float64
	UpperHz float64
}

// Result holds the estimate.
type Result struct {
	Frequency float64
	Magnitude float64
	Bin       int
	BinHz     float64
}

// Dominant returns the strongest spectral peak of signal within the
// configured range, refined by parabolic interpolation of the log magnitude.
func Dominant(signal []float64, cfg Config) (Result, error) {
	if len(signal) < 4 {
		return Result{}, ErrTooShort
	}

	if cfg.SampleRate <= 0 {
		return Result{}, fmt.Errorf("pitch sample rate must be > 0: %f", cfg.SampleRate)
	}

	if cfg.LowerHz <= 0 {
		cfg.LowerHz = defaultLowerHz
	}

	if cfg.UpperHz <= 0 {
		cfg.UpperHz = defaultUpperHz
	}

	fftSize := nextPowerOf2(max(cfg.FFTSize, len(signal)))

	inData := make([]complex128, fftSize)
	last := float64(len(signal) - 1)

	for i, x := range signal {
		w := 0.5 - 0.5*math.Cos(2*math.Pi*float64(i)/last)
		inData[i] = complex(x*w, 0)
	}

	plan, err := algofft.NewPlan64(fftSize)
	if err != nil {
		return Result{}, fmt.Errorf("pitch: fft plan: %w", err)
	}

	out := make([]complex128, fftSize)
	if err := plan.Forward(out, inData); err != nil {
		return Result{}, fmt.Errorf("pitch: fft: %w", err)
	}

	binCount := fftSize/2 + 1
	re := make([]float64, binCount)
	im := make([]float64, binCount)

	for i := range binCount {
		re[i], im[i] = real(out[i]), imag(out[i])
	}

	mag := make([]float64, binCount)
	vecmath.Magnitude(mag, re, im)

	binHz := cfg.SampleRate / float64(fftSize)
	lower := clampInt(int(math.Ceil(cfg.LowerHz/binHz)), 1, binCount-2)
	upper := clampInt(int(math.Floor(cfg.UpperHz/binHz)), lower, binCount-2)

	best := lower
	for i := lower + 1; i <= upper; i++ {
		if mag[i] > mag[best] {
			best = i
		}
	}

	res := Result{
		Frequency: float64(best) * binHz,
		Magnitude: mag[best],
		Bin:       best,
		BinHz:     binHz,
	}

	if mag[best] == 0 {
		return res, nil
	}

	a, b, c := logMag(mag[best-1]), logMag(mag[best]), logMag(mag[best+1])
	if den := a - 2*b + c; den < 0 {
		delta := 0.5 * (a - c) / den
		res.Frequency = (float64(best) + delta) * binHz
	}

	return res, nil
}

func logMag(x float64) float64 {
	return math.Log(math.Max(x, 1e-300))
}

func nextPowerOf2(n int) int {
	p := 1
	for p < n {
		p <<= 1
	}

	return p
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
