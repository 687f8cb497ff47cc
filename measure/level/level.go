// Package level computes time-domain level statistics of rendered audio.
package level

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
)

// Stats holds level statistics of one signal.
//
//nolint:revive
type Stats struct {
	Length         int
	DC             float64 // mean
	RMS            float64
	RMS_dB         float64
	Peak           float64 // max |x|
	PeakPos        int
	Peak_dB        float64
	CrestFactor    float64 // peak / RMS (linear)
	CrestFactor_dB float64
	Energy         float64 // sum of squares
	ZeroCrossings  int
	Silent         bool
}

// ampTodB converts an amplitude to decibels. Returns -Inf for zero.
func ampTodB(value float64) float64 {
	a := math.Abs(value)
	if a == 0 {
		return math.Inf(-1)
	}

	return 20 * math.Log10(a)
}

// Calculate measures signal in one pass.
func Calculate(signal []float64) Stats {
	s := Stats{
		Length:         len(signal),
		RMS_dB:         math.Inf(-1),
		Peak_dB:        math.Inf(-1),
		CrestFactor_dB: math.Inf(-1),
		Silent:         true,
	}

	if len(signal) == 0 {
		return s
	}

	var sum float64

	for i, x := range signal {
		sum += x
		s.Energy += x * x

		if a := math.Abs(x); a > s.Peak {
			s.Peak = a
			s.PeakPos = i
		}

		if i > 0 && signal[i-1]*x < 0 {
			s.ZeroCrossings++
		}
	}

	n := float64(len(signal))
	s.DC = sum / n
	s.RMS = math.Sqrt(s.Energy / n)
	s.RMS_dB = ampTodB(s.RMS)
	s.Peak_dB = ampTodB(s.Peak)
	s.Silent = s.Peak == 0

	if s.RMS > 0 {
		s.CrestFactor = s.Peak / s.RMS
		s.CrestFactor_dB = ampTodB(s.CrestFactor)
	}

	return s
}

// Peak returns the largest absolute sample value.
func Peak(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	return vecmath.MaxAbs(signal)
}

// RMS returns the root mean square of signal.
func RMS(signal []float64) float64 {
	if len(signal) == 0 {
		return 0
	}

	var sumSq float64
	for _, x := range signal {
		sumSq += x * x
	}

	return math.Sqrt(sumSq / float64(len(signal)))
}

// Windowed returns the RMS of consecutive frames of size frame. The last
// partial frame is included.
func Windowed(signal []float64, frame int) []float64 {
	if frame <= 0 || len(signal) == 0 {
		return nil
	}

	out := make([]float64, 0, (len(signal)+frame-1)/frame)
	for off := 0; off < len(signal); off += frame {
		out = append(out, RMS(signal[off:min(off+frame, len(signal))]))
	}

	return out
}
