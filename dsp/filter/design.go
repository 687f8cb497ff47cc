package filter

import "math"

const defaultQ = 1 / math.Sqrt2

// Lowpass returns RBJ cookbook lowpass coefficients.
func Lowpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalize(
		(1-cw)/2, 1-cw, (1-cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Highpass returns RBJ cookbook highpass coefficients.
func Highpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalize(
		(1+cw)/2, -(1 + cw), (1+cw)/2,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Bandpass returns RBJ cookbook constant 0 dB peak-gain bandpass coefficients.
func Bandpass(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalize(
		alpha, 0, -alpha,
		1+alpha, -2*cw, 1-alpha,
	)
}

// Notch returns RBJ cookbook notch coefficients.
func Notch(freq, q, sampleRate float64) Coefficients {
	w0, ok := normalizedW0(freq, sampleRate)
	if !ok {
		return passthrough()
	}

	cw, alpha := math.Cos(w0), math.Sin(w0)/(2*normalizedQ(q))

	return normalize(
		1, -2*cw, 1,
		1+alpha, -2*cw, 1-alpha,
	)
}

func normalizedW0(freq, sampleRate float64) (float64, bool) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return 0, false
	}

	nyquist := sampleRate / 2
	if freq <= 0 || freq >= nyquist || math.IsNaN(freq) || math.IsInf(freq, 0) {
		return 0, false
	}

	return 2 * math.Pi * freq / sampleRate, true
}

func normalizedQ(q float64) float64 {
	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return defaultQ
	}

	return q
}

func normalize(b0, b1, b2, a0, a1, a2 float64) Coefficients {
	return Coefficients{
		B0: b0 / a0,
		B1: b1 / a0,
		B2: b2 / a0,
		A1: a1 / a0,
		A2: a2 / a0,
	}
}

func passthrough() Coefficients {
	return Coefficients{B0: 1}
}
