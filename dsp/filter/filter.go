package filter

import (
	"fmt"
	"math"
)

// Type selects the filter response.
type Type int

const (
	TypeLowpass Type = iota
	TypeHighpass
	TypeBandpass
	TypeNotch
)

// ParseType maps a response name to a Type. The empty string means lowpass.
func ParseType(name string) (Type, error) {
	switch name {
	case "", "lowpass":
		return TypeLowpass, nil
	case "highpass":
		return TypeHighpass, nil
	case "bandpass":
		return TypeBandpass, nil
	case "notch":
		return TypeNotch, nil
	default:
		return TypeLowpass, fmt.Errorf("unknown filter type %q", name)
	}
}

func (t Type) String() string {
	switch t {
	case TypeHighpass:
		return "highpass"
	case TypeBandpass:
		return "bandpass"
	case TypeNotch:
		return "notch"
	default:
		return "lowpass"
	}
}

// Filter is a resonant biquad whose response, cutoff and resonance can be
// changed between blocks without clearing its state.
type Filter struct {
	sampleRate float64
	typ        Type
	cutoff     float64
	q          float64
	section    Section
}

// New returns a lowpass filter at cutoff Hz with Butterworth resonance.
func New(sampleRate, cutoff float64) (*Filter, error) {
	if sampleRate <= 0 || math.IsNaN(sampleRate) || math.IsInf(sampleRate, 0) {
		return nil, fmt.Errorf("filter sample rate must be > 0: %f", sampleRate)
	}

	f := &Filter{sampleRate: sampleRate, q: defaultQ}
	if err := f.Set(TypeLowpass, cutoff, defaultQ); err != nil {
		return nil, err
	}

	return f, nil
}

// Set replaces the response, cutoff (Hz) and resonance (Q) in one step.
func (f *Filter) Set(typ Type, cutoff, q float64) error {
	if cutoff <= 0 || cutoff >= f.sampleRate/2 || math.IsNaN(cutoff) {
		return fmt.Errorf("filter cutoff must be in (0, %g): %f", f.sampleRate/2, cutoff)
	}

	if q <= 0 || math.IsNaN(q) || math.IsInf(q, 0) {
		return fmt.Errorf("filter resonance must be > 0: %f", q)
	}

	f.typ, f.cutoff, f.q = typ, cutoff, q
	f.section.Coefficients = design(typ, cutoff, q, f.sampleRate)

	return nil
}

// SetType changes the response, keeping cutoff and resonance.
func (f *Filter) SetType(typ Type) error { return f.Set(typ, f.cutoff, f.q) }

// SetCutoff changes the cutoff frequency in Hz.
func (f *Filter) SetCutoff(cutoff float64) error { return f.Set(f.typ, cutoff, f.q) }

// SetResonance changes the resonance (Q).
func (f *Filter) SetResonance(q float64) error { return f.Set(f.typ, f.cutoff, q) }

// Type returns the current response.
func (f *Filter) Type() Type { return f.typ }

// Cutoff returns the cutoff frequency in Hz.
func (f *Filter) Cutoff() float64 { return f.cutoff }

// Resonance returns the Q.
func (f *Filter) Resonance() float64 { return f.q }

// ProcessSample filters one sample.
func (f *Filter) ProcessSample(x float64) float64 { return f.section.ProcessSample(x) }

// ProcessInPlace filters buf in place.
func (f *Filter) ProcessInPlace(buf []float64) { f.section.ProcessBlock(buf) }

// Reset clears the filter state.
func (f *Filter) Reset() { f.section.Reset() }

func design(typ Type, cutoff, q, sampleRate float64) Coefficients {
	switch typ {
	case TypeHighpass:
		return Highpass(cutoff, q, sampleRate)
	case TypeBandpass:
		return Bandpass(cutoff, q, sampleRate)
	case TypeNotch:
		return Notch(cutoff, q, sampleRate)
	default:
		return Lowpass(cutoff, q, sampleRate)
	}
}
