// Package envelope schedules attack/decay/sustain/release control ramps.
package envelope

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-live/dsp/param"
)

// Envelope describes an ADSR ramp. Times are in seconds, Sustain is a level
// in [0, 1].
type Envelope struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// Validate reports whether all stage times are non-negative and the sustain
// level is within [0, 1].
func (e Envelope) Validate() error {
	for _, v := range []struct {
		name  string
		value float64
	}{
		{"attack", e.Attack},
		{"decay", e.Decay},
		{"release", e.Release},
	} {
		if v.value < 0 || math.IsNaN(v.value) || math.IsInf(v.value, 0) {
			return fmt.Errorf("envelope %s must be >= 0: %f", v.name, v.value)
		}
	}

	if e.Sustain < 0 || e.Sustain > 1 || math.IsNaN(e.Sustain) {
		return fmt.Errorf("envelope sustain must be in [0, 1]: %f", e.Sustain)
	}

	return nil
}

// End returns the audio time at which a note released at stop falls silent.
func (e Envelope) End(stop float64) float64 {
	return stop + e.Release
}

// Schedule writes the ramp for a note sounding from start to stop onto p:
// 0 -> 1 over Attack, 1 -> Sustain over Decay, hold Sustain until stop,
// then -> 0 over Release. A stop inside the attack or decay keeps that
// stage's slope and releases from the level reached at stop. Any points
// previously scheduled at or after start are cancelled first, so
// re-triggering replaces a pending ramp instead of mixing with it.
func (e Envelope) Schedule(p *param.Param, start, stop float64) {
	if stop < start {
		stop = start
	}

	attackEnd := start + e.Attack
	decayEnd := attackEnd + e.Decay

	p.CancelScheduledValues(start)
	p.SetValueAtTime(0, start)

	switch {
	case stop < attackEnd:
		p.LinearRampToValueAtTime((stop-start)/e.Attack, stop)
	case stop < decayEnd:
		p.LinearRampToValueAtTime(1, attackEnd)
		p.LinearRampToValueAtTime(1+(e.Sustain-1)*(stop-attackEnd)/e.Decay, stop)
	default:
		p.LinearRampToValueAtTime(1, attackEnd)
		p.LinearRampToValueAtTime(e.Sustain, decayEnd)
		p.SetValueAtTime(e.Sustain, stop)
	}

	p.LinearRampToValueAtTime(0, e.End(stop))
}
