package sequencer

import "math"

// ActiveSteps returns the pattern of length slots with steps evenly spaced
// active slots. steps is clamped to [0, length].
func ActiveSteps(length, steps int) []bool {
	if length <= 0 {
		return nil
	}

	steps = min(max(steps, 0), length)

	pattern := make([]bool, length)
	for i := range steps {
		pattern[i*length/steps] = true
	}

	return pattern
}

// IsActive reports whether step is an active slot of the (length, steps)
// pattern. step is taken modulo length.
func IsActive(step, length, steps int) bool {
	if length <= 0 {
		return false
	}

	step = wrap(step, length)
	steps = min(max(steps, 0), length)

	for i := range steps {
		if i*length/steps == step {
			return true
		}
	}

	return false
}

// MIDIToHz converts a MIDI note number to a frequency, A4 = 69 = 440 Hz.
func MIDIToHz(note int) float64 {
	return 440 * math.Exp2(float64(note-69)/12)
}

func wrap(i, n int) int {
	return ((i % n) + n) % n
}
