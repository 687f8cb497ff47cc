// Package sequencer fires ephemeral generator voices from step patterns.
//
// A pattern of length L with S active steps marks the slots floor(i*L/S)
// for i in [0, S). The pattern is recomputed from its current length and
// step count on every tick, so a property change reshapes it on the next
// step.
package sequencer
