package envelope

import (
	"math"
	"testing"

	"github.com/cwbudde/algo-live/dsp/param"
)

func TestScheduleShape(t *testing.T) {
	env := Envelope{Attack: 0.1, Decay: 0.2, Sustain: 0.5, Release: 0.4}
	p := param.New(0)
	env.Schedule(p, 1, 2)

	tests := []struct {
		at, want float64
	}{
		{0.5, 0},
		{1, 0},
		{1.05, 0.5},
		{1.1, 1},
		{1.2, 0.75},
		{1.3, 0.5},
		{1.9, 0.5},
		{2, 0.5},
		{2.2, 0.25},
		{2.4, 0},
		{3, 0},
	}

	for _, tt := range tests {
		if got := p.ValueAt(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestScheduleStopDuringDecay(t *testing.T) {
	env := Envelope{Attack: 0.1, Decay: 1, Sustain: 0, Release: 0.1}
	p := param.New(0)
	env.Schedule(p, 0, 0.3)

	tests := []struct {
		at, want float64
	}{
		{0.2, 0.9},
		{0.3, 0.8},
		{0.35, 0.4},
		{0.45, 0},
	}

	for _, tt := range tests {
		if got := p.ValueAt(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}
}

func TestScheduleStopDuringAttack(t *testing.T) {
	env := Envelope{Attack: 0.5, Decay: 0.1, Sustain: 0.2, Release: 0.3}
	p := param.New(0)
	env.Schedule(p, 0, 0.1)

	tests := []struct {
		at, want float64
	}{
		{0.05, 0.1},
		{0.1, 0.2},
		{0.25, 0.1},
		{0.4, 0},
	}

	for _, tt := range tests {
		if got := p.ValueAt(tt.at); math.Abs(got-tt.want) > 1e-9 {
			t.Fatalf("ValueAt(%v) = %v, want %v", tt.at, got, tt.want)
		}
	}

	const step = 1e-4

	prev := p.ValueAt(0)
	for i := 1; i <= 4000; i++ {
		at := float64(i) * step
		v := p.ValueAt(at)
		if math.Abs(v-prev) > 1e-3 {
			t.Fatalf("level jumps by %v at %v", math.Abs(v-prev), at)
		}

		prev = v
	}
}

func TestRetriggerCancelsPendingRamp(t *testing.T) {
	env := Envelope{Attack: 0.1, Decay: 0.1, Sustain: 0.5, Release: 1}
	p := param.New(0)
	env.Schedule(p, 0, 1)
	env.Schedule(p, 0.5, 0.6)

	// Old release (1 -> 2) must be gone; the new note ends at 1.6.
	if got := p.ValueAt(1.7); got != 0 {
		t.Fatalf("ValueAt(1.7) = %v, want 0", got)
	}

	if got := p.ValueAt(0.5); got != 0 {
		t.Fatalf("retrigger must restart from 0, got %v", got)
	}
}

func TestValidate(t *testing.T) {
	good := Envelope{Attack: 0.005, Decay: 0.1, Sustain: 0.6, Release: 0.2}
	if err := good.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}

	bad := []Envelope{
		{Attack: -1},
		{Decay: math.NaN()},
		{Release: math.Inf(1)},
		{Sustain: 1.5},
	}
	for _, env := range bad {
		if err := env.Validate(); err == nil {
			t.Fatalf("expected error for %+v", env)
		}
	}
}

func TestEnd(t *testing.T) {
	if got := (Envelope{Release: 0.25}).End(1); got != 1.25 {
		t.Fatalf("End = %v, want 1.25", got)
	}
}
