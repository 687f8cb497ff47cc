package osc

import (
	"math"
	"testing"
)

func TestParseWaveform(t *testing.T) {
	for _, w := range []Waveform{WaveSine, WaveTriangle, WaveSaw, WaveSquare} {
		got, err := ParseWaveform(w.String())
		if err != nil || got != w {
			t.Fatalf("ParseWaveform(%q) = %v, %v", w.String(), got, err)
		}
	}

	if _, err := ParseWaveform("noise"); err == nil {
		t.Fatal("expected error for unknown waveform")
	}
}

func TestDetuneRatio(t *testing.T) {
	if got := DetuneRatio(1200); math.Abs(got-2) > 1e-12 {
		t.Fatalf("DetuneRatio(1200) = %v, want 2", got)
	}

	if got := DetuneRatio(0); got != 1 {
		t.Fatalf("DetuneRatio(0) = %v, want 1", got)
	}
}

func TestOscillatorFrequency(t *testing.T) {
	o := New(WaveSine, 48000, 440, 1200)
	if math.Abs(o.Frequency()-880) > 1e-9 {
		t.Fatalf("Frequency = %v, want 880", o.Frequency())
	}
}

func TestOscillatorBounded(t *testing.T) {
	for _, w := range []Waveform{WaveSine, WaveTriangle, WaveSaw, WaveSquare} {
		o := New(w, 48000, 1234, 0)
		for i := range 4800 {
			y := o.Next()
			if y < -1-1e-12 || y > 1+1e-12 {
				t.Fatalf("%v sample %d = %v out of range", w, i, y)
			}
		}
	}
}

func TestOscillatorPhaseWrapsAboveNyquist(t *testing.T) {
	// Stacked pitch bends can push the step past a full turn per sample.
	o := New(WaveSaw, 48000, 440, 0)
	o.SetFrequency(48000*3.3, 0)

	for i := range 1000 {
		y := o.Next()
		if y < -1-1e-12 || y > 1+1e-12 {
			t.Fatalf("sample %d = %v out of range", i, y)
		}

		if o.phase < -math.Pi || o.phase > math.Pi {
			t.Fatalf("phase %v left [-pi, pi] after sample %d", o.phase, i)
		}
	}
}

func TestOscillatorZeroCrossings(t *testing.T) {
	const sampleRate = 48000.0

	o := New(WaveSine, sampleRate, 100, 0)
	crossings := 0
	prev := o.Next()

	for range int(sampleRate) - 1 {
		y := o.Next()
		if (prev < 0) != (y < 0) {
			crossings++
		}

		prev = y
	}

	if crossings < 199 || crossings > 201 {
		t.Fatalf("crossings = %d, want ~200", crossings)
	}
}
