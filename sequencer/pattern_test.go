package sequencer

import (
	"math"
	"testing"
)

func TestActiveStepsCardinality(t *testing.T) {
	for length := 1; length <= 32; length++ {
		for steps := 1; steps <= length; steps++ {
			pattern := ActiveSteps(length, steps)
			if len(pattern) != length {
				t.Fatalf("len(ActiveSteps(%d, %d)) = %d", length, steps, len(pattern))
			}

			count := 0

			for i, on := range pattern {
				if on {
					count++
				}

				if on != IsActive(i, length, steps) {
					t.Fatalf("IsActive(%d, %d, %d) disagrees with ActiveSteps", i, length, steps)
				}
			}

			if count != steps {
				t.Fatalf("ActiveSteps(%d, %d) has %d active slots", length, steps, count)
			}
		}
	}
}

func TestActiveStepsLayout(t *testing.T) {
	tests := []struct {
		length, steps int
		want          []int
	}{
		{16, 4, []int{0, 4, 8, 12}},
		{8, 3, []int{0, 2, 5}},
		{5, 5, []int{0, 1, 2, 3, 4}},
		{7, 1, []int{0}},
	}

	for _, tc := range tests {
		pattern := ActiveSteps(tc.length, tc.steps)

		var got []int

		for i, on := range pattern {
			if on {
				got = append(got, i)
			}
		}

		if len(got) != len(tc.want) {
			t.Fatalf("ActiveSteps(%d, %d) = %v, want %v", tc.length, tc.steps, got, tc.want)
		}

		for i := range got {
			if got[i] != tc.want[i] {
				t.Fatalf("ActiveSteps(%d, %d) = %v, want %v", tc.length, tc.steps, got, tc.want)
			}
		}
	}
}

func TestActiveStepsDeterministic(t *testing.T) {
	a := ActiveSteps(13, 5)
	_ = ActiveSteps(16, 9)
	b := ActiveSteps(13, 5)

	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("pattern differs at %d", i)
		}
	}
}

func TestActiveStepsEdges(t *testing.T) {
	if got := ActiveSteps(0, 3); got != nil {
		t.Fatalf("ActiveSteps(0, 3) = %v, want nil", got)
	}

	for i, on := range ActiveSteps(4, 0) {
		if on {
			t.Fatalf("slot %d active with zero steps", i)
		}
	}

	if !IsActive(-4, 4, 1) || !IsActive(16, 16, 4) {
		t.Fatal("IsActive must wrap the step index")
	}
}

func TestMIDIToHz(t *testing.T) {
	tests := []struct {
		note int
		want float64
	}{
		{69, 440},
		{81, 880},
		{57, 220},
		{60, 261.6255653005986},
	}

	for _, tc := range tests {
		if got := MIDIToHz(tc.note); math.Abs(got-tc.want) > 1e-9 {
			t.Fatalf("MIDIToHz(%d) = %v, want %v", tc.note, got, tc.want)
		}
	}
}
