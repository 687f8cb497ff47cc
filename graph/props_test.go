package graph_test

import (
	"errors"
	"testing"

	"github.com/cwbudde/algo-live/graph"
)

func TestDiff(t *testing.T) {
	tests := []struct {
		name   string
		old    graph.Props
		new    graph.Props
		fields []string
	}{
		{
			"unchanged",
			graph.FilterProps{Type: "lowpass", Cutoff: 100, Resonance: 1},
			graph.FilterProps{Type: "lowpass", Cutoff: 100, Resonance: 1},
			nil,
		},
		{
			"cutoff and type",
			graph.FilterProps{Type: "lowpass", Cutoff: 100, Resonance: 1},
			graph.FilterProps{Type: "notch", Cutoff: 200, Resonance: 1},
			[]string{graph.FieldType, graph.FieldCutoff},
		},
		{
			"slices",
			graph.SequencerProps{Length: 8, Steps: 2, Notes: []int{60}, Targets: []string{"a"}, Probability: 1},
			graph.SequencerProps{Length: 8, Steps: 2, Notes: []int{60, 64}, Targets: []string{"a"}, Probability: 1},
			[]string{graph.FieldNotes},
		},
		{
			"nil old reports all",
			nil,
			graph.DelayProps{Time: 0.1, Feedback: 0.2, Mix: 1},
			[]string{graph.FieldTime, graph.FieldFeedback, graph.FieldMix},
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := graph.Diff(tc.old, tc.new)
			if len(got) != len(tc.fields) {
				t.Fatalf("Diff = %+v, want fields %v", got, tc.fields)
			}

			for i, f := range tc.fields {
				if got[i].Field != f {
					t.Fatalf("Diff[%d].Field = %q, want %q", i, got[i].Field, f)
				}
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	for k := graph.KindGenerator; k <= graph.KindDestination; k++ {
		got, err := graph.ParseKind(k.String())
		if err != nil || got != k {
			t.Fatalf("ParseKind(%q) = %v, %v", k.String(), got, err)
		}
	}

	if _, err := graph.ParseKind("oscillator"); !errors.Is(err, graph.ErrConfig) {
		t.Fatalf("ParseKind(unknown) error = %v, want ErrConfig", err)
	}
}

func TestEphemeralKinds(t *testing.T) {
	for k := graph.KindGenerator; k <= graph.KindDestination; k++ {
		want := k == graph.KindGenerator || k == graph.KindEnvelope
		if got := k.Ephemeral(); got != want {
			t.Fatalf("%s.Ephemeral() = %v, want %v", k, got, want)
		}
	}
}

func TestDefaultPropsMatchKind(t *testing.T) {
	for k := graph.KindGenerator; k <= graph.KindDestination; k++ {
		p := graph.DefaultProps(k)
		if p == nil || p.Kind() != k {
			t.Fatalf("DefaultProps(%s) = %#v", k, p)
		}
	}
}
