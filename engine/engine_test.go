package engine_test

import (
	"errors"
	"math/rand/v2"
	"sync"
	"testing"
	"time"

	"github.com/cwbudde/algo-live/engine"
	"github.com/cwbudde/algo-live/graph"
	"github.com/cwbudde/algo-live/graph/graphtest"
	"github.com/cwbudde/algo-live/sequencer"
	"github.com/cwbudde/algo-live/transport"
)

type backend struct {
	*graphtest.Recorder

	mu      sync.Mutex
	now     float64
	stopped bool
	fn      func()
}

func newBackend() *backend {
	return &backend{Recorder: &graphtest.Recorder{}}
}

func (b *backend) CurrentTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.now
}

func (b *backend) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return !b.stopped
}

func (b *backend) Every(_ time.Duration, fn func()) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.fn = fn

	return func() {
		b.mu.Lock()
		b.fn = nil
		b.mu.Unlock()
	}
}

// advance moves the audio clock and runs one timer wake.
func (b *backend) advance(dt float64) {
	b.mu.Lock()
	b.now += dt
	fn := b.fn
	b.mu.Unlock()

	if fn != nil {
		fn()
	}
}

func song(target string) *graph.Node {
	return graph.Destination(
		graph.Multiplier("amp", graph.MultiplierProps{Gain: 0.8},
			graph.Generator("lead", graph.GeneratorProps{Waveform: "triangle", Gain: 0.4}),
			graph.Generator("bass", graph.GeneratorProps{Waveform: "saw", Gain: 0.4}),
		),
		graph.Sequencer("a", graph.SequencerProps{Length: 4, Steps: 4, Notes: []int{64}, Targets: []string{target}, Probability: 1}),
		graph.Sequencer("b", graph.SequencerProps{Length: 4, Steps: 1, Notes: []int{40}, Targets: []string{"bass"}, Probability: 1}),
	)
}

func TestEngineSequencesEveryStep(t *testing.T) {
	b := newBackend()

	e, err := engine.New(b, engine.WithTempo(120), engine.WithLookahead(0.1), engine.WithRand(rand.New(rand.NewPCG(3, 4))))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Render(song("lead")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := e.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if !e.IsPlaying() {
		t.Fatal("not playing after Start")
	}

	// Steps are 0.125 s apart; this covers steps 0 to 7.
	for range 7 {
		b.advance(0.125)
	}

	voices := b.Ephemerals()

	lead, bass := 0, 0

	for _, v := range voices {
		switch v.Frequency {
		case sequencer.MIDIToHz(64):
			lead++
		case sequencer.MIDIToHz(40):
			bass++
		}
	}

	if lead != 8 || bass != 2 {
		t.Fatalf("lead = %d, bass = %d, want 8 and 2", lead, bass)
	}

	amp, _ := e.Reconciler().Lookup("amp")
	for i, v := range voices {
		if v.Dest != amp.Resource {
			t.Fatalf("voice %d bound to %v, want amp", i, v.Dest)
		}
	}

	e.Stop()

	if e.IsPlaying() {
		t.Fatal("playing after Stop")
	}

	b.advance(1)

	if got := len(b.Ephemerals()); got != len(voices) {
		t.Fatalf("stopped engine fired %d more voices", got-len(voices))
	}
}

func TestEngineSetPropertyReshapesPattern(t *testing.T) {
	b := newBackend()

	e, err := engine.New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Render(song("lead")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := e.SetProperty("a", graph.KindSequencer, graph.FieldSteps, 0); err != nil {
		t.Fatalf("SetProperty: %v", err)
	}

	if err := e.SetProperty("a", graph.KindFilter, graph.FieldCutoff, 10.0); !errors.Is(err, graph.ErrKindMismatch) {
		t.Fatalf("SetProperty kind mismatch error = %v", err)
	}

	if err := e.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for range 7 {
		b.advance(0.125)
	}

	for _, v := range b.Ephemerals() {
		if v.Frequency == sequencer.MIDIToHz(64) {
			t.Fatal("sequencer with zero steps fired")
		}
	}
}

func TestEngineRestart(t *testing.T) {
	b := newBackend()

	e, err := engine.New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Render(song("bass")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := e.Start(2); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := e.Start(0); !errors.Is(err, transport.ErrRunning) {
		t.Fatalf("Start while running error = %v, want ErrRunning", err)
	}

	b.advance(0.05)

	if got := e.Scheduler().Step(); got != 4 {
		t.Fatalf("Step = %d, want 4", got)
	}

	e.Stop()

	if err := e.Start(0); err != nil {
		t.Fatalf("restart: %v", err)
	}

	if e.Err() != nil {
		t.Fatalf("Err = %v", e.Err())
	}
}

func TestEngineSelfTerminatesWithBackend(t *testing.T) {
	b := newBackend()

	e, err := engine.New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Render(song("lead")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := e.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	b.mu.Lock()
	b.stopped = true
	b.mu.Unlock()

	b.advance(0.1)

	if e.IsPlaying() {
		t.Fatal("transport kept running on a suspended backend")
	}
}

func TestEngineClose(t *testing.T) {
	b := newBackend()

	e, err := engine.New(b)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := e.Render(song("lead")); err != nil {
		t.Fatalf("Render: %v", err)
	}

	if err := e.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	if b.Live() != 0 {
		t.Fatalf("live resources after Close: %d", b.Live())
	}
}

func TestNewRejectsBadOptions(t *testing.T) {
	if _, err := engine.New(newBackend(), engine.WithTempo(0)); err == nil {
		t.Fatal("tempo 0 accepted")
	}

	if _, err := engine.New(newBackend(), engine.WithNoteLength(-1)); err == nil {
		t.Fatal("negative note length accepted")
	}
}
