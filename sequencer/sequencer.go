package sequencer

import (
	"fmt"
	"log/slog"
	"math/rand/v2"

	"github.com/cwbudde/algo-live/graph"
)

// DefaultNoteLength is the gate time of a fired note in seconds.
const DefaultNoteLength = 0.1

// DefaultNote is played when a sequencer has no notes.
const DefaultNote = 60

// ErrNotGenerator reports a sequencer target that is not a generator node.
var ErrNotGenerator = fmt.Errorf("%w: sequencer target is not a generator", graph.ErrConfig)

// EphemeralCreator is the part of graph.Delegate the sequencer drives.
type EphemeralCreator interface {
	CreateEphemeral(e graph.Ephemeral) (graph.Resource, error)
}

// Lookup resolves keys in the live tree. *graph.Reconciler implements it.
type Lookup interface {
	Lookup(key string) (graph.Info, bool)
}

// Option configures a Sequencer.
type Option func(*Sequencer) error

// WithNoteLength sets the gate time of fired notes in seconds.
func WithNoteLength(seconds float64) Option {
	return func(s *Sequencer) error {
		if seconds <= 0 || seconds > 60 {
			return fmt.Errorf("note length must be in (0, 60]: %f", seconds)
		}

		s.noteLength = seconds

		return nil
	}
}

// WithRand sets the random source used for fire probability draws.
func WithRand(r *rand.Rand) Option {
	return func(s *Sequencer) error {
		if r == nil {
			return fmt.Errorf("random source must not be nil")
		}

		s.rng = r

		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Sequencer) error {
		if l != nil {
			s.logger = l
		}

		return nil
	}
}

// Sequencer turns ticks into ephemeral voices.
type Sequencer struct {
	creator    EphemeralCreator
	lookup     Lookup
	noteLength float64
	rng        *rand.Rand
	logger     *slog.Logger
}

// New returns a sequencer that resolves targets through l and creates
// voices through c.
func New(c EphemeralCreator, l Lookup, opts ...Option) (*Sequencer, error) {
	s := &Sequencer{
		creator:    c,
		lookup:     l,
		noteLength: DefaultNoteLength,
		rng:        rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64())),
		logger:     slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// NoteLength returns the configured gate time in seconds.
func (s *Sequencer) NoteLength() float64 {
	return s.noteLength
}

// Tick handles one transport step at audio time at. It returns the number
// of voices fired. An unresolved or non-generator target is a
// configuration error and aborts the tick; a backend that cannot create a
// voice only skips that voice.
func (s *Sequencer) Tick(p graph.SequencerProps, step int, at float64) (int, error) {
	if p.Length <= 0 {
		return 0, nil
	}

	step = wrap(step, p.Length)
	if !IsActive(step, p.Length, p.Steps) {
		return 0, nil
	}

	note := DefaultNote
	if len(p.Notes) > 0 {
		note = p.Notes[step%len(p.Notes)]
	}

	fired := 0

	for _, key := range p.Targets {
		if s.rng.Float64() > p.Probability {
			continue
		}

		e, err := s.voice(key, note, at)
		if err != nil {
			return fired, err
		}

		if e.Dest == nil {
			s.logger.Debug("sequencer target has no output", "key", key, "step", step)

			continue
		}

		if _, err := s.creator.CreateEphemeral(e); err != nil {
			s.logger.Warn("backend could not create voice", "key", key, "step", step, "at", at, "error", err)

			continue
		}

		fired++
	}

	return fired, nil
}

func (s *Sequencer) voice(key string, note int, at float64) (graph.Ephemeral, error) {
	info, ok := s.lookup.Lookup(key)
	if !ok {
		return graph.Ephemeral{}, fmt.Errorf("%w: sequencer target %q", graph.ErrUnresolvedKey, key)
	}

	gp, ok := info.Props.(graph.GeneratorProps)
	if info.Kind != graph.KindGenerator || !ok {
		return graph.Ephemeral{}, fmt.Errorf("%w: %q is a %s", ErrNotGenerator, key, info.Kind)
	}

	gain, err := s.envelopes(gp.GainMod)
	if err != nil {
		return graph.Ephemeral{}, err
	}

	freq, err := s.envelopes(gp.FrequencyMod)
	if err != nil {
		return graph.Ephemeral{}, err
	}

	stop := at + s.noteLength

	release := 0.0
	for _, env := range gain {
		release = max(release, env.Release)
	}

	return graph.Ephemeral{
		Kind:               graph.KindGenerator,
		Props:              gp,
		Frequency:          MIDIToHz(note),
		GainEnvelopes:      gain,
		FrequencyEnvelopes: freq,
		Dest:               info.ParentResource,
		Start:              at,
		Stop:               stop,
		End:                stop + release,
	}, nil
}

func (s *Sequencer) envelopes(keys []string) ([]graph.EnvelopeProps, error) {
	if len(keys) == 0 {
		return nil, nil
	}

	out := make([]graph.EnvelopeProps, 0, len(keys))

	for _, key := range keys {
		info, ok := s.lookup.Lookup(key)
		if !ok {
			return nil, fmt.Errorf("%w: modulation source %q", graph.ErrUnresolvedKey, key)
		}

		env, ok := info.Props.(graph.EnvelopeProps)
		if !ok {
			return nil, fmt.Errorf("%w: modulation source %q is a %s", graph.ErrKindMismatch, key, info.Kind)
		}

		out = append(out, env)
	}

	return out, nil
}
