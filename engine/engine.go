// Package engine ties the reconciler, the step sequencer and the transport
// scheduler to one rendering backend.
package engine

import (
	"errors"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/cwbudde/algo-live/graph"
	"github.com/cwbudde/algo-live/sequencer"
	"github.com/cwbudde/algo-live/transport"
)

// Backend is everything the engine needs from a rendering backend.
type Backend interface {
	graph.Delegate
	transport.Clock
	transport.Timer
}

type config struct {
	logger    *slog.Logger
	transport []transport.Option
	sequencer []sequencer.Option
	onError   func(error)
}

// Option configures an Engine.
type Option func(*config)

// WithLogger sets the logger shared by all components.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) {
		if l != nil {
			c.logger = l
		}
	}
}

// WithTempo sets the transport tempo in beats per minute.
func WithTempo(bpm float64) Option {
	return func(c *config) { c.transport = append(c.transport, transport.WithTempo(bpm)) }
}

// WithStepBeats sets the length of one sequencer step in beats.
func WithStepBeats(beats float64) Option {
	return func(c *config) { c.transport = append(c.transport, transport.WithStepBeats(beats)) }
}

// WithLookahead sets the scheduling lookahead in seconds.
func WithLookahead(seconds float64) Option {
	return func(c *config) { c.transport = append(c.transport, transport.WithLookahead(seconds)) }
}

// WithPollInterval sets the transport wake interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) { c.transport = append(c.transport, transport.WithPollInterval(d)) }
}

// WithNoteLength sets the gate time of sequenced notes in seconds.
func WithNoteLength(seconds float64) Option {
	return func(c *config) { c.sequencer = append(c.sequencer, sequencer.WithNoteLength(seconds)) }
}

// WithRand sets the random source for sequencer fire probability.
func WithRand(r *rand.Rand) Option {
	return func(c *config) { c.sequencer = append(c.sequencer, sequencer.WithRand(r)) }
}

// WithErrorHandler receives errors raised while the transport runs. The
// transport stops before the handler is called.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) { c.onError = fn }
}

// Engine is the live synthesis engine. All methods are safe for concurrent
// use; the control path is serialised internally.
type Engine struct {
	mu       sync.Mutex
	backend  Backend
	rec      *graph.Reconciler
	seq      *sequencer.Sequencer
	sched    *transport.Scheduler
	logger   *slog.Logger
	onError  func(error)
	lastErr  error
	sequence []graph.SequencerProps
}

// New returns an engine driving b.
func New(b Backend, opts ...Option) (*Engine, error) {
	cfg := config{logger: slog.Default()}
	for _, opt := range opts {
		opt(&cfg)
	}

	e := &Engine{
		backend: b,
		logger:  cfg.logger,
		onError: cfg.onError,
	}
	e.rec = graph.NewReconciler(b, graph.WithLogger(cfg.logger))

	seq, err := sequencer.New(b, e.rec, append([]sequencer.Option{sequencer.WithLogger(cfg.logger)}, cfg.sequencer...)...)
	if err != nil {
		return nil, err
	}

	e.seq = seq

	topts := append([]transport.Option{
		transport.WithLogger(cfg.logger),
		transport.WithErrorHandler(e.transportError),
	}, cfg.transport...)

	sched, err := transport.New(b, b, e.tick, topts...)
	if err != nil {
		return nil, err
	}

	e.sched = sched

	return e, nil
}

// Render reconciles the live graph against root.
func (e *Engine) Render(root *graph.Node) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rec.Render(root)
}

// SetProperty changes one property of a keyed node in place.
func (e *Engine) SetProperty(key string, kind graph.Kind, prop string, value any) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.rec.SetProperty(key, kind, prop, value)
}

// Start runs the transport from the given step.
func (e *Engine) Start(fromStep int) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.lastErr = nil

	return e.sched.Start(fromStep)
}

// Stop halts the transport. Notes already dispatched play out.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sched.Stop()
}

// IsPlaying reports whether the transport is running.
func (e *Engine) IsPlaying() bool {
	return e.sched.Running()
}

// SetTempo changes the transport tempo.
func (e *Engine) SetTempo(bpm float64) error {
	return e.sched.SetTempo(bpm)
}

// Err returns the error that last stopped the transport, if any.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	return e.lastErr
}

// Reconciler exposes the reconciler for inspection.
func (e *Engine) Reconciler() *graph.Reconciler {
	return e.rec
}

// Scheduler exposes the transport scheduler for inspection.
func (e *Engine) Scheduler() *transport.Scheduler {
	return e.sched
}

// Close stops the transport and destroys the live graph.
func (e *Engine) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sched.Stop()

	return e.rec.Close()
}

// tick fires every sequencer node of the live tree for one step.
func (e *Engine) tick(step int, at float64) error {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.sequence = e.sequence[:0]
	e.rec.Walk(func(info graph.Info) {
		if p, ok := info.Props.(graph.SequencerProps); ok {
			e.sequence = append(e.sequence, p)
		}
	})

	var errs []error

	fired := 0

	for _, p := range e.sequence {
		n, err := e.seq.Tick(p, step, at)
		fired += n

		if err != nil {
			errs = append(errs, err)
		}
	}

	if fired > 0 {
		e.logger.Debug("step fired", "step", step, "at", at, "voices", fired)
	}

	return errors.Join(errs...)
}

func (e *Engine) transportError(err error) {
	e.mu.Lock()
	e.lastErr = err
	onError := e.onError
	e.mu.Unlock()

	if onError != nil {
		onError(err)
	}
}
