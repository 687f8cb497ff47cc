// Package transport schedules sequencer steps against an audio clock.
//
// A Scheduler wakes on a coarse wall-clock interval and dispatches every
// step whose audio time falls inside the lookahead window. Steps carry
// their audio-clock timestamp, so a late wake only shifts when the step
// is dispatched, never when it sounds.
package transport

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

const (
	DefaultTempo        = 120.0
	DefaultStepBeats    = 0.25
	DefaultLookahead    = 0.1
	DefaultPollInterval = 25 * time.Millisecond
)

// ErrRunning is returned by Start while the transport is already running.
var ErrRunning = errors.New("transport: already running")

// Clock is the audio clock of a backend.
type Clock interface {
	// CurrentTime returns the monotonically increasing audio time in seconds.
	CurrentTime() float64
	// Running reports whether the audio context is producing output.
	Running() bool
}

// Timer provides the recurring wall-clock wake.
type Timer interface {
	// Every calls fn every d until stop is called. stop must not wait for a
	// call of fn already in progress; fn tolerates a late call.
	Every(d time.Duration, fn func()) (stop func())
}

// TickFunc handles one step at its audio time.
type TickFunc func(step int, at float64) error

// State is the transport state.
type State int

const (
	Stopped State = iota
	Running
)

func (s State) String() string {
	if s == Running {
		return "running"
	}

	return "stopped"
}

type config struct {
	tempo     float64
	stepBeats float64
	lookahead float64
	interval  time.Duration
	onError   func(error)
	logger    *slog.Logger
}

// Option configures a Scheduler.
type Option func(*config) error

// WithTempo sets the tempo in beats per minute.
func WithTempo(bpm float64) Option {
	return func(c *config) error {
		if err := validateTempo(bpm); err != nil {
			return err
		}

		c.tempo = bpm

		return nil
	}
}

// WithStepBeats sets the length of one step in beats.
func WithStepBeats(beats float64) Option {
	return func(c *config) error {
		if beats <= 0 || beats > 16 {
			return fmt.Errorf("step length must be in (0, 16] beats: %f", beats)
		}

		c.stepBeats = beats

		return nil
	}
}

// WithLookahead sets how far ahead of the audio clock steps are scheduled.
func WithLookahead(seconds float64) Option {
	return func(c *config) error {
		if seconds <= 0 || seconds > 10 {
			return fmt.Errorf("lookahead must be in (0, 10] seconds: %f", seconds)
		}

		c.lookahead = seconds

		return nil
	}
}

// WithPollInterval sets the wall-clock wake interval.
func WithPollInterval(d time.Duration) Option {
	return func(c *config) error {
		if d < time.Millisecond || d > time.Second {
			return fmt.Errorf("poll interval must be in [1ms, 1s]: %v", d)
		}

		c.interval = d

		return nil
	}
}

// WithErrorHandler receives tick errors. The transport stops on the first
// one.
func WithErrorHandler(fn func(error)) Option {
	return func(c *config) error {
		c.onError = fn

		return nil
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *config) error {
		if l != nil {
			c.logger = l
		}

		return nil
	}
}

func validateTempo(bpm float64) error {
	if bpm < 1 || bpm > 999 {
		return fmt.Errorf("tempo must be in [1, 999] bpm: %f", bpm)
	}

	return nil
}

type event struct {
	step int
	at   float64
}

// Scheduler is the stopped/running lookahead state machine.
type Scheduler struct {
	clock Clock
	timer Timer
	tick  TickFunc

	mu    sync.Mutex
	cfg   config
	state State
	step  int
	next  float64
	gen   uint64
	halt  func()
}

// New returns a stopped scheduler.
func New(clock Clock, timer Timer, tick TickFunc, opts ...Option) (*Scheduler, error) {
	cfg := config{
		tempo:     DefaultTempo,
		stepBeats: DefaultStepBeats,
		lookahead: DefaultLookahead,
		interval:  DefaultPollInterval,
		logger:    slog.Default(),
	}

	for _, opt := range opts {
		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	return &Scheduler{clock: clock, timer: timer, tick: tick, cfg: cfg}, nil
}

// Start begins scheduling at fromStep, with the first step at the current
// audio time. Steps are dispatched from the timer; Start never calls tick
// itself.
func (s *Scheduler) Start(fromStep int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == Running {
		return ErrRunning
	}

	s.state = Running
	s.step = max(fromStep, 0)
	s.next = s.clock.CurrentTime()
	s.gen++
	s.halt = s.timer.Every(s.cfg.interval, s.Poll)

	s.cfg.logger.Debug("transport started", "step", s.step, "at", s.next, "tempo", s.cfg.tempo)

	return nil
}

// Stop halts scheduling. Steps already dispatched play out.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.stopLocked()
}

func (s *Scheduler) stopLocked() {
	if s.state != Running {
		return
	}

	s.state = Stopped
	if s.halt != nil {
		s.halt()
		s.halt = nil
	}
}

// Running reports whether the transport is running.
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == Running
}

// State returns the current state.
func (s *Scheduler) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state
}

// Step returns the index of the next step to be scheduled.
func (s *Scheduler) Step() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.step
}

// StepDuration returns the length of one step in seconds.
func (s *Scheduler) StepDuration() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.stepDuration()
}

func (s *Scheduler) stepDuration() float64 {
	return 60 / s.cfg.tempo * s.cfg.stepBeats
}

// Tempo returns the tempo in beats per minute.
func (s *Scheduler) Tempo() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.cfg.tempo
}

// SetTempo changes the tempo. It takes effect from the next scheduled step.
func (s *Scheduler) SetTempo(bpm float64) error {
	if err := validateTempo(bpm); err != nil {
		return err
	}

	s.mu.Lock()
	s.cfg.tempo = bpm
	s.mu.Unlock()

	return nil
}

// Poll performs one wake: it stops the transport if the clock is not
// running and otherwise dispatches every step due within the lookahead
// window. tick runs without the scheduler lock held.
func (s *Scheduler) Poll() {
	s.mu.Lock()

	if s.state != Running {
		s.mu.Unlock()

		return
	}

	if !s.clock.Running() {
		s.stopLocked()
		s.mu.Unlock()
		s.cfg.logger.Debug("transport stopped, audio clock not running")

		return
	}

	now := s.clock.CurrentTime()
	horizon := now + s.cfg.lookahead

	var due []event

	for s.next < horizon {
		due = append(due, event{step: s.step, at: s.next})
		s.next += s.stepDuration()
		s.step++
	}

	gen := s.gen
	logger := s.cfg.logger
	onError := s.cfg.onError
	s.mu.Unlock()

	for _, ev := range due {
		if !s.current(gen) {
			logger.Debug("wake superseded, dropping steps", "step", ev.step, "at", ev.at)

			return
		}

		if ev.at < now {
			logger.Debug("late step", "step", ev.step, "at", ev.at, "now", now)
		}

		if err := s.tick(ev.step, ev.at); err != nil {
			logger.Error("tick failed, stopping transport", "step", ev.step, "at", ev.at, "error", err)

			s.mu.Lock()
			if s.gen == gen {
				s.stopLocked()
			}
			s.mu.Unlock()

			if onError != nil {
				onError(err)
			}

			return
		}
	}
}

// current reports whether the run that started generation gen is still
// running.
func (s *Scheduler) current(gen uint64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.state == Running && s.gen == gen
}
