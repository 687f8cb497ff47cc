package transport

import (
	"errors"
	"testing"
	"time"
)

type fakeClock struct {
	now     float64
	stopped bool
}

func (c *fakeClock) CurrentTime() float64 { return c.now }
func (c *fakeClock) Running() bool        { return !c.stopped }

type fakeTimer struct {
	interval time.Duration
	fn       func()
	stops    int
}

func (t *fakeTimer) Every(d time.Duration, fn func()) func() {
	t.interval = d
	t.fn = fn

	return func() {
		t.fn = nil
		t.stops++
	}
}

func (t *fakeTimer) fire() {
	if t.fn != nil {
		t.fn()
	}
}

type recorded struct {
	steps []int
	times []float64
}

func (r *recorded) tick(step int, at float64) error {
	r.steps = append(r.steps, step)
	r.times = append(r.times, at)

	return nil
}

func newScheduler(t *testing.T, clock *fakeClock, timer *fakeTimer, rec *recorded, opts ...Option) *Scheduler {
	t.Helper()

	s, err := New(clock, timer, rec.tick, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	return s
}

func TestSchedulerDispatchesWithinLookahead(t *testing.T) {
	clock := &fakeClock{now: 1}
	timer := &fakeTimer{}
	rec := &recorded{}
	s := newScheduler(t, clock, timer, rec, WithTempo(120), WithStepBeats(0.25), WithLookahead(0.3))

	if got := s.StepDuration(); got != 0.125 {
		t.Fatalf("StepDuration = %v, want 0.125", got)
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if timer.interval != DefaultPollInterval {
		t.Fatalf("poll interval = %v, want %v", timer.interval, DefaultPollInterval)
	}

	if len(rec.steps) != 0 {
		t.Fatal("Start dispatched steps itself")
	}

	timer.fire()

	wantTimes := []float64{1, 1.125, 1.25}
	if len(rec.times) != len(wantTimes) {
		t.Fatalf("dispatched %v, want %v", rec.times, wantTimes)
	}

	for i, want := range wantTimes {
		if rec.times[i] != want || rec.steps[i] != i {
			t.Fatalf("event %d = (%d, %v), want (%d, %v)", i, rec.steps[i], rec.times[i], i, want)
		}
	}

	timer.fire()

	if len(rec.steps) != 3 {
		t.Fatal("second wake without clock advance dispatched again")
	}

	clock.now = 1.25
	timer.fire()

	if len(rec.steps) != 5 || rec.times[4] != 1.5 {
		t.Fatalf("after advance dispatched %v", rec.times)
	}

	if s.Step() != 5 {
		t.Fatalf("Step = %d, want 5", s.Step())
	}
}

func TestSchedulerLateWakeKeepsTimestamps(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}
	s := newScheduler(t, clock, timer, rec)

	if err := s.Start(3); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.now = 0.5
	timer.fire()

	for i, at := range rec.times {
		if want := float64(i) * 0.125; at != want {
			t.Fatalf("event %d at %v, want %v", i, at, want)
		}

		if rec.steps[i] != 3+i {
			t.Fatalf("event %d step %d, want %d", i, rec.steps[i], 3+i)
		}
	}

	if len(rec.times) != 5 {
		t.Fatalf("dispatched %d events, want 5", len(rec.times))
	}
}

func TestSchedulerStateMachine(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}
	s := newScheduler(t, clock, timer, rec)

	if s.State() != Stopped || s.Running() {
		t.Fatal("new scheduler not stopped")
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	if err := s.Start(0); !errors.Is(err, ErrRunning) {
		t.Fatalf("second Start error = %v, want ErrRunning", err)
	}

	s.Stop()
	s.Stop()

	if s.State() != Stopped || timer.stops != 1 {
		t.Fatalf("state = %v, stops = %d", s.State(), timer.stops)
	}

	s.Poll()

	if len(rec.steps) != 0 {
		t.Fatal("stopped scheduler dispatched")
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("restart: %v", err)
	}
}

func TestSchedulerStopDropsRestOfWake(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}

	var s *Scheduler

	tick := func(step int, at float64) error {
		if err := rec.tick(step, at); err != nil {
			return err
		}

		if step == 0 {
			s.Stop()
		}

		return nil
	}

	s, err := New(clock, timer, tick, WithTempo(600), WithLookahead(0.5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Poll()

	if s.Running() {
		t.Fatal("scheduler still running after Stop")
	}

	if len(rec.steps) != 1 || rec.steps[0] != 0 {
		t.Fatalf("steps = %v, want [0]", rec.steps)
	}
}

func TestSchedulerRestartDropsStaleWake(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}

	var s *Scheduler

	restarted := false
	tick := func(step int, at float64) error {
		if err := rec.tick(step, at); err != nil {
			return err
		}

		if !restarted {
			restarted = true

			s.Stop()
			clock.now = 10

			return s.Start(100)
		}

		return nil
	}

	s, err := New(clock, timer, tick, WithTempo(600), WithLookahead(0.5))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	s.Poll()

	if len(rec.steps) != 1 || rec.steps[0] != 0 {
		t.Fatalf("steps after stale wake = %v, want [0]", rec.steps)
	}

	timer.fire()

	if len(rec.steps) < 2 || rec.steps[1] != 100 || rec.times[1] != 10 {
		t.Fatalf("steps = %v at %v, want restart at step 100, time 10", rec.steps, rec.times)
	}

	for _, step := range rec.steps[1:] {
		if step < 100 {
			t.Fatalf("stale step %d dispatched after restart", step)
		}
	}
}

func TestSchedulerSelfTerminates(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}
	s := newScheduler(t, clock, timer, rec)

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	clock.stopped = true
	timer.fire()

	if s.Running() {
		t.Fatal("scheduler kept running without audio clock")
	}

	if len(rec.steps) != 0 || timer.stops != 1 {
		t.Fatalf("steps = %v, stops = %d", rec.steps, timer.stops)
	}
}

func TestSchedulerStopsOnTickError(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	boom := errors.New("boom")

	var reported error

	calls := 0
	s, err := New(clock, timer, func(int, float64) error {
		calls++

		return boom
	}, WithErrorHandler(func(err error) { reported = err }))
	if err != nil {
		t.Fatalf("New: %v", err)
	}

	if err := s.Start(0); err != nil {
		t.Fatalf("Start: %v", err)
	}

	timer.fire()

	if calls != 1 || !errors.Is(reported, boom) || s.Running() {
		t.Fatalf("calls = %d, reported = %v, running = %v", calls, reported, s.Running())
	}
}

func TestSetTempo(t *testing.T) {
	clock := &fakeClock{}
	timer := &fakeTimer{}
	rec := &recorded{}
	s := newScheduler(t, clock, timer, rec)

	if err := s.SetTempo(0); err == nil {
		t.Fatal("tempo 0 accepted")
	}

	if err := s.SetTempo(60); err != nil {
		t.Fatalf("SetTempo: %v", err)
	}

	if got := s.StepDuration(); got != 0.25 {
		t.Fatalf("StepDuration = %v, want 0.25", got)
	}
}

func TestOptionValidation(t *testing.T) {
	tests := []struct {
		name string
		opt  Option
	}{
		{"tempo", WithTempo(-1)},
		{"step beats", WithStepBeats(0)},
		{"lookahead", WithLookahead(0)},
		{"poll interval", WithPollInterval(time.Microsecond)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := New(&fakeClock{}, &fakeTimer{}, nil, tc.opt); err == nil {
				t.Fatal("invalid option accepted")
			}
		})
	}
}
