package offline

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cwbudde/algo-vecmath"

	"github.com/cwbudde/algo-live/dsp/core"
	"github.com/cwbudde/algo-live/graph"
	"github.com/cwbudde/algo-live/transport"
)

var errUnsupported = errors.New("offline: unsupported node kind")

var (
	_ graph.Delegate  = (*Backend)(nil)
	_ transport.Clock = (*Backend)(nil)
	_ transport.Timer = (*Backend)(nil)
)

// Option configures a Backend.
type Option func(*Backend)

// WithProcessorOptions sets the sample rate and block size.
func WithProcessorOptions(opts ...core.ProcessorOption) Option {
	return func(b *Backend) {
		b.cfg = core.ApplyProcessorOptions(opts...)
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(b *Backend) {
		if l != nil {
			b.logger = l
		}
	}
}

type timer struct {
	interval float64
	next     float64
	fn       func()
	stopped  bool
}

// Backend renders a reconciled graph in software.
type Backend struct {
	cfg    core.ProcessorConfig
	logger *slog.Logger

	mu        sync.Mutex
	handles   map[*Handle]struct{}
	dest      *Handle
	voices    []*voice
	timers    []*timer
	frames    int64
	wall      int64
	suspended bool
	block     uint64

	voiceBuf []float64
	envBuf   []float64
}

// New returns a running backend at the configured sample rate.
func New(opts ...Option) *Backend {
	b := &Backend{
		cfg:     core.DefaultProcessorConfig(),
		logger:  slog.Default(),
		handles: make(map[*Handle]struct{}),
	}
	for _, opt := range opts {
		opt(b)
	}

	b.voiceBuf = make([]float64, b.cfg.BlockSize)
	b.envBuf = make([]float64, b.cfg.BlockSize)

	return b
}

// Config returns the render rate and block size.
func (b *Backend) Config() core.ProcessorConfig {
	return b.cfg
}

// SampleRate returns the rendering sample rate.
func (b *Backend) SampleRate() float64 {
	return b.cfg.SampleRate
}

// BlockSize returns the number of frames rendered per block.
func (b *Backend) BlockSize() int {
	return b.cfg.BlockSize
}

// CreatePersistent implements graph.Delegate.
func (b *Backend) CreatePersistent(kind graph.Kind, props graph.Props, _ graph.Resolver) (graph.Resource, error) {
	if kind.Ephemeral() {
		return nil, fmt.Errorf("%w: %s", errUnsupported, kind)
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	h, err := b.newHandle(kind, props)
	if err != nil {
		return nil, err
	}

	b.handles[h] = struct{}{}
	if kind == graph.KindDestination {
		b.dest = h
	}

	b.logger.Debug("node created", "node", h)

	return h, nil
}

// CreateEphemeral implements graph.Delegate. The voice sounds into
// e.Dest from e.Start and is dropped after e.End.
func (b *Backend) CreateEphemeral(e graph.Ephemeral) (graph.Resource, error) {
	dest, err := b.handle(e.Dest)
	if err != nil {
		return nil, err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if dest.destroyed {
		return nil, fmt.Errorf("offline: voice destination %s was destroyed", dest)
	}

	v, err := newVoice(e, dest, b.cfg.SampleRate)
	if err != nil {
		return nil, err
	}

	b.voices = append(b.voices, v)

	return &VoiceHandle{id: v.id}, nil
}

// Destroy implements graph.Delegate.
func (b *Backend) Destroy(res graph.Resource) error {
	h, err := b.handle(res)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	h.destroyed = true
	h.inputs = nil
	delete(b.handles, h)

	for other := range b.handles {
		other.disconnect(h)
	}

	if b.dest == h {
		b.dest = nil
	}

	b.logger.Debug("node destroyed", "node", h)

	return nil
}

// Update implements graph.Delegate. Changes are applied at the current
// audio time; gain changes glide briefly to avoid clicks.
func (b *Backend) Update(res graph.Resource, changes []graph.Change) error {
	h, err := b.handle(res)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	now := b.now()

	var errs []error

	for _, c := range changes {
		if err := h.apply(c, b.cfg.SampleRate, now); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Connect implements graph.Delegate.
func (b *Backend) Connect(src, dst graph.Resource) error {
	s, err := b.handle(src)
	if err != nil {
		return err
	}

	d, err := b.handle(dst)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	if s.destroyed || d.destroyed {
		return fmt.Errorf("offline: connect %s -> %s: endpoint destroyed", s, d)
	}

	d.connect(s)

	return nil
}

// Disconnect implements graph.Delegate.
func (b *Backend) Disconnect(src, dst graph.Resource) error {
	s, err := b.handle(src)
	if err != nil {
		return err
	}

	d, err := b.handle(dst)
	if err != nil {
		return err
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	d.disconnect(s)

	return nil
}

func (b *Backend) handle(res graph.Resource) (*Handle, error) {
	h, ok := res.(*Handle)
	if !ok || h == nil {
		return nil, fmt.Errorf("%w: %T", graph.ErrIncompatibleResource, res)
	}

	return h, nil
}

// CurrentTime implements transport.Clock.
func (b *Backend) CurrentTime() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.now()
}

func (b *Backend) now() float64 {
	return b.cfg.Seconds(b.frames)
}

// Running implements transport.Clock.
func (b *Backend) Running() bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return !b.suspended
}

// Suspend freezes the audio clock. Render keeps producing silence and
// timers keep firing.
func (b *Backend) Suspend() {
	b.mu.Lock()
	b.suspended = true
	b.mu.Unlock()
}

// Resume restarts the audio clock.
func (b *Backend) Resume() {
	b.mu.Lock()
	b.suspended = false
	b.mu.Unlock()
}

// Every implements transport.Timer on the rendered timer clock.
func (b *Backend) Every(d time.Duration, fn func()) (stop func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	interval := d.Seconds()
	if interval <= 0 {
		interval = b.cfg.BlockDuration()
	}

	t := &timer{interval: interval, fn: fn}
	t.next = b.wallTime() + t.interval
	b.timers = append(b.timers, t)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()

		t.stopped = true
		for i, x := range b.timers {
			if x == t {
				b.timers = append(b.timers[:i], b.timers[i+1:]...)

				break
			}
		}
	}
}

func (b *Backend) wallTime() float64 {
	return b.cfg.Seconds(b.wall)
}

// ActiveVoices returns the number of voices not yet finished.
func (b *Backend) ActiveVoices() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.voices)
}

// Nodes returns the number of live persistent resources.
func (b *Backend) Nodes() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return len(b.handles)
}

// Render fills dst with the next len(dst) frames of output, one block at a
// time. Due timers run between blocks without the backend lock held.
func (b *Backend) Render(dst []float64) {
	for off := 0; off < len(dst); off += b.cfg.BlockSize {
		end := min(off+b.cfg.BlockSize, len(dst))

		for _, t := range b.renderBlock(dst[off:end]) {
			if b.live(t) {
				t.fn()
			}
		}
	}
}

func (b *Backend) live(t *timer) bool {
	b.mu.Lock()
	defer b.mu.Unlock()

	return !t.stopped
}

func (b *Backend) renderBlock(dst []float64) []*timer {
	b.mu.Lock()
	defer b.mu.Unlock()

	n := len(dst)

	if b.suspended || b.dest == nil {
		clear(dst)
	} else {
		b.process(dst)
		b.frames += int64(n)
	}

	b.wall += int64(n)

	return b.dueTimers()
}

func (b *Backend) process(dst []float64) {
	n := len(dst)
	step := 1 / b.cfg.SampleRate
	t0 := b.now()

	b.block++

	for h := range b.handles {
		clear(h.in[:n])
	}

	kept := b.voices[:0]

	for _, v := range b.voices {
		if !v.render(b.voiceBuf[:n], b.envBuf, t0, step) {
			kept = append(kept, v)
		}
	}

	clear(b.voices[len(kept):])
	b.voices = kept

	b.pull(b.dest, n, t0, step)
	copy(dst, b.dest.out[:n])
}

// pull renders h after everything feeding it. A source reached again while
// it is being rendered closes a cycle and contributes its previous block.
func (b *Backend) pull(h *Handle, n int, t0, step float64) {
	if h.done == b.block {
		return
	}

	h.visiting = true

	for _, src := range h.inputs {
		if !src.visiting {
			b.pull(src, n, t0, step)
		}

		vecmath.AddBlockInPlace(h.in[:n], src.out[:n])
	}

	h.process(n, t0, step)
	h.visiting = false
	h.done = b.block
}

func (b *Backend) dueTimers() []*timer {
	now := b.wallTime()

	var due []*timer

	for _, t := range b.timers {
		if t.stopped || t.next > now {
			continue
		}

		due = append(due, t)
		for t.next <= now {
			t.next += t.interval
		}
	}

	return due
}
