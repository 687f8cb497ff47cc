package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-live/dsp/core"
	"github.com/cwbudde/algo-live/dsp/delay"
)

const (
	defaultDelayTimeSeconds = 0.25
	defaultDelayFeedback    = 0.35
	defaultDelayMix         = 1.0
	defaultDelaySmoothing   = 0.001

	// MaxDelayTimeSeconds bounds the delay time; the circular buffer is
	// sized for it once at construction.
	MaxDelayTimeSeconds = 2.0
	minDelayTimeSeconds = 0.0
	// MaxDelayFeedback keeps the recirculating loop stable.
	MaxDelayFeedback = 0.99
)

// DelayOption mutates construction-time parameters of a FeedbackDelay.
type DelayOption func(*delayConfig) error

type delayConfig struct {
	time      float64
	feedback  float64
	mix       float64
	smoothing float64
}

func defaultDelayConfig() delayConfig {
	return delayConfig{
		time:      defaultDelayTimeSeconds,
		feedback:  defaultDelayFeedback,
		mix:       defaultDelayMix,
		smoothing: defaultDelaySmoothing,
	}
}

// WithDelayTime sets the initial delay time in seconds.
func WithDelayTime(seconds float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayTime(seconds); err != nil {
			return err
		}

		cfg.time = seconds

		return nil
	}
}

// WithDelayFeedback sets the initial feedback gain in [0, 0.99].
func WithDelayFeedback(feedback float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayFeedback(feedback); err != nil {
			return err
		}

		cfg.feedback = feedback

		return nil
	}
}

// WithDelayMix sets the initial wet amount in [0, 1].
func WithDelayMix(mix float64) DelayOption {
	return func(cfg *delayConfig) error {
		if err := validateDelayMix(mix); err != nil {
			return err
		}

		cfg.mix = mix

		return nil
	}
}

// WithDelaySmoothing sets the per-sample interpolation factor in (0, 1]
// used to glide delay time and feedback towards their targets.
func WithDelaySmoothing(factor float64) DelayOption {
	return func(cfg *delayConfig) error {
		if factor <= 0 || factor > 1 || math.IsNaN(factor) {
			return fmt.Errorf("delay smoothing must be in (0, 1]: %f", factor)
		}

		cfg.smoothing = factor

		return nil
	}
}

// FeedbackDelay is a feedback delay line with fractional-sample reads and
// smoothed parameter automation.
//
// Each sample reads the two buffer slots bracketing the current fractional
// delay, interpolates linearly, writes input + delayed*feedback and advances
// the write cursor. Delay time and feedback glide towards their targets by a
// fixed factor per sample, so parameter changes never jump. The output is
// the written value blended with the dry input by mix.
type FeedbackDelay struct {
	sampleRate float64
	line       *delay.Line
	smoothing  float64

	targetSamples  float64
	currentSamples float64
	targetFeedback float64
	feedback       float64
	mix            float64
}

// NewFeedbackDelay creates a delay whose buffer holds MaxDelayTimeSeconds.
// Initial parameters are applied without smoothing.
func NewFeedbackDelay(sampleRate float64, opts ...DelayOption) (*FeedbackDelay, error) {
	if sampleRate <= 0 || !core.IsFinite(sampleRate) {
		return nil, fmt.Errorf("delay sample rate must be > 0: %f", sampleRate)
	}

	cfg := defaultDelayConfig()
	for _, opt := range opts {
		if opt == nil {
			continue
		}

		if err := opt(&cfg); err != nil {
			return nil, err
		}
	}

	line, err := delay.ForDuration(MaxDelayTimeSeconds, sampleRate)
	if err != nil {
		return nil, err
	}

	d := &FeedbackDelay{
		sampleRate:     sampleRate,
		line:           line,
		smoothing:      cfg.smoothing,
		targetFeedback: cfg.feedback,
		feedback:       cfg.feedback,
		mix:            cfg.mix,
	}
	d.targetSamples = d.secondsToSamples(cfg.time)
	d.currentSamples = d.targetSamples

	return d, nil
}

// SetTime sets the target delay time in seconds. The effective delay glides
// towards it during processing.
func (d *FeedbackDelay) SetTime(seconds float64) error {
	if err := validateDelayTime(seconds); err != nil {
		return err
	}

	d.targetSamples = d.secondsToSamples(seconds)

	return nil
}

// SetFeedback sets the target feedback gain in [0, 0.99].
func (d *FeedbackDelay) SetFeedback(feedback float64) error {
	if err := validateDelayFeedback(feedback); err != nil {
		return err
	}

	d.targetFeedback = feedback

	return nil
}

// SetMix sets the wet amount in [0, 1].
func (d *FeedbackDelay) SetMix(mix float64) error {
	if err := validateDelayMix(mix); err != nil {
		return err
	}

	d.mix = mix

	return nil
}

// Snap jumps the smoothed parameters to their targets.
func (d *FeedbackDelay) Snap() {
	d.currentSamples = d.targetSamples
	d.feedback = d.targetFeedback
}

// ProcessSample processes one sample.
func (d *FeedbackDelay) ProcessSample(input float64) float64 {
	d.currentSamples += (d.targetSamples - d.currentSamples) * d.smoothing
	d.feedback += (d.targetFeedback - d.feedback) * d.smoothing

	delayed := d.line.ReadLinear(d.currentSamples)
	written := core.FlushDenormals(input + delayed*d.feedback)
	d.line.Write(written)

	return input*(1-d.mix) + written*d.mix
}

// ProcessInPlace applies the delay to buf in place.
func (d *FeedbackDelay) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = d.ProcessSample(buf[i])
	}
}

// Reset clears the buffer and snaps the smoothed parameters.
func (d *FeedbackDelay) Reset() {
	d.line.Reset()
	d.Snap()
}

// SampleRate returns sample rate in Hz.
func (d *FeedbackDelay) SampleRate() float64 { return d.sampleRate }

// Time returns the target delay time in seconds.
func (d *FeedbackDelay) Time() float64 { return d.targetSamples / d.sampleRate }

// CurrentDelaySamples returns the smoothed delay in samples.
func (d *FeedbackDelay) CurrentDelaySamples() float64 { return d.currentSamples }

// Feedback returns the smoothed feedback gain.
func (d *FeedbackDelay) Feedback() float64 { return d.feedback }

// Mix returns wet amount in [0, 1].
func (d *FeedbackDelay) Mix() float64 { return d.mix }

func (d *FeedbackDelay) secondsToSamples(seconds float64) float64 {
	samples := seconds * d.sampleRate
	if samples < 1 {
		samples = 1
	}

	return math.Min(samples, d.line.MaxDelay())
}

func validateDelayTime(seconds float64) error {
	if seconds < minDelayTimeSeconds || seconds > MaxDelayTimeSeconds || !core.IsFinite(seconds) {
		return fmt.Errorf("delay time must be in [%g, %g]: %f",
			minDelayTimeSeconds, MaxDelayTimeSeconds, seconds)
	}

	return nil
}

func validateDelayFeedback(feedback float64) error {
	if feedback < 0 || feedback > MaxDelayFeedback || !core.IsFinite(feedback) {
		return fmt.Errorf("delay feedback must be in [0, %g]: %f", MaxDelayFeedback, feedback)
	}

	return nil
}

func validateDelayMix(mix float64) error {
	if mix < 0 || mix > 1 || !core.IsFinite(mix) {
		return fmt.Errorf("delay mix must be in [0, 1]: %f", mix)
	}

	return nil
}
