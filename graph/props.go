package graph

import (
	"fmt"
	"math"
	"slices"

	"github.com/cwbudde/algo-live/dsp/effects"
	"github.com/cwbudde/algo-live/dsp/envelope"
	"github.com/cwbudde/algo-live/dsp/filter"
	"github.com/cwbudde/algo-live/dsp/osc"
)

// Props is the closed set of per-kind parameter structs. Exactly one
// implementation exists per Kind; the unexported method keeps the set closed.
type Props interface {
	Kind() Kind
	validate() error
	with(field string, value any) (Props, error)
}

// Property names, as used by Change.Field and Reconciler.SetProperty.
const (
	FieldWaveform     = "waveform"
	FieldDetune       = "detune"
	FieldGain         = "gain"
	FieldFrequencyMod = "frequencyMod"
	FieldGainMod      = "gainMod"
	FieldType         = "type"
	FieldCutoff       = "cutoff"
	FieldResonance    = "resonance"
	FieldAttack       = "attack"
	FieldDecay        = "decay"
	FieldSustain      = "sustain"
	FieldRelease      = "release"
	FieldTime         = "time"
	FieldFeedback     = "feedback"
	FieldMix          = "mix"
	FieldDrive        = "drive"
	FieldLength       = "length"
	FieldSteps        = "steps"
	FieldNotes        = "notes"
	FieldTargets      = "targets"
	FieldProbability  = "probability"
)

// GeneratorProps describes an oscillator voice template. FrequencyMod and
// GainMod name envelope nodes that modulate the voice when it is fired.
type GeneratorProps struct {
	Waveform     string
	Detune       float64 // cents
	Gain         float64
	FrequencyMod []string
	GainMod      []string
}

// FilterProps describes a resonant biquad filter.
type FilterProps struct {
	Type      string // lowpass, highpass, bandpass or notch
	Cutoff    float64
	Resonance float64
}

// MultiplierProps describes a gain stage.
type MultiplierProps struct {
	Gain float64
}

// EnvelopeProps describes an ADSR control ramp template.
type EnvelopeProps struct {
	Attack  float64
	Decay   float64
	Sustain float64
	Release float64
}

// DelayProps describes a feedback delay.
type DelayProps struct {
	Time     float64
	Feedback float64
	Mix      float64
}

// ClipperProps describes a soft clipper.
type ClipperProps struct {
	Drive float64
}

// SequencerProps describes a step pattern: Steps of Length slots are
// active, Notes are MIDI note numbers cycled per step, Targets name the
// generator nodes fired on active steps with the given probability.
type SequencerProps struct {
	Length      int
	Steps       int
	Notes       []int
	Targets     []string
	Probability float64
}

// DestinationProps describes the output bus.
type DestinationProps struct {
	Gain float64
}

func (GeneratorProps) Kind() Kind   { return KindGenerator }
func (FilterProps) Kind() Kind      { return KindFilter }
func (MultiplierProps) Kind() Kind  { return KindMultiplier }
func (EnvelopeProps) Kind() Kind    { return KindEnvelope }
func (DelayProps) Kind() Kind       { return KindDelay }
func (ClipperProps) Kind() Kind     { return KindClipper }
func (SequencerProps) Kind() Kind   { return KindSequencer }
func (DestinationProps) Kind() Kind { return KindDestination }

// DefaultProps returns the props used for a node whose Props field is nil.
func DefaultProps(k Kind) Props {
	switch k {
	case KindGenerator:
		return GeneratorProps{Waveform: "sine", Gain: 0.25}
	case KindFilter:
		return FilterProps{Type: "lowpass", Cutoff: 1000, Resonance: 1 / math.Sqrt2}
	case KindMultiplier:
		return MultiplierProps{Gain: 1}
	case KindEnvelope:
		return EnvelopeProps{Attack: 0.005, Decay: 0.1, Sustain: 0.6, Release: 0.2}
	case KindDelay:
		return DelayProps{Time: 0.25, Feedback: 0.35, Mix: 1}
	case KindClipper:
		return ClipperProps{Drive: 1}
	case KindSequencer:
		return SequencerProps{Length: 16, Steps: 4, Notes: []int{60}, Probability: 1}
	case KindDestination:
		return DestinationProps{Gain: 1}
	default:
		return nil
	}
}

// Change is one modified field reported to Delegate.Update.
type Change struct {
	Field string
	Value any
}

// Diff lists the fields whose values differ between old and new. Both must
// be of the same kind; a nil old reports every field of new.
func Diff(old, new Props) []Change {
	var d differ

	switch n := new.(type) {
	case GeneratorProps:
		o, _ := old.(GeneratorProps)
		d.str(FieldWaveform, o.Waveform, n.Waveform, old == nil)
		d.num(FieldDetune, o.Detune, n.Detune, old == nil)
		d.num(FieldGain, o.Gain, n.Gain, old == nil)
		d.strs(FieldFrequencyMod, o.FrequencyMod, n.FrequencyMod, old == nil)
		d.strs(FieldGainMod, o.GainMod, n.GainMod, old == nil)
	case FilterProps:
		o, _ := old.(FilterProps)
		d.str(FieldType, o.Type, n.Type, old == nil)
		d.num(FieldCutoff, o.Cutoff, n.Cutoff, old == nil)
		d.num(FieldResonance, o.Resonance, n.Resonance, old == nil)
	case MultiplierProps:
		o, _ := old.(MultiplierProps)
		d.num(FieldGain, o.Gain, n.Gain, old == nil)
	case EnvelopeProps:
		o, _ := old.(EnvelopeProps)
		d.num(FieldAttack, o.Attack, n.Attack, old == nil)
		d.num(FieldDecay, o.Decay, n.Decay, old == nil)
		d.num(FieldSustain, o.Sustain, n.Sustain, old == nil)
		d.num(FieldRelease, o.Release, n.Release, old == nil)
	case DelayProps:
		o, _ := old.(DelayProps)
		d.num(FieldTime, o.Time, n.Time, old == nil)
		d.num(FieldFeedback, o.Feedback, n.Feedback, old == nil)
		d.num(FieldMix, o.Mix, n.Mix, old == nil)
	case ClipperProps:
		o, _ := old.(ClipperProps)
		d.num(FieldDrive, o.Drive, n.Drive, old == nil)
	case SequencerProps:
		o, _ := old.(SequencerProps)
		d.num(FieldLength, float64(o.Length), float64(n.Length), old == nil)
		d.num(FieldSteps, float64(o.Steps), float64(n.Steps), old == nil)
		d.ints(FieldNotes, o.Notes, n.Notes, old == nil)
		d.strs(FieldTargets, o.Targets, n.Targets, old == nil)
		d.num(FieldProbability, o.Probability, n.Probability, old == nil)
	case DestinationProps:
		o, _ := old.(DestinationProps)
		d.num(FieldGain, o.Gain, n.Gain, old == nil)
	}

	return d.changes
}

type differ struct {
	changes []Change
}

func (d *differ) num(field string, old, new float64, all bool) {
	if all || old != new {
		d.changes = append(d.changes, Change{Field: field, Value: new})
	}
}

func (d *differ) str(field, old, new string, all bool) {
	if all || old != new {
		d.changes = append(d.changes, Change{Field: field, Value: new})
	}
}

func (d *differ) strs(field string, old, new []string, all bool) {
	if all || !slices.Equal(old, new) {
		d.changes = append(d.changes, Change{Field: field, Value: slices.Clone(new)})
	}
}

func (d *differ) ints(field string, old, new []int, all bool) {
	if all || !slices.Equal(old, new) {
		d.changes = append(d.changes, Change{Field: field, Value: slices.Clone(new)})
	}
}

func (p GeneratorProps) with(field string, value any) (Props, error) {
	var err error

	switch field {
	case FieldWaveform:
		p.Waveform, err = asString(value)
	case FieldDetune:
		p.Detune, err = asFloat(value)
	case FieldGain:
		p.Gain, err = asFloat(value)
	case FieldFrequencyMod:
		p.FrequencyMod, err = asStrings(value)
	case FieldGainMod:
		p.GainMod, err = asStrings(value)
	default:
		return nil, unknownField(p, field)
	}

	return p, fieldError(p, field, err)
}

func (p FilterProps) with(field string, value any) (Props, error) {
	var err error

	switch field {
	case FieldType:
		p.Type, err = asString(value)
	case FieldCutoff:
		p.Cutoff, err = asFloat(value)
	case FieldResonance:
		p.Resonance, err = asFloat(value)
	default:
		return nil, unknownField(p, field)
	}

	return p, fieldError(p, field, err)
}

func (p MultiplierProps) with(field string, value any) (Props, error) {
	if field != FieldGain {
		return nil, unknownField(p, field)
	}

	var err error
	p.Gain, err = asFloat(value)

	return p, fieldError(p, field, err)
}

func (p EnvelopeProps) with(field string, value any) (Props, error) {
	var err error

	switch field {
	case FieldAttack:
		p.Attack, err = asFloat(value)
	case FieldDecay:
		p.Decay, err = asFloat(value)
	case FieldSustain:
		p.Sustain, err = asFloat(value)
	case FieldRelease:
		p.Release, err = asFloat(value)
	default:
		return nil, unknownField(p, field)
	}

	return p, fieldError(p, field, err)
}

func (p DelayProps) with(field string, value any) (Props, error) {
	var err error

	switch field {
	case FieldTime:
		p.Time, err = asFloat(value)
	case FieldFeedback:
		p.Feedback, err = asFloat(value)
	case FieldMix:
		p.Mix, err = asFloat(value)
	default:
		return nil, unknownField(p, field)
	}

	return p, fieldError(p, field, err)
}

func (p ClipperProps) with(field string, value any) (Props, error) {
	if field != FieldDrive {
		return nil, unknownField(p, field)
	}

	var err error
	p.Drive, err = asFloat(value)

	return p, fieldError(p, field, err)
}

func (p SequencerProps) with(field string, value any) (Props, error) {
	var err error

	switch field {
	case FieldLength:
		p.Length, err = asInt(value)
	case FieldSteps:
		p.Steps, err = asInt(value)
	case FieldNotes:
		p.Notes, err = asInts(value)
	case FieldTargets:
		p.Targets, err = asStrings(value)
	case FieldProbability:
		p.Probability, err = asFloat(value)
	default:
		return nil, unknownField(p, field)
	}

	return p, fieldError(p, field, err)
}

func (p DestinationProps) with(field string, value any) (Props, error) {
	if field != FieldGain {
		return nil, unknownField(p, field)
	}

	var err error
	p.Gain, err = asFloat(value)

	return p, fieldError(p, field, err)
}

func (p GeneratorProps) validate() error {
	if p.Gain < 0 || !finite(p.Gain) || !finite(p.Detune) {
		return fmt.Errorf("%w: generator gain must be >= 0 and detune finite", ErrConfig)
	}

	if _, err := osc.ParseWaveform(p.Waveform); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}

func (p FilterProps) validate() error {
	if p.Cutoff <= 0 || p.Resonance <= 0 || !finite(p.Cutoff) || !finite(p.Resonance) {
		return fmt.Errorf("%w: filter cutoff and resonance must be > 0", ErrConfig)
	}

	if _, err := filter.ParseType(p.Type); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}

func (p MultiplierProps) validate() error {
	if !finite(p.Gain) {
		return fmt.Errorf("%w: multiplier gain must be finite", ErrConfig)
	}

	return nil
}

func (p EnvelopeProps) validate() error {
	env := envelope.Envelope{Attack: p.Attack, Decay: p.Decay, Sustain: p.Sustain, Release: p.Release}
	if err := env.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrConfig, err)
	}

	return nil
}

func (p DelayProps) validate() error {
	if p.Time < 0 || p.Time > effects.MaxDelayTimeSeconds || !finite(p.Time) {
		return fmt.Errorf("%w: delay time must be in [0, %g]: %f", ErrConfig, effects.MaxDelayTimeSeconds, p.Time)
	}

	if p.Feedback < 0 || p.Feedback > effects.MaxDelayFeedback || !finite(p.Feedback) {
		return fmt.Errorf("%w: delay feedback must be in [0, %g]: %f", ErrConfig, effects.MaxDelayFeedback, p.Feedback)
	}

	if p.Mix < 0 || p.Mix > 1 || !finite(p.Mix) {
		return fmt.Errorf("%w: delay mix must be in [0, 1]: %f", ErrConfig, p.Mix)
	}

	return nil
}

func (p ClipperProps) validate() error {
	if p.Drive < effects.MinClipperDrive || p.Drive > effects.MaxClipperDrive || !finite(p.Drive) {
		return fmt.Errorf("%w: clipper drive must be in [%g, %g]: %f",
			ErrConfig, effects.MinClipperDrive, effects.MaxClipperDrive, p.Drive)
	}

	return nil
}

func (p SequencerProps) validate() error {
	if p.Length <= 0 || p.Steps < 0 || p.Steps > p.Length {
		return fmt.Errorf("%w: sequencer needs 0 <= steps <= length and length > 0: steps=%d length=%d",
			ErrConfig, p.Steps, p.Length)
	}

	if p.Probability < 0 || p.Probability > 1 || math.IsNaN(p.Probability) {
		return fmt.Errorf("%w: sequencer probability must be in [0, 1]: %f", ErrConfig, p.Probability)
	}

	return nil
}

func (p DestinationProps) validate() error {
	if p.Gain < 0 || !finite(p.Gain) {
		return fmt.Errorf("%w: destination gain must be >= 0", ErrConfig)
	}

	return nil
}

func finite(x float64) bool {
	return !math.IsNaN(x) && !math.IsInf(x, 0)
}

func unknownField(p Props, field string) error {
	return fmt.Errorf("%w: %s has no property %q", ErrUnknownProperty, p.Kind(), field)
}

func fieldError(p Props, field string, err error) error {
	if err == nil {
		return nil
	}

	return fmt.Errorf("%w: %s.%s: %w", ErrUnknownProperty, p.Kind(), field, err)
}

func asFloat(v any) (float64, error) {
	switch t := v.(type) {
	case float64:
		return t, nil
	case float32:
		return float64(t), nil
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case uint64:
		return float64(t), nil
	default:
		return 0, fmt.Errorf("want number, got %T", v)
	}
}

func asInt(v any) (int, error) {
	switch t := v.(type) {
	case int:
		return t, nil
	case int64:
		return int(t), nil
	case uint64:
		return int(t), nil
	case float64:
		if t != math.Trunc(t) {
			return 0, fmt.Errorf("want integer, got %v", t)
		}

		return int(t), nil
	default:
		return 0, fmt.Errorf("want integer, got %T", v)
	}
}

func asString(v any) (string, error) {
	s, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("want string, got %T", v)
	}

	return s, nil
}

func asStrings(v any) ([]string, error) {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t), nil
	case string:
		return []string{t}, nil
	case []any:
		out := make([]string, 0, len(t))
		for _, e := range t {
			s, err := asString(e)
			if err != nil {
				return nil, err
			}

			out = append(out, s)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("want string list, got %T", v)
	}
}

func asInts(v any) ([]int, error) {
	switch t := v.(type) {
	case []int:
		return slices.Clone(t), nil
	case []any:
		out := make([]int, 0, len(t))
		for _, e := range t {
			n, err := asInt(e)
			if err != nil {
				return nil, err
			}

			out = append(out, n)
		}

		return out, nil
	default:
		return nil, fmt.Errorf("want integer list, got %T", v)
	}
}

// WithProperty returns a copy of p with one field replaced. Numbers of any
// Go numeric type and lists decoded as []any are accepted. The result is
// not range checked; Validate the tree it ends up in.
func WithProperty(p Props, field string, value any) (Props, error) {
	if p == nil {
		return nil, fmt.Errorf("%w: nil props", ErrUnknownProperty)
	}

	return p.with(field, value)
}
