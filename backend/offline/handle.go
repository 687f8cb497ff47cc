package offline

import (
	"fmt"

	"github.com/cwbudde/algo-vecmath"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-live/dsp/core"
	"github.com/cwbudde/algo-live/dsp/effects"
	"github.com/cwbudde/algo-live/dsp/filter"
	"github.com/cwbudde/algo-live/dsp/param"
	"github.com/cwbudde/algo-live/graph"
)

// gainRampSeconds is the glide applied to gain changes.
const gainRampSeconds = 0.01

// Handle is the resource of one persistent node.
type Handle struct {
	id   uuid.UUID
	kind graph.Kind

	inputs    []*Handle
	destroyed bool

	in  []float64
	out []float64
	tmp []float64

	// Block bookkeeping for the pull traversal.
	done     uint64
	visiting bool

	gain    *param.Param
	filter  *filter.Filter
	delay   *effects.FeedbackDelay
	clipper *effects.Clipper
}

// ID returns the unique identifier of the resource.
func (h *Handle) ID() uuid.UUID { return h.id }

// Kind returns the node kind the resource was created for.
func (h *Handle) Kind() graph.Kind { return h.kind }

func (h *Handle) String() string {
	return fmt.Sprintf("%s-%s", h.kind, h.id.String()[:8])
}

func (b *Backend) newHandle(kind graph.Kind, props graph.Props) (*Handle, error) {
	n := b.cfg.BlockSize
	h := &Handle{
		id:   uuid.New(),
		kind: kind,
		in:   make([]float64, n),
		out:  make([]float64, n),
		tmp:  make([]float64, n),
	}

	var err error

	switch p := props.(type) {
	case graph.MultiplierProps:
		h.gain = param.New(p.Gain)
	case graph.DestinationProps:
		h.gain = param.New(p.Gain)
	case graph.FilterProps:
		err = h.setFilter(b.cfg.SampleRate, p)
	case graph.DelayProps:
		h.delay, err = effects.NewFeedbackDelay(b.cfg.SampleRate,
			effects.WithDelayTime(p.Time),
			effects.WithDelayFeedback(p.Feedback),
			effects.WithDelayMix(p.Mix),
		)
	case graph.ClipperProps:
		h.clipper = effects.NewClipper()
		err = h.clipper.SetDrive(p.Drive)
	case graph.SequencerProps:
		// Sequencers produce no audio.
	default:
		return nil, fmt.Errorf("%w: %s", errUnsupported, kind)
	}

	if err != nil {
		return nil, err
	}

	return h, nil
}

func (h *Handle) setFilter(sampleRate float64, p graph.FilterProps) error {
	typ, err := filter.ParseType(p.Type)
	if err != nil {
		return err
	}

	cutoff := clampCutoff(p.Cutoff, sampleRate)

	if h.filter == nil {
		h.filter, err = filter.New(sampleRate, cutoff)
		if err != nil {
			return err
		}
	}

	return h.filter.Set(typ, cutoff, p.Resonance)
}

func clampCutoff(cutoff, sampleRate float64) float64 {
	return core.Clamp(cutoff, 1, 0.49*sampleRate)
}

// apply performs one Update change at audio time now.
func (h *Handle) apply(c graph.Change, sampleRate, now float64) error {
	v, isNum := c.Value.(float64)

	switch {
	case h.gain != nil && c.Field == graph.FieldGain && isNum:
		h.gain.CancelScheduledValues(now)
		h.gain.SetValueAtTime(h.gain.ValueAt(now), now)
		h.gain.LinearRampToValueAtTime(v, now+gainRampSeconds)

		return nil
	case h.filter != nil:
		p := graph.FilterProps{Type: h.filter.Type().String(), Cutoff: h.filter.Cutoff(), Resonance: h.filter.Resonance()}

		switch c.Field {
		case graph.FieldType:
			s, ok := c.Value.(string)
			if !ok {
				break
			}

			p.Type = s

			return h.setFilter(sampleRate, p)
		case graph.FieldCutoff:
			if !isNum {
				break
			}

			p.Cutoff = v

			return h.setFilter(sampleRate, p)
		case graph.FieldResonance:
			if !isNum {
				break
			}

			p.Resonance = v

			return h.setFilter(sampleRate, p)
		}
	case h.delay != nil && isNum:
		switch c.Field {
		case graph.FieldTime:
			return h.delay.SetTime(v)
		case graph.FieldFeedback:
			return h.delay.SetFeedback(v)
		case graph.FieldMix:
			return h.delay.SetMix(v)
		}
	case h.clipper != nil && c.Field == graph.FieldDrive && isNum:
		return h.clipper.SetDrive(v)
	case h.kind == graph.KindSequencer:
		return nil
	}

	return fmt.Errorf("%w: %s cannot apply %q", graph.ErrIncompatibleResource, h, c.Field)
}

// process turns the accumulated input into this block's output.
func (h *Handle) process(n int, start, step float64) {
	in, out := h.in[:n], h.out[:n]

	if h.kind == graph.KindSequencer {
		clear(out)

		return
	}

	copy(out, in)

	switch {
	case h.gain != nil:
		g := h.tmp[:n]
		h.gain.Fill(g, start, step)
		vecmath.MulBlockInPlace(out, g)
		h.gain.Prune(start)
	case h.filter != nil:
		h.filter.ProcessInPlace(out)
	case h.delay != nil:
		h.delay.ProcessInPlace(out)
	case h.clipper != nil:
		h.clipper.ProcessInPlace(out)
	}
}

func (h *Handle) connect(src *Handle) {
	for _, x := range h.inputs {
		if x == src {
			return
		}
	}

	h.inputs = append(h.inputs, src)
}

func (h *Handle) disconnect(src *Handle) {
	for i, x := range h.inputs {
		if x == src {
			h.inputs = append(h.inputs[:i], h.inputs[i+1:]...)

			return
		}
	}
}
