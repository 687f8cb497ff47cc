package offline

import (
	"math"

	"github.com/cwbudde/algo-vecmath"
	"github.com/google/uuid"

	"github.com/cwbudde/algo-live/dsp/envelope"
	"github.com/cwbudde/algo-live/dsp/osc"
	"github.com/cwbudde/algo-live/dsp/param"
	"github.com/cwbudde/algo-live/graph"
)

// voice is one ephemeral generator. It is owned by the backend from
// creation until End and never handed back to the control path except as
// an opaque handle.
type voice struct {
	id     uuid.UUID
	osc    *osc.Oscillator
	freq   float64
	detune float64
	gain   float64
	dest   *Handle
	start  float64
	end    float64

	amp   []*param.Param
	pitch []*param.Param
}

// VoiceHandle is the resource returned for an ephemeral voice.
type VoiceHandle struct {
	id uuid.UUID
}

// ID returns the voice identifier.
func (v *VoiceHandle) ID() uuid.UUID { return v.id }

func newVoice(e graph.Ephemeral, dest *Handle, sampleRate float64) (*voice, error) {
	gp, _ := e.Props.(graph.GeneratorProps)

	w, err := osc.ParseWaveform(gp.Waveform)
	if err != nil {
		return nil, err
	}

	v := &voice{
		id:     uuid.New(),
		osc:    osc.New(w, sampleRate, e.Frequency, gp.Detune),
		freq:   e.Frequency,
		detune: gp.Detune,
		gain:   gp.Gain,
		dest:   dest,
		start:  e.Start,
		end:    math.Max(e.End, e.Stop),
	}

	if len(e.GainEnvelopes) == 0 {
		gate := param.New(0)
		gate.SetValueAtTime(1, e.Start)
		gate.SetValueAtTime(0, e.Stop)
		v.amp = append(v.amp, gate)
	}

	for _, ep := range e.GainEnvelopes {
		v.amp = append(v.amp, scheduled(ep, e.Start, e.Stop))
	}

	for _, ep := range e.FrequencyEnvelopes {
		v.pitch = append(v.pitch, scheduled(ep, e.Start, e.Stop))
	}

	return v, nil
}

func scheduled(ep graph.EnvelopeProps, start, stop float64) *param.Param {
	p := param.New(0)
	envelope.Envelope{
		Attack:  ep.Attack,
		Decay:   ep.Decay,
		Sustain: ep.Sustain,
		Release: ep.Release,
	}.Schedule(p, start, stop)

	return p
}

// render adds the voice's contribution for the block starting at audio
// time t0 into its destination input. It reports whether the voice is
// finished after this block.
func (v *voice) render(buf, env []float64, t0, step float64) bool {
	n := len(buf)
	blockEnd := t0 + float64(n)*step

	if v.dest.destroyed {
		return true
	}

	if v.start >= blockEnd {
		return false
	}

	first := max(int(math.Ceil((v.start-t0)/step)), 0)
	last := min(int(math.Ceil((v.end-t0)/step)), n)

	if first >= last {
		return v.end <= blockEnd
	}

	out := buf[first:last]
	ts := t0 + float64(first)*step

	if len(v.pitch) == 0 {
		for i := range out {
			out[i] = v.osc.Next()
		}
	} else {
		for i := range out {
			t := ts + float64(i)*step

			bend := 0.0
			for _, p := range v.pitch {
				bend += p.ValueAt(t)
			}

			v.osc.SetFrequency(v.freq*math.Exp2(bend), v.detune)
			out[i] = v.osc.Next()
		}
	}

	vecmath.ScaleBlockInPlace(out, v.gain)

	for _, p := range v.amp {
		e := env[:len(out)]
		p.Fill(e, ts, step)
		vecmath.MulBlockInPlace(out, e)
	}

	vecmath.AddBlockInPlace(v.dest.in[first:last], out)

	return v.end <= blockEnd
}
