// Package param implements audio-clock parameter automation.
//
// A [Param] is the only channel through which the control path changes a
// running processor: the control path schedules values and ramps against
// the audio clock, and the rendering side samples the resulting timeline
// block by block. Nothing is applied "now"; every change carries the audio
// time at which it takes effect.
package param

const defaultEventCapacity = 16

type event struct {
	time  float64
	value float64
	ramp  bool
}

// Param is a piecewise-linear automation timeline.
//
// The zero value is not usable; create one with New.
type Param struct {
	anchorTime  float64
	anchorValue float64
	events      []event
}

// New returns a parameter holding value from time zero.
func New(value float64) *Param {
	return &Param{
		anchorValue: value,
		events:      make([]event, 0, defaultEventCapacity),
	}
}

// SetValueAtTime jumps to value at time t.
func (p *Param) SetValueAtTime(value, t float64) {
	p.insert(event{time: t, value: value})
}

// LinearRampToValueAtTime ramps linearly from the preceding event to value,
// arriving at time t.
func (p *Param) LinearRampToValueAtTime(value, t float64) {
	p.insert(event{time: t, value: value, ramp: true})
}

// CancelScheduledValues removes every event at or after t.
func (p *Param) CancelScheduledValues(t float64) {
	for i, e := range p.events {
		if e.time >= t {
			p.events = p.events[:i]
			return
		}
	}
}

// Pending returns the number of scheduled events.
func (p *Param) Pending() int {
	return len(p.events)
}

// ValueAt returns the automated value at audio time t.
func (p *Param) ValueAt(t float64) float64 {
	prevTime, prevValue := p.anchorTime, p.anchorValue

	for _, e := range p.events {
		if e.time <= t {
			prevTime, prevValue = e.time, e.value
			continue
		}

		if !e.ramp || e.time <= prevTime {
			return prevValue
		}

		frac := (t - prevTime) / (e.time - prevTime)

		return prevValue + frac*(e.value-prevValue)
	}

	return prevValue
}

// Fill writes one value per sample into dst, starting at audio time start
// and advancing by step seconds per sample.
func (p *Param) Fill(dst []float64, start, step float64) {
	if len(p.events) == 0 {
		for i := range dst {
			dst[i] = p.anchorValue
		}

		return
	}

	for i := range dst {
		dst[i] = p.ValueAt(start + float64(i)*step)
	}
}

// Prune folds every event at or before t into the anchor so that the
// timeline does not grow without bound. ValueAt results for times >= t are
// unchanged.
func (p *Param) Prune(t float64) {
	n := 0
	for n < len(p.events) && p.events[n].time <= t {
		n++
	}

	if n == 0 {
		return
	}

	last := p.events[n-1]
	p.anchorTime, p.anchorValue = last.time, last.value
	p.events = append(p.events[:0], p.events[n:]...)
}

// insert keeps events sorted by time; events at equal times keep their
// insertion order.
func (p *Param) insert(e event) {
	i := len(p.events)
	for i > 0 && p.events[i-1].time > e.time {
		i--
	}

	p.events = append(p.events, event{})
	copy(p.events[i+1:], p.events[i:])
	p.events[i] = e
}
