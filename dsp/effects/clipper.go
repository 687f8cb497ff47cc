package effects

import (
	"fmt"
	"math"

	"github.com/cwbudde/algo-live/dsp/core"
)

// ClipperShape is the fixed exponent a of the clipper transfer curve. Larger
// values give a harder knee.
const ClipperShape = 2.5

const defaultClipperDrive = 1.0

// Drive range accepted by SetDrive.
const (
	MinClipperDrive = 0.01
	MaxClipperDrive = 50.0
)

// Clipper is a stateless waveshaper:
//
//	f(x) = sign(x) * tanh(|x|^a)^(1/a)
//
// The output is bounded to [-1, 1] and odd-symmetric. Because it holds no
// per-sample state, one Clipper may process any number of channels, in any
// order and from any goroutine, as long as drive is not changed concurrently.
type Clipper struct {
	drive float64
}

// NewClipper returns a clipper with unity drive.
func NewClipper() *Clipper {
	return &Clipper{drive: defaultClipperDrive}
}

// SetDrive sets the input gain applied before shaping, in [0.01, 50].
func (c *Clipper) SetDrive(drive float64) error {
	if drive < MinClipperDrive || drive > MaxClipperDrive || !core.IsFinite(drive) {
		return fmt.Errorf("clipper drive must be in [%g, %g]: %f", MinClipperDrive, MaxClipperDrive, drive)
	}

	c.drive = drive

	return nil
}

// Drive returns the input gain.
func (c *Clipper) Drive() float64 { return c.drive }

// ProcessSample shapes one sample.
func (c *Clipper) ProcessSample(x float64) float64 {
	return Clip(x * c.drive)
}

// ProcessInPlace shapes buf in place.
func (c *Clipper) ProcessInPlace(buf []float64) {
	for i := range buf {
		buf[i] = Clip(buf[i] * c.drive)
	}
}

// ProcessChannels shapes each channel independently.
func (c *Clipper) ProcessChannels(channels [][]float64) {
	for _, ch := range channels {
		c.ProcessInPlace(ch)
	}
}

// Clip applies the clipper curve with unity drive.
func Clip(x float64) float64 {
	if x == 0 || math.IsNaN(x) {
		return 0
	}

	ax := math.Abs(x)
	if math.IsInf(ax, 0) {
		return math.Copysign(1, x)
	}

	y := mathPow(math.Tanh(mathPow(ax, ClipperShape)), 1/ClipperShape)

	return math.Copysign(math.Min(y, 1), x)
}
