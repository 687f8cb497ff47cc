// Package offline is a software rendering backend for the engine.
//
// It implements graph.Delegate, transport.Clock and transport.Timer on top
// of the dsp packages and renders mono audio on demand. Two clocks run
// inside it: the audio clock advances only while the backend is running,
// and the timer clock advances with every rendered block, suspended or
// not, standing in for wall time. Timers fire between blocks, so a
// transport driven by this backend schedules notes exactly as it would
// against a real-time device, only faster than real time.
package offline
