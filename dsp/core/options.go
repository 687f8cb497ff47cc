package core

import (
	"fmt"
	"time"
)

// Sample rate and block size limits accepted by the rendering backends.
const (
	MinSampleRate = 8000
	MaxSampleRate = 384000
	MinBlockSize  = 16
	MaxBlockSize  = 8192
)

// ProcessorConfig holds the render rate and block size shared by the
// backend, its processors and the command-line front end.
type ProcessorConfig struct {
	SampleRate float64
	BlockSize  int
}

// ProcessorOption mutates a ProcessorConfig.
type ProcessorOption func(*ProcessorConfig)

// DefaultProcessorConfig returns the defaults used by the rendering backends.
func DefaultProcessorConfig() ProcessorConfig {
	return ProcessorConfig{
		SampleRate: 48000,
		BlockSize:  128,
	}
}

// WithSampleRate sets the render sample rate. Non-positive values are ignored.
func WithSampleRate(sampleRate float64) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if sampleRate > 0 {
			cfg.SampleRate = sampleRate
		}
	}
}

// WithBlockSize sets the frames rendered per block. Non-positive values are ignored.
func WithBlockSize(blockSize int) ProcessorOption {
	return func(cfg *ProcessorConfig) {
		if blockSize > 0 {
			cfg.BlockSize = blockSize
		}
	}
}

// ApplyProcessorOptions applies zero or more options to the default config.
func ApplyProcessorOptions(opts ...ProcessorOption) ProcessorConfig {
	cfg := DefaultProcessorConfig()
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	return cfg
}

// Validate reports whether the rate and block size are within the
// supported limits.
func (c ProcessorConfig) Validate() error {
	if c.SampleRate < MinSampleRate || c.SampleRate > MaxSampleRate || !IsFinite(c.SampleRate) {
		return fmt.Errorf("sample rate must be in [%d, %d]: %g", MinSampleRate, MaxSampleRate, c.SampleRate)
	}

	if c.BlockSize < MinBlockSize || c.BlockSize > MaxBlockSize {
		return fmt.Errorf("block size must be in [%d, %d]: %d", MinBlockSize, MaxBlockSize, c.BlockSize)
	}

	return nil
}

// Seconds converts a frame count to audio time.
func (c ProcessorConfig) Seconds(frames int64) float64 {
	return float64(frames) / c.SampleRate
}

// Frames converts audio time to a whole number of frames, rounding down.
func (c ProcessorConfig) Frames(seconds float64) int {
	if seconds <= 0 {
		return 0
	}

	return int(seconds * c.SampleRate)
}

// BlockDuration returns the audio time covered by one block.
func (c ProcessorConfig) BlockDuration() float64 {
	return float64(c.BlockSize) / c.SampleRate
}

// BlockPeriod returns BlockDuration as a wall-clock period.
func (c ProcessorConfig) BlockPeriod() time.Duration {
	return time.Duration(c.BlockDuration() * float64(time.Second))
}
