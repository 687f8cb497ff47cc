package core

import (
	"testing"
	"time"
)

func TestApplyProcessorOptions(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(96000), WithBlockSize(256))
	if cfg.SampleRate != 96000 {
		t.Fatalf("sample rate = %v, want 96000", cfg.SampleRate)
	}

	if cfg.BlockSize != 256 {
		t.Fatalf("block size = %d, want 256", cfg.BlockSize)
	}
}

func TestInvalidOptionsIgnored(t *testing.T) {
	cfg := ApplyProcessorOptions(WithSampleRate(0), WithBlockSize(-1), nil)

	def := DefaultProcessorConfig()
	if cfg != def {
		t.Fatalf("cfg = %#v, want %#v", cfg, def)
	}
}

func TestProcessorConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     ProcessorConfig
		wantErr bool
	}{
		{name: "default", cfg: DefaultProcessorConfig()},
		{name: "lowest", cfg: ProcessorConfig{SampleRate: MinSampleRate, BlockSize: MinBlockSize}},
		{name: "rate too low", cfg: ProcessorConfig{SampleRate: 4000, BlockSize: 128}, wantErr: true},
		{name: "rate too high", cfg: ProcessorConfig{SampleRate: 768000, BlockSize: 128}, wantErr: true},
		{name: "block too small", cfg: ProcessorConfig{SampleRate: 48000, BlockSize: 8}, wantErr: true},
		{name: "block too large", cfg: ProcessorConfig{SampleRate: 48000, BlockSize: 16384}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestProcessorConfigTime(t *testing.T) {
	cfg := ProcessorConfig{SampleRate: 8000, BlockSize: 80}

	if got := cfg.Seconds(4000); got != 0.5 {
		t.Fatalf("Seconds(4000) = %v, want 0.5", got)
	}

	if got := cfg.Frames(0.25); got != 2000 {
		t.Fatalf("Frames(0.25) = %d, want 2000", got)
	}

	if got := cfg.Frames(-1); got != 0 {
		t.Fatalf("Frames(-1) = %d, want 0", got)
	}

	if got := cfg.BlockDuration(); got != 0.01 {
		t.Fatalf("BlockDuration() = %v, want 0.01", got)
	}

	if got := cfg.BlockPeriod(); got != 10*time.Millisecond {
		t.Fatalf("BlockPeriod() = %v, want 10ms", got)
	}
}
