package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-live/backend/offline"
	"github.com/cwbudde/algo-live/dsp/core"
	"github.com/cwbudde/algo-live/engine"
	"github.com/cwbudde/algo-live/patch"
)

var (
	verbose    bool
	patchPath  string
	sampleRate int
	blockSize  int
	fromStep   int
	tempo      float64
)

var rootCmd = &cobra.Command{
	Use:   "algo-live",
	Short: "Declarative live synthesis engine",
	Long: `algo-live renders YAML patches with the live synthesis engine.

A patch describes the node tree below the destination and the transport
settings. Without --patch a built-in demo patch is used.

Examples:
  # Render eight seconds of the demo patch to a WAV file
  algo-live render -d 8 -o demo.wav

  # Stream a patch in real time to a player
  algo-live stream -p song.yaml | aplay -f S16_LE -r 48000 -c 1`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.BoolVarP(&verbose, "verbose", "v", false, "debug logging on stderr")
	flags.StringVarP(&patchPath, "patch", "p", "", "patch YAML file (default: built-in demo)")
	flags.IntVar(&sampleRate, "sample-rate", 48000, "sample rate in Hz")
	flags.IntVar(&blockSize, "block-size", 128, "frames per processing block")
	flags.IntVar(&fromStep, "from-step", 0, "first sequencer step")
	flags.Float64Var(&tempo, "tempo", 0, "tempo override in BPM")

	rootCmd.AddCommand(renderCmd, streamCmd)
}

func newLogger() *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}

	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

func loadPatch() (*patch.Patch, error) {
	if patchPath == "" {
		return patch.Parse([]byte(demoPatch))
	}

	return patch.Load(patchPath)
}

// session is a started engine on an offline backend.
type session struct {
	backend *offline.Backend
	engine  *engine.Engine
	logger  *slog.Logger
}

func startSession() (*session, error) {
	procOpts := []core.ProcessorOption{core.WithSampleRate(float64(sampleRate)), core.WithBlockSize(blockSize)}
	if err := (core.ProcessorConfig{SampleRate: float64(sampleRate), BlockSize: blockSize}).Validate(); err != nil {
		return nil, err
	}

	logger := newLogger()

	p, err := loadPatch()
	if err != nil {
		return nil, err
	}

	b := offline.New(
		offline.WithProcessorOptions(procOpts...),
		offline.WithLogger(logger),
	)

	opts := append(p.EngineOptions(), engine.WithLogger(logger))
	if tempo != 0 {
		opts = append(opts, engine.WithTempo(tempo))
	}

	e, err := engine.New(b, opts...)
	if err != nil {
		return nil, err
	}

	if err := e.Render(p.Root); err != nil {
		return nil, fmt.Errorf("render patch: %w", err)
	}

	if err := e.Start(fromStep); err != nil {
		return nil, err
	}

	logger.Info("session started",
		"sample_rate", sampleRate,
		"block_size", blockSize,
		"tempo", e.Scheduler().Tempo(),
		"nodes", b.Nodes(),
	)

	return &session{backend: b, engine: e, logger: logger}, nil
}

func (s *session) close() {
	if err := s.engine.Close(); err != nil {
		s.logger.Warn("close engine", "error", err)
	}
}
