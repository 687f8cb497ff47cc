package main

import (
	"fmt"
	"os"

	"github.com/cwbudde/wav"
	"github.com/go-audio/audio"
	"github.com/spf13/cobra"

	"github.com/cwbudde/algo-live/measure/level"
	"github.com/cwbudde/algo-live/measure/pitch"
)

var (
	renderOutput   string
	renderDuration float64
	renderReport   bool
)

var renderCmd = &cobra.Command{
	Use:   "render",
	Short: "Render a patch to a mono 16-bit WAV file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		if renderDuration <= 0 || renderDuration > 3600 {
			return fmt.Errorf("duration must be in (0, 3600] seconds: %g", renderDuration)
		}

		s, err := startSession()
		if err != nil {
			return err
		}
		defer s.close()

		samples := make([]float64, s.backend.Config().Frames(renderDuration))
		s.backend.Render(samples)

		if err := s.engine.Err(); err != nil {
			return fmt.Errorf("transport stopped: %w", err)
		}

		if err := writeWAV(renderOutput, samples, sampleRate); err != nil {
			return err
		}

		s.logger.Info("wrote output", "path", renderOutput, "frames", len(samples))

		if renderReport {
			return report(cmd, samples)
		}

		return nil
	},
}

func init() {
	renderCmd.Flags().StringVarP(&renderOutput, "output", "o", "output.wav", "output WAV file")
	renderCmd.Flags().Float64VarP(&renderDuration, "duration", "d", 8, "duration in seconds")
	renderCmd.Flags().BoolVar(&renderReport, "report", false, "print level and pitch statistics")
}

func writeWAV(path string, samples []float64, rate int) error {
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create output: %w", err)
	}
	defer file.Close()

	data := make([]float32, len(samples))
	for i, x := range samples {
		data[i] = float32(x)
	}

	encoder := wav.NewEncoder(file, rate, 16, 1, 1)

	buf := &audio.Float32Buffer{
		Format: &audio.Format{
			SampleRate:  rate,
			NumChannels: 1,
		},
		Data:           data,
		SourceBitDepth: 16,
	}

	if err := encoder.Write(buf); err != nil {
		return fmt.Errorf("write WAV: %w", err)
	}

	if err := encoder.Close(); err != nil {
		return fmt.Errorf("finish WAV: %w", err)
	}

	return nil
}

func report(cmd *cobra.Command, samples []float64) error {
	st := level.Calculate(samples)
	out := cmd.OutOrStdout()

	fmt.Fprintf(out, "frames:      %d\n", st.Length)
	fmt.Fprintf(out, "peak:        %.4f (%.2f dBFS)\n", st.Peak, st.Peak_dB)
	fmt.Fprintf(out, "rms:         %.4f (%.2f dBFS)\n", st.RMS, st.RMS_dB)
	fmt.Fprintf(out, "crest:       %.2f dB\n", st.CrestFactor_dB)

	if st.Silent {
		return nil
	}

	res, err := pitch.Dominant(samples, pitch.Config{SampleRate: float64(sampleRate)})
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "dominant:    %.2f Hz\n", res.Frequency)

	return nil
}
