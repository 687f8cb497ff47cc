package main

import (
	"bufio"
	"context"
	"encoding/binary"
	"fmt"
	"math"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"
)

var streamDuration float64

var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Stream a patch as raw signed 16-bit little-endian mono PCM on stdout",
	Long: `Stream renders the patch block by block, paced by the wall clock, and
writes raw PCM to stdout until interrupted or until --duration elapses.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer cancel()

		s, err := startSession()
		if err != nil {
			return err
		}
		defer s.close()

		return stream(ctx, s, bufio.NewWriter(cmd.OutOrStdout()))
	},
}

func init() {
	streamCmd.Flags().Float64VarP(&streamDuration, "duration", "d", 0, "stop after this many seconds (0 streams until interrupted)")
}

func stream(ctx context.Context, s *session, w *bufio.Writer) error {
	block := make([]float64, blockSize)
	pcm := make([]byte, 2*blockSize)

	ticker := time.NewTicker(s.backend.Config().BlockPeriod())
	defer ticker.Stop()

	total := int64(s.backend.Config().Frames(streamDuration))
	written := int64(0)

	for total == 0 || written < total {
		select {
		case <-ctx.Done():
			return w.Flush()
		case <-ticker.C:
		}

		s.backend.Render(block)

		for i, x := range block {
			v := int16(math.Round(math.Max(-1, math.Min(1, x)) * math.MaxInt16))
			binary.LittleEndian.PutUint16(pcm[2*i:], uint16(v))
		}

		if _, err := w.Write(pcm); err != nil {
			return fmt.Errorf("write stream: %w", err)
		}

		if err := w.Flush(); err != nil {
			return fmt.Errorf("flush stream: %w", err)
		}

		written += int64(len(block))

		if err := s.engine.Err(); err != nil {
			return fmt.Errorf("transport stopped: %w", err)
		}
	}

	return w.Flush()
}
