package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"cutroom/internal/waveform"
)

var sparkRunes = []rune("▁▂▃▄▅▆▇█")

func newWaveformCommand(ctx *commandContext) *cobra.Command {
	var bins int

	cmd := &cobra.Command{
		Use:   "waveform <source>",
		Short: "Render an audio source's peak profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			width := bins
			if width <= 0 {
				width = cfg.Bins
			}
			decoder := waveform.FFmpegDecoder{
				Binary:     cfg.FFmpegBinary,
				SampleRate: cfg.SampleRate,
			}
			generator := waveform.NewGenerator(decoder, width, logger)
			result := generator.Peaks(cmd.Context(), args[0])

			out := cmd.OutOrStdout()
			fmt.Fprintln(out, sparkline(result.Peaks))
			if result.Placeholder {
				fmt.Fprintln(out, "Source could not be decoded; showing placeholder peaks.")
			} else {
				fmt.Fprintf(out, "Duration: %s\n", formatSeconds(result.Duration))
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&bins, "bins", 0, "Number of peaks to render (defaults to the configured bin count)")
	return cmd
}

func sparkline(peaks []float64) string {
	var sb strings.Builder
	for _, peak := range peaks {
		if peak < 0 {
			peak = 0
		}
		if peak > 1 {
			peak = 1
		}
		idx := int(peak * float64(len(sparkRunes)-1))
		sb.WriteRune(sparkRunes[idx])
	}
	return sb.String()
}
