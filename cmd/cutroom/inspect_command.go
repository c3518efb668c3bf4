package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/media/ffprobe"
)

func newInspectCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "inspect <source>",
		Short: "Inspect a media source's streams and duration",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			if _, err := ctx.ensureLogger(); err != nil {
				return err
			}

			result, err := ffprobe.Inspect(cmd.Context(), cfg.FFprobeBinary, args[0])
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Duration: %s\n", formatSeconds(result.DurationSeconds()))
			fmt.Fprintf(out, "Video streams: %d\n", result.VideoStreamCount())
			if result.HasAudio() {
				fmt.Fprintln(out, "Audio: yes")
			} else {
				fmt.Fprintln(out, "Audio: no")
			}
			return nil
		},
	}
}
