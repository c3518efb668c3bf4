package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/project"
	"cutroom/internal/timeline"
)

func newShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <project-id>",
		Short: "Show a project's timeline",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(store *project.Store) error {
				proj, err := store.GetByID(cmd.Context(), args[0])
				if err != nil {
					return err
				}
				if proj == nil {
					return fmt.Errorf("no project with ID %s", args[0])
				}
				snap, err := store.LoadSnapshot(cmd.Context(), proj.ID)
				if err != nil {
					return err
				}
				printTimeline(cmd, proj.Name, snap)
				return nil
			})
		},
	}
}

func printTimeline(cmd *cobra.Command, name string, snap timeline.Snapshot) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "%s (%s total)\n", name, formatSeconds(snap.TotalDuration()))

	if len(snap.Clips) == 0 {
		fmt.Fprintln(out, "Timeline is empty.")
	} else {
		rows := make([][]string, 0, len(snap.Clips))
		var position float64
		for i, clip := range snap.Clips {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				clip.Title,
				formatSeconds(position),
				formatRange(clip.StartTime, clip.EndTime),
				formatSeconds(clip.TrimmedDuration()),
			})
			position += clip.TrimmedDuration()
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Clip", "At", "Source Range", "Length"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft, alignRight},
		))
	}

	if len(snap.AudioTracks) > 0 {
		rows := make([][]string, 0, len(snap.AudioTracks))
		for i, track := range snap.AudioTracks {
			rows = append(rows, []string{
				fmt.Sprintf("%d", i+1),
				track.Title,
				formatRange(track.StartTime, track.EndTime),
				fmt.Sprintf("%.0f%%", track.Volume*100),
			})
		}
		fmt.Fprintln(out, renderTable(
			[]string{"#", "Audio Track", "Source Range", "Volume"},
			rows,
			[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight},
		))
	}

	if snap.PendingCut != nil {
		fmt.Fprintf(out, "Pending cut: %s %s at %s\n",
			snap.PendingCut.Kind, shortID(snap.PendingCut.TargetID), formatSeconds(snap.PendingCut.Time))
	}
}
