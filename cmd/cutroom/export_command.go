package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cutroom/internal/export"
	"cutroom/internal/logging"
	"cutroom/internal/project"
)

func newExportCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "export <project-id>",
		Short: "Export a project's timeline to a single file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.configValue()
			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

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

				variant, err := export.ResolveBackend(cmd.Context(), cfg, logger)
				if err != nil {
					return err
				}

				out := cmd.OutOrStdout()
				if variant.Kind == export.BackendMock {
					fmt.Fprintln(out, "ffmpeg not available; producing a simulated export")
				}

				tty := isTerminal(out)
				pipeline := export.NewPipeline(cfg, variant, logger)
				run, err := pipeline.Export(cmd.Context(), snap, export.Hooks{
					OnProgress: func(percent int) {
						if tty {
							fmt.Fprintf(out, "\rExporting... %3d%%", percent)
						} else {
							fmt.Fprintf(out, "progress %d%%\n", percent)
						}
					},
				})
				if err != nil {
					return err
				}

				if err := store.BeginExport(cmd.Context(), proj.ID, run.ID(), string(variant.Kind)); err != nil {
					logger.Warn("export history not recorded", logging.Error(err))
				}

				artifact, runErr := run.Wait()
				if tty {
					fmt.Fprintln(out)
				}

				outcome := project.ExportOutcome{State: string(pipeline.State())}
				if runErr != nil {
					outcome.ErrorMessage = runErr.Error()
				} else {
					outcome.ArtifactPath = artifact.Path
					outcome.ContentType = artifact.ContentType
					outcome.SizeBytes = artifact.Size
				}
				if err := store.FinishExport(cmd.Context(), run.ID(), outcome); err != nil {
					logger.Warn("export history not finalized", logging.Error(err))
				}

				if runErr != nil {
					return runErr
				}
				fmt.Fprintf(out, "Export complete: %s (%s, %d bytes)\n", artifact.Path, artifact.ContentType, artifact.Size)
				return nil
			})
		},
	}
}
