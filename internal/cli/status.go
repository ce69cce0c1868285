package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newStatusCommand(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "status [tag]",
		Short: "Show recorded pipeline progress",
		Long: `Show the pipeline stage recorded for a tag, or for every known tag
when no tag is given.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmd.SilenceUsage = true

			if len(args) == 1 {
				stage, err := app.StateReader.GetStage(args[0])
				if err != nil {
					app.Printer.Failure(err.Error())
					return NewExitError(1)
				}
				app.Printer.Info(fmt.Sprintf("%s: %s", args[0], stage))
				return nil
			}

			tags, err := app.StateReader.Tags()
			if err != nil {
				app.Printer.Failure(err.Error())
				return NewExitError(1)
			}
			if len(tags) == 0 {
				app.Printer.Info("no tags recorded")
				return nil
			}
			for _, tag := range tags {
				stage, err := app.StateReader.GetStage(tag)
				if err != nil {
					app.Printer.Failure(err.Error())
					return NewExitError(1)
				}
				app.Printer.Info(fmt.Sprintf("%-20s %s", tag, stage))
			}
			return nil
		},
	}
}
