package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/productivity-engine/api"
)

func newSeedCmd(app *App) *cobra.Command {
	var scenario string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Load a demo dataset (status-change, region-move, target-override, all)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := api.LoadScenario(cmd.Context(), app.Store, scenario); err != nil {
				return err
			}
			fmt.Fprintf(app.Out, "loaded %s for %s\n", scenario, api.ScenarioWindow)
			return nil
		},
	}

	cmd.Flags().StringVar(&scenario, "scenario", "all", "Scenario ID")
	return cmd
}

func newSnapshotCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Record the report run for the last closed week if it is missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			scheduler := api.NewReportScheduler(app.Engine, app.Store, app.Logger)
			run, err := scheduler.RunNow(cmd.Context())
			if err != nil {
				return err
			}
			if run == nil {
				fmt.Fprintln(app.Out, "last closed week already recorded")
				return nil
			}
			return app.printJSON(api.NewReportRunDTO(*run))
		},
	}
}
