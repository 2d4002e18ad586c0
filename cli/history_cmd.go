package cli

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/warp/productivity-engine/api"
	"github.com/warp/productivity-engine/attribution"
	"github.com/warp/productivity-engine/generic"
)

func newHistoryCmd(app *App) *cobra.Command {
	var workerID, field, start, end string

	cmd := &cobra.Command{
		Use:   "history",
		Short: "Show the resolved region or work status periods of a worker",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			f := attribution.Field(field)
			if !f.Valid() {
				return fmt.Errorf("%w: field must be region or work_status", generic.ErrInvalidInput)
			}
			from, err := generic.ParseDate(start)
			if err != nil {
				return fmt.Errorf("%w: --start must be YYYY-MM-DD", generic.ErrInvalidInput)
			}
			to, err := generic.ParseDate(end)
			if err != nil {
				return fmt.Errorf("%w: --end must be YYYY-MM-DD", generic.ErrInvalidInput)
			}
			window := generic.Period{Start: from, End: to}

			worker, err := app.Store.GetWorker(ctx, workerID)
			if err != nil {
				return err
			}
			records, err := app.Store.ChangeRecords(ctx, worker.ID, f)
			if err != nil {
				return err
			}
			result, err := attribution.ResolveHistory(worker, f, window, records)
			if err != nil {
				return err
			}
			return app.printJSON(api.NewHistoryDTO(worker.ID, f, window, result))
		},
	}

	cmd.Flags().StringVar(&workerID, "worker", "", "Worker ID")
	cmd.Flags().StringVar(&field, "field", string(attribution.FieldWorkStatus), "Attribute: region or work_status")
	cmd.Flags().StringVar(&start, "start", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&end, "end", "", "Window end date (YYYY-MM-DD)")
	_ = cmd.MarkFlagRequired("worker")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")

	return cmd
}
