package cli

import (
	"github.com/spf13/cobra"
	"github.com/warp/productivity-engine/api"
	"github.com/warp/productivity-engine/attribution"
)

type reportFlags struct {
	start     string
	end       string
	mode      string
	groupBy   string
	region    string
	workerIDs []string
}

func (f *reportFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.start, "start", "", "Window start date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.end, "end", "", "Window end date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&f.mode, "mode", string(attribution.ModeWeekly), "Report mode: weekly, monthly or yearly")
	cmd.Flags().StringVar(&f.groupBy, "group-by", string(attribution.GroupByRegion), "Grouping: region or overall")
	cmd.Flags().StringVar(&f.region, "region", "", "Only workers whose predominant region matches")
	cmd.Flags().StringSliceVar(&f.workerIDs, "worker", nil, "Restrict to these worker IDs (repeatable)")
	_ = cmd.MarkFlagRequired("start")
	_ = cmd.MarkFlagRequired("end")
}

func (f *reportFlags) request() (attribution.ReportRequest, error) {
	return api.ReportRequestDTO{
		StartDate: f.start,
		EndDate:   f.end,
		Mode:      f.mode,
		GroupBy:   f.groupBy,
		Region:    f.region,
		WorkerIDs: f.workerIDs,
	}.ToRequest()
}

func newRunCmd(app *App) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Generate a report for one window and print it as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			report, err := app.Engine.Report(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.printJSON(api.NewReportDTO(report))
		},
	}

	flags.register(cmd)
	return cmd
}

func newTrendCmd(app *App) *cobra.Command {
	var flags reportFlags

	cmd := &cobra.Command{
		Use:   "trend",
		Short: "Generate one report per week, month or year of the window",
		RunE: func(cmd *cobra.Command, args []string) error {
			req, err := flags.request()
			if err != nil {
				return err
			}

			reports, err := app.Engine.Trend(cmd.Context(), req)
			if err != nil {
				return err
			}
			return app.printJSON(api.NewTrendDTO(req, reports))
		},
	}

	flags.register(cmd)
	return cmd
}
