package commands

import (
	"github.com/spf13/cobra"
)

var cronSpec string

func init() {
	scheduleCmd.Flags().StringVar(&cronSpec, "cron", "", "Cron expression (defaults to SCHEDULE_CRON).")
	rootCmd.AddCommand(scheduleCmd)
}

var scheduleCmd = &cobra.Command{
	Use:   "schedule",
	Short: "Runs the pipeline on a cron schedule until interrupted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		spec := cronSpec
		if spec == "" {
			spec = cfg.Schedule.Cron
		}
		p, closeStore, err := newPipeline(cmd)
		if err != nil {
			return err
		}
		defer closeStore()
		return p.Schedule(cmd.Context(), spec)
	},
}
