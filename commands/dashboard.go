package commands

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"vexere-pipeline/tui"
	"vexere-pipeline/utils"
)

var (
	dashboardFlags trainingFlags
	dashboardLog   string
)

func init() {
	dashboardFlags.register(dashboardCmd)
	dashboardCmd.Flags().StringVar(&dashboardLog, "log", filepath.Join("data", "dashboard.log"), "Log file; the terminal belongs to the dashboard.")
	rootCmd.AddCommand(dashboardCmd)
}

var dashboardCmd = &cobra.Command{
	Use:   "dashboard",
	Short: "Fits the clustering and opens an interactive form to score trips.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		fileLogger, err := utils.NewFileLogger(dashboardLog, cfg.Log.Level)
		if err != nil {
			return err
		}
		defer fileLogger.Sync()
		// training logs go to the file too
		logger = fileLogger

		m, _, err := dashboardFlags.fitModel(cmd)
		if err != nil {
			return err
		}
		return tui.Run(m, fileLogger)
	},
}
