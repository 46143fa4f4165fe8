package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"vexere-pipeline/storage"
)

func init() {
	rootCmd.AddCommand(loadCmd)
}

var loadCmd = &cobra.Command{
	Use:   "load <cleaned.csv>...",
	Short: "Loads cleaned trip CSV files into the database.",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore(cmd.Context())
		if err != nil {
			return err
		}
		defer store.Close()

		for _, path := range args {
			trips, stats, err := storage.ReadTrips(path)
			if err != nil {
				return err
			}
			logger.Info("[load] %s: %d rows, %d kept, %d skipped", path, stats.Rows, stats.Kept, stats.SkippedTotal())

			report, err := store.Write(cmd.Context(), trips)
			if err != nil {
				return fmt.Errorf("load %s: %w", path, err)
			}
			fmt.Printf("%s: %d loaded, %d failed\n", path, report.Inserted, report.Failed)
		}
		return nil
	},
}
