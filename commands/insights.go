package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"vexere-pipeline/models"
	"vexere-pipeline/services"
	"vexere-pipeline/storage"
)

var insightsSource string

func init() {
	insightsCmd.Flags().StringVar(&insightsSource, "source", sourceDB, "Where to read trips from: db or csv.")
	rootCmd.AddCommand(insightsCmd)
}

var insightsCmd = &cobra.Command{
	Use:   "insights",
	Short: "Prints descriptive statistics over the collected trips.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		trips, err := loadTrips(cmd, insightsSource)
		if err != nil {
			return err
		}
		svc := services.NewInsightService(logger)
		svc.Print(os.Stdout, svc.Generate(trips))
		return nil
	},
}

const (
	sourceDB  = "db"
	sourceCSV = "csv"
)

// loadTrips reads every cleaned trip from the store or the processed CSV
// directory.
func loadTrips(cmd *cobra.Command, source string) ([]*models.Trip, error) {
	switch source {
	case sourceDB:
		store, err := openStore(cmd.Context())
		if err != nil {
			return nil, err
		}
		defer store.Close()
		return store.FetchTrips(cmd.Context())
	case sourceCSV:
		paths, err := storage.CSVFiles(cfg.Data.ProcessedDir)
		if err != nil {
			return nil, err
		}
		var all []*models.Trip
		for _, p := range paths {
			trips, stats, err := storage.ReadTrips(p)
			if err != nil {
				return nil, err
			}
			if n := stats.SkippedTotal(); n > 0 {
				logger.Warn("[insights] %s: skipped %d malformed rows", p, n)
			}
			all = append(all, trips...)
		}
		return all, nil
	}
	return nil, fmt.Errorf("unknown source %q, want %s or %s", source, sourceDB, sourceCSV)
}
