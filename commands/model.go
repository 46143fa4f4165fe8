package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"vexere-pipeline/clustering"
	"vexere-pipeline/models"
	"vexere-pipeline/storage"
)

// trainingFlags are shared by every command that fits a model.
type trainingFlags struct {
	source string
	dir    string
}

func (f *trainingFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.source, "source", sourceCSV, "Training data: csv (processed directory) or db.")
	cmd.Flags().StringVar(&f.dir, "dir", "", "CSV directory (defaults to DATA_PROCESSED_DIR).")
}

func (f *trainingFlags) records(cmd *cobra.Command) ([]models.TripRecord, error) {
	switch f.source {
	case sourceCSV:
		dir := f.dir
		if dir == "" {
			dir = cfg.Data.ProcessedDir
		}
		records, stats, err := storage.ReadTripRecordsDir(dir)
		if err != nil {
			return nil, err
		}
		logger.Info("[train] Read %d rows from %d files, kept %d (skipped %v)",
			stats.Rows, stats.Files, stats.Kept, stats.Skipped)
		return records, nil
	case sourceDB:
		trips, err := loadTrips(cmd, sourceDB)
		if err != nil {
			return nil, err
		}
		records := make([]models.TripRecord, 0, len(trips))
		for _, t := range trips {
			r := t.Record()
			if err := r.Validate(); err != nil {
				logger.Debug("[train] Skipping trip %d: %v", t.ID, err)
				continue
			}
			records = append(records, r)
		}
		logger.Info("[train] Read %d trips from the database, kept %d", len(trips), len(records))
		return records, nil
	}
	return nil, fmt.Errorf("unknown source %q, want %s or %s", f.source, sourceCSV, sourceDB)
}

// fitModel loads the training set and fits a model on the standard features.
func (f *trainingFlags) fitModel(cmd *cobra.Command) (*clustering.Model, []models.EnrichedRecord, error) {
	records, err := f.records(cmd)
	if err != nil {
		return nil, nil, err
	}
	enriched := clustering.Enrich(records)

	opts := clustering.DefaultFitOptions()
	opts.Seed = cfg.Model.Seed
	opts.NInit = cfg.Model.NInit
	opts.MaxIter = cfg.Model.MaxIter

	m, err := clustering.Fit(enriched, clustering.Features, opts)
	if err != nil {
		return nil, nil, err
	}
	st := m.Stats()
	logger.Info("[train] Fitted %d clusters on %d distinct rows (%d missing, %d duplicates, %d iterations)",
		clustering.K, st.DistinctRows, st.MissingRows, st.DuplicateRow, st.Iterations)
	return m, enriched, nil
}
