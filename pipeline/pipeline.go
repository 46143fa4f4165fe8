// Package pipeline wires one crawl run end to end: crawl, raw CSV, clean,
// cleaned CSV, store.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/google/uuid"

	"vexere-pipeline/config"
	"vexere-pipeline/models"
	"vexere-pipeline/services"
	"vexere-pipeline/storage"
	"vexere-pipeline/utils"
)

var (
	ErrNoTrips      = errors.New("pipeline: no trips were crawled")
	ErrNothingClean = errors.New("pipeline: every trip was dropped during cleaning")
)

// Crawler collects raw trips for a set of routes.
type Crawler interface {
	Crawl(ctx context.Context, routes []config.Route, runID string) ([]*models.RawTrip, error)
}

// RunReport summarises one pipeline run.
type RunReport struct {
	RunID       string
	Started     time.Time
	Finished    time.Time
	RawTrips    int
	RawPath     string
	CleanedPath string
	Clean       services.CleanStats
	Stored      storage.WriteReport
	// CrawlErr is a partial crawl failure; the run still completed.
	CrawlErr error
}

// Pipeline runs crawl → clean → store.
type Pipeline struct {
	data    config.DataConfig
	routes  []config.Route
	crawler Crawler
	cleaner *services.Cleaner
	// store may be nil, in which case cleaned trips only go to CSV
	store  storage.TripWriter
	logger *utils.Logger

	now      func() time.Time
	newRunID func() string
}

func New(data config.DataConfig, routes []config.Route, crawler Crawler, store storage.TripWriter, logger *utils.Logger) *Pipeline {
	return &Pipeline{
		data:     data,
		routes:   routes,
		crawler:  crawler,
		cleaner:  services.NewCleaner(logger),
		store:    store,
		logger:   logger,
		now:      time.Now,
		newRunID: uuid.NewString,
	}
}

// RawPath is where a run started at t writes its raw CSV.
func (p *Pipeline) RawPath(t time.Time) string {
	return filepath.Join(p.data.RawDir, t.Format("2006_01_02")+"_raw.csv")
}

// CleanedPath is where a run started at t writes its cleaned CSV.
func (p *Pipeline) CleanedPath(t time.Time) string {
	return filepath.Join(p.data.ProcessedDir, t.Format("2006_01_02")+"_cleaned.csv")
}

// Run performs one full crawl. A crawl that returns some trips together
// with an error continues; the error is kept on the report.
func (p *Pipeline) Run(ctx context.Context) (*RunReport, error) {
	report := &RunReport{RunID: p.newRunID(), Started: p.now()}
	p.logger.Info("[pipeline] Run %s starting: %d routes", report.RunID, len(p.routes))

	raw, err := p.crawler.Crawl(ctx, p.routes, report.RunID)
	if err != nil {
		if len(raw) == 0 {
			return report, fmt.Errorf("pipeline: crawl: %w", err)
		}
		p.logger.Warn("[pipeline] Crawl finished with errors: %v", err)
		report.CrawlErr = err
	}
	report.RawTrips = len(raw)
	if len(raw) == 0 {
		return report, ErrNoTrips
	}

	report.RawPath = p.RawPath(report.Started)
	if err := writeCSV(report.RawPath, storage.RawHeader, func(w *storage.CSVWriter) error {
		return w.WriteRaw(raw)
	}); err != nil {
		return report, err
	}
	p.logger.Info("[pipeline] %d raw trips saved to %s", len(raw), report.RawPath)

	clean, stats := p.cleaner.Clean(raw)
	report.Clean = stats
	if len(clean) == 0 {
		return report, ErrNothingClean
	}

	report.CleanedPath = p.CleanedPath(report.Started)
	if err := writeCSV(report.CleanedPath, storage.TripHeader, func(w *storage.CSVWriter) error {
		return w.WriteTrips(clean)
	}); err != nil {
		return report, err
	}
	p.logger.Info("[pipeline] %d cleaned trips saved to %s", len(clean), report.CleanedPath)

	if p.store != nil {
		stored, err := p.store.Write(ctx, clean)
		report.Stored = stored
		if err != nil {
			return report, fmt.Errorf("pipeline: store: %w", err)
		}
	}

	report.Finished = p.now()
	p.logger.Info("[pipeline] Run %s done in %s", report.RunID, report.Finished.Sub(report.Started).Round(time.Second))
	return report, nil
}

func writeCSV(path string, header []string, write func(*storage.CSVWriter) error) error {
	w, err := storage.NewCSVWriter(path, header)
	if err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}
	if err := write(w); err != nil {
		_ = w.Close()
		return fmt.Errorf("pipeline: write %s: %w", path, err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("pipeline: close %s: %w", path, err)
	}
	return nil
}
