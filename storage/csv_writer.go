package storage

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"vexere-pipeline/models"
)

// Column names of the cleaned trip CSV. Training and loading read them back.
const (
	ColCompanyName            = "company_name"
	ColStartPoint             = "start_point"
	ColDestination            = "destination"
	ColDepartureDate          = "departure_date"
	ColDepartureTime          = "departure_time"
	ColArrivalTime            = "arrival_time"
	ColDurationMinutes        = "duration_minutes"
	ColPickupPoint            = "pickup_point"
	ColDropoffPoint           = "dropoff_point"
	ColNumberOfSeat           = "number_of_seat"
	ColPriceOriginal          = "price_original"
	ColPriceDiscounted        = "price_discounted"
	ColRatingOverall          = "rating_overall"
	ColReviewerCount          = "reviewer_count"
	ColRatingSafety           = "rating_safety"
	ColRatingInfoAccuracy     = "rating_info_accuracy"
	ColRatingInfoCompleteness = "rating_info_completeness"
	ColRatingStaffAttitude    = "rating_staff_attitude"
	ColRatingComfort          = "rating_comfort"
	ColRatingServiceQuality   = "rating_service_quality"
	ColRatingPunctuality      = "rating_punctuality"
)

// TripHeader is the header of the cleaned trip CSV.
var TripHeader = []string{
	ColCompanyName, ColStartPoint, ColDestination, ColDepartureDate, ColDepartureTime,
	ColArrivalTime, ColDurationMinutes, ColPickupPoint, ColDropoffPoint, ColNumberOfSeat,
	ColPriceOriginal, ColPriceDiscounted, ColRatingOverall, ColReviewerCount,
	ColRatingSafety, ColRatingInfoAccuracy, ColRatingInfoCompleteness, ColRatingStaffAttitude,
	ColRatingComfort, ColRatingServiceQuality, ColRatingPunctuality,
}

// RawHeader is the header of the raw crawl CSV. Rating columns keep the
// titles shown in the rating modal.
var RawHeader = append([]string{
	"run_id", ColCompanyName, "bus_rating", "seat_type", ColStartPoint, ColDestination,
	ColDepartureDate, ColDepartureTime, ColPickupPoint, "arrival_date", ColArrivalTime,
	ColDropoffPoint, "duration", ColPriceOriginal, ColPriceDiscounted, "percent_discount",
}, append(append([]string{}, models.RatingTitles...), "scraped_at")...)

// ClusteredHeader is the header of the training output CSV.
var ClusteredHeader = []string{
	"row", ColPriceOriginal, ColPriceDiscounted, "real_price", "log_price",
	"wilson_score", "fairness_index", "trust_score", "service_score",
	"cluster", "cluster_name", "pca_1", "pca_2",
}

// ClusteredRow is one training row with its cluster and 2D projection.
type ClusteredRow struct {
	Record      models.EnrichedRecord
	Cluster     int
	ClusterName string
	PCA         [2]float64
}

// CSVWriter writes rows to a CSV file. It is safe for concurrent use.
type CSVWriter struct {
	mu     sync.Mutex
	path   string
	file   *os.File
	writer *csv.Writer
}

// NewCSVWriter creates (or truncates) the CSV file at the given path and
// writes the header row. Intermediate directories are created automatically.
func NewCSVWriter(path string, header []string) (*CSVWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("csv: create output dir: %w", err)
	}

	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("csv: create file %q: %w", path, err)
	}

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("csv: write header: %w", err)
	}
	w.Flush()

	return &CSVWriter{path: path, file: f, writer: w}, nil
}

// Path returns the file being written.
func (c *CSVWriter) Path() string { return c.path }

// WriteRaw appends raw crawled trips.
func (c *CSVWriter) WriteRaw(trips []*models.RawTrip) error {
	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		row := []string{
			t.RunID, t.CompanyName, t.BusRating, t.SeatType, t.StartPoint, t.Destination,
			t.DepartureDate, t.DepartureTime, t.PickupPoint, t.ArrivalDate, t.ArrivalTime,
			t.DropoffPoint, t.Duration, t.PriceOriginal, t.PriceDiscounted, t.PercentDiscount,
		}
		for _, title := range models.RatingTitles {
			row = append(row, t.Ratings[title])
		}
		row = append(row, t.ScrapedAt.Format(time.RFC3339))
		rows = append(rows, row)
	}
	return c.writeRows(rows)
}

// WriteTrips appends cleaned trips.
func (c *CSVWriter) WriteTrips(trips []*models.Trip) error {
	rows := make([][]string, 0, len(trips))
	for _, t := range trips {
		rows = append(rows, []string{
			t.CompanyName, t.StartPoint, t.Destination, t.DepartureDate, t.DepartureTime,
			t.ArrivalTime, strconv.Itoa(t.DurationMinutes), t.PickupPoint, t.DropoffPoint,
			strconv.Itoa(t.NumberOfSeat),
			strconv.FormatInt(t.PriceOriginal, 10), strconv.FormatInt(t.PriceDiscounted, 10),
			formatFloat(t.RatingOverall), strconv.Itoa(t.ReviewerCount),
			formatFloat(t.RatingSafety), formatFloat(t.RatingInfoAccuracy),
			formatFloat(t.RatingInfoCompleteness), formatFloat(t.RatingStaffAttitude),
			formatFloat(t.RatingComfort), formatFloat(t.RatingServiceQuality),
			formatFloat(t.RatingPunctuality),
		})
	}
	return c.writeRows(rows)
}

// WriteClustered appends training rows with their cluster assignment.
func (c *CSVWriter) WriteClustered(rows []ClusteredRow) error {
	out := make([][]string, 0, len(rows))
	for _, r := range rows {
		e := r.Record
		out = append(out, []string{
			strconv.Itoa(e.Index),
			strconv.FormatInt(e.PriceOriginal, 10), strconv.FormatInt(e.PriceDiscounted, 10),
			formatFloat(e.RealPrice), formatFloat(e.LogPrice),
			formatFloat(e.WilsonScore), formatFloat(e.FairnessIndex),
			formatFloat(e.TrustScore), formatFloat(e.ServiceScore),
			strconv.Itoa(r.Cluster), r.ClusterName,
			formatFloat(r.PCA[0]), formatFloat(r.PCA[1]),
		})
	}
	return c.writeRows(out)
}

func (c *CSVWriter) writeRows(rows [][]string) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, row := range rows {
		if err := c.writer.Write(row); err != nil {
			return fmt.Errorf("csv: write row: %w", err)
		}
	}
	c.writer.Flush()
	return c.writer.Error()
}

// Close flushes and closes the underlying file.
func (c *CSVWriter) Close() error {
	c.writer.Flush()
	return c.file.Close()
}

func formatFloat(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
