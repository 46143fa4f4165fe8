package storage

import (
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"

	"vexere-pipeline/models"
)

// ErrMissingColumn is returned when a CSV lacks a required column.
var ErrMissingColumn = errors.New("missing required column")

// Reasons a CSV row is skipped.
const (
	SkipNonNumeric = "non_numeric"
	SkipInvalid    = "invalid"
)

// ReadStats counts rows read and skipped across one or more files.
type ReadStats struct {
	Files   int
	Rows    int
	Kept    int
	Skipped map[string]int
}

func newReadStats() ReadStats {
	return ReadStats{Skipped: make(map[string]int)}
}

// SkippedTotal returns the number of rows skipped for any reason.
func (s ReadStats) SkippedTotal() int {
	n := 0
	for _, v := range s.Skipped {
		n += v
	}
	return n
}

// RecordColumns are the numeric columns every training file must carry.
var RecordColumns = []string{
	ColPriceOriginal, ColPriceDiscounted, ColRatingOverall,
	ColRatingSafety, ColRatingPunctuality, ColRatingInfoAccuracy,
	ColRatingStaffAttitude, ColRatingComfort, ColRatingServiceQuality,
	ColReviewerCount,
}

// optional extended columns
var extendedColumns = []string{ColDurationMinutes, ColNumberOfSeat}

func loadFrame(path string) (dataframe.DataFrame, error) {
	f, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("csv: open %q: %w", path, err)
	}
	defer f.Close()

	// Everything is read as text; numeric coercion happens per column so a
	// stray value drops one row instead of retyping the whole column.
	df := dataframe.ReadCSV(f,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(false),
		dataframe.DefaultType(series.String),
	)
	if df.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("csv: read %q: %w", path, df.Err)
	}
	return df, nil
}

func requireColumns(df dataframe.DataFrame, path string, cols []string) error {
	have := make(map[string]bool, len(df.Names()))
	for _, n := range df.Names() {
		have[n] = true
	}
	for _, c := range cols {
		if !have[c] {
			return fmt.Errorf("csv: %q: %w %q", path, ErrMissingColumn, c)
		}
	}
	return nil
}

func hasColumn(df dataframe.DataFrame, name string) bool {
	for _, n := range df.Names() {
		if n == name {
			return true
		}
	}
	return false
}

// ReadTripRecords loads the numeric training columns from one or more cleaned
// CSV files. Rows with a non-numeric required value or failing validation are
// skipped and counted; a file missing a required column is an error.
func ReadTripRecords(paths ...string) ([]models.TripRecord, ReadStats, error) {
	stats := newReadStats()
	var out []models.TripRecord

	for _, path := range paths {
		df, err := loadFrame(path)
		if err != nil {
			return nil, stats, err
		}
		if err := requireColumns(df, path, RecordColumns); err != nil {
			return nil, stats, err
		}
		stats.Files++

		cols := make(map[string][]float64)
		for _, c := range RecordColumns {
			cols[c] = df.Col(c).Float()
		}
		for _, c := range extendedColumns {
			if hasColumn(df, c) {
				cols[c] = df.Col(c).Float()
			}
		}

		for i := 0; i < df.Nrow(); i++ {
			stats.Rows++
			rec, ok := recordAt(cols, i)
			if !ok {
				stats.Skipped[SkipNonNumeric]++
				continue
			}
			if err := rec.Validate(); err != nil {
				stats.Skipped[SkipInvalid]++
				continue
			}
			out = append(out, rec)
		}
	}
	stats.Kept = len(out)
	return out, stats, nil
}

func recordAt(cols map[string][]float64, i int) (models.TripRecord, bool) {
	for _, c := range RecordColumns {
		if v := cols[c][i]; math.IsNaN(v) || math.IsInf(v, 0) {
			return models.TripRecord{}, false
		}
	}
	reviewers := cols[ColReviewerCount][i]
	if reviewers != math.Trunc(reviewers) {
		return models.TripRecord{}, false
	}

	rec := models.TripRecord{
		PriceOriginal:        int64(cols[ColPriceOriginal][i]),
		PriceDiscounted:      int64(cols[ColPriceDiscounted][i]),
		RatingOverall:        cols[ColRatingOverall][i],
		RatingSafety:         cols[ColRatingSafety][i],
		RatingPunctuality:    cols[ColRatingPunctuality][i],
		RatingInfoAccuracy:   cols[ColRatingInfoAccuracy][i],
		RatingStaffAttitude:  cols[ColRatingStaffAttitude][i],
		RatingComfort:        cols[ColRatingComfort][i],
		RatingServiceQuality: cols[ColRatingServiceQuality][i],
		ReviewerCount:        int(reviewers),
	}
	// extended columns stay zero (absent) when missing or unreadable
	if v, ok := cols[ColDurationMinutes]; ok && !math.IsNaN(v[i]) && v[i] > 0 {
		rec.DurationMinutes = int(v[i])
	}
	if v, ok := cols[ColNumberOfSeat]; ok && !math.IsNaN(v[i]) && v[i] > 0 {
		rec.NumberOfSeat = int(v[i])
	}
	return rec, true
}

// CSVFiles lists the .csv files in dir in name order.
func CSVFiles(dir string) ([]string, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.csv"))
	if err != nil {
		return nil, fmt.Errorf("csv: list %q: %w", dir, err)
	}
	sort.Strings(paths)
	return paths, nil
}

// ReadTripRecordsDir reads every CSV file in dir.
func ReadTripRecordsDir(dir string) ([]models.TripRecord, ReadStats, error) {
	paths, err := CSVFiles(dir)
	if err != nil {
		return nil, newReadStats(), err
	}
	if len(paths) == 0 {
		return nil, newReadStats(), fmt.Errorf("csv: no csv files in %q", dir)
	}
	return ReadTripRecords(paths...)
}

// ReadTrips loads a cleaned trip CSV back into trips, e.g. to load it into
// the store. Malformed rows are skipped and counted.
func ReadTrips(path string) ([]*models.Trip, ReadStats, error) {
	stats := newReadStats()
	df, err := loadFrame(path)
	if err != nil {
		return nil, stats, err
	}
	if err := requireColumns(df, path, TripHeader); err != nil {
		return nil, stats, err
	}
	stats.Files = 1

	cols := make(map[string][]string, len(TripHeader))
	for _, c := range TripHeader {
		cols[c] = df.Col(c).Records()
	}

	var trips []*models.Trip
	for i := 0; i < df.Nrow(); i++ {
		stats.Rows++
		t, err := tripAt(cols, i)
		if err != nil {
			stats.Skipped[SkipNonNumeric]++
			continue
		}
		if err := t.Record().Validate(); err != nil {
			stats.Skipped[SkipInvalid]++
			continue
		}
		trips = append(trips, t)
	}
	stats.Kept = len(trips)
	return trips, stats, nil
}

func tripAt(cols map[string][]string, i int) (*models.Trip, error) {
	p := &rowParser{cols: cols, i: i}
	t := &models.Trip{
		CompanyName:            cols[ColCompanyName][i],
		StartPoint:             cols[ColStartPoint][i],
		Destination:            cols[ColDestination][i],
		DepartureDate:          cols[ColDepartureDate][i],
		DepartureTime:          cols[ColDepartureTime][i],
		ArrivalTime:            cols[ColArrivalTime][i],
		DurationMinutes:        p.asInt(ColDurationMinutes),
		PickupPoint:            cols[ColPickupPoint][i],
		DropoffPoint:           cols[ColDropoffPoint][i],
		NumberOfSeat:           p.asInt(ColNumberOfSeat),
		PriceOriginal:          p.asInt64(ColPriceOriginal),
		PriceDiscounted:        p.asInt64(ColPriceDiscounted),
		RatingOverall:          p.asFloat(ColRatingOverall),
		ReviewerCount:          p.asInt(ColReviewerCount),
		RatingSafety:           p.asFloat(ColRatingSafety),
		RatingInfoAccuracy:     p.asFloat(ColRatingInfoAccuracy),
		RatingInfoCompleteness: p.asFloat(ColRatingInfoCompleteness),
		RatingStaffAttitude:    p.asFloat(ColRatingStaffAttitude),
		RatingComfort:          p.asFloat(ColRatingComfort),
		RatingServiceQuality:   p.asFloat(ColRatingServiceQuality),
		RatingPunctuality:      p.asFloat(ColRatingPunctuality),
	}
	if p.err != nil {
		return nil, p.err
	}
	return t, nil
}

// rowParser converts cells of one row, keeping the first error.
type rowParser struct {
	cols map[string][]string
	i    int
	err  error
}

func (p *rowParser) asFloat(col string) float64 {
	v, err := strconv.ParseFloat(p.cols[col][p.i], 64)
	if err != nil && p.err == nil {
		p.err = fmt.Errorf("%s: %w", col, err)
	}
	return v
}

func (p *rowParser) asInt64(col string) int64 {
	v := p.asFloat(col)
	if v != math.Trunc(v) && p.err == nil {
		p.err = fmt.Errorf("%s: not an integer: %v", col, v)
	}
	return int64(v)
}

func (p *rowParser) asInt(col string) int {
	return int(p.asInt64(col))
}
