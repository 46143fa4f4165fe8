package storage

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"vexere-pipeline/models"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func TestCleanedCSVRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "processed", "2025_10_15_cleaned.csv")
	in := []*models.Trip{
		sampleTrip("Phương Trang", "Sài Gòn", "Đà Lạt", "08:00:00"),
		sampleTrip("Thành Bưởi, Limousine", "Sài Gòn", "Đà Lạt", "22:00:00"),
	}

	w, err := NewCSVWriter(path, TripHeader)
	require.NoError(t, err)
	require.NoError(t, w.WriteTrips(in))
	require.NoError(t, w.Close())

	got, stats, err := ReadTrips(path)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Kept)
	assert.Zero(t, stats.SkippedTotal())

	if diff := cmp.Diff(in, got, cmpopts.IgnoreFields(models.Trip{}, "CreatedAt")); diff != "" {
		t.Errorf("ReadTrips (-want +got):\n%s", diff)
	}

	records, rstats, err := ReadTripRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, 1, rstats.Files)
	if diff := cmp.Diff(in[0].Record(), records[0]); diff != "" {
		t.Errorf("ReadTripRecords (-want +got):\n%s", diff)
	}
}

const recordsHeader = "price_original,price_discounted,rating_overall,rating_safety,rating_punctuality," +
	"rating_info_accuracy,rating_staff_attitude,rating_comfort,rating_service_quality,reviewer_count\n"

func TestReadTripRecordsSkipsBadRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	writeFile(t, path, recordsHeader+
		"400000,350000,4.6,4.7,4.8,4.6,4.7,4.5,4.5,500\n"+
		"abc,350000,4.6,4.7,4.8,4.6,4.7,4.5,4.5,500\n"+ // non-numeric price
		"400000,350000,4.6,4.7,4.8,4.6,4.7,4.5,4.5,12.5\n"+ // fractional reviewers
		"0,0,4.6,4.7,4.8,4.6,4.7,4.5,4.5,500\n"+ // zero price
		"300000,0,6.0,4.7,4.8,4.6,4.7,4.5,4.5,500\n"+ // rating out of range
		"250000,0,3.9,3.9,3.9,3.9,3.9,3.9,3.9,0\n")

	records, stats, err := ReadTripRecords(path)
	require.NoError(t, err)
	require.Len(t, records, 2)

	assert.Equal(t, int64(400000), records[0].PriceOriginal)
	assert.Equal(t, 500, records[0].ReviewerCount)
	assert.Zero(t, records[0].DurationMinutes, "duration column is absent")
	assert.Equal(t, int64(250000), records[1].PriceOriginal)

	assert.Equal(t, 6, stats.Rows)
	assert.Equal(t, 2, stats.Kept)
	assert.Equal(t, map[string]int{SkipNonNumeric: 2, SkipInvalid: 2}, stats.Skipped)
}

func TestReadTripRecordsMissingColumn(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	header := strings.Replace(recordsHeader, ",reviewer_count", "", 1)
	writeFile(t, path, header+"400000,350000,4.6,4.7,4.8,4.6,4.7,4.5,4.5\n")

	_, _, err := ReadTripRecords(path)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrMissingColumn), "got %v", err)
	assert.Contains(t, err.Error(), "reviewer_count")
}

func TestReadTripRecordsDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "2025_10_16_cleaned.csv"), recordsHeader+"500000,0,4.0,4,4,4,4,4,4,10\n")
	writeFile(t, filepath.Join(dir, "2025_10_15_cleaned.csv"), recordsHeader+"400000,0,4.0,4,4,4,4,4,4,10\n")
	writeFile(t, filepath.Join(dir, "notes.txt"), "ignored")

	records, stats, err := ReadTripRecordsDir(dir)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Files)
	require.Len(t, records, 2)
	// files are read in name order
	assert.Equal(t, int64(400000), records[0].PriceOriginal)
	assert.Equal(t, int64(500000), records[1].PriceOriginal)

	_, _, err = ReadTripRecordsDir(t.TempDir())
	assert.Error(t, err)
}

func TestClusteredCSVHeader(t *testing.T) {
	path := filepath.Join(t.TempDir(), "clustered.csv")
	w, err := NewCSVWriter(path, ClusteredHeader)
	require.NoError(t, err)
	require.NoError(t, w.WriteClustered([]ClusteredRow{{
		Record:      models.EnrichedRecord{Index: 4, RealPrice: 350000},
		Cluster:     2,
		ClusterName: "Premium",
		PCA:         [2]float64{0.5, -1.25},
	}}))
	require.NoError(t, w.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	require.Len(t, lines, 2)
	assert.Equal(t, strings.Join(ClusteredHeader, ","), lines[0])
	assert.True(t, strings.HasPrefix(lines[1], "4,0,0,350000,"), lines[1])
	assert.True(t, strings.HasSuffix(lines[1], ",2,Premium,0.5,-1.25"), lines[1])
}
