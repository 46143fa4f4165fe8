package services

import (
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

func newTestLogger() *utils.Logger { return utils.NewNopLogger() }

var fixedNow = time.Date(2025, 10, 15, 8, 0, 0, 0, time.UTC)

func newTestCleaner() *Cleaner {
	c := NewCleaner(newTestLogger())
	c.now = func() time.Time { return fixedNow }
	return c
}

func rawTrip() *models.RawTrip {
	return &models.RawTrip{
		CompanyName:     "Phương Trang (Limousine)",
		BusRating:       "4.6 (1234)",
		SeatType:        "Limousine 34 chỗ",
		StartPoint:      "Sài Gòn",
		Destination:     "Đà Lạt",
		DepartureDate:   "T6, 17/10/2025",
		DepartureTime:   "7:30",
		PickupPoint:     "BX Miền Đông Mới",
		ArrivalDate:     "(17/10)",
		ArrivalTime:     "14:15",
		DropoffPoint:    "VP Đà Lạt",
		Duration:        "6h45m",
		PriceOriginal:   "Từ 350.000đ",
		PriceDiscounted: "300.000đ",
		PercentDiscount: "-14%",
		Ratings: map[string]string{
			models.RatingTitleSafety:         "4.7",
			models.RatingTitleInfoAccuracy:   "4.5",
			models.RatingTitleStaffAttitude:  "4.8",
			models.RatingTitleComfort:        "4.4",
			models.RatingTitleServiceQuality: "4.6",
			models.RatingTitlePunctuality:    "4.9",
		},
	}
}

func TestCleanerCleanOne(t *testing.T) {
	c := newTestCleaner()
	out, stats := c.Clean([]*models.RawTrip{rawTrip()})
	if len(out) != 1 {
		t.Fatalf("Clean: got %d trips, want 1 (dropped %v)", len(out), stats.Dropped)
	}

	want := &models.Trip{
		CompanyName:            "Phương Trang",
		StartPoint:             "Sài Gòn",
		Destination:            "Đà Lạt",
		DepartureDate:          "2025-10-17",
		DepartureTime:          "07:30:00",
		ArrivalTime:            "14:15:00",
		DurationMinutes:        405,
		PickupPoint:            LocationStation,
		DropoffPoint:           LocationOffice,
		NumberOfSeat:           34,
		PriceOriginal:          350000,
		PriceDiscounted:        300000,
		RatingOverall:          4.6,
		ReviewerCount:          1234,
		RatingSafety:           4.7,
		RatingInfoAccuracy:     4.5,
		RatingInfoCompleteness: 4.6, // missing in the modal, filled from overall
		RatingStaffAttitude:    4.8,
		RatingComfort:          4.4,
		RatingServiceQuality:   4.6,
		RatingPunctuality:      4.9,
		CreatedAt:              fixedNow,
	}
	if diff := cmp.Diff(want, out[0]); diff != "" {
		t.Errorf("Clean (-want +got):\n%s", diff)
	}
	if stats.Input != 1 || stats.Output != 1 || stats.Total() != 0 {
		t.Errorf("stats: got %+v", stats)
	}
}

func TestCleanerRegularFare(t *testing.T) {
	r := rawTrip()
	r.PriceOriginal = "250.000đ"
	r.PriceDiscounted = ""

	out, _ := newTestCleaner().Clean([]*models.RawTrip{r})
	if len(out) != 1 {
		t.Fatalf("Clean: got %d trips, want 1", len(out))
	}
	if out[0].PriceOriginal != 250000 || out[0].PriceDiscounted != 250000 {
		t.Errorf("prices: got %d/%d, want 250000/250000", out[0].PriceOriginal, out[0].PriceDiscounted)
	}
}

func TestCleanerDropReasons(t *testing.T) {
	mutate := func(f func(r *models.RawTrip)) *models.RawTrip {
		r := rawTrip()
		f(r)
		return r
	}

	tests := []struct {
		name   string
		raw    *models.RawTrip
		reason string
	}{
		{"no company", mutate(func(r *models.RawTrip) { r.CompanyName = " " }), DropMissingField},
		{"no rating", mutate(func(r *models.RawTrip) { r.BusRating = "" }), DropBadRating},
		{"rating text", mutate(func(r *models.RawTrip) { r.BusRating = "new (x)" }), DropBadRating},
		{"bad date", mutate(func(r *models.RawTrip) { r.DepartureDate = "tomorrow" }), DropBadDate},
		{"bad time", mutate(func(r *models.RawTrip) { r.DepartureTime = "" }), DropBadTime},
		{"discount above original", mutate(func(r *models.RawTrip) { r.PriceDiscounted = "500.000đ" }), DropDiscountAbove},
		{"no duration", mutate(func(r *models.RawTrip) { r.Duration = "" }), DropNoDuration},
		{"no seats", mutate(func(r *models.RawTrip) { r.SeatType = "Giường nằm" }), DropNoSeats},
		{"no reviews no price", mutate(func(r *models.RawTrip) {
			r.BusRating = "0 (0)"
			r.PriceOriginal = ""
			r.PriceDiscounted = ""
		}), DropNoReviewsPrice},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, stats := newTestCleaner().Clean([]*models.RawTrip{tt.raw})
			if len(out) != 0 {
				t.Fatalf("expected row to be dropped, got %+v", out[0])
			}
			if stats.Dropped[tt.reason] != 1 {
				t.Errorf("Dropped: got %v, want %s=1", stats.Dropped, tt.reason)
			}
		})
	}
}

func TestCleanerDeduplication(t *testing.T) {
	c := newTestCleaner()
	other := rawTrip()
	other.DepartureTime = "22:00"

	out, stats := c.Clean([]*models.RawTrip{rawTrip(), rawTrip(), other})
	if len(out) != 2 {
		t.Errorf("expected 2 trips after deduplication, got %d", len(out))
	}
	if stats.Dropped[DropDuplicate] != 1 {
		t.Errorf("duplicates: got %d, want 1", stats.Dropped[DropDuplicate])
	}
}

func TestParseHelpers(t *testing.T) {
	if got := parseSeats("Giường nằm 40 chỗ (WC)"); got != 40 {
		t.Errorf("parseSeats: got %d, want 40", got)
	}
	if got := parseSeats("Limousine 9 chỗ, 2 tầng"); got != 9 {
		t.Errorf("parseSeats first group: got %d, want 9", got)
	}

	durations := map[string]int{"2h30m": 150, "1h": 60, "45m": 45, "": 0}
	for raw, want := range durations {
		if got := parseDuration(raw); got != want {
			t.Errorf("parseDuration(%q) = %d; want %d", raw, got, want)
		}
	}

	if got, ok := parseDepartureDate("T4, 17/10/2025"); !ok || got != "2025-10-17" {
		t.Errorf("parseDepartureDate: got %q ok=%v", got, ok)
	}
	if got, ok := parseDepartureDate("5/1/2026"); !ok || got != "2026-01-05" {
		t.Errorf("parseDepartureDate without weekday: got %q ok=%v", got, ok)
	}

	if got := parseFare("Từ 1.200.000đ"); got != 1200000 {
		t.Errorf("parseFare: got %d", got)
	}

	locations := map[string]string{
		"Bến xe Giáp Bát": LocationStation,
		"BX Mỹ Đình":      LocationStation,
		"VP Hàng Xanh":    LocationOffice,
		"Văn phòng Q1":    LocationOffice,
		"Ngã tư Hàng Xanh": LocationOther,
	}
	for raw, want := range locations {
		if got := normaliseLocation(raw); got != want {
			t.Errorf("normaliseLocation(%q) = %q; want %q", raw, got, want)
		}
	}

	if got := cleanCompanyName("Hoàng Long  (Ghế ngồi)"); got != "Hoàng Long" {
		t.Errorf("cleanCompanyName: got %q", got)
	}
}

func TestCleanerNormaliseText(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  hello   world  ", "hello world"},
		{"\t tab\n newline ", "tab newline"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := normaliseText(tt.in); got != tt.want {
			t.Errorf("normaliseText(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}
