package vexere

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"vexere-pipeline/models"
)

func readFixture(t *testing.T, name string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join("testdata", name))
	require.NoError(t, err)
	return string(b)
}

func wantRatings() map[string]string {
	return map[string]string{
		models.RatingTitleSafety:         "4.7",
		models.RatingTitleInfoAccuracy:   "4.5",
		models.RatingTitleStaffAttitude:  "4.8",
		models.RatingTitleComfort:        "4.4",
		models.RatingTitleServiceQuality: "4.6",
		models.RatingTitlePunctuality:    "4.9",
	}
}

func TestParseTripSaleFare(t *testing.T) {
	trip, err := ParseTrip(readFixture(t, "card_sale.html"), readFixture(t, "page.html"))
	require.NoError(t, err)

	want := &models.RawTrip{
		CompanyName:     "Phương Trang (Limousine)",
		BusRating:       "4.6 (1234)",
		SeatType:        "Limousine 34 chỗ",
		StartPoint:      "Sài Gòn",
		Destination:     "Đà Lạt",
		DepartureDate:   "T6, 17/10/2025",
		DepartureTime:   "07:30",
		PickupPoint:     "• BX Miền Đông Mới",
		ArrivalDate:     "(17/10)",
		ArrivalTime:     "14:15",
		DropoffPoint:    "• VP Đà Lạt",
		Duration:        "6h45m",
		PriceOriginal:   "Từ 350.000đ",
		PriceDiscounted: "300.000đ",
		PercentDiscount: "-14%",
		Ratings:         wantRatings(),
	}
	if diff := cmp.Diff(want, trip); diff != "" {
		t.Errorf("ParseTrip (-want +got):\n%s", diff)
	}
}

func TestParseTripRegularFare(t *testing.T) {
	trip, err := ParseTrip(readFixture(t, "card_regular.html"), readFixture(t, "page.html"))
	require.NoError(t, err)

	if trip.PriceOriginal != "450.000đ" {
		t.Errorf("PriceOriginal: got %q, want 450.000đ", trip.PriceOriginal)
	}
	if trip.PriceDiscounted != "" || trip.PercentDiscount != "" {
		t.Errorf("regular fare should have no discount, got %q / %q", trip.PriceDiscounted, trip.PercentDiscount)
	}
	if trip.ArrivalDate != "" {
		t.Errorf("ArrivalDate: got %q, want empty", trip.ArrivalDate)
	}
	if trip.DropoffPoint != "Bến xe Liên tỉnh Đà Lạt" {
		t.Errorf("DropoffPoint: got %q", trip.DropoffPoint)
	}
	if trip.Duration != "7h" {
		t.Errorf("Duration: got %q, want 7h", trip.Duration)
	}
}

func TestParseTripErrors(t *testing.T) {
	page := readFixture(t, "page.html")

	_, err := ParseTrip("", page)
	require.Error(t, err)

	_, err = ParseTrip(`<div class="bus-item"><div class="fare">100.000đ</div></div>`, page)
	require.ErrorIs(t, err, ErrEmptyCard)
}

func TestParseTripWithoutModal(t *testing.T) {
	trip, err := ParseTrip(readFixture(t, "card_regular.html"), `<html><body><input id="from_input" value="Hà Nội"></body></html>`)
	require.NoError(t, err)

	if len(trip.Ratings) != 0 {
		t.Errorf("Ratings: got %v, want empty", trip.Ratings)
	}
	if trip.StartPoint != "Hà Nội" || trip.Destination != "" {
		t.Errorf("route: got %q → %q", trip.StartPoint, trip.Destination)
	}
}
