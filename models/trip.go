package models

import "time"

// Rating titles as they appear in the vexere rating modal.
const (
	RatingTitleSafety           = "An toàn"
	RatingTitleInfoAccuracy     = "Thông tin chính xác"
	RatingTitleInfoCompleteness = "Thông tin đầy đủ"
	RatingTitleStaffAttitude    = "Thái độ nhân viên"
	RatingTitleComfort          = "Tiện nghi & thoải mái"
	RatingTitleServiceQuality   = "Chất lượng dịch vụ"
	RatingTitlePunctuality      = "Đúng giờ"
)

// RatingTitles lists the modal titles in CSV column order.
var RatingTitles = []string{
	RatingTitleSafety,
	RatingTitleInfoAccuracy,
	RatingTitleInfoCompleteness,
	RatingTitleStaffAttitude,
	RatingTitleComfort,
	RatingTitleServiceQuality,
	RatingTitlePunctuality,
}

// RawTrip holds unprocessed scraped data directly from the browser.
// This is written to CSV before any cleaning or transformation.
type RawTrip struct {
	RunID string

	CompanyName string
	BusRating   string // "4.7 (123)"
	SeatType    string

	StartPoint    string
	Destination   string
	DepartureDate string // "T4, 17/10/2025"
	DepartureTime string
	PickupPoint   string
	ArrivalDate   string
	ArrivalTime   string
	DropoffPoint  string
	Duration      string // "2h30m"

	PriceOriginal   string
	PriceDiscounted string
	PercentDiscount string

	// Ratings maps modal titles to their raw score text.
	Ratings map[string]string

	ScrapedAt time.Time
}

// Key identifies a scheduled departure. Two cards with the same key are the
// same trip rendered twice.
func (r *RawTrip) Key() string {
	return r.CompanyName + "|" + r.StartPoint + "|" + r.Destination + "|" +
		r.DepartureDate + "|" + r.DepartureTime + "|" + r.PickupPoint + "|" + r.SeatType
}

// Trip is the cleaned, validated record ready for storage.
type Trip struct {
	ID          int64
	CompanyName string
	StartPoint  string
	Destination string

	DepartureDate   string // YYYY-MM-DD
	DepartureTime   string // HH:MM:SS
	ArrivalTime     string // HH:MM:SS
	DurationMinutes int
	PickupPoint     string
	DropoffPoint    string
	NumberOfSeat    int

	PriceOriginal   int64
	PriceDiscounted int64

	RatingOverall          float64
	ReviewerCount          int
	RatingSafety           float64
	RatingInfoAccuracy     float64
	RatingInfoCompleteness float64
	RatingStaffAttitude    float64
	RatingComfort          float64
	RatingServiceQuality   float64
	RatingPunctuality      float64

	CreatedAt time.Time
}

// Record projects a cleaned trip onto the numeric columns used for scoring.
func (t *Trip) Record() TripRecord {
	return TripRecord{
		PriceOriginal:        t.PriceOriginal,
		PriceDiscounted:      t.PriceDiscounted,
		RatingOverall:        t.RatingOverall,
		RatingSafety:         t.RatingSafety,
		RatingPunctuality:    t.RatingPunctuality,
		RatingInfoAccuracy:   t.RatingInfoAccuracy,
		RatingStaffAttitude:  t.RatingStaffAttitude,
		RatingComfort:        t.RatingComfort,
		RatingServiceQuality: t.RatingServiceQuality,
		ReviewerCount:        t.ReviewerCount,
		DurationMinutes:      t.DurationMinutes,
		NumberOfSeat:         t.NumberOfSeat,
	}
}

// RealPrice is the price a passenger actually pays.
func (t *Trip) RealPrice() int64 {
	if t.PriceDiscounted != 0 {
		return t.PriceDiscounted
	}
	return t.PriceOriginal
}

// CompanyScore summarises one bus company in an insight report.
type CompanyScore struct {
	CompanyName   string
	RatingOverall float64
	ReviewerCount int
	WilsonScore   float64
	Trips         int
}

// InsightReport holds the computed analytics over the cleaned dataset.
type InsightReport struct {
	TotalTrips       int
	Companies        int
	AverageRealPrice float64
	MinRealPrice     int64
	MaxRealPrice     int64
	AverageDiscount  float64
	MostExpensive    *Trip
	TopCompanies     []CompanyScore
	TripsByRoute     map[string]int
}
