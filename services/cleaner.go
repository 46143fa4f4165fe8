package services

import (
	"regexp"
	"sort"
	"strconv"
	"strings"
	"time"
	"unicode"

	"vexere-pipeline/models"
	"vexere-pipeline/utils"
)

var (
	// nonDigitRegexp strips currency symbols, separators and words from fares
	nonDigitRegexp = regexp.MustCompile(`[^0-9]`)
	// seatsRegexp captures the first integer in a seat type, "Giường nằm 40 chỗ" → 40
	seatsRegexp = regexp.MustCompile(`\d+`)
	hoursRegexp = regexp.MustCompile(`(\d+)h`)
	minsRegexp  = regexp.MustCompile(`(\d+)m`)
	// suffixRegexp drops parenthesised suffixes, "Hoàng Long (Ghế ngồi)" → "Hoàng Long"
	suffixRegexp = regexp.MustCompile(`\s*\([^)]+\)`)
)

// Location types produced by normaliseLocation.
const (
	LocationStation = "Bến xe"
	LocationOffice  = "Văn phòng"
	LocationOther   = "Other"
)

// Reasons a raw trip is dropped during cleaning.
const (
	DropMissingField   = "missing_field"
	DropBadRating      = "bad_rating"
	DropBadDate        = "bad_date"
	DropBadTime        = "bad_time"
	DropNoReviewsPrice = "no_reviews_no_price"
	DropDiscountAbove  = "discount_above_original"
	DropNoDuration     = "no_duration"
	DropNoSeats        = "no_seats"
	DropDuplicate      = "duplicate"
)

// CleanStats counts what happened to a batch.
type CleanStats struct {
	Input   int
	Output  int
	Dropped map[string]int
}

// Total returns the number of dropped rows.
func (s CleanStats) Total() int {
	n := 0
	for _, v := range s.Dropped {
		n += v
	}
	return n
}

// Cleaner transforms RawTrips into clean, validated Trips.
type Cleaner struct {
	logger *utils.Logger
	now    func() time.Time
}

// NewCleaner creates a Cleaner with the given logger.
func NewCleaner(logger *utils.Logger) *Cleaner {
	return &Cleaner{logger: logger, now: time.Now}
}

// Clean processes raw trips and returns cleaned records. Rows that fail a
// rule are dropped and counted by reason; a bad row never fails the batch.
func (c *Cleaner) Clean(raw []*models.RawTrip) ([]*models.Trip, CleanStats) {
	stats := CleanStats{Input: len(raw), Dropped: make(map[string]int)}
	seen := make(map[models.Trip]struct{})
	result := make([]*models.Trip, 0, len(raw))

	for _, r := range raw {
		trip, reason := c.cleanOne(r)
		if reason != "" {
			stats.Dropped[reason]++
			c.logger.Debug("[cleaner] Dropping %q (%s): %s", r.CompanyName, r.DepartureTime, reason)
			continue
		}

		if _, dup := seen[*trip]; dup {
			stats.Dropped[DropDuplicate]++
			continue
		}
		seen[*trip] = struct{}{}

		trip.CreatedAt = c.now()
		result = append(result, trip)
	}

	stats.Output = len(result)
	c.logger.Info("[cleaner] Cleaned %d → %d trips (dropped %d)%s",
		stats.Input, stats.Output, stats.Total(), formatDrops(stats.Dropped))
	return result, stats
}

func (c *Cleaner) cleanOne(r *models.RawTrip) (*models.Trip, string) {
	company := cleanCompanyName(r.CompanyName)
	start := normaliseText(r.StartPoint)
	dest := normaliseText(r.Destination)
	if company == "" || start == "" || dest == "" {
		return nil, DropMissingField
	}

	overall, reviewers, ok := parseBusRating(r.BusRating)
	if !ok {
		return nil, DropBadRating
	}

	date, ok := parseDepartureDate(r.DepartureDate)
	if !ok {
		return nil, DropBadDate
	}
	depTime, ok := parseClock(r.DepartureTime)
	if !ok {
		return nil, DropBadTime
	}
	arrTime, ok := parseClock(r.ArrivalTime)
	if !ok {
		return nil, DropBadTime
	}

	original := parseFare(r.PriceOriginal)
	discounted := parseFare(r.PriceDiscounted)
	if discounted == 0 {
		discounted = original
	}

	t := &models.Trip{
		CompanyName:     company,
		StartPoint:      start,
		Destination:     dest,
		DepartureDate:   date,
		DepartureTime:   depTime,
		ArrivalTime:     arrTime,
		DurationMinutes: parseDuration(r.Duration),
		PickupPoint:     normaliseLocation(r.PickupPoint),
		DropoffPoint:    normaliseLocation(r.DropoffPoint),
		NumberOfSeat:    parseSeats(r.SeatType),
		PriceOriginal:   original,
		PriceDiscounted: discounted,
		RatingOverall:   overall,
		ReviewerCount:   reviewers,
	}
	c.fillRatings(t, r.Ratings)

	switch {
	case t.ReviewerCount <= 0 && t.PriceOriginal <= 0:
		return nil, DropNoReviewsPrice
	case t.PriceOriginal < t.PriceDiscounted:
		return nil, DropDiscountAbove
	case t.DurationMinutes <= 0:
		return nil, DropNoDuration
	case t.NumberOfSeat < 1:
		return nil, DropNoSeats
	}
	return t, ""
}

// fillRatings maps modal titles onto rating fields. A missing or unreadable
// sub-rating takes the overall rating.
func (c *Cleaner) fillRatings(t *models.Trip, ratings map[string]string) {
	get := func(title string) float64 {
		v, err := strconv.ParseFloat(strings.TrimSpace(ratings[title]), 64)
		if err != nil || v < 0 || v > 5 {
			return t.RatingOverall
		}
		return v
	}
	t.RatingSafety = get(models.RatingTitleSafety)
	t.RatingInfoAccuracy = get(models.RatingTitleInfoAccuracy)
	t.RatingInfoCompleteness = get(models.RatingTitleInfoCompleteness)
	t.RatingStaffAttitude = get(models.RatingTitleStaffAttitude)
	t.RatingComfort = get(models.RatingTitleComfort)
	t.RatingServiceQuality = get(models.RatingTitleServiceQuality)
	t.RatingPunctuality = get(models.RatingTitlePunctuality)
}

// parseBusRating splits "4.7 (123)" into the overall rating and reviewer count.
func parseBusRating(raw string) (float64, int, bool) {
	fields := strings.Fields(raw)
	if len(fields) < 2 {
		return 0, 0, false
	}
	rating, err := strconv.ParseFloat(strings.Replace(fields[0], ",", ".", 1), 64)
	if err != nil || rating < 0 || rating > 5 {
		return 0, 0, false
	}
	count, err := strconv.Atoi(strings.Trim(fields[1], "()"))
	if err != nil || count < 0 {
		return 0, 0, false
	}
	return rating, count, true
}

// parseFare keeps only digits. "Từ 350.000đ" → 350000, "" → 0.
func parseFare(raw string) int64 {
	digits := nonDigitRegexp.ReplaceAllString(raw, "")
	if digits == "" {
		return 0
	}
	v, err := strconv.ParseInt(digits, 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseSeats(raw string) int {
	m := seatsRegexp.FindString(raw)
	if m == "" {
		return 0
	}
	n, err := strconv.Atoi(m)
	if err != nil {
		return 0
	}
	return n
}

// parseClock turns "7:30" or "07:30" into "07:30:00".
func parseClock(raw string) (string, bool) {
	t, err := time.Parse("15:04", strings.TrimSpace(raw))
	if err != nil {
		return "", false
	}
	return t.Format("15:04:05"), true
}

// parseDepartureDate turns "T4, 17/10/2025" into "2025-10-17".
func parseDepartureDate(raw string) (string, bool) {
	raw = strings.TrimSpace(raw)
	if i := strings.LastIndex(raw, ","); i >= 0 {
		raw = strings.TrimSpace(raw[i+1:])
	}
	d, err := time.Parse("2/1/2006", raw)
	if err != nil {
		return "", false
	}
	return d.Format("2006-01-02"), true
}

// parseDuration turns "2h30m" into 150. Missing parts count as zero.
func parseDuration(raw string) int {
	total := 0
	if m := hoursRegexp.FindStringSubmatch(raw); len(m) == 2 {
		h, _ := strconv.Atoi(m[1])
		total += h * 60
	}
	if m := minsRegexp.FindStringSubmatch(raw); len(m) == 2 {
		mins, _ := strconv.Atoi(m[1])
		total += mins
	}
	return total
}

func cleanCompanyName(raw string) string {
	return normaliseText(suffixRegexp.ReplaceAllString(raw, ""))
}

// normaliseLocation reduces a pickup/dropoff address to its kind.
func normaliseLocation(raw string) string {
	s := strings.ToLower(raw)
	switch {
	case strings.Contains(s, "bx") || strings.Contains(s, "bến xe"):
		return LocationStation
	case strings.Contains(s, "vp") || strings.Contains(s, "văn phòng"):
		return LocationOffice
	default:
		return LocationOther
	}
}

// normaliseText strips leading/trailing whitespace and collapses internal whitespace.
func normaliseText(s string) string {
	s = strings.TrimSpace(s)
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return unicode.IsSpace(r)
	})
	return strings.Join(fields, " ")
}

func formatDrops(dropped map[string]int) string {
	if len(dropped) == 0 {
		return ""
	}
	reasons := make([]string, 0, len(dropped))
	for r := range dropped {
		reasons = append(reasons, r)
	}
	sort.Strings(reasons)

	parts := make([]string, len(reasons))
	for i, r := range reasons {
		parts[i] = r + "=" + strconv.Itoa(dropped[r])
	}
	return " [" + strings.Join(parts, " ") + "]"
}
