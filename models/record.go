package models

import (
	"errors"
	"fmt"
	"math"
)

// ErrMalformedInput marks a row that cannot enter feature engineering.
var ErrMalformedInput = errors.New("malformed input")

// TripRecord is the numeric view of one trip used for scoring and clustering.
// DurationMinutes and NumberOfSeat are optional; zero means absent.
type TripRecord struct {
	PriceOriginal   int64
	PriceDiscounted int64

	RatingOverall        float64
	RatingSafety         float64
	RatingPunctuality    float64
	RatingInfoAccuracy   float64
	RatingStaffAttitude  float64
	RatingComfort        float64
	RatingServiceQuality float64

	ReviewerCount   int
	DurationMinutes int
	NumberOfSeat    int
}

// Validate reports why a record is unusable, wrapping ErrMalformedInput.
func (r TripRecord) Validate() error {
	if r.PriceOriginal <= 0 {
		return fmt.Errorf("%w: price_original must be positive, got %d", ErrMalformedInput, r.PriceOriginal)
	}
	if r.PriceDiscounted < 0 {
		return fmt.Errorf("%w: price_discounted is negative", ErrMalformedInput)
	}
	ratings := []struct {
		name string
		v    float64
	}{
		{"rating_overall", r.RatingOverall},
		{"rating_safety", r.RatingSafety},
		{"rating_punctuality", r.RatingPunctuality},
		{"rating_info_accuracy", r.RatingInfoAccuracy},
		{"rating_staff_attitude", r.RatingStaffAttitude},
		{"rating_comfort", r.RatingComfort},
		{"rating_service_quality", r.RatingServiceQuality},
	}
	for _, rt := range ratings {
		if math.IsNaN(rt.v) || rt.v < 0 || rt.v > 5 {
			return fmt.Errorf("%w: %s out of range [0,5]: %v", ErrMalformedInput, rt.name, rt.v)
		}
	}
	if r.ReviewerCount < 0 || r.DurationMinutes < 0 || r.NumberOfSeat < 0 {
		return fmt.Errorf("%w: negative count", ErrMalformedInput)
	}
	return nil
}

// Feature names produced by enrichment.
const (
	FeatureRealPrice              = "real_price"
	FeatureLogPrice               = "log_price"
	FeatureDiscountRate           = "discount_rate"
	FeatureServiceScore           = "service_score"
	FeatureTrustScore             = "trust_score"
	FeatureWilsonScore            = "wilson_score"
	FeaturePriceRatingRatioStable = "price_rating_ratio_stable"
	FeatureFairnessIndex          = "fairness_index"
	FeaturePricePerMinute         = "price_per_minute"
	FeaturePricePerSeat           = "price_per_seat"
	FeatureLogPricePerMinute      = "log_price_per_minute"
	FeatureLogPricePerSeat        = "log_price_per_seat"
)

// EnrichedRecord is a TripRecord plus the signals derived from it. It is
// produced fresh by every enrichment pass and never mutated afterwards.
// Undefined derived values are NaN.
type EnrichedRecord struct {
	// Index is the position of the source row in the enrichment input.
	Index int
	TripRecord

	RealPrice              float64
	LogPrice               float64
	DiscountRate           float64
	ServiceScore           float64
	TrustScore             float64
	WilsonScore            float64
	PriceRatingRatioStable float64
	FairnessIndex          float64

	PricePerMinute    float64
	PricePerSeat      float64
	LogPricePerMinute float64
	LogPricePerSeat   float64
}

// Feature returns the derived value with the given name.
func (e EnrichedRecord) Feature(name string) (float64, bool) {
	switch name {
	case FeatureRealPrice:
		return e.RealPrice, true
	case FeatureLogPrice:
		return e.LogPrice, true
	case FeatureDiscountRate:
		return e.DiscountRate, true
	case FeatureServiceScore:
		return e.ServiceScore, true
	case FeatureTrustScore:
		return e.TrustScore, true
	case FeatureWilsonScore:
		return e.WilsonScore, true
	case FeaturePriceRatingRatioStable:
		return e.PriceRatingRatioStable, true
	case FeatureFairnessIndex:
		return e.FairnessIndex, true
	case FeaturePricePerMinute:
		return e.PricePerMinute, true
	case FeaturePricePerSeat:
		return e.PricePerSeat, true
	case FeatureLogPricePerMinute:
		return e.LogPricePerMinute, true
	case FeatureLogPricePerSeat:
		return e.LogPricePerSeat, true
	}
	return 0, false
}
