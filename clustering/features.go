// Package clustering derives price/quality signals from trip records and
// groups trips into three price/quality clusters.
//
// Enrich is the only place derived features are computed. Training and
// prediction both go through it so the two never drift apart.
package clustering

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"vexere-pipeline/models"
)

// WilsonZ is the normal quantile for a 95% confidence Wilson bound.
const WilsonZ = 1.96

// Features is the clustering feature set, in column order.
var Features = []string{
	models.FeatureWilsonScore,
	models.FeatureLogPrice,
	models.FeatureFairnessIndex,
	models.FeatureTrustScore,
	models.FeatureServiceScore,
}

// WilsonLowerBound returns the lower bound of the Wilson score interval for
// a proportion p observed over n trials. It is 0 when n is 0.
func WilsonLowerBound(p float64, n int, z float64) float64 {
	if n <= 0 {
		return 0.0
	}
	nf := float64(n)
	z2 := z * z
	denom := 1 + z2/nf
	center := p + z2/(2*nf)
	margin := z * math.Sqrt((p*(1-p)+z2/(4*nf))/nf)
	lb := (center - margin) / denom
	// p=0 and p=1 land a few ulps outside the unit interval.
	return math.Min(1, math.Max(0, lb))
}

// Enrich derives features for every row with a non-zero original price.
// Rows with price_original == 0 are skipped; every output keeps the index of
// its source row.
func Enrich(rows []models.TripRecord) []models.EnrichedRecord {
	out := make([]models.EnrichedRecord, 0, len(rows))
	for i, r := range rows {
		if r.PriceOriginal == 0 {
			continue
		}
		out = append(out, EnrichOne(i, r))
	}
	return out
}

// EnrichOne derives the features of a single record.
func EnrichOne(index int, r models.TripRecord) models.EnrichedRecord {
	e := models.EnrichedRecord{Index: index, TripRecord: r}

	original := float64(r.PriceOriginal)
	discounted := float64(r.PriceDiscounted)

	e.RealPrice = original
	if r.PriceDiscounted != 0 {
		e.RealPrice = discounted
		e.DiscountRate = 1 - discounted/original
	}
	e.LogPrice = math.Log1p(e.RealPrice)

	e.ServiceScore = stat.Mean([]float64{r.RatingStaffAttitude, r.RatingServiceQuality, r.RatingComfort}, nil)
	e.TrustScore = stat.Mean([]float64{r.RatingSafety, r.RatingPunctuality, r.RatingInfoAccuracy}, nil)

	e.WilsonScore = WilsonLowerBound(r.RatingOverall/5.0, r.ReviewerCount, WilsonZ)

	e.PriceRatingRatioStable = safeDiv(e.WilsonScore, e.LogPrice)
	if e.RealPrice > 0 {
		e.FairnessIndex = e.WilsonScore / math.Sqrt(e.RealPrice)
	} else {
		e.FairnessIndex = math.NaN()
	}

	e.PricePerMinute, e.LogPricePerMinute = math.NaN(), math.NaN()
	if r.DurationMinutes > 0 {
		e.PricePerMinute = e.RealPrice / float64(r.DurationMinutes)
		e.LogPricePerMinute = math.Log1p(e.PricePerMinute)
	}
	e.PricePerSeat, e.LogPricePerSeat = math.NaN(), math.NaN()
	if r.NumberOfSeat > 0 {
		e.PricePerSeat = e.RealPrice / float64(r.NumberOfSeat)
		e.LogPricePerSeat = math.Log1p(e.PricePerSeat)
	}

	return e
}

// FeatureVector extracts the named features of e. ok is false when a name is
// unknown or a value is NaN or infinite; missing names the first such feature.
func FeatureVector(e models.EnrichedRecord, names []string) (vec []float64, missing string, ok bool) {
	vec = make([]float64, len(names))
	for j, name := range names {
		v, known := e.Feature(name)
		if !known || math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, name, false
		}
		vec[j] = v
	}
	return vec, "", true
}

func safeDiv(num, den float64) float64 {
	if den == 0 {
		return math.NaN()
	}
	return num / den
}
