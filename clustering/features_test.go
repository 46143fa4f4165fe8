package clustering

import (
	"math"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"

	"vexere-pipeline/models"
)

func sampleRecord() models.TripRecord {
	return models.TripRecord{
		PriceOriginal:        400000,
		PriceDiscounted:      350000,
		RatingOverall:        4.6,
		RatingSafety:         4.7,
		RatingInfoAccuracy:   4.6,
		RatingStaffAttitude:  4.7,
		RatingComfort:        4.5,
		RatingServiceQuality: 4.5,
		RatingPunctuality:    4.8,
		ReviewerCount:        500,
	}
}

func TestRealPrice(t *testing.T) {
	discounted := sampleRecord()
	e := EnrichOne(0, discounted)
	if e.RealPrice != 350000 {
		t.Errorf("RealPrice: got %v, want 350000", e.RealPrice)
	}
	if want := 1 - 350000.0/400000.0; math.Abs(e.DiscountRate-want) > 1e-12 {
		t.Errorf("DiscountRate: got %v, want %v", e.DiscountRate, want)
	}

	full := sampleRecord()
	full.PriceDiscounted = 0
	e = EnrichOne(0, full)
	if e.RealPrice != 400000 {
		t.Errorf("RealPrice without discount: got %v, want 400000", e.RealPrice)
	}
	if e.DiscountRate != 0 {
		t.Errorf("DiscountRate without discount: got %v, want 0", e.DiscountRate)
	}
}

func TestDerivedScores(t *testing.T) {
	e := EnrichOne(0, sampleRecord())

	if want := math.Log1p(350000); e.LogPrice != want {
		t.Errorf("LogPrice: got %v, want %v", e.LogPrice, want)
	}
	if want := (4.7 + 4.5 + 4.5) / 3; math.Abs(e.ServiceScore-want) > 1e-12 {
		t.Errorf("ServiceScore: got %v, want %v", e.ServiceScore, want)
	}
	if want := (4.7 + 4.8 + 4.6) / 3; math.Abs(e.TrustScore-want) > 1e-12 {
		t.Errorf("TrustScore: got %v, want %v", e.TrustScore, want)
	}
	if want := e.WilsonScore / math.Sqrt(350000); math.Abs(e.FairnessIndex-want) > 1e-15 {
		t.Errorf("FairnessIndex: got %v, want %v", e.FairnessIndex, want)
	}
	if want := e.WilsonScore / e.LogPrice; math.Abs(e.PriceRatingRatioStable-want) > 1e-15 {
		t.Errorf("PriceRatingRatioStable: got %v, want %v", e.PriceRatingRatioStable, want)
	}
	if !math.IsNaN(e.PricePerMinute) || !math.IsNaN(e.PricePerSeat) {
		t.Errorf("extended features should be NaN without duration/seats, got %v / %v", e.PricePerMinute, e.PricePerSeat)
	}
}

func TestExtendedFeatures(t *testing.T) {
	r := sampleRecord()
	r.DurationMinutes = 350
	r.NumberOfSeat = 35
	e := EnrichOne(0, r)

	if e.PricePerMinute != 1000 {
		t.Errorf("PricePerMinute: got %v, want 1000", e.PricePerMinute)
	}
	if e.PricePerSeat != 10000 {
		t.Errorf("PricePerSeat: got %v, want 10000", e.PricePerSeat)
	}
	if e.LogPricePerMinute != math.Log1p(1000) {
		t.Errorf("LogPricePerMinute: got %v", e.LogPricePerMinute)
	}
	if e.LogPricePerSeat != math.Log1p(10000) {
		t.Errorf("LogPricePerSeat: got %v", e.LogPricePerSeat)
	}
}

func TestWilsonLowerBound(t *testing.T) {
	if got := WilsonLowerBound(0.9, 0, WilsonZ); got != 0.0 {
		t.Errorf("n=0: got %v, want exactly 0", got)
	}

	for _, n := range []int{0, 1, 2, 5, 10, 100, 1000, 100000} {
		for p := 0.0; p <= 1.0; p += 0.05 {
			got := WilsonLowerBound(p, n, WilsonZ)
			if got < 0 || got > 1 || math.IsNaN(got) {
				t.Errorf("WilsonLowerBound(%v, %d): got %v, want value in [0,1]", p, n, got)
			}
		}
		for _, p := range []float64{0, 1} {
			got := WilsonLowerBound(p, n, WilsonZ)
			if got < 0 || got > 1 {
				t.Errorf("WilsonLowerBound(%v, %d): got %v, want value in [0,1]", p, n, got)
			}
		}
	}

	few := WilsonLowerBound(0.92, 10, WilsonZ)
	many := WilsonLowerBound(0.92, 1000, WilsonZ)
	if !(many > few) {
		t.Errorf("more reviews should tighten the bound: n=10 %v, n=1000 %v", few, many)
	}
	if many >= 0.92 {
		t.Errorf("lower bound should stay below p: got %v", many)
	}
}

func TestEnrichSkipsZeroPrice(t *testing.T) {
	zero := sampleRecord()
	zero.PriceOriginal = 0
	rows := []models.TripRecord{sampleRecord(), zero, sampleRecord()}

	out := Enrich(rows)
	if len(out) != 2 {
		t.Fatalf("Enrich: got %d rows, want 2", len(out))
	}
	if out[0].Index != 0 || out[1].Index != 2 {
		t.Errorf("indices: got %d,%d want 0,2", out[0].Index, out[1].Index)
	}
}

func TestEnrichIsRepeatable(t *testing.T) {
	r := sampleRecord()
	r.DurationMinutes = 300
	rows := []models.TripRecord{sampleRecord(), r, {PriceOriginal: 250000, RatingOverall: 3.9, ReviewerCount: 0}}

	first := Enrich(rows)
	second := Enrich(rows)
	if diff := cmp.Diff(first, second, cmpopts.EquateNaNs()); diff != "" {
		t.Errorf("Enrich not repeatable (-first +second):\n%s", diff)
	}
}

func TestFeatureVector(t *testing.T) {
	e := EnrichOne(3, sampleRecord())

	vec, missing, ok := FeatureVector(e, Features)
	if !ok {
		t.Fatalf("FeatureVector: unexpected missing %q", missing)
	}
	want := []float64{e.WilsonScore, e.LogPrice, e.FairnessIndex, e.TrustScore, e.ServiceScore}
	if diff := cmp.Diff(want, vec); diff != "" {
		t.Errorf("FeatureVector (-want +got):\n%s", diff)
	}

	_, missing, ok = FeatureVector(e, []string{models.FeatureLogPrice, models.FeaturePricePerSeat})
	if ok || missing != models.FeaturePricePerSeat {
		t.Errorf("FeatureVector: got ok=%v missing=%q, want missing %q", ok, missing, models.FeaturePricePerSeat)
	}

	_, missing, ok = FeatureVector(e, []string{"no_such_feature"})
	if ok || missing != "no_such_feature" {
		t.Errorf("unknown feature: got ok=%v missing=%q", ok, missing)
	}
}
