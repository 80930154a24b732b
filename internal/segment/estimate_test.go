package segment

import (
	"errors"
	"math"
	"testing"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
)

func testRecords() []Record {
	return []Record{
		{CompositeKey: "organic|heavy|premium", Tier: elasticity.TierAdFree, SubscriberCount: 250_000, AvgChurnRate: 0.020, AvgARPU: 11.99},
		{CompositeKey: "organic|moderate|standard", Tier: elasticity.TierAdFree, SubscriberCount: 200_000, AvgChurnRate: 0.032, AvgARPU: 9.99},
		{CompositeKey: "paid|light|standard", Tier: elasticity.TierAdFree, SubscriberCount: 150_000, AvgChurnRate: 0.045, AvgARPU: 9.99},
		{CompositeKey: "organic|heavy|standard", Tier: elasticity.TierAdSupported, SubscriberCount: 400_000, AvgChurnRate: 0.040, AvgARPU: 5.99},
	}
}

func TestEstimateDirectImpact(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "heavy",
		CurrentPrice:  9.99,
		NewPrice:      10.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got.FallbackToBase {
		t.Fatal("heavy should match a composite key")
	}
	if got.Axis != AxisEngagement {
		t.Fatalf("heavy is the engagement component, got axis %q", got.Axis)
	}
	if got.CompositeKey != "organic|heavy|premium" {
		t.Fatalf("expected first sorted match, got %q", got.CompositeKey)
	}
	if got.Elasticity != -0.9 {
		t.Fatalf("expected engagement elasticity -0.9, got %v", got.Elasticity)
	}
	if got.Baseline.Subscribers != 250_000 {
		t.Fatalf("baseline should cover only matched records, got %d", got.Baseline.Subscribers)
	}

	priceChange := 10.99/9.99 - 1
	wantDemand := -0.9 * priceChange
	if math.Abs(got.DemandChangePct-wantDemand*100) > 1e-9 {
		t.Fatalf("demand change mismatch: %v != %v", got.DemandChangePct, wantDemand*100)
	}
	wantSubs := int64(math.Round(250_000 * (1 + wantDemand)))
	if got.Forecasted.Subscribers != wantSubs {
		t.Fatalf("forecast subscribers mismatch: %d != %d", got.Forecasted.Subscribers, wantSubs)
	}
	wantChurn := 0.020 * (1 + -0.9*0.15*priceChange)
	if math.Abs(got.Forecasted.ChurnRate-wantChurn) > 1e-12 {
		t.Fatalf("churn pass-through mismatch: %v != %v", got.Forecasted.ChurnRate, wantChurn)
	}
}

func TestEstimateAxisOverride(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "heavy",
		Axis:          AxisMonetization,
		CurrentPrice:  9.99,
		NewPrice:      10.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got.Elasticity != -1.3 {
		t.Fatalf("override should select the monetization value, got %v", got.Elasticity)
	}
}

func TestEstimateFallsBackToBaseElasticity(t *testing.T) {
	table := elasticity.DefaultTable()
	records := append(testRecords(), Record{
		CompositeKey: "winback|light|discount", Tier: elasticity.TierAdFree,
		SubscriberCount: 50_000, AvgChurnRate: 0.060, AvgARPU: 7.99,
	})
	got, err := Estimate(table, records, Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "winback",
		CurrentPrice:  9.99,
		NewPrice:      10.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if !got.FallbackToBase {
		t.Fatal("winback has no ad_free composite entry; expected base fallback")
	}
	if got.Elasticity != -1.7 {
		t.Fatalf("expected ad_free base elasticity -1.7, got %v", got.Elasticity)
	}
}

func TestEstimateWeightedBaseline(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "standard",
		CurrentPrice:  9.99,
		NewPrice:      9.49,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got.Baseline.Subscribers != 350_000 {
		t.Fatalf("standard matches two segments totaling 350k, got %d", got.Baseline.Subscribers)
	}
	wantChurn := (200_000*0.032 + 150_000*0.045) / 350_000
	if math.Abs(got.Baseline.ChurnRate-wantChurn) > 1e-12 {
		t.Fatalf("weighted churn mismatch: %v != %v", got.Baseline.ChurnRate, wantChurn)
	}
	if math.Abs(got.Baseline.ARPU-9.99) > 1e-9 {
		t.Fatalf("both standard segments share ARPU 9.99, got %v", got.Baseline.ARPU)
	}
}

func TestMigrationCapAndDirection(t *testing.T) {
	table := elasticity.DefaultTable()
	// +40% price on a sensitive segment forces the cap.
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "light",
		CurrentPrice:  9.99,
		NewPrice:      13.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got.Migration.Rate != migrationCap {
		t.Fatalf("migration rate should be capped at %v, got %v", migrationCap, got.Migration.Rate)
	}
	maxTotal := int64(math.Round(float64(got.Baseline.Subscribers) * migrationCap))
	if got.Migration.Total > maxTotal {
		t.Fatalf("migration total %d exceeds 10%% cap %d", got.Migration.Total, maxTotal)
	}
	for _, s := range got.Migration.Spillover {
		if s.Delta > 0 {
			t.Fatalf("price increase must produce non-positive spillover deltas, got %+v", s)
		}
	}

	decrease, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "light",
		CurrentPrice:  9.99,
		NewPrice:      7.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	for _, s := range decrease.Migration.Spillover {
		if s.Delta < 0 {
			t.Fatalf("price decrease must produce non-negative spillover deltas, got %+v", s)
		}
	}
}

func TestSpilloverShares(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "premium",
		CurrentPrice:  9.99,
		NewPrice:      11.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if len(got.Migration.Spillover) != 2 {
		t.Fatalf("expected spillover over 2 non-target segments, got %d", len(got.Migration.Spillover))
	}
	var shareSum float64
	for _, s := range got.Migration.Spillover {
		shareSum += s.Share
	}
	if math.Abs(shareSum-1.0) > 1e-9 {
		t.Fatalf("shares should sum to 1, got %v", shareSum)
	}
}

func TestTierRollup(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "premium",
		CurrentPrice:  9.99,
		NewPrice:      10.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if got.TierRollup.BaselineSubscribers != 600_000 {
		t.Fatalf("tier baseline should sum all ad_free segments, got %d", got.TierRollup.BaselineSubscribers)
	}
	var spillSum int64
	for _, s := range got.Migration.Spillover {
		spillSum += s.Delta
	}
	targetDelta := got.Forecasted.Subscribers - got.Baseline.Subscribers
	want := got.TierRollup.BaselineSubscribers + targetDelta + spillSum
	if got.TierRollup.ForecastedSubscribers != want {
		t.Fatalf("rollup subscribers mismatch: %d != %d", got.TierRollup.ForecastedSubscribers, want)
	}
	wantARPU := got.TierRollup.ForecastedRevenue / float64(got.TierRollup.ForecastedSubscribers)
	if math.Abs(got.TierRollup.ForecastedARPU-wantARPU) > 1e-9 {
		t.Fatalf("rollup ARPU mismatch: %v != %v", got.TierRollup.ForecastedARPU, wantARPU)
	}
}

func TestEstimateErrors(t *testing.T) {
	table := elasticity.DefaultTable()
	if _, err := Estimate(table, testRecords(), Input{Tier: elasticity.TierAdFree, CurrentPrice: 9.99, NewPrice: 10.99}); err == nil {
		t.Fatal("empty target segment must be rejected")
	}
	if _, err := Estimate(table, testRecords(), Input{Tier: elasticity.TierAdFree, TargetSegment: "heavy", CurrentPrice: 0, NewPrice: 10.99}); err == nil {
		t.Fatal("zero current price must be rejected")
	}
	_, err := Estimate(table, testRecords(), Input{
		Tier: elasticity.TierAnnual, TargetSegment: "heavy",
		CurrentPrice: 74.99, NewPrice: 79.99,
	})
	var nde *NoDataError
	if !errors.As(err, &nde) {
		t.Fatalf("tier without segment rows should yield NoDataError, got %v", err)
	}
}

func TestSegmentWarnings(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Estimate(table, testRecords(), Input{
		Tier:          elasticity.TierAdFree,
		TargetSegment: "light",
		CurrentPrice:  9.99,
		NewPrice:      13.99,
	})
	if err != nil {
		t.Fatalf("estimate failed: %v", err)
	}
	if len(got.Warnings) < 2 {
		t.Fatalf("a 40%% increase on a sensitive segment should warn on price and demand, got %v", got.Warnings)
	}
}
