package forecast

import (
	"errors"
	"math"
	"testing"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
)

func TestDemandReferenceScenario(t *testing.T) {
	// ad_supported 5.99 -> 6.99, 1M subscribers, elasticity -2.1.
	got, err := Demand(5.99, 6.99, 1_000_000, -2.1)
	if err != nil {
		t.Fatalf("demand failed: %v", err)
	}
	want := int64(math.Round(1_000_000 * math.Pow(6.99/5.99, -2.1)))
	if diff := got.ForecastedSubscribers - want; diff < -1 || diff > 1 {
		t.Fatalf("expected %d subscribers (+-1), got %d", want, got.ForecastedSubscribers)
	}
	if got.ForecastedSubscribers >= got.BaseSubscribers {
		t.Fatal("price increase must reduce demand for negative elasticity")
	}
	if got.PriceRatio <= 1.166 || got.PriceRatio >= 1.168 {
		t.Fatalf("unexpected price ratio %v", got.PriceRatio)
	}
}

func TestDemandDirection(t *testing.T) {
	up, err := Demand(9.99, 11.99, 500_000, -1.7)
	if err != nil {
		t.Fatalf("demand failed: %v", err)
	}
	if up.ForecastedSubscribers >= up.BaseSubscribers {
		t.Fatal("price increase should shrink subscribers")
	}
	down, err := Demand(9.99, 7.99, 500_000, -1.7)
	if err != nil {
		t.Fatalf("demand failed: %v", err)
	}
	if down.ForecastedSubscribers <= down.BaseSubscribers {
		t.Fatal("price decrease should grow subscribers")
	}
}

func TestDemandNoPriceChange(t *testing.T) {
	got, err := Demand(5.99, 5.99, 123_456, -2.1)
	if err != nil {
		t.Fatalf("demand failed: %v", err)
	}
	if got.ForecastedSubscribers != 123_456 {
		t.Fatalf("no price change should keep demand, got %d", got.ForecastedSubscribers)
	}
	if got.PercentChange != 0 {
		t.Fatalf("expected zero percent change, got %v", got.PercentChange)
	}
}

func TestDemandRejectsZeroInputs(t *testing.T) {
	cases := []struct {
		name         string
		current, new float64
		subscribers  int64
		elasticity   float64
	}{
		{"currentPrice", 0, 6.99, 1000, -2.1},
		{"newPrice", 5.99, 0, 1000, -2.1},
		{"baseSubscribers", 5.99, 6.99, 0, -2.1},
		{"elasticity", 5.99, 6.99, 1000, 0},
	}
	for _, tc := range cases {
		_, err := Demand(tc.current, tc.new, tc.subscribers, tc.elasticity)
		var mpe *MissingParameterError
		if !errors.As(err, &mpe) {
			t.Fatalf("%s: expected MissingParameterError, got %v", tc.name, err)
		}
		if mpe.Parameter != tc.name {
			t.Fatalf("expected parameter %q, got %q", tc.name, mpe.Parameter)
		}
	}
}

func TestChurnLinearModel(t *testing.T) {
	table := elasticity.DefaultTable()
	// ad_supported churn coefficient 0.8, +10% price, 4% baseline churn.
	got, err := Churn(table, elasticity.TierAdSupported, 0.10, 0.04)
	if err != nil {
		t.Fatalf("churn failed: %v", err)
	}
	want := 0.04 * (1 + 0.8*0.10)
	if math.Abs(got.Forecasted-want) > 1e-12 {
		t.Fatalf("expected %v, got %v", want, got.Forecasted)
	}
	if got.Clamped {
		t.Fatal("in-range churn should not clamp")
	}
}

func TestChurnClampsToUnitInterval(t *testing.T) {
	table := elasticity.DefaultTable()
	got, err := Churn(table, elasticity.TierAdSupported, -2.0, 0.04)
	if err != nil {
		t.Fatalf("churn failed: %v", err)
	}
	if got.Forecasted != 0 || !got.Clamped {
		t.Fatalf("expected clamp to zero, got %+v", got)
	}
	if got.Change != -0.04 {
		t.Fatalf("change should track the clamped value, got %v", got.Change)
	}
}

func TestChurnUnknownTier(t *testing.T) {
	table := elasticity.DefaultTable()
	_, err := Churn(table, elasticity.Tier("vip"), 0.1, 0.04)
	var ute *elasticity.UnknownTierError
	if !errors.As(err, &ute) {
		t.Fatalf("expected UnknownTierError, got %v", err)
	}
}

func TestAcquisitionFloor(t *testing.T) {
	table := elasticity.DefaultTable()
	// Coefficient -1.2; a large price increase can push acquisitions negative.
	got, err := Acquisition(table, elasticity.TierAdSupported, 1.0, 50_000)
	if err != nil {
		t.Fatalf("acquisition failed: %v", err)
	}
	if got.Forecasted != 0 || !got.Clamped {
		t.Fatalf("expected floor at zero, got %+v", got)
	}
}

func TestRevenueRoundTrip(t *testing.T) {
	got := Revenue(742_000, 6.99, 1_000_000, 5.99)
	if got.ForecastedRevenue != 742_000*6.99 {
		t.Fatalf("forecasted revenue must equal subscribers*price, got %v", got.ForecastedRevenue)
	}
	if got.BaselineRevenue != 1_000_000*5.99 {
		t.Fatalf("unexpected baseline revenue %v", got.BaselineRevenue)
	}
	if got.PercentChange == nil {
		t.Fatal("percent change should be defined for non-zero baseline")
	}
}

func TestRevenueZeroBaseline(t *testing.T) {
	got := Revenue(100, 5.0, 0, 5.0)
	if got.PercentChange != nil {
		t.Fatalf("percent change must be undefined for zero baseline, got %v", *got.PercentChange)
	}
}

func TestPercentChangeGuard(t *testing.T) {
	if _, ok := PercentChange(0, 10); ok {
		t.Fatal("zero baseline must report undefined")
	}
	v, ok := PercentChange(200, 150)
	if !ok || v != -25 {
		t.Fatalf("expected -25, got %v ok=%v", v, ok)
	}
}

func TestCLTV(t *testing.T) {
	if got := CLTV(6.99); got != 6.99*24 {
		t.Fatalf("unexpected CLTV %v", got)
	}
}

func TestTimeSeriesShape(t *testing.T) {
	demand, err := Demand(5.99, 6.99, 1_000_000, -2.1)
	if err != nil {
		t.Fatalf("demand failed: %v", err)
	}
	table := elasticity.DefaultTable()
	churn, err := Churn(table, elasticity.TierAdSupported, demand.PriceChangePct/100, 0.045)
	if err != nil {
		t.Fatalf("churn failed: %v", err)
	}

	series := ProjectTimeSeries(demand, churn, 6.99, 12)
	if len(series) != 13 {
		t.Fatalf("expected 13 points, got %d", len(series))
	}
	if series[0].Month != 0 || series[0].Subscribers != demand.BaseSubscribers {
		t.Fatalf("month 0 must hold the baseline, got %+v", series[0])
	}
	for m := 3; m <= 12; m++ {
		if series[m].Subscribers != demand.ForecastedSubscribers {
			t.Fatalf("month %d should be fully ramped: %d != %d", m, series[m].Subscribers, demand.ForecastedSubscribers)
		}
		if math.Abs(series[m].ChurnRate-churn.Forecasted) > 1e-12 {
			t.Fatalf("month %d churn not fully ramped", m)
		}
	}
	if series[1].Subscribers == demand.BaseSubscribers || series[1].Subscribers == demand.ForecastedSubscribers {
		t.Fatal("month 1 should be mid-ramp")
	}
	for m := 1; m <= 12; m++ {
		want := float64(series[m].Subscribers) * 6.99
		if series[m].Revenue != want {
			t.Fatalf("month %d revenue %v != subscribers*price %v", m, series[m].Revenue, want)
		}
	}
}

func TestTimeSeriesDefaultHorizon(t *testing.T) {
	demand, _ := Demand(9.99, 8.99, 100_000, -1.7)
	series := ProjectTimeSeries(demand, RateForecast{Baseline: 0.03, Forecasted: 0.03}, 8.99, 0)
	if len(series) != DefaultHorizonMonths+1 {
		t.Fatalf("expected default horizon, got %d points", len(series))
	}
}
