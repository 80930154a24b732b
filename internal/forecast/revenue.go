package forecast

// LifetimeMonths is the fixed subscriber lifetime used for CLTV.
const LifetimeMonths = 24

// RevenueImpact compares baseline and forecasted monthly revenue.
// PercentChange is nil when the baseline revenue is zero.
type RevenueImpact struct {
	BaselineRevenue   float64  `json:"baseline_revenue"`
	ForecastedRevenue float64  `json:"forecasted_revenue"`
	Delta             float64  `json:"delta"`
	PercentChange     *float64 `json:"percent_change"`
}

// Revenue computes revenue impact from subscriber counts and prices.
// Revenue at the tier level is simply subscribers * price.
func Revenue(forecastedSubscribers int64, newPrice float64, baseSubscribers int64, currentPrice float64) RevenueImpact {
	baseline := float64(baseSubscribers) * currentPrice
	forecasted := float64(forecastedSubscribers) * newPrice
	impact := RevenueImpact{
		BaselineRevenue:   baseline,
		ForecastedRevenue: forecasted,
		Delta:             forecasted - baseline,
	}
	if pct, ok := PercentChange(baseline, forecasted); ok {
		impact.PercentChange = &pct
	}
	return impact
}

// CLTV is ARPU times the fixed lifetime. At the tier level ARPU equals the
// per-subscriber price.
func CLTV(arpu float64) float64 {
	return arpu * LifetimeMonths
}
