package forecast

import "math"

// DemandForecast is the output of the constant-elasticity demand model
// Q1 = Q0 * (P1/P0)^e.
type DemandForecast struct {
	BaseSubscribers       int64   `json:"base_subscribers"`
	ForecastedSubscribers int64   `json:"forecasted_subscribers"`
	Change                int64   `json:"change"`
	PercentChange         float64 `json:"percent_change"`
	PriceRatio            float64 `json:"price_ratio"`
	PriceChangePct        float64 `json:"price_change_pct"`
}

// Demand projects subscriber count for a price move. All inputs must be
// non-zero; elasticity is expected to be negative (demand falls as price
// rises) but the sign is not enforced here.
func Demand(currentPrice, newPrice float64, baseSubscribers int64, elasticity float64) (DemandForecast, error) {
	switch {
	case currentPrice <= 0:
		return DemandForecast{}, &MissingParameterError{Parameter: "currentPrice"}
	case newPrice <= 0:
		return DemandForecast{}, &MissingParameterError{Parameter: "newPrice"}
	case baseSubscribers <= 0:
		return DemandForecast{}, &MissingParameterError{Parameter: "baseSubscribers"}
	case elasticity == 0:
		return DemandForecast{}, &MissingParameterError{Parameter: "elasticity"}
	}

	ratio := newPrice / currentPrice
	forecasted := int64(math.Round(float64(baseSubscribers) * math.Pow(ratio, elasticity)))
	change := forecasted - baseSubscribers
	return DemandForecast{
		BaseSubscribers:       baseSubscribers,
		ForecastedSubscribers: forecasted,
		Change:                change,
		PercentChange:         float64(change) / float64(baseSubscribers) * 100,
		PriceRatio:            ratio,
		PriceChangePct:        (ratio - 1) * 100,
	}, nil
}

// PercentChange computes (forecasted-baseline)/baseline*100. The second
// return is false when the baseline is zero and the ratio is undefined.
func PercentChange(baseline, forecasted float64) (float64, bool) {
	if baseline == 0 {
		return 0, false
	}
	return (forecasted - baseline) / baseline * 100, true
}
