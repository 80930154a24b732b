package forecast

import "math"

// rampMonths is when the full price effect is reached; the trajectory is a
// linear ramp until then and flat afterwards.
const rampMonths = 3

// DefaultHorizonMonths is the standard projection window.
const DefaultHorizonMonths = 12

type TimeSeriesPoint struct {
	Month       int     `json:"month"`
	Subscribers int64   `json:"subscribers"`
	Revenue     float64 `json:"revenue"`
	ChurnRate   float64 `json:"churn_rate"`
}

// ProjectTimeSeries produces months 0..months. Month 0 is the baseline
// snapshot with revenue back-computed from the new price and the price
// change; months 1..N interpolate linearly toward the forecast, reaching
// it at month 3. Price is constant across the horizon.
func ProjectTimeSeries(demand DemandForecast, churn RateForecast, newPrice float64, months int) []TimeSeriesPoint {
	if months <= 0 {
		months = DefaultHorizonMonths
	}
	points := make([]TimeSeriesPoint, 0, months+1)

	baselinePrice := newPrice / (1 + demand.PriceChangePct/100)
	points = append(points, TimeSeriesPoint{
		Month:       0,
		Subscribers: demand.BaseSubscribers,
		Revenue:     float64(demand.BaseSubscribers) * baselinePrice,
		ChurnRate:   churn.Baseline,
	})

	for month := 1; month <= months; month++ {
		progress := math.Min(float64(month)/rampMonths, 1)
		subscribers := demand.BaseSubscribers + int64(math.Round(float64(demand.Change)*progress))
		points = append(points, TimeSeriesPoint{
			Month:       month,
			Subscribers: subscribers,
			Revenue:     float64(subscribers) * newPrice,
			ChurnRate:   churn.Baseline + churn.Change*progress,
		})
	}
	return points
}
