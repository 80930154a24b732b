package forecast

import "github.com/joelkehle/elasticity-lab/internal/elasticity"

// RateForecast is the output of the linear churn/acquisition model
// forecasted = baseline * (1 + coefficient * priceChange).
type RateForecast struct {
	Baseline      float64 `json:"baseline"`
	Forecasted    float64 `json:"forecasted"`
	Change        float64 `json:"change"`
	ChangePercent float64 `json:"change_percent"`
	Clamped       bool    `json:"clamped,omitempty"`
}

// Churn applies the tier's linear churn elasticity. priceChange is
// fractional (+0.167 for a 16.7% increase). The forecasted rate is clamped
// to [0, 1]; Clamped records when the raw value fell outside that range.
func Churn(table *elasticity.Table, tier elasticity.Tier, priceChange, baselineChurn float64) (RateForecast, error) {
	coef, err := table.ChurnCoefficient(tier)
	if err != nil {
		return RateForecast{}, err
	}
	out := linearRate(coef, priceChange, baselineChurn)
	if out.Forecasted < 0 {
		out.Forecasted = 0
		out.Clamped = true
	} else if out.Forecasted > 1 {
		out.Forecasted = 1
		out.Clamped = true
	}
	if out.Clamped {
		out.Change = out.Forecasted - out.Baseline
	}
	return out, nil
}

// Acquisition applies the tier's linear acquisition elasticity to a
// baseline new-subscriber count. Floored at zero.
func Acquisition(table *elasticity.Table, tier elasticity.Tier, priceChange, baselineAcquisition float64) (RateForecast, error) {
	coef, err := table.AcquisitionCoefficient(tier)
	if err != nil {
		return RateForecast{}, err
	}
	out := linearRate(coef, priceChange, baselineAcquisition)
	if out.Forecasted < 0 {
		out.Forecasted = 0
		out.Clamped = true
		out.Change = -out.Baseline
	}
	return out, nil
}

func linearRate(coef, priceChange, baseline float64) RateForecast {
	changePct := coef * priceChange
	forecasted := baseline * (1 + changePct)
	return RateForecast{
		Baseline:      baseline,
		Forecasted:    forecasted,
		Change:        forecasted - baseline,
		ChangePercent: changePct * 100,
	}
}
