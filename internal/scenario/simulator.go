package scenario

import (
	"context"
	"fmt"
	"math"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/forecast"
)

const tracerName = "github.com/joelkehle/elasticity-lab/internal/scenario"

// Advisory warning thresholds. Strict inequalities: a 20.0% change does
// not warn, 20.1% does.
const (
	priceChangeWarnPct    = 20.0
	subscriberDropWarnPct = 5.0
	churnIncreaseWarnPct  = 10.0
)

// SimulateOptions narrow or extend a simulation run.
type SimulateOptions struct {
	Months      int
	Segment     string
	Cohort      *elasticity.Cohort
	TimeHorizon elasticity.TimeHorizon
	// Force bypasses the look-aside result cache.
	Force bool
}

// Narrowed reports whether any option changes the outputs relative to a
// default run. Narrowed results are neither served from nor written to
// the result cache, and callers should not persist them.
func (o SimulateOptions) Narrowed() bool {
	return o.Months != 0 || o.Segment != "" || o.Cohort != nil || o.TimeHorizon != ""
}

// Simulate runs the full forecasting pipeline for one scenario and caches
// the result keyed by scenario ID. Only default runs touch the cache; the
// cache is consulted at call start, so concurrent calls for the same
// scenario duplicate the work.
func (s *Session) Simulate(ctx context.Context, scenarioID string, opts SimulateOptions) (SimulationResult, error) {
	if !opts.Force && !opts.Narrowed() {
		if cached, ok := s.Result(scenarioID); ok {
			return cached, nil
		}
	}

	sc, err := s.Scenario(scenarioID)
	if err != nil {
		return SimulationResult{}, err
	}

	_, span := otel.Tracer(tracerName).Start(ctx, "scenario.simulate")
	defer span.End()
	span.SetAttributes(
		attribute.String("scenario.id", sc.ID),
		attribute.String("scenario.tier", string(sc.Config.Tier)),
		attribute.Float64("scenario.new_price", sc.Config.NewPrice),
	)

	result, err := s.runPipeline(sc, opts)
	if err != nil {
		return SimulationResult{}, err
	}
	if !opts.Narrowed() {
		s.storeResult(result)
	}
	return result, nil
}

func (s *Session) runPipeline(sc Scenario, opts SimulateOptions) (SimulationResult, error) {
	kind := KindFor(sc.Config.Tier)
	baseline, err := ResolveBaseline(s.weekly, kind, sc.Config.NewPrice)
	if err != nil {
		return SimulationResult{}, err
	}

	res, err := s.table.Resolve(sc.Config.Tier, elasticity.ResolveOptions{
		Segment:     opts.Segment,
		Cohort:      opts.Cohort,
		TimeHorizon: opts.TimeHorizon,
	})
	if err != nil {
		return SimulationResult{}, err
	}

	demand, err := forecast.Demand(sc.Config.CurrentPrice, sc.Config.NewPrice, baseline.ActiveSubscribers, res.Elasticity)
	if err != nil {
		return SimulationResult{}, err
	}
	priceChange := demand.PriceChangePct / 100

	churn, err := forecast.Churn(s.table, sc.Config.Tier, priceChange, baseline.ChurnRate)
	if err != nil {
		return SimulationResult{}, err
	}
	acquisition, err := forecast.Acquisition(s.table, sc.Config.Tier, priceChange, float64(baseline.NewSubscribers))
	if err != nil {
		return SimulationResult{}, err
	}

	revenue := forecast.Revenue(demand.ForecastedSubscribers, sc.Config.NewPrice, baseline.ActiveSubscribers, sc.Config.CurrentPrice)

	baseMetrics := Metrics{
		Subscribers:  baseline.ActiveSubscribers,
		ChurnRate:    baseline.ChurnRate,
		Acquisitions: float64(baseline.NewSubscribers),
		Revenue:      revenue.BaselineRevenue,
		ARPU:         sc.Config.CurrentPrice,
		CLTV:         forecast.CLTV(sc.Config.CurrentPrice),
	}
	baseMetrics.NetAdds = netAdds(baseMetrics.Acquisitions, baseMetrics.Subscribers, baseMetrics.ChurnRate)

	fcMetrics := Metrics{
		Subscribers:  demand.ForecastedSubscribers,
		ChurnRate:    churn.Forecasted,
		Acquisitions: acquisition.Forecasted,
		Revenue:      revenue.ForecastedRevenue,
		ARPU:         sc.Config.NewPrice,
		CLTV:         forecast.CLTV(sc.Config.NewPrice),
	}
	fcMetrics.NetAdds = netAdds(fcMetrics.Acquisitions, fcMetrics.Subscribers, fcMetrics.ChurnRate)

	delta := buildDelta(baseMetrics, fcMetrics)

	months := opts.Months
	if months <= 0 {
		months = forecast.DefaultHorizonMonths
	}
	series := forecast.ProjectTimeSeries(demand, churn, sc.Config.NewPrice, months)

	warnings := collectWarnings(demand, churn, acquisition)

	return SimulationResult{
		ScenarioID:         sc.ID,
		ScenarioName:       sc.Name,
		Tier:               sc.Config.Tier,
		Elasticity:         res.Elasticity,
		ConfidenceInterval: res.ConfidenceInterval,
		Baseline:           baseMetrics,
		Forecasted:         fcMetrics,
		Delta:              delta,
		TimeSeries:         series,
		Warnings:           warnings,
		ConstraintsMet:     sc.ConstraintsMet(),
		GeneratedAt:        time.Now(),
	}, nil
}

func netAdds(acquisitions float64, subscribers int64, churnRate float64) int64 {
	return int64(math.Round(acquisitions)) - int64(math.Round(float64(subscribers)*churnRate))
}

func buildDelta(base, fc Metrics) Delta {
	d := Delta{
		Subscribers:  fc.Subscribers - base.Subscribers,
		Revenue:      fc.Revenue - base.Revenue,
		ChurnRatePts: fc.ChurnRate - base.ChurnRate,
		ARPU:         fc.ARPU - base.ARPU,
		CLTV:         fc.CLTV - base.CLTV,
		NetAdds:      fc.NetAdds - base.NetAdds,
	}
	if pct, ok := forecast.PercentChange(float64(base.Subscribers), float64(fc.Subscribers)); ok {
		d.SubscribersPct = &pct
	}
	if pct, ok := forecast.PercentChange(base.Revenue, fc.Revenue); ok {
		d.RevenuePct = &pct
	}
	return d
}

func collectWarnings(demand forecast.DemandForecast, churn, acquisition forecast.RateForecast) []string {
	warnings := []string{}
	if churn.ChangePercent > churnIncreaseWarnPct {
		warnings = append(warnings, fmt.Sprintf("Churn increase of %.1f%% may offset revenue gains", churn.ChangePercent))
	}
	if demand.PercentChange < -subscriberDropWarnPct {
		warnings = append(warnings, fmt.Sprintf("Projected subscriber loss of %.1f%% exceeds the 5%% threshold", -demand.PercentChange))
	}
	if demand.PriceChangePct > priceChangeWarnPct {
		warnings = append(warnings, fmt.Sprintf("Price increase of %.1f%% may be too aggressive", demand.PriceChangePct))
	} else if demand.PriceChangePct < -priceChangeWarnPct {
		warnings = append(warnings, fmt.Sprintf("Price decrease of %.1f%% may be too aggressive", -demand.PriceChangePct))
	}
	if churn.Clamped {
		warnings = append(warnings, "Churn forecast clamped to the [0, 1] range")
	}
	if acquisition.Clamped {
		warnings = append(warnings, "Acquisition forecast clamped at zero")
	}
	return warnings
}

// CompareItem is one entry of a batch comparison. A failing scenario is
// reported in place instead of aborting the batch.
type CompareItem struct {
	ScenarioID string            `json:"scenario_id"`
	Result     *SimulationResult `json:"result,omitempty"`
	Error      string            `json:"error,omitempty"`
}

// Compare simulates each scenario independently, substituting an error
// placeholder for any that fail.
func (s *Session) Compare(ctx context.Context, scenarioIDs []string) []CompareItem {
	out := make([]CompareItem, 0, len(scenarioIDs))
	for _, id := range scenarioIDs {
		result, err := s.Simulate(ctx, id, SimulateOptions{})
		if err != nil {
			out = append(out, CompareItem{ScenarioID: id, Error: err.Error()})
			continue
		}
		r := result
		out = append(out, CompareItem{ScenarioID: id, Result: &r})
	}
	return out
}
