package segment

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/stat"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
)

// Model constants. The churn pass-through deliberately damps the demand
// elasticity: churn reacts far less than raw demand does.
const (
	churnPassThrough = 0.15
	migrationFactor  = 0.25
	migrationCap     = 0.10
)

// Segment-path warning thresholds, expressed as fractions.
const (
	segPriceWarn     = 0.15
	segDemandWarn    = 0.25
	segChurnWarn     = 0.20
	segMigrationWarn = 0.15
)

var axisOrder = []Axis{AxisAcquisition, AxisEngagement, AxisMonetization}

// Estimate runs the segment-targeted simulation path: resolve a per-axis
// elasticity for the target segment, aggregate a subscriber-weighted
// baseline, apply the direct demand and churn impact, estimate spillover
// migration into the tier's other segments, and roll the deltas up to
// tier level.
func Estimate(table *elasticity.Table, records []Record, in Input) (Result, error) {
	if in.TargetSegment == "" {
		return Result{}, &InvalidInputError{Field: "target_segment", Reason: "is required"}
	}
	if in.CurrentPrice <= 0 {
		return Result{}, &InvalidInputError{Field: "current_price", Reason: "must be positive"}
	}
	if in.NewPrice <= 0 {
		return Result{}, &InvalidInputError{Field: "new_price", Reason: "must be positive"}
	}

	eps, axis, compositeKey, fellBack, err := resolveSegmentElasticity(table, in)
	if err != nil {
		return Result{}, err
	}

	tierRecords := make([]Record, 0, len(records))
	for _, r := range records {
		if r.Tier == in.Tier {
			tierRecords = append(tierRecords, r)
		}
	}
	if len(tierRecords) == 0 {
		return Result{}, &NoDataError{Tier: string(in.Tier)}
	}

	matched, others := partition(tierRecords, in.TargetSegment)
	if len(matched) == 0 {
		return Result{}, &NoDataError{Tier: string(in.Tier), TargetSegment: in.TargetSegment}
	}

	baseline := weightedBaseline(matched)
	priceChange := in.NewPrice/in.CurrentPrice - 1

	demandChange := eps * priceChange
	forecastSubs := int64(math.Round(float64(baseline.Subscribers) * (1 + demandChange)))
	if forecastSubs < 0 {
		forecastSubs = 0
	}
	forecastChurn := baseline.ChurnRate * (1 + eps*churnPassThrough*priceChange)
	if forecastChurn < 0 {
		forecastChurn = 0
	} else if forecastChurn > 1 {
		forecastChurn = 1
	}

	migration := estimateMigration(baseline.Subscribers, demandChange, priceChange, others)
	rollup := rollUpTier(tierRecords, matched, baseline, forecastSubs, in.NewPrice, migration)

	forecasted := Metrics{
		Subscribers: forecastSubs,
		ChurnRate:   forecastChurn,
		ARPU:        in.NewPrice,
	}

	return Result{
		Tier:            in.Tier,
		TargetSegment:   in.TargetSegment,
		Axis:            axis,
		CompositeKey:    compositeKey,
		Elasticity:      eps,
		FallbackToBase:  fellBack,
		DemandChangePct: demandChange * 100,
		Baseline:        baseline,
		Forecasted:      forecasted,
		Migration:       migration,
		TierRollup:      rollup,
		Warnings:        segmentWarnings(priceChange, demandChange, forecastChurn, migration, baseline.Subscribers),
	}, nil
}

// resolveSegmentElasticity scans the tier's composite keys for one that
// contains the target segment as a component, selecting the per-axis
// value by the target's position inside the key (or the explicit axis
// override). Keys are scanned in sorted order so the "first match" is
// deterministic. No match falls back to the tier's base elasticity.
func resolveSegmentElasticity(table *elasticity.Table, in Input) (eps float64, axis Axis, key string, fellBack bool, err error) {
	byKey := table.SegmentElasticity[in.Tier]
	keys := make([]string, 0, len(byKey))
	for k := range byKey {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		parts := strings.Split(k, "|")
		idx := -1
		for i, p := range parts {
			if p == in.TargetSegment {
				idx = i
				break
			}
		}
		if idx < 0 {
			continue
		}
		axis = axisOrder[idx]
		if in.Axis != "" {
			axis = in.Axis
		}
		axes := byKey[k]
		switch axis {
		case AxisAcquisition:
			eps = axes.Acquisition
		case AxisEngagement:
			eps = axes.Engagement
		case AxisMonetization:
			eps = axes.Monetization
		default:
			return 0, "", "", false, &InvalidInputError{Field: "axis", Reason: fmt.Sprintf("unknown value %q", in.Axis)}
		}
		return eps, axis, k, false, nil
	}

	res, rerr := table.Resolve(in.Tier, elasticity.ResolveOptions{})
	if rerr != nil {
		return 0, "", "", false, rerr
	}
	axis = in.Axis
	if axis == "" {
		axis = AxisAcquisition
	}
	return res.Elasticity, axis, "", true, nil
}

// partition splits tier records into those matching the target on any
// axis and the rest. Matching on any axis can double-count overlapping
// segments; the aggregation accepts that.
func partition(records []Record, target string) (matched, others []Record) {
	for _, r := range records {
		if keyContains(r.CompositeKey, target) {
			matched = append(matched, r)
		} else {
			others = append(others, r)
		}
	}
	return matched, others
}

func keyContains(compositeKey, target string) bool {
	for _, p := range strings.Split(compositeKey, "|") {
		if p == target {
			return true
		}
	}
	return false
}

// weightedBaseline aggregates matched records with subscriber-count
// weighted averages for churn and ARPU.
func weightedBaseline(matched []Record) Metrics {
	weights := make([]float64, len(matched))
	churns := make([]float64, len(matched))
	arpus := make([]float64, len(matched))
	var subs int64
	for i, r := range matched {
		weights[i] = float64(r.SubscriberCount)
		churns[i] = r.AvgChurnRate
		arpus[i] = r.AvgARPU
		subs += r.SubscriberCount
	}
	return Metrics{
		Subscribers: subs,
		ChurnRate:   stat.Mean(churns, weights),
		ARPU:        stat.Mean(arpus, weights),
	}
}

// estimateMigration applies the spillover model: migration rate is a
// quarter of the demand change magnitude, capped at 10% of the target
// segment. Migrants are distributed over the non-target segments by
// subscriber share; the sign follows the price-change direction.
func estimateMigration(targetSubs int64, demandChange, priceChange float64, others []Record) Migration {
	rate := math.Abs(demandChange) * migrationFactor
	if rate > migrationCap {
		rate = migrationCap
	}
	total := int64(math.Round(float64(targetSubs) * rate))
	m := Migration{Rate: rate, Total: total}
	if total == 0 || len(others) == 0 {
		return m
	}

	var otherSubs int64
	for _, r := range others {
		otherSubs += r.SubscriberCount
	}
	if otherSubs == 0 {
		return m
	}

	sign := int64(1)
	if priceChange > 0 {
		sign = -1
	}
	for _, r := range others {
		share := float64(r.SubscriberCount) / float64(otherSubs)
		delta := sign * int64(math.Round(float64(total)*share))
		m.Spillover = append(m.Spillover, SpilloverEntry{
			CompositeKey: r.CompositeKey,
			Share:        share,
			Delta:        delta,
		})
	}
	return m
}

// rollUpTier sums the tier's segment baselines and applies the target
// delta plus spillover. Migrated subscribers are valued at the tier's
// average ARPU, the target segment at the new price.
func rollUpTier(tierRecords, matched []Record, baseline Metrics, forecastSubs int64, newPrice float64, migration Migration) Rollup {
	var baseSubs int64
	var baseRevenue float64
	for _, r := range tierRecords {
		baseSubs += r.SubscriberCount
		baseRevenue += float64(r.SubscriberCount) * r.AvgARPU
	}
	avgARPU := 0.0
	if baseSubs > 0 {
		avgARPU = baseRevenue / float64(baseSubs)
	}

	var otherRevenue float64
	matchedKeys := map[string]bool{}
	for _, r := range matched {
		matchedKeys[r.CompositeKey] = true
	}
	for _, r := range tierRecords {
		if !matchedKeys[r.CompositeKey] {
			otherRevenue += float64(r.SubscriberCount) * r.AvgARPU
		}
	}

	var spillSum int64
	for _, s := range migration.Spillover {
		spillSum += s.Delta
	}

	targetDelta := forecastSubs - baseline.Subscribers
	fcSubs := baseSubs + targetDelta + spillSum
	fcRevenue := float64(forecastSubs)*newPrice + otherRevenue + float64(spillSum)*avgARPU
	fcARPU := 0.0
	if fcSubs > 0 {
		fcARPU = fcRevenue / float64(fcSubs)
	}
	return Rollup{
		BaselineSubscribers:   baseSubs,
		ForecastedSubscribers: fcSubs,
		BaselineRevenue:       baseRevenue,
		ForecastedRevenue:     fcRevenue,
		BaselineARPU:          avgARPU,
		ForecastedARPU:        fcARPU,
	}
}

func segmentWarnings(priceChange, demandChange, forecastChurn float64, migration Migration, targetSubs int64) []string {
	warnings := []string{}
	if math.Abs(priceChange) > segPriceWarn {
		warnings = append(warnings, fmt.Sprintf("Price change of %.1f%% is large for a single-segment move", math.Abs(priceChange)*100))
	}
	if math.Abs(demandChange) > segDemandWarn {
		warnings = append(warnings, fmt.Sprintf("Demand sensitivity of %.1f%% suggests high forecast uncertainty", math.Abs(demandChange)*100))
	}
	if forecastChurn > segChurnWarn {
		warnings = append(warnings, fmt.Sprintf("Forecasted churn of %.1f%% is above the 20%% threshold", forecastChurn*100))
	}
	if targetSubs > 0 && float64(migration.Total) > segMigrationWarn*float64(targetSubs) {
		warnings = append(warnings, fmt.Sprintf("Spillover migration of %d subscribers exceeds 15%% of the target segment", migration.Total))
	}
	return warnings
}
