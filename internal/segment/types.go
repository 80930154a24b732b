package segment

import (
	"github.com/joelkehle/elasticity-lab/internal/elasticity"
)

// Axis identifies which component of a composite segment key a segment
// name belongs to.
type Axis string

const (
	AxisAcquisition  Axis = "acquisition"
	AxisEngagement   Axis = "engagement"
	AxisMonetization Axis = "monetization"
)

// Record is one row of the per-segment reference data. CompositeKey is
// "acquisition|engagement|monetization", e.g. "organic|heavy|premium".
type Record struct {
	CompositeKey    string          `json:"composite_key"`
	Tier            elasticity.Tier `json:"tier"`
	SubscriberCount int64           `json:"subscriber_count"`
	AvgChurnRate    float64         `json:"avg_churn_rate"`
	AvgARPU         float64         `json:"avg_arpu"`
}

// Input selects the target of a segment-level simulation. Axis is an
// optional override; when empty the axis is inferred from the target's
// position inside the first matching composite key.
type Input struct {
	Tier          elasticity.Tier `json:"tier"`
	TargetSegment string          `json:"target_segment"`
	Axis          Axis            `json:"axis,omitempty"`
	CurrentPrice  float64         `json:"current_price"`
	NewPrice      float64         `json:"new_price"`
}

// Metrics is one side of a segment estimate.
type Metrics struct {
	Subscribers int64   `json:"subscribers"`
	ChurnRate   float64 `json:"churn_rate"`
	ARPU        float64 `json:"arpu"`
}

// SpilloverEntry is the migration delta applied to one non-target
// segment. Delta is negative on a price increase (outflow) and positive
// on a decrease (inflow).
type SpilloverEntry struct {
	CompositeKey string  `json:"composite_key"`
	Share        float64 `json:"share"`
	Delta        int64   `json:"delta"`
}

// Migration summarizes the spillover model. Total never exceeds 10% of
// the target segment's baseline subscribers.
type Migration struct {
	Rate      float64          `json:"rate"`
	Total     int64            `json:"total"`
	Spillover []SpilloverEntry `json:"spillover"`
}

// Rollup is the tier-level aggregate after applying the target delta and
// spillover deltas to the summed segment baselines.
type Rollup struct {
	BaselineSubscribers   int64   `json:"baseline_subscribers"`
	ForecastedSubscribers int64   `json:"forecasted_subscribers"`
	BaselineRevenue       float64 `json:"baseline_revenue"`
	ForecastedRevenue     float64 `json:"forecasted_revenue"`
	BaselineARPU          float64 `json:"baseline_arpu"`
	ForecastedARPU        float64 `json:"forecasted_arpu"`
}

// Result is the full segment-targeted estimate.
type Result struct {
	Tier            elasticity.Tier `json:"tier"`
	TargetSegment   string          `json:"target_segment"`
	Axis            Axis            `json:"axis"`
	CompositeKey    string          `json:"composite_key,omitempty"`
	Elasticity      float64         `json:"elasticity"`
	FallbackToBase  bool            `json:"fallback_to_base"`
	DemandChangePct float64         `json:"demand_change_pct"`
	Baseline        Metrics         `json:"baseline"`
	Forecasted      Metrics         `json:"forecasted"`
	Migration       Migration       `json:"migration"`
	TierRollup      Rollup          `json:"tier_rollup"`
	Warnings        []string        `json:"warnings"`
}
