package scenario

import (
	"fmt"
	"time"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/forecast"
)

// Config holds the editable pricing knobs of a scenario.
type Config struct {
	Tier           elasticity.Tier `json:"tier"`
	CurrentPrice   float64         `json:"current_price"`
	NewPrice       float64         `json:"new_price"`
	PriceChangePct float64         `json:"price_change_pct"`
	Promotion      string          `json:"promotion,omitempty"`
}

// Constraints bound the editable price range and carry compliance flags.
// Pointer booleans distinguish "absent" from an explicit false.
type Constraints struct {
	MinPrice             float64 `json:"min_price"`
	MaxPrice             float64 `json:"max_price"`
	PlatformCompliant    *bool   `json:"platform_compliant,omitempty"`
	PriceChange12moLimit *bool   `json:"price_change_12mo_limit,omitempty"`
	NoticePeriod30d      *bool   `json:"notice_period_30d,omitempty"`
}

type Scenario struct {
	ID          string       `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Category    string       `json:"category"`
	Config      Config       `json:"config"`
	Constraints *Constraints `json:"constraints,omitempty"`
}

// BundleSpec describes how a bundle synthesizes its baseline from a
// standard tier.
type BundleSpec struct {
	BaseTier       elasticity.Tier
	PotentialPct   float64
	ChurnDampening float64
}

// TierKind is the tagged variant replacing string comparison against a
// magic "bundle" value.
type TierKind struct {
	Tier   elasticity.Tier
	Bundle *BundleSpec
}

// KindFor classifies a tier. The bundle assumptions (30% of ad_free
// subscribers, churn damped to 70%) are a business convention of the demo
// dataset, not derived from bundle-specific data.
func KindFor(tier elasticity.Tier) TierKind {
	if tier == elasticity.TierBundle {
		return TierKind{
			Tier: tier,
			Bundle: &BundleSpec{
				BaseTier:       elasticity.TierAdFree,
				PotentialPct:   0.30,
				ChurnDampening: 0.70,
			},
		}
	}
	return TierKind{Tier: tier}
}

// WeeklyRecord is one row of the aggregated tier-level fixture data.
type WeeklyRecord struct {
	Date              time.Time       `json:"date"`
	Tier              elasticity.Tier `json:"tier"`
	ActiveSubscribers int64           `json:"active_subscribers"`
	ChurnRate         float64         `json:"churn_rate"`
	NewSubscribers    int64           `json:"new_subscribers"`
	Revenue           float64         `json:"revenue"`
	ARPU              float64         `json:"arpu"`
}

// BaselineMetrics is the simulation starting point for one tier, derived
// from the most recent weekly record. Recomputed per call, never mutated.
type BaselineMetrics struct {
	ActiveSubscribers int64   `json:"active_subscribers"`
	ChurnRate         float64 `json:"churn_rate"`
	NewSubscribers    int64   `json:"new_subscribers"`
	Revenue           float64 `json:"revenue"`
	ARPU              float64 `json:"arpu"`
	IsBundle          bool    `json:"is_bundle"`
}

// Metrics is one side (baseline or forecasted) of a simulation result.
type Metrics struct {
	Subscribers  int64   `json:"subscribers"`
	ChurnRate    float64 `json:"churn_rate"`
	Acquisitions float64 `json:"acquisitions"`
	Revenue      float64 `json:"revenue"`
	ARPU         float64 `json:"arpu"`
	CLTV         float64 `json:"cltv"`
	NetAdds      int64   `json:"net_adds"`
}

// Delta holds forecast-minus-baseline differences. Percentage fields are
// nil when the corresponding baseline is zero.
type Delta struct {
	Subscribers    int64    `json:"subscribers"`
	SubscribersPct *float64 `json:"subscribers_pct"`
	Revenue        float64  `json:"revenue"`
	RevenuePct     *float64 `json:"revenue_pct"`
	ChurnRatePts   float64  `json:"churn_rate_pts"`
	ARPU           float64  `json:"arpu"`
	CLTV           float64  `json:"cltv"`
	NetAdds        int64    `json:"net_adds"`
}

type SimulationResult struct {
	ScenarioID         string                     `json:"scenario_id"`
	ScenarioName       string                     `json:"scenario_name"`
	Tier               elasticity.Tier            `json:"tier"`
	Elasticity         float64                    `json:"elasticity"`
	ConfidenceInterval float64                    `json:"confidence_interval"`
	Baseline           Metrics                    `json:"baseline"`
	Forecasted         Metrics                    `json:"forecasted"`
	Delta              Delta                      `json:"delta"`
	TimeSeries         []forecast.TimeSeriesPoint `json:"time_series"`
	Warnings           []string                   `json:"warnings"`
	ConstraintsMet     bool                       `json:"constraints_met"`
	GeneratedAt        time.Time                  `json:"generated_at"`
}

// ConstraintsMet reports whether the scenario passes its compliance flags.
// platform_compliant must be explicitly true; the other two flags default
// to "met" when absent. A scenario without constraints passes vacuously.
func (s *Scenario) ConstraintsMet() bool {
	c := s.Constraints
	if c == nil {
		return true
	}
	if c.PlatformCompliant == nil || !*c.PlatformCompliant {
		return false
	}
	if c.PriceChange12moLimit != nil && !*c.PriceChange12moLimit {
		return false
	}
	if c.NoticePeriod30d != nil && !*c.NoticePeriod30d {
		return false
	}
	return true
}

func (s *Scenario) regenerate() {
	s.Config.PriceChangePct = (s.Config.NewPrice/s.Config.CurrentPrice - 1) * 100
	s.Name = fmt.Sprintf("%s: $%.2f to $%.2f", tierLabel(s.Config.Tier), s.Config.CurrentPrice, s.Config.NewPrice)
	direction := "increase"
	if s.Config.PriceChangePct < 0 {
		direction = "decrease"
	}
	s.Description = fmt.Sprintf("Price %s of %.1f%% on the %s tier", direction, abs(s.Config.PriceChangePct), s.Config.Tier)
}

func tierLabel(tier elasticity.Tier) string {
	switch tier {
	case elasticity.TierAdSupported:
		return "Ad-Supported"
	case elasticity.TierAdFree:
		return "Ad-Free"
	case elasticity.TierAnnual:
		return "Annual"
	case elasticity.TierBundle:
		return "Bundle"
	}
	return string(tier)
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
