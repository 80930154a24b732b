package elasticity

// Tier identifies a subscription plan variant.
type Tier string

const (
	TierAdSupported Tier = "ad_supported"
	TierAdFree      Tier = "ad_free"
	TierAnnual      Tier = "annual"
	TierBundle      Tier = "bundle"
)

// TimeHorizon selects the forecast window an elasticity applies to.
type TimeHorizon string

const (
	HorizonShortTerm  TimeHorizon = "short_term"
	HorizonMediumTerm TimeHorizon = "medium_term"
	HorizonLongTerm   TimeHorizon = "long_term"
)

// Cohort is a single {type, value} pair, e.g. {tenure, "0-3m"}.
type Cohort struct {
	Type  string `json:"type"`
	Value string `json:"value"`
}

type SegmentEntry struct {
	Elasticity         float64 `json:"elasticity"`
	ConfidenceInterval float64 `json:"confidence_interval"`
}

type TierEntry struct {
	BaseElasticity     float64                       `json:"base_elasticity"`
	ConfidenceInterval float64                       `json:"confidence_interval"`
	Segments           map[string]SegmentEntry       `json:"segments,omitempty"`
	CohortElasticity   map[string]map[string]float64 `json:"cohort_elasticity,omitempty"`
}

// Table is the full elasticity reference set. Loaded once and treated as
// immutable for the lifetime of a session.
type Table struct {
	Tiers                  map[Tier]TierEntry        `json:"tiers"`
	TimeHorizonAdjustments map[TimeHorizon]float64   `json:"time_horizon_adjustments,omitempty"`
	ChurnElasticity        map[Tier]float64          `json:"churn_elasticity,omitempty"`
	AcquisitionElasticity  map[Tier]float64          `json:"acquisition_elasticity,omitempty"`
	CrossElasticity        map[Tier]map[Tier]float64 `json:"cross_elasticity,omitempty"`
	WillingnessToPay       map[Tier]WillingnessEntry `json:"willingness_to_pay,omitempty"`
	SegmentElasticity      map[Tier]map[string]Axes  `json:"segment_elasticity,omitempty"`
}

// Axes holds per-axis elasticities for one composite segment key.
type Axes struct {
	Acquisition  float64 `json:"acquisition"`
	Engagement   float64 `json:"engagement"`
	Monetization float64 `json:"monetization"`
}

type WillingnessEntry struct {
	MedianPrice float64 `json:"median_price"`
	P25Price    float64 `json:"p25_price"`
	P75Price    float64 `json:"p75_price"`
}

// Resolution is the outcome of an elasticity lookup.
type Resolution struct {
	Elasticity         float64 `json:"elasticity"`
	ConfidenceInterval float64 `json:"confidence_interval"`
	LowerBound         float64 `json:"lower_bound"`
	UpperBound         float64 `json:"upper_bound"`
	Fallback           bool    `json:"fallback,omitempty"`
}

// ResolveOptions narrow a lookup below the tier level. Zero values mean
// "not specified".
type ResolveOptions struct {
	Segment     string
	Cohort      *Cohort
	TimeHorizon TimeHorizon
}
