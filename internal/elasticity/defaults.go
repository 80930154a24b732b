package elasticity

// DefaultTable is the built-in reference set used when no fixture table is
// supplied. Values mirror the demo fixtures; they are illustrative, not
// estimated.
func DefaultTable() *Table {
	return &Table{
		Tiers: map[Tier]TierEntry{
			TierAdSupported: {
				BaseElasticity:     -2.1,
				ConfidenceInterval: 0.4,
				Segments: map[string]SegmentEntry{
					"price_sensitive": {Elasticity: -2.8, ConfidenceInterval: 0.5},
					"loyal":           {Elasticity: -1.4, ConfidenceInterval: 0.3},
				},
				CohortElasticity: map[string]map[string]float64{
					"tenure": {
						"0-3m":  -2.6,
						"3-12m": -2.1,
						"12m+":  -1.6,
					},
				},
			},
			TierAdFree: {
				BaseElasticity:     -1.7,
				ConfidenceInterval: 0.3,
				Segments: map[string]SegmentEntry{
					"price_sensitive": {Elasticity: -2.3, ConfidenceInterval: 0.4},
					"loyal":           {Elasticity: -1.1, ConfidenceInterval: 0.2},
				},
				CohortElasticity: map[string]map[string]float64{
					"tenure": {
						"0-3m":  -2.2,
						"3-12m": -1.7,
						"12m+":  -1.3,
					},
				},
			},
			TierAnnual: {
				BaseElasticity:     -1.5,
				ConfidenceInterval: 0.3,
				Segments: map[string]SegmentEntry{
					"loyal": {Elasticity: -1.0, ConfidenceInterval: 0.2},
				},
			},
			TierBundle: {
				BaseElasticity:     -1.2,
				ConfidenceInterval: 0.5,
			},
		},
		TimeHorizonAdjustments: map[TimeHorizon]float64{
			HorizonShortTerm:  0.7,
			HorizonMediumTerm: 1.0,
			HorizonLongTerm:   1.3,
		},
		ChurnElasticity: map[Tier]float64{
			TierAdSupported: 0.8,
			TierAdFree:      0.6,
			TierAnnual:      0.4,
			TierBundle:      0.5,
		},
		AcquisitionElasticity: map[Tier]float64{
			TierAdSupported: -1.2,
			TierAdFree:      -0.9,
			TierAnnual:      -0.7,
			TierBundle:      -0.8,
		},
		CrossElasticity: map[Tier]map[Tier]float64{
			TierAdSupported: {TierAdFree: 0.3},
			TierAdFree:      {TierAdSupported: 0.4, TierAnnual: 0.2},
			TierAnnual:      {TierAdFree: 0.3},
		},
		WillingnessToPay: map[Tier]WillingnessEntry{
			TierAdSupported: {MedianPrice: 5.49, P25Price: 4.49, P75Price: 6.49},
			TierAdFree:      {MedianPrice: 9.49, P25Price: 7.99, P75Price: 11.49},
			TierAnnual:      {MedianPrice: 74.99, P25Price: 59.99, P75Price: 89.99},
		},
		SegmentElasticity: map[Tier]map[string]Axes{
			TierAdSupported: {
				"organic|light|discount": {Acquisition: -1.8, Engagement: -2.9, Monetization: -3.1},
				"organic|heavy|standard": {Acquisition: -1.6, Engagement: -1.2, Monetization: -1.9},
				"paid|moderate|standard": {Acquisition: -2.4, Engagement: -2.0, Monetization: -2.2},
				"winback|light|discount": {Acquisition: -2.7, Engagement: -3.0, Monetization: -3.3},
			},
			TierAdFree: {
				"organic|heavy|premium":     {Acquisition: -1.1, Engagement: -0.9, Monetization: -1.3},
				"organic|moderate|standard": {Acquisition: -1.5, Engagement: -1.4, Monetization: -1.7},
				"paid|light|standard":       {Acquisition: -2.0, Engagement: -2.3, Monetization: -2.1},
			},
			TierAnnual: {
				"organic|heavy|premium": {Acquisition: -0.9, Engagement: -0.8, Monetization: -1.1},
				"paid|moderate|premium": {Acquisition: -1.3, Engagement: -1.2, Monetization: -1.4},
			},
		},
	}
}
