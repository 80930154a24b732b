package elasticity

import "log"

// fallbackElasticity covers lookups against a missing or incomplete table.
// Values match the demo reference set; a tier without an entry here is a
// genuine unknown.
var fallbackElasticity = map[Tier]float64{
	TierAdSupported: -2.1,
	TierAdFree:      -1.7,
	TierAnnual:      -1.5,
}

const fallbackConfidenceInterval = 0.4

// Resolve looks up the elasticity for a tier, optionally narrowed by
// segment and cohort, with a time-horizon multiplier applied last.
//
// Precedence: tier base -> segment override -> cohort override. The
// confidence interval follows the segment override only. When the tier is
// missing entirely the per-tier fallback constant is used and the miss is
// logged; tiers with no fallback yield an UnknownTierError.
func (t *Table) Resolve(tier Tier, opts ResolveOptions) (Resolution, error) {
	entry, ok := lookupTier(t, tier)
	if !ok {
		fb, ok := fallbackElasticity[tier]
		if !ok {
			return Resolution{}, &UnknownTierError{Tier: tier, Table: "elasticity"}
		}
		log.Printf("elasticity fallback tier=%s elasticity=%.2f", tier, fb)
		res := Resolution{Elasticity: fb, ConfidenceInterval: fallbackConfidenceInterval, Fallback: true}
		res.applyHorizon(t, opts.TimeHorizon)
		res.finalize()
		return res, nil
	}

	res := Resolution{Elasticity: entry.BaseElasticity, ConfidenceInterval: entry.ConfidenceInterval}

	if opts.Segment != "" {
		if seg, ok := entry.Segments[opts.Segment]; ok {
			res.Elasticity = seg.Elasticity
			res.ConfidenceInterval = seg.ConfidenceInterval
		}
	}
	if opts.Cohort != nil {
		if byValue, ok := entry.CohortElasticity[opts.Cohort.Type]; ok {
			if v, ok := byValue[opts.Cohort.Value]; ok {
				res.Elasticity = v
			}
		}
	}
	res.applyHorizon(t, opts.TimeHorizon)
	res.finalize()
	return res, nil
}

// ChurnCoefficient returns the linear churn elasticity for a tier. Missing
// entries are fatal: there is no defensible default for the linear model.
func (t *Table) ChurnCoefficient(tier Tier) (float64, error) {
	if t != nil {
		if v, ok := t.ChurnElasticity[tier]; ok {
			return v, nil
		}
	}
	return 0, &UnknownTierError{Tier: tier, Table: "churn_elasticity"}
}

// AcquisitionCoefficient returns the linear acquisition elasticity for a tier.
func (t *Table) AcquisitionCoefficient(tier Tier) (float64, error) {
	if t != nil {
		if v, ok := t.AcquisitionElasticity[tier]; ok {
			return v, nil
		}
	}
	return 0, &UnknownTierError{Tier: tier, Table: "acquisition_elasticity"}
}

func lookupTier(t *Table, tier Tier) (TierEntry, bool) {
	if t == nil {
		return TierEntry{}, false
	}
	entry, ok := t.Tiers[tier]
	return entry, ok
}

func (r *Resolution) applyHorizon(t *Table, horizon TimeHorizon) {
	if t == nil || horizon == "" {
		return
	}
	if mult, ok := t.TimeHorizonAdjustments[horizon]; ok {
		r.Elasticity *= mult
	}
}

func (r *Resolution) finalize() {
	r.LowerBound = r.Elasticity - r.ConfidenceInterval
	r.UpperBound = r.Elasticity + r.ConfidenceInterval
}
