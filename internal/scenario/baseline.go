package scenario

import "math"

// ResolveBaseline derives the simulation starting point for a tier from
// the most recent weekly record. Bundle tiers synthesize their baseline
// from the bundle's base tier since no bundle-specific rows exist.
func ResolveBaseline(records []WeeklyRecord, kind TierKind, bundlePrice float64) (BaselineMetrics, error) {
	if kind.Bundle != nil {
		base, err := latestForTier(records, string(kind.Bundle.BaseTier))
		if err != nil {
			return BaselineMetrics{}, &MissingDataError{Tier: string(kind.Tier)}
		}
		subscribers := int64(math.Round(float64(base.ActiveSubscribers) * kind.Bundle.PotentialPct))
		acquisitions := int64(math.Round(float64(base.NewSubscribers) * kind.Bundle.PotentialPct))
		return BaselineMetrics{
			ActiveSubscribers: subscribers,
			ChurnRate:         base.ChurnRate * kind.Bundle.ChurnDampening,
			NewSubscribers:    acquisitions,
			Revenue:           float64(subscribers) * bundlePrice,
			ARPU:              bundlePrice,
			IsBundle:          true,
		}, nil
	}

	latest, err := latestForTier(records, string(kind.Tier))
	if err != nil {
		return BaselineMetrics{}, err
	}
	return BaselineMetrics{
		ActiveSubscribers: latest.ActiveSubscribers,
		ChurnRate:         latest.ChurnRate,
		NewSubscribers:    latest.NewSubscribers,
		Revenue:           latest.Revenue,
		ARPU:              latest.ARPU,
	}, nil
}

func latestForTier(records []WeeklyRecord, tier string) (WeeklyRecord, error) {
	var latest WeeklyRecord
	found := false
	for _, r := range records {
		if string(r.Tier) != tier {
			continue
		}
		if !found || r.Date.After(latest.Date) {
			latest = r
			found = true
		}
	}
	if !found {
		return WeeklyRecord{}, &MissingDataError{Tier: tier}
	}
	return latest, nil
}
