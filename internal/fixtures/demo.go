package fixtures

import (
	"time"

	"github.com/joelkehle/elasticity-lab/internal/elasticity"
	"github.com/joelkehle/elasticity-lab/internal/scenario"
	"github.com/joelkehle/elasticity-lab/internal/segment"
)

func boolPtr(v bool) *bool { return &v }

// Demo returns the built-in fixture set used when no data directory is
// configured. Numbers are illustrative and internally consistent, not
// sourced from production data.
func Demo() *Set {
	week := time.Date(2024, 5, 13, 0, 0, 0, 0, time.UTC)
	prior := week.AddDate(0, 0, -7)
	return &Set{
		Table: elasticity.DefaultTable(),
		Weekly: []scenario.WeeklyRecord{
			{Date: prior, Tier: elasticity.TierAdSupported, ActiveSubscribers: 995_000, ChurnRate: 0.047, NewSubscribers: 41_500, Revenue: 5_960_050, ARPU: 5.99},
			{Date: week, Tier: elasticity.TierAdSupported, ActiveSubscribers: 1_000_000, ChurnRate: 0.045, NewSubscribers: 42_000, Revenue: 5_990_000, ARPU: 5.99},
			{Date: prior, Tier: elasticity.TierAdFree, ActiveSubscribers: 597_000, ChurnRate: 0.031, NewSubscribers: 17_800, Revenue: 5_964_030, ARPU: 9.99},
			{Date: week, Tier: elasticity.TierAdFree, ActiveSubscribers: 600_000, ChurnRate: 0.030, NewSubscribers: 18_000, Revenue: 5_994_000, ARPU: 9.99},
			{Date: prior, Tier: elasticity.TierAnnual, ActiveSubscribers: 199_000, ChurnRate: 0.016, NewSubscribers: 3_900, Revenue: 1_160_170, ARPU: 5.83},
			{Date: week, Tier: elasticity.TierAnnual, ActiveSubscribers: 200_000, ChurnRate: 0.015, NewSubscribers: 4_000, Revenue: 1_166_000, ARPU: 5.83},
		},
		Segments: []segment.Record{
			{CompositeKey: "organic|light|discount", Tier: elasticity.TierAdSupported, SubscriberCount: 220_000, AvgChurnRate: 0.062, AvgARPU: 4.99},
			{CompositeKey: "organic|heavy|standard", Tier: elasticity.TierAdSupported, SubscriberCount: 390_000, AvgChurnRate: 0.031, AvgARPU: 5.99},
			{CompositeKey: "paid|moderate|standard", Tier: elasticity.TierAdSupported, SubscriberCount: 300_000, AvgChurnRate: 0.052, AvgARPU: 5.99},
			{CompositeKey: "winback|light|discount", Tier: elasticity.TierAdSupported, SubscriberCount: 90_000, AvgChurnRate: 0.078, AvgARPU: 4.49},
			{CompositeKey: "organic|heavy|premium", Tier: elasticity.TierAdFree, SubscriberCount: 250_000, AvgChurnRate: 0.020, AvgARPU: 11.99},
			{CompositeKey: "organic|moderate|standard", Tier: elasticity.TierAdFree, SubscriberCount: 200_000, AvgChurnRate: 0.032, AvgARPU: 9.99},
			{CompositeKey: "paid|light|standard", Tier: elasticity.TierAdFree, SubscriberCount: 150_000, AvgChurnRate: 0.045, AvgARPU: 9.99},
			{CompositeKey: "organic|heavy|premium", Tier: elasticity.TierAnnual, SubscriberCount: 130_000, AvgChurnRate: 0.012, AvgARPU: 6.25},
			{CompositeKey: "paid|moderate|premium", Tier: elasticity.TierAnnual, SubscriberCount: 70_000, AvgChurnRate: 0.019, AvgARPU: 5.41},
		},
		Scenarios: []scenario.Scenario{
			{
				ID:          "ads-modest-increase",
				Name:        "Ad-Supported: $5.99 to $6.99",
				Description: "Price increase of 16.7% on the ad_supported tier",
				Category:    "price_increase",
				Config:      scenario.Config{Tier: elasticity.TierAdSupported, CurrentPrice: 5.99, NewPrice: 6.99, PriceChangePct: 16.7},
				Constraints: &scenario.Constraints{MinPrice: 3.99, MaxPrice: 9.99, PlatformCompliant: boolPtr(true)},
			},
			{
				ID:          "adfree-increase",
				Name:        "Ad-Free: $9.99 to $11.99",
				Description: "Price increase of 20.0% on the ad_free tier",
				Category:    "price_increase",
				Config:      scenario.Config{Tier: elasticity.TierAdFree, CurrentPrice: 9.99, NewPrice: 11.99, PriceChangePct: 20.0},
				Constraints: &scenario.Constraints{MinPrice: 6.99, MaxPrice: 14.99, PlatformCompliant: boolPtr(true)},
			},
			{
				ID:          "ads-promo-decrease",
				Name:        "Ad-Supported: $5.99 to $4.99",
				Description: "Price decrease of 16.7% on the ad_supported tier",
				Category:    "price_decrease",
				Config:      scenario.Config{Tier: elasticity.TierAdSupported, CurrentPrice: 5.99, NewPrice: 4.99, PriceChangePct: -16.7, Promotion: "3 months at the reduced price"},
				Constraints: &scenario.Constraints{MinPrice: 3.99, MaxPrice: 9.99, PlatformCompliant: boolPtr(true)},
			},
			{
				ID:          "annual-increase",
				Name:        "Annual: $69.99 to $74.99",
				Description: "Price increase of 7.1% on the annual tier",
				Category:    "price_increase",
				Config:      scenario.Config{Tier: elasticity.TierAnnual, CurrentPrice: 69.99, NewPrice: 74.99, PriceChangePct: 7.1},
				Constraints: &scenario.Constraints{MinPrice: 49.99, MaxPrice: 99.99, PlatformCompliant: boolPtr(true)},
			},
			{
				ID:          "bundle-launch",
				Name:        "Bundle launch at $14.99",
				Description: "New ad-free plus partner content bundle at $14.99",
				Category:    "bundle",
				Config:      scenario.Config{Tier: elasticity.TierBundle, CurrentPrice: 14.99, NewPrice: 14.99},
			},
		},
	}
}
