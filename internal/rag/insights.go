package rag

import "sort"

// AggregateInsights reduces a ranked result set into structured pricing
// aggregates. The query is accepted for interface symmetry with Search but
// does not filter anything. Observations are not capped here; display
// callers slice the first few.
func AggregateInsights(query string, results []RetrievalResult) PricingInsights {
	insights := PricingInsights{
		RateRanges: make(map[PaymentMethod]RateRange),
	}

	methods := make(map[PaymentMethod]bool)
	tiers := make(map[string]bool)

	for _, result := range results {
		for _, fact := range result.Pricing {
			insights.HasPricingData = true
			methods[fact.Method] = true

			if fact.RateNumeric != nil {
				rate := *fact.RateNumeric
				rng, ok := insights.RateRanges[fact.Method]
				if !ok {
					rng = RateRange{Min: rate, Max: rate}
				} else {
					if rate < rng.Min {
						rng.Min = rate
					}
					if rate > rng.Max {
						rng.Max = rate
					}
				}
				insights.RateRanges[fact.Method] = rng

				insights.SpecificRates = append(insights.SpecificRates, RateObservation{
					Method:      fact.Method,
					Rate:        fact.Rate,
					RateNumeric: rate,
					Conditions:  fact.Conditions,
					VolumeTier:  fact.VolumeTier,
				})
			}

			if fact.VolumeTier != "" {
				tiers[fact.VolumeTier] = true
			}
		}
	}

	// Sets sorted at the boundary so serialized output is deterministic.
	for m := range methods {
		insights.PaymentMethods = append(insights.PaymentMethods, m)
	}
	sort.Slice(insights.PaymentMethods, func(i, j int) bool {
		return insights.PaymentMethods[i] < insights.PaymentMethods[j]
	})

	for t := range tiers {
		insights.VolumeTiers = append(insights.VolumeTiers, t)
	}
	sort.Strings(insights.VolumeTiers)

	return insights
}
