package evaluator

import "github.com/Udenis123/Minining-monitoring-System-sub000/internal/domain"

// Aggregate rolls a set of tiers up to the worst one present. An empty set
// aggregates to normal: absence of data is not an alarm. The rule is the
// maximum over a total order, so it is associative and order-independent,
// and incremental aggregation via Combine yields the same result as a
// single pass.
func Aggregate(tiers []domain.StatusTier) domain.StatusTier {
	result := domain.TierNormal
	for _, tier := range tiers {
		result = Combine(result, tier)
	}
	return result
}

// Combine merges one more tier into a running aggregate.
func Combine(aggregate, tier domain.StatusTier) domain.StatusTier {
	if tier > aggregate {
		return tier
	}
	return aggregate
}
