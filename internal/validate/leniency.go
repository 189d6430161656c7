package validate

// LeniencyPolicy is the final relaxed-tolerance check applied after repair
// attempts are exhausted. The thresholds are policy, not law: they exist
// because exact numeric matching from a generative source is not achievable
// every time, and they are configurable for that reason.
type LeniencyPolicy struct {
	// CalorieSlackKcal accepts calorie mismatches up to this absolute amount.
	CalorieSlackKcal float64
	// MacroSlackFraction accepts macro mismatches up to this fraction of target.
	MacroSlackFraction float64
	// DistributionMinPct / DistributionMaxPct widen the meal-distribution band.
	DistributionMinPct float64
	DistributionMaxPct float64
	// AllowMissingGroceryItems treats MISSING_GROCERY_ITEM as non-blocking.
	AllowMissingGroceryItems bool
}

// DefaultLeniency returns the policy in production use.
func DefaultLeniency() LeniencyPolicy {
	return LeniencyPolicy{
		CalorieSlackKcal:         150,
		MacroSlackFraction:       0.30,
		DistributionMinPct:       20,
		DistributionMaxPct:       50,
		AllowMissingGroceryItems: true,
	}
}

// Apply partitions the remaining critical violations into leniently accepted
// and still blocking. Safety-class violations always block; warnings never
// reach this gate.
func (p LeniencyPolicy) Apply(violations []Violation) (accepted, blocking []Violation) {
	for _, v := range violations {
		if v.Severity != SeverityCritical {
			continue
		}
		if v.Safety() {
			blocking = append(blocking, v)
			continue
		}
		if p.accepts(v) {
			accepted = append(accepted, v)
		} else {
			blocking = append(blocking, v)
		}
	}
	return accepted, blocking
}

func (p LeniencyPolicy) accepts(v Violation) bool {
	switch v.Code {
	case CodeCalorieMismatch:
		return v.Metric <= p.CalorieSlackKcal
	case CodeMacroMismatch:
		return v.Metric <= p.MacroSlackFraction
	case CodeMealDistribution:
		return v.Metric >= p.DistributionMinPct && v.Metric <= p.DistributionMaxPct
	case CodeMissingGroceryItem:
		return p.AllowMissingGroceryItems
	}
	return false
}
