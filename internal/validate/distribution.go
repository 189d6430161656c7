package validate

import (
	"fmt"

	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

type percentRange struct {
	Min, Max float64
}

func (r percentRange) contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// distributionBands are the goal-adaptive percentage bands each meal's share
// of daily calories must fall into, plus a hard cap for any single snack.
type distributionBands struct {
	Breakfast percentRange
	Lunch     percentRange
	Dinner    percentRange
	Snacks    percentRange
	SnackCap  float64
}

func bandsForGoal(goal string) distributionBands {
	switch goal {
	case profile.GoalLoseWeight, profile.GoalMaintain, profile.GoalHealth:
		return distributionBands{
			Breakfast: percentRange{25, 35},
			Lunch:     percentRange{25, 35},
			Dinner:    percentRange{25, 35},
			Snacks:    percentRange{10, 20},
			SnackCap:  20,
		}
	case profile.GoalWeightGain:
		return distributionBands{
			Breakfast: percentRange{25, 35},
			Lunch:     percentRange{25, 35},
			Dinner:    percentRange{25, 35},
			Snacks:    percentRange{15, 25},
			SnackCap:  30,
		}
	case profile.GoalBuildMuscle:
		return distributionBands{
			Breakfast: percentRange{25, 35},
			Lunch:     percentRange{25, 35},
			Dinner:    percentRange{25, 35},
			Snacks:    percentRange{10, 25},
			SnackCap:  25,
		}
	}
	return distributionBands{
		Breakfast: percentRange{25, 35},
		Lunch:     percentRange{25, 35},
		Dinner:    percentRange{25, 35},
		Snacks:    percentRange{10, 25},
		SnackCap:  25,
	}
}

// SnackCapForGoal exposes the per-snack calorie cap for a goal, so prompts
// can state the same bound the validator enforces.
func SnackCapForGoal(goal string) float64 {
	return bandsForGoal(goal).SnackCap
}

// checkDistribution verifies each meal's calorie share against the
// goal-adaptive band. Snack bands only apply when snacks are present.
func checkDistribution(day plan.Day, dayPath string, prof profile.UserProfile, dayTotal float64) []Violation {
	if dayTotal <= 0 {
		return nil
	}
	bands := bandsForGoal(prof.Goal)
	var out []Violation

	checks := []struct {
		name  string
		kcal  float64
		band  percentRange
		exist bool
	}{
		{"breakfast", day.Meals.Breakfast.Nutrition.Calories, bands.Breakfast, true},
		{"lunch", day.Meals.Lunch.Nutrition.Calories, bands.Lunch, true},
		{"dinner", day.Meals.Dinner.Nutrition.Calories, bands.Dinner, true},
	}
	for _, c := range checks {
		pct := c.kcal / dayTotal * 100
		if !c.band.contains(pct) {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeMealDistribution,
				Message:      fmt.Sprintf("day %d %s carries %.0f%% of daily calories, band %.0f–%.0f%%", day.Day, c.name, pct, c.band.Min, c.band.Max),
				FieldPath:    dayPath + ".meals." + c.name,
				SuggestedFix: fmt.Sprintf("rebalance %s toward %.0f–%.0f%% of daily calories", c.name, c.band.Min, c.band.Max),
				Metric:       pct,
			})
		}
	}

	if len(day.Meals.Snacks) > 0 {
		var snackTotal float64
		for j, snack := range day.Meals.Snacks {
			pct := snack.Nutrition.Calories / dayTotal * 100
			snackTotal += pct
			if pct > bands.SnackCap {
				out = append(out, Violation{
					Severity:     SeverityCritical,
					Code:         CodeMealDistribution,
					Message:      fmt.Sprintf("day %d snack %d carries %.0f%% of daily calories, cap %.0f%%", day.Day, j+1, pct, bands.SnackCap),
					FieldPath:    fmt.Sprintf("%s.meals.snacks[%d]", dayPath, j),
					SuggestedFix: fmt.Sprintf("keep each snack under %.0f%% of daily calories", bands.SnackCap),
					Metric:       pct,
				})
			}
		}
		if !bands.Snacks.contains(snackTotal) {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeMealDistribution,
				Message:      fmt.Sprintf("day %d snacks carry %.0f%% of daily calories, band %.0f–%.0f%%", day.Day, snackTotal, bands.Snacks.Min, bands.Snacks.Max),
				FieldPath:    dayPath + ".meals.snacks",
				SuggestedFix: fmt.Sprintf("keep snacks between %.0f%% and %.0f%% of daily calories", bands.Snacks.Min, bands.Snacks.Max),
				Metric:       snackTotal,
			})
		}
	}
	return out
}
