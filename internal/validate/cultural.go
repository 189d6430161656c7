package validate

import (
	"fmt"
	"strings"

	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

// Western staples that clash with a stated cuisine preference. This is a
// deliberately small keyword heuristic and stays warning-only.
var culturalConflicts = map[string][]string{
	"indian":         {"parmesan", "cheddar", "sour cream", "tortilla", "soy sauce"},
	"south asian":    {"parmesan", "cheddar", "sour cream", "tortilla", "soy sauce"},
	"pakistani":      {"parmesan", "cheddar", "sour cream", "tortilla", "soy sauce"},
	"middle eastern": {"parmesan", "cheddar", "tortilla", "soy sauce", "kimchi"},
	"east asian":     {"cheddar", "sour cream", "hummus", "za'atar"},
	"chinese":        {"cheddar", "sour cream", "hummus", "za'atar"},
	"japanese":       {"cheddar", "sour cream", "hummus", "za'atar"},
}

func checkCulturalFit(p *plan.MealPlan, prof profile.UserProfile) []Violation {
	cuisine := strings.ToLower(strings.TrimSpace(prof.Cuisine))
	if cuisine == "" {
		return nil
	}
	conflicts, ok := culturalConflicts[cuisine]
	if !ok {
		return nil
	}

	var out []Violation
	for i, day := range p.Days {
		for _, meal := range day.Meals.All() {
			for j, line := range meal.Ingredients {
				l := strings.ToLower(line)
				for _, c := range conflicts {
					if strings.Contains(l, c) {
						out = append(out, Violation{
							Severity:     SeverityWarning,
							Code:         CodeCulturalMismatch,
							Message:      fmt.Sprintf("ingredient %q is unusual for %s cuisine", line, cuisine),
							FieldPath:    fmt.Sprintf("days[%d].meals (ingredient %d of %q)", i, j, meal.Name),
							SuggestedFix: fmt.Sprintf("prefer a %s-appropriate alternative", cuisine),
						})
						break
					}
				}
			}
		}
	}
	return out
}
