package validate

import (
	"fmt"
	"strings"

	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

// Forbidden ingredient keywords per religious dietary rule.
var religiousForbidden = map[string][]string{
	"halal": {
		"pork", "bacon", "ham", "prosciutto", "pepperoni", "salami",
		"lard", "gelatin", "wine", "beer", "alcohol", "rum", "brandy", "mirin",
	},
	"kosher": {
		"pork", "bacon", "ham", "prosciutto", "pepperoni", "lard",
		"shrimp", "prawn", "crab", "lobster", "clam", "oyster", "squid",
		"octopus", "scallop", "eel", "catfish",
	},
	"no_beef": {
		"beef", "steak", "veal", "oxtail", "brisket",
	},
}

// checkMealSafety produces the safety-class violations: listed allergens and
// religious dietary conflicts found in a meal's ingredients. These are never
// subject to leniency.
func checkMealSafety(m plan.Meal, path string, prof profile.UserProfile) []Violation {
	var out []Violation

	for j, line := range m.Ingredients {
		if prof.HasAllergy(line) {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeAllergenPresent,
				Message:      fmt.Sprintf("meal %q ingredient %q matches a listed allergy", m.Name, line),
				FieldPath:    fmt.Sprintf("%s.ingredients[%d]", path, j),
				SuggestedFix: "replace this ingredient with a safe alternative",
			})
		}
	}

	rule := prof.ReligiousDiet()
	if rule == "" {
		return out
	}
	forbidden := religiousForbidden[rule]
	for j, line := range m.Ingredients {
		l := strings.ToLower(line)
		for _, f := range forbidden {
			if strings.Contains(l, f) {
				out = append(out, Violation{
					Severity:     SeverityCritical,
					Code:         CodeReligiousConflict,
					Message:      fmt.Sprintf("meal %q ingredient %q conflicts with %s dietary rules", m.Name, line, rule),
					FieldPath:    fmt.Sprintf("%s.ingredients[%d]", path, j),
					SuggestedFix: fmt.Sprintf("replace %q with a %s-compliant alternative", f, rule),
				})
				break
			}
		}
	}
	return out
}
