package profile

import "strings"

// UserProfile is the immutable input of one generation request.
type UserProfile struct {
	Age           int      `json:"age"`
	Gender        string   `json:"gender"`
	HeightCM      float64  `json:"height_cm"`
	WeightKG      float64  `json:"weight_kg"`
	Goal          string   `json:"goal"`
	ActivityLevel string   `json:"activity_level"`
	Diet          string   `json:"diet"`
	Religion      string   `json:"religion"`
	Cuisine       string   `json:"cuisine"`
	Allergies     []string `json:"allergies"`
	Conditions    []string `json:"conditions"`
	Medications   []string `json:"medications"`
	Notes         string   `json:"notes"`
}

// Goal values the calorie-distribution bands are keyed on.
const (
	GoalLoseWeight  = "lose_weight"
	GoalMaintain    = "maintain"
	GoalHealth      = "health"
	GoalWeightGain  = "weight_gain"
	GoalBuildMuscle = "build_muscle"
)

// HasAllergy reports whether name matches one of the profile's allergies.
// Matching is case-insensitive and substring-based in both directions, so
// "peanuts" matches an ingredient "2 tbsp peanut butter".
func (p UserProfile) HasAllergy(name string) bool {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == "" {
		return false
	}
	for _, a := range p.Allergies {
		al := strings.ToLower(strings.TrimSpace(a))
		if al == "" {
			continue
		}
		if strings.Contains(n, strings.TrimSuffix(al, "s")) || strings.Contains(al, n) {
			return true
		}
	}
	return false
}

// ReligiousDiet returns the religious dietary rule in effect, if any.
func (p UserProfile) ReligiousDiet() string {
	switch strings.ToLower(p.Religion) {
	case "islam", "muslim":
		return "halal"
	case "judaism", "jewish":
		return "kosher"
	case "hinduism", "hindu":
		return "no_beef"
	}
	switch strings.ToLower(p.Diet) {
	case "halal", "kosher":
		return strings.ToLower(p.Diet)
	}
	return ""
}
