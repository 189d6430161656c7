package validate

// Severity tags how a rule breach affects acceptance.
type Severity string

const (
	SeverityCritical Severity = "critical"
	SeverityWarning  Severity = "warning"
)

// Violation codes.
const (
	CodeDayIndex           = "DAY_INDEX_MISMATCH"
	CodeMissingMeal        = "MISSING_MEAL"
	CodeCalorieMismatch    = "CALORIE_MISMATCH"
	CodeMacroMismatch      = "MACRO_MISMATCH"
	CodeMealDistribution   = "MEAL_DISTRIBUTION"
	CodeIncompleteMeal     = "INCOMPLETE_MEAL"
	CodeUnitClass          = "UNIT_CLASS"
	CodeMissingPortionSize = "MISSING_PORTION_SIZE"
	CodeMissingAllergens   = "MISSING_ALLERGEN_LIST"
	CodeMissingGroceryItem = "MISSING_GROCERY_ITEM"
	CodeGroceryCategory    = "GROCERY_MISCATEGORIZED"
	CodeGroceryDuplicate   = "GROCERY_DUPLICATE"
	CodeCulturalMismatch   = "CULTURAL_MISMATCH"
	CodeAllergenPresent    = "ALLERGEN_PRESENT"
	CodeReligiousConflict  = "RELIGIOUS_CONFLICT"
)

// Violation is a machine-detected rule breach. Metric carries the measured
// deviation for the rules the leniency gate re-evaluates: absolute kcal for
// calorie mismatches, a fraction of target for macro mismatches, and a
// percentage of daily calories for distribution breaches.
type Violation struct {
	Severity     Severity `json:"severity"`
	Code         string   `json:"code"`
	Message      string   `json:"message"`
	FieldPath    string   `json:"field_path"`
	SuggestedFix string   `json:"suggested_fix,omitempty"`
	Metric       float64  `json:"-"`
}

// Safety reports whether the violation touches allergens or religious
// dietary compliance. Safety-class violations are never leniently accepted.
func (v Violation) Safety() bool {
	return v.Code == CodeAllergenPresent || v.Code == CodeReligiousConflict
}

// Result is the outcome of one validation pass.
type Result struct {
	Pass       bool
	Violations []Violation
}

// Criticals filters the critical violations.
func (r Result) Criticals() []Violation {
	var out []Violation
	for _, v := range r.Violations {
		if v.Severity == SeverityCritical {
			out = append(out, v)
		}
	}
	return out
}

// CaloriesOnly reports whether every critical violation is a calorie
// mismatch. The retry layer treats this state as likely fixable by
// re-prompting.
func (r Result) CaloriesOnly() bool {
	crits := r.Criticals()
	if len(crits) == 0 {
		return false
	}
	for _, v := range crits {
		if v.Code != CodeCalorieMismatch {
			return false
		}
	}
	return true
}

// HasSafetyViolation reports whether any safety-class violation is present.
func (r Result) HasSafetyViolation() bool {
	for _, v := range r.Violations {
		if v.Safety() {
			return true
		}
	}
	return false
}
