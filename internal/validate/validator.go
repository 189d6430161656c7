package validate

import (
	"fmt"
	"math"
	"strings"

	"mealplan-engine/internal/grocery"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

// CalorieTolerance returns the per-day calorie tolerance for a plan type:
// single-day plans are held to a tighter band than multi-day ones.
func CalorieTolerance(planType plan.Type) float64 {
	if planType == plan.TypeDaily {
		return 25
	}
	return 50
}

const macroTolerance = 0.05

// Plan checks a full plan against the user profile and target calories and
// produces the list of typed violations. Pass is true iff no critical
// violations remain.
func Plan(p *plan.MealPlan, prof profile.UserProfile, targetCalories float64, planType plan.Type) Result {
	var out []Violation

	for i := range p.Days {
		out = append(out, checkDay(p, i, prof, targetCalories, planType)...)
	}
	out = append(out, checkGroceryList(p)...)
	out = append(out, checkCulturalFit(p, prof)...)

	result := Result{Violations: out}
	result.Pass = len(result.Criticals()) == 0
	return result
}

func checkDay(p *plan.MealPlan, i int, prof profile.UserProfile, targetCalories float64, planType plan.Type) []Violation {
	var out []Violation
	day := p.Days[i]
	dayPath := fmt.Sprintf("days[%d]", i)

	if day.Day != i+1 {
		out = append(out, Violation{
			Severity:     SeverityCritical,
			Code:         CodeDayIndex,
			Message:      fmt.Sprintf("day index %d does not match position %d", day.Day, i+1),
			FieldPath:    dayPath + ".day",
			SuggestedFix: fmt.Sprintf("set day to %d", i+1),
		})
	}

	mains := []struct {
		name string
		meal plan.Meal
	}{
		{"breakfast", day.Meals.Breakfast},
		{"lunch", day.Meals.Lunch},
		{"dinner", day.Meals.Dinner},
	}
	for _, m := range mains {
		path := dayPath + ".meals." + m.name
		if m.meal.Name == "" && len(m.meal.Ingredients) == 0 {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeMissingMeal,
				Message:      fmt.Sprintf("day %d is missing %s", day.Day, m.name),
				FieldPath:    path,
				SuggestedFix: "generate a complete " + m.name + " meal",
			})
			continue
		}
		out = append(out, checkMealComplete(m.meal, path)...)
		out = append(out, checkUnitClasses(m.meal, path)...)
		out = append(out, checkMealSafety(m.meal, path, prof)...)
	}

	for j, snack := range day.Meals.Snacks {
		path := fmt.Sprintf("%s.meals.snacks[%d]", dayPath, j)
		out = append(out, checkMealComplete(snack, path)...)
		out = append(out, checkUnitClasses(snack, path)...)
		out = append(out, checkMealSafety(snack, path, prof)...)
		if strings.TrimSpace(snack.PortionSize) == "" {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeMissingPortionSize,
				Message:      fmt.Sprintf("snack %q has no portion size", snack.Name),
				FieldPath:    path + ".portion_size",
				SuggestedFix: "add a portion size such as \"1 small bowl (150 g)\"",
			})
		}
		if snack.Allergens == nil {
			out = append(out, Violation{
				Severity:  SeverityWarning,
				Code:      CodeMissingAllergens,
				Message:   fmt.Sprintf("snack %q has no allergens list", snack.Name),
				FieldPath: path + ".allergens",
			})
		}
	}

	// Calorie and macro totals only mean something once the meals exist.
	if total := day.TotalCalories(); total > 0 {
		tol := CalorieTolerance(planType)
		if diff := math.Abs(total - targetCalories); diff > tol {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeCalorieMismatch,
				Message:      fmt.Sprintf("day %d totals %.0f kcal, target %.0f ± %.0f", day.Day, total, targetCalories, tol),
				FieldPath:    dayPath,
				SuggestedFix: fmt.Sprintf("scale portions so day %d lands within %.0f kcal of %.0f", day.Day, tol, targetCalories),
				Metric:       diff,
			})
		}
		out = append(out, checkMacros(day, dayPath, p.Overview.Macros)...)
		out = append(out, checkDistribution(day, dayPath, prof, total)...)
	}

	return out
}

func checkMealComplete(m plan.Meal, path string) []Violation {
	var problems []string
	if strings.TrimSpace(m.Name) == "" {
		problems = append(problems, "no name")
	}
	if len(m.Ingredients) < 3 {
		problems = append(problems, fmt.Sprintf("only %d ingredients (need 3)", len(m.Ingredients)))
	}
	if len(strings.TrimSpace(m.Instructions)) < 50 {
		problems = append(problems, "instructions shorter than 50 characters")
	}
	if m.Nutrition.Calories <= 0 {
		problems = append(problems, "calories missing")
	}
	if m.Nutrition.Protein <= 0 && m.Nutrition.Carbs <= 0 && m.Nutrition.Fat <= 0 {
		problems = append(problems, "macros missing")
	}
	if len(problems) == 0 {
		return nil
	}
	return []Violation{{
		Severity:     SeverityCritical,
		Code:         CodeIncompleteMeal,
		Message:      fmt.Sprintf("meal %q is incomplete: %s", m.Name, strings.Join(problems, "; ")),
		FieldPath:    path,
		SuggestedFix: "fill in name, at least 3 ingredients, 50+ character instructions and numeric nutrition",
	}}
}

// Herbs and aromatics are legitimately measured by the spoon even when
// chopped; solid produce is not.
var spoonExemptProduce = []string{
	"cilantro", "coriander leaves", "parsley", "mint", "dill", "basil",
	"chive", "garlic", "ginger", "scallion", "spring onion", "herb",
}

func checkUnitClasses(m plan.Meal, path string) []Violation {
	var out []Violation
	for j, line := range m.Ingredients {
		parsed := grocery.ParseIngredient(line)
		if parsed == nil {
			continue
		}
		if parsed.Unit != grocery.UnitTbsp && parsed.Unit != grocery.UnitTsp {
			continue
		}
		core := grocery.CoreName(parsed.Name)
		if grocery.CategoryOf(core) != grocery.CategoryProduce {
			continue
		}
		exempt := false
		for _, h := range spoonExemptProduce {
			if strings.Contains(core, h) {
				exempt = true
				break
			}
		}
		if exempt {
			continue
		}
		out = append(out, Violation{
			Severity:     SeverityWarning,
			Code:         CodeUnitClass,
			Message:      fmt.Sprintf("solid produce %q measured in %s", parsed.Name, parsed.Unit),
			FieldPath:    fmt.Sprintf("%s.ingredients[%d]", path, j),
			SuggestedFix: "express solid produce in grams, cups or pieces",
		})
	}
	return out
}

func checkMacros(day plan.Day, dayPath string, target plan.Macros) []Violation {
	var out []Violation
	actual := day.TotalMacros()
	checks := []struct {
		name           string
		actual, target float64
	}{
		{"protein", actual.Protein, target.Protein},
		{"carbs", actual.Carbs, target.Carbs},
		{"fat", actual.Fat, target.Fat},
	}
	for _, c := range checks {
		if c.target <= 0 {
			continue
		}
		frac := math.Abs(c.actual-c.target) / c.target
		if frac > macroTolerance {
			out = append(out, Violation{
				Severity:     SeverityCritical,
				Code:         CodeMacroMismatch,
				Message:      fmt.Sprintf("day %d %s is %.0f g, target %.0f g ± %.0f%%", day.Day, c.name, c.actual, c.target, macroTolerance*100),
				FieldPath:    dayPath,
				SuggestedFix: fmt.Sprintf("adjust meals so daily %s lands near %.0f g", c.name, c.target),
				Metric:       frac,
			})
		}
	}
	return out
}
