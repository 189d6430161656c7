package validate

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mealplan-engine/internal/grocery"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
)

const testInstructions = "Combine everything in a pan and cook over medium heat until done, then season and serve."

func testMeal(name string, kcal, protein, carbs, fat float64, ingredients ...string) plan.Meal {
	return plan.Meal{
		Name:         name,
		Ingredients:  ingredients,
		Instructions: testInstructions,
		Nutrition:    plan.Nutrition{Calories: kcal, Protein: protein, Carbs: carbs, Fat: fat},
	}
}

// testPlan builds a one-day plan that satisfies every rule for a 2000 kcal
// daily target with a maintain goal.
func testPlan() *plan.MealPlan {
	snack := testMeal("Greek Yogurt with Berries", 200, 10, 25, 5,
		"1 cup greek yogurt", "100 g blueberries", "1 tbsp honey")
	snack.PortionSize = "1 small bowl (200 g)"
	snack.Allergens = []string{}

	p := &plan.MealPlan{
		Overview: plan.Overview{
			DailyCalories: 2000,
			Macros:        plan.Macros{Protein: 115, Carbs: 230, Fat: 58},
			Duration:      1,
			Type:          plan.TypeDaily,
		},
		Days: []plan.Day{{
			Day: 1,
			Meals: plan.Meals{
				Breakfast: testMeal("Oatmeal with Banana", 550, 30, 60, 15,
					"1 cup oats", "1 banana", "1 cup milk"),
				Lunch: testMeal("Grilled Chicken Rice Bowl", 600, 35, 70, 18,
					"200 g chicken breast", "1 cup rice", "100 g broccoli"),
				Dinner: testMeal("Salmon with Quinoa", 650, 40, 75, 20,
					"200 g salmon", "1 cup quinoa", "100 g spinach"),
				Snacks: []plan.Meal{snack},
			},
		}},
	}
	p.GroceryList = grocery.Aggregate(p)
	return p
}

func testProfile() profile.UserProfile {
	return profile.UserProfile{
		Age: 34, Gender: "female", HeightCM: 165, WeightKG: 62,
		Goal: profile.GoalMaintain, ActivityLevel: "moderate",
	}
}

func codes(violations []Violation) []string {
	out := make([]string, 0, len(violations))
	for _, v := range violations {
		out = append(out, v.Code)
	}
	return out
}

func TestPlanValid(t *testing.T) {
	res := Plan(testPlan(), testProfile(), 2000, plan.TypeDaily)

	assert.True(t, res.Pass, "violations: %v", res.Violations)
	assert.Empty(t, res.Criticals())
}

func TestPlanMissingDinner(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Dinner = plan.Meal{}

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	require.False(t, res.Pass)
	assert.Contains(t, codes(res.Criticals()), CodeMissingMeal)
}

func TestPlanDayIndexMismatch(t *testing.T) {
	p := testPlan()
	p.Days[0].Day = 5

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.Contains(t, codes(res.Criticals()), CodeDayIndex)
}

func TestPlanCalorieMismatch(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Snacks[0].Nutrition.Calories += 100 // 2100 total

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	require.False(t, res.Pass)
	crits := res.Criticals()
	require.Len(t, crits, 1)
	assert.Equal(t, CodeCalorieMismatch, crits[0].Code)
	assert.InDelta(t, 100, crits[0].Metric, 0.01)
	assert.True(t, res.CaloriesOnly())
}

func TestPlanCalorieToleranceByType(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Snacks[0].Nutrition.Calories += 40 // 2040 total

	// 40 kcal off blows the daily tolerance of 25 but sits inside the
	// multi-day tolerance of 50.
	res := Plan(p, testProfile(), 2000, plan.TypeDaily)
	assert.Contains(t, codes(res.Criticals()), CodeCalorieMismatch)

	res = Plan(p, testProfile(), 2000, plan.TypeWeekly)
	assert.NotContains(t, codes(res.Criticals()), CodeCalorieMismatch)
}

func TestPlanMacroMismatch(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Lunch.Nutrition.Protein += 30 // 145 vs target 115

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	require.False(t, res.Pass)
	assert.Contains(t, codes(res.Criticals()), CodeMacroMismatch)
	assert.False(t, res.CaloriesOnly())
}

func TestPlanDistribution(t *testing.T) {
	p := testPlan()
	// Shift calories so breakfast carries 45% and dinner 17.5%.
	p.Days[0].Meals.Breakfast.Nutrition.Calories = 900
	p.Days[0].Meals.Lunch.Nutrition.Calories = 550
	p.Days[0].Meals.Dinner.Nutrition.Calories = 350

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	var metrics []float64
	for _, v := range res.Criticals() {
		if v.Code == CodeMealDistribution {
			metrics = append(metrics, v.Metric)
		}
	}
	require.Len(t, metrics, 2)
	assert.InDelta(t, 45, metrics[0], 0.01)
	assert.InDelta(t, 17.5, metrics[1], 0.01)
}

func TestPlanIncompleteMeal(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Lunch.Ingredients = []string{"200 g chicken breast"}
	p.Days[0].Meals.Lunch.Instructions = "Cook."

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.Contains(t, codes(res.Criticals()), CodeIncompleteMeal)
}

func TestPlanSnackPortionSize(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Snacks[0].PortionSize = ""

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.Contains(t, codes(res.Criticals()), CodeMissingPortionSize)
}

func TestPlanSnackAllergensListWarning(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Snacks[0].Allergens = nil

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.True(t, res.Pass, "a missing allergens list is a warning, not critical")
	assert.Contains(t, codes(res.Violations), CodeMissingAllergens)
}

func TestPlanUnitClassWarning(t *testing.T) {
	p := testPlan()
	p.Days[0].Meals.Lunch.Ingredients = append(p.Days[0].Meals.Lunch.Ingredients, "2 tbsp chopped tomato")
	p.GroceryList = grocery.Aggregate(p)

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.True(t, res.Pass)
	assert.Contains(t, codes(res.Violations), CodeUnitClass)
}

func TestPlanAllergenPresent(t *testing.T) {
	prof := testProfile()
	prof.Allergies = []string{"peanuts"}
	p := testPlan()
	p.Days[0].Meals.Snacks[0].Ingredients = append(p.Days[0].Meals.Snacks[0].Ingredients, "2 tbsp peanut butter")
	p.GroceryList = grocery.Aggregate(p)

	res := Plan(p, prof, 2000, plan.TypeDaily)

	require.False(t, res.Pass)
	assert.Contains(t, codes(res.Criticals()), CodeAllergenPresent)
	assert.True(t, res.HasSafetyViolation())
}

func TestPlanReligiousConflict(t *testing.T) {
	prof := testProfile()
	prof.Religion = "muslim"
	p := testPlan()
	p.Days[0].Meals.Dinner.Ingredients[0] = "200 g pork tenderloin"
	p.GroceryList = grocery.Aggregate(p)

	res := Plan(p, prof, 2000, plan.TypeDaily)

	require.False(t, res.Pass)
	assert.Contains(t, codes(res.Criticals()), CodeReligiousConflict)
	assert.True(t, res.HasSafetyViolation())
}

func TestPlanMissingGroceryItem(t *testing.T) {
	p := testPlan()
	delete(p.GroceryList, grocery.CategoryProtein)

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.Contains(t, codes(res.Criticals()), CodeMissingGroceryItem)
}

func TestPlanGroceryMiscategorized(t *testing.T) {
	p := testPlan()
	p.GroceryList[grocery.CategoryDairy] = append(p.GroceryList[grocery.CategoryDairy], "2 tbsp peanut butter")

	res := Plan(p, testProfile(), 2000, plan.TypeDaily)

	assert.Contains(t, codes(res.Criticals()), CodeGroceryCategory)
}

func TestPlanCulturalMismatchWarning(t *testing.T) {
	prof := testProfile()
	prof.Cuisine = "indian"
	p := testPlan()
	p.Days[0].Meals.Lunch.Ingredients = append(p.Days[0].Meals.Lunch.Ingredients, "2 tbsp sour cream")
	p.GroceryList = grocery.Aggregate(p)

	res := Plan(p, prof, 2000, plan.TypeDaily)

	assert.True(t, res.Pass, "cultural mismatches stay warning-only")
	assert.Contains(t, codes(res.Violations), CodeCulturalMismatch)
}
