package grocery

import (
	"reflect"
	"testing"

	"mealplan-engine/internal/plan"
)

func planFromIngredients(days ...[]string) *plan.MealPlan {
	p := &plan.MealPlan{}
	for i, lines := range days {
		day := plan.Day{Day: i + 1}
		day.Meals.Lunch = plan.Meal{Name: "Lunch", Ingredients: lines}
		p.Days = append(p.Days, day)
	}
	return p
}

func findItem(list map[string][]string, category, want string) bool {
	for _, item := range list[category] {
		if item == want {
			return true
		}
	}
	return false
}

func TestAggregateSumsAcrossDays(t *testing.T) {
	p := planFromIngredients(
		[]string{"2 tbsp olive oil", "1 cup rice"},
		[]string{"2 tbsp olive oil", "1 cup rice"},
	)

	list := Aggregate(p)

	if !findItem(list, CategoryPantry, "4 tbsp olive oil") {
		t.Errorf("pantry = %v, want an entry %q", list[CategoryPantry], "4 tbsp olive oil")
	}
	// Rice shops by weight: 200 g per cup.
	if !findItem(list, CategoryPantry, "400 g rice") {
		t.Errorf("pantry = %v, want an entry %q", list[CategoryPantry], "400 g rice")
	}
}

func TestAggregateCookedToDry(t *testing.T) {
	p := planFromIngredients([]string{"2 cups cooked rice"})

	list := Aggregate(p)

	// 2 cups cooked halves to 1 cup dry, which converts to 200 g.
	if !findItem(list, CategoryPantry, "200 g rice") {
		t.Errorf("pantry = %v, want %q", list[CategoryPantry], "200 g rice")
	}
}

func TestAggregateExcludesWater(t *testing.T) {
	p := planFromIngredients([]string{"2 cups water", "1 cup warm water", "1 cup milk"})

	list := Aggregate(p)

	for category, items := range list {
		for _, item := range items {
			if item == "2 cups water" || item == "1 cup warm water" {
				t.Errorf("water leaked into %s: %v", category, items)
			}
		}
	}
	if !findItem(list, CategoryDairy, "1 cup milk") {
		t.Errorf("dairy = %v, want %q", list[CategoryDairy], "1 cup milk")
	}
}

func TestAggregateMergesNearDuplicates(t *testing.T) {
	p := planFromIngredients(
		[]string{"1 onion"},
		[]string{"2 red onion"},
	)

	list := Aggregate(p)

	if !findItem(list, CategoryProduce, "3 red onion") {
		t.Errorf("produce = %v, want merged entry %q", list[CategoryProduce], "3 red onion")
	}
	if len(list[CategoryProduce]) != 1 {
		t.Errorf("produce has %d entries, want 1: %v", len(list[CategoryProduce]), list[CategoryProduce])
	}
}

func TestAggregateVolumeRoundTrip(t *testing.T) {
	p := planFromIngredients([]string{"1 tsp garam masala"})

	list := Aggregate(p)

	if !findItem(list, CategorySpices, "1 tsp garam masala") {
		t.Errorf("spices = %v, want %q", list[CategorySpices], "1 tsp garam masala")
	}
}

func TestAggregateIdempotent(t *testing.T) {
	p := planFromIngredients(
		[]string{"2 tbsp olive oil", "200 g chicken breast", "1 cup rice", "salt to taste"},
		[]string{"1 tbsp olive oil", "2 eggs", "1/2 cup oats"},
	)

	first := Aggregate(p)
	p.GroceryList = first
	second := Aggregate(p)

	if !reflect.DeepEqual(first, second) {
		t.Errorf("aggregation drifted on re-run:\nfirst:  %v\nsecond: %v", first, second)
	}
}

func TestRenderMassKilograms(t *testing.T) {
	g := &AggregatedIngredient{CanonicalName: "chicken breast", TotalBaseAmount: 1400, BaseUnit: BaseG}
	if got := Render(g); got != "1 kg 400 g chicken breast" {
		t.Errorf("Render = %q, want %q", got, "1 kg 400 g chicken breast")
	}
}

func TestRenderMassCarriesRoundedKilogram(t *testing.T) {
	g := &AggregatedIngredient{CanonicalName: "chicken breast", TotalBaseAmount: 1995, BaseUnit: BaseG}
	if got := Render(g); got != "2 kg chicken breast" {
		t.Errorf("Render = %q, want %q", got, "2 kg chicken breast")
	}
}

func TestRenderSpicePacket(t *testing.T) {
	g := &AggregatedIngredient{CanonicalName: "turmeric", TotalBaseAmount: 6, BaseUnit: BaseG}
	if got := Render(g); got != "1 packet turmeric" {
		t.Errorf("Render = %q, want %q", got, "1 packet turmeric")
	}
}
