package plan

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// FromGenerated promotes a loosely-typed generated JSON document into a
// MealPlan. Generated output routinely gets field types wrong (numbers as
// strings, single values where arrays belong, camelCase drift), so every
// nested field goes through an explicit presence/type coercion instead of a
// direct unmarshal.
func FromGenerated(raw []byte) (*MealPlan, error) {
	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("failed to decode generated plan: %w", err)
	}

	out := &MealPlan{}

	if ov, ok := asMap(pick(doc, "overview", "summary")); ok {
		out.Overview.DailyCalories = asFloat(pick(ov, "daily_calories", "dailyCalories", "calories"))
		out.Overview.Duration = int(asFloat(pick(ov, "duration", "days")))
		out.Overview.Type = Type(asString(pick(ov, "type", "plan_type", "planType")))
		if mm, ok := asMap(pick(ov, "macros")); ok {
			out.Overview.Macros = Macros{
				Protein: asFloat(pick(mm, "protein")),
				Carbs:   asFloat(pick(mm, "carbs", "carbohydrates")),
				Fat:     asFloat(pick(mm, "fat", "fats")),
			}
		}
	}

	days, _ := pick(doc, "days", "plan").([]any)
	for _, rawDay := range days {
		dm, ok := asMap(rawDay)
		if !ok {
			continue
		}
		day := Day{Day: int(asFloat(pick(dm, "day", "day_number", "dayNumber")))}

		mealsDoc := dm
		if mm, ok := asMap(pick(dm, "meals")); ok {
			mealsDoc = mm
		}
		day.Meals.Breakfast = coerceMeal(pick(mealsDoc, "breakfast"))
		day.Meals.Lunch = coerceMeal(pick(mealsDoc, "lunch"))
		day.Meals.Dinner = coerceMeal(pick(mealsDoc, "dinner"))
		day.Meals.Snacks = coerceMealList(pick(mealsDoc, "snacks", "snack"))

		out.Days = append(out.Days, day)
	}

	out.GroceryList = coerceGroceryList(pick(doc, "grocery_list", "groceryList", "shopping_list", "shoppingList"))

	return out, nil
}

func coerceMeal(v any) Meal {
	m, ok := asMap(v)
	if !ok {
		return Meal{}
	}
	meal := Meal{
		Name:        asString(pick(m, "name", "meal_name", "mealName", "title")),
		Ingredients: coerceIngredients(pick(m, "ingredients")),
		Allergens:   asStringSlice(pick(m, "allergens")),
		PortionSize: asString(pick(m, "portion_size", "portionSize", "portion")),
		Swaps:       asStringSlice(pick(m, "swaps", "alternatives")),
	}

	switch instr := pick(m, "instructions", "directions").(type) {
	case string:
		meal.Instructions = instr
	case []any:
		parts := make([]string, 0, len(instr))
		for _, p := range instr {
			if s := asString(p); s != "" {
				parts = append(parts, s)
			}
		}
		meal.Instructions = strings.Join(parts, " ")
	}

	nut := m
	if nm, ok := asMap(pick(m, "nutrition", "macros", "nutrients")); ok {
		nut = nm
	}
	meal.Nutrition = Nutrition{
		Calories: asFloat(pick(nut, "calories", "kcal")),
		Protein:  asFloat(pick(nut, "protein", "protein_g")),
		Carbs:    asFloat(pick(nut, "carbs", "carbohydrates", "carbs_g")),
		Fat:      asFloat(pick(nut, "fat", "fats", "fat_g")),
		Fiber:    asFloat(pick(nut, "fiber", "fiber_g")),
		Sodium:   asFloat(pick(nut, "sodium", "sodium_mg")),
	}
	return meal
}

func coerceMealList(v any) []Meal {
	switch t := v.(type) {
	case []any:
		out := make([]Meal, 0, len(t))
		for _, item := range t {
			if m := coerceMeal(item); m.Name != "" || len(m.Ingredients) > 0 {
				out = append(out, m)
			}
		}
		return out
	case map[string]any:
		// A lone snack emitted as an object instead of a one-element array.
		if m := coerceMeal(t); m.Name != "" || len(m.Ingredients) > 0 {
			return []Meal{m}
		}
	}
	return nil
}

// coerceIngredients accepts plain strings or {quantity, name} objects and
// renders everything down to the quantity-string form the rest of the
// pipeline parses.
func coerceIngredients(v any) []string {
	items, ok := v.([]any)
	if !ok {
		if s := asString(v); s != "" {
			return []string{s}
		}
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		switch t := item.(type) {
		case string:
			if s := strings.TrimSpace(t); s != "" {
				out = append(out, s)
			}
		case map[string]any:
			name := asString(pick(t, "name", "ingredient", "item"))
			if name == "" {
				continue
			}
			qty := strings.TrimSpace(strings.Join([]string{
				asString(pick(t, "amount", "quantity")),
				asString(pick(t, "unit")),
			}, " "))
			if qty != "" {
				out = append(out, strings.TrimSpace(qty+" "+name))
			} else {
				out = append(out, name)
			}
		}
	}
	return out
}

func coerceGroceryList(v any) map[string][]string {
	switch t := v.(type) {
	case map[string]any:
		out := make(map[string][]string, len(t))
		for category, items := range t {
			list := asStringSlice(items)
			if len(list) > 0 {
				out[strings.ToLower(strings.TrimSpace(category))] = list
			}
		}
		return out
	case []any:
		// Flat list with no sections; park everything under pantry so the
		// aggregator's re-run can re-categorize.
		list := asStringSlice(t)
		if len(list) == 0 {
			return nil
		}
		return map[string][]string{"pantry": list}
	}
	return nil
}

// pick returns the first present key. Generated output drifts between
// snake_case and camelCase, so callers list the variants they accept.
func pick(m map[string]any, keys ...string) any {
	for _, k := range keys {
		if v, ok := m[k]; ok && v != nil {
			return v
		}
	}
	return nil
}

func asMap(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return strings.TrimSpace(t)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case json.Number:
		return t.String()
	}
	return ""
}

func asFloat(v any) float64 {
	switch t := v.(type) {
	case float64:
		return t
	case int:
		return float64(t)
	case json.Number:
		f, _ := t.Float64()
		return f
	case string:
		s := strings.TrimSpace(t)
		// Tolerate "450 kcal" and similar suffixes.
		if i := strings.IndexFunc(s, func(r rune) bool {
			return (r < '0' || r > '9') && r != '.' && r != '-'
		}); i > 0 {
			s = s[:i]
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return 0
		}
		return f
	}
	return 0
}

func asStringSlice(v any) []string {
	switch t := v.(type) {
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			if s := asString(item); s != "" {
				out = append(out, s)
			}
		}
		return out
	case string:
		if s := strings.TrimSpace(t); s != "" {
			return []string{s}
		}
	}
	return nil
}
