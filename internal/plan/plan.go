package plan

import (
	"fmt"

	"mealplan-engine/internal/profile"
)

// Type distinguishes the requested plan shape.
type Type string

const (
	TypeDaily   Type = "daily"
	TypeWeekly  Type = "weekly"
	TypeMonthly Type = "monthly"
)

// Request describes one plan-generation request.
type Request struct {
	PlanType       Type                `json:"plan_type"`
	Duration       int                 `json:"duration"`
	TargetCalories float64             `json:"target_calories"`
	Profile        profile.UserProfile `json:"profile"`
}

// Validate performs the fatal/config-class shape check. Failures here are
// surfaced immediately and never retried.
func (r Request) Validate() error {
	switch r.PlanType {
	case TypeDaily, TypeWeekly, TypeMonthly:
	default:
		return fmt.Errorf("unknown plan type %q", r.PlanType)
	}
	if r.Duration < 1 {
		return fmt.Errorf("duration must be at least 1 day, got %d", r.Duration)
	}
	if r.TargetCalories < 800 || r.TargetCalories > 10000 {
		return fmt.Errorf("target calories %0.f outside plausible range", r.TargetCalories)
	}
	return nil
}

// Nutrition holds the per-meal numeric nutrition fields.
type Nutrition struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fat      float64 `json:"fat"`
	Fiber    float64 `json:"fiber,omitempty"`
	Sodium   float64 `json:"sodium,omitempty"`
}

// Meal is a single generated meal or snack.
type Meal struct {
	Name         string    `json:"name"`
	Ingredients  []string  `json:"ingredients"`
	Instructions string    `json:"instructions"`
	Nutrition    Nutrition `json:"nutrition"`
	Allergens    []string  `json:"allergens,omitempty"`
	PortionSize  string    `json:"portion_size,omitempty"`
	Swaps        []string  `json:"swaps,omitempty"`
}

// Meals groups a day's required meals and optional snacks.
type Meals struct {
	Breakfast Meal   `json:"breakfast"`
	Lunch     Meal   `json:"lunch"`
	Dinner    Meal   `json:"dinner"`
	Snacks    []Meal `json:"snacks,omitempty"`
}

// All returns the day's meals in a fixed order: the three main meals
// followed by snacks.
func (m Meals) All() []Meal {
	out := []Meal{m.Breakfast, m.Lunch, m.Dinner}
	return append(out, m.Snacks...)
}

// Day is one day of the plan. Day indexes are 1-based and contiguous.
type Day struct {
	Day   int   `json:"day"`
	Meals Meals `json:"meals"`
}

// TotalCalories sums breakfast, lunch, dinner and snacks.
func (d Day) TotalCalories() float64 {
	var total float64
	for _, m := range d.Meals.All() {
		total += m.Nutrition.Calories
	}
	return total
}

// TotalMacros sums protein, carbs and fat across the day.
func (d Day) TotalMacros() Macros {
	var out Macros
	for _, m := range d.Meals.All() {
		out.Protein += m.Nutrition.Protein
		out.Carbs += m.Nutrition.Carbs
		out.Fat += m.Nutrition.Fat
	}
	return out
}

// Macros holds daily macro targets in grams.
type Macros struct {
	Protein float64 `json:"protein"`
	Carbs   float64 `json:"carbs"`
	Fat     float64 `json:"fat"`
}

// Overview summarizes the plan-wide targets.
type Overview struct {
	DailyCalories float64 `json:"daily_calories"`
	Macros        Macros  `json:"macros"`
	Duration      int     `json:"duration"`
	Type          Type    `json:"type"`
}

// MealPlan is the full multi-day plan handed back to the caller.
type MealPlan struct {
	Overview    Overview            `json:"overview"`
	Days        []Day               `json:"days"`
	GroceryList map[string][]string `json:"grocery_list"`
}

// Clone returns a deep copy. Repair rounds mutate a clone so a failed
// attempt cannot corrupt the last-known-good plan.
func (p *MealPlan) Clone() *MealPlan {
	if p == nil {
		return nil
	}
	out := &MealPlan{Overview: p.Overview}
	out.Days = make([]Day, len(p.Days))
	for i, d := range p.Days {
		nd := Day{Day: d.Day}
		nd.Meals.Breakfast = cloneMeal(d.Meals.Breakfast)
		nd.Meals.Lunch = cloneMeal(d.Meals.Lunch)
		nd.Meals.Dinner = cloneMeal(d.Meals.Dinner)
		if d.Meals.Snacks != nil {
			nd.Meals.Snacks = make([]Meal, len(d.Meals.Snacks))
			for j, s := range d.Meals.Snacks {
				nd.Meals.Snacks[j] = cloneMeal(s)
			}
		}
		out.Days[i] = nd
	}
	if p.GroceryList != nil {
		out.GroceryList = make(map[string][]string, len(p.GroceryList))
		for k, v := range p.GroceryList {
			items := make([]string, len(v))
			copy(items, v)
			out.GroceryList[k] = items
		}
	}
	return out
}

func cloneMeal(m Meal) Meal {
	out := m
	out.Ingredients = append([]string(nil), m.Ingredients...)
	out.Allergens = append([]string(nil), m.Allergens...)
	out.Swaps = append([]string(nil), m.Swaps...)
	return out
}
