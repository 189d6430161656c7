package planner

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strconv"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"mealplan-engine/internal/config"
	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/profile"
	"mealplan-engine/internal/validate"
)

// scriptedGenerator plays back canned responses and records every prompt.
type scriptedGenerator struct {
	calls   int
	prompts []string
	fn      func(call int, prompt string) (llm.ContentResponse, error)
}

func (g *scriptedGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	g.calls++
	g.prompts = append(g.prompts, prompt)
	return g.fn(g.calls, prompt)
}

func testConfig() *config.Config {
	return &config.Config{
		Provider:       "gemini",
		GlobalDeadline: 30 * time.Second,
		WindowCeiling:  10 * time.Second,
		MergeReserve:   time.Second,
		MinWindowTime:  50 * time.Millisecond,
		BackoffReserve: 500 * time.Millisecond,
		MaxAttempts:    2,
		RepairAttempts: 2,
		Leniency:       validate.DefaultLeniency(),
	}
}

func testRequest() plan.Request {
	return plan.Request{
		PlanType:       plan.TypeDaily,
		Duration:       1,
		TargetCalories: 2000,
		Profile: profile.UserProfile{
			Age: 34, Gender: "female", HeightCM: 165, WeightKG: 62,
			Goal: profile.GoalMaintain, ActivityLevel: "moderate",
		},
	}
}

const fixtureInstructions = "Combine everything in a pan and cook over medium heat until done, then season and serve."

func fixtureMeal(name string, kcal, protein, carbs, fat float64, ingredients ...string) plan.Meal {
	return plan.Meal{
		Name:         name,
		Ingredients:  ingredients,
		Instructions: fixtureInstructions,
		Nutrition:    plan.Nutrition{Calories: kcal, Protein: protein, Carbs: carbs, Fat: fat},
	}
}

// fixturePlanJSON renders a plan with n valid days for a 2000 kcal target.
func fixturePlanJSON(t *testing.T, n int) string {
	t.Helper()
	p := &plan.MealPlan{
		Overview: plan.Overview{
			DailyCalories: 2000,
			Macros:        plan.Macros{Protein: 115, Carbs: 230, Fat: 58},
			Duration:      n,
		},
	}
	for i := 1; i <= n; i++ {
		snack := fixtureMeal("Greek Yogurt with Berries", 200, 10, 25, 5,
			"1 cup greek yogurt", "100 g blueberries", "1 tbsp honey")
		snack.PortionSize = "1 small bowl (200 g)"
		snack.Allergens = []string{}
		p.Days = append(p.Days, plan.Day{
			Day: i,
			Meals: plan.Meals{
				Breakfast: fixtureMeal("Oatmeal with Banana", 550, 30, 60, 15,
					"1 cup oats", "1 banana", "1 cup milk"),
				Lunch: fixtureMeal("Grilled Chicken Rice Bowl", 600, 35, 70, 18,
					"200 g chicken breast", "1 cup rice", "100 g broccoli"),
				Dinner: fixtureMeal("Salmon with Quinoa", 650, 40, 75, 20,
					"200 g salmon", "1 cup quinoa", "100 g spinach"),
				Snacks: []plan.Meal{snack},
			},
		})
	}
	raw, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("failed to marshal fixture plan: %v", err)
	}
	return string(raw)
}

func TestGenerateMealPlanDaily(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		// Wrapped in prose to exercise extraction on the real path.
		return llm.ContentResponse{Content: "Here is the plan:\n" + fixturePlanJSON(t, 1)}, nil
	}

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	if gen.calls != 1 {
		t.Errorf("expected 1 LLM call, got %d", gen.calls)
	}
	if len(result.Plan.Days) != 1 {
		t.Fatalf("expected 1 day, got %d", len(result.Plan.Days))
	}
	if len(result.Plan.GroceryList) == 0 {
		t.Error("expected a derived grocery list")
	}
	if len(result.Accepted) != 0 {
		t.Errorf("expected no leniency-accepted violations, got %v", result.Accepted)
	}
}

func TestGenerateMealPlanInvalidRequest(t *testing.T) {
	gen := &scriptedGenerator{fn: func(int, string) (llm.ContentResponse, error) {
		t.Fatal("generator should not be called for an invalid request")
		return llm.ContentResponse{}, nil
	}}

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	_, err := p.GenerateMealPlan(context.Background(), plan.Request{PlanType: plan.TypeDaily, Duration: 0, TargetCalories: 2000})
	if err == nil {
		t.Fatal("expected an error for duration 0")
	}
}

func TestGenerateMealPlanRepairsViolations(t *testing.T) {
	broken := fixturePlanJSON(t, 1)
	broken = strings.Replace(broken, `"portion_size":"1 small bowl (200 g)"`, `"portion_size":""`, 1)
	if broken == fixturePlanJSON(t, 1) {
		t.Fatal("fixture mutation did not apply")
	}

	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		if strings.Contains(prompt, "# Meal Plan Repair") {
			return llm.ContentResponse{Content: fixturePlanJSON(t, 1)}, nil
		}
		return llm.ContentResponse{Content: broken}, nil
	}

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	if gen.calls != 2 {
		t.Errorf("expected generate + one repair call, got %d calls", gen.calls)
	}
	if got := result.Plan.Days[0].Meals.Snacks[0].PortionSize; got == "" {
		t.Error("repair did not restore the snack portion size")
	}
}

func TestGenerateMealPlanRetriesMalformed(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		if call == 1 {
			return llm.ContentResponse{Content: "I cannot generate a meal plan for that request."}, nil
		}
		return llm.ContentResponse{Content: fixturePlanJSON(t, 1)}, nil
	}

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), testRequest())
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}
	if gen.calls != 2 {
		t.Errorf("expected 2 attempts, got %d", gen.calls)
	}
	if len(result.Plan.Days) != 1 {
		t.Errorf("expected 1 day, got %d", len(result.Plan.Days))
	}
}

func TestGenerateMealPlanAuthErrorNotRetried(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		return llm.ContentResponse{}, llm.NewGenerationError(llm.KindAuth, errors.New("invalid api key"))
	}

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	_, err := p.GenerateMealPlan(context.Background(), testRequest())

	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected *PipelineError, got %T: %v", err, err)
	}
	if pipeErr.Class != FailProvider {
		t.Errorf("Class = %s, want %s", pipeErr.Class, FailProvider)
	}
	if gen.calls != 1 {
		t.Errorf("auth errors must not be retried, got %d calls", gen.calls)
	}
	if len(pipeErr.Metas) != 1 {
		t.Errorf("expected the failed call's metadata on the error, got %d entries", len(pipeErr.Metas))
	}
}

func TestGenerateMealPlanDeadline(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		return llm.ContentResponse{}, llm.NewGenerationError(llm.KindTimeout, context.DeadlineExceeded)
	}

	cfg := testConfig()
	cfg.GlobalDeadline = 50 * time.Millisecond

	p := NewPlanner(gen, cfg, zap.NewNop())
	_, err := p.GenerateMealPlan(context.Background(), testRequest())

	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected *PipelineError, got %T: %v", err, err)
	}
	if pipeErr.Class != FailTimeout {
		t.Errorf("Class = %s, want %s", pipeErr.Class, FailTimeout)
	}
}

func TestGenerateMealPlanSafetyViolation(t *testing.T) {
	unsafe := fixturePlanJSON(t, 1)
	unsafe = strings.Replace(unsafe, `"1 tbsp honey"`, `"2 tbsp peanut butter"`, 1)

	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		return llm.ContentResponse{Content: unsafe}, nil
	}

	cfg := testConfig()
	cfg.RepairAttempts = 1

	req := testRequest()
	req.Profile.Allergies = []string{"peanuts"}

	p := NewPlanner(gen, cfg, zap.NewNop())
	_, err := p.GenerateMealPlan(context.Background(), req)

	var pipeErr *PipelineError
	if !errors.As(err, &pipeErr) {
		t.Fatalf("expected *PipelineError, got %T: %v", err, err)
	}
	if pipeErr.Class != FailSafety {
		t.Errorf("Class = %s, want %s", pipeErr.Class, FailSafety)
	}
	if gen.calls != 2 {
		t.Errorf("expected generate + one repair call before giving up, got %d", gen.calls)
	}
	if len(pipeErr.Violations) == 0 {
		t.Error("expected the blocking violations on the error")
	}
	if len(pipeErr.Metas) != 2 {
		t.Errorf("expected generate + repair metadata on the error, got %d entries", len(pipeErr.Metas))
	}
}

var dayRangeRe = regexp.MustCompile(`Number the days (\d+) through (\d+)`)

func TestGenerateMealPlanChunkedMonthly(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		m := dayRangeRe.FindStringSubmatch(prompt)
		if m == nil {
			t.Fatalf("prompt carries no day range:\n%s", prompt)
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return llm.ContentResponse{Content: fixturePlanJSON(t, end-start+1)}, nil
	}

	req := testRequest()
	req.PlanType = plan.TypeMonthly
	req.Duration = 30

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	if gen.calls != 3 {
		t.Errorf("expected 3 window calls, got %d", gen.calls)
	}
	if len(result.Plan.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(result.Plan.Days))
	}
	for i, d := range result.Plan.Days {
		if d.Day != i+1 {
			t.Fatalf("day %d numbered %d after merge", i+1, d.Day)
		}
	}
	if len(result.Plan.GroceryList) == 0 {
		t.Error("expected a grocery list for the merged plan")
	}
}

func TestGenerateMealPlanChunkedLongWeekly(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		m := dayRangeRe.FindStringSubmatch(prompt)
		if m == nil {
			t.Fatalf("prompt carries no day range:\n%s", prompt)
		}
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		return llm.ContentResponse{Content: fixturePlanJSON(t, end-start+1)}, nil
	}

	// Duration picks the strategy, not the plan type: a 30-day weekly
	// request must not go out as one long call.
	req := testRequest()
	req.PlanType = plan.TypeWeekly
	req.Duration = 30

	p := NewPlanner(gen, testConfig(), zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	if gen.calls != 3 {
		t.Errorf("expected 3 window calls, got %d", gen.calls)
	}
	if len(result.Plan.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(result.Plan.Days))
	}
}

func TestGenerateMealPlanChunkedWindowSplit(t *testing.T) {
	gen := &scriptedGenerator{}
	gen.fn = func(call int, prompt string) (llm.ContentResponse, error) {
		m := dayRangeRe.FindStringSubmatch(prompt)
		start, _ := strconv.Atoi(m[1])
		end, _ := strconv.Atoi(m[2])
		// The first 10-day window never parses; its 5-day halves succeed.
		if end-start+1 == 10 && start == 1 {
			return llm.ContentResponse{Content: "not a plan"}, nil
		}
		return llm.ContentResponse{Content: fixturePlanJSON(t, end-start+1)}, nil
	}

	cfg := testConfig()
	cfg.MaxAttempts = 1 // fail the window fast so the split path runs

	req := testRequest()
	req.PlanType = plan.TypeMonthly
	req.Duration = 30

	p := NewPlanner(gen, cfg, zap.NewNop())
	result, err := p.GenerateMealPlan(context.Background(), req)
	if err != nil {
		t.Fatalf("GenerateMealPlan failed: %v", err)
	}

	if len(result.Plan.Days) != 30 {
		t.Fatalf("expected 30 days, got %d", len(result.Plan.Days))
	}
	// 1 failed window + 2 split halves + 2 remaining windows.
	if gen.calls != 5 {
		t.Errorf("expected 5 LLM calls, got %d", gen.calls)
	}
}
