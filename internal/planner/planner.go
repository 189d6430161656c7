package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mealplan-engine/internal/config"
	"mealplan-engine/internal/grocery"
	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/shared"
	"mealplan-engine/internal/validate"
)

// errBadStructure marks a response that parsed as JSON but does not hold the
// requested days. Structurally broken output is retried like a transport
// failure, since a fresh completion usually fixes it.
var errBadStructure = errors.New("generated plan has wrong structure")

// Planner generates validated meal plans from a text generator.
type Planner struct {
	textGen llm.TextGenerator
	cfg     *config.Config
	logger  *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, cfg *config.Config, logger *zap.Logger) *Planner {
	return &Planner{
		textGen: textGen,
		cfg:     cfg,
		logger:  logger,
	}
}

// GenerationResult is a plan that passed validation, with the warnings and
// leniency-accepted violations that remain, and per-call usage metadata.
type GenerationResult struct {
	Plan     *plan.MealPlan
	Accepted []validate.Violation
	Warnings []validate.Violation
	Metas    []shared.AgentMeta
}

// GenerateMealPlan creates a meal plan for the request. It either returns a
// plan covering every requested day or an error; partial plans are never
// returned. The whole call is bounded by the configured global deadline.
func (p *Planner) GenerateMealPlan(ctx context.Context, req plan.Request) (*GenerationResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("invalid request: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, p.cfg.GlobalDeadline)
	defer cancel()

	p.logger.Info("generating meal plan",
		zap.String("type", string(req.PlanType)),
		zap.Int("duration", req.Duration),
		zap.Float64("target_calories", req.TargetCalories),
	)

	// Duration alone decides the strategy: any span longer than one window
	// is too much for a single reliable completion, whatever the plan type.
	if req.Duration > windowDays {
		return p.generateChunked(ctx, req)
	}
	return p.generateWithRetry(ctx, req, 1, req.Duration)
}

// generateWindow runs one LLM call for days [startDay, endDay] and coerces
// the response into a plan. No validation happens here.
func (p *Planner) generateWindow(ctx context.Context, req plan.Request, startDay, endDay int) (*plan.MealPlan, shared.AgentMeta, error) {
	start := time.Now()
	meta := shared.AgentMeta{AgentName: "PlanGenerator"}

	prompt, err := buildPlanPrompt(planPromptData{
		Profile:          req.Profile,
		TargetCalories:   req.TargetCalories,
		CalorieTolerance: validate.CalorieTolerance(req.PlanType),
		SnackCapPct:      validate.SnackCapForGoal(req.Profile.Goal),
		PlanType:         string(req.PlanType),
		Duration:         endDay - startDay + 1,
		StartDay:         startDay,
		EndDay:           endDay,
	})
	if err != nil {
		return nil, meta, fmt.Errorf("failed to build plan prompt: %w", err)
	}

	resp, err := p.textGen.GenerateContent(ctx, prompt)
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, err
	}

	raw, err := llm.ExtractPlanJSON(resp.Content)
	if err != nil {
		return nil, meta, fmt.Errorf("no plan in response: %w", err)
	}

	candidate, err := plan.FromGenerated(raw)
	if err != nil {
		return nil, meta, fmt.Errorf("%w: %v", errBadStructure, err)
	}

	expected := endDay - startDay + 1
	if len(candidate.Days) != expected {
		return nil, meta, fmt.Errorf("%w: got %d days, want %d", errBadStructure, len(candidate.Days), expected)
	}
	// Days are numbered relative to the window so validation sees a
	// self-contained plan; the merge step renumbers globally.
	for i := range candidate.Days {
		candidate.Days[i].Day = i + 1
	}

	candidate.Overview.Duration = expected
	candidate.Overview.Type = req.PlanType
	if candidate.Overview.DailyCalories == 0 {
		candidate.Overview.DailyCalories = req.TargetCalories
	}

	return candidate, meta, nil
}

// finalize derives the canonical grocery list, validates, repairs what it
// can, and applies the leniency policy. On success the returned plan is the
// one that should reach the caller. Repair call metadata is returned on both
// paths so failed finalization still accounts for its spend; the caller owns
// assembling GenerationResult.Metas.
func (p *Planner) finalize(ctx context.Context, candidate *plan.MealPlan, req plan.Request) (*GenerationResult, validate.Result, []shared.AgentMeta, error) {
	candidate.GroceryList = grocery.Aggregate(candidate)

	res := validate.Plan(candidate, req.Profile, req.TargetCalories, req.PlanType)
	metas := []shared.AgentMeta{}

	if !res.Pass {
		repaired, repairRes, repairMetas, err := p.repair(ctx, candidate, req, res)
		metas = append(metas, repairMetas...)
		if err != nil {
			return nil, res, metas, err
		}
		candidate, res = repaired, repairRes
	}

	accepted, blocking := p.cfg.Leniency.Apply(res.Criticals())
	if len(blocking) > 0 {
		p.logger.Warn("plan rejected after repair",
			zap.Int("blocking", len(blocking)),
			zap.Int("accepted", len(accepted)),
		)
		return nil, res, metas, &validationError{violations: blocking, safety: res.HasSafetyViolation()}
	}

	warnings := make([]validate.Violation, 0)
	for _, v := range res.Violations {
		if v.Severity == validate.SeverityWarning {
			warnings = append(warnings, v)
		}
	}

	return &GenerationResult{
		Plan:     candidate,
		Accepted: accepted,
		Warnings: warnings,
	}, res, metas, nil
}

// validationError is the intra-pipeline form of a validation failure; the
// retry layer decides whether it warrants a fresh attempt.
type validationError struct {
	violations []validate.Violation
	safety     bool
}

func (e *validationError) Error() string {
	return fmt.Sprintf("plan failed validation with %d blocking violations", len(e.violations))
}
