package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mealplan-engine/internal/grocery"
	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/shared"
	"mealplan-engine/internal/validate"
)

// maxRepairViolations caps how many violations one repair prompt carries.
// Past this point the plan is broken enough that listing more does not help.
const maxRepairViolations = 25

// repair runs targeted repair rounds until the plan passes validation or the
// round budget is spent. Each round re-prompts with the remaining critical
// violations consolidated into one request. The input plan is never mutated;
// the best candidate seen so far is returned even when no round fully passes,
// so the leniency gate gets the closest plan to judge.
func (p *Planner) repair(ctx context.Context, candidate *plan.MealPlan, req plan.Request, res validate.Result) (*plan.MealPlan, validate.Result, []shared.AgentMeta, error) {
	best, bestRes := candidate, res
	var metas []shared.AgentMeta

	for round := 1; round <= p.cfg.RepairAttempts; round++ {
		if err := ctx.Err(); err != nil {
			return best, bestRes, metas, llm.ClassifyTransportError(err)
		}

		criticals := bestRes.Criticals()
		if len(criticals) == 0 {
			break
		}
		if len(criticals) > maxRepairViolations {
			criticals = criticals[:maxRepairViolations]
		}

		p.logger.Info("repair round",
			zap.Int("round", round),
			zap.Int("criticals", len(criticals)),
		)

		working := best.Clone()
		working.GroceryList = nil
		planJSON, err := json.Marshal(working)
		if err != nil {
			return best, bestRes, metas, fmt.Errorf("failed to marshal plan for repair: %w", err)
		}

		prompt, err := buildRepairPrompt(repairPromptData{
			Profile:          req.Profile,
			TargetCalories:   req.TargetCalories,
			CalorieTolerance: validate.CalorieTolerance(req.PlanType),
			Violations:       criticals,
			PlanJSON:         string(planJSON),
		})
		if err != nil {
			return best, bestRes, metas, fmt.Errorf("failed to build repair prompt: %w", err)
		}

		start := time.Now()
		resp, err := p.textGen.GenerateContent(ctx, prompt)
		metas = append(metas, shared.AgentMeta{
			AgentName: "PlanRepairer",
			Usage:     resp.Usage,
			Latency:   time.Since(start),
			Attempt:   round,
		})
		if err != nil {
			return best, bestRes, metas, err
		}

		repaired, ok := p.coerceRepair(resp.Content, best)
		if !ok {
			// A malformed repair wastes the round but keeps the prior best.
			continue
		}

		repaired.GroceryList = grocery.Aggregate(repaired)
		newRes := validate.Plan(repaired, req.Profile, req.TargetCalories, req.PlanType)
		if newRes.Pass {
			return repaired, newRes, metas, nil
		}
		if len(newRes.Criticals()) < len(bestRes.Criticals()) {
			best, bestRes = repaired, newRes
		}
	}

	return best, bestRes, metas, nil
}

// coerceRepair parses a repair response and checks it still covers the same
// days as the plan being repaired.
func (p *Planner) coerceRepair(content string, prior *plan.MealPlan) (*plan.MealPlan, bool) {
	raw, err := llm.ExtractPlanJSON(content)
	if err != nil {
		p.logger.Warn("repair response held no plan", zap.Error(err))
		return nil, false
	}

	repaired, err := plan.FromGenerated(raw)
	if err != nil {
		p.logger.Warn("repair response failed to parse", zap.Error(err))
		return nil, false
	}

	if len(repaired.Days) != len(prior.Days) {
		p.logger.Warn("repair changed day count",
			zap.Int("got", len(repaired.Days)),
			zap.Int("want", len(prior.Days)),
		)
		return nil, false
	}
	for i := range repaired.Days {
		repaired.Days[i].Day = prior.Days[i].Day
	}
	repaired.Overview = prior.Overview

	return repaired, true
}
