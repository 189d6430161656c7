package planner

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/shared"
)

const (
	// windowDays is how many days one chunked LLM call covers. Longer spans
	// push models past reliable output lengths and truncate.
	windowDays = 10
	// retryWindowDays is the smaller span a failed window is split into.
	retryWindowDays = 5
)

// generateChunked builds a long plan as consecutive day windows, each with
// its own slice of the remaining deadline, then merges and re-validates the
// whole thing. A window that fails outright is retried as smaller spans
// before the request is given up; the caller gets every requested day or
// nothing.
func (p *Planner) generateChunked(ctx context.Context, req plan.Request) (*GenerationResult, error) {
	var windows [][2]int
	for start := 1; start <= req.Duration; start += windowDays {
		end := start + windowDays - 1
		if end > req.Duration {
			end = req.Duration
		}
		windows = append(windows, [2]int{start, end})
	}

	var merged *plan.MealPlan
	var metas []shared.AgentMeta

	for i, w := range windows {
		wctx, cancel, err := p.windowContext(ctx, len(windows)-i)
		if err != nil {
			return nil, withMetas(err, metas)
		}

		p.logger.Info("generating window",
			zap.Int("start_day", w[0]),
			zap.Int("end_day", w[1]),
			zap.Int("window", i+1),
			zap.Int("windows", len(windows)),
		)

		result, err := p.generateWithRetry(wctx, req, w[0], w[1])
		cancel()
		if err != nil {
			result, err = p.retrySplitWindow(ctx, req, w[0], w[1], err)
			if err != nil {
				return nil, withMetas(err, metas)
			}
		}

		metas = append(metas, result.Metas...)
		if merged == nil {
			merged = result.Plan
		} else {
			merged.Days = append(merged.Days, result.Plan.Days...)
		}
	}

	if len(merged.Days) != req.Duration {
		return nil, &PipelineError{
			Class:    FailMalformed,
			Attempts: len(windows),
			Metas:    metas,
			Err:      fmt.Errorf("merged plan has %d days, want %d", len(merged.Days), req.Duration),
		}
	}
	for i := range merged.Days {
		merged.Days[i].Day = i + 1
	}
	merged.Overview.Duration = req.Duration
	merged.Overview.Type = req.PlanType

	// The merged plan is validated as one unit so the grocery list and
	// cross-day checks cover all windows together.
	result, _, fmetas, err := p.finalize(ctx, merged, req)
	metas = append(metas, fmetas...)
	if err != nil {
		var vErr *validationError
		if errors.As(err, &vErr) {
			class := FailValidation
			if vErr.safety {
				class = FailSafety
			}
			return nil, &PipelineError{Class: class, Attempts: len(windows), Violations: vErr.violations, Metas: metas, Err: err}
		}
		return nil, &PipelineError{Class: classifyFailure(err), Attempts: len(windows), Metas: metas, Err: err}
	}

	result.Metas = metas
	return result, nil
}

// withMetas prepends already-spent call metadata onto a window's terminal
// error, so a chunked failure reports the whole request's usage and not just
// the window that broke.
func withMetas(err error, metas []shared.AgentMeta) error {
	if len(metas) == 0 {
		return err
	}
	var pe *PipelineError
	if errors.As(err, &pe) {
		pe.Metas = append(append([]shared.AgentMeta{}, metas...), pe.Metas...)
	}
	return err
}

// retrySplitWindow retries a failed window as retryWindowDays-sized spans.
// Deadline and safety failures are not worth splitting: smaller spans cannot
// recover lost time or change the profile conflict.
func (p *Planner) retrySplitWindow(ctx context.Context, req plan.Request, startDay, endDay int, cause error) (*GenerationResult, error) {
	if endDay-startDay+1 <= retryWindowDays {
		return nil, cause
	}
	if pe, ok := cause.(*PipelineError); ok && (pe.Class == FailTimeout || pe.Class == FailSafety) {
		return nil, cause
	}

	p.logger.Warn("window failed, splitting",
		zap.Int("start_day", startDay),
		zap.Int("end_day", endDay),
		zap.Error(cause),
	)

	var combined *GenerationResult
	for start := startDay; start <= endDay; start += retryWindowDays {
		end := start + retryWindowDays - 1
		if end > endDay {
			end = endDay
		}

		wctx, cancel, err := p.windowContext(ctx, 1)
		if err != nil {
			if combined != nil {
				err = withMetas(err, combined.Metas)
			}
			return nil, err
		}
		result, err := p.generateWithRetry(wctx, req, start, end)
		cancel()
		if err != nil {
			if combined != nil {
				err = withMetas(err, combined.Metas)
			}
			return nil, err
		}

		if combined == nil {
			combined = result
		} else {
			combined.Plan.Days = append(combined.Plan.Days, result.Plan.Days...)
			combined.Metas = append(combined.Metas, result.Metas...)
		}
	}
	return combined, nil
}

// windowContext carves a sub-deadline for the next window out of whatever
// time is left, holding back the merge reserve and capping at the window
// ceiling. windowsLeft includes the window about to run.
func (p *Planner) windowContext(ctx context.Context, windowsLeft int) (context.Context, context.CancelFunc, error) {
	deadline, ok := ctx.Deadline()
	if !ok {
		wctx, cancel := context.WithTimeout(ctx, p.cfg.WindowCeiling)
		return wctx, cancel, nil
	}

	remaining := time.Until(deadline) - p.cfg.MergeReserve
	share := remaining / time.Duration(windowsLeft)
	if share > p.cfg.WindowCeiling {
		share = p.cfg.WindowCeiling
	}
	if share < p.cfg.MinWindowTime {
		return nil, nil, &PipelineError{
			Class: FailTimeout,
			Err:   llm.NewGenerationError(llm.KindTimeout, fmt.Errorf("only %s left, need %s per window", share.Round(time.Second), p.cfg.MinWindowTime)),
		}
	}

	wctx, cancel := context.WithTimeout(ctx, share)
	return wctx, cancel, nil
}
