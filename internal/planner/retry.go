package planner

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"go.uber.org/zap"

	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/plan"
	"mealplan-engine/internal/shared"
)

func newAttemptBackoff() *backoff.ExponentialBackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 2 * time.Second
	bo.MaxInterval = 20 * time.Second
	bo.MaxElapsedTime = 0
	bo.Reset()
	return bo
}

// generateWithRetry runs the full attempt loop for one day window: generate,
// finalize, and on a retryable failure back off and start over. Validation
// failures only earn a fresh attempt when calorie accuracy is the sole
// problem; structural or safety failures end the request.
func (p *Planner) generateWithRetry(ctx context.Context, req plan.Request, startDay, endDay int) (*GenerationResult, error) {
	bo := newAttemptBackoff()

	var lastErr error
	var metas []shared.AgentMeta
	attempts := 0

	for attempt := 1; attempt <= p.cfg.MaxAttempts; attempt++ {
		attempts = attempt
		candidate, meta, err := p.generateWindow(ctx, req, startDay, endDay)
		meta.Attempt = attempt
		metas = append(metas, meta)

		if err == nil {
			result, res, fmetas, ferr := p.finalize(ctx, candidate, req)
			metas = append(metas, fmetas...)
			if ferr == nil {
				result.Metas = metas
				return result, nil
			}

			var vErr *validationError
			if errors.As(ferr, &vErr) {
				if vErr.safety {
					return nil, &PipelineError{Class: FailSafety, Attempts: attempt, Violations: vErr.violations, Metas: metas, Err: ferr}
				}
				if !res.CaloriesOnly() {
					return nil, &PipelineError{Class: FailValidation, Attempts: attempt, Violations: vErr.violations, Metas: metas, Err: ferr}
				}
				// Close on everything but calories: a fresh generation is
				// more likely to land inside tolerance than more repair.
			}
			err = ferr
		}

		lastErr = err
		if !retryableAttempt(err) {
			break
		}
		if attempt == p.cfg.MaxAttempts {
			break
		}
		p.logger.Warn("attempt failed, retrying",
			zap.Int("attempt", attempt),
			zap.Int("start_day", startDay),
			zap.Int("end_day", endDay),
			zap.Error(err),
		)
		if !p.sleepBackoff(ctx, bo) {
			lastErr = llm.NewGenerationError(llm.KindTimeout, ctx.Err())
			break
		}
	}

	var vErr *validationError
	if errors.As(lastErr, &vErr) {
		return nil, &PipelineError{Class: FailValidation, Attempts: attempts, Violations: vErr.violations, Metas: metas, Err: lastErr}
	}
	return nil, &PipelineError{Class: classifyFailure(lastErr), Attempts: attempts, Metas: metas, Err: lastErr}
}

// retryableAttempt reports whether a failed attempt deserves another one.
func retryableAttempt(err error) bool {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		return genErr.Retryable()
	}
	if errors.Is(err, llm.ErrNoJSON) || errors.Is(err, errBadStructure) {
		return true
	}
	var vErr *validationError
	return errors.As(err, &vErr)
}

// sleepBackoff waits for the next backoff interval, clipped so the sleep can
// never eat into the time reserved for finishing work before the deadline.
// It returns false when there is no budget left to retry at all.
func (p *Planner) sleepBackoff(ctx context.Context, bo backoff.BackOff) bool {
	wait := bo.NextBackOff()
	if wait == backoff.Stop {
		return false
	}
	if deadline, ok := ctx.Deadline(); ok {
		remaining := time.Until(deadline) - p.cfg.BackoffReserve
		if remaining <= 0 {
			return false
		}
		if wait > remaining {
			wait = remaining
		}
	}

	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
