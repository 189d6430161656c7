package planner

import (
	"errors"
	"fmt"

	"mealplan-engine/internal/llm"
	"mealplan-engine/internal/shared"
	"mealplan-engine/internal/validate"
)

// FailureClass tells callers why a generation request ultimately failed,
// after all retries and repair rounds were spent.
type FailureClass int

const (
	FailTimeout FailureClass = iota
	FailRateLimited
	FailProvider
	FailMalformed
	FailValidation
	FailSafety
)

func (c FailureClass) String() string {
	switch c {
	case FailTimeout:
		return "timeout"
	case FailRateLimited:
		return "rate_limited"
	case FailProvider:
		return "provider"
	case FailMalformed:
		return "malformed_response"
	case FailValidation:
		return "validation_exhausted"
	case FailSafety:
		return "safety_violation"
	default:
		return "unknown"
	}
}

// PipelineError is the terminal error of a generation request. Metas carries
// the usage metadata of every call spent on the failed request, so callers
// can still account for tokens that bought nothing.
type PipelineError struct {
	Class      FailureClass
	Attempts   int
	Violations []validate.Violation
	Metas      []shared.AgentMeta
	Err        error
}

func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("meal plan generation failed (%s, %d attempts): %v", e.Class, e.Attempts, e.Err)
	}
	return fmt.Sprintf("meal plan generation failed (%s, %d attempts)", e.Class, e.Attempts)
}

func (e *PipelineError) Unwrap() error { return e.Err }

// classifyFailure maps a terminal attempt error onto a failure class.
func classifyFailure(err error) FailureClass {
	var genErr *llm.GenerationError
	if errors.As(err, &genErr) {
		switch genErr.Kind {
		case llm.KindTimeout:
			return FailTimeout
		case llm.KindRateLimit:
			return FailRateLimited
		case llm.KindEmptyResponse:
			return FailMalformed
		default:
			return FailProvider
		}
	}
	if errors.Is(err, llm.ErrNoJSON) {
		return FailMalformed
	}
	return FailProvider
}
