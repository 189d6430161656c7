package llm

import (
	"encoding/json"
	"errors"
	"regexp"
	"strings"
)

// ErrNoJSON is returned when no recovery strategy finds a JSON object in the
// generated text. Callers treat this as non-retryable at the parse layer; the
// retry layer may still regenerate from scratch.
var ErrNoJSON = errors.New("no valid JSON object found in generated text")

// ExtractPlanJSON recovers a JSON object from raw generated text. Models wrap
// their output in prose, markdown fences, or emit slightly broken JSON, so
// each strategy is attempted only after the previous one fails:
//
//  1. direct parse
//  2. fenced code block extraction
//  3. light syntactic repair (trailing commas, bare keys, comments)
//  4. largest '{' ... '}' span with brace balancing, then repair
func ExtractPlanJSON(text string) ([]byte, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrNoJSON
	}

	if json.Valid([]byte(text)) {
		return []byte(text), nil
	}

	if fenced, ok := extractFencedBlock(text); ok {
		if json.Valid([]byte(fenced)) {
			return []byte(fenced), nil
		}
		// Fall through with the fenced content: later strategies work on the
		// most promising candidate.
		text = fenced
	}

	repaired := repairJSONSyntax(text)
	if json.Valid([]byte(repaired)) {
		return []byte(repaired), nil
	}

	if span, ok := largestObjectSpan(text); ok {
		if json.Valid([]byte(span)) {
			return []byte(span), nil
		}
		repaired = repairJSONSyntax(span)
		if json.Valid([]byte(repaired)) {
			return []byte(repaired), nil
		}
	}

	return nil, ErrNoJSON
}

// extractFencedBlock pulls the content of the first markdown code fence,
// skipping an optional language tag.
func extractFencedBlock(text string) (string, bool) {
	idx := strings.Index(text, "```")
	if idx < 0 {
		return "", false
	}
	start := idx + 3
	if nl := strings.Index(text[start:], "\n"); nl >= 0 && nl < 20 {
		start += nl + 1
	}
	end := strings.Index(text[start:], "```")
	if end <= 0 {
		// Unterminated fence: take everything after the opening.
		return strings.TrimSpace(text[start:]), true
	}
	return strings.TrimSpace(text[start : start+end]), true
}

var (
	trailingCommaRe = regexp.MustCompile(`,\s*([}\]])`)
	bareKeyRe       = regexp.MustCompile(`([{,]\s*)([A-Za-z_][A-Za-z0-9_]*)(\s*:)`)
	lineCommentRe   = regexp.MustCompile(`(?m)^\s*//.*$`)
	blockCommentRe  = regexp.MustCompile(`(?s)/\*.*?\*/`)
)

// repairJSONSyntax applies light, deterministic fixes to the most common
// model output defects. It never touches content inside valid JSON strings
// beyond what the regexes can misfire on, which is acceptable because the
// result is only used when it parses.
func repairJSONSyntax(text string) string {
	text = lineCommentRe.ReplaceAllString(text, "")
	text = blockCommentRe.ReplaceAllString(text, "")
	text = trailingCommaRe.ReplaceAllString(text, "$1")
	text = bareKeyRe.ReplaceAllString(text, `$1"$2"$3`)
	return strings.TrimSpace(text)
}

// largestObjectSpan walks every top-level '{' ... '}' span in the text
// (string-aware) and returns the longest one. Models sometimes emit a small
// preamble object before the plan, so the first span is not necessarily the
// right one. A span truncated by the end of the text gets its open strings,
// arrays and objects closed so it still has a chance to parse.
func largestObjectSpan(text string) (string, bool) {
	var best string
	pos := 0
	for pos < len(text) {
		rel := strings.Index(text[pos:], "{")
		if rel < 0 {
			break
		}
		span, next, complete := objectSpanAt(text, pos+rel)
		if len(span) > len(best) {
			best = span
		}
		if !complete {
			break
		}
		pos = next
	}
	if best == "" {
		return "", false
	}
	return best, true
}

// objectSpanAt walks the object starting at text[start] to its matching
// closing brace. It returns the span, the index just past it and whether the
// object closed before the text ran out; a truncated span comes back with
// the open string and nesting stack closed.
func objectSpanAt(text string, start int) (span string, next int, complete bool) {
	var stack []byte
	inString := false
	escaped := false
	for i := start; i < len(text); i++ {
		c := text[i]
		if escaped {
			escaped = false
			continue
		}
		if c == '\\' && inString {
			escaped = true
			continue
		}
		if c == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}
		switch c {
		case '{', '[':
			stack = append(stack, c)
		case '}', ']':
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
			if len(stack) == 0 {
				return text[start : i+1], i + 1, true
			}
		}
	}

	span = text[start:]
	if inString {
		span += `"`
	}
	span = strings.TrimRight(span, ", \n\t\r")
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i] == '[' {
			span += "]"
		} else {
			span += "}"
		}
	}
	return span, len(text), false
}
