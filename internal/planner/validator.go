package planner

import (
	"encoding/json"
	"fmt"
	"strings"
)

// ParsePlan validates raw plan generator output against the Plan contract:
// a JSON array of non-empty strings. Markdown code fences around the array
// are tolerated; any deviation in shape is an error, never a best-effort
// interpretation.
func ParsePlan(raw string) (Plan, error) {
	trimmed := stripCodeFence(strings.TrimSpace(raw))
	if trimmed == "" {
		return nil, fmt.Errorf("plan output is empty")
	}

	var decoded any
	if err := json.Unmarshal([]byte(trimmed), &decoded); err != nil {
		return nil, fmt.Errorf("plan output is not valid JSON: %w", err)
	}

	list, ok := decoded.([]any)
	if !ok {
		return nil, fmt.Errorf("plan output is not a list")
	}
	if len(list) == 0 {
		return nil, fmt.Errorf("plan contains no instructions")
	}

	plan := make(Plan, 0, len(list))
	for i, item := range list {
		s, ok := item.(string)
		if !ok {
			return nil, fmt.Errorf("plan element %d is not a string", i)
		}
		s = strings.TrimSpace(s)
		if s == "" {
			return nil, fmt.Errorf("plan element %d is empty", i)
		}
		plan = append(plan, s)
	}

	return plan, nil
}

// stripCodeFence removes a surrounding markdown code fence, with or
// without a language tag.
func stripCodeFence(s string) string {
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		// Drop the language tag line (e.g. "json")
		if !strings.ContainsAny(s[:i], "[{") {
			s = s[i+1:]
		}
	}
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
