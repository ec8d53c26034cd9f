package planner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePlanValid(t *testing.T) {
	plan, err := ParsePlan(`["Show total sales by month", "Filter to top 3 months", "Plot bar chart"]`)
	require.NoError(t, err)
	assert.Equal(t, Plan{
		"Show total sales by month",
		"Filter to top 3 months",
		"Plot bar chart",
	}, plan)
}

func TestParsePlanCodeFence(t *testing.T) {
	raw := "```json\n[\"step one\", \"step two\"]\n```"
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, Plan{"step one", "step two"}, plan)
}

func TestParsePlanBareFence(t *testing.T) {
	raw := "```\n[\"only step\"]\n```"
	plan, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, Plan{"only step"}, plan)
}

func TestParsePlanRejectsMalformed(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		want string
	}{
		{"empty input", "", "empty"},
		{"whitespace", "   \n ", "empty"},
		{"not json", "just do the analysis", "not valid JSON"},
		{"not a list", `{"steps": ["a"]}`, "not a list"},
		{"scalar", `"one step"`, "not a list"},
		{"empty list", `[]`, "no instructions"},
		{"non-string element", `["a", 2, "c"]`, "element 1 is not a string"},
		{"empty element", `["a", "  "]`, "element 1 is empty"},
		{"null element", `[null]`, "element 0 is not a string"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParsePlan(tt.raw)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParsePlanTrimsInstructions(t *testing.T) {
	plan, err := ParsePlan(`["  padded step  "]`)
	require.NoError(t, err)
	assert.Equal(t, Plan{"padded step"}, plan)
}

func TestParsePlanIdempotent(t *testing.T) {
	raw := `["filter to region=X", "sum revenue"]`
	first, err := ParsePlan(raw)
	require.NoError(t, err)
	second, err := ParsePlan(raw)
	require.NoError(t, err)
	assert.Equal(t, first, second)
}
