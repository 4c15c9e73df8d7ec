package ruleengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"model-lens/services/catalog-api/internal/domain/model"
)

func testCatalog() []model.Model {
	return []model.Model{
		{
			ID:            "gpt-4",
			Name:          "GPT-4",
			Provider:      "openai",
			ContextWindow: 128000,
			InputCost:     0.5,
			Capabilities:  []string{"tools", "reasoning"},
		},
		{
			ID:            "claude-3-opus",
			Name:          "Claude 3 Opus",
			Provider:      "anthropic",
			ContextWindow: 200000,
			InputCost:     30,
			Capabilities:  []string{"tools"},
		},
	}
}

func TestEvaluateEmptyRules(t *testing.T) {
	for _, m := range testCatalog() {
		result := Evaluate(nil, m)
		assert.True(t, result.Match)
		assert.Zero(t, result.Score)
		assert.Equal(t, "no matching criteria", result.Rationale)
	}
}

func TestEvaluateHardClauseGatesMatch(t *testing.T) {
	rules := []Clause{
		{Field: "provider", Operator: OpEq, Value: "openai", Type: ClauseHard},
	}
	catalog := testCatalog()

	gpt := Evaluate(rules, catalog[0])
	assert.True(t, gpt.Match)
	assert.Zero(t, gpt.FailedHardClauses)
	assert.Equal(t, "all criteria passed", gpt.Rationale)

	claude := Evaluate(rules, catalog[1])
	assert.False(t, claude.Match)
	assert.Equal(t, 1, claude.FailedHardClauses)
	assert.Contains(t, claude.Rationale, "hard clause failed")
}

func TestEvaluateSoftClauseScoring(t *testing.T) {
	rules := []Clause{
		{Field: "inputCost", Operator: OpLte, Value: 10.0, Type: ClauseSoft, Weight: 0.6},
	}
	catalog := testCatalog()

	cheap := Evaluate(rules, catalog[0])
	assert.True(t, cheap.Match)
	assert.Equal(t, 1, cheap.PassedSoftClauses)
	assert.Equal(t, 1, cheap.TotalSoftClauses)
	assert.InDelta(t, 1.0, cheap.Score, 1e-9)
	assert.Contains(t, cheap.Rationale, "soft clause passed")

	expensive := Evaluate(rules, catalog[1])
	assert.True(t, expensive.Match, "soft clauses never gate the match")
	assert.Zero(t, expensive.PassedSoftClauses)
	assert.Zero(t, expensive.Score)
}

func TestEvaluateScoreIsWeightedFraction(t *testing.T) {
	rules := []Clause{
		{Field: "inputCost", Operator: OpLte, Value: 10.0, Type: ClauseSoft, Weight: 3},
		{Field: "contextWindow", Operator: OpGte, Value: 1_000_000, Type: ClauseSoft, Weight: 1},
	}
	result := Evaluate(rules, testCatalog()[0])

	assert.Equal(t, 1, result.PassedSoftClauses)
	assert.Equal(t, 2, result.TotalSoftClauses)
	assert.InDelta(t, 0.75, result.Score, 1e-9)
	assert.GreaterOrEqual(t, result.Score, 0.0)
	assert.LessOrEqual(t, result.Score, 1.0)
}

func TestEvaluateWeightDefaultsToOne(t *testing.T) {
	rules := []Clause{
		{Field: "provider", Operator: OpEq, Value: "openai", Type: ClauseSoft},
		{Field: "provider", Operator: OpEq, Value: "anthropic", Type: ClauseSoft},
	}
	result := Evaluate(rules, testCatalog()[0])
	assert.InDelta(t, 0.5, result.Score, 1e-9)
}

func TestEvaluateNumericOperatorOnNonNumericIsFalse(t *testing.T) {
	rules := []Clause{
		{Field: "name", Operator: OpGt, Value: 5.0, Type: ClauseHard},
	}
	result := Evaluate(rules, testCatalog()[0])
	assert.False(t, result.Match)
	assert.Equal(t, 1, result.FailedHardClauses)
}

func TestEvaluateMissingFieldNeverAborts(t *testing.T) {
	rules := []Clause{
		{Field: "benchmarks.mmlu", Operator: OpGte, Value: 0.8, Type: ClauseHard},
		{Field: "provider", Operator: OpEq, Value: "openai", Type: ClauseHard},
	}
	result := Evaluate(rules, testCatalog()[0])

	// The missing-field clause fails but the second clause still runs.
	assert.False(t, result.Match)
	assert.Equal(t, 1, result.FailedHardClauses)
	assert.Contains(t, result.Rationale, "undefined")
}

func TestEvaluateExtraFieldLookup(t *testing.T) {
	m := testCatalog()[0]
	m.Extra = map[string]any{"benchmarks": map[string]any{"mmlu": 0.86}}

	rules := []Clause{
		{Field: "benchmarks.mmlu", Operator: OpGte, Value: 0.8, Type: ClauseHard},
	}
	result := Evaluate(rules, m)
	assert.True(t, result.Match)
}

func TestEvaluateOperators(t *testing.T) {
	m := testCatalog()[0]

	tests := []struct {
		name   string
		clause Clause
		want   bool
	}{
		{"eq string", Clause{Field: "provider", Operator: OpEq, Value: "openai"}, true},
		{"eq numeric cross-type", Clause{Field: "contextWindow", Operator: OpEq, Value: 128000.0}, true},
		{"ne", Clause{Field: "provider", Operator: OpNe, Value: "anthropic"}, true},
		{"gt", Clause{Field: "contextWindow", Operator: OpGt, Value: 100000.0}, true},
		{"gte boundary", Clause{Field: "contextWindow", Operator: OpGte, Value: 128000.0}, true},
		{"lt false", Clause{Field: "contextWindow", Operator: OpLt, Value: 100000.0}, false},
		{"lte", Clause{Field: "inputCost", Operator: OpLte, Value: 0.5}, true},
		{"in", Clause{Field: "provider", Operator: OpIn, Value: []any{"openai", "google"}}, true},
		{"in miss", Clause{Field: "provider", Operator: OpIn, Value: []any{"google"}}, false},
		{"in non-list value", Clause{Field: "provider", Operator: OpIn, Value: "openai"}, false},
		{"not_in", Clause{Field: "provider", Operator: OpNotIn, Value: []any{"google"}}, true},
		{"not_in non-list value", Clause{Field: "provider", Operator: OpNotIn, Value: "google"}, false},
		{"contains", Clause{Field: "capabilities", Operator: OpContains, Value: "tools"}, true},
		{"contains miss", Clause{Field: "capabilities", Operator: OpContains, Value: "vision"}, false},
		{"starts_with", Clause{Field: "id", Operator: OpStartsWith, Value: "gpt"}, true},
		{"ends_with", Clause{Field: "id", Operator: OpEndsWith, Value: "-4"}, true},
		{"starts_with non-string", Clause{Field: "contextWindow", Operator: OpStartsWith, Value: "12"}, false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tc.clause.Type = ClauseHard
			result := Evaluate([]Clause{tc.clause}, m)
			assert.Equal(t, tc.want, result.Match)
		})
	}
}

func TestIsValidOperator(t *testing.T) {
	for _, op := range Operators {
		assert.True(t, IsValidOperator(op))
	}
	assert.False(t, IsValidOperator(Operator("regex")))
	assert.False(t, IsValidOperator(Operator("")))
}

func TestEvaluateMixedHardAndSoft(t *testing.T) {
	rules := []Clause{
		{Field: "provider", Operator: OpEq, Value: "openai", Type: ClauseHard},
		{Field: "inputCost", Operator: OpLte, Value: 10.0, Type: ClauseSoft, Weight: 0.6},
		{Field: "capabilities", Operator: OpContains, Value: "reasoning", Type: ClauseSoft, Weight: 0.4},
	}
	result := Evaluate(rules, testCatalog()[0])

	require.True(t, result.Match)
	assert.Equal(t, 2, result.PassedSoftClauses)
	assert.InDelta(t, 1.0, result.Score, 1e-9)
}
