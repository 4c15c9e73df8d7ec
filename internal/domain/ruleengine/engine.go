package ruleengine

import (
	"encoding/json"
	"fmt"
	"reflect"
	"strings"

	"model-lens/services/catalog-api/internal/domain/model"
)

// Operator is the closed set of clause comparison operators.
type Operator string

const (
	OpEq         Operator = "eq"
	OpNe         Operator = "ne"
	OpGt         Operator = "gt"
	OpGte        Operator = "gte"
	OpLt         Operator = "lt"
	OpLte        Operator = "lte"
	OpIn         Operator = "in"
	OpNotIn      Operator = "not_in"
	OpContains   Operator = "contains"
	OpStartsWith Operator = "starts_with"
	OpEndsWith   Operator = "ends_with"
)

// Operators lists every supported operator.
var Operators = []Operator{
	OpEq, OpNe, OpGt, OpGte, OpLt, OpLte,
	OpIn, OpNotIn, OpContains, OpStartsWith, OpEndsWith,
}

// IsValidOperator reports whether op belongs to the closed operator set.
func IsValidOperator(op Operator) bool {
	for _, known := range Operators {
		if op == known {
			return true
		}
	}
	return false
}

// ClauseType separates gating clauses from scoring clauses.
type ClauseType string

const (
	ClauseHard ClauseType = "hard"
	ClauseSoft ClauseType = "soft"
)

// Clause is one filter rule evaluated against a canonical model.
// Weight only applies to soft clauses; zero means the default of 1.
type Clause struct {
	Field    string     `json:"field"`
	Operator Operator   `json:"operator"`
	Value    any        `json:"value"`
	Type     ClauseType `json:"type"`
	Weight   float64    `json:"weight,omitempty"`
}

// EffectiveWeight returns the clause weight with the default applied.
func (c Clause) EffectiveWeight() float64 {
	if c.Weight <= 0 {
		return 1
	}
	return c.Weight
}

// Result is the outcome of evaluating a rule list against one model.
type Result struct {
	Match             bool    `json:"match"`
	Score             float64 `json:"score"`
	FailedHardClauses int     `json:"failed_hard_clauses"`
	PassedSoftClauses int     `json:"passed_soft_clauses"`
	TotalSoftClauses  int     `json:"total_soft_clauses"`
	Rationale         string  `json:"rationale"`
}

// Evaluate scores a model against an ordered rule list. A failing hard
// clause never aborts evaluation; the full rationale is always built.
// Soft clauses contribute weight to the score and never gate the match.
func Evaluate(clauses []Clause, m model.Model) Result {
	result := Result{}
	var lines []string
	var totalSoftWeight, passedSoftWeight float64

	for _, clause := range clauses {
		fieldValue, _ := m.Field(clause.Field)
		passed := evalClause(clause, fieldValue)

		switch clause.Type {
		case ClauseSoft:
			result.TotalSoftClauses++
			totalSoftWeight += clause.EffectiveWeight()
			if passed {
				result.PassedSoftClauses++
				passedSoftWeight += clause.EffectiveWeight()
				lines = append(lines, fmt.Sprintf("soft clause passed: %s %s %s (weight %g)",
					clause.Field, clause.Operator, formatValue(clause.Value), clause.EffectiveWeight()))
			}
		default:
			if !passed {
				result.FailedHardClauses++
				lines = append(lines, fmt.Sprintf("hard clause failed: %s %s %s (got %s)",
					clause.Field, clause.Operator, formatValue(clause.Value), formatValue(fieldValue)))
			}
		}
	}

	result.Match = result.FailedHardClauses == 0
	if totalSoftWeight > 0 {
		result.Score = passedSoftWeight / totalSoftWeight
	}

	switch {
	case len(lines) > 0:
		result.Rationale = strings.Join(lines, "; ")
	case len(clauses) == 0:
		result.Rationale = "no matching criteria"
	default:
		result.Rationale = "all criteria passed"
	}

	return result
}

// evalClause applies one operator. Type mismatches evaluate to false,
// never to an error.
func evalClause(clause Clause, fieldValue any) bool {
	switch clause.Operator {
	case OpEq:
		return looseEqual(fieldValue, clause.Value)
	case OpNe:
		return !looseEqual(fieldValue, clause.Value)
	case OpGt:
		left, right, ok := bothNumeric(fieldValue, clause.Value)
		return ok && left > right
	case OpGte:
		left, right, ok := bothNumeric(fieldValue, clause.Value)
		return ok && left >= right
	case OpLt:
		left, right, ok := bothNumeric(fieldValue, clause.Value)
		return ok && left < right
	case OpLte:
		left, right, ok := bothNumeric(fieldValue, clause.Value)
		return ok && left <= right
	case OpIn:
		return valueInList(clause.Value, fieldValue)
	case OpNotIn:
		if !isList(clause.Value) {
			return false
		}
		return !valueInList(clause.Value, fieldValue)
	case OpContains:
		return valueInList(fieldValue, clause.Value)
	case OpStartsWith:
		left, right, ok := bothStrings(fieldValue, clause.Value)
		return ok && strings.HasPrefix(left, right)
	case OpEndsWith:
		left, right, ok := bothStrings(fieldValue, clause.Value)
		return ok && strings.HasSuffix(left, right)
	}
	return false
}

// looseEqual compares structurally, normalizing numeric types so that
// an int field matches a float clause value.
func looseEqual(a, b any) bool {
	if leftNum, ok := asNumber(a); ok {
		if rightNum, rightOK := asNumber(b); rightOK {
			return leftNum == rightNum
		}
		return false
	}
	return reflect.DeepEqual(a, b)
}

func bothNumeric(a, b any) (float64, float64, bool) {
	left, leftOK := asNumber(a)
	right, rightOK := asNumber(b)
	return left, right, leftOK && rightOK
}

func bothStrings(a, b any) (string, string, bool) {
	left, leftOK := a.(string)
	right, rightOK := b.(string)
	return left, right, leftOK && rightOK
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		parsed, err := n.Float64()
		return parsed, err == nil
	}
	return 0, false
}

func isList(v any) bool {
	if v == nil {
		return false
	}
	kind := reflect.TypeOf(v).Kind()
	return kind == reflect.Slice || kind == reflect.Array
}

// valueInList reports whether needle occurs in the list value. A
// non-list value evaluates to false.
func valueInList(list any, needle any) bool {
	if !isList(list) {
		return false
	}
	items := reflect.ValueOf(list)
	for i := 0; i < items.Len(); i++ {
		if looseEqual(items.Index(i).Interface(), needle) {
			return true
		}
	}
	return false
}

func formatValue(v any) string {
	switch value := v.(type) {
	case nil:
		return "undefined"
	case string:
		return fmt.Sprintf("%q", value)
	default:
		return fmt.Sprintf("%v", value)
	}
}
