package rules

import (
	"strconv"
	"strings"
)

// parseNumeric converts a condition operand or field value to float64 for the
// numeric operators. Unparseable input defaults to 0.0 rather than erroring;
// this is the documented compatibility contract (a malformed threshold
// compares as zero, it does not fail the evaluation). Parsing happens only
// here so the defaulting rule lives in one place.
func parseNumeric(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0.0
	}
	return f
}

// EvaluateCondition evaluates one typed comparison against an entity.
// It is pure and total: identical inputs always yield identical outputs and
// no operator can error. An unknown operator evaluates to false.
func EvaluateCondition(cond RuleCondition, entity Entity) bool {
	fieldValue := entity.FieldValue(cond.Field)

	switch cond.Operator {
	case OpEquals:
		return fieldValue == cond.Value
	case OpNotEquals:
		return fieldValue != cond.Value
	case OpGreaterThan:
		return parseNumeric(fieldValue) > parseNumeric(cond.Value)
	case OpLessThan:
		return parseNumeric(fieldValue) < parseNumeric(cond.Value)
	case OpContains:
		return strings.Contains(strings.ToLower(fieldValue), strings.ToLower(cond.Value))
	case OpNotContains:
		return !strings.Contains(strings.ToLower(fieldValue), strings.ToLower(cond.Value))
	default:
		return false
	}
}
