package rules

// MatchRule decides whether a rule fires for an entity.
// Inactive rules never fire, regardless of their conditions. Conditions are
// AND-combined in list order with short-circuit on the first false; since
// conditions are pure, evaluation order is otherwise irrelevant. An active
// rule with no conditions is vacuously true.
func MatchRule(rule *BusinessRule, entity Entity) bool {
	if !rule.Active {
		return false
	}

	for _, cond := range rule.Conditions {
		if !EvaluateCondition(cond, entity) {
			return false
		}
	}
	return true
}
