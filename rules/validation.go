package rules

// ValidateRule checks a rule at catalog-mutation time. Field refs, operators
// and action kinds are closed sets; anything outside them is an authoring
// error and is rejected before the rule reaches the store. Operand values are
// deliberately not checked here: the evaluator's numeric defaulting contract
// makes every operand legal at runtime.
func ValidateRule(r *BusinessRule) error {
	if r == nil {
		return ErrNilRule
	}
	if r.Name == "" {
		return ErrUnnamedRule
	}

	for i, cond := range r.Conditions {
		if !validFields[cond.Field] {
			return &ValidationError{Index: i, Part: "condition", Value: string(cond.Field), Reason: "unknown field"}
		}
		if !validOperators[cond.Operator] {
			return &ValidationError{Index: i, Part: "condition", Value: string(cond.Operator), Reason: "unknown operator"}
		}
	}

	for i, action := range r.Actions {
		if !validActionKinds[action.Type] {
			return &ValidationError{Index: i, Part: "action", Value: string(action.Type), Reason: "unknown action kind"}
		}
	}

	return nil
}

var validFields = func() map[FieldRef]bool {
	m := make(map[FieldRef]bool, len(AllFields))
	for _, f := range AllFields {
		m[f] = true
	}
	return m
}()

var validOperators = map[ComparisonOp]bool{
	OpEquals:      true,
	OpNotEquals:   true,
	OpGreaterThan: true,
	OpLessThan:    true,
	OpContains:    true,
	OpNotContains: true,
}

var validActionKinds = map[ActionKind]bool{
	ActionNotify:       true,
	ActionUpdateStatus: true,
	ActionAssignSitter: true,
	ActionSendEmail:    true,
}
