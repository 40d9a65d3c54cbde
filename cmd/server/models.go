package main

import (
	"github.com/pawsuite/bookingrules/booking"
	"github.com/pawsuite/bookingrules/rules"
)

// EvaluateRequest asks for one booking to be run through the catalog.
// Exactly one of BookingID (a stored booking) or Booking (inline, not
// persisted) must be set.
type EvaluateRequest struct {
	BookingID string           `json:"bookingId,omitempty"`
	Booking   *booking.Booking `json:"booking,omitempty"`
}

// EvaluateResponse carries the audit records for one evaluation pass.
type EvaluateResponse struct {
	BookingID      string                 `json:"bookingId"`
	Executions     []*rules.RuleExecution `json:"executions"`
	EvaluationTime string                 `json:"evaluationTime"`
}

// CreateRuleRequest is the body for creating or updating a rule.
type CreateRuleRequest struct {
	Name        string                `json:"name"`
	Description string                `json:"description,omitempty"`
	Conditions  []rules.RuleCondition `json:"conditions"`
	Actions     []rules.RuleAction    `json:"actions"`
	Active      bool                  `json:"active"`
	Priority    int                   `json:"priority"`
}
