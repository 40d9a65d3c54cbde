package rules

import "time"

// FieldRef identifies one attribute of an entity under evaluation.
// The set is closed: rules authored against anything else are a
// configuration-time error, not something the engine recovers from.
type FieldRef string

const (
	FieldStatus        FieldRef = "status"
	FieldPrice         FieldRef = "price"
	FieldServiceType   FieldRef = "serviceType"
	FieldSitterName    FieldRef = "sitterName"
	FieldAddress       FieldRef = "address"
	FieldClientID      FieldRef = "clientId"
	FieldScheduledDate FieldRef = "scheduledDate"
	FieldDuration      FieldRef = "duration"
)

// AllFields lists every defined FieldRef, in a fixed order.
// Used to snapshot an entity into an execution record's context.
var AllFields = []FieldRef{
	FieldStatus,
	FieldPrice,
	FieldServiceType,
	FieldSitterName,
	FieldAddress,
	FieldClientID,
	FieldScheduledDate,
	FieldDuration,
}

// ComparisonOp is the operator of a single rule condition.
type ComparisonOp string

const (
	OpEquals      ComparisonOp = "equals"
	OpNotEquals   ComparisonOp = "notEquals"
	OpGreaterThan ComparisonOp = "greaterThan"
	OpLessThan    ComparisonOp = "lessThan"
	OpContains    ComparisonOp = "contains"
	OpNotContains ComparisonOp = "notContains"
)

// ActionKind names a side-effecting directive emitted when a rule fires.
type ActionKind string

const (
	ActionNotify       ActionKind = "notify"
	ActionUpdateStatus ActionKind = "updateStatus"
	ActionAssignSitter ActionKind = "assignSitter"
	ActionSendEmail    ActionKind = "sendEmail"
)

// Entity is the record being evaluated. The engine only reads it;
// mutation happens through action directives handed to collaborators.
type Entity interface {
	// EntityID returns a stable identifier for the audit trail.
	EntityID() string

	// FieldValue returns the entity's value for a field, coerced to a
	// string. Absent optional fields resolve to "" rather than failing,
	// so `equals ""` can express "unassigned" checks.
	FieldValue(field FieldRef) string
}

// RuleCondition is a single typed comparison between a field's value and a
// literal operand. Value stays a raw string at this boundary for
// serializability; numeric operators parse it via parseNumeric.
type RuleCondition struct {
	Field    FieldRef     `json:"field"`
	Operator ComparisonOp `json:"operator"`
	Value    string       `json:"value"`
}

// RuleAction is a directive to run when the owning rule fires.
// Parameters carries action-specific keys, e.g. "message" for notify,
// "status" for updateStatus, "sitterId" for assignSitter, and
// "template"/"recipient" for sendEmail.
type RuleAction struct {
	Type       ActionKind        `json:"type"`
	Parameters map[string]string `json:"parameters"`
}

// BusinessRule is a named, prioritized, activatable bundle of AND-combined
// conditions and an ordered action list. Lower priority evaluates first;
// ties keep catalog order. The engine never mutates a rule.
type BusinessRule struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	Conditions  []RuleCondition `json:"conditions"`
	Actions     []RuleAction    `json:"actions"`
	Active      bool            `json:"active"`
	Priority    int             `json:"priority"`
	CreatedAt   time.Time       `json:"createdAt"`
	UpdatedAt   time.Time       `json:"updatedAt"`
}

// ActionResult records the outcome of dispatching one action.
// Dispatched is false when the collaborator rejected the directive (or no
// collaborator was configured); Err carries the rejection reason.
type ActionResult struct {
	Type       ActionKind `json:"type"`
	Dispatched bool       `json:"dispatched"`
	Err        error      `json:"-"`
}

// RuleExecution is an immutable audit entry capturing one rule's evaluation
// outcome against one entity at one point in time. The engine returns these;
// the caller owns persistence.
type RuleExecution struct {
	ID        string            `json:"id"`
	RuleID    string            `json:"ruleId"`
	EntityID  string            `json:"entityId"`
	Result    bool              `json:"result"`
	Timestamp time.Time         `json:"timestamp"`
	Context   map[string]string `json:"context"`
	Actions   []ActionResult    `json:"actions,omitempty"`
}
