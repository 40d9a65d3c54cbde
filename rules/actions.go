package rules

import "fmt"

// Collaborator contracts the executor hands directives to. All are
// fire-and-forget from the engine's point of view: a nil error means the
// directive was accepted for execution, not that downstream delivery
// succeeded. Implementations must be safe for concurrent use.

// Notifier accepts notification directives.
type Notifier interface {
	DispatchNotification(message string) error
}

// StatusWriter applies status-transition directives. The engine never
// mutates the entity itself.
type StatusWriter interface {
	PersistEntityStatus(entityID, newStatus string) error
}

// SitterAssigner applies sitter-assignment directives.
type SitterAssigner interface {
	AssignSitter(entityID, sitterID string) error
}

// Mailer accepts templated email directives.
type Mailer interface {
	DispatchEmail(template, recipient string) error
}

// Executor dispatches a fired rule's actions against its collaborators.
// A zero Executor is usable: every directive is then rejected as
// unconfigured, which keeps tests of the matching layers free of fakes.
type Executor struct {
	Notifier Notifier
	Statuses StatusWriter
	Sitters  SitterAssigner
	Mailer   Mailer
}

// ExecuteAction emits one directive and reports whether the collaborator
// accepted it. Failures are recorded, never raised: the returned error is
// informational and accompanies Dispatched == false.
func (x *Executor) ExecuteAction(action RuleAction, entity Entity) ActionResult {
	res := ActionResult{Type: action.Type}

	var err error
	switch action.Type {
	case ActionNotify:
		if x.Notifier == nil {
			err = fmt.Errorf("no notifier configured")
			break
		}
		err = x.Notifier.DispatchNotification(action.Parameters["message"])

	case ActionUpdateStatus:
		if x.Statuses == nil {
			err = fmt.Errorf("no status writer configured")
			break
		}
		err = x.Statuses.PersistEntityStatus(entity.EntityID(), action.Parameters["status"])

	case ActionAssignSitter:
		if x.Sitters == nil {
			err = fmt.Errorf("no sitter assigner configured")
			break
		}
		err = x.Sitters.AssignSitter(entity.EntityID(), action.Parameters["sitterId"])

	case ActionSendEmail:
		if x.Mailer == nil {
			err = fmt.Errorf("no mailer configured")
			break
		}
		err = x.Mailer.DispatchEmail(action.Parameters["template"], action.Parameters["recipient"])

	default:
		err = fmt.Errorf("unknown action kind %q", action.Type)
	}

	res.Dispatched = err == nil
	res.Err = err
	return res
}

// ExecuteActions runs every action of a fired rule in declared order.
// A failing action does not abort its siblings; each outcome is recorded
// independently. An empty action list returns an empty slice (the rule still
// fired for audit purposes).
func (x *Executor) ExecuteActions(rule *BusinessRule, entity Entity) []ActionResult {
	results := make([]ActionResult, 0, len(rule.Actions))
	for _, action := range rule.Actions {
		results = append(results, x.ExecuteAction(action, entity))
	}
	return results
}
