package rules

import "sync"

// ExecutionLog is the audit sink execution records are appended to. The
// engine returns records to its caller; the caller decides which log, if
// any, they land in. Implementations must be safe for concurrent use.
type ExecutionLog interface {
	// Append records executions in order
	Append(execs ...*RuleExecution) error

	// ListByEntity returns recorded executions for one entity, oldest first
	ListByEntity(entityID string) ([]*RuleExecution, error)

	// ListByRule returns recorded executions for one rule, oldest first
	ListByRule(ruleID string) ([]*RuleExecution, error)
}

// InMemoryExecutionLog keeps execution records in a slice. Intended for
// tests and single-process runs.
type InMemoryExecutionLog struct {
	execs []*RuleExecution
	mu    sync.RWMutex
}

// NewInMemoryExecutionLog creates a new in-memory execution log.
func NewInMemoryExecutionLog() *InMemoryExecutionLog {
	return &InMemoryExecutionLog{}
}

// Append records executions in order.
func (l *InMemoryExecutionLog) Append(execs ...*RuleExecution) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.execs = append(l.execs, execs...)
	return nil
}

// ListByEntity returns executions for one entity, oldest first.
func (l *InMemoryExecutionLog) ListByEntity(entityID string) ([]*RuleExecution, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []*RuleExecution
	for _, exec := range l.execs {
		if exec.EntityID == entityID {
			matched = append(matched, exec)
		}
	}
	return matched, nil
}

// ListByRule returns executions for one rule, oldest first.
func (l *InMemoryExecutionLog) ListByRule(ruleID string) ([]*RuleExecution, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var matched []*RuleExecution
	for _, exec := range l.execs {
		if exec.RuleID == ruleID {
			matched = append(matched, exec)
		}
	}
	return matched, nil
}
