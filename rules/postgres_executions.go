package rules

import (
	"database/sql"
	"encoding/json"
	"fmt"
)

// PostgresExecutionLog implements ExecutionLog backed by PostgreSQL.
// The context snapshot persists as JSONB; action outcomes are transient
// dispatch results and are not persisted.
type PostgresExecutionLog struct {
	db *sql.DB
}

// NewPostgresExecutionLog creates a new PostgreSQL-backed execution log.
func NewPostgresExecutionLog(db *sql.DB) *PostgresExecutionLog {
	return &PostgresExecutionLog{db: db}
}

// Append inserts execution records in order.
func (l *PostgresExecutionLog) Append(execs ...*RuleExecution) error {
	for _, exec := range execs {
		context, err := json.Marshal(exec.Context)
		if err != nil {
			return fmt.Errorf("failed to marshal execution context: %w", err)
		}

		_, err = l.db.Exec(`
			INSERT INTO rule_executions (id, rule_id, entity_id, result, executed_at, context)
			VALUES ($1, $2, $3, $4, $5, $6)
		`, exec.ID, exec.RuleID, exec.EntityID, exec.Result, exec.Timestamp, context)
		if err != nil {
			return fmt.Errorf("failed to insert execution %s: %w", exec.ID, err)
		}
	}
	return nil
}

// ListByEntity returns executions for one entity, oldest first.
func (l *PostgresExecutionLog) ListByEntity(entityID string) ([]*RuleExecution, error) {
	return l.list(`
		SELECT id, rule_id, entity_id, result, executed_at, context
		FROM rule_executions
		WHERE entity_id = $1
		ORDER BY executed_at ASC
	`, entityID)
}

// ListByRule returns executions for one rule, oldest first.
func (l *PostgresExecutionLog) ListByRule(ruleID string) ([]*RuleExecution, error) {
	return l.list(`
		SELECT id, rule_id, entity_id, result, executed_at, context
		FROM rule_executions
		WHERE rule_id = $1
		ORDER BY executed_at ASC
	`, ruleID)
}

func (l *PostgresExecutionLog) list(query string, arg any) ([]*RuleExecution, error) {
	rows, err := l.db.Query(query, arg)
	if err != nil {
		return nil, fmt.Errorf("failed to list executions: %w", err)
	}
	defer rows.Close()

	var execs []*RuleExecution
	for rows.Next() {
		var exec RuleExecution
		var context []byte
		if err := rows.Scan(&exec.ID, &exec.RuleID, &exec.EntityID,
			&exec.Result, &exec.Timestamp, &context); err != nil {
			return nil, fmt.Errorf("failed to scan execution: %w", err)
		}
		if err := json.Unmarshal(context, &exec.Context); err != nil {
			return nil, fmt.Errorf("failed to unmarshal execution context: %w", err)
		}
		execs = append(execs, &exec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating executions: %w", err)
	}

	return execs, nil
}
