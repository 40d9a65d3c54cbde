package rules

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// Config controls engine behavior left to the caller.
type Config struct {
	// RecordNonFiring controls whether rules that did not fire still
	// produce an execution record. On by default: inactive and unmatched
	// rules then appear in the audit trail with Result == false.
	RecordNonFiring bool
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() Config {
	return Config{RecordNonFiring: true}
}

// Engine orchestrates prioritized rule evaluation against entities.
// It holds no mutable evaluation state: the catalog comes from the store
// (through a cache), entities come from the caller, and side effects go out
// through the Executor's collaborators. Safe for concurrent use.
type Engine struct {
	store  RuleStore
	cache  RulesCache
	exec   *Executor
	config Config
}

// NewEngine creates an engine over a rule catalog and an action executor.
// The catalog is loaded once to warm the cache; a store failure surfaces
// here rather than on the first evaluation.
func NewEngine(store RuleStore, exec *Executor) (*Engine, error) {
	return NewEngineWithConfig(store, exec, DefaultConfig())
}

// NewEngineWithConfig is NewEngine with explicit configuration.
func NewEngineWithConfig(store RuleStore, exec *Executor, config Config) (*Engine, error) {
	if exec == nil {
		exec = &Executor{}
	}

	en := &Engine{
		store:  store,
		cache:  NewInMemoryRulesCache(DefaultCacheConfig()),
		exec:   exec,
		config: config,
	}

	rules, err := store.List()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}
	en.cache.Set(rules)

	return en, nil
}

// catalog returns the current rule set, cache first.
func (en *Engine) catalog() ([]*BusinessRule, error) {
	rules := en.cache.Get()
	if rules != nil {
		return rules, nil
	}

	rules, err := en.store.List()
	if err != nil {
		return nil, err
	}
	en.cache.Set(rules)
	return rules, nil
}

// EvaluateAll evaluates every catalog rule against one entity and returns
// the audit records, ordered by ascending priority (ties keep catalog
// order). All rules are evaluated unconditionally: multiple rules may
// legitimately fire for the same entity, so priority governs the order of
// side effects, not exclusivity. Fired rules have their actions executed
// before the next rule is considered.
func (en *Engine) EvaluateAll(entity Entity) ([]*RuleExecution, error) {
	catalog, err := en.catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}
	return en.evaluate(catalog, entity), nil
}

// EvaluateBatch evaluates many entities against one catalog snapshot.
// The snapshot is taken once, so a catalog mutation mid-batch does not leak
// into later entities. Cancellation is honored between entities, never
// mid-evaluation; records produced before cancellation are returned along
// with the context error.
func (en *Engine) EvaluateBatch(ctx context.Context, entities []Entity) ([]*RuleExecution, error) {
	catalog, err := en.catalog()
	if err != nil {
		return nil, fmt.Errorf("failed to load rule catalog: %w", err)
	}

	var execs []*RuleExecution
	for _, entity := range entities {
		if err := ctx.Err(); err != nil {
			return execs, err
		}
		execs = append(execs, en.evaluate(catalog, entity)...)
	}
	return execs, nil
}

func (en *Engine) evaluate(catalog []*BusinessRule, entity Entity) []*RuleExecution {
	// Stable sort on a copy: lower priority first, catalog order breaks
	// ties, and the shared slice stays untouched.
	ordered := make([]*BusinessRule, len(catalog))
	copy(ordered, catalog)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].Priority < ordered[j].Priority
	})

	execs := make([]*RuleExecution, 0, len(ordered))
	for _, rule := range ordered {
		fired := MatchRule(rule, entity)

		var actions []ActionResult
		if fired {
			actions = en.exec.ExecuteActions(rule, entity)
		}

		if !fired && !en.config.RecordNonFiring {
			continue
		}

		execs = append(execs, &RuleExecution{
			ID:        uuid.New().String(),
			RuleID:    rule.ID,
			EntityID:  entity.EntityID(),
			Result:    fired,
			Timestamp: time.Now().UTC(),
			Context:   snapshotContext(rule, entity),
			Actions:   actions,
		})
	}
	return execs
}

// snapshotContext captures the rule name and the entity's field values at
// evaluation time, so the audit record stands on its own once the entity
// has moved on.
func snapshotContext(rule *BusinessRule, entity Entity) map[string]string {
	ctx := make(map[string]string, len(AllFields)+1)
	ctx["ruleName"] = rule.Name
	for _, field := range AllFields {
		ctx[string(field)] = entity.FieldValue(field)
	}
	return ctx
}

// AddRule validates a rule and adds it to the catalog.
func (en *Engine) AddRule(r *BusinessRule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Add(r); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// UpdateRule validates a rule and updates it in the catalog.
func (en *Engine) UpdateRule(r *BusinessRule) error {
	if err := ValidateRule(r); err != nil {
		return fmt.Errorf("rule validation failed: %w", err)
	}

	if err := en.store.Update(r); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// DeleteRule removes a rule from the catalog.
func (en *Engine) DeleteRule(ruleID string) error {
	if err := en.store.Delete(ruleID); err != nil {
		return err
	}

	en.cache.Invalidate()
	return nil
}

// GetRule retrieves one rule from the catalog.
func (en *Engine) GetRule(ruleID string) (*BusinessRule, error) {
	return en.store.Get(ruleID)
}

// ListRules returns the full catalog from the store, inactive rules
// included, bypassing the cache.
func (en *Engine) ListRules() ([]*BusinessRule, error) {
	return en.store.List()
}
