package rules

import (
	"fmt"
	"sync"
	"time"
)

// RuleStore manages rule catalog persistence and retrieval. List returns
// rules in catalog order (insertion order), which is the tie-break for
// equal priorities during evaluation.
type RuleStore interface {
	// Add a new rule
	Add(rule *BusinessRule) error

	// Get a rule by ID
	Get(id string) (*BusinessRule, error)

	// List all rules, active and inactive, in catalog order
	List() ([]*BusinessRule, error)

	// ListActive returns only active rules, in catalog order
	ListActive() ([]*BusinessRule, error)

	// Update an existing rule
	Update(rule *BusinessRule) error

	// Delete a rule
	Delete(id string) error
}

// InMemoryRuleStore implements RuleStore using a map plus an insertion-order
// index, so List is deterministic. Thread-safe with RWMutex.
type InMemoryRuleStore struct {
	rules map[string]*BusinessRule
	order []string
	mu    sync.RWMutex
}

// NewInMemoryRuleStore creates a new in-memory rule store.
func NewInMemoryRuleStore() *InMemoryRuleStore {
	return &InMemoryRuleStore{
		rules: make(map[string]*BusinessRule),
	}
}

// Add adds a new rule to the store and stamps its timestamps.
func (s *InMemoryRuleStore) Add(rule *BusinessRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[rule.ID]; exists {
		return fmt.Errorf("rule with ID %s already exists", rule.ID)
	}

	now := time.Now()
	rule.CreatedAt = now
	rule.UpdatedAt = now
	s.rules[rule.ID] = rule
	s.order = append(s.order, rule.ID)
	return nil
}

// Get retrieves a rule by ID.
func (s *InMemoryRuleStore) Get(id string) (*BusinessRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rule, exists := s.rules[id]
	if !exists {
		return nil, fmt.Errorf("rule with ID %s not found", id)
	}
	return rule, nil
}

// List returns all rules in insertion order.
func (s *InMemoryRuleStore) List() ([]*BusinessRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	all := make([]*BusinessRule, 0, len(s.order))
	for _, id := range s.order {
		all = append(all, s.rules[id])
	}
	return all, nil
}

// ListActive returns active rules in insertion order.
func (s *InMemoryRuleStore) ListActive() ([]*BusinessRule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var active []*BusinessRule
	for _, id := range s.order {
		if rule := s.rules[id]; rule.Active {
			active = append(active, rule)
		}
	}
	return active, nil
}

// Update replaces an existing rule, preserving its original CreatedAt and
// its position in catalog order.
func (s *InMemoryRuleStore) Update(rule *BusinessRule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, exists := s.rules[rule.ID]
	if !exists {
		return fmt.Errorf("rule with ID %s not found", rule.ID)
	}

	rule.CreatedAt = existing.CreatedAt
	rule.UpdatedAt = time.Now()
	s.rules[rule.ID] = rule
	return nil
}

// Delete removes a rule from the store.
func (s *InMemoryRuleStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.rules[id]; !exists {
		return fmt.Errorf("rule with ID %s not found", id)
	}

	delete(s.rules, id)
	for i, ordered := range s.order {
		if ordered == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}
