package store

import (
	"fmt"
	"sync"

	"github.com/google/uuid"

	"grimm.is/rime/internal/rule"
)

// OpKind names a mutation recorded in the MemStore operation log.
type OpKind string

const (
	OpCreate OpKind = "create"
	OpSet    OpKind = "set"
	OpRename OpKind = "rename"
)

// Op is one logged mutation.
type Op struct {
	Kind   OpKind
	ID     string
	Attr   rule.Attr
	Values []string
}

func (o Op) String() string {
	switch o.Kind {
	case OpSet:
		return fmt.Sprintf("set %s %s=%s", o.ID, o.Attr, rule.JoinList(o.Values))
	case OpRename:
		return fmt.Sprintf("rename %s to %s", o.ID, rule.JoinList(o.Values))
	default:
		return fmt.Sprintf("%s %s", o.Kind, o.ID)
	}
}

type failKey struct {
	kind OpKind
	id   string
}

// MemStore is an insertion-ordered in-memory Store. It keeps an
// operation log and supports injected per-operation failures, which is
// what the engine tests are built on.
type MemStore struct {
	mu       sync.Mutex
	rules    []*memRule
	ops      []Op
	failures map[failKey]error
}

type memRule struct {
	attrs rule.Rule
}

func (m *memRule) ID() string            { return m.attrs.ID }
func (m *memRule) Enabled() bool         { return m.attrs.IsEnabled() }
func (m *memRule) Attributes() rule.Rule { return m.attrs }

// NewMemStore seeds a store with the given rules, assigning IDs where
// empty. Seeding does not reach the operation log.
func NewMemStore(rules ...rule.Rule) *MemStore {
	s := &MemStore{failures: make(map[failKey]error)}
	for _, r := range rules {
		if r.ID == "" {
			r.ID = uuid.NewString()
		}
		s.rules = append(s.rules, &memRule{attrs: r})
	}
	return s
}

// FailWith makes the next matching operation on the given rule return err.
func (s *MemStore) FailWith(kind OpKind, id string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[failKey{kind, id}] = err
}

func (s *MemStore) takeFailure(kind OpKind, id string) error {
	key := failKey{kind, id}
	if err, ok := s.failures[key]; ok {
		delete(s.failures, key)
		return err
	}
	return nil
}

// Enumerate returns live views of every rule matching the filter, in
// insertion order.
func (s *MemStore) Enumerate(f Filter) ([]Live, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Live
	for _, m := range s.rules {
		if f.Matches(m.attrs) {
			out = append(out, m)
		}
	}
	return out, nil
}

// EnumerateStates returns partial views for the same filter.
func (s *MemStore) EnumerateStates(f Filter) ([]Partial, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []Partial
	for _, m := range s.rules {
		if f.Matches(m.attrs) {
			out = append(out, m)
		}
	}
	return out, nil
}

// GetByID fetches one rule.
func (s *MemStore) GetByID(id string) (Live, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.find(id)
	if m == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return m, nil
}

// Create adds a rule, assigning an ID when the record has none.
func (s *MemStore) Create(r rule.Rule) (Live, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpCreate, r.ID); err != nil {
		return nil, err
	}
	if r.ID == "" {
		r.ID = uuid.NewString()
	} else if s.find(r.ID) != nil {
		return nil, fmt.Errorf("rule %s already exists", r.ID)
	}
	m := &memRule{attrs: r}
	s.rules = append(s.rules, m)
	s.ops = append(s.ops, Op{Kind: OpCreate, ID: r.ID})
	return m, nil
}

// SetAttribute patches one attribute of one rule.
func (s *MemStore) SetAttribute(id string, attr rule.Attr, values []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpSet, id); err != nil {
		return err
	}
	m := s.find(id)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if attr == rule.AttrID {
		return fmt.Errorf("attribute %s is immutable", attr)
	}
	if _, ok := rule.InfoFor(attr); !ok {
		return fmt.Errorf("unknown attribute %s", attr)
	}
	m.attrs.Set(attr, rule.JoinList(values))
	s.ops = append(s.ops, Op{Kind: OpSet, ID: id, Attr: attr, Values: values})
	return nil
}

// Rename changes a rule's display name.
func (s *MemStore) Rename(id, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.takeFailure(OpRename, id); err != nil {
		return err
	}
	m := s.find(id)
	if m == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	m.attrs.DisplayName = displayName
	s.ops = append(s.ops, Op{Kind: OpRename, ID: id, Values: []string{displayName}})
	return nil
}

// Ops returns the mutation log in execution order.
func (s *MemStore) Ops() []Op {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Op, len(s.ops))
	copy(out, s.ops)
	return out
}

// ClearOps resets the mutation log, keeping the rules.
func (s *MemStore) ClearOps() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ops = nil
}

// Count returns the number of rules in the store.
func (s *MemStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.rules)
}

// Rule returns a copy of one rule's attributes by ID.
func (s *MemStore) Rule(id string) (rule.Rule, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if m := s.find(id); m != nil {
		return m.attrs, true
	}
	return rule.Rule{}, false
}

func (s *MemStore) find(id string) *memRule {
	for _, m := range s.rules {
		if m.attrs.ID == id {
			return m
		}
	}
	return nil
}
