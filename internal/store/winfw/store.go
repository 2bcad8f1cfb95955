package winfw

import (
	"errors"
	"fmt"

	"grimm.is/rime/internal/logging"
	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/store"
)

// Options configures the Windows store.
type Options struct {
	Runner Runner          // defaults to DefaultRunner
	Logger *logging.Logger // defaults to the package default logger
}

// Store reads and writes Windows host firewall rules through PowerShell.
// Like every store implementation it has no delete operation.
type Store struct {
	runner Runner
	log    *logging.Logger
}

var _ store.Store = (*Store)(nil)

// New creates a Store ready to run scripts on the host.
func New(opts Options) *Store {
	r := opts.Runner
	if r == nil {
		r = DefaultRunner
	}
	log := opts.Logger
	if log == nil {
		log = logging.WithComponent("winfw")
	}
	return &Store{runner: r, log: log}
}

// Enumerate returns fully populated rules matching the filter. Each rule
// costs three extra cmdlet calls for its port, address and application
// filter objects, which is what makes this the expensive pass.
func (s *Store) Enumerate(f store.Filter) ([]store.Live, error) {
	out, err := s.runner.Output(enumerateScript(f))
	if err != nil {
		return nil, fmt.Errorf("enumerating rules: %w", err)
	}
	ws, err := decodeList[wireRule](out)
	if err != nil {
		return nil, err
	}
	rules := make([]store.Live, 0, len(ws))
	for _, w := range ws {
		rules = append(rules, liveRule{attrs: w.toRule()})
	}
	s.log.Debug("enumerated rules", "count", len(rules))
	return rules, nil
}

// EnumerateStates returns the identity and enabled state of matching
// rules from a single Get-NetFirewallRule pass.
func (s *Store) EnumerateStates(f store.Filter) ([]store.Partial, error) {
	out, err := s.runner.Output(statesScript(f))
	if err != nil {
		return nil, fmt.Errorf("enumerating rule states: %w", err)
	}
	ws, err := decodeList[wireState](out)
	if err != nil {
		return nil, err
	}
	states := make([]store.Partial, 0, len(ws))
	for _, w := range ws {
		states = append(states, partialRule{
			id:      w.Name,
			enabled: rule.Rule{Enabled: w.Enabled}.IsEnabled(),
		})
	}
	s.log.Debug("enumerated rule states", "count", len(states))
	return states, nil
}

// GetByID fetches one rule by its name.
func (s *Store) GetByID(id string) (store.Live, error) {
	out, err := s.runner.Output(getScript(id))
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return nil, fmt.Errorf("fetching rule %s: %w", id, err)
	}
	ws, err := decodeList[wireRule](out)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, fmt.Errorf("%w: %s", store.ErrNotFound, id)
	}
	return liveRule{attrs: ws[0].toRule()}, nil
}

// Create adds a new rule. The created rule is read back so the caller
// sees the store-assigned name when the template had none.
func (s *Store) Create(r rule.Rule) (store.Live, error) {
	out, err := s.runner.Output(createScript(r))
	if err != nil {
		return nil, fmt.Errorf("creating rule: %w", err)
	}
	ws, err := decodeList[wireRule](out)
	if err != nil {
		return nil, err
	}
	if len(ws) == 0 {
		return nil, errors.New("creating rule: store returned no rule")
	}
	created := liveRule{attrs: ws[0].toRule()}
	s.log.Debug("created rule", "id", created.ID(), "name", created.attrs.DisplayName)
	return created, nil
}

// SetAttribute patches a single attribute. Group needs the full-object
// round trip; everything else maps to a Set-NetFirewallRule parameter.
func (s *Store) SetAttribute(id string, attr rule.Attr, values []string) error {
	if attr == rule.AttrID {
		return fmt.Errorf("attribute %s is immutable", attr)
	}
	if _, ok := rule.InfoFor(attr); !ok {
		return fmt.Errorf("unknown attribute %s", attr)
	}
	script := setScript(id, attr, values)
	if attr == rule.AttrGroup {
		script = setGroupScript(id, rule.JoinList(values))
	}
	if err := s.runner.Run(script); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return fmt.Errorf("setting %s on rule %s: %w", attr, id, err)
	}
	s.log.Debug("set attribute", "id", id, "attr", string(attr))
	return nil
}

// Rename changes a rule's display name.
func (s *Store) Rename(id, displayName string) error {
	if err := s.runner.Run(renameScript(id, displayName)); err != nil {
		if isNotFound(err) {
			return fmt.Errorf("%w: %s", store.ErrNotFound, id)
		}
		return fmt.Errorf("renaming rule %s: %w", id, err)
	}
	s.log.Debug("renamed rule", "id", id, "name", displayName)
	return nil
}

// isNotFound recognizes the script-side not-found exit code anywhere in
// the error chain.
func isNotFound(err error) bool {
	var ec interface{ ExitCode() int }
	return errors.As(err, &ec) && ec.ExitCode() == exitNotFound
}

// liveRule adapts a parsed wire rule to the store views.
type liveRule struct {
	attrs rule.Rule
}

func (l liveRule) ID() string            { return l.attrs.ID }
func (l liveRule) Enabled() bool         { return l.attrs.IsEnabled() }
func (l liveRule) Attributes() rule.Rule { return l.attrs }

type partialRule struct {
	id      string
	enabled bool
}

func (p partialRule) ID() string    { return p.id }
func (p partialRule) Enabled() bool { return p.enabled }
