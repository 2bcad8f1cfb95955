package cmd

import (
	"flag"
	"fmt"
	"os"
	"sort"

	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
)

// RunCapture handles the "capture" command: it enumerates the live
// firewall rules, sorts them by ID and writes them out as a snapshot.
// The filter flags are recorded on the Default Record so later syncs
// reconcile the same slice of the firewall.
func RunCapture(args []string) error {
	fs := flag.NewFlagSet("capture", flag.ContinueOnError)

	var (
		out, configFile                    string
		name, group, displayGroup, enabled string
		profile, direction, action         string
	)

	fs.StringVar(&out, "out", "", "Output file, - for stdout (default from config)")
	fs.StringVar(&out, "o", "", "Alias for -out")

	fs.StringVar(&name, "name", "", "Only rules whose display name contains this (glob with *)")
	fs.StringVar(&group, "group", "", "Only rules whose group contains this (glob with *)")
	fs.StringVar(&displayGroup, "display-group", "", "Only rules whose display group contains this (glob with *)")
	fs.StringVar(&enabled, "enabled", "", "Only rules with this enabled state (True or False)")
	fs.StringVar(&profile, "profile", "", "Only rules with this exact profile")
	fs.StringVar(&direction, "direction", "", "Only rules with this direction (Inbound or Outbound)")
	fs.StringVar(&action, "action", "", "Only rules with this action (Allow or Block)")

	fs.StringVar(&configFile, "config", "", "Config file")
	fs.StringVar(&configFile, "c", "", "Alias for -config")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if out == "" {
		out = cfg.Snapshot
	}
	if enabled != "" {
		enabled, _ = rule.NormalizeBool(enabled)
	}

	log := newLogger(cfg, false)
	st := openStore(log.WithComponent("winfw"))

	live, err := st.Enumerate(store.Filter{
		DisplayName:  name,
		Group:        group,
		DisplayGroup: displayGroup,
		Enabled:      enabled,
		Profile:      profile,
		Direction:    direction,
		Action:       action,
	})
	if err != nil {
		return fmt.Errorf("enumerating rules: %w", err)
	}

	rules := make([]rule.Rule, len(live))
	for i, lv := range live {
		rules[i] = lv.Attributes()
	}
	sort.Slice(rules, func(i, j int) bool { return rules[i].ID < rules[j].ID })

	// The display group narrows the capture only; the record model has a
	// single group field, so it is not part of the persisted scope.
	scope := snapshot.Scope{
		DisplayName: name,
		Group:       group,
		Enabled:     enabled,
		Profile:     profile,
		Direction:   direction,
		Action:      action,
	}
	snap := snapshot.New(scope, rules)

	if out == "-" {
		return snapshot.Write(os.Stdout, snap)
	}
	if err := snapshot.WriteFile(out, snap); err != nil {
		return err
	}
	Printer.Printf("Captured %d rules to %s\n", len(rules), out)
	return nil
}
