package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"gopkg.in/yaml.v2"

	"grimm.is/rime/internal/brand"
	"grimm.is/rime/internal/snapshot"
)

// showRule is the serialized per-record view for -o json and -o yaml.
// Values are shown exactly as the snapshot holds them, ignore tags and
// wildcards included.
type showRule struct {
	ID            string `json:"id" yaml:"id"`
	DisplayName   string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Group         string `json:"group,omitempty" yaml:"group,omitempty"`
	Program       string `json:"program,omitempty" yaml:"program,omitempty"`
	Enabled       string `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Profile       string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Direction     string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Action        string `json:"action,omitempty" yaml:"action,omitempty"`
	Protocol      string `json:"protocol,omitempty" yaml:"protocol,omitempty"`
	LocalAddress  string `json:"local_address,omitempty" yaml:"local_address,omitempty"`
	LocalPort     string `json:"local_port,omitempty" yaml:"local_port,omitempty"`
	RemoteAddress string `json:"remote_address,omitempty" yaml:"remote_address,omitempty"`
	RemotePort    string `json:"remote_port,omitempty" yaml:"remote_port,omitempty"`
	Description   string `json:"description,omitempty" yaml:"description,omitempty"`
}

type showScope struct {
	DisplayName string `json:"display_name,omitempty" yaml:"display_name,omitempty"`
	Group       string `json:"group,omitempty" yaml:"group,omitempty"`
	Enabled     string `json:"enabled,omitempty" yaml:"enabled,omitempty"`
	Profile     string `json:"profile,omitempty" yaml:"profile,omitempty"`
	Direction   string `json:"direction,omitempty" yaml:"direction,omitempty"`
	Action      string `json:"action,omitempty" yaml:"action,omitempty"`
}

type showDoc struct {
	Version string     `json:"version" yaml:"version"`
	Scope   *showScope `json:"scope,omitempty" yaml:"scope,omitempty"`
	Rules   []showRule `json:"rules" yaml:"rules"`
}

// RunShow prints a snapshot, as a table by default or as JSON/YAML.
func RunShow(snapshotPath, format string) error {
	if len(snapshotPath) == 0 {
		return fmt.Errorf("usage: %s show [-o json|yaml] <snapshot-file>", brand.BinaryName)
	}

	snap, err := snapshot.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("failed to load snapshot: %w", err)
	}

	switch format {
	case "", "text":
		printSnapshotTable(snap)
		return nil
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(showDocument(snap))
	case "yaml":
		data, err := yaml.Marshal(showDocument(snap))
		if err != nil {
			return fmt.Errorf("failed to render yaml: %w", err)
		}
		_, err = os.Stdout.Write(data)
		return err
	default:
		return fmt.Errorf("unknown output format %q (want text, json or yaml)", format)
	}
}

func printSnapshotTable(snap snapshot.Snapshot) {
	Printer.Printf("Schema Version: %s\n", snap.Version)
	if s := scopeString(snap.Scope); s != "" {
		Printer.Printf("Scope: %s\n", s)
	}
	Printer.Println()

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "ID\tNAME\tENABLED\tDIRECTION\tACTION\tPROTOCOL\tLOCAL PORT")
	for _, rec := range snap.Records {
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n",
			rec.ID, orDash(rec.DisplayName), orDash(rec.Enabled), orDash(rec.Direction),
			orDash(rec.Action), orDash(rec.Protocol), orDash(rec.LocalPort))
	}
	w.Flush()
}

func showDocument(snap snapshot.Snapshot) showDoc {
	doc := showDoc{Version: snap.Version.String()}

	if snap.Scope != (snapshot.Scope{}) {
		s := snap.Scope
		doc.Scope = &showScope{
			DisplayName: s.DisplayName,
			Group:       s.Group,
			Enabled:     s.Enabled,
			Profile:     s.Profile,
			Direction:   s.Direction,
			Action:      s.Action,
		}
	}

	doc.Rules = make([]showRule, len(snap.Records))
	for i, rec := range snap.Records {
		doc.Rules[i] = showRule{
			ID:            rec.ID,
			DisplayName:   rec.DisplayName,
			Group:         rec.Group,
			Program:       rec.Program,
			Enabled:       rec.Enabled,
			Profile:       rec.Profile,
			Direction:     rec.Direction,
			Action:        rec.Action,
			Protocol:      rec.Protocol,
			LocalAddress:  rec.LocalAddress,
			LocalPort:     rec.LocalPort,
			RemoteAddress: rec.RemoteAddress,
			RemotePort:    rec.RemotePort,
			Description:   rec.Description,
		}
	}
	return doc
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
