package cmd

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"grimm.is/rime/internal/brand"
	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
)

// RunCheck validates a snapshot file: the version gate plus a summary of
// how the records use wildcards and ignore tags.
func RunCheck(snapshotPath string, verbose bool) error {
	if len(snapshotPath) == 0 {
		return fmt.Errorf("usage: %s check [-v] <snapshot-file>\nExample: %s check -v rules.csv", brand.BinaryName, brand.BinaryName)
	}

	snap, err := snapshot.ReadFile(snapshotPath)
	if err != nil {
		return fmt.Errorf("snapshot invalid: %w", err)
	}

	var excluded, withPatterns, withIgnores int
	for _, rec := range snap.Records {
		if rec.IsExcluded() {
			excluded++
			continue
		}
		if len(rec.PatternAttrs()) > 0 {
			withPatterns++
		}
		if len(rec.IgnoredAttrs()) > 0 {
			withIgnores++
		}
	}

	Printer.Printf("Snapshot valid!\n")
	Printer.Printf("Schema Version: %s\n", snap.Version)
	Printer.Printf("Records: %d\n", len(snap.Records))
	Printer.Printf("Excluded: %d\n", excluded)
	Printer.Printf("With wildcards: %d\n", withPatterns)
	Printer.Printf("With ignores: %d\n", withIgnores)
	if s := scopeString(snap.Scope); s != "" {
		Printer.Printf("Scope: %s\n", s)
	}

	if verbose {
		Printer.Println()
		printRecords(snap)
	}

	return nil
}

func printRecords(snap snapshot.Snapshot) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)

	Printer.Fprintln(w, "ID\tNAME\tENABLED\tWILDCARDS\tIGNORES")
	for _, rec := range snap.Records {
		if rec.IsExcluded() {
			Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n", rec.ID, rec.DisplayName, "-", "-", "-")
			continue
		}
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			rec.ID, rec.DisplayName, rec.Enabled,
			attrList(rec.PatternAttrs()), attrList(rec.IgnoredAttrs()))
	}
	w.Flush()
}

func attrList(attrs []rule.Attr) string {
	if len(attrs) == 0 {
		return "-"
	}
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = string(a)
	}
	return strings.Join(out, ",")
}

// scopeString renders the capture scope for display. Empty scope renders
// empty.
func scopeString(s snapshot.Scope) string {
	var parts []string
	add := func(k, v string) {
		if v != "" {
			parts = append(parts, k+"="+v)
		}
	}
	add("DisplayName", s.DisplayName)
	add("Group", s.Group)
	add("Enabled", s.Enabled)
	add("Profile", s.Profile)
	add("Direction", s.Direction)
	add("Action", s.Action)
	return strings.Join(parts, " ")
}
