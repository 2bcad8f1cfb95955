package cmd

import (
	"flag"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"grimm.is/rime/internal/journal"
)

// RunHistory handles the "history" command: recent runs from the journal,
// or the per-rule actions of one run.
func RunHistory(args []string) error {
	fs := flag.NewFlagSet("history", flag.ContinueOnError)

	var (
		limit                          int
		runID, journalPath, configFile string
	)

	fs.IntVar(&limit, "limit", 20, "Number of runs to show")
	fs.IntVar(&limit, "n", 20, "Alias for -limit")

	fs.StringVar(&runID, "run", "", "Show the actions of one run")
	fs.StringVar(&runID, "r", "", "Alias for -run")

	fs.StringVar(&journalPath, "journal", "", "Journal database (default from config)")

	fs.StringVar(&configFile, "config", "", "Config file")
	fs.StringVar(&configFile, "c", "", "Alias for -config")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if journalPath == "" {
		journalPath = cfg.Journal
	}
	if journalPath == "" {
		return fmt.Errorf("journaling is disabled; no journal path configured")
	}

	j, err := journal.Open(journalPath, cfg.JournalDays)
	if err != nil {
		return err
	}
	defer j.Close()

	if runID != "" {
		return printRun(j, runID)
	}
	return printRuns(j, limit)
}

func printRuns(j *journal.Journal, limit int) error {
	runs, err := j.Runs(limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		Printer.Println("No runs recorded.")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "RUN\tSTARTED\tDURATION\tMODE\tRESULT")
	for _, r := range runs {
		Printer.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			r.ID,
			r.Started.Local().Format("2006-01-02 15:04:05"),
			r.Finished.Sub(r.Started).Round(time.Millisecond),
			runMode(r),
			r.Summary())
	}
	return w.Flush()
}

func printRun(j *journal.Journal, runID string) error {
	r, err := j.Get(runID)
	if err != nil {
		return err
	}

	Printer.Printf("Run: %s\n", r.ID)
	Printer.Printf("Started: %s\n", r.Started.Local().Format(time.RFC3339))
	Printer.Printf("Duration: %s\n", r.Finished.Sub(r.Started).Round(time.Millisecond))
	Printer.Printf("Snapshot: %s (schema %s)\n", r.Snapshot, r.Version)
	Printer.Printf("Mode: %s\n", runMode(r))
	Printer.Printf("Result: %s\n", r.Summary())

	actions, err := j.Actions(r.ID)
	if err != nil {
		return err
	}
	if len(actions) == 0 {
		Printer.Println("No actions recorded.")
		return nil
	}

	Printer.Println()
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 3, ' ', 0)
	Printer.Fprintln(w, "PHASE\tKIND\tRULE\tCHANGE\tNOTE")
	for _, a := range actions {
		Printer.Fprintf(w, "%d\t%s\t%s\t%s\t%s\n",
			a.Phase, a.Kind, actionRule(a), actionChange(a), actionNote(a))
	}
	return w.Flush()
}

func runMode(r journal.Run) string {
	if r.Fast {
		return "fast"
	}
	return "full"
}

func actionRule(a journal.Action) string {
	if a.DisplayName != "" {
		return a.DisplayName
	}
	return a.RuleID
}

func actionChange(a journal.Action) string {
	if a.Attr == "" {
		return "-"
	}
	if a.Before == "" && a.After == "" {
		return a.Attr
	}
	return fmt.Sprintf("%s: %q -> %q", a.Attr, a.Before, a.After)
}

func actionNote(a journal.Action) string {
	if a.Error != "" {
		return a.Error
	}
	if a.Note == "" {
		return "-"
	}
	return a.Note
}
