package main

import (
	"flag"
	"os"

	"grimm.is/rime/cmd"
	"grimm.is/rime/internal/brand"
	"grimm.is/rime/internal/i18n"
)

var printer = i18n.NewCLIPrinter()

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "sync":
		// Delegate to cmd.RunSync for detailed flag parsing
		if err := cmd.RunSync(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "Sync failed: %v\n", err)
			os.Exit(1)
		}

	case "capture":
		if err := cmd.RunCapture(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "Capture failed: %v\n", err)
			os.Exit(1)
		}

	case "check":
		checkFlags := flag.NewFlagSet("check", flag.ExitOnError)
		verbose := checkFlags.Bool("verbose", false, "Verbose output")
		checkFlags.BoolVar(verbose, "v", false, "Verbose output (short)")
		checkFlags.Parse(os.Args[2:])

		var snapshotFile string
		if len(checkFlags.Args()) > 0 {
			snapshotFile = checkFlags.Arg(0)
		}

		if err := cmd.RunCheck(snapshotFile, *verbose); err != nil {
			printer.Fprintf(os.Stderr, "Check failed: %v\n", err)
			os.Exit(1)
		}

	case "show":
		showFlags := flag.NewFlagSet("show", flag.ExitOnError)
		format := showFlags.String("output", "", "Output format: text, json or yaml")
		showFlags.StringVar(format, "o", "", "Output format (short)")
		showFlags.Parse(os.Args[2:])

		var snapshotFile string
		if len(showFlags.Args()) > 0 {
			snapshotFile = showFlags.Arg(0)
		}

		if err := cmd.RunShow(snapshotFile, *format); err != nil {
			printer.Fprintf(os.Stderr, "Show failed: %v\n", err)
			os.Exit(1)
		}

	case "diff":
		var snapshotFile string
		if len(os.Args) > 2 {
			snapshotFile = os.Args[2]
		}
		if err := cmd.RunDiff(snapshotFile); err != nil {
			printer.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}

	case "history":
		if err := cmd.RunHistory(os.Args[2:]); err != nil {
			printer.Fprintf(os.Stderr, "History failed: %v\n", err)
			os.Exit(1)
		}

	case "version":
		printer.Printf("%s version %s\n", brand.Name, brand.Version)
		printer.Printf("Build: %s\n", brand.BuildTime)

	case "help", "-h", "--help":
		printUsage()

	default:
		printer.Printf("Unknown command: %s\n\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	printer.Printf(`%s - %s

Usage:
  %s <command> [options]

Commands:
  sync      Reconcile the host firewall against a snapshot
            Options: --snapshot (-s) <file>, --dry-run (-n), --fast,
                     --silent (-q), --metrics-file <path>, --no-journal,
                     --config (-c) <file>
  capture   Save the current firewall rules as a snapshot
            Options: --out (-o) <file>, --name, --group, --display-group,
                     --enabled, --profile, --direction, --action
  check     Validate a snapshot file
            Options: --verbose (-v)
  show      Display a snapshot
            Options: --output (-o) text|json|yaml
  diff      Show what a sync would change
  history   List recorded reconciliation runs
            Options: --limit (-n) <count>, --run (-r) <id>
  version   Print version information

Examples:
  %s capture -o rules.csv            # Snapshot the current rules
  %s sync -n -s rules.csv            # Dry run against a snapshot
  %s sync -s rules.csv               # Reconcile for real
  %s diff rules.csv                  # Pending changes
  %s history -n 10                   # Recent runs
`,
		brand.Name, brand.Description,
		brand.LowerName,
		brand.LowerName, brand.LowerName, brand.LowerName, brand.LowerName,
		brand.LowerName)
}
