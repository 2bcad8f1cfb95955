// Package cmd implements the rime subcommands.
package cmd

import (
	"flag"

	"grimm.is/rime/internal/config"
	"grimm.is/rime/internal/i18n"
	"grimm.is/rime/internal/journal"
	"grimm.is/rime/internal/logging"
	"grimm.is/rime/internal/metrics"
	"grimm.is/rime/internal/reconcile"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
	"grimm.is/rime/internal/store/winfw"
)

// Printer is the global message printer for the CLI
var Printer = i18n.NewCLIPrinter()

// openStore builds the live rule store. Tests swap this out for an
// in-memory store.
var openStore = func(log *logging.Logger) store.Store {
	return winfw.New(winfw.Options{Logger: log})
}

// RunSync handles the "sync" command: one reconciliation of the host
// firewall against a snapshot file.
func RunSync(args []string) error {
	fs := flag.NewFlagSet("sync", flag.ContinueOnError)

	var (
		snapshotPath, metricsFile, configFile string
		dryRun, silent, fast, noJournal       bool
	)

	fs.StringVar(&snapshotPath, "snapshot", "", "Snapshot file (default from config)")
	fs.StringVar(&snapshotPath, "s", "", "Alias for -snapshot")

	fs.BoolVar(&dryRun, "dry-run", false, "Record every decision without writing to the firewall")
	fs.BoolVar(&dryRun, "n", false, "Alias for -dry-run")

	fs.BoolVar(&silent, "silent", false, "Only log errors")
	fs.BoolVar(&silent, "q", false, "Alias for -silent")

	fs.BoolVar(&fast, "fast", false, "Only reconcile enabled state")

	fs.StringVar(&metricsFile, "metrics-file", "", "Write Prometheus textfile metrics to this path")
	fs.BoolVar(&noJournal, "no-journal", false, "Skip the run journal")

	fs.StringVar(&configFile, "config", "", "Config file")
	fs.StringVar(&configFile, "c", "", "Alias for -config")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(configFile)
	if err != nil {
		return err
	}
	if snapshotPath == "" {
		snapshotPath = cfg.Snapshot
	}
	if metricsFile == "" {
		metricsFile = cfg.MetricsFile
	}
	if cfg.Fast {
		fast = true
	}

	log := newLogger(cfg, silent)
	logging.SetDefault(log)

	snap, err := snapshot.ReadFile(snapshotPath)
	if err != nil {
		return err
	}

	st := openStore(log.WithComponent("winfw"))
	engine := reconcile.New(st, reconcile.Options{
		DryRun: dryRun,
		Fast:   fast,
		Logger: log.WithComponent("engine"),
	})

	rep, runErr := engine.Run(snap)

	// The report is written out even when the run aborted; a fatal run
	// is exactly what the journal and the metrics are there to surface.
	// Dry runs skip the textfile so the gauges keep describing the last
	// real run.
	if metricsFile != "" && !dryRun {
		reg := metrics.NewRegistry()
		reg.Observe(rep, runErr == nil)
		if err := reg.WriteFile(metricsFile); err != nil {
			log.Warn("metrics write failed", "path", metricsFile, "error", err)
		}
	}

	if !noJournal && cfg.Journal != "" {
		if err := recordRun(cfg, snapshotPath, snap.Version.String(), rep, log); err != nil {
			log.Warn("journal write failed", "error", err)
		}
	}

	if runErr != nil {
		return runErr
	}

	if !silent {
		Printer.Printf("%s\n", rep.Summary())
		if rep.Failed > 0 {
			Printer.Printf("%d rules failed; see the log for details\n", rep.Failed)
		}
	}
	return nil
}

// loadConfig resolves the effective configuration and applies the
// locale override, if one is set, to the CLI printer.
func loadConfig(path string) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if path != "" {
		cfg, err = config.LoadFile(path)
	} else {
		cfg, err = config.LoadDefault()
	}
	if err != nil {
		return nil, err
	}
	if cfg.Language != "" {
		Printer = i18n.NewPrinter(i18n.MatchLanguage(cfg.Language))
	}
	return cfg, nil
}

// newLogger builds the run logger from config. Silent mode raises the
// threshold to error; the journal still records every decision.
func newLogger(cfg *config.Config, silent bool) *logging.Logger {
	lvl, err := logging.ParseLevel(cfg.LogLevel)
	if err != nil {
		lvl = logging.LevelInfo
	}
	if silent {
		lvl = logging.LevelError
	}
	return logging.New(logging.Config{Level: lvl, JSON: cfg.LogJSON})
}

// recordRun persists the report and applies the retention policy.
func recordRun(cfg *config.Config, snapshotPath, version string, rep *reconcile.Report, log *logging.Logger) error {
	j, err := journal.Open(cfg.Journal, cfg.JournalDays)
	if err != nil {
		return err
	}
	defer j.Close()

	id, err := j.Record(snapshotPath, version, rep)
	if err != nil {
		return err
	}
	log.Debug("run journaled", "run_id", id)

	if n, err := j.Prune(); err != nil {
		log.Warn("journal prune failed", "error", err)
	} else if n > 0 {
		log.Debug("pruned journal runs", "count", n)
	}
	return nil
}
