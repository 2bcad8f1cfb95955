package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"grimm.is/rime/internal/journal"
	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/store"
)

// writeTestConfig writes an HCL config pointing all state at the temp
// dir, with logging quietened for test output.
func writeTestConfig(t *testing.T, dir string, journalPath string) string {
	t.Helper()
	configPath := filepath.Join(dir, "rime.hcl")
	content := fmt.Sprintf("journal = %q\nlog_level = %q\n", journalPath, "error")
	if err := os.WriteFile(configPath, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return configPath
}

func TestRunSync_DryRunJournalsWithoutWrites(t *testing.T) {
	tmpDir := t.TempDir()
	journalPath := filepath.Join(tmpDir, "journal.db")
	metricsPath := filepath.Join(tmpDir, "rime.prom")
	configPath := writeTestConfig(t, tmpDir, journalPath)

	ms := store.NewMemStore(
		rule.Rule{ID: "r1", DisplayName: "Rule", Enabled: "True", LocalPort: "80"},
	)
	withMemStore(t, ms)

	snapshotPath := writeTestSnapshot(t,
		rule.Rule{ID: "r1", DisplayName: "Rule", Enabled: "True", LocalPort: "80, 443"},
	)

	err := RunSync([]string{
		"-n", "-q",
		"-snapshot", snapshotPath,
		"-metrics-file", metricsPath,
		"-config", configPath,
	})
	if err != nil {
		t.Fatalf("RunSync() error = %v, want nil", err)
	}

	// Dry run must not have touched the store.
	if got, _ := ms.Rule("r1"); got.LocalPort != "80" {
		t.Errorf("LocalPort = %q after dry run, want untouched %q", got.LocalPort, "80")
	}
	if len(ms.Ops()) != 0 {
		t.Errorf("store ops = %v after dry run, want none", ms.Ops())
	}

	// The textfile only describes real runs.
	if _, err := os.Stat(metricsPath); !os.IsNotExist(err) {
		t.Errorf("metrics file written on dry run (stat err %v)", err)
	}

	j, err := journal.Open(journalPath, 0)
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	defer j.Close()
	runs, err := j.Runs(0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("journal has %d runs, want 1", len(runs))
	}
	if !runs[0].DryRun {
		t.Error("journaled run not marked dry-run")
	}
	if runs[0].Updated != 1 {
		t.Errorf("journaled Updated = %d, want 1", runs[0].Updated)
	}
}

func TestRunSync_AppliesChanges(t *testing.T) {
	tmpDir := t.TempDir()
	metricsPath := filepath.Join(tmpDir, "rime.prom")
	configPath := writeTestConfig(t, tmpDir, filepath.Join(tmpDir, "journal.db"))

	ms := store.NewMemStore(
		rule.Rule{ID: "r1", DisplayName: "Rule", Enabled: "True"},
	)
	withMemStore(t, ms)

	snapshotPath := writeTestSnapshot(t,
		rule.Rule{ID: "r1", DisplayName: "Rule", Enabled: "False"},
	)

	err := RunSync([]string{"-q", "-no-journal",
		"-snapshot", snapshotPath,
		"-metrics-file", metricsPath,
		"-config", configPath,
	})
	if err != nil {
		t.Fatalf("RunSync() error = %v, want nil", err)
	}

	got, ok := ms.Rule("r1")
	if !ok {
		t.Fatal("rule r1 disappeared from the store")
	}
	if got.Enabled != rule.False {
		t.Errorf("Enabled = %q after sync, want %q", got.Enabled, rule.False)
	}
	if _, err := os.Stat(metricsPath); err != nil {
		t.Errorf("metrics file not written: %v", err)
	}
}

func TestRunSync_MissingSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, filepath.Join(tmpDir, "journal.db"))
	withMemStore(t, store.NewMemStore())

	err := RunSync([]string{"-q", "-no-journal",
		"-snapshot", filepath.Join(tmpDir, "nope.csv"),
		"-config", configPath,
	})
	if err == nil {
		t.Error("RunSync() error = nil, want open failure")
	}
}

func TestRunSync_FastMode(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, filepath.Join(tmpDir, "journal.db"))

	ms := store.NewMemStore(
		// Drifted display name that fast mode must not touch.
		rule.Rule{ID: "r1", DisplayName: "Drifted", Enabled: "True"},
	)
	withMemStore(t, ms)

	snapshotPath := writeTestSnapshot(t,
		rule.Rule{ID: "r1", DisplayName: "Rule", Enabled: "False"},
	)

	err := RunSync([]string{"-q", "-fast", "-no-journal", "-snapshot", snapshotPath, "-config", configPath})
	if err != nil {
		t.Fatalf("RunSync() error = %v, want nil", err)
	}

	got, _ := ms.Rule("r1")
	if got.Enabled != rule.False {
		t.Errorf("Enabled = %q after fast sync, want %q", got.Enabled, rule.False)
	}
	if got.DisplayName != "Drifted" {
		t.Errorf("DisplayName = %q, fast mode must only reconcile enabled state", got.DisplayName)
	}
}
