package cmd

import (
	"path/filepath"
	"testing"

	"grimm.is/rime/internal/rule"
	"grimm.is/rime/internal/snapshot"
	"grimm.is/rime/internal/store"
)

func TestRunCapture_WritesSortedSnapshot(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, filepath.Join(tmpDir, "journal.db"))
	outPath := filepath.Join(tmpDir, "captured.csv")

	withMemStore(t, store.NewMemStore(
		rule.Rule{ID: "b-rule", DisplayName: "Second", Group: "Core", Enabled: "True"},
		rule.Rule{ID: "a-rule", DisplayName: "First", Group: "Core", Enabled: "True"},
		rule.Rule{ID: "c-rule", DisplayName: "Other", Group: "Extras", Enabled: "True"},
	))

	err := RunCapture([]string{"-out", outPath, "-group", "Core", "-config", configPath})
	if err != nil {
		t.Fatalf("RunCapture() error = %v, want nil", err)
	}

	snap, err := snapshot.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read captured snapshot: %v", err)
	}

	if len(snap.Records) != 2 {
		t.Fatalf("captured %d records, want 2", len(snap.Records))
	}
	if snap.Records[0].ID != "a-rule" || snap.Records[1].ID != "b-rule" {
		t.Errorf("records not sorted by ID: %s, %s", snap.Records[0].ID, snap.Records[1].ID)
	}
	if snap.Scope.Group != "Core" {
		t.Errorf("Scope.Group = %q, want %q", snap.Scope.Group, "Core")
	}
	if snap.Version != snapshot.CurrentVersion {
		t.Errorf("Version = %s, want %s", snap.Version, snapshot.CurrentVersion)
	}
}

func TestRunCapture_NormalizesEnabledFilter(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := writeTestConfig(t, tmpDir, filepath.Join(tmpDir, "journal.db"))
	outPath := filepath.Join(tmpDir, "captured.csv")

	withMemStore(t, store.NewMemStore(
		rule.Rule{ID: "on-rule", Enabled: "True"},
		rule.Rule{ID: "off-rule", Enabled: "False"},
	))

	err := RunCapture([]string{"-out", outPath, "-enabled", "true", "-config", configPath})
	if err != nil {
		t.Fatalf("RunCapture() error = %v, want nil", err)
	}

	snap, err := snapshot.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read captured snapshot: %v", err)
	}

	if len(snap.Records) != 1 || snap.Records[0].ID != "on-rule" {
		t.Fatalf("captured records = %+v, want just on-rule", snap.Records)
	}
	if snap.Scope.Enabled != "True" {
		t.Errorf("Scope.Enabled = %q, want canonical %q", snap.Scope.Enabled, "True")
	}
}
