package snapshot

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"grimm.is/rime/internal/rule"
)

// header returns the column names in model order.
func header() []string {
	attrs := rule.Fields()
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = string(a)
	}
	return out
}

// Read parses a snapshot from CSV and runs the compatibility gate. The
// returned snapshot is safe to reconcile: it has a well-formed Default
// Record with a supported version, and every field is resolved.
func Read(r io.Reader) (Snapshot, error) {
	cr := csv.NewReader(r)
	rows, err := cr.ReadAll()
	if err != nil {
		return Snapshot{}, fmt.Errorf("reading snapshot: %w", err)
	}
	if len(rows) == 0 {
		return Snapshot{}, ErrEmpty
	}

	want := header()
	got := rows[0]
	if len(got) != len(want) {
		return Snapshot{}, fmt.Errorf("%w: %d columns, want %d", ErrBadHeader, len(got), len(want))
	}
	for i := range want {
		if got[i] != want[i] {
			return Snapshot{}, fmt.Errorf("%w: column %d is %q, want %q", ErrBadHeader, i, got[i], want[i])
		}
	}

	if len(rows) < 2 {
		return Snapshot{}, fmt.Errorf("%w: no rows after the header", ErrNoDefaultRecord)
	}

	def := fromRow(rows[1])
	version, err := ParseMarker(def.ID)
	if err != nil {
		return Snapshot{}, err
	}
	if err := CheckCompatibility(version); err != nil {
		return Snapshot{}, err
	}

	s := Snapshot{Version: version, Scope: scopeFrom(def)}
	for _, row := range rows[2:] {
		// NewRecord canonicalizes boolean and list spellings; ignore
		// tags and patterns pass through untouched.
		s.Records = append(s.Records, NewRecord(fromRow(row)))
	}
	return s, nil
}

// Write renders a snapshot as CSV: header, Default Record, then records
// in collection order.
func Write(w io.Writer, s Snapshot) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header()); err != nil {
		return fmt.Errorf("writing snapshot header: %w", err)
	}
	if err := cw.Write(toRow(s.defaultRecord())); err != nil {
		return fmt.Errorf("writing default record: %w", err)
	}
	for _, rec := range s.Records {
		if err := cw.Write(toRow(rec.Rule)); err != nil {
			return fmt.Errorf("writing record %s: %w", rec.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadFile loads and gates a snapshot file.
func ReadFile(path string) (Snapshot, error) {
	f, err := os.Open(path)
	if err != nil {
		return Snapshot{}, fmt.Errorf("opening snapshot: %w", err)
	}
	defer f.Close()
	return Read(f)
}

// WriteFile saves a snapshot, creating parent directories as needed.
func WriteFile(path string, s Snapshot) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating snapshot directory: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating snapshot: %w", err)
	}
	if err := Write(f, s); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func fromRow(row []string) rule.Rule {
	var r rule.Rule
	for i, a := range rule.Fields() {
		if i < len(row) {
			r.Set(a, row[i])
		}
	}
	return r
}

func toRow(r rule.Rule) []string {
	attrs := rule.Fields()
	out := make([]string, len(attrs))
	for i, a := range attrs {
		out[i] = r.Get(a)
	}
	return out
}
