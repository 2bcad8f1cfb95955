package snapshot

import (
	"fmt"
	"strconv"
	"strings"
)

// MarkerPrefix identifies a Default Record. The full ID is the prefix
// followed by the schema version, e.g. "#rime/2.0".
const MarkerPrefix = "#rime/"

// CurrentVersion is the schema version written by this build.
var CurrentVersion = SchemaVersion{Major: 2, Minor: 0}

// MinimumVersion is the oldest snapshot schema this build will apply.
// Attribute semantics (ignore tag, wildcard policy) changed across major
// versions; applying an older snapshot's semantics risks corrupting live
// rules, so the gate refuses rather than guesses.
var MinimumVersion = SchemaVersion{Major: 2, Minor: 0}

// SchemaVersion represents a semantic version for snapshot schemas
type SchemaVersion struct {
	Major int
	Minor int
}

// ParseVersion parses a version string like "1.0" or "2.1"
func ParseVersion(s string) (SchemaVersion, error) {
	parts := strings.Split(s, ".")
	if len(parts) != 2 {
		return SchemaVersion{}, fmt.Errorf("invalid version format: %s (expected X.Y)", s)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("invalid major version: %s", parts[0])
	}

	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("invalid minor version: %s", parts[1])
	}

	return SchemaVersion{Major: major, Minor: minor}, nil
}

// String returns the version as "X.Y"
func (v SchemaVersion) String() string {
	return fmt.Sprintf("%d.%d", v.Major, v.Minor)
}

// Compare returns -1 if v < other, 0 if equal, 1 if v > other
func (v SchemaVersion) Compare(other SchemaVersion) int {
	if v.Major < other.Major {
		return -1
	}
	if v.Major > other.Major {
		return 1
	}
	if v.Minor < other.Minor {
		return -1
	}
	if v.Minor > other.Minor {
		return 1
	}
	return 0
}

// Marker renders the Default Record ID for this version.
func (v SchemaVersion) Marker() string {
	return MarkerPrefix + v.String()
}

// ParseMarker extracts the schema version from a Default Record ID.
func ParseMarker(id string) (SchemaVersion, error) {
	if !strings.HasPrefix(id, MarkerPrefix) {
		return SchemaVersion{}, fmt.Errorf("%w: first record ID %q lacks the %q marker", ErrNoDefaultRecord, id, MarkerPrefix)
	}
	v, err := ParseVersion(strings.TrimPrefix(id, MarkerPrefix))
	if err != nil {
		return SchemaVersion{}, fmt.Errorf("%w: %v", ErrNoDefaultRecord, err)
	}
	return v, nil
}

// CheckCompatibility is the gate run before any store access. It rejects
// versions below MinimumVersion and snapshots written by a newer major.
func CheckCompatibility(v SchemaVersion) error {
	if v.Compare(MinimumVersion) < 0 {
		return fmt.Errorf("%w: snapshot version %s is older than minimum supported %s (re-capture with this build)",
			ErrUnsupportedVersion, v, MinimumVersion)
	}
	if v.Major > CurrentVersion.Major {
		return fmt.Errorf("%w: snapshot version %s was written by a newer major release (this build understands %s)",
			ErrUnsupportedVersion, v, CurrentVersion)
	}
	return nil
}
