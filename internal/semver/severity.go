package semver

import "fmt"

// Severity is the ordinal classification of how significant a change is.
// The ordinal rank drives all tie-break logic: a higher severity always
// wins a comparison against a lower one.
type Severity int

const (
	NoChange Severity = iota
	Build
	PreRelease
	Patch
	Minor
	Major
)

var severityNames = map[Severity]string{
	NoChange:   "no_change",
	Build:      "build",
	PreRelease: "pre_release",
	Patch:      "patch",
	Minor:      "minor",
	Major:      "major",
}

// String returns the canonical lowercase name used in configuration history.
func (s Severity) String() string {
	if name, ok := severityNames[s]; ok {
		return name
	}
	return fmt.Sprintf("severity(%d)", int(s))
}

// Valid reports whether s is one of the supported severities.
func (s Severity) Valid() bool {
	_, ok := severityNames[s]
	return ok
}

// ParseSeverity converts a canonical severity name back to its ordinal.
// An empty string maps to NoChange so absent history fields stay harmless.
func ParseSeverity(name string) (Severity, error) {
	if name == "" {
		return NoChange, nil
	}
	for sev, n := range severityNames {
		if n == name {
			return sev, nil
		}
	}
	return NoChange, fmt.Errorf("%w: %q", ErrInvalidSeverity, name)
}

// CompareBumps resolves the effective severity for the next bump given the
// previously applied severity. A requested severity above the previous one
// escalates as-is. A requested severity at or below the previous one
// collapses into a prerelease increment, which prevents double core bumps
// for repeated equal-or-lower-severity commits; when the previous severity
// was a build bump the collapse stays at build. The generated version
// sequence therefore never regresses and never re-applies a core bump
// already captured by history.
func CompareBumps(previous, requested Severity) (Severity, error) {
	if !previous.Valid() {
		return NoChange, fmt.Errorf("%w: previous %d", ErrInvalidSeverity, int(previous))
	}
	if !requested.Valid() {
		return NoChange, fmt.Errorf("%w: requested %d", ErrInvalidSeverity, int(requested))
	}
	if requested == NoChange {
		return NoChange, ErrNoChangeRequested
	}
	if requested > previous {
		return requested, nil
	}
	if previous == Build {
		return Build, nil
	}
	return PreRelease, nil
}
