package semver

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// PreReleaseLabels is the closed set of supported prerelease lines, in
// ascending stability order.
var PreReleaseLabels = []string{"dev", "alpha", "beta", "rc"}

// ValidPreReleaseLabel reports whether label is one of the supported
// prerelease lines.
func ValidPreReleaseLabel(label string) bool {
	for _, l := range PreReleaseLabels {
		if l == label {
			return true
		}
	}
	return false
}

// PreRelease identifies a pre-stable version line: a label with its own
// monotonic counter, rendered as "-label.counter".
type PreReleaseID struct {
	Label   string
	Counter uint64
}

// BuildMeta is optional build metadata, rendered as "+token.counter" or,
// when static, as the verbatim "+token".
type BuildMeta struct {
	Token   string
	Counter uint64
	Static  bool
}

// Version is a semantic version with optional prerelease and build
// metadata components.
type Version struct {
	Major uint64
	Minor uint64
	Patch uint64
	Pre   *PreReleaseID
	Build *BuildMeta
}

// Pattern matches a semantic version inside surrounding text: no anchors
// and no capture groups, so it can be embedded in larger expressions.
const Pattern = `\d+\.\d+\.\d+` +
	`(?:-[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?` +
	`(?:\+[0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*)?`

var versionRe = regexp.MustCompile(
	`^(0|[1-9]\d*)\.(0|[1-9]\d*)\.(0|[1-9]\d*)` +
		`(?:-([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?` +
		`(?:\+([0-9A-Za-z-]+(?:\.[0-9A-Za-z-]+)*))?$`)

// Parse converts a version string into a Version. Prerelease components are
// expected in the "label.counter" form this tool emits; build metadata may
// be either "token.counter" or a static token.
func Parse(s string) (Version, error) {
	m := versionRe.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidVersion, s)
	}
	var v Version
	v.Major, _ = strconv.ParseUint(m[1], 10, 64)
	v.Minor, _ = strconv.ParseUint(m[2], 10, 64)
	v.Patch, _ = strconv.ParseUint(m[3], 10, 64)
	if m[4] != "" {
		pre, err := parsePreRelease(m[4])
		if err != nil {
			return Version{}, fmt.Errorf("%w: %q: %v", ErrInvalidVersion, s, err)
		}
		v.Pre = pre
	}
	if m[5] != "" {
		v.Build = parseBuild(m[5])
	}
	return v, nil
}

// MustParse is Parse for known-good literals, mainly in tests and defaults.
func MustParse(s string) Version {
	v, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return v
}

func parsePreRelease(s string) (*PreReleaseID, error) {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return &PreReleaseID{Label: s, Counter: 0}, nil
	}
	counter, err := strconv.ParseUint(s[idx+1:], 10, 64)
	if err != nil {
		return &PreReleaseID{Label: s, Counter: 0}, nil
	}
	return &PreReleaseID{Label: s[:idx], Counter: counter}, nil
}

func parseBuild(s string) *BuildMeta {
	idx := strings.LastIndex(s, ".")
	if idx < 0 {
		return &BuildMeta{Token: s, Static: true}
	}
	counter, err := strconv.ParseUint(s[idx+1:], 10, 64)
	if err != nil {
		return &BuildMeta{Token: s, Static: true}
	}
	return &BuildMeta{Token: s[:idx], Counter: counter}
}

// String renders the version in canonical form.
func (v Version) String() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d.%d.%d", v.Major, v.Minor, v.Patch)
	if v.Pre != nil {
		fmt.Fprintf(&b, "-%s.%d", v.Pre.Label, v.Pre.Counter)
	}
	if v.Build != nil {
		if v.Build.Static {
			fmt.Fprintf(&b, "+%s", v.Build.Token)
		} else {
			fmt.Fprintf(&b, "+%s.%d", v.Build.Token, v.Build.Counter)
		}
	}
	return b.String()
}

// Finalize strips prerelease and build metadata, yielding the stable core
// version.
func (v Version) Finalize() Version {
	return Version{Major: v.Major, Minor: v.Minor, Patch: v.Patch}
}

// Core reports whether the version has no prerelease or build component.
func (v Version) Core() bool {
	return v.Pre == nil && v.Build == nil
}

// Compare orders two versions by semantic-version precedence. It returns
// -1, 0, or 1. Build metadata is ignored for precedence, per the
// semantic-versioning rules.
func Compare(a, b Version) int {
	if c := compareUint(a.Major, b.Major); c != 0 {
		return c
	}
	if c := compareUint(a.Minor, b.Minor); c != 0 {
		return c
	}
	if c := compareUint(a.Patch, b.Patch); c != 0 {
		return c
	}
	switch {
	case a.Pre == nil && b.Pre == nil:
		return 0
	case a.Pre == nil:
		return 1
	case b.Pre == nil:
		return -1
	}
	if c := strings.Compare(a.Pre.Label, b.Pre.Label); c != 0 {
		return c
	}
	return compareUint(a.Pre.Counter, b.Pre.Counter)
}

func compareUint(a, b uint64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	default:
		return 0
	}
}
