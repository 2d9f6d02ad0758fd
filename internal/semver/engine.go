package semver

import "fmt"

// Engine owns one project's semantic version for the duration of a flow and
// applies bump operations to it. It performs no I/O; persisting the result
// is the caller's concern.
type Engine struct {
	version Version
}

// NewEngine parses the project's current version and returns an engine
// positioned at it.
func NewEngine(current string) (*Engine, error) {
	v, err := Parse(current)
	if err != nil {
		return nil, err
	}
	return &Engine{version: v}, nil
}

// Version returns the engine's current version value.
func (e *Engine) Version() Version {
	return e.version
}

// String returns the engine's current version in canonical form.
func (e *Engine) String() string {
	return e.version.String()
}

// BumpOptions carries the optional parameters of a bump operation.
type BumpOptions struct {
	// PreReleaseLabel appends or advances a prerelease line. Required for
	// PreRelease bumps; optional for core bumps, where it appends a fresh
	// ".1" prerelease of that label after the core increment.
	PreReleaseLabel string
	// BuildMetadata is the build token for Build bumps.
	BuildMetadata string
	// StaticBuild sets the build metadata token verbatim instead of
	// maintaining a numeric counter on it.
	StaticBuild bool
}

// Bump advances the version by the given severity.
//
// Core severities increment their field, zero the lower fields, and clear
// any prerelease or build metadata. A PreRelease bump advances the counter
// of the current prerelease line, or finalizes the version and restarts the
// counter at 1 when the requested label differs from the current one. A
// Build bump maintains a numeric counter per metadata token unless a static
// token is requested.
func (e *Engine) Bump(severity Severity, opts BumpOptions) error {
	if !severity.Valid() {
		return fmt.Errorf("%w: %d", ErrInvalidSeverity, int(severity))
	}
	if opts.PreReleaseLabel != "" && !ValidPreReleaseLabel(opts.PreReleaseLabel) {
		return fmt.Errorf("%w: %q", ErrInvalidPreReleaseLabel, opts.PreReleaseLabel)
	}

	switch severity {
	case Major:
		e.version = Version{Major: e.version.Major + 1}
	case Minor:
		e.version = Version{Major: e.version.Major, Minor: e.version.Minor + 1}
	case Patch:
		e.version = Version{Major: e.version.Major, Minor: e.version.Minor, Patch: e.version.Patch + 1}
	case PreRelease:
		if opts.PreReleaseLabel == "" {
			return fmt.Errorf("%w: empty label for prerelease bump", ErrInvalidPreReleaseLabel)
		}
		e.bumpPreRelease(opts.PreReleaseLabel)
		return nil
	case Build:
		return e.bumpBuild(opts.BuildMetadata, opts.StaticBuild)
	case NoChange:
		return nil
	}

	// Core bump done; optionally open a fresh prerelease line on top of it.
	if opts.PreReleaseLabel != "" {
		e.version.Pre = &PreReleaseID{Label: opts.PreReleaseLabel, Counter: 1}
	}
	return nil
}

func (e *Engine) bumpPreRelease(label string) {
	if e.version.Pre != nil && e.version.Pre.Label == label {
		e.version.Pre = &PreReleaseID{Label: label, Counter: e.version.Pre.Counter + 1}
		e.version.Build = nil
		return
	}
	// Label switch (or no current prerelease): finalize first, then start
	// the new line's counter at 1.
	e.version = e.version.Finalize()
	e.version.Pre = &PreReleaseID{Label: label, Counter: 1}
}

func (e *Engine) bumpBuild(metadata string, static bool) error {
	if metadata == "" {
		return ErrBuildMetadataMissing
	}
	if static {
		e.version.Build = &BuildMeta{Token: metadata, Static: true}
		return nil
	}
	if e.version.Build != nil && !e.version.Build.Static && e.version.Build.Token == metadata {
		e.version.Build = &BuildMeta{Token: metadata, Counter: e.version.Build.Counter + 1}
		return nil
	}
	e.version.Build = &BuildMeta{Token: metadata, Counter: 1}
	return nil
}

// Finalize strips prerelease and build metadata from the engine's version
// and returns the result.
func (e *Engine) Finalize() Version {
	e.version = e.version.Finalize()
	return e.version
}
