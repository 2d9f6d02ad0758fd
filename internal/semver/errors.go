package semver

import "errors"

// Sentinel errors for version parsing and bump validation.
var (
	// ErrInvalidVersion indicates a string that does not parse as a semantic version.
	ErrInvalidVersion = errors.New("invalid semantic version")
	// ErrInvalidSeverity indicates a bump severity outside the supported set.
	ErrInvalidSeverity = errors.New("invalid bump severity")
	// ErrInvalidPreReleaseLabel indicates a prerelease label outside the supported set.
	ErrInvalidPreReleaseLabel = errors.New("invalid prerelease label")
	// ErrBuildMetadataMissing indicates a build bump was requested without metadata.
	ErrBuildMetadataMissing = errors.New("build metadata required for build bump")
	// ErrNoChangeRequested indicates a bump comparison against a no-change severity.
	ErrNoChangeRequested = errors.New("no version change requested")
	// ErrVersionFileRegex indicates a version-file capture regex with more than one group.
	ErrVersionFileRegex = errors.New("version file regex must have at most one capture group")
)
