// Package config owns the tracked .comet.yml configuration file: the
// project list, per-project versions and bump history, and the branch
// names the flows key on. Loading always produces the canonical
// configuration shape; legacy files are migrated by one pure function
// instead of field-presence checks at call sites.
package config

import (
	"path/filepath"

	"github.com/papapumpkin/comet/internal/semver"
)

// DefaultPath is the tracked configuration file at the repository root.
const DefaultPath = ".comet.yml"

// DefaultSeedVersion is the version new projects start from.
const DefaultSeedVersion = "0.1.0-dev.1"

// Supported type values for the strategy section.
const (
	ModelGitflow             = "gitflow"
	FormatConventionalCommit = "conventional_commits"
)

// BranchOptions names the branches the gitflow model promotes between.
type BranchOptions struct {
	StableBranch        string `yaml:"stable_branch"`
	DevelopmentBranch   string `yaml:"development_branch"`
	ReleaseBranchPrefix string `yaml:"release_branch_prefix"`
}

// DevelopmentModel selects the branching model and its options.
type DevelopmentModel struct {
	Type    string        `yaml:"type"`
	Options BranchOptions `yaml:"options"`
}

// CommitsFormat selects the commit-message convention.
type CommitsFormat struct {
	Type string `yaml:"type"`
}

// Strategy groups the development model and commits format.
type Strategy struct {
	DevelopmentModel DevelopmentModel `yaml:"development_model"`
	CommitsFormat    CommitsFormat    `yaml:"commits_format"`
}

// VersionFile names one file carrying the project version, with an
// optional capture regex controlling the substitution.
type VersionFile struct {
	Path  string `yaml:"path"`
	Regex string `yaml:"regex,omitempty"`
}

// History records the last applied bump for a project: the cumulative
// severity and the commit id it was computed up to. The commit id is the
// idempotence baseline for the next run.
type History struct {
	NextReleaseType      string `yaml:"next_release_type"`
	LatestBumpCommitHash string `yaml:"latest_bump_commit_hash"`
}

// Severity parses the recorded severity name.
func (h History) Severity() (semver.Severity, error) {
	return semver.ParseSeverity(h.NextReleaseType)
}

// Project is one managed sub-project, keyed by its path relative to the
// repository root.
type Project struct {
	Path         string        `yaml:"path"`
	Version      string        `yaml:"version"`
	VersionFiles []VersionFile `yaml:"version_files"`
	History      History       `yaml:"history"`
}

// FileEdits resolves the project's version files into rewrite edits with
// paths relative to the repository root.
func (p Project) FileEdits() []semver.FileEdit {
	edits := make([]semver.FileEdit, 0, len(p.VersionFiles))
	for _, vf := range p.VersionFiles {
		edits = append(edits, semver.FileEdit{
			Path:  filepath.Join(p.Path, vf.Path),
			Regex: vf.Regex,
		})
	}
	return edits
}

// TagName returns the release tag for a version: the project basename
// prefixes the version, except for a root project which tags the bare
// version.
func (p Project) TagName(version semver.Version) string {
	base := filepath.Base(filepath.Clean(p.Path))
	if base == "." || base == "/" {
		return version.String()
	}
	return base + "-" + version.String()
}

// Config is the canonical configuration shape.
type Config struct {
	Strategy  Strategy  `yaml:"strategy"`
	Repo      string    `yaml:"repo"`
	Workspace string    `yaml:"workspace"`
	Projects  []Project `yaml:"projects"`
}

// Branches returns the configured gitflow branch options.
func (c *Config) Branches() BranchOptions {
	return c.Strategy.DevelopmentModel.Options
}
