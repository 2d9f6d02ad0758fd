package flow

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/conventions"
	"github.com/papapumpkin/comet/internal/semver"
)

// foldMode selects how per-commit severities turn into bumps.
type foldMode int

const (
	// foldEscalate runs the full escalating comparison against the
	// previously applied severity.
	foldEscalate foldMode = iota
	// foldPreReleaseOnly maps every classified commit to a prerelease
	// increment, never a core bump.
	foldPreReleaseOnly
	// foldLiteral applies each commit's raw severity as-is.
	foldLiteral
)

const buildSeverity = semver.Build

func buildOptions(shortID string) semver.BumpOptions {
	return semver.BumpOptions{BuildMetadata: shortID, StaticBuild: true}
}

// foldResult is the outcome of folding one project's new commits.
type foldResult struct {
	project     config.Project
	engine      *semver.Engine
	oldVersion  semver.Version
	severity    semver.Severity
	lastShortID string
}

// foldProjects folds every managed project's new commits between baseline
// and source. Projects with no remaining commits after the ignore filter,
// or whose version ends up unchanged, are dropped from the results.
func (e *Engine) foldProjects(ctx context.Context, source, baseline string, mode foldMode, label string) ([]*foldResult, error) {
	var results []*foldResult
	for _, project := range e.cfg.Projects() {
		result, err := e.foldProject(ctx, project, source, baseline, mode, label)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", project.Path, err)
		}
		if result != nil {
			results = append(results, result)
		}
	}
	return results, nil
}

// foldProject discovers and classifies one project's commits and
// accumulates them into a version. The baseline is overridden by the
// project's last recorded bump commit when that commit still resolves
// locally; this prevents re-scanning history a previous run already
// processed.
func (e *Engine) foldProject(ctx context.Context, project config.Project, source, baseline string, mode foldMode, label string) (*foldResult, error) {
	if hash := project.History.LatestBumpCommitHash; hash != "" && e.scm.HasLocalReference(ctx, hash) {
		baseline = hash
	}

	commits, err := e.scm.FindNewCommits(ctx, source, baseline, project.Path)
	if err != nil {
		return nil, err
	}
	if len(commits) == 0 {
		e.log.Debug("no new commits", "project", project.Path, "baseline", baseline)
		return nil, nil
	}

	engine, err := semver.NewEngine(project.Version)
	if err != nil {
		return nil, err
	}
	oldVersion := engine.Version()

	past := semver.NoChange
	if mode == foldEscalate {
		past, err = project.History.Severity()
		if err != nil {
			return nil, err
		}
	}

	changed := false
	var lastMatched string
	for _, commit := range commits {
		message, err := e.scm.CommitMessage(ctx, commit)
		if err != nil {
			return nil, err
		}
		if conventions.IsIgnored(message) {
			continue
		}
		next, err := conventions.BumpSeverity(message)
		if errors.Is(err, conventions.ErrNotConventional) {
			// Not an error during folding: unparseable messages carry no
			// version signal and are skipped.
			e.log.Debug("skipping non-conventional commit", "commit", commit)
			continue
		}
		if err != nil {
			return nil, err
		}
		if next == semver.NoChange {
			continue
		}

		switch mode {
		case foldPreReleaseOnly:
			if err := engine.Bump(semver.PreRelease, semver.BumpOptions{PreReleaseLabel: label}); err != nil {
				return nil, err
			}
			past = semver.PreRelease
		case foldLiteral:
			if err := engine.Bump(next, semver.BumpOptions{}); err != nil {
				return nil, err
			}
			if next > past {
				past = next
			}
		default:
			effective, err := semver.CompareBumps(past, next)
			if err != nil {
				return nil, err
			}
			if err := engine.Bump(effective, semver.BumpOptions{PreReleaseLabel: label}); err != nil {
				return nil, err
			}
			if !(effective == semver.PreRelease && past > next) {
				past = next
			}
		}
		changed = true
		lastMatched = commit
	}

	if !changed || semver.Compare(engine.Version(), oldVersion) == 0 {
		return nil, nil
	}

	shortID, err := e.scm.ShortID(ctx, lastMatched)
	if err != nil {
		return nil, err
	}
	return &foldResult{
		project:     project,
		engine:      engine,
		oldVersion:  oldVersion,
		severity:    past,
		lastShortID: shortID,
	}, nil
}

// rewriteVersionFiles substitutes the old version for the new one in every
// configured version file of the project. Edit paths are relative to the
// repository root, not the process working directory.
func (e *Engine) rewriteVersionFiles(project config.Project, from, to semver.Version) error {
	edits := project.FileEdits()
	if len(edits) == 0 {
		return nil
	}
	for i := range edits {
		edits[i].Path = filepath.Join(e.scm.Dir(), edits[i].Path)
	}
	return semver.UpdateVersionFiles(edits, from, to)
}
