package flow

import (
	"context"
	"fmt"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/conventions"
	"github.com/papapumpkin/comet/internal/semver"
)

// RunReleaseFlow promotes the active branch. With candidate set it cuts a
// release-candidate branch from the active branch; otherwise it releases
// the active branch's projects to the stable branch.
func (e *Engine) RunReleaseFlow(ctx context.Context, candidate bool) ([]string, error) {
	if err := e.checkBranches(ctx); err != nil {
		return nil, err
	}
	source, err := e.scm.ActiveBranch(ctx)
	if err != nil {
		return nil, err
	}
	if candidate {
		return e.createReleaseCandidate(ctx)
	}
	return e.releaseToStable(ctx, source)
}

// createReleaseCandidate creates the release/<finalized-version> branch,
// checks it out, and applies the first rc prerelease bump. Only
// single-project configurations can cut release branches: the branch name
// embeds one version.
func (e *Engine) createReleaseCandidate(ctx context.Context) ([]string, error) {
	projects := e.cfg.Projects()
	if len(projects) != 1 {
		return nil, fmt.Errorf("%w: %d projects configured", ErrMultiProjectRelease, len(projects))
	}
	project := projects[0]

	engine, err := semver.NewEngine(project.Version)
	if err != nil {
		return nil, err
	}
	oldVersion := engine.Version()
	finalized := engine.Finalize()

	opts := e.cfg.Branches()
	branch := opts.ReleaseBranchPrefix + "/" + finalized.String()
	if e.scm.HasLocalBranch(ctx, branch) || e.scm.HasRemoteBranch(ctx, branch) {
		return nil, fmt.Errorf("%w: %s", ErrReleaseBranchExists, branch)
	}

	e.log.Info("creating release candidate branch", "branch", branch)
	if e.opts.DryRun {
		return []string{project.Path}, nil
	}

	if err := e.scm.AddBranch(ctx, branch, true); err != nil {
		return nil, err
	}
	if err := engine.Bump(semver.PreRelease, semver.BumpOptions{PreReleaseLabel: "rc"}); err != nil {
		return nil, err
	}

	newVersion := engine.Version()
	if err := e.rewriteVersionFiles(project, oldVersion, newVersion); err != nil {
		return nil, err
	}
	if err := e.cfg.UpdateProjectVersion(project.Path, newVersion.String()); err != nil {
		return nil, err
	}
	shortID, err := e.scm.ShortID(ctx, "HEAD")
	if err != nil {
		return nil, err
	}
	if err := e.cfg.UpdateProjectHistory(project.Path, config.History{
		NextReleaseType:      semver.PreRelease.String(),
		LatestBumpCommitHash: shortID,
	}); err != nil {
		return nil, err
	}
	if err := e.cfg.Write(); err != nil {
		return nil, err
	}

	paths := []string{e.cfg.Path()}
	for _, edit := range project.FileEdits() {
		paths = append(paths, edit.Path)
	}
	if err := e.scm.CommitChanges(ctx, conventions.AutoBumpMessage, e.opts.Push, paths...); err != nil {
		return nil, err
	}
	if err := e.reconcileState(ctx, branch); err != nil {
		return nil, err
	}
	return []string{project.Path}, nil
}

// releaseToStable finalizes every project with new commits relative to
// stable, merges the source branch into stable, and tags each released
// project.
func (e *Engine) releaseToStable(ctx context.Context, source string) ([]string, error) {
	opts := e.cfg.Branches()

	type release struct {
		project config.Project
		version semver.Version
	}
	var releases []release
	paths := []string{e.cfg.Path()}

	for _, project := range e.cfg.Projects() {
		commits, err := e.scm.FindNewCommits(ctx, source, opts.StableBranch, project.Path)
		if err != nil {
			return nil, fmt.Errorf("project %s: %w", project.Path, err)
		}
		if len(commits) == 0 {
			e.log.Debug("project has no changes to release", "project", project.Path)
			continue
		}

		engine, err := semver.NewEngine(project.Version)
		if err != nil {
			return nil, err
		}
		oldVersion := engine.Version()
		finalized := engine.Finalize()
		e.log.Info("releasing project",
			"project", project.Path, "version", finalized.String(), "source", source)

		if !e.opts.DryRun {
			if semver.Compare(finalized, oldVersion) != 0 || !oldVersion.Core() {
				if err := e.rewriteVersionFiles(project, oldVersion, finalized); err != nil {
					return nil, err
				}
				if err := e.cfg.UpdateProjectVersion(project.Path, finalized.String()); err != nil {
					return nil, err
				}
			}
		}
		releases = append(releases, release{project: project, version: finalized})
		for _, edit := range project.FileEdits() {
			paths = append(paths, edit.Path)
		}
	}

	if len(releases) == 0 {
		return nil, nil
	}
	changed := make([]string, 0, len(releases))
	for _, r := range releases {
		changed = append(changed, r.project.Path)
	}
	if e.opts.DryRun {
		e.log.Info("dry run: skipping release commit, merge, and tags")
		return changed, nil
	}

	if err := e.cfg.Write(); err != nil {
		return nil, err
	}
	if err := e.scm.CommitChanges(ctx, conventions.AutoBumpMessage, false, paths...); err != nil {
		return nil, err
	}
	if err := e.scm.MergeBranches(ctx, source, opts.StableBranch); err != nil {
		return nil, err
	}
	for _, r := range releases {
		if err := e.scm.AddTag(ctx, r.project.TagName(r.version)); err != nil {
			return nil, err
		}
	}
	if err := e.reconcileState(ctx, opts.StableBranch); err != nil {
		return nil, err
	}
	if e.opts.Push {
		if err := e.scm.PushChanges(ctx, opts.StableBranch, true); err != nil {
			return nil, err
		}
	}
	return changed, nil
}
