// Package flow orchestrates version progression per branch role. Exactly
// one flow runs to completion per invocation: the role is resolved once
// from the active branch name and never changes mid-run. Each flow folds a
// project's new commits, oldest first, through the commit classifier and
// the version engine, then persists the result in a single configuration
// write and one bump commit.
package flow

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/conventions"
	"github.com/papapumpkin/comet/internal/state"
)

// Sentinel errors for flow preconditions.
var (
	// ErrBranchMissing indicates a configured branch does not exist locally.
	ErrBranchMissing = errors.New("configured branch does not exist")
	// ErrMultiProjectRelease indicates a release-candidate branch was requested
	// for a multi-project configuration.
	ErrMultiProjectRelease = errors.New("release candidate branches require a single-project configuration")
	// ErrReleaseBranchExists indicates the computed release branch already exists.
	ErrReleaseBranchExists = errors.New("release branch already exists")
)

// Role is the branch role a flow invocation runs under.
type Role int

const (
	RoleDefault Role = iota
	RoleStable
	RoleDevelopment
	RoleReleaseCandidate
)

func (r Role) String() string {
	switch r {
	case RoleStable:
		return "stable"
	case RoleDevelopment:
		return "development"
	case RoleReleaseCandidate:
		return "release_candidate"
	default:
		return "default"
	}
}

// ResolveRole maps a branch name to its role. It is a pure function of the
// branch name and the configured names and release prefix.
func ResolveRole(branch string, opts config.BranchOptions) Role {
	switch {
	case branch == opts.StableBranch:
		return RoleStable
	case branch == opts.DevelopmentBranch:
		return RoleDevelopment
	case len(branch) > len(opts.ReleaseBranchPrefix)+1 &&
		branch[:len(opts.ReleaseBranchPrefix)+1] == opts.ReleaseBranchPrefix+"/":
		return RoleReleaseCandidate
	default:
		return RoleDefault
	}
}

// SCM is the repository collaborator the flows consume. Implementations
// must return commits oldest first from FindNewCommits; severity folding
// is order-dependent.
type SCM interface {
	Dir() string
	ActiveBranch(ctx context.Context) (string, error)
	HasLocalBranch(ctx context.Context, branch string) bool
	HasRemoteBranch(ctx context.Context, branch string) bool
	HasLocalReference(ctx context.Context, ref string) bool
	FindNewCommits(ctx context.Context, source, baseline, path string) ([]string, error)
	CommitMessage(ctx context.Context, revision string) (string, error)
	ShortID(ctx context.Context, revision string) (string, error)
	CommitChanges(ctx context.Context, message string, push bool, paths ...string) error
	MergeBranches(ctx context.Context, source, destination string) error
	AddBranch(ctx context.Context, branch string, checkout bool) error
	CheckoutBranch(ctx context.Context, branch string) error
	AddTag(ctx context.Context, name string) error
	PushChanges(ctx context.Context, branch string, tags bool) error
}

// ConfigStore is the configuration collaborator the flows consume.
type ConfigStore interface {
	Path() string
	Branches() config.BranchOptions
	Projects() []config.Project
	ProjectVersion(path string) (string, error)
	UpdateProjectVersion(path, version string) error
	ProjectHistory(path string) (config.History, error)
	UpdateProjectHistory(path string, history config.History) error
	Write() error
}

// StateStore is the optional side-channel collaborator.
type StateStore interface {
	HasState(ctx context.Context, branch string) bool
	GetState(ctx context.Context, branch string) ([]state.ProjectState, error)
	CreateState(ctx context.Context, branch string, states []state.ProjectState) error
	UpdateState(ctx context.Context, branch string, states []state.ProjectState) error
}

// Options carries invocation-level switches.
type Options struct {
	// Push pushes bump commits, merges, and tags to the remote.
	Push bool
	// DryRun computes and logs every outcome but applies no mutation: no
	// file rewrite, no configuration write, and no repository operation
	// that changes state.
	DryRun bool
}

// Engine runs one flow per invocation against a repository, a
// configuration store, and an optional state store.
type Engine struct {
	scm   SCM
	cfg   ConfigStore
	state StateStore // nil when the side channel is disabled
	log   *slog.Logger
	opts  Options
}

// New assembles a flow engine.
func New(scm SCM, cfg ConfigStore, st StateStore, log *slog.Logger, opts Options) *Engine {
	return &Engine{scm: scm, cfg: cfg, state: st, log: log, opts: opts}
}

// checkBranches verifies the configured stable and development branches
// exist locally. Every flow depends on at least one of them as a baseline.
func (e *Engine) checkBranches(ctx context.Context) error {
	opts := e.cfg.Branches()
	for _, branch := range []string{opts.StableBranch, opts.DevelopmentBranch} {
		if !e.scm.HasLocalBranch(ctx, branch) {
			return fmt.Errorf("%w: %s", ErrBranchMissing, branch)
		}
	}
	return nil
}

// RunBranchFlow detects the active branch's role and runs its versioning
// flow. It returns the paths of projects whose version changed.
func (e *Engine) RunBranchFlow(ctx context.Context) ([]string, error) {
	if err := e.checkBranches(ctx); err != nil {
		return nil, err
	}
	branch, err := e.scm.ActiveBranch(ctx)
	if err != nil {
		return nil, err
	}
	opts := e.cfg.Branches()
	role := ResolveRole(branch, opts)
	e.log.Info("running branch flow", "branch", branch, "role", role.String())

	switch role {
	case RoleDevelopment:
		return e.developmentFlow(ctx, branch)
	case RoleReleaseCandidate:
		return e.releaseCandidateFlow(ctx, branch)
	case RoleStable:
		return e.stableFlow(ctx, branch)
	default:
		return e.defaultFlow(ctx, branch)
	}
}

// developmentFlow bumps each project against the stable baseline with the
// escalating comparison and a dev prerelease line.
func (e *Engine) developmentFlow(ctx context.Context, branch string) ([]string, error) {
	opts := e.cfg.Branches()
	results, err := e.foldProjects(ctx, branch, opts.StableBranch, foldEscalate, "dev")
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, branch, results)
}

// releaseCandidateFlow bumps each project against the development
// baseline. Any classified commit forces a prerelease increment on the rc
// line; a release branch never takes a core bump.
func (e *Engine) releaseCandidateFlow(ctx context.Context, branch string) ([]string, error) {
	opts := e.cfg.Branches()
	results, err := e.foldProjects(ctx, branch, opts.DevelopmentBranch, foldPreReleaseOnly, "rc")
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, branch, results)
}

// stableFlow applies each commit's classified severity literally, without
// comparing against recorded history. This is intentional: the stable
// branch only receives merged, already-folded work. It is safe only under
// the discipline that every stable bump is merged back to development
// before the next stable run; without that merge-back the same commits
// bump twice.
func (e *Engine) stableFlow(ctx context.Context, branch string) ([]string, error) {
	opts := e.cfg.Branches()
	results, err := e.foldProjects(ctx, branch, opts.DevelopmentBranch, foldLiteral, "")
	if err != nil {
		return nil, err
	}
	return e.persist(ctx, branch, results)
}

// defaultFlow serves feature and bugfix branches: the core bump is
// informational only, and the emitted version carries a static build token
// equal to the short id of the latest matched commit. Nothing is
// persisted; the computed versions are logged and the affected project
// paths reported.
func (e *Engine) defaultFlow(ctx context.Context, branch string) ([]string, error) {
	opts := e.cfg.Branches()
	results, err := e.foldProjects(ctx, branch, opts.DevelopmentBranch, foldEscalate, "dev")
	if err != nil {
		return nil, err
	}

	var changed []string
	for _, r := range results {
		if err := r.engine.Bump(buildSeverity, buildOptions(r.lastShortID)); err != nil {
			return nil, err
		}
		e.log.Info("computed informational version",
			"project", r.project.Path, "version", r.engine.String(), "commit", r.lastShortID)
		changed = append(changed, r.project.Path)
	}
	return changed, nil
}

// persist applies fold results: version files, configuration, one bump
// commit, and the optional state snapshot. Partial edits before a failure
// are not rolled back.
func (e *Engine) persist(ctx context.Context, branch string, results []*foldResult) ([]string, error) {
	if len(results) == 0 {
		return nil, nil
	}

	changed := make([]string, 0, len(results))
	paths := []string{e.cfg.Path()}
	for _, r := range results {
		newVersion := r.engine.Version()
		e.log.Info("bumping project version",
			"project", r.project.Path,
			"from", r.oldVersion.String(),
			"to", newVersion.String(),
			"severity", r.severity.String())

		if !e.opts.DryRun {
			if err := e.rewriteVersionFiles(r.project, r.oldVersion, newVersion); err != nil {
				return nil, err
			}
			if err := e.cfg.UpdateProjectVersion(r.project.Path, newVersion.String()); err != nil {
				return nil, err
			}
			if err := e.cfg.UpdateProjectHistory(r.project.Path, config.History{
				NextReleaseType:      r.severity.String(),
				LatestBumpCommitHash: r.lastShortID,
			}); err != nil {
				return nil, err
			}
		}
		changed = append(changed, r.project.Path)
		for _, edit := range r.project.FileEdits() {
			paths = append(paths, edit.Path)
		}
	}

	if e.opts.DryRun {
		e.log.Info("dry run: skipping configuration write and bump commit")
		return changed, nil
	}

	if err := e.cfg.Write(); err != nil {
		return nil, err
	}
	if err := e.scm.CommitChanges(ctx, conventions.AutoBumpMessage, e.opts.Push, paths...); err != nil {
		return nil, err
	}
	if err := e.reconcileState(ctx, branch); err != nil {
		return nil, err
	}
	return changed, nil
}

// reconcileState records the configuration's current project versions in
// the branch's side-channel snapshot.
func (e *Engine) reconcileState(ctx context.Context, branch string) error {
	if e.state == nil {
		return nil
	}
	snapshot := state.Snapshot(e.cfg.Projects())
	if e.state.HasState(ctx, branch) {
		return e.state.UpdateState(ctx, branch, snapshot)
	}
	return e.state.CreateState(ctx, branch, snapshot)
}
