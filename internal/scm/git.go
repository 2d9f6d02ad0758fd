// Package scm wraps the git CLI for the repository operations the branch
// flows need: commit discovery, branch and tag management, merges, pushes,
// and git notes. All operations run against a single local repository and
// block until git exits; a failure aborts the calling flow.
package scm

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"
)

// Git runs git commands against one local repository.
type Git struct {
	dir    string
	remote string // remote alias, empty when the repo has no remote
	log    *slog.Logger
}

// New verifies that git is available and dir is inside a git repository,
// then returns a Git bound to it. The first configured remote alias is
// detected once; operations that need a remote fail with ErrNoRemote when
// there is none.
func New(ctx context.Context, dir string, log *slog.Logger) (*Git, error) {
	if _, err := exec.LookPath("git"); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrGitMissing, err)
	}
	g := &Git{dir: dir, log: log}
	if _, err := g.run(ctx, "rev-parse", "--git-dir"); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrNotARepository, dir)
	}
	remotes, err := g.run(ctx, "remote")
	if err == nil && remotes != "" {
		g.remote = strings.Fields(remotes)[0]
	}
	return g, nil
}

// Dir returns the repository working directory.
func (g *Git) Dir() string {
	return g.dir
}

// HasRemote reports whether the repository has a configured remote alias.
func (g *Git) HasRemote() bool {
	return g.remote != ""
}

// run executes git with the given arguments in the repository directory and
// returns trimmed stdout.
func (g *Git) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", g.dir}, args...)...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return "", commandErr(args, stderr.String(), err)
	}
	return strings.TrimSpace(stdout.String()), nil
}

// ActiveBranch returns the checked-out branch name.
func (g *Git) ActiveBranch(ctx context.Context) (string, error) {
	return g.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
}

// HasLocalBranch reports whether the branch exists in the local repository.
func (g *Git) HasLocalBranch(ctx context.Context, branch string) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "refs/heads/"+branch)
	return err == nil
}

// HasRemoteBranch reports whether the branch exists on the configured
// remote, going by the local remote-tracking refs.
func (g *Git) HasRemoteBranch(ctx context.Context, branch string) bool {
	if g.remote == "" {
		return false
	}
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", "refs/remotes/"+g.remote+"/"+branch)
	return err == nil
}

// HasLocalReference reports whether any git reference or revision resolves
// locally. Used for recorded bump commit ids and notes refs.
func (g *Git) HasLocalReference(ctx context.Context, ref string) bool {
	_, err := g.run(ctx, "rev-parse", "--verify", "--quiet", ref+"^{}")
	return err == nil
}

// FindNewCommits returns the ids of commits reachable from source but not
// from baseline that touch the given path, oldest first. Oldest-first
// ordering is a contract of this method: severity folding is
// order-dependent, so the listing always passes --reverse to git.
func (g *Git) FindNewCommits(ctx context.Context, source, baseline, path string) ([]string, error) {
	if path == "" {
		path = "."
	}
	out, err := g.run(ctx, "rev-list", "--reverse", baseline+".."+source, "--", path)
	if err != nil {
		return nil, err
	}
	if out == "" {
		return nil, nil
	}
	commits := strings.Split(out, "\n")
	g.log.Debug("found new commits",
		"source", source, "baseline", baseline, "path", path, "count", len(commits))
	return commits, nil
}

// IsAncestor reports whether ancestor is reachable from descendant.
func (g *Git) IsAncestor(ctx context.Context, ancestor, descendant string) bool {
	_, err := g.run(ctx, "merge-base", "--is-ancestor", ancestor, descendant)
	return err == nil
}

// CommitTimestamp returns the committer timestamp of a revision as a unix
// epoch.
func (g *Git) CommitTimestamp(ctx context.Context, revision string) (int64, error) {
	out, err := g.run(ctx, "show", "-s", "--format=%ct", revision)
	if err != nil {
		return 0, err
	}
	ts, err := strconv.ParseInt(out, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parsing commit timestamp %q: %w", out, err)
	}
	return ts, nil
}

// CommitMessage returns the full commit message for a revision.
func (g *Git) CommitMessage(ctx context.Context, revision string) (string, error) {
	out, err := g.run(ctx, "show", "-s", "--format=%B", revision)
	if err != nil {
		return "", err
	}
	return out, nil
}

// ShortID returns the abbreviated 7-character commit id for a revision.
func (g *Git) ShortID(ctx context.Context, revision string) (string, error) {
	return g.run(ctx, "rev-parse", "--short=7", revision)
}

// CommitChanges stages the given paths and commits them with the message.
// If none of the paths carry changes this is a no-op. With push set, the
// active branch is pushed afterwards.
func (g *Git) CommitChanges(ctx context.Context, message string, push bool, paths ...string) error {
	if len(paths) == 0 {
		return nil
	}
	args := append([]string{"add", "--"}, paths...)
	if _, err := g.run(ctx, args...); err != nil {
		return err
	}
	if _, err := g.run(ctx, "diff", "--cached", "--quiet"); err == nil {
		g.log.Debug("no staged changes to commit", "paths", paths)
		return nil
	}
	if _, err := g.run(ctx, "commit", "-m", message); err != nil {
		return err
	}
	if push {
		branch, err := g.ActiveBranch(ctx)
		if err != nil {
			return err
		}
		return g.PushChanges(ctx, branch, false)
	}
	return nil
}

// MergeBranches merges source into destination and returns to the branch
// that was checked out before the merge.
func (g *Git) MergeBranches(ctx context.Context, source, destination string) error {
	active, err := g.ActiveBranch(ctx)
	if err != nil {
		return err
	}
	if _, err := g.run(ctx, "checkout", destination); err != nil {
		return err
	}
	if _, err := g.run(ctx, "merge", "--no-edit", source); err != nil {
		return err
	}
	if active != destination {
		if _, err := g.run(ctx, "checkout", active); err != nil {
			return err
		}
	}
	return nil
}

// AddBranch creates a branch at the current HEAD, optionally checking it
// out.
func (g *Git) AddBranch(ctx context.Context, branch string, checkout bool) error {
	if checkout {
		_, err := g.run(ctx, "checkout", "-b", branch)
		return err
	}
	_, err := g.run(ctx, "branch", branch)
	return err
}

// CheckoutBranch switches the working tree to the branch.
func (g *Git) CheckoutBranch(ctx context.Context, branch string) error {
	_, err := g.run(ctx, "checkout", branch)
	return err
}

// AddTag creates a lightweight tag if it does not already exist.
func (g *Git) AddTag(ctx context.Context, name string) error {
	existing, err := g.run(ctx, "tag", "-l", name)
	if err != nil {
		return err
	}
	if existing != "" {
		g.log.Debug("tag already exists", "tag", name)
		return nil
	}
	_, err = g.run(ctx, "tag", name)
	return err
}

// PushChanges pushes the branch to the remote, optionally with all tags.
func (g *Git) PushChanges(ctx context.Context, branch string, tags bool) error {
	if g.remote == "" {
		return ErrNoRemote
	}
	args := []string{"push", g.remote, branch}
	if tags {
		args = append(args, "--tags")
	}
	_, err := g.run(ctx, args...)
	return err
}

// PushRef pushes an arbitrary refspec, such as a notes ref, to the remote.
func (g *Git) PushRef(ctx context.Context, refspec string) error {
	if g.remote == "" {
		return ErrNoRemote
	}
	_, err := g.run(ctx, "push", g.remote, refspec)
	return err
}
