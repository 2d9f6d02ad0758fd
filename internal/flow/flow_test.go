package flow

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/conventions"
	"github.com/papapumpkin/comet/internal/state"
)

type fakeCommit struct {
	id      string
	message string
	paths   []string
}

// fakeSCM simulates the repository collaborator. Commit ranges are keyed
// "baseline..source" and returned oldest first, the same contract the real
// wrapper provides.
type fakeSCM struct {
	dir            string
	active         string
	branches       map[string]bool
	remoteBranches map[string]bool
	refs           map[string]bool
	ranges         map[string][]fakeCommit

	committed []string
	merges    [][2]string
	tags      []string
	pushes    []string
	added     []string
}

func newFakeSCM(active string, branches ...string) *fakeSCM {
	f := &fakeSCM{
		active:         active,
		branches:       map[string]bool{},
		remoteBranches: map[string]bool{},
		refs:           map[string]bool{},
		ranges:         map[string][]fakeCommit{},
	}
	for _, b := range branches {
		f.branches[b] = true
	}
	return f
}

func (f *fakeSCM) addRange(baseline, source string, commits ...fakeCommit) {
	f.ranges[baseline+".."+source] = commits
	for _, c := range commits {
		f.refs[c.id] = true
	}
}

func (f *fakeSCM) Dir() string { return f.dir }

func (f *fakeSCM) ActiveBranch(context.Context) (string, error) { return f.active, nil }

func (f *fakeSCM) HasLocalBranch(_ context.Context, branch string) bool { return f.branches[branch] }

func (f *fakeSCM) HasRemoteBranch(_ context.Context, branch string) bool {
	return f.remoteBranches[branch]
}

func (f *fakeSCM) HasLocalReference(_ context.Context, ref string) bool { return f.refs[ref] }

func (f *fakeSCM) FindNewCommits(_ context.Context, source, baseline, path string) ([]string, error) {
	var ids []string
	for _, c := range f.ranges[baseline+".."+source] {
		if path == "." || touches(c, path) {
			ids = append(ids, c.id)
		}
	}
	return ids, nil
}

func touches(c fakeCommit, path string) bool {
	for _, p := range c.paths {
		if p == path || strings.HasPrefix(p, path+"/") {
			return true
		}
	}
	return false
}

func (f *fakeSCM) CommitMessage(_ context.Context, revision string) (string, error) {
	for _, commits := range f.ranges {
		for _, c := range commits {
			if c.id == revision {
				return c.message, nil
			}
		}
	}
	return "", fmt.Errorf("unknown revision %s", revision)
}

func (f *fakeSCM) ShortID(_ context.Context, revision string) (string, error) {
	if revision == "HEAD" {
		return "headsha", nil
	}
	if len(revision) > 7 {
		return revision[:7], nil
	}
	return revision, nil
}

func (f *fakeSCM) CommitChanges(_ context.Context, message string, push bool, paths ...string) error {
	f.committed = append(f.committed, message)
	if push {
		f.pushes = append(f.pushes, f.active)
	}
	return nil
}

func (f *fakeSCM) MergeBranches(_ context.Context, source, destination string) error {
	f.merges = append(f.merges, [2]string{source, destination})
	return nil
}

func (f *fakeSCM) AddBranch(_ context.Context, branch string, checkout bool) error {
	f.branches[branch] = true
	f.added = append(f.added, branch)
	if checkout {
		f.active = branch
	}
	return nil
}

func (f *fakeSCM) CheckoutBranch(_ context.Context, branch string) error {
	f.active = branch
	return nil
}

func (f *fakeSCM) AddTag(_ context.Context, name string) error {
	f.tags = append(f.tags, name)
	return nil
}

func (f *fakeSCM) PushChanges(_ context.Context, branch string, tags bool) error {
	f.pushes = append(f.pushes, branch)
	return nil
}

const configTemplate = `strategy:
  development_model:
    type: gitflow
    options:
      stable_branch: master
      development_branch: develop
      release_branch_prefix: release
  commits_format:
    type: conventional_commits
repo: demo
workspace: acme
projects:
%s`

func projectYAML(path, version, severity, hash string) string {
	return fmt.Sprintf(`  - path: %s
    version: %s
    version_files: []
    history:
      next_release_type: %s
      latest_bump_commit_hash: %q
`, path, version, severity, hash)
}

func testConfig(t *testing.T, projects ...string) *config.Store {
	t.Helper()
	content := fmt.Sprintf(configTemplate, strings.Join(projects, ""))
	path := filepath.Join(t.TempDir(), config.DefaultPath)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	s, err := config.Load(path, testLogger())
	require.NoError(t, err)
	return s
}

func testLogger() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func newEngine(scm SCM, cfg ConfigStore, st StateStore, opts Options) *Engine {
	return New(scm, cfg, st, testLogger(), opts)
}

func TestResolveRole(t *testing.T) {
	opts := config.BranchOptions{
		StableBranch:        "master",
		DevelopmentBranch:   "develop",
		ReleaseBranchPrefix: "release",
	}
	assert.Equal(t, RoleStable, ResolveRole("master", opts))
	assert.Equal(t, RoleDevelopment, ResolveRole("develop", opts))
	assert.Equal(t, RoleReleaseCandidate, ResolveRole("release/1.2.0", opts))
	assert.Equal(t, RoleDefault, ResolveRole("feature/login", opts))
	assert.Equal(t, RoleDefault, ResolveRole("released", opts))
}

func TestBranchFlowRequiresConfiguredBranches(t *testing.T) {
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "develop") // no master

	_, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(context.Background())
	assert.ErrorIs(t, err, ErrBranchMissing)
}

// A development flow on a project at stable 1.0.0 with exactly one new fix
// commit and no prior history yields 1.0.1-dev.1 and records the bump.
func TestDevelopmentFlowSingleFix(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop", fakeCommit{
		id: "a1b2c3d4e5f60718", message: "fix(core): repair parser", paths: []string{"main.go"},
	})

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, changed)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1-dev.1", version)

	history, err := cfg.ProjectHistory(".")
	require.NoError(t, err)
	assert.Equal(t, "patch", history.NextReleaseType)
	assert.Equal(t, "a1b2c3d", history.LatestBumpCommitHash)

	require.Len(t, scm.committed, 1)
	assert.Equal(t, conventions.AutoBumpMessage, scm.committed[0])
}

// Repeated equal-severity commits collapse into prerelease increments; a
// higher severity escalates.
func TestDevelopmentFlowEscalation(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "c1c1c1c1c1", message: "fix: one", paths: []string{"a"}},
		fakeCommit{id: "c2c2c2c2c2", message: "fix: two", paths: []string{"a"}},
		fakeCommit{id: "c3c3c3c3c3", message: "feat: three", paths: []string{"a"}},
	)

	_, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	// fix -> 1.0.1-dev.1, fix -> 1.0.1-dev.2, feat escalates -> 1.1.0-dev.1
	assert.Equal(t, "1.1.0-dev.1", version)

	history, err := cfg.ProjectHistory(".")
	require.NoError(t, err)
	assert.Equal(t, "minor", history.NextReleaseType)
}

// The recorded bump commit overrides the baseline, so already-processed
// history is never re-scanned.
func TestDevelopmentFlowIdempotence(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.1-dev.1", "patch", "a1b2c3d"))
	scm := newFakeSCM("develop", "master", "develop")
	scm.refs["a1b2c3d"] = true
	// The stale stable range still lists the processed commit; the
	// overridden range is empty.
	scm.addRange("master", "develop", fakeCommit{
		id: "a1b2c3d4e5f60718", message: "fix(core): repair parser", paths: []string{"main.go"},
	})
	scm.addRange("a1b2c3d", "develop")

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Empty(t, scm.committed)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	assert.Equal(t, "1.0.1-dev.1", version)
}

// With only ignored and no-change commits, the flow is a no-op per project.
func TestDevelopmentFlowSkipsIgnoredAndNoChange(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "d1d1d1d1d1", message: "Merge branch 'x' into develop", paths: []string{"a"}},
		fakeCommit{id: "d2d2d2d2d2", message: "docs: readme", paths: []string{"a"}},
		fakeCommit{id: "d3d3d3d3d3", message: "completely unconventional", paths: []string{"a"}},
	)

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Empty(t, changed)
	assert.Empty(t, scm.committed)
}

// Multi-project folds only see commits touching their own path.
func TestDevelopmentFlowPerProjectScoping(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t,
		projectYAML("svc-a", "1.0.0", "no_change", ""),
		projectYAML("svc-b", "2.0.0", "no_change", ""),
	)
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "e1e1e1e1e1", message: "feat(a): new", paths: []string{"svc-a/main.go"}},
	)

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"svc-a"}, changed)

	versionB, err := cfg.ProjectVersion("svc-b")
	require.NoError(t, err)
	assert.Equal(t, "2.0.0", versionB)
}

// On a release branch every classified commit is a prerelease increment,
// never a core bump.
func TestReleaseCandidateFlow(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.1.0-dev.5", "minor", ""))
	scm := newFakeSCM("release/1.1.0", "master", "develop", "release/1.1.0")
	scm.addRange("develop", "release/1.1.0",
		fakeCommit{id: "f1f1f1f1f1", message: "fix: stabilize", paths: []string{"a"}},
		fakeCommit{id: "f2f2f2f2f2", message: "feat!: would be major elsewhere", paths: []string{"a"}},
	)

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, changed)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	// Label switch finalizes 1.1.0-dev.5 to 1.1.0, then rc.1, then rc.2.
	assert.Equal(t, "1.1.0-rc.2", version)

	history, err := cfg.ProjectHistory(".")
	require.NoError(t, err)
	assert.Equal(t, "pre_release", history.NextReleaseType)
}

// The stable flow applies raw severities without history comparison; two
// patch commits bump the patch level twice. Safe only under the merge-back
// discipline the flow documents.
func TestStableFlowAppliesLiteralSeverity(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("master", "master", "develop")
	scm.addRange("develop", "master",
		fakeCommit{id: "a1a1a1a1a1", message: "fix: one", paths: []string{"a"}},
		fakeCommit{id: "a2a2a2a2a2", message: "fix: two", paths: []string{"a"}},
	)

	_, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	assert.Equal(t, "1.0.2", version)
}

// Feature branches compute an informational version with a static build
// token and persist nothing.
func TestDefaultFlowIsInformational(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("feature/login", "master", "develop")
	scm.addRange("develop", "feature/login",
		fakeCommit{id: "b1b1b1b1b1b1", message: "feat: login form", paths: []string{"a"}},
	)

	changed, err := newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, changed)

	// The tracked version is untouched and no bump commit was made.
	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
	assert.Empty(t, scm.committed)
}

func TestDryRunPersistsNothing(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "c9c9c9c9c9", message: "feat: thing", paths: []string{"a"}},
	)

	changed, err := newEngine(scm, cfg, nil, Options{DryRun: true}).RunBranchFlow(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"."}, changed)

	version, err := cfg.ProjectVersion(".")
	require.NoError(t, err)
	assert.Equal(t, "1.0.0", version)
	assert.Empty(t, scm.committed)
}

// A development flow rewrites configured version files in place.
func TestDevelopmentFlowRewritesVersionFiles(t *testing.T) {
	ctx := context.Background()
	t.Chdir(t.TempDir())
	require.NoError(t, os.WriteFile("VERSION", []byte("Version: 1.0.0\n"), 0644))

	content := fmt.Sprintf(configTemplate, `  - path: .
    version: 1.0.0
    version_files:
      - path: VERSION
        regex: "(Version: ).*"
    history:
      next_release_type: no_change
      latest_bump_commit_hash: ""
`)
	require.NoError(t, os.WriteFile(config.DefaultPath, []byte(content), 0644))
	cfg, err := config.Load(config.DefaultPath, testLogger())
	require.NoError(t, err)

	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "e7e7e7e7e7", message: "fix: adjust", paths: []string{"main.go"}},
	)

	_, err = newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile("VERSION")
	require.NoError(t, err)
	assert.Equal(t, "Version: 1.0.1-dev.1\n", string(data))
}

// Version files resolve against the repository directory, not the process
// working directory.
func TestDevelopmentFlowRewritesVersionFilesInRepoDir(t *testing.T) {
	ctx := context.Background()
	repoDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(repoDir, "VERSION"), []byte("Version: 1.0.0\n"), 0644))

	content := fmt.Sprintf(configTemplate, `  - path: .
    version: 1.0.0
    version_files:
      - path: VERSION
        regex: "(Version: ).*"
    history:
      next_release_type: no_change
      latest_bump_commit_hash: ""
`)
	cfgPath := filepath.Join(repoDir, config.DefaultPath)
	require.NoError(t, os.WriteFile(cfgPath, []byte(content), 0644))
	cfg, err := config.Load(cfgPath, testLogger())
	require.NoError(t, err)

	scm := newFakeSCM("develop", "master", "develop")
	scm.dir = repoDir
	scm.addRange("master", "develop",
		fakeCommit{id: "f8f8f8f8f8", message: "fix: adjust", paths: []string{"main.go"}},
	)

	_, err = newEngine(scm, cfg, nil, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(repoDir, "VERSION"))
	require.NoError(t, err)
	assert.Equal(t, "Version: 1.0.1-dev.1\n", string(data))
}

func TestBranchFlowReconcilesState(t *testing.T) {
	ctx := context.Background()
	cfg := testConfig(t, projectYAML(".", "1.0.0", "no_change", ""))
	scm := newFakeSCM("develop", "master", "develop")
	scm.addRange("master", "develop",
		fakeCommit{id: "d4d4d4d4d4", message: "fix: x", paths: []string{"a"}},
	)
	st := &fakeStateStore{}

	_, err := newEngine(scm, cfg, st, Options{}).RunBranchFlow(ctx)
	require.NoError(t, err)

	require.Contains(t, st.states, "develop")
	require.Len(t, st.states["develop"], 1)
	assert.Equal(t, "1.0.1-dev.1", st.states["develop"][0].Version)
}

// fakeStateStore is an in-memory StateStore.
type fakeStateStore struct {
	states map[string][]state.ProjectState
}

func (f *fakeStateStore) ensure() {
	if f.states == nil {
		f.states = map[string][]state.ProjectState{}
	}
}

func (f *fakeStateStore) HasState(_ context.Context, branch string) bool {
	_, ok := f.states[branch]
	return ok
}

func (f *fakeStateStore) GetState(_ context.Context, branch string) ([]state.ProjectState, error) {
	states, ok := f.states[branch]
	if !ok {
		return nil, state.ErrStateMissing
	}
	return states, nil
}

func (f *fakeStateStore) CreateState(_ context.Context, branch string, states []state.ProjectState) error {
	f.ensure()
	if _, ok := f.states[branch]; ok {
		return state.ErrStateExists
	}
	f.states[branch] = states
	return nil
}

func (f *fakeStateStore) UpdateState(_ context.Context, branch string, states []state.ProjectState) error {
	f.ensure()
	f.states[branch] = states
	return nil
}
