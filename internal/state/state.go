// Package state persists per-branch version snapshots in git notes under
// refs/notes/<namespace>/state/<branch>. The side channel is independent
// of the tracked configuration file, which lets the flows detect when two
// branches' recorded versions have diverged.
package state

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"gopkg.in/yaml.v3"

	"github.com/papapumpkin/comet/internal/config"
)

// Namespace is the notes-ref namespace all state refs live under.
const Namespace = "comet"

// Sentinel errors for state-ref preconditions.
var (
	// ErrStateExists indicates a create for a branch that already has a snapshot.
	ErrStateExists = errors.New("version state already exists for branch")
	// ErrStateMissing indicates a read for a branch with no snapshot.
	ErrStateMissing = errors.New("no version state recorded for branch")
	// ErrBranchMissing indicates an update for a branch that does not exist.
	ErrBranchMissing = errors.New("target branch does not exist")
)

// ProjectState is one project's snapshot entry.
type ProjectState struct {
	Path    string         `yaml:"path"`
	Version string         `yaml:"version"`
	History config.History `yaml:"history"`
}

// SCM is the subset of repository operations the store needs.
type SCM interface {
	HasLocalBranch(ctx context.Context, branch string) bool
	IsAncestor(ctx context.Context, ancestor, descendant string) bool
	HasNoteRef(ctx context.Context, noteRef string) bool
	HasNote(ctx context.Context, noteRef, objectRef string) bool
	AddNote(ctx context.Context, noteRef, note, objectRef string, force bool) error
	ReadNote(ctx context.Context, noteRef, objectRef string) (string, error)
	ListNotes(ctx context.Context, noteRef string) ([]string, error)
	CommitTimestamp(ctx context.Context, revision string) (int64, error)
}

// Store reads and writes version state snapshots.
type Store struct {
	scm SCM
	log *slog.Logger
}

// New returns a store over the given repository.
func New(scm SCM, log *slog.Logger) *Store {
	return &Store{scm: scm, log: log}
}

// Ref returns the notes ref carrying a branch's snapshots.
func (s *Store) Ref(branch string) string {
	return Namespace + "/state/" + branch
}

// HasState reports whether any snapshot exists for the branch.
func (s *Store) HasState(ctx context.Context, branch string) bool {
	return s.scm.HasNoteRef(ctx, s.Ref(branch))
}

// GetState deserializes the latest persisted snapshot for the branch.
// Snapshots attach to the branch tip at write time; when the tip has moved
// on, the newest annotated commit still carries the latest snapshot.
func (s *Store) GetState(ctx context.Context, branch string) ([]ProjectState, error) {
	ref := s.Ref(branch)
	if !s.scm.HasNoteRef(ctx, ref) {
		return nil, fmt.Errorf("%w: %s", ErrStateMissing, branch)
	}

	object := branch
	if !s.scm.HasNote(ctx, ref, branch) {
		latest, err := s.latestAnnotated(ctx, ref)
		if err != nil {
			return nil, err
		}
		object = latest
	}

	note, err := s.scm.ReadNote(ctx, ref, object)
	if err != nil {
		return nil, fmt.Errorf("reading version state for %s: %w", branch, err)
	}
	var states []ProjectState
	if err := yaml.Unmarshal([]byte(note), &states); err != nil {
		return nil, fmt.Errorf("parsing version state for %s: %w", branch, err)
	}
	return states, nil
}

func (s *Store) latestAnnotated(ctx context.Context, ref string) (string, error) {
	objects, err := s.scm.ListNotes(ctx, ref)
	if err != nil {
		return "", err
	}
	if len(objects) == 0 {
		return "", ErrStateMissing
	}
	latest, latestTS := "", int64(-1)
	for _, object := range objects {
		ts, err := s.scm.CommitTimestamp(ctx, object)
		if err != nil {
			return "", err
		}
		if ts > latestTS {
			latest, latestTS = object, ts
		}
	}
	return latest, nil
}

// CreateState writes the first snapshot for a branch. It fails when a
// snapshot already exists for that branch.
func (s *Store) CreateState(ctx context.Context, branch string, states []ProjectState) error {
	if s.HasState(ctx, branch) {
		return fmt.Errorf("%w: %s", ErrStateExists, branch)
	}
	return s.write(ctx, branch, states, false)
}

// UpdateState attaches a new snapshot to the branch tip. It fails when the
// target branch does not exist.
func (s *Store) UpdateState(ctx context.Context, branch string, states []ProjectState) error {
	if !s.scm.HasLocalBranch(ctx, branch) {
		return fmt.Errorf("%w: %s", ErrBranchMissing, branch)
	}
	return s.write(ctx, branch, states, true)
}

// EnsureState seeds a branch's state when none exists. The seed source
// mirrors the branch flow's baseline selection: a branch derived from
// development seeds from development's snapshot, anything else (a hotfix
// cut from stable, for instance) seeds from stable's.
func (s *Store) EnsureState(ctx context.Context, branch, stable, development string) ([]ProjectState, error) {
	if s.HasState(ctx, branch) {
		return s.GetState(ctx, branch)
	}

	source := stable
	if s.scm.IsAncestor(ctx, development, branch) {
		source = development
	}
	states, err := s.GetState(ctx, source)
	if err != nil {
		return nil, fmt.Errorf("seeding state for %s from %s: %w", branch, source, err)
	}
	s.log.Debug("seeding branch state", "branch", branch, "source", source)
	if err := s.CreateState(ctx, branch, states); err != nil {
		return nil, err
	}
	return states, nil
}

// Equal reports whether two snapshots record the same versions and
// histories for the same project set, order-insensitively.
func Equal(a, b []ProjectState) bool {
	if len(a) != len(b) {
		return false
	}
	index := make(map[string]ProjectState, len(a))
	for _, ps := range a {
		index[ps.Path] = ps
	}
	for _, ps := range b {
		other, ok := index[ps.Path]
		if !ok || other != ps {
			return false
		}
	}
	return true
}

func (s *Store) write(ctx context.Context, branch string, states []ProjectState, force bool) error {
	data, err := yaml.Marshal(states)
	if err != nil {
		return fmt.Errorf("serializing version state: %w", err)
	}
	if err := s.scm.AddNote(ctx, s.Ref(branch), string(data), branch, force); err != nil {
		return fmt.Errorf("writing version state for %s: %w", branch, err)
	}
	s.log.Debug("version state written", "branch", branch, "projects", len(states))
	return nil
}

// Snapshot builds a snapshot from the configured projects.
func Snapshot(projects []config.Project) []ProjectState {
	states := make([]ProjectState, 0, len(projects))
	for _, p := range projects {
		states = append(states, ProjectState{Path: p.Path, Version: p.Version, History: p.History})
	}
	return states
}
