package flow

import (
	"context"
	"errors"

	"github.com/papapumpkin/comet/internal/state"
)

// RunSyncFlow merges the stable branch back into development and, when the
// side channel is enabled, reconciles development's stored state to match
// stable's if they have diverged. It returns the paths of projects whose
// stored state was reconciled.
func (e *Engine) RunSyncFlow(ctx context.Context) ([]string, error) {
	if err := e.checkBranches(ctx); err != nil {
		return nil, err
	}
	opts := e.cfg.Branches()

	e.log.Info("syncing development with stable",
		"stable", opts.StableBranch, "development", opts.DevelopmentBranch)
	if e.opts.DryRun {
		e.log.Info("dry run: skipping merge and state reconciliation")
		return nil, nil
	}

	if err := e.scm.MergeBranches(ctx, opts.StableBranch, opts.DevelopmentBranch); err != nil {
		return nil, err
	}

	var reconciled []string
	if e.state != nil {
		var err error
		reconciled, err = e.reconcileSyncState(ctx, opts.StableBranch, opts.DevelopmentBranch)
		if err != nil {
			return nil, err
		}
	}

	if e.opts.Push {
		if err := e.scm.PushChanges(ctx, opts.DevelopmentBranch, false); err != nil {
			return nil, err
		}
	}
	return reconciled, nil
}

// reconcileSyncState replaces development's snapshot with stable's when
// the two disagree. A missing stable snapshot means there is nothing to
// reconcile from.
func (e *Engine) reconcileSyncState(ctx context.Context, stable, development string) ([]string, error) {
	stableStates, err := e.state.GetState(ctx, stable)
	if errors.Is(err, state.ErrStateMissing) {
		e.log.Debug("stable branch has no recorded state, skipping reconciliation")
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	devStates, err := e.state.GetState(ctx, development)
	if err != nil && !errors.Is(err, state.ErrStateMissing) {
		return nil, err
	}
	if err == nil && state.Equal(stableStates, devStates) {
		return nil, nil
	}

	diverged := divergedPaths(stableStates, devStates)
	e.log.Info("reconciling development state from stable", "projects", diverged)
	if e.state.HasState(ctx, development) {
		err = e.state.UpdateState(ctx, development, stableStates)
	} else {
		err = e.state.CreateState(ctx, development, stableStates)
	}
	if err != nil {
		return nil, err
	}
	return diverged, nil
}

// divergedPaths lists the project paths whose entries differ between the
// two snapshots.
func divergedPaths(stable, dev []state.ProjectState) []string {
	index := make(map[string]state.ProjectState, len(dev))
	for _, ps := range dev {
		index[ps.Path] = ps
	}
	var paths []string
	for _, ps := range stable {
		if other, ok := index[ps.Path]; !ok || other != ps {
			paths = append(paths, ps.Path)
		}
	}
	return paths
}
