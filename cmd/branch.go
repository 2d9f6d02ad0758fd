package cmd

import (
	"github.com/spf13/cobra"

	"github.com/papapumpkin/comet/internal/flow"
)

var branchCmd = &cobra.Command{
	Use:   "branch",
	Short: "Run the versioning flow for the active branch",
	Long: "Detects the active branch's role (stable, development, release candidate,\n" +
		"or default), folds its new conventional commits into version bumps per\n" +
		"managed project, and persists the results.",
	RunE: runBranch,
}

func init() {
	rootCmd.AddCommand(branchCmd)
}

func runBranch(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}

	branch, err := a.git.ActiveBranch(ctx)
	if err != nil {
		return err
	}
	a.printer.FlowStart(branch, flow.ResolveRole(branch, a.cfg.Branches()).String())

	changed, err := a.engine.RunBranchFlow(ctx)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		a.printer.NothingToBump()
		return nil
	}
	for _, path := range changed {
		version, err := a.cfg.ProjectVersion(path)
		if err != nil {
			return err
		}
		a.printer.ProjectBumped(path, version)
	}
	if a.settings.DryRun {
		a.printer.DryRun()
	}
	return nil
}
