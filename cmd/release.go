package cmd

import (
	"github.com/spf13/cobra"
)

var releaseCmd = &cobra.Command{
	Use:   "release",
	Short: "Cut a release candidate branch or promote to stable",
	Long: "Without flags, finalizes the active branch's project versions, merges the\n" +
		"branch into stable, and tags each released project. With --candidate, cuts\n" +
		"a release/<version> branch from the active branch and applies the first rc\n" +
		"prerelease bump.",
	RunE: runRelease,
}

func init() {
	releaseCmd.Flags().Bool("candidate", false, "cut a release candidate branch instead of promoting")

	rootCmd.AddCommand(releaseCmd)
}

func runRelease(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	candidate, _ := cmd.Flags().GetBool("candidate")

	changed, err := a.engine.RunReleaseFlow(ctx, candidate)
	if err != nil {
		return err
	}
	if len(changed) == 0 {
		a.printer.Info("no projects have changes to release")
		return nil
	}

	if candidate {
		branch, err := a.git.ActiveBranch(ctx)
		if err != nil {
			return err
		}
		a.printer.ReleaseBranchCreated(branch)
	}
	for _, path := range changed {
		version, err := a.cfg.ProjectVersion(path)
		if err != nil {
			return err
		}
		a.printer.Released(path, version)
	}
	if a.settings.DryRun {
		a.printer.DryRun()
	}
	return nil
}
