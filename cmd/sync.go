package cmd

import (
	"github.com/spf13/cobra"
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Merge the stable branch back into development",
	Long: "Merges stable into development so released versions flow back to the\n" +
		"development line. With --state, also reconciles development's recorded\n" +
		"branch state to match stable's when they have diverged.",
	RunE: runSync,
}

func init() {
	rootCmd.AddCommand(syncCmd)
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}

	reconciled, err := a.engine.RunSyncFlow(ctx)
	if err != nil {
		return err
	}

	if a.settings.DryRun {
		a.printer.DryRun()
		return nil
	}

	branches := a.cfg.Branches()
	a.printer.Synced(branches.StableBranch, branches.DevelopmentBranch)
	if a.settings.StateBackend {
		a.printer.Reconciled(reconciled)
		if a.settings.Push && a.git.HasRemote() {
			ref := "refs/notes/" + a.state.Ref(branches.DevelopmentBranch)
			if err := a.git.PushRef(ctx, ref); err != nil {
				return err
			}
		}
	}
	return nil
}
