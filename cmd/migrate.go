package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/papapumpkin/comet/internal/state"
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Upgrade the tracked configuration to the current schema",
	Long: "Rewrites a legacy .comet.yml in the current schema. Loading already\n" +
		"migrates in memory; this command exists to persist the rewrite explicitly\n" +
		"and, with --state, to seed the git-notes state side channel from the\n" +
		"tracked configuration.",
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().Bool("seed-state", false, "seed the active branch's state snapshot from the config")

	rootCmd.AddCommand(migrateCmd)
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	// Loading performs the schema migration and rewrites the file when the
	// legacy shape was found.
	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}
	a.printer.Info(fmt.Sprintf("configuration at %s is current", a.cfg.Path()))

	if seed, _ := cmd.Flags().GetBool("seed-state"); seed {
		st := a.state
		if st == nil {
			st = state.New(a.git, a.log)
		}
		branch, err := a.git.ActiveBranch(ctx)
		if err != nil {
			return err
		}
		if st.HasState(ctx, branch) {
			a.printer.Info(fmt.Sprintf("branch %s already has recorded state", branch))
			return nil
		}
		branches := a.cfg.Branches()
		_, err = st.EnsureState(ctx, branch, branches.StableBranch, branches.DevelopmentBranch)
		if errors.Is(err, state.ErrStateMissing) {
			// No branch has recorded state yet; seed from the tracked config.
			err = st.CreateState(ctx, branch, state.Snapshot(a.cfg.Projects()))
		}
		if err != nil {
			return err
		}
		a.printer.Info(fmt.Sprintf("seeded state for branch %s", branch))
	}
	return nil
}
