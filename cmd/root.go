package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/flow"
	"github.com/papapumpkin/comet/internal/scm"
	"github.com/papapumpkin/comet/internal/state"
	"github.com/papapumpkin/comet/internal/ui"
)

var rootCmd = &cobra.Command{
	Use:   "comet",
	Short: "Gitflow-driven semantic version automation",
	Long: "Comet classifies conventional commits per branch role and advances each\n" +
		"managed project's semantic version, keeping versions, version files, and\n" +
		"release tags consistent across the gitflow branches.",
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initSettings)

	rootCmd.PersistentFlags().String("config", "", "tracked config file (default .comet.yml)")
	rootCmd.PersistentFlags().StringP("workdir", "C", "", "repository directory to operate in")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().Bool("dry-run", false, "compute and report outcomes without writing anything")
	rootCmd.PersistentFlags().Bool("push", false, "push bump commits, merges, and tags to the remote")
	rootCmd.PersistentFlags().Bool("state", false, "record branch state snapshots in git notes")
}

func initSettings() {
	viper.SetConfigName(".comet-cli")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	home, err := os.UserHomeDir()
	if err == nil {
		viper.AddConfigPath(home)
	}

	viper.SetEnvPrefix("COMET")
	viper.AutomaticEnv()

	// It's fine if no settings file is found; we use defaults.
	_ = viper.ReadInConfig()
}

// loadSettings resolves invocation settings: defaults, then the settings
// file and environment, then CLI flags.
func loadSettings(cmd *cobra.Command) config.Settings {
	s := config.LoadSettings()
	if v, _ := cmd.Flags().GetString("config"); v != "" {
		s.ConfigPath = v
	}
	if v, _ := cmd.Flags().GetString("workdir"); v != "" {
		s.WorkDir = v
	}
	if v, _ := cmd.Flags().GetBool("verbose"); v {
		s.Verbose = true
	}
	if v, _ := cmd.Flags().GetBool("dry-run"); v {
		s.DryRun = true
	}
	if v, _ := cmd.Flags().GetBool("push"); v {
		s.Push = true
	}
	if v, _ := cmd.Flags().GetBool("state"); v {
		s.StateBackend = true
	}
	return s
}

func newLogger(verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// app bundles everything a subcommand needs for one invocation.
type app struct {
	settings config.Settings
	log      *slog.Logger
	git      *scm.Git
	cfg      *config.Store
	state    *state.Store // nil unless the side channel is enabled
	engine   *flow.Engine
	printer  *ui.Printer
}

// buildApp assembles the repository handle, configuration store, optional
// state store, and flow engine for a subcommand.
func buildApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	settings := loadSettings(cmd)
	log := newLogger(settings.Verbose)

	git, err := scm.New(ctx, settings.WorkDir, log)
	if err != nil {
		return nil, err
	}

	cfgPath := settings.ConfigPath
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(settings.WorkDir, cfgPath)
	}
	cfg, err := config.Load(cfgPath, log)
	if err != nil {
		return nil, err
	}

	a := &app{
		settings: settings,
		log:      log,
		git:      git,
		cfg:      cfg,
		printer:  ui.New(),
	}

	var st flow.StateStore
	if settings.StateBackend {
		a.state = state.New(git, log)
		st = a.state
	}
	a.engine = flow.New(git, cfg, st, log, flow.Options{
		Push:   settings.Push,
		DryRun: settings.DryRun,
	})
	return a, nil
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}
