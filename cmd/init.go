package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/papapumpkin/comet/internal/config"
	"github.com/papapumpkin/comet/internal/semver"
	"github.com/papapumpkin/comet/internal/ui"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a tracked configuration with an interactive form",
	RunE:  runInit,
}

func init() {
	initCmd.Flags().Bool("force", false, "overwrite an existing configuration")

	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	settings := loadSettings(cmd)
	log := newLogger(settings.Verbose)
	printer := ui.New()
	printer.Banner()

	cfgPath := settings.ConfigPath
	if !filepath.IsAbs(cfgPath) {
		cfgPath = filepath.Join(settings.WorkDir, cfgPath)
	}
	if force, _ := cmd.Flags().GetBool("force"); !force {
		if _, err := os.Stat(cfgPath); err == nil {
			return fmt.Errorf("%s already exists (use --force to overwrite)", cfgPath)
		}
	}

	var (
		workspace   = ""
		repo        = ""
		stable      = "master"
		development = "develop"
		prefix      = "release"
		projectPath = "."
		seed        = config.DefaultSeedVersion
	)

	required := func(name string) func(string) error {
		return func(s string) error {
			if strings.TrimSpace(s) == "" {
				return fmt.Errorf("%s is required", name)
			}
			return nil
		}
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Workspace").
				Description("Owning workspace or organization").
				Value(&workspace).
				Validate(required("workspace")),
			huh.NewInput().
				Title("Repository").
				Description("Repository name").
				Value(&repo).
				Validate(required("repository")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Stable branch").
				Value(&stable).
				Validate(required("stable branch")),
			huh.NewInput().
				Title("Development branch").
				Value(&development).
				Validate(required("development branch")),
			huh.NewInput().
				Title("Release branch prefix").
				Value(&prefix).
				Validate(required("release branch prefix")),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Project path").
				Description("Path of the managed project relative to the repository root").
				Value(&projectPath).
				Validate(required("project path")),
			huh.NewInput().
				Title("Seed version").
				Value(&seed).
				Validate(func(s string) error {
					_, err := semver.Parse(s)
					return err
				}),
		),
	)
	if err := form.Run(); err != nil {
		return err
	}

	cfg := config.Config{
		Strategy: config.Strategy{
			DevelopmentModel: config.DevelopmentModel{
				Type: config.ModelGitflow,
				Options: config.BranchOptions{
					StableBranch:        stable,
					DevelopmentBranch:   development,
					ReleaseBranchPrefix: prefix,
				},
			},
			CommitsFormat: config.CommitsFormat{Type: config.FormatConventionalCommit},
		},
		Repo:      repo,
		Workspace: workspace,
		Projects: []config.Project{{
			Path:    projectPath,
			Version: seed,
			History: config.History{NextReleaseType: semver.NoChange.String()},
		}},
	}

	store, err := config.New(cfgPath, cfg, log)
	if err != nil {
		return err
	}
	if err := store.Write(); err != nil {
		return err
	}
	printer.Info(fmt.Sprintf("wrote %s", cfgPath))

	changelog := filepath.Join(settings.WorkDir, projectPath, "CHANGELOG.md")
	if _, err := os.Stat(changelog); os.IsNotExist(err) {
		stub := fmt.Sprintf("# Changelog\n\n## %s\n", seed)
		if err := os.WriteFile(changelog, []byte(stub), 0644); err != nil {
			return err
		}
		printer.Info(fmt.Sprintf("wrote %s", changelog))
	}
	return nil
}
