package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

var projectsCmd = &cobra.Command{
	Use:   "projects",
	Short: "List the managed projects and their versions",
	RunE:  runProjects,
}

func init() {
	projectsCmd.Flags().String("version", "", "print only the version of the project at this path")

	rootCmd.AddCommand(projectsCmd)
}

func runProjects(cmd *cobra.Command, args []string) error {
	ctx, cancel := commandContext()
	defer cancel()

	a, err := buildApp(ctx, cmd)
	if err != nil {
		return err
	}

	if path, _ := cmd.Flags().GetString("version"); path != "" {
		version, err := a.cfg.ProjectVersion(path)
		if err != nil {
			return err
		}
		fmt.Println(version)
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "PATH\tVERSION\tNEXT RELEASE\tLAST BUMP")
	for _, project := range a.cfg.Projects() {
		lastBump := project.History.LatestBumpCommitHash
		if lastBump == "" {
			lastBump = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n",
			project.Path, project.Version, project.History.NextReleaseType, lastBump)
	}
	return w.Flush()
}
