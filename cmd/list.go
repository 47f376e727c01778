package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/project"
)

var (
	listProjects  bool
	listArtifacts bool
	listProjName  string
)

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List projects or the artifacts of a project",
	RunE: func(cmd *cobra.Command, args []string) error {
		if listProjects == listArtifacts { // either both true or both false
			return fmt.Errorf("specify exactly one of --projects or --artifacts")
		}
		out := cmd.OutOrStdout()
		if listProjects {
			root, err := defaultProjectsDir()
			if err != nil {
				return err
			}
			ps, err := project.List(root)
			if err != nil {
				return err
			}
			if len(ps) == 0 {
				fmt.Fprintln(out, "(no projects)")
				return nil
			}
			for _, p := range ps {
				fmt.Fprintf(out, "- %s (%d artifacts)\n", p.Name, len(p.Artifacts))
			}
			return nil
		}
		if listProjName == "" {
			return fmt.Errorf("--project is required when using --artifacts")
		}
		p, err := openProject(listProjName)
		if err != nil {
			return err
		}
		if p.Dataset != "" {
			fmt.Fprintf(out, "dataset: %s\n", p.Dataset)
		}
		arts := p.SortedArtifacts()
		if len(arts) == 0 {
			fmt.Fprintln(out, "(no artifacts)")
			return nil
		}
		for _, a := range arts {
			fmt.Fprintf(out, "- [%s] %s: %s (%d bytes)\n", a.Kind, a.Path, a.Description, a.Bytes)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(listCmd)
	listCmd.Flags().BoolVar(&listProjects, "projects", false, "list projects")
	listCmd.Flags().BoolVar(&listArtifacts, "artifacts", false, "list artifacts in a project")
	listCmd.Flags().StringVarP(&listProjName, "project", "p", "", "project name for --artifacts")
}
