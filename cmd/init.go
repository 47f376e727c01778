package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/project"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

var (
	initDescription  string
	initDataset      string
	initReportFormat string
	initChartFormat  string
)

var initCmd = &cobra.Command{
	Use:   "init <project-name>",
	Short: "Initialize a new couponlens project",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		name := args[0]
		root, err := defaultProjectsDir()
		if err != nil {
			return err
		}
		projDir := filepath.Join(root, name)
		// Refuse to overwrite an existing project.
		if info, err := os.Stat(projDir); err == nil && info.IsDir() {
			if _, err := os.Stat(filepath.Join(projDir, project.FileName)); err == nil {
				return fmt.Errorf("project already exists at %s", projDir)
			}
			entries, err := os.ReadDir(projDir)
			if err != nil {
				return fmt.Errorf("inspect project directory: %w", err)
			}
			if len(entries) > 0 {
				return fmt.Errorf("directory %s already exists and is not empty; refusing to initialize project", projDir)
			}
		} else if err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("stat project directory: %w", err)
		}
		if err := utils.EnsureDir(projDir); err != nil {
			return err
		}
		p := project.NewProject(name, initDescription, projDir)
		if initDataset != "" {
			if err := p.SetDataset(initDataset); err != nil {
				return err
			}
		}
		p.Config.ReportFormat = initReportFormat
		p.Config.ChartFormat = initChartFormat
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Project initialized: %s\n", projDir)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().StringVarP(&initDescription, "desc", "d", "", "project description")
	initCmd.Flags().StringVar(&initDataset, "data", "", "survey file analyzed by this project")
	initCmd.Flags().StringVar(&initReportFormat, "report-format", "", "report format for this project (default from config)")
	initCmd.Flags().StringVar(&initChartFormat, "chart-format", "", "chart format for this project (default from config)")
}
