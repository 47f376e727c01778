package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/charts"
	"github.com/KaramelBytes/couponlens/internal/study"
)

var (
	pmProject     string
	pmClear       bool
	pmChartFormat bool
)

var projectCmd = &cobra.Command{
	Use:   "project",
	Short: "Manage per-project settings",
}

var projectSetFormatCmd = &cobra.Command{
	Use:   "set-format <format>",
	Short: "Set or clear a project's report format (or chart format with --chart)",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := openProject(pmProject)
		if err != nil {
			return err
		}
		what, target := "report format", &p.Config.ReportFormat
		if pmChartFormat {
			what, target = "chart format", &p.Config.ChartFormat
		}
		if pmClear {
			*target = ""
		} else {
			if len(args) == 0 || args[0] == "" {
				return fmt.Errorf("format is required unless --clear is set")
			}
			if pmChartFormat {
				_, err = charts.New(args[0])
			} else {
				_, err = study.ParseFormat(args[0])
			}
			if err != nil {
				return err
			}
			*target = args[0]
		}
		if err := p.Save(); err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		if pmClear {
			fmt.Fprintf(out, "✓ Cleared project %s for %s\n", what, pmProject)
		} else {
			fmt.Fprintf(out, "✓ Set project %s for %s: %s\n", what, pmProject, *target)
		}
		return nil
	},
}

var projectSetDataCmd = &cobra.Command{
	Use:   "set-data <file>",
	Short: "Set the survey file a project analyzes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if pmProject == "" {
			return fmt.Errorf("--project is required")
		}
		p, err := openProject(pmProject)
		if err != nil {
			return err
		}
		if err := p.SetDataset(args[0]); err != nil {
			return err
		}
		if err := p.Save(); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Set dataset for %s: %s\n", pmProject, p.Dataset)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(projectCmd)
	projectCmd.AddCommand(projectSetFormatCmd)
	projectCmd.AddCommand(projectSetDataCmd)

	projectCmd.PersistentFlags().StringVarP(&pmProject, "project", "p", "", "project name")
	projectSetFormatCmd.Flags().BoolVar(&pmClear, "clear", false, "clear the project's override")
	projectSetFormatCmd.Flags().BoolVar(&pmChartFormat, "chart", false, "set the chart format instead of the report format")
}
