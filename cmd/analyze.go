package cmd

import (
	"fmt"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/KaramelBytes/couponlens/internal/charts"
	"github.com/KaramelBytes/couponlens/internal/project"
	"github.com/KaramelBytes/couponlens/internal/study"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

var (
	anaProject     string
	anaOutputPath  string
	anaDescription string
	anaFormat      string
	anaCharts      bool
	anaChartFormat string
	anaChartDir    string
	anaTempBins    int
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze [file]",
	Short: "Run the coupon acceptance study and write a report",
	Long: `Run the full study over the cleaned survey: overall acceptance, coupon counts,
the bar and coffee house questions, and their breakdowns.

The report goes to --output, into the project given with -p, or to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(anaProject)
		if err != nil {
			return err
		}
		path, err := datasetPath(args, p)
		if err != nil {
			return err
		}
		t, cleanRep, err := loadCleanTable(path)
		if err != nil {
			return err
		}

		opt := study.DefaultOptions()
		if anaTempBins > 0 {
			opt.TemperatureBins = anaTempBins
		}
		rep, err := study.RunWithOptions(t, opt, logger)
		if err != nil {
			return err
		}

		format, err := study.ParseFormat(pick(cmd, "format", anaFormat, projectSetting(p, func(c *project.ProjectConfig) string { return c.ReportFormat }), cfg.ReportFormat))
		if err != nil {
			return err
		}
		data, err := rep.Encode(format)
		if err != nil {
			return err
		}
		withCharts := cfg.Charts
		if cmd.Flags().Changed("charts") {
			withCharts = anaCharts
		}
		var renderer charts.Renderer
		if withCharts {
			cf := pick(cmd, "chart-format", anaChartFormat, projectSetting(p, func(c *project.ProjectConfig) string { return c.ChartFormat }), cfg.ChartFormat)
			if renderer, err = charts.New(cf); err != nil {
				return err
			}
		}

		out := cmd.OutOrStdout()
		written := false
		if anaOutputPath != "" {
			if err := utils.SafeWriteFile(anaOutputPath, data); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote report to %s\n", anaOutputPath)
			written = true
		}
		if p != nil {
			runDir := filepath.Join("runs", rep.ID)
			desc := anaDescription
			if desc == "" {
				desc = "Coupon acceptance report"
			}
			if _, err := p.WriteArtifact(filepath.Join(runDir, "report"+format.Ext()), project.KindReport, desc, rep.ID, data); err != nil {
				return err
			}
			if _, err := p.WriteArtifact(filepath.Join(runDir, "cleaning.md"), project.KindProfile, "Cleaning summary", rep.ID, []byte(cleanRep.Markdown())); err != nil {
				return err
			}
			if renderer != nil {
				arts, err := charts.RenderReport(renderer, rep, p.Path(filepath.Join(runDir, "charts")))
				if err != nil {
					return err
				}
				for _, a := range arts {
					if _, err := p.AddArtifact(a.Path, project.KindChart, a.Title, rep.ID); err != nil {
						return err
					}
				}
			}
			if p.Dataset == "" {
				if err := p.SetDataset(path); err != nil {
					return err
				}
			}
			if err := p.Save(); err != nil {
				return err
			}
			logger.Info("recorded run", zap.String("project", p.Name), zap.String("run", rep.ID))
			fmt.Fprintf(out, "✓ Added run %s to project '%s'\n", rep.ID, p.Name)
			written = true
		} else if renderer != nil {
			dir := anaChartDir
			if dir == "" {
				dir = "charts"
			}
			arts, err := charts.RenderReport(renderer, rep, dir)
			if err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Wrote %d charts to %s\n", len(arts), dir)
		}
		if !written {
			_, err = out.Write(data)
			return err
		}
		return nil
	},
}

// pick returns the flag value when the flag was set, otherwise the first
// non-empty fallback.
func pick(cmd *cobra.Command, flag, value string, fallbacks ...string) string {
	if cmd.Flags().Changed(flag) {
		return value
	}
	for _, f := range fallbacks {
		if f != "" {
			return f
		}
	}
	return value
}

func projectSetting(p *project.Project, get func(*project.ProjectConfig) string) string {
	if p == nil || p.Config == nil {
		return ""
	}
	return get(p.Config)
}

func init() {
	rootCmd.AddCommand(analyzeCmd)
	analyzeCmd.Flags().StringVarP(&anaProject, "project", "p", "", "project name to record the run in")
	analyzeCmd.Flags().StringVarP(&anaOutputPath, "output", "o", "", "optional path to write the report")
	analyzeCmd.Flags().StringVar(&anaDescription, "desc", "", "description when recording in a project")
	analyzeCmd.Flags().StringVarP(&anaFormat, "format", "f", "markdown", "report format: markdown|json|yaml")
	analyzeCmd.Flags().BoolVar(&anaCharts, "charts", false, "also draw charts (overrides config)")
	analyzeCmd.Flags().StringVar(&anaChartFormat, "chart-format", "png", "chart format: png|text")
	analyzeCmd.Flags().StringVar(&anaChartDir, "chart-dir", "charts", "chart directory when no project is given")
	analyzeCmd.Flags().IntVar(&anaTempBins, "temperature-bins", 0, "number of temperature histogram bins (default 10)")
}
