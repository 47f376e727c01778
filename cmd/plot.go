package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/charts"
	"github.com/KaramelBytes/couponlens/internal/project"
)

var (
	plotColumn  string
	plotHue     string
	plotCoupons []string
	plotWheres  []string
	plotFormat  string
	plotOutput  string
	plotProject string
)

var plotCmd = &cobra.Command{
	Use:   "plot [file]",
	Short: "Draw the value counts of one column",
	Long: `Draw the value counts of one column, optionally split by a hue column such as Y.
Numeric columns without a hue are drawn as a histogram.

Text charts without --output are printed to stdout.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(plotProject)
		if err != nil {
			return err
		}
		path, err := datasetPath(args, p)
		if err != nil {
			return err
		}
		t, _, err := loadCleanTable(path)
		if err != nil {
			return err
		}
		t, pred, err := narrow(t, plotCoupons, plotWheres)
		if err != nil {
			return err
		}
		t = t.Filter(pred.Match)

		format := pick(cmd, "format", plotFormat, projectSetting(p, func(c *project.ProjectConfig) string { return c.ChartFormat }), cfg.ChartFormat)
		r, err := charts.New(format)
		if err != nil {
			return err
		}
		out := plotOutput
		if out == "" {
			if tr, ok := r.(*charts.TextRenderer); ok && p == nil {
				tr.Out = cmd.OutOrStdout()
				return charts.Plot(tr, t, plotColumn, plotHue, "")
			}
			out = plotColumn
			if plotHue != "" {
				out += "-by-" + plotHue
			}
			out += r.Ext()
		}
		if p != nil {
			out = p.Path(out)
		}
		if err := charts.Plot(r, t, plotColumn, plotHue, out); err != nil {
			return err
		}
		if p != nil {
			if _, err := p.AddArtifact(out, project.KindChart, "Count of "+plotColumn, ""); err != nil {
				return err
			}
			if err := p.Save(); err != nil {
				return err
			}
		}
		fmt.Fprintf(cmd.OutOrStdout(), "✓ Wrote chart to %s\n", out)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(plotCmd)
	plotCmd.Flags().StringVarP(&plotColumn, "column", "c", "", "column to plot (required)")
	plotCmd.Flags().StringVar(&plotHue, "hue", "", "split bars by this column, e.g. Y")
	plotCmd.Flags().StringSliceVar(&plotCoupons, "coupon", nil, "restrict to coupon types (repeatable)")
	plotCmd.Flags().StringArrayVarP(&plotWheres, "where", "w", nil, `filter "column op value" (repeatable, joined with and)`)
	plotCmd.Flags().StringVarP(&plotFormat, "format", "f", "png", "chart format: png|text")
	plotCmd.Flags().StringVarP(&plotOutput, "output", "o", "", "chart path, relative to the project with -p (default <column>[-by-<hue>].<ext>)")
	plotCmd.Flags().StringVarP(&plotProject, "project", "p", "", "project name to store the chart in")
	_ = plotCmd.MarkFlagRequired("column")
}
