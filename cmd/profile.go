package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/analysis"
	"github.com/KaramelBytes/couponlens/internal/project"
	"github.com/KaramelBytes/couponlens/internal/survey"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

var (
	profProject    string
	profOutputPath string
	profSampleRows int
	profGroupBy    []string
	profOutliers   bool
	profOutlierThr float64
	profRawOnly    bool
)

var profileCmd = &cobra.Command{
	Use:   "profile [file]",
	Short: "Profile the survey before and after cleaning",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		p, err := openProject(profProject)
		if err != nil {
			return err
		}
		path, err := datasetPath(args, p)
		if err != nil {
			return err
		}
		opt := analysis.DefaultOptions()
		opt.SampleRows = profSampleRows
		opt.GroupBy = profGroupBy
		opt.Outliers = profOutliers
		if profOutlierThr > 0 {
			opt.OutlierThreshold = profOutlierThr
		}

		raw, err := loadRawTable(path)
		if err != nil {
			return err
		}
		var b strings.Builder
		rawRep, err := analysis.Profile(raw, opt)
		if err != nil {
			return err
		}
		b.WriteString(rawRep.Markdown())

		if !profRawOnly {
			pol, err := cleanPolicy()
			if err != nil {
				return err
			}
			clean, cleanRep, err := survey.Clean(raw, pol, logger)
			if err != nil {
				return err
			}
			b.WriteString("\n")
			b.WriteString(cleanRep.Markdown())
			cleanProf, err := analysis.Profile(clean, opt)
			if err != nil {
				return err
			}
			b.WriteString("\n")
			b.WriteString(cleanProf.Markdown())
		}
		md := b.String()

		out := cmd.OutOrStdout()
		written := false
		if profOutputPath != "" {
			if err := utils.SafeWriteFile(profOutputPath, []byte(md)); err != nil {
				return fmt.Errorf("write output: %w", err)
			}
			fmt.Fprintf(out, "✓ Wrote profile to %s\n", profOutputPath)
			written = true
		}
		if p != nil {
			a, err := p.WriteArtifact("profile.md", project.KindProfile, "Dataset profile of "+raw.Name(), "", []byte(md))
			if err != nil {
				return err
			}
			if p.Dataset == "" {
				if err := p.SetDataset(path); err != nil {
					return err
				}
			}
			if err := p.Save(); err != nil {
				return err
			}
			fmt.Fprintf(out, "✓ Added profile to project '%s' as %s\n", p.Name, a.Path)
			written = true
		}
		if !written {
			fmt.Fprint(out, md)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(profileCmd)
	profileCmd.Flags().StringVarP(&profProject, "project", "p", "", "project name to attach the profile")
	profileCmd.Flags().StringVarP(&profOutputPath, "output", "o", "", "optional path to write the profile (Markdown)")
	profileCmd.Flags().IntVar(&profSampleRows, "sample-rows", 5, "number of sample rows to include")
	profileCmd.Flags().StringSliceVar(&profGroupBy, "group-by", nil, "comma-separated column names to group by (repeatable)")
	profileCmd.Flags().BoolVar(&profOutliers, "outliers", true, "compute robust outlier counts (MAD)")
	profileCmd.Flags().Float64Var(&profOutlierThr, "outlier-threshold", 3.5, "robust |z| threshold for outliers (MAD-based)")
	profileCmd.Flags().BoolVar(&profRawOnly, "raw", false, "profile the file as loaded, without cleaning")
}
