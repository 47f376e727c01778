package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/charts"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/study"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

var (
	ratesColumn  string
	ratesCoupons []string
	ratesWheres  []string
	ratesFormat  string
)

var ratesCmd = &cobra.Command{
	Use:   "rates [file]",
	Short: "Show the acceptance rate for each value of a column",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := datasetPath(args, nil)
		if err != nil {
			return err
		}
		t, _, err := loadCleanTable(path)
		if err != nil {
			return err
		}
		t, pred, err := narrow(t, ratesCoupons, ratesWheres)
		if err != nil {
			return err
		}
		g, _, err := segment.Segment(t, "selected", pred)
		if err != nil {
			return err
		}
		rates, err := segment.RatesBy(g.Table, ratesColumn)
		if err != nil {
			return err
		}
		f, err := study.ParseFormat(ratesFormat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch f {
		case study.FormatJSON:
			b, err := utils.PrettyJSON(rates)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		case study.FormatYAML:
			b, err := utils.PrettyYAML(rates)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		title := "Acceptance rate by " + ratesColumn
		if len(ratesWheres) > 0 {
			title = fmt.Sprintf("%s where %s", title, pred)
		}
		r := &charts.TextRenderer{Out: out}
		return r.RateBar("", title, ratesColumn, rates)
	},
}

func init() {
	rootCmd.AddCommand(ratesCmd)
	ratesCmd.Flags().StringVarP(&ratesColumn, "column", "c", "", "column to break down by (required)")
	ratesCmd.Flags().StringSliceVar(&ratesCoupons, "coupon", nil, "restrict to coupon types (repeatable)")
	ratesCmd.Flags().StringArrayVarP(&ratesWheres, "where", "w", nil, `filter "column op value" (repeatable, joined with and)`)
	ratesCmd.Flags().StringVarP(&ratesFormat, "format", "f", "markdown", "output format: markdown|json|yaml")
	_ = ratesCmd.MarkFlagRequired("column")
}
