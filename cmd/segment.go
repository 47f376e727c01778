package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/study"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

var (
	segCoupons []string
	segWheres  []string
	segName    string
	segOthers  string
	segFormat  string
)

var segmentCmd = &cobra.Command{
	Use:   "segment [file]",
	Short: "Compare the acceptance rate of a segment with everyone else",
	Long: `Split the cleaned survey by the --where filters (joined with "and") and compare
the acceptance rate of matching drivers with the rest.

Filters have the form "column op value", with op one of =, !=, in, notin, <, <=, >, >=.
Examples:
  couponlens segment --coupon Bar --where "Bar notin never,less1" --where "age > 25"
  couponlens segment --coupon "Coffee House" --where "income < \$50000 - \$62499"`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if len(segWheres) == 0 {
			return errors.New("at least one --where filter is required")
		}
		path, err := datasetPath(args, nil)
		if err != nil {
			return err
		}
		t, _, err := loadCleanTable(path)
		if err != nil {
			return err
		}
		t, pred, err := narrow(t, segCoupons, segWheres)
		if err != nil {
			return err
		}
		c, err := segment.NewContrast(t, segName, segOthers, pred)
		if err != nil {
			return err
		}
		f, err := study.ParseFormat(segFormat)
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		switch f {
		case study.FormatJSON:
			b, err := utils.PrettyJSON(c)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		case study.FormatYAML:
			b, err := utils.PrettyYAML(c)
			if err != nil {
				return err
			}
			_, err = out.Write(b)
			return err
		}
		writeContrast(out, c)
		return nil
	},
}

func writeContrast(w io.Writer, c *segment.Contrast) {
	fmt.Fprintf(w, "[SEGMENT]\nwhere %s\n", c.Predicate)
	for _, r := range []segment.Rate{c.Group, c.Others} {
		fmt.Fprintf(w, "- %s: %s (n=%d, accepted %d)\n", r.Group, r, r.Size, r.Accepted)
	}
	fmt.Fprintf(w, "Comparison: %s\n", study.Verdict(c.Group, c.Others, c.Comparison))
}

func init() {
	rootCmd.AddCommand(segmentCmd)
	segmentCmd.Flags().StringSliceVar(&segCoupons, "coupon", nil, "restrict to coupon types (repeatable)")
	segmentCmd.Flags().StringArrayVarP(&segWheres, "where", "w", nil, `filter "column op value" (repeatable, joined with and)`)
	segmentCmd.Flags().StringVar(&segName, "name", "segment", "label for matching drivers")
	segmentCmd.Flags().StringVar(&segOthers, "others", "others", "label for everyone else")
	segmentCmd.Flags().StringVarP(&segFormat, "format", "f", "markdown", "output format: markdown|json|yaml")
}
