package study

import (
	"fmt"
	"io"
	"strings"

	"github.com/KaramelBytes/couponlens/internal/utils"
)

// Format selects a report encoding.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatJSON     Format = "json"
	FormatYAML     Format = "yaml"
)

// ParseFormat accepts markdown (md), json or yaml (yml).
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "markdown", "md":
		return FormatMarkdown, nil
	case "json":
		return FormatJSON, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", fmt.Errorf("unknown report format %q (want markdown, json or yaml)", s)
}

// Ext returns the file extension for f.
func (f Format) Ext() string {
	switch f {
	case FormatJSON:
		return ".json"
	case FormatYAML:
		return ".yaml"
	default:
		return ".md"
	}
}

// Encode renders the report in the given format.
func (r *Report) Encode(f Format) ([]byte, error) {
	switch f {
	case FormatJSON:
		return utils.PrettyJSON(r)
	case FormatYAML:
		return utils.PrettyYAML(r)
	default:
		return []byte(r.Markdown()), nil
	}
}

// Write encodes the report to w.
func (r *Report) Write(w io.Writer, f Format) error {
	b, err := r.Encode(f)
	if err != nil {
		return err
	}
	_, err = w.Write(b)
	return err
}

// Markdown renders the report in bracketed sections with two-decimal rates.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[OVERVIEW]\n")
	if r.Dataset != "" {
		b.WriteString(fmt.Sprintf("Dataset: %s\n", r.Dataset))
	}
	b.WriteString(fmt.Sprintf("Run: %s (%s)\n", r.ID, r.GeneratedAt.Format("2006-01-02 15:04:05")))
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Proportion accepted: %s\n", r.Overall))

	if r.Coupons != nil && len(r.Coupons.Levels) > 0 {
		b.WriteString("\n[COUPONS]\n")
		rates := map[string]string{}
		for _, rt := range r.ByCoupon {
			rates[rt.Group] = rt.String()
		}
		for i, lvl := range r.Coupons.Levels {
			b.WriteString(fmt.Sprintf("- %s: %d offered, accepted %s\n", lvl, r.Coupons.Row(i), rates[lvl]))
		}
	}
	if len(r.Temperature) > 0 {
		b.WriteString("\n[TEMPERATURE]\n")
		for _, bin := range r.Temperature {
			if bin.Count == 0 {
				continue
			}
			b.WriteString(fmt.Sprintf("- %s: %d\n", bin.Label(), bin.Count))
		}
	}
	for _, s := range r.Sections {
		b.WriteString(fmt.Sprintf("\n[%s]\n", strings.ToUpper(s.Title)))
		b.WriteString(fmt.Sprintf("Proportion accepted: %s (n=%d)\n", s.Overall, s.Overall.Size))
		for _, f := range s.Findings {
			c := f.Contrast
			b.WriteString(fmt.Sprintf("- %s\n", f.Question.Title))
			b.WriteString(fmt.Sprintf("  where %s\n", c.Predicate))
			b.WriteString(fmt.Sprintf("  %s: %s (n=%d); %s: %s (n=%d)\n", c.Group.Group, c.Group, c.Group.Size, c.Others.Group, c.Others, c.Others.Size))
			b.WriteString(fmt.Sprintf("  => %s\n", f.Verdict))
		}
		if len(s.Populations) > 0 {
			b.WriteString("\nIndependent groups:\n")
			for i, p := range s.Populations {
				b.WriteString(fmt.Sprintf("- Group %d: %s [%s]: %s (n=%d)\n", i+1, p.Title, strings.Join(p.Base, ", "), p.Rate, p.Rate.Size))
			}
			for _, p := range s.Pairs {
				b.WriteString(fmt.Sprintf("- %s vs %s: %s\n", p.A, p.B, p.Verdict))
			}
		}
		for _, bd := range s.Breakdowns {
			b.WriteString(fmt.Sprintf("\n%s:\n", bd.Title))
			for _, rt := range bd.Rates {
				b.WriteString(fmt.Sprintf("- %s: %s (n=%d)\n", rt.Group, rt, rt.Size))
			}
		}
	}
	return b.String()
}
