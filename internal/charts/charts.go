// Package charts draws count, rate and histogram charts for survey tables
// and study reports.
package charts

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/KaramelBytes/couponlens/internal/analysis"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/study"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Renderer writes one chart per call to path.
type Renderer interface {
	// CountPlot draws value counts, one bar group per level and one bar per hue level.
	CountPlot(path, title string, ct *segment.CountTable) error
	// RateBar draws one acceptance-rate bar per group.
	RateBar(path, title, xlabel string, rates []segment.Rate) error
	Histogram(path, title, xlabel string, bins []analysis.Bin) error
	// Ext is the file extension of produced charts, including the dot.
	Ext() string
}

// Artifact is a chart written to disk.
type Artifact struct {
	Path  string `json:"path" yaml:"path"`
	Title string `json:"title" yaml:"title"`
}

// New returns the renderer for format: png or text.
func New(format string) (Renderer, error) {
	switch strings.ToLower(strings.TrimSpace(format)) {
	case "", "png":
		return NewPNGRenderer(), nil
	case "text", "txt":
		return &TextRenderer{}, nil
	}
	return nil, fmt.Errorf("unknown chart format %q (want png or text)", format)
}

// Plot draws the counts of column in t, split by hue when hue is not empty.
// Numeric columns without a hue are drawn as a histogram.
func Plot(r Renderer, t *survey.Table, column, hue, path string) error {
	col, _, err := t.Schema().Lookup(column)
	if err != nil {
		return err
	}
	title := "Count of " + column
	if col.Kind == survey.Numeric && hue == "" {
		bins, err := analysis.Histogram(t, column, 10)
		if err != nil {
			return err
		}
		return r.Histogram(path, "Distribution of "+column, column, bins)
	}
	ct, err := segment.Counts(t, column, hue)
	if err != nil {
		return err
	}
	if hue != "" {
		title = fmt.Sprintf("%s by %s", title, hue)
	}
	return r.CountPlot(path, title, ct)
}

// RenderReport writes the charts of a study report into dir.
func RenderReport(r Renderer, rep *study.Report, dir string) ([]Artifact, error) {
	var out []Artifact
	draw := func(name, title string, fn func(path string) error) error {
		path := filepath.Join(dir, name+r.Ext())
		if err := fn(path); err != nil {
			return fmt.Errorf("chart %s: %w", name, err)
		}
		out = append(out, Artifact{Path: path, Title: title})
		return nil
	}

	if rep.Coupons != nil {
		title := "Count of each type of coupon"
		if err := draw("coupons", title, func(p string) error { return r.CountPlot(p, title, rep.Coupons) }); err != nil {
			return nil, err
		}
	}
	if len(rep.Temperature) > 0 {
		title := "Distribution of temperatures"
		if err := draw("temperature", title, func(p string) error { return r.Histogram(p, title, "temperature", rep.Temperature) }); err != nil {
			return nil, err
		}
	}
	for _, s := range rep.Sections {
		for _, bd := range s.Breakdowns {
			bd := bd
			if len(bd.Rates) == 0 {
				continue
			}
			if bd.Counts != nil {
				if err := draw(bd.Name+"-counts", bd.Title, func(p string) error { return r.CountPlot(p, bd.Title, bd.Counts) }); err != nil {
					return nil, err
				}
			}
			if err := draw(bd.Name+"-rates", bd.Title, func(p string) error { return r.RateBar(p, bd.Title, bd.Column, bd.Rates) }); err != nil {
				return nil, err
			}
		}
	}
	return out, nil
}
