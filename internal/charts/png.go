package charts

import (
	"errors"
	"fmt"
	"path/filepath"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"

	"github.com/KaramelBytes/couponlens/internal/analysis"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/utils"
)

// PNGRenderer draws charts with gonum/plot. The file format follows the
// extension of the path passed to each call.
type PNGRenderer struct {
	Width  vg.Length
	Height vg.Length
}

// NewPNGRenderer returns a renderer producing 8x5 inch images.
func NewPNGRenderer() *PNGRenderer {
	return &PNGRenderer{Width: 8 * vg.Inch, Height: 5 * vg.Inch}
}

func (r *PNGRenderer) Ext() string { return ".png" }

func (r *PNGRenderer) CountPlot(path, title string, ct *segment.CountTable) error {
	if ct == nil || len(ct.Levels) == 0 {
		return errors.New("nothing to plot")
	}
	p := newPlot(title, ct.Column, "count")
	groups := len(ct.HueLevels)
	if groups == 0 {
		groups = 1
	}
	width := barWidth(groups)
	for j := 0; j < groups; j++ {
		vals := make(plotter.Values, len(ct.Levels))
		for i := range ct.Levels {
			vals[i] = float64(ct.Counts[i][j])
		}
		bars, err := plotter.NewBarChart(vals, width)
		if err != nil {
			return fmt.Errorf("bar chart: %w", err)
		}
		bars.LineStyle.Width = vg.Length(0)
		bars.Color = plotutil.Color(j)
		bars.Offset = vg.Length(float64(j)-float64(groups-1)/2) * width
		p.Add(bars)
		if len(ct.HueLevels) > 0 {
			p.Legend.Add(fmt.Sprintf("%s=%s", ct.Hue, ct.HueLevels[j]), bars)
		}
	}
	p.Legend.Top = true
	p.NominalX(ct.Levels...)
	return r.save(p, path)
}

func (r *PNGRenderer) RateBar(path, title, xlabel string, rates []segment.Rate) error {
	if len(rates) == 0 {
		return errors.New("nothing to plot")
	}
	p := newPlot(title, xlabel, "acceptance rate")
	vals := make(plotter.Values, len(rates))
	names := make([]string, len(rates))
	for i, rt := range rates {
		names[i] = rt.Group
		if rt.Defined {
			vals[i] = rt.Value
		}
	}
	bars, err := plotter.NewBarChart(vals, barWidth(1))
	if err != nil {
		return fmt.Errorf("bar chart: %w", err)
	}
	bars.LineStyle.Width = vg.Length(0)
	bars.Color = plotutil.Color(0)
	p.Add(bars)
	p.Y.Min, p.Y.Max = 0, 1
	p.NominalX(names...)
	return r.save(p, path)
}

func (r *PNGRenderer) Histogram(path, title, xlabel string, bins []analysis.Bin) error {
	if len(bins) == 0 {
		return errors.New("nothing to plot")
	}
	p := newPlot(title, xlabel, "count")
	hb := make([]plotter.HistogramBin, len(bins))
	for i, b := range bins {
		hb[i] = plotter.HistogramBin{Min: b.Lo, Max: b.Hi, Weight: float64(b.Count)}
	}
	if bins[0].Lo == bins[0].Hi {
		hb[0].Min, hb[0].Max = bins[0].Lo-0.5, bins[0].Hi+0.5
	}
	h := &plotter.Histogram{Bins: hb, Width: hb[0].Max - hb[0].Min, FillColor: plotutil.Color(0), LineStyle: plotter.DefaultLineStyle}
	p.Add(h)
	return r.save(p, path)
}

func (r *PNGRenderer) save(p *plot.Plot, path string) error {
	if err := utils.EnsureDir(filepath.Dir(path)); err != nil {
		return err
	}
	if err := p.Save(r.Width, r.Height, path); err != nil {
		return fmt.Errorf("save chart: %w", err)
	}
	return nil
}

func newPlot(title, x, y string) *plot.Plot {
	p := plot.New()
	p.Title.Text = title
	p.X.Label.Text = x
	p.Y.Label.Text = y
	return p
}

func barWidth(groups int) vg.Length {
	return vg.Points(40 / float64(groups))
}
