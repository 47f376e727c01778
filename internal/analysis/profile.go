package analysis

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Options controls profiling behavior.
type Options struct {
	// SampleRows determines how many example rows to include in the report.
	SampleRows int
	// TopValues caps the categories listed per column; 0 means 8.
	TopValues int
	// GroupBy computes per-group numeric summaries for the given column names.
	GroupBy []string
	// Outlier detection via robust Z-score (MAD). If Outliers is true, counts |z|>threshold.
	Outliers         bool
	OutlierThreshold float64
}

// DefaultOptions returns reasonable defaults for dataset profiling.
func DefaultOptions() Options {
	return Options{SampleRows: 5, TopValues: 8}
}

// Report is a markdown-friendly profile of a survey table.
type Report struct {
	Name       string          `json:"name" yaml:"name"`
	Rows       int             `json:"rows" yaml:"rows"`
	Duplicates int             `json:"duplicates" yaml:"duplicates"`
	Cols       []ColumnSummary `json:"columns" yaml:"columns"`
	Header     []string        `json:"-" yaml:"-"`
	Samples    [][]string      `json:"samples,omitempty" yaml:"samples,omitempty"`
	Groups     []GroupResult   `json:"groups,omitempty" yaml:"groups,omitempty"`
	Warnings   []string        `json:"warnings,omitempty" yaml:"warnings,omitempty"`
}

// ColumnSummary captures the declared kind and statistics per column.
type ColumnSummary struct {
	Name    string `json:"name" yaml:"name"`
	Kind    string `json:"kind" yaml:"kind"`
	NonNull int    `json:"non_null" yaml:"non_null"`
	Missing int    `json:"missing" yaml:"missing"`
	Unique  int    `json:"unique" yaml:"unique"`
	// Numeric stats over the ordered projection, when the column has one.
	Numeric bool    `json:"numeric" yaml:"numeric"`
	Min     float64 `json:"min,omitempty" yaml:"min,omitempty"`
	Max     float64 `json:"max,omitempty" yaml:"max,omitempty"`
	Mean    float64 `json:"mean,omitempty" yaml:"mean,omitempty"`
	Std     float64 `json:"std,omitempty" yaml:"std,omitempty"`
	// Outliers (robust Z via MAD)
	OutliersCount    int     `json:"outliers,omitempty" yaml:"outliers,omitempty"`
	OutliersMaxAbsZ  float64 `json:"outliers_max_abs_z,omitempty" yaml:"outliers_max_abs_z,omitempty"`
	OutlierThreshold float64 `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`
	// Categorical top values
	TopValues []CategoryCount `json:"top_values,omitempty" yaml:"top_values,omitempty"`
}

// MissingPct is the share of missing values in percent.
func (c ColumnSummary) MissingPct() float64 {
	total := c.NonNull + c.Missing
	if total == 0 {
		return 0
	}
	return float64(c.Missing) * 100.0 / float64(total)
}

type CategoryCount struct {
	Value string `json:"value" yaml:"value"`
	Count int    `json:"count" yaml:"count"`
}

// GroupResult captures aggregated metrics per group key.
type GroupResult struct {
	Key     string                `json:"key" yaml:"key"`
	Size    int                   `json:"size" yaml:"size"`
	Metrics map[string]NumSummary `json:"metrics" yaml:"metrics"`
}

type NumSummary struct {
	Count int     `json:"count" yaml:"count"`
	Min   float64 `json:"min" yaml:"min"`
	Max   float64 `json:"max" yaml:"max"`
	Mean  float64 `json:"mean" yaml:"mean"`
}

type colAcc struct {
	nonNil int
	miss   int
	// numeric stats via Welford
	n    int
	mean float64
	m2   float64
	min  float64
	max  float64
	vals []float64
	cats map[string]int
}

func (c *colAcc) add(x float64) {
	c.n++
	if x < c.min {
		c.min = x
	}
	if x > c.max {
		c.max = x
	}
	delta := x - c.mean
	c.mean += delta / float64(c.n)
	c.m2 += delta * (x - c.mean)
	c.vals = append(c.vals, x)
}

type gAcc struct {
	size int
	sum  map[int]float64
	cnt  map[int]int
	min  map[int]float64
	max  map[int]float64
}

// Profile summarizes every column of t: missing counts, distinct values,
// numeric statistics for ordered columns and the most frequent categories.
func Profile(t *survey.Table, opt Options) (*Report, error) {
	schema := t.Schema()
	cols := schema.Columns()
	rep := &Report{Name: t.Name(), Rows: t.Len(), Header: schema.Names()}

	gbIdx := make([]int, 0, len(opt.GroupBy))
	for _, name := range opt.GroupBy {
		_, i, err := schema.Lookup(strings.TrimSpace(name))
		if err != nil {
			return nil, fmt.Errorf("group by: %w", err)
		}
		gbIdx = append(gbIdx, i)
	}
	sampleRows := opt.SampleRows
	if sampleRows <= 0 {
		sampleRows = 5
	}

	acc := make([]*colAcc, len(cols))
	for i := range acc {
		acc[i] = &colAcc{min: math.Inf(1), max: math.Inf(-1), cats: map[string]int{}}
	}
	groups := map[string]*gAcc{}

	for _, r := range t.Records() {
		fields := r.Values()
		if len(rep.Samples) < sampleRows {
			rep.Samples = append(rep.Samples, r.Fields())
		}
		var gkey string
		if len(gbIdx) > 0 {
			parts := make([]string, 0, len(gbIdx))
			for _, j := range gbIdx {
				val := fields[j].Raw
				if fields[j].Missing {
					val = "NA"
				}
				parts = append(parts, fmt.Sprintf("%s=%s", cols[j].Name, safeVal(val)))
			}
			gkey = strings.Join(parts, " | ")
			if groups[gkey] == nil {
				groups[gkey] = &gAcc{sum: map[int]float64{}, cnt: map[int]int{}, min: map[int]float64{}, max: map[int]float64{}}
			}
			groups[gkey].size++
		}
		for j, v := range fields {
			c := acc[j]
			if v.Missing {
				c.miss++
				continue
			}
			c.nonNil++
			c.cats[v.Raw]++
			if !v.HasNum {
				continue
			}
			c.add(v.Num)
			if gkey != "" {
				ga := groups[gkey]
				x := v.Num
				ga.sum[j] += x
				ga.cnt[j]++
				if _, ok := ga.min[j]; !ok || x < ga.min[j] {
					ga.min[j] = x
				}
				if _, ok := ga.max[j]; !ok || x > ga.max[j] {
					ga.max[j] = x
				}
			}
		}
	}

	top := opt.TopValues
	if top <= 0 {
		top = 8
	}
	rep.Cols = make([]ColumnSummary, 0, len(cols))
	for i, col := range cols {
		c := acc[i]
		s := ColumnSummary{Name: col.Name, Kind: col.Kind.String(), NonNull: c.nonNil, Missing: c.miss, Unique: len(c.cats)}
		if c.n > 0 {
			s.Numeric = true
			s.Min, s.Max, s.Mean = c.min, c.max, c.mean
			if c.n > 1 {
				s.Std = math.Sqrt(c.m2 / float64(c.n-1))
			}
			if opt.Outliers && col.Kind == survey.Numeric && len(c.vals) >= 8 {
				s.OutlierThreshold, s.OutliersCount, s.OutliersMaxAbsZ = outliers(c.vals, opt.OutlierThreshold)
			}
		}
		if col.Kind != survey.Numeric {
			s.TopValues = topValues(c.cats, top)
		}
		if c.miss > 0 {
			rep.Warnings = append(rep.Warnings, fmt.Sprintf("%s: %d missing values", col.Name, c.miss))
		}
		rep.Cols = append(rep.Cols, s)
	}

	if dups := t.Duplicates(); dups > 0 {
		rep.Duplicates = dups
		rep.Warnings = append(rep.Warnings, fmt.Sprintf("%d duplicate rows", dups))
	}

	if len(groups) > 0 {
		out := make([]GroupResult, 0, len(groups))
		for k, ga := range groups {
			gr := GroupResult{Key: k, Size: ga.size, Metrics: map[string]NumSummary{}}
			for j, n := range ga.cnt {
				if n == 0 {
					continue
				}
				gr.Metrics[cols[j].Name] = NumSummary{Count: n, Min: ga.min[j], Max: ga.max[j], Mean: ga.sum[j] / float64(n)}
			}
			out = append(out, gr)
		}
		sort.Slice(out, func(i, j int) bool {
			if out[i].Size == out[j].Size {
				return out[i].Key < out[j].Key
			}
			return out[i].Size > out[j].Size
		})
		if len(out) > 20 {
			out = out[:20]
		}
		rep.Groups = out
	}
	return rep, nil
}

// Column returns the summary for name.
func (r *Report) Column(name string) (ColumnSummary, bool) {
	for _, c := range r.Cols {
		if c.Name == name {
			return c, true
		}
	}
	return ColumnSummary{}, false
}

func topValues(cats map[string]int, n int) []CategoryCount {
	tops := make([]CategoryCount, 0, len(cats))
	for k, v := range cats {
		tops = append(tops, CategoryCount{Value: k, Count: v})
	}
	sort.Slice(tops, func(i, j int) bool {
		if tops[i].Count == tops[j].Count {
			return tops[i].Value < tops[j].Value
		}
		return tops[i].Count > tops[j].Count
	})
	if len(tops) > n {
		tops = tops[:n]
	}
	return tops
}

func outliers(vals []float64, thr float64) (float64, int, float64) {
	if thr <= 0 {
		thr = 3.5
	}
	median, mad := medianMAD(vals)
	var cnt int
	maxAbsZ := 0.0
	if mad > 0 {
		for _, v := range vals {
			az := math.Abs(0.6745 * (v - median) / mad)
			if az > thr {
				cnt++
			}
			if az > maxAbsZ {
				maxAbsZ = az
			}
		}
	}
	return thr, cnt, maxAbsZ
}

// Markdown renders a compact report suitable for terminals or standalone docs.
func (r *Report) Markdown() string {
	var b strings.Builder
	b.WriteString("[DATASET SUMMARY]\n")
	if r.Name != "" {
		b.WriteString(fmt.Sprintf("File: %s\n", r.Name))
	}
	b.WriteString(fmt.Sprintf("Rows: %d\n", r.Rows))
	b.WriteString(fmt.Sprintf("Columns: %d\n", len(r.Cols)))
	b.WriteString(fmt.Sprintf("Duplicate rows: %d\n\n", r.Duplicates))

	b.WriteString("[SCHEMA]\n")
	for _, c := range r.Cols {
		b.WriteString(fmt.Sprintf("- %s: %s (non-null %d, missing %d = %.1f%%, unique %d)", safeName(c.Name), c.Kind, c.NonNull, c.Missing, c.MissingPct(), c.Unique))
		if c.Numeric && c.Kind == survey.Numeric.String() {
			b.WriteString(fmt.Sprintf(": min %.4g, max %.4g, mean %.4g, std %.4g", c.Min, c.Max, c.Mean, c.Std))
			if c.OutlierThreshold > 0 {
				b.WriteString(fmt.Sprintf("; outliers: %d above |z|>%.1f", c.OutliersCount, c.OutlierThreshold))
			}
		}
		if len(c.TopValues) > 0 {
			b.WriteString(": top ")
			for i, kv := range c.TopValues {
				if i > 0 {
					b.WriteString(", ")
				}
				b.WriteString(fmt.Sprintf("%s(%d)", safeVal(kv.Value), kv.Count))
			}
		}
		b.WriteString("\n")
	}
	if len(r.Groups) > 0 {
		b.WriteString("\n[GROUP-BY SUMMARY]\n")
		for _, g := range r.Groups {
			b.WriteString(fmt.Sprintf("- %s (n=%d)\n", g.Key, g.Size))
			keys := make([]string, 0, len(g.Metrics))
			for k := range g.Metrics {
				keys = append(keys, k)
			}
			sort.Strings(keys)
			maxk := 6
			if len(keys) < maxk {
				maxk = len(keys)
			}
			for i := 0; i < maxk; i++ {
				m := g.Metrics[keys[i]]
				b.WriteString(fmt.Sprintf("  • %s: mean %.4g (min %.4g, max %.4g)\n", keys[i], m.Mean, m.Min, m.Max))
			}
		}
	}
	if len(r.Samples) > 0 {
		b.WriteString("\n[HEAD AND SAMPLE ROWS]\n")
		b.WriteString("| ")
		for i, name := range r.Header {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString(safeName(name))
		}
		b.WriteString(" |\n| ")
		for i := range r.Header {
			if i > 0 {
				b.WriteString(" | ")
			}
			b.WriteString("---")
		}
		b.WriteString(" |\n")
		for _, row := range r.Samples {
			b.WriteString("| ")
			for i := range r.Header {
				if i > 0 {
					b.WriteString(" | ")
				}
				val := ""
				if i < len(row) {
					val = row[i]
				}
				if rs := []rune(val); len(rs) > 80 {
					val = string(rs[:77]) + "..."
				}
				b.WriteString(safeVal(val))
			}
			b.WriteString(" |\n")
		}
	}
	if len(r.Warnings) > 0 {
		b.WriteString("\n[NOTES]\n")
		for _, w := range r.Warnings {
			b.WriteString("- ")
			b.WriteString(w)
			b.WriteString("\n")
		}
	}
	return b.String()
}

func safeName(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "(unnamed)"
	}
	return s
}

func safeVal(s string) string { return strings.ReplaceAll(strings.ReplaceAll(s, "\n", " "), "|", "/") }

// medianMAD computes median and MAD (median absolute deviation) of values.
func medianMAD(vals []float64) (median, mad float64) {
	if len(vals) == 0 {
		return 0, 0
	}
	cp := make([]float64, len(vals))
	copy(cp, vals)
	sort.Float64s(cp)
	median = quantile(cp, 0.5)
	dev := make([]float64, len(cp))
	for i, v := range cp {
		dev[i] = math.Abs(v - median)
	}
	sort.Float64s(dev)
	mad = quantile(dev, 0.5)
	return
}

func quantile(sorted []float64, q float64) float64 {
	if len(sorted) == 0 {
		return 0
	}
	if q <= 0 {
		return sorted[0]
	}
	if q >= 1 {
		return sorted[len(sorted)-1]
	}
	pos := q * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	hi := int(math.Ceil(pos))
	if lo == hi {
		return sorted[lo]
	}
	w := pos - float64(lo)
	return sorted[lo]*(1-w) + sorted[hi]*w
}
