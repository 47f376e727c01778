package segment

import (
	"errors"
	"fmt"
	"sort"

	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Rate is a measured acceptance rate. Defined is false for empty groups.
type Rate struct {
	Group    string  `json:"group" yaml:"group"`
	Size     int     `json:"size" yaml:"size"`
	Accepted int     `json:"accepted" yaml:"accepted"`
	Value    float64 `json:"value" yaml:"value"`
	Defined  bool    `json:"defined" yaml:"defined"`
	Note     string  `json:"note,omitempty" yaml:"note,omitempty"`
}

func (r Rate) String() string {
	if !r.Defined {
		return "undefined"
	}
	return fmt.Sprintf("%.2f", r.Value)
}

// Measure computes the acceptance rate of g, recording an undefined rate
// instead of failing on empty groups. Other errors are returned.
func Measure(g Group) (Rate, error) {
	r := Rate{Group: g.Name, Size: g.Len()}
	v, err := AcceptanceRate(g)
	if err != nil {
		var empty *EmptyGroupError
		if errors.As(err, &empty) {
			r.Note = err.Error()
			return r, nil
		}
		return r, err
	}
	r.Value = v
	r.Defined = true
	for _, rec := range g.Table.Records() {
		if rec.Accepted() {
			r.Accepted++
		}
	}
	return r, nil
}

// Contrast holds a group, its complement and their comparison.
type Contrast struct {
	Predicate  string      `json:"predicate" yaml:"predicate"`
	Group      Rate        `json:"group" yaml:"group"`
	Others     Rate        `json:"others" yaml:"others"`
	Comparison *Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
}

// NewContrast segments t by p and compares the two acceptance rates.
// Comparison is nil when either rate is undefined.
func NewContrast(t *survey.Table, name, other string, p Predicate) (*Contrast, error) {
	g, o, err := SegmentNamed(t, name, other, p)
	if err != nil {
		return nil, err
	}
	gr, err := Measure(g)
	if err != nil {
		return nil, err
	}
	others, err := Measure(o)
	if err != nil {
		return nil, err
	}
	c := &Contrast{Predicate: p.String(), Group: gr, Others: others}
	if gr.Defined && others.Defined {
		cmp := Compare(gr.Value, others.Value)
		c.Comparison = &cmp
	}
	return c, nil
}

// RatesBy returns the acceptance rate for each observed level of column,
// in domain order for closed columns and by ordered projection otherwise.
// Records missing the column are grouped under "NA" at the end.
func RatesBy(t *survey.Table, column string) ([]Rate, error) {
	levels, err := Levels(t, column)
	if err != nil {
		return nil, err
	}
	out := make([]Rate, 0, len(levels))
	for _, lvl := range levels {
		lvl := lvl
		g := Group{Name: lvl, Table: t.Filter(func(r survey.Record) bool { return levelOf(r, column) == lvl })}
		rate, err := Measure(g)
		if err != nil {
			return nil, err
		}
		out = append(out, rate)
	}
	return out, nil
}

// CountTable holds value counts for a column, optionally split by a hue column.
type CountTable struct {
	Column    string   `json:"column" yaml:"column"`
	Hue       string   `json:"hue,omitempty" yaml:"hue,omitempty"`
	Levels    []string `json:"levels" yaml:"levels"`
	HueLevels []string `json:"hue_levels,omitempty" yaml:"hue_levels,omitempty"`
	// Counts[i][j] counts records at Levels[i] and HueLevels[j]; without a hue
	// each row has a single entry.
	Counts [][]int `json:"counts" yaml:"counts"`
	Total  int     `json:"total" yaml:"total"`
}

// Row returns the total count for level i across hue levels.
func (c *CountTable) Row(i int) int {
	n := 0
	for _, v := range c.Counts[i] {
		n += v
	}
	return n
}

// Counts tallies column values, split by hue when hue is not empty.
func Counts(t *survey.Table, column, hue string) (*CountTable, error) {
	levels, err := Levels(t, column)
	if err != nil {
		return nil, err
	}
	ct := &CountTable{Column: column, Hue: hue, Levels: levels, Total: t.Len()}
	hues := []string{""}
	if hue != "" {
		if hues, err = Levels(t, hue); err != nil {
			return nil, err
		}
		ct.HueLevels = hues
	}
	li := indexOf(levels)
	hi := indexOf(hues)
	ct.Counts = make([][]int, len(levels))
	for i := range ct.Counts {
		ct.Counts[i] = make([]int, len(hues))
	}
	for _, r := range t.Records() {
		j := 0
		if hue != "" {
			j = hi[levelOf(r, hue)]
		}
		ct.Counts[li[levelOf(r, column)]][j]++
	}
	return ct, nil
}

// SortByCount reorders levels by descending total, ties by level name.
func (c *CountTable) SortByCount() {
	idx := make([]int, len(c.Levels))
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		ra, rb := c.Row(idx[a]), c.Row(idx[b])
		if ra == rb {
			return c.Levels[idx[a]] < c.Levels[idx[b]]
		}
		return ra > rb
	})
	levels := make([]string, len(idx))
	counts := make([][]int, len(idx))
	for i, j := range idx {
		levels[i] = c.Levels[j]
		counts[i] = c.Counts[j]
	}
	c.Levels, c.Counts = levels, counts
}

const naLevel = "NA"

// Levels lists the observed values of column in reporting order.
func Levels(t *survey.Table, column string) ([]string, error) {
	col, _, err := t.Schema().Lookup(column)
	if err != nil {
		return nil, err
	}
	vals, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	seen := map[string]float64{}
	hasNum := map[string]bool{}
	na := false
	for _, v := range vals {
		if v.Missing {
			na = true
			continue
		}
		seen[v.Raw] = v.Num
		hasNum[v.Raw] = v.HasNum
	}
	out := make([]string, 0, len(seen)+1)
	if col.Closed() {
		for _, d := range col.Domain {
			if _, ok := seen[d]; ok {
				out = append(out, d)
			}
		}
	} else {
		for k := range seen {
			out = append(out, k)
		}
		sort.Slice(out, func(i, j int) bool {
			a, b := out[i], out[j]
			if hasNum[a] && hasNum[b] && seen[a] != seen[b] {
				return seen[a] < seen[b]
			}
			return a < b
		})
	}
	if na {
		out = append(out, naLevel)
	}
	return out, nil
}

func levelOf(r survey.Record, column string) string {
	v := r.Get(column)
	if v.Missing {
		return naLevel
	}
	return v.Raw
}

func indexOf(levels []string) map[string]int {
	m := make(map[string]int, len(levels))
	for i, l := range levels {
		m[l] = i
	}
	return m
}
