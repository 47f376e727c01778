package analysis

import (
	"fmt"
	"math"

	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Bin is one equal-width histogram bucket. Lo is inclusive; Hi is exclusive
// except for the last bin.
type Bin struct {
	Lo    float64 `json:"lo" yaml:"lo"`
	Hi    float64 `json:"hi" yaml:"hi"`
	Count int     `json:"count" yaml:"count"`
}

// Label renders the bin range.
func (b Bin) Label() string {
	if b.Lo == b.Hi {
		return fmt.Sprintf("%.4g", b.Lo)
	}
	return fmt.Sprintf("%.4g-%.4g", b.Lo, b.Hi)
}

// Histogram buckets the ordered projection of column into bins equal-width
// bins. Missing values are skipped. A column whose values are all equal
// yields a single bin.
func Histogram(t *survey.Table, column string, bins int) ([]Bin, error) {
	col, _, err := t.Schema().Lookup(column)
	if err != nil {
		return nil, err
	}
	if !col.Ordered() {
		return nil, &survey.SchemaError{Column: column, Reason: "is not ordered"}
	}
	if bins <= 0 {
		bins = 10
	}
	vals, err := t.Column(column)
	if err != nil {
		return nil, err
	}
	lo, hi := math.Inf(1), math.Inf(-1)
	xs := make([]float64, 0, len(vals))
	for _, v := range vals {
		if v.Missing || !v.HasNum {
			continue
		}
		xs = append(xs, v.Num)
		lo = math.Min(lo, v.Num)
		hi = math.Max(hi, v.Num)
	}
	if len(xs) == 0 {
		return nil, nil
	}
	if lo == hi {
		return []Bin{{Lo: lo, Hi: hi, Count: len(xs)}}, nil
	}
	width := (hi - lo) / float64(bins)
	out := make([]Bin, bins)
	for i := range out {
		out[i].Lo = lo + float64(i)*width
		out[i].Hi = lo + float64(i+1)*width
	}
	out[bins-1].Hi = hi
	for _, x := range xs {
		i := int((x - lo) / width)
		if i >= bins {
			i = bins - 1
		}
		out[i].Count++
	}
	return out, nil
}
