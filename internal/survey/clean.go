package survey

import (
	"fmt"
	"sort"
	"strconv"
	"strings"

	"go.uber.org/zap"
)

// MissingPolicy decides what happens to missing values in required columns.
type MissingPolicy string

const (
	// Impute replaces missing numeric values with the column mean.
	Impute MissingPolicy = "impute"
	// Drop removes the row.
	Drop MissingPolicy = "drop"
	// Fail aborts cleaning with a *MissingDataError.
	Fail MissingPolicy = "fail"
)

// ParseMissingPolicy accepts impute, drop or fail.
func ParseMissingPolicy(s string) (MissingPolicy, error) {
	switch MissingPolicy(strings.ToLower(strings.TrimSpace(s))) {
	case Impute:
		return Impute, nil
	case Drop:
		return Drop, nil
	case Fail:
		return Fail, nil
	}
	return "", fmt.Errorf("unknown missing-value policy %q (use impute, drop or fail)", s)
}

// CleanPolicy configures Clean.
type CleanPolicy struct {
	// Ignore marks columns as not analysis-relevant; their missing values are kept.
	Ignore []string
	// Dedupe removes exact duplicate rows after missing values are resolved.
	Dedupe bool
	// Numeric applies to numeric columns.
	Numeric MissingPolicy
	// Categorical applies to categorical, ordinal and binary columns,
	// including the label. Impute cannot resolve these.
	Categorical MissingPolicy
}

// DefaultCleanPolicy ignores the sparse "car" column, imputes numeric gaps,
// drops rows with categorical gaps and removes duplicates.
func DefaultCleanPolicy() CleanPolicy {
	return CleanPolicy{
		Ignore:      []string{"car"},
		Dedupe:      true,
		Numeric:     Impute,
		Categorical: Drop,
	}
}

// CleanReport records every decision Clean made.
type CleanReport struct {
	InputRows  int                `json:"input_rows" yaml:"input_rows"`
	OutputRows int                `json:"output_rows" yaml:"output_rows"`
	Ignored    []string           `json:"ignored,omitempty" yaml:"ignored,omitempty"`
	Missing    map[string]int     `json:"missing,omitempty" yaml:"missing,omitempty"`
	Imputed    map[string]float64 `json:"imputed,omitempty" yaml:"imputed,omitempty"`
	Dropped    int                `json:"dropped" yaml:"dropped"`
	Duplicates int                `json:"duplicates" yaml:"duplicates"`
}

// Clean resolves missing values in required columns and removes duplicates.
// The input table is not modified.
func Clean(t *Table, p CleanPolicy, log *zap.Logger) (*Table, *CleanReport, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if p.Numeric == "" {
		p.Numeric = Impute
	}
	if p.Categorical == "" {
		p.Categorical = Drop
	}
	schema, err := t.schema.Optional(p.Ignore...)
	if err != nil {
		return nil, nil, err
	}
	rep := &CleanReport{
		InputRows: t.Len(),
		Ignored:   append([]string(nil), p.Ignore...),
		Missing:   map[string]int{},
		Imputed:   map[string]float64{},
	}

	cols := schema.Columns()
	for i, c := range cols {
		if !c.Required {
			continue
		}
		n := 0
		for _, r := range t.records {
			if r.values[i].Missing {
				n++
			}
		}
		if n > 0 {
			rep.Missing[c.Name] = n
		}
	}

	// Decide per column before touching rows so every decision is logged once.
	impute := map[int]float64{}
	var dropOn []int
	for _, name := range sortedKeys(rep.Missing) {
		c, i, _ := schema.Lookup(name)
		n := rep.Missing[name]
		policy := p.Categorical
		if c.Kind == Numeric {
			policy = p.Numeric
		}
		switch {
		case policy == Fail:
			return nil, rep, &MissingDataError{Column: name, Rows: n, Policy: policy}
		case policy == Drop:
			dropOn = append(dropOn, i)
			log.Info("dropping rows with missing values",
				zap.String("column", name), zap.Int("rows", n))
		case policy == Impute && c.Kind == Numeric:
			mean, ok := columnMean(t.records, i)
			if !ok {
				return nil, rep, &MissingDataError{Column: name, Rows: n, Policy: policy}
			}
			impute[i] = mean
			rep.Imputed[name] = mean
			log.Info("imputing missing values with column mean",
				zap.String("column", name), zap.Int("rows", n), zap.Float64("mean", mean))
		default:
			return nil, rep, &MissingDataError{Column: name, Rows: n, Policy: policy}
		}
	}

	sort.Ints(dropOn)

	out := make([]Record, 0, len(t.records))
	for n, r := range t.records {
		r = r.rebind(schema)
		drop := false
		for _, i := range dropOn {
			if r.values[i].Missing {
				drop = true
				log.Debug("dropped row", zap.Int("row", n+1), zap.String("column", cols[i].Name))
				break
			}
		}
		if drop {
			rep.Dropped++
			continue
		}
		for i, mean := range impute {
			if r.values[i].Missing {
				r = r.with(i, Value{Raw: strconv.FormatFloat(mean, 'f', -1, 64), Num: mean, HasNum: true})
			}
		}
		out = append(out, r)
	}

	if p.Dedupe {
		seen := make(map[string]struct{}, len(out))
		kept := out[:0]
		for _, r := range out {
			k := r.key()
			if _, dup := seen[k]; dup {
				rep.Duplicates++
				continue
			}
			seen[k] = struct{}{}
			kept = append(kept, r)
		}
		out = kept
		if rep.Duplicates > 0 {
			log.Info("removed duplicate rows", zap.Int("rows", rep.Duplicates))
		}
	}

	rep.OutputRows = len(out)
	log.Info("cleaned survey",
		zap.Int("input_rows", rep.InputRows),
		zap.Int("output_rows", rep.OutputRows),
		zap.Int("dropped", rep.Dropped),
		zap.Int("duplicates", rep.Duplicates))
	return &Table{name: t.name, schema: schema, records: out}, rep, nil
}

func columnMean(records []Record, i int) (float64, bool) {
	var sum float64
	n := 0
	for _, r := range records {
		v := r.values[i]
		if v.Missing || !v.HasNum {
			continue
		}
		sum += v.Num
		n++
	}
	if n == 0 {
		return 0, false
	}
	return sum / float64(n), true
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Markdown renders the report as a [CLEANING] section.
func (r *CleanReport) Markdown() string {
	var b strings.Builder
	b.WriteString("[CLEANING]\n")
	fmt.Fprintf(&b, "Rows: %d -> %d\n", r.InputRows, r.OutputRows)
	if len(r.Ignored) > 0 {
		fmt.Fprintf(&b, "Ignored columns: %s\n", strings.Join(r.Ignored, ", "))
	}
	for _, name := range sortedKeys(r.Missing) {
		if mean, ok := r.Imputed[name]; ok {
			fmt.Fprintf(&b, "- %s: %d missing, imputed %.2f\n", name, r.Missing[name], mean)
			continue
		}
		fmt.Fprintf(&b, "- %s: %d missing\n", name, r.Missing[name])
	}
	fmt.Fprintf(&b, "Dropped rows: %d\n", r.Dropped)
	fmt.Fprintf(&b, "Duplicate rows removed: %d\n", r.Duplicates)
	return b.String()
}
