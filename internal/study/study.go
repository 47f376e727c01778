package study

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/KaramelBytes/couponlens/internal/analysis"
	"github.com/KaramelBytes/couponlens/internal/segment"
	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Options controls a study run.
type Options struct {
	// TemperatureBins is the histogram bin count for temperature; 0 means 10.
	TemperatureBins int
	// Now stamps the report; nil means time.Now.
	Now func() time.Time
}

// DefaultOptions returns the options used by Run.
func DefaultOptions() Options { return Options{TemperatureBins: 10} }

// Report is the result of a full study run over a cleaned table.
type Report struct {
	ID          string              `json:"id" yaml:"id"`
	Dataset     string              `json:"dataset" yaml:"dataset"`
	GeneratedAt time.Time           `json:"generated_at" yaml:"generated_at"`
	Rows        int                 `json:"rows" yaml:"rows"`
	Overall     segment.Rate        `json:"overall" yaml:"overall"`
	Coupons     *segment.CountTable `json:"coupons" yaml:"coupons"`
	Temperature []analysis.Bin      `json:"temperature" yaml:"temperature"`
	ByCoupon    []segment.Rate      `json:"by_coupon" yaml:"by_coupon"`
	Sections    []Section           `json:"sections" yaml:"sections"`
}

// Section groups the findings for one coupon subset.
type Section struct {
	Title       string           `json:"title" yaml:"title"`
	Base        []string         `json:"base" yaml:"base"`
	Overall     segment.Rate     `json:"overall" yaml:"overall"`
	Findings    []Finding        `json:"findings" yaml:"findings"`
	Populations []PopulationRate `json:"populations,omitempty" yaml:"populations,omitempty"`
	Pairs       []Pair           `json:"pairs,omitempty" yaml:"pairs,omitempty"`
	Breakdowns  []Breakdown      `json:"breakdowns" yaml:"breakdowns"`
}

// Finding is the answer to one Question.
type Finding struct {
	Question Question          `json:"question" yaml:"question"`
	Contrast *segment.Contrast `json:"contrast" yaml:"contrast"`
	Verdict  string            `json:"verdict" yaml:"verdict"`
}

// PopulationRate is the measured rate of a Population.
type PopulationRate struct {
	ID        string       `json:"id" yaml:"id"`
	Title     string       `json:"title" yaml:"title"`
	Base      []string     `json:"base" yaml:"base"`
	Predicate string       `json:"predicate" yaml:"predicate"`
	Rate      segment.Rate `json:"rate" yaml:"rate"`
}

// Pair compares two populations by ID.
type Pair struct {
	A          string              `json:"a" yaml:"a"`
	B          string              `json:"b" yaml:"b"`
	Comparison *segment.Comparison `json:"comparison,omitempty" yaml:"comparison,omitempty"`
	Verdict    string              `json:"verdict" yaml:"verdict"`
}

// Breakdown holds acceptance rates per level of one column.
type Breakdown struct {
	Name   string              `json:"name" yaml:"name"`
	Title  string              `json:"title" yaml:"title"`
	Column string              `json:"column" yaml:"column"`
	Rates  []segment.Rate      `json:"rates" yaml:"rates"`
	Counts *segment.CountTable `json:"counts,omitempty" yaml:"counts,omitempty"`
}

// Run executes the bar and coffee house investigations with default options.
func Run(t *survey.Table, log *zap.Logger) (*Report, error) {
	return RunWithOptions(t, DefaultOptions(), log)
}

// RunWithOptions executes the investigations over a cleaned table.
// Empty groups are reported as undefined rates; schema errors abort the run.
func RunWithOptions(t *survey.Table, opt Options, log *zap.Logger) (*Report, error) {
	if log == nil {
		log = zap.NewNop()
	}
	now := time.Now
	if opt.Now != nil {
		now = opt.Now
	}
	bins := opt.TemperatureBins
	if bins <= 0 {
		bins = 10
	}

	rep := &Report{
		ID:          uuid.NewString(),
		Dataset:     t.Name(),
		GeneratedAt: now(),
		Rows:        t.Len(),
	}
	var err error
	if rep.Overall, err = segment.Measure(segment.Whole("all coupons", t)); err != nil {
		return nil, err
	}
	log.Info("overall acceptance", zap.Int("rows", rep.Rows), zap.Stringer("rate", rep.Overall))

	if rep.Coupons, err = segment.Counts(t, "coupon", ""); err != nil {
		return nil, fmt.Errorf("coupon counts: %w", err)
	}
	rep.Coupons.SortByCount()
	if rep.Temperature, err = analysis.Histogram(t, "temperature", bins); err != nil {
		return nil, fmt.Errorf("temperature histogram: %w", err)
	}
	if rep.ByCoupon, err = segment.RatesBy(t, "coupon"); err != nil {
		return nil, fmt.Errorf("rates by coupon: %w", err)
	}

	bar, err := runSection(t, "Bar coupons", []string{survey.CouponBar}, BarQuestions(), barBreakdowns(), log)
	if err != nil {
		return nil, err
	}
	if err := addPopulations(t, &bar, BarPopulations(), log); err != nil {
		return nil, err
	}
	coffee, err := runSection(t, "Coffee house coupons", []string{survey.CouponCoffeeHouse}, CoffeeQuestions(), coffeeBreakdowns(), log)
	if err != nil {
		return nil, err
	}
	rep.Sections = []Section{bar, coffee}
	return rep, nil
}

func runSection(t *survey.Table, title string, base []string, qs []Question, bds []breakdownSpec, log *zap.Logger) (Section, error) {
	sub := t.CouponIn(base...)
	sec := Section{Title: title, Base: base}
	var err error
	if sec.Overall, err = segment.Measure(segment.Whole(title, sub)); err != nil {
		return sec, err
	}
	log.Info("section", zap.String("title", title), zap.Int("rows", sub.Len()), zap.Stringer("rate", sec.Overall))

	for _, q := range qs {
		f, err := Answer(t, q)
		if err != nil {
			return sec, fmt.Errorf("%s: %w", q.ID, err)
		}
		log.Info("finding",
			zap.String("question", q.ID),
			zap.String("predicate", f.Contrast.Predicate),
			zap.Stringer("group", f.Contrast.Group),
			zap.Stringer("others", f.Contrast.Others),
		)
		sec.Findings = append(sec.Findings, *f)
	}
	for _, b := range bds {
		bd, err := breakdown(sub, b)
		if err != nil {
			return sec, fmt.Errorf("%s: %w", b.name, err)
		}
		sec.Breakdowns = append(sec.Breakdowns, bd)
	}
	return sec, nil
}

// Answer segments the question's base subset and compares the two groups.
func Answer(t *survey.Table, q Question) (*Finding, error) {
	c, err := segment.NewContrast(t.CouponIn(q.Base...), q.Group, q.Others, q.Where)
	if err != nil {
		return nil, err
	}
	return &Finding{Question: q, Contrast: c, Verdict: Verdict(c.Group, c.Others, c.Comparison)}, nil
}

func addPopulations(t *survey.Table, sec *Section, pops []Population, log *zap.Logger) error {
	for _, p := range pops {
		g, _, err := segment.Segment(t.CouponIn(p.Base...), p.Title, p.Where)
		if err != nil {
			return fmt.Errorf("%s: %w", p.ID, err)
		}
		r, err := segment.Measure(g)
		if err != nil {
			return fmt.Errorf("%s: %w", p.ID, err)
		}
		log.Info("population", zap.String("id", p.ID), zap.Int("size", r.Size), zap.Stringer("rate", r))
		sec.Populations = append(sec.Populations, PopulationRate{ID: p.ID, Title: p.Title, Base: p.Base, Predicate: p.Where.String(), Rate: r})
	}
	for i := 0; i < len(sec.Populations); i++ {
		for j := i + 1; j < len(sec.Populations); j++ {
			a, b := sec.Populations[i], sec.Populations[j]
			pair := Pair{A: a.ID, B: b.ID}
			if a.Rate.Defined && b.Rate.Defined {
				c := segment.Compare(a.Rate.Value, b.Rate.Value)
				pair.Comparison = &c
			}
			pair.Verdict = Verdict(a.Rate, b.Rate, pair.Comparison)
			sec.Pairs = append(sec.Pairs, pair)
		}
	}
	return nil
}

func breakdown(sub *survey.Table, b breakdownSpec) (Breakdown, error) {
	bd := Breakdown{Name: b.name, Title: b.title, Column: b.column}
	if b.where != nil {
		g, _, err := segment.Segment(sub, b.title, b.where)
		if err != nil {
			return bd, err
		}
		sub = g.Table
	}
	var err error
	if bd.Rates, err = segment.RatesBy(sub, b.column); err != nil {
		return bd, err
	}
	if b.hue {
		if bd.Counts, err = segment.Counts(sub, b.column, survey.LabelColumn); err != nil {
			return bd, err
		}
	}
	return bd, nil
}

// Verdict describes how rate a compares with rate b.
func Verdict(a, b segment.Rate, c *segment.Comparison) string {
	if c == nil {
		var undefined []string
		for _, r := range []segment.Rate{a, b} {
			if !r.Defined {
				undefined = append(undefined, r.Group)
			}
		}
		return fmt.Sprintf("no comparison: %s has no records", strings.Join(undefined, " and "))
	}
	switch c.Higher {
	case segment.SideA:
		return fmt.Sprintf("%s higher by %.2f", a.Group, c.Delta)
	case segment.SideB:
		return fmt.Sprintf("%s higher by %.2f", b.Group, -c.Delta)
	default:
		return "same acceptance rate"
	}
}
