package segment

import (
	"errors"
	"fmt"
	"math"

	"github.com/KaramelBytes/couponlens/internal/survey"
)

// OthersName labels the complement produced by Segment.
const OthersName = "all others"

// ErrEmptyGroup is matched by every *EmptyGroupError.
var ErrEmptyGroup = errors.New("empty group")

// EmptyGroupError reports an acceptance rate requested for a group with no records.
type EmptyGroupError struct {
	Group string
}

func (e *EmptyGroupError) Error() string {
	return fmt.Sprintf("acceptance rate undefined: group %q is empty", e.Group)
}

func (e *EmptyGroupError) Is(target error) bool { return target == ErrEmptyGroup }

// Group is a named, predicate-selected view of a table.
type Group struct {
	Name  string
	Table *survey.Table
}

// Len returns the number of records in the group.
func (g Group) Len() int { return g.Table.Len() }

// Whole wraps an entire table as a group.
func Whole(name string, t *survey.Table) Group { return Group{Name: name, Table: t} }

// Segment partitions t into the records matching p and the rest.
// Every record lands in exactly one of the two groups.
func Segment(t *survey.Table, name string, p Predicate) (Group, Group, error) {
	return SegmentNamed(t, name, OthersName, p)
}

// SegmentNamed is Segment with an explicit complement name.
func SegmentNamed(t *survey.Table, name, other string, p Predicate) (Group, Group, error) {
	if err := p.Validate(t.Schema()); err != nil {
		return Group{}, Group{}, err
	}
	var in, out []survey.Record
	for _, r := range t.Records() {
		if p.Match(r) {
			in = append(in, r)
		} else {
			out = append(out, r)
		}
	}
	return Group{Name: name, Table: survey.NewTable(t.Name(), t.Schema(), in)},
		Group{Name: other, Table: survey.NewTable(t.Name(), t.Schema(), out)},
		nil
}

// AcceptanceRate returns the mean of Y over the group.
// It returns an *EmptyGroupError when the group has no records and a
// *survey.MissingDataError when a record has no label.
func AcceptanceRate(g Group) (float64, error) {
	n := g.Len()
	if n == 0 {
		return 0, &EmptyGroupError{Group: g.Name}
	}
	accepted := 0
	missing := 0
	for _, r := range g.Table.Records() {
		y, ok := r.Label()
		if !ok {
			missing++
			continue
		}
		accepted += y
	}
	if missing > 0 {
		return 0, &survey.MissingDataError{Column: survey.LabelColumn, Rows: missing}
	}
	return float64(accepted) / float64(n), nil
}

// Side names the higher of two compared rates.
type Side string

const (
	Tie   Side = "tie"
	SideA Side = "a"
	SideB Side = "b"
)

// Comparison is the outcome of comparing two rates.
type Comparison struct {
	Higher Side    `json:"higher" yaml:"higher"`
	Delta  float64 `json:"delta" yaml:"delta"`
}

// Compare rounds both rates to two decimals, as they are reported, and
// returns their signed difference a-b. The result is a tie exactly when the
// rounded rates are equal.
func Compare(a, b float64) Comparison {
	d := Round2(Round2(a) - Round2(b))
	switch {
	case d > 0:
		return Comparison{Higher: SideA, Delta: d}
	case d < 0:
		return Comparison{Higher: SideB, Delta: d}
	default:
		return Comparison{Higher: Tie, Delta: 0}
	}
}

// Round2 rounds to two decimal places, halves away from zero.
func Round2(f float64) float64 {
	return math.Round(f*100) / 100
}
