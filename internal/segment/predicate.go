package segment

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/KaramelBytes/couponlens/internal/survey"
)

// Predicate is a boolean test over a survey record.
//
// A record whose referenced field is missing never satisfies a leaf
// predicate, so it always lands in the complement of a segment.
type Predicate interface {
	Match(r survey.Record) bool
	// Validate reports a *survey.SchemaError when the predicate references a
	// column the schema lacks or a value outside a column's domain.
	Validate(s *survey.Schema) error
	String() string
}

type membership struct {
	column string
	values []string
	negate bool
}

// Eq matches records whose column equals value.
func Eq(column, value string) Predicate {
	return membership{column: column, values: []string{value}}
}

// Ne matches records whose column is present and differs from value.
func Ne(column, value string) Predicate {
	return membership{column: column, values: []string{value}, negate: true}
}

// In matches records whose column is one of values.
func In(column string, values ...string) Predicate {
	return membership{column: column, values: values}
}

// NotIn matches records whose column is present and is none of values.
// Use it for exclusions such as "more than once a month" instead of
// chaining Not and Or.
func NotIn(column string, values ...string) Predicate {
	return membership{column: column, values: values, negate: true}
}

// AtLeastMonthly matches visit frequencies of one or more times a month.
func AtLeastMonthly(column string) Predicate {
	return NotIn(column, survey.FreqNever, survey.FreqLessThanOne)
}

func (p membership) Validate(s *survey.Schema) error {
	c, _, err := s.Lookup(p.column)
	if err != nil {
		return err
	}
	if len(p.values) == 0 {
		return &survey.SchemaError{Column: p.column, Reason: "membership test needs at least one value"}
	}
	for _, v := range p.values {
		if c.Closed() {
			if !c.InDomain(v) {
				return &survey.SchemaError{Column: p.column, Value: v, Reason: "is outside the column domain"}
			}
			continue
		}
		if c.Kind == survey.Numeric {
			if _, err := strconv.ParseFloat(v, 64); err != nil {
				return &survey.SchemaError{Column: p.column, Value: v, Reason: "is not a number"}
			}
		}
	}
	return nil
}

func (p membership) Match(r survey.Record) bool {
	v := r.Get(p.column)
	if v.Missing {
		return false
	}
	numeric := false
	if c, ok := r.Column(p.column); ok && c.Kind == survey.Numeric && !c.Closed() {
		numeric = v.HasNum
	}
	hit := false
	for _, want := range p.values {
		if v.Raw == want {
			hit = true
			break
		}
		if numeric {
			if f, err := strconv.ParseFloat(want, 64); err == nil && f == v.Num {
				hit = true
				break
			}
		}
	}
	return hit != p.negate
}

func (p membership) String() string {
	switch {
	case len(p.values) == 1 && !p.negate:
		return fmt.Sprintf("%s = %s", p.column, p.values[0])
	case len(p.values) == 1:
		return fmt.Sprintf("%s != %s", p.column, p.values[0])
	case p.negate:
		return fmt.Sprintf("%s not in {%s}", p.column, strings.Join(p.values, ", "))
	default:
		return fmt.Sprintf("%s in {%s}", p.column, strings.Join(p.values, ", "))
	}
}

type compareOp int

const (
	opGt compareOp = iota
	opGe
	opLt
	opLe
)

func (o compareOp) String() string {
	return [...]string{">", ">=", "<", "<="}[o]
}

type comparison struct {
	column string
	op     compareOp
	bound  float64
	// raw, when set, is a domain value whose ordered projection is the bound.
	raw string
}

// Gt matches records whose ordered projection of column is greater than x.
func Gt(column string, x float64) Predicate { return comparison{column: column, op: opGt, bound: x} }

// Ge matches records whose ordered projection of column is at least x.
func Ge(column string, x float64) Predicate { return comparison{column: column, op: opGe, bound: x} }

// Lt matches records whose ordered projection of column is less than x.
func Lt(column string, x float64) Predicate { return comparison{column: column, op: opLt, bound: x} }

// Le matches records whose ordered projection of column is at most x.
func Le(column string, x float64) Predicate { return comparison{column: column, op: opLe, bound: x} }

func compareRaw(column string, op compareOp, raw string) Predicate {
	return comparison{column: column, op: op, raw: raw}
}

func (p comparison) Validate(s *survey.Schema) error {
	c, _, err := s.Lookup(p.column)
	if err != nil {
		return err
	}
	if !c.Ordered() {
		return &survey.SchemaError{Column: p.column, Reason: "is not ordered"}
	}
	if p.raw != "" {
		if !c.InDomain(p.raw) {
			return &survey.SchemaError{Column: p.column, Value: p.raw, Reason: "is outside the column domain"}
		}
		if _, err := c.Order(p.raw); err != nil {
			return &survey.SchemaError{Column: p.column, Value: p.raw, Reason: "has no order"}
		}
	}
	return nil
}

func (p comparison) Match(r survey.Record) bool {
	v := r.Get(p.column)
	if v.Missing || !v.HasNum {
		return false
	}
	bound := p.bound
	if p.raw != "" {
		c, ok := r.Column(p.column)
		if !ok || c.Order == nil {
			return false
		}
		b, err := c.Order(p.raw)
		if err != nil {
			return false
		}
		bound = b
	}
	switch p.op {
	case opGt:
		return v.Num > bound
	case opGe:
		return v.Num >= bound
	case opLt:
		return v.Num < bound
	default:
		return v.Num <= bound
	}
}

func (p comparison) String() string {
	if p.raw != "" {
		return fmt.Sprintf("%s %s %s", p.column, p.op, p.raw)
	}
	return fmt.Sprintf("%s %s %s", p.column, p.op, strconv.FormatFloat(p.bound, 'f', -1, 64))
}

type junction struct {
	all   bool
	parts []Predicate
}

// And matches records satisfying every part. And() matches everything.
func And(parts ...Predicate) Predicate { return junction{all: true, parts: parts} }

// Or matches records satisfying at least one part. Or() matches nothing.
func Or(parts ...Predicate) Predicate { return junction{parts: parts} }

func (p junction) Validate(s *survey.Schema) error {
	for _, q := range p.parts {
		if err := q.Validate(s); err != nil {
			return err
		}
	}
	return nil
}

func (p junction) Match(r survey.Record) bool {
	for _, q := range p.parts {
		if q.Match(r) != p.all {
			return !p.all
		}
	}
	return p.all
}

func (p junction) String() string {
	if len(p.parts) == 0 {
		if p.all {
			return "all"
		}
		return "none"
	}
	if len(p.parts) == 1 {
		return p.parts[0].String()
	}
	sep := " or "
	if p.all {
		sep = " and "
	}
	s := make([]string, len(p.parts))
	for i, q := range p.parts {
		s[i] = q.String()
	}
	return "(" + strings.Join(s, sep) + ")"
}

type negation struct{ p Predicate }

// Not inverts p. Unlike NotIn, Not matches records whose field is missing.
func Not(p Predicate) Predicate { return negation{p: p} }

func (n negation) Validate(s *survey.Schema) error { return n.p.Validate(s) }
func (n negation) Match(r survey.Record) bool      { return !n.p.Match(r) }
func (n negation) String() string                  { return "not " + n.p.String() }

// All matches every record.
func All() Predicate { return And() }
