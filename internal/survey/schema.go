package survey

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind classifies how a column's raw values are interpreted.
type Kind int

const (
	Categorical Kind = iota
	Ordinal
	Numeric
	Binary
)

func (k Kind) String() string {
	switch k {
	case Categorical:
		return "categorical"
	case Ordinal:
		return "ordinal"
	case Numeric:
		return "numeric"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// LabelColumn is the acceptance indicator (1 = accepted, 0 = not accepted).
const LabelColumn = "Y"

// Coupon types offered in the survey.
const (
	CouponCheapRestaurant     = "Restaurant(<20)"
	CouponCoffeeHouse         = "Coffee House"
	CouponCarryOut            = "Carry out & Take away"
	CouponBar                 = "Bar"
	CouponExpensiveRestaurant = "Restaurant(20-50)"
)

// Visit frequency categories, in increasing order.
const (
	FreqNever       = "never"
	FreqLessThanOne = "less1"
	FreqOneToThree  = "1~3"
	FreqFourToEight = "4~8"
	FreqMoreThan8   = "gt8"
)

// Column describes one field of the survey file.
type Column struct {
	Name string
	Kind Kind
	// Domain lists the accepted raw values. Empty means any value parses.
	Domain []string
	// Required columns must be free of missing values after cleaning.
	Required bool
	// Order projects a raw value onto a number for <, <=, >, >= comparisons.
	// Nil for unordered columns.
	Order func(raw string) (float64, error)
}

// Closed reports whether the column only accepts values from Domain.
func (c Column) Closed() bool { return len(c.Domain) > 0 }

// Ordered reports whether the column supports ordered comparisons.
func (c Column) Ordered() bool { return c.Order != nil }

// InDomain reports whether raw is an accepted value.
func (c Column) InDomain(raw string) bool {
	if !c.Closed() {
		return true
	}
	for _, d := range c.Domain {
		if d == raw {
			return true
		}
	}
	return false
}

// Rank returns the position of raw within Domain, or -1.
func (c Column) Rank(raw string) int {
	for i, d := range c.Domain {
		if d == raw {
			return i
		}
	}
	return -1
}

// Parse converts a raw field into a Value. Empty and NA-like fields are missing.
func (c Column) Parse(raw string) (Value, error) {
	raw = strings.TrimSpace(raw)
	if isMissingToken(raw) {
		return Value{Missing: true}, nil
	}
	if !c.InDomain(raw) {
		return Value{}, fmt.Errorf("value %q is not one of %s", raw, strings.Join(c.Domain, ", "))
	}
	v := Value{Raw: raw}
	if c.Order != nil {
		n, err := c.Order(raw)
		if err != nil {
			return Value{}, err
		}
		v.Num, v.HasNum = n, true
	}
	return v, nil
}

func isMissingToken(s string) bool {
	switch strings.ToLower(s) {
	case "", "na", "nan", "null", "none":
		return true
	}
	return false
}

// Schema is an ordered set of columns addressed by name.
type Schema struct {
	cols  []Column
	index map[string]int
}

// NewSchema builds a schema. Duplicate names keep the first definition.
func NewSchema(cols ...Column) *Schema {
	s := &Schema{cols: make([]Column, 0, len(cols)), index: make(map[string]int, len(cols))}
	for _, c := range cols {
		if _, dup := s.index[c.Name]; dup {
			continue
		}
		s.index[c.Name] = len(s.cols)
		s.cols = append(s.cols, c)
	}
	return s
}

// Len returns the number of columns.
func (s *Schema) Len() int { return len(s.cols) }

// Columns returns a copy of the column definitions in order.
func (s *Schema) Columns() []Column {
	out := make([]Column, len(s.cols))
	copy(out, s.cols)
	return out
}

// Names returns column names in order.
func (s *Schema) Names() []string {
	out := make([]string, len(s.cols))
	for i, c := range s.cols {
		out[i] = c.Name
	}
	return out
}

// Lookup returns the named column and its position, or a *SchemaError.
func (s *Schema) Lookup(name string) (Column, int, error) {
	i, ok := s.index[name]
	if !ok {
		return Column{}, -1, &SchemaError{Column: name, Reason: "no such column"}
	}
	return s.cols[i], i, nil
}

// Has reports whether the schema contains the named column.
func (s *Schema) Has(name string) bool {
	_, ok := s.index[name]
	return ok
}

// Optional returns a copy of the schema with the named columns marked not required.
func (s *Schema) Optional(names ...string) (*Schema, error) {
	cols := s.Columns()
	for _, n := range names {
		i, ok := s.index[n]
		if !ok {
			return nil, &SchemaError{Column: n, Reason: "no such column"}
		}
		if n == LabelColumn {
			return nil, &SchemaError{Column: n, Reason: "the label column cannot be made optional"}
		}
		cols[i].Required = false
	}
	return NewSchema(cols...), nil
}

var frequencyDomain = []string{FreqNever, FreqLessThanOne, FreqOneToThree, FreqFourToEight, FreqMoreThan8}

var ageDomain = []string{"below21", "21", "26", "31", "36", "41", "46", "50plus"}

var incomeDomain = []string{
	"Less than $12500",
	"$12500 - $24999",
	"$25000 - $37499",
	"$37500 - $49999",
	"$50000 - $62499",
	"$62500 - $74999",
	"$75000 - $87499",
	"$87500 - $99999",
	"$100000 or More",
}

var occupationDomain = []string{
	"Architecture & Engineering",
	"Arts Design Entertainment Sports & Media",
	"Building & Grounds Cleaning & Maintenance",
	"Business & Financial",
	"Community & Social Services",
	"Computer & Mathematical",
	"Construction & Extraction",
	"Education&Training&Library",
	"Farming Fishing & Forestry",
	"Food Preparation & Serving Related",
	"Healthcare Practitioners & Technical",
	"Healthcare Support",
	"Installation Maintenance & Repair",
	"Legal",
	"Life Physical Social Science",
	"Management",
	"Office & Administrative Support",
	"Personal Care & Service",
	"Production Occupations",
	"Protective Service",
	"Retired",
	"Sales & Related",
	"Student",
	"Transportation & Material Moving",
	"Unemployed",
}

var binaryDomain = []string{"0", "1"}

func categorical(name string, domain ...string) Column {
	return Column{Name: name, Kind: Categorical, Domain: domain, Required: true}
}

func frequency(name string) Column {
	c := Column{Name: name, Kind: Ordinal, Domain: frequencyDomain, Required: true}
	c.Order = rankOrder(c.Domain)
	return c
}

func binary(name string) Column {
	return Column{Name: name, Kind: Binary, Domain: binaryDomain, Required: true, Order: parseFloat}
}

func rankOrder(domain []string) func(string) (float64, error) {
	return func(raw string) (float64, error) {
		for i, d := range domain {
			if d == raw {
				return float64(i), nil
			}
		}
		return 0, fmt.Errorf("value %q has no rank", raw)
	}
}

func parseFloat(raw string) (float64, error) {
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, fmt.Errorf("value %q is not a number", raw)
	}
	return f, nil
}

// CouponSchema returns the schema of the in-vehicle coupon recommendation dataset.
func CouponSchema() *Schema {
	return NewSchema(
		categorical("destination", "No Urgent Place", "Home", "Work"),
		categorical("passanger", "Alone", "Friend(s)", "Kid(s)", "Partner"),
		categorical("weather", "Sunny", "Rainy", "Snowy"),
		Column{Name: "temperature", Kind: Numeric, Required: true, Order: parseFloat},
		categorical("time", "7AM", "10AM", "2PM", "6PM", "10PM"),
		categorical("coupon", CouponCheapRestaurant, CouponCoffeeHouse, CouponCarryOut, CouponBar, CouponExpensiveRestaurant),
		categorical("expiration", "2h", "1d"),
		categorical("gender", "Female", "Male"),
		Column{Name: "age", Kind: Ordinal, Domain: ageDomain, Required: true, Order: AgeYears},
		categorical("maritalStatus", "Single", "Married partner", "Unmarried partner", "Divorced", "Widowed"),
		binary("has_children"),
		categorical("education",
			"Some High School",
			"High School Graduate",
			"Some college - no degree",
			"Associates degree",
			"Bachelors degree",
			"Graduate degree (Masters or Doctorate)",
		),
		categorical("occupation", occupationDomain...),
		Column{Name: "income", Kind: Ordinal, Domain: incomeDomain, Required: true, Order: IncomeLowerBound},
		Column{Name: "car", Kind: Categorical, Required: true},
		frequency("Bar"),
		frequency("CoffeeHouse"),
		frequency("CarryAway"),
		frequency("RestaurantLessThan20"),
		frequency("Restaurant20To50"),
		binary("toCoupon_GEQ5min"),
		binary("toCoupon_GEQ15min"),
		binary("toCoupon_GEQ25min"),
		binary("direction_same"),
		binary("direction_opp"),
		binary(LabelColumn),
	)
}
