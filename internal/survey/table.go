package survey

import (
	"fmt"
	"strings"
)

// Value is one parsed field.
type Value struct {
	Raw     string
	Num     float64 // ordered projection, valid when HasNum
	HasNum  bool
	Missing bool
}

// Record is one survey response.
type Record struct {
	schema *Schema
	values []Value
}

// NewRecord binds values to a schema; values must be in schema order.
func NewRecord(schema *Schema, values []Value) (Record, error) {
	if len(values) != schema.Len() {
		return Record{}, fmt.Errorf("record has %d values, schema has %d columns", len(values), schema.Len())
	}
	cp := make([]Value, len(values))
	copy(cp, values)
	return Record{schema: schema, values: cp}, nil
}

// Schema returns the record's schema.
func (r Record) Schema() *Schema { return r.schema }

// Column returns the named column definition.
func (r Record) Column(name string) (Column, bool) {
	if r.schema == nil {
		return Column{}, false
	}
	c, _, err := r.schema.Lookup(name)
	return c, err == nil
}

// Value returns the named field or a *SchemaError.
func (r Record) Value(name string) (Value, error) {
	if r.schema == nil {
		return Value{}, &SchemaError{Column: name, Reason: "record has no schema"}
	}
	_, i, err := r.schema.Lookup(name)
	if err != nil {
		return Value{}, err
	}
	return r.values[i], nil
}

// Get returns the named field, or a missing Value when the column does not exist.
func (r Record) Get(name string) Value {
	v, err := r.Value(name)
	if err != nil {
		return Value{Missing: true}
	}
	return v
}

// Label returns Y and whether it is defined.
func (r Record) Label() (int, bool) {
	v := r.Get(LabelColumn)
	if v.Missing || !v.HasNum {
		return 0, false
	}
	return int(v.Num), true
}

// Accepted reports whether Y == 1.
func (r Record) Accepted() bool {
	y, ok := r.Label()
	return ok && y == 1
}

// Fields returns the raw values in schema order, with missing fields as "".
func (r Record) Fields() []string {
	out := make([]string, len(r.values))
	for i, v := range r.values {
		if !v.Missing {
			out[i] = v.Raw
		}
	}
	return out
}

// Values returns a copy of the parsed fields in schema order.
func (r Record) Values() []Value {
	cp := make([]Value, len(r.values))
	copy(cp, r.values)
	return cp
}

func (r Record) key() string {
	var b strings.Builder
	for i, v := range r.values {
		if i > 0 {
			b.WriteByte('\x1f')
		}
		if v.Missing {
			b.WriteByte('\x00')
			continue
		}
		b.WriteString(v.Raw)
	}
	return b.String()
}

func (r Record) with(i int, v Value) Record {
	cp := make([]Value, len(r.values))
	copy(cp, r.values)
	cp[i] = v
	return Record{schema: r.schema, values: cp}
}

func (r Record) rebind(schema *Schema) Record {
	return Record{schema: schema, values: r.values}
}

// Table is an immutable, ordered collection of records sharing a schema.
type Table struct {
	name    string
	schema  *Schema
	records []Record
}

// NewTable copies records into a new table.
func NewTable(name string, schema *Schema, records []Record) *Table {
	cp := make([]Record, len(records))
	copy(cp, records)
	return &Table{name: name, schema: schema, records: cp}
}

// FromRows parses rows keyed by column name. Columns absent from a row are missing.
func FromRows(schema *Schema, rows ...map[string]string) (*Table, error) {
	cols := schema.Columns()
	records := make([]Record, 0, len(rows))
	for n, row := range rows {
		for k := range row {
			if !schema.Has(k) {
				return nil, &SchemaError{Column: k, Reason: "no such column"}
			}
		}
		values := make([]Value, len(cols))
		for i, c := range cols {
			v, err := c.Parse(row[c.Name])
			if err != nil {
				return nil, FieldError{Row: n + 1, Column: c.Name, Raw: row[c.Name], Err: err}
			}
			values[i] = v
		}
		records = append(records, Record{schema: schema, values: values})
	}
	return &Table{schema: schema, records: records}, nil
}

// Name returns the table's source name.
func (t *Table) Name() string { return t.name }

// Schema returns the table schema.
func (t *Table) Schema() *Schema { return t.schema }

// Len returns the number of records.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.records)
}

// At returns the i-th record.
func (t *Table) At(i int) Record { return t.records[i] }

// Records returns a copy of the records.
func (t *Table) Records() []Record {
	out := make([]Record, len(t.records))
	copy(out, t.records)
	return out
}

// Filter returns a new table with the records for which keep returns true.
func (t *Table) Filter(keep func(Record) bool) *Table {
	out := make([]Record, 0, len(t.records))
	for _, r := range t.records {
		if keep(r) {
			out = append(out, r)
		}
	}
	return &Table{name: t.name, schema: t.schema, records: out}
}

// Head returns a table holding at most the first n records.
func (t *Table) Head(n int) *Table {
	if n > len(t.records) {
		n = len(t.records)
	}
	if n < 0 {
		n = 0
	}
	return NewTable(t.name, t.schema, t.records[:n])
}

// Column returns the named column's values in record order.
func (t *Table) Column(name string) ([]Value, error) {
	_, i, err := t.schema.Lookup(name)
	if err != nil {
		return nil, err
	}
	out := make([]Value, len(t.records))
	for j, r := range t.records {
		out[j] = r.values[i]
	}
	return out, nil
}

// CouponIn returns the records whose coupon type is one of coupons.
func (t *Table) CouponIn(coupons ...string) *Table {
	set := make(map[string]struct{}, len(coupons))
	for _, c := range coupons {
		set[c] = struct{}{}
	}
	return t.Filter(func(r Record) bool {
		v := r.Get("coupon")
		if v.Missing {
			return false
		}
		_, ok := set[v.Raw]
		return ok
	})
}

// Duplicates counts records that repeat an earlier record exactly.
func (t *Table) Duplicates() int {
	seen := make(map[string]struct{}, len(t.records))
	n := 0
	for _, r := range t.records {
		k := r.key()
		if _, ok := seen[k]; ok {
			n++
			continue
		}
		seen[k] = struct{}{}
	}
	return n
}
