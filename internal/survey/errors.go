package survey

import (
	"fmt"
	"strings"
)

// SchemaError reports a column reference or value that does not fit the schema.
type SchemaError struct {
	Column string
	Value  string
	Reason string
}

func (e *SchemaError) Error() string {
	if e.Value != "" {
		return fmt.Sprintf("schema: column %q: value %q %s", e.Column, e.Value, e.Reason)
	}
	return fmt.Sprintf("schema: column %q: %s", e.Column, e.Reason)
}

// MissingDataError reports missing values that the cleaning policy cannot resolve.
type MissingDataError struct {
	Column string
	Rows   int
	Policy MissingPolicy
}

func (e *MissingDataError) Error() string {
	if e.Policy == "" {
		return fmt.Sprintf("missing data: column %q has %d missing value(s)", e.Column, e.Rows)
	}
	return fmt.Sprintf("missing data: column %q has %d missing value(s) that policy %q cannot resolve", e.Column, e.Rows, e.Policy)
}

// FieldError is a single field that failed to parse.
type FieldError struct {
	Row    int // 1-based data row, header excluded
	Column string
	Raw    string
	Err    error
}

func (e FieldError) Error() string {
	return fmt.Sprintf("row %d, column %q: %v", e.Row, e.Column, e.Err)
}

func (e FieldError) Unwrap() error { return e.Err }

// ParseErrors aggregates every field that failed to parse during a load.
type ParseErrors struct {
	Fields []FieldError
}

func (e *ParseErrors) Error() string {
	if e == nil || len(e.Fields) == 0 {
		return "parse errors: none"
	}
	const show = 5
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%d field(s) failed to parse", len(e.Fields)))
	for i, f := range e.Fields {
		if i == show {
			b.WriteString(fmt.Sprintf("; and %d more", len(e.Fields)-show))
			break
		}
		b.WriteString("; ")
		b.WriteString(f.Error())
	}
	return b.String()
}

// ByColumn counts failures per column.
func (e *ParseErrors) ByColumn() map[string]int {
	out := make(map[string]int)
	if e == nil {
		return out
	}
	for _, f := range e.Fields {
		out[f.Column]++
	}
	return out
}
