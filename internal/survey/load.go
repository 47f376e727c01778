package survey

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// LoadOptions controls how a survey file is read.
type LoadOptions struct {
	// Delimiter for CSV. If 0, picked from the file extension (.tsv is tab, otherwise ',').
	Delimiter rune
	// Strict fails the load when any field does not parse. Otherwise the field
	// becomes missing and the failure is listed in LoadReport.Issues.
	Strict bool
}

// LoadReport describes what happened while reading a survey file.
type LoadReport struct {
	Name   string
	Rows   int
	Extra  []string // header columns not in the schema
	Issues []FieldError
}

// LoadFile opens path and loads it with Load.
func LoadFile(path string, schema *Schema, opt LoadOptions) (*Table, *LoadReport, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open survey: %w", err)
	}
	defer f.Close()
	if opt.Delimiter == 0 {
		opt.Delimiter = sniffDelimiter(path)
	}
	t, rep, err := Load(f, schema, opt)
	if err != nil {
		return nil, rep, err
	}
	t.name = filepath.Base(path)
	rep.Name = t.name
	return t, rep, nil
}

// Load reads a delimited survey with a header row. Every schema column must
// appear in the header; extra columns are ignored and reported.
func Load(r io.Reader, schema *Schema, opt LoadOptions) (*Table, *LoadReport, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true
	cr.Comma = opt.Delimiter
	if cr.Comma == 0 {
		cr.Comma = ','
	}

	rep := &LoadReport{}
	header, err := cr.Read()
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, rep, errors.New("read header: empty input")
		}
		return nil, rep, fmt.Errorf("read header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, h := range header {
		h = strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))
		if !schema.Has(h) {
			rep.Extra = append(rep.Extra, h)
			continue
		}
		pos[h] = i
	}
	cols := schema.Columns()
	for _, c := range cols {
		if _, ok := pos[c.Name]; !ok {
			return nil, rep, &SchemaError{Column: c.Name, Reason: "missing from header"}
		}
	}

	var records []Record
	var failed []FieldError
	for {
		rec, err := cr.Read()
		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, rep, fmt.Errorf("read row %d: %w", rep.Rows+1, err)
		}
		rep.Rows++
		values := make([]Value, len(cols))
		for i, c := range cols {
			raw := ""
			if j := pos[c.Name]; j < len(rec) {
				raw = rec[j]
			}
			v, err := c.Parse(raw)
			if err != nil {
				failed = append(failed, FieldError{Row: rep.Rows, Column: c.Name, Raw: raw, Err: err})
				v = Value{Missing: true}
			}
			values[i] = v
		}
		records = append(records, Record{schema: schema, values: values})
	}

	if len(failed) > 0 {
		if opt.Strict {
			return nil, rep, &ParseErrors{Fields: failed}
		}
		rep.Issues = failed
	}
	return &Table{schema: schema, records: records}, rep, nil
}

func sniffDelimiter(path string) rune {
	if strings.HasSuffix(strings.ToLower(path), ".tsv") {
		return '\t'
	}
	return ','
}
