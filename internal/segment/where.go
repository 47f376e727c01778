package segment

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseWhere parses a filter of the form "column op value[,value...]".
// Operators: =, !=, in, notin, <, <=, >, >=. Ordered operators accept a
// number or a domain value such as "1~3" or "$50000 - $62499".
func ParseWhere(expr string) (Predicate, error) {
	fields := strings.Fields(expr)
	if len(fields) < 3 {
		return nil, fmt.Errorf("invalid filter %q: want \"column op value\"", expr)
	}
	column, op := fields[0], strings.ToLower(fields[1])
	value := strings.Join(fields[2:], " ")
	list := func() []string {
		parts := strings.Split(value, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		return out
	}

	switch op {
	case "=", "==":
		return Eq(column, value), nil
	case "!=", "<>":
		return Ne(column, value), nil
	case "in":
		return In(column, list()...), nil
	case "notin", "not-in":
		return NotIn(column, list()...), nil
	case ">", ">=", "<", "<=":
		var o compareOp
		switch op {
		case ">":
			o = opGt
		case ">=":
			o = opGe
		case "<":
			o = opLt
		default:
			o = opLe
		}
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return comparison{column: column, op: o, bound: f}, nil
		}
		return compareRaw(column, o, value), nil
	}
	return nil, fmt.Errorf("invalid filter %q: unknown operator %q", expr, fields[1])
}

// ParseWheres parses each filter and joins them with And.
func ParseWheres(exprs []string) (Predicate, error) {
	parts := make([]Predicate, 0, len(exprs))
	for _, e := range exprs {
		p, err := ParseWhere(e)
		if err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	if len(parts) == 1 {
		return parts[0], nil
	}
	return And(parts...), nil
}
