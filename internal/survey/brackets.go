package survey

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var incomeBoundRegexp = regexp.MustCompile(`\$(\d+)`)

// AgeYears maps an age bracket to a comparable age in years.
// "below21" maps to 20 and "50plus" to 50; numeric brackets map to their value.
func AgeYears(raw string) (float64, error) {
	switch strings.TrimSpace(raw) {
	case "below21":
		return 20, nil
	case "50plus":
		return 50, nil
	}
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("age %q is not a bracket", raw)
	}
	return float64(n), nil
}

// IncomeLowerBound maps an income bracket to its lower bound in dollars.
// "Less than $12500" maps to 0.
func IncomeLowerBound(raw string) (float64, error) {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(strings.ToLower(s), "less than") {
		return 0, nil
	}
	m := incomeBoundRegexp.FindStringSubmatch(s)
	if len(m) < 2 {
		return 0, fmt.Errorf("income %q is not a bracket", raw)
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, fmt.Errorf("income %q: %w", raw, err)
	}
	return float64(n), nil
}
