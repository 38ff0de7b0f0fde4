package procedure

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

func parseInt(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return i, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	return int64(f), nil
}

func parseFloat(s string) (float64, error) {
	return strconv.ParseFloat(strings.TrimSpace(s), 64)
}

// parseISODuration parses the subset of ISO-8601 durations
// (PnDTnHnMnS) that map onto time.Duration; calendar units (years,
// months) aren't representable by a fixed-length Duration so they are
// rejected rather than silently approximated.
func parseISODuration(s string) (time.Duration, error) {
	if len(s) < 2 || s[0] != 'P' {
		return 0, fmt.Errorf("duration must start with P")
	}
	rest := s[1:]
	datePart, timePart, hasTime := strings.Cut(rest, "T")
	if !hasTime {
		datePart, timePart = rest, ""
	}

	var total time.Duration
	var num strings.Builder
	for _, r := range datePart {
		if r >= '0' && r <= '9' || r == '.' {
			num.WriteRune(r)
			continue
		}
		n, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration component %q", num.String())
		}
		switch r {
		case 'D':
			total += time.Duration(n * float64(24*time.Hour))
		case 'W':
			total += time.Duration(n * float64(7*24*time.Hour))
		default:
			return 0, fmt.Errorf("unsupported calendar duration unit %q", string(r))
		}
		num.Reset()
	}
	for _, r := range timePart {
		if r >= '0' && r <= '9' || r == '.' {
			num.WriteRune(r)
			continue
		}
		n, err := strconv.ParseFloat(num.String(), 64)
		if err != nil {
			return 0, fmt.Errorf("invalid duration component %q", num.String())
		}
		switch r {
		case 'H':
			total += time.Duration(n * float64(time.Hour))
		case 'M':
			total += time.Duration(n * float64(time.Minute))
		case 'S':
			total += time.Duration(n * float64(time.Second))
		default:
			return 0, fmt.Errorf("unsupported time duration unit %q", string(r))
		}
		num.Reset()
	}
	return total, nil
}
