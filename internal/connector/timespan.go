package connector

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

var errInvalidPeriod = errors.New("invalid period")

// ParsePeriod accepts time spans of the form [-][d.]hh:mm[:ss[.fffffff]], a
// bare day count, or a Go duration such as "15s". The result must be positive.
func ParsePeriod(s string) (time.Duration, error) {
	s = strings.ToUpper(strings.TrimSpace(s))
	if s == "" {
		return 0, fmt.Errorf("%w: empty", errInvalidPeriod)
	}

	d, err := parseTimeSpan(s)
	if err != nil {
		var durErr error
		d, durErr = time.ParseDuration(strings.ToLower(s))
		if durErr != nil {
			return 0, fmt.Errorf("%w %q: %v", errInvalidPeriod, s, err)
		}
	}
	if d <= 0 {
		return 0, fmt.Errorf("%w %q: must be positive", errInvalidPeriod, s)
	}
	return d, nil
}

func parseTimeSpan(s string) (time.Duration, error) {
	neg := false
	if strings.HasPrefix(s, "-") {
		neg = true
		s = s[1:]
	}

	var d time.Duration
	if !strings.Contains(s, ":") {
		days, err := parseBounded(s, -1)
		if err != nil {
			return 0, err
		}
		if d, err = daysToDuration(days); err != nil {
			return 0, err
		}
	} else {
		var days int64
		if dot := strings.IndexByte(s, '.'); dot >= 0 && dot < strings.IndexByte(s, ':') {
			v, err := parseBounded(s[:dot], -1)
			if err != nil {
				return 0, err
			}
			days = v
			s = s[dot+1:]
		}

		parts := strings.Split(s, ":")
		if len(parts) > 3 {
			return 0, fmt.Errorf("too many components in %q", s)
		}
		var frac string
		if len(parts) == 3 {
			if dot := strings.IndexByte(parts[2], '.'); dot >= 0 {
				frac = parts[2][dot+1:]
				parts[2] = parts[2][:dot]
			}
		}

		limits := []int64{23, 59, 59}
		units := []time.Duration{time.Hour, time.Minute, time.Second}
		var err error
		if d, err = daysToDuration(days); err != nil {
			return 0, err
		}
		for i, p := range parts {
			v, err := parseBounded(p, limits[i])
			if err != nil {
				return 0, err
			}
			if d, err = addDuration(d, time.Duration(v)*units[i]); err != nil {
				return 0, err
			}
		}

		if frac != "" {
			if len(frac) > 7 {
				return 0, fmt.Errorf("fraction %q has more than 7 digits", frac)
			}
			ticks, err := parseBounded(frac+strings.Repeat("0", 7-len(frac)), -1)
			if err != nil {
				return 0, err
			}
			if d, err = addDuration(d, time.Duration(ticks)*100); err != nil {
				return 0, err
			}
		}
	}

	if neg {
		d = -d
	}
	return d, nil
}

const day = 24 * time.Hour

func daysToDuration(days int64) (time.Duration, error) {
	if days > math.MaxInt64/int64(day) {
		return 0, fmt.Errorf("%d days out of range", days)
	}
	return time.Duration(days) * day, nil
}

// addDuration adds two non-negative durations.
func addDuration(d, add time.Duration) (time.Duration, error) {
	if d > math.MaxInt64-add {
		return 0, errors.New("time span out of range")
	}
	return d + add, nil
}

// parseBounded parses a non-negative decimal. max < 0 means unbounded.
func parseBounded(s string, max int64) (int64, error) {
	if s == "" {
		return 0, errors.New("missing component")
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid component %q", s)
		}
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, err
	}
	if max >= 0 && v > max {
		return 0, fmt.Errorf("component %q out of range", s)
	}
	return v, nil
}
