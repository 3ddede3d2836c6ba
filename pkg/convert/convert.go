// Copyright (c) 2026 Resona. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package convert provides quick type-conversion utilities.

It wraps standards like [strconv] to provide fault-tolerant conversions
(e.g., returning 0 instead of an error when string parsing fails). This is
highly useful in API handler contexts parsing query parameters, and in the
scanner when interpreting loosely formatted audio tag values.

Do not use this package if distinguishing between malformed data and zero values
is important in your domain logic; use explicit standard libraries instead.
*/
package convert

import (
	"strconv"
	"strings"
)

// ToInt converts a string to an integer, silencing parsing errors.
// It returns 0 if the string is empty or cannot be parsed.
func ToInt(s string) int {
	if s == "" {
		return 0
	}

	v, _ := strconv.Atoi(s)
	return v
}

// ToIntD converts a string to an int, returning the provided default if parsing fails or string is empty.
func ToIntD(str string, def int) int {
	if str == "" {
		return def
	}

	if v, err := strconv.Atoi(str); err == nil {
		return v
	}

	return def
}

// ToBool parses a boolean string ("true", "1", "false", "0").
// It returns false on empty string or parse error.
func ToBool(s string) bool {
	if s == "" {
		return false
	}

	v, _ := strconv.ParseBool(s)
	return v
}

// FractionalInt parses values like "3" or "3/12" (common in TRCK/TPOS audio
// tags) and returns the numerator. It returns 0 when nothing parseable is found.
func FractionalInt(s string) int {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0
	}

	if idx := strings.IndexByte(s, '/'); idx >= 0 {
		s = s[:idx]
	}

	v, _ := strconv.Atoi(strings.TrimSpace(s))
	return v
}

// FractionalTotal parses the denominator of values like "3/12" (the
// self-reported total in TRCK/TPOS audio tags). It returns 0 when the value
// carries no total.
func FractionalTotal(s string) int {
	idx := strings.IndexByte(s, '/')
	if idx < 0 {
		return 0
	}

	v, _ := strconv.Atoi(strings.TrimSpace(s[idx+1:]))
	return v
}
