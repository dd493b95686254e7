package validation

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"time"
)

// ParseAmount reads a monetary string. Thousands separators and surrounding
// whitespace are ignored; anything else unparsable yields 0. Numbers too
// large for a float64 parse as infinite.
func ParseAmount(s string) float64 {
	s = strings.TrimSpace(strings.ReplaceAll(s, ",", ""))
	if s == "" {
		return 0
	}
	f, err := strconv.ParseFloat(s, 64)
	switch {
	case errors.Is(err, strconv.ErrRange):
		// out of range magnitudes saturate to ±Inf (or 0 on underflow)
		return f
	case err != nil:
		return leadingNumber(s)
	case math.IsNaN(f) || math.IsInf(f, 0):
		return 0
	}
	return f
}

// leadingNumber parses the longest numeric prefix of s ("1200.50/-" -> 1200.5).
func leadingNumber(s string) float64 {
	end := 0
	seenDigit, seenDot := false, false
scan:
	for i, r := range s {
		switch {
		case r >= '0' && r <= '9':
			seenDigit = true
			end = i + 1
		case r == '.' && !seenDot:
			seenDot = true
		case (r == '-' || r == '+') && i == 0:
		default:
			break scan
		}
	}
	if !seenDigit {
		return 0
	}
	f, err := strconv.ParseFloat(s[:end], 64)
	if err != nil {
		return 0
	}
	return f
}

// ParseTenure reads a leading integer ("12", "12 months"); otherwise 0.
func ParseTenure(s string) int {
	s = strings.TrimSpace(s)
	end := 0
	for i, r := range s {
		if r >= '0' && r <= '9' {
			end = i + 1
			continue
		}
		if (r == '-' || r == '+') && i == 0 {
			continue
		}
		break
	}
	if end == 0 {
		return 0
	}
	n, err := strconv.Atoi(s[:end])
	if err != nil {
		return 0
	}
	return n
}

// ParseDate reads a DD-MM-YYYY date. Malformed or impossible dates report
// false rather than failing.
func ParseDate(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	var nums [3]int
	for i, p := range parts {
		n, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil {
			return time.Time{}, false
		}
		nums[i] = n
	}
	d, m, y := nums[0], nums[1], nums[2]
	if y <= 0 || m < 1 || m > 12 || d < 1 || d > 31 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != m {
		return time.Time{}, false
	}
	return t, true
}

// formatAmount renders a parsed amount without trailing zeros.
func formatAmount(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
