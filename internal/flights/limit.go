package flights

import (
	"strconv"
	"strings"
)

// Result-count bounds accepted by the backend.
const (
	DefaultLimit = 25
	MinLimit     = 5
	MaxLimit     = 100
)

// NormalizeLimit returns v when it is within [MinLimit, MaxLimit] and
// DefaultLimit otherwise.
func NormalizeLimit(v int) int {
	if v < MinLimit || v > MaxLimit {
		return DefaultLimit
	}
	return v
}

// ParseLimit coerces user input into a valid limit. Non-numeric, empty
// and out-of-range input all fall back to DefaultLimit.
func ParseLimit(s string) int {
	v, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return DefaultLimit
	}
	return NormalizeLimit(v)
}
