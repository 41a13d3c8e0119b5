package goviewset

import (
	"errors"
	"math"
	"strconv"

	"github.com/samber/lo"
)

const (
	NoLimit      = -1
	MaxLimit     = 250
	DefaultLimit = 25
)

func IsNormalizedLimitMax(limit int, maxLimit int) (int, bool) {
	if limit <= 0 {
		return DefaultLimit, false
	} else if limit > maxLimit {
		return maxLimit, false
	}

	return limit, true
}

func NormalizeLimitMax(limit int, maxLimit int) int {
	ret, _ := IsNormalizedLimitMax(limit, maxLimit)
	return ret
}

func NormalizeLimit(limit int) int {
	return NormalizeLimitMax(limit, MaxLimit)
}

// ParseRequestedLimit parses the limit exactly as the client sent it. Only a
// string of decimal digits is accepted; signs, spaces and empty values report
// ok = false. Digits beyond the range of int saturate to math.MaxInt.
func ParseRequestedLimit(raw string) (int, bool) {
	if !isDigits(raw) {
		return 0, false
	}

	limit, err := atoi(raw)
	if err != nil {
		return 0, false
	}

	return limit, true
}

// parsePositiveInt parses a query value that must be >= 0, or > 0 when strict.
func parsePositiveInt(raw string, strict bool) (int, error) {
	ret, err := atoi(raw)
	if err != nil {
		return 0, err
	}

	if ret < 0 || (ret == 0 && strict) {
		return 0, strconv.ErrRange
	}

	return ret, nil
}

// atoi is strconv.Atoi saturating unsigned digit strings that overflow int.
func atoi(raw string) (int, error) {
	ret, err := strconv.Atoi(raw)
	if errors.Is(err, strconv.ErrRange) && isDigits(raw) {
		return math.MaxInt, nil
	}

	return ret, err
}

func isDigits(raw string) bool {
	return raw != "" && lo.Every(lo.NumbersCharset, []rune(raw))
}
