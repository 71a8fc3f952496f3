package domain

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
	"unicode"
)

// leadingFloatRe matches the longest decimal prefix of a cell, so "12.5 ppb"
// reads as 12.5 the way spreadsheet exports are usually consumed.
var leadingFloatRe = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)

// toFloat coerces a raw cell to a finite float64, returning 0 when the value
// is missing, unparseable, or not finite.
func toFloat(v any) float64 {
	switch t := v.(type) {
	case nil:
		return 0
	case float64:
		return finiteOrZero(t)
	case float32:
		return finiteOrZero(float64(t))
	case int:
		return float64(t)
	case int32:
		return float64(t)
	case int64:
		return float64(t)
	case uint:
		return float64(t)
	case uint32:
		return float64(t)
	case uint64:
		return float64(t)
	case bool:
		return 0
	case json.Number:
		return parseFloatOrZero(t.String())
	case string:
		return parseFloatOrZero(t)
	case []byte:
		return parseFloatOrZero(string(t))
	default:
		return parseFloatOrZero(fmt.Sprint(t))
	}
}

// parseFloatOrZero parses the leading numeric prefix of s, returning 0 on
// failure or overflow.
func parseFloatOrZero(s string) float64 {
	s = strings.TrimLeftFunc(s, unicode.IsSpace)
	m := leadingFloatRe.FindString(s)
	if m == "" {
		return 0
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0
	}
	return finiteOrZero(v)
}

func finiteOrZero(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

// toLabel renders a raw cell as text without coercion. Spreadsheet readers
// hand back numbers for cells like "S. No." = 1, which become "1".
func toLabel(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(t), 'f', -1, 32)
	case json.Number:
		return t.String()
	case []byte:
		return string(t)
	default:
		return fmt.Sprint(t)
	}
}
