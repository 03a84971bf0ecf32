// Package toolutil provides small helpers shared by the MCP tool handlers.
package toolutil

import (
	"strconv"
	"strings"
)

// FirstNonEmpty returns the first value that is not blank after trimming, trimmed.
func FirstNonEmpty(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// ClampLimit maps n <= 0 to def and caps it at max.
func ClampLimit(n, def, max int) int {
	if n <= 0 {
		n = def
	}
	if n > max {
		return max
	}
	return n
}

// KeyPart formats numbers for cache keys so equal values give equal keys.
func KeyPart(v any) string {
	switch x := v.(type) {
	case int:
		return strconv.Itoa(x)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(x)
	case string:
		return x
	default:
		return ""
	}
}
