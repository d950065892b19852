package utils

import (
	"fmt"
	"strings"
)

// NormalizeName lowercases and trims a category name coming from a request.
func NormalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// SequentialSlotIDs returns prefix1..prefixN.
func SequentialSlotIDs(prefix string, count int) []string {
	ids := make([]string, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, fmt.Sprintf("%s%d", prefix, i))
	}
	return ids
}

// GridSlotIDs returns row-major ids with a two digit row and column, e.g. E0101..E0520.
func GridSlotIDs(prefix string, rows, cols int) []string {
	ids := make([]string, 0, rows*cols)
	for row := 1; row <= rows; row++ {
		for col := 1; col <= cols; col++ {
			ids = append(ids, fmt.Sprintf("%s%02d%02d", prefix, row, col))
		}
	}
	return ids
}

// CleanSlotIDs trims every id and drops empty entries, keeping request order.
func CleanSlotIDs(slots []string) []string {
	var out []string
	for _, s := range slots {
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}

// FirstDuplicate returns the first id that appears more than once.
func FirstDuplicate(ids []string) (string, bool) {
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			return id, true
		}
		seen[id] = struct{}{}
	}
	return "", false
}
