package utils

import (
	"sort"
	"strings"
)

// SortedUnique returns a sorted copy of values with duplicates and empty
// strings removed. The input slice is not modified.
func SortedUnique(values []string) []string {
	seen := make(map[string]struct{}, len(values))
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

// CacheKey builds an order-independent cache key for a set of
// identifiers: callers requesting overlapping subsets in different
// orders share the same key.
func CacheKey(ids []string) string {
	return strings.Join(SortedUnique(ids), ",")
}
