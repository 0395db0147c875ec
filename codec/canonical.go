package codec

import (
	"sort"

	"xdao.co/canonval/value"
)

// canonicalKeys returns the keys of m in canonical wire order: ascending key
// byte-length first, lexicographic byte order for equal lengths. Keys are
// unique within a map, so the order is total.
func canonicalKeys(m map[string]value.Value) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		a, b := keys[i], keys[j]
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return keys
}
