package cache

import (
	"crypto/md5"
	"encoding/hex"
	"sort"
	"strings"
)

// QueryKey derives a deterministic cache key from a query type and its
// parameters. Parameter order does not affect the key: keys are sorted
// before hashing, so logically identical queries always collide.
func QueryKey(queryType string, params map[string]string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(queryType)
	for _, k := range keys {
		b.WriteByte('|')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}

	sum := md5.Sum([]byte(b.String()))
	return queryType + ":" + hex.EncodeToString(sum[:])
}
