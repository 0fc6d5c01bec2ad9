package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"

	"biorempp-backend/internal/repository"
)

// Key derivation for both cache tiers. Every key is a pure function of its
// inputs: parameters and filter values are sorted before hashing so that
// semantically identical requests (e.g. KO id lists in different input
// order) normalize to the same key.

// fieldSeparator and listSeparator delimit the canonical encoding that feeds
// the hash. Unit/record separator control characters cannot occur in
// database ids, column names or CSV cell values.
const (
	fieldSeparator = "\x1e"
	listSeparator  = "\x1f"
)

// hashKey hashes the canonical encoding, keeping the first 16 hex characters
// as the cache key segment.
func hashKey(parts ...string) string {
	h := sha256.New()
	for _, p := range parts {
		h.Write([]byte(p))
		h.Write([]byte(fieldSeparator))
	}
	return hex.EncodeToString(h.Sum(nil))[:16]
}

// DataFrameKey derives the cache key for a repository query.
func DataFrameKey(databaseID string, params repository.QueryParams) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, 1+len(names))
	parts = append(parts, databaseID)
	for _, name := range names {
		values := append([]string(nil), params[name]...)
		sort.Strings(values)
		parts = append(parts, name+"="+strings.Join(values, listSeparator))
	}

	return "df:" + databaseID + ":" + hashKey(parts...)
}

// FiltersHash derives the hash segment for a normalized filter selection.
func FiltersHash(filters map[string][]string) string {
	dims := make([]string, 0, len(filters))
	for dim := range filters {
		dims = append(dims, dim)
	}
	sort.Strings(dims)

	parts := make([]string, 0, len(dims))
	for _, dim := range dims {
		values := append([]string(nil), filters[dim]...)
		sort.Strings(values)
		parts = append(parts, dim+"="+strings.Join(values, listSeparator))
	}

	return hashKey(parts...)
}

// DataHash derives the hash segment identifying the set of dataframes a
// graph was built from.
func DataHash(dataFrameKeys []string) string {
	keys := append([]string(nil), dataFrameKeys...)
	sort.Strings(keys)
	return hashKey(keys...)
}

// GraphKey derives the cache key for a rendered chart definition. The
// use-case id is kept as a plain prefix so per-use-case invalidation can
// match on it.
func GraphKey(useCaseID, dataHash, filtersHash string) string {
	return "graph:" + useCaseID + ":" + hashKey(useCaseID, dataHash, filtersHash)
}
