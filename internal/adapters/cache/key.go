package cache

import "strings"

const keyPrefix = "analysis"

// NormalizedKey builds the cache key for a subject and industry. Both parts are
// trimmed and lower-cased so requests differing only in case or surrounding
// whitespace share one entry.
func NormalizedKey(subject, industry string) string {
	return keyPrefix + ":" +
		strings.ToLower(strings.TrimSpace(industry)) + ":" +
		strings.ToLower(strings.TrimSpace(subject))
}
