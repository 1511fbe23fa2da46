package sectioning

import "strings"

// NormalizeKey canonicalizes a section key for matching: upper-case, single spaces,
// no trailing periods. "sec.  5." and "SEC. 5" both become "SEC. 5".
func NormalizeKey(key string) string {
	normalized := strings.Join(strings.Fields(strings.ToUpper(key)), " ")
	return strings.TrimRight(normalized, ".")
}
