package transform

import (
	"strings"

	"github.com/ije/gox/utils"
)

// reserved query keys that select a dedicated load mode for every matched
// module, in priority order: the first present key wins.
var reservedQueryKeys = []string{"worker", "url", "raw"}

// splitQuery splits a specifier into its path and trailing query text.
// A '?' counts as the query delimiter only when it is not escaped with a
// backslash and the remainder contains no '/' or '}', so a '?' inside a
// later path segment or inside an interpolation never splits. Escaping
// matters because '?' is a legal filename character on posix targets.
func splitQuery(s string) (pathname string, query string) {
	for i := 0; i < len(s); i++ {
		if s[i] == '?' && (i == 0 || s[i-1] != '\\') {
			if rest := s[i+1:]; !strings.ContainsAny(rest, "/}") {
				return s[:i], rest
			}
		}
	}
	return s, ""
}

// parseQuery parses query text into a key-value mapping, best effort:
// empty keys are dropped, a pair without '=' maps to an empty value.
// Returns nil if no query exists.
func parseQuery(query string) map[string]string {
	if query == "" {
		return nil
	}
	params := map[string]string{}
	for _, kv := range strings.Split(query, "&") {
		key, value := utils.SplitByFirstByte(kv, '=')
		if key != "" {
			params[key] = value
		}
	}
	if len(params) == 0 {
		return nil
	}
	return params
}
