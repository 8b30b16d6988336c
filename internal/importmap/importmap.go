// Package importmap implements the subset of the import maps specification
// needed to resolve bare and aliased module specifiers ahead of a source
// transform: exact matches and trailing-slash prefix matches.
// https://developer.mozilla.org/en-US/docs/Web/HTML/Reference/Elements/script/type/importmap
package importmap

import (
	"sort"
	"strings"

	"github.com/goccy/go-json"
)

type importMapJson struct {
	Imports map[string]string `json:"imports,omitempty"`
}

// ImportMap holds the imports mapping with prefix entries (keys ending in
// "/") kept separately, longest prefix first.
type ImportMap struct {
	imports  map[string]string
	prefixes []prefixEntry
}

type prefixEntry struct {
	key   string
	value string
}

// Blank creates an import map with no entries.
func Blank() *ImportMap {
	return &ImportMap{imports: map[string]string{}}
}

// Parse parses an import map from JSON.
func Parse(data []byte) (*ImportMap, error) {
	var raw importMapJson
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	im := Blank()
	for key, value := range raw.Imports {
		if key == "" || value == "" {
			continue
		}
		if strings.HasSuffix(key, "/") {
			if !strings.HasSuffix(value, "/") {
				value += "/"
			}
			im.prefixes = append(im.prefixes, prefixEntry{key, value})
		} else {
			im.imports[key] = value
		}
	}
	sort.Slice(im.prefixes, func(i, j int) bool {
		return len(im.prefixes[i].key) > len(im.prefixes[j].key)
	})
	return im, nil
}

// Resolve maps a specifier through the import map. The remainder after a
// matched prefix is carried over verbatim, so interpolation placeholders in
// a specifier tail survive resolution.
func (im *ImportMap) Resolve(specifier string) (string, bool) {
	if value, ok := im.imports[specifier]; ok {
		return value, true
	}
	for _, entry := range im.prefixes {
		if strings.HasPrefix(specifier, entry.key) {
			return entry.value + specifier[len(entry.key):], true
		}
	}
	return specifier, false
}

func (im *ImportMap) Len() int {
	return len(im.imports) + len(im.prefixes)
}
