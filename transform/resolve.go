package transform

import (
	"fmt"
	"os"
	"path"
	"strings"
)

// ResolveFunc resolves a bare or aliased specifier against an importing
// module and returns an absolute file path. An empty path with a nil error
// means the specifier cannot be resolved (the import is intentionally
// dynamic); a non-nil error is reported through the configured policy.
type ResolveFunc func(specifier string, importer string) (string, error)

func isRelPathSpecifier(specifier string) bool {
	return strings.HasPrefix(specifier, "./") || strings.HasPrefix(specifier, "../")
}

// MakePathOsAgnostic makes the given path OS agnostic by replacing
// backslashes with forward slashes.
func MakePathOsAgnostic(p string) string {
	if os.PathSeparator == '\\' {
		return strings.ReplaceAll(p, "\\", "/")
	}
	return p
}

// normalizeImportSource rewrites a bare import argument relative to the
// importer via the injected resolver, keeping any interpolations in the
// specifier opaque. ok is false when the candidate should be skipped.
func (t *Transformer) normalizeImportSource(argText string, importer string) (source string, ok bool, err error) {
	if len(argText) < 3 {
		return argText, true, nil
	}
	if c := argText[1]; c == '.' || c == '/' {
		return argText, true, nil
	}
	if t.resolve == nil {
		// an unresolved head interpolation still reaches extraction so the
		// wildcard-start violation gets reported instead of swallowed
		if strings.HasPrefix(argText[1:], "${") {
			return argText, true, nil
		}
		return "", false, nil
	}
	resolved, err := t.resolve(argText[1:len(argText)-1], importer)
	if err != nil {
		return "", false, fmt.Errorf("resolve %s: %w", argText, err)
	}
	if resolved == "" {
		if strings.HasPrefix(argText[1:], "${") {
			return argText, true, nil
		}
		return "", false, nil
	}
	rel := relativePath(path.Dir(MakePathOsAgnostic(importer)), MakePathOsAgnostic(resolved))
	if !isRelPathSpecifier(rel) {
		rel = "./" + rel
	}
	return "`" + rel + "`", true, nil
}

// toAbsoluteGlob anchors a glob pattern on the filesystem: relative patterns
// against the importer's directory, root-relative patterns against the
// project root, anything else through the resolver.
func (t *Transformer) toAbsoluteGlob(glob string, importer string) (string, error) {
	dir := t.root
	if importer != "" {
		dir = path.Dir(MakePathOsAgnostic(importer))
	}
	switch {
	case strings.HasPrefix(glob, "/"):
		return path.Join(t.root, glob[1:]), nil
	case strings.HasPrefix(glob, "./"):
		return path.Join(dir, glob[2:]), nil
	case strings.HasPrefix(glob, "../"):
		return path.Join(dir, glob), nil
	case strings.HasPrefix(glob, "**"):
		return glob, nil
	}
	if t.resolve != nil {
		resolved, err := t.resolve(glob, importer)
		if err == nil && strings.HasPrefix(MakePathOsAgnostic(resolved), "/") {
			return MakePathOsAgnostic(resolved), nil
		}
	}
	return "", fmt.Errorf("invalid glob %q: pattern cannot be anchored to an absolute path", glob)
}

// relativePath computes a posix relative path from one directory to a
// target. Both inputs are treated as opaque posix path strings so that
// interpolation placeholders survive untouched.
func relativePath(from string, to string) string {
	if from == "" {
		from = "."
	}
	fromParts := splitPath(path.Clean(from))
	toParts := splitPath(path.Clean(to))
	common := 0
	for common < len(fromParts) && common < len(toParts) && fromParts[common] == toParts[common] {
		common++
	}
	parts := make([]string, 0, len(fromParts)-common+len(toParts)-common)
	for i := common; i < len(fromParts); i++ {
		parts = append(parts, "..")
	}
	parts = append(parts, toParts[common:]...)
	if len(parts) == 0 {
		return "."
	}
	return strings.Join(parts, "/")
}

func splitPath(p string) []string {
	if p == "." || p == "" {
		return nil
	}
	if p == "/" {
		return []string{""}
	}
	return strings.Split(p, "/")
}
