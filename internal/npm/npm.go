// Package npm resolves bare specifiers against locally installed packages:
// scoped-name parsing, walk-up node_modules lookup, and entry selection from
// package.json. It performs no network access.
package npm

import (
	"os"
	"path"
	"strings"

	"github.com/goccy/go-json"
	"github.com/ije/gox/utils"
)

// PackageJSON is the subset of package.json used for entry selection.
type PackageJSON struct {
	Name    string          `json:"name"`
	Version string          `json:"version"`
	Main    string          `json:"main"`
	Module  string          `json:"module"`
	Exports json.RawMessage `json:"exports"`
}

// ParseSpecifier splits a bare specifier into its package name and subpath,
// honoring scoped names ("@scope/name/sub/path").
func ParseSpecifier(specifier string) (pkgName string, subpath string) {
	pkgName, subpath = utils.SplitByFirstByte(specifier, '/')
	if strings.HasPrefix(pkgName, "@") && subpath != "" {
		name, rest := utils.SplitByFirstByte(subpath, '/')
		pkgName = pkgName + "/" + name
		subpath = rest
	}
	return
}

// FindPackageDir walks up from the importer's directory looking for
// node_modules/<pkgName>. Returns "" when the package is not installed.
func FindPackageDir(pkgName string, fromDir string) string {
	dir := fromDir
	for {
		pkgDir := path.Join(dir, "node_modules", pkgName)
		if fi, err := os.Lstat(pkgDir); err == nil && fi.IsDir() {
			return pkgDir
		}
		parent := path.Dir(dir)
		if parent == dir {
			return ""
		}
		dir = parent
	}
}

// Resolve resolves a bare specifier to an absolute file path relative to the
// importing module. A subpath is kept opaque (it may contain interpolation
// placeholders); a bare package name resolves to its entry module. Returns
// "" when the specifier cannot be resolved.
func Resolve(specifier string, importer string) string {
	pkgName, subpath := ParseSpecifier(specifier)
	if pkgName == "" || strings.HasPrefix(pkgName, ".") {
		return ""
	}
	fromDir := path.Dir(importer)
	pkgDir := FindPackageDir(pkgName, fromDir)
	if pkgDir == "" {
		return ""
	}
	if subpath != "" {
		return path.Join(pkgDir, subpath)
	}
	entry := resolveEntry(pkgDir)
	if entry == "" {
		return ""
	}
	return path.Join(pkgDir, entry)
}

// resolveEntry picks the package entry module: the "." condition of the
// exports field when present, otherwise "module" then "main", defaulting to
// index.js.
func resolveEntry(pkgDir string) string {
	data, err := os.ReadFile(path.Join(pkgDir, "package.json"))
	if err != nil {
		return "index.js"
	}
	var pkg PackageJSON
	if json.Unmarshal(data, &pkg) != nil {
		return "index.js"
	}
	if len(pkg.Exports) > 0 {
		if entry := exportsEntry(pkg.Exports); entry != "" {
			return entry
		}
	}
	if pkg.Module != "" {
		return pkg.Module
	}
	if pkg.Main != "" {
		return pkg.Main
	}
	return "index.js"
}

// exportsEntry extracts the root entry from an exports field: a plain string,
// or the "." key, or an "import"/"default" condition, recursively.
func exportsEntry(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	var obj map[string]json.RawMessage
	if json.Unmarshal(raw, &obj) != nil {
		return ""
	}
	for _, key := range []string{".", "import", "module", "default"} {
		if sub, ok := obj[key]; ok {
			if entry := exportsEntry(sub); entry != "" {
				return entry
			}
		}
	}
	return ""
}
