package npm

import (
	"os"
	"path"
	"testing"
)

func TestParseSpecifier(t *testing.T) {
	for _, tc := range []struct {
		specifier string
		pkgName   string
		subpath   string
	}{
		{"react", "react", ""},
		{"react-dom/client", "react-dom", "client"},
		{"preact/hooks/${name}.js", "preact", "hooks/${name}.js"},
		{"@scope/pkg", "@scope/pkg", ""},
		{"@scope/pkg/sub/${name}.js", "@scope/pkg", "sub/${name}.js"},
	} {
		pkgName, subpath := ParseSpecifier(tc.specifier)
		if pkgName != tc.pkgName || subpath != tc.subpath {
			t.Fatalf("ParseSpecifier(%q) = (%q, %q), want (%q, %q)", tc.specifier, pkgName, subpath, tc.pkgName, tc.subpath)
		}
	}
}

func writePackage(t *testing.T, dir string, pkgName string, packageJson string) string {
	t.Helper()
	pkgDir := path.Join(dir, "node_modules", pkgName)
	if err := os.MkdirAll(pkgDir, 0755); err != nil {
		t.Fatal(err)
	}
	if packageJson != "" {
		if err := os.WriteFile(path.Join(pkgDir, "package.json"), []byte(packageJson), 0644); err != nil {
			t.Fatal(err)
		}
	}
	return pkgDir
}

func TestResolve(t *testing.T) {
	appDir := t.TempDir()
	importer := path.Join(appDir, "src", "pages", "home.js")

	pkgDir := writePackage(t, appDir, "esm-pkg", `{"name": "esm-pkg", "module": "esm/index.mjs", "main": "cjs/index.js"}`)
	if got := Resolve("esm-pkg", importer); got != path.Join(pkgDir, "esm/index.mjs") {
		t.Fatalf("unexpected resolution: %q", got)
	}

	// subpaths are joined opaquely, placeholders intact
	if got := Resolve("esm-pkg/widgets/${name}.js", importer); got != path.Join(pkgDir, "widgets/${name}.js") {
		t.Fatalf("unexpected resolution: %q", got)
	}

	scopedDir := writePackage(t, appDir, "@scope/pkg", `{"name": "@scope/pkg", "exports": {".": {"import": "./dist/index.mjs"}}}`)
	if got := Resolve("@scope/pkg", importer); got != path.Join(scopedDir, "dist/index.mjs") {
		t.Fatalf("unexpected resolution: %q", got)
	}

	barePkg := writePackage(t, appDir, "bare-pkg", "")
	if got := Resolve("bare-pkg", importer); got != path.Join(barePkg, "index.js") {
		t.Fatalf("packages without a manifest default to index.js, got %q", got)
	}

	if got := Resolve("not-installed", importer); got != "" {
		t.Fatalf("missing packages must not resolve, got %q", got)
	}
	if got := Resolve("./relative.js", importer); got != "" {
		t.Fatalf("relative specifiers are out of scope, got %q", got)
	}
}

func TestResolveWalksUp(t *testing.T) {
	appDir := t.TempDir()
	pkgDir := writePackage(t, appDir, "shared", `{"main": "lib/index.js"}`)

	// importer lives two directories below the node_modules root
	importer := path.Join(appDir, "packages", "web", "src", "app.js")
	if err := os.MkdirAll(path.Dir(importer), 0755); err != nil {
		t.Fatal(err)
	}
	if got := Resolve("shared", importer); got != path.Join(pkgDir, "lib/index.js") {
		t.Fatalf("unexpected resolution: %q", got)
	}
}

func TestExportsEntry(t *testing.T) {
	for _, tc := range []struct {
		exports string
		want    string
	}{
		{`"./lib/index.js"`, "./lib/index.js"},
		{`{".": "./dist/index.mjs"}`, "./dist/index.mjs"},
		{`{".": {"import": "./dist/index.mjs", "require": "./dist/index.cjs"}}`, "./dist/index.mjs"},
		{`{"import": "./dist/index.mjs"}`, "./dist/index.mjs"},
		{`{"./sub": "./dist/sub.js"}`, ""},
	} {
		if got := exportsEntry([]byte(tc.exports)); got != tc.want {
			t.Fatalf("exportsEntry(%s) = %q, want %q", tc.exports, got, tc.want)
		}
	}
}
