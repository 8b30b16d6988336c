package transform

import (
	"testing"
)

func TestRelativePath(t *testing.T) {
	for _, tc := range []struct {
		from string
		to   string
		want string
	}{
		{"/app/src", "/app/src/mods/${name}.js", "mods/${name}.js"},
		{"/app/src/pages", "/app/src/mods/${name}.js", "../mods/${name}.js"},
		{"/app/src", "/app/src", "."},
		{"/a/b/c", "/d", "../../../d"},
		{"/", "/x.js", "x.js"},
	} {
		if got := relativePath(tc.from, tc.to); got != tc.want {
			t.Fatalf("relativePath(%q, %q) = %q, want %q", tc.from, tc.to, got, tc.want)
		}
	}
}

func TestToAbsoluteGlob(t *testing.T) {
	transformer, err := New(Config{Root: "/app"})
	if err != nil {
		t.Fatal(err)
	}
	importer := "/app/src/pages/home.js"

	for _, tc := range []struct {
		glob string
		want string
	}{
		{"./mods/${name}.js", "/app/src/pages/mods/${name}.js"},
		{"../mods/${name}.js", "/app/src/mods/${name}.js"},
		{"/assets/${name}.js", "/app/assets/${name}.js"},
	} {
		got, err := transformer.toAbsoluteGlob(tc.glob, importer)
		if err != nil {
			t.Fatalf("toAbsoluteGlob(%q): %v", tc.glob, err)
		}
		if got != tc.want {
			t.Fatalf("toAbsoluteGlob(%q) = %q, want %q", tc.glob, got, tc.want)
		}
	}

	if _, err := transformer.toAbsoluteGlob("pkg/${name}.js", importer); err == nil {
		t.Fatal("bare patterns without a resolver must not anchor")
	}
}

func TestNormalizeImportSource(t *testing.T) {
	transformer, err := New(Config{
		Resolve: func(specifier string, importer string) (string, error) {
			if specifier == "pkg/${name}.js" {
				return "/app/node_modules/pkg/${name}.js", nil
			}
			return "", nil
		},
	})
	if err != nil {
		t.Fatal(err)
	}
	importer := "/app/src/index.js"

	// relative and root-relative arguments pass through untouched
	for _, argText := range []string{"`./mods/${x}.js`", "`../mods/${x}.js`", "`/mods/${x}.js`"} {
		got, ok, err := transformer.normalizeImportSource(argText, importer)
		if err != nil || !ok || got != argText {
			t.Fatalf("normalizeImportSource(%s) = (%q, %v, %v)", argText, got, ok, err)
		}
	}

	got, ok, err := transformer.normalizeImportSource("`pkg/${name}.js`", importer)
	if err != nil {
		t.Fatal(err)
	}
	if !ok || got != "`../node_modules/pkg/${name}.js`" {
		t.Fatalf("unexpected normalized source: (%q, %v)", got, ok)
	}

	if _, ok, err := transformer.normalizeImportSource("`unknown/${x}.js`", importer); err != nil || ok {
		t.Fatalf("unresolvable specifiers must be skipped, got (%v, %v)", ok, err)
	}

	// an unresolved head interpolation passes through for pattern validation
	got, ok, err = transformer.normalizeImportSource("`${dir}/x.js`", importer)
	if err != nil || !ok || got != "`${dir}/x.js`" {
		t.Fatalf("unexpected normalized source: (%q, %v, %v)", got, ok, err)
	}
}
