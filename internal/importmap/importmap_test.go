package importmap

import (
	"testing"
)

func TestParseAndResolve(t *testing.T) {
	im, err := Parse([]byte(`{
		"imports": {
			"react": "/node_modules/react/index.js",
			"#mods/": "./src/mods/",
			"#mods/deep/": "./src/deep-mods/",
			"": "/dropped.js",
			"empty": ""
		}
	}`))
	if err != nil {
		t.Fatal(err)
	}
	if im.Len() != 3 {
		t.Fatalf("expected 3 entries, got %d", im.Len())
	}

	value, ok := im.Resolve("react")
	if !ok || value != "/node_modules/react/index.js" {
		t.Fatalf("unexpected resolution: (%q, %v)", value, ok)
	}

	// the remainder after a prefix match is carried verbatim
	value, ok = im.Resolve("#mods/${name}.js")
	if !ok || value != "./src/mods/${name}.js" {
		t.Fatalf("unexpected resolution: (%q, %v)", value, ok)
	}

	// the longest prefix wins
	value, ok = im.Resolve("#mods/deep/${name}.js")
	if !ok || value != "./src/deep-mods/${name}.js" {
		t.Fatalf("unexpected resolution: (%q, %v)", value, ok)
	}

	value, ok = im.Resolve("vue")
	if ok || value != "vue" {
		t.Fatalf("a miss must return the specifier unchanged: (%q, %v)", value, ok)
	}
}

func TestParsePrefixValueNormalization(t *testing.T) {
	im, err := Parse([]byte(`{"imports": {"lib/": "/vendor/lib"}}`))
	if err != nil {
		t.Fatal(err)
	}
	value, ok := im.Resolve("lib/util.js")
	if !ok || value != "/vendor/lib/util.js" {
		t.Fatalf("unexpected resolution: (%q, %v)", value, ok)
	}
}

func TestBlank(t *testing.T) {
	im := Blank()
	if im.Len() != 0 {
		t.Fatal("blank map must be empty")
	}
	if _, ok := im.Resolve("anything"); ok {
		t.Fatal("blank map must not resolve anything")
	}
}
