package splice

import (
	"strings"
	"testing"

	"github.com/goccy/go-json"
)

func TestEditor(t *testing.T) {
	e := New("const a = 1; const b = 2;")
	if err := e.Overwrite(6, 7, "x"); err != nil {
		t.Fatal(err)
	}
	if err := e.Overwrite(19, 20, "y"); err != nil {
		t.Fatal(err)
	}
	if e.Len() != 2 {
		t.Fatalf("expected 2 edits, got %d", e.Len())
	}
	if got := e.String(); got != "const x = 1; const y = 2;" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEditorOutOfOrder(t *testing.T) {
	// edits apply by position, not by staging order
	e := New("abcdef")
	if err := e.Overwrite(4, 5, "E"); err != nil {
		t.Fatal(err)
	}
	if err := e.Overwrite(1, 2, "B"); err != nil {
		t.Fatal(err)
	}
	if got := e.String(); got != "aBcdEf" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEditorPrepend(t *testing.T) {
	e := New("body")
	e.Prepend("second\n")
	e.Prepend("first\n")
	if got := e.String(); got != "first\nsecond\nbody" {
		t.Fatalf("unexpected output: %q", got)
	}
}

func TestEditorOverwriteErrors(t *testing.T) {
	e := New("abcdef")
	if err := e.Overwrite(4, 8, "x"); err == nil {
		t.Fatal("expected an out-of-bounds error")
	}
	if err := e.Overwrite(3, 2, "x"); err == nil {
		t.Fatal("expected an inverted-span error")
	}
	if err := e.Overwrite(1, 4, "x"); err != nil {
		t.Fatal(err)
	}
	if err := e.Overwrite(3, 5, "y"); err == nil {
		t.Fatal("expected an overlap error")
	}
}

func TestSourceMap(t *testing.T) {
	source := "line one\nimport(`./mods/${x}.js`)\nline three\n"
	e := New(source)
	start := strings.Index(source, "import(")
	if err := e.Overwrite(start, start+len("import(`./mods/${x}.js`)"), "dispatch(...)"); err != nil {
		t.Fatal(err)
	}
	e.Prepend("import dispatch from \"/@dispatch.js\";\n")

	var m struct {
		Version        int      `json:"version"`
		Sources        []string `json:"sources"`
		SourcesContent []string `json:"sourcesContent"`
		Mappings       string   `json:"mappings"`
	}
	if err := json.Unmarshal([]byte(e.SourceMap("/app/src/index.js")), &m); err != nil {
		t.Fatal(err)
	}
	if m.Version != 3 {
		t.Fatalf("unexpected version: %d", m.Version)
	}
	if len(m.Sources) != 1 || m.Sources[0] != "/app/src/index.js" {
		t.Fatalf("unexpected sources: %v", m.Sources)
	}
	if len(m.SourcesContent) != 1 || m.SourcesContent[0] != source {
		t.Fatal("sourcesContent must carry the original text")
	}
	// the prepended line maps to nothing, so the mappings start with an
	// empty generated line
	if !strings.HasPrefix(m.Mappings, ";") {
		t.Fatalf("unexpected mappings: %q", m.Mappings)
	}
	// prefix line + three source lines + the trailing newline
	if strings.Count(m.Mappings, ";") != 4 {
		t.Fatalf("unexpected mappings: %q", m.Mappings)
	}
}
