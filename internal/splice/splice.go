package splice

import (
	"fmt"
	"sort"
	"strings"
)

// Editor stages span replacements over an immutable source text and applies
// them in a single pass. The source is never mutated while edits are being
// collected; String and SourceMap walk the edit list once.
type Editor struct {
	source string
	edits  []edit
	prefix strings.Builder
}

type edit struct {
	start int
	end   int
	text  string
}

func New(source string) *Editor {
	return &Editor{source: source}
}

// Overwrite stages a replacement of source[start:end) with text. Edits must
// not overlap each other.
func (e *Editor) Overwrite(start int, end int, text string) error {
	if start < 0 || end > len(e.source) || start > end {
		return fmt.Errorf("splice: span [%d, %d) out of bounds (len %d)", start, end, len(e.source))
	}
	for _, other := range e.edits {
		if start < other.end && other.start < end {
			return fmt.Errorf("splice: span [%d, %d) overlaps [%d, %d)", start, end, other.start, other.end)
		}
	}
	e.edits = append(e.edits, edit{start, end, text})
	return nil
}

// Prepend adds text before all existing content, including previously
// prepended text.
func (e *Editor) Prepend(text string) {
	old := e.prefix.String()
	e.prefix.Reset()
	e.prefix.WriteString(text)
	e.prefix.WriteString(old)
}

func (e *Editor) Len() int {
	return len(e.edits)
}

func (e *Editor) String() string {
	sorted := e.sorted()
	buf := strings.Builder{}
	buf.WriteString(e.prefix.String())
	pos := 0
	for _, ed := range sorted {
		buf.WriteString(e.source[pos:ed.start])
		buf.WriteString(ed.text)
		pos = ed.end
	}
	buf.WriteString(e.source[pos:])
	return buf.String()
}

func (e *Editor) sorted() []edit {
	sorted := make([]edit, len(e.edits))
	copy(sorted, e.edits)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].start < sorted[j].start })
	return sorted
}
