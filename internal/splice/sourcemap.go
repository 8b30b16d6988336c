package splice

import (
	"strings"

	"github.com/goccy/go-json"
)

type sourceMapV3 struct {
	Version        int      `json:"version"`
	Sources        []string `json:"sources"`
	SourcesContent []string `json:"sourcesContent"`
	Names          []string `json:"names"`
	Mappings       string   `json:"mappings"`
}

// SourceMap encodes a source map (v3) that maps the edited output back to the
// original source. Replaced spans map to the start of the span they replaced;
// prepended text maps to nothing.
func (e *Editor) SourceMap(sourcePath string) string {
	gen := &mappingsEncoder{}
	for i := 0; i < strings.Count(e.prefix.String(), "\n"); i++ {
		gen.newline()
	}
	// the prefix rarely ends mid-line, but if it does the first original
	// chunk starts at a shifted column
	if prefix := e.prefix.String(); prefix != "" {
		if i := strings.LastIndexByte(prefix, '\n'); i < len(prefix)-1 {
			gen.genCol = len(prefix) - i - 1
		}
	}

	lines := lineOffsets(e.source)
	pos := 0
	for _, ed := range e.sorted() {
		gen.emitChunk(e.source, lines, pos, ed.start)
		// the replacement maps as one segment at the replaced span's start
		line, col := lookupLineCol(lines, ed.start)
		gen.segment(line, col)
		gen.advance(ed.text)
		pos = ed.end
	}
	gen.emitChunk(e.source, lines, pos, len(e.source))

	data, err := json.Marshal(sourceMapV3{
		Version:        3,
		Sources:        []string{sourcePath},
		SourcesContent: []string{e.source},
		Names:          []string{},
		Mappings:       gen.buf.String(),
	})
	if err != nil {
		return ""
	}
	return string(data)
}

type mappingsEncoder struct {
	buf         strings.Builder
	genCol      int
	lineHasSeg  bool
	lastGenCol  int
	lastSrcLine int
	lastSrcCol  int
}

func (m *mappingsEncoder) newline() {
	m.buf.WriteByte(';')
	m.genCol = 0
	m.lastGenCol = 0
	m.lineHasSeg = false
}

// segment emits one [genCol, source 0, srcLine, srcCol] segment at the
// current generated column.
func (m *mappingsEncoder) segment(srcLine int, srcCol int) {
	if m.lineHasSeg {
		m.buf.WriteByte(',')
	}
	appendVLQ(&m.buf, m.genCol-m.lastGenCol)
	appendVLQ(&m.buf, 0)
	appendVLQ(&m.buf, srcLine-m.lastSrcLine)
	appendVLQ(&m.buf, srcCol-m.lastSrcCol)
	m.lastGenCol = m.genCol
	m.lastSrcLine = srcLine
	m.lastSrcCol = srcCol
	m.lineHasSeg = true
}

// advance moves the generated position across text without emitting segments.
func (m *mappingsEncoder) advance(text string) {
	for {
		i := strings.IndexByte(text, '\n')
		if i < 0 {
			m.genCol += len(text)
			return
		}
		m.newline()
		text = text[i+1:]
	}
}

// emitChunk maps source[start:end) one segment per output line.
func (m *mappingsEncoder) emitChunk(source string, lines []int, start int, end int) {
	pos := start
	for pos < end {
		line, col := lookupLineCol(lines, pos)
		m.segment(line, col)
		i := strings.IndexByte(source[pos:end], '\n')
		if i < 0 {
			m.genCol += end - pos
			return
		}
		m.newline()
		pos += i + 1
	}
}

const base64Alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz0123456789+/"

func appendVLQ(buf *strings.Builder, value int) {
	v := value << 1
	if value < 0 {
		v = (-value << 1) | 1
	}
	for {
		digit := v & 31
		v >>= 5
		if v != 0 {
			digit |= 32
		}
		buf.WriteByte(base64Alphabet[digit])
		if v == 0 {
			return
		}
	}
}

// lineOffsets returns the byte offset of each line start.
func lineOffsets(source string) []int {
	offsets := []int{0}
	for i := 0; i < len(source); i++ {
		if source[i] == '\n' {
			offsets = append(offsets, i+1)
		}
	}
	return offsets
}

func lookupLineCol(lines []int, pos int) (line int, col int) {
	lo, hi := 0, len(lines)-1
	for lo < hi {
		mid := (lo + hi + 1) / 2
		if lines[mid] <= pos {
			lo = mid
		} else {
			hi = mid - 1
		}
	}
	return lo, pos - lines[lo]
}
