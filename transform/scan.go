package transform

// importRecord locates one import occurrence in the module text. For dynamic
// imports the specifier span covers the first call argument; for static
// imports it covers the quoted specifier without quotes.
type importRecord struct {
	specifierStart int
	specifierEnd   int
	exprStart      int
	exprEnd        int
	isDynamic      bool
}

// scanImports performs a lexical pass over the module text and records every
// import occurrence with byte offsets. The scan never fails: text the parser
// would reject simply yields fewer (or zero) records.
func scanImports(code string) []importRecord {
	var records []importRecord
	i := 0
	for i < len(code) {
		switch c := code[i]; c {
		case '/':
			i = skipComment(code, i)
		case '\'', '"':
			i = skipString(code, i)
		case '`':
			i = skipTemplate(code, i, &records)
		default:
			if c == 'i' && isImportKeywordAt(code, i) {
				record, next := scanImportAt(code, i)
				if record != nil {
					records = append(records, *record)
				}
				i = next
				continue
			}
			i++
		}
	}
	return records
}

func isIdentChar(c byte) bool {
	return c == '$' || c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func isImportKeywordAt(code string, i int) bool {
	if i > 0 && isIdentChar(code[i-1]) {
		return false
	}
	if i > 0 && code[i-1] == '.' {
		return false
	}
	end := i + len("import")
	if end > len(code) || code[i:end] != "import" {
		return false
	}
	return end == len(code) || !isIdentChar(code[end])
}

// scanImportAt classifies the import at i and returns its record (nil when
// the occurrence is `import.meta` or carries no usable specifier) plus the
// position to resume scanning from.
func scanImportAt(code string, i int) (*importRecord, int) {
	j := skipSpaceAndComments(code, i+len("import"))
	if j >= len(code) {
		return nil, len(code)
	}
	switch code[j] {
	case '(':
		closing, comma := findCallEnd(code, j)
		if closing < 0 {
			return nil, len(code)
		}
		argEnd := closing
		if comma >= 0 {
			argEnd = comma
		}
		start, end := trimSpan(code, j+1, argEnd)
		return &importRecord{
			specifierStart: start,
			specifierEnd:   end,
			exprStart:      i,
			exprEnd:        closing + 1,
			isDynamic:      true,
		}, closing + 1
	case '.':
		// import.meta
		return nil, j + 1
	}
	return scanStaticImport(code, i, j)
}

// scanStaticImport scans the clause of a static import statement up to its
// quoted specifier.
func scanStaticImport(code string, exprStart int, i int) (*importRecord, int) {
	for i < len(code) {
		switch c := code[i]; c {
		case '\'', '"':
			end := skipString(code, i)
			return &importRecord{
				specifierStart: i + 1,
				specifierEnd:   end - 1,
				exprStart:      exprStart,
				exprEnd:        end,
				isDynamic:      false,
			}, end
		case '/':
			i = skipComment(code, i)
		case ';', '\n':
			// no specifier before the statement ended, e.g. `import` used
			// as a TypeScript type clause the scan does not model
			return nil, i + 1
		default:
			i++
		}
	}
	return nil, len(code)
}

// findCallEnd returns the offset of the ')' closing the call opened at
// openParen, plus the offset of the first top-level ',' inside it (or -1).
func findCallEnd(code string, openParen int) (closing int, comma int) {
	depth := 1
	comma = -1
	i := openParen + 1
	for i < len(code) {
		switch code[i] {
		case '(':
			depth++
			i++
		case ')':
			depth--
			if depth == 0 {
				return i, comma
			}
			i++
		case ',':
			if depth == 1 && comma < 0 {
				comma = i
			}
			i++
		case '\'', '"':
			i = skipString(code, i)
		case '`':
			i = skipTemplate(code, i, nil)
		case '/':
			i = skipComment(code, i)
		default:
			i++
		}
	}
	return -1, comma
}

// skipComment advances past a line or block comment starting at i; when i is
// a lone '/', it advances one byte.
func skipComment(code string, i int) int {
	if i+1 < len(code) && code[i+1] == '/' {
		for i < len(code) && code[i] != '\n' {
			i++
		}
		return i
	}
	if i+1 < len(code) && code[i+1] == '*' {
		for j := i + 2; j+1 < len(code); j++ {
			if code[j] == '*' && code[j+1] == '/' {
				return j + 2
			}
		}
		return len(code)
	}
	return i + 1
}

func skipSpaceAndComments(code string, i int) int {
	for i < len(code) {
		switch c := code[i]; {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '/' && i+1 < len(code) && (code[i+1] == '/' || code[i+1] == '*'):
			i = skipComment(code, i)
		default:
			return i
		}
	}
	return i
}

// skipString advances past a single- or double-quoted string starting at i.
func skipString(code string, i int) int {
	quote := code[i]
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case quote:
			return j + 1
		case '\n':
			// unterminated
			return j + 1
		}
	}
	return len(code)
}

// skipTemplate advances past a template literal starting at i, including
// nested interpolations. When records is non-nil, imports found inside
// interpolation bodies are recorded.
func skipTemplate(code string, i int, records *[]importRecord) int {
	for j := i + 1; j < len(code); j++ {
		switch code[j] {
		case '\\':
			j++
		case '`':
			return j + 1
		case '$':
			if j+1 < len(code) && code[j+1] == '{' {
				j = skipInterpolation(code, j+1, records) - 1
			}
		}
	}
	return len(code)
}

// skipInterpolation advances past a `${ ... }` body opened at the '{'. The
// body is expression code, so imports in it count like top-level ones.
func skipInterpolation(code string, openBrace int, records *[]importRecord) int {
	depth := 1
	i := openBrace + 1
	for i < len(code) {
		switch c := code[i]; c {
		case '{':
			depth++
			i++
		case '}':
			depth--
			if depth == 0 {
				return i + 1
			}
			i++
		case '\'', '"':
			i = skipString(code, i)
		case '`':
			i = skipTemplate(code, i, records)
		case '/':
			i = skipComment(code, i)
		default:
			if c == 'i' && records != nil && isImportKeywordAt(code, i) {
				record, next := scanImportAt(code, i)
				if record != nil {
					*records = append(*records, *record)
				}
				i = next
				continue
			}
			i++
		}
	}
	return len(code)
}

// trimSpan trims whitespace and surrounding comments from a source span.
func trimSpan(code string, start int, end int) (int, int) {
	start = skipSpaceAndComments(code, start)
	for end > start {
		switch code[end-1] {
		case ' ', '\t', '\n', '\r':
			end--
		default:
			return start, end
		}
	}
	return start, end
}
