package transform

import (
	"fmt"
	"path"
	"regexp"
	"strings"

	"github.com/esm-dev/dynamic-import-vars/internal/splice"
	"github.com/ije/gox/utils"
)

const (
	helperName = "__dynamicImportDispatch"

	// DefaultHelperModule is the import specifier bound to the runtime
	// dispatch helper when none is configured. The host pipeline (or the
	// bundled HTTP server) is expected to serve the helper module there.
	DefaultHelperModule = "/@dispatch.js"
)

// expressions carrying this marker are never rewritten
var regIgnoreMarker = regexp.MustCompile(`/\*\s*@dynamic-import-ignore\s*\*/`)

type Config struct {
	// Root anchors root-relative glob patterns. Defaults to "/".
	Root string
	// Resolve resolves bare/aliased specifiers. Optional; without it bare
	// dynamic imports are left untouched.
	Resolve ResolveFunc
	// HelperModule overrides the dispatch helper import specifier.
	HelperModule string
	// WarnOnError reports resolution failures as warnings and keeps going
	// instead of aborting the module's transform.
	WarnOnError bool
	// OnWarning receives non-fatal diagnostics. Optional.
	OnWarning func(msg string, importer string)
	// CacheSize caps the transform memoization cache in bytes of source
	// text. Zero disables caching.
	CacheSize int64
}

// Transformer rewrites variable dynamic imports into statically enumerable
// glob-import calls. It holds no per-module state; concurrent Transform
// calls on different modules are safe.
type Transformer struct {
	root         string
	resolve      ResolveFunc
	helperModule string
	warnOnError  bool
	onWarning    func(msg string, importer string)
	cache        *outputCache
}

// Output is the final module text after all qualifying substitutions, plus
// its source map (a JSON string) back to the original text.
type Output struct {
	Code string
	Map  string
}

// Rewrite is the staged replacement for one qualifying expression.
type Rewrite struct {
	RawPattern string
	Pattern    string
	Glob       string
}

func New(config Config) (*Transformer, error) {
	t := &Transformer{
		root:         config.Root,
		resolve:      config.Resolve,
		helperModule: config.HelperModule,
		warnOnError:  config.WarnOnError,
		onWarning:    config.OnWarning,
	}
	if t.root == "" {
		t.root = "/"
	}
	if t.helperModule == "" {
		t.helperModule = DefaultHelperModule
	}
	if config.CacheSize > 0 {
		cache, err := newOutputCache(config.CacheSize)
		if err != nil {
			return nil, err
		}
		t.cache = cache
	}
	return t, nil
}

// Transform scans one module's text for variable dynamic imports and rewrites
// every convertible one. A (nil, nil) return means the module is unmodified.
func (t *Transformer) Transform(code string, importer string) (*Output, error) {
	if !strings.Contains(code, "import(") {
		return nil, nil
	}
	if t.cache != nil {
		if output, ok := t.cache.get(importer, code); ok {
			return output, nil
		}
	}

	editor := splice.New(code)
	for _, record := range scanImports(code) {
		if !record.isDynamic {
			continue
		}
		arg := code[record.specifierStart:record.specifierEnd]
		if len(arg) == 0 || arg[0] != '`' {
			continue
		}
		if regIgnoreMarker.MatchString(code[record.exprStart:record.exprEnd]) {
			continue
		}
		rewrite, err := t.transformDynamicImport(arg, importer)
		if err != nil {
			if !t.warnOnError {
				return nil, err
			}
			t.warn(err.Error(), importer)
			continue
		}
		if rewrite == nil {
			continue
		}
		err = editor.Overwrite(record.exprStart, record.exprEnd, fmt.Sprintf("%s(%s, `%s`)", helperName, rewrite.Glob, rewrite.RawPattern))
		if err != nil {
			return nil, err
		}
	}
	if editor.Len() == 0 {
		if t.cache != nil {
			t.cache.put(importer, code, nil)
		}
		return nil, nil
	}

	editor.Prepend(fmt.Sprintf("import %s from %q;\n", helperName, t.helperModule))
	output := &Output{
		Code: editor.String(),
		Map:  editor.SourceMap(importer),
	}
	if t.cache != nil {
		t.cache.put(importer, code, output)
	}
	return output, nil
}

// transformDynamicImport turns one template-literal import argument into its
// rewrite. A (nil, nil) return means the expression is not convertible and
// must be left untouched.
func (t *Transformer) transformDynamicImport(argText string, importer string) (*Rewrite, error) {
	argText, ok, err := t.normalizeImportSource(argText, importer)
	if err != nil || !ok {
		return nil, err
	}
	pattern, err := extractGlobPattern(argText)
	if err != nil || pattern == nil {
		return nil, err
	}

	abs, err := t.toAbsoluteGlob(pattern.RawPattern, importer)
	if err != nil {
		return nil, err
	}
	rawPattern := relativePath(path.Dir(MakePathOsAgnostic(importer)), abs)
	if !isRelPathSpecifier(rawPattern) {
		rawPattern = "./" + rawPattern
	}

	params := ""
	if pattern.GlobParams != nil {
		params = ", " + strings.TrimSpace(string(utils.MustEncodeJSON(pattern.GlobParams)))
	}
	return &Rewrite{
		RawPattern: rawPattern,
		Pattern:    pattern.UserPattern,
		Glob:       fmt.Sprintf("(import.meta.glob(%s%s))", strings.TrimSpace(string(utils.MustEncodeJSON(pattern.UserPattern))), params),
	}, nil
}

func (t *Transformer) warn(msg string, importer string) {
	if t.onWarning != nil {
		t.onWarning(msg, importer)
	}
}
