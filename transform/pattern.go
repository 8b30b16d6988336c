package transform

import (
	"fmt"
	"regexp"
	"strings"

	esbuild_config "github.com/ije/esbuild-internal/config"
	"github.com/ije/esbuild-internal/helpers"
	"github.com/ije/esbuild-internal/js_ast"
	"github.com/ije/esbuild-internal/js_parser"
	"github.com/ije/esbuild-internal/logger"
)

// RequestParams describes how each module matched by the generated glob
// should be loaded. Query is either a reserved key (worker/url/raw) or the
// full original query text.
type RequestParams struct {
	Query  any    `json:"query,omitempty"`
	Import string `json:"import,omitempty"`
}

// Pattern is the statically enumerable form of a variable dynamic import:
// UserPattern is the glob handed to the glob-import facility, RawPattern is
// the original path text (interpolations intact) used as the runtime lookup
// key and to anchor the glob on the filesystem.
type Pattern struct {
	GlobParams  *RequestParams
	UserPattern string
	RawPattern  string
}

var regOwnDirGlob = regexp.MustCompile(`^\./\*\.\w+$`)

// extractGlobPattern generalizes a template-literal import argument into a
// glob: literal segments are kept verbatim, embedded expressions become
// wildcards. A (nil, nil) return means the argument is not convertible and
// the expression must be left untouched; an error means the author clearly
// intended a convertible import but the resulting pattern is unusable.
func extractGlobPattern(argText string) (*Pattern, error) {
	if len(argText) < 2 || argText[0] != '`' || argText[len(argText)-1] != '`' {
		return nil, nil
	}
	tpl, ok := parseTemplateArg(argText)
	if !ok {
		return nil, nil
	}
	glob := templateToGlob(tpl)
	if !strings.Contains(glob, "*") || strings.HasPrefix(glob, "data:") {
		return nil, nil
	}
	for strings.Contains(glob, "**") {
		glob = strings.ReplaceAll(glob, "**", "*")
	}
	if strings.HasPrefix(glob, "*") {
		return nil, fmt.Errorf("invalid import %s: pattern cannot start with a wildcard", argText)
	}
	if strings.HasPrefix(glob, "/") {
		return nil, fmt.Errorf("invalid import %s: absolute paths are not supported", argText)
	}
	if !isRelPathSpecifier(glob) {
		return nil, fmt.Errorf("invalid import %s: pattern must start with \"./\" or \"../\"", argText)
	}
	if regOwnDirGlob.MatchString(glob) {
		return nil, fmt.Errorf("invalid import %s: pattern matches only files in the importing directory, use an explicit sub-directory", argText)
	}

	filename := argText[1 : len(argText)-1]
	userPattern, _ := splitQuery(glob)
	rawPattern, rawQuery := splitQuery(filename)

	var globParams *RequestParams
	if query := parseQuery(rawQuery); query != nil {
		globParams = &RequestParams{Query: rawQuery}
		for _, key := range reservedQueryKeys {
			if _, ok := query[key]; ok {
				globParams = &RequestParams{Query: key, Import: "*"}
				break
			}
		}
	}

	return &Pattern{
		GlobParams:  globParams,
		UserPattern: userPattern,
		RawPattern:  rawPattern,
	}, nil
}

// parseTemplateArg parses the argument text as a lone expression statement
// and returns its untagged template literal, if that is what it is.
func parseTemplateArg(argText string) (*js_ast.ETemplate, bool) {
	log := logger.NewDeferLog(logger.DeferLogAll, nil)
	parserOpts := js_parser.OptionsFromConfig(&esbuild_config.Options{})
	ast, pass := js_parser.Parse(log, logger.Source{
		Index:          0,
		KeyPath:        logger.Path{Text: "<import-argument>"},
		PrettyPath:     "<import-argument>",
		Contents:       argText,
		IdentifierName: "arg",
	}, parserOpts)
	if !pass {
		return nil, false
	}
	for _, part := range ast.Parts {
		for _, stmt := range part.Stmts {
			expr, ok := stmt.Data.(*js_ast.SExpr)
			if !ok {
				continue
			}
			tpl, ok := expr.Value.Data.(*js_ast.ETemplate)
			if !ok || tpl.TagOrNil.Data != nil {
				return nil, false
			}
			return tpl, true
		}
	}
	return nil, false
}

func templateToGlob(tpl *js_ast.ETemplate) string {
	buf := strings.Builder{}
	buf.WriteString(helpers.UTF16ToString(tpl.HeadCooked))
	for _, part := range tpl.Parts {
		buf.WriteString(exprToGlob(part.Value))
		buf.WriteString(helpers.UTF16ToString(part.TailCooked))
	}
	return buf.String()
}

// exprToGlob generalizes one embedded expression. The recognized shapes are
// a closed set; anything else collapses to a single wildcard.
func exprToGlob(expr js_ast.Expr) string {
	switch e := expr.Data.(type) {
	case *js_ast.EString:
		return helpers.UTF16ToString(e.Value)
	case *js_ast.ETemplate:
		if e.TagOrNil.Data == nil {
			return templateToGlob(e)
		}
	case *js_ast.EBinary:
		if e.Op == js_ast.BinOpAdd {
			return exprToGlob(e.Left) + exprToGlob(e.Right)
		}
	}
	return "*"
}
