package server

import (
	"io"
	"path"
	"strings"

	"github.com/esm-dev/dynamic-import-vars/internal/importmap"
	"github.com/esm-dev/dynamic-import-vars/internal/npm"
	"github.com/esm-dev/dynamic-import-vars/transform"
	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/goccy/go-json"
	"github.com/ije/gox/log"
	"github.com/ije/gox/utils"
	"github.com/ije/rex"
)

const MB = 1 << 20

const (
	ccImmutable      = "public, max-age=31536000, immutable"
	ccMustRevalidate = "public, max-age=0, must-revalidate"
	ctJavaScript     = "application/javascript; charset=utf-8"
)

// TransformOptions is the request body of the `POST /transform` API.
type TransformOptions struct {
	Code      string          `json:"code"`
	Filename  string          `json:"filename"`
	ImportMap json.RawMessage `json:"importMap"`
	Target    string          `json:"target"`
	SourceMap bool            `json:"sourceMap"`
}

// TransformOutput is the response body of the `POST /transform` API.
type TransformOutput struct {
	Code     string `json:"code"`
	Map      string `json:"map,omitempty"`
	Modified bool   `json:"modified"`
}

// newResolver chains import-map aliasing with node_modules resolution, both
// rooted in the application directory.
func newResolver(appDir string, im *importmap.ImportMap) transform.ResolveFunc {
	return func(specifier string, importer string) (string, error) {
		if im != nil {
			if value, ok := im.Resolve(specifier); ok {
				if strings.HasPrefix(value, "/") {
					return path.Join(appDir, value), nil
				}
				if strings.HasPrefix(value, "./") || strings.HasPrefix(value, "../") {
					return path.Join(appDir, value), nil
				}
				specifier = value
			}
		}
		if resolved := npm.Resolve(specifier, importer); resolved != "" {
			return resolved, nil
		}
		return "", nil
	}
}

func apiRouter(config *Config, transformer *transform.Transformer, logger *log.Logger) rex.Handle {
	return func(ctx *rex.Context) any {
		pathname := ctx.R.URL.Path

		switch ctx.R.Method {
		case "HEAD", "GET":
			switch pathname {
			case "/":
				return map[string]any{
					"service": "dynamic-import-vars",
					"version": VERSION,
				}
			case config.HelperModule, transform.DefaultHelperModule:
				target := ctx.R.URL.Query().Get("target")
				if _, ok := targets[target]; !ok {
					target = getBuildTargetByUA(ctx.R.UserAgent())
				}
				js, err := transform.MinifiedHelper(targets[target])
				if err != nil {
					logger.Errorf("build dispatch helper: %v", err)
					return rex.Err(500, "failed to build the dispatch helper")
				}
				ctx.SetHeader("Content-Type", ctJavaScript)
				ctx.SetHeader("Cache-Control", ccImmutable)
				ctx.SetHeader("Vary", "User-Agent")
				return js
			}
			return rex.Status(404, "not found")

		case "POST":
			if pathname != "/transform" {
				return rex.Status(404, "not found")
			}
			var options TransformOptions
			err := json.NewDecoder(io.LimitReader(ctx.R.Body, 2*MB)).Decode(&options)
			ctx.R.Body.Close()
			if err != nil {
				return rex.Err(400, "require valid json body")
			}
			if options.Code == "" {
				return rex.Err(400, "Code is required")
			}
			if len(options.Code) > MB {
				return rex.Err(429, "Code is too large")
			}
			if options.Filename == "" {
				options.Filename = "module.js"
			}
			if _, ok := targets[options.Target]; !ok {
				options.Target = "esnext"
			}

			code := options.Code
			if loader, transpile := loaderByFilename(options.Filename); transpile {
				code, err = transpileModule(code, loader, targets[options.Target])
				if err != nil {
					return rex.Err(400, err.Error())
				}
			}

			importer := options.Filename
			if !strings.HasPrefix(importer, "/") {
				importer = path.Join(config.AppDir, importer)
			}

			t := transformer
			if len(options.ImportMap) > 0 {
				im, err := importmap.Parse(options.ImportMap)
				if err != nil {
					return rex.Err(400, "Invalid ImportMap")
				}
				// per-request import maps get an uncached transformer
				t, err = transform.New(transform.Config{
					Root:         config.AppDir,
					Resolve:      newResolver(config.AppDir, im),
					HelperModule: config.HelperModule,
					WarnOnError:  config.WarnOnError,
					OnWarning: func(msg string, importer string) {
						logger.Warnf("transform %s: %s", importer, msg)
					},
				})
				if err != nil {
					return rex.Err(500, err.Error())
				}
			}

			output, err := t.Transform(code, importer)
			if err != nil {
				return rex.Err(400, err.Error())
			}
			ctx.SetHeader("Cache-Control", ccMustRevalidate)
			if output == nil {
				return TransformOutput{Code: code}
			}
			ret := TransformOutput{Code: output.Code, Modified: true}
			if options.SourceMap {
				ret.Map = output.Map
			}
			return ret

		default:
			return rex.Status(405, "Method Not Allowed")
		}
	}
}

// loaderByFilename reports the esbuild loader for the filename and whether
// the source needs a transpile pass before the rewrite.
func loaderByFilename(filename string) (esbuild.Loader, bool) {
	_, ext := utils.SplitByLastByte(filename, '.')
	switch ext {
	case "jsx":
		return esbuild.LoaderJSX, true
	case "ts", "mts":
		return esbuild.LoaderTS, true
	case "tsx":
		return esbuild.LoaderTSX, true
	}
	return esbuild.LoaderJS, false
}

// transpileModule lowers ts/jsx input to plain js ahead of the rewrite pass.
func transpileModule(code string, loader esbuild.Loader, target esbuild.Target) (string, error) {
	ret := esbuild.Transform(code, esbuild.TransformOptions{
		Target:   target,
		Format:   esbuild.FormatESModule,
		Platform: esbuild.PlatformBrowser,
		Loader:   loader,
	})
	if len(ret.Errors) > 0 {
		return "", &transpileError{ret.Errors[0].Text}
	}
	return string(ret.Code), nil
}

type transpileError struct {
	text string
}

func (e *transpileError) Error() string {
	return "failed to transpile module: " + e.text
}
