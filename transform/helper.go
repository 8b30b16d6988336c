package transform

import (
	_ "embed"
	"errors"
	"sync"

	esbuild "github.com/evanw/esbuild/pkg/api"
)

//go:embed dispatch.js
var dispatchJS []byte

// HelperJS returns the runtime dispatch helper module as authored.
func HelperJS() []byte {
	return dispatchJS
}

var helperBuildCache sync.Map

// MinifiedHelper returns the dispatch helper compiled for the given target.
func MinifiedHelper(target esbuild.Target) ([]byte, error) {
	if data, ok := helperBuildCache.Load(target); ok {
		return data.([]byte), nil
	}
	ret := esbuild.Transform(string(dispatchJS), esbuild.TransformOptions{
		Target:            target,
		Format:            esbuild.FormatESModule,
		Platform:          esbuild.PlatformBrowser,
		MinifyWhitespace:  true,
		MinifyIdentifiers: true,
		MinifySyntax:      true,
		Loader:            esbuild.LoaderJS,
	})
	if len(ret.Errors) > 0 {
		return nil, errors.New(ret.Errors[0].Text)
	}
	helperBuildCache.Store(target, ret.Code)
	return ret.Code, nil
}
