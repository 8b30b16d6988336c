package server

import (
	"strings"

	"github.com/Masterminds/semver/v3"
	esbuild "github.com/evanw/esbuild/pkg/api"
	"github.com/mssola/user_agent"
)

var targets = map[string]esbuild.Target{
	"es2015": esbuild.ES2015,
	"es2016": esbuild.ES2016,
	"es2017": esbuild.ES2017,
	"es2018": esbuild.ES2018,
	"es2019": esbuild.ES2019,
	"es2020": esbuild.ES2020,
	"es2021": esbuild.ES2021,
	"es2022": esbuild.ES2022,
	"es2023": esbuild.ES2023,
	"esnext": esbuild.ESNext,
	"deno":   esbuild.ESNext,
	"node":   esbuild.ESNext,
}

// engines maps browser names reported by the UA parser to stable baseline
// targets.
var engines = map[string]string{
	"chrome":  "es2022",
	"edge":    "es2022",
	"firefox": "es2021",
	"safari":  "es2020",
	"opera":   "es2022",
}

// getBuildTargetByUA picks the build target for a request by its user-agent.
func getBuildTargetByUA(ua string) string {
	if strings.HasPrefix(ua, "ES/") {
		t := "es" + ua[3:]
		if _, ok := targets[t]; ok {
			return t
		}
	}
	if strings.HasPrefix(ua, "Deno/") {
		// deno < 1.33.2 chokes on some es2022 output
		version, err := semver.NewVersion(ua[5:])
		if err == nil && version.LessThan(semver.MustParse("1.33.2")) {
			return "es2021"
		}
		return "deno"
	}
	if ua == "undici" || strings.HasPrefix(ua, "Node.js/") || strings.HasPrefix(ua, "Node/") || strings.HasPrefix(ua, "Bun/") {
		return "node"
	}
	name, _ := user_agent.New(ua).Browser()
	if target, ok := engines[strings.ToLower(name)]; ok {
		return target
	}
	return "es2015"
}
