package host

import (
	"strings"

	"github.com/stackb/tsresolve/pkg/specifier"
)

// builtinModules are the top-level core modules of the host runtime.
var builtinModules = map[string]bool{
	"assert":              true,
	"async_hooks":         true,
	"buffer":              true,
	"child_process":       true,
	"cluster":             true,
	"console":             true,
	"constants":           true,
	"crypto":              true,
	"dgram":               true,
	"diagnostics_channel": true,
	"dns":                 true,
	"domain":              true,
	"events":              true,
	"fs":                  true,
	"http":                true,
	"http2":               true,
	"https":               true,
	"inspector":           true,
	"module":              true,
	"net":                 true,
	"os":                  true,
	"path":                true,
	"perf_hooks":          true,
	"process":             true,
	"punycode":            true,
	"querystring":         true,
	"readline":            true,
	"repl":                true,
	"stream":              true,
	"string_decoder":      true,
	"sys":                 true,
	"timers":              true,
	"tls":                 true,
	"trace_events":        true,
	"tty":                 true,
	"url":                 true,
	"util":                true,
	"v8":                  true,
	"vm":                  true,
	"wasi":                true,
	"worker_threads":      true,
	"zlib":                true,
}

// prefixOnlyModules are only reachable through the "node:" scheme.
var prefixOnlyModules = map[string]bool{
	"sea":    true,
	"sqlite": true,
	"test":   true,
}

// IsBuiltin reports whether spec addresses a core module, with or without
// the "node:" prefix. Subpaths such as "fs/promises" are checked by their
// top-level module.
func IsBuiltin(spec string) bool {
	name, prefixed := strings.CutPrefix(spec, specifier.CoreScheme+":")
	top, _, _ := strings.Cut(name, "/")
	if prefixed && prefixOnlyModules[name] {
		return true
	}
	return builtinModules[top]
}
