// Package extensions expands a module path into the ordered list of
// typed-source and compiled alternatives the loader should try.
package extensions

import (
	"path"
	"strings"

	"github.com/stackb/tsresolve/pkg/specifier"
)

// siblings maps a compiled extension to the extensions tried in its place,
// highest priority first.
var siblings = map[string][]string{
	".js":  {".ts", ".tsx", ".js", ".jsx"},
	".jsx": {".tsx", ".ts", ".jsx", ".js"},
	".cjs": {".cts"},
	".mjs": {".mts"},
}

var (
	// DependencyGuesses are appended to extensionless paths in dependency
	// code, where compiled output is preferred over shipped typed source.
	DependencyGuesses = []string{".js", ".json", ".ts", ".tsx"}
	// LocalGuesses are appended to extensionless first-party paths.
	LocalGuesses = []string{".ts", ".tsx", ".jsx", ".js", ".json"}
)

// known are extensions that are never guessed upon.
var known = map[string]bool{
	".ts":   true,
	".tsx":  true,
	".mts":  true,
	".cts":  true,
	".js":   true,
	".jsx":  true,
	".mjs":  true,
	".cjs":  true,
	".json": true,
	".node": true,
	".wasm": true,
}

var typed = map[string]bool{
	".ts":  true,
	".tsx": true,
	".mts": true,
	".cts": true,
}

// Ext returns the extension of p, ignoring any query string.
func Ext(p string) string {
	p, _ = specifier.SplitQuery(p)
	return path.Ext(strings.ReplaceAll(p, `\`, "/"))
}

// TypedExtensions returns the typed-source extensions in a stable order.
func TypedExtensions() []string {
	return []string{".ts", ".tsx", ".mts", ".cts"}
}

// IsTyped reports whether p names a typed-source file.
func IsTyped(p string) bool {
	return typed[Ext(p)]
}

// RejectsQuery reports whether p names a JSON or binary target, which
// the host loads by path alone and never with a query string.
func RejectsQuery(p string) bool {
	switch Ext(p) {
	case ".json", ".node", ".wasm":
		return true
	}
	return false
}

// Siblings returns the typed-source alternatives of p followed by the
// same-family compiled variants. The query of p is preserved on each
// candidate. Nil is returned when p does not carry a compiled extension.
func Siblings(p string) []string {
	pathname, query := specifier.SplitQuery(p)
	ext := Ext(pathname)
	alts, ok := siblings[ext]
	if !ok {
		return nil
	}
	base := strings.TrimSuffix(pathname, ext)
	candidates := make([]string, len(alts))
	for i, alt := range alts {
		candidates[i] = specifier.JoinQuery(base+alt, query)
	}
	return candidates
}

// Guess returns p with each guessed extension appended. Paths that already
// carry a known extension produce no guesses. When dependency is true the
// compiled-first ordering is used.
func Guess(p string, dependency bool) []string {
	pathname, query := specifier.SplitQuery(p)
	if known[Ext(pathname)] || strings.HasSuffix(pathname, "/") {
		return nil
	}
	exts := LocalGuesses
	if dependency {
		exts = DependencyGuesses
	}
	candidates := make([]string, len(exts))
	for i, ext := range exts {
		candidates[i] = specifier.JoinQuery(pathname+ext, query)
	}
	return candidates
}

// Expand returns the candidates for p: the siblings of a compiled
// extension, or the guesses for an extensionless path.
func Expand(p string, dependency bool) []string {
	if candidates := Siblings(p); candidates != nil {
		return candidates
	}
	return Guess(p, dependency)
}
