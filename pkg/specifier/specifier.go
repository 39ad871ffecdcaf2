// Package specifier classifies module specifiers and manipulates their query
// strings.
package specifier

import (
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Kind is the syntactic category of a specifier.
type Kind int

const (
	// BareOrURL is anything that is not a relative or absolute path: package
	// names, aliases, and scheme-qualified URLs.
	BareOrURL Kind = iota
	// Relative is a specifier starting with "./" or "../".
	Relative
	// Absolute is a rooted file system path.
	Absolute
)

func (k Kind) String() string {
	switch k {
	case Relative:
		return "relative"
	case Absolute:
		return "absolute"
	default:
		return "bare"
	}
}

// CoreScheme is the reserved scheme addressing built-in modules.
const CoreScheme = "node"

// DefaultDependencyDirs is the default set of globs identifying third-party
// package trees.
var DefaultDependencyDirs = []string{"**/node_modules/**"}

// urlSchemes are the schemes that accept a query string.
var urlSchemes = map[string]bool{
	"file":  true,
	"data":  true,
	"http":  true,
	"https": true,
}

// Classify returns the Kind of the given specifier.
func Classify(s string) Kind {
	if IsRelative(s) {
		return Relative
	}
	if IsAbsolute(s) {
		return Absolute
	}
	return BareOrURL
}

// IsRelative reports whether s starts with "./" or "../". The bare forms "."
// and ".." are treated as relative as well.
func IsRelative(s string) bool {
	if s == "." || s == ".." {
		return true
	}
	if len(s) < 2 || s[0] != '.' {
		return false
	}
	if isSep(s[1]) {
		return true
	}
	return s[1] == '.' && (len(s) == 2 || isSep(s[2]))
}

// IsAbsolute reports whether s is a rooted path, including Windows drive
// paths such as "C:\src".
func IsAbsolute(s string) bool {
	if strings.HasPrefix(s, "/") {
		return true
	}
	return isDrivePath(s)
}

// Scheme returns the substring before the first ':'. Paths and bare names
// have no scheme.
func Scheme(s string) string {
	if isDrivePath(s) {
		return ""
	}
	i := strings.IndexByte(s, ':')
	if i <= 0 {
		return ""
	}
	scheme := s[:i]
	if strings.ContainsAny(scheme, "/\\?") {
		return ""
	}
	return scheme
}

// AcceptsQuery reports whether a query string may be attached to s.
func AcceptsQuery(s string) bool {
	switch Classify(s) {
	case Relative, Absolute:
		return true
	}
	scheme := Scheme(s)
	if scheme == CoreScheme {
		return false
	}
	return urlSchemes[scheme]
}

// IsCore reports whether s addresses a built-in module via the core scheme.
func IsCore(s string) bool {
	return Scheme(s) == CoreScheme
}

// IsURL reports whether s carries any scheme.
func IsURL(s string) bool {
	return Scheme(s) != ""
}

// IsFilePath reports whether s names a real file: an absolute path or a file
// URL. Core and data: targets are not file paths, nor are remote URLs.
func IsFilePath(s string) bool {
	if IsAbsolute(s) {
		return true
	}
	return Scheme(s) == "file"
}

// SplitQuery separates s into its path and query parts. The query is
// returned without the leading '?'.
func SplitQuery(s string) (string, string) {
	if i := strings.IndexByte(s, '?'); i >= 0 {
		return s[:i], s[i+1:]
	}
	return s, ""
}

// JoinQuery is the inverse of SplitQuery.
func JoinQuery(path, query string) string {
	if query == "" {
		return path
	}
	return path + "?" + query
}

// IsDirectory reports whether s is syntactically a directory: it has a
// trailing separator, or it is (or ends with) "." or "..".
func IsDirectory(s string) bool {
	s, _ = SplitQuery(s)
	if s == "" {
		return false
	}
	if isSep(s[len(s)-1]) {
		return true
	}
	if s == "." || s == ".." {
		return true
	}
	return strings.HasSuffix(s, "/.") || strings.HasSuffix(s, "/..") ||
		strings.HasSuffix(s, `\.`) || strings.HasSuffix(s, `\..`)
}

// IsDependencyPath reports whether path p lies under one of the dependency
// directory globs. A nil globs slice uses DefaultDependencyDirs.
func IsDependencyPath(p string, globs []string) bool {
	if p == "" {
		return false
	}
	if globs == nil {
		globs = DefaultDependencyDirs
	}
	p, _ = SplitQuery(p)
	p = strings.TrimPrefix(p, "file://")
	p = strings.TrimPrefix(filepath.ToSlash(p), "/")
	for _, g := range globs {
		if ok, _ := doublestar.Match(g, p); ok {
			return true
		}
	}
	return false
}

func isSep(c byte) bool {
	return c == '/' || c == '\\'
}

func isDrivePath(s string) bool {
	if len(s) < 3 || s[1] != ':' || !isSep(s[2]) {
		return false
	}
	c := s[0]
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}
