package resolver

import (
	"net/url"
	"strings"
)

const (
	// InteropPrefix starts the virtual specifier used to hand a module
	// between the two host loading subsystems.
	InteropPrefix = "data:text/javascript,"
	// InteropPathParam is the query parameter carrying the real file path.
	InteropPathParam = "filePath"
)

// InteropSpecifier builds the virtual specifier for a real file path.
func InteropSpecifier(source, realPath string) string {
	return InteropPrefix + url.PathEscape(source) + "?" + InteropPathParam + "=" + url.QueryEscape(realPath)
}

// UnwrapInterop returns the real path embedded in an interop specifier.
func UnwrapInterop(spec string) (string, bool) {
	if !strings.HasPrefix(spec, InteropPrefix) {
		return "", false
	}
	i := strings.LastIndexByte(spec, '?')
	if i < 0 {
		return "", false
	}
	values, _ := url.ParseQuery(spec[i+1:])
	realPath := values.Get(InteropPathParam)
	if realPath == "" {
		return "", false
	}
	return realPath, true
}

// migrateInterop rewrites an interop request to its real path, moving the
// module cache entry from the virtual key to the real key so export analysis
// sees the true origin.
func migrateInterop(cache ModuleCache, req *Request) *Request {
	realPath, ok := UnwrapInterop(req.Specifier)
	if !ok {
		return req
	}
	if cache != nil {
		if mod, ok := cache.Load(req.Specifier); ok {
			cache.Store(realPath, mod)
			cache.Delete(req.Specifier)
		}
	}
	return req.WithSpecifier(realPath)
}
