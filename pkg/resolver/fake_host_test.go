package resolver_test

import (
	"path"
	"strings"

	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// fakeHost resolves exact file paths against an in-memory file set. Bare
// specifiers are looked up in packages; errors forces a result per
// specifier.
type fakeHost struct {
	files    map[string]bool
	packages map[string]string
	errors   map[string]error
}

func newFakeHost(files ...string) *fakeHost {
	h := &fakeHost{
		files:    make(map[string]bool),
		packages: make(map[string]string),
		errors:   make(map[string]error),
	}
	for _, f := range files {
		h.files[f] = true
	}
	return h
}

func (h *fakeHost) Resolve(req *resolver.Request) (string, error) {
	if err, ok := h.errors[req.Specifier]; ok {
		return "", err
	}
	spec, _ := specifier.SplitQuery(req.Specifier)
	if specifier.IsCore(spec) {
		return spec, nil
	}
	var p string
	switch specifier.Classify(spec) {
	case specifier.Absolute:
		p = path.Clean(spec)
	case specifier.Relative:
		dir := "/w"
		if !req.IsEntryPoint() {
			dir = path.Dir(req.ParentFile())
		}
		p = path.Join(dir, spec)
	default:
		if target, ok := h.packages[spec]; ok {
			return target, nil
		}
		return "", resolver.NewNotFoundError(req)
	}
	if strings.HasSuffix(spec, "/") || !h.files[p] {
		return "", resolver.NewNotFoundError(req)
	}
	return p, nil
}

// memoryCache is a ModuleCache over a plain map.
type memoryCache map[string]any

func (c memoryCache) Load(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c memoryCache) Store(key string, value any) {
	c[key] = value
}

func (c memoryCache) Delete(key string) {
	delete(c, key)
}
