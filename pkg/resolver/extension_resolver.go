package resolver

import (
	"github.com/stackb/tsresolve/pkg/extensions"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// ExtensionResolver implements Resolver by retrying a request with
// typed-source siblings and guessed extensions.
type ExtensionResolver struct {
	next Resolver
	// siblings enables the compiled-to-typed mapping (.js -> .ts ...). It is
	// only set when the parent is typed source, allowJs is on, or the
	// request is an entry point.
	siblings       bool
	dependencyDirs []string
}

func NewExtensionResolver(next Resolver, siblings bool, dependencyDirs []string) *ExtensionResolver {
	return &ExtensionResolver{
		next:           next,
		siblings:       siblings,
		dependencyDirs: dependencyDirs,
	}
}

// Resolve implements the Resolver interface
func (r *ExtensionResolver) Resolve(req *Request) (string, error) {
	spec := req.Specifier
	dependency := r.isDependency(req)

	if specifier.IsURL(spec) {
		return r.next.Resolve(req)
	}

	if r.siblings && !dependency {
		if candidates := extensions.Siblings(spec); candidates != nil {
			return TryEach(r.next, req, candidates)
		}
	}

	resolved, err := r.next.Resolve(req)
	if err == nil || !IsFallthrough(err) {
		return resolved, err
	}

	candidates := extensions.Guess(spec, dependency)
	if len(candidates) == 0 {
		return "", err
	}
	resolved, gerr := TryEach(r.next, req, candidates)
	if gerr == nil || !IsFallthrough(gerr) {
		return resolved, gerr
	}
	return "", err
}

// isDependency reports whether the request targets third-party code. Bare
// package names always do.
func (r *ExtensionResolver) isDependency(req *Request) bool {
	if specifier.IsDependencyPath(req.ParentFile(), r.dependencyDirs) {
		return true
	}
	if specifier.Classify(req.Specifier) == specifier.BareOrURL {
		return true
	}
	return specifier.IsDependencyPath(req.Specifier, r.dependencyDirs)
}
