package resolver

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"github.com/stackb/tsresolve/pkg/alias"
	"github.com/stackb/tsresolve/pkg/extensions"
	"github.com/stackb/tsresolve/pkg/namespace"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// OrchestratorOption configures an Orchestrator.
type OrchestratorOption func(o *Orchestrator) *Orchestrator

// WithNamespace restricts the orchestrator to requests tagged with ns. The
// empty namespace handles untagged requests only.
func WithNamespace(ns string) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		o.namespace = ns
		return o
	}
}

// WithMatcher sets the alias matcher. A nil matcher disables aliasing.
func WithMatcher(m *alias.Matcher) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		o.matcher = m
		return o
	}
}

// WithIndexFile sets the file joined onto directory specifiers.
func WithIndexFile(index string) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		if index != "" {
			o.indexFile = index
		}
		return o
	}
}

// WithDependencyDirs sets the globs identifying third-party trees.
func WithDependencyDirs(globs []string) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		o.dependencyDirs = globs
		return o
	}
}

// WithModuleCache sets the host module cache used during interop unwrap.
func WithModuleCache(cache ModuleCache) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		o.cache = cache
		return o
	}
}

// WithLogger sets the logger used for resolution traces.
func WithLogger(logger zerolog.Logger) OrchestratorOption {
	return func(o *Orchestrator) *Orchestrator {
		o.logger = logger
		return o
	}
}

// Orchestrator implements Resolver by wrapping a host resolver with the
// namespace filter and the alias, extension and directory retries. It is
// stateless per call and safe for concurrent use.
type Orchestrator struct {
	next           Resolver
	namespace      string
	matcher        *alias.Matcher
	indexFile      string
	dependencyDirs []string
	cache          ModuleCache
	logger         zerolog.Logger
	enabled        atomic.Bool
}

// NewOrchestrator returns an enabled Orchestrator delegating to next.
func NewOrchestrator(next Resolver, options ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		next:      next,
		indexFile: DefaultIndexFile,
		logger:    zerolog.Nop(),
	}
	for _, opt := range options {
		o = opt(o)
	}
	o.enabled.Store(true)
	return o
}

// Namespace returns the namespace this orchestrator handles.
func (o *Orchestrator) Namespace() string {
	return o.namespace
}

// host returns the resolver beneath any stacked orchestrators. Attempts made
// on behalf of a request go straight to it, as their specifiers no longer
// carry the tag the orchestrators below would filter on.
func (o *Orchestrator) host() Resolver {
	next := o.next
	for {
		inner, ok := next.(*Orchestrator)
		if !ok {
			return next
		}
		next = inner.next
	}
}

// Enabled reports whether the orchestrator intercepts requests.
func (o *Orchestrator) Enabled() bool {
	return o.enabled.Load()
}

// SetEnabled turns interception on or off. A disabled orchestrator
// delegates every request to the host unmodified.
func (o *Orchestrator) SetEnabled(enabled bool) {
	o.enabled.Store(enabled)
}

// Resolve implements the Resolver interface
func (o *Orchestrator) Resolve(req *Request) (string, error) {
	if !o.Enabled() {
		return o.next.Resolve(req)
	}

	req = migrateInterop(o.cache, req)

	spec, query := specifier.SplitQuery(req.Specifier)
	tag, inherited := namespace.Inherit(query, req.ParentPath())
	if tag != o.namespace {
		o.logger.Debug().
			Str("specifier", req.Specifier).
			Str("namespace", tag).
			Str("want", o.namespace).
			Msg("namespace mismatch: delegating")
		return o.next.Resolve(req)
	}
	if inherited {
		query = namespace.WithParam(query, tag)
	}

	parent := req.ParentFile()
	siblings := req.IsEntryPoint() || extensions.IsTyped(parent) || o.matcher.AllowJs()

	var next Resolver = NewExtensionResolver(o.host(), siblings, o.dependencyDirs)
	next = NewDirectoryResolver(next, o.indexFile)

	base := req.WithSpecifier(spec)

	resolved, err := o.resolveAlias(next, base)
	if err != nil {
		if !IsFallthrough(err) {
			return "", err
		}
		resolved, err = next.Resolve(base)
		if err != nil {
			o.logger.Debug().Str("specifier", spec).Str("from", parent).Err(err).Msg("unresolved")
			return "", err
		}
	}

	resolved = namespace.Reattach(resolved, query, req.Probe)
	o.logger.Debug().Str("specifier", spec).Str("from", parent).Str("resolved", resolved).Msg("resolved")
	return resolved, nil
}

// resolveAlias tries each alias candidate through next. ErrNotFound is
// returned when aliasing does not apply or every candidate falls through.
func (o *Orchestrator) resolveAlias(next Resolver, req *Request) (string, error) {
	if o.matcher == nil || specifier.Classify(req.Specifier) != specifier.BareOrURL {
		return "", ErrNotFound
	}
	if specifier.IsDependencyPath(req.ParentFile(), o.dependencyDirs) {
		return "", ErrNotFound
	}
	candidates := o.matcher.Match(req.Specifier)
	if len(candidates) == 0 {
		return "", ErrNotFound
	}
	o.logger.Debug().Str("specifier", req.Specifier).Strs("candidates", candidates).Msg("alias candidates")
	return TryEach(next, req, candidates)
}
