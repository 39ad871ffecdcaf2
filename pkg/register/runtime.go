// Package register installs resolution orchestrators into a host runtime
// and removes them again.
package register

import (
	"sync"

	"github.com/stackb/tsresolve/pkg/extensions"
	"github.com/stackb/tsresolve/pkg/resolver"
)

// Loader handles loading of a file with a registered extension.
type Loader func(filename string) error

// Runtime is the host context a registration installs into. It holds the
// active resolver and extension handlers; registrations swap them and
// restore them on disable.
type Runtime struct {
	// Version is the host version, e.g. "v20.11.1". Empty skips the version
	// gate.
	Version string
	// Cache is the host module identity cache.
	Cache resolver.ModuleCache

	mu         sync.RWMutex
	resolver   resolver.Resolver
	extensions map[string]Loader
	// detached holds registrations disabled while another registration was
	// installed above them; they are unwound when that one is restored.
	detached map[*resolver.Orchestrator]*Handle
}

// NewRuntime returns a Runtime whose active resolver is host.
func NewRuntime(version string, host resolver.Resolver, cache resolver.ModuleCache) *Runtime {
	return &Runtime{
		Version:    version,
		Cache:      cache,
		resolver:   host,
		extensions: make(map[string]Loader),
		detached:   make(map[*resolver.Orchestrator]*Handle),
	}
}

// Resolver returns the active resolver.
func (rt *Runtime) Resolver() resolver.Resolver {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.resolver
}

// Extensions returns the active extension handlers. The map must be treated
// as read-only; registrations install a fresh map rather than mutating it.
func (rt *Runtime) Extensions() map[string]Loader {
	rt.mu.RLock()
	defer rt.mu.RUnlock()
	return rt.extensions
}

// Resolve resolves req through the active resolver.
func (rt *Runtime) Resolve(req *resolver.Request) (string, error) {
	return rt.Resolver().Resolve(req)
}

// Load dispatches filename to the handler registered for its extension.
// It reports false when no handler is registered.
func (rt *Runtime) Load(filename string) (bool, error) {
	loader, ok := rt.Extensions()[extensions.Ext(filename)]
	if !ok {
		return false, nil
	}
	return true, loader(filename)
}

// install makes h the active registration. The orchestrator is built over
// the resolver active at the moment of the swap.
func (rt *Runtime) install(h *Handle, loader Loader, options ...resolver.OrchestratorOption) {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	h.prevResolver, h.prevExtensions = rt.resolver, rt.extensions
	h.orchestrator = resolver.NewOrchestrator(h.prevResolver, options...)

	exts := make(map[string]Loader, len(h.prevExtensions)+4)
	for ext, l := range h.prevExtensions {
		exts[ext] = l
	}
	if loader != nil {
		for _, ext := range extensions.TypedExtensions() {
			exts[ext] = loader
		}
	}
	rt.resolver, rt.extensions = h.orchestrator, exts
}

// restore uninstalls h. When h is the active registration the resolver and
// extension handlers saved at install time are put back, unwinding through
// any registrations below it that were already disabled. Otherwise h is
// recorded as detached and restored when the registration above it is.
func (rt *Runtime) restore(h *Handle) bool {
	rt.mu.Lock()
	defer rt.mu.Unlock()
	if rt.resolver != resolver.Resolver(h.orchestrator) {
		rt.detached[h.orchestrator] = h
		return false
	}
	prev, prevExts := h.prevResolver, h.prevExtensions
	for {
		o, ok := prev.(*resolver.Orchestrator)
		if !ok {
			break
		}
		below, ok := rt.detached[o]
		if !ok {
			break
		}
		delete(rt.detached, o)
		prev, prevExts = below.prevResolver, below.prevExtensions
	}
	rt.resolver, rt.extensions = prev, prevExts
	return true
}
