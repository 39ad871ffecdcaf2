package resolver

// ModuleCache is the host-owned module identity cache, keyed by resolved
// path. The orchestrator only touches it to migrate interop entries; the
// host is responsible for its concurrency discipline.
type ModuleCache interface {
	Load(key string) (any, bool)
	Store(key string, value any)
	Delete(key string)
}
