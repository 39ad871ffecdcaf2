package resolver

import "github.com/stackb/tsresolve/pkg/specifier"

// Parent describes the file that issued a request.
type Parent struct {
	// Path is the issuing file. It may carry a query string recording the
	// namespace the file was loaded under.
	Path string
}

// Request is a single resolution request.
type Request struct {
	// Specifier is the import/require string, including any query.
	Specifier string
	// Parent is the issuing file, or nil for entry points.
	Parent *Parent
	// Probe marks an internal pre-parse probe (export analysis). Probes do
	// their own path-keyed cache lookups and must receive undecorated paths.
	Probe bool
	// Conditions are the export conditions active for this request, passed
	// through to the host.
	Conditions []string
}

// IsEntryPoint reports whether the request has no parent.
func (r *Request) IsEntryPoint() bool {
	return r.Parent == nil
}

// ParentPath returns the parent path including its query, or empty.
func (r *Request) ParentPath() string {
	if r.Parent == nil {
		return ""
	}
	return r.Parent.Path
}

// ParentFile returns the parent path without its query, or empty.
func (r *Request) ParentFile() string {
	p, _ := specifier.SplitQuery(r.ParentPath())
	return p
}

// WithSpecifier returns a shallow copy of r with a different specifier.
func (r *Request) WithSpecifier(spec string) *Request {
	clone := *r
	clone.Specifier = spec
	return &clone
}

// Resolver knows how to turn a request into a path.
type Resolver interface {
	// Resolve returns the resolved path for the request. Failures that
	// should let a caller try another candidate match ErrNotFound or
	// ErrExportNotExported; any other error is fatal.
	Resolve(req *Request) (string, error)
}

// ResolverFunc adapts a function to the Resolver interface.
type ResolverFunc func(req *Request) (string, error)

// Resolve implements the Resolver interface.
func (f ResolverFunc) Resolve(req *Request) (string, error) {
	return f(req)
}
