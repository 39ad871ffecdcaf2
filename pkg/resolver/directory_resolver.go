package resolver

import (
	"path"
	"strings"

	"github.com/stackb/tsresolve/pkg/specifier"
)

// DefaultIndexFile is the file joined onto directory-shaped specifiers.
const DefaultIndexFile = "index.js"

// DirectoryResolver implements Resolver by retrying directory-shaped
// specifiers against an index file.
type DirectoryResolver struct {
	next  Resolver
	index string
}

func NewDirectoryResolver(next Resolver, index string) *DirectoryResolver {
	if index == "" {
		index = DefaultIndexFile
	}
	return &DirectoryResolver{
		next:  next,
		index: index,
	}
}

// Resolve implements the Resolver interface
func (r *DirectoryResolver) Resolve(req *Request) (string, error) {
	spec := req.Specifier
	if specifier.IsURL(spec) && !specifier.IsDirectory(spec) {
		return r.next.Resolve(req)
	}

	// Directory-shaped and plain specifiers try the index files in the same
	// order so that "./dir" and "./dir/" name the same file.
	var candidates []string
	if !specifier.IsDirectory(spec) {
		candidates = append(candidates, spec)
	}
	for _, index := range r.indexFiles() {
		candidates = append(candidates, joinIndex(spec, index))
	}
	if specifier.IsDirectory(spec) {
		candidates = append(candidates, spec)
	}

	var first error
	for _, candidate := range candidates {
		resolved, err := r.next.Resolve(req.WithSpecifier(candidate))
		if err == nil || !IsNotFound(err) {
			return resolved, err
		}
		if first == nil {
			first = err
		}
	}
	return "", first
}

// indexFiles lists the index names joined onto a directory. The default
// index goes after its extensionless form, which extension guessing expands
// with typed sources first; a custom index is tried before it.
func (r *DirectoryResolver) indexFiles() []string {
	switch r.index {
	case "index":
		return []string{"index"}
	case DefaultIndexFile:
		return []string{"index", r.index}
	default:
		return []string{r.index, "index"}
	}
}

// joinIndex joins the index file onto a directory specifier, keeping a
// leading "./" only when the original had one.
func joinIndex(spec, index string) string {
	dir := strings.ReplaceAll(spec, `\`, "/")
	if dir == "." || dir == ".." {
		dir += "/"
	}
	joined := path.Join(dir, index)
	if strings.HasPrefix(dir, "./") {
		joined = "./" + joined
	}
	return joined
}
