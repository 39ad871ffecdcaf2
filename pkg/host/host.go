// Package host provides a reference host resolver over the local file
// system, plus the module identity cache and memoization that a runtime
// places around it.
package host

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/rs/zerolog"

	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// DefaultConditions are the export conditions used when a request carries
// none.
var DefaultConditions = []string{"node", "import"}

// DefaultMain is the entry file of a package with neither "exports" nor
// "main".
const DefaultMain = "index.js"

// FileSystemOption configures a FileSystem.
type FileSystemOption func(r *FileSystem) *FileSystem

// WithCwd sets the directory entry point specifiers resolve against.
func WithCwd(dir string) FileSystemOption {
	return func(r *FileSystem) *FileSystem {
		r.cwd = dir
		return r
	}
}

// WithConditions sets the default export conditions.
func WithConditions(conditions ...string) FileSystemOption {
	return func(r *FileSystem) *FileSystem {
		r.conditions = conditions
		return r
	}
}

// WithLogger sets the logger.
func WithLogger(logger zerolog.Logger) FileSystemOption {
	return func(r *FileSystem) *FileSystem {
		r.logger = logger
		return r
	}
}

// FileSystem implements resolver.Resolver against the local file system. It
// resolves core modules, file and data URLs, relative and absolute paths,
// and packages in node_modules directories. It never guesses extensions or
// index files; that is left to the layers wrapping it.
type FileSystem struct {
	cwd        string
	conditions []string
	logger     zerolog.Logger
	chain      *resolver.ChainResolver
}

// NewFileSystem constructs a FileSystem. The working directory defaults to
// the process working directory.
func NewFileSystem(options ...FileSystemOption) *FileSystem {
	r := &FileSystem{
		conditions: DefaultConditions,
		logger:     zerolog.Nop(),
	}
	for _, opt := range options {
		r = opt(r)
	}
	if r.cwd == "" {
		r.cwd, _ = os.Getwd()
	}
	r.chain = resolver.NewChainResolver(
		resolver.ResolverFunc(r.resolveCore),
		resolver.ResolverFunc(r.resolvePath),
		resolver.ResolverFunc(r.resolveURL),
		resolver.ResolverFunc(r.resolvePackage),
	)
	return r
}

// Resolve implements the resolver.Resolver interface.
func (r *FileSystem) Resolve(req *resolver.Request) (string, error) {
	resolved, err := r.chain.Resolve(req)
	if err != nil {
		r.logger.Debug().Str("specifier", req.Specifier).Str("from", req.ParentFile()).Err(err).Msg("host: unresolved")
		return "", err
	}
	r.logger.Debug().Str("specifier", req.Specifier).Str("resolved", resolved).Msg("host: resolved")
	return resolved, nil
}

func (r *FileSystem) resolveCore(req *resolver.Request) (string, error) {
	spec, _ := specifier.SplitQuery(req.Specifier)
	if specifier.IsCore(spec) {
		if IsBuiltin(spec) {
			return spec, nil
		}
		return "", resolver.NewNotFoundError(req)
	}
	if specifier.Classify(spec) == specifier.BareOrURL && !specifier.IsURL(spec) && IsBuiltin(spec) {
		return specifier.CoreScheme + ":" + spec, nil
	}
	return "", resolver.ErrNotFound
}

func (r *FileSystem) resolvePath(req *resolver.Request) (string, error) {
	spec, query := specifier.SplitQuery(req.Specifier)
	var p string
	switch {
	case specifier.Scheme(spec) == "file":
		fp, err := fromFileURL(spec)
		if err != nil {
			return "", err
		}
		p = fp
	case specifier.IsRelative(spec) || spec == "." || spec == "..":
		dir, err := r.baseDir(req)
		if err != nil {
			return "", err
		}
		p = filepath.Join(dir, filepath.FromSlash(spec))
	case specifier.IsAbsolute(spec):
		p = filepath.Clean(filepath.FromSlash(spec))
	default:
		return "", resolver.ErrNotFound
	}
	if specifier.IsDirectory(spec) {
		return "", resolver.NewNotFoundError(req)
	}
	ok, err := isFile(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", resolver.NewNotFoundError(req)
	}
	return specifier.JoinQuery(filepath.ToSlash(p), query), nil
}

func (r *FileSystem) resolveURL(req *resolver.Request) (string, error) {
	switch scheme := specifier.Scheme(req.Specifier); scheme {
	case "":
		return "", resolver.ErrNotFound
	case "data":
		return req.Specifier, nil
	case specifier.CoreScheme:
		return "", resolver.NewNotFoundError(req)
	default:
		return "", fmt.Errorf("unsupported URL scheme %q in %q", scheme, req.Specifier)
	}
}

func (r *FileSystem) resolvePackage(req *resolver.Request) (string, error) {
	spec, query := specifier.SplitQuery(req.Specifier)
	name, subpath, ok := splitPackage(spec)
	if !ok {
		return "", resolver.NewNotFoundError(req)
	}
	dir, err := r.baseDir(req)
	if err != nil {
		return "", err
	}
	conditions := req.Conditions
	if len(conditions) == 0 {
		conditions = r.conditions
	}

	for {
		pkgDir := filepath.Join(dir, "node_modules", filepath.FromSlash(name))
		isDir, err := isDirectory(pkgDir)
		if err != nil {
			return "", err
		}
		if isDir {
			resolved, err := resolveInPackage(req, pkgDir, name, subpath, conditions)
			if err != nil {
				return "", err
			}
			return specifier.JoinQuery(filepath.ToSlash(resolved), query), nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", resolver.NewNotFoundError(req)
		}
		dir = parent
	}
}

// resolveInPackage maps subpath within the package rooted at pkgDir. A
// manifest with "exports" is authoritative.
func resolveInPackage(req *resolver.Request, pkgDir, name, subpath string, conditions []string) (string, error) {
	manifest, err := ReadManifest(pkgDir)
	if err != nil {
		return "", err
	}
	var target string
	switch {
	case manifest != nil && manifest.Exports != nil:
		exported, ok := manifest.ResolveExport(subpath, conditions)
		if !ok {
			return "", &resolver.NotExportedError{Package: name, Subpath: subpath}
		}
		target = exported
	case subpath == ".":
		target = DefaultMain
		if manifest != nil && manifest.Main != "" {
			target = manifest.Main
		}
	default:
		target = subpath
	}
	p := filepath.Join(pkgDir, filepath.FromSlash(target))
	ok, err := isFile(p)
	if err != nil {
		return "", err
	}
	if !ok {
		return "", resolver.NewNotFoundError(req)
	}
	return p, nil
}

// baseDir is the directory a request resolves against: the parent's
// directory, or the working directory for entry points.
func (r *FileSystem) baseDir(req *resolver.Request) (string, error) {
	parent := req.ParentFile()
	if parent == "" {
		return r.cwd, nil
	}
	if specifier.Scheme(parent) == "file" {
		p, err := fromFileURL(parent)
		if err != nil {
			return "", err
		}
		parent = p
	}
	return filepath.Dir(filepath.FromSlash(parent)), nil
}

// splitPackage splits a bare specifier into its package name and a "./"
// rooted subpath. Scoped names keep two segments.
func splitPackage(spec string) (name, subpath string, ok bool) {
	if spec == "" || specifier.Classify(spec) != specifier.BareOrURL || specifier.IsURL(spec) || strings.HasPrefix(spec, "#") {
		return "", "", false
	}
	parts := strings.SplitN(spec, "/", 3)
	n := 1
	if strings.HasPrefix(spec, "@") {
		if len(parts) < 2 || parts[1] == "" {
			return "", "", false
		}
		n = 2
	}
	name = strings.Join(parts[:n], "/")
	rest := strings.TrimPrefix(spec, name)
	if rest == "" || rest == "/" {
		return name, ".", true
	}
	return name, "." + rest, true
}

func fromFileURL(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", fmt.Errorf("invalid file URL %q: %w", s, err)
	}
	return filepath.FromSlash(u.Path), nil
}

func isFile(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.Mode().IsRegular(), nil
}

func isDirectory(p string) (bool, error) {
	info, err := os.Stat(p)
	if err != nil {
		if isNotExist(err) {
			return false, nil
		}
		return false, err
	}
	return info.IsDir(), nil
}

// isNotExist also treats a file used as a directory as missing.
func isNotExist(err error) bool {
	return errors.Is(err, fs.ErrNotExist) || errors.Is(err, syscall.ENOTDIR)
}
