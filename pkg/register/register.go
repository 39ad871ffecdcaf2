package register

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog"
	"golang.org/x/mod/semver"

	"github.com/stackb/tsresolve/pkg/alias"
	"github.com/stackb/tsresolve/pkg/namespace"
	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/tsconfig"
)

// MinRuntimeVersion is the oldest host version providing the resolution
// hook.
const MinRuntimeVersion = "v18.19.0"

var (
	// ErrUnsupportedRuntime is returned by Enable for hosts older than
	// MinRuntimeVersion.
	ErrUnsupportedRuntime = errors.New("unsupported runtime version")
	// ErrDisabled is returned by Handle.Resolve after Disable.
	ErrDisabled = errors.New("registration is disabled")
)

// Options configures a registration.
type Options struct {
	// Namespace restricts the registration to requests tagged with it. The
	// empty namespace handles untagged requests.
	Namespace string
	// Config overrides config discovery.
	Config *tsconfig.Config
	// ConfigPath names the config file to load, relative to Cwd. It is
	// ignored when Config is set.
	ConfigPath string
	// Cwd is the directory config discovery starts from. Defaults to the
	// process working directory.
	Cwd string
	// IndexFile is joined onto directory specifiers. Defaults to
	// resolver.DefaultIndexFile.
	IndexFile string
	// DependencyDirs are the globs identifying third-party trees. Defaults
	// to specifier.DefaultDependencyDirs.
	DependencyDirs []string
	// Logger receives resolution traces.
	Logger zerolog.Logger
	// Loader, when set, is installed as the handler for typed-source
	// extensions.
	Loader Loader
	// ConfigCache caches loaded configs. Defaults to tsconfig.ProcessCache.
	ConfigCache *tsconfig.Cache
}

// Handle is an active registration.
type Handle struct {
	rt             *Runtime
	namespace      string
	logger         zerolog.Logger
	orchestrator   *resolver.Orchestrator
	prevResolver   resolver.Resolver
	prevExtensions map[string]Loader
	disableOnce    sync.Once
}

// CheckVersion returns ErrUnsupportedRuntime when version is older than
// MinRuntimeVersion. The leading "v" is optional; an empty version passes.
func CheckVersion(version string) error {
	if version == "" {
		return nil
	}
	v := version
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return fmt.Errorf("%w: invalid version %q", ErrUnsupportedRuntime, version)
	}
	if semver.Compare(v, MinRuntimeVersion) < 0 {
		return fmt.Errorf("%w: %s is older than %s", ErrUnsupportedRuntime, version, MinRuntimeVersion)
	}
	return nil
}

// Enable installs a new orchestrator into rt over the currently active
// resolver. Version and configuration problems are reported here rather
// than on first resolution.
func Enable(rt *Runtime, opts Options) (*Handle, error) {
	if err := CheckVersion(rt.Version); err != nil {
		return nil, err
	}
	cfg, err := loadConfig(opts)
	if err != nil {
		return nil, err
	}
	matcher, err := alias.New(cfg)
	if err != nil {
		return nil, fmt.Errorf("building path aliases: %w", err)
	}

	h := &Handle{
		rt:        rt,
		namespace: opts.Namespace,
		logger:    opts.Logger,
	}
	rt.install(h, opts.Loader,
		resolver.WithNamespace(opts.Namespace),
		resolver.WithMatcher(matcher),
		resolver.WithIndexFile(opts.IndexFile),
		resolver.WithDependencyDirs(opts.DependencyDirs),
		resolver.WithModuleCache(rt.Cache),
		resolver.WithLogger(opts.Logger),
	)

	event := h.logger.Debug().Str("namespace", h.namespace)
	if cfg != nil {
		event = event.Str("tsconfig", cfg.Path).Bool("aliases", cfg.HasAliases())
	}
	event.Msg("registration enabled")
	return h, nil
}

func loadConfig(opts Options) (*tsconfig.Config, error) {
	if opts.Config != nil {
		return opts.Config, nil
	}
	cache := opts.ConfigCache
	if cache == nil {
		cache = tsconfig.ProcessCache()
	}
	cwd := opts.Cwd
	if cwd == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		cwd = wd
	}
	if opts.ConfigPath != "" {
		filename := opts.ConfigPath
		if !filepath.IsAbs(filename) {
			filename = filepath.Join(cwd, filename)
		}
		cfg, err := cache.Load(filename)
		if err != nil {
			return nil, fmt.Errorf("loading %s: %w", filename, err)
		}
		return cfg, nil
	}
	cfg, err := cache.Discover(cwd)
	if err != nil {
		return nil, fmt.Errorf("discovering tsconfig from %s: %w", cwd, err)
	}
	return cfg, nil
}

// Namespace returns the namespace of the registration.
func (h *Handle) Namespace() string {
	return h.namespace
}

// Enabled reports whether the registration is still active.
func (h *Handle) Enabled() bool {
	return h.orchestrator.Enabled()
}

// Resolve resolves spec from parent (empty for an entry point) under this
// registration's namespace.
func (h *Handle) Resolve(spec, parent string) (string, error) {
	if !h.Enabled() {
		return "", ErrDisabled
	}
	if h.namespace != "" {
		spec = namespace.Tag(spec, h.namespace)
	}
	req := &resolver.Request{Specifier: spec}
	if parent != "" {
		req.Parent = &resolver.Parent{Path: parent}
	}
	return h.rt.Resolve(req)
}

// Disable stops the registration and restores the resolver and extension
// handlers that were active when it was enabled. A registration disabled
// while another one is installed above it stops intercepting immediately
// and is unwound when the one above is disabled. Disable is idempotent.
func (h *Handle) Disable() {
	h.disableOnce.Do(func() {
		h.orchestrator.SetEnabled(false)
		restored := h.rt.restore(h)
		h.logger.Debug().
			Str("namespace", h.namespace).
			Bool("restored", restored).
			Msg("registration disabled")
	})
}
