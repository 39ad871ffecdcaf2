// Package tsconfig discovers and loads the project configuration document
// (tsconfig.json) consulted for path aliasing.
package tsconfig

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tailscale/hujson"
)

const (
	// DefaultFilename is the configuration document looked up by Find.
	DefaultFilename = "tsconfig.json"
	// PathEnvVar overrides discovery with an explicit configuration path.
	PathEnvVar = "TSX_TSCONFIG_PATH"
)

// PathMapping is a single entry of compilerOptions.paths.
type PathMapping struct {
	Pattern       string
	Substitutions []string
}

// Config is the subset of a loaded tsconfig relevant to resolution. All
// paths are absolute.
type Config struct {
	// Path is the file the config was loaded from.
	Path string
	// BaseURL is the resolved compilerOptions.baseUrl, or empty.
	BaseURL string
	// Paths are the compilerOptions.paths entries in declaration order.
	Paths []PathMapping
	// PathsBase is the directory non-absolute substitutions resolve against:
	// BaseURL when set, otherwise the directory of the config declaring
	// paths.
	PathsBase string
	// AllowJs is compilerOptions.allowJs.
	AllowJs bool
}

// Dir is the directory containing the config file.
func (c *Config) Dir() string {
	return filepath.Dir(c.Path)
}

// HasAliases reports whether the config defines any form of aliasing.
func (c *Config) HasAliases() bool {
	return c != nil && (c.BaseURL != "" || len(c.Paths) > 0)
}

// document is the raw shape of a tsconfig file.
type document struct {
	Extends         json.RawMessage `json:"extends"`
	CompilerOptions struct {
		BaseURL *string         `json:"baseUrl"`
		Paths   json.RawMessage `json:"paths"`
		AllowJs *bool           `json:"allowJs"`
	} `json:"compilerOptions"`
}

// layer is one file of an extends chain, already resolved against its own
// directory.
type layer struct {
	baseURL   *string
	paths     []PathMapping
	pathsBase string
	hasPaths  bool
	allowJs   *bool
}

// Load reads the config at filename, following extends.
func Load(filename string) (*Config, error) {
	abs, err := filepath.Abs(filename)
	if err != nil {
		return nil, err
	}
	var merged layer
	if err := loadLayer(abs, &merged, nil); err != nil {
		return nil, err
	}
	cfg := &Config{
		Path:    abs,
		Paths:   merged.paths,
		AllowJs: merged.allowJs != nil && *merged.allowJs,
	}
	if merged.baseURL != nil {
		cfg.BaseURL = *merged.baseURL
		cfg.PathsBase = cfg.BaseURL
	} else if merged.hasPaths {
		cfg.PathsBase = merged.pathsBase
	}
	return cfg, nil
}

// loadLayer applies the file at abs onto merged. Parents are applied first,
// so values set by the child win.
func loadLayer(abs string, merged *layer, chain []string) error {
	for _, seen := range chain {
		if seen == abs {
			return fmt.Errorf("tsconfig extends cycle: %s -> %s", strings.Join(chain, " -> "), abs)
		}
	}
	chain = append(chain, abs)

	data, err := os.ReadFile(abs)
	if err != nil {
		return fmt.Errorf("reading tsconfig: %w", err)
	}
	doc, paths, err := parse(data)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", abs, err)
	}
	dir := filepath.Dir(abs)

	parents, err := parseExtends(doc.Extends)
	if err != nil {
		return fmt.Errorf("parsing %s: %w", abs, err)
	}
	for _, parent := range parents {
		parentPath, err := resolveExtends(dir, parent)
		if err != nil {
			return fmt.Errorf("%s: %w", abs, err)
		}
		if err := loadLayer(parentPath, merged, chain); err != nil {
			return err
		}
	}

	opts := doc.CompilerOptions
	if opts.BaseURL != nil {
		base := *opts.BaseURL
		if !filepath.IsAbs(base) {
			base = filepath.Join(dir, base)
		}
		merged.baseURL = &base
	}
	if paths != nil {
		merged.paths = paths
		merged.pathsBase = dir
		merged.hasPaths = true
	}
	if opts.AllowJs != nil {
		merged.allowJs = opts.AllowJs
	}
	return nil
}

// parse standardizes the JSONC input and decodes it. The paths object is
// decoded separately to keep its declaration order.
func parse(data []byte) (*document, []PathMapping, error) {
	var doc document
	if len(bytes.TrimSpace(data)) == 0 {
		return &doc, nil, nil
	}
	std, err := hujson.Standardize(data)
	if err != nil {
		return nil, nil, err
	}
	if err := json.Unmarshal(std, &doc); err != nil {
		return nil, nil, err
	}
	raw := doc.CompilerOptions.Paths
	if len(raw) == 0 || string(raw) == "null" {
		return &doc, nil, nil
	}
	paths, err := parsePaths(raw)
	if err != nil {
		return nil, nil, fmt.Errorf("compilerOptions.paths: %w", err)
	}
	return &doc, paths, nil
}

func parsePaths(raw json.RawMessage) ([]PathMapping, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	tok, err := dec.Token()
	if err != nil {
		return nil, err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return nil, fmt.Errorf("expected object, got %v", tok)
	}
	paths := make([]PathMapping, 0)
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		pattern := tok.(string)
		var subs []string
		if err := dec.Decode(&subs); err != nil {
			return nil, fmt.Errorf("pattern %q: substitutions must be an array of strings: %w", pattern, err)
		}
		paths = append(paths, PathMapping{Pattern: pattern, Substitutions: subs})
	}
	return paths, nil
}

func parseExtends(raw json.RawMessage) ([]string, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}
	var one string
	if err := json.Unmarshal(raw, &one); err == nil {
		return []string{one}, nil
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err != nil {
		return nil, fmt.Errorf("extends must be a string or an array of strings")
	}
	return many, nil
}

// resolveExtends locates the file named by an extends entry.
func resolveExtends(dir, ref string) (string, error) {
	if strings.HasPrefix(ref, ".") || filepath.IsAbs(ref) {
		p := ref
		if !filepath.IsAbs(p) {
			p = filepath.Join(dir, p)
		}
		if isFile(p) {
			return p, nil
		}
		if isFile(p + ".json") {
			return p + ".json", nil
		}
		return "", fmt.Errorf("extended tsconfig not found: %q", ref)
	}
	for d := dir; ; d = filepath.Dir(d) {
		p := filepath.Join(d, "node_modules", ref)
		if isFile(p) {
			return p, nil
		}
		if isFile(p + ".json") {
			return p + ".json", nil
		}
		if isFile(filepath.Join(p, DefaultFilename)) {
			return filepath.Join(p, DefaultFilename), nil
		}
		if parent := filepath.Dir(d); parent == d {
			break
		}
	}
	return "", fmt.Errorf("extended tsconfig package not found: %q", ref)
}

// Find walks from dir towards the root looking for filename. The empty
// string is returned when no ancestor has one.
func Find(dir, filename string) (string, error) {
	if filename == "" {
		filename = DefaultFilename
	}
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		p := filepath.Join(dir, filename)
		if isFile(p) {
			return p, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

func isFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}
