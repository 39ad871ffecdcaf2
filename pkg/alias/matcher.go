// Package alias rewrites bare specifiers through the compilerOptions.paths
// and baseUrl settings of a project configuration.
package alias

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/dghubble/trie"

	"github.com/stackb/tsresolve/pkg/specifier"
	"github.com/stackb/tsresolve/pkg/tsconfig"
)

// substitution is a parsed candidate path template.
type substitution struct {
	prefix   string
	suffix   string
	wildcard bool
}

// entry is a parsed paths pattern.
type entry struct {
	pattern       string
	prefix        string
	suffix        string
	substitutions []substitution
}

// Matcher maps bare specifiers onto candidate base paths. A Matcher is
// immutable after New returns and is safe for concurrent use.
type Matcher struct {
	baseURL  string
	allowJs  bool
	exact    map[string]*entry
	patterns *trie.RuneTrie
}

// New builds a Matcher from the given config. A nil config yields a nil
// Matcher, which matches nothing.
func New(cfg *tsconfig.Config) (*Matcher, error) {
	if cfg == nil {
		return nil, nil
	}
	m := &Matcher{
		baseURL:  cfg.BaseURL,
		allowJs:  cfg.AllowJs,
		exact:    make(map[string]*entry),
		patterns: trie.NewRuneTrie(),
	}
	base := cfg.PathsBase
	if base == "" {
		base = cfg.Dir()
	}
	for _, mapping := range cfg.Paths {
		e, err := parseEntry(mapping, base)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", cfg.Path, err)
		}
		if !strings.Contains(mapping.Pattern, "*") {
			if _, ok := m.exact[e.pattern]; !ok {
				m.exact[e.pattern] = e
			}
			continue
		}
		var bucket []*entry
		if v := m.patterns.Get(e.prefix); v != nil {
			bucket = v.([]*entry)
		}
		m.patterns.Put(e.prefix, append(bucket, e))
	}
	return m, nil
}

func parseEntry(mapping tsconfig.PathMapping, base string) (*entry, error) {
	if strings.Count(mapping.Pattern, "*") > 1 {
		return nil, fmt.Errorf("pattern %q can have at most one '*' character", mapping.Pattern)
	}
	e := &entry{pattern: mapping.Pattern}
	e.prefix, e.suffix, _ = strings.Cut(mapping.Pattern, "*")

	for _, raw := range mapping.Substitutions {
		if strings.Count(raw, "*") > 1 {
			return nil, fmt.Errorf("substitution %q in pattern %q can have at most one '*' character", raw, mapping.Pattern)
		}
		sub := raw
		if !filepath.IsAbs(sub) {
			sub = filepath.Join(base, sub)
		}
		sub = filepath.ToSlash(sub)
		// Join drops a trailing separator; keep it so directory targets
		// stay directory-shaped.
		if strings.HasSuffix(raw, "/") && !strings.HasSuffix(sub, "/") {
			sub += "/"
		}
		prefix, suffix, wildcard := strings.Cut(sub, "*")
		e.substitutions = append(e.substitutions, substitution{prefix: prefix, suffix: suffix, wildcard: wildcard})
	}
	return e, nil
}

// AllowJs reports the allowJs setting the matcher was built with.
func (m *Matcher) AllowJs() bool {
	return m != nil && m.allowJs
}

// BaseURL returns the resolved baseUrl, or empty.

// Match returns the candidate paths for spec in priority order. Relative and
// absolute specifiers never match. An exact pattern beats any wildcard
// pattern; among wildcard patterns the longest prefix wins and equal
// prefixes fall back to declaration order. With no matching pattern, a
// configured baseUrl yields the single candidate baseUrl/spec.
func (m *Matcher) Match(spec string) []string {
	if m == nil || spec == "" {
		return nil
	}
	if specifier.Classify(spec) != specifier.BareOrURL || specifier.IsURL(spec) {
		return nil
	}
	if e, ok := m.exact[spec]; ok {
		return e.expand("")
	}

	var matched *entry
	m.patterns.WalkPath(spec, func(key string, value interface{}) error {
		for _, e := range value.([]*entry) {
			if len(spec) < len(e.prefix)+len(e.suffix) || !strings.HasSuffix(spec, e.suffix) {
				continue
			}
			if matched == nil || len(e.prefix) > len(matched.prefix) {
				matched = e
			}
			break
		}
		return nil
	})
	if matched == nil {
		if m.baseURL != "" {
			return []string{filepath.ToSlash(filepath.Join(m.baseURL, spec))}
		}
		return nil
	}
	capture := spec[len(matched.prefix) : len(spec)-len(matched.suffix)]
	return matched.expand(capture)
}

func (e *entry) expand(capture string) []string {
	candidates := make([]string, len(e.substitutions))
	for i, sub := range e.substitutions {
		if sub.wildcard {
			candidates[i] = sub.prefix + capture + sub.suffix
		} else {
			candidates[i] = sub.prefix
		}
	}
	return candidates
}
