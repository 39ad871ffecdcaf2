package host

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ManifestFilename is the package manifest looked up in package roots.
const ManifestFilename = "package.json"

// Manifest is the subset of a package manifest consulted during bare
// specifier resolution.
type Manifest struct {
	Name    string  `json:"name"`
	Main    string  `json:"main"`
	Exports *Target `json:"exports"`
}

// Target is one node of an "exports" tree: a path string, an ordered map of
// conditions or subpaths, a fallback array, or null. Object key order is
// kept since the first matching condition wins.
type Target struct {
	Path   string
	Keys   []string
	Values []*Target
	List   []*Target
	Null   bool
}

// UnmarshalJSON implements json.Unmarshaler.
func (t *Target) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	return t.decode(dec)
}

func (t *Target) decode(dec *json.Decoder) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	switch v := tok.(type) {
	case nil:
		t.Null = true
	case string:
		t.Path = v
	case json.Delim:
		switch v {
		case '{':
			for dec.More() {
				keyTok, err := dec.Token()
				if err != nil {
					return err
				}
				key, _ := keyTok.(string)
				child := new(Target)
				if err := child.decode(dec); err != nil {
					return err
				}
				t.Keys = append(t.Keys, key)
				t.Values = append(t.Values, child)
			}
		case '[':
			for dec.More() {
				child := new(Target)
				if err := child.decode(dec); err != nil {
					return err
				}
				t.List = append(t.List, child)
			}
		}
		// closing delimiter
		if _, err := dec.Token(); err != nil {
			return err
		}
	default:
		return fmt.Errorf("invalid exports target %v", tok)
	}
	return nil
}

// isSubpathMap reports whether t is an object keyed by subpaths rather than
// conditions.
func (t *Target) isSubpathMap() bool {
	return len(t.Keys) > 0 && strings.HasPrefix(t.Keys[0], ".")
}

// ReadManifest parses the manifest in dir. A missing manifest yields a nil
// Manifest and nil error.
func ReadManifest(dir string) (*Manifest, error) {
	data, err := os.ReadFile(filepath.Join(dir, ManifestFilename))
	if err != nil {
		if isNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var m Manifest
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Join(dir, ManifestFilename), err)
	}
	return &m, nil
}

// ResolveExport maps a package subpath ("." or "./x") through the exports
// tree. It reports false when the subpath is not exported under the given
// conditions.
func (m *Manifest) ResolveExport(subpath string, conditions []string) (string, bool) {
	if m.Exports == nil {
		return "", false
	}
	exports := m.Exports
	if !exports.isSubpathMap() {
		if subpath != "." {
			return "", false
		}
		return exports.resolve("", conditions)
	}

	for i, key := range exports.Keys {
		if key == subpath && !strings.Contains(key, "*") {
			return exports.Values[i].resolve("", conditions)
		}
	}

	// Patterns: the longest prefix before '*' wins.
	best := -1
	var capture string
	for i, key := range exports.Keys {
		prefix, suffix, ok := strings.Cut(key, "*")
		if !ok {
			continue
		}
		if !strings.HasPrefix(subpath, prefix) || !strings.HasSuffix(subpath, suffix) || len(subpath) < len(prefix)+len(suffix) {
			continue
		}
		if best >= 0 {
			bestPrefix, _, _ := strings.Cut(exports.Keys[best], "*")
			if len(prefix) <= len(bestPrefix) {
				continue
			}
		}
		best = i
		capture = subpath[len(prefix) : len(subpath)-len(suffix)]
	}
	if best < 0 {
		return "", false
	}
	return exports.Values[best].resolve(capture, conditions)
}

func (t *Target) resolve(capture string, conditions []string) (string, bool) {
	switch {
	case t.Null:
		return "", false
	case t.Path != "":
		return strings.ReplaceAll(t.Path, "*", capture), true
	case t.List != nil:
		for _, item := range t.List {
			if p, ok := item.resolve(capture, conditions); ok {
				return p, true
			}
		}
		return "", false
	}
	for i, key := range t.Keys {
		if key != "default" && !contains(conditions, key) {
			continue
		}
		if p, ok := t.Values[i].resolve(capture, conditions); ok {
			return p, true
		}
	}
	return "", false
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
