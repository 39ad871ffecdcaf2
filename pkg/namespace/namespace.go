// Package namespace tags specifiers with the identity of the registration
// that owns them, so that independently configured registrations can share
// one host without observing each other's requests.
package namespace

import (
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/stackb/tsresolve/pkg/extensions"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// Key is the reserved query key carrying the tag.
const Key = "namespace"

// New returns a fresh tag. Tags are time-ordered and unique per call.
func New() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}

// Tag appends tag to spec under the reserved key, replacing any previous
// value. Other query parameters are kept in their original order.
func Tag(spec, tag string) string {
	path, query := specifier.SplitQuery(spec)
	query = setParam(query, tag)
	return specifier.JoinQuery(path, query)
}

// Extract returns the tag carried by spec, if any.
func Extract(spec string) (string, bool) {
	_, query := specifier.SplitQuery(spec)
	return FromQuery(query)
}

// FromQuery returns the tag carried by a raw query string.
func FromQuery(query string) (string, bool) {
	if query == "" {
		return "", false
	}
	values, err := url.ParseQuery(query)
	if err != nil {
		// ParseQuery keeps every parsable pair alongside the error.
		if values == nil {
			return "", false
		}
	}
	if _, ok := values[Key]; !ok {
		return "", false
	}
	return values.Get(Key), true
}

// Strip removes the reserved key from spec.
func Strip(spec string) string {
	path, query := specifier.SplitQuery(spec)
	return specifier.JoinQuery(path, setParam(query, ""))
}

// Inherit returns the tag that applies to a request: the request's own tag,
// or else the tag recorded on the parent path.
func Inherit(query, parentPath string) (string, bool) {
	if tag, ok := FromQuery(query); ok {
		return tag, true
	}
	if parentPath == "" {
		return "", false
	}
	return Extract(parentPath)
}

// WithParam returns query with the reserved key set to tag (or removed when
// tag is empty).
func WithParam(query, tag string) string {
	return setParam(query, tag)
}

// Reattach decorates a resolved path with the request query so downstream
// resolutions from that file inherit its tag. Targets that reject query
// strings are returned bare, as is everything when probe is set.
func Reattach(resolved, query string, probe bool) string {
	if probe || query == "" {
		return resolved
	}
	if !specifier.IsFilePath(resolved) {
		return resolved
	}
	path, existing := specifier.SplitQuery(resolved)
	if extensions.RejectsQuery(path) {
		return resolved
	}
	if existing != "" {
		return resolved
	}
	return specifier.JoinQuery(path, query)
}

// setParam rewrites the raw query, preserving the order and encoding of the
// untouched pairs.
func setParam(query, tag string) string {
	var parts []string
	if query != "" {
		for _, pair := range strings.Split(query, "&") {
			if pair == "" {
				continue
			}
			name, _, _ := strings.Cut(pair, "=")
			if n, err := url.QueryUnescape(name); err == nil && n == Key {
				continue
			}
			parts = append(parts, pair)
		}
	}
	if tag != "" {
		parts = append(parts, Key+"="+url.QueryEscape(tag))
	}
	return strings.Join(parts, "&")
}
