package host

import (
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/stackb/tsresolve/pkg/resolver"
	"github.com/stackb/tsresolve/pkg/specifier"
)

// MemoResolver implements resolver.Resolver, memoizing successful results.
// Concurrent requests for the same key share one call to next.
type MemoResolver struct {
	next  resolver.Resolver
	mu    sync.RWMutex
	known map[string]string
	group singleflight.Group
}

func NewMemoResolver(next resolver.Resolver) *MemoResolver {
	return &MemoResolver{
		next:  next,
		known: make(map[string]string),
	}
}

// Resolve implements the resolver.Resolver interface
func (r *MemoResolver) Resolve(req *resolver.Request) (string, error) {
	key := memoKey(req)
	r.mu.RLock()
	known, ok := r.known[key]
	r.mu.RUnlock()
	if ok {
		return known, nil
	}
	v, err, _ := r.group.Do(key, func() (interface{}, error) {
		resolved, err := r.next.Resolve(req)
		if err != nil {
			return "", err
		}
		r.mu.Lock()
		r.known[key] = resolved
		r.mu.Unlock()
		return resolved, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

// Len returns the number of memoized results.
func (r *MemoResolver) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.known)
}

// memoKey identifies a request by the parent directory and query, plus the
// specifier and conditions.
func memoKey(req *resolver.Request) string {
	var b strings.Builder
	if parent := req.ParentPath(); parent != "" {
		file, query := specifier.SplitQuery(parent)
		b.WriteString(filepath.Dir(file))
		b.WriteByte('?')
		b.WriteString(query)
	}
	b.WriteByte(0)
	b.WriteString(req.Specifier)
	b.WriteByte(0)
	b.WriteString(strings.Join(req.Conditions, ","))
	return b.String()
}
