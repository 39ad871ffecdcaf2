package resolver

// ChainResolver implements Resolver over a chain of resolvers. The first
// resolver that does not report ErrNotFound wins.
type ChainResolver struct {
	chain []Resolver
}

func NewChainResolver(chain ...Resolver) *ChainResolver {
	return &ChainResolver{
		chain: chain,
	}
}

// Resolve implements the Resolver interface
func (r *ChainResolver) Resolve(req *Request) (string, error) {
	for _, next := range r.chain {
		resolved, err := next.Resolve(req)
		if err == nil {
			return resolved, nil
		}
		if IsNotFound(err) {
			continue
		}
		return "", err
	}
	return "", NewNotFoundError(req)
}

// TryEach resolves each candidate specifier through next in order. The first
// success wins; a fatal error stops the loop. When every candidate falls
// through, the last fallthrough error is returned.
func TryEach(next Resolver, req *Request, candidates []string) (string, error) {
	err := NewNotFoundError(req)
	for _, candidate := range candidates {
		resolved, cerr := next.Resolve(req.WithSpecifier(candidate))
		if cerr == nil {
			return resolved, nil
		}
		if !IsFallthrough(cerr) {
			return "", cerr
		}
		err = cerr
	}
	return "", err
}
