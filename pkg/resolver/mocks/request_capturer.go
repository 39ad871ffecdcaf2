package mocks

import (
	"sync"
	"testing"

	resolver "github.com/stackb/tsresolve/pkg/resolver"
	mock "github.com/stretchr/testify/mock"
)

// RequestCapturer is a host Resolver that records every specifier it is
// asked for and reports each one as not found.
type RequestCapturer struct {
	Resolver *Resolver

	mu  sync.Mutex
	Got []string
}

func (k *RequestCapturer) capture(req *resolver.Request) bool {
	k.mu.Lock()
	defer k.mu.Unlock()
	k.Got = append(k.Got, req.Specifier)
	return true
}

func NewRequestCapturer(t *testing.T) *RequestCapturer {
	c := &RequestCapturer{
		Resolver: NewResolver(t),
	}

	c.Resolver.
		On("Resolve", mock.MatchedBy(c.capture)).
		Maybe().
		Return(func(req *resolver.Request) (string, error) {
			return "", resolver.NewNotFoundError(req)
		})

	return c
}
