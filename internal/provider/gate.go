package provider

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// Gate serializes outbound calls to the identity provider. The provider
// enforces one global rate limit per credential across all endpoints, so
// every call type shares a single permit held for the full request/response
// cycle. Inject NoopGate in tests to remove the serialization.
type Gate interface {
	Acquire(ctx context.Context) error
	Release()
}

type callGate struct {
	sem *semaphore.Weighted
}

// NewGate returns a single-permit gate.
func NewGate() Gate {
	return &callGate{sem: semaphore.NewWeighted(1)}
}

func (g *callGate) Acquire(ctx context.Context) error {
	return g.sem.Acquire(ctx, 1)
}

func (g *callGate) Release() {
	g.sem.Release(1)
}

// NoopGate never blocks.
type NoopGate struct{}

func (NoopGate) Acquire(ctx context.Context) error { return nil }
func (NoopGate) Release()                          {}
