package agent

import (
	"context"

	"golang.org/x/sync/semaphore"
)

// DefaultResultLimit is used when a request asks for no limit and the
// connection sets no cap either.
const DefaultResultLimit = 10000

// QueryGate applies a connection's request limits to pulls.
type QueryGate struct {
	sem        *semaphore.Weighted
	maxResults int
}

// NewQueryGate builds a gate from the optional connection limits. A nil or
// non-positive value means unbounded.
func NewQueryGate(maxConcurrent, maxResults *int) *QueryGate {
	g := &QueryGate{}
	if maxConcurrent != nil && *maxConcurrent > 0 {
		g.sem = semaphore.NewWeighted(int64(*maxConcurrent))
	}
	if maxResults != nil && *maxResults > 0 {
		g.maxResults = *maxResults
	}
	return g
}

// Acquire blocks until a request slot is free. The returned func releases it.
func (g *QueryGate) Acquire(ctx context.Context) (func(), error) {
	if g.sem == nil {
		return func() {}, nil
	}
	if err := g.sem.Acquire(ctx, 1); err != nil {
		return nil, err
	}
	return func() { g.sem.Release(1) }, nil
}

// Limit caps a requested result limit.
func (g *QueryGate) Limit(requested int) int {
	if requested <= 0 {
		if g.maxResults > 0 {
			return g.maxResults
		}
		return DefaultResultLimit
	}
	if g.maxResults > 0 && requested > g.maxResults {
		return g.maxResults
	}
	return requested
}
