// Package lifecycle provides generation tickets that let asynchronous work
// detect that the session it was issued for has ended.
package lifecycle

import (
	"context"
	"sync"
)

// Generation is a counter bumped every time the owner is torn down.
// It is safe for concurrent use.
type Generation struct {
	mu      sync.Mutex
	current uint64
	ctx     context.Context
	cancel  context.CancelFunc
	parent  context.Context
}

// New creates a generation whose contexts derive from parent.
func New(parent context.Context) *Generation {
	if parent == nil {
		parent = context.Background()
	}
	g := &Generation{parent: parent, current: 1}
	g.ctx, g.cancel = context.WithCancel(parent)
	return g
}

// Ticket captures the current generation.
func (g *Generation) Ticket() Ticket {
	g.mu.Lock()
	defer g.mu.Unlock()
	return Ticket{gen: g, id: g.current, ctx: g.ctx}
}

// End invalidates every ticket issued so far and cancels their context.
// Later tickets belong to a fresh generation.
func (g *Generation) End() {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.current++
	g.cancel()
	g.ctx, g.cancel = context.WithCancel(g.parent)
}

// Current returns the current generation number.
func (g *Generation) Current() uint64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.current
}

// Ticket identifies the generation an operation was started in.
type Ticket struct {
	gen *Generation
	id  uint64
	ctx context.Context
}

// Valid reports whether the generation is still current. The zero Ticket
// is never valid.
func (t Ticket) Valid() bool {
	return t.gen != nil && t.gen.Current() == t.id
}

// Context is cancelled when the ticket's generation ends.
func (t Ticket) Context() context.Context {
	if t.ctx == nil {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		return ctx
	}
	return t.ctx
}

// ID returns the generation number.
func (t Ticket) ID() uint64 {
	return t.id
}
