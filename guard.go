package rtsa

import "sync/atomic"

// initGuard records which session currently owns the process-wide native
// initialization. It never blocks: a second claimant fails immediately.
type initGuard struct {
	owner atomic.Pointer[string]
}

var processGuard initGuard

// acquire claims the guard for id. It returns false if another id holds it.
// Re-acquiring by the current owner succeeds.
func (g *initGuard) acquire(id string) bool {
	if g.owner.CompareAndSwap(nil, &id) {
		return true
	}
	cur := g.owner.Load()
	return cur != nil && *cur == id
}

// release drops the guard if id holds it.
func (g *initGuard) release(id string) {
	cur := g.owner.Load()
	if cur != nil && *cur == id {
		g.owner.CompareAndSwap(cur, nil)
	}
}

// holder returns the owning session id, or "".
func (g *initGuard) holder() string {
	if cur := g.owner.Load(); cur != nil {
		return *cur
	}
	return ""
}
