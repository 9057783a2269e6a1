package gc

import (
	"errors"
	"sync"
)

// ErrProtectViolation is reported (§7 "GC-protect violation") when a client
// calls an allocating or mutating operation outside a protected region.
var ErrProtectViolation = errors.New("gc: operation outside a protected region")

// groupState mirrors §4.C "States": idle, protected, or collecting.
type groupState int

const (
	stateIdle groupState = iota
	stateProtected
	stateCollecting
)

// Guard implements the GC-protected region of §5: `pause`/`resume` bracket
// client mutation, nesting by reference count. Every call takes the
// guard's own mutex; only the outermost Resume runs the collect callback.
// Grounded on
// pkg/mvcc/manager.go's TransactionManager.Begin/Commit refcounted
// bookkeeping and pkg/cowbtree/epoch.go's Enter/Leave reader-guard shape.
type Guard struct {
	mu          sync.Mutex
	cond        sync.Cond
	state       groupState
	pauseDepth  int // nesting count of the outermost pause/resume pair
	runCollect  func() // invoked inline by the outermost Resume, may be nil
}

// NewGuard creates an idle guard. runCollect is called (without the guard's
// lock held) whenever the outermost Resume decides a GC cycle is due.
func NewGuard(runCollect func()) *Guard {
	g := &Guard{runCollect: runCollect}
	g.cond.L = &g.mu
	return g
}

// Pause enters (or re-enters) a GC-protected region, blocking until any
// in-progress collection finishes (§5 "Suspension points").
func (g *Guard) Pause() {
	g.mu.Lock()
	for g.state == stateCollecting {
		g.cond.Wait()
	}
	g.pauseDepth++
	g.state = stateProtected
	g.mu.Unlock()
}

// TryPause is the non-blocking variant: it fails if a GC is in progress
// rather than waiting (§5 "Suspension points").
func (g *Guard) TryPause() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.state == stateCollecting {
		return false
	}
	g.pauseDepth++
	g.state = stateProtected
	return true
}

// Resume leaves one level of nesting. Only the outermost Resume actually
// may trigger a GC cycle inline before returning (§5 "Suspension points").
func (g *Guard) Resume() {
	g.mu.Lock()
	if g.pauseDepth == 0 {
		g.mu.Unlock()
		return
	}
	g.pauseDepth--
	if g.pauseDepth > 0 {
		g.mu.Unlock()
		return
	}

	// Outermost: transition protected -> collecting -> idle around the
	// caller-supplied cycle, then wake anyone waiting in Pause.
	run := g.runCollect
	g.state = stateCollecting
	g.mu.Unlock()

	if run != nil {
		run()
	}

	g.mu.Lock()
	g.state = stateIdle
	g.cond.Broadcast()
	g.mu.Unlock()
}

// InRegion reports whether the calling goroutine currently holds the region
// (used by allocating/mutating entry points to enforce §7's GC-protect
// check). Because Colibri is single-threaded cooperative, one Guard serves
// one logical mutator thread; pauseDepth > 0 is sufficient.
func (g *Guard) InRegion() bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pauseDepth > 0
}

// RequireRegion returns ErrProtectViolation unless a protected region is
// currently held, for use at the top of every allocating/mutating public
// operation (§7).
func (g *Guard) RequireRegion() error {
	if !g.InRegion() {
		return ErrProtectViolation
	}
	return nil
}
