package platform

import "sync"

// ThreadingModel selects the GC synchronization strategy at library init
// (§6 "Threading-model selector").
type ThreadingModel int

const (
	// Single selects no synchronization overhead: one Eden, one group, no
	// cross-thread GC coordination.
	Single ThreadingModel = iota
	// PerThreadGroup gives each OS thread its own independent group.
	PerThreadGroup
	// ExplicitGroup lets the client assign threads to groups explicitly.
	ExplicitGroup
)

// Group is the unit of GC coordination: it records the threading model and
// keeps a per-thread Eden guard for each member thread. The pools and the
// pause/resume region of §5 live on gc.Collector and gc.Guard, not here.
type Group struct {
	Model ThreadingModel

	mu        sync.Mutex
	collecting sync.Cond
	pauseCount int // clients currently holding the GC-pause counter

	edens map[int64]*sync.Mutex // per-thread Eden guard, keyed by thread id
}

// NewGroup creates a Group under the given threading model.
func NewGroup(model ThreadingModel) *Group {
	g := &Group{Model: model, edens: make(map[int64]*sync.Mutex)}
	g.collecting.L = &g.mu
	return g
}

// EdenFor returns (creating if necessary) the per-thread Eden guard for
// threadID. Under Single, all callers share threadID 0.
func (g *Group) EdenFor(threadID int64) *sync.Mutex {
	g.mu.Lock()
	defer g.mu.Unlock()
	m, ok := g.edens[threadID]
	if !ok {
		m = &sync.Mutex{}
		g.edens[threadID] = m
	}
	return m
}

// Lock and Unlock expose the group's mutex directly for callers that
// coordinate on the group; gc.Guard keeps its own mutex and does not use
// them.
func (g *Group) Lock()   { g.mu.Lock() }
func (g *Group) Unlock() { g.mu.Unlock() }

// Wait blocks the caller on the group's condition variable (used by a
// pausing client to wait out an in-progress collection). Must be called
// with the group locked.
func (g *Group) Wait() { g.collecting.Wait() }

// Broadcast wakes every waiter (used when a collection cycle finishes).
// Must be called with the group locked.
func (g *Group) Broadcast() { g.collecting.Broadcast() }
