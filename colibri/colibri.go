// Package colibri is the library's public entry point: it wires together a
// gc.Collector, the platform threading model, and the GC-protected-region
// API that every container operation runs inside (§5, §6, §7).
package colibri

import (
	"colibri/gc"
	"colibri/platform"
	"colibri/word"
)

// Library is one initialized instance of Colibri — a thread group plus its
// collector (§6 "Library initialization"). Constructor returns (*Library,
// error) and Close releases platform resources, the same shape the rest of
// this codebase's constructors use.
type Library struct {
	group     *platform.Group
	collector *gc.Collector
	model     platform.ThreadingModel
}

// Option configures a Library at construction time.
type Option func(*Library)

// WithThreadingModel overrides the default Single threading model (§6
// "Threading models").
func WithThreadingModel(m platform.ThreadingModel) Option {
	return func(l *Library) { l.model = m }
}

// WithErrorHook sets the collector's ErrorHook (§7 "Error reporting"). The
// collector's cycle reports no errors through it: a compaction that cannot
// allocate falls back to marking in place without calling the hook.
func WithErrorHook(hook func(error)) Option {
	return func(l *Library) { l.collector.ErrorHook = hook }
}

// New initializes a Library. There is no on-disk state to open and nothing
// to recover (§6 "Persisted state: none") — initialization only reserves
// in-process memory and starts Eden.
func New(opts ...Option) (*Library, error) {
	l := &Library{
		collector: gc.NewCollector(),
		model:     platform.Single,
	}
	for _, opt := range opts {
		opt(l)
	}
	l.group = platform.NewGroup(l.model)
	return l, nil
}

// Close releases every pool's pages back to the platform. A Library is not
// usable after Close.
func (l *Library) Close() error {
	for gen := 1; gen < word.MaxGenerations; gen++ {
		pool := l.collector.Pools[gen]
		if pool == nil {
			continue
		}
		pool.ReleaseAll()
	}
	return nil
}

// Pool returns the collector's Eden pool, the allocation target for every
// container constructor in this library (§4.A "Eden").
func (l *Library) Pool() *gc.Pool { return l.collector.Pools[1] }

// Collector exposes the underlying collector for callers that need direct
// access to its pools, registries or Cycle (tests).
func (l *Library) Collector() *gc.Collector { return l.collector }

// Enter begins a GC-protected region: every allocating or mutating
// container call must happen between a matching Enter/Leave pair (§5
// "GC-protected region"). Calls nest.
func (l *Library) Enter() {
	l.collector.Guard.Pause()
}

// Leave ends one level of a GC-protected region, possibly running a
// collection cycle inline if this was the outermost call and the
// allocation threshold was crossed (§5 "Suspension points").
func (l *Library) Leave() {
	l.collector.Guard.Resume()
}

// Preserve roots w so it survives collection regardless of reachability
// from any live container (§4.B "preserve"). w must have been produced
// inside an Enter/Leave region.
func (l *Library) Preserve(w word.Word) error {
	if err := l.collector.Guard.RequireRegion(); err != nil {
		return err
	}
	target := w
	if word.TypeOf(w) == word.KindCircularList {
		target = word.CircularListCore(w)
	}
	l.collector.Roots.Preserve(target, 1, setPinned)
	return nil
}

// Release undoes one Preserve call on w.
func (l *Library) Release(w word.Word) error {
	if err := l.collector.Guard.RequireRegion(); err != nil {
		return err
	}
	target := w
	if word.TypeOf(w) == word.KindCircularList {
		target = word.CircularListCore(w)
	}
	l.collector.Roots.Release(target, setPinned)
	return nil
}

// setPinned flips a cell's header pinned bit, the flag mark consults to
// decide whether a root-registered word is eligible for compacting
// relocation (§4.C "pinned words are marked in place, never moved").
func setPinned(w word.Word, pinned bool) {
	if word.IsImmediate(w) {
		return
	}
	addr := uintptr(w)
	h := word.Header(addr)
	if !word.IsPredefinedHeader(h) {
		return
	}
	word.SetHeader(addr, word.WithHeaderPinned(h, pinned))
}

// ForceCycle runs a GC cycle immediately, outside the normal
// threshold-triggered schedule. Used by tests, not by the library itself (§7 "the core never requires a forced
// collection for correctness").
func (l *Library) ForceCycle() {
	l.collector.Cycle()
}
