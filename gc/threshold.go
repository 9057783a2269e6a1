package gc

import "colibri/word"

// Thresholds holds the tunables for the GC trigger policy of §4.C: the
// generational factor scaling each generation's allocation budget, the
// "every factor-th collection" frequency gate, and the promotion fill-ratio
// cutoff. Grounded on pkg/cache/memory_budget.go's MemoryBudget (a limit
// plus a pressure threshold), reworked from a byte budget into a
// generation-count budget.
type Thresholds struct {
	GenFactor        int     // GC_GEN_FACTOR: 10
	MinThreshold     int     // floor on a generation's page-count budget
	MaxThreshold     int     // ceiling on a generation's page-count budget
	PromoteFillRatio float64 // PROMOTE_PAGE_FILL_RATIO: 0.90
}

// DefaultThresholds matches original_source/src/colConf.h's constants.
func DefaultThresholds() Thresholds {
	return Thresholds{
		GenFactor:        10,
		MinThreshold:     1,
		MaxThreshold:     1 << 20,
		PromoteFillRatio: 0.90,
	}
}

// GenCounters tracks, per generation, how many cycles have passed since it
// was last collected — the "every factor-th collection" frequency gate.
type GenCounters struct {
	cyclesSinceCollected [word.MaxGenerations]int
}

// edenThreshold computes the Eden allocation threshold that triggers a GC
// cycle (§4.C "Trigger"): derived from the oldest generation-1 pool's page
// count, scaled by the generational factor, clamped to [min, max].
func (t Thresholds) edenThreshold(gen1PageCount int) int {
	v := gen1PageCount * t.GenFactor
	if v < t.MinThreshold {
		v = t.MinThreshold
	}
	if v > t.MaxThreshold {
		v = t.MaxThreshold
	}
	return v
}

// ShouldTriggerGC reports whether Eden's allocation count warrants a GC
// cycle on the outermost unpause (§4.C "Trigger").
func (t Thresholds) ShouldTriggerGC(eden *Pool) bool {
	return eden.AllocSinceGC >= t.edenThreshold(eden.PageCount)
}

// shouldCollectGeneration implements the per-generation gate of §4.C
// "Cycle": a generation fails (and so becomes max_collected_gen, exclusive)
// either because its own allocation threshold wasn't reached, or because its
// "every factor-th collection" frequency hasn't come up yet.
func (t Thresholds) shouldCollectGeneration(pool *Pool, cyclesSinceCollected int) bool {
	if pool.AllocSinceGC < t.edenThreshold(pool.PageCount) {
		return false
	}
	if cyclesSinceCollected < t.GenFactor {
		return false
	}
	return true
}

// MaxCollectedGeneration iterates generations 2..MaxGenerations-1 (Eden,
// generation 1, is always included) and returns the highest generation that
// should be collected this cycle, stopping at the first one that fails its
// threshold or frequency gate (§4.C "Cycle").
func MaxCollectedGeneration(t Thresholds, pools []*Pool, cycles *GenCounters) int {
	maxGen := 1
	for gen := 2; gen < len(pools) && gen < word.MaxGenerations; gen++ {
		if !t.shouldCollectGeneration(pools[gen], cycles.cyclesSinceCollected[gen]) {
			break
		}
		maxGen = gen
	}
	return maxGen
}

// NoteCollected resets the since-collected counter for every generation up
// to and including maxGen, and increments it for every older, uncollected
// generation (§4.C step 10's "Reset" applied to the frequency gate).
func (c *GenCounters) NoteCollected(maxGen int) {
	for gen := range c.cyclesSinceCollected {
		if gen <= maxGen {
			c.cyclesSinceCollected[gen] = 0
		} else {
			c.cyclesSinceCollected[gen]++
		}
	}
}
