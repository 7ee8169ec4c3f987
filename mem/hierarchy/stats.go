package hierarchy

import (
	"sync"

	"github.com/sarchlab/cachesim/mem/cache"
	"github.com/sarchlab/cachesim/sim/hooking"
)

// LevelStats counts the outcomes seen by one cache level.
type LevelStats struct {
	Level       string `json:"level"`
	Reads       uint64 `json:"reads"`
	Writes      uint64 `json:"writes"`
	ReadHits    uint64 `json:"read_hits"`
	ReadMisses  uint64 `json:"read_misses"`
	WriteHits   uint64 `json:"write_hits"`
	WriteMisses uint64 `json:"write_misses"`
	Evictions   uint64 `json:"evictions"`
}

// Accesses returns the number of reads and writes that reached the level.
func (s LevelStats) Accesses() uint64 {
	return s.Reads + s.Writes
}

// Hits returns the number of read and write hits.
func (s LevelStats) Hits() uint64 {
	return s.ReadHits + s.WriteHits
}

// Misses returns the number of read and write misses.
func (s LevelStats) Misses() uint64 {
	return s.ReadMisses + s.WriteMisses
}

// HitRate returns hits over accesses, or 0 if the level saw no access.
func (s LevelStats) HitRate() float64 {
	if s.Accesses() == 0 {
		return 0
	}

	return float64(s.Hits()) / float64(s.Accesses())
}

func (s *LevelStats) count(o Outcome) {
	switch o {
	case ReadHit:
		s.Reads++
		s.ReadHits++
	case ReadMiss:
		s.Reads++
		s.ReadMisses++
	case WriteHit:
		s.Writes++
		s.WriteHits++
	case WriteMiss:
		s.Writes++
		s.WriteMisses++
	}
}

// A StatsCollector is a hook that counts outcomes and evictions per level.
// Snapshots may be taken from other goroutines while the simulation runs.
type StatsCollector struct {
	lock  sync.Mutex
	l1    LevelStats
	l2    LevelStats
	total uint64
}

// NewStatsCollector creates a collector and attaches it to the controller
// and to its levels when they accept hooks.
func NewStatsCollector(c *Controller) *StatsCollector {
	s := &StatsCollector{
		l1: LevelStats{Level: c.L1().Name()},
		l2: LevelStats{Level: c.L2().Name()},
	}

	c.AcceptHook(s)

	if h, ok := c.L1().(hooking.Hookable); ok {
		h.AcceptHook(&evictionCounter{stats: s, level: &s.l1})
	}

	if h, ok := c.L2().(hooking.Hookable); ok {
		h.AcceptHook(&evictionCounter{stats: s, level: &s.l2})
	}

	return s
}

// Func counts the outcomes of an access.
func (s *StatsCollector) Func(ctx hooking.HookCtx) {
	if ctx.Pos != HookPosAccess {
		return
	}

	result := ctx.Detail.(Result)

	s.lock.Lock()
	defer s.lock.Unlock()

	s.total++
	s.l1.count(result.L1)
	s.l2.count(result.L2)
}

// NumAccesses returns the number of accesses counted so far.
func (s *StatsCollector) NumAccesses() uint64 {
	s.lock.Lock()
	defer s.lock.Unlock()

	return s.total
}

// Snapshot returns a copy of the current counters, L1 first.
func (s *StatsCollector) Snapshot() []LevelStats {
	s.lock.Lock()
	defer s.lock.Unlock()

	return []LevelStats{s.l1, s.l2}
}

type evictionCounter struct {
	stats *StatsCollector
	level *LevelStats
}

func (e *evictionCounter) Func(ctx hooking.HookCtx) {
	if ctx.Pos != cache.HookPosBlockEvict {
		return
	}

	e.stats.lock.Lock()
	defer e.stats.lock.Unlock()

	e.level.Evictions++
}
