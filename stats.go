package urchindb

import "urchindb/internal/pager"

// stats accumulates the handle-level counters Stats reports alongside the
// pager's own frame-pool counters.
type stats struct {
	hits, misses, inserts, updates, deletes uint64
}

// Stats reports purely observational counters: table-level operation
// counts plus the pager's frame-pool hit/miss and dirty-frame counts.
// Grounded on the original's commented-out debug printf's in table_commit
// (original_source/src/table.c, original_source/src/urchin_db.c) and the
// wider example pack's buffer-pool stats counters (spec.md §9 supplemental
// feature). This is diagnostic only; it never changes behavior and is not
// part of the store's invariants.
type Stats struct {
	Hits        uint64
	Misses      uint64
	Inserts     uint64
	Updates     uint64
	Deletes     uint64
	FrameHits   uint64
	FrameMisses uint64
	DirtyFrames int
}

// Stats returns a snapshot of the handle's current counters. It takes no
// lock: the counts are this process's own handle-local view and are not
// synchronized across processes.
func (db *DB) Stats() Stats {
	var ps pager.Stats
	if db.pager != nil {
		ps = db.pager.Stats()
	}

	return Stats{
		Hits:        db.stats.hits,
		Misses:      db.stats.misses,
		Inserts:     db.stats.inserts,
		Updates:     db.stats.updates,
		Deletes:     db.stats.deletes,
		FrameHits:   ps.Hits,
		FrameMisses: ps.Misses,
		DirtyFrames: ps.DirtyFrames,
	}
}
