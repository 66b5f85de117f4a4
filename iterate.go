package urchindb

import (
	"fmt"

	"urchindb/internal/kvfile"
	"urchindb/internal/table"
)

// Rewind resets the iteration cursor to the start of the bucket table. It
// takes no lock itself; the cursor is purely in-memory state (spec.md §4.3
// "Rewind").
func (db *DB) Rewind() {
	db.cursor = table.Rewind()
}

// Next advances the iteration cursor and returns the next live key, or
// (nil, false, nil) once the cursor has passed the bucket table. Each call
// is its own critical section — it takes the read lock and reloads the
// superblock independently, so iteration over a store another process is
// concurrently mutating is safe call-by-call, though the resulting
// sequence is only an interleaving, not a snapshot (spec.md §5, §9 note 3).
// Next is not safe to call concurrently with another Next/Rewind on the
// same DB.
func (db *DB) Next() ([]byte, bool, error) {
	if db.closed {
		return nil, false, ErrClosed
	}

	if err := kvfile.Lock(db.file, kvfile.ReadLock); err != nil {
		return nil, false, fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer kvfile.Unlock(db.file)

	if err := db.pager.ReloadSuper(); err != nil {
		return nil, false, err
	}

	key, ok, err := db.table.Next(&db.cursor)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		return nil, false, nil
	}

	return key, true, nil
}
