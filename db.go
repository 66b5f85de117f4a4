package urchindb

import (
	"fmt"

	"urchindb/internal/kvfile"
	"urchindb/internal/layout"
)

// Store inserts or updates key with value. If key already exists and
// len(value) fits within its current data_len, the record is rewritten in
// place at the same offset; otherwise the old record is deleted and a new
// one inserted, which may relocate it (spec.md §4.3 "Store / Delete",
// §4.2 "Update").
func (db *DB) Store(key, value []byte) error {
	if db.closed {
		return ErrClosed
	}

	if err := kvfile.Lock(db.file, kvfile.WriteLock); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer kvfile.Unlock(db.file)

	if err := db.pager.ReloadSuper(); err != nil {
		return err
	}

	off, err := db.table.Find(key)
	if err != nil {
		return err
	}

	if off == 0 {
		if err := db.table.Insert(key, value); err != nil {
			return err
		}
		db.stats.inserts++
	} else {
		rec, err := db.table.ReadRecord(off)
		if err != nil {
			return err
		}

		if uint32(len(value)) <= rec.DataLen {
			if err := db.table.WriteRecord(off, rec, key, value); err != nil {
				return err
			}
		} else {
			if _, err := db.table.Delete(key); err != nil {
				return err
			}
			if err := db.table.Insert(key, value); err != nil {
				return err
			}
		}
		db.stats.updates++
	}

	return db.table.Commit()
}

// Fetch looks up key, returning its value and true if present, or
// (nil, false, nil) if key is not in the store — the idiomatic Go rendering
// of spec.md §7's NotFound kind, mirroring a map lookup's comma-ok form.
func (db *DB) Fetch(key []byte) ([]byte, bool, error) {
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

	off, err := db.table.Find(key)
	if err != nil {
		return nil, false, err
	}
	if off == 0 {
		db.stats.misses++
		return nil, false, nil
	}

	rec, err := db.table.ReadRecord(off)
	if err != nil {
		return nil, false, err
	}
	data, err := db.table.ReadData(off+layout.KeyOff+rec.KeyLen, rec.DataLen)
	if err != nil {
		return nil, false, err
	}

	db.stats.hits++
	return data, true, nil
}

// Delete removes key's record and pushes it onto the freelist. It returns
// nil on success and a wrapped ErrNotFound if key was not present —
// spec.md §4.2's "non-fatal at the table layer" rendered as a plain error
// callers check with errors.Is.
func (db *DB) Delete(key []byte) error {
	if db.closed {
		return ErrClosed
	}

	if err := kvfile.Lock(db.file, kvfile.WriteLock); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	defer kvfile.Unlock(db.file)

	if err := db.pager.ReloadSuper(); err != nil {
		return err
	}

	found, err := db.table.Delete(key)
	if err != nil {
		return err
	}

	if err := db.table.Commit(); err != nil {
		return err
	}

	if !found {
		return fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	db.stats.deletes++
	return nil
}
