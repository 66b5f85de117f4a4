// Package urchindb implements a small embedded persistent key-value store:
// a single index file, organized into fixed-size blocks, holding a hash
// bucket table with chained variable-length records. Multiple processes
// may open the same store concurrently; mutating operations are serialized
// by a whole-file advisory lock and readers see a consistent snapshot.
//
// Grounded on original_source/src/urchin_db.c's db_open/db_close/db_store/
// db_fetch/db_delete/db_rewind/db_nextrec, layered on [internal/pager] and
// [internal/table] the way the teacher's pkg/slotcache layers Cache/Writer
// over a single mapped file.
package urchindb

import (
	"fmt"
	"os"

	"urchindb/internal/kvfile"
	"urchindb/internal/layout"
	"urchindb/internal/pager"
	"urchindb/internal/table"
)

// DB is a handle onto one open store: the underlying file, the pager's
// frame pool, the table, and an iteration cursor. A DB is not safe for
// concurrent use by multiple goroutines — spec.md §5 requires the caller to
// provide its own intra-process mutual exclusion if multiple goroutines
// share a handle; cross-process coordination is handled internally via
// [kvfile.Lock].
type DB struct {
	fs     kvfile.FS
	file   kvfile.File
	pager  *pager.Pager
	table  *table.Table
	cursor table.Cursor
	closed bool
	stats  stats
}

// Open opens or creates the store named name, using name+".idx" as the
// backing file in the current working directory (spec.md §6 "File
// naming"). If the file does not already exist, Open creates it, zero-fills
// the header region (superblock, freelist head, bucket table) under a
// write lock, then reopens it for reading and writing.
func Open(name string) (*DB, error) {
	return open(kvfile.NewReal(), name)
}

func open(fs kvfile.FS, name string) (*DB, error) {
	path := name + ".idx"

	f, err := fs.Create(path)
	switch {
	case err == nil:
		f, err = initializeNewStore(fs, path, f)
		if err != nil {
			return nil, err
		}
	case os.IsExist(err):
		f, err = fs.Open(path)
		if err != nil {
			return nil, fmt.Errorf("%w: open %s: %w", ErrIO, path, err)
		}
	default:
		return nil, fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}

	p, err := pager.Open(f)
	if err != nil {
		f.Close()
		return nil, err
	}

	return &DB{
		fs:     fs,
		file:   f,
		pager:  p,
		table:  table.New(p),
		cursor: table.Rewind(),
	}, nil
}

// initializeNewStore zero-fills the header region of a freshly created
// file under a write lock, then closes and reopens it for read/write, per
// spec.md §4.3 "Open(name)". Wrapping the zero-fill in the write lock — and
// tolerating a second process losing the exclusive-create race entirely —
// is spec.md §9 open question 4's resolution: whichever process's O_EXCL
// create wins does the zero-fill; the loser just opens the already-
// initialized file.
func initializeNewStore(fs kvfile.FS, path string, f kvfile.File) (kvfile.File, error) {
	if err := kvfile.Lock(f, kvfile.WriteLock); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	if _, err := f.Write(make([]byte, layout.RecordOff)); err != nil {
		kvfile.Unlock(f)
		f.Close()
		return nil, fmt.Errorf("%w: zero-fill header: %w", ErrIO, err)
	}

	if err := kvfile.Unlock(f); err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIO, err)
	}

	reopened, err := fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: reopen %s: %w", ErrIO, path, err)
	}
	return reopened, nil
}

// Close releases the store's file. Dirty frames must already have been
// committed by the preceding write operation; Close never flushes
// (spec.md §3.4 "Lifecycle").
func (db *DB) Close() error {
	if db.closed {
		return ErrClosed
	}
	db.closed = true

	if err := db.file.Close(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}
