// Package table interprets the region of an index file beyond the
// superblock as a fixed bucket hash table, a singly-linked freelist, and
// variable-length records chained off both — entirely through a
// [pager.Pager]'s byte-level read/write operations.
//
// Grounded on original_source/src/table.c (table_insert_rec,
// table_delete_rec, table_find_rec, table_commit) and
// original_source/src/urchin_db.c's inlined duplicates of the same
// functions (db_rewind/db_nextrec for the cursor).
package table

import (
	"bytes"
	"encoding/binary"
	"fmt"

	"urchindb/internal/layout"
	"urchindb/internal/pager"
)

// ErrIO wraps every failure of the underlying pager.
var ErrIO = fmt.Errorf("table: io failure")

// Table is a handle onto the hash table and freelist stored in p. It holds
// no state of its own beyond the pager reference; all persistent state
// lives in the index file.
type Table struct {
	p *pager.Pager
}

// New returns a Table backed by p.
func New(p *pager.Pager) *Table {
	return &Table{p: p}
}

// Cursor is forward-scan iteration state: the offset of the bucket-table
// slot (or freelist head, before the first advance) last consulted, and the
// offset of the next record to return, or 0 if none is pending.
//
// A Cursor is not re-entrant across concurrent modification of the table it
// walks, matching db_nextrec's documented behavior (spec.md §9 note 3):
// insertion at the head of a not-yet-visited bucket is observed, insertion
// at the head of the current bucket is not.
type Cursor struct {
	bucketOff uint32
	recOff    uint32
}

// Rewind returns a Cursor positioned before the first bucket, mirroring
// db_rewind's (chain_off = FREELIST_OFF, idxrec_off = 0).
func Rewind() Cursor {
	return Cursor{bucketOff: layout.FreelistOff, recOff: 0}
}

func (t *Table) readUint32(off uint32) (uint32, error) {
	var buf [4]byte
	if err := t.p.ReadAt(off, buf[:]); err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return binary.LittleEndian.Uint32(buf[:]), nil
}

func (t *Table) writeUint32(off uint32, v uint32) error {
	var buf [4]byte
	binary.LittleEndian.PutUint32(buf[:], v)
	if err := t.p.WriteAt(off, buf[:]); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// ReadRecord reads the fixed three-word header (next_off, key_len,
// data_len) at off.
func (t *Table) ReadRecord(off uint32) (Record, error) {
	var buf [layout.RecordHeaderSize]byte
	if err := t.p.ReadAt(off, buf[:]); err != nil {
		return Record{}, fmt.Errorf("%w: read record header at %d: %w", ErrIO, off, err)
	}
	return decodeHeader(buf[:]), nil
}

// ReadKey reads keyLen bytes of stored key starting at a record's own
// offset recOff (i.e. recOff+KeyOff is where the key bytes begin).
func (t *Table) ReadKey(recOff uint32, keyLen uint32) ([]byte, error) {
	buf := make([]byte, keyLen)
	if err := t.p.ReadAt(recOff+layout.KeyOff, buf); err != nil {
		return nil, fmt.Errorf("%w: read key at %d: %w", ErrIO, recOff, err)
	}
	return buf, nil
}

// ReadData reads dataLen bytes starting at the absolute file offset off,
// which the caller computes as recOff+KeyOff+keyLen.
func (t *Table) ReadData(off uint32, dataLen uint32) ([]byte, error) {
	buf := make([]byte, dataLen)
	if err := t.p.ReadAt(off, buf); err != nil {
		return nil, fmt.Errorf("%w: read data at %d: %w", ErrIO, off, err)
	}
	return buf, nil
}

// WriteRecord writes rec's header followed by key and data at off,
// overwriting whatever was there. Used both for fresh inserts and for the
// facade's in-place update path (spec.md §4.2 "Update"), which keeps
// next_off and key_len unchanged but may lower data_len.
func (t *Table) WriteRecord(off uint32, rec Record, key, data []byte) error {
	rec.KeyLen = uint32(len(key))
	rec.DataLen = uint32(len(data))

	header := encodeHeader(rec)
	buf := make([]byte, 0, len(header)+len(key)+len(data))
	buf = append(buf, header[:]...)
	buf = append(buf, key...)
	buf = append(buf, data...)

	if err := t.p.WriteAt(off, buf); err != nil {
		return fmt.Errorf("%w: write record at %d: %w", ErrIO, off, err)
	}
	return nil
}

// Find walks key's bucket chain and returns the offset of the matching
// record, or 0 if key is not present.
func (t *Table) Find(key []byte) (uint32, error) {
	chainOff := layout.BucketOffset(Hash(key))

	recOff, err := t.readUint32(chainOff)
	if err != nil {
		return 0, err
	}

	for recOff != 0 {
		rec, err := t.ReadRecord(recOff)
		if err != nil {
			return 0, err
		}
		storedKey, err := t.ReadKey(recOff, rec.KeyLen)
		if err != nil {
			return 0, err
		}
		if bytes.Equal(storedKey, key) {
			return recOff, nil
		}
		recOff = rec.NextOff
	}

	return 0, nil
}

// getFreeRec returns an offset with capacity for at least need payload
// bytes: the first freelist entry whose key_len+data_len is large enough
// (unlinked from the freelist), or a freshly appended slot sized exactly for
// need, per spec.md §4.2 "Record allocator" / original_source's
// _table_get_free_rec.
func (t *Table) getFreeRec(need uint32) (uint32, error) {
	prev := uint32(layout.FreelistOff)

	cur, err := t.readUint32(prev)
	if err != nil {
		return 0, err
	}

	for cur != 0 {
		rec, err := t.ReadRecord(cur)
		if err != nil {
			return 0, err
		}
		if rec.Capacity() >= need {
			if err := t.writeUint32(prev, rec.NextOff); err != nil {
				return 0, err
			}
			return cur, nil
		}
		prev = cur
		cur = rec.NextOff
	}

	off, err := t.p.Extend(layout.RecordHeaderSize + need)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrIO, err)
	}
	return off, nil
}

// Insert allocates a new record for (key, data), links it at the head of
// key's bucket chain, and writes it. It never checks whether key already
// exists; combining lookup with insert/update is the facade's job (spec.md
// §4.3's db_store).
func (t *Table) Insert(key, data []byte) error {
	chainOff := layout.BucketOffset(Hash(key))

	head, err := t.readUint32(chainOff)
	if err != nil {
		return err
	}

	newOff, err := t.getFreeRec(uint32(len(key) + len(data)))
	if err != nil {
		return err
	}

	if err := t.writeUint32(chainOff, newOff); err != nil {
		return err
	}

	rec := Record{NextOff: head, KeyLen: uint32(len(key)), DataLen: uint32(len(data))}
	return t.WriteRecord(newOff, rec, key, data)
}

// Delete removes key's record from its bucket chain and pushes it onto the
// head of the freelist, reporting whether key was found.
func (t *Table) Delete(key []byte) (bool, error) {
	chainOff := layout.BucketOffset(Hash(key))

	prev := chainOff
	cur, err := t.readUint32(chainOff)
	if err != nil {
		return false, err
	}

	for cur != 0 {
		rec, err := t.ReadRecord(cur)
		if err != nil {
			return false, err
		}
		storedKey, err := t.ReadKey(cur, rec.KeyLen)
		if err != nil {
			return false, err
		}

		if bytes.Equal(storedKey, key) {
			if err := t.writeUint32(prev, rec.NextOff); err != nil {
				return false, err
			}

			freeHead, err := t.readUint32(layout.FreelistOff)
			if err != nil {
				return false, err
			}
			if err := t.writeUint32(cur, freeHead); err != nil {
				return false, err
			}
			if err := t.writeUint32(layout.FreelistOff, cur); err != nil {
				return false, err
			}
			return true, nil
		}

		prev = cur
		cur = rec.NextOff
	}

	return false, nil
}

// Commit flushes every dirty frame through the pager, then the superblock
// frame itself, per spec.md §4.2 "Commit".
func (t *Table) Commit() error {
	if err := t.p.CommitAll(); err != nil {
		return fmt.Errorf("%w: %w", ErrIO, err)
	}
	return nil
}

// Next advances c and returns the next live key in forward-scan order, or
// (nil, false, nil) once the cursor has passed the bucket table.
func (t *Table) Next(c *Cursor) ([]byte, bool, error) {
	for c.recOff == 0 && c.bucketOff < layout.RecordOff {
		c.bucketOff += 4
		head, err := t.readUint32(c.bucketOff)
		if err != nil {
			return nil, false, err
		}
		c.recOff = head
	}

	if c.bucketOff >= layout.RecordOff {
		return nil, false, nil
	}

	rec, err := t.ReadRecord(c.recOff)
	if err != nil {
		return nil, false, err
	}
	key, err := t.ReadKey(c.recOff, rec.KeyLen)
	if err != nil {
		return nil, false, err
	}

	c.recOff = rec.NextOff

	return key, true, nil
}
