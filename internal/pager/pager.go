// Package pager implements the paged block cache that sits directly on top
// of the index file: a fixed pool of LRU-ordered frames, write-back (dirty)
// semantics, and per-block timestamps held in a resident superblock frame
// that let the cache detect when another process has mutated a block out
// from under it.
//
// Grounded on original_source/src/pager.c; the public surface mirrors
// pager_read/pager_write/pager_commit_block but returns errors instead of
// aborting the process.
package pager

import (
	"encoding/binary"
	"fmt"
	"io"
	"time"

	"urchindb/internal/kvfile"
	"urchindb/internal/layout"
)

// ErrIO wraps every failure of the underlying file.
var ErrIO = fmt.Errorf("pager: io failure")

// Pager buffers random-access byte reads and writes to a single file
// through a fixed pool of frames, plus one more frame — Super — that sits
// outside the pool, is always resident, and holds the per-block timestamp
// table.
type Pager struct {
	file  kvfile.File
	Super *Frame
	pool  *framePool

	hits   uint64
	misses uint64
}

// Stats reports frame-pool hit/miss counts and the number of currently
// dirty frames, purely for diagnostics (spec.md §9 supplemental feature);
// it never affects behavior.
type Stats struct {
	Hits        uint64
	Misses      uint64
	DirtyFrames int
}

// Stats returns the pager's current hit/miss/dirty counters.
func (p *Pager) Stats() Stats {
	dirty := 0
	p.pool.all(func(slot int) {
		if p.pool.frames[slot].Dirty {
			dirty++
		}
	})
	return Stats{Hits: p.hits, Misses: p.misses, DirtyFrames: dirty}
}

// Open wraps an already-positioned, already-initialized index file. The
// caller is responsible for ensuring the header region (superblock,
// freelist head, bucket table) has been zero-filled if the file was just
// created; Open itself only populates the in-memory caches from whatever
// is already on disk.
func Open(f kvfile.File) (*Pager, error) {
	p := &Pager{
		file: f,
		Super: &Frame{
			Idx: layout.SuperOff / layout.BlockSize,
		},
		pool: newFramePool(layout.BlocksMax),
	}

	if err := p.ReloadSuper(); err != nil {
		return nil, err
	}

	return p, nil
}

// ReloadSuper re-reads block 0 from disk into the resident superblock
// frame, discarding any unsaved in-memory state. The database facade calls
// this once per public operation, under the appropriate lock, so that
// every operation observes the latest cross-process timestamps (spec.md
// §4.3 "reload the superblock so timestamps reflect other processes'
// writes").
func (p *Pager) ReloadSuper() error {
	n, err := readAt(p.file, 0, p.Super.Buf[:])
	if err != nil {
		return fmt.Errorf("%w: reload superblock: %w", ErrIO, err)
	}
	// A brand-new file is exactly header-sized already (the facade writes
	// it zero-filled at creation), so short reads here would only occur if
	// the file were corrupted; zero the remainder defensively rather than
	// operating on stale buffer contents.
	for i := n; i < len(p.Super.Buf); i++ {
		p.Super.Buf[i] = 0
	}
	p.Super.Dirty = false

	return nil
}

// ReadAt copies len(dst) bytes starting at file offset off into dst,
// demand-loading and refreshing frames as needed. The caller must ensure
// the file is at least off+len(dst) bytes long.
//
// A range may cross multiple consecutive blocks; each is prepared in turn
// and the overlapping slice copied out, per spec.md §4.1 "Block
// resolution".
func (p *Pager) ReadAt(off uint32, dst []byte) error {
	n := len(dst)
	if n == 0 {
		return nil
	}

	written := 0
	idxStart := off / layout.BlockSize
	idxEnd := (off + uint32(n) - 1) / layout.BlockSize

	for idx := idxStart; idx <= idxEnd; idx++ {
		fr, err := p.prepareBlock(idx)
		if err != nil {
			return err
		}

		blockLeft := idx * layout.BlockSize
		start := 0
		if off > blockLeft {
			start = int(off - blockLeft)
		}

		chunk := n - written
		if avail := layout.BlockSize - start; chunk > avail {
			chunk = avail
		}

		copy(dst[written:written+chunk], fr.Buf[start:start+chunk])
		written += chunk
	}

	return nil
}

// WriteAt copies src into the cache region covering [off, off+len(src)),
// marking every touched frame dirty. It does not flush to disk.
func (p *Pager) WriteAt(off uint32, src []byte) error {
	n := len(src)
	if n == 0 {
		return nil
	}

	written := 0
	idxStart := off / layout.BlockSize
	idxEnd := (off + uint32(n) - 1) / layout.BlockSize

	for idx := idxStart; idx <= idxEnd; idx++ {
		fr, err := p.prepareBlock(idx)
		if err != nil {
			return err
		}

		blockLeft := idx * layout.BlockSize
		start := 0
		if off > blockLeft {
			start = int(off - blockLeft)
		}

		chunk := n - written
		if avail := layout.BlockSize - start; chunk > avail {
			chunk = avail
		}

		copy(fr.Buf[start:start+chunk], src[written:written+chunk])
		fr.Dirty = true
		written += chunk
	}

	return nil
}

// Commit writes fr's buffer back to its file block, stamps a fresh
// timestamp into the superblock frame's slot for that block index, updates
// fr's own timestamp, and clears its dirty flag. The caller is responsible
// for committing the superblock frame itself afterward (CommitAll does
// this for a whole batch).
func (p *Pager) Commit(fr *Frame) error {
	return p.commitFrame(fr)
}

// CommitAll commits every dirty frame in the pool, then commits the
// superblock frame itself with a fresh timestamp — the table layer's
// top-level "commit" operation (spec.md §4.2).
func (p *Pager) CommitAll() error {
	var firstErr error

	p.pool.all(func(slot int) {
		if firstErr != nil {
			return
		}
		fr := &p.pool.frames[slot]
		if fr.Dirty {
			if err := p.commitFrame(fr); err != nil {
				firstErr = err
			}
		}
	})
	if firstErr != nil {
		return firstErr
	}

	return p.commitFrame(p.Super)
}

func (p *Pager) commitFrame(fr *Frame) error {
	ts := next(fr.TS, nowSeconds())

	size, err := fileSize(p.file)
	if err != nil {
		return fmt.Errorf("%w: stat: %w", ErrIO, err)
	}

	base := int64(fr.Idx) * layout.BlockSize
	toEnd := size - base
	n := int64(layout.BlockSize)
	if toEnd < n {
		n = toEnd
	}
	if n < 0 {
		n = 0
	}

	if _, err := p.file.Seek(base, io.SeekStart); err != nil {
		return fmt.Errorf("%w: seek: %w", ErrIO, err)
	}
	if _, err := p.file.Write(fr.Buf[:n]); err != nil {
		return fmt.Errorf("%w: write block %d: %w", ErrIO, fr.Idx, err)
	}

	if fr != p.Super {
		if err := p.stampSuperSlot(fr.Idx, ts); err != nil {
			return err
		}
	}

	fr.Dirty = false
	fr.TS = ts

	return nil
}

// stampSuperSlot records ts for blockIdx in the resident superblock
// frame's in-memory buffer and marks it dirty so the next CommitAll flushes
// it to disk.
func (p *Pager) stampSuperSlot(blockIdx uint32, ts Timestamp) error {
	if blockIdx >= layout.MaxTimestampedBlocks {
		return fmt.Errorf("%w: block %d exceeds superblock timestamp table (max %d)",
			ErrIO, blockIdx, layout.MaxTimestampedBlocks)
	}

	off := blockIdx * layout.TimestampSlotSize
	binary.LittleEndian.PutUint32(p.Super.Buf[off:], ts.Seconds)
	binary.LittleEndian.PutUint32(p.Super.Buf[off+4:], ts.Counter)
	p.Super.Dirty = true

	return nil
}

// superTimestamp returns the timestamp the superblock currently records
// for blockIdx.
func (p *Pager) superTimestamp(blockIdx uint32) (Timestamp, error) {
	if blockIdx >= layout.MaxTimestampedBlocks {
		return Timestamp{}, fmt.Errorf("%w: block %d exceeds superblock timestamp table (max %d)",
			ErrIO, blockIdx, layout.MaxTimestampedBlocks)
	}

	off := blockIdx * layout.TimestampSlotSize
	return Timestamp{
		Seconds: binary.LittleEndian.Uint32(p.Super.Buf[off:]),
		Counter: binary.LittleEndian.Uint32(p.Super.Buf[off+4:]),
	}, nil
}

// prepareBlock ensures the frame caching block idx is present and fresh,
// returning it. See spec.md §4.1 "Prepare block i".
func (p *Pager) prepareBlock(idx uint32) (*Frame, error) {
	if slot, ok := p.pool.find(idx); ok {
		fr := &p.pool.frames[slot]

		wantTS, err := p.superTimestamp(idx)
		if err != nil {
			return nil, err
		}

		if fr.TS.Before(wantTS) {
			if err := p.loadBlock(fr, idx); err != nil {
				return nil, err
			}
		}
		p.pool.touch(slot)
		p.hits++

		return fr, nil
	}

	p.misses++
	slot := p.pool.lruSlot()
	fr := &p.pool.frames[slot]
	oldIdx := fr.Idx

	if fr.Dirty {
		if err := p.commitFrame(fr); err != nil {
			return nil, err
		}
	}

	if err := p.loadBlock(fr, idx); err != nil {
		return nil, err
	}
	p.pool.rebind(slot, oldIdx, idx)
	p.pool.touch(slot)

	return fr, nil
}

// loadBlock reads block idx from disk into fr, clearing dirty and
// resetting fr's timestamp from the superblock's record for that slot.
func (p *Pager) loadBlock(fr *Frame, idx uint32) error {
	base := int64(idx) * layout.BlockSize

	n, err := readAt(p.file, base, fr.Buf[:])
	if err != nil {
		return fmt.Errorf("%w: read block %d: %w", ErrIO, idx, err)
	}
	for i := n; i < len(fr.Buf); i++ {
		fr.Buf[i] = 0
	}

	fr.Idx = idx
	fr.Dirty = false

	ts, err := p.superTimestamp(idx)
	if err != nil {
		return err
	}
	fr.TS = ts

	return nil
}

func fileSize(f kvfile.File) (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}
	return info.Size(), nil
}

func readAt(f kvfile.File, off int64, dst []byte) (int, error) {
	if _, err := f.Seek(off, io.SeekStart); err != nil {
		return 0, err
	}
	n, err := f.Read(dst)
	if err != nil && n == 0 && err != io.EOF {
		return 0, err
	}
	return n, nil
}

func nowSeconds() uint32 {
	return uint32(time.Now().Unix())
}

// FileSize returns the index file's current length.
func (p *Pager) FileSize() (uint32, error) {
	size, err := fileSize(p.file)
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %w", ErrIO, err)
	}
	return uint32(size), nil
}

// Extend appends n zero bytes to the end of the file and returns the
// offset at which they start. Record allocation uses this directly against
// the file (bypassing the frame cache), exactly as
// original_source/src/table.c's _table_get_free_rec does when no freelist
// entry is large enough: the pager's job is caching reads/writes to
// already-allocated regions, not deciding how the file grows.
func (p *Pager) Extend(n uint32) (uint32, error) {
	size, err := fileSize(p.file)
	if err != nil {
		return 0, fmt.Errorf("%w: stat: %w", ErrIO, err)
	}

	if _, err := p.file.Seek(size, io.SeekStart); err != nil {
		return 0, fmt.Errorf("%w: seek end: %w", ErrIO, err)
	}

	zeros := make([]byte, n)
	if _, err := p.file.Write(zeros); err != nil {
		return 0, fmt.Errorf("%w: extend: %w", ErrIO, err)
	}

	return uint32(size), nil
}
