package pager

import (
	"path/filepath"
	"testing"

	"urchindb/internal/kvfile"
	"urchindb/internal/layout"
)

func openTemp(t *testing.T) kvfile.File {
	t.Helper()

	path := filepath.Join(t.TempDir(), "store.idx")
	f, err := (&kvfile.Real{}).Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	t.Cleanup(func() { f.Close() })

	return f
}

func Test_Open_EmptyFile_ZeroFillsSuper(t *testing.T) {
	t.Parallel()

	p, err := Open(openTemp(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	for i, b := range p.Super.Buf {
		if b != 0 {
			t.Fatalf("Super.Buf[%d] = %d, want 0 on empty file", i, b)
		}
	}
}

func Test_WriteAt_ReadAt_RoundTrip_SingleBlock(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write(make([]byte, layout.BlockSize*2)); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte("hello urchin")
	off := uint32(layout.BlockSize + 10)
	if err := p.WriteAt(off, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, len(want))
	if err := p.ReadAt(off, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("ReadAt: got %q, want %q", got, want)
	}
}

func Test_ReadAt_WriteAt_SpansMultipleBlocks(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write(make([]byte, layout.BlockSize*3)); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := make([]byte, layout.BlockSize+20)
	for i := range want {
		want[i] = byte(i)
	}

	off := uint32(layout.BlockSize - 10)
	if err := p.WriteAt(off, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}

	got := make([]byte, len(want))
	if err := p.ReadAt(off, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("byte %d: got %d, want %d", i, got[i], want[i])
		}
	}
}

func Test_CommitAll_FlushesDirtyFramesAndSuper(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write(make([]byte, layout.BlockSize*2)); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	want := []byte("committed")
	if err := p.WriteAt(layout.BlockSize, want); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	if err := p.CommitAll(); err != nil {
		t.Fatalf("CommitAll: %v", err)
	}

	p2, err := Open(f)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	got := make([]byte, len(want))
	if err := p2.ReadAt(layout.BlockSize, got); err != nil {
		t.Fatalf("ReadAt after reopen: %v", err)
	}
	if string(got) != string(want) {
		t.Fatalf("ReadAt after reopen: got %q, want %q", got, want)
	}
}

func Test_ReloadSuper_PicksUpExternalWrite(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write(make([]byte, layout.BlockSize)); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	observer, err := Open(f)
	if err != nil {
		t.Fatalf("Open observer: %v", err)
	}

	if err := p.stampSuperSlot(3, Timestamp{Seconds: 42, Counter: 1}); err != nil {
		t.Fatalf("stampSuperSlot: %v", err)
	}
	if err := p.CommitAll(); err != nil {
		t.Fatalf("CommitAll: %v", err)
	}

	if err := observer.ReloadSuper(); err != nil {
		t.Fatalf("ReloadSuper: %v", err)
	}

	ts, err := observer.superTimestamp(3)
	if err != nil {
		t.Fatalf("superTimestamp: %v", err)
	}
	if ts.Seconds != 42 || ts.Counter != 1 {
		t.Fatalf("superTimestamp(3) = %+v, want {42 1}", ts)
	}
}

func Test_StampSuperSlot_RejectsOutOfRange(t *testing.T) {
	t.Parallel()

	p, err := Open(openTemp(t))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	if err := p.stampSuperSlot(layout.MaxTimestampedBlocks, Timestamp{}); err == nil {
		t.Fatalf("stampSuperSlot(MaxTimestampedBlocks): want error, got nil")
	}
	if _, err := p.superTimestamp(layout.MaxTimestampedBlocks); err == nil {
		t.Fatalf("superTimestamp(MaxTimestampedBlocks): want error, got nil")
	}
}

func Test_PrepareBlock_EvictsLRU_WriteBackBeforeReuse(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	total := layout.BlocksMax + 2
	if _, err := f.Write(make([]byte, layout.BlockSize*(total+1))); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	// Dirty block 1, then touch enough further blocks to evict it from the
	// pool, forcing a write-back before its frame is reused.
	if err := p.WriteAt(layout.BlockSize*1, []byte("evict-me")); err != nil {
		t.Fatalf("WriteAt: %v", err)
	}
	for idx := 2; idx <= total; idx++ {
		if _, err := p.prepareBlock(uint32(idx)); err != nil {
			t.Fatalf("prepareBlock(%d): %v", idx, err)
		}
	}

	got := make([]byte, 8)
	if err := p.ReadAt(layout.BlockSize*1, got); err != nil {
		t.Fatalf("ReadAt evicted block: %v", err)
	}
	if string(got) != "evict-me" {
		t.Fatalf("evicted block contents = %q, want %q (write-back lost)", got, "evict-me")
	}
}

func Test_ReadAt_ShortFile_ZeroPads(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write([]byte("short")); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	got := make([]byte, 10)
	if err := p.ReadAt(0, got); err != nil {
		t.Fatalf("ReadAt: %v", err)
	}
	if string(got[:5]) != "short" {
		t.Fatalf("ReadAt: got %q, want prefix %q", got, "short")
	}
	for i := 5; i < len(got); i++ {
		if got[i] != 0 {
			t.Fatalf("ReadAt: byte %d = %d, want 0 past EOF", i, got[i])
		}
	}
}

func Test_Extend_AppendsZeroedRegionAtEOF(t *testing.T) {
	t.Parallel()

	f := openTemp(t)
	if _, err := f.Write(make([]byte, layout.BlockSize)); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	p, err := Open(f)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	off, err := p.Extend(64)
	if err != nil {
		t.Fatalf("Extend: %v", err)
	}
	if off != layout.BlockSize {
		t.Fatalf("Extend offset = %d, want %d", off, layout.BlockSize)
	}

	size, err := p.FileSize()
	if err != nil {
		t.Fatalf("FileSize: %v", err)
	}
	if size != layout.BlockSize+64 {
		t.Fatalf("FileSize = %d, want %d", size, layout.BlockSize+64)
	}

	got := make([]byte, 64)
	if err := p.ReadAt(off, got); err != nil {
		t.Fatalf("ReadAt extended region: %v", err)
	}
	for i, b := range got {
		if b != 0 {
			t.Fatalf("extended byte %d = %d, want 0", i, b)
		}
	}
}

func Test_Timestamp_Before(t *testing.T) {
	t.Parallel()

	cases := []struct {
		a, b Timestamp
		want bool
	}{
		{Timestamp{1, 0}, Timestamp{2, 0}, true},
		{Timestamp{2, 0}, Timestamp{1, 0}, false},
		{Timestamp{5, 0}, Timestamp{5, 1}, true},
		{Timestamp{5, 1}, Timestamp{5, 1}, false},
	}
	for _, c := range cases {
		if got := c.a.Before(c.b); got != c.want {
			t.Errorf("%+v.Before(%+v) = %v, want %v", c.a, c.b, got, c.want)
		}
	}
}

func Test_Next_BumpsCounterWithinSameSecond(t *testing.T) {
	t.Parallel()

	ts := next(Timestamp{Seconds: 100, Counter: 3}, 100)
	if ts.Seconds != 100 || ts.Counter != 4 {
		t.Fatalf("next same-second = %+v, want {100 4}", ts)
	}

	ts = next(Timestamp{Seconds: 100, Counter: 3}, 101)
	if ts.Seconds != 101 || ts.Counter != 0 {
		t.Fatalf("next new-second = %+v, want {101 0}", ts)
	}
}
