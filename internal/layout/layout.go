// Package layout defines the fixed, on-disk geometry of an urchindb index
// file. Both the pager (which caches raw blocks) and the table (which
// interprets the bytes beyond the superblock as buckets and records) build
// on these constants, exactly like the original pager.h header that both
// pager.c and table.c included.
package layout

const (
	// BlockSize is the fixed size of a cached block, in bytes.
	BlockSize = 4096

	// BlocksMax is the number of regular frames in the pager's pool, not
	// counting the one dedicated superblock frame. Chosen, as in the
	// original, as BlockSize/16 — a pool-capacity constant, independent of
	// how many distinct on-disk blocks exist.
	BlocksMax = BlockSize / 16

	// BucketsMax is the fixed number of hash-bucket chains.
	BucketsMax = 1024

	// TimestampSlotSize is the on-disk size of one superblock timestamp
	// entry: two little-endian uint32s, (seconds, counter).
	TimestampSlotSize = 8

	// MaxTimestampedBlocks is how many distinct block indices the
	// superblock's fixed 4096-byte timestamp table can address
	// (BlockSize / TimestampSlotSize). A block index at or beyond this
	// bound cannot be staleness-checked and is rejected rather than
	// silently overrunning the superblock buffer.
	MaxTimestampedBlocks = BlockSize / TimestampSlotSize

	// SuperOff is the file offset of the superblock.
	SuperOff = 0
	// SuperSize is the size of the superblock region.
	SuperSize = BlockSize

	// FreelistOff is the file offset of the 4-byte freelist head pointer.
	FreelistOff = SuperSize

	// HashTabOff is the file offset of the first bucket head.
	HashTabOff = FreelistOff + 4

	// RecordOff is the file offset where the record region begins.
	RecordOff = HashTabOff + 4*BucketsMax

	// RecordHeaderSize is the size of a record's fixed header:
	// next_off, key_len, data_len, each a little-endian uint32.
	RecordHeaderSize = 4 * 3

	// KeyOff is the offset of a record's key bytes relative to the
	// record's own start.
	KeyOff = RecordHeaderSize
)

// BucketOffset returns the file offset of the bucket head slot for the
// given FNV-1a hash of a key.
func BucketOffset(hash uint32) uint32 {
	return HashTabOff + (hash%BucketsMax)*4
}
