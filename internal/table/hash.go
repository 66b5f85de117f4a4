package table

import "hash/fnv"

// Hash returns the FNV-1a 32-bit hash of key, used to pick a bucket via
// BucketOffset. hash/fnv implements the exact same constants (offset basis
// 2166136261, prime 16777619) as original_source/src/table.c's _hash_key, so
// production hashing goes through the standard library rather than a
// hand-rolled loop.
func Hash(key []byte) uint32 {
	h := fnv.New32a()
	h.Write(key) //nolint:errcheck // hash.Hash32.Write never returns an error
	return h.Sum32()
}

// hashReference reimplements _hash_key's loop directly, byte for byte. It
// exists only so hash_test.go can fuzz it against Hash and confirm they
// agree; production code always calls Hash.
func hashReference(key []byte) uint32 {
	h := uint32(2166136261)
	for _, b := range key {
		h ^= uint32(b)
		h *= 16777619
	}
	return h
}
