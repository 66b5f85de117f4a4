package pager

// Timestamp is the (seconds, counter) pair the superblock stores per block,
// used to detect whether another process has written a block since a frame
// last cached it (spec.md §3.3 invariant 4).
type Timestamp struct {
	Seconds uint32
	Counter uint32
}

// Before reports whether t happened strictly before other, i.e. whether a
// frame stamped t is stale relative to a superblock slot stamped other.
func (t Timestamp) Before(other Timestamp) bool {
	if t.Seconds != other.Seconds {
		return t.Seconds < other.Seconds
	}
	return t.Counter < other.Counter
}

// next derives the timestamp that should be stamped on a block being
// written now, given the block's previous timestamp. The counter
// distinguishes multiple writes that land in the same wall-clock second
// (spec.md §4.1 "Timestamping").
func next(prev Timestamp, nowSeconds uint32) Timestamp {
	if nowSeconds == prev.Seconds {
		return Timestamp{Seconds: nowSeconds, Counter: prev.Counter + 1}
	}
	return Timestamp{Seconds: nowSeconds, Counter: 0}
}
