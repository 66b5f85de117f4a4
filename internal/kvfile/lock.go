package kvfile

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// Mode selects the kind of POSIX record lock to acquire.
type Mode int

const (
	// ReadLock is a shared lock: any number of readers may hold it, but it
	// excludes writers.
	ReadLock Mode = iota
	// WriteLock is an exclusive lock: only one holder, excluding all
	// readers and writers.
	WriteLock
)

// Lock acquires a whole-file advisory POSIX record lock on f's descriptor,
// blocking until it is available.
//
// This is the single-writer/multi-reader primitive spec.md §5 depends on:
// mutating operations take [WriteLock], reads and iteration take [ReadLock].
// It uses fcntl(2) with F_SETLKW (matching the original C implementation's
// use of fcntl rather than flock(2)), l_start=0, l_len=0 meaning "to the
// end of file regardless of growth" — the whole file is always covered
// even as the store's record region is appended to.
//
// Lock acquisition is blocking with no timeout, by design (spec.md §5:
// "wait forever").
func Lock(f File, mode Mode) error {
	lt := int16(unix.F_RDLCK)
	if mode == WriteLock {
		lt = unix.F_WRLCK
	}

	fl := unix.Flock_t{
		Type:   lt,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &fl); err != nil {
		return fmt.Errorf("kvfile: lock: %w", err)
	}

	return nil
}

// Unlock releases a lock previously acquired with [Lock].
func Unlock(f File) error {
	fl := unix.Flock_t{
		Type:   unix.F_UNLCK,
		Whence: int16(unix.SEEK_SET),
		Start:  0,
		Len:    0,
	}

	if err := unix.FcntlFlock(f.Fd(), unix.F_SETLKW, &fl); err != nil {
		return fmt.Errorf("kvfile: unlock: %w", err)
	}

	return nil
}
