// Package kvfile provides the filesystem abstraction the store's core is
// built on: random-access byte read/write and blocking advisory whole-file
// locking. File access goes through the [FS] and [File] interfaces, so
// another implementation can stand in for the real filesystem.
//
// The main types are:
//   - [File]: an open file descriptor, satisfied by [os.File]
//   - [FS]: factory for [File]s, satisfied by [Real]
//   - [Real]: production implementation backed by the [os] package
package kvfile

import (
	"io"
	"os"
)

// File represents an open, OS-backed file descriptor.
//
// This interface is satisfied by [os.File]. [File.Fd] must return a valid
// descriptor usable with syscalls (for example [golang.org/x/sys/unix.FcntlFlock])
// for as long as the file stays open.
type File interface {
	io.ReadWriteCloser
	io.Seeker

	// Fd returns the OS file descriptor. See [os.File.Fd].
	Fd() uintptr

	// Truncate changes the size of the file. See [os.File.Truncate].
	Truncate(size int64) error

	// Stat returns file info. See [os.File.Stat].
	Stat() (os.FileInfo, error)
}

// FS creates and opens files for the store.
//
// A single implementation, [Real], is provided; it is an interface only so
// tests can substitute an in-memory or fault-injecting double without
// touching the real filesystem.
type FS interface {
	// Open opens an existing file for reading and writing. See [os.OpenFile].
	Open(path string) (File, error)

	// Create creates a new file, failing if one already exists at path.
	// See [os.O_CREATE]|[os.O_EXCL].
	Create(path string) (File, error)

	// Exists reports whether a file exists at path.
	Exists(path string) (bool, error)
}

// Real implements [FS] using the real filesystem.
//
// All methods are pure passthroughs to the [os] package with identical
// behavior and error semantics, mirroring how the store's index file is
// opened unbuffered and addressed purely by absolute offset.
type Real struct{}

// NewReal returns a new [Real] filesystem.
func NewReal() *Real {
	return &Real{}
}

// Open opens path for reading and writing. The store never buffers at the
// OS-library level; the pager is the only cache.
func (r *Real) Open(path string) (File, error) {
	return os.OpenFile(path, os.O_RDWR, 0)
}

// Create creates path exclusively, failing with [os.ErrExist] if it is
// already present. Used once, at store creation, so that two processes
// racing to create the same store never both zero-fill it (spec.md §9,
// open question 4).
func (r *Real) Create(path string) (File, error) {
	return os.OpenFile(path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0o644)
}

// Exists reports whether path exists, distinguishing "not found" from other
// stat failures.
func (r *Real) Exists(path string) (bool, error) {
	_, err := os.Stat(path)
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// Compile-time interface checks.
var (
	_ File = (*os.File)(nil)
	_ FS   = (*Real)(nil)
)
