package types

import (
	"io"
	"io/fs"
)

// FS is the filesystem interface the pipeline operates against. Production
// code uses the OS implementation; tests substitute an afero-backed one to
// prove, among other things, that dry runs never mutate anything.
type FS interface {
	// Metadata
	Stat(name string) (fs.FileInfo, error)
	Lstat(name string) (fs.FileInfo, error)
	ReadDir(name string) ([]fs.DirEntry, error)

	// Content
	Open(name string) (io.ReadCloser, error)
	Create(name string) (io.WriteCloser, error)

	// Mutation
	MkdirAll(path string, perm fs.FileMode) error
	Remove(name string) error
	Rename(oldpath, newpath string) error

	// Links. Implementations that cannot represent links (in-memory test
	// filesystems) return an error wrapping errors.ErrUnsupported.
	Symlink(oldname, newname string) error
	Readlink(name string) (string, error)
	Link(oldname, newname string) error
}
