// Package fs provides the files that back program images and memory
// mappings.
package fs

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/sarchlab/vmsim/mem/vm"
)

var (
	// ErrNotFound is returned when a name does not exist.
	ErrNotFound = errors.New("file not found")

	// ErrExists is returned when creating a name that is taken.
	ErrExists = errors.New("file already exists")

	// ErrClosed is returned when using a closed handle.
	ErrClosed = errors.New("file handle closed")
)

type inode struct {
	sync.Mutex
	data      []byte
	openCount int
}

// FS is an in-memory file system with fixed-size files. Removing a name does
// not affect handles that are already open.
type FS struct {
	sync.Mutex
	files map[string]*inode
}

// New creates an empty file system.
func New() *FS {
	return &FS{files: make(map[string]*inode)}
}

// Create adds a file holding a copy of data.
func (fs *FS) Create(name string, data []byte) error {
	fs.Lock()
	defer fs.Unlock()

	if _, found := fs.files[name]; found {
		return fmt.Errorf("%w: %s", ErrExists, name)
	}

	fs.files[name] = &inode{data: append([]byte(nil), data...)}

	return nil
}

// Open returns a new handle to a file.
func (fs *FS) Open(name string) (*Handle, error) {
	fs.Lock()
	ino, found := fs.files[name]
	fs.Unlock()

	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return newHandle(name, ino), nil
}

// Remove deletes a name.
func (fs *FS) Remove(name string) error {
	fs.Lock()
	defer fs.Unlock()

	if _, found := fs.files[name]; !found {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	delete(fs.files, name)

	return nil
}

// Contents returns a copy of the bytes of a file.
func (fs *FS) Contents(name string) ([]byte, error) {
	ino, err := fs.lookup(name)
	if err != nil {
		return nil, err
	}

	ino.Lock()
	defer ino.Unlock()

	return append([]byte(nil), ino.data...), nil
}

// OpenCount returns the number of open handles to a file.
func (fs *FS) OpenCount(name string) (int, error) {
	ino, err := fs.lookup(name)
	if err != nil {
		return 0, err
	}

	ino.Lock()
	defer ino.Unlock()

	return ino.openCount, nil
}

// Names returns the names of all files in order.
func (fs *FS) Names() []string {
	fs.Lock()
	defer fs.Unlock()

	names := make([]string, 0, len(fs.files))
	for name := range fs.files {
		names = append(names, name)
	}

	sort.Strings(names)

	return names
}

func (fs *FS) lookup(name string) (*inode, error) {
	fs.Lock()
	defer fs.Unlock()

	ino, found := fs.files[name]
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
	}

	return ino, nil
}

// A Handle is an open file. Handles to the same file share its bytes but are
// closed independently.
type Handle struct {
	name   string
	inode  *inode
	closed bool
}

func newHandle(name string, ino *inode) *Handle {
	ino.Lock()
	ino.openCount++
	ino.Unlock()

	return &Handle{name: name, inode: ino}
}

// Name returns the name the file was opened with.
func (h *Handle) Name() string {
	return h.name
}

// ReadAt reads len(p) bytes at off. It returns io.EOF with fewer bytes when
// the file ends first.
func (h *Handle) ReadAt(p []byte, off int64) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}

	h.inode.Lock()
	defer h.inode.Unlock()

	if off < 0 {
		return 0, errors.New("negative offset")
	}

	if off >= int64(len(h.inode.data)) {
		return 0, io.EOF
	}

	n := copy(p, h.inode.data[off:])
	if n < len(p) {
		return n, io.EOF
	}

	return n, nil
}

// WriteAt writes p at off. Files do not grow; bytes past the end are dropped
// and reported with io.ErrShortWrite.
func (h *Handle) WriteAt(p []byte, off int64) (int, error) {
	if h.closed {
		return 0, ErrClosed
	}

	h.inode.Lock()
	defer h.inode.Unlock()

	if off < 0 {
		return 0, errors.New("negative offset")
	}

	if off >= int64(len(h.inode.data)) {
		return 0, io.ErrShortWrite
	}

	n := copy(h.inode.data[off:], p)
	if n < len(p) {
		return n, io.ErrShortWrite
	}

	return n, nil
}

// Length returns the size of the file.
func (h *Handle) Length() (int64, error) {
	if h.closed {
		return 0, ErrClosed
	}

	h.inode.Lock()
	defer h.inode.Unlock()

	return int64(len(h.inode.data)), nil
}

// Reopen returns a new handle to the same file.
func (h *Handle) Reopen() (vm.File, error) {
	if h.closed {
		return nil, ErrClosed
	}

	return newHandle(h.name, h.inode), nil
}

// Close closes the handle.
func (h *Handle) Close() error {
	if h.closed {
		return ErrClosed
	}

	h.closed = true

	h.inode.Lock()
	h.inode.openCount--
	h.inode.Unlock()

	return nil
}
