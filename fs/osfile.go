package fs

import (
	"fmt"
	"os"

	"github.com/sarchlab/vmsim/mem/vm"
)

// An OSFile is a file of the host operating system.
type OSFile struct {
	*os.File
	flag int
}

// OpenOS opens a host file for reading and writing, or only for reading when
// it cannot be written.
func OpenOS(path string) (*OSFile, error) {
	flag := os.O_RDWR

	f, err := os.OpenFile(path, flag, 0)
	if err != nil && os.IsPermission(err) {
		flag = os.O_RDONLY
		f, err = os.OpenFile(path, flag, 0)
	}

	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}

	return &OSFile{File: f, flag: flag}, nil
}

// Length returns the size of the file.
func (f *OSFile) Length() (int64, error) {
	info, err := f.Stat()
	if err != nil {
		return 0, err
	}

	return info.Size(), nil
}

// Reopen opens the file again with the same access mode.
func (f *OSFile) Reopen() (vm.File, error) {
	handle, err := os.OpenFile(f.Name(), f.flag, 0)
	if err != nil {
		return nil, err
	}

	return &OSFile{File: handle, flag: f.flag}, nil
}
