package vm

import "fmt"

type filePage struct {
	file      File
	offset    int64
	readBytes uint64
	zeroBytes uint64
	mapBase   uint64
}

// LoadMappedFile is the initializer of memory-mapped pages. It moves the
// handle of the payload into the file-backed state and reads the page in.
func (s *System) LoadMappedFile(p *Page, aux Aux) error {
	a, ok := aux.(*MappedFileAux)
	if !ok {
		return fmt.Errorf("%w: %s page needs a mapped-file payload, got %s",
			ErrInvalidMapping, p, aux.Kind())
	}

	*p.file = filePage{
		file:      a.File,
		offset:    a.Offset,
		readBytes: a.ReadBytes,
		zeroBytes: a.ZeroBytes,
		mapBase:   a.MapBase,
	}

	return s.readPage(a.File, p.Contents(), a.Offset, a.ReadBytes)
}

func (s *System) fileSwapIn(p *Page, f *Frame) error {
	fp := p.file

	err := s.readPage(fp.file, f.data, fp.offset, fp.readBytes)
	if err != nil {
		return err
	}

	s.invokeHook(HookPosSwapIn, p, f)

	return nil
}

// fileSwapOut writes the page back to its file if it has been modified. Clean
// pages are simply dropped; they can be read again from the file.
func (s *System) fileSwapOut(p *Page) error {
	if s.mmu.IsDirty(p.pid(), p.vAddr) {
		err := s.writeBack(p)
		if err != nil {
			return err
		}
	}

	s.invokeHook(HookPosSwapOut, p, p.frame)

	return nil
}

func (s *System) fileDestroy(p *Page) {
	fp := p.file

	if p.frame != nil && s.mmu.IsDirty(p.pid(), p.vAddr) {
		err := s.writeBack(p)
		if err != nil {
			s.log.Error("write-back on destroy failed",
				"pid", p.pid(), "va", p.vAddr, "err", err)
		}
	}

	s.closeFile(fp.file)
	fp.file = nil
}

func (s *System) writeBack(p *Page) error {
	fp := p.file
	data := p.frame.data[:fp.readBytes]

	s.fsLock.Lock()
	n, err := fp.file.WriteAt(data, fp.offset)
	s.fsLock.Unlock()

	if err == nil && uint64(n) != fp.readBytes {
		err = ErrShortIO
	}

	if err != nil {
		return fmt.Errorf("writing back %s at offset %d: %w", p, fp.offset, err)
	}

	s.invokeHook(HookPosWriteBack, p, p.frame)

	return nil
}

// readPage reads readBytes of f at offset into dst and zeroes the rest of
// dst.
func (s *System) readPage(f File, dst []byte, offset int64, readBytes uint64) error {
	if readBytes > uint64(len(dst)) {
		return fmt.Errorf("%w: %d bytes do not fit in a page", ErrShortIO, readBytes)
	}

	s.fsLock.Lock()
	n, err := f.ReadAt(dst[:readBytes], offset)
	s.fsLock.Unlock()

	if uint64(n) != readBytes {
		if err == nil {
			err = ErrShortIO
		}

		return fmt.Errorf("reading %d bytes at offset %d: %w",
			readBytes, offset, err)
	}

	clear(dst[readBytes:])

	return nil
}

func (s *System) closeFile(f File) {
	if f == nil {
		return
	}

	s.fsLock.Lock()
	err := f.Close()
	s.fsLock.Unlock()

	if err != nil {
		s.log.Warn("closing file failed", "err", err)
	}
}
