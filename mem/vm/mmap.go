package vm

import "fmt"

// Map maps length bytes of file, starting at offset, at addr. Every page of
// the mapping gets its own handle to the file and is loaded lazily. On
// failure no page of the mapping stays registered.
func (s *System) Map(
	space *AddressSpace,
	addr, length uint64,
	writable bool,
	file File,
	offset int64,
) (uint64, error) {
	fileLen, err := s.validateMapping(space, addr, length, file, offset)
	if err != nil {
		return 0, err
	}

	fileRemaining := uint64(0)
	if fileLen > offset {
		fileRemaining = uint64(fileLen - offset)
	}

	numPages := (length + s.pageSize - 1) / s.pageSize
	added := make([]*Page, 0, numPages)

	for i := uint64(0); i < numPages; i++ {
		vAddr := addr + i*s.pageSize
		pageOffset := offset + int64(i*s.pageSize)
		readBytes := min(fileRemaining, s.pageSize, length-i*s.pageSize)
		fileRemaining -= readBytes

		p, err := s.mapPage(space, vAddr, writable, file, &MappedFileAux{
			Offset:    pageOffset,
			ReadBytes: readBytes,
			ZeroBytes: s.pageSize - readBytes,
			MapBase:   addr,
		})
		if err != nil {
			for _, p := range added {
				s.RemovePage(p)
			}

			return 0, fmt.Errorf("mapping page 0x%x: %w", vAddr, err)
		}

		added = append(added, p)
	}

	s.invokeEventHook(HookPosMap, Event{
		PID: space.pid, VAddr: addr, Kind: KindFile, OK: true,
	})
	s.log.Debug("file mapped",
		"pid", space.pid, "addr", addr, "pages", numPages)

	return addr, nil
}

func (s *System) validateMapping(
	space *AddressSpace,
	addr, length uint64,
	file File,
	offset int64,
) (int64, error) {
	if file == nil || length == 0 {
		return 0, fmt.Errorf("%w: empty mapping", ErrInvalidMapping)
	}

	end := addr + length
	if !s.isUserAddr(addr) || s.pageOffset(addr) != 0 ||
		end < addr || end > s.userTop {
		return 0, fmt.Errorf("%w: 0x%x+%d", ErrBadAddress, addr, length)
	}

	if offset < 0 || s.pageOffset(uint64(offset)) != 0 {
		return 0, fmt.Errorf("%w: offset %d", ErrInvalidMapping, offset)
	}

	for vAddr := addr; vAddr < end; vAddr += s.pageSize {
		if _, found := space.spt.Find(vAddr); found {
			return 0, fmt.Errorf("%w at 0x%x", ErrPageExists, vAddr)
		}
	}

	s.fsLock.Lock()
	fileLen, err := file.Length()
	s.fsLock.Unlock()

	if err != nil {
		return 0, err
	}

	if fileLen == 0 {
		return 0, fmt.Errorf("%w: empty file", ErrInvalidMapping)
	}

	return fileLen, nil
}

// mapPage registers one page of a mapping with a freshly reopened handle.
func (s *System) mapPage(
	space *AddressSpace,
	vAddr uint64,
	writable bool,
	file File,
	aux *MappedFileAux,
) (*Page, error) {
	s.fsLock.Lock()
	handle, err := file.Reopen()
	s.fsLock.Unlock()

	if err != nil {
		return nil, fmt.Errorf("reopening file: %w", err)
	}

	aux.File = handle

	err = s.AllocPage(space, KindFile, vAddr, writable, s.LoadMappedFile, aux)
	if err != nil {
		s.closeFile(handle)
		return nil, err
	}

	p, _ := space.spt.Find(vAddr)

	return p, nil
}

// Unmap removes the mapping that contains the page at addr, starting from
// addr. Modified pages are written back to the file. It does nothing if addr
// is not inside a file mapping.
func (s *System) Unmap(space *AddressSpace, addr uint64) {
	pivot, found := space.spt.Find(addr)
	if !found || pivot.Kind() != KindFile {
		return
	}

	group, _ := pivot.MapBase()
	numPages := 0

	for vAddr := pivot.vAddr; ; vAddr += s.pageSize {
		p, found := space.spt.Find(vAddr)
		if !found || p.Kind() != KindFile {
			break
		}

		if base, _ := p.MapBase(); base != group {
			break
		}

		s.RemovePage(p)
		numPages++
	}

	s.invokeEventHook(HookPosUnmap, Event{
		PID: space.pid, VAddr: addr, Kind: KindFile, OK: true,
	})
	s.log.Debug("file unmapped",
		"pid", space.pid, "addr", addr, "pages", numPages)
}
