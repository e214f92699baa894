package vm

import "fmt"

// LoadSegment is the initializer of pages holding a piece of a program image.
// It reads ReadBytes from the executable and zero-fills ZeroBytes after them.
func (s *System) LoadSegment(p *Page, aux Aux) error {
	a, ok := aux.(*LoadAux)
	if !ok {
		return fmt.Errorf("%s needs a load payload, got %s", p, aux.Kind())
	}

	if a.ReadBytes+a.ZeroBytes != s.pageSize {
		return fmt.Errorf("%s: %d read and %d zero bytes do not fill a page",
			p, a.ReadBytes, a.ZeroBytes)
	}

	return s.readPage(a.File, p.Contents(), a.Offset, a.ReadBytes)
}

// LoadProgram registers the lazily loaded pages of one program segment. The
// segment of readBytes file bytes starting at offset is followed by zeroBytes
// of zeros, and starts at the page-aligned address vAddr.
func (s *System) LoadProgram(
	space *AddressSpace,
	vAddr uint64,
	offset int64,
	readBytes, zeroBytes uint64,
	writable bool,
) error {
	if (readBytes+zeroBytes)%s.pageSize != 0 || s.pageOffset(vAddr) != 0 {
		return fmt.Errorf("%w: segment at 0x%x is not page aligned",
			ErrBadAddress, vAddr)
	}

	if space.Executable == nil {
		return ErrNoExecutable
	}

	for readBytes > 0 || zeroBytes > 0 {
		pageReadBytes := min(readBytes, s.pageSize)
		pageZeroBytes := s.pageSize - pageReadBytes

		aux := &LoadAux{
			File:      space.Executable,
			Offset:    offset,
			ReadBytes: pageReadBytes,
			ZeroBytes: pageZeroBytes,
		}

		err := s.AllocPage(space, KindAnon, vAddr, writable, s.LoadSegment, aux)
		if err != nil {
			return err
		}

		readBytes -= pageReadBytes
		zeroBytes -= pageZeroBytes
		vAddr += s.pageSize
		offset += int64(pageReadBytes)
	}

	return nil
}
