package vm

import (
	"fmt"
	"log"
)

// Copy duplicates the pages of src into dst. Pages that were never faulted
// in are re-registered with a copy of their payload; resident anonymous
// pages are copied eagerly into frames of their own. Memory-mapped pages
// follow the fork mapping policy.
//
// src must not run while it is copied. On failure dst may hold part of the
// copy and should be destroyed by the caller.
func (s *System) Copy(dst, src *AddressSpace) error {
	for _, p := range src.spt.Pages() {
		var err error

		switch p.variant {
		case KindUninit:
			err = s.copyUninit(dst, p)
		case KindAnon:
			err = s.copyAnon(dst, p)
		case KindFile:
			err = s.copyFile(dst, p)
		default:
			log.Panicf("cannot copy %s", p)
		}

		if err != nil {
			return fmt.Errorf("copying %s: %w", p, err)
		}
	}

	return nil
}

func (s *System) copyUninit(dst *AddressSpace, p *Page) error {
	u := p.uninit

	switch aux := u.aux.(type) {
	case *LoadAux:
		if dst.Executable == nil {
			return ErrNoExecutable
		}

		dstAux := *aux
		dstAux.File = dst.Executable

		return s.AllocPage(dst, u.target, p.vAddr, p.writable, u.init, &dstAux)
	case AnonAux:
		return s.AllocPage(dst, u.target, p.vAddr, p.writable, u.init, aux)
	case *MappedFileAux:
		if s.forkPolicy == ForkSkipMappings {
			return nil
		}

		dstAux := *aux
		_, err := s.mapPage(dst, p.vAddr, p.writable, aux.File, &dstAux)

		return err
	}

	log.Panicf("unknown payload %T", u.aux)

	return nil
}

// copyAnon gives dst a resident anonymous page with the contents of p. The
// contents are taken before the new page is claimed, since the claim may
// have to evict p itself.
func (s *System) copyAnon(dst *AddressSpace, p *Page) error {
	contents, err := s.anonContents(p)
	if err != nil {
		return err
	}

	copyContents := func(dstPage *Page, _ Aux) error {
		copy(dstPage.Contents(), contents)
		return nil
	}

	err = s.AllocPage(dst, KindAnon, p.vAddr, p.writable, copyContents, AnonAux{})
	if err != nil {
		return err
	}

	return s.Claim(dst, p.vAddr)
}

// anonContents returns a copy of the memory of p, taken from its frame or
// from its swap slot.
func (s *System) anonContents(p *Page) ([]byte, error) {
	buf := make([]byte, s.pageSize)

	if f := s.frames.pinPage(p); f != nil {
		copy(buf, f.data)
		s.frames.Unpin(f)

		return buf, nil
	}

	if p.anon.swapped {
		err := s.swap.Read(p.anon.slot, buf)
		if err != nil {
			return nil, fmt.Errorf("reading swap slot %d: %w", p.anon.slot, err)
		}
	}

	return buf, nil
}

// copyFile registers the page of a mapping in dst under the inherit policy.
// Modified contents are written back first so that the copy, which reads
// the file lazily, sees them.
func (s *System) copyFile(dst *AddressSpace, p *Page) error {
	if s.forkPolicy == ForkSkipMappings {
		return nil
	}

	srcFrame := s.frames.pinPage(p)
	if srcFrame != nil {
		defer s.frames.Unpin(srcFrame)

		if s.mmu.IsDirty(p.pid(), p.vAddr) {
			err := s.writeBack(p)
			if err != nil {
				return err
			}
		}
	}

	fp := p.file
	aux := &MappedFileAux{
		Offset:    fp.offset,
		ReadBytes: fp.readBytes,
		ZeroBytes: fp.zeroBytes,
		MapBase:   fp.mapBase,
	}

	_, err := s.mapPage(dst, p.vAddr, p.writable, fp.file, aux)

	return err
}

// Fork creates the address space of a child process as a copy of parent. The
// child gets its own handle to the executable of the parent.
func (s *System) Fork(parent *AddressSpace, childPID PID) (*AddressSpace, error) {
	var executable File

	if parent.Executable != nil {
		s.fsLock.Lock()
		handle, err := parent.Executable.Reopen()
		s.fsLock.Unlock()

		if err != nil {
			return nil, fmt.Errorf("reopening executable: %w", err)
		}

		executable = handle
	}

	child := s.NewAddressSpace(childPID, executable)

	err := s.Copy(child, parent)
	if err != nil {
		s.Destroy(child)
		return nil, err
	}

	s.invokeEventHook(HookPosFork, Event{PID: childPID, OK: true})
	s.log.Debug("address space forked",
		"parent", parent.pid, "child", childPID)

	return child, nil
}
