package vm

import (
	"errors"
	"fmt"
	"log"
)

// HandleFault resolves a page fault at addr. It returns false when the fault
// cannot be resolved, in which case the faulting process has to be
// terminated.
func (s *System) HandleFault(
	space *AddressSpace,
	addr uint64,
	write, user bool,
) bool {
	err := s.handleFault(space, addr, write)

	e := Event{PID: space.pid, VAddr: addr, OK: err == nil}
	s.invokeEventHook(HookPosFault, e)

	if err != nil {
		s.log.Debug("fault not handled",
			"pid", space.pid, "addr", addr, "write", write, "user", user,
			"err", err)

		return false
	}

	return true
}

func (s *System) handleFault(space *AddressSpace, addr uint64, write bool) error {
	if !s.isUserAddr(addr) {
		return fmt.Errorf("%w: 0x%x", ErrBadAddress, addr)
	}

	p, found := space.spt.Find(addr)
	if !found {
		return fmt.Errorf("%w: 0x%x", ErrNotMapped, addr)
	}

	if write && !p.writable {
		return fmt.Errorf("%w: 0x%x", ErrProtection, addr)
	}

	for {
		err := s.claim(p)
		if !errors.Is(err, ErrAlreadyResident) {
			return err
		}

		// Another thread of the process is faulting the same page in.
		if s.frames.awaitResident(p) {
			return nil
		}
	}
}

// Claim makes the page at vAddr resident.
func (s *System) Claim(space *AddressSpace, vAddr uint64) error {
	p, found := space.spt.Find(vAddr)
	if !found {
		return fmt.Errorf("%w: 0x%x", ErrNotMapped, vAddr)
	}

	return s.claim(p)
}

// claim binds a frame to p, maps it and fills it. On failure every step is
// undone and the frame goes back to the pool.
func (s *System) claim(p *Page) error {
	if s.frames.isResident(p) {
		return fmt.Errorf("%w: %s", ErrAlreadyResident, p)
	}

	f, err := s.frames.allocate()
	if err != nil {
		return fmt.Errorf("claiming %s: %w", p, err)
	}

	if !s.frames.bind(f, p) {
		s.frames.Free(f)
		return fmt.Errorf("%w: %s", ErrAlreadyResident, p)
	}

	err = s.mmu.SetMapping(p.pid(), p.vAddr, f.kva, p.writable)
	if err != nil {
		s.frames.release(f)
		return fmt.Errorf("mapping %s: %w", p, err)
	}

	err = s.swapIn(p, f)
	if err != nil {
		s.mmu.ClearMapping(p.pid(), p.vAddr)
		s.frames.release(f)

		return fmt.Errorf("swapping in %s: %w", p, err)
	}

	s.frames.Unpin(f)
	s.invokeHook(HookPosClaim, p, f)

	return nil
}

// evict is called by the frame manager, with its lock held, on the page of a
// victim frame.
func (s *System) evict(p *Page) error {
	if p.variant == KindUninit {
		log.Panicf("uninitialized %s cannot be resident", p)
	}

	err := s.swapOut(p)
	if err != nil {
		return err
	}

	s.mmu.ClearMapping(p.pid(), p.vAddr)
	s.invokeHook(HookPosEvict, p, p.frame)

	return nil
}
