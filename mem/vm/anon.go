package vm

import "fmt"

type anonPage struct {
	slot    Slot
	swapped bool
}

// anonSwapIn reads the page back from its swap slot. A page that has never
// been swapped out is left zero-filled.
func (s *System) anonSwapIn(p *Page, f *Frame) error {
	a := p.anon
	if !a.swapped {
		return nil
	}

	err := s.swap.Read(a.slot, f.data)
	if err != nil {
		return fmt.Errorf("reading %s from swap slot %d: %w", p, a.slot, err)
	}

	s.swap.Release(a.slot)
	a.swapped = false

	s.invokeHook(HookPosSwapIn, p, f)

	return nil
}

func (s *System) anonSwapOut(p *Page) error {
	if s.swap == nil {
		return ErrNoSwap
	}

	slot, err := s.swap.Reserve()
	if err != nil {
		return fmt.Errorf("reserving swap slot for %s: %w", p, err)
	}

	err = s.swap.Write(slot, p.frame.data)
	if err != nil {
		s.swap.Release(slot)
		return fmt.Errorf("writing %s to swap slot %d: %w", p, slot, err)
	}

	p.anon.slot = slot
	p.anon.swapped = true

	s.invokeHook(HookPosSwapOut, p, p.frame)

	return nil
}

func (s *System) anonDestroy(p *Page) {
	if p.anon.swapped {
		s.swap.Release(p.anon.slot)
		p.anon.swapped = false
	}
}
