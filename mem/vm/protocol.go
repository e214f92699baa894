package vm

import "log"

// swapIn materializes the contents of p into f. The frame is bound to p and
// pinned by the caller.
func (s *System) swapIn(p *Page, f *Frame) error {
	switch p.variant {
	case KindUninit:
		return s.uninitSwapIn(p)
	case KindAnon:
		return s.anonSwapIn(p, f)
	case KindFile:
		return s.fileSwapIn(p, f)
	}

	log.Panicf("cannot swap in page of kind %s", p.variant)

	return nil
}

// swapOut persists what is needed to rebuild p, after which its frame can be
// reused. The mapping is still installed when swapOut runs.
func (s *System) swapOut(p *Page) error {
	switch p.variant {
	case KindAnon:
		return s.anonSwapOut(p)
	case KindFile:
		return s.fileSwapOut(p)
	}

	log.Panicf("cannot swap out page of kind %s", p.variant)

	return nil
}

// destroy releases the resources owned by the variant of p. The page and its
// frame binding are released by the caller.
func (s *System) destroy(p *Page) {
	switch p.variant {
	case KindUninit:
		s.uninitDestroy(p)
	case KindAnon:
		s.anonDestroy(p)
	case KindFile:
		s.fileDestroy(p)
	default:
		log.Panicf("cannot destroy page of kind %s", p.variant)
	}
}

// transmute installs the target variant with zeroed state.
func (s *System) transmute(p *Page, target VariantKind) {
	switch target {
	case KindAnon:
		p.anon = &anonPage{}
	case KindFile:
		p.file = &filePage{}
	default:
		log.Panicf("cannot transmute page into %s", target)
	}

	p.variant = target
}
