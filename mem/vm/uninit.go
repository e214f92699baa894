package vm

type uninitPage struct {
	target VariantKind
	init   Initializer
	aux    Aux
}

func newUninitPage(
	space *AddressSpace,
	vAddr uint64,
	writable bool,
	target VariantKind,
	init Initializer,
	aux Aux,
) *Page {
	if aux == nil {
		aux = AnonAux{}
	}

	return &Page{
		vAddr:    vAddr,
		writable: writable,
		space:    space,
		variant:  KindUninit,
		uninit: &uninitPage{
			target: target,
			init:   init,
			aux:    aux,
		},
	}
}

// uninitSwapIn turns the page into its target variant and runs the
// initializer. If the initializer fails the page goes back to being
// uninitialized and keeps ownership of its payload.
func (s *System) uninitSwapIn(p *Page) error {
	u := p.uninit

	s.transmute(p, u.target)

	if u.init != nil {
		err := u.init(p, u.aux)
		if err != nil {
			p.variant = KindUninit
			p.anon = nil
			p.file = nil

			return err
		}
	}

	p.uninit = nil

	return nil
}

// uninitDestroy frees the payload of a page that was never faulted in.
func (s *System) uninitDestroy(p *Page) {
	if aux, ok := p.uninit.aux.(*MappedFileAux); ok {
		s.closeFile(aux.File)
	}

	p.uninit = nil
}
